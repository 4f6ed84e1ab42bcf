package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalagent/backend/internal/domain"
)

func TestParseRefinement(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantMatches []domain.ProductMatch
		wantBudget  string
		wantErr     bool
	}{
		{
			name:    "plain json",
			content: `{"matchedProducts":[{"productId":"p-1","productName":"Office","quantity":2.7,"unitPrice":1000,"confidence":0.8}],"estimatedBudget":"$50,000"}`,
			wantMatches: []domain.ProductMatch{
				{ProductID: "p-1", ProductName: "Office", Quantity: 2, UnitPrice: 1000, Confidence: 0.8},
			},
			wantBudget: "$50,000",
		},
		{
			name:    "fenced json with null strings",
			content: "```json\n{\"matchedProducts\":[{\"productId\":\" p-2 \"}],\"estimatedBudget\":\"null\"}\n```",
			wantMatches: []domain.ProductMatch{
				{ProductID: "p-2", Quantity: 1},
			},
		},
		{
			name:        "blank ids skipped and zero quantity defaults",
			content:     `{"matchedProducts":[{"productId":""},{"productId":"p-3","quantity":0}]}`,
			wantMatches: []domain.ProductMatch{{ProductID: "p-3", Quantity: 1}},
		},
		{
			name:    "not json",
			content: "I think the customer wants an office",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseRefinement(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatches, resp.MatchedProducts)
			assert.Equal(t, tt.wantBudget, resp.EstimatedBudget)
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	req := testRequest()
	req.Baseline = &domain.AnalysisResult{
		MatchedProducts: []domain.ProductMatch{{ProductID: "p-1", ProductName: "20ft New High Cube Container"}},
	}

	prompt := buildUserPrompt(req)

	assert.Contains(t, prompt, "PRODUCT CATALOG (2 products)")
	assert.Contains(t, prompt, "ID: p-2\nName: 20ft Office\nPrice: $9000.00")
	assert.Contains(t, prompt, "CUSTOMER: Jane Smith")
	assert.Contains(t, prompt, "- 20ft New High Cube Container (p-1)")
	assert.Contains(t, prompt, `"matchedProducts"`)
}

func TestBuildChatRequest(t *testing.T) {
	req := buildChatRequest("m", testRequest())

	assert.Equal(t, "m", req.Model)
	assert.Equal(t, "json_object", req.ResponseFormat.Type)
	assert.Equal(t, maxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "comparison, not a purchase request")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "1234.56", formatCents(123456))
	assert.Equal(t, "5000.00", formatCents(500000))
}
