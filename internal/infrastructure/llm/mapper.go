package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/proposalagent/backend/internal/domain"
)

const (
	temperature = 0.1
	maxTokens   = 2000
)

const systemPrompt = `You are an expert sales proposal generator for a container sales company. Analyze customer conversations and match customer requests to products in the catalog.

RULES:
1. Only include products the CUSTOMER explicitly requested. Products listed by sales as options are not requests.
2. Use product ids and names exactly as they appear in the catalog.
3. Quantities: "two" or "2" is 2, "a couple" is 2, "a few" is 3, "several" is 4, no mention is 1.
4. "discussing X vs Y" is a comparison, not a purchase request. Do not include products that were only discussed or compared.
5. Extract timeline, budget and the customer's name when mentioned.

Respond with ONLY valid JSON matching the requested schema.`

const responseSchema = `{
  "requirements": [list each requirement found],
  "reasoningSteps": [explain your logic for each product selection],
  "matchedProducts": [
    {
      "productId": "exact id from catalog",
      "productName": "exact name from catalog",
      "quantity": number,
      "evidence": "exact quote from conversation",
      "reasoning": "why this product matches the requirement",
      "confidence": 0.0-1.0
    }
  ],
  "unmatchedNeeds": [any requirements you couldn't match],
  "estimatedBudget": "budget if mentioned or null",
  "timeline": "timeline if mentioned or null",
  "customerName": "customer name from conversation or null",
  "additionalNotes": "special requests or null"
}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// wireMatch tolerates the loose typing models tend to produce
type wireMatch struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
	Evidence    string   `json:"evidence"`
	Reasoning   string   `json:"reasoning"`
	Confidence  *float64 `json:"confidence"`
}

type wireResponse struct {
	Requirements    []string    `json:"requirements"`
	ReasoningSteps  []string    `json:"reasoningSteps"`
	MatchedProducts []wireMatch `json:"matchedProducts"`
	UnmatchedNeeds  []string    `json:"unmatchedNeeds"`
	EstimatedBudget *string     `json:"estimatedBudget"`
	Timeline        *string     `json:"timeline"`
	CustomerName    *string     `json:"customerName"`
	AdditionalNotes *string     `json:"additionalNotes"`
}

func buildChatRequest(model string, req *domain.RefinementRequest) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
	}
}

func buildUserPrompt(req *domain.RefinementRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PRODUCT CATALOG (%d products):\n", len(req.Catalog))
	for i, p := range req.Catalog {
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "ID: %s\nName: %s\nPrice: $%s\n", p.ID, p.Name, formatCents(p.UnitPrice))
	}

	fmt.Fprintf(&b, "\nCUSTOMER: %s\nCONVERSATION NOTES:\n%s\n", req.CustomerName, req.ConversationNotes)

	if req.Baseline != nil && len(req.Baseline.MatchedProducts) > 0 {
		b.WriteString("\nKEYWORD MATCHER SUGGESTIONS (verify against the conversation, do not copy blindly):\n")
		for _, m := range req.Baseline.MatchedProducts {
			fmt.Fprintf(&b, "- %s (%s)\n", m.ProductName, m.ProductID)
		}
	}

	b.WriteString("\nTASK: Identify what the customer actually requested and match it to catalog products.\n")
	b.WriteString("Return a JSON response with this EXACT structure:\n")
	b.WriteString(responseSchema)
	return b.String()
}

// parseRefinement decodes the model output, stripping markdown fences if present
func parseRefinement(content string) (*domain.RefinementResponse, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}

	resp := &domain.RefinementResponse{
		Requirements:    wire.Requirements,
		ReasoningSteps:  wire.ReasoningSteps,
		UnmatchedNeeds:  wire.UnmatchedNeeds,
		EstimatedBudget: deref(wire.EstimatedBudget),
		Timeline:        deref(wire.Timeline),
		CustomerName:    deref(wire.CustomerName),
		AdditionalNotes: deref(wire.AdditionalNotes),
	}

	for _, m := range wire.MatchedProducts {
		if strings.TrimSpace(m.ProductID) == "" {
			continue
		}
		match := domain.ProductMatch{
			ProductID:   strings.TrimSpace(m.ProductID),
			ProductName: m.ProductName,
			Quantity:    1,
			Evidence:    m.Evidence,
			Reasoning:   m.Reasoning,
		}
		if m.Quantity != nil && *m.Quantity >= 1 {
			match.Quantity = int(math.Floor(*m.Quantity))
		}
		if m.UnitPrice != nil && *m.UnitPrice > 0 {
			match.UnitPrice = int64(math.Round(*m.UnitPrice))
		}
		if m.Confidence != nil {
			match.Confidence = *m.Confidence
		}
		resp.MatchedProducts = append(resp.MatchedProducts, match)
	}

	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
