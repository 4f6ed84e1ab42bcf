package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/proposalagent/backend/internal/domain"
)

const testCatalog = `Product Name,Price
Shipping Container,"$3,000.00"
20ft New High Cube Container,"$5,000.00"
Solar Panel Kit,"$1,200.00"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv", testCatalog)
	notesPath := writeFile(t, dir, "notes.txt", "I would love a new high cube container. I need 2 containers.")

	out, err := execute(t, "", "analyze", "--catalog", catalogPath, "--notes", notesPath, "--customer", "Sam")
	require.NoError(t, err)

	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.MatchedProducts, 2)
	assert.Equal(t, "20ft New High Cube Container", result.MatchedProducts[0].ProductName)
	assert.Equal(t, "Shipping Container", result.MatchedProducts[1].ProductName)
	assert.Equal(t, "Sam", result.CustomerName)
	assert.Equal(t, domain.SourceDeterministic, result.Source)
}

func TestAnalyzeCommand_StdinAndYAML(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv", testCatalog)

	out, err := execute(t, "Looking at a solar panel setup for the cabin", "analyze",
		"--catalog", catalogPath, "--notes", "-", "--output", "yaml")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	matches, ok := result["matchedProducts"].([]interface{})
	require.True(t, ok, "matchedProducts missing from %s", out)
	require.Len(t, matches, 1)
	assert.Equal(t, "Solar Panel Kit", matches[0].(map[string]interface{})["productName"])
}

func TestQuoteCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv", testCatalog)
	notesPath := writeFile(t, dir, "notes.txt", "My name is Jordan Lee. We want a new high cube container.")

	out, err := execute(t, "", "quote", "--catalog", catalogPath, "--notes", notesPath, "--sequence", "12", "--tax-rate", "0.1")
	require.NoError(t, err)

	var result domain.GenerateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Proposal)
	assert.Equal(t, "BC-SEQ-000012", result.Proposal.ProposalNumber)
	assert.Equal(t, "Jordan Lee", result.Proposal.CustomerName)
	assert.Equal(t, int64(800000), result.Proposal.Subtotal)
	assert.Equal(t, int64(80000), result.Proposal.Tax)
	assert.Equal(t, int64(880000), result.Proposal.Total)
}

func TestQuoteCommand_NoMatch(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv", testCatalog)
	notesPath := writeFile(t, dir, "notes.txt", "Looking for something, not sure")

	_, err := execute(t, "", "quote", "--catalog", catalogPath, "--notes", notesPath)
	assert.ErrorIs(t, err, domain.ErrNoMatchedProducts)
}

func TestKeywordsCommand(t *testing.T) {
	out, err := execute(t, "new high cube container with solar", "keywords", "--notes", "-")
	require.NoError(t, err)

	var report keywordReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"container", "high_cube", "new", "solar"}, report.Labels)
	assert.Len(t, report.Requirements, 4)
	assert.Equal(t, 24+45+16+18, report.MaxScore)
}

func TestRootCommand_Validation(t *testing.T) {
	t.Run("rejects unknown output", func(t *testing.T) {
		_, err := execute(t, "x", "keywords", "--notes", "-", "--output", "xml")
		assert.Error(t, err)
	})

	t.Run("requires notes", func(t *testing.T) {
		_, err := execute(t, "", "keywords")
		assert.Error(t, err)
	})

	t.Run("rejects bad tax rate", func(t *testing.T) {
		_, err := execute(t, "", "quote", "--notes", "-", "--tax-rate", "1.5")
		assert.Error(t, err)
	})

	t.Run("missing catalog", func(t *testing.T) {
		_, err := execute(t, "new container", "analyze", "--catalog", filepath.Join(t.TempDir(), "none.csv"), "--notes", "-")
		assert.Error(t, err)
	})
}
