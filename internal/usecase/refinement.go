package usecase

import (
	"math"
	"strings"

	"github.com/proposalagent/backend/internal/domain"
)

const (
	defaultRefinedConfidence = 0.5
	refinedEvidence          = "Matched by refinement analysis"
	refinedReasoning         = "Refinement determined this product matches the requirement"
)

// ApplyRefinement overlays a refinement response on the deterministic baseline.
// Matches referencing unknown product ids are dropped. When no valid match survives
// the baseline is returned unchanged. The baseline is never mutated.
func ApplyRefinement(baseline *domain.AnalysisResult, resp *domain.RefinementResponse, catalog []domain.Product) (*domain.AnalysisResult, int) {
	if baseline == nil || resp == nil {
		return baseline, 0
	}

	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	matches := make([]domain.ProductMatch, 0, len(resp.MatchedProducts))
	dropped := 0
	for _, m := range resp.MatchedProducts {
		product, ok := byID[m.ProductID]
		if !ok {
			dropped++
			continue
		}
		matches = append(matches, sanitizeRefinedMatch(m, product))
	}

	if len(matches) == 0 {
		return baseline, dropped
	}

	refined := *baseline
	refined.MatchedProducts = matches
	refined.Source = domain.SourceRefined
	if len(resp.Requirements) > 0 {
		refined.Requirements = append([]string(nil), resp.Requirements...)
	}
	refined.UnmatchedNeeds = nonEmpty(resp.UnmatchedNeeds)
	if v := strings.TrimSpace(resp.EstimatedBudget); v != "" {
		refined.EstimatedBudget = v
	}
	if v := strings.TrimSpace(resp.Timeline); v != "" {
		refined.Timeline = v
	}
	if v := strings.TrimSpace(resp.CustomerName); v != "" {
		refined.CustomerName = v
	}
	if v := strings.TrimSpace(resp.AdditionalNotes); v != "" {
		refined.AdditionalNotes = v
	} else {
		refined.AdditionalNotes = "Selected using refinement-enhanced analysis"
	}

	return &refined, dropped
}

// sanitizeRefinedMatch clamps untrusted fields. Name and price always come from the catalog.
func sanitizeRefinedMatch(m domain.ProductMatch, product domain.Product) domain.ProductMatch {
	out := domain.ProductMatch{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    m.Quantity,
		UnitPrice:   product.UnitPrice,
		Confidence:  m.Confidence,
		Evidence:    strings.TrimSpace(m.Evidence),
		Reasoning:   strings.TrimSpace(m.Reasoning),
	}
	if out.Quantity < 1 {
		out.Quantity = 1
	}
	if out.Confidence <= 0 || math.IsNaN(out.Confidence) {
		out.Confidence = defaultRefinedConfidence
	}
	out.Confidence = math.Min(1, math.Max(0, out.Confidence))
	if out.Evidence == "" {
		out.Evidence = refinedEvidence
	}
	if out.Reasoning == "" {
		out.Reasoning = refinedReasoning
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
