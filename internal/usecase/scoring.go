package usecase

import (
	"strings"

	"github.com/proposalagent/backend/internal/domain"
)

// ScoreProduct accumulates weight*multiplier for every extracted label whose
// name rule the product satisfies. Pure function of (product name, keywords).
func ScoreProduct(product domain.Product, keywords KeywordSet) int {
	score, _ := scoreProductDetail(product.Name, keywords)
	return score
}

// scoreProductDetail returns the score and the labels that contributed to it
func scoreProductDetail(name string, keywords KeywordSet) (int, []string) {
	if len(keywords) == 0 {
		return 0, nil
	}

	nameLower := strings.ToLower(name)
	score := 0
	var matched []string

	for _, p := range KeywordPatterns {
		if !keywords.Has(p.Label) {
			continue
		}
		if p.Rule.Matches(nameLower) {
			score += p.Points()
			matched = append(matched, p.Label)
		}
	}

	return score, matched
}

// ScoreProducts scores every catalog product, preserving catalog order
func ScoreProducts(products []domain.Product, keywords KeywordSet) []domain.ScoredProduct {
	scored := make([]domain.ScoredProduct, 0, len(products))
	for _, product := range products {
		score, labels := scoreProductDetail(product.Name, keywords)
		scored = append(scored, domain.ScoredProduct{
			Product:       product,
			Score:         score,
			MatchedLabels: labels,
		})
	}
	return scored
}
