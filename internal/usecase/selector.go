package usecase

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/proposalagent/backend/internal/domain"
)

// SelectBestProducts drops non-positive scores and orders the rest by
// score desc, unit price asc, name asc (locale-aware), id asc.
// The input slice is left untouched.
func SelectBestProducts(scored []domain.ScoredProduct) []domain.ScoredProduct {
	candidates := make([]domain.ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		if sp.Score > 0 {
			candidates = append(candidates, sp)
		}
	}
	if len(candidates) == 0 {
		return candidates
	}

	// Collators keep internal buffers and are not safe for concurrent use
	names := collate.New(language.English)

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.UnitPrice != b.UnitPrice {
			return a.UnitPrice < b.UnitPrice
		}
		if c := names.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	return candidates
}

// sortStrings sorts in place; kept here so label ordering has one home
func sortStrings(s []string) {
	sort.Strings(s)
}
