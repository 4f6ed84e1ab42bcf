package usecase

import (
	"sort"
	"strings"

	"github.com/proposalagent/backend/internal/domain"
)

const (
	complementaryConfidence = 0.75
	maxComplementary        = 3
)

// ComplementaryRule suggests add-ons when a selected product name contains any If substring
type ComplementaryRule struct {
	If      []string
	Suggest []string
	Reason  string
}

// ComplementaryRules is the fixed association table
var ComplementaryRules = []ComplementaryRule{
	{
		If:      []string{"container", "unit"},
		Suggest: []string{"electrical", "upgrade"},
		Reason:  "Most container units need electrical upgrades",
	},
	{
		If:      []string{"office"},
		Suggest: []string{"ac", "hvac", "climate"},
		Reason:  "Office containers typically need climate control",
	},
	{
		If:      []string{"adu", "studio"},
		Suggest: []string{"rooftop", "deck"},
		Reason:  "Rooftop decks maximize living space for ADUs",
	},
	{
		If:      []string{"40ft", "53ft"},
		Suggest: []string{"onsite", "assessment"},
		Reason:  "Larger containers benefit from site assessment",
	},
	{
		If:      []string{"kitchen"},
		Suggest: []string{"plumbing", "electrical"},
		Reason:  "Kitchen containers require utilities",
	},
}

// SuggestComplementaryProducts proposes at most three catalog products that are not
// already selected. Suggestions are advisory and never alter the match list.
func SuggestComplementaryProducts(selectedProductIDs []string, allProducts []domain.Product) []domain.ComplementarySuggestion {
	selected := make(map[string]bool, len(selectedProductIDs))
	for _, id := range selectedProductIDs {
		selected[id] = true
	}

	var selectedNames []string
	for _, p := range allProducts {
		if selected[p.ID] {
			selectedNames = append(selectedNames, strings.ToLower(p.Name))
		}
	}

	suggestions := make([]domain.ComplementarySuggestion, 0)
	seen := make(map[string]bool)

	for _, rule := range ComplementaryRules {
		fired := false
		for _, name := range selectedNames {
			if nameContainsAny(name, rule.If) {
				fired = true
				break
			}
		}
		if !fired {
			continue
		}

		for _, p := range allProducts {
			if selected[p.ID] || seen[p.ID] {
				continue
			}
			if !nameContainsAny(strings.ToLower(p.Name), rule.Suggest) {
				continue
			}
			seen[p.ID] = true
			suggestions = append(suggestions, domain.ComplementarySuggestion{
				ProductID:   p.ID,
				ProductName: p.Name,
				Reason:      rule.Reason,
				Confidence:  complementaryConfidence,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > maxComplementary {
		suggestions = suggestions[:maxComplementary]
	}
	return suggestions
}
