package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/proposalagent/backend/internal/domain"
)

// minBundleSlots is the number of resolved slots a bundle needs before it is offered
const minBundleSlots = 2

// BundleSlot is one included-product position of a bundle template
type BundleSlot struct {
	Keywords []string
	Quantity int
}

// BundleTemplate describes a discounted package triggered by extracted labels
type BundleTemplate struct {
	Name     string
	Triggers []string // any one extracted label is enough
	Required []string // at least one must be an extracted label or a catalog name substring
	Slots    []BundleSlot
	Discount float64
}

// BundleTemplates is the fixed package table
var BundleTemplates = []BundleTemplate{
	{
		Name:     "Off-Grid Living Package",
		Triggers: []string{"offgrid", "solar", "remote"},
		Required: []string{"offgrid", "solar"},
		Slots: []BundleSlot{
			{Keywords: []string{"20ft", "container", "studio"}, Quantity: 1},
			{Keywords: []string{"solar", "pre-wir", "panel"}, Quantity: 1},
			{Keywords: []string{"composting", "toilet", "eco"}, Quantity: 1},
			{Keywords: []string{"battery", "storage", "power"}, Quantity: 1},
			{Keywords: []string{"water", "tank", "storage"}, Quantity: 1},
			{Keywords: []string{"insulation", "spray", "foam"}, Quantity: 1},
		},
		Discount: 0.10,
	},
	{
		Name:     "Complete Office Setup",
		Triggers: []string{"office", "workspace"},
		Required: []string{"container", "office"},
		Slots: []BundleSlot{
			{Keywords: []string{"office", "container"}, Quantity: 1},
			{Keywords: []string{"electrical", "upgrade"}, Quantity: 1},
			{Keywords: []string{"ac", "hvac", "climate"}, Quantity: 1},
			{Keywords: []string{"furniture", "desk"}, Quantity: 1},
		},
		Discount: 0.05,
	},
	{
		Name:     "ADU Living Package",
		Triggers: []string{"adu", "rental", "backyard"},
		Required: []string{"adu", "studio"},
		Slots: []BundleSlot{
			{Keywords: []string{"adu", "studio", "alpine"}, Quantity: 1},
			{Keywords: []string{"interior", "upgrade", "finish"}, Quantity: 1},
			{Keywords: []string{"rooftop", "deck"}, Quantity: 1},
			{Keywords: []string{"electrical", "plumbing"}, Quantity: 1},
		},
		Discount: 0.07,
	},
	{
		Name:     "Construction Site Bundle",
		Triggers: []string{"construction", "site", "crew"},
		Required: []string{"container"},
		Slots: []BundleSlot{
			{Keywords: []string{"40ft", "container"}, Quantity: 2},
			{Keywords: []string{"office", "container"}, Quantity: 1},
			{Keywords: []string{"bathroom", "restroom"}, Quantity: 1},
			{Keywords: []string{"onsite", "delivery"}, Quantity: 1},
		},
		Discount: 0.08,
	},
	{
		Name:     "Startup Workspace",
		Triggers: []string{"startup", "tech", "team"},
		Required: []string{"office", "workspace"},
		Slots: []BundleSlot{
			{Keywords: []string{"20ft", "office"}, Quantity: 1},
			{Keywords: []string{"ac", "climate"}, Quantity: 1},
			{Keywords: []string{"interior", "modern"}, Quantity: 1},
			{Keywords: []string{"consultation"}, Quantity: 1},
		},
		Discount: 0.06,
	},
}

// IdentifyBundles instantiates every triggered template against the catalog.
// Slots resolve independently to the first product containing any slot keyword,
// so two slots may resolve to the same product. Results are ordered by confidence desc.
func IdentifyBundles(keywords KeywordSet, products []domain.Product) []domain.ProductBundle {
	bundles := make([]domain.ProductBundle, 0)

	for _, tmpl := range BundleTemplates {
		if !anyLabel(keywords, tmpl.Triggers) {
			continue
		}
		if !requirementSatisfiable(tmpl.Required, keywords, products) {
			continue
		}

		var (
			items []domain.BundleItem
			gross int64
		)
		for _, slot := range tmpl.Slots {
			product, ok := firstProductContaining(products, slot.Keywords)
			if !ok {
				continue
			}
			items = append(items, domain.BundleItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    slot.Quantity,
			})
			gross += product.UnitPrice * int64(slot.Quantity)
		}

		if len(items) < minBundleSlots {
			continue
		}

		total := int64(math.Round(float64(gross) * (1 - tmpl.Discount)))
		bundles = append(bundles, domain.ProductBundle{
			Name:        tmpl.Name,
			Description: fmt.Sprintf("Save %.0f%% with this curated bundle", tmpl.Discount*100),
			Products:    items,
			TotalPrice:  total,
			Savings:     gross - total,
			Confidence:  float64(len(items)) / float64(len(tmpl.Slots)),
		})
	}

	sort.SliceStable(bundles, func(i, j int) bool {
		return bundles[i].Confidence > bundles[j].Confidence
	})
	return bundles
}

func anyLabel(keywords KeywordSet, labels []string) bool {
	for _, l := range labels {
		if keywords.Has(l) {
			return true
		}
	}
	return false
}

func requirementSatisfiable(required []string, keywords KeywordSet, products []domain.Product) bool {
	for _, req := range required {
		if keywords.Has(req) {
			return true
		}
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), req) {
				return true
			}
		}
	}
	return false
}

// firstProductContaining returns the first catalog product whose lowercased name
// contains any of the substrings
func firstProductContaining(products []domain.Product, substrings []string) (domain.Product, bool) {
	for _, p := range products {
		if nameContainsAny(strings.ToLower(p.Name), substrings) {
			return p, true
		}
	}
	return domain.Product{}, false
}

func nameContainsAny(nameLower string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(nameLower, s) {
			return true
		}
	}
	return false
}
