package usecase

import (
	"regexp"
	"strings"
)

// Score multipliers applied to a pattern weight when a product name satisfies the label
const (
	defaultMultiplier  = 2
	specificMultiplier = 3 // most specific label, wins ties in its favor
)

// NameRule decides whether a lowercased product name satisfies a label.
// Every AllOf substring must be present, and at least one AnyOf substring when AnyOf is set.
type NameRule struct {
	AnyOf []string
	AllOf []string
}

// Matches reports whether the lowercased product name satisfies the rule
func (r NameRule) Matches(nameLower string) bool {
	if len(r.AnyOf) == 0 && len(r.AllOf) == 0 {
		return false
	}
	for _, s := range r.AllOf {
		if !strings.Contains(nameLower, s) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, s := range r.AnyOf {
		if strings.Contains(nameLower, s) {
			return true
		}
	}
	return false
}

// KeywordPattern is one labeled customer-need category
type KeywordPattern struct {
	Label       string
	Description string
	Patterns    []*regexp.Regexp
	Weight      int
	Multiplier  int
	Rule        NameRule
}

// Points is the score a satisfying product earns for this label
func (p KeywordPattern) Points() int {
	m := p.Multiplier
	if m <= 0 {
		m = defaultMultiplier
	}
	return p.Weight * m
}

// patterns compiles case-insensitive expressions for a pattern group
func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// KeywordPatterns is the ordered label table. Order only matters for output ordering;
// a label is reported at most once regardless of how many of its patterns match.
var KeywordPatterns = []KeywordPattern{
	// Main container products
	{
		Label:       "container",
		Description: "Container unit",
		Patterns:    patterns(`container`, `shipping\s+container`, `storage\s+container`),
		Weight:      12,
		Rule:        NameRule{AnyOf: []string{"container", "unit"}},
	},
	{
		Label:       "adu",
		Description: "Accessory dwelling unit (ADU)",
		Patterns:    patterns(`\badu\b`, `backyard\s+rental`, `guest\s+house`, `tiny\s+home`, `accessory\s+dwelling`),
		Weight:      10,
		Rule:        NameRule{AnyOf: []string{"adu", "studio", "alpine"}},
	},
	{
		Label:       "20ft",
		Description: "20 ft size",
		Patterns:    patterns(`20[\s-]?ft`, `20[\s-]?foot`, `twenty[\s-]?foot`, `20'`),
		Weight:      10,
		Rule:        NameRule{AnyOf: []string{"20"}},
	},
	{
		Label:       "high_cube",
		Description: "High cube container",
		Patterns:    patterns(`high\s+cube`, `high\s+cube\s+container`, `new\s+high\s+cube`),
		Weight:      15,
		Multiplier:  specificMultiplier,
		Rule:        NameRule{AllOf: []string{"high", "cube"}},
	},
	{
		Label:       "new",
		Description: "New (one-trip) condition",
		Patterns:    patterns(`\bnew\s+container`, `\bnew\s+20`, `\bnew\s+high`),
		Weight:      8,
		Rule:        NameRule{AnyOf: []string{"new"}},
	},
	{
		Label:       "40ft",
		Description: "40 ft size",
		Patterns:    patterns(`40[\s-]?ft`, `40[\s-]?foot`, `forty[\s-]?foot`, `40'`),
		Weight:      10,
		Rule:        NameRule{AnyOf: []string{"40"}},
	},
	{
		Label:       "53ft",
		Description: "53 ft size",
		Patterns:    patterns(`53[\s-]?ft`, `53[\s-]?foot`, `fifty[\s-]?three[\s-]?foot`, `53'`),
		Weight:      10,
		Rule:        NameRule{AnyOf: []string{"53"}},
	},
	{
		Label:       "office",
		Description: "Office container",
		Patterns:    patterns(`office\s+container`, `mobile\s+office`, `container\s+office`, `workspace`),
		Weight:      9,
		Rule:        NameRule{AnyOf: []string{"office"}},
	},
	{
		Label:       "kitchen",
		Description: "Kitchen container",
		Patterns:    patterns(`kitchen`, `commercial\s+kitchen`, `food\s+prep`, `cooking\s+area`),
		Weight:      8,
		Rule:        NameRule{AnyOf: []string{"kitchen"}},
	},
	{
		Label:       "bathroom",
		Description: "Bathroom / restroom container",
		Patterns:    patterns(`bathroom`, `restroom`, `bath\s+container`, `washroom`),
		Weight:      8,
		Rule:        NameRule{AnyOf: []string{"bathroom", "restroom"}},
	},
	{
		Label:       "studio",
		Description: "Studio unit",
		Patterns:    patterns(`studio`, `efficiency`, `single\s+room`),
		Weight:      9,
		Rule:        NameRule{AnyOf: []string{"studio"}},
	},
	// Add-ons and upgrades
	{
		Label:       "rooftop_deck",
		Description: "Rooftop deck",
		Patterns:    patterns(`rooftop.*deck`, `deck.*rooftop`, `roof\s+deck`),
		Weight:      6,
		Rule:        NameRule{AllOf: []string{"rooftop", "deck"}},
	},
	{
		Label:       "upgrade",
		Description: "Interior upgrade",
		Patterns:    patterns(`upgrade`, `premium`, `finish`, `interior\s+upgrade`),
		Weight:      4,
		Rule:        NameRule{AllOf: []string{"upgrade", "interior"}},
	},
	{
		Label:       "onsite",
		Description: "Onsite work / site assessment",
		Patterns:    patterns(`on[\s-]?site`, `site\s+work`, `site\s+assessment`, `tx\s+onsite`),
		Weight:      4,
		Rule:        NameRule{AnyOf: []string{"onsite", "tx onsite"}},
	},
	{
		Label:       "consultation",
		Description: "Design consultation",
		Patterns:    patterns(`consultation`, `design\s+call`, `design\s+consultation`),
		Weight:      3,
		Rule:        NameRule{AnyOf: []string{"consultation", "design call"}},
	},
	// Off-grid and solar
	{
		Label:       "offgrid",
		Description: "Off-grid living",
		Patterns:    patterns(`off[\s-]?grid`, `self[\s-]?sufficient`, `standalone`, `remote\s+living`),
		Weight:      10,
		Rule:        NameRule{AnyOf: []string{"off-grid", "offgrid", "standalone", "self-sufficient"}},
	},
	{
		Label:       "solar",
		Description: "Solar power",
		Patterns:    patterns(`solar`, `photovoltaic`, `pv\s+system`, `solar\s+pre[\s-]?wir`, `solar\s+panel`),
		Weight:      9,
		Rule:        NameRule{AnyOf: []string{"solar", "photovoltaic", "pv "}},
	},
	{
		Label:       "composting",
		Description: "Composting toilet",
		Patterns:    patterns(`compost`, `composting\s+toilet`, `eco\s+toilet`, `waterless\s+toilet`),
		Weight:      8,
		Rule:        NameRule{AnyOf: []string{"compost", "eco toilet", "waterless"}},
	},
	{
		Label:       "insulation",
		Description: "Insulation",
		Patterns:    patterns(`insulation`, `spray\s+foam`, `r[\s-]?value`, `thermal`, `weatheriz`),
		Weight:      7,
		Rule:        NameRule{AnyOf: []string{"insulation", "spray foam", "r6.5", "thermal"}},
	},
	{
		Label:       "electrical",
		Description: "Electrical work",
		Patterns:    patterns(`electrical`, `wiring`, `pre[\s-]?wir`, `power\s+system`, `outlets`),
		Weight:      6,
		Rule:        NameRule{AnyOf: []string{"electrical", "wiring", "pre-wir", "prewir"}},
	},
	{
		Label:       "water",
		Description: "Water system / plumbing",
		Patterns:    patterns(`water\s+tank`, `water\s+storage`, `grey\s+water`, `black\s+water`, `plumbing`),
		Weight:      6,
		Rule:        NameRule{AnyOf: []string{"water", "tank", "plumbing"}},
	},
	{
		Label:       "battery",
		Description: "Battery storage",
		Patterns:    patterns(`battery`, `energy\s+storage`, `power\s+bank`, `backup\s+power`),
		Weight:      7,
		Rule:        NameRule{AnyOf: []string{"battery", "energy storage", "power bank"}},
	},
	{
		Label:       "foundation",
		Description: "Foundation",
		Patterns:    patterns(`foundation`, `concrete\s+pad`, `slab`, `footer`, `pier`),
		Weight:      5,
		Rule:        NameRule{AnyOf: []string{"foundation", "concrete", "slab", "pier"}},
	},
	{
		Label:       "permit",
		Description: "Permitting",
		Patterns:    patterns(`permit`, `travis\s+county`, `code\s+compliant`, `zoning`, `regulatory`),
		Weight:      3,
		Rule:        NameRule{AnyOf: []string{"permit", "travis county", "regulatory"}},
	},
	{
		Label:       "timeline",
		Description: "Expedited timeline",
		Patterns:    patterns(`before\s+summer`, `asap`, `urgent`, `rush`, `expedite`, `timeline`),
		Weight:      2,
		Rule:        NameRule{AnyOf: []string{"expedite", "rush", "priority"}},
	},
	{
		Label:       "gate",
		Description: "Narrow site access",
		Patterns:    patterns(`\d+[\s-]?ft\s+gate`, `gate\s+access`, `narrow\s+access`, `modular`),
		Weight:      4,
		Rule:        NameRule{AnyOf: []string{"modular", "narrow access", "split"}},
	},
}

// patternIndex maps label -> position in KeywordPatterns
var patternIndex = func() map[string]int {
	idx := make(map[string]int, len(KeywordPatterns))
	for i, p := range KeywordPatterns {
		idx[p.Label] = i
	}
	return idx
}()

// LookupPattern returns the table entry for a label
func LookupPattern(label string) (KeywordPattern, bool) {
	i, ok := patternIndex[label]
	if !ok {
		return KeywordPattern{}, false
	}
	return KeywordPatterns[i], true
}
