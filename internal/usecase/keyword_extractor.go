package usecase

// KeywordSet is the set of labels extracted from a conversation
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from labels
func NewKeywordSet(labels ...string) KeywordSet {
	ks := make(KeywordSet, len(labels))
	for _, l := range labels {
		ks[l] = struct{}{}
	}
	return ks
}

// Has reports whether label was extracted
func (ks KeywordSet) Has(label string) bool {
	_, ok := ks[label]
	return ok
}

// Labels returns the extracted labels in pattern table order, followed by
// any labels unknown to the table in insertion-independent sorted order.
func (ks KeywordSet) Labels() []string {
	out := make([]string, 0, len(ks))
	for _, p := range KeywordPatterns {
		if ks.Has(p.Label) {
			out = append(out, p.Label)
		}
	}
	if len(out) == len(ks) {
		return out
	}
	var extra []string
	for l := range ks {
		if _, known := patternIndex[l]; !known {
			extra = append(extra, l)
		}
	}
	sortStrings(extra)
	return append(out, extra...)
}

// ExtractKeywords scans the normalized conversation against the pattern table.
// Each group contributes its label at most once; the first matching expression wins.
func ExtractKeywords(conversation string) KeywordSet {
	normalized := Normalize(conversation)
	keywords := make(KeywordSet)
	if normalized == "" {
		return keywords
	}

	for _, p := range KeywordPatterns {
		for _, re := range p.Patterns {
			if re.MatchString(normalized) {
				keywords[p.Label] = struct{}{}
				break
			}
		}
	}

	return keywords
}

// MaxPossibleScore is the score a product would earn by satisfying every extracted label
func MaxPossibleScore(keywords KeywordSet) int {
	total := 0
	for _, p := range KeywordPatterns {
		if keywords.Has(p.Label) {
			total += p.Points()
		}
	}
	return total
}
