package usecase

import (
	"regexp"
	"strings"
)

// DefaultCustomerName is used when no name can be found in the notes
const DefaultCustomerName = "Valued Customer"

// Compiled regex patterns for conversation detail extraction
var (
	budgetPattern = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:k|K|thousand)\b)?`)

	timelinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:\d+|one|two|three|four|five|six|a\s+few|several)\s+(?:days?|weeks?|months?|years?)\b`),
		regexp.MustCompile(`(?i)\bnext\s+(?:week|month|quarter|year)\b`),
		regexp.MustCompile(`(?i)\b(?:spring|summer|fall|autumn|winter)\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\bbefore\s+(?:spring|summer|fall|autumn|winter)\b`),
		regexp.MustCompile(`(?i)\b(?:asap|urgent(?:ly)?)\b`),
	}

	// Customer name patterns, most explicit first. Names themselves must be capitalized
	// except for the explicit "my name is" forms.
	customerNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:my\s+name\s+(?:is|would\s+be|will\s+be)|change\s+my\s+name\s+to|name\s+would\s+be)\s+([A-Za-z][A-Za-z0-9 \t]+?)(?:[,.\n]|$)`),
		regexp.MustCompile(`\b(?i:i'?m|i\s+am)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`\b(?i:customer|client|contact):\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`(?m)^(?i:name):\s*([A-Za-z][A-Za-z0-9 \t]+?)(?:[,.]|$)`),
		regexp.MustCompile(`\b(?i:this\s+is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`(?m)^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?):`),
	}

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// rejectedNameParts marks speaker labels that are not customer names
var rejectedNameParts = []string{"customer", "client", "sales"}

// ExtractBudget returns the first money amount mentioned in the notes
func ExtractBudget(text string) string {
	return strings.TrimSpace(budgetPattern.FindString(text))
}

// ExtractTimeline returns the earliest timeline phrase mentioned in the notes
func ExtractTimeline(text string) string {
	best := -1
	var found string
	for _, re := range timelinePatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			found = text[loc[0]:loc[1]]
		}
	}
	return strings.TrimSpace(found)
}

// ExtractCustomerName finds the customer's name in free-text notes,
// falling back to DefaultCustomerName.
func ExtractCustomerName(text string) string {
	for _, re := range customerNamePatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := strings.TrimSpace(m[1])
		if isPlausibleName(name) {
			return name
		}
	}
	return DefaultCustomerName
}

func isPlausibleName(name string) bool {
	if len(name) <= 1 || len(name) >= 50 {
		return false
	}
	lower := strings.ToLower(name)
	for _, part := range rejectedNameParts {
		if strings.Contains(lower, part) {
			return false
		}
	}
	return true
}

// ExtractCustomerEmail returns the first email address in the notes, or ""
func ExtractCustomerEmail(text string) string {
	return emailPattern.FindString(text)
}
