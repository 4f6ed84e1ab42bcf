package domain

// AnalysisSource identifies which path produced the matched products
type AnalysisSource string

const (
	SourceDeterministic AnalysisSource = "deterministic"
	SourceRefined       AnalysisSource = "refined"
)

// AnalysisResult is the engine output for one conversation.
// Once written to an AnalysisCache it must never be mutated.
type AnalysisResult struct {
	Requirements          []string                  `json:"requirements"`
	MatchedProducts       []ProductMatch            `json:"matchedProducts"`
	UnmatchedNeeds        []string                  `json:"unmatchedNeeds,omitempty"`
	Bundles               []ProductBundle           `json:"bundles,omitempty"`
	ComplementaryProducts []ComplementarySuggestion `json:"complementaryProducts,omitempty"`
	EstimatedBudget       string                    `json:"estimatedBudget,omitempty"`
	Timeline              string                    `json:"timeline,omitempty"`
	CustomerName          string                    `json:"customerName,omitempty"`
	AdditionalNotes       string                    `json:"additionalNotes,omitempty"`
	Keywords              []string                  `json:"keywords,omitempty"`
	Source                AnalysisSource            `json:"source"`
}

// HasMatches reports whether at least one product was matched
func (r *AnalysisResult) HasMatches() bool {
	return r != nil && len(r.MatchedProducts) > 0
}

// AnalyzeRequest is the API payload for a conversation analysis
type AnalyzeRequest struct {
	ConversationNotes string `json:"conversationNotes" binding:"required,min=10"`
	CustomerName      string `json:"customerName" binding:"required"`
	CustomerEmail     string `json:"customerEmail,omitempty" binding:"omitempty,email"`
}

// RefinementRequest is what the optional refinement provider receives
type RefinementRequest struct {
	ConversationNotes string
	CustomerName      string
	Catalog           []Product
	Baseline          *AnalysisResult
}

// RefinementResponse is the provider's proposed overlay. Match ids are untrusted.
type RefinementResponse struct {
	Requirements    []string       `json:"requirements"`
	ReasoningSteps  []string       `json:"reasoningSteps"`
	MatchedProducts []ProductMatch `json:"matchedProducts"`
	UnmatchedNeeds  []string       `json:"unmatchedNeeds"`
	EstimatedBudget string         `json:"estimatedBudget"`
	Timeline        string         `json:"timeline"`
	CustomerName    string         `json:"customerName"`
	AdditionalNotes string         `json:"additionalNotes"`
}
