package domain

import "time"

// ProposalStatus is the review state of a proposal
type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusApproved ProposalStatus = "approved"
	StatusRejected ProposalStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// LineItem is one priced row of a quote. Amounts are cents.
type LineItem struct {
	ProductID   string `json:"productId" binding:"required"`
	ProductName string `json:"productName" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	UnitPrice   int64  `json:"unitPrice" binding:"min=0"`
	Total       int64  `json:"total"`
}

// Proposal is a priced quote built from an analysis
type Proposal struct {
	ID                string          `json:"id"`
	ProposalNumber    string          `json:"proposalNumber"`
	CustomerName      string          `json:"customerName"`
	CustomerEmail     string          `json:"customerEmail,omitempty"`
	ConversationNotes string          `json:"conversationNotes"`
	Analysis          *AnalysisResult `json:"aiAnalysis,omitempty"`
	LineItems         []LineItem      `json:"lineItems"`
	Subtotal          int64           `json:"subtotal"`
	Tax               int64           `json:"tax"`
	Total             int64           `json:"total"`
	Status            ProposalStatus  `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
	RejectedAt        *time.Time      `json:"rejectedAt,omitempty"`
}

// GenerateRequest asks for a full proposal from raw conversation notes
type GenerateRequest struct {
	SequenceNumber    int    `json:"sequence_number" binding:"required,min=1"`
	ConversationNotes string `json:"conversationNotes" binding:"required,min=20"`
}

// StatusUpdateRequest changes the review state of a proposal
type StatusUpdateRequest struct {
	Status ProposalStatus `json:"status" binding:"required,oneof=pending approved rejected"`
	Notes  string         `json:"notes,omitempty"`
}

// CreateProposalRequest stores a proposal assembled by the caller.
// Totals are recomputed from the line items.
type CreateProposalRequest struct {
	ProposalNumber    string          `json:"proposalNumber" binding:"required"`
	CustomerName      string          `json:"customerName" binding:"required"`
	CustomerEmail     string          `json:"customerEmail,omitempty" binding:"omitempty,email"`
	ConversationNotes string          `json:"conversationNotes" binding:"required"`
	Analysis          *AnalysisResult `json:"aiAnalysis,omitempty"`
	LineItems         []LineItem      `json:"lineItems" binding:"required,min=1,dive"`
	Notes             string          `json:"notes,omitempty"`
}

// GenerateMetadata summarizes a generated proposal
type GenerateMetadata struct {
	SequenceNumber  int      `json:"sequence_number"`
	MatchedProducts int      `json:"matched_products"`
	ConfidenceScore int      `json:"confidence_score"`
	UnmatchedNeeds  []string `json:"unmatched_needs"`
}

// GenerateResult is the outcome of generating a proposal from notes
type GenerateResult struct {
	Proposal *Proposal        `json:"proposal"`
	Analysis *AnalysisResult  `json:"analysis"`
	Metadata GenerateMetadata `json:"metadata"`
}
