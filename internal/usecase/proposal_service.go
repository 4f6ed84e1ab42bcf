package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/proposalagent/backend/internal/domain"
	"github.com/proposalagent/backend/internal/observability"
)

// Quote defaults
const (
	DefaultTaxRate      = 0.0825
	DefaultNumberPrefix = "BC-SEQ-"
)

// ProposalServiceConfig holds configuration for the proposal service
type ProposalServiceConfig struct {
	TaxRate      float64
	NumberPrefix string
}

// ProposalService turns analyses into priced proposals and manages their review state
type ProposalService struct {
	analysis     *AnalysisService
	catalog      domain.CatalogProvider
	repo         domain.ProposalRepository
	taxRate      float64
	numberPrefix string
	now          func() time.Time
	newID        func() string
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// NewProposalService creates a new proposal service with dependencies
func NewProposalService(
	analysis *AnalysisService,
	catalog domain.CatalogProvider,
	repo domain.ProposalRepository,
	config ProposalServiceConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *ProposalService {
	taxRate := config.TaxRate
	if taxRate < 0 {
		taxRate = DefaultTaxRate
	}

	prefix := config.NumberPrefix
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}

	return &ProposalService{
		analysis:     analysis,
		catalog:      catalog,
		repo:         repo,
		taxRate:      taxRate,
		numberPrefix: prefix,
		now:          time.Now,
		newID:        uuid.NewString,
		metrics:      metrics,
		logger:       observability.Component(logger, "proposal"),
	}
}

// Products returns the catalog in load order
func (s *ProposalService) Products(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.GetProducts(ctx)
}

// Product returns a single catalog product
func (s *ProposalService) Product(ctx context.Context, id string) (*domain.Product, error) {
	return s.catalog.GetProduct(ctx, id)
}

// Analyze runs the engine against the current catalog
func (s *ProposalService) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	if req == nil || strings.TrimSpace(req.ConversationNotes) == "" {
		return nil, domain.ErrInvalidRequest
	}

	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return s.analysis.Analyze(ctx, req.ConversationNotes, req.CustomerName, products)
}

// Generate analyzes raw notes, prices the matches and stores a pending proposal.
// When nothing matches it returns the analysis together with ErrNoMatchedProducts.
func (s *ProposalService) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req == nil || req.SequenceNumber < 1 || strings.TrimSpace(req.ConversationNotes) == "" {
		return nil, domain.ErrInvalidRequest
	}

	customerName := ExtractCustomerName(req.ConversationNotes)
	customerEmail := ExtractCustomerEmail(req.ConversationNotes)

	analysis, err := s.Analyze(ctx, &domain.AnalyzeRequest{
		ConversationNotes: req.ConversationNotes,
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
	})
	if err != nil {
		s.metrics.ObserveProposal("error")
		return nil, err
	}

	result := &domain.GenerateResult{
		Analysis: analysis,
		Metadata: domain.GenerateMetadata{
			SequenceNumber:  req.SequenceNumber,
			MatchedProducts: len(analysis.MatchedProducts),
			ConfidenceScore: averageConfidence(analysis.MatchedProducts),
			UnmatchedNeeds:  unmatchedOrEmpty(analysis.UnmatchedNeeds),
		},
	}

	if !analysis.HasMatches() {
		s.metrics.ObserveProposal("no_match")
		s.logger.Info().Int("sequence", req.SequenceNumber).Msg("no products matched, proposal not generated")
		return result, domain.ErrNoMatchedProducts
	}

	if analysis.CustomerName != "" {
		customerName = analysis.CustomerName
	}

	lineItems := LineItemsFromMatches(analysis.MatchedProducts)
	subtotal, tax, total := s.Totals(lineItems)

	proposal := &domain.Proposal{
		ProposalNumber:    s.ProposalNumber(req.SequenceNumber),
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
		ConversationNotes: req.ConversationNotes,
		Analysis:          analysis,
		LineItems:         lineItems,
		Subtotal:          subtotal,
		Tax:               tax,
		Total:             total,
	}
	if err := s.store(ctx, proposal); err != nil {
		s.metrics.ObserveProposal("error")
		return nil, err
	}

	s.metrics.ObserveProposal("generated")
	s.logger.Info().
		Str("proposal_id", proposal.ID).
		Str("number", proposal.ProposalNumber).
		Int64("total", proposal.Total).
		Msg("proposal generated")

	result.Proposal = proposal
	return result, nil
}

// Create stores a caller-assembled proposal, recomputing line totals and tax
func (s *ProposalService) Create(ctx context.Context, req *domain.CreateProposalRequest) (*domain.Proposal, error) {
	if req == nil || len(req.LineItems) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	lineItems := make([]domain.LineItem, len(req.LineItems))
	for i, item := range req.LineItems {
		if item.Quantity < 1 || item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: line item %d", domain.ErrInvalidRequest, i)
		}
		item.Total = item.UnitPrice * int64(item.Quantity)
		lineItems[i] = item
	}
	subtotal, tax, total := s.Totals(lineItems)

	proposal := &domain.Proposal{
		ProposalNumber:    req.ProposalNumber,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		ConversationNotes: req.ConversationNotes,
		Analysis:          req.Analysis,
		LineItems:         lineItems,
		Subtotal:          subtotal,
		Tax:               tax,
		Total:             total,
		Notes:             req.Notes,
	}
	if err := s.store(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// List returns all proposals, newest first
func (s *ProposalService) List(ctx context.Context) ([]*domain.Proposal, error) {
	return s.repo.List(ctx)
}

// Get returns a single proposal
func (s *ProposalService) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves a proposal to a new review state and stamps the decision time
func (s *ProposalService) UpdateStatus(ctx context.Context, id string, req *domain.StatusUpdateRequest) (*domain.Proposal, error) {
	if req == nil || !req.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	proposal, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	proposal.Status = req.Status
	proposal.Notes = req.Notes
	proposal.UpdatedAt = now

	switch req.Status {
	case domain.StatusApproved:
		proposal.ApprovedAt = &now
		proposal.RejectedAt = nil
	case domain.StatusRejected:
		proposal.RejectedAt = &now
		proposal.ApprovedAt = nil
	}

	if err := s.repo.Update(ctx, proposal); err != nil {
		return nil, err
	}

	s.logger.Info().Str("proposal_id", id).Str("status", string(req.Status)).Msg("proposal status updated")
	return proposal, nil
}

// ProposalNumber formats a sequence number as a proposal number
func (s *ProposalService) ProposalNumber(sequence int) string {
	return fmt.Sprintf("%s%06d", s.numberPrefix, sequence)
}

// Totals returns subtotal, flat tax rounded half away from zero, and total, all in cents
func (s *ProposalService) Totals(items []domain.LineItem) (subtotal, tax, total int64) {
	for _, item := range items {
		subtotal += item.Total
	}
	tax = int64(math.Round(float64(subtotal) * s.taxRate))
	return subtotal, tax, subtotal + tax
}

// LineItemsFromMatches prices each match as unitPrice * quantity
func LineItemsFromMatches(matches []domain.ProductMatch) []domain.LineItem {
	items := make([]domain.LineItem, len(matches))
	for i, m := range matches {
		items[i] = domain.LineItem{
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Quantity:    m.Quantity,
			UnitPrice:   m.UnitPrice,
			Total:       m.UnitPrice * int64(m.Quantity),
		}
	}
	return items
}

func (s *ProposalService) store(ctx context.Context, proposal *domain.Proposal) error {
	now := s.now().UTC()
	proposal.ID = s.newID()
	proposal.Status = domain.StatusPending
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	if err := s.repo.Create(ctx, proposal); err != nil {
		s.logger.Error().Err(err).Str("number", proposal.ProposalNumber).Msg("failed to store proposal")
		return fmt.Errorf("store proposal: %w", err)
	}
	return nil
}

// averageConfidence is the mean match confidence as a percentage. Unset confidences count as 0.5.
func averageConfidence(matches []domain.ProductMatch) int {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		c := m.Confidence
		if c == 0 {
			c = defaultRefinedConfidence
		}
		sum += c
	}
	return int(math.Round(sum / float64(len(matches)) * 100))
}

func unmatchedOrEmpty(needs []string) []string {
	if needs == nil {
		return []string{}
	}
	return needs
}
