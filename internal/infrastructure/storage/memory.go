// Package storage persists generated proposals.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/proposalagent/backend/internal/domain"
)

// MemoryProposalRepository keeps proposals for the life of the process
type MemoryProposalRepository struct {
	mu        sync.RWMutex
	proposals map[string]*domain.Proposal
	order     map[string]int
	next      int
}

// NewMemoryProposalRepository creates an empty repository
func NewMemoryProposalRepository() *MemoryProposalRepository {
	return &MemoryProposalRepository{
		proposals: make(map[string]*domain.Proposal),
		order:     make(map[string]int),
	}
}

// Create stores a new proposal
func (r *MemoryProposalRepository) Create(ctx context.Context, proposal *domain.Proposal) error {
	if proposal == nil || proposal.ID == "" {
		return domain.ErrInvalidRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.proposals[proposal.ID]; exists {
		return fmt.Errorf("%w: duplicate proposal id %s", domain.ErrInvalidRequest, proposal.ID)
	}
	r.proposals[proposal.ID] = cloneProposal(proposal)
	r.order[proposal.ID] = r.next
	r.next++
	return nil
}

// Get returns a copy of a stored proposal
func (r *MemoryProposalRepository) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proposals[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return cloneProposal(p), nil
}

// List returns copies of all proposals, newest first
func (r *MemoryProposalRepository) List(ctx context.Context) ([]*domain.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Proposal, 0, len(r.proposals))
	for _, p := range r.proposals {
		out = append(out, cloneProposal(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out, nil
}

// Update replaces a stored proposal
func (r *MemoryProposalRepository) Update(ctx context.Context, proposal *domain.Proposal) error {
	if proposal == nil {
		return domain.ErrInvalidRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.proposals[proposal.ID]; !ok {
		return domain.ErrProposalNotFound
	}
	r.proposals[proposal.ID] = cloneProposal(proposal)
	return nil
}

// cloneProposal copies the mutable parts of a proposal. The analysis is shared
// because cached analyses are never mutated.
func cloneProposal(p *domain.Proposal) *domain.Proposal {
	c := *p
	c.LineItems = append([]domain.LineItem(nil), p.LineItems...)
	if p.ApprovedAt != nil {
		t := *p.ApprovedAt
		c.ApprovedAt = &t
	}
	if p.RejectedAt != nil {
		t := *p.RejectedAt
		c.RejectedAt = &t
	}
	return &c
}
