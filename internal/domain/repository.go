package domain

import (
	"context"
)

// AnalysisCache memoizes analysis results by input hash.
// Implementations must tolerate concurrent Put calls for the same key (last write wins).
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*AnalysisResult, error)
	Put(ctx context.Context, key string, result *AnalysisResult) error
}

// CatalogProvider returns the products available at analysis time
type CatalogProvider interface {
	GetProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Refiner is an optional external collaborator that may revise the deterministic match list
type Refiner interface {
	Refine(ctx context.Context, req *RefinementRequest) (*RefinementResponse, error)
}

// ProposalRepository persists generated proposals
type ProposalRepository interface {
	Create(ctx context.Context, proposal *Proposal) error
	Get(ctx context.Context, id string) (*Proposal, error)
	List(ctx context.Context) ([]*Proposal, error)
	Update(ctx context.Context, proposal *Proposal) error
}
