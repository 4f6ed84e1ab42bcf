package domain

import "errors"

var (
	// ErrEmptyCatalog is returned when an analysis is requested without any catalog products
	ErrEmptyCatalog = errors.New("product catalog is empty")
	// ErrRefinementUnavailable is returned when the refinement provider is disabled or failed
	ErrRefinementUnavailable = errors.New("refinement provider unavailable")
	// ErrRefinementAPIFailure is returned when the refinement API request fails
	ErrRefinementAPIFailure = errors.New("refinement API request failed")
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrProductNotFound is returned when a product id is not in the catalog
	ErrProductNotFound = errors.New("product not found")
	// ErrProposalNotFound is returned when a proposal id is unknown
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrInvalidStatus is returned for an unknown proposal status
	ErrInvalidStatus = errors.New("invalid proposal status")
	// ErrNoMatchedProducts is returned when a quote is requested but nothing matched
	ErrNoMatchedProducts = errors.New("could not identify specific products from conversation")
	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
	// ErrInvalidCatalogFile is returned when a catalog file cannot be parsed
	ErrInvalidCatalogFile = errors.New("invalid catalog file")
)
