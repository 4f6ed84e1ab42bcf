package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalagent/backend/internal/domain"
	"github.com/proposalagent/backend/internal/usecase"
)

// ServiceInfo is reported by the health endpoint
type ServiceInfo struct {
	Name              string
	Version           string
	RefinementEnabled bool
	CatalogSize       int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	proposals *usecase.ProposalService
	info      ServiceInfo
}

// NewHandler creates a new HTTP handler
func NewHandler(proposals *usecase.ProposalService, info ServiceInfo) *Handler {
	if info.Name == "" {
		info.Name = "proposal-agent"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	return &Handler{proposals: proposals, info: info}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     h.info.Name,
		"version":     h.info.Version,
		"refinement":  h.info.RefinementEnabled,
		"catalogSize": h.info.CatalogSize,
	})
}

// ListProducts returns the loaded catalog
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.proposals.Products(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct returns one catalog product
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.proposals.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Analyze runs the match engine over conversation notes
func (h *Handler) Analyze(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.proposals.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result})
}

// Generate analyzes notes and stores a priced proposal
func (h *Handler) Generate(c *gin.Context) {
	var req domain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.proposals.Generate(c.Request.Context(), &req)
	if errors.Is(err, domain.ErrNoMatchedProducts) && result != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    err.Error(),
			"analysis": result.Analysis,
			"metadata": result.Metadata,
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"proposal": result.Proposal,
		"analysis": result.Analysis,
		"metadata": result.Metadata,
	})
}

// CreateProposal stores a caller-assembled proposal
func (h *Handler) CreateProposal(c *gin.Context) {
	var req domain.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	proposal, err := h.proposals.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// ListProposals returns stored proposals, newest first
func (h *Handler) ListProposals(c *gin.Context) {
	proposals, err := h.proposals.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "count": len(proposals)})
}

// GetProposal returns a stored proposal
func (h *Handler) GetProposal(c *gin.Context) {
	proposal, err := h.proposals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// UpdateStatus approves, rejects or reopens a proposal
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req domain.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	proposal, err := h.proposals.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func respondValidation(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation error",
		"details": err.Error(),
	})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidStatus):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrProposalNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrNoMatchedProducts):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrEmptyCatalog):
		status, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	}

	c.JSON(status, gin.H{"error": message})
}
