package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/proposalagent/backend/internal/domain"
)

// Matching defaults
const (
	defaultMaxMatches = 5
	defaultMinScore   = 1
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MaxMatches         int
	MinScore           int
	EnableDebugLogging bool
}

// MatchingService turns a keyword set into a bounded, ordered list of product matches
type MatchingService struct {
	maxMatches         int
	minScore           int
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger zerolog.Logger) *MatchingService {
	maxMatches := config.MaxMatches
	if maxMatches <= 0 {
		maxMatches = defaultMaxMatches
	}

	minScore := config.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}

	return &MatchingService{
		maxMatches:         maxMatches,
		minScore:           minScore,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// FindMatches scores the catalog against keywords, selects the best candidates and
// keeps the top maxMatches whose score reaches minScore. Quantity is always 1.
func (s *MatchingService) FindMatches(products []domain.Product, keywords KeywordSet) []domain.ProductMatch {
	if len(keywords) == 0 || len(products) == 0 {
		return nil
	}

	maxPossible := MaxPossibleScore(keywords)
	ranked := SelectBestProducts(ScoreProducts(products, keywords))

	matches := make([]domain.ProductMatch, 0, min(len(ranked), s.maxMatches))
	for _, sp := range ranked {
		if len(matches) == s.maxMatches {
			break
		}
		if sp.Score < s.minScore {
			continue
		}

		if s.enableDebugLogging {
			s.logger.Debug().
				Str("product_id", sp.ID).
				Str("product", sp.Name).
				Int("score", sp.Score).
				Strs("labels", sp.MatchedLabels).
				Msg("candidate selected")
		}

		matches = append(matches, domain.ProductMatch{
			ProductID:   sp.ID,
			ProductName: sp.Name,
			Quantity:    1,
			UnitPrice:   sp.UnitPrice,
			Confidence:  matchConfidence(sp.Score, maxPossible),
			Evidence:    "Matched: " + strings.Join(sp.MatchedLabels, ", "),
			Reasoning:   fmt.Sprintf("Keyword match score: %d", sp.Score),
		})
	}

	return matches
}

// matchConfidence is score/maxPossible rounded to two decimals and capped at 1
func matchConfidence(score, maxPossible int) float64 {
	if maxPossible <= 0 || score <= 0 {
		return 0
	}
	c := float64(score) / float64(maxPossible)
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}
