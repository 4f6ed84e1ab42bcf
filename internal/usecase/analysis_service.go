package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/proposalagent/backend/internal/domain"
	"github.com/proposalagent/backend/internal/observability"
)

const (
	defaultRefinementTimeout = 15 * time.Second

	deterministicNotes = "Selected using deterministic keyword matching"
	noMatchNeed        = "No catalog product matched the conversation; manual review required"
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	Matching          MatchConfig
	RefinementTimeout time.Duration
}

// AnalysisService composes the deterministic engine with the result cache and
// the optional refinement overlay.
type AnalysisService struct {
	cache             domain.AnalysisCache
	refiner           domain.Refiner
	matcher           *MatchingService
	refinementTimeout time.Duration
	metrics           *observability.Metrics
	logger            zerolog.Logger
}

// NewAnalysisService creates a new analysis service. refiner may be nil.
func NewAnalysisService(
	cache domain.AnalysisCache,
	refiner domain.Refiner,
	config AnalysisServiceConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *AnalysisService {
	timeout := config.RefinementTimeout
	if timeout <= 0 {
		timeout = defaultRefinementTimeout
	}

	logger = observability.Component(logger, "analysis")

	return &AnalysisService{
		cache:             cache,
		refiner:           refiner,
		matcher:           NewMatchingService(config.Matching, logger),
		refinementTimeout: timeout,
		metrics:           metrics,
		logger:            logger,
	}
}

// CacheKey derives the result cache key for a conversation and customer name
func CacheKey(conversation, customerName string) string {
	sum := sha256.Sum256([]byte(Normalize(conversation) + Normalize(customerName)))
	return hex.EncodeToString(sum[:])
}

// Analyze runs the engine for one conversation.
// Flow: check catalog -> check cache -> deterministic result -> optional refinement -> cache -> return
func (s *AnalysisService) Analyze(
	ctx context.Context,
	conversation, customerName string,
	catalog []domain.Product,
) (*domain.AnalysisResult, error) {
	if len(catalog) == 0 {
		s.metrics.ObserveAnalysis("empty_catalog")
		s.logger.Error().Err(domain.ErrEmptyCatalog).Msg("analysis requested without catalog")
		return nil, domain.ErrEmptyCatalog
	}

	key := CacheKey(conversation, customerName)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil && cached != nil:
			s.metrics.ObserveCacheLookup(true)
			s.logger.Debug().Str("key", key).Msg("cache hit")
			return cached, nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			s.logger.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		}
		s.metrics.ObserveCacheLookup(false)
	}

	baseline := s.BuildDeterministic(conversation, catalog)
	baseline.CustomerName = customerName
	if baseline.CustomerName == "" {
		baseline.CustomerName = ExtractCustomerName(conversation)
	}
	result := s.refine(ctx, conversation, customerName, catalog, baseline)

	if result != baseline {
		result.ComplementaryProducts = SuggestComplementaryProducts(matchedIDs(result.MatchedProducts), catalog)
	}

	if result.HasMatches() {
		s.metrics.ObserveAnalysis("matched")
	} else {
		s.metrics.ObserveAnalysis("no_match")
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, result); err != nil {
			// The result is still valid without memoization
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return result, nil
}

// BuildDeterministic computes the full analysis without consulting the cache or the refiner
func (s *AnalysisService) BuildDeterministic(conversation string, catalog []domain.Product) *domain.AnalysisResult {
	keywords := ExtractKeywords(conversation)
	matches := s.matcher.FindMatches(catalog, keywords)

	result := &domain.AnalysisResult{
		Requirements:    describeRequirements(keywords),
		MatchedProducts: matches,
		Bundles:         IdentifyBundles(keywords, catalog),
		EstimatedBudget: ExtractBudget(conversation),
		Timeline:        ExtractTimeline(conversation),
		AdditionalNotes: deterministicNotes,
		Keywords:        keywords.Labels(),
		Source:          domain.SourceDeterministic,
	}

	if len(matches) == 0 {
		result.MatchedProducts = []domain.ProductMatch{}
		result.UnmatchedNeeds = unmatchedNeeds(keywords)
	} else {
		result.ComplementaryProducts = SuggestComplementaryProducts(matchedIDs(matches), catalog)
	}

	return result
}

// refine applies the optional refinement overlay. Any failure returns the baseline.
func (s *AnalysisService) refine(
	ctx context.Context,
	conversation, customerName string,
	catalog []domain.Product,
	baseline *domain.AnalysisResult,
) *domain.AnalysisResult {
	if s.refiner == nil {
		return baseline
	}

	rctx, cancel := context.WithTimeout(ctx, s.refinementTimeout)
	defer cancel()

	started := time.Now()
	resp, err := s.refiner.Refine(rctx, &domain.RefinementRequest{
		ConversationNotes: conversation,
		CustomerName:      customerName,
		Catalog:           catalog,
		Baseline:          baseline,
	})
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.ObserveRefinement("fallback", elapsed)
		s.logger.Warn().
			Err(errors.Join(domain.ErrRefinementUnavailable, err)).
			Dur("elapsed", elapsed).
			Msg("refinement failed, using deterministic result")
		return baseline
	}

	refined, dropped := ApplyRefinement(baseline, resp, catalog)
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("refinement referenced unknown product ids")
	}
	if refined == baseline {
		s.metrics.ObserveRefinement("discarded", elapsed)
		s.logger.Info().Msg("refinement produced no valid matches, keeping deterministic result")
		return baseline
	}

	s.metrics.ObserveRefinement("applied", elapsed)
	s.logger.Debug().
		Int("matches", len(refined.MatchedProducts)).
		Dur("elapsed", elapsed).
		Msg("refinement applied")
	return refined
}

// describeRequirements lists a readable description for every extracted label
func describeRequirements(keywords KeywordSet) []string {
	labels := keywords.Labels()
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if p, ok := LookupPattern(label); ok && p.Description != "" {
			out = append(out, p.Description)
			continue
		}
		out = append(out, label)
	}
	return out
}

// unmatchedNeeds explains a no-match result. It is never empty.
func unmatchedNeeds(keywords KeywordSet) []string {
	if len(keywords) == 0 {
		return []string{noMatchNeed}
	}
	needs := make([]string, 0, len(keywords))
	for _, desc := range describeRequirements(keywords) {
		needs = append(needs, "No catalog product for: "+desc)
	}
	return needs
}

func matchedIDs(matches []domain.ProductMatch) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ProductID
	}
	return ids
}
