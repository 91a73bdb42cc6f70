// Package matching resolves raw dish-name strings to canonical dish records
// through three ordered strategies: exact/similarity lookup, modifier
// decomposition, and the AI-discovery fallback.
package matching

import (
	"context"
	"strings"

	apperrors "menuscan/internal/common/errors"
	"menuscan/internal/common/logger"
	"menuscan/internal/common/metrics"
	"menuscan/internal/models"
	"menuscan/internal/store"
)

const (
	// Step 1 similarity is restricted to candidates of identical length:
	// it targets same-length single-character typos, not general fuzzy
	// search, to avoid false positives.
	step1MaxLengthDelta = 0

	// Decomposition remainder matching has no length restriction.
	decompositionMaxLengthDelta = -1
)

// Engine resolves dish names against the canonical store and modifier
// lexicon. All collaborators are injected at construction.
type Engine struct {
	dishes  store.DishStore
	lexicon store.ModifierLexicon

	similarityThreshold    float64
	decompositionThreshold float64

	logger logger.Logger
}

func NewEngine(dishes store.DishStore, lexicon store.ModifierLexicon, log logger.Logger) *Engine {
	return &Engine{
		dishes:                 dishes,
		lexicon:                lexicon,
		similarityThreshold:    0.4,
		decompositionThreshold: 0.7,
		logger:                 log.WithFields(map[string]interface{}{"component": "matching-engine"}),
	}
}

// WithThresholds overrides the similarity thresholds; zero values keep the
// defaults.
func (e *Engine) WithThresholds(similarity, decomposition float64) *Engine {
	if similarity > 0 {
		e.similarityThreshold = similarity
	}
	if decomposition > 0 {
		e.decompositionThreshold = decomposition
	}
	return e
}

// Resolve runs the three-step pipeline, stopping at the first success. Step 3
// always produces a result, so Resolve only fails when a store lookup fails;
// that failure propagates as STORE_UNAVAILABLE and is never mapped to "no
// match".
func (e *Engine) Resolve(ctx context.Context, name string) (*models.MatchResult, error) {
	name = strings.TrimSpace(name)

	result, err := e.exactOrSimilarity(ctx, name)
	if err != nil {
		metrics.StoreLookupErrors.Inc()
		return nil, err
	}
	if result == nil {
		result, err = e.modifierDecomposition(ctx, name)
		if err != nil {
			metrics.StoreLookupErrors.Inc()
			return nil, err
		}
	}
	if result == nil {
		result, err = e.aiDiscoveryNeeded(ctx, name)
		if err != nil {
			metrics.StoreLookupErrors.Inc()
			return nil, err
		}
	}

	metrics.ResolutionsTotal.WithLabelValues(string(result.MatchType)).Inc()
	e.logger.Info("dish name resolved", map[string]interface{}{
		"input":      name,
		"matchType":  result.MatchType,
		"confidence": result.Confidence,
		"modifiers":  len(result.Modifiers),
	})
	return result, nil
}

// exactOrSimilarity is Step 1: exact equality against primary/alias names,
// then trigram similarity restricted to equal-length candidates.
func (e *Engine) exactOrSimilarity(ctx context.Context, name string) (*models.MatchResult, error) {
	dish, err := e.dishes.ExactLookup(ctx, name)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	if dish != nil {
		return &models.MatchResult{
			Input:      name,
			MatchType:  models.MatchExact,
			Canonical:  dish,
			Modifiers:  []models.Modifier{},
			Confidence: 1.0,
		}, nil
	}

	candidates, err := e.dishes.SimilarityLookup(ctx, name, e.similarityThreshold, step1MaxLengthDelta)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	top := candidates[0]
	return &models.MatchResult{
		Input:      name,
		MatchType:  models.MatchSimilarity,
		Canonical:  &top.Dish,
		Modifiers:  []models.Modifier{},
		Confidence: top.Score,
	}, nil
}

// modifierDecomposition is Step 2: greedily strip known modifiers in priority
// order, trying a canonical match after each strip. Returns nil when no
// decomposition reaches a canonical dish.
func (e *Engine) modifierDecomposition(ctx context.Context, name string) (*models.MatchResult, error) {
	modifiers, err := e.lexicon.ListModifiers(ctx, models.ModifierIngredient)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	candidates := make([]models.Modifier, 0, len(modifiers))
	for _, m := range sortForDecomposition(modifiers) {
		if strings.Contains(name, m.Text) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	remaining := name
	var applied []models.Modifier

	for {
		next, mod, rest := decomposeStep(remaining, candidates)
		if mod == nil {
			return nil, nil
		}
		applied = append(applied, *mod)
		remaining = next
		candidates = rest

		dish, err := e.tryCanonical(ctx, remaining)
		if err != nil {
			return nil, err
		}
		if dish != nil {
			confidence := 0.95 - 0.05*float64(len(applied))
			if confidence < 0.70 {
				confidence = 0.70
			}
			return &models.MatchResult{
				Input:      name,
				MatchType:  models.MatchModifierDecomposition,
				Canonical:  dish,
				Modifiers:  applied,
				Confidence: confidence,
			}, nil
		}
	}
}

// tryCanonical checks whether text resolves to a canonical dish: exact match
// first, then similarity at the decomposition threshold without the length
// restriction.
func (e *Engine) tryCanonical(ctx context.Context, text string) (*models.CanonicalDish, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	dish, err := e.dishes.ExactLookup(ctx, text)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	if dish != nil {
		return dish, nil
	}

	candidates, err := e.dishes.SimilarityLookup(ctx, text, e.decompositionThreshold, decompositionMaxLengthDelta)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0].Dish, nil
}

// aiDiscoveryNeeded is Step 3: terminal. The full lexicon is re-scanned,
// longest token first, purely to report which modifiers were recognized.
// Invoking a generative-AI lookup is the surrounding system's responsibility,
// so AICalled stays false here.
func (e *Engine) aiDiscoveryNeeded(ctx context.Context, name string) (*models.MatchResult, error) {
	modifiers, err := e.lexicon.ListModifiers(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	found := []models.Modifier{}
	remaining := name
	for _, m := range modifiers {
		if strings.Contains(remaining, m.Text) {
			found = append(found, m)
			remaining = strings.Replace(remaining, m.Text, "", 1)
		}
	}

	return &models.MatchResult{
		Input:      name,
		MatchType:  models.MatchAIDiscoveryNeeded,
		Canonical:  nil,
		Modifiers:  found,
		Confidence: 0.0,
		AICalled:   false,
	}, nil
}
