package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menuscan/internal/common/logger"
	"menuscan/internal/common/metrics"
	"menuscan/internal/models"
)

// More than this many extracted items is treated as a parsing malfunction.
const itemCountAnomalyLimit = 100

// FallbackTrigger holds one tier's fallback thresholds.
type FallbackTrigger struct {
	ConfidenceThreshold   float64
	MinMenuItems          int
	AllowHandwriting      bool
	FallbackOnPriceError  bool
	CheckItemCountAnomaly bool
}

type tierEntry struct {
	provider Provider
	trigger  FallbackTrigger
	timeout  time.Duration
}

// TierRouter executes providers in tier order, escalating from Tier 1 to
// Tier 2 when the primary result looks unreliable. Tier 3 is reserved and
// only reachable through a forced tier.
type TierRouter struct {
	tiers  map[models.TierLevel]tierEntry
	logger logger.Logger
}

func NewTierRouter(log logger.Logger) *TierRouter {
	return &TierRouter{
		tiers:  make(map[models.TierLevel]tierEntry),
		logger: log.WithFields(map[string]interface{}{"component": "ocr-tier-router"}),
	}
}

// Register binds a provider and its trigger thresholds to a tier.
func (r *TierRouter) Register(level models.TierLevel, p Provider, trigger FallbackTrigger, timeout time.Duration) {
	r.tiers[level] = tierEntry{provider: p, trigger: trigger, timeout: timeout}
}

// Route returns a single best result for the image. forceTier bypasses all
// trigger evaluation and fallback (test/debug path). Route never returns an
// error: provider failures become failed zero-confidence results so fallback
// evaluation proceeds uniformly.
func (r *TierRouter) Route(ctx context.Context, image []byte, preprocess bool, forceTier models.TierLevel) *models.OcrResult {
	if forceTier != "" {
		r.logger.Info("forced tier selected", map[string]interface{}{"tier": forceTier})
		return r.executeTier(ctx, forceTier, image, preprocess)
	}

	tier1 := r.executeTier(ctx, models.Tier1, image, preprocess)

	entry := r.tiers[models.Tier1]
	if !shouldFallback(tier1, entry.trigger) {
		r.logger.Info("tier 1 accepted", map[string]interface{}{
			"confidence": tier1.Confidence,
			"items":      len(tier1.Items),
		})
		return tier1
	}

	reason := fallbackReason(tier1, entry.trigger)
	r.logger.Warn("tier 1 fallback triggered", map[string]interface{}{"reason": reason})

	tier2 := r.executeTier(ctx, models.Tier2, image, preprocess)
	tier2.TriggeredFallback = true
	tier2.FallbackReason = reason
	return tier2
}

// executeTier runs one tier under its deadline, converting any provider
// error into a failed result.
func (r *TierRouter) executeTier(ctx context.Context, level models.TierLevel, image []byte, preprocess bool) *models.OcrResult {
	entry, ok := r.tiers[level]
	if !ok || entry.provider == nil {
		r.logger.Error("tier not active", map[string]interface{}{"tier": level})
		return failedResult("", fmt.Sprintf("%s is not active", level))
	}

	tierCtx := ctx
	if entry.timeout > 0 {
		var cancel context.CancelFunc
		tierCtx, cancel = context.WithTimeout(ctx, entry.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := entry.provider.Extract(tierCtx, image, preprocess)
	metrics.ExtractionDuration.WithLabelValues(string(entry.provider.Type())).Observe(time.Since(start).Seconds())

	if err != nil {
		r.logger.Error("tier execution failed", map[string]interface{}{
			"tier":  level,
			"error": err.Error(),
		})
		return failedResult(entry.provider.Type(), err.Error())
	}
	return result
}

func failedResult(provider models.ProviderType, detail string) *models.OcrResult {
	return &models.OcrResult{
		Provider:        provider,
		Success:         false,
		Items:           []models.MenuItem{},
		RawText:         detail,
		Confidence:      0.0,
		ConfidenceLevel: models.ConfidenceLow,
	}
}

func shouldFallback(result *models.OcrResult, trigger FallbackTrigger) bool {
	if !result.Success {
		return true
	}
	if result.Confidence < trigger.ConfidenceThreshold {
		return true
	}
	if len(result.Items) < trigger.MinMenuItems {
		return true
	}
	if result.HasHandwriting && !trigger.AllowHandwriting {
		return true
	}
	if len(result.PriceParseErrors) > 0 && trigger.FallbackOnPriceError {
		return true
	}
	if trigger.CheckItemCountAnomaly && len(result.Items) > itemCountAnomalyLimit {
		return true
	}
	return false
}

// fallbackReason summarizes every condition that fired, for diagnostics.
func fallbackReason(result *models.OcrResult, trigger FallbackTrigger) string {
	var reasons []string

	if !result.Success {
		reasons = append(reasons, "extraction failed")
	}
	if result.Confidence < trigger.ConfidenceThreshold {
		reasons = append(reasons, fmt.Sprintf("confidence %.2f below %.2f", result.Confidence, trigger.ConfidenceThreshold))
	}
	if len(result.Items) < trigger.MinMenuItems {
		reasons = append(reasons, fmt.Sprintf("only %d menu items", len(result.Items)))
	}
	if result.HasHandwriting && !trigger.AllowHandwriting {
		reasons = append(reasons, "handwriting detected")
	}
	if len(result.PriceParseErrors) > 0 && trigger.FallbackOnPriceError {
		reasons = append(reasons, fmt.Sprintf("%d price parse errors", len(result.PriceParseErrors)))
	}
	if trigger.CheckItemCountAnomaly && len(result.Items) > itemCountAnomalyLimit {
		reasons = append(reasons, fmt.Sprintf("item count anomaly (%d items)", len(result.Items)))
	}

	if len(reasons) == 0 {
		return "fallback triggered"
	}
	return strings.Join(reasons, ", ")
}
