package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"menuscan/internal/common/logger"
	"menuscan/internal/common/metrics"
	"menuscan/internal/models"
)

const (
	resultCacheTTL  = 30 * 24 * time.Hour
	metricsKey      = "ocr:metrics"
	metricsCacheTTL = 90 * 24 * time.Hour
)

// Cache is the key/value surface the orchestrator needs. Satisfied by
// database.RedisClient.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Router selects and runs a provider for an image.
type Router interface {
	Route(ctx context.Context, image []byte, preprocess bool, forceTier models.TierLevel) *models.OcrResult
}

// ExtractOptions control one extraction call.
type ExtractOptions struct {
	EnablePreprocessing bool
	UseCache            bool
	ForceTier           models.TierLevel
}

// Orchestrator fronts the tier router with result caching and usage
// metrics. Cache and metrics failures are logged and swallowed: extraction
// must not fail because Redis is down.
type Orchestrator struct {
	router Router
	cache  Cache
	logger logger.Logger
}

func NewOrchestrator(router Router, cache Cache, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		router: router,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "ocr-orchestrator"}),
	}
}

// ExtractMenu extracts menu items from an image, returning a cached result
// when the same image bytes were processed before.
func (o *Orchestrator) ExtractMenu(ctx context.Context, image []byte, opts ExtractOptions) *models.OcrResult {
	start := time.Now()

	if opts.UseCache && o.cache != nil {
		if cached := o.lookupCached(ctx, image); cached != nil {
			metrics.ExtractionCacheHits.Inc()
			o.logger.Info("cache hit", map[string]interface{}{
				"provider": cached.Provider,
				"items":    len(cached.Items),
			})
			// cached requests still count toward the usage aggregate
			o.recordMetrics(ctx, cached)
			return cached
		}
	}

	result := o.router.Route(ctx, image, opts.EnablePreprocessing, opts.ForceTier)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	if result.Success {
		result.ResultHash = computeResultHash(image, result.RawText)
	}

	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	metrics.ExtractionsTotal.WithLabelValues(tierLabel(result.Provider), outcome).Inc()

	if opts.UseCache && o.cache != nil && result.Success {
		o.storeCached(ctx, image, result)
	}
	o.recordMetrics(ctx, result)

	return result
}

// lookupCached resolves image bytes to a previously stored result. The
// image key is an index holding the result hash; the result key holds the
// serialized result. Any miss or decode failure falls through to a fresh
// extraction.
func (o *Orchestrator) lookupCached(ctx context.Context, image []byte) *models.OcrResult {
	hash, err := o.cache.Get(ctx, imageKey(image))
	if err != nil || hash == "" {
		return nil
	}

	raw, err := o.cache.Get(ctx, resultKey(hash))
	if err != nil || raw == "" {
		return nil
	}

	var result models.OcrResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		o.logger.Warn("discarding undecodable cached result", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return &result
}

func (o *Orchestrator) storeCached(ctx context.Context, image []byte, result *models.OcrResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		o.logger.Warn("cache marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := o.cache.Set(ctx, resultKey(result.ResultHash), string(raw), resultCacheTTL); err != nil {
		o.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := o.cache.Set(ctx, imageKey(image), result.ResultHash, resultCacheTTL); err != nil {
		o.logger.Warn("cache index write failed", map[string]interface{}{"error": err.Error()})
	}
}

// metricsAggregate is the persisted usage summary under ocr:metrics.
type metricsAggregate struct {
	Tier1Count          int64   `json:"tier_1_count"`
	Tier2Count          int64   `json:"tier_2_count"`
	TotalCount          int64   `json:"total_count"`
	AvgProcessingTimeMS float64 `json:"avg_processing_time_ms"`
	PriceErrorCount     int64   `json:"price_error_count"`
	HandwritingCount    int64   `json:"handwriting_count"`
	LastUpdated         string  `json:"last_updated"`
}

// recordMetrics folds one extraction into the persisted aggregate. The
// read-modify-write is not atomic across processes; occasional lost
// updates are acceptable for a usage summary.
func (o *Orchestrator) recordMetrics(ctx context.Context, result *models.OcrResult) {
	if o.cache == nil {
		return
	}

	var agg metricsAggregate
	if raw, err := o.cache.Get(ctx, metricsKey); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &agg); err != nil {
			agg = metricsAggregate{}
		}
	}

	// the fallback flag, not the provider, decides the tier bucket: a forced
	// tier still counts as primary usage unless fallback actually fired
	if result.TriggeredFallback {
		agg.Tier2Count++
	} else {
		agg.Tier1Count++
	}
	prevTotal := agg.TotalCount
	agg.TotalCount++
	agg.AvgProcessingTimeMS = (agg.AvgProcessingTimeMS*float64(prevTotal) + float64(result.ProcessingTimeMS)) / float64(agg.TotalCount)
	agg.PriceErrorCount += int64(len(result.PriceParseErrors))
	if result.HasHandwriting {
		agg.HandwritingCount++
	}
	agg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	raw, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := o.cache.Set(ctx, metricsKey, string(raw), metricsCacheTTL); err != nil {
		o.logger.Warn("metrics write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Metrics returns the persisted aggregate with derived tier usage rates.
func (o *Orchestrator) Metrics(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"tier_1_count":           int64(0),
		"tier_2_count":           int64(0),
		"total_count":            int64(0),
		"avg_processing_time_ms": float64(0),
		"price_error_count":      int64(0),
		"handwriting_count":      int64(0),
		"tier_1_rate":            "0%",
		"tier_2_rate":            "0%",
	}
	if o.cache == nil {
		return out, nil
	}

	raw, err := o.cache.Get(ctx, metricsKey)
	if err != nil || raw == "" {
		return out, nil
	}

	var agg metricsAggregate
	if err := json.Unmarshal([]byte(raw), &agg); err != nil {
		return nil, fmt.Errorf("decode metrics aggregate: %w", err)
	}

	out["tier_1_count"] = agg.Tier1Count
	out["tier_2_count"] = agg.Tier2Count
	out["total_count"] = agg.TotalCount
	out["avg_processing_time_ms"] = agg.AvgProcessingTimeMS
	out["price_error_count"] = agg.PriceErrorCount
	out["handwriting_count"] = agg.HandwritingCount
	out["last_updated"] = agg.LastUpdated
	if agg.TotalCount > 0 {
		out["tier_1_rate"] = fmt.Sprintf("%.1f%%", float64(agg.Tier1Count)/float64(agg.TotalCount)*100)
		out["tier_2_rate"] = fmt.Sprintf("%.1f%%", float64(agg.Tier2Count)/float64(agg.TotalCount)*100)
	}
	return out, nil
}

func tierLabel(provider models.ProviderType) string {
	switch provider {
	case models.ProviderGPTVision:
		return string(models.Tier1)
	case models.ProviderClova:
		return string(models.Tier2)
	case models.ProviderTesseract:
		return string(models.Tier3)
	default:
		return "unknown"
	}
}
