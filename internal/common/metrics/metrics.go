// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_extractions_total",
			Help: "Total number of menu extractions by serving tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	ExtractionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocr_extraction_cache_hits_total",
			Help: "Total number of extractions served from the result cache",
		},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ocr_extraction_duration_seconds",
			Help: "Duration of provider extraction calls in seconds",
		},
		[]string{"provider"},
	)

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dish_resolutions_total",
			Help: "Total number of dish name resolutions by match type",
		},
		[]string{"match_type"},
	)

	StoreLookupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dish_store_lookup_errors_total",
			Help: "Total number of failed canonical/modifier store lookups",
		},
	)
)
