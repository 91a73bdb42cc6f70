package models

// ProviderType identifies one OCR/vision backend.
type ProviderType string

const (
	ProviderGPTVision ProviderType = "gpt_vision"
	ProviderClova     ProviderType = "clova"
	ProviderTesseract ProviderType = "tesseract"
)

// TierLevel is one extraction strategy in the ordered fallback chain.
type TierLevel string

const (
	Tier1 TierLevel = "tier_1" // primary
	Tier2 TierLevel = "tier_2" // fallback
	Tier3 TierLevel = "tier_3" // reserved for future growth
)

// ConfidenceLevel buckets a continuous confidence score for reporting.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"   // >= 0.85
	ConfidenceMedium ConfidenceLevel = "medium" // 0.70 ~ 0.84
	ConfidenceLow    ConfidenceLevel = "low"    // < 0.70
)

// ConfidenceLevelFor converts a confidence score to its level bucket.
func ConfidenceLevelFor(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return ConfidenceHigh
	case confidence >= 0.70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PriceOption is one size-variant price of a menu item.
type PriceOption struct {
	Size  string `json:"size,omitempty"`
	Price int    `json:"price"`
	Label string `json:"label,omitempty"`
}

// MenuItem is one extracted menu entry.
type MenuItem struct {
	Name          string        `json:"name_ko"`
	NameEn        string        `json:"name_en,omitempty"`
	Description   string        `json:"description,omitempty"`
	Price         *int          `json:"price,omitempty"`
	Prices        []PriceOption `json:"prices,omitempty"`
	IsSet         bool          `json:"is_set"`
	OriginalPrice *int          `json:"original_price,omitempty"`
	DiscountPrice *int          `json:"discount_price,omitempty"`
	Ingredients   []string      `json:"ingredients,omitempty"`
	Category      string        `json:"category,omitempty"`
}

// OcrResult is the standard schema every provider produces. Created per
// extraction call, optionally cached by its ResultHash, never mutated after
// construction except for the two router-assigned fallback fields.
type OcrResult struct {
	Provider        ProviderType    `json:"provider"`
	Success         bool            `json:"success"`
	Items           []MenuItem      `json:"menu_items"`
	RawText         string          `json:"raw_text"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`

	HasHandwriting   bool     `json:"has_handwriting"`
	PriceParseErrors []string `json:"price_parse_errors,omitempty"`

	// ResultHash = SHA256(md5(image) + ":" + raw output); stable for
	// identical image+output pairs, used as the cache key.
	ResultHash       string `json:"result_hash"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`

	// Router-assigned.
	TriggeredFallback bool   `json:"triggered_fallback"`
	FallbackReason    string `json:"fallback_reason,omitempty"`
}
