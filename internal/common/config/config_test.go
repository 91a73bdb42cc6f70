package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "menuscan", cfg.App.Name)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)

	assert.Equal(t, 0.4, cfg.Matching.SimilarityThreshold)
	assert.Equal(t, 0.7, cfg.Matching.DecompositionThreshold)

	tier1 := cfg.OCR.Tiers["tier_1"]
	assert.True(t, tier1.Enabled)
	assert.Equal(t, "gpt_vision", tier1.Provider)
	assert.Equal(t, 0.75, tier1.ConfidenceThreshold)
	assert.False(t, tier1.AllowHandwriting)
	assert.True(t, tier1.FallbackOnPriceError)
	assert.True(t, tier1.CheckItemCountAnomaly)

	tier2 := cfg.OCR.Tiers["tier_2"]
	assert.Equal(t, "clova", tier2.Provider)
	assert.Equal(t, 0.70, tier2.ConfidenceThreshold)
	assert.True(t, tier2.AllowHandwriting)
	assert.False(t, tier2.FallbackOnPriceError)

	tier3 := cfg.OCR.Tiers["tier_3"]
	assert.False(t, tier3.Enabled)
	assert.Equal(t, "tesseract", tier3.Provider)

	assert.Equal(t, "gpt-4o-mini", cfg.OCR.Providers.OpenAI.Model)
	assert.Equal(t, []string{"kor", "eng"}, cfg.OCR.Providers.Tesseract.Languages)
}

func TestApplyDefaults_KeepsExplicitTier(t *testing.T) {
	cfg := Config{OCR: OCRConfig{Tiers: map[string]TierConfig{
		"tier_1": {Enabled: true, Provider: "clova", ConfidenceThreshold: 0.9},
	}}}
	applyDefaults(&cfg)

	assert.Equal(t, "clova", cfg.OCR.Tiers["tier_1"].Provider)
	assert.Equal(t, 0.9, cfg.OCR.Tiers["tier_1"].ConfidenceThreshold)
}

func TestValidateConfig(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	require.NoError(t, validateConfig(&cfg))

	cfg.Matching.SimilarityThreshold = 1.5
	assert.Error(t, validateConfig(&cfg))

	applyDefaults(&cfg)
	cfg.Matching.SimilarityThreshold = 0.4
	cfg.OCR.Tiers["tier_1"] = TierConfig{Enabled: true}
	assert.Error(t, validateConfig(&cfg))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host: "db", Port: 5433, User: "menuscan", Password: "secret",
		Database: "dishes", SSLMode: "disable",
	}.GetDSN()

	assert.Equal(t, "host=db port=5433 user=menuscan password=secret dbname=dishes sslmode=disable", dsn)
}
