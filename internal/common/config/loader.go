// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OCR_PROVIDERS_OPENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when not present
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory upward so tests and
// commands behave the same regardless of where they run.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "menuscan"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Matching.SimilarityThreshold == 0 {
		cfg.Matching.SimilarityThreshold = 0.4
	}
	if cfg.Matching.DecompositionThreshold == 0 {
		cfg.Matching.DecompositionThreshold = 0.7
	}

	if cfg.OCR.Tiers == nil {
		cfg.OCR.Tiers = map[string]TierConfig{}
	}
	applyTierDefaults(cfg, "tier_1", TierConfig{
		Enabled:               true,
		Provider:              "gpt_vision",
		Timeout:               30000,
		ConfidenceThreshold:   0.75,
		MinMenuItems:          1,
		AllowHandwriting:      false,
		FallbackOnPriceError:  true,
		CheckItemCountAnomaly: true,
	})
	applyTierDefaults(cfg, "tier_2", TierConfig{
		Enabled:               true,
		Provider:              "clova",
		Timeout:               20000,
		ConfidenceThreshold:   0.70,
		MinMenuItems:          1,
		AllowHandwriting:      true,
		FallbackOnPriceError:  false,
		CheckItemCountAnomaly: false,
	})
	applyTierDefaults(cfg, "tier_3", TierConfig{
		Enabled:             false,
		Provider:            "tesseract",
		Timeout:             60000,
		ConfidenceThreshold: 0.60,
		MinMenuItems:        1,
		AllowHandwriting:    true,
	})

	if cfg.OCR.Providers.OpenAI.Model == "" {
		cfg.OCR.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OCR.Providers.OpenAI.Timeout == 0 {
		cfg.OCR.Providers.OpenAI.Timeout = 30000
	}
	if cfg.OCR.Providers.Clova.Timeout == 0 {
		cfg.OCR.Providers.Clova.Timeout = 20000
	}
	if len(cfg.OCR.Providers.Tesseract.Languages) == 0 {
		cfg.OCR.Providers.Tesseract.Languages = []string{"kor", "eng"}
	}

	if cfg.Discovery.Model == "" {
		cfg.Discovery.Model = "gpt-4o-mini"
	}
	if cfg.Discovery.Timeout == 0 {
		cfg.Discovery.Timeout = 30000
	}
}

func applyTierDefaults(cfg *Config, tier string, def TierConfig) {
	if _, ok := cfg.OCR.Tiers[tier]; !ok {
		cfg.OCR.Tiers[tier] = def
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Matching.SimilarityThreshold <= 0 || cfg.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("matching.similarity_threshold must be in (0,1], got %v", cfg.Matching.SimilarityThreshold)
	}
	if cfg.Matching.DecompositionThreshold <= 0 || cfg.Matching.DecompositionThreshold > 1 {
		return fmt.Errorf("matching.decomposition_threshold must be in (0,1], got %v", cfg.Matching.DecompositionThreshold)
	}
	for name, tier := range cfg.OCR.Tiers {
		if tier.Enabled && tier.Provider == "" {
			return fmt.Errorf("ocr.tiers.%s is enabled but has no provider", name)
		}
	}
	return nil
}
