// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- OCR Configuration ---

// OCRConfig holds settings for the tier router and orchestrator.
type OCRConfig struct {
	CacheEnabled  bool                  `mapstructure:"cache_enabled"`
	Preprocessing bool                  `mapstructure:"preprocessing"`
	Tiers         map[string]TierConfig `mapstructure:"tiers"`
	Providers     ProvidersConfig       `mapstructure:"providers"`
}

// TierConfig binds one tier to a provider and its fallback trigger thresholds.
type TierConfig struct {
	Enabled               bool    `mapstructure:"enabled"`
	Provider              string  `mapstructure:"provider"`
	Timeout               int     `mapstructure:"timeout"` // milliseconds
	ConfidenceThreshold   float64 `mapstructure:"confidence_threshold"`
	MinMenuItems          int     `mapstructure:"min_menu_items"`
	AllowHandwriting      bool    `mapstructure:"allow_handwriting"`
	FallbackOnPriceError  bool    `mapstructure:"fallback_on_price_error"`
	CheckItemCountAnomaly bool    `mapstructure:"check_item_count_anomaly"`
}

// ProvidersConfig holds credentials and tuning for each OCR backend.
type ProvidersConfig struct {
	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"openai"`

	Clova struct {
		URL     string `mapstructure:"url"`
		Secret  string `mapstructure:"secret"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"clova"`

	Tesseract struct {
		Languages []string `mapstructure:"languages"`
	} `mapstructure:"tesseract"`
}

// MatchingConfig holds the matching engine thresholds.
type MatchingConfig struct {
	SimilarityThreshold    float64 `mapstructure:"similarity_threshold"`
	DecompositionThreshold float64 `mapstructure:"decomposition_threshold"`
}

// DiscoveryConfig holds settings for the AI-discovery collaborator.
type DiscoveryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
