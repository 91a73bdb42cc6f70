// Package discovery resolves dish names the canonical lexicon does not
// cover by asking a language model to describe the dish. It sits outside
// the matching engine: callers invoke it only after a resolution comes
// back as ai_discovery_needed.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"menuscan/internal/common/config"
	apperrors "menuscan/internal/common/errors"
	"menuscan/internal/common/logger"
	"menuscan/internal/models"
)

// Candidate is a model-proposed description of an unknown dish, suitable
// for review before promotion into the canonical lexicon.
type Candidate struct {
	NameKo          string   `json:"name_ko"`
	NameEn          string   `json:"name_en"`
	Explanation     string   `json:"explanation"`
	MainIngredients []string `json:"main_ingredients"`
	Allergens       []string `json:"allergens"`
	SpiceLevel      int      `json:"spice_level"`
	DifficultyScore int      `json:"difficulty_score"`
}

const discoveryPrompt = `You are a Korean food expert. Describe the Korean dish "%s" for a foreign visitor.

Respond with JSON only, no other text:
{
  "name_en": "English translation of the dish name",
  "explanation": "one or two sentences describing the dish",
  "main_ingredients": ["ingredient", ...],
  "allergens": ["allergen", ...],
  "spice_level": 0-5,
  "difficulty_score": 1-3
}

spice_level: 0 is not spicy at all, 5 is extremely spicy.
difficulty_score: 1 is approachable for any visitor, 3 is adventurous.`

// Client answers discovery requests through the OpenAI chat API, caching
// answers per dish name for the process lifetime.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger

	mu    sync.RWMutex
	cache map[string]*Candidate
}

func NewClient(cfg config.DiscoveryConfig, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewProviderUnavailableError("openai", fmt.Errorf("api key not configured"))
	}
	return &Client{
		api:     openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		logger:  log.WithFields(map[string]interface{}{"component": "dish-discovery"}),
		cache:   make(map[string]*Candidate),
	}, nil
}

// Discover describes an unknown dish name. Stripped modifiers from a
// failed decomposition are passed along so the model sees the full
// original phrase.
func (c *Client) Discover(ctx context.Context, name string, modifiers []models.Modifier) (*Candidate, error) {
	c.mu.RLock()
	cached, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt := fmt.Sprintf(discoveryPrompt, name)
	if len(modifiers) > 0 {
		parts := make([]string, 0, len(modifiers))
		for _, m := range modifiers {
			parts = append(parts, m.Text)
		}
		prompt += fmt.Sprintf("\n\nThe name includes these descriptive prefixes: %s.", strings.Join(parts, ", "))
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewProviderTimeoutError("openai")
		}
		return nil, apperrors.NewProviderUnavailableError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewProviderParseError("openai", "empty completion")
	}

	candidate, err := parseCandidate(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	candidate.NameKo = name

	c.logger.Info("dish discovered", map[string]interface{}{
		"name":    name,
		"name_en": candidate.NameEn,
	})

	c.mu.Lock()
	c.cache[name] = candidate
	c.mu.Unlock()

	return candidate, nil
}

// parseCandidate decodes the model reply, tolerating markdown code fences.
func parseCandidate(content string) (*Candidate, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, apperrors.NewProviderParseError("openai", "no JSON object in completion")
	}

	var candidate Candidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidate); err != nil {
		return nil, apperrors.NewProviderParseError("openai", err.Error())
	}
	if candidate.NameEn == "" {
		return nil, apperrors.NewProviderParseError("openai", "missing name_en")
	}
	if candidate.SpiceLevel < 0 {
		candidate.SpiceLevel = 0
	}
	if candidate.SpiceLevel > 5 {
		candidate.SpiceLevel = 5
	}
	if candidate.DifficultyScore < 1 {
		candidate.DifficultyScore = 1
	}
	if candidate.DifficultyScore > 3 {
		candidate.DifficultyScore = 3
	}
	return &candidate, nil
}
