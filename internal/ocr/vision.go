package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"menuscan/internal/common/config"
	apperrors "menuscan/internal/common/errors"
	"menuscan/internal/common/logger"
	"menuscan/internal/models"
)

const visionPrompt = `Analyze this restaurant menu board image and return JSON only.

Requirements:
- Always report whether the menu is handwritten
- Prices are numbers, not strings; use null for missing data
- Multi-size items use the "prices" array; single-price items use "price"
- Set meals are marked with "is_set": true
- Return an empty "menu_items" array when no menu is visible

JSON Schema:
{
  "has_handwriting": bool,
  "menu_items": [
    {
      "name_ko": "menu name",
      "name_en": "english name (optional)",
      "description": "description (optional)",
      "price": 8000,
      "prices": [{"size": "소", "price": 8000}, {"size": "대", "price": 12000}],
      "is_set": false,
      "ingredients": ["ingredient"],
      "category": "category"
    }
  ]
}`

// visionPayload is the JSON shape the vision model is prompted to return.
type visionPayload struct {
	HasHandwriting bool         `json:"has_handwriting"`
	MenuItems      []visionItem `json:"menu_items"`
}

type visionItem struct {
	NameKo      string               `json:"name_ko"`
	NameEn      string               `json:"name_en"`
	Description string               `json:"description"`
	Price       *int                 `json:"price"`
	Prices      []models.PriceOption `json:"prices"`
	IsSet       bool                 `json:"is_set"`
	Ingredients []string             `json:"ingredients"`
	Category    string               `json:"category"`
}

// VisionProvider is the Tier 1 primary: general-purpose vision extraction
// via GPT-4o mini with temperature 0 for deterministic output.
type VisionProvider struct {
	client *openai.Client
	model  string
	logger logger.Logger
}

func NewVisionProvider(cfg config.ProvidersConfig, log logger.Logger) (*VisionProvider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderGPTVision), fmt.Errorf("openai api key not configured"))
	}
	return &VisionProvider{
		client: openai.NewClient(cfg.OpenAI.APIKey),
		model:  cfg.OpenAI.Model,
		logger: log.WithFields(map[string]interface{}{"provider": models.ProviderGPTVision}),
	}, nil
}

func (p *VisionProvider) Type() models.ProviderType {
	return models.ProviderGPTVision
}

func (p *VisionProvider) HealthCheck(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Warn("health check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (p *VisionProvider) Extract(ctx context.Context, image []byte, preprocess bool) (*models.OcrResult, error) {
	start := time.Now()

	if preprocess {
		image = preprocessImage(image)
	}
	encoded := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   2048,
		Temperature: 0, // deterministic output for identical images
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + encoded,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewProviderTimeoutError(string(models.ProviderGPTVision))
		}
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderGPTVision), err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewProviderParseError(string(models.ProviderGPTVision), "empty completion")
	}

	rawText := resp.Choices[0].Message.Content
	payload, items, parseErrors := parseVisionResponse(rawText)
	confidence := visionConfidence(len(items), len(parseErrors), resp.Usage.CompletionTokens)

	return &models.OcrResult{
		Provider:         models.ProviderGPTVision,
		Success:          len(items) > 0,
		Items:            items,
		RawText:          rawText,
		Confidence:       confidence,
		ConfidenceLevel:  models.ConfidenceLevelFor(confidence),
		HasHandwriting:   payload.HasHandwriting,
		PriceParseErrors: parseErrors,
		ResultHash:       computeResultHash(image, rawText),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// parseVisionResponse extracts the JSON object from the completion text and
// converts it into menu items, collecting per-item parse errors instead of
// failing the whole extraction.
func parseVisionResponse(rawText string) (visionPayload, []models.MenuItem, []string) {
	var payload visionPayload
	var parseErrors []string

	jsonStart := strings.Index(rawText, "{")
	jsonEnd := strings.LastIndex(rawText, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return payload, nil, []string{"no JSON object in response"}
	}

	if err := json.Unmarshal([]byte(rawText[jsonStart:jsonEnd+1]), &payload); err != nil {
		return payload, nil, []string{fmt.Sprintf("JSON parse failed: %v", err)}
	}

	items := make([]models.MenuItem, 0, len(payload.MenuItems))
	for _, it := range payload.MenuItems {
		if it.NameKo == "" {
			parseErrors = append(parseErrors, "menu item missing name")
			continue
		}
		items = append(items, models.MenuItem{
			Name:        it.NameKo,
			NameEn:      it.NameEn,
			Description: it.Description,
			Price:       it.Price,
			Prices:      it.Prices,
			IsSet:       it.IsSet,
			Ingredients: it.Ingredients,
			Category:    it.Category,
		})
	}
	return payload, items, parseErrors
}

// visionConfidence scores an extraction: base 0.75, up to +0.15 for item
// count, -0.05 per parse error, -0.1 for suspiciously short completions.
func visionConfidence(itemCount, parseErrorCount, completionTokens int) float64 {
	if itemCount == 0 {
		return 0.0
	}

	confidence := 0.75

	bonus := float64(itemCount) * 0.02
	if bonus > 0.15 {
		bonus = 0.15
	}
	confidence += bonus

	confidence -= float64(parseErrorCount) * 0.05

	if completionTokens < 100 {
		confidence -= 0.1
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
