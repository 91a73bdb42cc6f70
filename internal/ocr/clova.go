package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"menuscan/internal/common/config"
	apperrors "menuscan/internal/common/errors"
	"menuscan/internal/common/httpx"
	"menuscan/internal/common/logger"
	"menuscan/internal/models"
)

// ClovaProvider is the Tier 2 fallback: Korean-specialized OCR, the
// designated handwriting-capable tier.
type ClovaProvider struct {
	url    string
	secret string
	http   *httpx.Client
	logger logger.Logger
}

func NewClovaProvider(cfg config.ProvidersConfig, log logger.Logger) (*ClovaProvider, error) {
	if cfg.Clova.URL == "" || cfg.Clova.Secret == "" {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderClova), fmt.Errorf("clova url/secret not configured"))
	}
	return &ClovaProvider{
		url:    cfg.Clova.URL,
		secret: cfg.Clova.Secret,
		http:   httpx.NewClient(time.Duration(cfg.Clova.Timeout) * time.Millisecond),
		logger: log.WithFields(map[string]interface{}{"provider": models.ProviderClova}),
	}, nil
}

func (p *ClovaProvider) Type() models.ProviderType {
	return models.ProviderClova
}

// HealthCheck reports whether the provider is configured. CLOVA has no
// dedicated health endpoint.
func (p *ClovaProvider) HealthCheck(ctx context.Context) bool {
	return p.url != "" && p.secret != ""
}

type clovaRequest struct {
	Version   string       `json:"version"`
	RequestID string       `json:"requestId"`
	Timestamp int64        `json:"timestamp"`
	Images    []clovaImage `json:"images"`
}

type clovaImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

type clovaResponse struct {
	Images []struct {
		InferResult string `json:"inferResult"`
		Message     string `json:"message"`
		Fields      []clovaField `json:"fields"`
	} `json:"images"`
}

type clovaField struct {
	InferText       string  `json:"inferText"`
	InferConfidence float64 `json:"inferConfidence"`
	LineBreak       bool    `json:"lineBreak"`
}

func (p *ClovaProvider) Extract(ctx context.Context, image []byte, preprocess bool) (*models.OcrResult, error) {
	start := time.Now()

	if preprocess {
		image = preprocessImage(image)
	}

	body, err := json.Marshal(clovaRequest{
		Version:   "V2",
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Images: []clovaImage{{
			Format: "jpg",
			Name:   "menu",
			Data:   base64.StdEncoding.EncodeToString(image),
		}},
	})
	if err != nil {
		return nil, apperrors.NewProviderParseError(string(models.ProviderClova), err.Error())
	}

	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderClova), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OCR-SECRET", p.secret)

	resp, err := p.http.DoWithContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewProviderTimeoutError(string(models.ProviderClova))
		}
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderClova), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderClova), fmt.Errorf("clova returned status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderClova), err)
	}

	var parsed clovaResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, apperrors.NewProviderParseError(string(models.ProviderClova), err.Error())
	}
	if len(parsed.Images) == 0 {
		return nil, apperrors.NewProviderParseError(string(models.ProviderClova), "response contains no images")
	}

	img := parsed.Images[0]
	success := img.InferResult == "SUCCESS"
	rawText := joinFields(img.Fields)
	items, priceErrors := convertClovaFields(img.Fields)
	confidence := clovaConfidence(success, img.Fields, len(items))

	return &models.OcrResult{
		Provider:         models.ProviderClova,
		Success:          success && len(items) > 0,
		Items:            items,
		RawText:          rawText,
		Confidence:       confidence,
		ConfidenceLevel:  models.ConfidenceLevelFor(confidence),
		HasHandwriting:   false, // CLOVA handles handwriting without flagging it
		PriceParseErrors: priceErrors,
		ResultHash:       computeResultHash(image, rawText),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// joinFields reconstructs line-oriented text from CLOVA's field stream using
// its lineBreak markers.
func joinFields(fields []clovaField) string {
	var b strings.Builder
	for i, f := range fields {
		b.WriteString(f.InferText)
		if f.LineBreak {
			b.WriteString("\n")
		} else if i < len(fields)-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// convertClovaFields pairs recognized text with trailing price tokens, one
// menu item per line.
func convertClovaFields(fields []clovaField) ([]models.MenuItem, []string) {
	var items []models.MenuItem
	var priceErrors []string

	for _, line := range splitMenuLines(joinFields(fields)) {
		if line.name == "" {
			continue
		}

		item := models.MenuItem{Name: line.name}
		if line.priceRaw != "" {
			price, err := parsePrice(line.priceRaw)
			if err != nil {
				priceErrors = append(priceErrors, fmt.Sprintf("%s: %v", line.name, err))
			} else {
				item.Price = &price
			}
		}
		items = append(items, item)
	}
	return items, priceErrors
}

// clovaConfidence averages field-level confidences; when the provider reports
// none, fall back to the 0.85 heuristic for non-empty extractions.
func clovaConfidence(success bool, fields []clovaField, itemCount int) float64 {
	if !success {
		return 0.0
	}

	var sum float64
	var n int
	for _, f := range fields {
		if f.InferConfidence > 0 {
			sum += f.InferConfidence
			n++
		}
	}
	if n > 0 {
		confidence := sum / float64(n)
		if confidence > 1 {
			confidence = 1
		}
		return confidence
	}

	if itemCount > 0 {
		return 0.85
	}
	return 0.0
}
