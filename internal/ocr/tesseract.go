package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"

	"menuscan/internal/common/config"
	apperrors "menuscan/internal/common/errors"
	"menuscan/internal/common/logger"
	"menuscan/internal/models"
)

// TesseractProvider is the reserved Tier 3 local provider. It is registered
// but inactive in the default routing chain; only a forced tier reaches it.
type TesseractProvider struct {
	languages     []string
	clientFactory func() *gosseract.Client
	logger        logger.Logger
}

func NewTesseractProvider(cfg config.ProvidersConfig, log logger.Logger) *TesseractProvider {
	return &TesseractProvider{
		languages:     cfg.Tesseract.Languages,
		clientFactory: gosseract.NewClient,
		logger:        log.WithFields(map[string]interface{}{"provider": models.ProviderTesseract}),
	}
}

func (p *TesseractProvider) Type() models.ProviderType {
	return models.ProviderTesseract
}

func (p *TesseractProvider) HealthCheck(ctx context.Context) bool {
	c := p.clientFactory()
	defer c.Close()
	return c.SetLanguage(p.languages...) == nil
}

func (p *TesseractProvider) Extract(ctx context.Context, image []byte, preprocess bool) (*models.OcrResult, error) {
	start := time.Now()

	if preprocess {
		image = preprocessImage(image)
	}

	c := p.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(p.languages...); err != nil {
		return nil, apperrors.NewProviderUnavailableError(string(models.ProviderTesseract), err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, apperrors.NewProviderParseError(string(models.ProviderTesseract), err.Error())
	}

	rawText, err := c.Text()
	if err != nil {
		return nil, apperrors.NewProviderParseError(string(models.ProviderTesseract), err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewProviderTimeoutError(string(models.ProviderTesseract))
	}

	items, priceErrors := convertRawLines(rawText)
	confidence := meanWordConfidence(c)

	return &models.OcrResult{
		Provider:         models.ProviderTesseract,
		Success:          len(items) > 0,
		Items:            items,
		RawText:          rawText,
		Confidence:       confidence,
		ConfidenceLevel:  models.ConfidenceLevelFor(confidence),
		PriceParseErrors: priceErrors,
		ResultHash:       computeResultHash(image, rawText),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

func convertRawLines(rawText string) ([]models.MenuItem, []string) {
	var items []models.MenuItem
	var priceErrors []string

	for _, line := range splitMenuLines(rawText) {
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

// meanWordConfidence averages Tesseract's word-level confidences, normalized
// from its 0-100 range.
func meanWordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0.0
	}

	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100.0
}
