// Package ocr extracts menu items from images through a tiered chain of
// OCR/vision providers with automatic fallback, caching, and metrics.
package ocr

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"menuscan/internal/models"
)

// Provider wraps one OCR/vision backend.
type Provider interface {
	Type() models.ProviderType
	Extract(ctx context.Context, image []byte, preprocess bool) (*models.OcrResult, error)
	HealthCheck(ctx context.Context) bool
}

// imageKey derives the cache key from the image content, not its delivery
// path, so identical images always share a key.
func imageKey(image []byte) string {
	sum := md5.Sum(image)
	return "ocr:image:" + hex.EncodeToString(sum[:])
}

// resultKey is where the full result payload lives.
func resultKey(resultHash string) string {
	return "ocr:result:" + resultHash
}

// computeResultHash derives the content hash of one extraction: the image's
// md5 combined with the provider's raw output.
func computeResultHash(image []byte, rawText string) string {
	imgSum := md5.Sum(image)
	combined := fmt.Sprintf("%s:%s", hex.EncodeToString(imgSum[:]), rawText)
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}
