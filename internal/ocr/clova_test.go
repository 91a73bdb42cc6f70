package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuscan/internal/common/config"
	"menuscan/internal/common/logger"
	"menuscan/internal/models"
)

func clovaTestConfig(url string) config.ProvidersConfig {
	var cfg config.ProvidersConfig
	cfg.Clova.URL = url
	cfg.Clova.Secret = "test-secret"
	cfg.Clova.Timeout = 5000
	return cfg
}

func TestNewClovaProvider_RequiresCredentials(t *testing.T) {
	var cfg config.ProvidersConfig

	_, err := NewClovaProvider(cfg, logger.NewNoOpLogger())
	assert.Error(t, err)

	cfg.Clova.URL = "https://clova.example/ocr"
	_, err = NewClovaProvider(cfg, logger.NewNoOpLogger())
	assert.Error(t, err)

	cfg.Clova.Secret = "s"
	p, err := NewClovaProvider(cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, models.ProviderClova, p.Type())
	assert.True(t, p.HealthCheck(context.Background()))
}

func TestClovaExtract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-secret", r.Header.Get("X-OCR-SECRET"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req clovaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "V2", req.Version)
		assert.NotEmpty(t, req.RequestID)
		require.Len(t, req.Images, 1)
		assert.NotEmpty(t, req.Images[0].Data)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"images": []map[string]interface{}{{
				"inferResult": "SUCCESS",
				"fields": []map[string]interface{}{
					{"inferText": "김치찌개", "inferConfidence": 0.98, "lineBreak": false},
					{"inferText": "8,000원", "inferConfidence": 0.96, "lineBreak": true},
					{"inferText": "순두부찌개", "inferConfidence": 0.94, "lineBreak": false},
					{"inferText": "9500", "inferConfidence": 0.92, "lineBreak": true},
				},
			}},
		})
	}))
	defer server.Close()

	p, err := NewClovaProvider(clovaTestConfig(server.URL), logger.NewNoOpLogger())
	require.NoError(t, err)

	result, err := p.Extract(context.Background(), []byte("fake-image"), false)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ProviderClova, result.Provider)
	assert.False(t, result.HasHandwriting)
	assert.Empty(t, result.PriceParseErrors)
	assert.NotEmpty(t, result.ResultHash)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "김치찌개", result.Items[0].Name)
	require.NotNil(t, result.Items[0].Price)
	assert.Equal(t, 8000, *result.Items[0].Price)
	assert.Equal(t, "순두부찌개", result.Items[1].Name)

	// mean of the four field confidences
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Equal(t, models.ConfidenceHigh, result.ConfidenceLevel)
}

func TestClovaExtract_InferFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"images": []map[string]interface{}{{
				"inferResult": "FAILURE",
				"message":     "unsupported image",
				"fields":      []map[string]interface{}{},
			}},
		})
	}))
	defer server.Close()

	p, err := NewClovaProvider(clovaTestConfig(server.URL), logger.NewNoOpLogger())
	require.NoError(t, err)

	result, err := p.Extract(context.Background(), []byte("fake-image"), false)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, models.ConfidenceLow, result.ConfidenceLevel)
}

func TestClovaExtract_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p, err := NewClovaProvider(clovaTestConfig(server.URL), logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = p.Extract(context.Background(), []byte("fake-image"), false)
	assert.Error(t, err)
}

func TestClovaExtract_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	p, err := NewClovaProvider(clovaTestConfig(server.URL), logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = p.Extract(context.Background(), []byte("fake-image"), false)
	assert.Error(t, err)
}

func TestJoinFields(t *testing.T) {
	fields := []clovaField{
		{InferText: "김치찌개", LineBreak: false},
		{InferText: "8,000원", LineBreak: true},
		{InferText: "된장찌개", LineBreak: false},
	}

	assert.Equal(t, "김치찌개 8,000원\n된장찌개", joinFields(fields))
}

func TestClovaConfidence_HeuristicWithoutFieldScores(t *testing.T) {
	fields := []clovaField{{InferText: "국밥", InferConfidence: 0}}

	assert.Equal(t, 0.85, clovaConfidence(true, fields, 1))
	assert.Equal(t, 0.0, clovaConfidence(true, fields, 0))
	assert.Equal(t, 0.0, clovaConfidence(false, fields, 1))
}
