package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/services/dedup"
	"github.com/supportos/complaintstack/services/fingerprint"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

// newModelServer fakes the chat completion endpoint, always answering with
// the given content and counting calls.
func newModelServer(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		response := map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newAnalyzer(baseURL string, cache interfaces.DedupService) interfaces.AnalyzerService {
	return NewAnalyzerService(&config.AnalyzerConfig{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Model:        "gpt-4o-mini",
		Timeout:      5 * time.Second,
		MaxRetries:   0,
		RetryBackoff: time.Millisecond,
	}, cache, getLogger())
}

const validModelOutput = `{
	"category": "billing",
	"priority": "high",
	"sentiment": "negative",
	"confidence": 0.92,
	"entities": {
		"orderNumbers": ["ORD-1234"],
		"amounts": ["59.99"],
		"dates": [],
		"products": ["coffee machine"]
	}
}`

func TestClassify_ValidResponse(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	ts := newModelServer(t, validModelOutput, &calls)
	svc := newAnalyzer(ts.URL, nil)

	// Act
	result, err := svc.Classify(context.Background(), dto.AnalyzeRequest{
		Subject: "You charged me twice",
		Body:    "My card shows two charges of 59.99 for order ORD-1234.",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, enum.CategoryBilling, result.Category)
	assert.Equal(t, enum.PriorityHigh, result.Priority)
	assert.Equal(t, enum.SentimentNegative, result.Sentiment)
	assert.Equal(t, 0.92, result.Confidence)
	require.Len(t, result.Entities, 3)
	assert.Equal(t, enum.EntityOrderNumber, result.Entities[0].Type)
	assert.Equal(t, "ORD-1234", result.Entities[0].Value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassify_RejectsUnknownPriority(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	output := `{"category": "billing", "priority": "Critical", "sentiment": "negative", "confidence": 0.9,
		"entities": {"orderNumbers": [], "amounts": [], "dates": [], "products": []}}`
	ts := newModelServer(t, output, &calls)
	svc := newAnalyzer(ts.URL, nil)

	// Act
	result, err := svc.Classify(context.Background(), dto.AnalyzeRequest{Subject: "s", Body: "b"})

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrAnalyzerInvalidResponse))
	assert.Nil(t, result)
}

func TestClassify_InvalidResponseIsNotRetried(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	output := `{"category": "billing", "priority": "Critical", "sentiment": "negative", "confidence": 0.9,
		"entities": {"orderNumbers": [], "amounts": [], "dates": [], "products": []}}`
	ts := newModelServer(t, output, &calls)
	svc := NewAnalyzerService(&config.AnalyzerConfig{
		APIKey:       "test-key",
		BaseURL:      ts.URL,
		Model:        "gpt-4o-mini",
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, nil, getLogger())

	// Act
	_, err := svc.Classify(context.Background(), dto.AnalyzeRequest{Subject: "s", Body: "b"})

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrAnalyzerInvalidResponse))
	assert.Equal(t, int32(1), calls.Load(), "schema-invalid output is rejected without another model call")
}

func TestClassify_RejectsMalformedJSON(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	ts := newModelServer(t, "I think this is a billing complaint.", &calls)
	svc := newAnalyzer(ts.URL, nil)

	// Act
	_, err := svc.Classify(context.Background(), dto.AnalyzeRequest{Subject: "s", Body: "b"})

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrAnalyzerInvalidResponse))
}

func TestClassify_AcceptsFencedJSON(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	ts := newModelServer(t, "```json\n"+validModelOutput+"\n```", &calls)
	svc := newAnalyzer(ts.URL, nil)

	// Act
	result, err := svc.Classify(context.Background(), dto.AnalyzeRequest{Subject: "s", Body: "b"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, enum.CategoryBilling, result.Category)
}

func TestClassify_CacheHitSkipsModelCall(t *testing.T) {
	// Arrange
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache := dedup.NewDedupService(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		fingerprint.NewFingerprintService(),
		&config.PipelineConfig{CacheTTL: time.Hour, SimilarityThreshold: 0.85},
	)

	var calls atomic.Int32
	ts := newModelServer(t, validModelOutput, &calls)
	svc := newAnalyzer(ts.URL, cache)

	request := dto.AnalyzeRequest{
		Subject:     "You charged me twice",
		Body:        "My card shows two charges.",
		ContentHash: "hash-cache-test",
	}

	// Act
	first, err := svc.Classify(context.Background(), request)
	require.NoError(t, err)
	second, err := svc.Classify(context.Background(), request)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second classification must come from cache")
}

func TestClassify_ServerErrorIsUnavailable(t *testing.T) {
	// Arrange
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	svc := newAnalyzer(ts.URL, nil)

	// Act
	_, err := svc.Classify(context.Background(), dto.AnalyzeRequest{Subject: "s", Body: "b"})

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrAnalyzerUnavailable))
}

func TestParseResponse_ConfidenceOutOfRange(t *testing.T) {
	// Act
	_, err := parseResponse(`{"category": "other", "priority": "low", "sentiment": "neutral", "confidence": 1.4,
		"entities": {"orderNumbers": [], "amounts": [], "dates": [], "products": []}}`)

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrAnalyzerInvalidResponse))
}
