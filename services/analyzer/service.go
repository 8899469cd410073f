package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
)

type analyzerService struct {
	cfg     *config.AnalyzerConfig
	client  *openai.Client
	dedup   interfaces.DedupService
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
}

func NewAnalyzerService(cfg *config.AnalyzerConfig, dedup interfaces.DedupService, log logger.Logger) interfaces.AnalyzerService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("analyzer circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	})

	return &analyzerService{
		cfg:     cfg,
		client:  openai.NewClientWithConfig(clientConfig),
		dedup:   dedup,
		breaker: breaker,
		log:     log,
	}
}

// Classify returns the validated classification for the complaint content,
// consulting the shared cache before spending a model call.
func (s *analyzerService) Classify(ctx context.Context, request dto.AnalyzeRequest) (*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AnalyzerService.Classify")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if request.ContentHash != "" && s.dedup != nil {
		cached, err := s.dedup.GetClassification(ctx, request.ContentHash)
		if err != nil {
			// Cache trouble never blocks classification.
			s.log.Warnf("classification cache lookup failed: %v", err)
		} else if cached != nil {
			span.LogKV("cache", "hit")
			return cached, nil
		}
	}

	result, err := s.classifyWithRetry(ctx, request)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if request.ContentHash != "" && s.dedup != nil {
		if err := s.dedup.PutClassification(ctx, request.ContentHash, result); err != nil {
			s.log.Warnf("classification cache store failed: %v", err)
		}
	}
	return result, nil
}

func (s *analyzerService) classifyWithRetry(ctx context.Context, request dto.AnalyzeRequest) (*models.ClassificationResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := s.callModel(ctx, request)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Only transport trouble is worth a retry. A schema-invalid reply
		// is rejected outright, and an open breaker will not close within
		// the retry window.
		if errors.Is(err, er.ErrAnalyzerInvalidResponse) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrap(er.ErrAnalyzerUnavailable, err.Error())
		}
		s.log.Warnf("analyzer attempt %d failed: %v", attempt+1, err)
	}

	return nil, errors.Wrap(er.ErrAnalyzerUnavailable, lastErr.Error())
}

func (s *analyzerService) callModel(ctx context.Context, request dto.AnalyzeRequest) (*models.ClassificationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Temperature: 0,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(request.Subject, request.Body, request.AttachmentTexts)},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	response := raw.(openai.ChatCompletionResponse)
	if len(response.Choices) == 0 {
		return nil, errors.Wrap(er.ErrAnalyzerInvalidResponse, "no choices in response")
	}

	return parseResponse(response.Choices[0].Message.Content)
}

// parseResponse decodes and validates the model output against the closed
// enum sets. Any value outside them rejects the whole response.
func parseResponse(content string) (*models.ClassificationResult, error) {
	content = strings.TrimSpace(content)
	// Tolerate a fenced code block around the JSON.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed dto.AnalyzerResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, errors.Wrap(er.ErrAnalyzerInvalidResponse, err.Error())
	}

	category, ok := enum.DecodeCategory(parsed.Category)
	if !ok {
		return nil, errors.Wrapf(er.ErrAnalyzerInvalidResponse, "unknown category %q", parsed.Category)
	}
	priority, ok := enum.DecodePriority(parsed.Priority)
	if !ok {
		return nil, errors.Wrapf(er.ErrAnalyzerInvalidResponse, "unknown priority %q", parsed.Priority)
	}
	sentiment, ok := enum.DecodeSentiment(parsed.Sentiment)
	if !ok {
		return nil, errors.Wrapf(er.ErrAnalyzerInvalidResponse, "unknown sentiment %q", parsed.Sentiment)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, errors.Wrapf(er.ErrAnalyzerInvalidResponse, "confidence %f out of range", parsed.Confidence)
	}

	result := &models.ClassificationResult{
		Category:   category,
		Priority:   priority,
		Sentiment:  sentiment,
		Confidence: parsed.Confidence,
	}
	for _, v := range parsed.Entities.OrderNumbers {
		result.Entities = append(result.Entities, models.Entity{Type: enum.EntityOrderNumber, Value: v})
	}
	for _, v := range parsed.Entities.Amounts {
		result.Entities = append(result.Entities, models.Entity{Type: enum.EntityAmount, Value: v})
	}
	for _, v := range parsed.Entities.Dates {
		result.Entities = append(result.Entities, models.Entity{Type: enum.EntityDate, Value: v})
	}
	for _, v := range parsed.Entities.Products {
		result.Entities = append(result.Entities, models.Entity{Type: enum.EntityProduct, Value: v})
	}
	return result, nil
}
