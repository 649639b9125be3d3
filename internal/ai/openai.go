package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/arcticMV/frf-event-hub-sub000/internal/config"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
)

// Default values for the OpenAI analyzer.
const (
	defaultModel      = "gpt-4o-mini"
	defaultMaxTokens  = 512
	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = 2 * time.Second
)

// OpenAIAnalyzer implements Analyzer using the OpenAI Chat Completions API.
type OpenAIAnalyzer struct {
	client      *openai.Client
	model       string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
	limiter     *rate.Limiter
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewOpenAIAnalyzer creates a new OpenAI risk assessment analyzer.
//
// The analyzer uses the Chat Completions API with JSON response format for
// structured assessment output. Requests are rate limited client-side and
// transient API errors are retried with linear backoff. metrics may be nil.
func NewOpenAIAnalyzer(cfg config.AIConfig, metrics *observability.Metrics, logger zerolog.Logger) *OpenAIAnalyzer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OpenAIAnalyzer{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		metrics:     metrics,
		logger:      logger.With().Str("component", "ai_analyzer").Str("model", model).Logger(),
	}
}

// Model returns the model identifier being used.
func (a *OpenAIAnalyzer) Model() string {
	return a.model
}

// Assess produces a risk assessment for the given event using the OpenAI API.
//
// It builds the assessment prompt, waits for a rate limiter slot, and sends a
// request with JSON response format. Transient errors (5xx, 429, network) are
// retried up to maxRetries times with linear backoff.
func (a *OpenAIAnalyzer) Assess(ctx context.Context, event *domain.Event) (*domain.RiskAssessment, error) {
	if event == nil {
		return nil, domain.NewValidationError("event", "event is required")
	}

	systemPrompt, userPrompt := BuildAssessmentPrompt(event)

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: float32(a.temperature),
		MaxTokens:   defaultMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.retryDelay * time.Duration(attempt)
			a.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("delay", delay).
				Str("event_id", event.ID.String()).
				Msg("retrying risk assessment")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("openai: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		assessment, err := a.doRequest(ctx, event, req)
		if err == nil {
			return assessment, nil
		}

		// Only retry on transient errors (5xx, 429, network).
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsTransient() {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("openai: exhausted %d retries: %w", a.maxRetries, lastErr)
}

// doRequest performs a single rate-limited API request and parses the result.
func (a *OpenAIAnalyzer) doRequest(ctx context.Context, event *domain.Event, req openai.ChatCompletionRequest) (*domain.RiskAssessment, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai: rate limiter wait: %w", err)
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		apiErr := classifyError(err)
		if a.metrics != nil {
			a.metrics.RecordAIRequestFailed(a.model, errorLabel(apiErr))
		}
		return nil, apiErr
	}

	if a.metrics != nil {
		a.metrics.RecordAIRequest(a.model, duration.Seconds(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	assessment, err := parseAssessmentResponse(event, a.model, resp.Choices[0].Message.Content)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordAIRequestFailed(a.model, "parse")
		}
		return nil, fmt.Errorf("openai: %w", err)
	}

	a.logger.Debug().
		Str("event_id", event.ID.String()).
		Str("severity", string(assessment.Severity)).
		Int("score", assessment.Score).
		Dur("duration", duration).
		Msg("risk assessment completed")

	return assessment, nil
}
