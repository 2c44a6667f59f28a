package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/config"
)

// Client talks to the Gemini-style inference endpoint over HTTP in JSON mode.
// It deliberately performs no retries: a transport or service failure
// surfaces as ErrClassifierUnavailable and the calling layer owns retry
// policy.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	cfg        config.ClassifierConfig
}

var _ schemas.InferenceClient = (*Client)(nil)

// -- Inference API request/response structures (internal to this file) --

type generationContent struct {
	Parts []generationPart `json:"parts"`
	Role  string           `json:"role,omitempty"`
}

type generationPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
}

type generationRequest struct {
	Contents          []generationContent `json:"contents"`
	SystemInstruction *struct {
		Parts []generationPart `json:"parts"`
	} `json:"system_instruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationResponse struct {
	Candidates []struct {
		Content      generationContent `json:"content"`
		FinishReason string            `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewClient initializes the inference client.
func NewClient(cfg config.ClassifierConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key is required (KXS_CLASSIFIER_API_KEY)")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", cfg.Model)
	}

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  logger.Named("classifier"),
	}, nil
}

// Classify asks the service to analyze a single identifier and returns the
// raw, unvalidated response shape.
func (c *Client) Classify(ctx context.Context, identifier string) (schemas.RawClassification, error) {
	text, err := c.generate(ctx, classificationSystemPrompt, classificationUserPrompt(identifier))
	if err != nil {
		return schemas.RawClassification{}, err
	}

	raw, err := decodeFencedJSON[schemas.RawClassification](text)
	if err != nil {
		// A body with no recoverable JSON at all degrades to an availability
		// failure; the caller cannot coerce what it cannot parse.
		return schemas.RawClassification{}, fmt.Errorf("%w: %w: %v", schemas.ErrClassifierUnavailable, schemas.ErrMalformedResponse, err)
	}
	return *raw, nil
}

// GenerateReport asks the service for report prose for an analyzed entity.
func (c *Client) GenerateReport(ctx context.Context, req schemas.ReportRequest) (schemas.RawReport, error) {
	text, err := c.generate(ctx, reportSystemPrompt, reportUserPrompt(req))
	if err != nil {
		return schemas.RawReport{}, err
	}

	raw, err := decodeFencedJSON[schemas.RawReport](text)
	if err != nil {
		return schemas.RawReport{}, fmt.Errorf("%w: %w: %v", schemas.ErrClassifierUnavailable, schemas.ErrMalformedResponse, err)
	}
	return *raw, nil
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// generate performs one JSON-mode completion call. Exactly one attempt; any
// failure wraps ErrClassifierUnavailable.
func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter interrupted: %v", schemas.ErrClassifierUnavailable, err)
	}

	payload := generationRequest{
		Contents: []generationContent{
			{
				Role:  "user",
				Parts: []generationPart{{Text: userPrompt}},
			},
		},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			ResponseMimeType: "application/json",
			MaxOutputTokens:  c.cfg.MaxTokens,
		},
	}
	payload.SystemInstruction = &struct {
		Parts []generationPart `json:"parts"`
	}{Parts: []generationPart{{Text: systemPrompt}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", schemas.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", schemas.ErrClassifierUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Inference API returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody))
		return "", fmt.Errorf("%w: status %d", schemas.ErrClassifierUnavailable, resp.StatusCode)
	}

	var responsePayload generationResponse
	if err := json.Unmarshal(respBody, &responsePayload); err != nil {
		return "", fmt.Errorf("%w: failed to decode response payload: %v", schemas.ErrClassifierUnavailable, err)
	}

	if len(responsePayload.Candidates) == 0 {
		return "", fmt.Errorf("%w: API returned no candidates", schemas.ErrClassifierUnavailable)
	}
	candidate := responsePayload.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: API returned empty content parts (reason: %s)", schemas.ErrClassifierUnavailable, candidate.FinishReason)
	}

	c.logger.Debug("Inference call complete",
		zap.Int("prompt_tokens", responsePayload.UsageMetadata.PromptTokenCount),
		zap.Int("completion_tokens", responsePayload.UsageMetadata.CandidatesTokenCount),
		zap.Int("total_tokens", responsePayload.UsageMetadata.TotalTokenCount),
	)

	return candidate.Content.Parts[0].Text, nil
}
