// Package gemini is a minimal client for the generateContent endpoint of the
// generative language API. It answers one question per call, without history.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/pkg/llm"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is not configured")

// Client sends questions to the generation API.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
	endpoint   string
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	endpoint := base.JoinPath("v1beta", "models", config.Model+":generateContent")

	return &Client{
		config:   config,
		logger:   logger,
		endpoint: endpoint.String(),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Generate sends question as a single user content and returns the text of
// the first candidate.
func (c *Client) Generate(ctx context.Context, question string) (string, error) {
	startTime := time.Now()

	reqBody, err := json.Marshal(llm.NewQuestionRequest(question, c.config.GenerationConfig))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("sending generation request",
		zap.String("model", c.config.Model),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", decodeAPIError(httpResp.StatusCode, body)
	}

	var resp llm.GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	text, err := resp.Text()
	if err != nil {
		return "", err
	}

	fields := []zap.Field{
		zap.String("model_version", resp.ModelVersion),
		zap.String("content_preview", truncate(text, 100)),
		zap.Duration("duration", time.Since(startTime)),
	}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int("candidate_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	c.logger.Debug("received generation response", fields...)

	return text, nil
}

func decodeAPIError(status int, body []byte) error {
	var envelope llm.APIErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = status
		return envelope.Error
	}

	return &llm.APIError{StatusCode: status, Message: truncate(string(body), 200)}
}

// truncate flattens s to one line of at most maxLen cells for log previews.
func truncate(s string, maxLen int) string {
	return ansi.Truncate(strings.ReplaceAll(s, "\n", " "), maxLen, "...")
}
