package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/common"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicClient implements the Client interface for the Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key is required", common.ErrConfiguration)
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 400
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = anthropicEndpoint
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

const anthropicSystemPrompt = "You are a financial transaction classifier. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// Classify sends a single classification request to Anthropic.
func (c *anthropicClient) Classify(ctx context.Context, prompt string) (ClassificationResponse, error) {
	content, usage, err := c.complete(ctx, prompt, c.maxTokens)
	if err != nil {
		return ClassificationResponse{}, err
	}

	resp, err := parseClassification(content)
	if err != nil {
		return ClassificationResponse{}, err
	}
	resp.Usage = usage
	return resp, nil
}

// ClassifyBatch sends a chunk classification request to Anthropic.
func (c *anthropicClient) ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error) {
	content, usage, err := c.complete(ctx, prompt, c.maxTokens*10)
	if err != nil {
		return BatchResponse{}, err
	}

	resp, err := parseBatch(content)
	if err != nil {
		return BatchResponse{}, err
	}
	resp.Usage = usage
	return resp, nil
}

// complete performs one messages round trip.
func (c *anthropicClient) complete(ctx context.Context, prompt string, maxTokens int) (string, TokenUsage, error) {
	requestBody := map[string]any{
		"model":      c.model,
		"max_tokens": maxTokens,
		"system":     anthropicSystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", TokenUsage{}, common.NewRemoteServiceError("messages", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", TokenUsage{}, common.NewRemoteServiceError("messages", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", TokenUsage{}, common.NewRemoteServiceError("messages", resp.StatusCode,
			fmt.Errorf("Anthropic API error: %s", string(body)))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", TokenUsage{}, common.NewValidationError("malformed Anthropic response envelope", err)
	}

	if len(response.Content) == 0 {
		return "", TokenUsage{}, common.NewValidationError("no content blocks returned", nil)
	}

	usage := TokenUsage{
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}
	return response.Content[0].Text, usage, nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
