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

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrConfiguration)
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
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
		endpoint = openAIEndpoint
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &openAIClient{
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

const openAISystemPrompt = "You are a financial transaction classifier. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// Classify sends a single classification request to OpenAI.
func (c *openAIClient) Classify(ctx context.Context, prompt string) (ClassificationResponse, error) {
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

// ClassifyBatch sends a chunk classification request to OpenAI.
func (c *openAIClient) ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error) {
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

// complete performs one chat completion round trip.
func (c *openAIClient) complete(ctx context.Context, prompt string, maxTokens int) (string, TokenUsage, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": openAISystemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", TokenUsage{}, common.NewRemoteServiceError("completion", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", TokenUsage{}, common.NewRemoteServiceError("completion", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", TokenUsage{}, common.NewRemoteServiceError("completion", resp.StatusCode,
			fmt.Errorf("OpenAI API error: %s", string(body)))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", TokenUsage{}, common.NewValidationError("malformed OpenAI response envelope", err)
	}

	if len(response.Choices) == 0 {
		return "", TokenUsage{}, common.NewValidationError("no completion choices returned", nil)
	}

	usage := TokenUsage{
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}
	return response.Choices[0].Message.Content, usage, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
