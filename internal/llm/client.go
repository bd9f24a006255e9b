// Package llm provides clients for remote AI classification services.
//
// All providers implement the Client interface and speak the same wire
// contract: a rendered prompt in, a JSON object out. Single classification
// responses are {category, subcategory?, confidence, reasoning[]}; bulk
// responses are {classifications: [...], detected_patterns?: [...],
// merchant_mappings?: [...]}. Any shape deviation is a validation error.
package llm

import (
	"context"
)

// Client defines the interface for remote classifier providers.
type Client interface {
	// Classify classifies a single transaction from a rendered prompt.
	Classify(ctx context.Context, prompt string) (ClassificationResponse, error)
	// ClassifyBatch classifies a chunk of transactions in one call.
	ClassifyBatch(ctx context.Context, prompt string) (BatchResponse, error)
}

// TokenUsage reports tokens consumed by one remote call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns combined input and output tokens.
func (u TokenUsage) Total() int { return u.InputTokens + u.OutputTokens }

// ClassificationResponse contains a single-transaction classification.
type ClassificationResponse struct {
	Category    string
	Subcategory string
	Reasoning   []string
	Confidence  float64
	Usage       TokenUsage
}

// BatchClassification is one entry in a bulk classification response.
type BatchClassification struct {
	TransactionID string   `json:"transaction_id"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Reasoning     []string `json:"reasoning,omitempty"`
	Confidence    float64  `json:"confidence"`
}

// BatchDetectedPattern is a recurring structure reported by the model.
type BatchDetectedPattern struct {
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// BatchMerchantMapping standardizes merchant name variants reported by the model.
type BatchMerchantMapping struct {
	Variants     []string `json:"variants"`
	Standardized string   `json:"standardized"`
	Category     string   `json:"category,omitempty"`
}

// BatchResponse contains a bulk classification result for one chunk.
type BatchResponse struct {
	Classifications  []BatchClassification  `json:"classifications"`
	DetectedPatterns []BatchDetectedPattern `json:"detected_patterns,omitempty"`
	MerchantMappings []BatchMerchantMapping `json:"merchant_mappings,omitempty"`
	Usage            TokenUsage             `json:"-"`
}
