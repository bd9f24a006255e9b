package model

import "time"

// DetectedPattern is a recurring structure the bulk classifier noticed
// across a transaction set.
type DetectedPattern struct {
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	TransactionIDs []string `json:"transactionIds"`
	Confidence     float64  `json:"confidence"`
}

// MerchantMapping standardizes merchant name variants discovered during
// bulk analysis.
type MerchantMapping struct {
	Variants     []string `json:"variants"`
	Standardized string   `json:"standardized"`
	Category     string   `json:"category,omitempty"`
}

// ProcessingStats summarizes one bulk classification run.
type ProcessingStats struct {
	ProcessingTime time.Duration `json:"processingTime"`
	TotalProcessed int           `json:"totalProcessed"`
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	TokensUsed     int           `json:"tokensUsed"`
	Cost           float64       `json:"cost"`
}

// BulkAnalysisResult is the consolidated output of a bulk run. It contains
// exactly one processed entry per input transaction.
type BulkAnalysisResult struct {
	ProcessedTransactions []ClassificationResult `json:"processedTransactions"`
	DetectedPatterns      []DetectedPattern      `json:"detectedPatterns"`
	MerchantMappings      []MerchantMapping      `json:"merchantMappings"`
	ConfidenceByCategory  map[string]float64     `json:"confidenceByCategory"`
	OverallConfidence     float64                `json:"overallConfidence"`
	ProcessingStats       ProcessingStats        `json:"processingStats"`
}
