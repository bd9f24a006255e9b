package model

import "fmt"

// RecommendedAction is the engine's processing recommendation for a batch.
type RecommendedAction string

const (
	// ActionAutoExport means the batch can be exported without review.
	ActionAutoExport RecommendedAction = "auto-export"
	// ActionTargetedReview means only flagged items need review.
	ActionTargetedReview RecommendedAction = "targeted-review"
	// ActionFullReview means the whole batch needs human review.
	ActionFullReview RecommendedAction = "full-review"
)

// ConfidenceThresholds gate the processing recommendation. All values are
// in [0,1] and mutable at runtime.
type ConfidenceThresholds struct {
	AutoProcessing      float64 `json:"autoProcessing" mapstructure:"auto_processing"`
	TargetedReviewMin   float64 `json:"targetedReviewMin" mapstructure:"targeted_review_min"`
	TargetedReviewMax   float64 `json:"targetedReviewMax" mapstructure:"targeted_review_max"`
	FullReviewThreshold float64 `json:"fullReviewThreshold" mapstructure:"full_review_threshold"`
}

// DefaultThresholds returns the standard threshold set.
func DefaultThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{
		AutoProcessing:      0.85,
		TargetedReviewMin:   0.50,
		TargetedReviewMax:   0.75,
		FullReviewThreshold: 0.50,
	}
}

// Validate rejects thresholds outside [0,1] or ordered inconsistently.
func (t ConfidenceThresholds) Validate() error {
	for name, v := range map[string]float64{
		"autoProcessing":      t.AutoProcessing,
		"targetedReviewMin":   t.TargetedReviewMin,
		"targetedReviewMax":   t.TargetedReviewMax,
		"fullReviewThreshold": t.FullReviewThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %s=%.4f outside [0,1]", name, v)
		}
	}
	if t.TargetedReviewMin > t.TargetedReviewMax {
		return fmt.Errorf("targetedReviewMin %.2f exceeds targetedReviewMax %.2f",
			t.TargetedReviewMin, t.TargetedReviewMax)
	}
	if t.AutoProcessing < t.FullReviewThreshold {
		return fmt.Errorf("autoProcessing %.2f below fullReviewThreshold %.2f",
			t.AutoProcessing, t.FullReviewThreshold)
	}
	return nil
}

// UncertainItem flags one transaction or classification needing attention.
type UncertainItem struct {
	ID                   string   `json:"id"`
	Type                 string   `json:"type"` // extraction, classification, missing-field, account-info
	Description          string   `json:"description"`
	SuggestedAction      string   `json:"suggestedAction"`
	AffectedTransactions []string `json:"affectedTransactions,omitempty"`
	Confidence           float64  `json:"confidence"`
}

// ProcessingDecision is the aggregated recommendation for a transaction set.
type ProcessingDecision struct {
	RecommendedAction        RecommendedAction    `json:"recommendedAction"`
	Reasoning                string               `json:"reasoning"`
	RequiresReview           []UncertainItem      `json:"requiresReview"`
	Thresholds               ConfidenceThresholds `json:"thresholds"`
	OverallConfidence        float64              `json:"overallConfidence"`
	ExtractionConfidence     float64              `json:"extractionConfidence"`
	ClassificationConfidence float64              `json:"classificationConfidence"`
	CanAutoProcess           bool                 `json:"canAutoProcess"`
}
