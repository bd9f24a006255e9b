// Package confidence aggregates per-transaction scores into a single
// processing recommendation for a batch.
package confidence

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Extraction weighs higher than classification: extraction errors corrupt
// the underlying data and are costlier to repair downstream.
const (
	extractionWeight     = 0.6
	classificationWeight = 0.4

	// Account metadata sections without a reported confidence get this
	// default; structured header fields extract reliably.
	defaultAccountInfoConfidence = 0.8
)

// AccountInfo carries extraction metadata for the statement's account
// header section, when present.
type AccountInfo struct {
	AccountNumber string
	BankName      string
	Confidence    float64 // 0 means not reported
}

// Input is everything the engine evaluates for one batch.
type Input struct {
	AccountInfo     *AccountInfo
	Transactions    []model.Transaction
	Classifications []model.ClassificationResult
}

// Engine turns batch confidence data into a ProcessingDecision. Thresholds
// are mutable at runtime with immediate effect on subsequent calls.
type Engine struct {
	logger     *slog.Logger
	thresholds model.ConfidenceThresholds
	mu         sync.RWMutex
}

// NewEngine creates an engine with default thresholds.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{thresholds: model.DefaultThresholds(), logger: logger}
}

// Thresholds returns the current threshold set.
func (e *Engine) Thresholds() model.ConfidenceThresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.thresholds
}

// SetThresholds replaces the threshold set after validation.
func (e *Engine) SetThresholds(t model.ConfidenceThresholds) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	e.mu.Lock()
	e.thresholds = t
	e.mu.Unlock()
	return nil
}

// EvaluateProcessingReadiness aggregates extraction and classification
// confidence and recommends how the batch should be processed.
func (e *Engine) EvaluateProcessingReadiness(input Input) model.ProcessingDecision {
	thresholds := e.Thresholds()

	extraction := e.aggregateExtraction(input)
	classification := aggregateClassification(input.Classifications)
	overall := extractionWeight*extraction + classificationWeight*classification

	uncertain := e.identifyUncertainItems(input, thresholds)
	action := determineRecommendedAction(extraction, classification, overall, thresholds)

	decision := model.ProcessingDecision{
		CanAutoProcess:           action == model.ActionAutoExport,
		RequiresReview:           uncertain,
		RecommendedAction:        action,
		Reasoning:                buildReasoning(action, extraction, classification, overall, uncertain),
		OverallConfidence:        overall,
		ExtractionConfidence:     extraction,
		ClassificationConfidence: classification,
		Thresholds:               thresholds,
	}

	e.logger.Info("processing readiness evaluated",
		"action", action,
		"overall", overall,
		"extraction", extraction,
		"classification", classification,
		"uncertain_items", len(uncertain))

	return decision
}

// aggregateExtraction is the arithmetic mean over per-item extraction
// confidences, including the account-info section when present.
func (e *Engine) aggregateExtraction(input Input) float64 {
	var sum float64
	var count int

	for _, txn := range input.Transactions {
		sum += txn.ExtractionConfidence
		count++
	}
	if input.AccountInfo != nil {
		c := input.AccountInfo.Confidence
		if c == 0 {
			c = defaultAccountInfoConfidence
		}
		sum += c
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func aggregateClassification(results []model.ClassificationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / float64(len(results))
}

// identifyUncertainItems flags transactions and classifications that need
// human attention regardless of the batch-level recommendation.
func (e *Engine) identifyUncertainItems(input Input, t model.ConfidenceThresholds) []model.UncertainItem {
	var items []model.UncertainItem

	for _, txn := range input.Transactions {
		if txn.ExtractionConfidence < t.FullReviewThreshold {
			items = append(items, model.UncertainItem{
				ID:              txn.ID,
				Type:            "extraction",
				Description:     fmt.Sprintf("Low extraction confidence for %q", txn.Description),
				Confidence:      txn.ExtractionConfidence,
				SuggestedAction: "Verify extracted fields against the source statement",
			})
		}
		if txn.Date.IsZero() || txn.Amount == 0 {
			var missing []string
			if txn.Date.IsZero() {
				missing = append(missing, "date")
			}
			if txn.Amount == 0 {
				missing = append(missing, "amount")
			}
			items = append(items, model.UncertainItem{
				ID:              txn.ID,
				Type:            "missing-field",
				Description:     fmt.Sprintf("Transaction missing %s", strings.Join(missing, " and ")),
				Confidence:      txn.ExtractionConfidence,
				SuggestedAction: "Fill in the missing fields manually",
			})
		}
	}

	for _, r := range input.Classifications {
		if r.Confidence < t.TargetedReviewMax {
			items = append(items, model.UncertainItem{
				ID:                   r.TransactionID,
				Type:                 "classification",
				Description:          fmt.Sprintf("Uncertain category %q", r.Category),
				Confidence:           r.Confidence,
				SuggestedAction:      "Confirm or correct the category",
				AffectedTransactions: []string{r.TransactionID},
			})
		}
	}

	if input.AccountInfo != nil && input.AccountInfo.Confidence > 0 &&
		input.AccountInfo.Confidence < t.TargetedReviewMax {
		items = append(items, model.UncertainItem{
			ID:              "account-info",
			Type:            "account-info",
			Description:     "Account information extracted with low confidence",
			Confidence:      input.AccountInfo.Confidence,
			SuggestedAction: "Verify account number and bank name",
		})
	}

	return items
}

// determineRecommendedAction applies the thresholds in a fixed order: the
// auto-export check runs first, then full-review, then targeted-review.
func determineRecommendedAction(extraction, classification, overall float64, t model.ConfidenceThresholds) model.RecommendedAction {
	if extraction >= t.AutoProcessing &&
		classification >= t.AutoProcessing &&
		overall >= t.AutoProcessing {
		return model.ActionAutoExport
	}
	if extraction < t.FullReviewThreshold || overall < t.FullReviewThreshold {
		return model.ActionFullReview
	}
	return model.ActionTargetedReview
}

// buildReasoning renders a human-readable summary naming up to the first
// three uncertain items.
func buildReasoning(action model.RecommendedAction, extraction, classification, overall float64, uncertain []model.UncertainItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall confidence %.0f%% (extraction %.0f%%, classification %.0f%%). ",
		overall*100, extraction*100, classification*100)

	switch action {
	case model.ActionAutoExport:
		b.WriteString("All confidence scores clear the auto-processing threshold; the batch can be exported without review.")
	case model.ActionFullReview:
		b.WriteString("Confidence is below the full-review threshold; the whole batch needs human review.")
	default:
		b.WriteString("Confidence is acceptable overall but some items need targeted review.")
	}

	if len(uncertain) > 0 {
		named := uncertain
		if len(named) > 3 {
			named = named[:3]
		}
		parts := make([]string, len(named))
		for i, item := range named {
			parts[i] = fmt.Sprintf("%s (%.0f%%)", item.ID, item.Confidence*100)
		}
		fmt.Fprintf(&b, " %d item(s) flagged", len(uncertain))
		b.WriteString(": " + strings.Join(parts, ", "))
		if len(uncertain) > 3 {
			fmt.Fprintf(&b, ", and %d more", len(uncertain)-3)
		}
		b.WriteString(".")
	}

	return b.String()
}
