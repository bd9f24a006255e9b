// Package dedupe detects fuzzy duplicate transactions within a statement
// batch. The pairwise scan is O(n²) in transaction count, which is
// acceptable for statement-sized batches (hundreds to low thousands); for
// very large inputs set MaxCompareWindowDays to bound comparisons by date
// proximity.
package dedupe

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Settings tune duplicate detection. All values are mutable at runtime
// with immediate effect on subsequent calls.
type Settings struct {
	DateToleranceDays              int     `mapstructure:"date_tolerance_days"`
	AmountTolerancePercent         float64 `mapstructure:"amount_tolerance_percent"`
	DescriptionSimilarityThreshold float64 `mapstructure:"description_similarity_threshold"`
	PossibleMatchThreshold         float64 `mapstructure:"possible_match_threshold"`
	LikelyMatchThreshold           float64 `mapstructure:"likely_match_threshold"`
	ExactMatchThreshold            float64 `mapstructure:"exact_match_threshold"`
	AutoRemovalThreshold           float64 `mapstructure:"auto_removal_threshold"`
	MaxCompareWindowDays           int     `mapstructure:"max_compare_window_days"` // 0 = unbounded
	AutoRemovalEnabled             bool    `mapstructure:"auto_removal_enabled"`
}

// DefaultSettings returns the standard detection settings.
func DefaultSettings() Settings {
	return Settings{
		DateToleranceDays:              3,
		AmountTolerancePercent:         1.0,
		DescriptionSimilarityThreshold: 0.8,
		PossibleMatchThreshold:         0.7,
		LikelyMatchThreshold:           0.85,
		ExactMatchThreshold:            0.98,
		AutoRemovalThreshold:           0.99,
		AutoRemovalEnabled:             false,
	}
}

// Validate rejects settings outside their legal ranges.
func (s Settings) Validate() error {
	for name, v := range map[string]float64{
		"descriptionSimilarityThreshold": s.DescriptionSimilarityThreshold,
		"possibleMatchThreshold":         s.PossibleMatchThreshold,
		"likelyMatchThreshold":           s.LikelyMatchThreshold,
		"exactMatchThreshold":            s.ExactMatchThreshold,
		"autoRemovalThreshold":           s.AutoRemovalThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%.4f outside [0,1]", common.ErrConfiguration, name, v)
		}
	}
	if s.DateToleranceDays < 0 {
		return fmt.Errorf("%w: dateToleranceDays must be non-negative", common.ErrConfiguration)
	}
	if s.AmountTolerancePercent < 0 {
		return fmt.Errorf("%w: amountTolerancePercent must be non-negative", common.ErrConfiguration)
	}
	if s.PossibleMatchThreshold > s.LikelyMatchThreshold || s.LikelyMatchThreshold > s.ExactMatchThreshold {
		return fmt.Errorf("%w: match thresholds must be ordered possible <= likely <= exact", common.ErrConfiguration)
	}
	return nil
}

// Detector finds duplicate groups within a transaction list.
type Detector struct {
	logger   *slog.Logger
	settings Settings
	mu       sync.RWMutex
}

// NewDetector creates a detector with the given settings.
func NewDetector(settings Settings, logger *slog.Logger) (*Detector, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{settings: settings, logger: logger}, nil
}

// Settings returns the current detection settings.
func (d *Detector) Settings() Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

// UpdateSettings replaces the settings after validation.
func (d *Detector) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.settings = s
	d.mu.Unlock()
	return nil
}

// DetectDuplicates runs a single left-to-right pass with a processed set:
// each unprocessed transaction is compared only against subsequent
// still-unprocessed transactions, which guarantees disjoint groups and one
// comparison per pair.
func (d *Detector) DetectDuplicates(transactions []model.Transaction) model.DuplicateDetectionResult {
	settings := d.Settings()

	var groups []model.DuplicateGroup
	processed := make(map[int]bool, len(transactions))

	for i := 0; i < len(transactions); i++ {
		if processed[i] {
			continue
		}
		anchor := transactions[i]

		var members []model.Transaction
		var memberIdx []int

		for j := i + 1; j < len(transactions); j++ {
			if processed[j] {
				continue
			}
			candidate := transactions[j]

			if settings.MaxCompareWindowDays > 0 {
				days := math.Abs(anchor.Date.Sub(candidate.Date).Hours()) / 24
				if days > float64(settings.MaxCompareWindowDays) {
					continue
				}
			}

			if pairSimilarity(anchor, candidate, settings) >= settings.PossibleMatchThreshold {
				members = append(members, candidate)
				memberIdx = append(memberIdx, j)
			}
		}

		if len(members) == 0 {
			continue
		}

		group := append([]model.Transaction{anchor}, members...)
		processed[i] = true
		for _, j := range memberIdx {
			processed[j] = true
		}

		avg := averagePairwiseSimilarity(group, settings)
		groups = append(groups, model.DuplicateGroup{
			ID:              uuid.NewString(),
			Transactions:    group,
			SimilarityScore: avg,
			DuplicateType:   duplicateType(avg, settings),
			Reason:          matchReasons(group),
		})
	}

	result := model.DuplicateDetectionResult{
		DuplicateGroups: groups,
		Suggestions:     d.buildSuggestions(groups, settings),
	}
	for _, g := range groups {
		result.TotalDuplicates += len(g.Transactions) - 1
	}

	d.logger.Info("duplicate detection complete",
		"transactions", len(transactions),
		"groups", len(groups),
		"duplicates", result.TotalDuplicates)

	return result
}

// averagePairwiseSimilarity computes the mean similarity over every pair
// in the group. Group type derives from this average, not the anchor score.
func averagePairwiseSimilarity(group []model.Transaction, s Settings) float64 {
	var sum float64
	var pairs int
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			sum += pairSimilarity(group[i], group[j], s)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func duplicateType(avg float64, s Settings) model.DuplicateType {
	switch {
	case avg >= s.ExactMatchThreshold:
		return model.DuplicateExact
	case avg >= s.LikelyMatchThreshold:
		return model.DuplicateLikely
	default:
		return model.DuplicatePossible
	}
}

// matchReasons produces descriptive criteria strings. These describe the
// group to the reviewer; they do not feed back into the similarity score.
func matchReasons(group []model.Transaction) []string {
	var reasons []string
	anchor := group[0]

	sameAmount, sameDate, sameMerchant, sameRef := true, true, anchor.MerchantName != "", anchor.ReferenceNumber != ""
	similarDesc := false

	for _, t := range group[1:] {
		if math.Abs(t.Amount) != math.Abs(anchor.Amount) {
			sameAmount = false
		}
		if !t.Date.Equal(anchor.Date) {
			sameDate = false
		}
		if t.MerchantName != anchor.MerchantName {
			sameMerchant = false
		}
		if t.ReferenceNumber != anchor.ReferenceNumber {
			sameRef = false
		}
		if descriptionSimilarity(t.Description, anchor.Description) >= 0.8 {
			similarDesc = true
		}
	}

	if sameAmount {
		reasons = append(reasons, "identical amounts")
	}
	if sameDate {
		reasons = append(reasons, "same date")
	}
	if similarDesc {
		reasons = append(reasons, "similar descriptions")
	}
	if sameMerchant {
		reasons = append(reasons, "same merchant")
	}
	if sameRef {
		reasons = append(reasons, "same reference number")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "high overall similarity")
	}
	return reasons
}

// buildSuggestions recommends a resolution per group. Auto-removal
// requires an exact group above the auto-removal threshold and the feature
// enabled in settings.
func (d *Detector) buildSuggestions(groups []model.DuplicateGroup, s Settings) []model.DuplicateSuggestion {
	suggestions := make([]model.DuplicateSuggestion, 0, len(groups))
	for _, g := range groups {
		switch {
		case g.DuplicateType == model.DuplicateExact &&
			g.SimilarityScore >= s.AutoRemovalThreshold &&
			s.AutoRemovalEnabled:
			suggestions = append(suggestions, model.DuplicateSuggestion{
				GroupID:   g.ID,
				Action:    model.ResolveAutoRemove,
				Reasoning: fmt.Sprintf("Exact duplicates at %.0f%% similarity; safe to keep one and remove %d", g.SimilarityScore*100, len(g.Transactions)-1),
			})
		case g.DuplicateType == model.DuplicatePossible:
			suggestions = append(suggestions, model.DuplicateSuggestion{
				GroupID:   g.ID,
				Action:    model.ResolveFlagForReview,
				Reasoning: "Transactions are similar but not conclusively duplicates; review before removing",
			})
		default:
			suggestions = append(suggestions, model.DuplicateSuggestion{
				GroupID:   g.ID,
				Action:    model.ResolveFlagForReview,
				Reasoning: fmt.Sprintf("%s duplicates at %.0f%% similarity; confirm before removing", g.DuplicateType, g.SimilarityScore*100),
			})
		}
	}
	return suggestions
}
