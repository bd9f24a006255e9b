package dedupe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

func txn(id string, date time.Time, description string, amount float64) model.Transaction {
	txnType := model.TypeCredit
	if amount < 0 {
		txnType = model.TypeDebit
	}
	return model.Transaction{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txnType,
	}
}

func TestDetectExactDuplicates(t *testing.T) {
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	result := d.DetectDuplicates([]model.Transaction{
		txn("a", date, "STARBUCKS STORE #1234", -25.50),
		txn("b", date, "STARBUCKS STORE #1234", -25.50),
		txn("c", date, "WHOLE FOODS MARKET", -104.22),
	})

	require.Len(t, result.DuplicateGroups, 1)
	group := result.DuplicateGroups[0]
	assert.Equal(t, model.DuplicateExact, group.DuplicateType)
	assert.Len(t, group.Transactions, 2)
	assert.GreaterOrEqual(t, group.SimilarityScore, 0.98)
	assert.Contains(t, group.Reason, "identical amounts")
	assert.Contains(t, group.Reason, "same date")
	assert.Equal(t, 1, result.TotalDuplicates)
}

func TestRecurringChargeGradesAsPossibleOnly(t *testing.T) {
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)

	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	result := d.DetectDuplicates([]model.Transaction{
		txn("a", date, "NETFLIX.COM", -15.49),
		txn("b", date.AddDate(0, 2, 0), "NETFLIX.COM", -15.49),
	})

	// A monthly subscription two months apart looks identical except for
	// the date, which contributes zero. It may surface as a possible
	// match but never as likely or exact, and never as auto-removable.
	require.Len(t, result.DuplicateGroups, 1)
	assert.Equal(t, model.DuplicatePossible, result.DuplicateGroups[0].DuplicateType)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, model.ResolveFlagForReview, result.Suggestions[0].Action)
}

func TestUnrelatedTransactionsDoNotGroup(t *testing.T) {
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)

	// Two months apart, amounts differing well past every proximity band,
	// no word overlap: the weighted score stays far below the grouping
	// threshold with no windowing involved.
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	result := d.DetectDuplicates([]model.Transaction{
		txn("a", date, "STARBUCKS STORE #1234", -25.50),
		txn("b", date.AddDate(0, 0, 60), "CITY OF PORTLAND WATER BILL", -118.00),
	})

	assert.Empty(t, result.DuplicateGroups)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, 0, result.TotalDuplicates)
}

func TestGroupsAreDisjoint(t *testing.T) {
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	var batch []model.Transaction
	for i := 0; i < 4; i++ {
		batch = append(batch, txn(fmt.Sprintf("dup-%d", i), date, "UBER TRIP 73HXK", -18.40))
	}
	batch = append(batch, txn("other", date, "WHOLE FOODS MARKET", -104.22))

	result := d.DetectDuplicates(batch)

	require.Len(t, result.DuplicateGroups, 1, "all four duplicates belong to one group")
	assert.Len(t, result.DuplicateGroups[0].Transactions, 4)

	seen := make(map[string]int)
	for _, g := range result.DuplicateGroups {
		for _, tx := range g.Transactions {
			seen[tx.ID]++
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "transaction %s appears in multiple groups", id)
	}
}

func TestLikelyDuplicatesNearbyDates(t *testing.T) {
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	result := d.DetectDuplicates([]model.Transaction{
		txn("a", date, "SHELL OIL 5744 HOUSTON", -45.00),
		txn("b", date.AddDate(0, 0, 5), "SHELL OIL 5744 HOUSTON", -45.00),
	})

	require.Len(t, result.DuplicateGroups, 1)
	// Date five days off caps the score below exact.
	assert.Equal(t, model.DuplicateLikely, result.DuplicateGroups[0].DuplicateType)
}

func TestAutoRemovalGating(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	batch := []model.Transaction{
		txn("a", date, "STARBUCKS STORE #1234", -25.50),
		txn("b", date, "STARBUCKS STORE #1234", -25.50),
	}

	// Disabled by default: even perfect duplicates get flagged for review.
	d, err := NewDetector(DefaultSettings(), nil)
	require.NoError(t, err)
	result := d.DetectDuplicates(batch)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, model.ResolveFlagForReview, result.Suggestions[0].Action)

	enabled := DefaultSettings()
	enabled.AutoRemovalEnabled = true
	require.NoError(t, d.UpdateSettings(enabled))

	result = d.DetectDuplicates(batch)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, model.ResolveAutoRemove, result.Suggestions[0].Action)
}

func TestSettingsValidation(t *testing.T) {
	bad := DefaultSettings()
	bad.LikelyMatchThreshold = 0.5 // below possible threshold
	_, err := NewDetector(bad, nil)
	assert.Error(t, err)

	outOfRange := DefaultSettings()
	outOfRange.ExactMatchThreshold = 1.5
	_, err = NewDetector(outOfRange, nil)
	assert.Error(t, err)
}

func TestCompareWindowSkipsDistantPairs(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxCompareWindowDays = 7
	d, err := NewDetector(settings, nil)
	require.NoError(t, err)

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result := d.DetectDuplicates([]model.Transaction{
		txn("a", date, "GYM MEMBERSHIP DUES", -50.00),
		txn("b", date.AddDate(0, 0, 30), "GYM MEMBERSHIP DUES", -50.00),
	})
	assert.Empty(t, result.DuplicateGroups)
}
