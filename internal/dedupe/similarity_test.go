package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

func TestDateProximityBands(t *testing.T) {
	base := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		days int
		want float64
	}{
		{"same day", 0, 1.0},
		{"within tolerance", 2, 0.9},
		{"within a week", 6, 0.6},
		{"within a month", 20, 0.2},
		{"two months apart", 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.AddDate(0, 0, tt.days)
			assert.InDelta(t, tt.want, dateProximity(base, other, 3), 1e-9)
		})
	}
}

func TestAmountProximityBands(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"identical", -25.50, -25.50, 1.0},
		{"identical magnitude opposite sign", -25.50, 25.50, 1.0},
		{"within tolerance percent", -100.00, -100.50, 0.95},
		{"within five percent", -100.00, -104.00, 0.8},
		{"within ten percent", -100.00, -108.00, 0.6},
		{"within twenty percent", -100.00, -115.00, 0.3},
		{"far apart", -100.00, -200.00, 0},
		{"both zero", 0, 0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, amountProximity(tt.a, tt.b, 1.0), 1e-9)
		})
	}
}

func TestDescriptionSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, descriptionSimilarity("STARBUCKS  #1234", "starbucks #1234"), 1e-9)
	assert.InDelta(t, 0, descriptionSimilarity("", "anything"), 1e-9)

	// One character changed out of 15: Levenshtein keeps this high even
	// though the word sets differ.
	high := descriptionSimilarity("STARBUCKS #1234", "STARBUCKS #1235")
	assert.Greater(t, high, 0.9)

	// Same words reordered: Jaccard keeps this high even though the edit
	// distance is large.
	reordered := descriptionSimilarity("PAYMENT RECEIVED ACME CORP", "ACME CORP PAYMENT RECEIVED")
	assert.InDelta(t, 1.0, reordered, 1e-9)

	low := descriptionSimilarity("WHOLE FOODS MARKET", "SHELL OIL 5744")
	assert.Less(t, low, 0.5)
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestJaccardIgnoresShortWords(t *testing.T) {
	// "of" and "at" are too short to count toward the word sets.
	sim := jaccardSimilarity("payment of rent", "payment at rent")
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestPairSimilarityExactDuplicate(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	a := model.Transaction{ID: "a", Date: date, Description: "STARBUCKS STORE #1234", Amount: -25.50, Type: model.TypeDebit}
	b := model.Transaction{ID: "b", Date: date, Description: "STARBUCKS STORE #1234", Amount: -25.50, Type: model.TypeDebit}

	assert.InDelta(t, 1.0, pairSimilarity(a, b, DefaultSettings()), 1e-9)
}
