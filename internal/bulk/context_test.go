package bulk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// classifiedTxn is shaped like a storage history row: the classification
// join fills ClassificationConfidence, never the blended Confidence.
func classifiedTxn(id, merchant, category string, confidence float64) model.Transaction {
	return model.Transaction{
		ID:                       id,
		Date:                     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Description:              merchant,
		MerchantName:             merchant,
		Amount:                   -20,
		Type:                     model.TypeDebit,
		Category:                 category,
		ClassificationConfidence: confidence,
	}
}

func TestPrepareAnalysisContextSelectsTopExemplars(t *testing.T) {
	history := []model.Transaction{
		classifiedTxn("h1", "Safeway", "Groceries", 0.7),
		classifiedTxn("h2", "Netflix", "Entertainment", 0.95),
		classifiedTxn("h3", "Shell Oil", "Transportation", 0.85),
		classifiedTxn("h4", "Unclassified Corp", "", 0),
	}

	ctx := prepareAnalysisContext(makeTransactions(3), history, 2)

	require.Len(t, ctx.Exemplars, 2)
	assert.Equal(t, "h2", ctx.Exemplars[0].ID, "highest confidence first")
	assert.Equal(t, "h3", ctx.Exemplars[1].ID)
}

func TestPrepareAnalysisContextBatchMetadata(t *testing.T) {
	batch := []model.Transaction{
		{ID: "a", Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), Amount: -30},
		{ID: "b", Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Amount: -12.50},
		{ID: "c", Date: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Amount: 100},
	}

	ctx := prepareAnalysisContext(batch, nil, 10)

	assert.Equal(t, 3, ctx.Count)
	assert.InDelta(t, 57.50, ctx.TotalAmount, 1e-9)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), ctx.DateStart)
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), ctx.DateEnd)
	assert.Empty(t, ctx.Exemplars)
	assert.Empty(t, ctx.MerchantMappings)
}

func TestDeriveMerchantMappingsGroupsVariants(t *testing.T) {
	exemplars := []model.Transaction{
		classifiedTxn("e1", "STARBUCKS #123", "Dining", 0.9),
		classifiedTxn("e2", "starbucks  #123", "Dining", 0.9),
		classifiedTxn("e3", "AMAZON.COM", "Shopping", 0.9),
	}

	mappings := deriveMerchantMappings(exemplars)

	require.Len(t, mappings, 2)
	assert.Equal(t, "STARBUCKS #123", mappings[0].Standardized, "first spelling seen is canonical")
	assert.ElementsMatch(t, []string{"STARBUCKS #123", "starbucks  #123"}, mappings[0].Variants)
	assert.Equal(t, "Dining", mappings[0].Category)
	assert.Equal(t, "AMAZON.COM", mappings[1].Standardized)
}

func TestDeriveMerchantMappingsDominantCategory(t *testing.T) {
	exemplars := []model.Transaction{
		classifiedTxn("e1", "Costco", "Groceries", 0.9),
		classifiedTxn("e2", "Costco", "Groceries", 0.85),
		classifiedTxn("e3", "Costco", "Shopping", 0.8),
	}

	mappings := deriveMerchantMappings(exemplars)

	require.Len(t, mappings, 1)
	assert.Equal(t, "Groceries", mappings[0].Category)
}

func TestNormalizeMerchantFoldsCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, normalizeMerchant("SQ *Blue  Bottle"), normalizeMerchant("sq *blue bottle"))
	assert.NotEqual(t, normalizeMerchant("Shell"), normalizeMerchant("Shell Oil"))
}
