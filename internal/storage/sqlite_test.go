package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func storedTxn(id string, date time.Time, amount float64) model.Transaction {
	txnType := model.TypeCredit
	if amount < 0 {
		txnType = model.TypeDebit
	}
	return model.Transaction{
		ID:                   id,
		Date:                 date,
		Description:          "STORE PURCHASE " + id,
		MerchantName:         "Store " + id,
		Amount:               amount,
		Type:                 txnType,
		ExtractionConfidence: 0.95,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndGetTransaction(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	txn := storedTxn("tx-1", date, -42.50)
	txn.Location = "Portland OR"
	txn.ReferenceNumber = "REF-9"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", got.ID)
	assert.Equal(t, txn.Description, got.Description)
	assert.Equal(t, "Store tx-1", got.MerchantName)
	assert.Equal(t, "Portland OR", got.Location)
	assert.Equal(t, "REF-9", got.ReferenceNumber)
	assert.InDelta(t, -42.50, got.Amount, 1e-9)
	assert.Equal(t, model.TypeDebit, got.Type)
	assert.InDelta(t, 0.95, got.ExtractionConfidence, 1e-9)
	assert.True(t, got.Date.Equal(date))
	assert.Empty(t, got.Category, "no classification yet")
}

func TestGetTransactionByIDNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetTransactionByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSaveTransactionsReplacesExisting(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	txn := storedTxn("tx-1", date, -10)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	txn.Description = "UPDATED DESCRIPTION"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "UPDATED DESCRIPTION", got.Description)
}

func TestSaveTransactionsRejectsEmptyBatch(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveTransactions(context.Background(), []model.Transaction{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptySlice))

	err = store.SaveTransactions(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNilParameter))
}

func TestGetTransactionsByDateRange(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txns := []model.Transaction{
		storedTxn("jan", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), -10),
		storedTxn("feb", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), -20),
		storedTxn("mar", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), -30),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	got, err := store.GetTransactionsByDateRange(ctx,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "feb", got[0].ID, "newest first")
	assert.Equal(t, "jan", got[1].ID)

	_, err = store.GetTransactionsByDateRange(ctx,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestRuleRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cond, err := model.NewRuleCondition(model.FieldMerchantName, model.OperatorContains, "starbucks")
	require.NoError(t, err)

	rule := model.Rule{
		ID:          "rule-1",
		Name:        "Starbucks is dining",
		Conditions:  []model.RuleCondition{cond},
		Action:      model.RuleAction{Type: model.ActionSetCategory, Value: "Dining"},
		Confidence:  0.95,
		CreatedDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	rules, err := store.GetRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "rule-1", rules[0].ID)
	assert.Equal(t, model.ActionSetCategory, rules[0].Action.Type)
	require.Len(t, rules[0].Conditions, 1)
	assert.Equal(t, model.FieldMerchantName, rules[0].Conditions[0].Field)
	assert.Equal(t, "starbucks", rules[0].Conditions[0].Value)

	got, err := store.GetRuleByID(ctx, "rule-1")
	require.NoError(t, err)
	assert.Equal(t, rule.Name, got.Name)

	require.NoError(t, store.DeleteRule(ctx, "rule-1"))

	err = store.DeleteRule(ctx, "rule-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSaveRuleRejectsInvalidRule(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveRule(context.Background(), model.Rule{ID: "bad"})
	require.Error(t, err)
}

func TestRulesOrderedByCreationDate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cond, err := model.NewRuleCondition(model.FieldDescription, model.OperatorContains, "x")
	require.NoError(t, err)

	for i, id := range []string{"newer", "older"} {
		rule := model.Rule{
			ID:          id,
			Name:        id,
			Conditions:  []model.RuleCondition{cond},
			Action:      model.RuleAction{Type: model.ActionSetCategory, Value: "Shopping"},
			Confidence:  0.9,
			CreatedDate: time.Date(2026, 3, 10-5*i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.SaveRule(ctx, rule))
	}

	rules, err := store.GetRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "older", rules[0].ID)
	assert.Equal(t, "newer", rules[1].ID)
}

func TestClassificationsJoinTransactions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		storedTxn("tx-1", date, -15),
		storedTxn("tx-2", date.AddDate(0, 0, 1), -25),
		storedTxn("tx-3", date.AddDate(0, 0, 2), -35),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	results := []model.ClassificationResult{
		{TransactionID: "tx-1", Category: "Dining", Subcategory: "Coffee Shops", Confidence: 0.7, Reasoning: []string{"coffee"}},
		{TransactionID: "tx-2", Category: "Groceries", Confidence: 0.95},
	}
	require.NoError(t, store.SaveClassifications(ctx, results))

	classified, err := store.GetClassifiedTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, classified, 2, "unclassified transactions excluded")
	assert.Equal(t, "tx-2", classified[0].ID, "most confident first")
	assert.Equal(t, "Groceries", classified[0].Category)
	assert.Equal(t, "tx-1", classified[1].ID)
	assert.Equal(t, "Coffee Shops", classified[1].Subcategory)
	assert.InDelta(t, 0.7, classified[1].ClassificationConfidence, 1e-9)

	require.NoError(t, store.MarkValidated(ctx, "tx-1"))
	got, err := store.GetTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.True(t, got.UserValidated)
}

func TestSaveClassificationReplacesEarlierResult(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := storedTxn("tx-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), -15)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	require.NoError(t, store.SaveClassification(ctx, model.ClassificationResult{
		TransactionID: "tx-1", Category: "Shopping", Confidence: 0.6,
	}))
	require.NoError(t, store.SaveClassification(ctx, model.ClassificationResult{
		TransactionID: "tx-1", Category: "Dining", Confidence: 0.9,
	}))

	got, err := store.GetTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Category)
}

func TestCategorySummary(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		storedTxn("tx-1", date, -10),
		storedTxn("tx-2", date.AddDate(0, 0, 1), -20),
		storedTxn("tx-3", date.AddDate(0, 0, 2), 500),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))
	require.NoError(t, store.SaveClassifications(ctx, []model.ClassificationResult{
		{TransactionID: "tx-1", Category: "Dining", Confidence: 0.9},
		{TransactionID: "tx-2", Category: "Dining", Confidence: 0.8},
		{TransactionID: "tx-3", Category: "Income", Confidence: 0.95},
	}))

	summary, err := store.CategorySummary(ctx, date, date.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Len(t, summary, 2)
	assert.InDelta(t, -30, summary["Dining"], 1e-9)
	assert.InDelta(t, 500, summary["Income"], 1e-9)
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.Error(t, err)
}
