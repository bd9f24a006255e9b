package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/internal/cascade"
	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func testClassifier(t *testing.T, client llm.Client, opts Options) *Classifier {
	t.Helper()
	casc, err := cascade.New(cascade.Options{})
	require.NoError(t, err)
	c, err := NewClassifier(client, casc, model.DefaultTaxonomy(), opts, nil, nil)
	require.NoError(t, err)
	return c
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.InterChunkDelay = 0
	opts.RetryAttempts = 1
	return opts
}

func batchFor(txns []model.Transaction, category string, confidence float64) llm.BatchResponse {
	resp := llm.BatchResponse{Usage: llm.TokenUsage{InputTokens: 900, OutputTokens: 100}}
	for _, txn := range txns {
		resp.Classifications = append(resp.Classifications, llm.BatchClassification{
			TransactionID: txn.ID,
			Category:      category,
			Confidence:    confidence,
			Reasoning:     []string{"looks like " + category},
		})
	}
	return resp
}

func TestClassifyAllSingleChunk(t *testing.T) {
	txns := makeTransactions(5)
	client := llm.NewMockClient()
	client.QueueBatchResponse(batchFor(txns, "Shopping", 0.9))

	classifier := testClassifier(t, client, fastOptions())

	var stages []Stage
	result, err := classifier.ClassifyAll(context.Background(), txns, nil, func(p Progress) {
		stages = append(stages, p.Stage)
	})
	require.NoError(t, err)

	require.Len(t, result.ProcessedTransactions, 5)
	for i, r := range result.ProcessedTransactions {
		assert.Equal(t, txns[i].ID, r.TransactionID, "results follow input order")
		assert.Equal(t, "Shopping", r.Category)
		assert.Contains(t, r.Reasoning[0], "bulk")
	}

	assert.Equal(t, 5, result.ProcessingStats.TotalProcessed)
	assert.Equal(t, 5, result.ProcessingStats.Successful)
	assert.Equal(t, 0, result.ProcessingStats.Failed)
	assert.Equal(t, 1000, result.ProcessingStats.TokensUsed)
	assert.Greater(t, result.ProcessingStats.Cost, 0.0)
	assert.InDelta(t, 0.9, result.OverallConfidence, 1e-9)
	assert.InDelta(t, 0.9, result.ConfidenceByCategory["Shopping"], 1e-9)

	require.NotEmpty(t, stages)
	assert.Equal(t, StagePreparing, stages[0])
	assert.Equal(t, StageAnalyzing, stages[1])
	assert.Contains(t, stages, StageProcessing)
	assert.Equal(t, StageCompleted, stages[len(stages)-1])
}

func TestStoredHistoryFeedsExemplarsIntoPrompt(t *testing.T) {
	txns := makeTransactions(2)
	client := llm.NewMockClient()
	client.QueueBatchResponse(batchFor(txns, "Shopping", 0.9))

	// History rows come from the storage join, which fills
	// ClassificationConfidence and leaves the blended Confidence zero.
	history := []model.Transaction{
		{
			ID:                       "hist-1",
			Date:                     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Description:              "NETFLIX.COM",
			MerchantName:             "Netflix",
			Amount:                   -15.49,
			Type:                     model.TypeDebit,
			Category:                 "Entertainment",
			ClassificationConfidence: 0.95,
		},
	}

	classifier := testClassifier(t, client, fastOptions())
	_, err := classifier.ClassifyAll(context.Background(), txns, history, nil)
	require.NoError(t, err)

	require.Len(t, client.ClassifyBatchCalls, 1)
	prompt := client.ClassifyBatchCalls[0]
	assert.Contains(t, prompt, "NETFLIX.COM", "exemplar reaches the chunk prompt")
	assert.Contains(t, prompt, "Entertainment")
	assert.Contains(t, prompt, "Netflix", "derived merchant mapping reaches the chunk prompt")
}

func TestFailedChunkRepairsThroughCascade(t *testing.T) {
	txns := makeTransactions(4)
	client := llm.NewMockClient()
	client.QueueError(errors.New("model overloaded"))

	classifier := testClassifier(t, client, fastOptions())

	result, err := classifier.ClassifyAll(context.Background(), txns, nil, nil)
	require.NoError(t, err, "chunk failures must not fail the run")

	require.Len(t, result.ProcessedTransactions, 4, "no transaction is dropped")
	for _, r := range result.ProcessedTransactions {
		assert.NotEmpty(t, r.Category)
		assert.Contains(t, r.Reasoning[len(r.Reasoning)-1], "Bulk classification unavailable")
	}
	assert.Equal(t, 4, result.ProcessingStats.Failed)
	assert.Equal(t, 0, result.ProcessingStats.Successful)
}

func TestInvalidResponseRetriesThenFallsBack(t *testing.T) {
	txns := makeTransactions(3)
	client := llm.NewMockClient()
	// Covers a foreign ID: fails validation on both attempts.
	bad := batchFor(txns, "Shopping", 0.9)
	bad.Classifications[0].TransactionID = "not-ours"
	client.QueueBatchResponse(bad)
	client.QueueBatchResponse(bad)

	opts := fastOptions()
	opts.RetryAttempts = 2
	classifier := testClassifier(t, client, opts)

	result, err := classifier.ClassifyAll(context.Background(), txns, nil, nil)
	require.NoError(t, err)

	assert.Len(t, client.ClassifyBatchCalls, 2, "invalid responses are retried")
	assert.Equal(t, 3, result.ProcessingStats.Failed)
	require.Len(t, result.ProcessedTransactions, 3)
}

func TestNilClientClassifiesEverythingLocally(t *testing.T) {
	txns := makeTransactions(3)
	classifier := testClassifier(t, nil, fastOptions())

	result, err := classifier.ClassifyAll(context.Background(), txns, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.ProcessedTransactions, 3)
	assert.Equal(t, 3, result.ProcessingStats.Failed)
	assert.Zero(t, result.ProcessingStats.TokensUsed)
}

func TestMerchantMappingsApplyAcrossChunks(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mkTxn := func(id string, daysAgo int) model.Transaction {
		return model.Transaction{
			ID:           id,
			Date:         base.AddDate(0, 0, -daysAgo),
			Description:  "SQ *BLUE BOTTLE " + id,
			MerchantName: "SQ *BLUE BOTTLE",
			Amount:       -6.50,
			Type:         model.TypeDebit,
		}
	}
	// Newest-first chunking puts a,b in chunk one and c,d in chunk two.
	a, b, c, d := mkTxn("a", 0), mkTxn("b", 1), mkTxn("c", 2), mkTxn("d", 3)

	opts := fastOptions()
	opts.TokenBudget = 240
	opts.ContextOverheadTokens = 0
	opts.PerTransactionTokens = 120 // 2 per chunk

	first := batchFor([]model.Transaction{a, b}, "Dining", 0.95)
	first.MerchantMappings = []llm.BatchMerchantMapping{{
		Variants:     []string{"SQ *BLUE BOTTLE"},
		Standardized: "Blue Bottle Coffee",
		Category:     "Dining",
	}}
	// The second chunk disagrees with low confidence; the mapping from
	// chunk one must realign it.
	second := batchFor([]model.Transaction{c, d}, "Shopping", 0.6)

	client := llm.NewMockClient()
	client.QueueBatchResponse(first)
	client.QueueBatchResponse(second)

	classifier := testClassifier(t, client, opts)
	result, err := classifier.ClassifyAll(context.Background(), []model.Transaction{a, b, c, d}, nil, nil)
	require.NoError(t, err)

	byID := make(map[string]model.ClassificationResult)
	for _, r := range result.ProcessedTransactions {
		byID[r.TransactionID] = r
	}

	assert.Equal(t, "Dining", byID["c"].Category, "low-confidence result realigned to the mapping")
	assert.Equal(t, "Dining", byID["d"].Category)
	assert.Equal(t, "Dining", byID["a"].Category, "confident results are untouched")
	assert.Contains(t, byID["c"].Reasoning[len(byID["c"].Reasoning)-1], "Blue Bottle Coffee")
}

func TestRecurringMerchantsSuggestRules(t *testing.T) {
	var txns []model.Transaction
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		txns = append(txns, model.Transaction{
			ID:           fmt.Sprintf("coffee-%d", i),
			Date:         base.AddDate(0, 0, -i),
			Description:  "PEETS COFFEE #42",
			MerchantName: "Peets Coffee",
			Amount:       -5.75,
			Type:         model.TypeDebit,
		})
	}

	client := llm.NewMockClient()
	client.QueueBatchResponse(batchFor(txns, "Dining", 0.92))

	classifier := testClassifier(t, client, fastOptions())
	result, err := classifier.ClassifyAll(context.Background(), txns, nil, nil)
	require.NoError(t, err)

	var suggestions []model.RuleSuggestion
	for _, r := range result.ProcessedTransactions {
		suggestions = append(suggestions, r.SuggestedRules...)
	}
	require.Len(t, suggestions, 1, "four consistent classifications produce one rule suggestion")
	assert.Equal(t, "Peets Coffee", suggestions[0].MerchantPattern)
	assert.Equal(t, "Dining", suggestions[0].Category)
	assert.Equal(t, 4, suggestions[0].Occurrences)
}

func TestCanceledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := testClassifier(t, llm.NewMockClient(), fastOptions())

	var sawError bool
	_, err := classifier.ClassifyAll(ctx, makeTransactions(2), nil, func(p Progress) {
		if p.Stage == StageError {
			sawError = true
		}
	})
	assert.Error(t, err)
	assert.True(t, sawError)
}
