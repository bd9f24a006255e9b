// Package bulk classifies large transaction sets against a remote model,
// batching under a token budget while preserving cross-transaction
// consistency. Chunks execute sequentially with a short inter-chunk delay
// to bound load on the remote service; a failed chunk is repaired through
// the per-transaction cascade so no transaction is ever dropped.
package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/cascade"
	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/metrics"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Classifier batches transactions through the remote model with the
// cascade as its per-chunk fallback.
type Classifier struct {
	client   llm.Client
	fallback *cascade.Cascade
	prompts  *promptBuilder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	taxonomy model.Taxonomy
	opts     Options
}

// NewClassifier creates a bulk classifier. The cascade is required; it
// repairs failed chunks. The client may be nil, in which case every chunk
// goes through the fallback path.
func NewClassifier(client llm.Client, fallback *cascade.Cascade, taxonomy model.Taxonomy, opts Options, logger *slog.Logger, m *metrics.Metrics) (*Classifier, error) {
	if fallback == nil {
		return nil, fmt.Errorf("%w: bulk classifier requires a cascade fallback", common.ErrConfiguration)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(taxonomy.Categories) == 0 {
		taxonomy = model.DefaultTaxonomy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Nop()
	}

	prompts, err := newPromptBuilder()
	if err != nil {
		return nil, err
	}

	return &Classifier{
		client:   client,
		fallback: fallback,
		taxonomy: taxonomy,
		opts:     opts,
		prompts:  prompts,
		logger:   logger,
		metrics:  m,
	}, nil
}

// chunkOutcome carries one chunk's results plus bookkeeping.
type chunkOutcome struct {
	results  []model.ClassificationResult
	patterns []model.DetectedPattern
	mappings []model.MerchantMapping
	tokens   int
	repaired bool
}

// ClassifyAll classifies every transaction and returns a consolidated
// result containing exactly one entry per input transaction. history
// supplies already-classified transactions used as exemplars.
func (c *Classifier) ClassifyAll(ctx context.Context, transactions, history []model.Transaction, progress ProgressFunc) (*model.BulkAnalysisResult, error) {
	start := time.Now()
	report := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	report(Progress{Stage: StagePreparing, Total: len(transactions), Message: "preparing analysis context"})
	analysisCtx := prepareAnalysisContext(transactions, history, c.opts.MaxContextTransactions)

	report(Progress{Stage: StageAnalyzing, Total: len(transactions), Message: "partitioning transactions into chunks"})
	chunks := createChunks(transactions, c.opts)

	c.logger.Info("starting bulk classification",
		"transactions", len(transactions),
		"chunks", len(chunks),
		"chunk_size", c.opts.chunkSize())

	outcomes := make([]chunkOutcome, 0, len(chunks))
	processed := 0

	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			report(Progress{Stage: StageError, Processed: processed, Total: len(transactions), Message: err.Error()})
			return nil, fmt.Errorf("bulk classification canceled: %w", err)
		}

		outcome := c.processChunk(ctx, ch, analysisCtx)
		outcomes = append(outcomes, outcome)
		processed += len(ch.Transactions)

		report(Progress{
			Stage:     StageProcessing,
			Processed: processed,
			Total:     len(transactions),
			Message:   fmt.Sprintf("chunk %d/%d classified", i+1, len(chunks)),
		})

		if i < len(chunks)-1 && c.opts.InterChunkDelay > 0 {
			select {
			case <-ctx.Done():
				report(Progress{Stage: StageError, Processed: processed, Total: len(transactions), Message: ctx.Err().Error()})
				return nil, fmt.Errorf("bulk classification canceled: %w", ctx.Err())
			case <-time.After(c.opts.InterChunkDelay):
			}
		}
	}

	result := c.consolidateResults(transactions, outcomes)
	result.ProcessingStats.ProcessingTime = time.Since(start)

	report(Progress{Stage: StageCompleted, Processed: len(transactions), Total: len(transactions), Message: "bulk classification complete"})
	return result, nil
}

// processChunk classifies one chunk remotely, validating the response
// strictly. Any remote or validation failure repairs the whole chunk
// through the cascade; errors never propagate past this method.
func (c *Classifier) processChunk(ctx context.Context, ch chunk, analysisCtx analysisContext) chunkOutcome {
	if c.client == nil {
		return c.repairChunk(ctx, ch, "no remote classifier configured")
	}

	prompt, err := c.prompts.build(promptData{
		Context:      analysisCtx,
		Taxonomy:     c.taxonomy,
		Transactions: ch.Transactions,
	})
	if err != nil {
		return c.repairChunk(ctx, ch, err.Error())
	}

	var resp llm.BatchResponse
	retryErr := common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.client.ClassifyBatch(ctx, prompt)
		if callErr != nil {
			return &common.RetryableError{Err: callErr, Retryable: true}
		}
		if validateErr := validateBatch(resp, ch.expectedIDs(), c.taxonomy); validateErr != nil {
			return &common.RetryableError{Err: validateErr, Retryable: true}
		}
		return nil
	}, common.RetryOptions{MaxAttempts: c.opts.RetryAttempts, InitialDelay: 250 * time.Millisecond})

	if retryErr != nil {
		c.logger.Warn("chunk classification failed, repairing via cascade",
			"chunk", ch.Index,
			"transactions", len(ch.Transactions),
			"error", retryErr)
		return c.repairChunk(ctx, ch, retryErr.Error())
	}

	c.metrics.TokensUsedTotal.Add(float64(resp.Usage.Total()))

	outcome := chunkOutcome{tokens: resp.Usage.Total()}
	byID := make(map[string]llm.BatchClassification, len(resp.Classifications))
	for _, bc := range resp.Classifications {
		byID[bc.TransactionID] = bc
	}
	for _, txn := range ch.Transactions {
		bc := byID[txn.ID]
		outcome.results = append(outcome.results, model.ClassificationResult{
			TransactionID: bc.TransactionID,
			Category:      bc.Category,
			Subcategory:   bc.Subcategory,
			Confidence:    bc.Confidence,
			Reasoning:     append([]string{"Classified in bulk by remote AI model"}, bc.Reasoning...),
		})
		c.metrics.ClassificationsTotal.WithLabelValues("bulk").Inc()
	}
	for _, p := range resp.DetectedPatterns {
		outcome.patterns = append(outcome.patterns, model.DetectedPattern{
			Description:    p.Description,
			Category:       p.Category,
			TransactionIDs: p.TransactionIDs,
			Confidence:     p.Confidence,
		})
	}
	for _, m := range resp.MerchantMappings {
		outcome.mappings = append(outcome.mappings, model.MerchantMapping{
			Variants:     m.Variants,
			Standardized: m.Standardized,
			Category:     m.Category,
		})
	}
	return outcome
}

// repairChunk reclassifies every transaction in a failed chunk through the
// cascade, marking results with the reason for the fallback.
func (c *Classifier) repairChunk(ctx context.Context, ch chunk, reason string) chunkOutcome {
	c.metrics.ChunkFallbacksTotal.Inc()

	outcome := chunkOutcome{repaired: true}
	for _, txn := range ch.Transactions {
		result := c.fallback.Classify(ctx, txn)
		result.Reasoning = append(result.Reasoning,
			"Bulk classification unavailable for this chunk: "+reason)
		outcome.results = append(outcome.results, result)
	}
	return outcome
}

// consolidateResults merges chunk outcomes into one BulkAnalysisResult,
// applying merchant standardizations uniformly across all chunks and
// deriving rule suggestions from recurring merchant classifications.
func (c *Classifier) consolidateResults(transactions []model.Transaction, outcomes []chunkOutcome) *model.BulkAnalysisResult {
	result := &model.BulkAnalysisResult{
		ConfidenceByCategory: make(map[string]float64),
	}

	byID := make(map[string]model.ClassificationResult)
	var tokens int
	var failed int

	for _, o := range outcomes {
		for _, r := range o.results {
			byID[r.TransactionID] = r
		}
		result.DetectedPatterns = append(result.DetectedPatterns, o.patterns...)
		result.MerchantMappings = append(result.MerchantMappings, o.mappings...)
		tokens += o.tokens
		if o.repaired {
			failed += len(o.results)
		}
	}

	merchantByID := make(map[string]string, len(transactions))
	for _, txn := range transactions {
		merchantByID[txn.ID] = txn.MerchantName
	}
	c.applyMerchantMappings(byID, merchantByID, result.MerchantMappings)

	// Output order follows the input order, one entry per transaction
	ordered := make([]model.ClassificationResult, 0, len(transactions))
	for _, txn := range transactions {
		ordered = append(ordered, byID[txn.ID])
	}
	result.ProcessedTransactions = c.attachRuleSuggestions(ordered, merchantByID)

	categorySums := make(map[string]float64)
	categoryCounts := make(map[string]int)
	var confidenceSum float64
	for _, r := range result.ProcessedTransactions {
		confidenceSum += r.Confidence
		categorySums[r.Category] += r.Confidence
		categoryCounts[r.Category]++
	}
	if len(result.ProcessedTransactions) > 0 {
		result.OverallConfidence = confidenceSum / float64(len(result.ProcessedTransactions))
	}
	for cat, sum := range categorySums {
		result.ConfidenceByCategory[cat] = sum / float64(categoryCounts[cat])
	}

	result.ProcessingStats = model.ProcessingStats{
		TotalProcessed: len(transactions),
		Successful:     len(transactions) - failed,
		Failed:         failed,
		TokensUsed:     tokens,
		Cost:           c.estimateCost(tokens),
	}

	return result
}

// applyMerchantMappings aligns results with discovered merchant
// standardizations across every chunk, not just the chunk where a mapping
// was discovered. Only uncertain results are realigned; a confident
// classification is not overridden by a mapping.
func (c *Classifier) applyMerchantMappings(byID map[string]model.ClassificationResult, merchantByID map[string]string, mappings []model.MerchantMapping) {
	categoryByVariant := make(map[string]model.MerchantMapping)
	for _, m := range mappings {
		if m.Category == "" || !c.taxonomy.Valid(m.Category, "") {
			continue
		}
		for _, v := range m.Variants {
			categoryByVariant[normalizeMerchant(v)] = m
		}
		categoryByVariant[normalizeMerchant(m.Standardized)] = m
	}
	if len(categoryByVariant) == 0 {
		return
	}

	for id, r := range byID {
		merchant := merchantByID[id]
		if merchant == "" {
			continue
		}
		mapping, ok := categoryByVariant[normalizeMerchant(merchant)]
		if !ok || mapping.Category == r.Category || r.Confidence >= 0.9 {
			continue
		}
		r.Category = mapping.Category
		r.Subcategory = ""
		r.Reasoning = append(r.Reasoning,
			fmt.Sprintf("Aligned with merchant mapping for %q", mapping.Standardized))
		byID[id] = r
	}
}

// attachRuleSuggestions derives rule suggestions from merchants that
// recur with a consistent, confident category, attaching each suggestion
// to the merchant's first result.
func (c *Classifier) attachRuleSuggestions(results []model.ClassificationResult, merchantByID map[string]string) []model.ClassificationResult {
	type merchantStat struct {
		category    string
		subcategory string
		count       int
		confSum     float64
		firstIdx    int
	}
	stats := make(map[string]*merchantStat)

	for i, r := range results {
		merchant := merchantByID[r.TransactionID]
		if merchant == "" || r.Confidence < 0.8 {
			continue
		}
		key := normalizeMerchant(merchant) + "|" + r.Category
		s, ok := stats[key]
		if !ok {
			s = &merchantStat{category: r.Category, subcategory: r.Subcategory, firstIdx: i}
			stats[key] = s
		}
		s.count++
		s.confSum += r.Confidence
	}

	for _, s := range stats {
		if s.count < 3 {
			continue
		}
		merchant := merchantByID[results[s.firstIdx].TransactionID]
		results[s.firstIdx].SuggestedRules = append(results[s.firstIdx].SuggestedRules, model.RuleSuggestion{
			MerchantPattern: merchant,
			Category:        s.category,
			Subcategory:     s.subcategory,
			Occurrences:     s.count,
			Confidence:      s.confSum / float64(s.count),
		})
	}

	return results
}

// estimateCost converts token usage into an approximate dollar cost,
// assuming the typical 3:1 input/output split for classification prompts.
func (c *Classifier) estimateCost(tokens int) float64 {
	inputTokens := float64(tokens) * 0.75
	outputTokens := float64(tokens) * 0.25
	return inputTokens/1000*c.opts.InputCostPer1K + outputTokens/1000*c.opts.OutputCostPer1K
}
