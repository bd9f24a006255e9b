package bulk

import (
	"fmt"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/common"
)

// Stage labels one phase of a bulk run for progress reporting.
type Stage string

// Bulk run stages.
const (
	StagePreparing  Stage = "preparing"
	StageAnalyzing  Stage = "analyzing"
	StageProcessing Stage = "processing"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

// Progress is one staged progress update. A bulk run over many chunks can
// take from seconds to minutes, so callers render these without polling.
type Progress struct {
	Stage     Stage
	Message   string
	Processed int
	Total     int
}

// ProgressFunc receives staged progress updates. May be nil.
type ProgressFunc func(Progress)

// Options configures a bulk classification run. Chunk sizing is derived
// from real token estimation: chunkSize = (TokenBudget - ContextOverhead) /
// PerTransactionTokens, floored at one transaction per chunk.
type Options struct {
	MaxContextTransactions int
	TokenBudget            int
	ContextOverheadTokens  int
	PerTransactionTokens   int
	RetryAttempts          int
	InterChunkDelay        time.Duration
	InputCostPer1K         float64 // USD per 1000 input tokens
	OutputCostPer1K        float64 // USD per 1000 output tokens
}

// DefaultOptions returns sensible bulk classification defaults.
func DefaultOptions() Options {
	return Options{
		MaxContextTransactions: 20,
		TokenBudget:            8000,
		ContextOverheadTokens:  1200,
		PerTransactionTokens:   120,
		RetryAttempts:          2,
		InterChunkDelay:        500 * time.Millisecond,
		InputCostPer1K:         0.003,
		OutputCostPer1K:        0.015,
	}
}

// Validate rejects option combinations that cannot produce a chunk.
func (o Options) Validate() error {
	if o.TokenBudget <= 0 {
		return fmt.Errorf("%w: token budget must be positive", common.ErrConfiguration)
	}
	if o.PerTransactionTokens <= 0 {
		return fmt.Errorf("%w: per-transaction token cost must be positive", common.ErrConfiguration)
	}
	if o.ContextOverheadTokens < 0 {
		return fmt.Errorf("%w: context overhead must be non-negative", common.ErrConfiguration)
	}
	if o.MaxContextTransactions < 0 {
		return fmt.Errorf("%w: max context transactions must be non-negative", common.ErrConfiguration)
	}
	return nil
}

// chunkSize derives how many transactions fit in one request under the
// token budget.
func (o Options) chunkSize() int {
	size := (o.TokenBudget - o.ContextOverheadTokens) / o.PerTransactionTokens
	if size < 1 {
		size = 1
	}
	return size
}
