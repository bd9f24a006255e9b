package bulk

import (
	"sort"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// chunk is one bounded subset of transactions sent together in a single
// remote request. Every chunk carries the shared analysis context.
type chunk struct {
	Transactions []model.Transaction
	Index        int
}

// createChunks sorts transactions newest-first and partitions them into
// token-budget-limited chunks. Every input transaction appears in exactly
// one chunk.
func createChunks(transactions []model.Transaction, opts Options) []chunk {
	if len(transactions) == 0 {
		return nil
	}

	sorted := append([]model.Transaction(nil), transactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	size := opts.chunkSize()
	chunks := make([]chunk, 0, (len(sorted)+size-1)/size)
	for start := 0; start < len(sorted); start += size {
		end := start + size
		if end > len(sorted) {
			end = len(sorted)
		}
		chunks = append(chunks, chunk{
			Index:        len(chunks),
			Transactions: sorted[start:end],
		})
	}
	return chunks
}

// expectedIDs returns the transaction IDs a chunk's response must cover.
func (c chunk) expectedIDs() []string {
	ids := make([]string, len(c.Transactions))
	for i, t := range c.Transactions {
		ids[i] = t.ID
	}
	return ids
}
