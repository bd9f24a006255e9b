package bulk

import (
	"fmt"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// validateBatch checks a chunk response against the chunk's expected IDs
// and the taxonomy. Every expected ID must appear exactly once, no foreign
// IDs may appear, and every category/subcategory pair must exist in the
// taxonomy. Validation is separate from repair so both stay independently
// testable.
func validateBatch(resp llm.BatchResponse, expectedIDs []string, taxonomy model.Taxonomy) error {
	expected := make(map[string]bool, len(expectedIDs))
	for _, id := range expectedIDs {
		expected[id] = false
	}

	for _, c := range resp.Classifications {
		seen, ok := expected[c.TransactionID]
		if !ok {
			return common.NewValidationError(
				fmt.Sprintf("foreign transaction id %q in response", c.TransactionID), nil)
		}
		if seen {
			return common.NewValidationError(
				fmt.Sprintf("transaction id %q appears more than once", c.TransactionID), nil)
		}
		expected[c.TransactionID] = true

		if !taxonomy.Valid(c.Category, c.Subcategory) {
			return common.NewValidationError(
				fmt.Sprintf("category %q/%q for %s not in taxonomy", c.Category, c.Subcategory, c.TransactionID), nil)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return common.NewValidationError(
				fmt.Sprintf("confidence %.4f for %s outside [0,1]", c.Confidence, c.TransactionID), nil)
		}
	}

	for id, seen := range expected {
		if !seen {
			return common.NewValidationError(
				fmt.Sprintf("transaction id %q missing from response", id), nil)
		}
	}

	return nil
}
