package cascade

import (
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Keyword lists for the deterministic fallback tier. Hits only nudge the
// low base confidence; the fallback never produces a confident result.
var (
	expenseKeywords = []string{
		"purchase", "payment", "fee", "charge", "withdrawal", "debit",
		"pos", "store", "shop", "market", "restaurant", "cafe",
	}
	incomeKeywords = []string{
		"deposit", "payroll", "salary", "interest", "refund", "credit",
		"dividend", "reimbursement",
	}
)

// classifyFallback is the deterministic last tier. It always succeeds with
// a low-confidence result flagged for manual review.
func classifyFallback(txn model.Transaction) model.ClassificationResult {
	description := strings.ToLower(txn.Description)

	var category string
	confidence := 0.1
	var matched string

	for _, kw := range incomeKeywords {
		if strings.Contains(description, kw) {
			category = "Income"
			confidence = 0.3
			matched = kw
			break
		}
	}
	if category == "" {
		for _, kw := range expenseKeywords {
			if strings.Contains(description, kw) {
				category = "Shopping"
				confidence = 0.25
				matched = kw
				break
			}
		}
	}

	reasoning := []string{}
	if matched != "" {
		reasoning = append(reasoning, "Keyword heuristic matched '"+matched+"'")
	}

	// Amount sign settles direction when keywords did not
	if category == "" {
		if txn.Amount > 0 {
			category = "Income"
			confidence = 0.2
			reasoning = append(reasoning, "Positive amount suggests income")
		} else {
			category = "Uncategorized"
			confidence = 0.1
			reasoning = append(reasoning, "Negative amount with no recognizable keywords")
		}
	} else if category == "Income" && txn.Amount < 0 {
		// Keyword said income but the money left the account
		category = "Uncategorized"
		confidence = 0.15
		reasoning = append(reasoning, "Income keyword contradicts negative amount")
	}

	reasoning = append(reasoning, "Deterministic fallback: manual review required")

	return model.ClassificationResult{
		TransactionID: txn.ID,
		Category:      category,
		Confidence:    confidence,
		Reasoning:     reasoning,
	}
}
