package model

// RuleSuggestion is a rule derived from recurring classification results,
// offered to the user for confirmation.
type RuleSuggestion struct {
	MerchantPattern string  `json:"merchantPattern"`
	Category        string  `json:"category"`
	Subcategory     string  `json:"subcategory,omitempty"`
	Occurrences     int     `json:"occurrences"`
	Confidence      float64 `json:"confidence"`
}

// ClassificationResult is the outcome of classifying one transaction.
// Exactly one result is produced per transaction per cascade invocation.
type ClassificationResult struct {
	TransactionID  string           `json:"transactionId"`
	Category       string           `json:"category"`
	Subcategory    string           `json:"subcategory,omitempty"`
	Reasoning      []string         `json:"reasoning"`
	SuggestedRules []RuleSuggestion `json:"suggestedRules,omitempty"`
	Confidence     float64          `json:"confidence"`
}

// Clone returns a deep copy, used when rebinding cached results to a new
// transaction ID.
func (r ClassificationResult) Clone() ClassificationResult {
	out := r
	out.Reasoning = append([]string(nil), r.Reasoning...)
	out.SuggestedRules = append([]RuleSuggestion(nil), r.SuggestedRules...)
	return out
}
