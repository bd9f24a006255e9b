// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// TransactionType indicates the direction of a transaction.
type TransactionType string

const (
	// TypeDebit represents money leaving the account (negative amount).
	TypeDebit TransactionType = "debit"
	// TypeCredit represents money entering the account (positive amount).
	TypeCredit TransactionType = "credit"
)

// Transaction represents a single extracted bank-statement transaction.
type Transaction struct {
	Date                     time.Time
	ID                       string
	Description              string
	MerchantName             string
	Location                 string
	ReferenceNumber          string
	CheckNumber              string
	Category                 string
	Subcategory              string
	AppliedRules             []string
	Amount                   float64 // Signed; negative = debit
	Confidence               float64 // Final blended score
	ExtractionConfidence     float64
	ClassificationConfidence float64
	Type                     TransactionType
	UserValidated            bool
}

// Fingerprint creates a stable content hash used as the classification
// cache key. Two transactions with the same normalized description, amount,
// and merchant share a fingerprint regardless of ID or date.
func (t *Transaction) Fingerprint() string {
	data := fmt.Sprintf("%s:%.2f:%s",
		NormalizeDescription(t.Description),
		t.Amount,
		strings.ToLower(strings.TrimSpace(t.MerchantName)))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Validate checks structural invariants on a transaction.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction has no ID")
	}
	switch t.Type {
	case TypeDebit:
		if t.Amount > 0 {
			return fmt.Errorf("debit transaction %s has positive amount %.2f", t.ID, t.Amount)
		}
	case TypeCredit:
		if t.Amount < 0 {
			return fmt.Errorf("credit transaction %s has negative amount %.2f", t.ID, t.Amount)
		}
	default:
		return fmt.Errorf("transaction %s has unknown type %q", t.ID, t.Type)
	}
	for _, c := range []float64{t.Confidence, t.ExtractionConfidence, t.ClassificationConfidence} {
		if c < 0 || c > 1 {
			return fmt.Errorf("transaction %s has confidence %.4f outside [0,1]", t.ID, c)
		}
	}
	return nil
}

// NormalizeDescription lowercases a description and collapses runs of
// whitespace, so cache keys and similarity comparisons ignore formatting
// noise from statement extraction.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
