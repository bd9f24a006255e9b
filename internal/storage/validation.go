package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i, txn := range transactions {
		if txn.ID == "" {
			return fmt.Errorf("%w: transaction at index %d has no ID", ErrInvalidTransaction, i)
		}
		if txn.Date.IsZero() {
			return fmt.Errorf("%w: transaction %s has no date", ErrInvalidTransaction, txn.ID)
		}
	}
	return nil
}
