package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// SaveClassification records a classification result for a transaction,
// replacing any earlier result for the same transaction.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, result model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(result.TransactionID, "transactionID"); err != nil {
		return err
	}
	if result.Category == "" {
		return fmt.Errorf("%w: classification has no category", ErrInvalidTransaction)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classifications (
			transaction_id, category, subcategory, confidence, reasoning
		) VALUES (?, ?, ?, ?, ?)
	`, result.TransactionID, result.Category, result.Subcategory, result.Confidence,
		strings.Join(result.Reasoning, "\n"))
	if err != nil {
		return fmt.Errorf("failed to save classification for %s: %w", result.TransactionID, err)
	}
	return nil
}

// SaveClassifications records a batch of classification results.
func (s *SQLiteStorage) SaveClassifications(ctx context.Context, results []model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("%w: results", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO classifications (
			transaction_id, category, subcategory, confidence, reasoning
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		if r.TransactionID == "" || r.Category == "" {
			return fmt.Errorf("%w: incomplete classification result", ErrInvalidTransaction)
		}
		if _, err := stmt.ExecContext(ctx,
			r.TransactionID, r.Category, r.Subcategory, r.Confidence,
			strings.Join(r.Reasoning, "\n")); err != nil {
			return fmt.Errorf("failed to save classification for %s: %w", r.TransactionID, err)
		}
	}

	return tx.Commit()
}

// MarkValidated flags a classification as user-confirmed.
func (s *SQLiteStorage) MarkValidated(ctx context.Context, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE classifications SET user_validated = 1 WHERE transaction_id = ?`,
		transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark %s validated: %w", transactionID, err)
	}
	return nil
}

// CategorySummary returns the total signed amount per category for
// classified transactions in [start, end].
func (s *SQLiteStorage) CategorySummary(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %v before start %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.category, SUM(t.amount)
		FROM classifications c
		JOIN transactions t ON t.id = c.transaction_id
		WHERE t.date >= ? AND t.date <= ?
		GROUP BY c.category
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		summary[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category summary: %w", err)
	}
	return summary, nil
}
