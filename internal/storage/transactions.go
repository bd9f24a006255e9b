package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// SaveTransactions upserts a batch of transactions in a single database
// transaction. Re-saving an existing ID replaces the stored row.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions (
			id, fingerprint, date, description, merchant_name,
			location, reference_number, check_number, amount, type,
			extraction_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.Fingerprint(), txn.Date, txn.Description, txn.MerchantName,
			txn.Location, txn.ReferenceNumber, txn.CheckNumber, txn.Amount, string(txn.Type),
			txn.ExtractionConfidence,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactionByID returns a single transaction, joined with its
// classification when one exists.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsByDateRange returns transactions within [start, end],
// newest first, each joined with its classification when one exists.
func (s *SQLiteStorage) GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %v before start %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx,
		transactionSelect+` WHERE t.date >= ? AND t.date <= ? ORDER BY t.date DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// GetClassifiedTransactions returns up to limit classified transactions,
// most confident first. These serve as exemplars for bulk analysis.
func (s *SQLiteStorage) GetClassifiedTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		transactionSelect+` WHERE c.category IS NOT NULL ORDER BY c.confidence DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classified transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

const transactionSelect = `
	SELECT t.id, t.fingerprint, t.date, t.description, t.merchant_name,
	       t.location, t.reference_number, t.check_number, t.amount, t.type,
	       t.extraction_confidence,
	       c.category, c.subcategory, c.confidence, c.user_validated
	FROM transactions t
	LEFT JOIN classifications c ON c.transaction_id = t.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var fingerprint string
	var txnType string
	var merchant, location, refNum, checkNum sql.NullString
	var category, subcategory sql.NullString
	var confidence sql.NullFloat64
	var userValidated sql.NullBool

	err := row.Scan(
		&txn.ID, &fingerprint, &txn.Date, &txn.Description, &merchant,
		&location, &refNum, &checkNum, &txn.Amount, &txnType,
		&txn.ExtractionConfidence,
		&category, &subcategory, &confidence, &userValidated,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txnType)
	txn.MerchantName = merchant.String
	txn.Location = location.String
	txn.ReferenceNumber = refNum.String
	txn.CheckNumber = checkNum.String
	txn.Category = category.String
	txn.Subcategory = subcategory.String
	txn.ClassificationConfidence = confidence.Float64
	txn.UserValidated = userValidated.Bool

	return &txn, nil
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
