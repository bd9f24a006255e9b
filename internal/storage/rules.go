package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// SaveRule inserts or replaces a user rule. Conditions are stored as JSON.
func (s *SQLiteStorage) SaveRule(ctx context.Context, rule model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rules (
			id, name, conditions, action_type, action_value, confidence, created_date
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.Name, string(conditions), string(rule.Action.Type), rule.Action.Value, rule.Confidence, rule.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.ID, err)
	}
	return nil
}

// GetRules returns all user rules ordered by creation date.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, conditions, action_type, action_value, confidence, created_date
		FROM rules ORDER BY created_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		var conditions string
		var actionType string
		if err := rows.Scan(&rule.ID, &rule.Name, &conditions, &actionType, &rule.Action.Value, &rule.Confidence, &rule.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Action.Type = model.RuleActionType(actionType)
		if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode conditions for rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// DeleteRule removes a rule by ID. Deleting an unknown ID is an error.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion of rule %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %s", common.ErrNotFound, id)
	}
	return nil
}

// GetRuleByID returns a single rule.
func (s *SQLiteStorage) GetRuleByID(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var rule model.Rule
	var conditions string
	var actionType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, conditions, action_type, action_value, confidence, created_date
		FROM rules WHERE id = ?
	`, id).Scan(&rule.ID, &rule.Name, &conditions, &actionType, &rule.Action.Value, &rule.Confidence, &rule.CreatedDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: rule %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	rule.Action.Type = model.RuleActionType(actionType)
	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions for rule %s: %w", id, err)
	}
	return &rule, nil
}
