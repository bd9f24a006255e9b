package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RuleField identifies the transaction field a condition inspects.
type RuleField string

// Rule condition fields.
const (
	FieldMerchantName RuleField = "merchantName"
	FieldDescription  RuleField = "description"
	FieldAmount       RuleField = "amount"
	FieldCategory     RuleField = "category"
)

// RuleOperator identifies how a condition compares its field to its value.
type RuleOperator string

// Rule condition operators.
const (
	OperatorEquals      RuleOperator = "equals"
	OperatorContains    RuleOperator = "contains"
	OperatorStartsWith  RuleOperator = "startsWith"
	OperatorEndsWith    RuleOperator = "endsWith"
	OperatorGreaterThan RuleOperator = "greaterThan"
	OperatorLessThan    RuleOperator = "lessThan"
)

// RuleActionType identifies what a rule does when it matches.
type RuleActionType string

// Rule action types.
const (
	ActionSetCategory     RuleActionType = "setCategory"
	ActionSetSubcategory  RuleActionType = "setSubcategory"
	ActionSetMerchantName RuleActionType = "setMerchantName"
)

// RuleCondition is a single field/operator/value predicate. Conditions with
// unknown fields or operators are rejected at construction, never silently
// unmatched.
type RuleCondition struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    string       `json:"value"`
}

// NewRuleCondition builds a validated condition.
func NewRuleCondition(field RuleField, operator RuleOperator, value string) (RuleCondition, error) {
	c := RuleCondition{Field: field, Operator: operator, Value: value}
	if err := c.Validate(); err != nil {
		return RuleCondition{}, err
	}
	return c, nil
}

// Validate rejects unknown enum values and operator/field mismatches.
func (c RuleCondition) Validate() error {
	switch c.Field {
	case FieldMerchantName, FieldDescription, FieldAmount, FieldCategory:
	default:
		return fmt.Errorf("unknown rule field: %q", c.Field)
	}

	switch c.Operator {
	case OperatorEquals, OperatorContains, OperatorStartsWith, OperatorEndsWith:
	case OperatorGreaterThan, OperatorLessThan:
		if c.Field != FieldAmount {
			return fmt.Errorf("operator %q requires the amount field, got %q", c.Operator, c.Field)
		}
	default:
		return fmt.Errorf("unknown rule operator: %q", c.Operator)
	}

	if c.Value == "" {
		return fmt.Errorf("rule condition has empty value")
	}
	if c.Field == FieldAmount {
		if _, err := strconv.ParseFloat(c.Value, 64); err != nil {
			return fmt.Errorf("amount condition value %q is not numeric: %w", c.Value, err)
		}
	}
	return nil
}

// Matches reports whether the condition holds for a transaction.
func (c RuleCondition) Matches(txn Transaction) bool {
	switch c.Field {
	case FieldAmount:
		threshold, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return false
		}
		// Amount conditions compare magnitudes; "greater than 50" should
		// match a $72 debit even though debits are stored negative.
		amount := math.Abs(txn.Amount)
		switch c.Operator {
		case OperatorEquals:
			return amount == threshold
		case OperatorGreaterThan:
			return amount > threshold
		case OperatorLessThan:
			return amount < threshold
		default:
			return false
		}
	case FieldMerchantName:
		return matchString(txn.MerchantName, c.Operator, c.Value)
	case FieldDescription:
		return matchString(txn.Description, c.Operator, c.Value)
	case FieldCategory:
		return matchString(txn.Category, c.Operator, c.Value)
	}
	return false
}

func matchString(field string, op RuleOperator, value string) bool {
	field = strings.ToLower(field)
	value = strings.ToLower(value)
	switch op {
	case OperatorEquals:
		return field == value
	case OperatorContains:
		return strings.Contains(field, value)
	case OperatorStartsWith:
		return strings.HasPrefix(field, value)
	case OperatorEndsWith:
		return strings.HasSuffix(field, value)
	default:
		return false
	}
}

// RuleAction describes the single mutation a matching rule applies.
type RuleAction struct {
	Type  RuleActionType `json:"type"`
	Value string         `json:"value"`
}

// Validate rejects unknown action types and empty values.
func (a RuleAction) Validate() error {
	switch a.Type {
	case ActionSetCategory, ActionSetSubcategory, ActionSetMerchantName:
	default:
		return fmt.Errorf("unknown rule action type: %q", a.Type)
	}
	if a.Value == "" {
		return fmt.Errorf("rule action has empty value")
	}
	return nil
}

// Rule is a user-authored classification rule. Rules are evaluated in list
// order; the first rule whose conditions all hold wins.
type Rule struct {
	CreatedDate time.Time       `json:"createdDate"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Conditions  []RuleCondition `json:"conditions"`
	Action      RuleAction      `json:"action"`
	Confidence  float64         `json:"confidence"`
}

// Validate checks the rule and all of its conditions.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no ID")
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %s has no conditions", r.ID)
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("rule %s condition %d: %w", r.ID, i, err)
		}
	}
	if err := r.Action.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("rule %s confidence %.4f outside [0,1]", r.ID, r.Confidence)
	}
	return nil
}

// Matches reports whether every condition holds for the transaction.
func (r Rule) Matches(txn Transaction) bool {
	for _, c := range r.Conditions {
		if !c.Matches(txn) {
			return false
		}
	}
	return true
}
