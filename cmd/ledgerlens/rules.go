package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage user classification rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println(cli.FormatInfo("No rules defined"))
				return nil
			}

			header := fmt.Sprintf("%-36s  %-24s  %-16s  %s", "ID", "NAME", "ACTION", "VALUE")
			fmt.Println(cli.TableHeaderStyle.Render(header))
			for _, r := range rules {
				row := fmt.Sprintf("%-36s  %-24s  %-16s  %s",
					r.ID, truncate(r.Name, 24), r.Action.Type, r.Action.Value)
				fmt.Println(cli.TableCellStyle.Render(row))
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a classification rule",
		Long: `Add a rule with a single condition. Rules are evaluated in creation
order during classification; the first rule whose conditions all match
wins.

Example:
  ledgerlens rules add --name "Coffee shops" \
    --field merchantName --operator contains --match "STARBUCKS" \
    --action setCategory --value "Dining"`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("name", "", "human-readable rule name (required)")
	cmd.Flags().String("field", "", "field to inspect: merchantName, description, amount, category")
	cmd.Flags().String("operator", "", "comparison: equals, contains, startsWith, endsWith, greaterThan, lessThan")
	cmd.Flags().String("match", "", "value to compare against")
	cmd.Flags().String("action", "", "action: setCategory, setSubcategory, setMerchantName")
	cmd.Flags().String("value", "", "value the action applies")
	cmd.Flags().Float64("confidence", 0.95, "confidence assigned to matches")

	for _, required := range []string{"name", "field", "operator", "match", "action", "value"} {
		_ = cmd.MarkFlagRequired(required)
	}

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	condition, err := model.NewRuleCondition(
		model.RuleField(mustString(cmd, "field")),
		model.RuleOperator(mustString(cmd, "operator")),
		mustString(cmd, "match"),
	)
	if err != nil {
		return err
	}

	confidence, _ := cmd.Flags().GetFloat64("confidence")
	rule := model.Rule{
		ID:          uuid.NewString(),
		Name:        mustString(cmd, "name"),
		CreatedDate: time.Now().UTC(),
		Conditions:  []model.RuleCondition{condition},
		Action: model.RuleAction{
			Type:  model.RuleActionType(mustString(cmd, "action")),
			Value: mustString(cmd, "value"),
		},
		Confidence: confidence,
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveRule(ctx, rule); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added rule %s (%s)", rule.Name, rule.ID)))
	return nil
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a rule by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Rule deleted"))
			return nil
		},
	}
}
