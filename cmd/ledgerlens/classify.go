package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify stored transactions through the cascade",
		Long: `Classify transactions one at a time through the tiered cascade:
cached results, user rules, curated patterns, then the remote AI model.
Transactions that no tier can classify confidently fall back to a
deterministic heuristic and are flagged for manual review.`,
		RunE: runClassify,
	}

	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().String("id", "", "classify a single transaction by ID")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := buildLLMClient()
	if err != nil {
		return err
	}
	casc, err := buildCascade(ctx, store, client)
	if err != nil {
		return err
	}

	var transactions []model.Transaction
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		txn, getErr := store.GetTransactionByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		transactions = []model.Transaction{*txn}
	} else {
		from, parseErr := parseDateFlag(mustString(cmd, "from"))
		if parseErr != nil {
			return parseErr
		}
		to, parseErr := parseDateFlag(mustString(cmd, "to"))
		if parseErr != nil {
			return parseErr
		}
		if from.IsZero() {
			from = time.Now().AddDate(-1, 0, 0)
		}
		if to.IsZero() {
			to = time.Now()
		}
		transactions, err = store.GetTransactionsByDateRange(ctx, from, to)
		if err != nil {
			return err
		}
	}

	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions to classify"))
		return nil
	}

	results := make([]model.ClassificationResult, 0, len(transactions))
	for _, txn := range transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := casc.Classify(ctx, txn)
		results = append(results, result)

		label := truncate(txn.Description, 40)
		fmt.Printf("%s  %-40s  %s (%.2f)\n",
			txn.Date.Format("2006-01-02"), label,
			formatCategory(result), result.Confidence)
	}

	if err := store.SaveClassifications(ctx, results); err != nil {
		return fmt.Errorf("failed to save classifications: %w", err)
	}

	if casc.InFallbackMode() {
		fmt.Println(cli.FormatWarning("Remote classifier unavailable, some results used the deterministic fallback"))
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classified %d transactions", len(results))))
	return nil
}

func formatCategory(r model.ClassificationResult) string {
	if r.Subcategory == "" {
		return r.Category
	}
	return r.Category + " / " + r.Subcategory
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(v)
}
