package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/confidence"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func readinessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Evaluate whether a batch is ready for automatic export",
		Long: `Aggregate extraction and classification confidence for a batch of
classified transactions and recommend auto-export, targeted review, or
full review.`,
		RunE: runReadiness,
	}

	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")

	return cmd
}

func runReadiness(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	from, err := parseDateFlag(mustString(cmd, "from"))
	if err != nil {
		return err
	}
	to, err := parseDateFlag(mustString(cmd, "to"))
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = time.Now().AddDate(-1, 0, 0)
	}
	if to.IsZero() {
		to = time.Now()
	}

	transactions, err := store.GetTransactionsByDateRange(ctx, from, to)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions in the selected range"))
		return nil
	}

	classifications := make([]model.ClassificationResult, 0, len(transactions))
	for _, txn := range transactions {
		if txn.Category == "" {
			continue
		}
		classifications = append(classifications, model.ClassificationResult{
			TransactionID: txn.ID,
			Category:      txn.Category,
			Subcategory:   txn.Subcategory,
			Confidence:    txn.ClassificationConfidence,
		})
	}

	engine := confidence.NewEngine(nil)
	thresholds, err := loadThresholds()
	if err != nil {
		return err
	}
	if err := engine.SetThresholds(thresholds); err != nil {
		return err
	}

	decision := engine.EvaluateProcessingReadiness(confidence.Input{
		Transactions:    transactions,
		Classifications: classifications,
	})

	printDecision(decision)
	return nil
}

func printDecision(d model.ProcessingDecision) {
	var content string
	content += fmt.Sprintf("Overall confidence:        %.2f\n", d.OverallConfidence)
	content += fmt.Sprintf("Extraction confidence:     %.2f\n", d.ExtractionConfidence)
	content += fmt.Sprintf("Classification confidence: %.2f\n", d.ClassificationConfidence)
	content += fmt.Sprintf("Items needing review:      %d\n\n", len(d.RequiresReview))
	content += d.Reasoning

	fmt.Println(cli.RenderBox("Processing readiness", content))

	switch d.RecommendedAction {
	case model.ActionAutoExport:
		fmt.Println(cli.FormatSuccess("Recommendation: auto-export"))
	case model.ActionTargetedReview:
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Recommendation: targeted review of %d item(s)", len(d.RequiresReview))))
	case model.ActionFullReview:
		fmt.Println(cli.FormatError("Recommendation: full manual review"))
	}

	for _, item := range d.RequiresReview {
		fmt.Printf("  %s %s: %s (%.2f)\n",
			cli.WarningIcon, cli.BoldStyle.Render(item.Type), item.Description, item.Confidence)
	}
}
