package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/bulk"
	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Classify a large transaction batch with the remote model",
		Long: `Classify many transactions in token-budgeted chunks against the remote
model, using previously classified transactions as exemplars so naming
and categorization stay consistent across the whole batch.`,
		RunE: runBulk,
	}

	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Int("exemplars", 0, "max classified exemplars to include (default 20)")

	return cmd
}

func runBulk(cmd *cobra.Command, _ []string) error {
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

	opts := bulk.DefaultOptions()
	if exemplars, _ := cmd.Flags().GetInt("exemplars"); exemplars > 0 {
		opts.MaxContextTransactions = exemplars
	}

	history, err := store.GetClassifiedTransactions(ctx, opts.MaxContextTransactions*5)
	if err != nil {
		return err
	}

	classifier, err := bulk.NewClassifier(client, casc, model.DefaultTaxonomy(), opts, nil, nil)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(transactions),
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	result, err := classifier.ClassifyAll(ctx, transactions, history, func(p bulk.Progress) {
		if p.Stage == bulk.StageProcessing || p.Stage == bulk.StageCompleted {
			_ = bar.Set(p.Processed)
		}
	})
	if err != nil {
		return err
	}

	if err := store.SaveClassifications(ctx, result.ProcessedTransactions); err != nil {
		return fmt.Errorf("failed to save classifications: %w", err)
	}

	printBulkSummary(result)
	return nil
}

func printBulkSummary(result *model.BulkAnalysisResult) {
	stats := result.ProcessingStats

	var lines string
	lines += fmt.Sprintf("Processed:     %d (%d ok, %d via fallback)\n",
		stats.TotalProcessed, stats.Successful, stats.Failed)
	lines += fmt.Sprintf("Confidence:    %.2f overall\n", result.OverallConfidence)
	lines += fmt.Sprintf("Tokens:        %d ($%.4f)\n", stats.TokensUsed, stats.Cost)
	lines += fmt.Sprintf("Duration:      %s", stats.ProcessingTime.Round(time.Millisecond))

	fmt.Println(cli.RenderBox("Bulk classification", lines))

	if len(result.ConfidenceByCategory) > 0 {
		categories := make([]string, 0, len(result.ConfidenceByCategory))
		for cat := range result.ConfidenceByCategory {
			categories = append(categories, cat)
		}
		sort.Strings(categories)

		fmt.Println(cli.FormatTitle("Confidence by category"))
		for _, cat := range categories {
			fmt.Printf("  %-20s %.2f\n", cat, result.ConfidenceByCategory[cat])
		}
	}

	if len(result.MerchantMappings) > 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("%d merchant standardizations discovered", len(result.MerchantMappings))))
	}
	if len(result.DetectedPatterns) > 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("%d recurring patterns detected", len(result.DetectedPatterns))))
	}
}
