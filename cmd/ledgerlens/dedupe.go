package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/dedupe"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func dedupeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Detect likely duplicate transactions",
		Long: `Scan stored transactions for duplicates using weighted similarity
across date, amount, description, and transaction type. Groups are
classified as exact, likely, or possible matches; only exact matches
above the auto-removal threshold are ever suggested for automatic
removal.`,
		RunE: runDedupe,
	}

	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")

	return cmd
}

func runDedupe(cmd *cobra.Command, _ []string) error {
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

	settings, err := loadDedupeSettings()
	if err != nil {
		return err
	}
	detector, err := dedupe.NewDetector(settings, nil)
	if err != nil {
		return err
	}

	result := detector.DetectDuplicates(transactions)

	if len(result.DuplicateGroups) == 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("No duplicates found among %d transactions", len(transactions))))
		return nil
	}

	for _, group := range result.DuplicateGroups {
		printDuplicateGroup(group)
	}

	autoRemovable := 0
	for _, s := range result.Suggestions {
		if s.Action == model.ResolveAutoRemove {
			autoRemovable++
		}
	}

	fmt.Println(cli.FormatWarning(fmt.Sprintf("%d duplicate group(s) found, %d group(s) eligible for auto-removal",
		len(result.DuplicateGroups), autoRemovable)))
	return nil
}

func printDuplicateGroup(group model.DuplicateGroup) {
	var content string
	for _, txn := range group.Transactions {
		content += fmt.Sprintf("%s  %-36s  %9.2f\n",
			txn.Date.Format("2006-01-02"), truncate(txn.Description, 36), txn.Amount)
	}
	for _, reason := range group.Reason {
		content += cli.SubtleStyle.Render("  " + reason)
		content += "\n"
	}

	title := fmt.Sprintf("%s match (%.2f)", group.DuplicateType, group.SimilarityScore)
	fmt.Println(cli.RenderBox(title, content))
}

// truncate shortens a display string to max runes, never splitting a
// multibyte character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
