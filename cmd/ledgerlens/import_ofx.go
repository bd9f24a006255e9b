package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/model"
	"github.com/ledgerlens/ledgerlens/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import bank transactions from OFX or QFX (Quicken) files.

Examples:
  # Import single file
  ledgerlens import ~/Downloads/chase_jan_2026.qfx

  # Import all QFX files in a directory
  ledgerlens import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var allTransactions []model.Transaction

	for _, file := range allFiles {
		f, err := os.Open(file) //nolint:gosec // user-supplied import path
		if err != nil {
			slog.Warn("Failed to open file", "file", file, "error", err)
			continue
		}

		txns, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Warn("Failed to parse file", "file", file, "error", err)
			continue
		}

		added := 0
		for _, txn := range txns {
			if seen[txn.ID] {
				continue
			}
			seen[txn.ID] = true
			allTransactions = append(allTransactions, txn)
			added++
		}
		slog.Info("Parsed file", "file", filepath.Base(file), "transactions", added)
	}

	if len(allTransactions) == 0 {
		return fmt.Errorf("no transactions found in %d file(s)", len(allFiles))
	}

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: would import %d transactions", len(allTransactions))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, allTransactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions from %d file(s)", len(allTransactions), len(allFiles))))
	return nil
}
