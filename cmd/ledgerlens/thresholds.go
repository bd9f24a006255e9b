package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerlens/ledgerlens/internal/cli"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func thresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Inspect or adjust confidence thresholds",
	}

	cmd.AddCommand(thresholdsGetCmd())
	cmd.AddCommand(thresholdsSetCmd())

	return cmd
}

func thresholdsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the effective confidence thresholds",
		RunE: func(_ *cobra.Command, _ []string) error {
			t, err := loadThresholds()
			if err != nil {
				return err
			}

			content := fmt.Sprintf("Auto-processing:       %.2f\n", t.AutoProcessing)
			content += fmt.Sprintf("Targeted review min:   %.2f\n", t.TargetedReviewMin)
			content += fmt.Sprintf("Targeted review max:   %.2f\n", t.TargetedReviewMax)
			content += fmt.Sprintf("Full review threshold: %.2f", t.FullReviewThreshold)
			fmt.Println(cli.RenderBox("Confidence thresholds", content))
			return nil
		},
	}
}

func thresholdsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update confidence thresholds in the config file",
		RunE:  runThresholdsSet,
	}

	cmd.Flags().Float64("auto-processing", -1, "minimum overall confidence for auto-export")
	cmd.Flags().Float64("targeted-min", -1, "lower bound of the targeted review band")
	cmd.Flags().Float64("targeted-max", -1, "upper bound of the targeted review band")
	cmd.Flags().Float64("full-review", -1, "below this, the whole batch needs review")

	return cmd
}

func runThresholdsSet(cmd *cobra.Command, _ []string) error {
	t, err := loadThresholds()
	if err != nil {
		return err
	}

	changed := false
	for flag, target := range map[string]*float64{
		"auto-processing": &t.AutoProcessing,
		"targeted-min":    &t.TargetedReviewMin,
		"targeted-max":    &t.TargetedReviewMax,
		"full-review":     &t.FullReviewThreshold,
	} {
		if cmd.Flags().Changed(flag) {
			*target, _ = cmd.Flags().GetFloat64(flag)
			changed = true
		}
	}
	if !changed {
		return fmt.Errorf("no threshold flags given, see --help")
	}

	if err := t.Validate(); err != nil {
		return err
	}

	viper.Set("confidence.thresholds.auto_processing", t.AutoProcessing)
	viper.Set("confidence.thresholds.targeted_review_min", t.TargetedReviewMin)
	viper.Set("confidence.thresholds.targeted_review_max", t.TargetedReviewMax)
	viper.Set("confidence.thresholds.full_review_threshold", t.FullReviewThreshold)

	if err := writeConfig(); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Thresholds updated"))
	printThresholds(t)
	return nil
}

func printThresholds(t model.ConfidenceThresholds) {
	fmt.Printf("  auto-processing=%.2f targeted=[%.2f, %.2f] full-review=%.2f\n",
		t.AutoProcessing, t.TargetedReviewMin, t.TargetedReviewMax, t.FullReviewThreshold)
}

// writeConfig persists the current viper state, creating the default
// config file when none was loaded.
func writeConfig() error {
	if err := viper.WriteConfig(); err == nil {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "ledgerlens")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(filepath.Join(dir, "config.yaml")); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
