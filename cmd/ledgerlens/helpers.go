package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/ledgerlens/ledgerlens/internal/cascade"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/dedupe"
	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/model"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/ledgerlens/ledgerlens.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildLLMClient creates the remote classifier from config. Returns nil
// (no error) when no provider is configured, which disables the remote
// tier.
func buildLLMClient() (llm.Client, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		slog.Debug("no remote classifier configured, remote tier disabled")
		return nil, nil
	}

	cfg := llm.Config{
		Provider:    provider,
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		Endpoint:    viper.GetString("llm.endpoint"),
		Timeout:     viper.GetDuration("llm.timeout"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}
	return llm.New(cfg)
}

// buildCascade assembles the classification cascade with rules loaded
// from storage and the configured remote client.
func buildCascade(ctx context.Context, store *storage.SQLiteStorage, client llm.Client) (*cascade.Cascade, error) {
	rules, err := store.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	return cascade.New(cascade.Options{
		Taxonomy:      model.DefaultTaxonomy(),
		Rules:         rules,
		Client:        client,
		RemoteTimeout: viper.GetDuration("llm.timeout"),
	})
}

// loadThresholds reads confidence thresholds from config, falling back
// to the defaults for any unset value.
func loadThresholds() (model.ConfidenceThresholds, error) {
	t := model.DefaultThresholds()
	if viper.IsSet("confidence.thresholds") {
		if err := viper.UnmarshalKey("confidence.thresholds", &t); err != nil {
			return t, fmt.Errorf("invalid confidence thresholds: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// loadDedupeSettings reads duplicate detection settings from config.
func loadDedupeSettings() (dedupe.Settings, error) {
	s := dedupe.DefaultSettings()
	if viper.IsSet("dedupe") {
		if err := viper.UnmarshalKey("dedupe", &s); err != nil {
			return s, fmt.Errorf("invalid dedupe settings: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value, returning the zero time
// for an empty string.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}
