// Package cascade classifies single transactions through an ordered tier
// strategy: cache, user rules, curated patterns, remote AI, deterministic
// fallback. Every classification terminates in a result; there is no fatal
// path.
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/metrics"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

// tier identifies one stage of the classification cascade.
type tier int

const (
	tierCache tier = iota
	tierUserRules
	tierPatterns
	tierRemote
	tierFallback
)

func (t tier) String() string {
	switch t {
	case tierCache:
		return "cache"
	case tierUserRules:
		return "rules"
	case tierPatterns:
		return "patterns"
	case tierRemote:
		return "remote"
	case tierFallback:
		return "fallback"
	}
	return "unknown"
}

// Options configures a Cascade.
type Options struct {
	Taxonomy             model.Taxonomy
	Rules                []model.Rule
	Patterns             []PatternGroup
	Client               llm.Client // nil disables the remote tier
	Logger               *slog.Logger
	Metrics              *metrics.Metrics
	RemoteTimeout        time.Duration
	MinPatternConfidence float64
}

// Cascade classifies one transaction at a time through ordered tiers,
// short-circuiting on the first hit. The cache and the fallback-mode flag
// are the only mutable state, both scoped to this instance.
type Cascade struct {
	logger               *slog.Logger
	metrics              *metrics.Metrics
	client               llm.Client
	cache                *resultCache
	taxonomy             model.Taxonomy
	rules                []model.Rule
	patterns             []compiledGroup
	remoteTimeout        time.Duration
	minPatternConfidence float64
	fallbackMode         bool
	mu                   sync.RWMutex
}

// New creates a classification cascade.
func New(opts Options) (*Cascade, error) {
	if len(opts.Taxonomy.Categories) == 0 {
		opts.Taxonomy = model.DefaultTaxonomy()
	}
	if opts.Patterns == nil {
		opts.Patterns = DefaultPatterns()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.RemoteTimeout == 0 {
		opts.RemoteTimeout = 30 * time.Second
	}
	if opts.MinPatternConfidence == 0 {
		opts.MinPatternConfidence = 0.6
	}

	for _, r := range opts.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	compiled, err := compilePatterns(opts.Patterns)
	if err != nil {
		return nil, err
	}

	return &Cascade{
		taxonomy:             opts.Taxonomy,
		rules:                append([]model.Rule(nil), opts.Rules...),
		patterns:             compiled,
		client:               opts.Client,
		cache:                newResultCache(),
		logger:               opts.Logger,
		metrics:              opts.Metrics,
		remoteTimeout:        opts.RemoteTimeout,
		minPatternConfidence: opts.MinPatternConfidence,
	}, nil
}

// Classify runs the transaction through the tiers in strict order and
// returns exactly one result. The input transaction is never mutated.
func (c *Cascade) Classify(ctx context.Context, txn model.Transaction) model.ClassificationResult {
	fingerprint := txn.Fingerprint()

	if cached, ok := c.cache.get(fingerprint); ok {
		result := cached.Clone()
		result.TransactionID = txn.ID
		c.metrics.ClassificationsTotal.WithLabelValues(tierCache.String()).Inc()
		return result
	}

	// Working copy: setMerchantName rules normalize the merchant seen by
	// later tiers without touching the caller's transaction.
	working := txn
	var result model.ClassificationResult
	var hitTier tier

	for t := tierUserRules; ; t++ {
		if r, ok := c.runTier(ctx, t, &working); ok {
			result = r
			hitTier = t
			break
		}
	}

	result.TransactionID = txn.ID
	c.cache.set(fingerprint, result)
	c.metrics.ClassificationsTotal.WithLabelValues(hitTier.String()).Inc()

	c.logger.Debug("transaction classified",
		"transaction_id", txn.ID,
		"tier", hitTier.String(),
		"category", result.Category,
		"confidence", result.Confidence)

	return result
}

// runTier evaluates one tier. The fallback tier always produces a result.
func (c *Cascade) runTier(ctx context.Context, t tier, txn *model.Transaction) (model.ClassificationResult, bool) {
	switch t {
	case tierUserRules:
		return c.classifyByRules(txn)
	case tierPatterns:
		return c.classifyByPatterns(*txn)
	case tierRemote:
		return c.classifyRemote(ctx, *txn)
	default:
		return classifyFallback(*txn), true
	}
}

// classifyByRules walks the ordered rule list. The first rule whose every
// condition matches and whose action assigns a category wins. Matching
// setMerchantName rules normalize the working merchant and evaluation
// continues.
func (c *Cascade) classifyByRules(txn *model.Transaction) (model.ClassificationResult, bool) {
	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()

	var merchantNotes []string
	for _, r := range rules {
		if !r.Matches(*txn) {
			continue
		}
		switch r.Action.Type {
		case model.ActionSetMerchantName:
			txn.MerchantName = r.Action.Value
			merchantNotes = append(merchantNotes, fmt.Sprintf("Rule %q standardized merchant to %q", r.Name, r.Action.Value))
			continue
		case model.ActionSetCategory:
			return model.ClassificationResult{
				Category:   r.Action.Value,
				Confidence: r.Confidence,
				Reasoning:  append(merchantNotes, fmt.Sprintf("Matched user rule %q", r.Name)),
			}, true
		case model.ActionSetSubcategory:
			category := txn.Category
			if category == "" {
				category = "Uncategorized"
			}
			return model.ClassificationResult{
				Category:    category,
				Subcategory: r.Action.Value,
				Confidence:  r.Confidence,
				Reasoning:   append(merchantNotes, fmt.Sprintf("Matched user rule %q", r.Name)),
			}, true
		}
	}
	return model.ClassificationResult{}, false
}

// classifyByPatterns walks the curated pattern table top to bottom. A hit
// below the confidence floor is discarded so the remote tier still runs.
func (c *Cascade) classifyByPatterns(txn model.Transaction) (model.ClassificationResult, bool) {
	searchText := txn.Description
	if txn.MerchantName != "" {
		searchText += " " + txn.MerchantName
	}

	for i := range c.patterns {
		g := &c.patterns[i]
		if !g.match(searchText) {
			continue
		}
		if g.Confidence < c.minPatternConfidence {
			c.logger.Debug("pattern hit below confidence floor",
				"pattern", g.Name, "confidence", g.Confidence)
			return model.ClassificationResult{}, false
		}
		return model.ClassificationResult{
			Category:    g.Category,
			Subcategory: g.Subcategory,
			Confidence:  g.Confidence,
			Reasoning:   []string{fmt.Sprintf("Matched pattern %q", g.Name)},
		}, true
	}
	return model.ClassificationResult{}, false
}

// classifyRemote calls the remote AI classifier. Any failure flips the
// sticky fallback-mode flag and yields to the deterministic tier; the error
// never reaches the caller.
func (c *Cascade) classifyRemote(ctx context.Context, txn model.Transaction) (model.ClassificationResult, bool) {
	c.mu.RLock()
	client := c.client
	inFallback := c.fallbackMode
	c.mu.RUnlock()

	if client == nil || inFallback {
		return model.ClassificationResult{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	resp, err := client.Classify(callCtx, c.buildPrompt(txn))
	if err != nil {
		c.enterFallbackMode(txn.ID, err)
		return model.ClassificationResult{}, false
	}

	if !c.taxonomy.Valid(resp.Category, resp.Subcategory) {
		c.enterFallbackMode(txn.ID,
			fmt.Errorf("category %q/%q not in taxonomy", resp.Category, resp.Subcategory))
		return model.ClassificationResult{}, false
	}

	c.metrics.TokensUsedTotal.Add(float64(resp.Usage.Total()))

	result := model.ClassificationResult{
		Category:    resp.Category,
		Subcategory: resp.Subcategory,
		Confidence:  resp.Confidence,
		Reasoning:   append([]string{"Classified by remote AI model"}, resp.Reasoning...),
	}
	if txn.MerchantName != "" && resp.Confidence >= 0.8 {
		result.SuggestedRules = []model.RuleSuggestion{{
			MerchantPattern: txn.MerchantName,
			Category:        resp.Category,
			Subcategory:     resp.Subcategory,
			Occurrences:     1,
			Confidence:      resp.Confidence,
		}}
	}
	return result, true
}

// enterFallbackMode sets the sticky flag that disables remote attempts
// until EnableRemote is called.
func (c *Cascade) enterFallbackMode(transactionID string, err error) {
	c.mu.Lock()
	c.fallbackMode = true
	c.mu.Unlock()

	c.metrics.RemoteFailuresTotal.Inc()
	c.logger.Warn("remote classification failed, entering fallback mode",
		"transaction_id", transactionID,
		"error", err)
}

// buildPrompt renders the single-transaction classification prompt.
func (c *Cascade) buildPrompt(txn model.Transaction) string {
	var categories strings.Builder
	for _, cat := range c.taxonomy.Categories {
		categories.WriteString("- " + cat.Name)
		if len(cat.Subcategories) > 0 {
			categories.WriteString(" (subcategories: " + strings.Join(cat.Subcategories, ", ") + ")")
		}
		categories.WriteString("\n")
	}

	details := fmt.Sprintf("Description: %s\nAmount: %.2f\nDate: %s",
		txn.Description, txn.Amount, txn.Date.Format("2006-01-02"))
	if txn.MerchantName != "" {
		details += "\nMerchant: " + txn.MerchantName
	}
	if txn.CheckNumber != "" {
		details += "\nCheck Number: " + txn.CheckNumber
	}

	return fmt.Sprintf(`Classify this bank transaction into exactly one of the listed categories. A negative amount is a debit (money leaving the account); a positive amount is a credit.

Categories:
%s
Transaction:
%s

Respond with ONLY a JSON object of this shape:
{"category": "<category name>", "subcategory": "<subcategory or omit>", "confidence": <0.0-1.0>, "reasoning": ["<short explanation>"]}`,
		categories.String(), details)
}

// AddUserRule appends a validated rule and invalidates the cache.
func (c *Cascade) AddUserRule(r model.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.rules = append(c.rules, r)
	c.mu.Unlock()
	c.cache.clear()
	return nil
}

// RemoveUserRule deletes a rule by ID and invalidates the cache. It reports
// whether a rule was removed.
func (c *Cascade) RemoveUserRule(id string) bool {
	c.mu.Lock()
	removed := false
	// Fresh allocation: classifyByRules iterates its snapshot of the old
	// slice after dropping the read lock, so the backing array must not be
	// rewritten in place.
	kept := make([]model.Rule, 0, len(c.rules))
	for _, r := range c.rules {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	c.rules = kept
	c.mu.Unlock()

	if removed {
		c.cache.clear()
	}
	return removed
}

// Rules returns a copy of the current rule list in evaluation order.
func (c *Cascade) Rules() []model.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Rule(nil), c.rules...)
}

// InFallbackMode reports whether the remote tier is disabled.
func (c *Cascade) InFallbackMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallbackMode
}

// EnableRemote clears the sticky fallback flag, re-enabling remote
// classification attempts. The cache is cleared with it: results produced
// while degraded would otherwise stay pinned at fallback confidence.
func (c *Cascade) EnableRemote() {
	c.mu.Lock()
	c.fallbackMode = false
	c.mu.Unlock()
	c.cache.clear()
}

// CacheSize returns the number of cached results.
func (c *Cascade) CacheSize() int { return c.cache.size() }
