package bulk

import (
	"sort"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// analysisContext is the shared context carried by every chunk: exemplar
// classifications, merchant standardizations, and batch metadata.
type analysisContext struct {
	Exemplars        []model.Transaction
	MerchantMappings []model.MerchantMapping
	DateStart        time.Time
	DateEnd          time.Time
	TotalAmount      float64
	Count            int
}

// prepareAnalysisContext selects the highest-confidence already-classified
// transactions as exemplars, derives a merchant-mapping table from them,
// and computes aggregate metadata for the batch under analysis.
func prepareAnalysisContext(batch, history []model.Transaction, maxExemplars int) analysisContext {
	classified := make([]model.Transaction, 0, len(history))
	for _, t := range history {
		// ClassificationConfidence is the field the storage join fills in
		// for history rows; the blended Confidence never is.
		if t.Category != "" && t.ClassificationConfidence > 0 {
			classified = append(classified, t)
		}
	}
	sort.SliceStable(classified, func(i, j int) bool {
		return classified[i].ClassificationConfidence > classified[j].ClassificationConfidence
	})
	if len(classified) > maxExemplars {
		classified = classified[:maxExemplars]
	}

	ctx := analysisContext{
		Exemplars:        classified,
		MerchantMappings: deriveMerchantMappings(classified),
		Count:            len(batch),
	}

	for _, t := range batch {
		ctx.TotalAmount += t.Amount
		if ctx.DateStart.IsZero() || t.Date.Before(ctx.DateStart) {
			ctx.DateStart = t.Date
		}
		if t.Date.After(ctx.DateEnd) {
			ctx.DateEnd = t.Date
		}
	}

	return ctx
}

// deriveMerchantMappings groups exemplar merchant name variants under a
// standardized name with the dominant category.
func deriveMerchantMappings(exemplars []model.Transaction) []model.MerchantMapping {
	type bucket struct {
		variants   map[string]struct{}
		categories map[string]int
		canonical  string
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, t := range exemplars {
		if t.MerchantName == "" {
			continue
		}
		key := normalizeMerchant(t.MerchantName)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				variants:   make(map[string]struct{}),
				categories: make(map[string]int),
				canonical:  t.MerchantName,
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.variants[t.MerchantName] = struct{}{}
		if t.Category != "" {
			b.categories[t.Category]++
		}
	}

	mappings := make([]model.MerchantMapping, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		if len(b.variants) == 0 {
			continue
		}
		variants := make([]string, 0, len(b.variants))
		for v := range b.variants {
			variants = append(variants, v)
		}
		sort.Strings(variants)

		var topCategory string
		topCount := 0
		for cat, n := range b.categories {
			if n > topCount || (n == topCount && cat < topCategory) {
				topCategory, topCount = cat, n
			}
		}

		mappings = append(mappings, model.MerchantMapping{
			Variants:     variants,
			Standardized: b.canonical,
			Category:     topCategory,
		})
	}
	return mappings
}

// normalizeMerchant folds case and whitespace so variant spellings of one
// merchant land in the same bucket.
func normalizeMerchant(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
