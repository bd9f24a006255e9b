package cascade

// DefaultPatterns returns the curated pattern table. Order is load-bearing:
// specific merchants come before generic keyword rules so that, for
// example, "NETFLIX.COM FEE" hits the Netflix entry rather than the fee
// entry.
func DefaultPatterns() []PatternGroup {
	return []PatternGroup{
		// Specific merchants first
		{
			Name:     "Streaming Services",
			Category: "Entertainment", Subcategory: "Streaming", Confidence: 0.95,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "netflix"},
				{Kind: MatchSubstring, Value: "spotify"},
				{Kind: MatchSubstring, Value: "hulu"},
				{Kind: MatchSubstring, Value: "disney plus"},
				{Kind: MatchRegex, Value: `\bHBO\s*MAX\b`},
			},
		},
		{
			Name:     "Online Marketplaces",
			Category: "Shopping", Subcategory: "Online Marketplaces", Confidence: 0.9,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\bAMZN(\s*MKTP)?\b`},
				{Kind: MatchSubstring, Value: "amazon"},
				{Kind: MatchSubstring, Value: "ebay"},
				{Kind: MatchSubstring, Value: "etsy"},
			},
		},
		// Delivery must precede Rideshare so "UBER EATS" never hits the
		// plain UBER matcher.
		{
			Name:     "Food Delivery",
			Category: "Dining", Subcategory: "Delivery", Confidence: 0.9,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "doordash"},
				{Kind: MatchSubstring, Value: "grubhub"},
				{Kind: MatchRegex, Value: `\bUBER\s*EATS\b`},
			},
		},
		{
			Name:     "Rideshare",
			Category: "Transportation", Subcategory: "Rideshare", Confidence: 0.92,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\bUBER\b`},
				{Kind: MatchSubstring, Value: "lyft"},
			},
		},
		{
			Name:     "Coffee Shops",
			Category: "Dining", Subcategory: "Coffee Shops", Confidence: 0.92,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "starbucks"},
				{Kind: MatchSubstring, Value: "dunkin"},
				{Kind: MatchSubstring, Value: "peets coffee"},
			},
		},
		{
			Name:     "Supermarkets",
			Category: "Groceries", Subcategory: "Supermarket", Confidence: 0.9,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "whole foods"},
				{Kind: MatchSubstring, Value: "trader joe"},
				{Kind: MatchSubstring, Value: "safeway"},
				{Kind: MatchSubstring, Value: "kroger"},
				{Kind: MatchSubstring, Value: "costco"},
			},
		},
		{
			Name:     "Fuel",
			Category: "Transportation", Subcategory: "Fuel", Confidence: 0.88,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "shell oil"},
				{Kind: MatchSubstring, Value: "chevron"},
				{Kind: MatchSubstring, Value: "exxon"},
				{Kind: MatchRegex, Value: `\b76\s*STATION\b`},
			},
		},
		{
			Name:     "Pharmacies",
			Category: "Healthcare", Subcategory: "Pharmacy", Confidence: 0.88,
			Matchers: []Matcher{
				{Kind: MatchSubstring, Value: "walgreens"},
				{Kind: MatchRegex, Value: `\bCVS(/|\s|$)`},
				{Kind: MatchSubstring, Value: "rite aid"},
			},
		},

		// Generic keyword rules after merchants
		{
			Name:     "Payroll",
			Category: "Income", Subcategory: "Salary", Confidence: 0.9,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(DIRECTDEP|DIRECT\s*DEP|PAYROLL|SALARY|WAGES)\b`},
			},
		},
		{
			Name:     "Interest Income",
			Category: "Income", Subcategory: "Interest", Confidence: 0.85,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(INTEREST\s*(PAID|EARNED)|INT\s*EARNED|DIVIDEND)\b`},
			},
		},
		{
			Name:     "Refunds",
			Category: "Income", Subcategory: "Refunds", Confidence: 0.8,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(REFUND|REIMB|REIMBURSEMENT|CASHBACK|CASH\s*BACK)\b`},
			},
		},
		{
			Name:     "Transfers",
			Category: "Transfers", Subcategory: "Internal Transfer", Confidence: 0.82,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(TRANSFER|XFER|TFR)\b`},
			},
		},
		{
			Name:     "Credit Card Payments",
			Category: "Transfers", Subcategory: "Credit Card Payment", Confidence: 0.8,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(CC\s*PAYMENT|CREDIT\s*CARD\s*PAY|CARD\s*PAYMENT|AUTOPAY\s*PMT)\b`},
			},
		},
		{
			Name:     "ATM Withdrawals",
			Category: "Fees & Charges", Subcategory: "ATM Fees", Confidence: 0.7,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\bATM\s*(FEE|WITHDRAWAL|WD)\b`},
			},
		},
		{
			Name:     "Bank Fees",
			Category: "Fees & Charges", Subcategory: "Bank Fees", Confidence: 0.75,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(SERVICE\s*(FEE|CHG|CHARGE)|MONTHLY\s*FEE|OVERDRAFT|NSF\s*FEE)\b`},
			},
		},
		{
			Name:     "Utilities",
			Category: "Utilities", Confidence: 0.72,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(ELECTRIC|GAS\s*&\s*ELECTRIC|WATER\s*DIST|UTILITY|COMCAST|AT&T|VERIZON)\b`},
			},
		},
		// Low-confidence catch-alls: these match but only gate out the
		// remote tier when the confidence floor allows.
		{
			Name:     "Generic Purchase",
			Category: "Shopping", Confidence: 0.5,
			Matchers: []Matcher{
				{Kind: MatchRegex, Value: `\b(POS\s*PURCHASE|CARD\s*PURCHASE|DEBIT\s*PURCHASE)\b`},
			},
		},
	}
}
