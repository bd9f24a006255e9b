package model

// CategoryType indicates whether a category is for income or expense use.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Category is one entry in the fixed classification taxonomy.
type Category struct {
	Name          string
	Description   string
	Subcategories []string
	Type          CategoryType
}

// Taxonomy is the fixed category/subcategory vocabulary sent to the remote
// classifier and enforced on its responses.
type Taxonomy struct {
	Categories []Category
}

// DefaultTaxonomy returns the built-in category set.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{Categories: []Category{
		{Name: "Groceries", Type: CategoryTypeExpense, Description: "Supermarkets and food stores",
			Subcategories: []string{"Supermarket", "Specialty Foods"}},
		{Name: "Dining", Type: CategoryTypeExpense, Description: "Restaurants, cafes, and takeout",
			Subcategories: []string{"Restaurants", "Coffee Shops", "Fast Food", "Delivery"}},
		{Name: "Transportation", Type: CategoryTypeExpense, Description: "Fuel, transit, rideshare, parking",
			Subcategories: []string{"Fuel", "Public Transit", "Rideshare", "Parking", "Tolls"}},
		{Name: "Shopping", Type: CategoryTypeExpense, Description: "Retail and online purchases",
			Subcategories: []string{"Clothing", "Electronics", "Home Goods", "Online Marketplaces"}},
		{Name: "Utilities", Type: CategoryTypeExpense, Description: "Recurring household services",
			Subcategories: []string{"Electricity", "Water", "Internet", "Phone"}},
		{Name: "Housing", Type: CategoryTypeExpense, Description: "Rent, mortgage, and home maintenance",
			Subcategories: []string{"Rent", "Mortgage", "Maintenance", "Insurance"}},
		{Name: "Healthcare", Type: CategoryTypeExpense, Description: "Medical, dental, and pharmacy",
			Subcategories: []string{"Doctor", "Pharmacy", "Dental", "Vision"}},
		{Name: "Entertainment", Type: CategoryTypeExpense, Description: "Streaming, events, and hobbies",
			Subcategories: []string{"Streaming", "Events", "Games", "Books"}},
		{Name: "Subscriptions", Type: CategoryTypeExpense, Description: "Recurring memberships and software",
			Subcategories: []string{"Software", "Memberships", "News"}},
		{Name: "Fees & Charges", Type: CategoryTypeExpense, Description: "Bank fees, interest, and penalties",
			Subcategories: []string{"Bank Fees", "Interest Charges", "Late Fees", "ATM Fees"}},
		{Name: "Travel", Type: CategoryTypeExpense, Description: "Flights, hotels, and vacation spend",
			Subcategories: []string{"Flights", "Lodging", "Car Rental"}},
		{Name: "Education", Type: CategoryTypeExpense, Description: "Tuition, courses, and supplies",
			Subcategories: []string{"Tuition", "Courses", "Supplies"}},
		{Name: "Income", Type: CategoryTypeIncome, Description: "Money entering the account",
			Subcategories: []string{"Salary", "Interest", "Refunds", "Dividends", "Other Income"}},
		{Name: "Transfers", Type: CategoryTypeExpense, Description: "Movement between own accounts",
			Subcategories: []string{"Internal Transfer", "Credit Card Payment", "Savings"}},
		{Name: "Uncategorized", Type: CategoryTypeExpense, Description: "Could not be classified",
			Subcategories: nil},
	}}
}

// Valid reports whether the category (and, when non-empty, the subcategory)
// exists in the taxonomy.
func (t Taxonomy) Valid(category, subcategory string) bool {
	for _, c := range t.Categories {
		if c.Name != category {
			continue
		}
		if subcategory == "" {
			return true
		}
		for _, s := range c.Subcategories {
			if s == subcategory {
				return true
			}
		}
		return false
	}
	return false
}

// Names returns the category names in taxonomy order.
func (t Taxonomy) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}
