package categorizer

import (
	"kharnish/budgie/internal/models"
)

// Strategy assigns a category to a transaction.
// Each strategy implements one approach; the categorizer tries them in order.
type Strategy interface {
	// Categorize returns the category and whether this strategy decided.
	Categorize(tx models.Transaction) (Result, bool)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}

// Result describes a categorization decision.
type Result struct {
	Strategy string
	Category string
	// Match is the historical description that decided, if any.
	Match string
	Score float64
}

// FallbackStrategy keeps the category the row arrived with, or assigns
// models.CategoryUnknown. It always decides.
type FallbackStrategy struct{}

// Name implements Strategy.
func (FallbackStrategy) Name() string {
	return "Fallback"
}

// Categorize implements Strategy.
func (s FallbackStrategy) Categorize(tx models.Transaction) (Result, bool) {
	category := tx.Category
	if category == "" {
		category = models.CategoryUnknown
	}
	return Result{Strategy: s.Name(), Category: category}, true
}
