package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kharnish/budgie/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-memory Store. It is safe for concurrent use. Data is lost
// when the process exits unless it is wrapped by CSV.
type Memory struct {
	mu           sync.RWMutex
	transactions []models.Transaction
	accounts     []models.Account
	categories   []models.Category
	budget       []models.BudgetItem
	unique       bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// EnforceUnique turns on the uniqueness backstop for later inserts.
func (m *Memory) EnforceUnique(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique = on
}

// FindTransactions implements Store.
func (m *Memory) FindTransactions(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range m.transactions {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	sortTransactions(out, filter.Order)
	return out, nil
}

// Distinct implements Store.
func (m *Memory) Distinct(ctx context.Context, field string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, tx := range m.transactions {
		var v string
		switch field {
		case FieldAccountName:
			v = tx.AccountName
		case FieldCategory:
			v = tx.Category
		default:
			return nil, fmt.Errorf("distinct %q: %w", field, ErrUnknownField)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// InsertTransactions implements Store. IDs are assigned here.
func (m *Memory) InsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unique {
		keys := make(map[string]bool, len(m.transactions)+len(txs))
		for _, tx := range m.transactions {
			keys[uniqueKey(tx)] = true
		}
		for _, tx := range txs {
			k := uniqueKey(tx)
			if keys[k] {
				return fmt.Errorf("insert %s: %w", tx, ErrConflict)
			}
			keys[k] = true
		}
	}

	for _, tx := range txs {
		tx.ID = uuid.NewString()
		m.transactions = append(m.transactions, tx)
	}
	return nil
}

// LatestCategories implements Store.
func (m *Memory) LatestCategories(ctx context.Context, account string) ([]CategoryHint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return latestCategories(m.transactions, account), nil
}

// Accounts implements Store.
func (m *Memory) Accounts(ctx context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Account(nil), m.accounts...), nil
}

// AddAccount implements Store.
func (m *Memory) AddAccount(ctx context.Context, account models.Account) error {
	if err := validateName("account", account.Name); err != nil {
		return err
	}
	if account.Status == "" {
		account.Status = models.AccountStatusOpen
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Name == account.Name {
			return fmt.Errorf("account %q: %w", account.Name, ErrExists)
		}
	}
	m.accounts = append(m.accounts, account)
	return nil
}

// Categories implements Store.
func (m *Memory) Categories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Category(nil), m.categories...), nil
}

// AddCategory implements Store.
func (m *Memory) AddCategory(ctx context.Context, category models.Category) error {
	if err := validateName("category", category.Name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == category.Name {
			return fmt.Errorf("category %q: %w", category.Name, ErrExists)
		}
	}
	m.categories = append(m.categories, category)
	return nil
}

// BudgetItems implements Store.
func (m *Memory) BudgetItems(ctx context.Context) ([]models.BudgetItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.BudgetItem(nil), m.budget...), nil
}

// AddBudgetItem implements Store.
func (m *Memory) AddBudgetItem(ctx context.Context, item models.BudgetItem) error {
	if err := validateName("category", item.Category); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.budget {
		if b.Category == item.Category {
			m.budget[i].Value = item.Value
			return nil
		}
	}
	m.budget = append(m.budget, item)
	return nil
}

// Close implements Store.
func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// load replaces the whole content. Used by the flat-file store.
func (m *Memory) load(txs []models.Transaction, accounts []models.Account, categories []models.Category, budget []models.BudgetItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = txs
	m.accounts = accounts
	m.categories = categories
	m.budget = budget
}

// snapshot returns copies of the whole content.
func (m *Memory) snapshot() ([]models.Transaction, []models.Account, []models.Category, []models.BudgetItem) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Transaction(nil), m.transactions...),
		append([]models.Account(nil), m.accounts...),
		append([]models.Category(nil), m.categories...),
		append([]models.BudgetItem(nil), m.budget...)
}
