package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

const pgSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id                   BIGSERIAL PRIMARY KEY,
	transaction_date     DATE NOT NULL,
	posted_date          DATE NOT NULL,
	description          TEXT NOT NULL,
	original_description TEXT NOT NULL,
	amount               NUMERIC(14, 2) NOT NULL,
	account_name         TEXT NOT NULL,
	category             TEXT NOT NULL,
	notes                TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS transactions_account_amount_idx ON transactions (account_name, amount);
CREATE TABLE IF NOT EXISTS accounts (
	name            TEXT PRIMARY KEY,
	status          TEXT NOT NULL DEFAULT 'open',
	initial_balance NUMERIC(14, 2) NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS categories (
	name   TEXT PRIMARY KEY,
	parent TEXT NOT NULL DEFAULT '',
	hidden BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS budget (
	category  TEXT PRIMARY KEY,
	value     NUMERIC(14, 2) NOT NULL,
	is_parent BOOLEAN NOT NULL DEFAULT FALSE
);`

const pgUniqueIndex = `CREATE UNIQUE INDEX IF NOT EXISTS transactions_unique_idx
	ON transactions (account_name, amount, posted_date, original_description)`

var pgDistinctColumns = map[string]string{
	FieldAccountName: "account_name",
	FieldCategory:    "category",
}

// Postgres is a Store backed by a PostgreSQL database through a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// PostgresOptions configures NewPostgres.
type PostgresOptions struct {
	DSN string
	// Unique creates the uniqueness backstop index on transactions.
	Unique bool
	Logger logging.Logger
}

// NewPostgres opens a pool and creates the schema when missing.
func NewPostgres(ctx context.Context, opts PostgresOptions) (*Postgres, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.DSN == "" {
		return nil, errors.New("postgres store requires a DSN")
	}

	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if opts.Unique {
		if _, err := pool.Exec(ctx, pgUniqueIndex); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create unique index: %w", err)
		}
	}

	opts.Logger.Info("Connected to postgres", logging.F(logging.FieldBackend, "postgres"))
	return &Postgres{pool: pool, logger: opts.Logger}, nil
}

const pgSelectTransactions = `SELECT id::text, transaction_date, posted_date, description,
	original_description, amount::text, account_name, category, notes FROM transactions`

// FindTransactions implements Store.
func (p *Postgres) FindTransactions(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Amount != nil {
		add("amount = $%d::numeric", filter.Amount.String())
	}
	if filter.Account != "" {
		add("account_name = $%d", filter.Account)
	}
	if !filter.PostedFrom.IsZero() {
		add("posted_date >= $%d", filter.PostedFrom)
	}
	if !filter.PostedTo.IsZero() {
		add("posted_date <= $%d", filter.PostedTo)
	}

	query := pgSelectTransactions
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch filter.Order {
	case PostedAsc:
		query += " ORDER BY posted_date ASC, id ASC"
	case PostedDesc:
		query += " ORDER BY posted_date DESC, id DESC"
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx     models.Transaction
			amount string
		)
		if err := rows.Scan(&tx.ID, &tx.TransactionDate, &tx.PostedDate, &tx.Description,
			&tx.OriginalDescription, &amount, &tx.AccountName, &tx.Category, &tx.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Distinct implements Store.
func (p *Postgres) Distinct(ctx context.Context, field string) ([]string, error) {
	column, ok := pgDistinctColumns[field]
	if !ok {
		return nil, fmt.Errorf("distinct %q: %w", field, ErrUnknownField)
	}
	rows, err := p.pool.Query(ctx, "SELECT DISTINCT "+column+" FROM transactions ORDER BY 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", field, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// InsertTransactions implements Store inside one database transaction.
func (p *Postgres) InsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbtx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(`INSERT INTO transactions
			(transaction_date, posted_date, description, original_description, amount, account_name, category, notes)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
			tx.TransactionDate, tx.PostedDate, tx.Description, tx.OriginalDescription,
			tx.Amount.String(), tx.AccountName, tx.Category, tx.Notes)
	}
	if err := dbtx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("failed to insert transactions: %w", ErrConflict)
		}
		return fmt.Errorf("failed to insert transactions: %w", err)
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// LatestCategories implements Store.
func (p *Postgres) LatestCategories(ctx context.Context, account string) ([]CategoryHint, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT ON (original_description)
			original_description, category, posted_date
		FROM transactions
		WHERE account_name = $1
		ORDER BY original_description, posted_date DESC, id DESC`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CategoryHint, error) {
		var h CategoryHint
		err := row.Scan(&h.Description, &h.Category, &h.PostedDate)
		return h, err
	})
}

// Accounts implements Store.
func (p *Postgres) Accounts(ctx context.Context) ([]models.Account, error) {
	rows, err := p.pool.Query(ctx, "SELECT name, status, initial_balance::text FROM accounts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Account, error) {
		var (
			a       models.Account
			balance string
		)
		if err := row.Scan(&a.Name, &a.Status, &balance); err != nil {
			return a, err
		}
		parsed, err := decimal.NewFromString(balance)
		a.InitialBalance = parsed
		return a, err
	})
}

// AddAccount implements Store.
func (p *Postgres) AddAccount(ctx context.Context, account models.Account) error {
	if err := validateName("account", account.Name); err != nil {
		return err
	}
	if account.Status == "" {
		account.Status = models.AccountStatusOpen
	}
	tag, err := p.pool.Exec(ctx,
		"INSERT INTO accounts (name, status, initial_balance) VALUES ($1, $2, $3::numeric) ON CONFLICT (name) DO NOTHING",
		account.Name, account.Status, account.InitialBalance.String())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %q: %w", account.Name, ErrExists)
	}
	return nil
}

// Categories implements Store.
func (p *Postgres) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := p.pool.Query(ctx, "SELECT name, parent, hidden FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Category, error) {
		var c models.Category
		err := row.Scan(&c.Name, &c.Parent, &c.Hidden)
		return c, err
	})
}

// AddCategory implements Store.
func (p *Postgres) AddCategory(ctx context.Context, category models.Category) error {
	if err := validateName("category", category.Name); err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx,
		"INSERT INTO categories (name, parent, hidden) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING",
		category.Name, category.Parent, category.Hidden)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %q: %w", category.Name, ErrExists)
	}
	return nil
}

// BudgetItems implements Store.
func (p *Postgres) BudgetItems(ctx context.Context) ([]models.BudgetItem, error) {
	rows, err := p.pool.Query(ctx, "SELECT category, value::text, is_parent FROM budget ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.BudgetItem, error) {
		var (
			b     models.BudgetItem
			value string
		)
		if err := row.Scan(&b.Category, &value, &b.IsParent); err != nil {
			return b, err
		}
		parsed, err := decimal.NewFromString(value)
		b.Value = parsed
		return b, err
	})
}

// AddBudgetItem implements Store.
func (p *Postgres) AddBudgetItem(ctx context.Context, item models.BudgetItem) error {
	if err := validateName("category", item.Category); err != nil {
		return err
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO budget (category, value, is_parent) VALUES ($1, $2::numeric, $3)
		ON CONFLICT (category) DO UPDATE SET value = EXCLUDED.value`,
		item.Category, item.Value.String(), item.IsParent)
	if err != nil {
		return fmt.Errorf("failed to save budget item: %w", err)
	}
	return nil
}

// Close implements Store.
func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
