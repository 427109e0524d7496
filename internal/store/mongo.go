package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"kharnish/budgie/internal/dateutils"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const uniqueIndexName = "account_amount_posted_description"

// Mongo is a Store backed by a MongoDB database using the Budgie document
// layout: field names with spaces and amounts stored as doubles.
type Mongo struct {
	client       *mongo.Client
	transactions *mongo.Collection
	accounts     *mongo.Collection
	categories   *mongo.Collection
	budget       *mongo.Collection
	logger       logging.Logger
}

type transactionDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	TransactionDate     time.Time          `bson:"transaction date"`
	PostedDate          time.Time          `bson:"posted date"`
	Category            string             `bson:"category"`
	Description         string             `bson:"description"`
	Amount              float64            `bson:"amount"`
	OriginalDescription string             `bson:"original description"`
	AccountName         string             `bson:"account name"`
	Notes               string             `bson:"notes"`
}

type accountDoc struct {
	Name           string  `bson:"account name"`
	Status         string  `bson:"status"`
	InitialBalance float64 `bson:"initial balance"`
}

type categoryDoc struct {
	Name   string `bson:"category name"`
	Parent string `bson:"parent,omitempty"`
	Hidden bool   `bson:"hidden"`
}

type budgetDoc struct {
	Category string  `bson:"category"`
	Value    float64 `bson:"value"`
	IsParent bool    `bson:"is_parent"`
}

// MongoOptions configures NewMongo.
type MongoOptions struct {
	URI      string
	Database string
	// Unique creates the uniqueness backstop index on transactions.
	Unique bool
	Logger logging.Logger
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.URI == "" || opts.Database == "" {
		return nil, errors.New("mongo store requires a URI and a database name")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	db := client.Database(opts.Database)
	m := &Mongo{
		client:       client,
		transactions: db.Collection(CollectionTransactions),
		accounts:     db.Collection(CollectionAccounts),
		categories:   db.Collection(CollectionCategories),
		budget:       db.Collection(CollectionBudget),
		logger:       opts.Logger,
	}

	if opts.Unique {
		_, err := m.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "account name", Value: 1},
				{Key: "amount", Value: 1},
				{Key: "posted date", Value: 1},
				{Key: "original description", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(uniqueIndexName),
		})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to create unique index: %w", err)
		}
	}

	opts.Logger.Info("Connected to mongo", logging.F(logging.FieldBackend, "mongo"), logging.F("database", opts.Database))
	return m, nil
}

func amountFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toTransactionDoc(tx models.Transaction) transactionDoc {
	return transactionDoc{
		TransactionDate:     tx.TransactionDate,
		PostedDate:          tx.PostedDate,
		Category:            tx.Category,
		Description:         tx.Description,
		Amount:              amountFloat(tx.Amount),
		OriginalDescription: tx.OriginalDescription,
		AccountName:         tx.AccountName,
		Notes:               tx.Notes,
	}
}

func (d transactionDoc) toModel() models.Transaction {
	return models.Transaction{
		ID:                  d.ID.Hex(),
		TransactionDate:     dateutils.TruncateDay(d.TransactionDate),
		PostedDate:          dateutils.TruncateDay(d.PostedDate),
		Description:         d.Description,
		OriginalDescription: d.OriginalDescription,
		Amount:              decimal.NewFromFloat(d.Amount),
		AccountName:         d.AccountName,
		Category:            d.Category,
		Notes:               d.Notes,
	}
}

func mongoFilter(f Filter) bson.M {
	q := bson.M{}
	if f.Amount != nil {
		q["amount"] = amountFloat(*f.Amount)
	}
	if f.Account != "" {
		q["account name"] = f.Account
	}
	posted := bson.M{}
	if !f.PostedFrom.IsZero() {
		posted["$gte"] = f.PostedFrom
	}
	if !f.PostedTo.IsZero() {
		posted["$lte"] = f.PostedTo
	}
	if len(posted) > 0 {
		q["posted date"] = posted
	}
	return q
}

// FindTransactions implements Store.
func (m *Mongo) FindTransactions(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	opts := options.Find()
	switch filter.Order {
	case PostedAsc:
		opts.SetSort(bson.D{{Key: "posted date", Value: 1}})
	case PostedDesc:
		opts.SetSort(bson.D{{Key: "posted date", Value: -1}})
	}

	cur, err := m.transactions.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	out := make([]models.Transaction, len(docs))
	for i, d := range docs {
		out[i] = d.toModel()
	}
	return out, nil
}

// Distinct implements Store.
func (m *Mongo) Distinct(ctx context.Context, field string) ([]string, error) {
	if field != FieldAccountName && field != FieldCategory {
		return nil, fmt.Errorf("distinct %q: %w", field, ErrUnknownField)
	}
	values, err := m.transactions.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// InsertTransactions implements Store. MongoDB without a replica set has no
// multi-document transactions, so a failed batch is rolled back by deleting
// the rows that made it in.
func (m *Mongo) InsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(txs))
	ids := make([]primitive.ObjectID, len(txs))
	for i, tx := range txs {
		d := toTransactionDoc(tx)
		d.ID = primitive.NewObjectID()
		ids[i] = d.ID
		docs[i] = d
	}

	_, err := m.transactions.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}

	if _, delErr := m.transactions.DeleteMany(context.WithoutCancel(ctx), bson.M{"_id": bson.M{"$in": ids}}); delErr != nil {
		m.logger.WithError(delErr).Error("Failed to roll back partial batch", logging.F(logging.FieldCount, len(ids)))
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert transactions: %w", ErrConflict)
	}
	return fmt.Errorf("failed to insert transactions: %w", err)
}

// LatestCategories implements Store with a $group aggregate over the
// account's transactions sorted by posted date.
func (m *Mongo) LatestCategories(ctx context.Context, account string) ([]CategoryHint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"account name": account}}},
		{{Key: "$sort", Value: bson.D{{Key: "posted date", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$original description",
			"posted date": bson.M{"$last": "$posted date"},
			"category":    bson.M{"$last": "$category"},
		}}},
	}
	cur, err := m.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	var rows []struct {
		Description string    `bson:"_id"`
		PostedDate  time.Time `bson:"posted date"`
		Category    string    `bson:"category"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	out := make([]CategoryHint, len(rows))
	for i, r := range rows {
		out[i] = CategoryHint{Description: r.Description, Category: r.Category, PostedDate: dateutils.TruncateDay(r.PostedDate)}
	}
	return out, nil
}

// Accounts implements Store.
func (m *Mongo) Accounts(ctx context.Context) ([]models.Account, error) {
	cur, err := m.accounts.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	out := make([]models.Account, len(docs))
	for i, d := range docs {
		out[i] = models.Account{Name: d.Name, Status: d.Status, InitialBalance: decimal.NewFromFloat(d.InitialBalance)}
	}
	return out, nil
}

// AddAccount implements Store.
func (m *Mongo) AddAccount(ctx context.Context, account models.Account) error {
	if err := validateName("account", account.Name); err != nil {
		return err
	}
	if account.Status == "" {
		account.Status = models.AccountStatusOpen
	}
	n, err := m.accounts.CountDocuments(ctx, bson.M{"account name": account.Name})
	if err != nil {
		return fmt.Errorf("failed to query accounts: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("account %q: %w", account.Name, ErrExists)
	}
	_, err = m.accounts.InsertOne(ctx, accountDoc{Name: account.Name, Status: account.Status, InitialBalance: amountFloat(account.InitialBalance)})
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// Categories implements Store.
func (m *Mongo) Categories(ctx context.Context) ([]models.Category, error) {
	cur, err := m.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	out := make([]models.Category, len(docs))
	for i, d := range docs {
		out[i] = models.Category{Name: d.Name, Parent: d.Parent, Hidden: d.Hidden}
	}
	return out, nil
}

// AddCategory implements Store.
func (m *Mongo) AddCategory(ctx context.Context, category models.Category) error {
	if err := validateName("category", category.Name); err != nil {
		return err
	}
	n, err := m.categories.CountDocuments(ctx, bson.M{"category name": category.Name})
	if err != nil {
		return fmt.Errorf("failed to query categories: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("category %q: %w", category.Name, ErrExists)
	}
	if _, err := m.categories.InsertOne(ctx, categoryDoc{Name: category.Name, Parent: category.Parent, Hidden: category.Hidden}); err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// BudgetItems implements Store.
func (m *Mongo) BudgetItems(ctx context.Context) ([]models.BudgetItem, error) {
	cur, err := m.budget.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	var docs []budgetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode budget: %w", err)
	}
	out := make([]models.BudgetItem, len(docs))
	for i, d := range docs {
		out[i] = models.BudgetItem{Category: d.Category, Value: decimal.NewFromFloat(d.Value), IsParent: d.IsParent}
	}
	return out, nil
}

// AddBudgetItem implements Store.
func (m *Mongo) AddBudgetItem(ctx context.Context, item models.BudgetItem) error {
	if err := validateName("category", item.Category); err != nil {
		return err
	}
	_, err := m.budget.UpdateOne(ctx,
		bson.M{"category": item.Category},
		bson.M{
			"$set":         bson.M{"value": amountFloat(item.Value)},
			"$setOnInsert": bson.M{"is_parent": item.IsParent},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save budget item: %w", err)
	}
	return nil
}

// Close implements Store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
