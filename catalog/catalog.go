// Package catalog stores the products served by the storefront.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no product has the requested ID.
	ErrNotFound = errors.New("product not found")
	// ErrPreconditionFailed is returned by PutIf when the check rejects the
	// stored product.
	ErrPreconditionFailed = errors.New("product precondition failed")
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Catalog is a product store.
//
// Implementations must be thread-safe!
type Catalog interface {
	// List returns all products ordered by name.
	List(ctx context.Context) ([]Product, error)
	// Get returns the product with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (Product, error)
	// Put creates or replaces a product. A product without an ID gets a new
	// one. The stored product is returned.
	Put(ctx context.Context, p Product) (Product, error)
	// PutIf replaces a product only if check accepts the stored version.
	// check is called with found set to false if there is none. No other
	// write happens between the check and the write.
	PutIf(ctx context.Context, p Product, check func(current Product, found bool) bool) (Product, error)
	// Delete removes a product, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

type SQLiteCatalog struct {
	db         *sql.DB
	writeMutex *sync.Mutex
	now        func() time.Time
}

// NewSQLiteCatalog opens the catalog with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteCatalog(filename string) (SQLiteCatalog, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return SQLiteCatalog{}, fmt.Errorf("open catalog: %w", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_cents INTEGER NOT NULL,
			stock INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS name_idx ON products (name)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return SQLiteCatalog{}, fmt.Errorf("init catalog: %w", err)
		}
	}
	return SQLiteCatalog{
		db:         db,
		writeMutex: &sync.Mutex{},
		now:        time.Now,
	}, nil
}

func (s SQLiteCatalog) Close() error {
	return s.db.Close()
}

func (s SQLiteCatalog) List(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, name, description, price_cents, stock, updated_at
		FROM products ORDER BY name, id`)
	if err != nil {
		return products, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return products, fmt.Errorf("list products: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s SQLiteCatalog) Get(ctx context.Context, id string) (Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, name, description, price_cents, stock, updated_at
		FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s SQLiteCatalog) Put(ctx context.Context, p Product) (Product, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	return s.put(ctx, p)
}

func (s SQLiteCatalog) PutIf(ctx context.Context, p Product, check func(current Product, found bool) bool) (Product, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	current, err := s.Get(ctx, p.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Product{}, err
	}
	if !check(current, err == nil) {
		return Product{}, ErrPreconditionFailed
	}
	return s.put(ctx, p)
}

// put writes p; the caller holds writeMutex.
func (s SQLiteCatalog) put(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	// second precision, like the stored value
	p.UpdatedAt = time.Unix(s.now().Unix(), 0).UTC()
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO products
		(id, name, description, price_cents, stock, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.UpdatedAt.Unix())
	if err != nil {
		return Product{}, fmt.Errorf("put product %s: %w", p.ID, err)
	}
	return p, nil
}

func (s SQLiteCatalog) Delete(ctx context.Context, id string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed stores the given products if the catalog is empty.
func (s SQLiteCatalog) Seed(ctx context.Context, products []Product) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, p := range products {
		if _, err := s.Put(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var p Product
	var updated int64
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &updated); err != nil {
		return Product{}, err
	}
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}
