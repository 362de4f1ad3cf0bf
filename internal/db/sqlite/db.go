package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// DB stores the local payment pointers quotes are sent from.
type DB interface {
	CreatePaymentPointer(context.Context, CreatePaymentPointerRequest) (*PaymentPointer, error)
	GetPaymentPointer(ctx context.Context, id string) (*PaymentPointer, error)
	GetPaymentPointerByURL(ctx context.Context, url string) (*PaymentPointer, error)
	ListPaymentPointers(context.Context) ([]PaymentPointer, error)

	DB() *sql.DB
	Close() error
}

// New opens (creating if needed) the payment pointer database at dbFile.
func New(dbFile string) (DB, error) {
	if dbFile == "" {
		return nil, fmt.Errorf("must set payment_pointer_db")
	}

	// The quote service reads pointers while the CLI may be writing them.
	db, err := sql.Open("sqlite3", "file:"+dbFile+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open payment pointer db: %w", err)
	}

	r := repo{db: db}
	if err := r.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("payment pointer schema: %w", err)
	}

	log.Printf("payment pointer db ready: %v\n", dbFile)
	return &r, nil
}

type repo struct {
	db *sql.DB
}

func (r *repo) DB() *sql.DB {
	return r.db
}

func (r *repo) Close() error {
	return r.db.Close()
}

// A payment pointer URL names exactly one wallet account, so two rows with
// the same url would let quotes for one sender split across ids.
// GetPaymentPointerByURL relies on the unique index for its lookups.
func (r *repo) createSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS payment_pointer (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    asset_code TEXT NOT NULL,
    asset_scale INTEGER NOT NULL CHECK (asset_scale BETWEEN 0 AND 255),
    created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_pointer_url ON payment_pointer(url);`

	_, err := r.db.Exec(schema)
	return err
}
