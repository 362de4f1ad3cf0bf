package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentPointer is a local account that can send payments.
type PaymentPointer struct {
	ID         string
	URL        string
	AssetCode  string
	AssetScale uint8
	CreatedAt  time.Time
}

type CreatePaymentPointerRequest struct {
	// ID is generated when empty.
	ID         string
	URL        string
	AssetCode  string
	AssetScale uint8
}

func (r *repo) CreatePaymentPointer(ctx context.Context, req CreatePaymentPointerRequest) (*PaymentPointer, error) {
	if req.URL == "" || req.AssetCode == "" {
		return nil, fmt.Errorf("payment pointer url and asset code required")
	}

	stmt, err := r.db.PrepareContext(ctx, "INSERT INTO payment_pointer (id, url, asset_code, asset_scale, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	pp := &PaymentPointer{
		ID:         req.ID,
		URL:        req.URL,
		AssetCode:  req.AssetCode,
		AssetScale: req.AssetScale,
		CreatedAt:  time.Now().UTC(),
	}
	if pp.ID == "" {
		pp.ID = uuid.New().String()
	}

	if _, err := stmt.ExecContext(ctx, pp.ID, pp.URL, pp.AssetCode, pp.AssetScale, pp.CreatedAt); err != nil {
		return nil, err
	}

	return pp, nil
}

// GetPaymentPointer returns nil, nil when no pointer has the id.
func (r *repo) GetPaymentPointer(ctx context.Context, id string) (*PaymentPointer, error) {
	return r.getBy(ctx, "id", id)
}

// GetPaymentPointerByURL returns nil, nil when no pointer has the url.
func (r *repo) GetPaymentPointerByURL(ctx context.Context, url string) (*PaymentPointer, error) {
	return r.getBy(ctx, "url", url)
}

func (r *repo) getBy(ctx context.Context, column, value string) (*PaymentPointer, error) {
	var pp PaymentPointer

	row := r.db.QueryRowContext(ctx, "SELECT id, url, asset_code, asset_scale, created_at FROM payment_pointer WHERE "+column+"=?", value)

	err := row.Scan(&pp.ID, &pp.URL, &pp.AssetCode, &pp.AssetScale, &pp.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query payment pointer by %s: %w", column, err)
	}

	return &pp, nil
}

func (r *repo) ListPaymentPointers(ctx context.Context) ([]PaymentPointer, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, url, asset_code, asset_scale, created_at FROM payment_pointer ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pointers []PaymentPointer

	for rows.Next() {
		var pp PaymentPointer
		if err := rows.Scan(&pp.ID, &pp.URL, &pp.AssetCode, &pp.AssetScale, &pp.CreatedAt); err != nil {
			return nil, err
		}
		pointers = append(pointers, pp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pointers, nil
}
