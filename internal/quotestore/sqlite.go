package quotestore

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ilpkit/connector/internal/amount"
	"github.com/ilpkit/connector/internal/quote"
)

type QuoteStore interface {
	Create(context.Context, *quote.Quote) (*quote.Quote, error)
	Get(ctx context.Context, id string) (*quote.Quote, error)
	ListByPaymentPointer(ctx context.Context, paymentPointerID string) ([]quote.Quote, error)
	Close() error
}

func New(dbFile string) (QuoteStore, error) {
	if dbFile == "" {
		return nil, fmt.Errorf("must set quote_db")
	}

	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return nil, err
	}

	s := quoteStore{
		dbFile: dbFile,
		DB:     db,
	}

	if err := s.createSchema(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Fixed width so timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type quoteStore struct {
	dbFile string
	DB     *sql.DB
}

const quoteColumns = `id, payment_pointer_id, receiver,
	send_value, send_asset_code, send_asset_scale,
	receive_value, receive_asset_code, receive_asset_scale,
	max_packet_amount, min_rate, low_rate, high_rate,
	created_at, expires_at`

func (s *quoteStore) Create(ctx context.Context, q *quote.Quote) (*quote.Quote, error) {
	const insert = `insert into quote(` + quoteColumns + `) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := s.DB.PrepareContext(ctx, insert)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	maxPacket := "0"
	if q.MaxPacketAmount != nil {
		maxPacket = q.MaxPacketAmount.String()
	}

	_, err = stmt.ExecContext(ctx,
		id,
		q.PaymentPointerID,
		q.Receiver,
		valueString(q.SendAmount),
		q.SendAmount.AssetCode,
		q.SendAmount.AssetScale,
		valueString(q.ReceiveAmount),
		q.ReceiveAmount.AssetCode,
		q.ReceiveAmount.AssetScale,
		maxPacket,
		q.MinExchangeRate,
		q.LowEstimatedExchangeRate,
		q.HighEstimatedExchangeRate,
		q.CreatedAt.UTC().Format(timeFormat),
		q.ExpiresAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Get returns nil, nil when no quote has the id.
func (s *quoteStore) Get(ctx context.Context, id string) (*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote WHERE id=?;`

	q, err := scanQuote(s.DB.QueryRowContext(ctx, query, id))
	switch err {
	case nil:
		return q, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to query quote: %w", err)
	}
}

func (s *quoteStore) ListByPaymentPointer(ctx context.Context, paymentPointerID string) ([]quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote WHERE payment_pointer_id=? ORDER BY created_at;`

	rows, err := s.DB.QueryContext(ctx, query, paymentPointerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

func (s *quoteStore) Close() error {
	return s.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (*quote.Quote, error) {
	var (
		q                                  quote.Quote
		sendValue, receiveValue, maxPacket string
		sendCode, receiveCode              string
		sendScale, receiveScale            uint8
		createdAt, expiresAt               string
	)

	err := row.Scan(
		&q.ID,
		&q.PaymentPointerID,
		&q.Receiver,
		&sendValue,
		&sendCode,
		&sendScale,
		&receiveValue,
		&receiveCode,
		&receiveScale,
		&maxPacket,
		&q.MinExchangeRate,
		&q.LowEstimatedExchangeRate,
		&q.HighEstimatedExchangeRate,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if q.SendAmount, err = amount.Parse(sendValue, sendCode, sendScale); err != nil {
		return nil, fmt.Errorf("failed to decode send amount: %w", err)
	}
	if q.ReceiveAmount, err = amount.Parse(receiveValue, receiveCode, receiveScale); err != nil {
		return nil, fmt.Errorf("failed to decode receive amount: %w", err)
	}

	var ok bool
	if q.MaxPacketAmount, ok = new(big.Int).SetString(maxPacket, 10); !ok {
		return nil, fmt.Errorf("failed to decode max_packet_amount %q", maxPacket)
	}

	q.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode created_at timestamp: %w", err)
	}
	q.ExpiresAt, err = time.Parse(timeFormat, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode expires_at timestamp: %w", err)
	}

	return &q, nil
}

func valueString(a amount.Amount) string {
	if a.Value == nil {
		return "0"
	}
	return a.Value.String()
}

func (s *quoteStore) createSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS quote(
		id TEXT PRIMARY KEY,
		payment_pointer_id TEXT NOT NULL,
		receiver TEXT NOT NULL,
		send_value TEXT NOT NULL,
		send_asset_code TEXT NOT NULL,
		send_asset_scale INTEGER NOT NULL,
		receive_value TEXT NOT NULL,
		receive_asset_code TEXT NOT NULL,
		receive_asset_scale INTEGER NOT NULL,
		max_packet_amount TEXT NOT NULL,
		min_rate TEXT NOT NULL,
		low_rate TEXT NOT NULL,
		high_rate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payment_pointer_id ON quote(payment_pointer_id);`

	if _, err := s.DB.Exec(schema); err != nil {
		return err
	}

	return nil
}
