package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ilpkit/connector/internal/accounts"
)

// unique_violation
const pqUniqueViolation = "23505"

func New(dbConnStr string) (*Repo, error) {
	db, err := sqlx.Connect("postgres", dbConnStr)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Connect: %w", err)
	}

	// sqlx default is 0 (unlimited), while postgresql by default accepts up to 100 connections
	db.SetMaxOpenConns(80)

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS peer_account (
	id TEXT PRIMARY KEY,
	asset_code TEXT NOT NULL,
	asset_scale SMALLINT NOT NULL,
	outgoing_auth_token TEXT NOT NULL DEFAULT '',
	outgoing_endpoint TEXT NOT NULL DEFAULT '',
	stream_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS peer_account_token (
	token TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES peer_account(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS accountidx ON peer_account_token(account_id);
    `)
	if err != nil {
		return nil, fmt.Errorf("db.Exec schema: %w", err)
	}

	return &Repo{
		db: db,
	}, nil
}

type Repo struct {
	db *sqlx.DB
}

type accountRow struct {
	ID                string `db:"id"`
	AssetCode         string `db:"asset_code"`
	AssetScale        int    `db:"asset_scale"`
	OutgoingAuthToken string `db:"outgoing_auth_token"`
	OutgoingEndpoint  string `db:"outgoing_endpoint"`
	StreamEnabled     bool   `db:"stream_enabled"`
}

func (r *Repo) GetByToken(ctx context.Context, token string) (*accounts.PeerAccount, error) {
	const query = `SELECT a.id, a.asset_code, a.asset_scale, a.outgoing_auth_token, a.outgoing_endpoint, a.stream_enabled
FROM peer_account a JOIN peer_account_token t ON t.account_id = a.id
WHERE t.token=$1;`

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.Get account by token: %w", err)
	}

	return r.hydrate(ctx, row)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*accounts.PeerAccount, error) {
	const query = `SELECT id, asset_code, asset_scale, outgoing_auth_token, outgoing_endpoint, stream_enabled
FROM peer_account WHERE id=$1;`

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.Get account: %w", err)
	}

	return r.hydrate(ctx, row)
}

func (r *Repo) List(ctx context.Context) ([]accounts.PeerAccount, error) {
	const query = `SELECT id, asset_code, asset_scale, outgoing_auth_token, outgoing_endpoint, stream_enabled
FROM peer_account ORDER BY id;`

	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("db.Select accounts: %w", err)
	}

	list := make([]accounts.PeerAccount, 0, len(rows))
	for _, row := range rows {
		acc, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		list = append(list, *acc)
	}

	return list, nil
}

func (r *Repo) Create(ctx context.Context, acc accounts.PeerAccount) (*accounts.PeerAccount, error) {
	if acc.ID == "" {
		return nil, accounts.ErrMissingID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db.Begin: %w", err)
	}
	defer tx.Rollback()

	row := accountRow{
		ID:                acc.ID,
		AssetCode:         acc.Asset.Code,
		AssetScale:        int(acc.Asset.Scale),
		OutgoingAuthToken: acc.HTTP.Outgoing.AuthToken,
		OutgoingEndpoint:  acc.HTTP.Outgoing.Endpoint,
		StreamEnabled:     acc.Stream.Enabled,
	}
	query, args, err := sqlx.Named(`INSERT INTO peer_account (id, asset_code, asset_scale, outgoing_auth_token, outgoing_endpoint, stream_enabled)
VALUES (:id, :asset_code, :asset_scale, :outgoing_auth_token, :outgoing_endpoint, :stream_enabled);`, row)
	if err != nil {
		return nil, fmt.Errorf("sqlx.Named createAccount: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", accounts.ErrAccountExists, acc.ID)
		}
		return nil, fmt.Errorf("tx.Exec createAccount: %w", err)
	}

	for _, token := range acc.HTTP.Incoming.AuthTokens {
		_, err := tx.ExecContext(ctx, `INSERT INTO peer_account_token (token, account_id) VALUES ($1, $2);`, token, acc.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, accounts.ErrTokenInUse
			}
			return nil, fmt.Errorf("tx.Exec createToken: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return r.GetByID(ctx, acc.ID)
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) hydrate(ctx context.Context, row accountRow) (*accounts.PeerAccount, error) {
	var tokens []string
	const query = `SELECT token FROM peer_account_token WHERE account_id=$1 ORDER BY token;`
	if err := r.db.SelectContext(ctx, &tokens, query, row.ID); err != nil {
		return nil, fmt.Errorf("db.Select tokens: %w", err)
	}

	return &accounts.PeerAccount{
		ID: row.ID,
		Asset: accounts.Asset{
			Code:  row.AssetCode,
			Scale: uint8(row.AssetScale),
		},
		HTTP: accounts.HTTPConfig{
			Incoming: accounts.IncomingHTTP{AuthTokens: tokens},
			Outgoing: accounts.OutgoingHTTP{
				AuthToken: row.OutgoingAuthToken,
				Endpoint:  row.OutgoingEndpoint,
			},
		},
		Stream: accounts.StreamConfig{Enabled: row.StreamEnabled},
	}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
