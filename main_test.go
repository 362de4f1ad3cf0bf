package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpkit/connector/internal/accounts"
	"github.com/ilpkit/connector/internal/db/sqlite"
)

func TestSeedPeers(t *testing.T) {
	ctx := context.Background()
	store := accounts.NewStore()

	peers := []accounts.PeerAccount{
		{ID: "alice", HTTP: accounts.HTTPConfig{Incoming: accounts.IncomingHTTP{AuthTokens: []string{"a"}}}},
		{ID: "bob", HTTP: accounts.HTTPConfig{Incoming: accounts.IncomingHTTP{AuthTokens: []string{"b"}}}},
	}
	require.NoError(t, seedPeers(ctx, store, peers))
	// Reseeding is a no-op.
	require.NoError(t, seedPeers(ctx, store, peers))

	acc, err := store.GetByToken(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bob", acc.ID)

	conflict := []accounts.PeerAccount{
		{ID: "carol", HTTP: accounts.HTTPConfig{Incoming: accounts.IncomingHTTP{AuthTokens: []string{"a"}}}},
	}
	assert.ErrorIs(t, seedPeers(ctx, store, conflict), accounts.ErrTokenInUse)
}

func TestSeedPaymentPointers(t *testing.T) {
	ctx := context.Background()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "pointers.db"))
	require.NoError(t, err)
	defer db.Close()

	var cfg Config
	cfg.PaymentPointers = append(cfg.PaymentPointers, struct {
		ID         string `yaml:"id"`
		URL        string `yaml:"url"`
		AssetCode  string `yaml:"asset_code"`
		AssetScale uint8  `yaml:"asset_scale"`
	}{ID: "pp-1", URL: "https://wallet.example/alice", AssetCode: "USD", AssetScale: 2})
	// No id: matched by url on reseed.
	cfg.PaymentPointers = append(cfg.PaymentPointers, struct {
		ID         string `yaml:"id"`
		URL        string `yaml:"url"`
		AssetCode  string `yaml:"asset_code"`
		AssetScale uint8  `yaml:"asset_scale"`
	}{URL: "https://wallet.example/bob", AssetCode: "XRP", AssetScale: 9})

	require.NoError(t, seedPaymentPointers(ctx, db, cfg))
	require.NoError(t, seedPaymentPointers(ctx, db, cfg))

	pointers, err := db.ListPaymentPointers(ctx)
	require.NoError(t, err)
	require.Len(t, pointers, 2)

	pp, err := db.GetPaymentPointer(ctx, "pp-1")
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example/alice", pp.URL)
}
