package main

import (
	"context"

	"github.com/ilpkit/connector/internal/quote"
)

type mockQuoteService struct {
	CreateQuote *quote.Quote
	CreateErr   error
	GetQuote    *quote.Quote
	GetErr      error

	CreateOpts quote.CreateOptions
	GetID      string
}

func (m *mockQuoteService) Create(ctx context.Context, opts quote.CreateOptions) (*quote.Quote, error) {
	m.CreateOpts = opts
	return m.CreateQuote, m.CreateErr
}

func (m *mockQuoteService) Get(ctx context.Context, id string) (*quote.Quote, error) {
	m.GetID = id
	return m.GetQuote, m.GetErr
}
