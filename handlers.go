package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ilpkit/connector/internal/accounts"
	"github.com/ilpkit/connector/internal/auth"
	"github.com/ilpkit/connector/internal/quote"
)

type handlers struct {
	quotes quoteService
}

type quoteService interface {
	Create(context.Context, quote.CreateOptions) (*quote.Quote, error)
	Get(ctx context.Context, id string) (*quote.Quote, error)
}

// handleCreateQuote prices a payment and always answers with a quote
// envelope. The HTTP status mirrors the envelope code.
func (h *handlers) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var (
		ctx  = r.Context()
		opts quote.CreateOptions
	)

	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		log.Printf("err: decode quote request: %v", err)
		resp := quote.CreateResponse(nil, quote.InvalidAmount)
		writeJSON(w, resp.Status(), resp)
		return
	}

	q, err := h.quotes.Create(ctx, opts)
	resp := quote.CreateResponse(q, err)
	writeJSON(w, resp.Status(), resp)
}

// handleGetQuote fetches a quote by id
func (h *handlers) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	var (
		ctx = r.Context()
		id  = chi.URLParam(r, "id")
	)

	q, err := h.quotes.Get(ctx, id)
	if err != nil {
		log.Printf("err: quotes.Get: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if q == nil {
		http.Error(w, quote.ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

type accountView struct {
	ID     string                `json:"id"`
	Asset  accounts.Asset        `json:"asset"`
	Stream accounts.StreamConfig `json:"stream"`
}

// handleGetAccount returns the account the request authenticated as.
// Credentials are never echoed.
func (h *handlers) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, auth.ErrUnauthorized.Message, auth.ErrUnauthorized.Status)
		return
	}

	writeJSON(w, http.StatusOK, accountView{
		ID:     account.ID,
		Asset:  account.Asset,
		Stream: account.Stream,
	})
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonb, err := json.Marshal(v)
	if err != nil {
		log.Printf("err: marshal response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonb)
}
