package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ilpkit/connector/internal/accounts"
	"github.com/ilpkit/connector/internal/accounts/repo/pg"
	"github.com/ilpkit/connector/internal/auth"
	"github.com/ilpkit/connector/internal/db/sqlite"
	"github.com/ilpkit/connector/internal/probe"
	"github.com/ilpkit/connector/internal/quote"
	"github.com/ilpkit/connector/internal/quotestore"
	"github.com/ilpkit/connector/internal/receiver"
)

var (
	commit    string
	buildDate string
)

func main() {
	ctx := context.Background()

	configPath := flag.String("config", "", "location of config file. If non is specified config will be loaded from the environment")
	flag.Parse()

	log.Printf("build info: commit: %v date: %v\n", commit, buildDate)

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		log.Printf("loading config from file %q\n", *configPath)
		err = cfg.Load(*configPath)
	} else {
		log.Println("loading config from env")
		err = cfg.LoadFromEnv()
	}
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	// Accounts setup
	var accts accounts.Service
	if cfg.AccountsDB != "" {
		repo, err := pg.New(cfg.AccountsDB)
		if err != nil {
			log.Printf("accounts db err: %v\n", err)
			os.Exit(1)
		}
		defer repo.Close()
		accts = repo
	} else {
		accts = accounts.NewStore()
	}
	if err := seedPeers(ctx, accts, cfg.Peers); err != nil {
		log.Printf("seed peers err: %v\n", err)
		os.Exit(1)
	}

	// Storage setup
	pointers, err := sqlite.New(cfg.PaymentPointerDB)
	if err != nil {
		log.Printf("payment pointer db err: %v\n", err)
		os.Exit(1)
	}
	defer pointers.Close()
	if err := seedPaymentPointers(ctx, pointers, cfg); err != nil {
		log.Printf("seed payment pointers err: %v\n", err)
		os.Exit(1)
	}

	quotes, err := quotestore.New(cfg.QuoteDB)
	if err != nil {
		log.Printf("quote db err: %v\n", err)
		os.Exit(1)
	}
	defer quotes.Close()

	// Quoting setup
	prober, err := newProber(cfg)
	if err != nil {
		log.Printf("prober err: %v\n", err)
		os.Exit(1)
	}

	svc, err := quote.New(pointers, receiver.New(cfg.ReceiverTimeout), prober, quotes, cfg.QuoteTTL)
	if err != nil {
		log.Printf("quote service err: %v\n", err)
		os.Exit(1)
	}

	h := handlers{
		quotes: svc,
	}

	r := newRouter(&h, accts, newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	port := fmt.Sprintf(":%d", cfg.Port)

	log.Printf("api listening on %v\n", port)

	if err := http.ListenAndServe(port, otelhttp.NewHandler(r, "connector")); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Println(err)
		os.Exit(1)
	}
}

func newRouter(h *handlers, accts accounts.Service, limiter *rateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metricsMiddleware)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Peer scope: incoming http tokens.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.PeerResolver(accts), "peer"))
		r.Use(limiter.Middleware)

		r.Post("/quotes", h.handleCreateQuote)
		r.Get("/quotes/{id}", h.handleGetQuote)
		r.Get("/account", h.handleGetAccount)
	})

	// Admin scope: the account id is the credential.
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(auth.AdminResolver(accts), "admin"))
		r.Use(limiter.Middleware)

		r.Get("/account", h.handleGetAccount)
		r.Get("/quotes/{id}", h.handleGetQuote)
		r.Post("/quotes", h.handleCreateQuote)
	})

	return r
}

// newProber picks the configured rate source and wraps it with retries.
func newProber(cfg Config) (probe.Prober, error) {
	var (
		p   probe.Prober
		err error
	)
	switch {
	case cfg.ProbeEndpoint != "":
		p, err = probe.NewHTTPProber(cfg.ProbeEndpoint, cfg.ProbeAuthToken)
	case len(cfg.StaticRates) > 0:
		log.Println("no probe_endpoint set, using static_rates")
		p, err = probe.NewStaticProber(cfg.StaticRates, cfg.StaticSpread, cfg.StaticMaxPacket)
	default:
		return nil, fmt.Errorf("must set probe_endpoint or static_rates")
	}
	if err != nil {
		return nil, err
	}

	return probe.NewRetrying(p,
		probe.WithRetryPolicy(cfg.ProbeMaxAttempts, cfg.ProbeMinBackoff, cfg.ProbeMaxBackoff),
		probe.WithAttemptTimeout(cfg.ProbeTimeout),
	), nil
}

func seedPeers(ctx context.Context, accts accounts.Service, peers []accounts.PeerAccount) error {
	for _, peer := range peers {
		_, err := accts.Create(ctx, peer)
		switch {
		case err == nil:
			log.Printf("seeded peer account %q\n", peer.ID)
		case errors.Is(err, accounts.ErrAccountExists):
			// already provisioned
		default:
			return fmt.Errorf("peer %q: %w", peer.ID, err)
		}
	}
	return nil
}

func seedPaymentPointers(ctx context.Context, db sqlite.DB, cfg Config) error {
	for _, pp := range cfg.PaymentPointers {
		var (
			existing *sqlite.PaymentPointer
			err      error
		)
		if pp.ID != "" {
			existing, err = db.GetPaymentPointer(ctx, pp.ID)
		} else {
			existing, err = db.GetPaymentPointerByURL(ctx, pp.URL)
		}
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		created, err := db.CreatePaymentPointer(ctx, sqlite.CreatePaymentPointerRequest{
			ID:         pp.ID,
			URL:        pp.URL,
			AssetCode:  pp.AssetCode,
			AssetScale: pp.AssetScale,
		})
		if err != nil {
			return fmt.Errorf("payment pointer %q: %w", pp.URL, err)
		}
		log.Printf("seeded payment pointer %v (%v)\n", created.ID, created.URL)
	}
	return nil
}
