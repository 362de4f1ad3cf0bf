package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ilpkit/connector/internal/accounts"
)

const bearerRequired = "Bearer token required in Authorization header"

var (
	ErrUnauthorized = &Error{Status: http.StatusUnauthorized, Message: bearerRequired}

	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_auth_failures_total",
		Help: "Inbound requests rejected by the auth middleware.",
	}, []string{"scope"})
)

// Error is an authentication failure. Missing, malformed and unknown
// credentials all produce the same Error.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Resolver maps a bearer token to an account. It returns (nil, nil) when
// nothing matches.
type Resolver func(ctx context.Context, token string) (*accounts.PeerAccount, error)

// PeerResolver matches tokens against each account's incoming auth tokens.
func PeerResolver(svc accounts.Service) Resolver {
	return svc.GetByToken
}

// AdminResolver matches tokens against account ids.
//
// An account id is an identifier rather than a secret, so this grants admin
// scope to anyone who learns it. Kept for compatibility with existing peers.
func AdminResolver(svc accounts.Service) Resolver {
	return svc.GetByID
}

// Authenticate resolves the Authorization header value to an account.
func Authenticate(ctx context.Context, header string, resolve Resolver) (*accounts.PeerAccount, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrUnauthorized
	}

	account, err := resolve(ctx, token)
	if err != nil {
		log.Printf("auth: resolve token: %v", err)
		return nil, ErrUnauthorized
	}
	if account == nil {
		return nil, ErrUnauthorized
	}

	return account, nil
}

// Middleware authenticates every request with resolve and binds the
// account to the request context. scope labels metrics only.
func Middleware(resolve Resolver, scope string) func(http.Handler) http.Handler {
	failures := authFailures.WithLabelValues(scope)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := Authenticate(r.Context(), r.Header.Get("Authorization"), resolve)
			if err != nil {
				failures.Inc()
				http.Error(w, ErrUnauthorized.Message, ErrUnauthorized.Status)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

type accountContextKey struct{}

func WithAccount(ctx context.Context, account *accounts.PeerAccount) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext returns the account bound by Middleware.
func AccountFromContext(ctx context.Context) (*accounts.PeerAccount, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*accounts.PeerAccount)
	if !ok || account == nil {
		return nil, false
	}
	return account, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
