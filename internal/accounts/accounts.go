package accounts

import "context"

// Service resolves peer accounts for inbound authentication.
// Lookups return (nil, nil) when no account matches.
type Service interface {
	GetByToken(ctx context.Context, token string) (*PeerAccount, error)
	GetByID(ctx context.Context, id string) (*PeerAccount, error)
	Create(ctx context.Context, account PeerAccount) (*PeerAccount, error)
}

type Asset struct {
	Code  string `json:"code" yaml:"code"`
	Scale uint8  `json:"scale" yaml:"scale"`
}

// PeerAccount is a configured counterparty connection.
type PeerAccount struct {
	ID     string       `json:"id" yaml:"id"`
	Asset  Asset        `json:"asset" yaml:"asset"`
	HTTP   HTTPConfig   `json:"http" yaml:"http"`
	Stream StreamConfig `json:"stream" yaml:"stream"`
}

type HTTPConfig struct {
	Incoming IncomingHTTP `json:"incoming" yaml:"incoming"`
	Outgoing OutgoingHTTP `json:"outgoing" yaml:"outgoing"`
}

type IncomingHTTP struct {
	AuthTokens []string `json:"authTokens" yaml:"auth_tokens"`
}

type OutgoingHTTP struct {
	AuthToken string `json:"authToken" yaml:"auth_token"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
}

type StreamConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// HasIncomingToken reports whether token authenticates inbound traffic
// for this account.
func (a *PeerAccount) HasIncomingToken(token string) bool {
	for _, t := range a.HTTP.Incoming.AuthTokens {
		if t == token {
			return true
		}
	}
	return false
}
