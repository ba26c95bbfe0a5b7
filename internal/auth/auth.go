package auth

import "context"

// Identity is the outcome of a completed OAuth code exchange.
type Identity struct {
	Email     string
	TokenJSON []byte
}

type Authenticator interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Identity, error)
}
