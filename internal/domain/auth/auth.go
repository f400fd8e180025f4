// Package auth resolves the caller of a request to a user and the merchant
// account that user operates.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrUnauthorized is returned when a request carries no credentials or
	// credentials that do not resolve to a user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoMerchantAccount is returned when the authenticated user has no
	// merchant account.
	ErrNoMerchantAccount = errors.New("merchant account required")
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	UserID  int64
	Scopes  []string
}

// APIKeyRepository provides lookup of API keys by their HMAC hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// MerchantRepository maps users to their merchant account.
type MerchantRepository interface {
	// MerchantIDByUser returns ErrNoMerchantAccount when the user has none.
	MerchantIDByUser(ctx context.Context, userID int64) (int64, error)
}

// Principal is the resolved identity of a request.
type Principal struct {
	UserID     int64
	MerchantID int64
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the Principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// MerchantID returns the merchant id of the request, or ErrUnauthorized when
// no merchant identity was resolved.
func MerchantID(ctx context.Context) (int64, error) {
	p, ok := FromContext(ctx)
	if !ok || p.MerchantID <= 0 {
		return 0, ErrUnauthorized
	}
	return p.MerchantID, nil
}
