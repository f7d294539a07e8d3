// Package auth resolves the caller identity from a bearer credential.
package auth

import (
	"context"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/models"
)

// AccountFinder is the slice of the account store the gate needs.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// Identity is the resolved caller for one request. It is only produced by
// the Gate and is read-only.
type Identity struct {
	account models.Account
}

func (i *Identity) ID() string {
	return i.account.ID
}

// Account returns a copy of the account snapshot taken at authentication.
func (i *Identity) Account() models.Account {
	return i.account.Clone()
}

// Gate turns a raw token into an Identity.
type Gate struct {
	codec    *TokenCodec
	accounts AccountFinder
}

func NewGate(codec *TokenCodec, accounts AccountFinder) *Gate {
	return &Gate{codec: codec, accounts: accounts}
}

// Authenticate returns (nil, nil) for an empty token. A token that does not
// verify, or whose account no longer exists, is CodeUnauthenticated. Any
// other store failure is returned unchanged.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, nil
	}

	accountID, err := g.codec.Verify(rawToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "user is not authenticated", err)
	}

	acc, err := g.accounts.FindByID(ctx, accountID)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "user is not authenticated", err)
	}
	if err != nil {
		return nil, err
	}
	return &Identity{account: acc.Clone()}, nil
}

// we are doing this to avoid collision with other context keys
type identityContextKey struct{}

// WithIdentity attaches the resolved identity to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity attached to ctx, or nil for anonymous callers.
func IdentityFromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
