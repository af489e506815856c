// Package auth carries request-scoped identity. Token verification is an
// external collaborator; this package fixes its contract and provides a
// static implementation for development and tests.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the verified caller passed into every core operation. It is
// always explicit, never ambient state.
type Identity struct {
	UserID domain.UserID
	Role   Role
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Verifier resolves a bearer credential to an identity, or fails with
// domain.ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticVerifier maps fixed tokens to identities. Token format per entry:
// "token:userID" for users; the admin token is configured separately.
type StaticVerifier struct {
	tokens map[string]Identity
}

func NewStaticVerifier(adminToken, userTokensCSV string) *StaticVerifier {
	v := &StaticVerifier{tokens: make(map[string]Identity)}
	if adminToken != "" {
		v.tokens[adminToken] = Identity{UserID: "admin", Role: RoleAdmin}
	}
	for _, pair := range strings.Split(userTokensCSV, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || token == "" || userID == "" {
			continue
		}
		v.tokens[token] = Identity{UserID: domain.UserID(userID), Role: RoleUser}
	}
	return v
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return Identity{}, fmt.Errorf("unknown token: %w", domain.ErrUnauthorized)
	}
	return id, nil
}

type ctxKey int

const identityKey ctxKey = iota

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
