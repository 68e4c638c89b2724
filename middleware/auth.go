package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/assetdesk/backend/models"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// MsgForbidden is the body of every 401 and 403 answer.
const MsgForbidden = "forbidden access"

// Principal is the caller identity decoded from a verified token.
type Principal struct {
	Email  string
	Claims jwt.MapClaims
}

type TokenVerifier interface {
	Verify(token string) (jwt.MapClaims, error)
}

// RoleLookup resolves the stored role of a user. found is false when no user
// has the email.
type RoleLookup interface {
	RoleByEmail(ctx context.Context, email string) (role string, found bool, err error)
}

// Verifier requires a valid bearer token and puts the Principal on the context.
type Verifier struct {
	Tokens TokenVerifier
}

func (v Verifier) Process(r *http.Request) (*http.Request, *Rejection) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil, &Rejection{Status: http.StatusUnauthorized, Message: MsgForbidden}
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, &Rejection{Status: http.StatusUnauthorized, Message: MsgForbidden}
	}
	claims, err := v.Tokens.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, &Rejection{Status: http.StatusUnauthorized, Message: MsgForbidden}
	}
	email, _ := claims["email"].(string)
	p := &Principal{Email: email, Claims: claims}
	return r.WithContext(WithPrincipal(r.Context(), p)), nil
}

// AdminGate admits only callers whose stored role is admin. It must run after Verifier.
type AdminGate struct {
	Roles RoleLookup
}

func (g AdminGate) Process(r *http.Request) (*http.Request, *Rejection) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return nil, &Rejection{Status: http.StatusUnauthorized, Message: MsgForbidden}
	}
	if p.Email == "" {
		return nil, &Rejection{Status: http.StatusForbidden, Message: MsgForbidden}
	}
	role, found, err := g.Roles.RoleByEmail(r.Context(), p.Email)
	if err != nil {
		return nil, &Rejection{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
	}
	if !found || role != models.RoleAdmin {
		return nil, &Rejection{Status: http.StatusForbidden, Message: MsgForbidden}
	}
	return r, nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
