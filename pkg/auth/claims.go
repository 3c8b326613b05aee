package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims accepted by the churn service.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
}

// HasScope reports whether the claims grant scope. ScopeAdmin grants every scope.
func (c Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope) || slices.Contains(c.Scopes, ScopeAdmin)
}

// Scope constants
const (
	ScopePredict = "churn:predict"
	ScopeRead    = "churn:read"
	ScopeAdmin   = "churn:admin"
)
