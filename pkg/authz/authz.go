// Package authz implements the single operator-token gate the diagnostics
// surface needs (spec §6): validating a JWT bearer token carrying a role
// claim before allowing a mutating request through. Adapted from the
// teacher's username/password/LDAP auth service, reduced to the one
// credential this core actually issues: pre-shared operator tokens, not
// interactive login.
package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the operator and their role.
type Claims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const RoleOperator = "operator"

var (
	ErrInvalidToken = errors.New("authz: invalid operator token")
	ErrTokenExpired = errors.New("authz: operator token expired")
)

// Authorizer validates operator tokens signed with one shared secret.
type Authorizer struct {
	secret []byte
}

// New returns an Authorizer using secret to verify signatures.
func New(secret string) *Authorizer {
	return &Authorizer{secret: []byte(secret)}
}

// Issue mints an operator token valid for ttl, the form the diagnostics
// surface's operator-facing tooling hands to callers out of band.
func (a *Authorizer) Issue(operator string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Operator: operator,
		Role:     RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Validate parses and verifies tokenString, returning the embedded claims.
func (a *Authorizer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
