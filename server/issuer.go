package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by issued tokens.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Minted is an issued token together with its scope and absolute expiry.
type Minted struct {
	Token     string
	Scope     string
	ExpiresAt time.Time
}

// Issuer mints and verifies the HS256 bearer tokens served by the token
// endpoint. Each token carries its scope, a unique jti and the issuer name.
type Issuer struct {
	secret []byte
	name   string
	now    func() time.Time
}

// NewIssuer creates an issuer signing with secret and stamping name into
// the iss claim.
func NewIssuer(secret, name string) *Issuer {
	return &Issuer{secret: []byte(secret), name: name, now: time.Now}
}

// Issue mints a token for scope valid for ttl.
func (i *Issuer) Issue(scope string, ttl time.Duration) (*Minted, error) {
	if scope == "" {
		return nil, fmt.Errorf("scope cannot be empty")
	}
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.name,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Minted{Token: signed, Scope: scope, ExpiresAt: expiresAt}, nil
}

// Verify parses a token minted by Issue and returns its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.name))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
