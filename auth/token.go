// Package auth resolves socket identities from HS256 tokens issued by the
// REST layer.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by REST-issued tokens.
type Claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("HS256 requires secret key")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Identity verifies tokenString and returns the identity it names.
func (v *Verifier) Identity(tokenString string) (domain.Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return domain.Identity{}, fmt.Errorf("%w: token cannot be empty", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing 'sub' claim", ErrInvalidToken)
	}
	if claims.Role == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing 'role' claim", ErrInvalidToken)
	}

	return domain.Identity{ID: claims.Subject, Username: claims.Username, Role: claims.Role}, nil
}

// Issue signs a token for identity the same way the REST layer does.
func (v *Verifier) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: identity.Username,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
