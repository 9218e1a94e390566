// Package tokengenerator mints and parses the HS256 access tokens handed out
// at login. Tokens identify the user only; roles are always read from the
// role store.
package tokengenerator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenGenerator interface defines methods for token operations
type TokenGenerator interface {
	// GenerateToken returns a signed token for subject and its expiry time.
	// extraClaims are added at the root of the claim set.
	GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error)

	ParseToken(tokenStr string) (*jwt.Token, error)
}

// UserIDClaim carries the user id next to sub.
const UserIDClaim = "user_id"

// JwtTokenGenerator implements the TokenGenerator interface
type JwtTokenGenerator struct {
	Secret   string
	Issuer   string
	Audience string

	now func() time.Time
}

func NewJwtTokenGenerator(secret, issuer, audience string) *JwtTokenGenerator {
	return &JwtTokenGenerator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
		now:      time.Now,
	}
}

func (g *JwtTokenGenerator) GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error) {
	now := g.now().UTC()
	expiresAt := now.Add(expiry)

	claims := jwt.MapClaims{}
	for k, v := range extraClaims {
		claims[k] = v
	}
	claims["sub"] = subject
	claims[UserIDClaim] = subject
	claims["iss"] = g.Issuer
	claims["aud"] = []string{g.Audience}
	claims["iat"] = jwt.NewNumericDate(now)
	claims["nbf"] = jwt.NewNumericDate(now.Add(-5 * time.Minute))
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	claims["jti"] = uuid.New().String()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", time.Time{}, err
	}
	return ss, jwt.NewNumericDate(expiresAt).Time, nil
}

// ParseToken parses and validates a token string signed by g.
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(g.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.Issuer),
		jwt.WithAudience(g.Audience),
	)
	if err != nil {
		return token, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return token, fmt.Errorf("token invalid")
	}
	return token, nil
}
