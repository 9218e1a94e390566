package config

import (
	"errors"
	"time"
)

// JWTConfig holds access token signing configuration
type JWTConfig struct {
	Secret            string        `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer            string        `env:"JWT_ISSUER" env-default:"eligibility-idm"`
	Audience          string        `env:"JWT_AUDIENCE" env-default:"eligibility-idm"`
	AccessTokenExpiry time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`
}

func (j JWTConfig) Validate() error {
	if j.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if j.AccessTokenExpiry <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRY must be positive")
	}
	return nil
}
