package config

import (
	"errors"
	"time"
)

// RegistrationConfig controls invitation tokens and their delivery
type RegistrationConfig struct {
	// BaseURL overrides the origin taken from the request when building
	// invitation links, e.g. https://idm.example.com
	BaseURL string `env:"BASE_URL"`
	// TrustProxyHeaders honours X-Forwarded-Proto and X-Forwarded-Host. Enable
	// it only when every request passes through a proxy that sets them.
	TrustProxyHeaders   bool          `env:"TRUST_PROXY_HEADERS" env-default:"false"`
	TokenTTL            time.Duration `env:"REGISTRATION_TOKEN_TTL" env-default:"72h"`
	TokenMaxAttempts    int           `env:"REGISTRATION_TOKEN_MAX_ATTEMPTS" env-default:"5"`
	NotificationTimeout time.Duration `env:"NOTIFICATION_TIMEOUT" env-default:"10s"`
}

func (r RegistrationConfig) Validate() error {
	if r.TokenMaxAttempts < 1 {
		return errors.New("REGISTRATION_TOKEN_MAX_ATTEMPTS must be at least 1")
	}
	if r.TokenTTL <= 0 {
		return errors.New("REGISTRATION_TOKEN_TTL must be positive")
	}
	return nil
}
