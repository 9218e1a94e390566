package config

import "errors"

// RateLimitConfig limits requests per client address on the public
// credential routes, /login and /register/{token}.
type RateLimitConfig struct {
	Enabled   bool `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Burst     int  `env:"RATE_LIMIT_BURST" env-default:"10"`
	PerMinute int  `env:"RATE_LIMIT_PER_MINUTE" env-default:"10"`
}

func (r RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Burst < 1 || r.PerMinute < 1 {
		return errors.New("RATE_LIMIT_BURST and RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	return nil
}
