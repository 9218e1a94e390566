package config

import (
	"github.com/tendant/eligibility-idm/pkg/notification"
)

// EmailConfig holds SMTP email configuration. An empty host disables SMTP and
// invitations are written to the log instead.
type EmailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     uint16 `env:"SMTP_PORT" env-default:"1025"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"SMTP_TLS" env-default:"false"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
	}
}

func (e EmailConfig) IsConfigured() bool {
	return e.Host != ""
}
