package config

import (
	"fmt"

	dbutils "github.com/tendant/db-utils/db"
)

const (
	PersistencePostgres = "postgres"
	PersistenceSQLite   = "sqlite"
)

// DatabaseConfig holds the storage backend selection and PostgreSQL settings
type DatabaseConfig struct {
	Persistence string `env:"IDM_PERSISTENCE" env-default:"postgres"`
	SQLiteDSN   string `env:"IDM_SQLITE_DSN" env-default:"file:idm.db?cache=shared&_pragma=foreign_keys(1)"`
	Host        string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port        uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database    string `env:"IDM_PG_DATABASE" env-default:"idm_db"`
	User        string `env:"IDM_PG_USER" env-default:"idm"`
	Password    string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
}

// ToDbConfig converts the config to a db-utils DbConfig
func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

func (d DatabaseConfig) Validate() error {
	switch d.Persistence {
	case PersistencePostgres, PersistenceSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported IDM_PERSISTENCE %q, expected %q or %q", d.Persistence, PersistencePostgres, PersistenceSQLite)
	}
}
