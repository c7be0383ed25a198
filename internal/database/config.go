package database

import (
	"fmt"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/config"
)

// Config holds database connection configuration.
type Config struct {
	// Driver specifies which database to use: "sqlite" or "postgres"
	Driver string

	// SQLite configuration
	SQLitePath string

	// PostgreSQL configuration
	Postgres PostgresConfig
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns a lib/pq connection string.
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// DefaultConfig returns a Config with sensible defaults for SQLite.
func DefaultConfig(sqlitePath string) Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: sqlitePath,
	}
}

// DefaultPostgresConfig returns PostgresConfig with recommended pool settings.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// FromSettings converts the game configuration's database section.
func FromSettings(s config.DatabaseConfig) Config {
	return Config{
		Driver:     s.Driver,
		SQLitePath: s.SQLitePath,
		Postgres: PostgresConfig{
			Host:            s.Postgres.Host,
			Port:            s.Postgres.Port,
			User:            s.Postgres.User,
			Password:        s.Postgres.Password,
			Database:        s.Postgres.Database,
			SSLMode:         s.Postgres.SSLMode,
			MaxOpenConns:    s.Postgres.MaxOpenConns,
			MaxIdleConns:    s.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(s.Postgres.ConnMaxLifetimeSeconds) * time.Second,
		},
	}
}
