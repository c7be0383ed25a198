// Package database provides SQLite and PostgreSQL persistence for players,
// inventories and world-boss state.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Sentinel errors returned by persistence operations.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrBossNotActive  = errors.New("world boss is not active")
	ErrBossOnCooldown = errors.New("world boss attack on cooldown")
	ErrAlreadySettled = errors.New("world boss already settled")
	ErrRealmConflict  = errors.New("realm session changed concurrently")
)

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return initialize(db, NewDialect(DialectSQLite))
}

// OpenWithConfig opens the database selected by cfg.Driver.
func OpenWithConfig(cfg Config) (*Database, error) {
	switch DialectType(cfg.Driver) {
	case "", DialectSQLite:
		return Open(cfg.SQLitePath)
	case DialectPostgres:
		return openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg PostgresConfig) (*Database, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return initialize(db, NewDialect(DialectPostgres))
}

func initialize(db *sql.DB, dialect Dialect) (*Database, error) {
	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// q rewrites ? placeholders for the active dialect.
func (d *Database) q(query string) string {
	return d.qb.Build(query)
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			nickname TEXT NOT NULL DEFAULT '',
			level_index INTEGER NOT NULL DEFAULT 0,
			experience BIGINT NOT NULL DEFAULT 0,
			gold BIGINT NOT NULL DEFAULT 0,
			state TEXT NOT NULL DEFAULT '',
			hp INTEGER NOT NULL DEFAULT 100,
			max_hp INTEGER NOT NULL DEFAULT 100,
			attack INTEGER NOT NULL DEFAULT 10,
			defense INTEGER NOT NULL DEFAULT 5,
			equipped_weapon TEXT NOT NULL DEFAULT '',
			equipped_armor TEXT NOT NULL DEFAULT '',
			equipped_accessory TEXT NOT NULL DEFAULT '',
			learned_skills TEXT NOT NULL DEFAULT '[]',
			active_buffs TEXT NOT NULL DEFAULT '[]',
			pvp_wins INTEGER NOT NULL DEFAULT 0,
			pvp_losses INTEGER NOT NULL DEFAULT 0,
			last_pvp_at BIGINT NOT NULL DEFAULT 0,
			realm_id TEXT NOT NULL DEFAULT '',
			realm_floor INTEGER NOT NULL DEFAULT 0,
			realm_data TEXT NOT NULL DEFAULT '',
			realm_pending_choice TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS inventory (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, item_id)
		)`,

		`CREATE TABLE IF NOT EXISTS active_world_bosses (
			boss_id TEXT PRIMARY KEY,
			current_hp BIGINT NOT NULL,
			max_hp BIGINT NOT NULL,
			level_index INTEGER NOT NULL DEFAULT 0,
			spawned_at BIGINT NOT NULL,
			defeated_at BIGINT NOT NULL DEFAULT 0,
			last_hit_damage BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS world_boss_participants (
			boss_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			total_damage BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (boss_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS boss_attacks (
			boss_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			last_attack_at BIGINT NOT NULL,
			PRIMARY KEY (boss_id, user_id)
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS boss_kills (
			id %s,
			boss_id TEXT NOT NULL,
			boss_name TEXT NOT NULL,
			killed_at BIGINT NOT NULL,
			top_contributors TEXT NOT NULL DEFAULT '[]'
		)`, d.dialect.AutoIncrementPrimaryKey()),

		`CREATE INDEX IF NOT EXISTS idx_players_level ON players(level_index)`,
		`CREATE INDEX IF NOT EXISTS idx_boss_kills_boss ON boss_kills(boss_id, killed_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
