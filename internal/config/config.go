// Package config holds the tunable game rules and service settings for realmd.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// REALMD_WORLD_BOSS_DIFFICULTY_MULTIPLIER.
const EnvPrefix = "REALMD_"

// GameConfig holds all game rule and service settings.
type GameConfig struct {
	DataDir   string          `yaml:"data_dir" env:"DATA_DIR"`
	Realm     RealmConfig     `yaml:"realm" envPrefix:"REALM_"`
	WorldBoss WorldBossConfig `yaml:"world_boss" envPrefix:"WORLD_BOSS_"`
	PvP       PvPConfig       `yaml:"pvp" envPrefix:"PVP_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DATABASE_"`
	Announce  AnnounceConfig  `yaml:"announce" envPrefix:"ANNOUNCE_"`
}

// RealmConfig holds realm exploration rules.
type RealmConfig struct {
	// BaseFloors is the floor count of a realm entered at level index 0.
	BaseFloors int `yaml:"base_floors" env:"BASE_FLOORS"`

	// FloorsPerLevelDivisor adds one floor per this many level indexes.
	FloorsPerLevelDivisor int `yaml:"floors_per_level_divisor" env:"FLOORS_PER_LEVEL_DIVISOR"`

	// BossScalingFactor multiplies hp/attack/defense of the final-floor boss.
	BossScalingFactor float64 `yaml:"boss_scaling_factor" env:"BOSS_SCALING_FACTOR"`

	// EliteRewardMultiplier is applied on top of the difficulty reward multiplier.
	EliteRewardMultiplier float64 `yaml:"elite_reward_multiplier" env:"ELITE_REWARD_MULTIPLIER"`
}

// WorldBossConfig holds world boss spawning and settlement rules.
type WorldBossConfig struct {
	// TopPlayersAvg is how many of the highest-level players set the spawn level.
	TopPlayersAvg int `yaml:"top_players_avg" env:"TOP_PLAYERS_AVG"`

	// DifficultyMultiplier scales boss hp/attack/defense (not rewards).
	DifficultyMultiplier float64 `yaml:"difficulty_multiplier" env:"DIFFICULTY_MULTIPLIER"`

	// PlayerCooldownMinutes is the per-player, per-boss attack cooldown.
	PlayerCooldownMinutes int `yaml:"player_cooldown_minutes" env:"PLAYER_COOLDOWN_MINUTES"`

	// RankBonusGold and RankBonusExp are paid to the 1st/2nd/3rd contributors.
	RankBonusGold []int `yaml:"rank_bonus_gold" env:"RANK_BONUS_GOLD" envSeparator:","`
	RankBonusExp  []int `yaml:"rank_bonus_exp" env:"RANK_BONUS_EXP" envSeparator:","`

	// DefaultCooldownMinutes is the respawn cooldown for templates that omit one.
	DefaultCooldownMinutes int `yaml:"default_cooldown_minutes" env:"DEFAULT_COOLDOWN_MINUTES"`
}

// PvPConfig holds sparring and duel rules.
type PvPConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds" env:"COOLDOWN_SECONDS"`
	MinDuelBet      int `yaml:"min_duel_bet" env:"MIN_DUEL_BET"`
	ExpBase         int `yaml:"exp_base" env:"EXP_BASE"`
	ExpPerLevel     int `yaml:"exp_per_level" env:"EXP_PER_LEVEL"`
}

// DatabaseConfig selects and configures the persistence driver.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string         `yaml:"driver" env:"DRIVER"`
	SQLitePath string         `yaml:"sqlite_path" env:"SQLITE_PATH"`
	Postgres   PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host                   string `yaml:"host" env:"HOST"`
	Port                   int    `yaml:"port" env:"PORT"`
	User                   string `yaml:"user" env:"USER"`
	Password               string `yaml:"password" env:"PASSWORD"`
	Database               string `yaml:"database" env:"DATABASE"`
	SSLMode                string `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns           int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns           int    `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetimeSeconds int    `yaml:"conn_max_lifetime_seconds" env:"CONN_MAX_LIFETIME_SECONDS"`
}

// AnnounceConfig holds settings for the boss-kill announcement feed.
type AnnounceConfig struct {
	// ListenAddr is the HTTP address for the feed; empty disables it.
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`

	// TokenHash is a bcrypt hash of the subscriber bearer token.
	// Empty means subscribers are not authenticated.
	TokenHash string `yaml:"token_hash" env:"TOKEN_HASH"`

	// AllowedOrigins is a list of origins allowed to subscribe.
	// Empty list enforces same-origin policy; "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// WriteTimeoutSeconds bounds each broadcast write to a subscriber.
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" env:"WRITE_TIMEOUT_SECONDS"`
}

// DefaultConfig returns a GameConfig with the stock game rules.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		DataDir: "data",
		Realm: RealmConfig{
			BaseFloors:            8,
			FloorsPerLevelDivisor: 5,
			BossScalingFactor:     1.0,
			EliteRewardMultiplier: 1.5,
		},
		WorldBoss: WorldBossConfig{
			TopPlayersAvg:          5,
			DifficultyMultiplier:   3.0,
			PlayerCooldownMinutes:  120,
			RankBonusGold:          []int{2000, 1000, 500},
			RankBonusExp:           []int{5000, 2500, 1000},
			DefaultCooldownMinutes: 1440,
		},
		PvP: PvPConfig{
			CooldownSeconds: 300,
			MinDuelBet:      10,
			ExpBase:         50,
			ExpPerLevel:     10,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/realm.db",
			Postgres: PostgresConfig{
				Host:                   "localhost",
				Port:                   5432,
				SSLMode:                "disable",
				MaxOpenConns:           25,
				MaxIdleConns:           5,
				ConnMaxLifetimeSeconds: 300,
			},
		},
		Announce: AnnounceConfig{
			AllowedOrigins:      []string{},
			WriteTimeoutSeconds: 5,
		},
	}
}

// LoadConfig loads game configuration from a YAML file and applies REALMD_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*GameConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return config, err
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return config, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate rejects settings the game rules cannot run with.
func (c *GameConfig) Validate() error {
	if c.Realm.BaseFloors < 1 {
		return fmt.Errorf("realm.base_floors must be at least 1, got %d", c.Realm.BaseFloors)
	}
	if c.Realm.FloorsPerLevelDivisor < 1 {
		return fmt.Errorf("realm.floors_per_level_divisor must be at least 1, got %d", c.Realm.FloorsPerLevelDivisor)
	}
	if c.WorldBoss.PlayerCooldownMinutes < 0 {
		return fmt.Errorf("world_boss.player_cooldown_minutes must not be negative")
	}
	if c.WorldBoss.DefaultCooldownMinutes < 0 {
		return fmt.Errorf("world_boss.default_cooldown_minutes must not be negative")
	}
	if c.WorldBoss.TopPlayersAvg < 1 {
		return fmt.Errorf("world_boss.top_players_avg must be at least 1, got %d", c.WorldBoss.TopPlayersAvg)
	}
	if c.PvP.CooldownSeconds < 0 {
		return fmt.Errorf("pvp.cooldown_seconds must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	return nil
}

// IsOriginAllowed checks if the given origin may subscribe to the feed.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *AnnounceConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // non-browser client
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
