// Package game wires the domain engines to persistence. Each operation
// takes user ids, loads the players, runs the rules, and stores the result.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/realmcore/internal/arena"
	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/database"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/logger"
	"github.com/lawnchairsociety/realmcore/internal/player"
	"github.com/lawnchairsociety/realmcore/internal/realm"
	"github.com/lawnchairsociety/realmcore/internal/worldboss"
)

// Engine is the game facade used by the chat layer and the daemon.
type Engine struct {
	db        *database.Database
	templates *gamedata.Store
	realms    *realm.Engine
	bosses    *worldboss.Manager
	arena     *arena.Arena
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	rng      *rand.Rand
	notifier worldboss.Notifier
	boss     []worldboss.Option
}

// WithRand seeds realm generation and boss rolls.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithNotifier sets where boss kill broadcasts are sent.
func WithNotifier(n worldboss.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithBossOptions passes extra options to the world-boss manager.
func WithBossOptions(opts ...worldboss.Option) Option {
	return func(o *options) { o.boss = append(o.boss, opts...) }
}

// New creates the facade.
func New(db *database.Database, templates *gamedata.Store, cfg *config.GameConfig, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bossOpts := o.boss
	if o.notifier != nil {
		bossOpts = append([]worldboss.Option{worldboss.WithNotifier(o.notifier)}, bossOpts...)
	}
	if o.rng != nil {
		bossOpts = append(bossOpts, worldboss.WithRand(rand.New(rand.NewSource(o.rng.Int63()))))
	}

	return &Engine{
		db:        db,
		templates: templates,
		realms:    realm.NewEngine(templates, cfg.Realm, o.rng),
		bosses:    worldboss.NewManager(NewBossStoreAdapter(db), templates, cfg.WorldBoss, bossOpts...),
		arena:     arena.New(templates, cfg.PvP),
	}
}

// Bosses returns the world-boss manager.
func (g *Engine) Bosses() *worldboss.Manager {
	return g.bosses
}

// Arena returns the PvP rules engine.
func (g *Engine) Arena() *arena.Arena {
	return g.arena
}

func notRegistered(userID string) error {
	return gameerr.New(gameerr.CodeNotFound, "你尚未踏入仙途，请先创建角色。").WithMetadata("user_id", userID)
}

// Player loads a player by id.
func (g *Engine) Player(ctx context.Context, userID string) (*player.Player, error) {
	p, err := g.db.GetPlayer(ctx, userID)
	if errors.Is(err, database.ErrPlayerNotFound) {
		return nil, notRegistered(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", userID, err)
	}
	return p, nil
}

// Register creates a new player.
func (g *Engine) Register(ctx context.Context, userID, nickname string) (*player.Player, error) {
	p := player.New(userID, nickname)
	if err := g.db.CreatePlayer(ctx, p); err != nil {
		if errors.Is(err, database.ErrPlayerExists) {
			return nil, gameerr.New(gameerr.CodeInvalidState, "你已踏入仙途，无需重复创建角色。").WithMetadata("user_id", userID)
		}
		return nil, err
	}
	logger.Info("Player registered", "user_id", userID, "nickname", nickname)
	return p, nil
}

// Inventory returns the player's bag as item id to quantity.
func (g *Engine) Inventory(ctx context.Context, userID string) (map[string]int, error) {
	if _, err := g.Player(ctx, userID); err != nil {
		return nil, err
	}
	return g.db.GetInventory(ctx, userID)
}

// RecentKills returns the newest world-boss kills.
func (g *Engine) RecentKills(ctx context.Context, limit int) ([]database.BossKill, error) {
	return g.db.GetBossKills(ctx, limit)
}
