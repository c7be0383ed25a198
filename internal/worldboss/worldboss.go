// Package worldboss runs the shared world bosses: lazy respawn, concurrent
// attacks against a single hp pool, and exactly-once reward settlement.
package worldboss

//go:generate go run go.uber.org/mock/mockgen -destination=./mocks/notifier_mock.go -package=mocks . Notifier

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lawnchairsociety/realmcore/internal/bestiary"
	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
)

// Store errors the manager understands. Store implementations must return
// these (possibly wrapped) so the manager can tell refusals from failures.
var (
	ErrNotActive      = errors.New("world boss is not active")
	ErrOnCooldown     = errors.New("world boss attack on cooldown")
	ErrAlreadySettled = errors.New("world boss already settled")
)

// Instance is the persisted state of a spawned boss.
type Instance struct {
	BossID     string
	CurrentHP  int
	MaxHP      int
	LevelIndex int
	SpawnedAt  time.Time
	DefeatedAt time.Time
}

// Participant is one player's accumulated damage against a boss.
type Participant struct {
	UserID      string
	DisplayName string
	TotalDamage int
}

// Hit is the result of applying one attack to the shared hp pool.
type Hit struct {
	RemainingHP int
	Applied     int
}

// Reward is one participant's settlement share.
type Reward struct {
	Rank        int // 0-based, ordered by damage
	UserID      string
	DisplayName string
	Damage      int
	Gold        int
	Experience  int
}

// Settlement is the complete payout for a defeated boss.
type Settlement struct {
	BossID          string
	BossName        string
	KilledAt        time.Time
	Rewards         []Reward
	TopUserID       string
	Items           map[string]int
	TopContributors []Participant
	CooldownHours   int
}

// Store is the persistence the manager needs. ApplyHit and
// CommitSettlement must be atomic.
type Store interface {
	ActiveBosses(ctx context.Context) ([]Instance, error)
	ActiveBoss(ctx context.Context, bossID string) (Instance, error)
	SpawnBoss(ctx context.Context, inst Instance) (created bool, err error)
	LastKill(ctx context.Context, bossID string) (time.Time, bool, error)
	TopPlayerLevels(ctx context.Context, n int) ([]int, error)
	LastAttack(ctx context.Context, bossID, userID string) (time.Time, bool, error)
	ApplyHit(ctx context.Context, bossID, userID, displayName string, damage int, now time.Time, cooldown time.Duration) (Hit, error)
	Participants(ctx context.Context, bossID string) ([]Participant, error)
	CommitSettlement(ctx context.Context, s Settlement) error
}

// Notifier receives the kill broadcast.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Templates supplies boss templates and the item data used for player stats
// and reward text.
type Templates interface {
	bestiary.Templates
	Item(id string) (gamedata.Item, bool)
	ItemName(id string) string
	BossIDs() []string
}

// Manager coordinates world-boss spawning, attacks and settlement.
type Manager struct {
	store     Store
	templates Templates
	rules     config.WorldBossConfig
	notifier  Notifier
	now       func() time.Time

	spawn singleflight.Group

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets the sink for kill broadcasts.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRand sets the random source used for boss loot.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// NewManager creates a Manager.
func NewManager(store Store, templates Templates, rules config.WorldBossConfig, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		templates: templates,
		rules:     rules,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// newBoss scales a template for an instance's level under the rng lock.
func (m *Manager) newBoss(bossID string, level int) (bestiary.Boss, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bestiary.NewBoss(m.templates, bossID, level, m.difficulty(), m.rng)
}

func (m *Manager) difficulty() float64 {
	if m.rules.DifficultyMultiplier <= 0 {
		return 3.0
	}
	return m.rules.DifficultyMultiplier
}

func (m *Manager) playerCooldown() time.Duration {
	minutes := m.rules.PlayerCooldownMinutes
	if minutes < 0 {
		minutes = 0
	}
	return time.Duration(minutes) * time.Minute
}

// respawnCooldown returns a template's respawn delay.
func (m *Manager) respawnCooldown(tmpl gamedata.BossTemplate) time.Duration {
	minutes := tmpl.CooldownMinutes
	if minutes <= 0 {
		minutes = m.rules.DefaultCooldownMinutes
	}
	if minutes <= 0 {
		minutes = bestiary.DefaultBossCooldownMinutes
	}
	return time.Duration(minutes) * time.Minute
}
