package game

import (
	"context"
	"errors"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/database"
	"github.com/lawnchairsociety/realmcore/internal/worldboss"
)

// BossStoreAdapter adapts database.Database to the worldboss.Store interface.
type BossStoreAdapter struct {
	db *database.Database
}

// NewBossStoreAdapter creates a new adapter wrapping the database.
func NewBossStoreAdapter(db *database.Database) *BossStoreAdapter {
	return &BossStoreAdapter{db: db}
}

// mapErr translates persistence sentinels into the manager's.
func mapErr(err error) error {
	switch {
	case errors.Is(err, database.ErrBossNotActive):
		return worldboss.ErrNotActive
	case errors.Is(err, database.ErrBossOnCooldown):
		return worldboss.ErrOnCooldown
	case errors.Is(err, database.ErrAlreadySettled):
		return worldboss.ErrAlreadySettled
	}
	return err
}

func toInstance(b *database.ActiveBoss) worldboss.Instance {
	return worldboss.Instance{
		BossID:     b.BossID,
		CurrentHP:  b.CurrentHP,
		MaxHP:      b.MaxHP,
		LevelIndex: b.LevelIndex,
		SpawnedAt:  b.SpawnedAt,
		DefeatedAt: b.DefeatedAt,
	}
}

func (a *BossStoreAdapter) ActiveBosses(ctx context.Context) ([]worldboss.Instance, error) {
	bosses, err := a.db.GetActiveBosses(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]worldboss.Instance, len(bosses))
	for i, b := range bosses {
		result[i] = toInstance(b)
	}
	return result, nil
}

func (a *BossStoreAdapter) ActiveBoss(ctx context.Context, bossID string) (worldboss.Instance, error) {
	b, err := a.db.GetActiveBoss(ctx, bossID)
	if err != nil {
		return worldboss.Instance{}, mapErr(err)
	}
	return toInstance(b), nil
}

func (a *BossStoreAdapter) SpawnBoss(ctx context.Context, inst worldboss.Instance) (bool, error) {
	return a.db.CreateActiveBoss(ctx, database.ActiveBoss{
		BossID:     inst.BossID,
		CurrentHP:  inst.CurrentHP,
		MaxHP:      inst.MaxHP,
		LevelIndex: inst.LevelIndex,
		SpawnedAt:  inst.SpawnedAt,
	})
}

func (a *BossStoreAdapter) LastKill(ctx context.Context, bossID string) (time.Time, bool, error) {
	return a.db.GetLastBossDefeatTime(ctx, bossID)
}

func (a *BossStoreAdapter) TopPlayerLevels(ctx context.Context, n int) ([]int, error) {
	players, err := a.db.GetTopPlayersByLevel(ctx, n)
	if err != nil {
		return nil, err
	}
	levels := make([]int, len(players))
	for i, p := range players {
		levels[i] = p.LevelIndex
	}
	return levels, nil
}

func (a *BossStoreAdapter) LastAttack(ctx context.Context, bossID, userID string) (time.Time, bool, error) {
	return a.db.LastBossAttack(ctx, bossID, userID)
}

func (a *BossStoreAdapter) ApplyHit(ctx context.Context, bossID, userID, displayName string, damage int, now time.Time, cooldown time.Duration) (worldboss.Hit, error) {
	hit, err := a.db.ApplyBossHit(ctx, bossID, userID, displayName, damage, now, cooldown)
	if err != nil {
		return worldboss.Hit{}, mapErr(err)
	}
	return worldboss.Hit{RemainingHP: hit.RemainingHP, Applied: hit.Applied}, nil
}

func (a *BossStoreAdapter) Participants(ctx context.Context, bossID string) ([]worldboss.Participant, error) {
	ps, err := a.db.GetBossParticipants(ctx, bossID)
	if err != nil {
		return nil, err
	}
	result := make([]worldboss.Participant, len(ps))
	for i, p := range ps {
		result[i] = worldboss.Participant{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			TotalDamage: p.TotalDamage,
		}
	}
	return result, nil
}

func (a *BossStoreAdapter) CommitSettlement(ctx context.Context, s worldboss.Settlement) error {
	rewards := make([]database.Reward, len(s.Rewards))
	for i, r := range s.Rewards {
		rewards[i] = database.Reward{UserID: r.UserID, Gold: r.Gold, Experience: r.Experience}
	}
	top := make([]database.Contributor, len(s.TopContributors))
	for i, c := range s.TopContributors {
		top[i] = database.Contributor{UserID: c.UserID, DisplayName: c.DisplayName, Damage: c.TotalDamage}
	}

	return mapErr(a.db.CommitSettlement(ctx, database.Settlement{
		BossID:          s.BossID,
		BossName:        s.BossName,
		KilledAt:        s.KilledAt,
		Rewards:         rewards,
		TopUserID:       s.TopUserID,
		Items:           s.Items,
		TopContributors: top,
	}))
}
