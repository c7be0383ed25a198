package worldboss

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/realmcore/internal/bestiary"
	"github.com/lawnchairsociety/realmcore/internal/logger"
)

// Active is a live boss with its scaled stats and current leaders.
type Active struct {
	Instance
	Boss bestiary.Boss
	Top  []Participant
}

const leaderboardSize = 3

// EnsureSpawned spawns every boss whose respawn cooldown has elapsed. It is
// idempotent; concurrent callers in this process share one run.
func (m *Manager) EnsureSpawned(ctx context.Context) error {
	_, err, _ := m.spawn.Do("spawn", func() (any, error) {
		return nil, m.ensureSpawned(ctx)
	})
	return err
}

func (m *Manager) ensureSpawned(ctx context.Context) error {
	instances, err := m.store.ActiveBosses(ctx)
	if err != nil {
		return fmt.Errorf("load active bosses: %w", err)
	}
	active := make(map[string]Instance, len(instances))
	for _, inst := range instances {
		active[inst.BossID] = inst
	}

	now := m.now()
	level := -1 // computed on first spawn

	for _, id := range m.templates.BossIDs() {
		tmpl, ok := m.templates.Boss(id)
		if !ok {
			continue
		}
		cooldown := m.respawnCooldown(tmpl)

		if inst, ok := active[id]; ok {
			if inst.CurrentHP > 0 {
				continue
			}
			since := inst.DefeatedAt
			if since.IsZero() {
				since = inst.SpawnedAt
			}
			if now.Sub(since) < cooldown {
				logger.Debug("World boss cooling down", "boss_id", id, "remaining", cooldown-now.Sub(since))
				continue
			}
			// A defeated instance outliving its cooldown means settlement never
			// finished. Pay out whatever the ledger holds before respawning.
			if _, err := m.settle(ctx, inst); err != nil && !errors.Is(err, ErrAlreadySettled) {
				return fmt.Errorf("recover settlement of %s: %w", id, err)
			}
			logger.Info("World boss cooldown elapsed", "boss_id", id, "name", tmpl.Name)
		} else {
			last, ok, err := m.store.LastKill(ctx, id)
			if err != nil {
				return fmt.Errorf("load last kill of %s: %w", id, err)
			}
			if ok && now.Sub(last) < cooldown {
				logger.Debug("World boss cooling down", "boss_id", id, "remaining", cooldown-now.Sub(last))
				continue
			}
		}

		if level < 0 {
			if level, err = m.spawnLevel(ctx); err != nil {
				return err
			}
		}

		boss, err := m.newBoss(id, level)
		if err != nil {
			logger.Error("Failed to build world boss", "boss_id", id, "error", err)
			continue
		}

		created, err := m.store.SpawnBoss(ctx, Instance{
			BossID:     id,
			CurrentHP:  boss.MaxHP,
			MaxHP:      boss.MaxHP,
			LevelIndex: level,
			SpawnedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("spawn %s: %w", id, err)
		}
		if created {
			logger.Info("World boss spawned", "boss_id", id, "name", boss.Name, "level", level, "hp", boss.MaxHP)
		}
	}
	return nil
}

// spawnLevel averages the level index of the strongest players, defaulting
// to 1 when nobody has played yet.
func (m *Manager) spawnLevel(ctx context.Context) (int, error) {
	n := m.rules.TopPlayersAvg
	if n <= 0 {
		n = 5
	}
	levels, err := m.store.TopPlayerLevels(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("load top players: %w", err)
	}
	if len(levels) == 0 {
		return 1, nil
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return sum / len(levels), nil
}

// ListActive spawns due bosses and returns the live ones, each with its top
// three contributors.
func (m *Manager) ListActive(ctx context.Context) ([]Active, error) {
	if err := m.EnsureSpawned(ctx); err != nil {
		return nil, err
	}

	instances, err := m.store.ActiveBosses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active bosses: %w", err)
	}

	var list []Active
	for _, inst := range instances {
		if inst.CurrentHP <= 0 {
			continue
		}
		boss, err := m.newBoss(inst.BossID, inst.LevelIndex)
		if err != nil {
			logger.Warning("Active boss has no template", "boss_id", inst.BossID, "error", err)
			continue
		}
		list = append(list, Active{Instance: inst, Boss: boss})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range list {
		g.Go(func() error {
			ps, err := m.store.Participants(gctx, list[i].BossID)
			if err != nil {
				return fmt.Errorf("load ledger of %s: %w", list[i].BossID, err)
			}
			if len(ps) > leaderboardSize {
				ps = ps[:leaderboardSize]
			}
			list[i].Top = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return list, nil
}
