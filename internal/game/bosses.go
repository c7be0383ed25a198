package game

import (
	"context"

	"github.com/lawnchairsociety/realmcore/internal/worldboss"
)

// ListBosses spawns any due bosses and returns the live ones.
func (g *Engine) ListBosses(ctx context.Context) ([]worldboss.Active, error) {
	return g.bosses.ListActive(ctx)
}

// AttackBoss fights a world boss once. Only the buff ticks are written
// back to the attacker, since a settlement may already have credited gold
// and experience to the same row.
func (g *Engine) AttackBoss(ctx context.Context, userID, bossID, displayName string) (worldboss.AttackOutcome, error) {
	p, err := g.Player(ctx, userID)
	if err != nil {
		return worldboss.AttackOutcome{}, err
	}

	out, err := g.bosses.Attack(ctx, p, bossID, displayName)
	if err != nil {
		return out, err
	}

	if err := g.db.UpdatePlayerBuffs(ctx, userID, out.Player.Buffs); err != nil {
		return worldboss.AttackOutcome{}, err
	}
	return out, nil
}
