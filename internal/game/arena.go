package game

import (
	"context"
	"fmt"

	"github.com/lawnchairsociety/realmcore/internal/arena"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

func (g *Engine) loadPair(ctx context.Context, attackerID, defenderID string) (*player.Player, *player.Player, error) {
	attacker, err := g.Player(ctx, attackerID)
	if err != nil {
		return nil, nil, err
	}
	defender, err := g.Player(ctx, defenderID)
	if gameerr.IsCode(err, gameerr.CodeNotFound) {
		return nil, nil, gameerr.New(gameerr.CodeNotFound, "对方尚未踏入仙途，无法应战。").WithMetadata("user_id", defenderID)
	}
	if err != nil {
		return nil, nil, err
	}
	return attacker, defender, nil
}

func (g *Engine) persistPair(ctx context.Context, res arena.Result) error {
	if err := g.db.UpdatePlayersInTransaction(ctx, res.Attacker, res.Defender); err != nil {
		return fmt.Errorf("persist pvp result: %w", err)
	}
	return nil
}

// Spar fights another player for experience.
func (g *Engine) Spar(ctx context.Context, attackerID, defenderID, attackerName, defenderName string) (arena.Result, error) {
	attacker, defender, err := g.loadPair(ctx, attackerID, defenderID)
	if err != nil {
		return arena.Result{}, err
	}
	res, err := g.arena.Spar(attacker, defender, attackerName, defenderName)
	if err != nil {
		return res, err
	}
	if err := g.persistPair(ctx, res); err != nil {
		return arena.Result{}, err
	}
	return res, nil
}

// Duel fights another player for a gold bet.
func (g *Engine) Duel(ctx context.Context, attackerID, defenderID, attackerName, defenderName string, bet int) (arena.Result, error) {
	attacker, defender, err := g.loadPair(ctx, attackerID, defenderID)
	if err != nil {
		return arena.Result{}, err
	}
	res, err := g.arena.Duel(attacker, defender, attackerName, defenderName, bet)
	if err != nil {
		return res, err
	}
	if err := g.persistPair(ctx, res); err != nil {
		return arena.Result{}, err
	}
	return res, nil
}
