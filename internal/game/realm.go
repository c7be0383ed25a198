package game

import (
	"context"
	"errors"

	"github.com/lawnchairsociety/realmcore/internal/database"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/player"
	"github.com/lawnchairsociety/realmcore/internal/realm"
)

type realmOp func(p *player.Player) (realm.Outcome, error)

// runRealm loads the player, applies op, and persists the updated player
// with any items the operation granted. Refusals persist nothing. A session
// that moved on since the load is refused rather than overwritten.
func (g *Engine) runRealm(ctx context.Context, userID string, op realmOp) (realm.Outcome, error) {
	p, err := g.Player(ctx, userID)
	if err != nil {
		return realm.Outcome{}, err
	}

	out, err := op(p)
	if err != nil {
		return out, err
	}

	err = g.db.SaveRealmProgress(ctx, p, out.Player, out.Items)
	if errors.Is(err, database.ErrRealmConflict) {
		return realm.Outcome{}, gameerr.New(gameerr.CodeInvalidState, "秘境中的局势已经变化，请重新查看后再行动。").
			WithMetadata("user_id", userID)
	}
	if err != nil {
		return realm.Outcome{}, err
	}
	return out, nil
}

// StartRealm opens a realm for the player. Empty type and difficulty
// select the defaults.
func (g *Engine) StartRealm(ctx context.Context, userID, realmType, difficulty string) (realm.Outcome, error) {
	return g.runRealm(ctx, userID, func(p *player.Player) (realm.Outcome, error) {
		return g.realms.Start(p, realmType, difficulty)
	})
}

// AdvanceRealm resolves the next floor.
func (g *Engine) AdvanceRealm(ctx context.Context, userID string) (realm.Outcome, error) {
	return g.runRealm(ctx, userID, g.realms.Advance)
}

// ChooseRealm answers a pending shop or choice prompt.
func (g *Engine) ChooseRealm(ctx context.Context, userID string, choiceID int) (realm.Outcome, error) {
	return g.runRealm(ctx, userID, func(p *player.Player) (realm.Outcome, error) {
		return g.realms.Choose(p, choiceID)
	})
}

// LeaveRealm abandons the current realm.
func (g *Engine) LeaveRealm(ctx context.Context, userID string) (realm.Outcome, error) {
	return g.runRealm(ctx, userID, g.realms.Leave)
}
