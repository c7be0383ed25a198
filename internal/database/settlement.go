package database

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Reward is one participant's settlement payout.
type Reward struct {
	UserID     string
	Gold       int
	Experience int
}

// Settlement is everything a world-boss kill writes.
type Settlement struct {
	BossID          string
	BossName        string
	KilledAt        time.Time
	Rewards         []Reward
	TopUserID       string
	Items           map[string]int // credited to TopUserID only
	TopContributors []Contributor
}

// CommitSettlement pays out a defeated boss exactly once. The first caller
// deletes the defeated instance and commits the rewards; any later caller
// gets ErrAlreadySettled and writes nothing.
//
// An empty Rewards list clears the instance and ledger without logging a kill.
func (d *Database) CommitSettlement(ctx context.Context, s Settlement) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.q(`DELETE FROM active_world_bosses WHERE boss_id = ? AND current_hp <= 0`), s.BossID)
	if err != nil {
		return fmt.Errorf("failed to claim settlement of %s: %w", s.BossID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadySettled
	}

	if _, err := tx.ExecContext(ctx, d.q(`DELETE FROM world_boss_participants WHERE boss_id = ?`), s.BossID); err != nil {
		return fmt.Errorf("failed to clear ledger of %s: %w", s.BossID, err)
	}

	rewards := append([]Reward(nil), s.Rewards...)
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].UserID < rewards[j].UserID })
	for _, r := range rewards {
		_, err := tx.ExecContext(ctx, d.q(`UPDATE players SET gold = gold + ?, experience = experience + ?
			WHERE user_id = ?`), r.Gold, r.Experience, r.UserID)
		if err != nil {
			return fmt.Errorf("failed to reward %s: %w", r.UserID, err)
		}
	}

	if s.TopUserID != "" {
		if err := d.addItems(ctx, tx, s.TopUserID, s.Items); err != nil {
			return err
		}
	}

	if len(s.Rewards) > 0 {
		kill := BossKill{
			BossID:          s.BossID,
			BossName:        s.BossName,
			KilledAt:        s.KilledAt,
			TopContributors: s.TopContributors,
		}
		if _, err := d.logBossKill(ctx, tx, kill); err != nil {
			return err
		}
	}

	return tx.Commit()
}
