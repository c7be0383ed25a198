package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Contributor is a ranked participant stored with a kill.
type Contributor struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Damage      int    `json:"damage"`
}

// BossKill records a settled world boss.
type BossKill struct {
	ID              int64
	BossID          string
	BossName        string
	KilledAt        time.Time
	TopContributors []Contributor
}

type querier interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *Database) logBossKill(ctx context.Context, qr querier, k BossKill) (int64, error) {
	top, err := encodeList(k.TopContributors)
	if err != nil {
		return 0, err
	}

	query := d.qb.BuildWithReturning(`INSERT INTO boss_kills (boss_id, boss_name, killed_at, top_contributors)
		VALUES (?, ?, ?, ?)`, "id")
	args := []any{k.BossID, k.BossName, k.KilledAt.Unix(), top}

	if d.dialect.SupportsLastInsertID() {
		res, err := qr.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to log kill of %s: %w", k.BossID, err)
		}
		return res.LastInsertId()
	}

	var id int64
	if err := qr.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to log kill of %s: %w", k.BossID, err)
	}
	return id, nil
}

// LogBossKill appends a kill to the log and returns its id.
func (d *Database) LogBossKill(ctx context.Context, k BossKill) (int64, error) {
	return d.logBossKill(ctx, d.db, k)
}

// GetLastBossDefeatTime returns the most recent kill time for bossID. ok is
// false if the boss has never been killed.
func (d *Database) GetLastBossDefeatTime(ctx context.Context, bossID string) (at time.Time, ok bool, err error) {
	var sec sql.NullInt64
	err = d.db.QueryRowContext(ctx, d.q(`SELECT MAX(killed_at) FROM boss_kills WHERE boss_id = ?`), bossID).Scan(&sec)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last kill of %s: %w", bossID, err)
	}
	if !sec.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(sec.Int64, 0), true, nil
}

// GetBossKills returns the most recent kills across all bosses.
func (d *Database) GetBossKills(ctx context.Context, limit int) ([]BossKill, error) {
	rows, err := d.db.QueryContext(ctx, d.q(`SELECT id, boss_id, boss_name, killed_at, top_contributors
		FROM boss_kills ORDER BY killed_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query boss kills: %w", err)
	}
	defer rows.Close()

	var kills []BossKill
	for rows.Next() {
		var k BossKill
		var killed int64
		var top string
		if err := rows.Scan(&k.ID, &k.BossID, &k.BossName, &killed, &top); err != nil {
			return nil, err
		}
		k.KilledAt = time.Unix(killed, 0)
		if err := json.Unmarshal([]byte(top), &k.TopContributors); err != nil {
			return nil, fmt.Errorf("decode contributors for kill %d: %w", k.ID, err)
		}
		kills = append(kills, k)
	}
	return kills, rows.Err()
}
