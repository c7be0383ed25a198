package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ActiveBoss is a live or defeated-but-unsettled world boss instance.
type ActiveBoss struct {
	BossID        string
	CurrentHP     int
	MaxHP         int
	LevelIndex    int
	SpawnedAt     time.Time
	DefeatedAt    time.Time // zero until the hp reaches 0
	LastHitDamage int
}

// Participant is one row of a boss's damage ledger.
type Participant struct {
	BossID      string
	UserID      string
	DisplayName string
	TotalDamage int
}

// HitResult reports what ApplyBossHit actually did.
type HitResult struct {
	RemainingHP int
	// Applied is the damage after capping at the boss's remaining hp.
	Applied int
}

func unixOrZero(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

const activeBossColumns = `boss_id, current_hp, max_hp, level_index, spawned_at, defeated_at, last_hit_damage`

func scanActiveBoss(row rowScanner) (*ActiveBoss, error) {
	var b ActiveBoss
	var spawned, defeated int64
	if err := row.Scan(&b.BossID, &b.CurrentHP, &b.MaxHP, &b.LevelIndex, &spawned, &defeated, &b.LastHitDamage); err != nil {
		return nil, err
	}
	b.SpawnedAt = unixOrZero(spawned)
	b.DefeatedAt = unixOrZero(defeated)
	return &b, nil
}

// GetActiveBoss returns the instance for bossID, or ErrBossNotActive.
func (d *Database) GetActiveBoss(ctx context.Context, bossID string) (*ActiveBoss, error) {
	row := d.db.QueryRowContext(ctx, d.q(`SELECT `+activeBossColumns+` FROM active_world_bosses WHERE boss_id = ?`), bossID)
	b, err := scanActiveBoss(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBossNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load boss %s: %w", bossID, err)
	}
	return b, nil
}

// GetActiveBosses returns every instance, including defeated ones awaiting
// settlement, ordered by boss id.
func (d *Database) GetActiveBosses(ctx context.Context) ([]*ActiveBoss, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+activeBossColumns+` FROM active_world_bosses ORDER BY boss_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bosses: %w", err)
	}
	defer rows.Close()

	var bosses []*ActiveBoss
	for rows.Next() {
		b, err := scanActiveBoss(rows)
		if err != nil {
			return nil, err
		}
		bosses = append(bosses, b)
	}
	return bosses, rows.Err()
}

// CreateActiveBoss inserts b unless an instance already exists. It reports
// whether this call created the row.
func (d *Database) CreateActiveBoss(ctx context.Context, b ActiveBoss) (bool, error) {
	res, err := d.db.ExecContext(ctx, d.q(`INSERT INTO active_world_bosses
		(boss_id, current_hp, max_hp, level_index, spawned_at, defeated_at, last_hit_damage)
		VALUES (?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT (boss_id) DO NOTHING`),
		b.BossID, b.CurrentHP, b.MaxHP, b.LevelIndex, b.SpawnedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to spawn boss %s: %w", b.BossID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateBossHP overwrites the boss's hp. Reaching 0 stamps defeated_at.
func (d *Database) UpdateBossHP(ctx context.Context, bossID string, hp int) error {
	if hp < 0 {
		hp = 0
	}
	res, err := d.db.ExecContext(ctx, d.q(`UPDATE active_world_bosses SET current_hp = ?,
		defeated_at = CASE WHEN ? <= 0 AND defeated_at = 0 THEN ? ELSE defeated_at END
		WHERE boss_id = ?`), hp, hp, time.Now().Unix(), bossID)
	if err != nil {
		return fmt.Errorf("failed to update boss %s: %w", bossID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBossNotActive
	}
	return nil
}

// ClearBossData removes the instance and its damage ledger. Attack
// cooldowns survive.
func (d *Database) ClearBossData(ctx context.Context, bossID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, d.q(`DELETE FROM active_world_bosses WHERE boss_id = ?`), bossID); err != nil {
		return fmt.Errorf("failed to delete boss %s: %w", bossID, err)
	}
	if _, err := tx.ExecContext(ctx, d.q(`DELETE FROM world_boss_participants WHERE boss_id = ?`), bossID); err != nil {
		return fmt.Errorf("failed to delete ledger for %s: %w", bossID, err)
	}
	return tx.Commit()
}

func (d *Database) recordDamage(ctx context.Context, ex execer, bossID, userID, displayName string, damage int) error {
	_, err := ex.ExecContext(ctx, d.q(`INSERT INTO world_boss_participants (boss_id, user_id, display_name, total_damage)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (boss_id, user_id) DO UPDATE SET
			total_damage = world_boss_participants.total_damage + excluded.total_damage,
			display_name = excluded.display_name`),
		bossID, userID, displayName, damage)
	if err != nil {
		return fmt.Errorf("failed to record damage on %s: %w", bossID, err)
	}
	return nil
}

// RecordBossDamage adds damage to the player's ledger total. Concurrent
// calls accumulate in any order.
func (d *Database) RecordBossDamage(ctx context.Context, bossID, userID, displayName string, damage int) error {
	if damage <= 0 {
		return nil
	}
	return d.recordDamage(ctx, d.db, bossID, userID, displayName, damage)
}

// GetBossParticipants returns the ledger ordered by damage, highest first.
func (d *Database) GetBossParticipants(ctx context.Context, bossID string) ([]Participant, error) {
	rows, err := d.db.QueryContext(ctx, d.q(`SELECT boss_id, user_id, display_name, total_damage
		FROM world_boss_participants WHERE boss_id = ?
		ORDER BY total_damage DESC, user_id ASC`), bossID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for %s: %w", bossID, err)
	}
	defer rows.Close()

	var ps []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.BossID, &p.UserID, &p.DisplayName, &p.TotalDamage); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// LastBossAttack returns when the player last hit bossID. ok is false if
// they never have.
func (d *Database) LastBossAttack(ctx context.Context, bossID, userID string) (at time.Time, ok bool, err error) {
	var sec int64
	err = d.db.QueryRowContext(ctx, d.q(`SELECT last_attack_at FROM boss_attacks
		WHERE boss_id = ? AND user_id = ?`), bossID, userID).Scan(&sec)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load attack time: %w", err)
	}
	return time.Unix(sec, 0), true, nil
}

// ApplyBossHit applies one player's hit atomically:
//
//  1. claim the attack slot unless the previous attack is within cooldown
//  2. decrement hp, capped at the remaining hp, if the boss is still alive
//  3. add the applied damage to the player's ledger total
//
// It returns ErrBossOnCooldown or ErrBossNotActive with nothing written.
func (d *Database) ApplyBossHit(ctx context.Context, bossID, userID, displayName string, damage int, now time.Time, cooldown time.Duration) (HitResult, error) {
	if damage < 0 {
		damage = 0
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return HitResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.q(`INSERT INTO boss_attacks (boss_id, user_id, last_attack_at)
		VALUES (?, ?, ?)
		ON CONFLICT (boss_id, user_id) DO UPDATE SET last_attack_at = excluded.last_attack_at
		WHERE boss_attacks.last_attack_at <= ?`),
		bossID, userID, now.Unix(), now.Add(-cooldown).Unix())
	if err != nil {
		return HitResult{}, fmt.Errorf("failed to claim attack slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return HitResult{}, ErrBossOnCooldown
	}

	var hit HitResult
	err = tx.QueryRowContext(ctx, d.q(`UPDATE active_world_bosses SET
		last_hit_damage = CASE WHEN current_hp < ? THEN current_hp ELSE ? END,
		defeated_at = CASE WHEN current_hp <= ? THEN ? ELSE defeated_at END,
		current_hp = CASE WHEN current_hp < ? THEN 0 ELSE current_hp - ? END
		WHERE boss_id = ? AND current_hp > 0
		RETURNING current_hp, last_hit_damage`),
		damage, damage, damage, now.Unix(), damage, damage, bossID).Scan(&hit.RemainingHP, &hit.Applied)
	if errors.Is(err, sql.ErrNoRows) {
		return HitResult{}, ErrBossNotActive
	}
	if err != nil {
		return HitResult{}, fmt.Errorf("failed to apply hit on %s: %w", bossID, err)
	}

	if hit.Applied > 0 {
		if err := d.recordDamage(ctx, tx, bossID, userID, displayName, hit.Applied); err != nil {
			return HitResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return HitResult{}, fmt.Errorf("failed to commit hit: %w", err)
	}
	return hit, nil
}
