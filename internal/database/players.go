package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/player"
)

const playerColumns = `user_id, nickname, level_index, experience, gold, state,
	hp, max_hp, attack, defense,
	equipped_weapon, equipped_armor, equipped_accessory, learned_skills, active_buffs,
	pvp_wins, pvp_losses, last_pvp_at,
	realm_id, realm_floor, realm_data, realm_pending_choice`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*player.Player, error) {
	var p player.Player
	var state, skills, buffs string
	var lastPvP int64

	err := row.Scan(
		&p.UserID, &p.Nickname, &p.LevelIndex, &p.Experience, &p.Gold, &state,
		&p.HP, &p.MaxHP, &p.Attack, &p.Defense,
		&p.EquippedWeapon, &p.EquippedArmor, &p.EquippedAccessory, &skills, &buffs,
		&p.PvPWins, &p.PvPLosses, &lastPvP,
		&p.RealmID, &p.RealmFloor, &p.RealmData, &p.RealmPendingChoice,
	)
	if err != nil {
		return nil, err
	}

	p.State = player.State(state)
	if lastPvP > 0 {
		p.LastPvPAt = time.Unix(lastPvP, 0)
	}
	if skills != "" {
		if err := json.Unmarshal([]byte(skills), &p.LearnedSkills); err != nil {
			return nil, fmt.Errorf("decode learned_skills for %s: %w", p.UserID, err)
		}
	}
	if buffs != "" {
		if err := json.Unmarshal([]byte(buffs), &p.Buffs); err != nil {
			return nil, fmt.Errorf("decode active_buffs for %s: %w", p.UserID, err)
		}
	}
	return &p, nil
}

// playerArgs returns the column values for p in playerColumns order.
func playerArgs(p *player.Player) ([]any, error) {
	skills, err := encodeList(p.LearnedSkills)
	if err != nil {
		return nil, err
	}
	buffs, err := encodeList(p.Buffs)
	if err != nil {
		return nil, err
	}
	var lastPvP int64
	if !p.LastPvPAt.IsZero() {
		lastPvP = p.LastPvPAt.Unix()
	}
	return []any{
		p.UserID, p.Nickname, p.LevelIndex, p.Experience, p.Gold, string(p.State),
		p.HP, p.MaxHP, p.Attack, p.Defense,
		p.EquippedWeapon, p.EquippedArmor, p.EquippedAccessory, skills, buffs,
		p.PvPWins, p.PvPLosses, lastPvP,
		p.RealmID, p.RealmFloor, p.RealmData, p.RealmPendingChoice,
	}, nil
}

func encodeList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetPlayer loads a player by user id.
func (d *Database) GetPlayer(ctx context.Context, userID string) (*player.Player, error) {
	row := d.db.QueryRowContext(ctx, d.q(`SELECT `+playerColumns+` FROM players WHERE user_id = ?`), userID)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", userID, err)
	}
	return p, nil
}

// CreatePlayer inserts a new player record.
func (d *Database) CreatePlayer(ctx context.Context, p *player.Player) error {
	args, err := playerArgs(p)
	if err != nil {
		return err
	}
	args = append(args, time.Now().Unix())

	_, err = d.db.ExecContext(ctx, d.q(`INSERT INTO players (`+playerColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return ErrPlayerExists
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

const updatePlayerSQL = `UPDATE players SET
	nickname = ?, level_index = ?, experience = ?, gold = ?, state = ?,
	hp = ?, max_hp = ?, attack = ?, defense = ?,
	equipped_weapon = ?, equipped_armor = ?, equipped_accessory = ?, learned_skills = ?, active_buffs = ?,
	pvp_wins = ?, pvp_losses = ?, last_pvp_at = ?,
	realm_id = ?, realm_floor = ?, realm_data = ?, realm_pending_choice = ?
	WHERE user_id = ?`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *Database) updatePlayer(ctx context.Context, ex execer, p *player.Player) error {
	args, err := playerArgs(p)
	if err != nil {
		return err
	}
	// user_id moves from the first column to the WHERE clause.
	args = append(args[1:], p.UserID)

	res, err := ex.ExecContext(ctx, d.q(updatePlayerSQL), args...)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", p.UserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// UpdatePlayer writes every mutable field of p.
func (d *Database) UpdatePlayer(ctx context.Context, p *player.Player) error {
	return d.updatePlayer(ctx, d.db, p)
}

// UpdatePlayersInTransaction writes several players atomically. Used by
// duels, where both sides must change together.
func (d *Database) UpdatePlayersInTransaction(ctx context.Context, players ...*player.Player) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range players {
		if err := d.updatePlayer(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdatePlayerWithItems writes p and credits items to its inventory in one
// transaction.
func (d *Database) UpdatePlayerWithItems(ctx context.Context, p *player.Player, items map[string]int) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := d.updatePlayer(ctx, tx, p); err != nil {
		return err
	}
	if err := d.addItems(ctx, tx, p.UserID, items); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveRealmProgress persists the result of a realm operation that turned
// before into after. Gold and experience are applied as deltas so credits
// landing on the row in between are kept. The write only applies while the
// stored session still matches before; otherwise ErrRealmConflict.
func (d *Database) SaveRealmProgress(ctx context.Context, before, after *player.Player, items map[string]int) error {
	buffs, err := encodeList(after.Buffs)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.q(`UPDATE players SET
		gold = gold + ?, experience = experience + ?, hp = ?, active_buffs = ?,
		realm_id = ?, realm_floor = ?, realm_data = ?, realm_pending_choice = ?
		WHERE user_id = ? AND realm_id = ? AND realm_floor = ? AND realm_pending_choice = ?`),
		after.Gold-before.Gold, after.Experience-before.Experience, after.HP, buffs,
		after.RealmID, after.RealmFloor, after.RealmData, after.RealmPendingChoice,
		before.UserID, before.RealmID, before.RealmFloor, before.RealmPendingChoice)
	if err != nil {
		return fmt.Errorf("failed to save realm progress for %s: %w", before.UserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, d.q(`SELECT 1 FROM players WHERE user_id = ?`), before.UserID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check player %s: %w", before.UserID, err)
		}
		return ErrRealmConflict
	}

	if err := d.addItems(ctx, tx, before.UserID, items); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTopPlayersByLevel returns up to limit players ordered by cultivation
// level, then experience.
func (d *Database) GetTopPlayersByLevel(ctx context.Context, limit int) ([]*player.Player, error) {
	rows, err := d.db.QueryContext(ctx, d.q(`SELECT `+playerColumns+` FROM players
		ORDER BY level_index DESC, experience DESC, user_id ASC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	defer rows.Close()

	var players []*player.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// UpdatePlayerBuffs writes only the active buffs, leaving gold and
// experience untouched for concurrent settlement credits.
func (d *Database) UpdatePlayerBuffs(ctx context.Context, userID string, buffs []player.Buff) error {
	encoded, err := encodeList(buffs)
	if err != nil {
		return err
	}
	res, err := d.db.ExecContext(ctx, d.q(`UPDATE players SET active_buffs = ? WHERE user_id = ?`), encoded, userID)
	if err != nil {
		return fmt.Errorf("failed to update buffs for %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
