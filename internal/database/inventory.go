package database

import (
	"context"
	"fmt"
	"sort"
)

// addItems credits quantities to a player's inventory. Non-positive
// quantities are ignored.
func (d *Database) addItems(ctx context.Context, ex execer, userID string, items map[string]int) error {
	ids := make([]string, 0, len(items))
	for id, qty := range items {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	// Fixed order keeps lock acquisition consistent across transactions.
	sort.Strings(ids)

	query := d.q(`INSERT INTO inventory (user_id, item_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = inventory.quantity + excluded.quantity`)
	for _, id := range ids {
		if _, err := ex.ExecContext(ctx, query, userID, id, items[id]); err != nil {
			return fmt.Errorf("failed to add item %s for %s: %w", id, userID, err)
		}
	}
	return nil
}

// AddItemsToInventory credits items to a player's inventory.
func (d *Database) AddItemsToInventory(ctx context.Context, userID string, items map[string]int) error {
	return d.addItems(ctx, d.db, userID, items)
}

// GetInventory returns the player's item quantities keyed by item id.
func (d *Database) GetInventory(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, d.q(`SELECT item_id, quantity FROM inventory
		WHERE user_id = ? AND quantity > 0`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := make(map[string]int)
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		items[id] = qty
	}
	return items, rows.Err()
}
