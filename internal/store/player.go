package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type playerRepo struct {
	db *sql.DB
}

var _ PlayerRepo = (*playerRepo)(nil)

func (r *playerRepo) Get(ctx context.Context, id string) (*Player, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, fragments, log_keys, lives, level, xp FROM players WHERE id = ?`, id)

	var p Player
	err := row.Scan(&p.ID, &p.Fragments, &p.LogKeys, &p.Lives, &p.Level, &p.XP)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return &p, nil
}

func (r *playerRepo) Ensure(ctx context.Context, id string) (*Player, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (id, fragments, log_keys, lives, level, xp)
		 VALUES (?, 0, 0, 3, 1, 0)
		 ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return nil, fmt.Errorf("ensure player %s: %w", id, err)
	}
	return r.Get(ctx, id)
}

// ApplyTurnEffects commits every mutation of one turn in a single
// transaction. Lives are clamped at zero; inventory rows that reach zero
// quantity are deleted in the same transaction.
func (r *playerRepo) ApplyTurnEffects(ctx context.Context, id string, eff TurnEffects) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn commit: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE players SET
			fragments = MAX(0, fragments + ?),
			log_keys  = MAX(0, log_keys + ?),
			xp        = MAX(0, xp + ?)
		 WHERE id = ?`,
		eff.FragmentsDelta, eff.LogKeysDelta, eff.XPDelta, id)
	if err != nil {
		return fmt.Errorf("apply stat deltas: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if eff.SetLives != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE players SET lives = MAX(0, ?) WHERE id = ?`, *eff.SetLives, id)
	} else if eff.LivesDelta != 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE players SET lives = MAX(0, lives + ?) WHERE id = ?`, eff.LivesDelta, id)
	}
	if err != nil {
		return fmt.Errorf("apply lives: %w", err)
	}

	for _, g := range eff.Grants {
		if g.Quantity <= 0 {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory (player_id, item_id, quantity) VALUES (?, ?, ?)
			 ON CONFLICT (player_id, item_id) DO UPDATE SET quantity = quantity + ?`,
			id, g.ItemID, g.Quantity, g.Quantity)
		if err != nil {
			return fmt.Errorf("grant item %s: %w", g.ItemID, err)
		}
	}

	if eff.Consume != "" {
		if err := consumeItem(ctx, tx, id, eff.Consume); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn effects: %w", err)
	}
	return nil
}

// consumeItem decrements one unit and deletes the row at zero, as one
// logical step inside the caller's transaction.
func consumeItem(ctx context.Context, tx *sql.Tx, playerID, itemID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - 1
		 WHERE player_id = ? AND item_id = ? AND quantity > 0`,
		playerID, itemID)
	if err != nil {
		return fmt.Errorf("consume item %s: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("consume item %s: %w", itemID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM inventory WHERE player_id = ? AND item_id = ? AND quantity <= 0`,
		playerID, itemID)
	if err != nil {
		return fmt.Errorf("delete empty inventory row: %w", err)
	}
	return nil
}

func (r *playerRepo) Inventory(ctx context.Context, id string) ([]InventoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, quantity FROM inventory
		 WHERE player_id = ? AND quantity > 0 ORDER BY item_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryEntry
	for rows.Next() {
		var e InventoryEntry
		if err := rows.Scan(&e.ItemID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *playerRepo) SetLives(ctx context.Context, id string, lives int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET lives = MAX(0, ?) WHERE id = ?`, lives, id)
	if err != nil {
		return fmt.Errorf("set lives: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
