package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pders01/cascade/internal/models"
)

// DeleteNode removes a node and returns its full snapshot. The snapshot also
// replaces the contents of the single-slot undo buffer.
func (s *Store) DeleteNode(ctx context.Context, id int64) (*models.Node, error) {
	var snapshot *models.Node
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := getNodeTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete node: %w", err)
		}

		raw, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		now := s.nowMs()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO undo_buffer (slot, snapshot, deleted_at) VALUES (1, ?, ?)
			 ON CONFLICT(slot) DO UPDATE SET snapshot = excluded.snapshot, deleted_at = excluded.deleted_at`,
			string(raw), now,
		); err != nil {
			return fmt.Errorf("failed to fill undo buffer: %w", err)
		}

		snapshot = n
		return touchProject(ctx, tx, n.ProjectID, now)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RestoreNode re-inserts a snapshot under a new id at its former position.
// Siblings at or after that position move down by one. If the project has
// shrunk since, the node is appended instead.
func (s *Store) RestoreNode(ctx context.Context, snapshot models.Node) (*models.Node, error) {
	var restored *models.Node
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		restored, err = restoreTx(ctx, tx, snapshot, s.nowMs())
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func restoreTx(ctx context.Context, tx *sql.Tx, snapshot models.Node, now int64) (*models.Node, error) {
	if err := touchProject(ctx, tx, snapshot.ProjectID, now); err != nil {
		return nil, err
	}

	next, err := nextOrder(ctx, tx, snapshot.ProjectID)
	if err != nil {
		return nil, err
	}

	n := snapshot
	n.ID = 0
	if n.Order < 0 || n.Order > next {
		n.Order = next
	}
	if n.Order < next {
		if _, err := tx.ExecContext(ctx,
			`UPDATE nodes SET ord = ord + 1 WHERE project_id = ? AND ord >= ?`,
			n.ProjectID, n.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to shift siblings: %w", err)
		}
	}

	if err := insertNode(ctx, tx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Undo restores the most recently deleted node and empties the undo buffer
func (s *Store) Undo(ctx context.Context) (*models.Node, error) {
	var restored *models.Node
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT snapshot FROM undo_buffer WHERE slot = 1`).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNothingToUndo
		}
		if err != nil {
			return fmt.Errorf("failed to read undo buffer: %w", err)
		}

		var snapshot models.Node
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			return fmt.Errorf("failed to decode snapshot: %w", err)
		}

		restored, err = restoreTx(ctx, tx, snapshot, s.nowMs())
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM undo_buffer WHERE slot = 1`); err != nil {
			return fmt.Errorf("failed to clear undo buffer: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrProjectNotFound) {
		// The owning project is gone, so the snapshot can never be restored.
		if derr := s.DiscardUndo(ctx); derr != nil {
			return nil, derr
		}
	}
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// PendingUndo returns the snapshot held in the undo buffer, if any
func (s *Store) PendingUndo(ctx context.Context) (*models.Node, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM undo_buffer WHERE slot = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNothingToUndo
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read undo buffer: %w", err)
	}

	var snapshot models.Node
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// DiscardUndo empties the undo buffer
func (s *Store) DiscardUndo(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM undo_buffer`); err != nil {
			return fmt.Errorf("failed to clear undo buffer: %w", err)
		}
		return nil
	})
}
