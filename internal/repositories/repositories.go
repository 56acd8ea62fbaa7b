// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/repx/internal/shared"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g. exercise #4, program #2).
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// orderedTable describes a child table ordered by a position column within a parent.
type orderedTable struct {
	name   string // table name
	parent string // parent foreign key column
}

var (
	daysTable         = orderedTable{name: "days", parent: "program_id"}
	dayExercisesTable = orderedTable{name: "day_exercises", parent: "day_id"}
)

// nextPosition returns the position after the last child of parentID.
func (t orderedTable) nextPosition(ctx context.Context, tx *sql.Tx, parentID string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", t.name, t.parent)
	if err := tx.QueryRowContext(ctx, query, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return count, nil
}

// orderedIDs lists child IDs of parentID by position.
func (t orderedTable) orderedIDs(ctx context.Context, tx *sql.Tx, parentID string) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s = ? ORDER BY position ASC, created_at ASC", t.name, t.parent)
	rows, err := tx.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s order: %w", t.name, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", t.name, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// writePositions assigns positions 0..n-1 to ids in order.
func (t orderedTable) writePositions(ctx context.Context, tx *sql.Tx, ids []string) error {
	query := fmt.Sprintf("UPDATE %s SET position = ? WHERE id = ?", t.name)
	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx, query, pos, id); err != nil {
			return fmt.Errorf("failed to renumber %s: %w", t.name, err)
		}
	}
	return nil
}

// renumber closes gaps left by a delete.
func (t orderedTable) renumber(ctx context.Context, tx *sql.Tx, parentID string) error {
	ids, err := t.orderedIDs(ctx, tx, parentID)
	if err != nil {
		return err
	}
	return t.writePositions(ctx, tx, ids)
}

// parentOf returns the parent ID of child id.
func (t orderedTable) parentOf(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	var parentID string
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.parent, t.name)
	err := tx.QueryRowContext(ctx, query, id).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %s", shared.ErrNotFound, t.name, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up %s parent: %w", t.name, err)
	}
	return parentID, nil
}

// move places child id at position and renumbers its siblings.
func (t orderedTable) move(ctx context.Context, db *sql.DB, id string, position int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parentID, err := t.parentOf(ctx, tx, id)
	if err != nil {
		return err
	}

	ids, err := t.orderedIDs(ctx, tx, parentID)
	if err != nil {
		return err
	}

	if position < 0 || position >= len(ids) {
		return fmt.Errorf("%w: %d not in [0, %d)", shared.ErrInvalidPosition, position, len(ids))
	}

	reordered := make([]string, 0, len(ids))
	for _, other := range ids {
		if other != id {
			reordered = append(reordered, other)
		}
	}
	reordered = append(reordered[:position], append([]string{id}, reordered[position:]...)...)

	if err := t.writePositions(ctx, tx, reordered); err != nil {
		return err
	}

	return tx.Commit()
}

// deleteAndRenumber removes child id and closes the gap in its parent's ordering.
func (t orderedTable) deleteAndRenumber(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parentID, err := t.parentOf(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name), id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}

	if err := t.renumber(ctx, tx, parentID); err != nil {
		return err
	}

	return tx.Commit()
}

// expectAffected turns a zero-row write into a not-found error.
func expectAffected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return nil
}

// wrapInsertErr maps UNIQUE constraint violations to [shared.ErrDuplicate].
func wrapInsertErr(err error, what string) error {
	if strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("%w: %s: %v", shared.ErrDuplicate, what, err)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
