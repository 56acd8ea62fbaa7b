package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
)

// DayRepository implements [models.Repository] for [models.Day].
type DayRepository struct {
	db *sql.DB
}

// NewDayRepository creates a new day repository.
func NewDayRepository(db *sql.DB) *DayRepository {
	return &DayRepository{db: db}
}

const dayColumns = "id, program_id, position, name, is_rest_day, created_at, updated_at"

// Create appends a day to the end of its program.
func (r *DayRepository) Create(ctx context.Context, day *models.Day) error {
	if err := day.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pos, err := daysTable.nextPosition(ctx, tx, day.ProgramID)
	if err != nil {
		return err
	}

	day.ID = shared.GenerateID()
	day.Position = pos
	if day.CreatedAt.IsZero() {
		day.CreatedAt = time.Now().UTC()
	}
	day.UpdatedAt = day.CreatedAt

	query := `
		INSERT INTO days (id, program_id, position, name, is_rest_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		day.ID, day.ProgramID, day.Position, day.Name, day.RestDay, day.CreatedAt, day.UpdatedAt,
	); err != nil {
		return wrapInsertErr(err, "day")
	}

	return tx.Commit()
}

// Get retrieves a day by ID.
func (r *DayRepository) Get(ctx context.Context, id string) (*models.Day, error) {
	query := "SELECT " + dayColumns + " FROM days WHERE id = ?"
	day, err := scanDay(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: day %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	return day, nil
}

// Update modifies a day's name and rest flag. Use [DayRepository.Move] to reorder.
func (r *DayRepository) Update(ctx context.Context, day *models.Day) error {
	if err := day.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	day.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		"UPDATE days SET name = ?, is_rest_day = ?, updated_at = ? WHERE id = ?",
		day.Name, day.RestDay, day.UpdatedAt, day.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update day: %w", err)
	}

	return expectAffected(result, "day", day.ID)
}

// Delete removes a day and renumbers the remaining days of its program.
func (r *DayRepository) Delete(ctx context.Context, id string) error {
	return daysTable.deleteAndRenumber(ctx, r.db, id)
}

// Move places a day at position within its program, shifting the others.
func (r *DayRepository) Move(ctx context.Context, id string, position int) error {
	return daysTable.move(ctx, r.db, id, position)
}

// ListByProgram returns a program's days ordered by position.
func (r *DayRepository) ListByProgram(ctx context.Context, programID string) ([]*models.Day, error) {
	return r.List(ctx, map[string]any{"program_id": programID})
}

// List retrieves days ordered by program then position.
//
// Supported criteria: "program_id", "rest_day" (bool).
func (r *DayRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Day, error) {
	query := "SELECT " + dayColumns + " FROM days WHERE 1=1"
	args := []any{}

	if programID, ok := criteria["program_id"]; ok {
		query += " AND program_id = ?"
		args = append(args, programID)
	}
	if restDay, ok := criteria["rest_day"].(bool); ok {
		query += " AND is_rest_day = ?"
		args = append(args, restDay)
	}
	query += " ORDER BY program_id, position ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	defer rows.Close()

	var days []*models.Day
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, day)
	}

	return days, rows.Err()
}

func scanDay(s scanner) (*models.Day, error) {
	var d models.Day
	if err := s.Scan(&d.ID, &d.ProgramID, &d.Position, &d.Name, &d.RestDay, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
