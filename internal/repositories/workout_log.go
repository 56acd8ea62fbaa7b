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

// WorkoutLogRepository implements [models.Repository] for [models.WorkoutLog].
type WorkoutLogRepository struct {
	db *sql.DB
}

// NewWorkoutLogRepository creates a new workout log repository.
func NewWorkoutLogRepository(db *sql.DB) *WorkoutLogRepository {
	return &WorkoutLogRepository{db: db}
}

// Create inserts a new, open workout log.
func (r *WorkoutLogRepository) Create(ctx context.Context, log *models.WorkoutLog) error {
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now().UTC()
	}
	if err := log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	log.ID = shared.GenerateID()

	query := `
		INSERT INTO workout_logs (id, program_id, day_id, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.ProgramID, log.DayID, log.StartedAt, log.CompletedAt); err != nil {
		return wrapInsertErr(err, "workout log")
	}

	return nil
}

// Get retrieves a workout log by ID.
func (r *WorkoutLogRepository) Get(ctx context.Context, id string) (*models.WorkoutLog, error) {
	query := "SELECT id, program_id, day_id, started_at, completed_at FROM workout_logs WHERE id = ?"
	log, err := scanWorkoutLog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: workout log %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workout log: %w", err)
	}
	return log, nil
}

// Update rewrites a log's timestamps.
func (r *WorkoutLogRepository) Update(ctx context.Context, log *models.WorkoutLog) error {
	if err := log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE workout_logs SET started_at = ?, completed_at = ? WHERE id = ?",
		log.StartedAt, log.CompletedAt, log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workout log: %w", err)
	}

	return expectAffected(result, "workout log", log.ID)
}

// Complete stamps a log's completion time. A log can only be completed once.
func (r *WorkoutLogRepository) Complete(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workout_logs SET completed_at = ? WHERE id = ? AND completed_at IS NULL",
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete workout log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", shared.ErrLogCompleted, id)
}

// Delete removes a log and its sets.
func (r *WorkoutLogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workout_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete workout log: %w", err)
	}
	return expectAffected(result, "workout log", id)
}

// List retrieves workout logs, newest first.
//
// Supported criteria: "program_id", "day_id", "completed" (bool), "limit" (int).
func (r *WorkoutLogRepository) List(ctx context.Context, criteria map[string]any) ([]*models.WorkoutLog, error) {
	query := "SELECT id, program_id, day_id, started_at, completed_at FROM workout_logs WHERE 1=1"
	args := []any{}

	if programID, ok := criteria["program_id"]; ok {
		query += " AND program_id = ?"
		args = append(args, programID)
	}
	if dayID, ok := criteria["day_id"]; ok {
		query += " AND day_id = ?"
		args = append(args, dayID)
	}
	if completed, ok := criteria["completed"].(bool); ok {
		if completed {
			query += " AND completed_at IS NOT NULL"
		} else {
			query += " AND completed_at IS NULL"
		}
	}
	query += " ORDER BY started_at DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.WorkoutLog
	for rows.Next() {
		log, err := scanWorkoutLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func scanWorkoutLog(s scanner) (*models.WorkoutLog, error) {
	var (
		log         models.WorkoutLog
		completedAt sql.NullTime
	)
	if err := s.Scan(&log.ID, &log.ProgramID, &log.DayID, &log.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		log.CompletedAt = &t
	}
	return &log, nil
}
