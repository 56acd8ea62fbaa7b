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

// DayExerciseRepository implements [models.Repository] for [models.DayExercise].
//
// Reads join the exercises table so every returned link carries its exercise name,
// description and tracking type.
type DayExerciseRepository struct {
	db *sql.DB
}

// NewDayExerciseRepository creates a new day-exercise repository.
func NewDayExerciseRepository(db *sql.DB) *DayExerciseRepository {
	return &DayExerciseRepository{db: db}
}

const dayExerciseSelect = `
	SELECT de.id, de.day_id, de.exercise_id, de.position,
		de.target_sets, de.target_reps, de.target_time_seconds, de.target_weight,
		de.target_resistance_text, de.rest_time_seconds, de.increase_rate,
		de.min_reps, de.max_reps, de.created_at, de.updated_at,
		e.name, e.description, e.tracking_type
	FROM day_exercises de
	JOIN exercises e ON e.id = de.exercise_id
`

// Create appends an exercise link to the end of its day.
func (r *DayExerciseRepository) Create(ctx context.Context, link *models.DayExercise) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pos, err := dayExercisesTable.nextPosition(ctx, tx, link.DayID)
	if err != nil {
		return err
	}

	link.ID = shared.GenerateID()
	link.Position = pos
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.UpdatedAt = link.CreatedAt

	query := `
		INSERT INTO day_exercises (
			id, day_id, exercise_id, position, target_sets, target_reps, target_time_seconds,
			target_weight, target_resistance_text, rest_time_seconds, increase_rate,
			min_reps, max_reps, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		link.ID, link.DayID, link.ExerciseID, link.Position, link.TargetSets, link.TargetReps,
		link.TargetTimeSeconds, link.TargetWeight, link.TargetResistanceText, link.RestTimeSeconds,
		link.IncreaseRate, link.MinReps, link.MaxReps, link.CreatedAt, link.UpdatedAt,
	); err != nil {
		return wrapInsertErr(err, "day exercise")
	}

	return tx.Commit()
}

// Get retrieves a day-exercise link by ID.
func (r *DayExerciseRepository) Get(ctx context.Context, id string) (*models.DayExercise, error) {
	link, err := scanDayExercise(r.db.QueryRowContext(ctx, dayExerciseSelect+" WHERE de.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: day exercise %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day exercise: %w", err)
	}
	return link, nil
}

// Update rewrites a link's targets. Position and parent day are unchanged.
func (r *DayExerciseRepository) Update(ctx context.Context, link *models.DayExercise) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	link.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE day_exercises
		SET target_sets = ?, target_reps = ?, target_time_seconds = ?, target_weight = ?,
			target_resistance_text = ?, rest_time_seconds = ?, increase_rate = ?,
			min_reps = ?, max_reps = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		link.TargetSets, link.TargetReps, link.TargetTimeSeconds, link.TargetWeight,
		link.TargetResistanceText, link.RestTimeSeconds, link.IncreaseRate,
		link.MinReps, link.MaxReps, link.UpdatedAt, link.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update day exercise: %w", err)
	}

	return expectAffected(result, "day exercise", link.ID)
}

// UpdateTargetWeight sets the prescribed weight for the next session.
func (r *DayExerciseRepository) UpdateTargetWeight(ctx context.Context, id string, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("%w: negative target weight %v", shared.ErrInvalidInput, weight)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE day_exercises SET target_weight = ?, updated_at = ? WHERE id = ?",
		weight, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update target weight: %w", err)
	}

	return expectAffected(result, "day exercise", id)
}

// Delete removes a link and renumbers the remaining links of its day.
func (r *DayExerciseRepository) Delete(ctx context.Context, id string) error {
	return dayExercisesTable.deleteAndRenumber(ctx, r.db, id)
}

// Move places a link at position within its day, shifting the others.
func (r *DayExerciseRepository) Move(ctx context.Context, id string, position int) error {
	return dayExercisesTable.move(ctx, r.db, id, position)
}

// ListByDay returns a day's links ordered by position.
func (r *DayExerciseRepository) ListByDay(ctx context.Context, dayID string) ([]*models.DayExercise, error) {
	return r.List(ctx, map[string]any{"day_id": dayID})
}

// List retrieves links ordered by day then position.
//
// Supported criteria: "day_id", "exercise_id".
func (r *DayExerciseRepository) List(ctx context.Context, criteria map[string]any) ([]*models.DayExercise, error) {
	query := dayExerciseSelect + " WHERE 1=1"
	args := []any{}

	if dayID, ok := criteria["day_id"]; ok {
		query += " AND de.day_id = ?"
		args = append(args, dayID)
	}
	if exerciseID, ok := criteria["exercise_id"]; ok {
		query += " AND de.exercise_id = ?"
		args = append(args, exerciseID)
	}
	query += " ORDER BY de.day_id, de.position ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list day exercises: %w", err)
	}
	defer rows.Close()

	var links []*models.DayExercise
	for rows.Next() {
		link, err := scanDayExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day exercise: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func scanDayExercise(s scanner) (*models.DayExercise, error) {
	var (
		d            models.DayExercise
		timeSeconds  sql.NullInt64
		weight       sql.NullFloat64
		resistance   sql.NullString
		minReps      sql.NullInt64
		maxReps      sql.NullInt64
		trackingType string
	)

	err := s.Scan(
		&d.ID, &d.DayID, &d.ExerciseID, &d.Position,
		&d.TargetSets, &d.TargetReps, &timeSeconds, &weight,
		&resistance, &d.RestTimeSeconds, &d.IncreaseRate,
		&minReps, &maxReps, &d.CreatedAt, &d.UpdatedAt,
		&d.ExerciseName, &d.ExerciseDescription, &trackingType,
	)
	if err != nil {
		return nil, err
	}

	d.TargetTimeSeconds = nullInt(timeSeconds)
	d.TargetWeight = nullFloat(weight)
	d.TargetResistanceText = nullString(resistance)
	d.MinReps = nullInt(minReps)
	d.MaxReps = nullInt(maxReps)
	d.Tracking = models.TrackingType(trackingType)

	return &d, nil
}
