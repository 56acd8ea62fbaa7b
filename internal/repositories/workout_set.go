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

// WorkoutSetRepository persists [models.WorkoutExerciseSet] records.
//
// Sets are append-only history; there is no Update.
type WorkoutSetRepository struct {
	db *sql.DB
}

// NewWorkoutSetRepository creates a new workout set repository.
func NewWorkoutSetRepository(db *sql.DB) *WorkoutSetRepository {
	return &WorkoutSetRepository{db: db}
}

const workoutSetColumns = `s.id, s.workout_log_id, s.exercise_id, s.day_exercise_id, s.set_number,
	s.actual_reps, s.actual_weight, s.target_reps, s.target_weight, s.skipped, s.created_at`

// Create appends a set to a workout log.
func (r *WorkoutSetRepository) Create(ctx context.Context, set *models.WorkoutExerciseSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	set.ID = shared.GenerateID()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO workout_exercise_sets (
			id, workout_log_id, exercise_id, day_exercise_id, set_number,
			actual_reps, actual_weight, target_reps, target_weight, skipped, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		set.ID, set.WorkoutLogID, set.ExerciseID, set.DayExerciseID, set.SetNumber,
		set.ActualReps, set.ActualWeight, set.TargetReps, set.TargetWeight, set.Skipped, set.CreatedAt,
	); err != nil {
		return wrapInsertErr(err, "workout set")
	}

	return nil
}

// ListByLog returns a log's sets ordered by exercise position, then set number.
//
// Sets whose day link has since been deleted sort last.
func (r *WorkoutSetRepository) ListByLog(ctx context.Context, logID string) ([]*models.WorkoutExerciseSet, error) {
	query := `
		SELECT ` + workoutSetColumns + `
		FROM workout_exercise_sets s
		LEFT JOIN day_exercises de ON de.id = s.day_exercise_id
		WHERE s.workout_log_id = ?
		ORDER BY COALESCE(de.position, 2147483647), s.day_exercise_id, s.set_number, s.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout sets: %w", err)
	}
	defer rows.Close()

	var sets []*models.WorkoutExerciseSet
	for rows.Next() {
		set, err := scanWorkoutSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout set: %w", err)
		}
		sets = append(sets, set)
	}

	return sets, rows.Err()
}

// LastForDayExercise returns the set with the highest set number logged for
// dayExerciseID within logID, or [shared.ErrNotFound] when none exists.
func (r *WorkoutSetRepository) LastForDayExercise(ctx context.Context, logID, dayExerciseID string) (*models.WorkoutExerciseSet, error) {
	query := `
		SELECT ` + workoutSetColumns + `
		FROM workout_exercise_sets s
		WHERE s.workout_log_id = ? AND s.day_exercise_id = ?
		ORDER BY s.set_number DESC, s.created_at DESC
		LIMIT 1
	`
	set, err := scanWorkoutSet(r.db.QueryRowContext(ctx, query, logID, dayExerciseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sets for %s in log %s", shared.ErrNotFound, dayExerciseID, logID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last set: %w", err)
	}
	return set, nil
}

// CountByLog returns the number of sets recorded for a log.
func (r *WorkoutSetRepository) CountByLog(ctx context.Context, logID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workout_exercise_sets WHERE workout_log_id = ?", logID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workout sets: %w", err)
	}
	return count, nil
}

func scanWorkoutSet(s scanner) (*models.WorkoutExerciseSet, error) {
	var (
		set          models.WorkoutExerciseSet
		actualReps   sql.NullInt64
		actualWeight sql.NullFloat64
		targetReps   sql.NullInt64
		targetWeight sql.NullFloat64
	)

	err := s.Scan(
		&set.ID, &set.WorkoutLogID, &set.ExerciseID, &set.DayExerciseID, &set.SetNumber,
		&actualReps, &actualWeight, &targetReps, &targetWeight, &set.Skipped, &set.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	set.ActualReps = nullInt(actualReps)
	set.ActualWeight = nullFloat(actualWeight)
	set.TargetReps = nullInt(targetReps)
	set.TargetWeight = nullFloat(targetWeight)

	return &set, nil
}
