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

// ExerciseRepository implements [models.Repository] for [models.Exercise].
type ExerciseRepository struct {
	db *sql.DB
}

// NewExerciseRepository creates a new exercise repository.
func NewExerciseRepository(db *sql.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

const exerciseColumns = "id, sequence, name, description, tracking_type, created_at, updated_at"

// Create inserts a new exercise. Names are unique across the catalogue.
func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	if exercise.Tracking == "" {
		exercise.Tracking = models.TrackReps
	}
	if err := exercise.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	seq, err := NextSequence(ctx, r.db, "exercises")
	if err != nil {
		return fmt.Errorf("failed to get next sequence: %w", err)
	}

	exercise.ID = shared.GenerateID()
	exercise.Sequence = seq
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now().UTC()
	}
	exercise.UpdatedAt = exercise.CreatedAt

	query := `
		INSERT INTO exercises (id, sequence, name, description, tracking_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		exercise.ID, exercise.Sequence, exercise.Name, exercise.Description,
		string(exercise.Tracking), exercise.CreatedAt, exercise.UpdatedAt,
	)
	if err != nil {
		return wrapInsertErr(err, "exercise")
	}

	return nil
}

// Get retrieves an exercise by ID.
func (r *ExerciseRepository) Get(ctx context.Context, id string) (*models.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises WHERE id = ?"
	exercise, err := scanExercise(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: exercise %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return exercise, nil
}

// GetByName retrieves an exercise by its unique name.
func (r *ExerciseRepository) GetByName(ctx context.Context, name string) (*models.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises WHERE name = ?"
	exercise, err := scanExercise(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: exercise %q", shared.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return exercise, nil
}

// Update modifies an existing exercise's name, description and tracking type.
func (r *ExerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	if err := exercise.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	exercise.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE exercises
		SET name = ?, description = ?, tracking_type = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		exercise.Name, exercise.Description, string(exercise.Tracking), exercise.UpdatedAt, exercise.ID,
	)
	if err != nil {
		return wrapInsertErr(err, "exercise")
	}

	return expectAffected(result, "exercise", exercise.ID)
}

// Delete removes an exercise. Day links referencing it cascade.
func (r *ExerciseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return expectAffected(result, "exercise", id)
}

// List retrieves exercises ordered by sequence.
//
// Supported criteria: "tracking" ([models.TrackingType] or string).
func (r *ExerciseRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises"
	args := []any{}

	if tracking, ok := criteria["tracking"]; ok {
		query += " WHERE tracking_type = ?"
		args = append(args, fmt.Sprint(tracking))
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*models.Exercise
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	return exercises, rows.Err()
}

func scanExercise(s scanner) (*models.Exercise, error) {
	var exercise models.Exercise
	var tracking string
	err := s.Scan(
		&exercise.ID, &exercise.Sequence, &exercise.Name, &exercise.Description,
		&tracking, &exercise.CreatedAt, &exercise.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	exercise.Tracking = models.TrackingType(tracking)
	return &exercise, nil
}
