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

// ProgramRepository implements [models.Repository] for [models.Program].
type ProgramRepository struct {
	db *sql.DB
}

// NewProgramRepository creates a new program repository.
func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// Create inserts a new program into the database.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if err := program.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	seq, err := NextSequence(ctx, r.db, "programs")
	if err != nil {
		return fmt.Errorf("failed to get next sequence: %w", err)
	}

	program.ID = shared.GenerateID()
	program.Sequence = seq
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}
	program.UpdatedAt = program.CreatedAt

	query := `
		INSERT INTO programs (id, sequence, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		program.ID, program.Sequence, program.Name, program.Description, program.CreatedAt, program.UpdatedAt,
	); err != nil {
		return wrapInsertErr(err, "program")
	}

	return nil
}

// Get retrieves a program by ID.
func (r *ProgramRepository) Get(ctx context.Context, id string) (*models.Program, error) {
	query := `
		SELECT id, sequence, name, description, created_at, updated_at
		FROM programs WHERE id = ?
	`
	program, err := scanProgram(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: program %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return program, nil
}

// Update modifies an existing program's name and description.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	if err := program.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	program.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		"UPDATE programs SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		program.Name, program.Description, program.UpdatedAt, program.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	return expectAffected(result, "program", program.ID)
}

// Delete removes a program. Days, their exercise links and workout logs cascade.
func (r *ProgramRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM programs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	return expectAffected(result, "program", id)
}

// List retrieves programs ordered by sequence.
//
// Supported criteria: "name" (exact match).
func (r *ProgramRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Program, error) {
	query := "SELECT id, sequence, name, description, created_at, updated_at FROM programs"
	args := []any{}

	if name, ok := criteria["name"]; ok {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, program)
	}

	return programs, rows.Err()
}

func scanProgram(s scanner) (*models.Program, error) {
	var p models.Program
	if err := s.Scan(&p.ID, &p.Sequence, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
