package models

import (
	"fmt"
	"strings"
	"time"
)

// TrackingType tells whether an exercise counts repetitions or seconds.
type TrackingType string

const (
	TrackReps TrackingType = "reps"
	TrackTime TrackingType = "time"
)

// ParseTrackingType maps user input to a [TrackingType], defaulting to reps.
func ParseTrackingType(s string) (TrackingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reps":
		return TrackReps, nil
	case "time", "seconds":
		return TrackTime, nil
	default:
		return "", fmt.Errorf("unknown tracking type %q", s)
	}
}

// Exercise is the static definition of a movement, independent of any program.
type Exercise struct {
	ID          string
	Sequence    int
	Name        string
	Description string
	Tracking    TrackingType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewExercise creates an Exercise with creation timestamps set.
func NewExercise(name, description string, tracking TrackingType) *Exercise {
	now := time.Now().UTC()
	if tracking == "" {
		tracking = TrackReps
	}
	return &Exercise{
		Name:        name,
		Description: description,
		Tracking:    tracking,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("exercise name is required")
	}
	if e.Tracking != TrackReps && e.Tracking != TrackTime {
		return fmt.Errorf("invalid tracking type %q", e.Tracking)
	}
	return nil
}

// Program is a named, ordered collection of days.
type Program struct {
	ID          string
	Sequence    int
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProgram creates a Program with creation timestamps set.
func NewProgram(name, description string) *Program {
	now := time.Now().UTC()
	return &Program{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
}

func (p *Program) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("program name is required")
	}
	return nil
}

// Day is either a rest day or a workout day with configured exercises.
type Day struct {
	ID        string
	ProgramID string
	Position  int
	Name      string
	RestDay   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDay creates a Day for programID. Its position is assigned on insert.
func NewDay(programID, name string, restDay bool) *Day {
	now := time.Now().UTC()
	return &Day{ProgramID: programID, Name: name, RestDay: restDay, CreatedAt: now, UpdatedAt: now}
}

func (d *Day) Validate() error {
	if d.ProgramID == "" {
		return fmt.Errorf("day program_id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("day name is required")
	}
	return nil
}

// DayExercise links an exercise to a day with the targets for that day.
//
// ExerciseName, ExerciseDescription and Tracking are read-only copies of the linked
// exercise, filled in by queries that join the exercises table.
type DayExercise struct {
	ID                   string
	DayID                string
	ExerciseID           string
	Position             int
	TargetSets           int
	TargetReps           int
	TargetTimeSeconds    *int
	TargetWeight         *float64
	TargetResistanceText *string
	RestTimeSeconds      int
	IncreaseRate         float64
	MinReps              *int
	MaxReps              *int
	CreatedAt            time.Time
	UpdatedAt            time.Time

	ExerciseName        string
	ExerciseDescription string
	Tracking            TrackingType
}

// NewDayExercise creates a link with the required targets; optional targets are set by the caller.
func NewDayExercise(dayID, exerciseID string, sets, reps, restSeconds int, increaseRate float64) *DayExercise {
	now := time.Now().UTC()
	return &DayExercise{
		DayID:           dayID,
		ExerciseID:      exerciseID,
		TargetSets:      sets,
		TargetReps:      reps,
		RestTimeSeconds: restSeconds,
		IncreaseRate:    increaseRate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// EffectiveTarget is the rep (or second) count that must be met to progress.
func (d *DayExercise) EffectiveTarget() int {
	if d.Tracking == TrackTime && d.TargetTimeSeconds != nil {
		return *d.TargetTimeSeconds
	}
	return d.TargetReps
}

func (d *DayExercise) Validate() error {
	switch {
	case d.DayID == "":
		return fmt.Errorf("day_exercise day_id is required")
	case d.ExerciseID == "":
		return fmt.Errorf("day_exercise exercise_id is required")
	case d.TargetSets <= 0:
		return fmt.Errorf("target_sets must be positive, got %d", d.TargetSets)
	case d.TargetReps < 0:
		return fmt.Errorf("target_reps must not be negative, got %d", d.TargetReps)
	case d.TargetReps == 0 && (d.TargetTimeSeconds == nil || *d.TargetTimeSeconds <= 0):
		return fmt.Errorf("either target_reps or target_time_seconds must be positive")
	case d.TargetWeight != nil && *d.TargetWeight < 0:
		return fmt.Errorf("target_weight must not be negative, got %v", *d.TargetWeight)
	case d.RestTimeSeconds < 0:
		return fmt.Errorf("rest_time_seconds must not be negative, got %d", d.RestTimeSeconds)
	case d.IncreaseRate <= 0:
		return fmt.Errorf("increase_rate must be positive, got %v", d.IncreaseRate)
	case d.MinReps != nil && d.MaxReps != nil && *d.MinReps > *d.MaxReps:
		return fmt.Errorf("min_reps %d exceeds max_reps %d", *d.MinReps, *d.MaxReps)
	}
	return nil
}
