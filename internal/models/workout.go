package models

import (
	"fmt"
	"time"
)

// WorkoutLog is the durable record of one workout of a program day.
type WorkoutLog struct {
	ID          string     `json:"id" yaml:"id"`
	ProgramID   string     `json:"program_id" yaml:"program_id"`
	DayID       string     `json:"day_id" yaml:"day_id"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewWorkoutLog creates a log started now.
func NewWorkoutLog(programID, dayID string) *WorkoutLog {
	return &WorkoutLog{ProgramID: programID, DayID: dayID, StartedAt: time.Now().UTC()}
}

// Completed reports whether the log has been closed.
func (l *WorkoutLog) Completed() bool {
	return l.CompletedAt != nil
}

func (l *WorkoutLog) Validate() error {
	if l.ProgramID == "" || l.DayID == "" {
		return fmt.Errorf("workout log requires program_id and day_id")
	}
	if l.CompletedAt != nil && l.CompletedAt.Before(l.StartedAt) {
		return fmt.Errorf("workout log completed before it started")
	}
	return nil
}

// WorkoutExerciseSet is one recorded (or explicitly skipped) set.
//
// TargetReps and TargetWeight snapshot the targets in effect when the set was performed,
// so later target changes never rewrite history.
type WorkoutExerciseSet struct {
	ID            string    `json:"id" yaml:"id"`
	WorkoutLogID  string    `json:"workout_log_id" yaml:"workout_log_id"`
	ExerciseID    string    `json:"exercise_id" yaml:"exercise_id"`
	DayExerciseID string    `json:"day_exercise_id" yaml:"day_exercise_id"`
	SetNumber     int       `json:"set_number" yaml:"set_number"`
	ActualReps    *int      `json:"actual_reps,omitempty" yaml:"actual_reps,omitempty"`
	ActualWeight  *float64  `json:"actual_weight,omitempty" yaml:"actual_weight,omitempty"`
	TargetReps    *int      `json:"target_reps,omitempty" yaml:"target_reps,omitempty"`
	TargetWeight  *float64  `json:"target_weight,omitempty" yaml:"target_weight,omitempty"`
	Skipped       bool      `json:"skipped" yaml:"skipped"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

func (s *WorkoutExerciseSet) Validate() error {
	switch {
	case s.WorkoutLogID == "":
		return fmt.Errorf("set workout_log_id is required")
	case s.ExerciseID == "" || s.DayExerciseID == "":
		return fmt.Errorf("set exercise_id and day_exercise_id are required")
	case s.SetNumber < 1:
		return fmt.Errorf("set_number must be at least 1, got %d", s.SetNumber)
	case s.ActualReps != nil && *s.ActualReps < 0:
		return fmt.Errorf("actual_reps must not be negative, got %d", *s.ActualReps)
	case s.ActualWeight != nil && *s.ActualWeight < 0:
		return fmt.Errorf("actual_weight must not be negative, got %v", *s.ActualWeight)
	}
	return nil
}

// ExerciseSnapshot is the ordered configuration a live session is started from.
type ExerciseSnapshot struct {
	ExerciseID           string
	DayExerciseID        string
	Name                 string
	Description          string
	Tracking             TrackingType
	RestTimeSeconds      int
	TargetSets           int
	TargetReps           int
	TargetTimeSeconds    *int
	TargetWeight         *float64
	TargetResistanceText *string
	IncreaseRate         float64
}

// SnapshotOf copies the session-relevant fields of a day-exercise link.
func SnapshotOf(d DayExercise) ExerciseSnapshot {
	return ExerciseSnapshot{
		ExerciseID:           d.ExerciseID,
		DayExerciseID:        d.ID,
		Name:                 d.ExerciseName,
		Description:          d.ExerciseDescription,
		Tracking:             d.Tracking,
		RestTimeSeconds:      d.RestTimeSeconds,
		TargetSets:           d.TargetSets,
		TargetReps:           d.EffectiveTarget(),
		TargetTimeSeconds:    clonePtr(d.TargetTimeSeconds),
		TargetWeight:         clonePtr(d.TargetWeight),
		TargetResistanceText: clonePtr(d.TargetResistanceText),
		IncreaseRate:         d.IncreaseRate,
	}
}

// Clone returns a copy of the snapshot that shares no pointers with s.
func (s ExerciseSnapshot) Clone() ExerciseSnapshot {
	c := s
	c.TargetTimeSeconds = clonePtr(s.TargetTimeSeconds)
	c.TargetWeight = clonePtr(s.TargetWeight)
	c.TargetResistanceText = clonePtr(s.TargetResistanceText)
	return c
}

// DayTree is a day with its ordered exercise snapshots (empty for rest days).
type DayTree struct {
	Day       Day
	Exercises []ExerciseSnapshot
}

// ProgramTree is the in-memory program built by the loader.
type ProgramTree struct {
	Program Program
	Days    []DayTree
}

// ExportedExercise groups a log's sets under their exercise.
type ExportedExercise struct {
	ExerciseID    string               `json:"exercise_id" yaml:"exercise_id"`
	DayExerciseID string               `json:"day_exercise_id" yaml:"day_exercise_id"`
	Name          string               `json:"name" yaml:"name"`
	Sets          []WorkoutExerciseSet `json:"sets" yaml:"sets"`
}

// WorkoutLogExport is a workout log with names resolved, ready for export.
type WorkoutLogExport struct {
	Log         WorkoutLog         `json:"log" yaml:"log"`
	ProgramName string             `json:"program" yaml:"program"`
	DayName     string             `json:"day" yaml:"day"`
	Exercises   []ExportedExercise `json:"exercises" yaml:"exercises"`
}

// Volume sums actual_reps * actual_weight over completed, non-skipped sets.
func (e *WorkoutLogExport) Volume() float64 {
	var total float64
	for _, ex := range e.Exercises {
		for _, s := range ex.Sets {
			if s.Skipped || s.ActualReps == nil || s.ActualWeight == nil {
				continue
			}
			total += float64(*s.ActualReps) * *s.ActualWeight
		}
	}
	return total
}
