package session

import (
	"errors"
	"time"

	"github.com/desertthunder/repx/internal/models"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrSessionCompleted   = errors.New("session already completed")
	ErrInvalidReps        = errors.New("reps must not be negative")
	ErrExerciseOutOfRange = errors.New("exercise index out of range")
	ErrEmptySnapshot      = errors.New("session needs at least one exercise")
)

// State is the coarse position of the engine in its lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateResting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateResting:
		return "resting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Set is one planned set. ActualReps is non-nil exactly when Completed is true.
type Set struct {
	Number       int // 1-based
	TargetReps   int
	TargetWeight *float64
	ActualReps   *int
	Completed    bool
	Skipped      bool
}

// Exercise is a session's working copy of one [models.ExerciseSnapshot].
type Exercise struct {
	Snapshot models.ExerciseSnapshot
	Sets     []Set

	// NextSessionWeightAdjustment is the live hint computed when the final set is completed.
	NextSessionWeightAdjustment *float64
}

// Done reports whether every set was completed or skipped.
func (e *Exercise) Done() bool {
	for _, s := range e.Sets {
		if !s.Completed && !s.Skipped {
			return false
		}
	}
	return true
}

// CompletedSets counts sets with recorded reps.
func (e *Exercise) CompletedSets() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Session is one live workout attempt.
type Session struct {
	Exercises   []Exercise
	ExerciseIdx int
	SetIdx      int
	StartedAt   time.Time
	EndedAt     *time.Time
	Completed   bool
}

// Current returns the active exercise.
func (s *Session) Current() *Exercise {
	return &s.Exercises[s.ExerciseIdx]
}

// Duration is the time from start to end, or to now while running.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// Progress returns the number of completed sets and the number of planned sets.
func (s *Session) Progress() (done, total int) {
	for i := range s.Exercises {
		done += s.Exercises[i].CompletedSets()
		total += len(s.Exercises[i].Sets)
	}
	return done, total
}

func (s *Session) clone() *Session {
	c := *s
	c.Exercises = make([]Exercise, len(s.Exercises))
	for i, ex := range s.Exercises {
		c.Exercises[i] = Exercise{
			Snapshot:                    ex.Snapshot.Clone(),
			Sets:                        cloneSets(ex.Sets),
			NextSessionWeightAdjustment: clonePtr(ex.NextSessionWeightAdjustment),
		}
	}
	c.EndedAt = clonePtr(s.EndedAt)
	return &c
}

func newSession(snapshots []models.ExerciseSnapshot, now time.Time) *Session {
	exercises := make([]Exercise, len(snapshots))
	for i, snap := range snapshots {
		snap = snap.Clone()
		sets := make([]Set, snap.TargetSets)
		for n := range sets {
			sets[n] = Set{Number: n + 1, TargetReps: snap.TargetReps, TargetWeight: clonePtr(snap.TargetWeight)}
		}
		exercises[i] = Exercise{Snapshot: snap, Sets: sets}
	}
	return &Session{Exercises: exercises, StartedAt: now}
}

func cloneSets(sets []Set) []Set {
	out := make([]Set, len(sets))
	for i, s := range sets {
		s.TargetWeight = clonePtr(s.TargetWeight)
		s.ActualReps = clonePtr(s.ActualReps)
		out[i] = s
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
