package session

import (
	"fmt"
	"time"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
)

// SetRecord identifies a set touched by a transition, with the snapshot needed to persist it.
type SetRecord struct {
	ExerciseIndex int
	Exercise      models.ExerciseSnapshot
	Set           Set
}

// RestStart describes a rest period started by a transition.
type RestStart struct {
	Seconds    int
	Generation uint64
}

// Transition reports the side effects of one state change.
type Transition struct {
	Logged     *SetRecord  // set completed by CompleteSet
	Skipped    []SetRecord // sets abandoned by SkipExercise or FinishWorkout
	Rest       *RestStart  // rest period to schedule ticks for
	Adjustment *float64    // live hint when Logged was the exercise's final set
	Finished   bool        // session entered Completed during this call
}

// TickResult tells the caller what a rest tick did.
type TickResult int

const (
	TickIgnored  TickResult = iota // stale generation or not resting
	TickCounting                   // decremented, still resting
	TickFinished                   // reached zero, rest cleared
)

// RestTimer is the countdown between sets.
type RestTimer struct {
	Resting    bool
	Remaining  int
	Generation uint64
}

// Engine drives a single live session. The zero value is not usable; use [NewEngine].
//
// Engine is not safe for concurrent use. All calls are expected from one event loop.
type Engine struct {
	session *Session
	timer   RestTimer
	now     func() time.Time
}

// NewEngine creates an engine in [StateNotStarted]. A nil clock defaults to [time.Now].
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{now: clock}
}

// Start replaces any current session with a new one built from deep copies of snapshots.
func (e *Engine) Start(snapshots []models.ExerciseSnapshot) error {
	if len(snapshots) == 0 {
		return ErrEmptySnapshot
	}
	for _, s := range snapshots {
		if s.TargetSets < 1 {
			return fmt.Errorf("%w: %s has no sets", ErrEmptySnapshot, s.Name)
		}
	}

	e.stopRest()
	e.session = newSession(snapshots, e.now().UTC())
	return nil
}

// Reset discards the current session and returns to [StateNotStarted].
func (e *Engine) Reset() {
	e.stopRest()
	e.session = nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	switch {
	case e.session == nil:
		return StateNotStarted
	case e.session.Completed:
		return StateCompleted
	case e.timer.Resting:
		return StateResting
	default:
		return StateInProgress
	}
}

// Session returns a deep copy of the current session, or nil before [Engine.Start].
func (e *Engine) Session() *Session {
	if e.session == nil {
		return nil
	}
	return e.session.clone()
}

// Rest returns the rest timer state.
func (e *Engine) Rest() RestTimer {
	return e.timer
}

// LiveAdjustments maps day-exercise link IDs to the hints computed so far.
func (e *Engine) LiveAdjustments() map[string]float64 {
	out := map[string]float64{}
	if e.session == nil {
		return out
	}
	for _, ex := range e.session.Exercises {
		if ex.NextSessionWeightAdjustment != nil {
			out[ex.Snapshot.DayExerciseID] = *ex.NextSessionWeightAdjustment
		}
	}
	return out
}

func (e *Engine) active() error {
	if e.session == nil {
		return ErrNoSession
	}
	if e.session.Completed {
		return ErrSessionCompleted
	}
	return nil
}

// CompleteSet records reps for the current set and advances.
//
// Completing an exercise's final set computes its live hint. On the last exercise the
// session completes directly without a rest period, and sets left open on earlier
// exercises are reported as skipped like [Engine.FinishWorkout] does. Otherwise rest
// starts using the rest time of the exercise that comes next.
func (e *Engine) CompleteSet(reps int) (Transition, error) {
	if err := e.active(); err != nil {
		return Transition{}, err
	}
	if reps < 0 {
		return Transition{}, ErrInvalidReps
	}

	s := e.session
	ex := s.Current()
	set := &ex.Sets[s.SetIdx]
	set.ActualReps = &reps
	set.Completed = true
	set.Skipped = false

	tr := Transition{Logged: &SetRecord{ExerciseIndex: s.ExerciseIdx, Exercise: ex.Snapshot.Clone(), Set: cloneSets([]Set{*set})[0]}}

	if s.SetIdx < len(ex.Sets)-1 {
		s.SetIdx++
		tr.Rest = e.startRest(ex.Snapshot.RestTimeSeconds)
		return tr, nil
	}

	adj := overload.LiveAdjustment(reps)
	ex.NextSessionWeightAdjustment = &adj
	tr.Adjustment = clonePtr(&adj)

	if s.ExerciseIdx == len(s.Exercises)-1 {
		for i := range s.Exercises {
			tr.Skipped = append(tr.Skipped, e.skipRemaining(i)...)
		}
		e.complete()
		tr.Finished = true
		return tr, nil
	}

	s.ExerciseIdx++
	s.SetIdx = 0
	tr.Rest = e.startRest(s.Current().Snapshot.RestTimeSeconds)
	return tr, nil
}

// SkipExercise abandons the remaining sets of the current exercise and moves on without rest.
// On the last exercise it behaves like [Engine.FinishWorkout].
func (e *Engine) SkipExercise() (Transition, error) {
	if err := e.active(); err != nil {
		return Transition{}, err
	}

	s := e.session
	if s.ExerciseIdx == len(s.Exercises)-1 {
		return e.FinishWorkout()
	}

	e.stopRest()
	tr := Transition{Skipped: e.skipRemaining(s.ExerciseIdx)}
	s.ExerciseIdx++
	s.SetIdx = 0
	return tr, nil
}

// FinishWorkout completes the session regardless of remaining sets, which are reported as skipped.
// Calling it on a completed session is a no-op.
func (e *Engine) FinishWorkout() (Transition, error) {
	if e.session == nil {
		return Transition{}, ErrNoSession
	}
	if e.session.Completed {
		return Transition{}, nil
	}

	var tr Transition
	for i := range e.session.Exercises {
		tr.Skipped = append(tr.Skipped, e.skipRemaining(i)...)
	}
	e.complete()
	tr.Finished = true
	return tr, nil
}

// CancelRest stops the rest timer without moving the session.
func (e *Engine) CancelRest() {
	e.stopRest()
}

// GoToExercise jumps to the first set of exercise i. Recorded sets are left untouched.
func (e *Engine) GoToExercise(i int) error {
	if err := e.active(); err != nil {
		return err
	}
	if i < 0 || i >= len(e.session.Exercises) {
		return fmt.Errorf("%w: %d", ErrExerciseOutOfRange, i)
	}
	e.session.ExerciseIdx = i
	e.session.SetIdx = 0
	return nil
}

// Tick advances the rest countdown by one second when generation matches the running timer.
func (e *Engine) Tick(generation uint64) TickResult {
	if !e.timer.Resting || generation != e.timer.Generation {
		return TickIgnored
	}

	e.timer.Remaining--
	if e.timer.Remaining > 0 {
		return TickCounting
	}

	e.timer.Remaining = 0
	e.timer.Resting = false
	return TickFinished
}

// AddRest extends a running rest period. It never starts one.
func (e *Engine) AddRest(seconds int) {
	if !e.timer.Resting || seconds <= 0 {
		return
	}
	e.timer.Remaining += seconds
}

func (e *Engine) startRest(seconds int) *RestStart {
	e.stopRest()
	if seconds <= 0 {
		return nil
	}
	e.timer.Resting = true
	e.timer.Remaining = seconds
	return &RestStart{Seconds: seconds, Generation: e.timer.Generation}
}

func (e *Engine) stopRest() {
	e.timer.Generation++
	e.timer.Resting = false
	e.timer.Remaining = 0
}

func (e *Engine) complete() {
	e.stopRest()
	now := e.now().UTC()
	e.session.EndedAt = &now
	e.session.Completed = true
}

// skipRemaining marks every open set of exercise i as skipped and returns them.
func (e *Engine) skipRemaining(i int) []SetRecord {
	ex := &e.session.Exercises[i]
	var out []SetRecord
	for n := range ex.Sets {
		set := &ex.Sets[n]
		if set.Completed || set.Skipped {
			continue
		}
		set.Skipped = true
		out = append(out, SetRecord{ExerciseIndex: i, Exercise: ex.Snapshot.Clone(), Set: cloneSets([]Set{*set})[0]})
	}
	return out
}
