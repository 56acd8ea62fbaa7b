// Package overload decides how target weights change between sessions.
//
// Two evaluation points exist. [LiveAdjustment] is a fixed-threshold hint computed
// from the reps of an exercise's final set during a live session. [Engine.Apply]
// runs once when a workout log is completed and uses each day-exercise link's own
// configuration (target reps, increase rate, rep band) against the persisted sets.
// Apply may reuse the live hint as a fallback, but the two are kept separate.
package overload

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
)

const (
	LiveIncrease = 2.5  // live hint when the final set beat the upper threshold
	LiveDecrease = -5.0 // live hint when the final set fell under the lower threshold

	liveUpperReps = 11
	liveLowerReps = 4

	DefaultBandStep = 2.5
)

// LiveAdjustment returns the in-session weight hint for the reps of an exercise's final set.
func LiveAdjustment(reps int) float64 {
	switch {
	case reps > liveUpperReps:
		return LiveIncrease
	case reps < liveLowerReps:
		return LiveDecrease
	default:
		return 0
	}
}

// Targets reads a day's exercise links and writes their target weight.
type Targets interface {
	ListByDay(ctx context.Context, dayID string) ([]*models.DayExercise, error)
	UpdateTargetWeight(ctx context.Context, id string, weight float64) error
}

// Sets finds the last recorded set of a link within a log.
//
// Implementations return an error wrapping [shared.ErrNotFound] when no set exists.
type Sets interface {
	LastForDayExercise(ctx context.Context, logID, dayExerciseID string) (*models.WorkoutExerciseSet, error)
}

// Reason names the rule that produced an [Adjustment].
type Reason string

const (
	ReasonTargetMet Reason = "target_met"
	ReasonLive      Reason = "live_adjustment"
	ReasonBelowBand Reason = "below_band"
	ReasonAboveBand Reason = "above_band"
)

// Adjustment is one persisted target weight change.
type Adjustment struct {
	DayExerciseID string
	ExerciseName  string
	Previous      float64
	Next          float64
	Reason        Reason
}

// Delta is the signed change applied.
func (a Adjustment) Delta() float64 {
	return a.Next - a.Previous
}

// Result summarizes one [Engine.Apply] run.
type Result struct {
	Evaluated int          // links with a usable last set and numeric weight
	Adjusted  []Adjustment // writes performed, in day order
}

// Engine applies the persisted completion policy.
type Engine struct {
	targets  Targets
	sets     Sets
	bandStep float64
	logger   *log.Logger
}

// NewEngine creates an Engine. A non-positive bandStep falls back to [DefaultBandStep].
func NewEngine(targets Targets, sets Sets, bandStep float64, logger *log.Logger) *Engine {
	if bandStep <= 0 {
		bandStep = DefaultBandStep
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{targets: targets, sets: sets, bandStep: bandStep, logger: logger}
}

// Apply evaluates every exercise link of dayID against its last set in logID and
// persists changed target weights.
//
// live optionally maps day-exercise link IDs to the hint computed by [LiveAdjustment].
// A present hint, zero included, is used when the target was missed; the rep band applies
// only to links without one. Failures on one link do not stop
// the others; they are combined into the returned error alongside the partial result.
func (e *Engine) Apply(ctx context.Context, logID, dayID string, live map[string]float64) (*Result, error) {
	links, err := e.targets.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to load day exercises: %w", err)
	}

	result := &Result{}
	var errs error

	for _, link := range links {
		last, err := e.sets.LastForDayExercise(ctx, logID, link.ID)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", link.ExerciseName, err))
			continue
		}

		adj, ok := e.evaluate(link, last, live)
		if !ok {
			continue
		}
		result.Evaluated++

		if adj.Next == adj.Previous {
			e.logger.Debug("target unchanged", "exercise", link.ExerciseName, "weight", adj.Previous)
			continue
		}

		if err := e.targets.UpdateTargetWeight(ctx, link.ID, adj.Next); err != nil {
			e.logger.Error("failed to update target weight", "exercise", link.ExerciseName, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", link.ExerciseName, err))
			continue
		}

		e.logger.Info("target weight adjusted",
			"exercise", link.ExerciseName,
			"from", adj.Previous,
			"to", adj.Next,
			"reason", adj.Reason,
		)
		result.Adjusted = append(result.Adjusted, adj)
	}

	return result, errs
}

// evaluate computes the next weight for link from its last set. It reports false
// when the link is excluded from progression.
func (e *Engine) evaluate(link *models.DayExercise, last *models.WorkoutExerciseSet, live map[string]float64) (Adjustment, bool) {
	if last.Skipped || last.ActualReps == nil || link.TargetWeight == nil {
		return Adjustment{}, false
	}

	current := *link.TargetWeight
	actual := *last.ActualReps
	target := link.EffectiveTarget()
	if last.TargetReps != nil {
		target = *last.TargetReps
	}

	hint, hasHint := live[link.ID]

	adj := Adjustment{
		DayExerciseID: link.ID,
		ExerciseName:  link.ExerciseName,
		Previous:      current,
		Next:          current,
	}

	switch {
	case actual >= target:
		adj.Next = current + link.IncreaseRate
		adj.Reason = ReasonTargetMet
	case hasHint:
		adj.Next = current + hint
		adj.Reason = ReasonLive
	case link.MinReps != nil && actual < *link.MinReps:
		adj.Next = current - e.bandStep
		adj.Reason = ReasonBelowBand
	case link.MaxReps != nil && actual > *link.MaxReps:
		adj.Next = current + e.bandStep
		adj.Reason = ReasonAboveBand
	}

	adj.Next = max(adj.Next, 0)
	return adj, true
}
