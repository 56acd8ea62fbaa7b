package overload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
)

type fakeTargets struct {
	links   []*models.DayExercise
	writes  map[string]float64
	failIDs map[string]bool
}

func (f *fakeTargets) ListByDay(_ context.Context, _ string) ([]*models.DayExercise, error) {
	return f.links, nil
}

func (f *fakeTargets) UpdateTargetWeight(_ context.Context, id string, weight float64) error {
	if f.failIDs[id] {
		return fmt.Errorf("disk full")
	}
	if f.writes == nil {
		f.writes = map[string]float64{}
	}
	f.writes[id] = weight
	return nil
}

type fakeSets map[string]*models.WorkoutExerciseSet

func (f fakeSets) LastForDayExercise(_ context.Context, _, id string) (*models.WorkoutExerciseSet, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func link(id string, weight *float64, reps int, rate float64) *models.DayExercise {
	return &models.DayExercise{
		ID:           id,
		ExerciseName: id,
		TargetSets:   3,
		TargetReps:   reps,
		TargetWeight: weight,
		IncreaseRate: rate,
		Tracking:     models.TrackReps,
	}
}

func lastSet(reps *int, skipped bool) *models.WorkoutExerciseSet {
	return &models.WorkoutExerciseSet{SetNumber: 3, ActualReps: reps, Skipped: skipped}
}

func newTestEngine(targets *fakeTargets, sets fakeSets) *Engine {
	return NewEngine(targets, sets, 0, shared.NewLogger(io.Discard))
}

func TestLiveAdjustment(t *testing.T) {
	tc := []struct {
		reps     int
		expected float64
	}{
		{reps: 12, expected: 2.5},
		{reps: 20, expected: 2.5},
		{reps: 11, expected: 0},
		{reps: 7, expected: 0},
		{reps: 4, expected: 0},
		{reps: 3, expected: -5},
		{reps: 0, expected: -5},
	}

	for _, tt := range tc {
		t.Run(fmt.Sprintf("%d reps", tt.reps), func(t *testing.T) {
			if got := LiveAdjustment(tt.reps); got != tt.expected {
				t.Errorf("LiveAdjustment(%d) = %v, want %v", tt.reps, got, tt.expected)
			}
		})
	}
}

func TestEngineApply(t *testing.T) {
	ctx := context.Background()

	t.Run("target met increases by rate", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("bench", models.Ptr(50.0), 10, 2.5)}}
		sets := fakeSets{"bench": lastSet(models.Ptr(10), false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		if targets.writes["bench"] != 52.5 {
			t.Errorf("expected 52.5, got %v", targets.writes["bench"])
		}
		if len(result.Adjusted) != 1 || result.Adjusted[0].Reason != ReasonTargetMet {
			t.Errorf("expected one target_met adjustment, got %+v", result.Adjusted)
		}
		if result.Adjusted[0].Delta() != 2.5 {
			t.Errorf("expected delta 2.5, got %v", result.Adjusted[0].Delta())
		}
	})

	t.Run("below target without hint makes no write", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("bench", models.Ptr(50.0), 10, 2.5)}}
		sets := fakeSets{"bench": lastSet(models.Ptr(9), false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(targets.writes) != 0 {
			t.Errorf("expected no writes, got %v", targets.writes)
		}
		if result.Evaluated != 1 {
			t.Errorf("expected 1 evaluated, got %d", result.Evaluated)
		}
	})

	t.Run("skipped last set excluded", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("bench", models.Ptr(50.0), 10, 2.5)}}
		sets := fakeSets{"bench": lastSet(models.Ptr(15), true)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", map[string]float64{"bench": 2.5})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(targets.writes) != 0 || result.Evaluated != 0 {
			t.Errorf("expected skipped set to be excluded, got writes %v", targets.writes)
		}
	})

	t.Run("live hint clamps at zero", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("curl", models.Ptr(2.0), 10, 2.5)}}
		sets := fakeSets{"curl": lastSet(models.Ptr(3), false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", map[string]float64{"curl": LiveAdjustment(3)})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if w, ok := targets.writes["curl"]; !ok || w != 0 {
			t.Errorf("expected clamped write of 0, got %v (written=%v)", w, ok)
		}
		if result.Adjusted[0].Reason != ReasonLive {
			t.Errorf("expected live_adjustment reason, got %s", result.Adjusted[0].Reason)
		}
	})

	t.Run("rep band fallback", func(t *testing.T) {
		tc := []struct {
			name     string
			reps     int
			min, max int
			target   int
			expected float64
			reason   Reason
		}{
			{name: "below band", reps: 4, min: 6, max: 12, target: 8, expected: 37.5, reason: ReasonBelowBand},
			{name: "above band", reps: 9, min: 3, max: 8, target: 10, expected: 42.5, reason: ReasonAboveBand},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				l := link("row", models.Ptr(40.0), tt.target, 2.5)
				l.MinReps = models.Ptr(tt.min)
				l.MaxReps = models.Ptr(tt.max)
				targets := &fakeTargets{links: []*models.DayExercise{l}}
				sets := fakeSets{"row": lastSet(models.Ptr(tt.reps), false)}

				result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
				if err != nil {
					t.Fatalf("Apply failed: %v", err)
				}
				if targets.writes["row"] != tt.expected {
					t.Errorf("expected %v, got %v", tt.expected, targets.writes["row"])
				}
				if result.Adjusted[0].Reason != tt.reason {
					t.Errorf("expected reason %s, got %s", tt.reason, result.Adjusted[0].Reason)
				}
			})
		}
	})

	t.Run("zero live hint suppresses band step", func(t *testing.T) {
		l := link("row", models.Ptr(40.0), 10, 2.5)
		l.MinReps = models.Ptr(8)
		l.MaxReps = models.Ptr(12)
		targets := &fakeTargets{links: []*models.DayExercise{l}}
		sets := fakeSets{"row": lastSet(models.Ptr(7), false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", map[string]float64{"row": LiveAdjustment(7)})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(targets.writes) != 0 {
			t.Errorf("expected no writes for a zero hint, got %v", targets.writes)
		}
		if result.Evaluated != 1 || len(result.Adjusted) != 0 {
			t.Errorf("expected 1 evaluated and none adjusted, got %d/%d", result.Evaluated, len(result.Adjusted))
		}

		result, err = newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if targets.writes["row"] != 37.5 || result.Adjusted[0].Reason != ReasonBelowBand {
			t.Errorf("expected band step to 37.5 without a hint, got %v (%+v)", targets.writes["row"], result.Adjusted)
		}
	})

	t.Run("per-set target snapshot wins", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("press", models.Ptr(30.0), 12, 2.5)}}
		set := lastSet(models.Ptr(8), false)
		set.TargetReps = models.Ptr(8)
		sets := fakeSets{"press": set}

		if _, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if targets.writes["press"] != 32.5 {
			t.Errorf("expected the snapshot target of 8 to be met, got %v", targets.writes["press"])
		}
	})

	t.Run("nil reps and missing sets ignored", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{
			link("a", models.Ptr(20.0), 8, 2.5),
			link("b", models.Ptr(20.0), 8, 2.5),
		}}
		sets := fakeSets{"a": lastSet(nil, false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(targets.writes) != 0 || result.Evaluated != 0 {
			t.Errorf("expected nothing evaluated, got %d", result.Evaluated)
		}
	})

	t.Run("resistance text never adjusted", func(t *testing.T) {
		l := link("band", nil, 10, 2.5)
		l.TargetResistanceText = models.Ptr("green band")
		targets := &fakeTargets{links: []*models.DayExercise{l}}
		sets := fakeSets{"band": lastSet(models.Ptr(15), false)}

		if _, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(targets.writes) != 0 {
			t.Errorf("expected no writes for resistance text, got %v", targets.writes)
		}
	})

	t.Run("write failure continues", func(t *testing.T) {
		targets := &fakeTargets{
			links: []*models.DayExercise{
				link("a", models.Ptr(20.0), 8, 2.5),
				link("b", models.Ptr(20.0), 8, 5),
			},
			failIDs: map[string]bool{"a": true},
		}
		sets := fakeSets{"a": lastSet(models.Ptr(8), false), "b": lastSet(models.Ptr(8), false)}

		result, err := newTestEngine(targets, sets).Apply(ctx, "log", "day", nil)
		if err == nil {
			t.Fatal("expected combined error")
		}
		if targets.writes["b"] != 25 {
			t.Errorf("expected b to be written after a failed, got %v", targets.writes["b"])
		}
		if len(result.Adjusted) != 1 {
			t.Errorf("expected 1 recorded adjustment, got %d", len(result.Adjusted))
		}
	})

	t.Run("lookup errors are aggregated", func(t *testing.T) {
		targets := &fakeTargets{links: []*models.DayExercise{link("a", models.Ptr(20.0), 8, 2.5)}}
		boom := errors.New("boom")
		sets := erroringSets{err: boom}

		_, err := NewEngine(targets, sets, 2.5, shared.NewLogger(io.Discard)).Apply(ctx, "log", "day", nil)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped boom, got %v", err)
		}
	})
}

type erroringSets struct{ err error }

func (e erroringSets) LastForDayExercise(context.Context, string, string) (*models.WorkoutExerciseSet, error) {
	return nil, e.err
}
