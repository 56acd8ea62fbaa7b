package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
	"github.com/desertthunder/repx/internal/session"
	"github.com/desertthunder/repx/internal/tasks"
	tu "github.com/desertthunder/repx/internal/testing"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []string
	sets  []session.SetRecord
	live  map[string]float64
}

func (s *fakeStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeStore) ListPrograms(context.Context) ([]*models.Program, error) {
	return nil, nil
}

func (s *fakeStore) ListDays(context.Context, string) ([]*models.Day, error) {
	return nil, nil
}

func (s *fakeStore) LoadDayExercises(context.Context, string) ([]models.ExerciseSnapshot, error) {
	return nil, nil
}

func (s *fakeStore) BeginWorkout(_ context.Context, dayID string) (*models.WorkoutLog, error) {
	s.record("begin")
	return &models.WorkoutLog{ID: "log-1", DayID: dayID}, nil
}

func (s *fakeStore) LogSet(_ context.Context, logID string, rec session.SetRecord) (*models.WorkoutExerciseSet, error) {
	s.record("set")
	s.mu.Lock()
	s.sets = append(s.sets, rec)
	s.mu.Unlock()
	return &models.WorkoutExerciseSet{WorkoutLogID: logID, SetNumber: rec.Set.Number, Skipped: rec.Set.Skipped}, nil
}

func (s *fakeStore) CompleteWorkout(_ context.Context, _ string, live map[string]float64) (*overload.Result, error) {
	s.record("complete")
	s.mu.Lock()
	s.live = live
	s.mu.Unlock()
	return &overload.Result{}, nil
}

func press(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func snapshots(rest int) []models.ExerciseSnapshot {
	return []models.ExerciseSnapshot{
		{ExerciseID: "ex-bench", DayExerciseID: "de-bench", Name: "Bench Press", TargetSets: 2, TargetReps: 10, RestTimeSeconds: rest, TargetWeight: models.Ptr(50.0), IncreaseRate: 2.5},
		{ExerciseID: "ex-row", DayExerciseID: "de-row", Name: "Row", TargetSets: 1, TargetReps: 8, RestTimeSeconds: rest, IncreaseRate: 2.5},
	}
}

// startedModel returns a model already in WorkoutView for a "Push" day.
func startedModel(t *testing.T, rest int) (*Model, *fakeStore, *bytes.Buffer) {
	t.Helper()

	store := &fakeStore{}
	bell := &bytes.Buffer{}
	clock := tu.NewFakeClock(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC))
	m := NewModel(context.Background(), store, Options{Clock: clock.Now, Bell: bell})
	m.program = &models.Program{ID: "p1", Name: "Strength"}

	day := &models.Day{ID: "d1", ProgramID: "p1", Name: "Push"}
	_, cmd := m.Update(sessionLoadedMsg(day, snapshots(rest), nil))
	if cmd == nil {
		t.Fatal("expected commands after session start")
	}
	if m.view != WorkoutView {
		t.Fatalf("expected WorkoutView, got %v", m.view)
	}

	t.Cleanup(func() {
		if m.recorder != nil {
			m.recorder.Close()
		}
	})
	return m, store, bell
}

func TestModelLists(t *testing.T) {
	t.Run("programs loaded", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeStore{}, Options{})
		programs := []*models.Program{{ID: "p1", Name: "Strength"}, {ID: "p2", Name: "Mobility"}}

		m.Update(programsLoadedMsg(programs, nil))

		if got := len(m.programList.Items()); got != 2 {
			t.Errorf("expected 2 program items, got %d", got)
		}
		if m.view != ProgramListView {
			t.Errorf("expected ProgramListView, got %v", m.view)
		}
	})

	t.Run("programs failed", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeStore{}, Options{})

		_, cmd := m.Update(programsLoadedMsg(nil, errors.New("db locked")))

		if m.err == nil || cmd == nil {
			t.Fatal("expected error and quit command")
		}
		if !strings.Contains(m.View(), "db locked") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("rest day cannot start", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeStore{}, Options{})
		program := &models.Program{ID: "p1", Name: "Strength"}
		days := []*models.Day{{ID: "d2", ProgramID: "p1", Name: "Sunday", RestDay: true}}

		m.Update(daysLoadedMsg(program, days, nil))
		if m.view != DayListView {
			t.Fatalf("expected DayListView, got %v", m.view)
		}

		_, cmd := m.Update(press("enter"))
		if cmd != nil {
			t.Error("expected no load command for a rest day")
		}
		if !strings.Contains(m.flash, "rest day") {
			t.Errorf("expected rest day warning, got %q", m.flash)
		}

		m.Update(press("esc"))
		if m.view != ProgramListView {
			t.Errorf("expected esc to return to programs, got %v", m.view)
		}
	})

	t.Run("empty day", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeStore{}, Options{})
		m.Update(sessionLoadedMsg(&models.Day{ID: "d1", Name: "Push"}, nil, nil))

		if m.view == WorkoutView || m.recorder != nil {
			t.Error("expected no session for a day without exercises")
		}
		if m.flash == "" {
			t.Error("expected a flash message")
		}
	})
}

func TestModelWorkout(t *testing.T) {
	t.Run("prefills target then last reps", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)

		if got := m.input.Value(); got != "10" {
			t.Fatalf("expected target prefill 10, got %q", got)
		}

		m.input.SetValue("8")
		_, cmd := m.Update(press("enter"))
		if cmd == nil {
			t.Fatal("expected a rest tick command")
		}
		if m.session.State() != session.StateResting {
			t.Errorf("expected resting, got %v", m.session.State())
		}
		if got := m.input.Value(); got != "8" {
			t.Errorf("expected last reps prefill 8, got %q", got)
		}
	})

	t.Run("non-numeric keys never reach the input", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)

		m.Update(press("x"))
		m.Update(press("backspace"))
		m.Update(press("backspace"))
		m.Update(press("7"))

		if got := m.input.Value(); got != "7" {
			t.Errorf("expected input 7, got %q", got)
		}
	})

	t.Run("invalid reps", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)
		m.input.SetValue("")

		m.Update(press("enter"))

		if m.flash == "" {
			t.Error("expected a warning for empty reps")
		}
		done, _ := m.session.Session().Progress()
		if done != 0 {
			t.Errorf("expected no completed sets, got %d", done)
		}
	})

	t.Run("stale ticks are dropped", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)
		m.Update(press("enter"))
		gen := m.session.Rest().Generation

		_, cmd := m.Update(restTickMsg(gen - 1))
		if cmd != nil {
			t.Error("expected stale tick to schedule nothing")
		}
		if got := m.session.Rest().Remaining; got != 60 {
			t.Errorf("expected 60s remaining, got %d", got)
		}

		_, cmd = m.Update(restTickMsg(gen))
		if cmd == nil {
			t.Error("expected next tick to be scheduled")
		}
		if got := m.session.Rest().Remaining; got != 59 {
			t.Errorf("expected 59s remaining, got %d", got)
		}
	})

	t.Run("extend and cancel rest", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)
		m.Update(press("enter"))

		m.Update(press("+"))
		if got := m.session.Rest().Remaining; got != 90 {
			t.Errorf("expected 90s after extension, got %d", got)
		}

		gen := m.session.Rest().Generation
		m.Update(press("c"))
		if m.session.Rest().Resting {
			t.Fatal("expected rest cancelled")
		}

		_, cmd := m.Update(restTickMsg(gen))
		if cmd != nil {
			t.Error("expected tick from the cancelled timer to be dropped")
		}
	})

	t.Run("bell when rest finishes", func(t *testing.T) {
		m, _, bell := startedModel(t, 1)
		m.Update(press("enter"))

		_, cmd := m.Update(restTickMsg(m.session.Rest().Generation))
		if cmd == nil {
			t.Fatal("expected bell command")
		}
		cmd()

		if bell.String() != "\a" {
			t.Errorf("expected bell, got %q", bell.String())
		}
		if m.session.State() != session.StateInProgress {
			t.Errorf("expected in progress after rest, got %v", m.session.State())
		}
	})

	t.Run("exercise navigation", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)

		m.Update(press("]"))
		if got := m.session.Session().ExerciseIdx; got != 1 {
			t.Errorf("expected exercise 1, got %d", got)
		}
		if got := m.input.Value(); got != "8" {
			t.Errorf("expected row target prefill 8, got %q", got)
		}

		m.Update(press("]"))
		if got := m.session.Session().ExerciseIdx; got != 1 {
			t.Errorf("expected out of range jump ignored, got %d", got)
		}

		m.Update(press("["))
		if got := m.session.Session().ExerciseIdx; got != 0 {
			t.Errorf("expected exercise 0, got %d", got)
		}
	})

	t.Run("save failures are surfaced", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)

		_, cmd := m.Update(recordResultMsg(m.recorder, tasks.RecordResult{Kind: tasks.RecordSet, Err: errors.New("disk full")}))

		if cmd == nil {
			t.Error("expected to keep waiting on the recorder")
		}
		if len(m.saveErrs) != 1 || !strings.Contains(m.flash, "disk full") {
			t.Errorf("expected save error surfaced, got %v / %q", m.saveErrs, m.flash)
		}
	})
}

func TestModelFinish(t *testing.T) {
	t.Run("records in order", func(t *testing.T) {
		m, store, _ := startedModel(t, 60)

		m.input.SetValue("12")
		m.Update(press("enter"))
		m.Update(press("s"))
		m.Update(press("f"))

		if m.view != SummaryView {
			t.Fatalf("expected SummaryView, got %v", m.view)
		}
		if !m.session.Session().Completed {
			t.Fatal("expected completed session")
		}

		m.recorder.Close()

		want := []string{"begin", "set", "set", "set", "complete"}
		if strings.Join(store.calls, ",") != strings.Join(want, ",") {
			t.Errorf("expected calls %v, got %v", want, store.calls)
		}
		if !store.sets[1].Set.Skipped || !store.sets[2].Set.Skipped {
			t.Errorf("expected trailing sets skipped: %+v", store.sets)
		}
		if len(store.live) != 0 {
			t.Errorf("expected no live hints without a finished exercise, got %v", store.live)
		}
	})

	t.Run("live hint forwarded", func(t *testing.T) {
		m, store, _ := startedModel(t, 0)

		for _, reps := range []string{"12", "12", "3"} {
			m.input.SetValue(reps)
			m.Update(press("enter"))
		}

		if m.view != SummaryView {
			t.Fatalf("expected SummaryView after final set, got %v", m.view)
		}
		m.recorder.Close()

		if store.live["de-bench"] != 2.5 || store.live["de-row"] != -5 {
			t.Errorf("unexpected live hints: %v", store.live)
		}
	})

	t.Run("restart returns to days", func(t *testing.T) {
		m, _, _ := startedModel(t, 60)
		m.Update(press("f"))

		_, cmd := m.Update(press("r"))
		if m.view != DayListView {
			t.Errorf("expected DayListView, got %v", m.view)
		}
		if m.session.State() != session.StateNotStarted {
			t.Errorf("expected session reset, got %v", m.session.State())
		}
		if cmd == nil {
			t.Fatal("expected recorder close command")
		}
		cmd()
	})
}
