// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/repx/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FakeClock is a manually advanced clock for code that takes a func() time.Time.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SampleExport builds a completed two-exercise workout log export.
//
// Bench: 3 x 8 @ 60 (volume 1440). Plank: one skipped set.
func SampleExport() *models.WorkoutLogExport {
	started := time.Date(2026, 2, 3, 18, 0, 0, 0, time.UTC)
	completed := started.Add(45 * time.Minute)

	bench := models.ExportedExercise{ExerciseID: "ex-bench", DayExerciseID: "de-bench", Name: "Bench Press"}
	for n := 1; n <= 3; n++ {
		bench.Sets = append(bench.Sets, models.WorkoutExerciseSet{
			ID:            "set-bench-" + string(rune('0'+n)),
			WorkoutLogID:  "log-1",
			ExerciseID:    "ex-bench",
			DayExerciseID: "de-bench",
			SetNumber:     n,
			ActualReps:    models.Ptr(8),
			ActualWeight:  models.Ptr(60.0),
			TargetReps:    models.Ptr(8),
			TargetWeight:  models.Ptr(60.0),
			CreatedAt:     started.Add(time.Duration(n) * 3 * time.Minute),
		})
	}

	plank := models.ExportedExercise{
		ExerciseID:    "ex-plank",
		DayExerciseID: "de-plank",
		Name:          "Plank",
		Sets: []models.WorkoutExerciseSet{{
			ID:            "set-plank-1",
			WorkoutLogID:  "log-1",
			ExerciseID:    "ex-plank",
			DayExerciseID: "de-plank",
			SetNumber:     1,
			TargetReps:    models.Ptr(45),
			Skipped:       true,
			CreatedAt:     started.Add(20 * time.Minute),
		}},
	}

	return &models.WorkoutLogExport{
		Log: models.WorkoutLog{
			ID:          "log-1",
			ProgramID:   "prog-1",
			DayID:       "day-1",
			StartedAt:   started,
			CompletedAt: &completed,
		},
		ProgramName: "Strength",
		DayName:     "Push",
		Exercises:   []models.ExportedExercise{bench, plank},
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
