package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
	tu "github.com/desertthunder/repx/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner over a migrated in-memory database.
func newTestRunner(t *testing.T, input string) (*Runner, *bytes.Buffer) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		DB:     db,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Input:  strings.NewReader(input),
	})
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "repx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"repx"}, args...))
}

type fixture struct {
	program *models.Program
	push    *models.Day
	rest    *models.Day
	bench   *models.DayExercise
}

// seed creates a program with a push day holding a 2x10 bench press at 50, and a rest day.
func seed(t *testing.T, r *Runner) fixture {
	t.Helper()
	ctx := context.Background()
	e := r.engine

	program := models.NewProgram("Strength", "")
	if err := e.Programs.Create(ctx, program); err != nil {
		t.Fatalf("failed to create program: %v", err)
	}
	push := models.NewDay(program.ID, "Push", false)
	if err := e.Days.Create(ctx, push); err != nil {
		t.Fatalf("failed to create day: %v", err)
	}
	rest := models.NewDay(program.ID, "Off", true)
	if err := e.Days.Create(ctx, rest); err != nil {
		t.Fatalf("failed to create rest day: %v", err)
	}
	exercise := models.NewExercise("Bench Press", "", models.TrackReps)
	if err := e.Exercises.Create(ctx, exercise); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}
	bench := models.NewDayExercise(push.ID, exercise.ID, 2, 10, 60, 2.5)
	bench.TargetWeight = models.Ptr(50.0)
	if err := e.Targets.Create(ctx, bench); err != nil {
		t.Fatalf("failed to create target: %v", err)
	}

	return fixture{program: program, push: push, rest: rest, bench: bench}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("without database defers engine creation", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.engine != nil {
				t.Error("expected no engine before first use")
			}
			if runner.input == nil {
				t.Error("expected input reader to default to stdin")
			}
		})

		t.Run("with database builds engine", func(t *testing.T) {
			runner, _ := newTestRunner(t, "")

			if runner.engine == nil {
				t.Fatal("expected engine to be created")
			}
			if runner.ownsDB {
				t.Error("expected runner not to own a provided database")
			}
		})
	})

	t.Run("workouts", func(t *testing.T) {
		t.Run("opens and migrates the configured database", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "repx.db")

			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			e, err := runner.workouts()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if e == nil || !runner.ownsDB {
				t.Fatal("expected an owned database and engine")
			}

			again, err := runner.workouts()
			if err != nil || again != e {
				t.Error("expected the same engine on second call")
			}

			tu.AssertFileExists(t, config.Database.Path)
			if err := runner.Close(); err != nil {
				t.Errorf("expected clean close, got %v", err)
			}
			if runner.db != nil || runner.engine != nil {
				t.Error("expected database and engine to be released")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "exercise", "program", "day", "target", "workout", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("program add and list", func(t *testing.T) {
		runner, output := newTestRunner(t, "")

		if err := run(runner, "program", "add", "Hypertrophy", "--description", "8 weeks"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `✓ Program "Hypertrophy" added`) {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		output.Reset()
		if err := run(runner, "program", "list", "--json", "--pretty=false"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"Hypertrophy"`) {
			t.Errorf("expected program in JSON output, got %q", output.String())
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")

		err := run(runner, "program", "add")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("program show resolves names", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		seed(t, runner)

		if err := run(runner, "program", "show", "Strength"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := output.String()
		for _, want := range []string{"Strength", "Day 1: Push", "Bench Press 2x10 @ 50", "Day 2: Off (rest)"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output, got %q", want, got)
			}
		}
	})

	t.Run("unknown program", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")

		err := run(runner, "program", "show", "nope")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("target add rejects rest days", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")
		f := seed(t, runner)

		err := run(runner, "target", "add", f.rest.ID, "Bench Press")
		if !errors.Is(err, shared.ErrRestDay) {
			t.Errorf("expected ErrRestDay, got %v", err)
		}
	})

	t.Run("target add uses config defaults", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		f := seed(t, runner)

		if err := run(runner, "exercise", "add", "Dips"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := run(runner, "target", "add", f.push.ID, "Dips", "--sets", "4", "--reps", "8"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Dips 4x8 added to Push") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		links, err := runner.engine.Targets.ListByDay(context.Background(), f.push.ID)
		if err != nil {
			t.Fatalf("failed to list targets: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("expected 2 targets, got %d", len(links))
		}
		dips := links[1]
		cfg := runner.config.Workout
		if dips.RestTimeSeconds != cfg.DefaultRestSeconds {
			t.Errorf("expected rest %d, got %d", cfg.DefaultRestSeconds, dips.RestTimeSeconds)
		}
		if dips.IncreaseRate != cfg.DefaultIncreaseRate {
			t.Errorf("expected increase %v, got %v", cfg.DefaultIncreaseRate, dips.IncreaseRate)
		}
		if dips.TargetWeight != nil {
			t.Errorf("expected no weight, got %v", *dips.TargetWeight)
		}
	})

	t.Run("day move", func(t *testing.T) {
		tests := []struct {
			name     string
			position string
			wantErr  error
		}{
			{name: "valid position", position: "1"},
			{name: "zero", position: "0", wantErr: shared.ErrInvalidArgument},
			{name: "not a number", position: "first", wantErr: shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner, _ := newTestRunner(t, "")
				f := seed(t, runner)

				err := run(runner, "day", "move", f.rest.ID, tt.position)
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected %v, got %v", tt.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				days, err := runner.engine.ListDays(context.Background(), f.program.ID)
				if err != nil {
					t.Fatalf("failed to list days: %v", err)
				}
				if days[0].ID != f.rest.ID {
					t.Errorf("expected rest day first, got %s", days[0].Name)
				}
			})
		}
	})

	t.Run("target weight", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		f := seed(t, runner)

		if err := run(runner, "target", "weight", f.bench.ID, "62.5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "62.5") {
			t.Errorf("expected new weight in output, got %q", output.String())
		}

		err := run(runner, "target", "weight", f.bench.ID, "heavy")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWorkoutCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("start completes every set and progresses the target", func(t *testing.T) {
		runner, output := newTestRunner(t, "10\n\n")
		f := seed(t, runner)

		if err := run(runner, "workout", "start", f.push.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		for _, want := range []string{"Bench Press set 1/2", "rest 1:00", "Workout complete: 2/2 sets", "Bench Press: 50 → 52.5 (target_met)"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output, got %q", want, got)
			}
		}

		logs, err := runner.engine.History(ctx, map[string]any{"completed": true})
		if err != nil {
			t.Fatalf("failed to load history: %v", err)
		}
		if len(logs) != 1 {
			t.Fatalf("expected 1 completed log, got %d", len(logs))
		}
		n, err := runner.engine.Sets.CountByLog(ctx, logs[0].ID)
		if err != nil {
			t.Fatalf("failed to count sets: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 sets, got %d", n)
		}
	})

	t.Run("finish skips remaining sets", func(t *testing.T) {
		runner, output := newTestRunner(t, "8\nf\n")
		f := seed(t, runner)

		if err := run(runner, "workout", "start", f.push.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Workout complete: 1/2 sets") {
			t.Errorf("expected partial completion, got %q", output.String())
		}

		logs, err := runner.engine.History(ctx, map[string]any{"completed": true})
		if err != nil {
			t.Fatalf("failed to load history: %v", err)
		}
		if len(logs) != 1 {
			t.Fatalf("expected 1 completed log, got %d", len(logs))
		}
		n, _ := runner.engine.Sets.CountByLog(ctx, logs[0].ID)
		if n != 2 {
			t.Errorf("expected completed and skipped sets to be logged, got %d", n)
		}
	})

	t.Run("end of input finishes the workout", func(t *testing.T) {
		runner, output := newTestRunner(t, "")
		f := seed(t, runner)

		if err := run(runner, "workout", "start", f.push.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Workout complete: 0/2 sets") {
			t.Errorf("expected empty completion, got %q", output.String())
		}
	})

	t.Run("bad rep count is re-prompted", func(t *testing.T) {
		runner, output := newTestRunner(t, "ten\n10\n10\n")
		f := seed(t, runner)

		if err := run(runner, "workout", "start", f.push.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"ten" is not a rep count`) {
			t.Errorf("expected re-prompt, got %q", output.String())
		}
		if !strings.Contains(output.String(), "2/2 sets") {
			t.Errorf("expected all sets completed, got %q", output.String())
		}
	})

	t.Run("start on a rest day", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")
		f := seed(t, runner)

		err := run(runner, "workout", "start", f.rest.ID)
		if !errors.Is(err, shared.ErrRestDay) {
			t.Errorf("expected ErrRestDay, got %v", err)
		}
	})

	t.Run("history, show and export", func(t *testing.T) {
		runner, output := newTestRunner(t, "10\n10\n")
		f := seed(t, runner)
		if err := run(runner, "workout", "start", f.push.ID); err != nil {
			t.Fatalf("failed to run workout: %v", err)
		}

		output.Reset()
		if err := run(runner, "workout", "history", "--program", "Strength"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Found 1 workouts") || !strings.Contains(output.String(), "Push, 2 sets") {
			t.Errorf("expected history line, got %q", output.String())
		}

		logs, err := runner.engine.History(ctx, nil)
		if err != nil || len(logs) != 1 {
			t.Fatalf("expected one log, got %d (%v)", len(logs), err)
		}
		id := logs[0].ID

		output.Reset()
		if err := run(runner, "workout", "show", id, "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Bench Press") {
			t.Errorf("expected CSV rows, got %q", output.String())
		}

		path := filepath.Join(t.TempDir(), "log.md")
		if err := run(runner, "workout", "export", id, "--format", "md", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "Bench Press") {
			t.Error("expected markdown export to list the exercise")
		}

		dir := filepath.Join(t.TempDir(), "all")
		output.Reset()
		if err := run(runner, "workout", "export-all", "--output-dir", dir, "--workers", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertDirExists(t, dir)
		if !strings.Contains(output.String(), "Exported: 1/1") {
			t.Errorf("expected export summary, got %q", output.String())
		}
	})

	t.Run("show rejects unknown formats", func(t *testing.T) {
		runner, _ := newTestRunner(t, "")

		err := run(runner, "workout", "show", "some-id", "--format", "pdf")
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}
