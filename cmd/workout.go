package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/repx/internal/formatter"
	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
	"github.com/desertthunder/repx/internal/session"
	"github.com/desertthunder/repx/internal/shared"
	"github.com/desertthunder/repx/internal/tasks"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
)

// WorkoutStart runs a workout on the terminal without the TUI.
//
// Each line is the reps for the prompted set. An empty line repeats the last entry (or the target),
// "s" skips the exercise and "f" or end of input finishes the workout. Rest periods are announced, not waited on.
func (r *Runner) WorkoutStart(ctx context.Context, cmd *cli.Command) error {
	dayID, err := requireArg(cmd, "day")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	wl, snapshots, err := e.StartWorkout(ctx, dayID)
	if err != nil {
		return err
	}

	engine := session.NewEngine(nil)
	if err := engine.Start(snapshots); err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Workout started (%s)", shared.ShortID(wl.ID)))

	var saveErrs error
	var last *int
	for engine.State() != session.StateCompleted {
		s := engine.Session()
		ex := s.Current()
		set := ex.Sets[s.SetIdx]

		r.writePlain("%s set %d/%d, target %s [enter reps, s=skip, f=finish]: ",
			ex.Snapshot.Name, set.Number, len(ex.Sets), describeTarget(ex.Snapshot))

		line, readErr := r.input.ReadString('\n')
		line = strings.TrimSpace(line)

		var tr session.Transition
		switch {
		case line == "f" || (line == "" && readErr != nil):
			tr, err = engine.FinishWorkout()
		case line == "s":
			tr, err = engine.SkipExercise()
		default:
			reps := set.TargetReps
			if last != nil {
				reps = *last
			}
			if line != "" {
				n, convErr := strconv.Atoi(line)
				if convErr != nil {
					r.writePlain("  %q is not a rep count\n", line)
					continue
				}
				reps = n
			}
			tr, err = engine.CompleteSet(reps)
			if err == nil {
				last = &reps
			}
		}
		if err != nil {
			r.writePlain("  %v\n", err)
			if readErr != nil {
				tr, _ = engine.FinishWorkout()
			} else {
				continue
			}
		}

		saveErrs = multierr.Append(saveErrs, r.persist(ctx, e, wl.ID, tr))
		r.announce(tr)

		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("failed to read input: %w", readErr)
		}
		if readErr != nil && engine.State() != session.StateCompleted {
			tr, _ = engine.FinishWorkout()
			saveErrs = multierr.Append(saveErrs, r.persist(ctx, e, wl.ID, tr))
		}
	}

	result, err := e.CompleteWorkout(ctx, wl.ID, engine.LiveAdjustments())
	if err != nil && result == nil {
		return multierr.Append(saveErrs, err)
	}

	s := engine.Session()
	done, total := s.Progress()
	r.writePlainln("✓ Workout complete: %d/%d sets in %s", done, total, s.Duration(time.Now()).Truncate(time.Second))
	r.writeAdjustments(result)

	return multierr.Append(saveErrs, err)
}

// persist writes every set touched by tr. Failures are logged and do not stop the session.
func (r *Runner) persist(ctx context.Context, e *tasks.WorkoutEngine, logID string, tr session.Transition) error {
	records := tr.Skipped
	if tr.Logged != nil {
		records = append([]session.SetRecord{*tr.Logged}, records...)
	}

	var errs error
	for _, rec := range records {
		if _, err := e.LogSet(ctx, logID, rec); err != nil {
			r.logger.Error("failed to log set", "op", "log_set", "exercise", rec.Exercise.Name, "set", rec.Set.Number, "error", err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *Runner) announce(tr session.Transition) {
	if tr.Adjustment != nil && *tr.Adjustment != 0 {
		r.writePlain("  next session: %+g\n", *tr.Adjustment)
	}
	if n := len(tr.Skipped); n > 0 && !tr.Finished {
		r.writePlain("  skipped %d set(s)\n", n)
	}
	if tr.Rest != nil {
		r.writePlain("  rest %s\n", shared.FormatDuration(tr.Rest.Seconds))
	}
}

func (r *Runner) writeAdjustments(result *overload.Result) {
	if result == nil {
		return
	}
	if len(result.Adjusted) == 0 {
		r.writePlain("No target changes (%d evaluated)\n", result.Evaluated)
		return
	}
	r.writePlain("Targets for next session:\n")
	for _, a := range result.Adjusted {
		r.writePlain("  %s: %s → %s (%s)\n", a.ExerciseName, shared.FormatWeight(a.Previous), shared.FormatWeight(a.Next), a.Reason)
	}
}

// historyCriteria builds repository criteria from the shared history/export flags.
func historyCriteria(ctx context.Context, e *tasks.WorkoutEngine, cmd *cli.Command) (map[string]any, error) {
	criteria := map[string]any{}
	if ref := cmd.String("program"); ref != "" {
		program, err := findProgram(ctx, e, ref)
		if err != nil {
			return nil, err
		}
		criteria["program_id"] = program.ID
	}
	if day := cmd.String("day"); day != "" {
		criteria["day_id"] = day
	}
	if cmd.IsSet("completed") || cmd.Bool("completed") {
		criteria["completed"] = cmd.Bool("completed")
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		criteria["limit"] = limit
	}
	return criteria, nil
}

// WorkoutHistory lists workout logs.
func (r *Runner) WorkoutHistory(ctx context.Context, cmd *cli.Command) error {
	e, err := r.workouts()
	if err != nil {
		return err
	}

	criteria, err := historyCriteria(ctx, e, cmd)
	if err != nil {
		return err
	}
	logs, err := e.History(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(logs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d workouts:\n\n", len(logs))
	names := map[string]string{}
	for _, wl := range logs {
		status := "in progress"
		if wl.CompletedAt != nil {
			status = "completed in " + wl.CompletedAt.Sub(wl.StartedAt).Truncate(time.Second).String()
		}
		sets, err := e.Sets.CountByLog(ctx, wl.ID)
		if err != nil {
			return err
		}
		r.writePlain("%s  %s  %s, %d sets, %s\n",
			wl.StartedAt.Local().Format("2006-01-02 15:04"), wl.ID, r.dayName(ctx, e, names, wl), sets, status)
	}
	return nil
}

func (r *Runner) dayName(ctx context.Context, e *tasks.WorkoutEngine, cache map[string]string, wl *models.WorkoutLog) string {
	if name, ok := cache[wl.DayID]; ok {
		return name
	}
	name := shared.ShortID(wl.DayID)
	if day, err := e.Days.Get(ctx, wl.DayID); err == nil {
		name = day.Name
	}
	cache[wl.DayID] = name
	return name
}

// WorkoutShow renders one workout log to stdout.
func (r *Runner) WorkoutShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "log")
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	export, err := e.ExportLog(ctx, id)
	if err != nil {
		return err
	}
	data, err := formatter.Render(export, f)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WorkoutExport writes one workout log to a file.
func (r *Runner) WorkoutExport(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "log")
	if err != nil {
		return err
	}
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	export, err := e.ExportLog(ctx, id)
	if err != nil {
		return err
	}
	path, err := formatter.WriteExport(export, f, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("workout exported", "log", id, "path", path)
	return r.writePlain("✓ Exported to %s\n", path)
}

// WorkoutExportAll exports every matching log into one directory with a manifest.
func (r *Runner) WorkoutExportAll(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	criteria, err := historyCriteria(ctx, e, cmd)
	if err != nil {
		return err
	}
	logs, err := e.History(ctx, criteria)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return r.writePlain("No workouts to export\n")
	}

	ids := make([]string, len(logs))
	for i, wl := range logs {
		ids[i] = wl.ID
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchLogs:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportLogs:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := e.BulkExport(ctx, progressCh, ids, tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progressCh)
	<-printed

	if err != nil && result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.Succeeded, result.Total)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	return multierr.Append(err, result.Err())
}
