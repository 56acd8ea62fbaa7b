package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
	"github.com/desertthunder/repx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// positionArg parses a 1-based position argument into a 0-based index.
func positionArg(cmd *cli.Command) (int, error) {
	raw, err := requireArg(cmd, "position")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: position must be a positive number, got %q", shared.ErrInvalidArgument, raw)
	}
	return n - 1, nil
}

// findProgram resolves ref as a program ID, then as an exact name.
func findProgram(ctx context.Context, e *tasks.WorkoutEngine, ref string) (*models.Program, error) {
	program, err := e.Programs.Get(ctx, ref)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return program, err
	}

	programs, err := e.Programs.List(ctx, map[string]any{"name": ref})
	if err != nil {
		return nil, err
	}
	switch len(programs) {
	case 0:
		return nil, fmt.Errorf("%w: program %q", shared.ErrNotFound, ref)
	case 1:
		return programs[0], nil
	default:
		return nil, fmt.Errorf("%w: %d programs are named %q, use an ID", shared.ErrInvalidArgument, len(programs), ref)
	}
}

// findExercise resolves ref as an exercise ID, then as its unique name.
func findExercise(ctx context.Context, e *tasks.WorkoutEngine, ref string) (*models.Exercise, error) {
	exercise, err := e.Exercises.Get(ctx, ref)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return exercise, err
	}
	return e.Exercises.GetByName(ctx, ref)
}

// ExerciseAdd creates an exercise in the library.
func (r *Runner) ExerciseAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	tracking, err := models.ParseTrackingType(cmd.String("tracking"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	e, err := r.workouts()
	if err != nil {
		return err
	}

	exercise := models.NewExercise(name, cmd.String("description"), tracking)
	if err := e.Exercises.Create(ctx, exercise); err != nil {
		return err
	}

	r.logger.Debug("exercise created", "id", exercise.ID, "name", exercise.Name)
	return r.writePlain("✓ Exercise %q added (%s)\n", exercise.Name, exercise.ID)
}

// ExerciseList prints the exercise library.
func (r *Runner) ExerciseList(ctx context.Context, cmd *cli.Command) error {
	e, err := r.workouts()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if t := cmd.String("tracking"); t != "" {
		tracking, err := models.ParseTrackingType(t)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		criteria["tracking"] = string(tracking)
	}

	exercises, err := e.Exercises.List(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(exercises, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d exercises:\n\n", len(exercises))
	for i, ex := range exercises {
		r.writePlain("%d. %s [%s]\n", i+1, ex.Name, ex.Tracking)
		if ex.Description != "" {
			r.writePlain("   %s\n", ex.Description)
		}
		r.writePlain("   ID: %s\n", ex.ID)
	}
	return nil
}

// ExerciseDelete removes an exercise; targets using it are removed with it.
func (r *Runner) ExerciseDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "exercise")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	exercise, err := findExercise(ctx, e, ref)
	if err != nil {
		return err
	}
	if err := e.Exercises.Delete(ctx, exercise.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Exercise %q deleted\n", exercise.Name)
}

// ProgramAdd creates an empty program.
func (r *Runner) ProgramAdd(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	program := models.NewProgram(name, cmd.String("description"))
	if err := e.Programs.Create(ctx, program); err != nil {
		return err
	}
	return r.writePlain("✓ Program %q added (%s)\n", program.Name, program.ID)
}

// ProgramList prints every program.
func (r *Runner) ProgramList(ctx context.Context, cmd *cli.Command) error {
	e, err := r.workouts()
	if err != nil {
		return err
	}

	programs, err := e.ListPrograms(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(programs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d programs:\n\n", len(programs))
	for i, p := range programs {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
	}
	return nil
}

// ProgramShow prints a program's days and their targets in order.
func (r *Runner) ProgramShow(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "program")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	program, err := findProgram(ctx, e, ref)
	if err != nil {
		return err
	}
	tree, err := e.LoadProgram(ctx, program.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tree, cmd.Bool("pretty"))
	}

	r.writePlainHeader(tree.Program.Name)
	if tree.Program.Description != "" {
		r.writePlain("%s\n", tree.Program.Description)
	}
	for _, d := range tree.Days {
		if d.Day.RestDay {
			r.writePlainln("Day %d: %s (rest)", d.Day.Position+1, d.Day.Name)
			continue
		}
		r.writePlainln("Day %d: %s", d.Day.Position+1, d.Day.Name)
		r.writePlain("   ID: %s\n", d.Day.ID)
		for i, ex := range d.Exercises {
			r.writePlain("   %d. %s %s, rest %s\n", i+1, ex.Name, describeTarget(ex), shared.FormatDuration(ex.RestTimeSeconds))
		}
	}
	return nil
}

// ProgramDelete removes a program and everything under it.
func (r *Runner) ProgramDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "program")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	program, err := findProgram(ctx, e, ref)
	if err != nil {
		return err
	}
	if err := e.Programs.Delete(ctx, program.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Program %q deleted\n", program.Name)
}

// DayAdd appends a day to a program.
func (r *Runner) DayAdd(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "program")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	program, err := findProgram(ctx, e, ref)
	if err != nil {
		return err
	}
	day := models.NewDay(program.ID, name, cmd.Bool("rest"))
	if err := e.Days.Create(ctx, day); err != nil {
		return err
	}
	return r.writePlain("✓ Day %d %q added to %s (%s)\n", day.Position+1, day.Name, program.Name, day.ID)
}

// DayList prints a program's days in order.
func (r *Runner) DayList(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "program")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	program, err := findProgram(ctx, e, ref)
	if err != nil {
		return err
	}
	days, err := e.ListDays(ctx, program.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(days, cmd.Bool("pretty"))
	}

	for _, d := range days {
		kind := "workout"
		if d.RestDay {
			kind = "rest"
		}
		r.writePlain("%d. %s [%s] %s\n", d.Position+1, d.Name, kind, d.ID)
	}
	return nil
}

// DayMove moves a day within its program.
func (r *Runner) DayMove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "day")
	if err != nil {
		return err
	}
	pos, err := positionArg(cmd)
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	if err := e.Days.Move(ctx, id, pos); err != nil {
		return err
	}
	return r.writePlain("✓ Day moved to position %d\n", pos+1)
}

// DayDelete removes a day; later days shift up.
func (r *Runner) DayDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "day")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	if err := e.Days.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Day deleted\n")
}

// TargetAdd prescribes an exercise on a day.
func (r *Runner) TargetAdd(ctx context.Context, cmd *cli.Command) error {
	dayID, err := requireArg(cmd, "day")
	if err != nil {
		return err
	}
	ref, err := requireArg(cmd, "exercise")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	day, err := e.Days.Get(ctx, dayID)
	if err != nil {
		return err
	}
	if day.RestDay {
		return fmt.Errorf("%w: %s", shared.ErrRestDay, day.Name)
	}
	exercise, err := findExercise(ctx, e, ref)
	if err != nil {
		return err
	}

	rest := int(cmd.Int("rest"))
	if rest < 0 {
		rest = r.config.Workout.DefaultRestSeconds
	}
	increase := cmd.Float("increase")
	if increase == 0 {
		increase = r.config.Workout.DefaultIncreaseRate
	}

	link := models.NewDayExercise(day.ID, exercise.ID, int(cmd.Int("sets")), int(cmd.Int("reps")), rest, increase)
	if t := int(cmd.Int("time")); t > 0 {
		link.TargetTimeSeconds = models.Ptr(t)
	}
	if w := cmd.Float("weight"); w >= 0 {
		link.TargetWeight = models.Ptr(w)
	}
	if s := cmd.String("resistance"); s != "" {
		link.TargetResistanceText = models.Ptr(s)
	}
	if v := int(cmd.Int("min")); v > 0 {
		link.MinReps = models.Ptr(v)
	}
	if v := int(cmd.Int("max")); v > 0 {
		link.MaxReps = models.Ptr(v)
	}

	if err := e.Targets.Create(ctx, link); err != nil {
		return err
	}

	link.ExerciseName = exercise.Name
	link.Tracking = exercise.Tracking
	return r.writePlain("✓ %s %s added to %s (%s)\n", exercise.Name, describeTarget(models.SnapshotOf(*link)), day.Name, link.ID)
}

// TargetList prints a day's targets in order.
func (r *Runner) TargetList(ctx context.Context, cmd *cli.Command) error {
	dayID, err := requireArg(cmd, "day")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	links, err := e.Targets.ListByDay(ctx, dayID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(links, cmd.Bool("pretty"))
	}

	for _, l := range links {
		r.writePlain("%d. %s %s\n", l.Position+1, l.ExerciseName, describeTarget(models.SnapshotOf(*l)))
		if l.MinReps != nil || l.MaxReps != nil {
			r.writePlain("   band: %s-%s reps\n", optInt(l.MinReps), optInt(l.MaxReps))
		}
		r.writePlain("   rest %s, +%s on success, ID: %s\n", shared.FormatDuration(l.RestTimeSeconds), shared.FormatWeight(l.IncreaseRate), l.ID)
	}
	return nil
}

// TargetMove moves a target within its day.
func (r *Runner) TargetMove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "target")
	if err != nil {
		return err
	}
	pos, err := positionArg(cmd)
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	if err := e.Targets.Move(ctx, id, pos); err != nil {
		return err
	}
	return r.writePlain("✓ Target moved to position %d\n", pos+1)
}

// TargetWeight overrides a target's weight.
func (r *Runner) TargetWeight(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "target")
	if err != nil {
		return err
	}
	raw, err := requireArg(cmd, "weight")
	if err != nil {
		return err
	}
	weight, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: weight %q", shared.ErrInvalidArgument, raw)
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	if err := e.Targets.UpdateTargetWeight(ctx, id, weight); err != nil {
		return err
	}
	return r.writePlain("✓ Target weight set to %s\n", shared.FormatWeight(weight))
}

// TargetDelete removes a target; later targets shift up.
func (r *Runner) TargetDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "target")
	if err != nil {
		return err
	}
	e, err := r.workouts()
	if err != nil {
		return err
	}

	if err := e.Targets.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Target deleted\n")
}

func describeTarget(s models.ExerciseSnapshot) string {
	var b strings.Builder
	if s.Tracking == models.TrackTime && s.TargetTimeSeconds != nil {
		fmt.Fprintf(&b, "%dx%ds", s.TargetSets, *s.TargetTimeSeconds)
	} else {
		fmt.Fprintf(&b, "%dx%d", s.TargetSets, s.TargetReps)
	}
	switch {
	case s.TargetWeight != nil:
		fmt.Fprintf(&b, " @ %s", shared.FormatWeight(*s.TargetWeight))
	case s.TargetResistanceText != nil:
		fmt.Fprintf(&b, " (%s)", *s.TargetResistanceText)
	}
	return b.String()
}

func optInt(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}
