package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
	"github.com/desertthunder/repx/internal/repositories"
	"github.com/desertthunder/repx/internal/session"
	"github.com/desertthunder/repx/internal/shared"
)

// WorkoutEngine implements the persistence side of a workout.
type WorkoutEngine struct {
	Programs  *repositories.ProgramRepository
	Days      *repositories.DayRepository
	Exercises *repositories.ExerciseRepository
	Targets   *repositories.DayExerciseRepository
	Logs      *repositories.WorkoutLogRepository
	Sets      *repositories.WorkoutSetRepository

	progression *overload.Engine
	logger      *log.Logger
	now         func() time.Time
}

// NewWorkoutEngine creates a WorkoutEngine backed by db.
func NewWorkoutEngine(db *sql.DB, cfg shared.WorkoutConfig, logger *log.Logger) *WorkoutEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	targets := repositories.NewDayExerciseRepository(db)
	sets := repositories.NewWorkoutSetRepository(db)

	return &WorkoutEngine{
		Programs:    repositories.NewProgramRepository(db),
		Days:        repositories.NewDayRepository(db),
		Exercises:   repositories.NewExerciseRepository(db),
		Targets:     targets,
		Logs:        repositories.NewWorkoutLogRepository(db),
		Sets:        sets,
		progression: overload.NewEngine(targets, sets, cfg.RepBandStep, shared.WithLogger(logger, "component", "overload")),
		logger:      logger,
		now:         time.Now,
	}
}

// LoadProgram returns a program with its ordered days; workout days carry their exercise snapshots.
func (e *WorkoutEngine) LoadProgram(ctx context.Context, programID string) (*models.ProgramTree, error) {
	program, err := e.Programs.Get(ctx, programID)
	if err != nil {
		return nil, err
	}

	days, err := e.Days.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	tree := &models.ProgramTree{Program: *program, Days: make([]models.DayTree, 0, len(days))}
	for _, day := range days {
		node := models.DayTree{Day: *day}
		if !day.RestDay {
			if node.Exercises, err = e.snapshots(ctx, day.ID); err != nil {
				return nil, err
			}
		}
		tree.Days = append(tree.Days, node)
	}

	return tree, nil
}

// ListPrograms returns every program in creation order.
func (e *WorkoutEngine) ListPrograms(ctx context.Context) ([]*models.Program, error) {
	return e.Programs.List(ctx, nil)
}

// ListDays returns programID's days in position order.
func (e *WorkoutEngine) ListDays(ctx context.Context, programID string) ([]*models.Day, error) {
	return e.Days.ListByProgram(ctx, programID)
}

// LoadDayExercises returns the ordered exercise snapshots a session starts from.
func (e *WorkoutEngine) LoadDayExercises(ctx context.Context, dayID string) ([]models.ExerciseSnapshot, error) {
	day, err := e.Days.Get(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.RestDay {
		return nil, fmt.Errorf("%w: %s", shared.ErrRestDay, day.Name)
	}
	return e.snapshots(ctx, dayID)
}

func (e *WorkoutEngine) snapshots(ctx context.Context, dayID string) ([]models.ExerciseSnapshot, error) {
	links, err := e.Targets.ListByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ExerciseSnapshot, 0, len(links))
	for _, link := range links {
		out = append(out, models.SnapshotOf(*link))
	}
	return out, nil
}

// BeginWorkout opens a workout log for dayID.
func (e *WorkoutEngine) BeginWorkout(ctx context.Context, dayID string) (*models.WorkoutLog, error) {
	day, err := e.Days.Get(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if day.RestDay {
		return nil, fmt.Errorf("%w: %s", shared.ErrRestDay, day.Name)
	}

	wl := models.NewWorkoutLog(day.ProgramID, day.ID)
	wl.StartedAt = e.now().UTC()
	if err := e.Logs.Create(ctx, wl); err != nil {
		return nil, err
	}

	e.logger.Debug("workout log created", "log", wl.ID, "day", day.Name)
	return wl, nil
}

// StartWorkout loads a day's snapshots and opens its log in one call.
func (e *WorkoutEngine) StartWorkout(ctx context.Context, dayID string) (*models.WorkoutLog, []models.ExerciseSnapshot, error) {
	snapshots, err := e.LoadDayExercises(ctx, dayID)
	if err != nil {
		return nil, nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", shared.ErrNoExercises, dayID)
	}

	wl, err := e.BeginWorkout(ctx, dayID)
	if err != nil {
		return nil, nil, err
	}
	return wl, snapshots, nil
}

// LogSet persists one set from a session transition.
//
// Completed sets record the prescribed weight as the weight lifted. Skipped sets carry no actuals.
func (e *WorkoutEngine) LogSet(ctx context.Context, logID string, rec session.SetRecord) (*models.WorkoutExerciseSet, error) {
	if logID == "" {
		return nil, shared.ErrNoWorkoutLog
	}

	wl, err := e.Logs.Get(ctx, logID)
	if err != nil {
		return nil, err
	}
	if wl.Completed() {
		return nil, fmt.Errorf("%w: %s", shared.ErrLogCompleted, logID)
	}

	set := &models.WorkoutExerciseSet{
		WorkoutLogID:  logID,
		ExerciseID:    rec.Exercise.ExerciseID,
		DayExerciseID: rec.Exercise.DayExerciseID,
		SetNumber:     rec.Set.Number,
		TargetReps:    models.Ptr(rec.Set.TargetReps),
		TargetWeight:  rec.Set.TargetWeight,
		Skipped:       rec.Set.Skipped,
		CreatedAt:     e.now().UTC(),
	}
	if rec.Set.Completed {
		set.ActualReps = rec.Set.ActualReps
		set.ActualWeight = rec.Set.TargetWeight
	}

	if err := e.Sets.Create(ctx, set); err != nil {
		return nil, err
	}

	e.logger.Debug("set logged",
		"exercise", rec.Exercise.Name,
		"set", set.SetNumber,
		"reps", models.Deref(set.ActualReps),
		"skipped", set.Skipped,
	)
	return set, nil
}

// CompleteWorkout closes logID and applies progression to its day's targets.
//
// live maps day-exercise link IDs to the session's live hints and may be nil.
// A log that is closed but whose progression partly failed returns both the result and the error.
func (e *WorkoutEngine) CompleteWorkout(ctx context.Context, logID string, live map[string]float64) (*overload.Result, error) {
	if logID == "" {
		return nil, shared.ErrNoWorkoutLog
	}

	wl, err := e.Logs.Get(ctx, logID)
	if err != nil {
		return nil, err
	}

	if err := e.Logs.Complete(ctx, logID, e.now()); err != nil {
		return nil, err
	}

	result, err := e.progression.Apply(ctx, logID, wl.DayID, live)
	if err != nil {
		return result, fmt.Errorf("workout completed but progression failed: %w", err)
	}

	e.logger.Info("workout completed", "log", logID, "adjusted", len(result.Adjusted))
	return result, nil
}

// History lists workout logs, newest first. See [repositories.WorkoutLogRepository.List] for criteria.
func (e *WorkoutEngine) History(ctx context.Context, criteria map[string]any) ([]*models.WorkoutLog, error) {
	return e.Logs.List(ctx, criteria)
}

// ExportLog resolves names and groups a log's sets by exercise in day order.
func (e *WorkoutEngine) ExportLog(ctx context.Context, logID string) (*models.WorkoutLogExport, error) {
	wl, err := e.Logs.Get(ctx, logID)
	if err != nil {
		return nil, err
	}

	export := &models.WorkoutLogExport{Log: *wl}

	if program, err := e.Programs.Get(ctx, wl.ProgramID); err == nil {
		export.ProgramName = program.Name
	}
	if day, err := e.Days.Get(ctx, wl.DayID); err == nil {
		export.DayName = day.Name
	}

	sets, err := e.Sets.ListByLog(ctx, logID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	index := map[string]int{}
	for _, set := range sets {
		i, ok := index[set.DayExerciseID]
		if !ok {
			name, err := e.exerciseName(ctx, names, set.ExerciseID)
			if err != nil {
				return nil, err
			}
			export.Exercises = append(export.Exercises, models.ExportedExercise{
				ExerciseID:    set.ExerciseID,
				DayExerciseID: set.DayExerciseID,
				Name:          name,
			})
			i = len(export.Exercises) - 1
			index[set.DayExerciseID] = i
		}
		export.Exercises[i].Sets = append(export.Exercises[i].Sets, *set)
	}

	return export, nil
}

func (e *WorkoutEngine) exerciseName(ctx context.Context, cache map[string]string, id string) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}

	name := fmt.Sprintf("Unknown (%s)", shared.ShortID(id))
	exercise, err := e.Exercises.Get(ctx, id)
	switch {
	case err == nil:
		name = exercise.Name
	case !errors.Is(err, shared.ErrNotFound):
		return "", err
	}

	cache[id] = name
	return name, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *WorkoutEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
