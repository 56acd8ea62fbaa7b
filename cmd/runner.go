package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/repx/internal/shared"
	"github.com/desertthunder/repx/internal/tasks"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	engine     *tasks.WorkoutEngine
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	logCloser  io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB // migrated database; opened from Config on first use when nil
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
	}
	if r.db != nil {
		r.engine = tasks.NewWorkoutEngine(r.db, r.config.Workout, r.logger)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, exerciseCommand, programCommand, dayCommand, targetCommand, workoutCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// workouts opens the configured database on first use and returns the engine bound to it.
func (r *Runner) workouts() (*tasks.WorkoutEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.ownsDB = true
	r.engine = tasks.NewWorkoutEngine(db, r.config.Workout, r.logger)
	return r.engine, nil
}

// SetLogger replaces the logger used by the runner and any engine created afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.db != nil {
		r.engine = tasks.NewWorkoutEngine(r.db, r.config.Workout, l)
	}
}

// Close releases the database and the TUI log file if the runner opened them.
func (r *Runner) Close() error {
	var err error
	if r.logCloser != nil {
		err = r.logCloser.Close()
		r.logCloser = nil
	}
	if r.ownsDB && r.db != nil {
		err = multierr.Append(err, r.db.Close())
		r.db = nil
		r.engine = nil
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
