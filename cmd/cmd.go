// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/repx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the config file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// exerciseCommand manages the exercise library
func exerciseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "exercise",
		Aliases: []string{"ex"},
		Usage:   "Manage the exercise library",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add an exercise",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Exercise description",
					},
					&cli.StringFlag{
						Name:  "tracking",
						Usage: "What a set counts: reps or time",
						Value: "reps",
					},
				},
				Action: r.ExerciseAdd,
			},
			{
				Name:  "list",
				Usage: "List exercises",
				Flags: append(outputFlags(), &cli.StringFlag{
					Name:  "tracking",
					Usage: "Only list exercises tracked by reps or time",
				}),
				Action: r.ExerciseList,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an exercise and every target using it",
				Arguments: []cli.Argument{&cli.StringArg{Name: "exercise"}},
				Action:    r.ExerciseDelete,
			},
		},
	}
}

// programCommand manages programs
func programCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "program",
		Aliases: []string{"prog"},
		Usage:   "Manage training programs",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a program",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Program description",
					},
				},
				Action: r.ProgramAdd,
			},
			{
				Name:   "list",
				Usage:  "List programs",
				Flags:  outputFlags(),
				Action: r.ProgramList,
			},
			{
				Name:      "show",
				Usage:     "Show a program with its days and targets",
				Arguments: []cli.Argument{&cli.StringArg{Name: "program"}},
				Flags:     outputFlags(),
				Action:    r.ProgramShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a program with its days, targets and logs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "program"}},
				Action:    r.ProgramDelete,
			},
		},
	}
}

// dayCommand manages the ordered days of a program
func dayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "day",
		Usage: "Manage program days",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Append a day to a program",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "program"},
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rest",
						Usage: "Mark the day as a rest day",
					},
				},
				Action: r.DayAdd,
			},
			{
				Name:      "list",
				Usage:     "List a program's days in order",
				Arguments: []cli.Argument{&cli.StringArg{Name: "program"}},
				Flags:     outputFlags(),
				Action:    r.DayList,
			},
			{
				Name:  "move",
				Usage: "Move a day to a 1-based position",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "day"},
					&cli.StringArg{Name: "position"},
				},
				Action: r.DayMove,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a day and renumber the rest",
				Arguments: []cli.Argument{&cli.StringArg{Name: "day"}},
				Action:    r.DayDelete,
			},
		},
	}
}

// targetCommand manages the exercises prescribed on a day
func targetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "target",
		Usage: "Manage the exercises and targets of a day",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an exercise to a day",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "day"},
					&cli.StringArg{Name: "exercise"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "sets",
						Usage: "Number of sets",
						Value: 3,
					},
					&cli.IntFlag{
						Name:  "reps",
						Usage: "Target reps per set",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "time",
						Usage: "Target seconds per set for time-tracked exercises",
					},
					&cli.FloatFlag{
						Name:  "weight",
						Usage: "Target weight",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "resistance",
						Usage: "Non-numeric resistance, e.g. \"green band\"",
					},
					&cli.IntFlag{
						Name:  "rest",
						Usage: "Rest seconds after each set (default from config)",
						Value: -1,
					},
					&cli.FloatFlag{
						Name:  "increase",
						Usage: "Weight added when every rep is met (default from config)",
					},
					&cli.IntFlag{
						Name:  "min",
						Usage: "Lower bound of the rep band",
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Upper bound of the rep band",
					},
				},
				Action: r.TargetAdd,
			},
			{
				Name:      "list",
				Usage:     "List a day's targets in order",
				Arguments: []cli.Argument{&cli.StringArg{Name: "day"}},
				Flags:     outputFlags(),
				Action:    r.TargetList,
			},
			{
				Name:  "move",
				Usage: "Move a target to a 1-based position",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "target"},
					&cli.StringArg{Name: "position"},
				},
				Action: r.TargetMove,
			},
			{
				Name:  "weight",
				Usage: "Set a target's weight",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "target"},
					&cli.StringArg{Name: "weight"},
				},
				Action: r.TargetWeight,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove a target from its day",
				Arguments: []cli.Argument{&cli.StringArg{Name: "target"}},
				Action:    r.TargetDelete,
			},
		},
	}
}

// workoutCommand runs and reviews workouts
func workoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "workout",
		Aliases: []string{"wo"},
		Usage:   "Run and review workouts",
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Run a workout for a day, reading reps from stdin",
				Arguments: []cli.Argument{&cli.StringArg{Name: "day"}},
				Action:    r.WorkoutStart,
			},
			{
				Name:  "history",
				Usage: "List workout logs, newest first",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:  "program",
						Usage: "Filter by program name or ID",
					},
					&cli.StringFlag{
						Name:  "day",
						Usage: "Filter by day ID",
					},
					&cli.BoolFlag{
						Name:  "completed",
						Usage: "Only completed workouts",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of logs to return",
						Value: 20,
					},
				),
				Action: r.WorkoutHistory,
			},
			{
				Name:      "show",
				Usage:     "Show a workout log",
				Arguments: []cli.Argument{&cli.StringArg{Name: "log"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Render as " + formatList(),
						Value:   string(formatter.FormatText),
					},
				},
				Action: r.WorkoutShow,
			},
			{
				Name:      "export",
				Usage:     "Export a workout log to a file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "log"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + formatList(),
						Value:   string(formatter.FormatCSV),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: {log}.{ext})",
					},
				},
				Action: r.WorkoutExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every matching workout log",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + formatList(),
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: repx_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "program",
						Usage: "Only export logs of this program (name or ID)",
					},
					&cli.BoolFlag{
						Name:  "completed",
						Usage: "Only export completed workouts",
						Value: true,
					},
				},
				Action: r.WorkoutExportAll,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for running live workouts.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive workout screen",
		Action:  r.TUI,
	}
}

func formatList() string {
	s := ""
	for i, f := range formatter.Formats {
		if i > 0 {
			s += ", "
		}
		s += string(f)
	}
	return s
}
