package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Storage errors
	ErrNotFound        = fmt.Errorf("record not found")
	ErrDuplicate       = fmt.Errorf("record already exists")
	ErrInvalidPosition = fmt.Errorf("position out of range")

	// Workout errors
	ErrRestDay        = fmt.Errorf("day is a rest day")
	ErrNoExercises    = fmt.Errorf("day has no exercises")
	ErrNoWorkoutLog   = fmt.Errorf("workout log not started")
	ErrLogCompleted   = fmt.Errorf("workout log already completed")
	ErrRecorderClosed = fmt.Errorf("recorder closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
