// Package tasks connects the live session engine to persistence.
//
// # Core Operations
//
// [WorkoutEngine] owns the repositories and the progression engine:
//
//  1. [WorkoutEngine.LoadProgram] / [WorkoutEngine.LoadDayExercises] : build ordered, cloned snapshots
//  2. [WorkoutEngine.BeginWorkout] : open a workout log for a day
//  3. [WorkoutEngine.LogSet] : persist a completed or skipped set with its targets
//  4. [WorkoutEngine.CompleteWorkout] : close the log, then apply progression
//  5. [WorkoutEngine.ExportLog] / [WorkoutEngine.BulkExport] : history exports
//
// # Recording
//
// A [Recorder] serializes the writes of one session on a single goroutine so sets are stored
// in the order they were performed and completion always runs after the last set, while the
// caller never waits on the database. Each job's outcome (including failures) is published on
// [Recorder.Results].
//
// # Progress Reporting
//
// Bulk exports report through non-blocking [ProgressUpdate] channels; updates are dropped
// rather than blocking when the receiver falls behind.
package tasks
