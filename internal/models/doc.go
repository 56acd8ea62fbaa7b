// Package models defines domain entities and persistence interfaces for the repx workout tracker.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed rows owned by the repositories package
//   - [Exercise] : Static exercise definition (name, description, tracking type)
//   - [Program] : Named collection of ordered days
//   - [Day] : Rest day or workout day within a program
//   - [DayExercise] : Day-exercise link carrying per-day targets and the progression rate
//   - [WorkoutLog] : One recorded workout, completed at most once
//   - [WorkoutExerciseSet] : Per-set outcome with the targets in effect for that set
//
// 2. Snapshots and Transfer Objects: Read-only views handed to the session engine or exporters
//   - [ExerciseSnapshot] : Ordered exercise configuration consumed by a live session
//   - [ProgramTree] : Program with its days and each day's snapshots
//   - [WorkoutLogExport] : Completed log grouped by exercise for export formats
//
// All persistent entities implement [Model]; the [Repository] interface defines standard CRUD operations for database access.
package models
