// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations for one table. Deletes are hard deletes;
// foreign keys cascade from programs to days, day-exercise links and workout logs.
//
// Key Implementations:
//   - [ExerciseRepository] : Exercise catalogue with name lookups
//   - [ProgramRepository] : Programs, ordered by sequence
//   - [DayRepository] : Ordered days with move/renumber support
//   - [DayExerciseRepository] : Ordered day targets, including the target weight write used by progression
//   - [WorkoutLogRepository] : Workout logs with single completion
//   - [WorkoutSetRepository] : Per-set records and last-set lookups
//
// Sequence numbers provide stable, human-readable ordering for exercises and programs independent of UUIDs.
// Positions order children within a parent and are always renumbered to a dense 0..n-1 range after a move or delete.
package repositories
