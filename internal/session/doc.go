// Package session implements the live workout state machine.
//
// An [Engine] owns at most one [Session] at a time. Starting a new session replaces
// the previous one entirely. All transitions are synchronous and never block; callers
// (the TUI) persist the [Transition] a call returns and schedule rest ticks themselves.
//
// State:
//
//	NotStarted -> InProgress(exercise, set, resting) -> Completed
//
// The rest timer is coupled to transitions: completing a set starts (or restarts) it,
// skipping an exercise and finishing the workout stop it. Every start or stop bumps the
// timer generation so a tick scheduled for an older rest period is dropped by [Engine.Tick].
package session
