// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI runs a live workout from a stored program:
//  1. [ProgramListView] : Browse and select a program
//  2. [DayListView] : Pick the day to train (rest days cannot be started)
//  3. [WorkoutView] : Enter reps per set, rest between sets, skip or finish
//  4. [SummaryView] : Review the session and the target changes for next time
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Session rules live in a [session.Engine] owned by the model; persistence runs on a [tasks.Recorder]
// whose results flow back through a channel, so a slow or failing write never blocks the screen.
//
// Rest ticks carry the timer generation that scheduled them. A tick from an older generation is dropped,
// which keeps a cancelled or replaced countdown from touching the current one.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
