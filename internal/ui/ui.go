package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
	"github.com/desertthunder/repx/internal/session"
	"github.com/desertthunder/repx/internal/shared"
	"github.com/desertthunder/repx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProgramListView ViewState = iota
	DayListView
	WorkoutView
	SummaryView
)

// Store is what the TUI reads programs from and records sessions through.
// [tasks.WorkoutEngine] implements it.
type Store interface {
	tasks.Journal
	ListPrograms(ctx context.Context) ([]*models.Program, error)
	ListDays(ctx context.Context, programID string) ([]*models.Day, error)
	LoadDayExercises(ctx context.Context, dayID string) ([]models.ExerciseSnapshot, error)
}

// Options configures a [Model]. Zero values fall back to defaults.
type Options struct {
	RestExtension int              // seconds added by the extend key
	Clock         func() time.Time // session clock
	Bell          io.Writer        // receives "\a" when rest finishes
	Logger        *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	store  Store
	logger *log.Logger
	width  int
	height int

	programList list.Model
	dayList     list.Model
	program     *models.Program
	day         *models.Day

	session  *session.Engine
	recorder *tasks.Recorder
	input    textinput.Model
	lastReps *int
	extend   int
	bell     io.Writer
	tickLog  rate.Sometimes

	overload *overload.Result
	saveErrs []error
	flash    string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, store Store, opts Options) *Model {
	if opts.RestExtension <= 0 {
		opts.RestExtension = 30
	}
	if opts.Bell == nil {
		opts.Bell = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	input := textinput.New()
	input.Placeholder = "reps"
	input.CharLimit = 3
	input.Width = 5
	input.Prompt = "reps › "

	return &Model{
		ctx:     ctx,
		view:    ProgramListView,
		store:   store,
		logger:  opts.Logger,
		session: session.NewEngine(opts.Clock),
		input:   input,
		extend:  opts.RestExtension,
		bell:    opts.Bell,
		tickLog: rate.Sometimes{Interval: 10 * time.Second},
		help:    help.New(),
		keys:    newKeyMap(),

		programList: newList(nil, "Programs", 0, 0),
		dayList:     newList(nil, "Days", 0, 0),
	}
}

// Init initializes the TUI by loading programs.
func (m *Model) Init() tea.Cmd {
	return m.loadPrograms()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.programList.SetSize(listSize(msg.Width, msg.Height))
		m.dayList.SetSize(listSize(msg.Width, msg.Height))
		return m, nil

	case tea.KeyMsg:
		m.flash = ""
		switch m.view {
		case ProgramListView:
			return m.handleProgramListKeys(msg)
		case DayListView:
			return m.handleDayListKeys(msg)
		case WorkoutView:
			return m.handleWorkoutKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgramsLoaded:
		data := msg.data.(programsPayload)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.programs))
		for i, p := range data.programs {
			items[i] = programItem{program: p}
		}
		m.programList = newList(items, "Programs", m.width, m.height)
		return m, nil

	case MsgDaysLoaded:
		data := msg.data.(daysPayload)
		if data.err != nil {
			m.flash = styles.err.Render(fmt.Sprintf("Failed to load days: %v", data.err))
			return m, nil
		}
		m.program = data.program
		items := make([]list.Item, len(data.days))
		for i, d := range data.days {
			items[i] = dayItem{day: d}
		}
		m.dayList = newList(items, data.program.Name, m.width, m.height)
		m.view = DayListView
		return m, nil

	case MsgSessionLoaded:
		return m.beginSession(msg.data.(sessionPayload))

	case MsgRestTick:
		return m.handleTick(msg.data.(uint64))

	case MsgRecordResult:
		data := msg.data.(recordPayload)
		if data.recorder == m.recorder {
			m.handleRecord(data.result)
		}
		return m, waitForRecord(data.recorder)

	case MsgRecorderClosed:
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case ProgramListView:
		body = m.renderList(m.programList, m.keys.enter, m.keys.quit)
	case DayListView:
		body = m.renderList(m.dayList, m.keys.enter, m.keys.back, m.keys.quit)
	case WorkoutView:
		body = m.renderWorkout()
	case SummaryView:
		body = m.renderSummary()
	}

	if m.flash != "" {
		body = fmt.Sprintf("%s\n\n%s", body, m.flash)
	}
	return body
}

func (m *Model) handleProgramListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.programList.SelectedItem().(programItem); ok {
			return m, m.loadDays(pl.program)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.programList, cmd = m.programList.Update(msg)
	return m, cmd
}

func (m *Model) handleDayListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ProgramListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.dayList.SelectedItem().(dayItem)
		if !ok {
			return m, nil
		}
		if item.day.RestDay {
			m.flash = styles.warn.Render(fmt.Sprintf("%s is a rest day", item.day.Name))
			return m, nil
		}
		return m, m.loadSession(item.day)
	}

	var cmd tea.Cmd
	m.dayList, cmd = m.dayList.Update(msg)
	return m, cmd
}

func (m *Model) handleWorkoutKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.enter):
		return m.completeSet()
	case key.Matches(msg, m.keys.skip):
		tr, err := m.session.SkipExercise()
		return m, m.apply(tr, err)
	case key.Matches(msg, m.keys.finish):
		tr, err := m.session.FinishWorkout()
		return m, m.apply(tr, err)
	case key.Matches(msg, m.keys.cancel):
		m.session.CancelRest()
		return m, nil
	case key.Matches(msg, m.keys.extend):
		m.session.AddRest(m.extend)
		return m, nil
	case key.Matches(msg, m.keys.prev), key.Matches(msg, m.keys.next):
		step := 1
		if key.Matches(msg, m.keys.prev) {
			step = -1
		}
		if s := m.session.Session(); s != nil {
			if err := m.session.GoToExercise(s.ExerciseIdx + step); err == nil {
				m.prefill()
			}
		}
		return m, nil
	}

	if !isRepInput(msg) {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		closing := m.closeRecorder()
		m.session.Reset()
		m.overload = nil
		m.saveErrs = nil
		m.view = DayListView
		return m, closing
	}
	return m, nil
}

// isRepInput reports whether msg edits the numeric rep field.
func isRepInput(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return false
			}
		}
		return len(msg.Runes) > 0
	}
	return false
}

func (m *Model) completeSet() (tea.Model, tea.Cmd) {
	if st := m.session.State(); st != session.StateInProgress && st != session.StateResting {
		return m, nil
	}

	reps, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil || reps < 0 {
		m.flash = styles.warn.Render("Enter the reps you completed")
		return m, nil
	}

	tr, err := m.session.CompleteSet(reps)
	if err != nil {
		return m, nil
	}
	m.lastReps = &reps
	return m, m.apply(tr, nil)
}

// apply forwards a transition's side effects: persistence jobs, rest ticks and completion.
// Precondition errors from the engine leave the screen unchanged.
func (m *Model) apply(tr session.Transition, err error) tea.Cmd {
	if err != nil {
		m.logger.Debug("transition rejected", "error", err)
		return nil
	}

	if tr.Logged != nil {
		m.submit(m.recorder.LogSet(*tr.Logged))
	}
	for _, rec := range tr.Skipped {
		m.submit(m.recorder.LogSet(rec))
	}

	if tr.Finished {
		m.submit(m.recorder.Complete(m.session.LiveAdjustments()))
		m.view = SummaryView
		return nil
	}

	m.prefill()
	if tr.Rest != nil {
		return tick(tr.Rest.Generation)
	}
	return nil
}

func (m *Model) submit(err error) {
	if err != nil {
		m.logger.Error("failed to queue workout record", "error", err)
		m.saveErrs = append(m.saveErrs, err)
	}
}

// prefill puts the last entered reps, or the current set's target, into the input.
func (m *Model) prefill() {
	if m.lastReps != nil {
		m.input.SetValue(strconv.Itoa(*m.lastReps))
		return
	}
	if s := m.session.Session(); s != nil && !s.Completed {
		m.input.SetValue(strconv.Itoa(s.Current().Sets[s.SetIdx].TargetReps))
	}
}

func (m *Model) beginSession(data sessionPayload) (tea.Model, tea.Cmd) {
	if data.err == nil && len(data.snapshots) == 0 {
		data.err = shared.ErrNoExercises
	}
	if data.err != nil {
		m.flash = styles.err.Render(fmt.Sprintf("Cannot start %s: %v", data.day.Name, data.err))
		return m, nil
	}

	if err := m.session.Start(data.snapshots); err != nil {
		m.flash = styles.err.Render(fmt.Sprintf("Cannot start %s: %v", data.day.Name, err))
		return m, nil
	}

	m.closeRecorderNow()
	m.day = data.day
	m.recorder = tasks.NewRecorder(m.ctx, m.store, shared.WithLogger(m.logger, "component", "recorder"))
	m.submit(m.recorder.Begin(data.day.ID))
	m.overload = nil
	m.saveErrs = nil
	m.input.Focus()
	m.prefill()
	m.view = WorkoutView

	m.logger.Info("session started", "day", data.day.Name, "exercises", len(data.snapshots))
	return m, tea.Batch(textinput.Blink, waitForRecord(m.recorder))
}

func (m *Model) handleTick(generation uint64) (tea.Model, tea.Cmd) {
	res := m.session.Tick(generation)
	m.tickLog.Do(func() {
		m.logger.Debug("rest tick", "generation", generation, "remaining", m.session.Rest().Remaining, "result", res)
	})

	switch res {
	case session.TickCounting:
		return m, tick(generation)
	case session.TickFinished:
		return m, m.ring()
	default:
		return m, nil
	}
}

func (m *Model) handleRecord(res tasks.RecordResult) {
	if res.Err != nil {
		m.saveErrs = append(m.saveErrs, res.Err)
		m.flash = styles.err.Render(fmt.Sprintf("Failed to save %s: %v", res.Kind, res.Err))
		return
	}
	if res.Kind == tasks.RecordComplete {
		m.overload = res.Overload
	}
}

func (m *Model) ring() tea.Cmd {
	w := m.bell
	return func() tea.Msg {
		_, _ = io.WriteString(w, "\a")
		return nil
	}
}

// quit drains the recorder so queued writes land before the program exits.
func (m *Model) quit() tea.Cmd {
	return tea.Sequence(m.closeRecorder(), tea.Quit)
}

func (m *Model) closeRecorder() tea.Cmd {
	r := m.recorder
	m.recorder = nil
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		r.Close()
		return recorderClosedMsg(r)
	}
}

func (m *Model) closeRecorderNow() {
	if m.recorder != nil {
		m.recorder.Close()
		m.recorder = nil
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProgramListView:
		m.programList, cmd = m.programList.Update(msg)
	case DayListView:
		m.dayList, cmd = m.dayList.Update(msg)
	case WorkoutView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadPrograms() tea.Cmd {
	return func() tea.Msg {
		programs, err := m.store.ListPrograms(m.ctx)
		return programsLoadedMsg(programs, err)
	}
}

func (m *Model) loadDays(program *models.Program) tea.Cmd {
	return func() tea.Msg {
		days, err := m.store.ListDays(m.ctx, program.ID)
		return daysLoadedMsg(program, days, err)
	}
}

func (m *Model) loadSession(day *models.Day) tea.Cmd {
	return func() tea.Msg {
		snapshots, err := m.store.LoadDayExercises(m.ctx, day.ID)
		return sessionLoadedMsg(day, snapshots, err)
	}
}

// tick schedules one rest countdown step for generation.
func tick(generation uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return restTickMsg(generation)
	})
}

// waitForRecord blocks on the recorder's next result.
func waitForRecord(r *tasks.Recorder) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-r.Results()
		if !ok {
			return recorderClosedMsg(r)
		}
		return recordResultMsg(r, res)
	}
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderWorkout() string {
	s := m.session.Session()
	if s == nil {
		return ""
	}

	var b strings.Builder
	done, total := s.Progress()
	b.WriteString(styles.title.Render(fmt.Sprintf("%s • %s", m.programName(), m.day.Name)))
	b.WriteString(fmt.Sprintf("\n%d/%d sets • %s elapsed\n\n", done, total, formatElapsed(s.Duration(time.Now()))))

	for i := range s.Exercises {
		b.WriteString(m.renderExercise(&s.Exercises[i], i == s.ExerciseIdx, s.SetIdx))
		b.WriteString("\n")
	}

	rest := m.session.Rest()
	if rest.Resting {
		b.WriteString("\n")
		b.WriteString(styles.rest.Render(fmt.Sprintf("Rest %s", shared.FormatDuration(rest.Remaining))))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.workoutHelp(rest.Resting)))
	return b.String()
}

func (m *Model) renderExercise(ex *session.Exercise, current bool, setIdx int) string {
	name := ex.Snapshot.Name
	header := fmt.Sprintf("  %s  %s", name, targetLabel(ex.Snapshot))
	if current {
		header = styles.current.Render(fmt.Sprintf("› %s  %s", name, targetLabel(ex.Snapshot)))
	}

	marks := make([]string, len(ex.Sets))
	for i, set := range ex.Sets {
		switch {
		case set.Completed:
			marks[i] = styles.ok.Render(strconv.Itoa(models.Deref(set.ActualReps)))
		case set.Skipped:
			marks[i] = styles.help.Render("–")
		case current && i == setIdx:
			marks[i] = styles.current.Render("•")
		default:
			marks[i] = "·"
		}
	}

	line := fmt.Sprintf("%s\n    %s", header, strings.Join(marks, " "))
	if ex.NextSessionWeightAdjustment != nil && *ex.NextSessionWeightAdjustment != 0 {
		line += styles.help.Render(fmt.Sprintf("  next: %+g", *ex.NextSessionWeightAdjustment))
	}
	return line
}

func (m *Model) renderSummary() string {
	s := m.session.Session()
	if s == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Workout complete"))
	done, total := s.Progress()
	b.WriteString(fmt.Sprintf("\n\n%s • %s\nSets: %d/%d\nDuration: %s\n", m.programName(), m.day.Name, done, total, formatElapsed(s.Duration(time.Now()))))

	for _, ex := range s.Exercises {
		reps := make([]string, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			if set.Completed {
				reps = append(reps, strconv.Itoa(models.Deref(set.ActualReps)))
			}
		}
		if len(reps) == 0 {
			b.WriteString(fmt.Sprintf("\n  %s: skipped", ex.Snapshot.Name))
			continue
		}
		b.WriteString(fmt.Sprintf("\n  %s: %s", ex.Snapshot.Name, strings.Join(reps, ", ")))
	}

	switch {
	case m.overload != nil && len(m.overload.Adjusted) > 0:
		b.WriteString("\n\n")
		b.WriteString(styles.title.Render("Next session"))
		for _, a := range m.overload.Adjusted {
			b.WriteString(fmt.Sprintf("\n  %s: %s → %s (%s)", a.ExerciseName, shared.FormatWeight(a.Previous), shared.FormatWeight(a.Next), a.Reason))
		}
	case m.overload != nil:
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("No target changes"))
	}

	if len(m.saveErrs) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.err.Render(fmt.Sprintf("%d record(s) failed to save", len(m.saveErrs))))
		for _, err := range m.saveErrs {
			if errors.Is(err, shared.ErrNoWorkoutLog) {
				b.WriteString("\n  workout log was never created")
				break
			}
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit}))
	return b.String()
}

func (m *Model) programName() string {
	if m.program == nil {
		return ""
	}
	return m.program.Name
}

func targetLabel(s models.ExerciseSnapshot) string {
	var target string
	switch {
	case s.Tracking == models.TrackTime && s.TargetTimeSeconds != nil:
		target = fmt.Sprintf("%d×%ds", s.TargetSets, *s.TargetTimeSeconds)
	default:
		target = fmt.Sprintf("%d×%d", s.TargetSets, s.TargetReps)
	}

	switch {
	case s.TargetWeight != nil:
		return fmt.Sprintf("%s @ %s", target, shared.FormatWeight(*s.TargetWeight))
	case s.TargetResistanceText != nil:
		return fmt.Sprintf("%s (%s)", target, *s.TargetResistanceText)
	}
	return target
}

func formatElapsed(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
