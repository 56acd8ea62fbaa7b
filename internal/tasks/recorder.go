package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/overload"
	"github.com/desertthunder/repx/internal/session"
	"github.com/desertthunder/repx/internal/shared"
)

// Journal is the persistence surface a [Recorder] writes through. [WorkoutEngine] implements it.
type Journal interface {
	BeginWorkout(ctx context.Context, dayID string) (*models.WorkoutLog, error)
	LogSet(ctx context.Context, logID string, rec session.SetRecord) (*models.WorkoutExerciseSet, error)
	CompleteWorkout(ctx context.Context, logID string, live map[string]float64) (*overload.Result, error)
}

// RecordKind identifies a recorder job.
type RecordKind int

const (
	RecordBegin RecordKind = iota
	RecordSet
	RecordComplete
)

func (k RecordKind) String() string {
	switch k {
	case RecordBegin:
		return "begin"
	case RecordSet:
		return "log_set"
	case RecordComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// RecordResult is the outcome of one recorder job.
type RecordResult struct {
	Kind     RecordKind
	Log      *models.WorkoutLog         // set by RecordBegin
	Set      *models.WorkoutExerciseSet // set by RecordSet
	Overload *overload.Result           // set by RecordComplete
	Err      error
}

type recordJob struct {
	kind  RecordKind
	dayID string
	set   session.SetRecord
	live  map[string]float64
}

const recorderQueue = 256

// Recorder runs a session's writes in submission order on one goroutine.
//
// Submitting never waits on the database. The log ID created by Begin is held by the
// worker and used by every later job; jobs submitted after a failed Begin fail with
// [shared.ErrNoWorkoutLog].
type Recorder struct {
	journal Journal
	logger  *log.Logger

	jobs    chan recordJob
	results chan RecordResult
	done    chan struct{}

	mu     sync.Mutex
	closed bool

	idMu  sync.Mutex
	logID string
}

// NewRecorder starts a recorder. It stops when ctx is cancelled or [Recorder.Close] is called.
func NewRecorder(ctx context.Context, journal Journal, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	r := &Recorder{
		journal: journal,
		logger:  logger,
		jobs:    make(chan recordJob, recorderQueue),
		results: make(chan RecordResult, recorderQueue),
		done:    make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

// Results publishes one [RecordResult] per job. It is closed once the recorder stops.
func (r *Recorder) Results() <-chan RecordResult {
	return r.results
}

// LogID returns the workout log ID once Begin has succeeded.
func (r *Recorder) LogID() string {
	r.idMu.Lock()
	defer r.idMu.Unlock()
	return r.logID
}

// Begin queues creation of the workout log for dayID.
func (r *Recorder) Begin(dayID string) error {
	return r.submit(recordJob{kind: RecordBegin, dayID: dayID})
}

// LogSet queues a completed or skipped set.
func (r *Recorder) LogSet(rec session.SetRecord) error {
	return r.submit(recordJob{kind: RecordSet, set: rec})
}

// Complete queues log completion and progression with the session's live hints.
func (r *Recorder) Complete(live map[string]float64) error {
	return r.submit(recordJob{kind: RecordComplete, live: live})
}

// Close stops accepting jobs, waits for queued jobs to finish and closes [Recorder.Results].
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) submit(job recordJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return shared.ErrRecorderClosed
	}
	select {
	case r.jobs <- job:
		return nil
	case <-r.done:
		return shared.ErrRecorderClosed
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)
	defer close(r.results)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-r.jobs:
			if !ok {
				return
			}
			r.publish(ctx, r.handle(ctx, job))
		}
	}
}

func (r *Recorder) handle(ctx context.Context, job recordJob) RecordResult {
	res := RecordResult{Kind: job.kind}
	logID := r.LogID()

	switch job.kind {
	case RecordBegin:
		res.Log, res.Err = r.journal.BeginWorkout(ctx, job.dayID)
		if res.Err == nil {
			r.idMu.Lock()
			r.logID = res.Log.ID
			r.idMu.Unlock()
		}
	case RecordSet:
		if logID == "" {
			res.Err = shared.ErrNoWorkoutLog
			break
		}
		res.Set, res.Err = r.journal.LogSet(ctx, logID, job.set)
	case RecordComplete:
		if logID == "" {
			res.Err = shared.ErrNoWorkoutLog
			break
		}
		res.Overload, res.Err = r.journal.CompleteWorkout(ctx, logID, job.live)
	}

	if res.Err != nil {
		r.logger.Error("failed to record workout", "op", job.kind, "error", res.Err)
	} else {
		r.logger.Debug("recorded", "op", job.kind)
	}
	return res
}

func (r *Recorder) publish(ctx context.Context, res RecordResult) {
	select {
	case r.results <- res:
	case <-ctx.Done():
	}
}
