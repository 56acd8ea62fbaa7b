package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/desertthunder/repx/internal/formatter"
	"github.com/desertthunder/repx/internal/models"
)

// BulkExportOpts contains configuration for bulk workout log exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: repx_export_{epoch})
	NumWorkers int              // Concurrent file writers (default: 4)
}

// LogExportResult is the outcome of exporting one log.
type LogExportResult struct {
	LogID   string
	DayName string
	Files   []string
	Error   error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []LogExportResult
}

// Err combines every per-log failure, or returns nil.
func (r *BulkExportResult) Err() error {
	var errs error
	for _, res := range r.Results {
		if res.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.LogID, res.Error))
		}
	}
	return errs
}

type logExportJob struct {
	export *models.WorkoutLogExport
}

// BulkExport exports many workout logs with a small pool of file writers.
//
// Logs are read from the database sequentially by the producer; workers only render and write files.
// Failures are reported per log and the manifest is always written. After ctx is cancelled the
// remaining logs are reported as failed, so Succeeded and Failed always add up to Total.
func (e *WorkoutEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("repx_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 8)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]LogExportResult, 0, len(ids)),
	}

	// Every id produces exactly one result, so sends on results never block.
	jobs := make(chan logExportJob, len(ids))
	results := make(chan LogExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		e.sendProgress(prog, fetchingLogsUpdate(0, len(ids)))
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				for _, rest := range ids[i:] {
					results <- LogExportResult{LogID: rest, Error: cancelled(err)}
				}
				return
			}

			export, err := e.ExportLog(ctx, id)
			if err != nil {
				results <- LogExportResult{LogID: id, Error: fmt.Errorf("failed to load log: %w", err)}
				continue
			}

			jobs <- logExportJob{export: export}
			e.sendProgress(prog, exportingLogUpdate(i+1, len(ids), export.DayName))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Succeeded++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.DayName, len(res.Files)))
		} else {
			result.Failed++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.LogID, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(manifestOf(result, opts.Format, e.now()), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}

// exportWorker renders and writes logs from the jobs channel.
func (e *WorkoutEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan logExportJob,
	results chan<- LogExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := LogExportResult{LogID: job.export.Log.ID, DayName: job.export.DayName}
		if err := ctx.Err(); err != nil {
			res.Error = cancelled(err)
			results <- res
			continue
		}

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", job.export.Log.ID, opts.Format.Extension()))
		written, err := formatter.WriteExport(job.export, opts.Format, path)
		if err != nil {
			res.Error = err
		} else {
			res.Files = []string{written}
		}
		results <- res
	}
}

func cancelled(err error) error {
	return fmt.Errorf("export cancelled: %w", err)
}

func manifestOf(r *BulkExportResult, f formatter.Format, at time.Time) *formatter.Manifest {
	m := &formatter.Manifest{
		Format:     f,
		OutputDir:  r.OutputDirectory,
		ExportedAt: at.UTC(),
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Entries:    make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{LogID: res.LogID, Day: res.DayName, Success: res.Error == nil, Files: res.Files}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}
