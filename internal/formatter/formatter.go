// package formatter provides functions to export workout logs to various formats (CSV, Markdown, plain text, JSON, YAML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported format, in help order.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatYAML}

// ParseFormat maps user input (including common aliases) to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension is the file extension written for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// ExportToCSV converts a WorkoutLogExport to CSV format with columns: Exercise, Set, Reps, Weight, Target Reps, Target Weight, Skipped
func ExportToCSV(export *models.WorkoutLogExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Exercise", "Set", "Reps", "Weight", "Target Reps", "Target Weight", "Skipped"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ex := range export.Exercises {
		for _, set := range ex.Sets {
			record := []string{
				ex.Name,
				strconv.Itoa(set.SetNumber),
				optInt(set.ActualReps),
				optWeight(set.ActualWeight),
				optInt(set.TargetReps),
				optWeight(set.TargetWeight),
				strconv.FormatBool(set.Skipped),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a WorkoutLogExport to Markdown with one table per exercise
func ExportToMarkdown(export *models.WorkoutLogExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s: %s\n\n", export.ProgramName, export.DayName)
	fmt.Fprintf(&buf, "**Started**: %s\n", export.Log.StartedAt.Format(time.DateTime))
	if export.Log.CompletedAt != nil {
		fmt.Fprintf(&buf, "**Completed**: %s\n", export.Log.CompletedAt.Format(time.DateTime))
		dur := int(export.Log.CompletedAt.Sub(export.Log.StartedAt).Seconds())
		fmt.Fprintf(&buf, "**Duration**: %s\n", shared.FormatDuration(dur))
	} else {
		buf.WriteString("**Completed**: in progress\n")
	}
	fmt.Fprintf(&buf, "**Volume**: %s\n\n", shared.FormatWeight(export.Volume()))

	for _, ex := range export.Exercises {
		fmt.Fprintf(&buf, "## %s\n\n", ex.Name)
		buf.WriteString("| Set | Reps | Weight | Target |\n")
		buf.WriteString("|-----|------|--------|--------|\n")
		for _, set := range ex.Sets {
			reps := optInt(set.ActualReps)
			if set.Skipped {
				reps = "skipped"
			}
			fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n",
				set.SetNumber, reps, optWeight(set.ActualWeight), target(set))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a WorkoutLogExport to plain text format
func ExportToText(export *models.WorkoutLogExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Workout: %s / %s\n", export.ProgramName, export.DayName)
	fmt.Fprintf(&buf, "Started: %s\n", export.Log.StartedAt.Format(time.DateTime))
	fmt.Fprintf(&buf, "Volume: %s\n\n", shared.FormatWeight(export.Volume()))

	for _, ex := range export.Exercises {
		fmt.Fprintf(&buf, "%s\n", ex.Name)
		for _, set := range ex.Sets {
			if set.Skipped {
				fmt.Fprintf(&buf, "  %d. skipped\n", set.SetNumber)
				continue
			}
			line := optInt(set.ActualReps) + " reps"
			if set.ActualWeight != nil {
				line += " @ " + shared.FormatWeight(*set.ActualWeight)
			}
			fmt.Fprintf(&buf, "  %d. %s\n", set.SetNumber, line)
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a WorkoutLogExport to indented JSON
func ExportToJSON(export *models.WorkoutLogExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToYAML converts a WorkoutLogExport to YAML
func ExportToYAML(export *models.WorkoutLogExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// Render encodes export in format f.
func Render(export *models.WorkoutLogExport, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatYAML:
		return ExportToYAML(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to {log.ID}.{ext} in the working directory when path is empty.
func WriteExport(export *models.WorkoutLogExport, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", export.Log.ID, f.Extension())
	}

	data, err := Render(export, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// ManifestEntry records the outcome of one log in a bulk export.
type ManifestEntry struct {
	LogID   string   `json:"log_id" yaml:"log_id"`
	Day     string   `json:"day" yaml:"day"`
	Success bool     `json:"success" yaml:"success"`
	Files   []string `json:"files,omitempty" yaml:"files,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format     Format          `json:"format" yaml:"format"`
	OutputDir  string          `json:"output_dir" yaml:"output_dir"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Total      int             `json:"total" yaml:"total"`
	Succeeded  int             `json:"succeeded" yaml:"succeeded"`
	Failed     int             `json:"failed" yaml:"failed"`
	Entries    []ManifestEntry `json:"entries" yaml:"entries"`
}

// WriteBulkExportManifest writes manifest as JSON to path.
func WriteBulkExportManifest(manifest *Manifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optWeight(v *float64) string {
	if v == nil {
		return ""
	}
	return shared.FormatWeight(*v)
}

func target(set models.WorkoutExerciseSet) string {
	switch {
	case set.TargetReps == nil:
		return ""
	case set.TargetWeight == nil:
		return strconv.Itoa(*set.TargetReps)
	default:
		return fmt.Sprintf("%d @ %s", *set.TargetReps, shared.FormatWeight(*set.TargetWeight))
	}
}
