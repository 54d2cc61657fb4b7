package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatProjectStatus formats the status command's output as JSON
func (f *Formatter) FormatProjectStatus(status ProjectStatusDTO) error {
	return f.encode(status)
}

// FormatChecks formats per-target prerequisite reports as JSON
func (f *Formatter) FormatChecks(checks []CheckDTO) error {
	return f.encode(checks)
}

// FormatRunResult formats a pipeline run summary as JSON
func (f *Formatter) FormatRunResult(result RunResultDTO) error {
	return f.encode(result)
}

// FormatManifestStatus formats manifest version observations as JSON
func (f *Formatter) FormatManifestStatus(entries []ManifestStatusDTO) error {
	return f.encode(entries)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
