// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/valpere/tatooine/pkg/types"
)

// Fixed CSV columns, written before the extracted fields
const (
	ColumnSchema = "schema"
	ColumnError  = "error"
)

// CSVWriter flattens envelopes into one row per source. A failed envelope
// becomes a single row carrying its error.
type CSVWriter struct {
	writer *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w), closer: asCloser(w)}
}

// Write writes the header and every row
func (w *CSVWriter) Write(envelopes []*types.Envelope) error {
	// Get all unique field names
	fieldSet := make(map[string]bool)
	for _, envelope := range envelopes {
		if envelope == nil {
			continue
		}
		for _, source := range envelope.Sources {
			for field := range source {
				fieldSet[field] = true
			}
		}
	}

	fields := make([]string, 0, len(fieldSet))
	for field := range fieldSet {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	header := append([]string{ColumnSchema}, fields...)
	header = append(header, ColumnError)
	if err := w.writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, envelope := range envelopes {
		if envelope == nil {
			continue
		}
		index := strconv.Itoa(i)

		if envelope.Failed() {
			row := make([]string, len(header))
			row[0] = index
			row[len(row)-1] = envelope.Error
			if err := w.writer.Write(row); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
			continue
		}

		for _, source := range envelope.Sources {
			row := make([]string, 0, len(header))
			row = append(row, index)
			for _, field := range fields {
				row = append(row, source[field])
			}
			row = append(row, "")
			if err := w.writer.Write(row); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes pending rows and closes the underlying writer if it owns it
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return err
	}
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}
