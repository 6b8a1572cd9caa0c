// internal/output/json.go
package output

import (
	"encoding/json"
	"io"

	"github.com/valpere/tatooine/pkg/types"
)

// JSONWriter writes envelopes as an indented JSON array
type JSONWriter struct {
	w      io.Writer
	closer io.Closer
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w, closer: asCloser(w)}
}

// Write writes envelopes, an empty batch is written as []
func (w *JSONWriter) Write(envelopes []*types.Envelope) error {
	if envelopes == nil {
		envelopes = []*types.Envelope{}
	}
	encoder := json.NewEncoder(w.w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(envelopes)
}

// Close closes the underlying writer if it owns it
func (w *JSONWriter) Close() error {
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}
