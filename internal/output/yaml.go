// internal/output/yaml.go
package output

import (
	"fmt"
	"io"

	"github.com/valpere/tatooine/pkg/types"
	"gopkg.in/yaml.v3"
)

// YAMLWriter writes envelopes as a YAML sequence
type YAMLWriter struct {
	w      io.Writer
	closer io.Closer
	indent int
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: w, closer: asCloser(w), indent: 2}
}

// Write writes envelopes as one YAML document
func (w *YAMLWriter) Write(envelopes []*types.Envelope) error {
	if envelopes == nil {
		envelopes = []*types.Envelope{}
	}
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(w.indent)
	if err := encoder.Encode(envelopes); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// Close closes the underlying writer if it owns it
func (w *YAMLWriter) Close() error {
	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}
