// internal/output/manager.go
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valpere/tatooine/pkg/types"
)

// NewWriter returns the writer for format on top of w. Close closes w when
// it implements io.Closer.
func NewWriter(format OutputFormat, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Manager writes envelopes to the configured destination
type Manager struct {
	config Config
	stdout io.Writer
}

// NewManager creates a new output manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if !cfg.Format.IsValid() {
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}

	return &Manager{config: cfg, stdout: os.Stdout}, nil
}

// SetStdout redirects output written when no file is configured
func (m *Manager) SetStdout(w io.Writer) {
	m.stdout = w
}

// GetWriter returns the writer for the configured format and destination
func (m *Manager) GetWriter() (Writer, error) {
	if m.config.File == "" {
		return NewWriter(m.config.Format, nopCloser{m.stdout})
	}

	if dir := filepath.Dir(m.config.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(m.config.File)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	writer, err := NewWriter(m.config.Format, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

// Write writes envelopes using the configured format
func (m *Manager) Write(envelopes []*types.Envelope) (err error) {
	writer, err := m.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return writer.Write(envelopes)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func asCloser(w io.Writer) io.Closer {
	if c, ok := w.(io.Closer); ok {
		return c
	}
	return nil
}
