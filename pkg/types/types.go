// pkg/types/types.go
package types

import (
	"fmt"
	"strings"
	"time"
)

// Built-in engine names
const (
	EngineJSON   = "json"
	EngineMarkup = "markup"
	EngineSPA    = "spa"
)

// RootKey is the reserved selector key locating the list of items
const RootKey = "root"

// BuiltinEngines returns the names of the engines every dispatcher carries
func BuiltinEngines() []string {
	return []string{EngineJSON, EngineMarkup, EngineSPA}
}

// IsBuiltinEngine checks if name refers to a built-in engine
func IsBuiltinEngine(name string) bool {
	for _, builtin := range BuiltinEngines() {
		if name == builtin {
			return true
		}
	}
	return false
}

// Schema describes one extraction job: which engine runs it, how content is
// fetched and which fields are extracted from it.
type Schema struct {
	Engine    string      `yaml:"engine" json:"engine"`
	Options   Options     `yaml:"options" json:"options"`
	Selectors Selectors   `yaml:"selectors" json:"selectors"`
	Metadata  interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// Fork reshapes the final envelope, successful or not.
	Fork ResultTransform `yaml:"-" json:"-"`
}

// ResultTransform post-processes an engine envelope before it is returned
type ResultTransform func(*Envelope) *Envelope

// Options carries fetch, render and parse parameters of a schema
type Options struct {
	Request RequestOptions `yaml:"request" json:"request"`
	// Limit caps the number of sources; zero or less keeps all of them.
	Limit int        `yaml:"limit,omitempty" json:"limit,omitempty"`
	DOM   DOMOptions `yaml:"dom,omitempty" json:"dom,omitempty"`
}

// RequestOptions describes the remote request. Launch and Events are only
// consulted by the spa engine.
type RequestOptions struct {
	URL     string            `yaml:"url" json:"url"`
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Body    interface{}       `yaml:"body,omitempty" json:"body,omitempty"`
	Timeout string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	Launch LaunchOptions `yaml:"launch,omitempty" json:"launch,omitempty"`
	Events *Hooks        `yaml:"-" json:"-"`
}

// TimeoutDuration parses Timeout; an empty value means no timeout
func (r RequestOptions) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(r.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", r.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", r.Timeout)
	}
	return d, nil
}

// LaunchOptions configures the browser session of the spa engine
type LaunchOptions struct {
	Headless     *bool                  `yaml:"headless,omitempty" json:"headless,omitempty"`
	ExecPath     string                 `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	UserAgent    string                 `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	UserDataDir  string                 `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	WindowWidth  int                    `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int                    `yaml:"window_height,omitempty" json:"window_height,omitempty"`
	NoSandbox    bool                   `yaml:"no_sandbox,omitempty" json:"no_sandbox,omitempty"`
	Flags        map[string]interface{} `yaml:"flags,omitempty" json:"flags,omitempty"`
}

// IsHeadless reports whether the browser runs headless (the default)
func (l LaunchOptions) IsHeadless() bool {
	return l.Headless == nil || *l.Headless
}

// DOMOptions tunes how fetched markup becomes a document
type DOMOptions struct {
	// Charset overrides the character set announced by the server.
	Charset string `yaml:"charset,omitempty" json:"charset,omitempty"`
}

// Selectors maps output field names to extraction rules. The RootKey entry
// locates the item list and never appears in records.
type Selectors map[string]FieldRule

// Root returns the root rule if one is declared
func (s Selectors) Root() (FieldRule, bool) {
	rule, ok := s[RootKey]
	return rule, ok
}

// Fields returns the selectors without the root entry
func (s Selectors) Fields() Selectors {
	fields := make(Selectors, len(s))
	for name, rule := range s {
		if name == RootKey {
			continue
		}
		fields[name] = rule
	}
	return fields
}

// FieldRule locates and formats one output field. Value is a CSS selector
// for markup engines and a dotted path for the json engine.
type FieldRule struct {
	Value     string `yaml:"value" json:"value"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Suffix    string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
	Inline    *bool  `yaml:"inline,omitempty" json:"inline,omitempty"`
}

// IsInline reports whether whitespace is collapsed, true unless disabled
func (r FieldRule) IsInline() bool {
	return r.Inline == nil || *r.Inline
}

// Format wraps value with the rule prefix and suffix
func (r FieldRule) Format(value string) string {
	return r.Prefix + value + r.Suffix
}

// Record is one extracted source. Fields that extracted to nothing are absent.
type Record map[string]string

// Envelope is the result of running one schema
type Envelope struct {
	Sources  []Record    `yaml:"sources" json:"sources"`
	Metadata interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Error    string      `yaml:"error,omitempty" json:"error,omitempty"`
}

// Failed reports whether the engine run failed
func (e *Envelope) Failed() bool {
	return e != nil && e.Error != ""
}

// Bool returns a pointer to b, handy for optional flags
func Bool(b bool) *bool {
	return &b
}
