// pkg/api/types.go
package api

import (
	"github.com/valpere/tatooine/pkg/types"
)

// Re-export the schema model for callers of the public API
type (
	Schema          = types.Schema
	Options         = types.Options
	RequestOptions  = types.RequestOptions
	LaunchOptions   = types.LaunchOptions
	DOMOptions      = types.DOMOptions
	Selectors       = types.Selectors
	FieldRule       = types.FieldRule
	Record          = types.Record
	Envelope        = types.Envelope
	ResultTransform = types.ResultTransform
	Hooks           = types.Hooks

	Engine   = types.Engine
	RunFunc  = types.RunFunc
	Fetcher  = types.Fetcher
	Response = types.Response
	Launcher = types.Launcher
	Browser  = types.Browser
	Page     = types.Page
)

// Built-in engine names
const (
	EngineJSON   = types.EngineJSON
	EngineMarkup = types.EngineMarkup
	EngineSPA    = types.EngineSPA
)

// EngineFunc adapts a function into a named custom engine
func EngineFunc(name string, run RunFunc) Engine {
	return types.EngineFunc(name, run)
}

// Bool returns a pointer to b, for optional flags such as FieldRule.Inline
func Bool(b bool) *bool {
	return types.Bool(b)
}
