// internal/scraper/errors.go
package scraper

import "errors"

var (
	// ErrNotAList is reported when the json engine root does not resolve to a list
	ErrNotAList = errors.New("root does not resolve to a list")

	// ErrMissingRoot is reported when a markup or spa schema has no root selector
	ErrMissingRoot = errors.New("schema has no root selector")

	// ErrMissingURL is reported when a request carries no URL
	ErrMissingURL = errors.New("request url is required")

	// ErrUnknownEngine fails a strict dispatch naming an unregistered engine
	ErrUnknownEngine = errors.New("no engine registered")

	// ErrNilSchema is returned by engines asked to run a nil schema
	ErrNilSchema = errors.New("schema is nil")
)
