// pkg/api/api_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"a","price":"1.00"},{"name":"b"}]}`))
	})
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<ul><li>One</li><li>Two</li></ul>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientDispatch(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(WithMetrics())

	schemas := []*Schema{
		{
			Engine:    EngineJSON,
			Options:   Options{Request: RequestOptions{URL: server.URL + "/api/items"}, Limit: 1},
			Selectors: Selectors{"root": {Value: "items"}, "name": {Value: "name"}, "price": {Value: "price", Prefix: "$"}},
			Metadata:  "api",
		},
		{
			Engine:    EngineMarkup,
			Options:   Options{Request: RequestOptions{URL: server.URL + "/list"}},
			Selectors: Selectors{"root": {Value: "li"}, "text": {Value: ""}},
			Metadata:  "list",
		},
		{
			Engine:    EngineMarkup,
			Options:   Options{Request: RequestOptions{URL: server.URL + "/missing"}},
			Selectors: Selectors{"root": {Value: "li"}},
			Metadata:  "missing",
		},
		{Engine: "unregistered"},
	}

	results, err := client.Dispatch(context.Background(), schemas)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	want := []*Envelope{
		{Sources: []Record{{"name": "a", "price": "$1.00"}}, Metadata: "api"},
		{Sources: []Record{{"text": "One"}, {"text": "Two"}}, Metadata: "list"},
		{Sources: []Record{}, Metadata: "missing", Error: "request failed with status code 404"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	if client.MetricsHandler() == nil {
		t.Error("expected a metrics handler")
	}
}

func TestClientCustomEngines(t *testing.T) {
	static := EngineFunc("static", func(ctx context.Context, schema *Schema) (*Envelope, error) {
		return &Envelope{Sources: []Record{{"value": "fixed"}}, Metadata: schema.Metadata}, nil
	})

	client := NewClient(WithEngines(static), WithStrictEngines())
	if diff := cmp.Diff([]string{"json", "markup", "spa", "static"}, client.Engines()); diff != "" {
		t.Errorf("engines mismatch (-want +got):\n%s", diff)
	}

	results, err := client.Dispatch(context.Background(), []*Schema{{Engine: "static", Metadata: 7}})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if results[0].Sources[0]["value"] != "fixed" || results[0].Metadata != 7 {
		t.Errorf("unexpected result %+v", results[0])
	}

	if _, err := client.Dispatch(context.Background(), []*Schema{{Engine: "nope"}}); err == nil {
		t.Error("strict client should reject unknown engines")
	}
	if client.MetricsHandler() != nil {
		t.Error("metrics are disabled by default")
	}
}

func TestParseAndLoadSchemas(t *testing.T) {
	data := `
schemas:
  - engine: markup
    options:
      request:
        url: https://example.com
    selectors:
      root:
        value: li
  - engine: rss
    metadata: feed
`
	if _, err := ParseSchemas([]byte(data)); err == nil || !strings.Contains(err.Error(), "unknown engine") {
		t.Errorf("expected unknown engine error, got %v", err)
	}

	schemas, err := ParseSchemas([]byte(data), "rss")
	if err != nil {
		t.Fatalf("ParseSchemas failed: %v", err)
	}
	if len(schemas) != 2 || schemas[1].Metadata != "feed" {
		t.Errorf("unexpected schemas %+v", schemas)
	}

	path := filepath.Join(t.TempDir(), "schemas.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}
	if _, err := LoadSchemas(path, "rss"); err != nil {
		t.Errorf("LoadSchemas failed: %v", err)
	}
	if _, err := LoadSchemas(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
