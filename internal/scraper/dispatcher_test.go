// internal/scraper/dispatcher_test.go
package scraper

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/pkg/types"
)

// delayedEngine answers after delay with a single record naming itself
func delayedEngine(name string, delay time.Duration) types.Engine {
	return types.EngineFunc(name, func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &types.Envelope{
			Sources:  []types.Record{{"engine": name}},
			Metadata: schema.Metadata,
		}, nil
	})
}

func newTestDispatcher(opts ...Option) *Dispatcher {
	base := []Option{
		WithFetcher(&fakeFetcher{responses: map[string]*types.Response{
			"https://api.example.com":  jsonResponse(`{"items":[{"name":"a"},{"name":"b"}]}`),
			"https://site.example.com": htmlResponse(`<ul><li>One</li><li>Two</li></ul>`),
		}}),
		WithLauncher(&fakeLauncher{html: `<main><p>rendered</p></main>`}),
	}
	return NewDispatcher(append(base, opts...)...)
}

func TestDispatcher_Engines(t *testing.T) {
	d := newTestDispatcher(WithEngines(delayedEngine("rss", 0)))
	if diff := cmp.Diff([]string{"json", "markup", "spa", "rss"}, d.Engines()); diff != "" {
		t.Errorf("engines mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_MixedBatch(t *testing.T) {
	schemas := []*types.Schema{
		{
			Engine:    types.EngineJSON,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://api.example.com"}, Limit: 1},
			Selectors: types.Selectors{"root": {Value: "items"}, "name": {Value: "name"}},
			Metadata:  "api",
		},
		{
			Engine:    types.EngineMarkup,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://site.example.com"}},
			Selectors: types.Selectors{"root": {Value: "li"}, "text": {Value: ""}},
			Metadata:  "site",
		},
		{
			Engine:    types.EngineSPA,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://app.example.com"}},
			Selectors: types.Selectors{"root": {Value: "main p"}, "text": {}},
			Metadata:  "app",
		},
		{
			Engine:    types.EngineMarkup,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://down.example.com"}},
			Selectors: types.Selectors{"root": {Value: "li"}},
			Metadata:  "down",
		},
	}

	results, err := newTestDispatcher().Dispatch(context.Background(), schemas)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	want := []*types.Envelope{
		{Sources: []types.Record{{"name": "a"}}, Metadata: "api"},
		{Sources: []types.Record{{"text": "One"}, {"text": "Two"}}, Metadata: "site"},
		{Sources: []types.Record{{"text": "rendered"}}, Metadata: "app"},
		{Sources: []types.Record{}, Metadata: "down", Error: "request failed with status code 404"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_PreservesSchemaOrder(t *testing.T) {
	d := newTestDispatcher()
	custom := []types.Engine{
		delayedEngine("slow", 60*time.Millisecond),
		delayedEngine("fast", 0),
	}
	schemas := []*types.Schema{
		{Engine: "slow", Metadata: 1},
		{Engine: "fast", Metadata: 2},
		{Engine: "slow", Metadata: 3},
		{Engine: "fast", Metadata: 4},
	}

	start := time.Now()
	results, err := d.Dispatch(context.Background(), schemas, custom...)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("engines should run concurrently, took %s", elapsed)
	}

	var got []interface{}
	for _, envelope := range results {
		got = append(got, envelope.Metadata)
	}
	if diff := cmp.Diff([]interface{}{1, 2, 3, 4}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_UnknownEngineDropped(t *testing.T) {
	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{})
	d := newTestDispatcher(WithMetrics(metrics))

	results, err := d.Dispatch(context.Background(), []*types.Schema{
		{Engine: "nope", Metadata: "dropped"},
		nil,
		{Engine: "fast", Metadata: "kept"},
	}, delayedEngine("fast", 0))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(results) != 1 || results[0].Metadata != "kept" {
		t.Fatalf("expected only the known schema, got %+v", results)
	}

	expected := `
		# HELP tatooine_engine_schemas_dropped_total Total number of schemas naming an unregistered engine
		# TYPE tatooine_engine_schemas_dropped_total counter
		tatooine_engine_schemas_dropped_total{engine="nope"} 1
	`
	if err := testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "tatooine_engine_schemas_dropped_total"); err != nil {
		t.Errorf("unexpected dropped metric: %v", err)
	}
}

func TestDispatcher_StrictEngines(t *testing.T) {
	d := newTestDispatcher(WithStrictEngines())

	_, err := d.Dispatch(context.Background(), []*types.Schema{{Engine: "nope"}})
	if !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	shadow := types.EngineFunc(types.EngineJSON, func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		return &types.Envelope{Sources: []types.Record{{"shadow": "yes"}}}, nil
	})
	first := types.EngineFunc("rss", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		return &types.Envelope{Sources: []types.Record{{"which": "first"}}}, nil
	})
	second := types.EngineFunc("rss", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		return &types.Envelope{Sources: []types.Record{{"which": "second"}}}, nil
	})

	d := newTestDispatcher(WithEngines(first))
	results, err := d.Dispatch(context.Background(), []*types.Schema{
		{
			Engine:    types.EngineJSON,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://api.example.com"}},
			Selectors: types.Selectors{"root": {Value: "items"}, "name": {Value: "name"}},
		},
		{Engine: "rss"},
	}, shadow, second)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if diff := cmp.Diff([]types.Record{{"name": "a"}, {"name": "b"}}, results[0].Sources); diff != "" {
		t.Errorf("built-in engine must win (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]types.Record{{"which": "first"}}, results[1].Sources); diff != "" {
		t.Errorf("first registered engine must win (-want +got):\n%s", diff)
	}
}

func TestDispatcher_EngineErrorAbortsBatch(t *testing.T) {
	metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{})
	d := newTestDispatcher(WithMetrics(metrics))

	tests := []struct {
		name      string
		engine    types.Engine
		wantError string
	}{
		{
			name: "error",
			engine: types.EngineFunc("broken", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
				return nil, errors.New("feed offline")
			}),
			wantError: `engine "broken": feed offline`,
		},
		{
			name: "panic",
			engine: types.EngineFunc("broken", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
				panic("nil map")
			}),
			wantError: `engine "broken": engine panic: nil map`,
		},
		{
			name: "nil envelope",
			engine: types.EngineFunc("broken", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
				return nil, nil
			}),
			wantError: `engine "broken": engine returned no envelope`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := d.Dispatch(context.Background(), []*types.Schema{
				{Engine: "slow"},
				{Engine: "broken"},
			}, delayedEngine("slow", time.Second), tt.engine)
			if err == nil {
				t.Fatal("expected the batch to fail")
			}
			if err.Error() != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, err.Error())
			}
			if results != nil {
				t.Errorf("failed batch must return no results, got %v", results)
			}
		})
	}

	expected := `
		# HELP tatooine_engine_dispatches_total Total number of dispatched batches by outcome
		# TYPE tatooine_engine_dispatches_total counter
		tatooine_engine_dispatches_total{status="failed"} 3
	`
	if err := testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "tatooine_engine_dispatches_total"); err != nil {
		t.Errorf("unexpected dispatch metric: %v", err)
	}
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	results, err := newTestDispatcher().Dispatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected an empty result list, got %v", results)
	}
}

func TestDispatcher_FailureDoesNotWaitForSiblings(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stubborn := types.EngineFunc("stubborn", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		// ignores ctx on purpose
		<-release
		return &types.Envelope{Sources: []types.Record{}}, nil
	})
	broken := types.EngineFunc("broken", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		return nil, errors.New("boom")
	})

	start := time.Now()
	_, err := newTestDispatcher().Dispatch(context.Background(), []*types.Schema{
		{Engine: "stubborn"},
		{Engine: "broken"},
	}, stubborn, broken)
	if err == nil || err.Error() != `engine "broken": boom` {
		t.Fatalf("expected the broken engine error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("failed batch should return without waiting for other runs, took %s", elapsed)
	}
}

func TestDispatcher_FailureLeavesSiblingsRunning(t *testing.T) {
	release := make(chan struct{})
	outcome := make(chan string, 1)

	sibling := types.EngineFunc("sibling", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		select {
		case <-release:
			outcome <- "finished"
		case <-ctx.Done():
			outcome <- "canceled"
		}
		return &types.Envelope{Sources: []types.Record{}}, nil
	})
	broken := types.EngineFunc("broken", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		return nil, errors.New("boom")
	})

	_, err := newTestDispatcher().Dispatch(context.Background(), []*types.Schema{
		{Engine: "sibling"},
		{Engine: "broken"},
	}, sibling, broken)
	if err == nil {
		t.Fatal("expected the batch to fail")
	}

	close(release)
	select {
	case got := <-outcome:
		if got != "finished" {
			t.Errorf("sibling run should not be canceled by another engine's failure, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("sibling run never finished")
	}
}

func TestDispatcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	engine := types.EngineFunc("rss", func(ctx context.Context, schema *types.Schema) (*types.Envelope, error) {
		ran = true
		return &types.Envelope{Sources: []types.Record{}}, nil
	})

	_, err := newTestDispatcher().Dispatch(ctx, []*types.Schema{{Engine: "rss"}}, engine)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Error("no engine should start once the context is canceled")
	}
}

func TestDispatcher_MetadataIsPassedThrough(t *testing.T) {
	ok := map[string]interface{}{"feed": "api"}
	failed := &sourceInfo{Feed: "down"}

	results, err := newTestDispatcher().Dispatch(context.Background(), []*types.Schema{
		{
			Engine:    types.EngineJSON,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://api.example.com"}},
			Selectors: types.Selectors{"root": {Value: "items"}, "name": {Value: "name"}},
			Metadata:  ok,
		},
		{
			Engine:    types.EngineMarkup,
			Options:   types.Options{Request: types.RequestOptions{URL: "https://down.example.com"}},
			Selectors: types.Selectors{"root": {Value: "li"}},
			Metadata:  failed,
		},
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if reflect.ValueOf(results[0].Metadata).Pointer() != reflect.ValueOf(ok).Pointer() {
		t.Error("successful envelope must carry the schema's metadata map")
	}
	if results[1].Metadata != failed {
		t.Error("failed envelope must carry the schema's metadata pointer")
	}
}
