// cmd/server/handlers.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/valpere/tatooine/internal/config"
	"github.com/valpere/tatooine/internal/monitoring"
	"github.com/valpere/tatooine/internal/output"
	"github.com/valpere/tatooine/internal/scraper"
	"github.com/valpere/tatooine/internal/security"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// maxBodySize bounds schema batches accepted over HTTP
const maxBodySize = 1 << 20

type server struct {
	dispatcher *scraper.Dispatcher
	metrics    *monitoring.MetricsManager
	policy     *security.URLPolicy
	logger     utils.Logger
	started    time.Time
}

// newServer wires the handlers. A nil policy lets schemas reach any URL.
func newServer(dispatcher *scraper.Dispatcher, metrics *monitoring.MetricsManager, policy *security.URLPolicy, logger utils.Logger) *server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &server{
		dispatcher: dispatcher,
		metrics:    metrics,
		policy:     policy,
		logger:     logger,
		started:    time.Now(),
	}
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.loggingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.MetricsHandler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dispatch", s.dispatchHandler).Methods(http.MethodPost)
	api.HandleFunc("/validate", s.validateHandler).Methods(http.MethodPost)
	api.HandleFunc("/templates/{kind}", s.templateHandler).Methods(http.MethodGet)

	return r
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version,
		"engines": s.dispatcher.Engines(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

// dispatchHandler runs a batch of schemas. The response format follows the
// format query parameter and defaults to JSON.
func (s *server) dispatchHandler(w http.ResponseWriter, r *http.Request) {
	format := output.OutputFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = output.FormatJSON
	}
	if !format.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported output format: %s", format))
		return
	}

	file, ok := s.decodeSchemas(w, r)
	if !ok {
		return
	}

	if result := file.ValidateWithDetails(); !result.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	if s.policy != nil {
		if violations := s.policy.CheckSchemas(file.Schemas); len(violations) > 0 {
			s.logger.Warnf("rejected batch with %d disallowed URLs", len(violations))
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error":      security.ErrSchemaRejected.Error(),
				"violations": violations,
			})
			return
		}
	}

	envelopes, err := s.dispatcher.Dispatch(r.Context(), file.Schemas)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scraper.ErrUnknownEngine) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.GetMimeType())
	writer, err := output.NewWriter(format, w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := writer.Write(envelopes); err != nil {
		s.logger.Errorf("failed to write dispatch response: %v", err)
	}
}

func (s *server) validateHandler(w http.ResponseWriter, r *http.Request) {
	file, ok := s.decodeSchemas(w, r)
	if !ok {
		return
	}

	result := file.ValidateWithDetails()
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *server) templateHandler(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if !types.IsBuiltinEngine(kind) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown template type %q, expected one of: %s",
			kind, strings.Join(config.TemplateKinds(), ", ")))
		return
	}
	writeJSON(w, http.StatusOK, config.GenerateTemplate(kind))
}

// decodeSchemas reads a JSON or YAML schema batch, writing the error
// response itself when the body is unusable
func (s *server) decodeSchemas(w http.ResponseWriter, r *http.Request) (*config.SchemaFile, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}

	file, err := config.DecodeSchemas(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return file, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorf("panic serving %s: %v", r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
