package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/api/recovery"
	"github.com/mindmirror/mindmirror/internal/services"
)

// Deps carries what the HTTP surface needs.
type Deps struct {
	Journal        *services.JournalService
	Health         HealthReporter
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter registers every route on a fresh mux router.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)
	root.Use(CountRequests)

	health := NewHealthHandler(d.Health,
		func() string { return string(d.Journal.StorageMode()) },
		d.Journal.AnalysisLive,
	)
	root.HandleFunc("/", health.CheckHealth).Methods("GET")
	root.HandleFunc("/v0/health", health.CheckHealth).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	journal := NewJournalHandler(d.Journal, d.Log)
	root.HandleFunc("/api/analyze", journal.Analyze).Methods("POST")
	root.HandleFunc("/api/history/{userId}", journal.History).Methods("GET")
	root.HandleFunc("/api/trends/{userId}", journal.Trends).Methods("GET")
	root.HandleFunc("/api/stats/{userId}", journal.Stats).Methods("GET")
	root.HandleFunc("/api/similar/{userId}", journal.Similar).Methods("GET")
	root.HandleFunc("/api/reflection", journal.Reflection).Methods("POST")
	root.HandleFunc("/api/users/{userId}/entries", journal.DeleteEntries).Methods("DELETE")
	return root
}

// NewHandler wraps the router with CORS, which must see requests before route matching.
func NewHandler(d Deps) http.Handler {
	return CORS(d.AllowedOrigins)(NewRouter(d))
}
