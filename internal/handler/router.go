package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Pipelines      *PipelineHandler
	Voices         *VoicesHandler
	DB             Pinger
	AllowedOrigins []string
}

// NewRouter wires every route and wraps it in CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Health check — required by load balancers and Kubernetes liveness probes
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.DB != nil {
			if err := cfg.DB.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Paths match the serverless function names the workers and the dashboard already call.
	fn := r.PathPrefix("/functions/v1").Subrouter()
	fn.HandleFunc("/update-pipeline-status", cfg.Pipelines.UpdatePipelineStatus).Methods("POST")
	fn.HandleFunc("/elevenlabs-voices", cfg.Voices.ListVoices).Methods("GET", "POST")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/pipelines/{id}", cfg.Pipelines.GetPipeline).Methods("GET")
	api.HandleFunc("/estimate", Estimate).Methods("POST")

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{
			"Authorization", "X-Client-Info", "Apikey", "Content-Type",
			WebhookSecretHeader, IdempotencyKeyHeader, UserIDHeader,
		}),
	)

	return cors(r)
}
