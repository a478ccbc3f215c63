package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"leadcapture/internal/config"
	"leadcapture/internal/domain"
	"leadcapture/internal/metrics"
	"leadcapture/internal/services"
)

// LeadsPath is the local lead intake route
const LeadsPath = "/api/crm/leads"

// maxLeadBody caps the size of an intake request body.
const maxLeadBody = 1 << 20

// LeadCreator handles intake payloads
type LeadCreator interface {
	Create(ctx context.Context, p domain.IntakePayload) (*domain.IntakeResult, error)
}

// HealthChecker reports service health
type HealthChecker interface {
	Check(ctx context.Context) (*services.HealthResult, error)
}

// MissingFieldsBody is the 400 answer for an incomplete lead
type MissingFieldsBody struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

// ErrorBody is the 500 answer for an unexpected failure
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHandler mounts the intake, health and metrics routes and wraps them in
// the middleware chain: Prometheus -> Security -> CORS -> Logging -> Handler.
func NewHandler(cfg *config.Config, leads LeadCreator, health HealthChecker) http.Handler {
	mux := goahttp.NewMuxer()

	mux.Handle(http.MethodPost, LeadsPath, createLead(leads))
	mux.Handle(http.MethodOptions, LeadsPath, leadsPreflight)
	mux.Handle(http.MethodGet, "/health", checkHealth(health))

	var handler http.Handler = mux
	handler = middleware.PopulateRequestContext()(handler)
	handler = middleware.RequestID()(handler)

	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	})

	return metrics.PrometheusMiddleware(securityHeaders(cors(requestLogging(rootHandler), &cfg.CORS), cfg))
}

func createLead(svc LeadCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		r.Body = http.MaxBytesReader(w, r.Body, maxLeadBody)

		var payload domain.IntakePayload
		if err := goahttp.RequestDecoder(r).Decode(&payload); err != nil {
			log.Printf("[ERROR] decode lead payload: %v", err)
			writeInternalError(ctx, w)
			return
		}
		if payload == nil {
			payload = domain.IntakePayload{}
		}

		res, err := svc.Create(ctx, payload)
		if err != nil {
			if services.IsBadRequest(err) {
				body := MissingFieldsBody{Error: "Missing required fields", Missing: []string{}}
				var missing *services.MissingFieldsError
				if errors.As(err, &missing) {
					body.Missing = missing.Missing
				}
				writeJSON(ctx, w, http.StatusBadRequest, body)
				return
			}
			log.Printf("[ERROR] %v", err)
			writeInternalError(ctx, w)
			return
		}

		writeJSON(ctx, w, http.StatusCreated, res)
	}
}

// leadsPreflight answers CORS preflight for the intake route. The answer is
// the same for every request.
func leadsPreflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func checkHealth(svc HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Check(r.Context())
		if err != nil {
			log.Printf("[ERROR] health check: %v", err)
			writeInternalError(r.Context(), w)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, res)
	}
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, http.StatusInternalServerError, ErrorBody{
		Error:   "Internal server error",
		Message: "Failed to process lead submission",
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}
