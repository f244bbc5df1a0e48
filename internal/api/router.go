package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wristlog/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// capturePath, if non-empty, exposes the traffic capture log under /capture.
func NewRouter(svc *recordservice.Service, authEnabled bool, token string, sseHandler http.Handler, capturePath string) chi.Router {
	h := NewHandler(svc)
	ch := NewCaptureHandler(capturePath)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Watch state and commands.
	r.Get("/device", h.Device)
	r.Post("/alerts", h.SendAlert)
	r.Post("/sync", h.Sync)

	// Daily records.
	r.Get("/heart-rate", h.HeartRateDates)
	r.Get("/heart-rate/summary", h.HeartRateSummary)
	r.Get("/heart-rate/{date}", h.HeartRateDay)
	r.Get("/steps", h.StepsDates)
	r.Get("/steps/summary", h.StepsSummary)
	r.Get("/steps/{date}", h.StepsDay)

	// Capture log.
	r.Get("/capture", ch.Download)
	r.Get("/capture/frames", ch.Frames)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
