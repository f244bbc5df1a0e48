package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wristlog/internal/checksum"
	"github.com/starford/wristlog/internal/recordservice"
)

const maxBodyBytes = 1 << 16

// Handler holds API route handlers.
type Handler struct {
	svc *recordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Device handles GET /device.
//
//	@Summary		Current watch state
//	@Tags			device
//	@Produce		json
//	@Success		200	{object}	DeviceResponse
//	@Security		BearerAuth
//	@Router			/device [get]
func (h *Handler) Device(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Device(r.Context()))
}

// HeartRateDates handles GET /heart-rate.
//
//	@Summary		List dates with a heart-rate record
//	@Tags			heart-rate
//	@Produce		json
//	@Success		200	{object}	DatesResponse
//	@Security		BearerAuth
//	@Router			/heart-rate [get]
func (h *Handler) HeartRateDates(w http.ResponseWriter, r *http.Request) {
	h.dates(w, r, "hr")
}

// StepsDates handles GET /steps.
//
//	@Summary		List dates with a step record
//	@Tags			steps
//	@Produce		json
//	@Success		200	{object}	DatesResponse
//	@Security		BearerAuth
//	@Router			/steps [get]
func (h *Handler) StepsDates(w http.ResponseWriter, r *http.Request) {
	h.dates(w, r, "rs")
}

func (h *Handler) dates(w http.ResponseWriter, r *http.Request, metric string) {
	dates, err := h.svc.ListDates(r.Context(), metric)
	if err != nil {
		writeError(w, "list dates", err)
		return
	}
	writeJSON(w, http.StatusOK, DatesResponse{Dates: dates})
}

// HeartRateDay handles GET /heart-rate/{date}.
//
//	@Summary		Read one day of heart-rate samples
//	@Tags			heart-rate
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	HeartRateDay
//	@Success		304
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/heart-rate/{date} [get]
func (h *Handler) HeartRateDay(w http.ResponseWriter, r *http.Request) {
	date, err := recordservice.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "read heart rate", err)
		return
	}
	day, err := h.svc.HeartRate(r.Context(), date)
	if err != nil {
		writeError(w, "read heart rate", err)
		return
	}
	writeRecord(w, r, day.Checksum, day)
}

// StepsDay handles GET /steps/{date}.
//
//	@Summary		Read one day of step counts
//	@Tags			steps
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	StepsDay
//	@Success		304
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/steps/{date} [get]
func (h *Handler) StepsDay(w http.ResponseWriter, r *http.Request) {
	date, err := recordservice.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "read steps", err)
		return
	}
	day, err := h.svc.Steps(r.Context(), date)
	if err != nil {
		writeError(w, "read steps", err)
		return
	}
	writeRecord(w, r, day.Checksum, day)
}

// writeRecord answers with 304 when the client already holds the record with digest sum.
func writeRecord(w http.ResponseWriter, r *http.Request, sum string, v any) {
	if tag := checksum.ETag(sum); tag != "" {
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, v)
}

// HeartRateSummary handles GET /heart-rate/summary.
//
//	@Summary		Per-day heart-rate aggregates
//	@Tags			heart-rate
//	@Produce		json
//	@Param			from	query		string	false	"First date (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last date (YYYY-MM-DD)"
//	@Success		200		{object}	HeartRateSummaryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/heart-rate/summary [get]
func (h *Handler) HeartRateSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.svc.HeartRateSummaries(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, "heart rate summary", err)
		return
	}
	writeJSON(w, http.StatusOK, HeartRateSummaryResponse{Days: days})
}

// StepsSummary handles GET /steps/summary.
//
//	@Summary		Per-day step totals
//	@Tags			steps
//	@Produce		json
//	@Param			from	query		string	false	"First date (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Last date (YYYY-MM-DD)"
//	@Success		200		{object}	StepsSummaryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/steps/summary [get]
func (h *Handler) StepsSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.svc.StepsSummaries(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, "steps summary", err)
		return
	}
	writeJSON(w, http.StatusOK, StepsSummaryResponse{Days: days})
}

// SendAlert handles POST /alerts.
//
//	@Summary		Show an alert on the watch
//	@Tags			device
//	@Accept			json
//	@Param			body	body	AlertRequest	true	"Alert"
//	@Success		202
//	@Failure		400	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/alerts [post]
func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req AlertRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	if err := h.svc.SendAlert(r.Context(), req.Type, req.Text); err != nil {
		writeError(w, "send alert", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Sync handles POST /sync.
//
//	@Summary		Request the stored history from the watch
//	@Tags			device
//	@Success		202
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sync(r.Context()); err != nil {
		writeError(w, "sync", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
