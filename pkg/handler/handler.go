// Package handler exposes the reconciliation pipeline as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/eligibility"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/service"
)

// maxBodyBytes bounds request bodies; roster dumps are a few kilobytes.
const maxBodyBytes = 1 << 20

// Handler serves the roster API.
type Handler struct {
	pipelineManager *pipeline.Manager
	health          service.HealthChecker
}

// NewHandler creates a new API handler. health may be nil.
func NewHandler(pipelineManager *pipeline.Manager, health service.HealthChecker) *Handler {
	return &Handler{
		pipelineManager: pipelineManager,
		health:          health,
	}
}

// Router returns the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)

	// Reconciliation and the pending session
	r.Post("/reconcile", h.reconcile)
	r.Get("/session", h.pendingSession)
	r.Delete("/session", h.discardSession)
	r.Post("/session/confirm/{name}", h.confirm)
	r.Post("/session/decline/{name}", h.decline)
	r.Delete("/session/{name}", h.removeFromSession)
	r.Post("/commit", h.commit)

	// Members
	r.Route("/members", func(r chi.Router) {
		r.Get("/", h.listMembers)
		r.Post("/import", h.importMembers)
		r.Put("/{name}/rename", h.renameMember)
		r.Delete("/{name}", h.deleteMember)
		r.Post("/{name}/promote", h.promote)
		r.Post("/{name}/demote", h.demote)
		r.Get("/{name}/eligibility", h.memberEligibility)
	})
	r.Get("/eligibility", h.eligibilityReport)
	r.Get("/sessions", h.listSessions)

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Check(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, roster.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, roster.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrMemberExists):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoPendingSession),
		errors.Is(err, eligibility.ErrNoHigherRank),
		errors.Is(err, eligibility.ErrNoLowerRank),
		errors.Is(err, eligibility.ErrUnknownRank):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
