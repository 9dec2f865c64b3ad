package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/common"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

type reconcileRequest struct {
	Text string `json:"text"`
	// OK is the recognition tool's success flag; omitted means the text is usable.
	OK *bool `json:"ok,omitempty"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "Handler.Reconcile")
	defer scope.Finish()

	var req reconcileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ok := req.OK == nil || *req.OK

	rec, err := h.pipelineManager.Reconcile(scope.Ctx, req.Text, ok)
	if err != nil {
		scope.TraceError(err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) pendingSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.pipelineManager.Pending()
	if !ok {
		writeError(w, pipeline.ErrNoPendingSession)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) discardSession(w http.ResponseWriter, r *http.Request) {
	if !h.pipelineManager.Discard() {
		writeError(w, pipeline.ErrNoPendingSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	h.editSession(w, r, h.pipelineManager.MarkConfirmed)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.editSession(w, r, h.pipelineManager.MarkDeclined)
}

func (h *Handler) removeFromSession(w http.ResponseWriter, r *http.Request) {
	h.editSession(w, r, h.pipelineManager.RemoveFromSession)
}

func (h *Handler) editSession(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, name string) error) {
	if err := apply(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	h.pendingSession(w, r)
}

type commitRequest struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Map       string `json:"map"`
	Date      string `json:"date"`
	Remember  bool   `json:"remember"`
	SessionID string `json:"sessionId"`
}

func (r commitRequest) input() (pipeline.CommitInput, error) {
	in := pipeline.CommitInput{
		Title:     r.Title,
		Map:       r.Map,
		Remember:  r.Remember,
		SessionID: r.SessionID,
	}
	if t := strings.TrimSpace(r.Type); t != "" {
		typ, err := roster.ParseSessionType(t)
		if err != nil {
			return in, errors.Join(errBadRequest, err)
		}
		in.Type = typ
	}
	if d := strings.TrimSpace(r.Date); d != "" {
		date, err := roster.ParseDate(d)
		if err != nil {
			return in, errors.Join(errBadRequest, err)
		}
		in.Date = date
	}
	return in, nil
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	scope := common.NewScope(r.Context(), "Handler.Commit")
	defer scope.Finish()

	var req commitRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.pipelineManager.Commit(scope.Ctx, in)
	if err != nil {
		scope.TraceError(err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
