package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccelByte/extend-roster-reconciliation/pkg/roster"
)

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.pipelineManager.Members(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) importMembers(w http.ResponseWriter, r *http.Request) {
	var records []roster.Member
	if err := decodeBody(w, r, &records); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.pipelineManager.Import(r.Context(), records)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) renameMember(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.pipelineManager.Rename(r.Context(), chi.URLParam(r, "name"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.pipelineManager.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) promote(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipelineManager.Promote(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) demote(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipelineManager.Demote(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) memberEligibility(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipelineManager.Eligibility(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) eligibilityReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipelineManager.EligibilityReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.pipelineManager.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []roster.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
