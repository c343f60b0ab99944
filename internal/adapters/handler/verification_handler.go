package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neuronet-health/counselor-admin-service/internal/adapters/middleware"
	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

type VerificationHandler struct {
	workflow ports.VerificationWorkflow
}

func NewVerificationHandler(workflow ports.VerificationWorkflow) *VerificationHandler {
	return &VerificationHandler{workflow: workflow}
}

type workflowResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

// Apply is the public self-service application endpoint.
func (h *VerificationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var input ports.ApplyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	record, err := h.workflow.Apply(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type adminCreateResponse struct {
	Record     domain.VerificationRecord `json:"record"`
	Credential string                    `json:"generated_credential,omitempty"`
	Warning    string                    `json:"warning,omitempty"`
}

// Create is the admin path: the record is persisted already Verified and
// the account is activated or created on the spot.
func (h *VerificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input ports.AdminCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	result, err := h.workflow.CreateByAdmin(r.Context(), middleware.Actor(r.Context()), input)
	if err != nil && result == nil {
		writeError(w, err)
		return
	}

	resp := adminCreateResponse{Record: result.Record, Credential: result.Credential}
	if err != nil {
		// the record is persisted; the caller must still see what went wrong
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *VerificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Approve, "Counselor approved and account activated.")
}

func (h *VerificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Reject, "Counselor application rejected.")
}

func (h *VerificationHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor, id string) error,
	message string,
) {
	id := r.PathValue("id")
	err := op(r.Context(), middleware.Actor(r.Context()), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, workflowResponse{Message: message})
	case errors.Is(err, domain.ErrAuditNotRecorded):
		// the transition committed; only the audit entry is missing
		writeJSON(w, http.StatusOK, workflowResponse{Message: message, Warning: err.Error()})
	default:
		writeError(w, err)
	}
}

func (h *VerificationHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var record domain.VerificationRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	record.ID = r.PathValue("id")

	if err := h.workflow.Edit(r.Context(), middleware.Actor(r.Context()), record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse{Message: "Verification record updated successfully."})
}

func (h *VerificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.workflow.Delete(r.Context(), middleware.Actor(r.Context()), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, workflowResponse{Message: "Record deleted successfully."})
	case errors.Is(err, domain.ErrAuditNotRecorded):
		writeJSON(w, http.StatusOK, workflowResponse{Message: "Record deleted successfully.", Warning: err.Error()})
	default:
		writeError(w, err)
	}
}

func (h *VerificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.workflow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter *domain.VerificationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.VerificationStatus(raw)
		if !status.Valid() {
			writeError(w, &domain.ValidationError{Field: "status", Reason: "unknown status " + raw})
			return
		}
		filter = &status
	}

	records, err := h.workflow.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.VerificationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
