package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neuronet-health/counselor-admin-service/internal/adapters/middleware"
	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountAdmin
}

func NewAccountHandler(accounts ports.AccountAdmin) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	views, err := h.accounts.List(r.Context(), query.Get("search"), query.Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	if views == nil {
		views = []ports.AccountView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Create(r.Context(), middleware.Actor(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var input ports.EditAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	input.ID = r.PathValue("id")

	account, err := h.accounts.Edit(r.Context(), middleware.Actor(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.accounts.Delete(ctx, middleware.Actor(ctx), middleware.ActorAccountID(ctx), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, workflowResponse{Message: "Account deleted successfully."})
	case errors.Is(err, domain.ErrAuditNotRecorded):
		writeJSON(w, http.StatusOK, workflowResponse{Message: "Account deleted successfully.", Warning: err.Error()})
	default:
		writeError(w, err)
	}
}
