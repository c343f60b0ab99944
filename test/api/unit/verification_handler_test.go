package unit

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neuronet-health/counselor-admin-service/internal/adapters/handler"
	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/services"
	"github.com/neuronet-health/counselor-admin-service/test/mocks"
)

// newVerificationMux wires a VerificationHandler onto the same route
// patterns the server uses, minus authentication.
func newVerificationMux(workflow *services.VerificationService) *http.ServeMux {
	h := handler.NewVerificationHandler(workflow)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /verifications/apply", h.Apply)
	mux.HandleFunc("GET /verifications", h.List)
	mux.HandleFunc("POST /verifications", h.Create)
	mux.HandleFunc("GET /verifications/{id}", h.Get)
	mux.HandleFunc("PUT /verifications/{id}", h.Edit)
	mux.HandleFunc("DELETE /verifications/{id}", h.Delete)
	mux.HandleFunc("POST /verifications/{id}/approve", h.Approve)
	mux.HandleFunc("POST /verifications/{id}/reject", h.Reject)
	return mux
}

func TestVerificationHandler_Apply(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(*mocks.MockAccountDirectory)
		wantStatus int
	}{
		{
			name:       "valid_application_created",
			body:       `{"counselor_name":"Dana Velasquez","professional_affiliation":"Riverside","institutional_email":"dana@riverside.example","password":"first-session","confirm_password":"first-session"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed_json",
			body:       `{"counselor_name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation_failure",
			body:       `{"counselor_name":"Dana","professional_affiliation":"Riverside","institutional_email":"nope","password":"first-session","confirm_password":"first-session"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_email_conflicts",
			body: `{"counselor_name":"Dana Velasquez","professional_affiliation":"Riverside","institutional_email":"dana@riverside.example","password":"first-session","confirm_password":"first-session"}`,
			setupMocks: func(d *mocks.MockAccountDirectory) {
				d.SeedAccount(domain.Account{ID: "acc-1", Email: "dana@riverside.example", FullName: "Dana"})
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockVerificationRegistry()
			directory := mocks.NewMockAccountDirectory()
			audit := mocks.NewMockAuditSink()
			if tt.setupMocks != nil {
				tt.setupMocks(directory)
			}
			mux := newVerificationMux(services.NewVerificationService(registry, directory, audit, nil))

			req := httptest.NewRequest(http.MethodPost, "/verifications/apply", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestVerificationHandler_Approve(t *testing.T) {
	registry := mocks.NewMockVerificationRegistry()
	directory := mocks.NewMockAccountDirectory()
	audit := mocks.NewMockAuditSink()
	directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
	mux := newVerificationMux(services.NewVerificationService(registry, directory, audit, nil))

	req := httptest.NewRequest(http.MethodPost, "/verifications/rec-1/approve", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := registry.Record("rec-1").Status; got != domain.StatusVerified {
		t.Errorf("expected Verified, got %s", got)
	}
}

func TestVerificationHandler_Approve_AuditFailureSurfacesAsWarning(t *testing.T) {
	registry := mocks.NewMockVerificationRegistry()
	directory := mocks.NewMockAccountDirectory()
	audit := mocks.NewMockAuditSink()
	directory.SeedAccount(mocks.InactiveCounselor("acc-1"))
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
	audit.AppendError = errors.New("audit store down")
	mux := newVerificationMux(services.NewVerificationService(registry, directory, audit, nil))

	req := httptest.NewRequest(http.MethodPost, "/verifications/rec-1/approve", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// the transition committed, so the request still succeeds
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["warning"] == "" {
		t.Error("expected a warning about the missing audit entry")
	}
}

func TestVerificationHandler_Get(t *testing.T) {
	registry := mocks.NewMockVerificationRegistry()
	registry.SeedRecord(mocks.PendingRecord("rec-1", "acc-1"))
	mux := newVerificationMux(services.NewVerificationService(registry, mocks.NewMockAccountDirectory(), mocks.NewMockAuditSink(), nil))

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/verifications/rec-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var record domain.VerificationRecord
		if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if record.ID != "rec-1" {
			t.Errorf("expected rec-1, got %q", record.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/verifications/ghost", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestVerificationHandler_List(t *testing.T) {
	registry := mocks.NewMockVerificationRegistry()
	pending := mocks.PendingRecord("rec-1", "acc-1")
	registry.SeedRecord(pending)
	verified := mocks.PendingRecord("rec-2", "acc-2")
	verified.Status = domain.StatusVerified
	registry.SeedRecord(verified)
	mux := newVerificationMux(services.NewVerificationService(registry, mocks.NewMockAccountDirectory(), mocks.NewMockAuditSink(), nil))

	t.Run("status_filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/verifications?status=PENDING", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var records []domain.VerificationRecord
		if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(records) != 1 || records[0].ID != "rec-1" {
			t.Errorf("expected only the pending record, got %d", len(records))
		}
	})

	t.Run("unknown_status_rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/verifications?status=ON_HOLD", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestVerificationHandler_Create_LinkageFailureStillReturnsRecord(t *testing.T) {
	registry := mocks.NewMockVerificationRegistry()
	directory := mocks.NewMockAccountDirectory()
	directory.FindByEmailError = errors.New("directory down")
	mux := newVerificationMux(services.NewVerificationService(registry, directory, mocks.NewMockAuditSink(), nil))

	body := `{"counselor_name":"Priya Raman","professional_affiliation":"Lakeside","institutional_email":"priya@lakeside.example"}`
	req := httptest.NewRequest(http.MethodPost, "/verifications", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Record  domain.VerificationRecord `json:"record"`
		Warning string                    `json:"warning"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Record.Status != domain.StatusVerified {
		t.Errorf("expected Verified record, got %s", resp.Record.Status)
	}
	if resp.Warning == "" {
		t.Error("expected a linkage warning")
	}
}

func TestVerificationHandler_Delete_MissingRecordIsOK(t *testing.T) {
	mux := newVerificationMux(services.NewVerificationService(
		mocks.NewMockVerificationRegistry(), mocks.NewMockAccountDirectory(), mocks.NewMockAuditSink(), nil))

	req := httptest.NewRequest(http.MethodDelete, "/verifications/ghost", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected tolerant 200, got %d", rec.Code)
	}
}
