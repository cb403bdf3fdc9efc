package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileParty(ctx context.Context, partyID, company string) (*usecase.ReconciliationResult, error)
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler compares cached party figures with their history.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// Party reconciles a single party, optionally for ?company=.
func (h *ReconciliationHandler) Party(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if err := middleware.AuthorizeCompany(r.Context(), company); err != nil {
		writeDomainError(w, r, "reconciliation not permitted", err)
		return
	}

	result, err := h.reconciliationUC.ReconcileParty(r.Context(), chi.URLParam(r, "id"), company)
	if err != nil {
		writeDomainError(w, r, "failed to reconcile party", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}

// Report reconciles every party. It spans all companies, so restricted
// operators are refused.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	if err := middleware.AuthorizeCompany(r.Context(), ""); err != nil {
		writeDomainError(w, r, "reconciliation not permitted", domain.ErrCompanyForbidden)
		return
	}

	report, err := h.reconciliationUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to generate reconciliation report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromDomain(report))
}
