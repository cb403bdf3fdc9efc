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

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Report(ctx context.Context, input usecase.ReportInput) (*usecase.LedgerReport, error)
}

// LedgerHandler renders party ledgers.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Report renders the ledger of one party and company.
// Query: company (required), from, to (YYYY-MM-DD, inclusive), order=newest.
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if err := middleware.AuthorizeCompany(r.Context(), company); err != nil {
		writeDomainError(w, r, "ledger not available", err)
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeDomainError(w, r, "invalid window", err)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeDomainError(w, r, "invalid window", err)
		return
	}

	report, err := h.ledgerUC.Report(r.Context(), usecase.ReportInput{
		PartyID:     chi.URLParam(r, "id"),
		Company:     company,
		Window:      domain.Window{From: from, To: to},
		NewestFirst: r.URL.Query().Get("order") == "newest",
	})
	if err != nil {
		writeDomainError(w, r, "failed to render ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromReport(report))
}
