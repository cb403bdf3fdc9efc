package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/domain"
)

// StatsService defines the behavior needed by StatsHandler.
type StatsService interface {
	PartyStats(ctx context.Context, partyID, company string) (domain.Stats, error)
	ListStats(ctx context.Context, filter domain.PartyFilter) (domain.ListStats, error)
}

// StatsHandler serves party and list-view figures.
type StatsHandler struct {
	statsUC StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsUC StatsService) *StatsHandler {
	return &StatsHandler{statsUC: statsUC}
}

// Party returns the recomputed figures of one party. Without a company the
// party's cached balance company is used.
func (h *StatsHandler) Party(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	company := r.URL.Query().Get("company")

	if err := middleware.AuthorizeCompany(r.Context(), company); err != nil {
		writeDomainError(w, r, "stats not available", err)
		return
	}

	stats, err := h.statsUC.PartyStats(r.Context(), id, company)
	if err != nil {
		writeDomainError(w, r, "failed to compute stats", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatsFromDomain(id, company, stats))
}

// List returns aggregate figures over the parties matching type and status.
func (h *StatsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePartyFilter(r)
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}

	stats, err := h.statsUC.ListStats(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to compute stats", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListStatsFromDomain(stats))
}
