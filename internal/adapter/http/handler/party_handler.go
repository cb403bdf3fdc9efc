package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// PartyService defines the behavior needed by PartyHandler.
type PartyService interface {
	CreateParty(ctx context.Context, input usecase.CreatePartyInput) (*domain.Party, error)
	GetParty(ctx context.Context, id string) (*domain.Party, error)
	ListParties(ctx context.Context, filter domain.PartyFilter) ([]*domain.Party, error)
	Companies(ctx context.Context, id string) ([]string, error)
}

// PartyHandler handles party-related HTTP requests.
type PartyHandler struct {
	partyUC PartyService
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(partyUC PartyService) *PartyHandler {
	return &PartyHandler{partyUC: partyUC}
}

// Create creates a new party.
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePartyRequest
	if err := decodeBody(r, &req, "opening_balance"); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	party, err := h.partyUC.CreateParty(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create party", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PartyFromDomain(party))
}

// Get retrieves a party with its transaction history.
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	party, err := h.partyUC.GetParty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get party", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PartyWithHistoryFromDomain(party))
}

// List lists parties filtered by type and status.
func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePartyFilter(r)
	if err != nil {
		writeDomainError(w, r, "invalid filter", err)
		return
	}
	filter.Limit = parseIntQuery(r, "limit", 50)
	filter.Offset = parseIntQuery(r, "offset", 0)

	parties, err := h.partyUC.ListParties(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list parties", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPartiesResponse{
		Parties: dto.PartiesFromDomain(parties),
		Total:   int64(len(parties)),
	})
}

// Companies lists the companies a party has transactions with.
func (h *PartyHandler) Companies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	companies, err := h.partyUC.Companies(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to list companies", err)
		return
	}
	if companies == nil {
		companies = []string{}
	}

	writeJSON(w, http.StatusOK, dto.CompaniesResponse{PartyID: id, Companies: companies})
}
