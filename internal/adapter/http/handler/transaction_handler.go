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

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	AddTransaction(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error)
	DeleteTransaction(ctx context.Context, partyID, transactionID string) (*usecase.TransactionResult, error)
}

// PartyReader loads a party with its history.
type PartyReader interface {
	GetParty(ctx context.Context, id string) (*domain.Party, error)
}

// TransactionHandler enters and deletes sales, purchases and returns.
type TransactionHandler struct {
	transactionUC TransactionService
	parties       PartyReader
}

// NewTransactionHandler creates a new TransactionHandler. parties is used to
// find the company of a transaction before an operator may delete it.
func NewTransactionHandler(transactionUC TransactionService, parties PartyReader) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC, parties: parties}
}

// Add enters a sale, purchase or return.
func (h *TransactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.AddTransactionRequest
	if err := decodeBody(r, &req, "amount", "payment_received", "paid_amount"); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "invalid transaction", err)
		return
	}

	if err := middleware.AuthorizeCompany(r.Context(), input.CompanyName); err != nil {
		writeDomainError(w, r, "transaction not permitted", err)
		return
	}

	result, err := h.transactionUC.AddTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to add transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MutationFromDomain(result.Party, result.Transaction))
}

// Delete removes a transaction and returns it with the party afterwards.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")
	txID := chi.URLParam(r, "txID")

	if err := h.authorizeDelete(r, partyID, txID); err != nil {
		writeDomainError(w, r, "failed to delete transaction", err)
		return
	}

	result, err := h.transactionUC.DeleteTransaction(r.Context(), partyID, txID)
	if err != nil {
		writeDomainError(w, r, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MutationFromDomain(result.Party, result.Transaction))
}

func (h *TransactionHandler) authorizeDelete(r *http.Request, partyID, txID string) error {
	if _, ok := middleware.GetOperatorFromContext(r.Context()); !ok {
		return nil
	}

	party, err := h.parties.GetParty(r.Context(), partyID)
	if err != nil {
		return err
	}

	for _, t := range party.Transactions {
		if t.ID == txID {
			return middleware.AuthorizeCompany(r.Context(), t.CompanyName)
		}
	}

	return domain.ErrTransactionNotFound
}
