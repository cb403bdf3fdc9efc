package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/adapter/http/dto"
	"github.com/iho/partyledger/internal/adapter/http/middleware"
	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

type paymentServiceStub struct {
	recordFn func(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error)
}

func (s *paymentServiceStub) RecordPayment(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error) {
	return s.recordFn(ctx, input)
}

type transactionServiceStub struct {
	addFn    func(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error)
	deleteFn func(ctx context.Context, partyID, transactionID string) (*usecase.TransactionResult, error)
}

func (s *transactionServiceStub) AddTransaction(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error) {
	return s.addFn(ctx, input)
}

func (s *transactionServiceStub) DeleteTransaction(ctx context.Context, partyID, transactionID string) (*usecase.TransactionResult, error) {
	return s.deleteFn(ctx, partyID, transactionID)
}

func asOperator(req *http.Request, companies ...string) *http.Request {
	op := &domain.Operator{ID: "op-1", Name: "Desk", Companies: companies}
	return req.WithContext(middleware.WithOperator(req.Context(), op))
}

func TestPaymentHandler_Record(t *testing.T) {
	today := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	var captured usecase.RecordPaymentInput
	h := NewPaymentHandler(&paymentServiceStub{
		recordFn: func(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error) {
			captured = input
			party := sampleParty()
			party.CurrentBalance = decimal.NewFromInt(800)
			return &usecase.PaymentResult{
				Party: party,
				Payment: &domain.Transaction{
					ID:          "pay-1",
					Date:        today,
					Type:        domain.TransactionTypePayment,
					CompanyName: input.Company,
					Amount:      input.Amount,
				},
			}, nil
		},
	})

	body := []byte(`{"amount":"100","company":"ACME","voucher_ref":"R-1"}`)
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/parties/p1/payments", bytes.NewReader(body)), map[string]string{"id": "p1"})
	rr := httptest.NewRecorder()

	h.Record(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.PartyID != "p1" || captured.Company != "ACME" || captured.VoucherRef != "R-1" {
		t.Fatalf("unexpected usecase input %+v", captured)
	}

	var resp dto.MutationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Transaction.ID != "pay-1" || resp.Transaction.Date != "2024-02-01" {
		t.Fatalf("unexpected payment %+v", resp.Transaction)
	}
	if !resp.Party.CurrentBalance.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected balance 800, got %s", resp.Party.CurrentBalance)
	}
}

func TestPaymentHandler_Record_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		companies  []string
		err        error
		wantStatus int
	}{
		{"malformed body", `{`, nil, nil, http.StatusBadRequest},
		{"forbidden company", `{"amount":"1","company":"Globex"}`, []string{"ACME"}, nil, http.StatusForbidden},
		{"invalid amount", `{"amount":"0","company":"ACME"}`, nil, domain.NewValidationError("amount", "must be positive", domain.ErrInvalidAmount), http.StatusBadRequest},
		{"missing party", `{"amount":"1","company":"ACME"}`, nil, domain.ErrPartyNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewPaymentHandler(&paymentServiceStub{
				recordFn: func(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error) {
					called = true
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/parties/p1/payments", bytes.NewBufferString(tt.body))
			if tt.companies != nil {
				req = asOperator(req, tt.companies...)
			}
			rr := httptest.NewRecorder()
			h.Record(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusForbidden && called {
				t.Fatalf("forbidden payment must not reach the usecase")
			}
		})
	}
}

func TestTransactionHandler_Add(t *testing.T) {
	var captured usecase.AddTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		addFn: func(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error) {
			captured = input
			entry := domain.Transaction{ID: "t-9", Date: input.Date, Type: input.Type, CompanyName: input.CompanyName, Amount: input.Amount}
			return &usecase.TransactionResult{Party: sampleParty(), Transaction: &entry}, nil
		},
	}, nil)

	body := []byte(`{"date":"2024-03-01","type":"sale","company":"ACME","amount":"250","payment_received":"50"}`)
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/parties/p1/transactions", bytes.NewReader(body)), map[string]string{"id": "p1"})
	rr := httptest.NewRecorder()

	h.Add(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Type != domain.TransactionTypeSale || !captured.PaymentReceived.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected usecase input %+v", captured)
	}
	if captured.Date.Format(domain.DateLayout) != "2024-03-01" {
		t.Fatalf("unexpected date %v", captured.Date)
	}

	rr = httptest.NewRecorder()
	bad := withURLParams(httptest.NewRequest(http.MethodPost, "/parties/p1/transactions", bytes.NewBufferString(`{"date":"March 1","type":"sale"}`)), map[string]string{"id": "p1"})
	h.Add(rr, bad)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rr.Code)
	}
}

func TestTransactionHandler_Delete(t *testing.T) {
	deleted := ""
	service := &transactionServiceStub{
		deleteFn: func(ctx context.Context, partyID, transactionID string) (*usecase.TransactionResult, error) {
			deleted = transactionID
			party := sampleParty()
			removed := party.Transactions[0]
			party.Transactions = party.Transactions[1:]
			return &usecase.TransactionResult{Party: party, Transaction: &removed}, nil
		},
	}
	parties := &partyServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Party, error) {
			return sampleParty(), nil
		},
	}
	h := NewTransactionHandler(service, parties)

	tests := []struct {
		name       string
		txID       string
		companies  []string
		wantStatus int
	}{
		{"without auth", "s1", nil, http.StatusOK},
		{"operator of the company", "s1", []string{"ACME"}, http.StatusOK},
		{"operator of another company", "s2", []string{"ACME"}, http.StatusForbidden},
		{"unknown transaction", "zzz", []string{"ACME"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted = ""
			req := httptest.NewRequest(http.MethodDelete, "/parties/p1/transactions/"+tt.txID, nil)
			req = withURLParams(req, map[string]string{"id": "p1", "txID": tt.txID})
			if tt.companies != nil {
				req = asOperator(req, tt.companies...)
			}
			rr := httptest.NewRecorder()

			h.Delete(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK && deleted != tt.txID {
				t.Fatalf("expected %s to be deleted, got %q", tt.txID, deleted)
			}
			if tt.wantStatus != http.StatusOK && deleted != "" {
				t.Fatalf("expected nothing deleted, got %q", deleted)
			}
		})
	}
}

func TestHandlers_NonNumericMoneyFieldIsReported(t *testing.T) {
	unreachable := func() { t.Fatalf("undecodable request reached the usecase") }

	payments := NewPaymentHandler(&paymentServiceStub{
		recordFn: func(ctx context.Context, input usecase.RecordPaymentInput) (*usecase.PaymentResult, error) {
			unreachable()
			return nil, nil
		},
	})
	transactions := NewTransactionHandler(&transactionServiceStub{
		addFn: func(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error) {
			unreachable()
			return nil, nil
		},
	}, nil)
	parties := NewPartyHandler(&partyServiceStub{
		createFn: func(ctx context.Context, input usecase.CreatePartyInput) (*domain.Party, error) {
			unreachable()
			return nil, nil
		},
	})

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		body      string
		wantField string
	}{
		{"payment amount", payments.Record, `{"amount":"ten","company":"ACME"}`, "amount"},
		{"sale amount", transactions.Add, `{"date":"2024-03-01","type":"sale","company":"ACME","amount":"1,000"}`, "amount"},
		{"purchase paid amount", transactions.Add, `{"date":"2024-03-01","type":"purchase","company":"ACME","amount":"10","paid_amount":true}`, "paid_amount"},
		{"opening balance", parties.Create, `{"name":"Mill","type":"supplier","opening_balance":"abc"}`, "opening_balance"},
		{"not json", payments.Record, `{`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body)), map[string]string{"id": "p1"})
			rr := httptest.NewRecorder()

			tt.handler(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp dto.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error != "invalid request body" || resp.Field != tt.wantField {
				t.Fatalf("expected field %q, got %+v", tt.wantField, resp)
			}
		})
	}
}
