package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/usecase"
)

// PartyResponse represents a party in API responses. Transactions are only
// listed by the single-party endpoints.
type PartyResponse struct {
	ID                  string                `json:"id"`
	PartyNumber         int64                 `json:"party_number"`
	Name                string                `json:"name"`
	Type                domain.PartyType      `json:"type"`
	Phone               string                `json:"phone,omitempty"`
	Address             string                `json:"address,omitempty"`
	Status              domain.PartyStatus    `json:"status"`
	OpeningBalance      decimal.Decimal       `json:"opening_balance"`
	CurrentBalance      decimal.Decimal       `json:"current_balance"`
	BalanceCompany      string                `json:"balance_company,omitempty"`
	TotalPurchases      decimal.Decimal       `json:"total_purchases"`
	TotalPayments       decimal.Decimal       `json:"total_payments"`
	CreatedDate         time.Time             `json:"created_date"`
	LastTransactionDate string                `json:"last_transaction_date,omitempty"`
	Transactions        []TransactionResponse `json:"transactions,omitempty"`
}

// PartyFromDomain converts a domain party to a response without its history.
func PartyFromDomain(p *domain.Party) *PartyResponse {
	resp := &PartyResponse{
		ID:             p.ID,
		PartyNumber:    p.PartyNumber,
		Name:           p.Name,
		Type:           p.Type,
		Phone:          p.Phone,
		Address:        p.Address,
		Status:         p.Status,
		OpeningBalance: p.OpeningBalance,
		CurrentBalance: p.CurrentBalance,
		BalanceCompany: p.BalanceCompany,
		TotalPurchases: p.TotalPurchases,
		TotalPayments:  p.TotalPayments,
		CreatedDate:    p.CreatedDate,
	}
	if p.LastTransactionDate != nil {
		resp.LastTransactionDate = p.LastTransactionDate.Format(domain.DateLayout)
	}
	return resp
}

// PartyWithHistoryFromDomain converts a domain party including its transactions.
func PartyWithHistoryFromDomain(p *domain.Party) *PartyResponse {
	resp := PartyFromDomain(p)
	resp.Transactions = TransactionsFromDomain(p.Transactions)
	return resp
}

// ListPartiesResponse represents a page of parties.
type ListPartiesResponse struct {
	Parties []*PartyResponse `json:"parties"`
	Total   int64            `json:"total"`
}

// PartiesFromDomain converts domain parties to responses.
func PartiesFromDomain(parties []*domain.Party) []*PartyResponse {
	result := make([]*PartyResponse, len(parties))
	for i, p := range parties {
		result[i] = PartyFromDomain(p)
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID              string                 `json:"id"`
	Date            string                 `json:"date"`
	Type            domain.TransactionType `json:"type"`
	Company         string                 `json:"company"`
	Amount          decimal.Decimal        `json:"amount"`
	PaymentReceived decimal.Decimal        `json:"payment_received"`
	PaidAmount      decimal.Decimal        `json:"paid_amount"`
	Description     string                 `json:"description,omitempty"`
	VoucherRef      string                 `json:"voucher_ref,omitempty"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		Date:            t.Date.Format(domain.DateLayout),
		Type:            t.Type,
		Company:         t.CompanyName,
		Amount:          t.Amount,
		PaymentReceived: t.PaymentReceived,
		PaidAmount:      t.PaidAmount,
		Description:     t.Description,
		VoucherRef:      t.VoucherRef,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// CompaniesResponse lists the companies a party has been booked against.
type CompaniesResponse struct {
	PartyID   string   `json:"party_id"`
	Companies []string `json:"companies"`
}

// LedgerEntryResponse is one row of a rendered ledger.
type LedgerEntryResponse struct {
	TransactionID string                 `json:"transaction_id"`
	Date          string                 `json:"date"`
	Type          domain.TransactionType `json:"type"`
	Description   string                 `json:"description"`
	VoucherRef    string                 `json:"voucher_ref,omitempty"`
	Debit         decimal.Decimal        `json:"debit"`
	Credit        decimal.Decimal        `json:"credit"`
	Balance       decimal.Decimal        `json:"balance"`
}

// LedgerResponse is a party's ledger for one company and window.
type LedgerResponse struct {
	PartyID        string                `json:"party_id"`
	PartyName      string                `json:"party_name"`
	PartyType      domain.PartyType      `json:"party_type"`
	Company        string                `json:"company"`
	From           string                `json:"from,omitempty"`
	To             string                `json:"to,omitempty"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
	TotalDebit     decimal.Decimal       `json:"total_debit"`
	TotalCredit    decimal.Decimal       `json:"total_credit"`
	Entries        []LedgerEntryResponse `json:"entries"`
	Incomplete     bool                  `json:"incomplete,omitempty"`
	RejectedIDs    []string              `json:"rejected_transaction_ids,omitempty"`
}

// LedgerFromReport converts a ledger report to a response.
func LedgerFromReport(r *usecase.LedgerReport) *LedgerResponse {
	resp := &LedgerResponse{
		PartyID:        r.Party.ID,
		PartyName:      r.Party.Name,
		PartyType:      r.Party.Type,
		Company:        r.Company,
		OpeningBalance: r.Ledger.OpeningBalance,
		ClosingBalance: r.Ledger.ClosingBalance,
		TotalDebit:     r.Ledger.TotalDebit,
		TotalCredit:    r.Ledger.TotalCredit,
		Entries:        make([]LedgerEntryResponse, len(r.Ledger.Entries)),
		Incomplete:     r.Ledger.Incomplete,
	}
	if r.Window.From != nil {
		resp.From = r.Window.From.Format(domain.DateLayout)
	}
	if r.Window.To != nil {
		resp.To = r.Window.To.Format(domain.DateLayout)
	}

	for i, e := range r.Ledger.Entries {
		resp.Entries[i] = LedgerEntryResponse{
			TransactionID: e.Transaction.ID,
			Date:          e.Transaction.Date.Format(domain.DateLayout),
			Type:          e.Transaction.Type,
			Description:   e.Description,
			VoucherRef:    e.Transaction.VoucherRef,
			Debit:         e.Debit,
			Credit:        e.Credit,
			Balance:       e.Balance,
		}
	}

	for _, t := range r.Ledger.Rejected {
		resp.RejectedIDs = append(resp.RejectedIDs, t.ID)
	}

	return resp
}

// StatsResponse represents the figures of one party and company.
type StatsResponse struct {
	PartyID         string          `json:"party_id"`
	Company         string          `json:"company,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	TotalTransacted decimal.Decimal `json:"total_transacted"`
	TotalPayments   decimal.Decimal `json:"total_payments"`
}

// StatsFromDomain converts party stats to a response.
func StatsFromDomain(partyID, company string, s domain.Stats) *StatsResponse {
	return &StatsResponse{
		PartyID:         partyID,
		Company:         company,
		Balance:         s.Balance,
		TotalTransacted: s.TotalTransacted,
		TotalPayments:   s.TotalPayments,
	}
}

// ListStatsResponse represents list-view figures across parties.
type ListStatsResponse struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
	ActiveCount  int             `json:"active_count"`
	TotalCount   int             `json:"total_count"`
}

// ListStatsFromDomain converts list stats to a response.
func ListStatsFromDomain(s domain.ListStats) *ListStatsResponse {
	return &ListStatsResponse{
		TotalBalance: s.TotalBalance,
		ActiveCount:  s.ActiveCount,
		TotalCount:   s.TotalCount,
	}
}

// MutationResponse is returned by payments and transaction entry and
// deletion: the affected transaction and the party as it now stands.
type MutationResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Party       *PartyResponse      `json:"party"`
}

// MutationFromDomain builds a MutationResponse.
func MutationFromDomain(party *domain.Party, t *domain.Transaction) *MutationResponse {
	return &MutationResponse{
		Transaction: TransactionFromDomain(*t),
		Party:       PartyFromDomain(party),
	}
}

// ReconciliationResponse represents a single reconciliation check.
type ReconciliationResponse struct {
	PartyID             string          `json:"party_id"`
	Company             string          `json:"company"`
	BalanceCompared     bool            `json:"balance_compared"`
	CachedBalance       decimal.Decimal `json:"cached_balance"`
	RecomputedBalance   decimal.Decimal `json:"recomputed_balance"`
	Difference          decimal.Decimal `json:"difference"`
	CachedPurchases     decimal.Decimal `json:"cached_purchases"`
	RecomputedPurchases decimal.Decimal `json:"recomputed_purchases"`
	CachedPayments      decimal.Decimal `json:"cached_payments"`
	RecomputedPayments  decimal.Decimal `json:"recomputed_payments"`
	Unreadable          int             `json:"unreadable,omitempty"`
	IsReconciled        bool            `json:"is_reconciled"`
	LastChecked         time.Time       `json:"last_checked"`
}

// ReconciliationFromDomain converts a reconciliation result to a response.
func ReconciliationFromDomain(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		PartyID:             r.PartyID,
		Company:             r.Company,
		BalanceCompared:     r.BalanceCompared,
		CachedBalance:       r.CachedBalance,
		RecomputedBalance:   r.RecomputedBalance,
		Difference:          r.Difference,
		CachedPurchases:     r.CachedPurchases,
		RecomputedPurchases: r.RecomputedPurchases,
		CachedPayments:      r.CachedPayments,
		RecomputedPayments:  r.RecomputedPayments,
		Unreadable:          r.Unreadable,
		IsReconciled:        r.IsReconciled,
		LastChecked:         r.LastChecked,
	}
}

// ReconciliationReportResponse summarises a reconciliation over every party.
type ReconciliationReportResponse struct {
	TotalParties      int                       `json:"total_parties"`
	ReconciledParties int                       `json:"reconciled_parties"`
	Discrepancies     []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromDomain converts a reconciliation report to a response.
func ReconciliationReportFromDomain(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		TotalParties:      r.TotalParties,
		ReconciledParties: r.ReconciledParties,
		Discrepancies:     make([]*ReconciliationResponse, len(r.Discrepancies)),
		CheckedAt:         r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = ReconciliationFromDomain(d)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
