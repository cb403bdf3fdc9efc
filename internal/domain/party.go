package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyType tells customers and suppliers apart. Both share one shape.
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// Polarity returns the ledger mapping used for this kind of party.
func (t PartyType) Polarity() Polarity {
	if t == PartyTypeSupplier {
		return Payable
	}
	return Receivable
}

// Valid reports whether t is a known party type.
func (t PartyType) Valid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// PartyStatus is the list-view status of a party.
type PartyStatus string

const (
	PartyStatusActive   PartyStatus = "active"
	PartyStatusInactive PartyStatus = "inactive"
)

// Party is a counterparty the business trades with.
//
// OpeningBalance, CurrentBalance, TotalPurchases and TotalPayments are caches
// derived from Transactions. Only payments, transaction entry and deletion
// rewrite them, always by refolding the history. CurrentBalance is the
// balance of BalanceCompany, the company last written to; the two totals
// span every company.
type Party struct {
	ID                  string
	PartyNumber         int64
	Name                string
	Type                PartyType
	Phone               string
	Address             string
	Status              PartyStatus
	OpeningBalance      decimal.Decimal
	CurrentBalance      decimal.Decimal
	BalanceCompany      string
	TotalPurchases      decimal.Decimal
	TotalPayments       decimal.Decimal
	CreatedDate         time.Time
	LastTransactionDate *time.Time
	Transactions        []Transaction
}

// Polarity is shorthand for p.Type.Polarity().
func (p *Party) Polarity() Polarity {
	return p.Type.Polarity()
}

// Clone returns a deep copy so callers can derive an updated party without
// touching the snapshot they were given.
func (p *Party) Clone() *Party {
	c := *p
	if p.Transactions != nil {
		c.Transactions = make([]Transaction, len(p.Transactions))
		copy(c.Transactions, p.Transactions)
	}
	if p.LastTransactionDate != nil {
		d := *p.LastTransactionDate
		c.LastTransactionDate = &d
	}
	return &c
}

// Companies lists the distinct operating companies found in the party's
// history, in order of first appearance.
func (p *Party) Companies() []string {
	seen := make(map[string]bool)

	var companies []string
	for _, t := range p.Transactions {
		if t.CompanyName == "" || seen[t.CompanyName] {
			continue
		}
		seen[t.CompanyName] = true
		companies = append(companies, t.CompanyName)
	}

	return companies
}

// PartyFilter narrows party listings.
type PartyFilter struct {
	Type   PartyType
	Status PartyStatus
	Limit  int
	Offset int
}
