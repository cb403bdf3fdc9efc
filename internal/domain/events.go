package domain

import "time"

// Event types
const (
	EventTypePartyCreated       = "party.created"
	EventTypePaymentRecorded    = "party.payment_recorded"
	EventTypeTransactionAdded   = "party.transaction_added"
	EventTypeTransactionDeleted = "party.transaction_deleted"
)

// PartyEvent tells other views that a party changed and must be re-fetched
// and refolded. It carries identifiers, never balances to patch in place.
type PartyEvent struct {
	ID            string    `json:"id"`
	EventType     string    `json:"event_type"`
	PartyID       string    `json:"party_id"`
	PartyType     PartyType `json:"party_type"`
	CompanyName   string    `json:"company_name,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
