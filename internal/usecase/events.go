package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
)

// eventEmitter publishes party events after commit. A nil notifier turns it
// into a no-op; publish failures are logged and never fail the operation.
type eventEmitter struct {
	notifier Notifier
	idGen    IDGenerator
	logger   zerolog.Logger
}

func (e eventEmitter) emit(ctx context.Context, eventType string, party *domain.Party, company, transactionID string) {
	if e.notifier == nil {
		return
	}

	event := domain.PartyEvent{
		ID:            e.idGen.Generate(),
		EventType:     eventType,
		PartyID:       party.ID,
		PartyType:     party.Type,
		CompanyName:   company,
		TransactionID: transactionID,
		OccurredAt:    time.Now().UTC(),
	}

	if err := e.notifier.Publish(ctx, event); err != nil {
		e.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("party_id", party.ID).
			Msg("failed to publish party event")
	}
}
