package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

// ErrQueueFull is returned by Dispatcher.Publish when the buffer is full.
var ErrQueueFull = errors.New("event queue is full")

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event domain.PartyEvent) error
}

// Dispatcher implements usecase.Notifier. Publish only enqueues; a worker
// started with Start hands events to the downstream Publisher so request
// latency never depends on the broker.
type Dispatcher struct {
	queue          chan domain.PartyEvent
	publisher      Publisher
	logger         zerolog.Logger
	metrics        *metrics.Metrics
	publishTimeout time.Duration
}

// Config for Dispatcher.
type Config struct {
	Publisher      Publisher
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	BufferSize     int           // Number of events held before Publish fails
	PublishTimeout time.Duration // Per-event deadline for the downstream publisher
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	return &Dispatcher{
		queue:          make(chan domain.PartyEvent, cfg.BufferSize),
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		publishTimeout: cfg.PublishTimeout,
	}
}

// Publish enqueues event without blocking.
func (d *Dispatcher) Publish(_ context.Context, event domain.PartyEvent) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.record(event, "dropped")
		return ErrQueueFull
	}
}

// Start begins the dispatch worker.
// It runs until the context is cancelled, then drains what is already queued.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().Int("buffer_size", cap(d.queue)).Msg("event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info().Msg("event dispatcher shutting down")
			return ctx.Err()
		case event := <-d.queue:
			d.dispatch(context.Background(), event)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.dispatch(context.Background(), event)
		default:
			return
		}
	}
}

// dispatch publishes a single event.
func (d *Dispatcher) dispatch(ctx context.Context, event domain.PartyEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("party_id", event.PartyID).
			Msg("failed to publish event")
		d.record(event, "failed")
		return
	}

	d.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Msg("event published")
	d.record(event, "published")
}

func (d *Dispatcher) record(event domain.PartyEvent, result string) {
	if d.metrics != nil {
		d.metrics.EventsPublished.WithLabelValues(event.EventType, result).Inc()
	}
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event domain.PartyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("party_id", event.PartyID).
		RawJSON("payload", payload).
		Msg("EVENT PUBLISHED")

	return nil
}
