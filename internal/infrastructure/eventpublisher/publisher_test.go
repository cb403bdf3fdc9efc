package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/partyledger/internal/domain"
	"github.com/iho/partyledger/internal/infrastructure/metrics"
)

func TestDispatcherDeliversQueuedEvents(t *testing.T) {
	pub := &stubPublisher{}
	d := newTestDispatcher(pub, 8, nil)

	for _, id := range []string{"evt-1", "evt-2"} {
		if err := d.Publish(context.Background(), domain.PartyEvent{ID: id, EventType: domain.EventTypePaymentRecorded}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if got := pub.ids(); len(got) != 2 || got[0] != "evt-1" || got[1] != "evt-2" {
		t.Fatalf("expected both events in order, got %v", got)
	}
}

func TestDispatcherContinuesOnPublishError(t *testing.T) {
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("fail")}}
	m := metrics.New(prometheus.NewRegistry())
	d := newTestDispatcher(pub, 8, m)

	_ = d.Publish(context.Background(), domain.PartyEvent{ID: "evt-1", EventType: "type"})
	_ = d.Publish(context.Background(), domain.PartyEvent{ID: "evt-2", EventType: "type"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = d.Start(ctx)

	if got := pub.ids(); len(got) != 1 || got[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %v", got)
	}

	if failed := testutil.ToFloat64(m.EventsPublished.WithLabelValues("type", "failed")); failed != 1 {
		t.Fatalf("expected one failed event, got %v", failed)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := newTestDispatcher(&stubPublisher{}, 1, nil)

	if err := d.Publish(context.Background(), domain.PartyEvent{ID: "evt-1"}); err != nil {
		t.Fatalf("first publish should fit: %v", err)
	}

	if err := d.Publish(context.Background(), domain.PartyEvent{ID: "evt-2"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcherRunsUntilCancelled(t *testing.T) {
	pub := &stubPublisher{delivered: make(chan struct{}, 1)}
	d := newTestDispatcher(pub, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	_ = d.Publish(context.Background(), domain.PartyEvent{ID: "evt-live"})

	select {
	case <-pub.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered by the running worker")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	err := pub.Publish(context.Background(), domain.PartyEvent{
		ID:        "evt-1",
		EventType: domain.EventTypePartyCreated,
		PartyID:   "party-1",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"party_id":"party-1"`) {
		t.Fatalf("expected party id in log output, got %s", buf.String())
	}
}

func newTestDispatcher(pub Publisher, size int, m *metrics.Metrics) *Dispatcher {
	return NewDispatcher(Config{
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		Metrics:    m,
		BufferSize: size,
	})
}

type stubPublisher struct {
	mu         sync.Mutex
	published  []domain.PartyEvent
	errorsByID map[string]error
	delivered  chan struct{}
}

func (s *stubPublisher) Publish(_ context.Context, event domain.PartyEvent) error {
	if err, ok := s.errorsByID[event.ID]; ok {
		return err
	}

	s.mu.Lock()
	s.published = append(s.published, event)
	s.mu.Unlock()

	if s.delivered != nil {
		s.delivered <- struct{}{}
	}
	return nil
}

func (s *stubPublisher) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.published))
	for _, e := range s.published {
		ids = append(ids, e.ID)
	}
	return ids
}
