package event

import (
	"sync"

	"github.com/swasthgram/health-api/pkg/metrics"
)

// Signal names. Consumers key off the name; the detail payload is free-form
// diagnostics and nothing should depend on its contents.
const (
	SignalAllReportsUpdated    = "allReportsUpdated"
	SignalReportsUpdated       = "reports_updated"
	SignalConsultationsUpdated = "consultations_updated"
	SignalUsersUpdated         = "users_updated"
)

// Detail carries optional diagnostic fields (reason, affected ids).
type Detail map[string]interface{}

// Handler receives a published signal.
type Handler func(signal string, detail Detail)

// Bus delivers signals synchronously to currently-registered handlers. There
// is no queue and no replay: a subscriber registered after a publish never
// sees it, matching the best-effort contract. Consumers that need guaranteed
// freshness run their own polling loop on top.
type Bus struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[string]map[int]Handler
	metrics *metrics.Metrics
}

func NewBus(m *metrics.Metrics) *Bus {
	return &Bus{
		subs:    make(map[string]map[int]Handler),
		metrics: m,
	}
}

// Subscribe registers a handler for a signal and returns an unsubscribe func.
func (b *Bus) Subscribe(signal string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[signal] == nil {
		b.subs[signal] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[signal][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[signal], id)
	}
}

// Publish invokes every handler registered for the signal, synchronously.
func (b *Bus) Publish(signal string, detail Detail) {
	b.publish(signal, detail, "local")
}

func (b *Bus) publish(signal string, detail Detail, origin string) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[signal]))
	for _, h := range b.subs[signal] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.SignalsPublished.WithLabelValues(signal, origin).Inc()
	}

	for _, h := range handlers {
		h(signal, detail)
	}
}
