package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/metrics"
)

const (
	MinInterval     = 500 * time.Millisecond
	MaxInterval     = 1500 * time.Millisecond
	DefaultInterval = time.Second
)

// Config describes what a watcher observes.
type Config struct {
	// Keys are the store keys whose raw values are polled.
	Keys []string
	// Signals are bus signal names treated as a low-latency change hint.
	Signals []string
	// Interval is clamped to [MinInterval, MaxInterval].
	Interval time.Duration
}

// Watcher gives a consumer freshness without a push channel: it re-reads the
// raw serialized value of each watched key on an interval and fires the
// callback only when the string differs from the last-seen one, so unchanged
// data is never re-parsed. Bus signals short-circuit the wait.
type Watcher struct {
	store    store.Store
	bus      *event.Bus
	cfg      Config
	onChange func(reason string)
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	lastSeen map[string]string
	unsubs   []func()
	cancel   context.CancelFunc
	kick     chan string
}

func NewWatcher(s store.Store, bus *event.Bus, cfg Config, onChange func(reason string), logger zerolog.Logger, m *metrics.Metrics) *Watcher {
	if cfg.Interval < MinInterval {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval > MaxInterval {
		cfg.Interval = MaxInterval
	}
	return &Watcher{
		store:    s,
		bus:      bus,
		cfg:      cfg,
		onChange: onChange,
		logger:   logger,
		metrics:  m,
		lastSeen: make(map[string]string),
		kick:     make(chan string, 16),
	}
}

// Start snapshots the watched keys and begins polling. Bus subscriptions are
// installed as the low-latency path.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.poll(ctx, false)

	if w.bus != nil {
		for _, sig := range w.cfg.Signals {
			s := sig
			w.unsubs = append(w.unsubs, w.bus.Subscribe(s, func(_ string, _ event.Detail) {
				select {
				case w.kick <- s:
				default:
				}
			}))
		}
	}

	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.kick:
			w.poll(ctx, true)
		case <-ticker.C:
			if w.metrics != nil {
				w.metrics.PollTicks.Inc()
			}
			w.poll(ctx, true)
		}
	}
}

// poll re-reads every watched key and fires the callback once per changed key.
func (w *Watcher) poll(ctx context.Context, notify bool) {
	for _, key := range w.cfg.Keys {
		raw, err := w.store.Read(ctx, key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			w.logger.Warn().Err(err).Str("key", key).Msg("poll read failed")
			continue
		}

		w.mu.Lock()
		prev, seen := w.lastSeen[key]
		changed := !seen || prev != raw
		w.lastSeen[key] = raw
		w.mu.Unlock()

		if notify && changed {
			if w.metrics != nil {
				w.metrics.PollChanges.Inc()
			}
			w.onChange(key)
		}
	}
}

// Stop tears down the ticker and bus subscriptions.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	for _, u := range w.unsubs {
		u()
	}
	w.unsubs = nil
}
