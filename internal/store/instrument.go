package store

import (
	"context"
	"time"

	"github.com/swasthgram/health-api/pkg/metrics"
)

// instrumentedStore records operation counts and latencies around an inner
// store.
type instrumentedStore struct {
	inner Store
	m     *metrics.Metrics
}

// Instrument wraps a store with prometheus instrumentation.
func Instrument(inner Store, m *metrics.Metrics) Store {
	if m == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, m: m}
}

func (s *instrumentedStore) Read(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := s.inner.Read(ctx, key)
	s.observe("read", start, err)
	return v, err
}

func (s *instrumentedStore) Write(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.inner.Write(ctx, key, value)
	s.observe("write", start, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil && err != ErrNotFound {
		status = "error"
	}
	s.m.StoreOperations.WithLabelValues(op, status).Inc()
	s.m.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
