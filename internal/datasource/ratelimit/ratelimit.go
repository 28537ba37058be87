package ratelimit

import (
	"context"
	"sync"
	"time"

	"marketdata/internal/datasource"
)

// MinInterval wraps a datasource and enforces a minimum time between calls.
// Concurrent calls wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	DS       datasource.DataSource
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.DS.Name() }

func (m *MinInterval) FallbackEligible(statusCode int) bool { return m.DS.FallbackEligible(statusCode) }

func (m *MinInterval) Execute(ctx context.Context, function, symbol string, opts *datasource.CallOptions) (map[string]any, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	body, err := m.DS.Execute(ctx, function, symbol, opts)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return body, err
}
