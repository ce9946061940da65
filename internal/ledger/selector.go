// Package ledger orchestrates the reconciliation engine over a transaction
// store: month selection, summary and balance computation, and the
// append/delete operations the owners perform.
package ledger

import (
	"sync"
	"time"

	"lavagens/internal/core"
)

// Selector holds the month under inspection. It starts at the wall-clock
// month and navigates by whole months; HTTP handlers share one instance.
type Selector struct {
	mu     sync.Mutex
	now    func() time.Time
	period core.Period
}

// NewSelector returns a selector positioned at the current month.
// A nil clock falls back to time.Now.
func NewSelector(now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{now: now, period: core.PeriodOf(now())}
}

// Current returns the selected period.
func (s *Selector) Current() core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Shift moves the selection by whole months and returns the new period.
// Any delta is valid; year boundaries wrap.
func (s *Selector) Shift(months int) core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = s.period.Shift(months)
	return s.period
}

// Reset moves the selection back to the wall-clock month.
func (s *Selector) Reset() core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = core.PeriodOf(s.now())
	return s.period
}
