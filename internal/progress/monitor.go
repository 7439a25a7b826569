// Package progress implements a recursively subdividable progress and
// cancellation handle, in the spirit of Eclipse's SubMonitor: a traversal
// hands each subtree a slice of the overall budget so completion is
// reported proportionally to tree shape rather than only at the root.
//
// Monitors are single-threaded values; a concurrent caller gives each
// goroutine its own root monitor.
package progress

import (
	"context"
)

// Sink receives the overall completed fraction in [0, 1]. It is called
// every time any monitor in the tree advances.
type Sink func(fraction float64)

type tracker struct {
	cancelled func() bool
	sink      Sink
	completed float64
}

func (t *tracker) add(frac float64) {
	if frac <= 0 {
		return
	}
	t.completed += frac
	if t.completed > 1 {
		t.completed = 1
	}
	if t.sink != nil {
		t.sink(t.completed)
	}
}

// Monitor owns a fraction of the overall work, split into units. The nil
// Monitor is valid: it reports nothing and is never cancelled, so library
// callers that do not care about progress can pass nil.
type Monitor struct {
	t     *tracker
	span  float64
	units int
	used  int
	done  bool
}

// Option configures a root monitor.
type Option func(*tracker)

// WithSink directs completion reports to sink.
func WithSink(sink Sink) Option {
	return func(t *tracker) { t.sink = sink }
}

// WithCancel installs a cancellation flag polled by Cancelled.
func WithCancel(flag func() bool) Option {
	return func(t *tracker) { t.cancelled = flag }
}

// WithContext cancels the monitor when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(t *tracker) {
		t.cancelled = func() bool { return ctx.Err() != nil }
	}
}

// New creates a root monitor owning the whole budget, split into units.
func New(units int, opts ...Option) *Monitor {
	t := &tracker{}
	for _, opt := range opts {
		opt(t)
	}
	if units < 1 {
		units = 1
	}
	return &Monitor{t: t, span: 1.0, units: units}
}

// Convert rescales what remains of m into a monitor with the given number
// of units. The original monitor is considered fully consumed afterwards.
// Convert(nil, n) is nil.
func Convert(m *Monitor, units int) *Monitor {
	if m == nil {
		return nil
	}
	if units < 1 {
		units = 1
	}
	span := m.remainingSpan()
	m.used = m.units
	return &Monitor{t: m.t, span: span, units: units}
}

func (m *Monitor) remainingSpan() float64 {
	if m.units <= 0 {
		return m.span
	}
	return m.span * float64(m.units-m.used) / float64(m.units)
}

// Child reserves weight units of m and returns a monitor owning the
// corresponding slice of the budget. The child's own unit count is set by a
// later Convert; until then a single Done or Worked consumes it entirely.
func (m *Monitor) Child(weight int) *Monitor {
	if m == nil {
		return nil
	}
	if weight < 1 {
		weight = 1
	}
	avail := m.units - m.used
	if avail <= 0 {
		return &Monitor{t: m.t, span: 0, units: 1}
	}
	if weight > avail {
		weight = avail
	}
	m.used += weight
	return &Monitor{
		t:     m.t,
		span:  m.span * float64(weight) / float64(m.units),
		units: 1,
	}
}

// Worked reports n units of completed work.
func (m *Monitor) Worked(n int) {
	if m == nil || m.done || n <= 0 {
		return
	}
	avail := m.units - m.used
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return
	}
	m.used += n
	m.t.add(m.span * float64(n) / float64(m.units))
}

// Done flushes any unreported remainder. It is idempotent and safe to call
// on an already-consumed monitor.
func (m *Monitor) Done() {
	if m == nil || m.done {
		return
	}
	m.t.add(m.remainingSpan())
	m.used = m.units
	m.done = true
}

// Cancelled reports whether the caller has asked the traversal to stop.
func (m *Monitor) Cancelled() bool {
	if m == nil || m.t.cancelled == nil {
		return false
	}
	return m.t.cancelled()
}

// Completed returns the overall fraction reported so far. Mostly useful in
// tests and diagnostics.
func (m *Monitor) Completed() float64 {
	if m == nil {
		return 0
	}
	return m.t.completed
}
