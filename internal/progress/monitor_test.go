package progress

import (
	"context"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWorkedReportsProportionally(t *testing.T) {
	var last float64
	m := New(4, WithSink(func(f float64) { last = f }))

	m.Worked(1)
	if !almostEqual(last, 0.25) {
		t.Fatalf("after 1/4 worked: %v, want 0.25", last)
	}
	m.Worked(2)
	if !almostEqual(last, 0.75) {
		t.Fatalf("after 3/4 worked: %v, want 0.75", last)
	}
	m.Worked(10) // over-reporting is capped at the budget
	if !almostEqual(last, 1.0) {
		t.Fatalf("after over-report: %v, want 1.0", last)
	}
}

func TestChildOwnsFractionOfParent(t *testing.T) {
	var last float64
	m := New(2, WithSink(func(f float64) { last = f }))

	child := m.Child(1)
	sub := Convert(child, 5)
	sub.Worked(5)
	if !almostEqual(last, 0.5) {
		t.Fatalf("child half fully worked: %v, want 0.5", last)
	}

	m.Worked(1)
	if !almostEqual(last, 1.0) {
		t.Fatalf("parent remainder worked: %v, want 1.0", last)
	}
}

func TestDoneFlushesRemainderIdempotently(t *testing.T) {
	var calls int
	var last float64
	m := New(3, WithSink(func(f float64) { last = f; calls++ }))

	m.Worked(1)
	m.Done()
	if !almostEqual(last, 1.0) {
		t.Fatalf("after Done: %v, want 1.0", last)
	}
	callsAfterDone := calls
	m.Done()
	m.Worked(1)
	if calls != callsAfterDone {
		t.Fatalf("Done must be idempotent, got %d extra sink calls", calls-callsAfterDone)
	}
}

func TestChildWeightCappedAtRemaining(t *testing.T) {
	var last float64
	m := New(2, WithSink(func(f float64) { last = f }))
	c := m.Child(10) // only 2 units exist
	c.Done()
	if !almostEqual(last, 1.0) {
		t.Fatalf("capped child done: %v, want 1.0", last)
	}
	exhausted := m.Child(1)
	exhausted.Done()
	if !almostEqual(last, 1.0) {
		t.Fatalf("exhausted parent must hand out zero-span children, got %v", last)
	}
}

func TestConvertTakesRemainder(t *testing.T) {
	var last float64
	m := New(2, WithSink(func(f float64) { last = f }))
	m.Worked(1)
	sub := Convert(m, 10)
	sub.Worked(5)
	if !almostEqual(last, 0.75) {
		t.Fatalf("converted remainder half worked: %v, want 0.75", last)
	}
	sub.Done()
	if !almostEqual(last, 1.0) {
		t.Fatalf("converted remainder done: %v, want 1.0", last)
	}
}

func TestCancellation(t *testing.T) {
	cancelled := false
	m := New(1, WithCancel(func() bool { return cancelled }))
	if m.Cancelled() {
		t.Fatalf("fresh monitor must not be cancelled")
	}
	cancelled = true
	if !m.Cancelled() {
		t.Fatalf("flag set, Cancelled must report true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cm := New(1, WithContext(ctx))
	if cm.Cancelled() {
		t.Fatalf("live context must not cancel")
	}
	cancel()
	if !cm.Cancelled() {
		t.Fatalf("done context must cancel")
	}
}

func TestNilMonitorIsSafe(t *testing.T) {
	var m *Monitor
	m.Worked(1)
	m.Done()
	if m.Cancelled() {
		t.Fatalf("nil monitor must never be cancelled")
	}
	if Convert(m, 5) != nil {
		t.Fatalf("Convert(nil) must stay nil")
	}
	if m.Child(1) != nil {
		t.Fatalf("nil child must stay nil")
	}
}
