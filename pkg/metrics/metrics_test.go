package metrics

import (
	"testing"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("commands_total")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Errorf("counter = %d, want 3", c.Value())
	}
	// Same name returns the same counter.
	if r.Counter("commands_total") != c {
		t.Error("Counter did not return existing counter")
	}
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("trajectory_samples")
	g.Set(2400)
	if g.Value() != 2400 {
		t.Errorf("gauge = %d, want 2400", g.Value())
	}
	g.Set(3)
	if g.Value() != 3 {
		t.Errorf("gauge = %d, want 3", g.Value())
	}
}

func TestSnapshotSorted(t *testing.T) {
	r := NewRegistry()
	r.Counter("b_total").Inc()
	r.Counter("a_total").Add(5)
	r.Gauge("c_gauge").Set(7)

	lines := r.Snapshot()
	want := []string{"a_total:5", "b_total:1", "c_gauge:7"}
	if len(lines) != len(want) {
		t.Fatalf("snapshot has %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
