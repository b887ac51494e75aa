package reactor

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	defer r.End()
}

func TestMonotonic(t *testing.T) {
	r := New()
	defer r.End()

	t1 := r.Monotonic()
	time.Sleep(10 * time.Millisecond)
	t2 := r.Monotonic()

	if t2 <= t1 {
		t.Errorf("Monotonic time not increasing: %f <= %f", t2, t1)
	}
}

func TestTimer(t *testing.T) {
	r := New()

	var called atomic.Int32
	callback := func(eventtime float64) float64 {
		called.Add(1)
		return NEVER
	}

	timer := r.RegisterTimer(callback, NOW)
	if timer == nil {
		t.Fatal("RegisterTimer returned nil")
	}

	r.Run()
	time.Sleep(50 * time.Millisecond)
	r.End()
	r.Wait()

	if called.Load() != 1 {
		t.Errorf("Timer callback called %d times, expected 1", called.Load())
	}
}

func TestPeriodicTimer(t *testing.T) {
	r := New()

	var called atomic.Int32
	callback := func(eventtime float64) float64 {
		called.Add(1)
		return eventtime + 0.01
	}

	r.RegisterTimer(callback, NOW)
	r.Run()
	time.Sleep(100 * time.Millisecond)
	r.End()
	r.Wait()

	if called.Load() < 3 {
		t.Errorf("Periodic timer fired %d times, expected at least 3", called.Load())
	}
}

func TestUnregisterTimer(t *testing.T) {
	r := New()

	var called atomic.Int32
	timer := r.RegisterTimer(func(eventtime float64) float64 {
		called.Add(1)
		return eventtime + 0.001
	}, NOW)

	r.Run()
	time.Sleep(20 * time.Millisecond)
	r.UnregisterTimer(timer)
	count := called.Load()
	time.Sleep(30 * time.Millisecond)
	r.End()
	r.Wait()

	// One extra dispatch may have been in flight when unregistering.
	if called.Load() > count+1 {
		t.Errorf("Timer fired after unregister: %d -> %d", count, called.Load())
	}
}

func TestRunAsync(t *testing.T) {
	r := New()

	var called atomic.Int32
	r.Run()

	if err := r.RunAsync(func(eventtime float64) {
		called.Add(1)
	}); err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	r.End()
	r.Wait()

	if called.Load() != 1 {
		t.Errorf("Async callback called %d times, expected 1", called.Load())
	}
}

func TestRunAsyncAfterEnd(t *testing.T) {
	r := New()
	r.Run()
	r.End()
	r.Wait()

	if err := r.RunAsync(func(eventtime float64) {}); err == nil {
		t.Error("RunAsync after End should fail")
	}
}
