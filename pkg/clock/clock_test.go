package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := Real()
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	c := Real()
	start := c.Now()
	time.Sleep(10 * time.Millisecond)
	elapsed := c.Since(start)

	if elapsed < 10*time.Millisecond {
		t.Errorf("Since() = %v, want >= 10ms", elapsed)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)

	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}
}

func TestFakeClock_Set(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	target := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	c.Set(target)

	if !c.Now().Equal(target) {
		t.Errorf("Now() = %v, want %v", c.Now(), target)
	}
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFakeClock(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	if got := c.Since(start); got != 50*time.Second {
		t.Errorf("Since() = %v, want 50s", got)
	}
}
