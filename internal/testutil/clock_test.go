package testutil

import (
	"testing"
	"time"
)

func TestClock_FrozenUntilAdvanced(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("second Now() = %v, want unchanged %v", got, start)
	}

	want := start.Add(time.Hour)
	if got := c.Advance(time.Hour); !got.Equal(want) {
		t.Errorf("Advance() = %v, want %v", got, want)
	}
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock(time.Unix(0, 0))
	at := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	c.Set(at)
	if got := c.Now(); !got.Equal(at) {
		t.Errorf("Now() = %v, want %v", got, at)
	}
}
