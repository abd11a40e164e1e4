// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestFakeClock_Now(t *testing.T) {
	t.Parallel()

	initial := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)

	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("FakeClock.Now() = %v, want %v", got, initial)
	}
}

func TestFakeClock_Now_DefaultTime(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	expected := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := clock.Now(); !got.Equal(expected) {
		t.Errorf("FakeClock.Now() = %v, want %v (default)", got, expected)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))
	clock.Advance(2 * time.Hour)

	if got := clock.Now().Year(); got != 2024 {
		t.Errorf("FakeClock.Now().Year() after Advance = %d, want 2024", got)
	}
}

func TestFakeClock_Set(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	target := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)

	if got := clock.Now(); !got.Equal(target) {
		t.Errorf("FakeClock.Now() after Set = %v, want %v", got, target)
	}
}

func TestFakeClock_Concurrent(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 100 {
				clock.Advance(time.Millisecond)
				_ = clock.Now()
			}
		})
	}
	wg.Wait()

	want := time.Date(2020, 1, 1, 0, 0, 1, 0, time.UTC)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("FakeClock.Now() = %v, want %v", got, want)
	}
}
