// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"testing"
	"time"
)

func TestClockSync(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name string
		// ticks elapsed on the sensor for each 100ms of host time.
		ticks uint32
		want  int
	}{
		// 500000 ticks of 200ns are 100ms.
		{"in sync", 500000, 1000},
		{"sensor slow", 454545, 1100},
		{"out of range", 250000, 1000},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var c clockSync
			c.reset()
			for i := 0; i < clockWindow; i++ {
				if i == clockWindow-1 {
					if got := c.scale(1000); got != 1000 {
						t.Fatalf("scaled to %d before the window is full", got)
					}
				}
				c.observe(t0.Add(time.Duration(i)*100*time.Millisecond), 1000+uint32(i)*tc.ticks)
			}
			if got := c.scale(1000); got != tc.want {
				t.Errorf("scale(1000) = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestClockSyncSlides(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var c clockSync
	c.reset()
	for i := 0; i < 2*clockWindow; i++ {
		// Sensor in sync for the first window, then 10% slow.
		ticks := uint32(i) * 500000
		if i >= clockWindow {
			ticks = uint32(clockWindow-1)*500000 + uint32(i-clockWindow+1)*454545
		}
		c.observe(t0.Add(time.Duration(i)*100*time.Millisecond), ticks)
	}
	if got := c.scale(1000); got != 1100 {
		t.Errorf("scale(1000) = %d, want 1100", got)
	}
}

func TestSessionTransitions(t *testing.T) {
	var s session
	if err := s.canStart(); err != ErrNotInitialized {
		t.Fatalf("canStart() = %v", err)
	}
	s.initialized()
	s.arm(NoCalibration, ModeCombined)
	s.abort(StateIdle)
	if s.state != StateIdle {
		t.Fatalf("state after abort = %s", s.state)
	}
	s.arm(NoCalibration, ModeCombined)
	s.measuring(9)
	if err := s.canStart(); err != ErrMeasurementActive {
		t.Errorf("canStart() while measuring = %v", err)
	}
	now := time.Now()
	if s.observe(result{contents: contentsResult, tid: 9}, now) {
		t.Error("baseline transaction reported as new")
	}
	if s.observe(result{contents: 0x00, tid: 10}, now) {
		t.Error("result reported without CONTENTS=0x55")
	}
	if !s.observe(result{contents: contentsResult, tid: 10, distance: 80}, now) {
		t.Fatal("new transaction not reported")
	}
	if !s.observe(result{contents: contentsResult, tid: 11, distance: 90}, now) {
		t.Fatal("newer transaction not reported")
	}
	got, err := s.consume()
	if err != nil || got.MM != 90 {
		t.Errorf("consume() = %+v, %v, want the latest sample", got, err)
	}
	if _, err := s.consume(); err != ErrNoSampleAvailable {
		t.Errorf("consume() = %v", err)
	}
	s.stopped()
	if s.state != StateStopped {
		t.Errorf("state = %s", s.state)
	}
	if s.observe(result{contents: contentsResult, tid: 12}, now) {
		t.Error("result reported while stopped")
	}
}
