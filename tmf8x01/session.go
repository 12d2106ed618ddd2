// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"fmt"
	"time"
)

// State is the state of the measurement session.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateArmed
	StateMeasuring
	StateSampleReady
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateIdle:
		return "Idle"
	case StateArmed:
		return "Armed"
	case StateMeasuring:
		return "Measuring"
	case StateSampleReady:
		return "SampleReady"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// active returns true while the sensor free-runs ranging cycles.
func (s State) active() bool {
	return s == StateArmed || s == StateMeasuring || s == StateSampleReady
}

// session tracks the measurement state machine. It does no I/O; Dev performs
// the register accesses and reports the outcome.
type session struct {
	state   State
	ranging RangingMode
	calib   CalibrationMode
	lastTID byte
	sample  Sample
	clock   clockSync

	// correctClock enables scaling distances by the clock ratio.
	correctClock bool
}

func (s *session) initialized() {
	s.state = StateIdle
}

// canStart reports whether a new session may be armed.
func (s *session) canStart() error {
	switch {
	case s.state == StateUninitialized:
		return ErrNotInitialized
	case s.state.active():
		return ErrMeasurementActive
	}
	return nil
}

func (s *session) arm(cm CalibrationMode, rm RangingMode) {
	s.state = StateArmed
	s.calib = cm
	s.ranging = rm
	s.clock.reset()
}

// abort restores the state an armed session came from when programming the
// sensor failed.
func (s *session) abort(prev State) {
	if s.state == StateArmed {
		s.state = prev
	}
}

// measuring is called once the sensor acknowledged the measure command. tid
// is the transaction id at that time; only later ids are new samples.
func (s *session) measuring(tid byte) {
	s.state = StateMeasuring
	s.lastTID = tid
}

// observe is called with each result block read while measuring. It returns
// true when the block holds a sample not seen before. A newer sample replaces
// one not consumed yet.
func (s *session) observe(r result, now time.Time) bool {
	if s.state != StateMeasuring && s.state != StateSampleReady {
		return false
	}
	if r.contents != contentsResult || r.tid == s.lastTID {
		return false
	}
	s.lastTID = r.tid
	mm := int(r.distance)
	if s.correctClock {
		s.clock.observe(now, r.sysClock)
		mm = s.clock.scale(r.distance)
	}
	s.sample = Sample{
		MM:           mm,
		Distance:     millimetre(mm),
		Reliability:  r.reliability,
		Status:       r.measStatus,
		ResultNumber: r.resultNumber,
		Time:         now,
	}
	s.state = StateSampleReady
	return true
}

// consume hands out the pending sample; the sensor keeps ranging.
func (s *session) consume() (Sample, error) {
	if s.state != StateSampleReady {
		return Sample{}, ErrNoSampleAvailable
	}
	s.state = StateMeasuring
	return s.sample, nil
}

func (s *session) stopped() {
	if s.state != StateUninitialized {
		s.state = StateStopped
	}
	s.clock.reset()
}

// clockSync estimates the ratio between host time and the sensor system
// clock over a window of samples. Distances are scaled by that ratio to
// compensate the sensor oscillator drift.
type clockSync struct {
	n     int
	host  [clockWindow]time.Time
	ticks [clockWindow]uint32
	ratio float64
}

const (
	clockWindow = 5
	// sysClockTick is the period of the sensor system clock.
	sysClockTick = 200 * time.Nanosecond
	minRatio     = 0.7
	maxRatio     = 1.3
)

func (c *clockSync) reset() {
	*c = clockSync{ratio: 1}
}

func (c *clockSync) observe(now time.Time, ticks uint32) {
	if c.ratio == 0 {
		c.ratio = 1
	}
	if c.n < clockWindow {
		c.host[c.n] = now
		c.ticks[c.n] = ticks
		c.n++
		if c.n < clockWindow {
			return
		}
	} else {
		copy(c.host[:], c.host[1:])
		copy(c.ticks[:], c.ticks[1:])
		c.host[clockWindow-1] = now
		c.ticks[clockWindow-1] = ticks
	}
	hostElapsed := c.host[clockWindow-1].Sub(c.host[0])
	devElapsed := time.Duration(c.ticks[clockWindow-1]-c.ticks[0]) * sysClockTick
	if hostElapsed <= 0 || devElapsed <= 0 {
		return
	}
	if r := float64(hostElapsed) / float64(devElapsed); r >= minRatio && r <= maxRatio {
		c.ratio = r
	}
}

func (c *clockSync) scale(mm uint16) int {
	if c.ratio == 0 {
		return int(mm)
	}
	return int(float64(mm)*c.ratio + 0.5)
}
