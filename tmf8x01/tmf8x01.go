// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/tof/tmf8x01/calibration"
	"github.com/cenkalti/backoff/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddr is the factory I²C address of the sensor.
const DefaultAddr uint16 = 0x41

// enableDelay is how long the EN pin is held in each level when power
// cycling the sensor.
const enableDelay = 10 * time.Millisecond

// Version is the firmware version of the measurement application.
type Version struct {
	Major byte
	Minor byte
	Patch byte
	Chip  byte
}

func (v Version) String() string {
	return fmt.Sprintf("%X.%X.%X.%X", v.Major, v.Minor, v.Patch, v.Chip)
}

// Model identifies the sensor part. Its value is the upper half of the
// unique ID.
type Model uint16

const (
	// ModelAuto detects the model from the unique ID.
	ModelAuto Model = 0
	// TMF8801 is the single-mode part ranging from 20cm to 240cm.
	TMF8801 Model = 0x4120
	// TMF8701 is the dual-mode part ranging from 0cm to 60cm.
	TMF8701 Model = 0x5e10
)

func (m Model) String() string {
	switch m {
	case ModelAuto:
		return "auto"
	case TMF8801:
		return "TMF8801"
	case TMF8701:
		return "TMF8701"
	default:
		return fmt.Sprintf("Model(0x%04x)", uint16(m))
	}
}

// defaultCommandSet returns the measure command set of the model.
func (m Model) defaultCommandSet() (commandSet, bool) {
	switch m {
	case TMF8801:
		return commandSet{0x01, 0xA3, 0x00, 0x00, 0x00, 0x64, 0x03, 0x84, cmdMeasure}, true
	case TMF8701:
		return commandSet{0x03, 0x23, 0x00, 0x00, 0x00, 0x64, 0xff, 0xff, cmdMeasure}, true
	}
	return commandSet{}, false
}

// Range returns the distance band covered by the ranging mode on this model.
func (m Model) Range(rm RangingMode) (near, far physic.Distance, err error) {
	switch {
	case m == TMF8801 && rm == ModeCombined:
		return 200 * physic.MilliMetre, 2400 * physic.MilliMetre, nil
	case m == TMF8701 && rm == ModeProximity:
		return 0, 100 * physic.MilliMetre, nil
	case m == TMF8701 && rm == ModeDistance:
		return 100 * physic.MilliMetre, 600 * physic.MilliMetre, nil
	case m == TMF8701 && rm == ModeCombined:
		return 0, 600 * physic.MilliMetre, nil
	}
	return 0, 0, fmt.Errorf("%w: %s on %s", ErrUnsupportedMode, rm, m)
}

// Identity is read once by Begin.
type Identity struct {
	UniqueID uint32
	Version  Version
	Model    Model
}

func (i Identity) String() string {
	return fmt.Sprintf("%s id=%X version=%s", i.Model, i.UniqueID, i.Version)
}

// RangingMode selects the distance band of a TMF8701. The TMF8801 only
// supports ModeCombined.
type RangingMode int

const (
	// ModeProximity ranges from 0cm to 10cm.
	ModeProximity RangingMode = iota + 1
	// ModeDistance ranges from 10cm to 60cm.
	ModeDistance
	// ModeCombined uses both algorithms, from 0cm to 60cm on a TMF8701. It is
	// the only mode of the TMF8801, ranging from 20cm to 240cm.
	ModeCombined
)

func (r RangingMode) String() string {
	switch r {
	case ModeProximity:
		return "proximity"
	case ModeDistance:
		return "distance"
	case ModeCombined:
		return "combined"
	default:
		return fmt.Sprintf("RangingMode(%d)", int(r))
	}
}

// CalibrationMode selects the state pushed into the sensor when a measurement
// starts.
type CalibrationMode byte

const (
	NoCalibration               CalibrationMode = 0
	WithCalibration             CalibrationMode = 1
	WithCalibrationAndAlgoState CalibrationMode = 3
)

func (c CalibrationMode) String() string {
	switch c {
	case NoCalibration:
		return "none"
	case WithCalibration:
		return "calib"
	case WithCalibrationAndAlgoState:
		return "calib-algo"
	default:
		return fmt.Sprintf("CalibrationMode(%d)", byte(c))
	}
}

// PinMode configures GPIO0 or GPIO1 of the sensor.
type PinMode byte

const (
	PinInput           PinMode = 0
	PinInputActiveLow  PinMode = 1
	PinInputActiveHigh PinMode = 2
	// PinOutputVCSEL outputs the VCSEL pulse.
	PinOutputVCSEL PinMode = 3
	PinOutputLow   PinMode = 4
	PinOutputHigh  PinMode = 5
)

// Sample is one ranging result.
type Sample struct {
	Distance physic.Distance
	// MM is Distance in millimetres.
	MM int
	// Reliability is 0 when no target was found, up to 63.
	Reliability byte
	// Status is the 2 bit measurement status reported with the result.
	Status       byte
	ResultNumber byte
	// Time is the host time the sample was read.
	Time time.Time
}

func millimetre(mm int) physic.Distance {
	return physic.Distance(mm) * physic.MilliMetre
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Addr is the I²C address. Default is 0x41.
	Addr uint16
	// Model forces the model instead of detecting it from the unique ID.
	Model Model
	// EnablePin is the optional pin wired to EN. When set, Begin power cycles
	// the sensor and PowerOn/PowerDown drive it.
	EnablePin gpio.PinOut
	// RAMPatch is the firmware patch downloaded when the sensor boots in its
	// bootloader. When empty the ROM application is started instead.
	RAMPatch []byte
	// PollInterval is the interval between status reads in WaitForSample
	// when no interrupt line is watched. Default is 10ms.
	PollInterval time.Duration
	// ClockCorrection scales distances by the ratio between the host clock
	// and the sensor clock.
	ClockCorrection bool
	// Debug receives a trace of the register accesses.
	Debug DebugF
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Addr:            DefaultAddr,
	PollInterval:    10 * time.Millisecond,
	ClockCorrection: true,
}

// Dev is a handle to a TMF8801 or TMF8701 time-of-flight sensor.
//
// A Dev has a single owner. Its methods are serialized but the measurement
// session is not meant to be driven from several goroutines.
type Dev struct {
	mu   sync.Mutex
	opts Opts
	t    transport
	r    registers
	bl   bootloader
	now  func() time.Time

	id         Identity
	base       commandSet
	calib      calibration.Store
	algo       calibration.AlgoState
	intEnabled bool
	notifier   *Notifier
	sess       session

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewI2C returns a handle to a sensor on the bus. No I/O is done; call Begin
// to bring the sensor up. The Opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, errors.New("tmf8x01: nil bus")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddr
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOpts.PollInterval
	}
	if o.Model != ModelAuto {
		if _, ok := o.Model.defaultCommandSet(); !ok {
			return nil, fmt.Errorf("tmf8x01: unsupported model %s", o.Model)
		}
	}
	if o.Debug == nil {
		o.Debug = noop
	}
	d := &Dev{
		opts:     o,
		t:        transport{d: &i2c.Dev{Bus: b, Addr: o.Addr}, debug: o.Debug},
		now:      time.Now,
		algo:     calibration.DefaultAlgoState,
		notifier: NewNotifier(),
	}
	d.r = registers{t: &d.t}
	d.bl = bootloader{t: &d.t}
	d.sess.correctClock = o.ClockCorrection
	return d, nil
}

func (d *Dev) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return fmt.Sprintf("TMF8x01{%s}", d.t.d)
	}
	return fmt.Sprintf("%s{%s}", d.id.Model, d.t.d)
}

// Begin resets the sensor, starts the measurement application and reads the
// sensor identity. On failure the device stays uninitialized and the error
// matches ErrInitializationFailed; Begin may be called again.
func (d *Dev) Begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state.active() {
		return ErrMeasurementActive
	}
	d.sess.state = StateUninitialized
	if err := d.begin(); err != nil {
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}
	d.sess.initialized()
	return nil
}

// BeginWithRetry calls Begin until it succeeds, b stops or ctx is done.
func (d *Dev) BeginWithRetry(ctx context.Context, b backoff.BackOff) error {
	return backoff.RetryNotify(d.Begin, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		d.opts.Debug("begin failed, retrying in %s: %v", next, err)
	})
}

func (d *Dev) begin() error {
	if d.opts.EnablePin != nil {
		if err := d.powerCycle(); err != nil {
			return err
		}
	}
	// Resetting the CPU makes the sensor restart in its bootloader.
	if err := d.r.resetCPU(); err != nil {
		return err
	}
	if err := d.r.powerOn(); err != nil {
		return err
	}
	if err := d.r.waitCPUReady(); err != nil {
		return err
	}
	if err := d.loadApplication(); err != nil {
		return err
	}
	id, err := d.r.uniqueID()
	if err != nil {
		return err
	}
	v, err := d.r.firmwareVersion()
	if err != nil {
		return err
	}
	m := d.opts.Model
	if m == ModelAuto {
		m = Model(id >> 16)
	}
	base, ok := m.defaultCommandSet()
	if !ok {
		return fmt.Errorf("tmf8x01: unknown sensor model 0x%04x", uint16(id>>16))
	}
	if d.intEnabled {
		if err := d.r.setIntEnable(true); err != nil {
			return err
		}
	}
	d.id = Identity{UniqueID: id, Version: v, Model: m}
	d.base = base
	d.opts.Debug("tmf8x01: %s", d.id)
	return nil
}

// loadApplication makes sure the measurement application runs, downloading
// the RAM patch if one was supplied.
func (d *Dev) loadApplication() error {
	app, err := d.r.appID()
	if err != nil {
		return err
	}
	switch app {
	case appMeasure:
		return nil
	case appBootloader:
	default:
		return fmt.Errorf("%w: unexpected application 0x%02x", ErrBootloader, app)
	}
	if len(d.opts.RAMPatch) == 0 {
		return d.r.triggerAppMode(appMeasure)
	}
	if err := d.bl.download(d.opts.RAMPatch); err != nil {
		return err
	}
	if err := d.r.waitCPUReady(); err != nil {
		return err
	}
	return d.r.waitApp(appMeasure)
}

func (d *Dev) powerCycle() error {
	if err := d.opts.EnablePin.Out(gpio.Low); err != nil {
		return err
	}
	sleep(enableDelay)
	if err := d.opts.EnablePin.Out(gpio.High); err != nil {
		return err
	}
	sleep(enableDelay)
	return nil
}

// PowerOn drives EN high and starts the measurement application. The
// measurement session is lost; the device must have been brought up with
// Begin.
func (d *Dev) PowerOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.EnablePin == nil {
		return ErrNoEnablePin
	}
	if d.sess.state == StateUninitialized {
		return ErrNotInitialized
	}
	if err := d.opts.EnablePin.Out(gpio.High); err != nil {
		return err
	}
	sleep(enableDelay)
	if err := d.r.powerOn(); err != nil {
		return err
	}
	if err := d.r.waitCPUReady(); err != nil {
		return err
	}
	if err := d.loadApplication(); err != nil {
		return err
	}
	if d.intEnabled {
		if err := d.r.setIntEnable(true); err != nil {
			return err
		}
	}
	d.sess.stopped()
	return nil
}

// PowerDown drives EN low. The sensor loses its state.
func (d *Dev) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.EnablePin == nil {
		return ErrNoEnablePin
	}
	if d.sess.state == StateUninitialized {
		return ErrNotInitialized
	}
	if err := d.opts.EnablePin.Out(gpio.Low); err != nil {
		return err
	}
	d.sess.stopped()
	return nil
}

// Sleep stops the measurement and resets the sensor CPU, which then waits
// in its bootloader drawing little current. It needs no EN pin; call Wakeup to
// resume.
func (d *Dev) Sleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return ErrNotInitialized
	}
	if err := d.stopMeasurement(); err != nil {
		return err
	}
	return d.r.resetCPU()
}

// Wakeup powers the sensor CPU on after Sleep and starts the measurement
// application again. The interrupt output is restored; the session stays
// Stopped until the next StartMeasurement, which pushes the calibration.
func (d *Dev) Wakeup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.sess.state == StateUninitialized:
		return ErrNotInitialized
	case d.sess.state.active():
		return ErrMeasurementActive
	}
	if err := d.r.powerOn(); err != nil {
		return err
	}
	if err := d.r.waitCPUReady(); err != nil {
		return err
	}
	if err := d.loadApplication(); err != nil {
		return err
	}
	if err := d.r.setIntEnable(d.intEnabled); err != nil {
		return err
	}
	d.sess.stopped()
	return nil
}

// Identity returns the identity read by Begin.
func (d *Dev) Identity() (Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return Identity{}, ErrNotInitialized
	}
	return d.id, nil
}

// SoftwareVersion returns the firmware version of the measurement
// application.
func (d *Dev) SoftwareVersion() (Version, error) {
	id, err := d.Identity()
	return id.Version, err
}

// UniqueID returns the serial number of the sensor.
func (d *Dev) UniqueID() (uint32, error) {
	id, err := d.Identity()
	return id.UniqueID, err
}

// SensorModel returns the sensor part.
func (d *Dev) SensorModel() (Model, error) {
	id, err := d.Identity()
	return id.Model, err
}

// Range returns the distance band of rm on this sensor.
func (d *Dev) Range(rm RangingMode) (near, far physic.Distance, err error) {
	m, err := d.SensorModel()
	if err != nil {
		return 0, 0, err
	}
	return m.Range(rm)
}

// CalibrationData asks the sensor for its factory calibration once. The sensor
// must be kept in the dark with no target within 40cm. It fails with
// ErrCalibrationUnavailable when the sensor did not complete the capture in
// time; see CaptureCalibration to retry.
//
// The returned blob is not applied; pass it to SetCalibrationData.
func (d *Dev) CalibrationData() (calibration.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.sess.state == StateUninitialized:
		return calibration.Data{}, ErrNotInitialized
	case d.sess.state.active():
		return calibration.Data{}, ErrMeasurementActive
	}
	return d.r.readCalibration()
}

// CaptureCalibration calls CalibrationData until it returns a blob. Only
// ErrCalibrationUnavailable is retried, as scheduled by b.
func (d *Dev) CaptureCalibration(ctx context.Context, b backoff.BackOff) (calibration.Data, error) {
	var out calibration.Data
	op := func() error {
		c, err := d.CalibrationData()
		if errors.Is(err, ErrCalibrationUnavailable) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		out = c
		return nil
	}
	notify := func(err error, next time.Duration) {
		d.opts.Debug("calibration not ready, retrying in %s", next)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return calibration.Data{}, err
	}
	return out, nil
}

// SetCalibrationData stores the 14 byte calibration blob applied by the next
// StartMeasurement. An invalid blob is rejected with
// ErrInvalidCalibrationLength and the previous blob is kept.
func (d *Dev) SetCalibrationData(b []byte) error {
	if err := d.calib.Set(b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCalibrationLength, err)
	}
	return nil
}

// Calibration returns the stored calibration blob.
func (d *Dev) Calibration() (calibration.Data, bool) {
	return d.calib.Get()
}

// SetAlgoState sets the algorithm state pushed by
// WithCalibrationAndAlgoState.
func (d *Dev) SetAlgoState(s calibration.AlgoState) {
	d.mu.Lock()
	d.algo = s
	d.mu.Unlock()
}

// Notifier returns the notification bridge fed by EnableIntPin. Host
// interrupt callbacks not backed by a gpio.PinIn may call its Signal method.
func (d *Dev) Notifier() *Notifier {
	return d.notifier
}

// EnableIntPin enables the INT output of the sensor; it is pulled low when a
// result is available. When pin is not nil, its falling edges feed the
// notifier. It takes effect with the next StartMeasurement. On failure the
// INT output is left as it was.
func (d *Dev) EnableIntPin(pin gpio.PinIn) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return ErrNotInitialized
	}
	if pin != nil {
		if err := d.notifier.Watch(pin); err != nil {
			return err
		}
	}
	if err := d.r.setIntEnable(true); err != nil {
		if pin != nil {
			return errors.Join(err, d.notifier.Halt())
		}
		return err
	}
	d.intEnabled = true
	return nil
}

// DisableIntPin disables the INT output and stops watching the pin.
func (d *Dev) DisableIntPin() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return ErrNotInitialized
	}
	if err := d.r.setIntEnable(false); err != nil {
		return err
	}
	d.intEnabled = false
	return d.notifier.Halt()
}

// ConfigurePins sets the function of GPIO0 and GPIO1 of the sensor.
func (d *Dev) ConfigurePins(gpio0, gpio1 PinMode) error {
	if gpio0 > PinOutputHigh || gpio1 > PinOutputHigh {
		return fmt.Errorf("tmf8x01: invalid pin mode %d/%d", gpio0, gpio1)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.sess.state == StateUninitialized:
		return ErrNotInitialized
	case d.sess.state.active():
		return ErrMeasurementActive
	}
	return d.r.configureGPIO(byte(gpio0)<<4 | byte(gpio1))
}

// JunctionTemperature returns the die temperature.
func (d *Dev) JunctionTemperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.state == StateUninitialized {
		return 0, ErrNotInitialized
	}
	t, err := d.r.junctionTemperature()
	if err != nil {
		return 0, err
	}
	return physic.ZeroCelsius + physic.Temperature(t)*physic.Celsius, nil
}

// State returns the state of the measurement session.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess.state
}

// StartMeasurement programs the sensor and starts free-running ranging
// cycles. The ranging mode is checked first, then the calibration: without a
// blob set, any mode other than NoCalibration fails with
// ErrMissingCalibration. On failure the session state is unchanged.
func (d *Dev) StartMeasurement(cm CalibrationMode, rm RangingMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sess.canStart(); err != nil {
		return err
	}
	cs, err := d.buildCommandSet(cm, rm)
	if err != nil {
		return err
	}
	blob, ok := d.calib.Get()
	if cm != NoCalibration && !ok {
		return ErrMissingCalibration
	}
	prev := d.sess.state
	d.sess.arm(cm, rm)
	if err := d.program(cs, cm, blob); err != nil {
		d.sess.abort(prev)
		return err
	}
	return nil
}

func (d *Dev) buildCommandSet(cm CalibrationMode, rm RangingMode) (commandSet, error) {
	switch cm {
	case NoCalibration, WithCalibration, WithCalibrationAndAlgoState:
	default:
		return commandSet{}, fmt.Errorf("tmf8x01: invalid calibration mode %d", byte(cm))
	}
	if _, _, err := d.id.Model.Range(rm); err != nil {
		return commandSet{}, err
	}
	cs := d.base
	switch rm {
	case ModeProximity:
		cs.set(cmdSetMode, bitProximity, true)
		cs.set(cmdSetMode, bitDistance, false)
		cs.set(cmdSetMode, bitCombine, false)
	case ModeDistance:
		cs.set(cmdSetMode, bitProximity, false)
		cs.set(cmdSetMode, bitDistance, true)
		cs.set(cmdSetMode, bitCombine, false)
	case ModeCombined:
		cs.set(cmdSetMode, bitProximity, true)
		cs.set(cmdSetMode, bitDistance, true)
		cs.set(cmdSetMode, bitCombine, true)
	}
	cs.set(cmdSetCalib, bitCalib, cm&WithCalibration != 0)
	cs.set(cmdSetCalib, bitAlgo, cm == WithCalibrationAndAlgoState)
	cs.set(cmdSetMode, bitInt, d.intEnabled)
	return cs, nil
}

// program pushes the calibration state and the command set, then waits for
// the sensor to report results.
func (d *Dev) program(cs commandSet, cm CalibrationMode, blob calibration.Data) error {
	if cm != NoCalibration {
		if err := d.r.writeCalibration(blob[:]); err != nil {
			return err
		}
	}
	if cm == WithCalibrationAndAlgoState {
		if err := d.r.writeAlgoState(d.algo); err != nil {
			return err
		}
	}
	if err := d.r.writeCommandSet(cs); err != nil {
		return err
	}
	sleep(startDelay)
	ok, err := d.r.waitContents(contentsResult, startTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Join(ErrStartFailed, d.r.stop())
	}
	r, err := d.r.statusFlags()
	if err != nil {
		return err
	}
	d.notifier.Consume()
	d.sess.measuring(r.tid)
	return nil
}

// StopMeasurement stops the ranging cycles. It can be called in any state
// and more than once.
func (d *Dev) StopMeasurement() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopMeasurement()
}

func (d *Dev) stopMeasurement() error {
	if d.sess.state.active() {
		if err := d.r.stop(); err != nil {
			return err
		}
	}
	d.sess.stopped()
	return nil
}

// IsDataReady returns true when the sensor completed a new ranging cycle. It
// returns true once per cycle; the sample stays available until it is read
// with DistanceMM or ReadSample, or replaced by a newer one. It returns false
// when not measuring.
func (d *Dev) IsDataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isDataReady()
}

func (d *Dev) isDataReady() (bool, error) {
	if d.sess.state != StateMeasuring && d.sess.state != StateSampleReady {
		return false, nil
	}
	r, err := d.r.statusFlags()
	if err != nil {
		return false, err
	}
	if d.sess.observe(r, d.now()) {
		d.notifier.Consume()
		return true, nil
	}
	if d.intEnabled {
		if err := d.r.clearInt(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// DistanceMM returns the distance of the pending sample in millimetres. It
// fails with ErrNoSampleAvailable unless IsDataReady returned true since the
// last read.
func (d *Dev) DistanceMM() (int, error) {
	s, err := d.ReadSample()
	return s.MM, err
}

// ReadSample returns the pending sample. See DistanceMM.
func (d *Dev) ReadSample() (Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readSample()
}

func (d *Dev) readSample() (Sample, error) {
	if d.sess.state != StateSampleReady {
		return Sample{}, ErrNoSampleAvailable
	}
	if d.intEnabled {
		if err := d.r.clearInt(); err != nil {
			return Sample{}, err
		}
	}
	return d.sess.consume()
}

// WaitForSample blocks until a sample is available and returns it. It wakes up
// on the notifier when an interrupt pin is watched and polls the sensor every
// Opts.PollInterval otherwise.
func (d *Dev) WaitForSample(ctx context.Context) (Sample, error) {
	for {
		d.mu.Lock()
		ready, err := d.isDataReady()
		if err == nil && (ready || d.sess.state == StateSampleReady) {
			s, err := d.readSample()
			d.mu.Unlock()
			return s, err
		}
		st := d.sess.state
		d.mu.Unlock()
		if err != nil {
			return Sample{}, err
		}
		if st != StateMeasuring {
			return Sample{}, ErrNoSampleAvailable
		}
		select {
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		case <-d.notifier.C():
		case <-time.After(d.opts.PollInterval):
		}
	}
}

// SenseContinuous returns a channel that receives every sample of the
// running measurement. The sensor is polled every interval, or sooner when the
// notifier signals. The channel is closed once the measurement stops. It is the
// caller's responsibility to call Halt when done.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Sample, error) {
	if interval <= 0 {
		return nil, errors.New("tmf8x01: invalid interval")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("tmf8x01: SenseContinuous already running")
	}
	if !d.sess.state.active() {
		return nil, ErrNoSampleAvailable
	}
	ch := make(chan Sample, 16)
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go d.sense(interval, ch, d.stop)
	return ch, nil
}

func (d *Dev) sense(interval time.Duration, ch chan<- Sample, stop <-chan struct{}) {
	defer d.wg.Done()
	defer close(ch)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		case <-d.notifier.C():
		}
		d.mu.Lock()
		if !d.sess.state.active() {
			if d.stop == stop {
				d.stop = nil
			}
			d.mu.Unlock()
			return
		}
		ready, err := d.isDataReady()
		var s Sample
		if err == nil && ready {
			s, err = d.readSample()
		}
		d.mu.Unlock()
		if err != nil {
			d.opts.Debug("tmf8x01: %v", err)
			continue
		}
		if !ready {
			continue
		}
		select {
		case ch <- s:
		case <-stop:
			return
		}
	}
}

// Halt stops SenseContinuous, the interrupt pin watcher and the measurement.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	err := d.notifier.Halt()
	return errors.Join(err, d.StopMeasurement())
}
