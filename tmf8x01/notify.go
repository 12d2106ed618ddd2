// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmf8x01

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgeTimeout bounds each WaitForEdge call so the watcher notices Halt.
const edgeTimeout = 100 * time.Millisecond

// Notifier turns edges on the sensor interrupt line into a single pending
// "sample ready" flag. Edges arriving before the flag is consumed collapse into
// one notification.
//
// Signal may be called from any goroutine, typically a host interrupt
// callback. Consume and C are meant for the goroutine driving the Dev.
type Notifier struct {
	pending chan struct{}

	mu   sync.Mutex
	pin  gpio.PinIn
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewNotifier returns a Notifier with no pending notification.
func NewNotifier() *Notifier {
	return &Notifier{pending: make(chan struct{}, 1)}
}

// Signal records one notification. It never blocks.
func (n *Notifier) Signal() {
	select {
	case n.pending <- struct{}{}:
	default:
	}
}

// Consume reads and clears the pending notification.
func (n *Notifier) Consume() bool {
	select {
	case <-n.pending:
		return true
	default:
		return false
	}
}

// C returns a channel that receives when a notification is pending.
// Receiving from it consumes the notification.
func (n *Notifier) C() <-chan struct{} {
	return n.pending
}

// Watch configures pin as a pulled-up input with falling edge detection and
// signals on every edge until Halt is called. The sensor drives INT low when
// a result is available.
func (n *Notifier) Watch(pin gpio.PinIn) error {
	if pin == nil {
		return errors.New("tmf8x01: nil interrupt pin")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop != nil {
		return fmt.Errorf("tmf8x01: already watching %s", n.pin)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("tmf8x01: configuring interrupt pin %s: %w", pin, err)
	}
	n.pin = pin
	n.stop = make(chan struct{})
	n.wg.Add(1)
	go n.watch(pin, n.stop)
	return nil
}

func (n *Notifier) watch(pin gpio.PinIn, stop <-chan struct{}) {
	defer n.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}
		if pin.WaitForEdge(edgeTimeout) {
			n.Signal()
		}
	}
}

// Halt stops watching the pin and disables its edge detection. A pending
// notification is kept.
func (n *Notifier) Halt() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop == nil {
		return nil
	}
	close(n.stop)
	n.wg.Wait()
	n.stop = nil
	err := n.pin.In(gpio.PullUp, gpio.NoEdge)
	n.pin = nil
	return err
}
