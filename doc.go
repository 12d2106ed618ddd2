// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tof is a container for time-of-flight sensor drivers and the tools
// around them.
//
// The tmf8x01 package drives the ams TMF8801 and TMF8701. The tmf8x01
// command reads them from a host with periph.io drivers.
package tof
