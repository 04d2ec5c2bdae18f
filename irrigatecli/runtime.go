// Copyright the irrigate authors.
// This file is part of irrigate.
//
// irrigate is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package irrigatecli wires the irrigate engine to a cobra command-line
// front end. It is kept out of the irrigate package itself so the core
// engine never depends on flag parsing or terminal output.
package irrigatecli

import (
	"fmt"
	"time"

	"github.com/fieldctl/irrigate"
)

// singleChannelRegistry is a ChannelRegistry over exactly one channel,
// built from command-line flags; the irrigated binary is a single-zone
// reference implementation, not the full multi-channel controller
// firmware.
type singleChannelRegistry struct {
	ch *irrigate.ChannelState
}

func (r *singleChannelRegistry) GetChannel(id int) (*irrigate.ChannelState, error) {
	if id != r.ch.ID {
		return nil, fmt.Errorf("irrigatecli: no such channel %d", id)
	}
	return r.ch, nil
}

func (r *singleChannelRegistry) ChannelIDs() []int { return []int{r.ch.ID} }

// staticEnvSensor reports a single, fixed EnvReading supplied on the
// command line; a real controller would wire this to an actual sensor
// bus instead.
type staticEnvSensor struct {
	reading irrigate.EnvReading
}

func (s staticEnvSensor) ReadEnv() (irrigate.EnvReading, error) { return s.reading, nil }

// millisClock is a MonotonicClock backed by time.Since against process
// start, matching the guarantee the engine's cache and deficit
// accumulator depend on: non-wrapping and unaffected by wall-clock
// adjustments.
type millisClock struct {
	start time.Time
}

func newMillisClock() millisClock { return millisClock{start: time.Now()} }

func (c millisClock) NowMS() uint64 { return uint64(time.Since(c.start).Milliseconds()) }

// systemWallClock is a WallClock backed by the system clock.
type systemWallClock struct{}

func (systemWallClock) NowUnixUTC() uint32 { return uint32(time.Now().UTC().Unix()) }

func (systemWallClock) DayOfYear(unixUTC uint32) int {
	return time.Unix(int64(unixUTC), 0).UTC().YearDay()
}
