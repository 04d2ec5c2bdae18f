package irrigate

// This file defines the narrow collaborator interfaces the engine
// consumes. Each is a small, data-in/data-out contract, so the core
// package never depends on any concrete backend.

// PlantTable is the read-only plant reference database.
type PlantTable interface {
	PlantByIndex(i int) (*PlantEntry, bool)
}

// SoilTable is the read-only soil reference database.
type SoilTable interface {
	SoilByIndex(i int) (*SoilEntry, bool)
}

// MethodTable is the read-only irrigation-method reference database.
type MethodTable interface {
	MethodByIndex(i int) (*MethodEntry, bool)
}

// ChannelRegistry provides mutable access to channel configuration and
// state, keyed by channel id.
type ChannelRegistry interface {
	GetChannel(id int) (*ChannelState, error)
	ChannelIDs() []int
}

// EnvSensor reads the current environmental sample.
type EnvSensor interface {
	ReadEnv() (EnvReading, error)
}

// RainHistory reports accumulated rainfall.
type RainHistory interface {
	Last24hMM() float32
}

// MonotonicClock is a non-wrapping monotonic millisecond clock.
type MonotonicClock interface {
	NowMS() uint64
}

// WallClock provides wall-clock time and the day of year for a
// timestamp.
type WallClock interface {
	NowUnixUTC() uint32
	DayOfYear(unixUTC uint32) int
}

// Storage persists a channel's water balance.
type Storage interface {
	SaveChannelWaterBalance(id int, wb WaterBalance) error
}

// Logger is a leveled text sink; it never carries semantic state and
// must not influence control flow beyond what the engine already
// decided.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
