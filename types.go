// Copyright the irrigate authors.
// This file is part of irrigate.
//
// irrigate is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package irrigate implements the scientific decision engine for an
// embedded irrigation controller: reference evapotranspiration,
// crop-coefficient interpolation, soil water balance, effective
// precipitation partitioning, volume synthesis, cycle-and-soak
// scheduling, and the AUTO irrigation decision loop.
package irrigate

import "sync"

// AutomationMode is the per-channel automation level.
type AutomationMode int

const (
	ModeOff AutomationMode = iota
	ModeQuality
	ModeEco
)

// CoverageKind distinguishes area-based from plant-count-based channels.
type CoverageKind int

const (
	CoverageArea CoverageKind = iota
	CoveragePlantCount
)

// Coverage describes how a channel's wetted footprint is specified.
type Coverage struct {
	Kind       CoverageKind
	AreaM2     float64 // valid when Kind == CoverageArea
	PlantCount int     // valid when Kind == CoveragePlantCount
}

// TextureClass is an enumerated soil texture classification, replacing
// the reference database's free-text texture descriptor. It is computed
// once, when a SoilEntry is loaded, never re-matched per decision.
type TextureClass int

const (
	TextureLoam TextureClass = iota
	TextureSand
	TextureClay
)

// MethodClass is an enumerated irrigation method classification,
// replacing the reference database's free-text method descriptor.
type MethodClass int

const (
	MethodSprinkler MethodClass = iota
	MethodDrip
	MethodMicro
	MethodBubbler
)

// EnvReading is a single environmental sample with per-field validity
// flags. Invalid fields must never be read directly by a consumer;
// callers obtain a validated reading via ValidateEnv, which substitutes
// conservative defaults and never silently reorders temperatures.
type EnvReading struct {
	Timestamp int64 // unix seconds, wall clock

	TempMinC  float64
	TempMeanC float64
	TempMaxC  float64
	TempValid bool

	HumidityPct float64
	HumidValid  bool

	PressureHPa float64
	PressValid  bool

	Rain24hMM float64
	RainValid bool

	// SatVaporKPa and ActVaporKPa are derived fields, populated by
	// ValidateEnv from temperature and humidity; callers may leave them
	// zero on input.
	SatVaporKPa float64
	ActVaporKPa float64

	// AntecedentMoisturePct is the 0-100 antecedent soil moisture
	// estimate consumed by the precipitation partitioner (C5). It has
	// no validity flag: a missing sensor reports 50 (neutral).
	AntecedentMoisturePct float64

	DayOfYear int // 1..366
}

// PlantEntry is a read-only reference record for one plant type.
// Stage durations are in days; Kc and fraction fields are stored
// scaled by 1000 on disk (see scaledPlant in reference.go) and decoded here as
// plain floats for the API, per the project's scaled-integer
// persistence convention.
type PlantEntry struct {
	Name string

	StageInitDays int
	StageDevDays  int
	StageMidDays  int
	StageEndDays  int

	KcIni float64
	KcMid float64
	KcEnd float64

	RootDepthMinM float64
	RootDepthMaxM float64

	DepletionFractionP float64 // MAD fraction p, base (unstressed)
	CanopyCoverMax      float64

	RowSpacingM   float64
	PlantSpacingM float64
	DensityPerM2  float64

	OptimumTempMinC float64
	OptimumTempMaxC float64
}

// TotalSeasonDays is the sum of the four phenological stage durations.
func (p *PlantEntry) TotalSeasonDays() int {
	return p.StageInitDays + p.StageDevDays + p.StageMidDays + p.StageEndDays
}

// SoilEntry is a read-only reference record for one soil type.
type SoilEntry struct {
	Name             string
	AWCMMPerM        float64
	InfiltrationMMPH float64
	Texture          TextureClass
}

// MethodEntry is a read-only reference record for one irrigation method.
type MethodEntry struct {
	Name                  string
	EfficiencyPct         float64 // 0-1
	DistributionUniformity float64 // 0-1
	WettingFraction       float64 // 0-1
	AppRateMinMMPH        float64
	AppRateMaxMMPH        float64
	Class                 MethodClass
}

// AppRateMid returns the midpoint of the method's application-rate band.
func (m *MethodEntry) AppRateMid() float64 {
	return (m.AppRateMinMMPH + m.AppRateMaxMMPH) / 2
}

// WaterBalance is the per-channel running soil-water-balance state.
// Its deficit changes only through Accumulate (C6), which the daily,
// realtime, missed-days and apply-irrigation paths all call; the
// engine sets the AWC/RAW, flag and timestamp fields directly after
// each update.
type WaterBalance struct {
	RootZoneAWCmm  float64
	WettedAWCmm    float64
	RAWmm          float64
	DeficitMM      float64
	EffectiveRainMM float64
	IrrigationNeeded bool
	LastUpdateMonoMS uint64
}

// ChannelState is the per-channel configuration and running state of
// one irrigation channel.
type ChannelState struct {
	mu sync.Mutex

	ID int

	LatitudeDeg     float64
	SunExposurePct  float64
	Mode            AutomationMode
	Coverage        Coverage

	PlantIndex  int
	SoilIndex   int
	MethodIndex int
	RefsValid   bool

	PlantedAtUnix  int64
	CachedDAP      int
	MaxVolumeL     float64 // 0 means unlimited
	HasMaxVolume   bool

	LastCalcMonoMS uint64

	Balance WaterBalance
}

// Lock acquires the channel's logical lock for the duration of a
// decision; Unlock releases it. The engine holds this for the full
// span of calculate/daily_auto_update/realtime_update_deficit calls
// against this channel, matching the "per-channel logical lock" of the
// concurrency model.
func (c *ChannelState) Lock()   { c.mu.Lock() }
func (c *ChannelState) Unlock() { c.mu.Unlock() }

// RecoveryLevel records which rung of the degradation ladder produced
// a result.
type RecoveryLevel int

const (
	RecoveryFull RecoveryLevel = iota
	RecoverySensorFallback
	RecoverySimplified
	RecoveryDefaults
	RecoveryManual
)

func (r RecoveryLevel) String() string {
	switch r {
	case RecoveryFull:
		return "FULL"
	case RecoverySensorFallback:
		return "SENSOR_FALLBACK"
	case RecoverySimplified:
		return "SIMPLIFIED"
	case RecoveryDefaults:
		return "DEFAULTS"
	case RecoveryManual:
		return "MANUAL_MODE"
	default:
		return "UNKNOWN"
	}
}

// IrrigationResult is the output of calculate_irrigation.
type IrrigationResult struct {
	NetDepthMM     float64
	GrossDepthMM   float64
	VolumeL        float64
	PerPlantVolL   float64 // only meaningful for plant-count coverage
	CycleCount     int
	CycleDurationMin float64
	SoakIntervalMin  float64
	VolumeLimited    bool
	Recovery         RecoveryLevel
}

// Decision is the output of daily_auto_update.
type Decision struct {
	ShouldWater     bool
	VolumeL         float64
	DeficitMM       float64
	RAWmm           float64
	DailyETcMM      float64
	EffectiveRainMM float64
	StressFactor    float64
	Recovery        RecoveryLevel
}

// SolarTimes holds the sunrise/sunset result of the astronomical model.
type SolarTimes struct {
	SunriseMin      int // minutes after local midnight
	SunsetMin       int
	IsPolarDay      bool
	IsPolarNight    bool
	CalculationValid bool
}

// ScheduleEvent anchors a schedule start time to a solar event.
type ScheduleEvent int

const (
	EventSunrise ScheduleEvent = iota
	EventSunset
)
