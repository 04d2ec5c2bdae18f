package irrigate

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// Constants centralises every tunable the engine consults: cache
// tolerances, heuristic ET coefficients, Penman-Monteith assumptions,
// and clamp ranges. A zero Constants is not usable; build
// one with DefaultConstants and optionally layer a TOML file and
// environment variables on top with LoadConstants.
type Constants struct {
	// Cache tolerances and ages.
	CacheET0TempToleranceC   float64
	CacheET0HumidTolerancePct float64
	CacheET0PressToleranceHPa float64
	CacheET0LatToleranceRad  float64
	CacheET0MaxAgeSec        int64
	CacheKcMaxAgeSec         int64
	CacheWBRootDepthToleranceM float64
	CacheWBMaxAgeSec         int64
	CacheHitRatioFloor       float64
	CacheHitRatioMinSamples  int64

	// Heuristic (SIMPLIFIED) ET coefficients.
	HeuristicETCoeff      float64 // 0.045
	HeuristicETTempOffset float64 // +20 C
	HeuristicVPDFloorKPa  float64 // 0.05 kPa
	HeuristicETMin        float64 // 0.5 mm/day
	HeuristicETMax        float64 // 6.0 mm/day

	// Penman-Monteith assumed constants.
	AssumedWindMS       float64 // 2.0
	AssumedSunshineRatio float64 // 0.50
	AssumedAlbedo       float64 // 0.23
	StandardPressureKPa float64 // 101.3

	ET0HardCapMMPerDay float64 // 15

	KcClampMin       float64 // 0.1
	KcClampMax       float64 // 2.0
	KcSimplifiedMin  float64 // 0.3
	KcSimplifiedMax  float64 // 1.5; the one upper clamp SimplifiedKc uses on every path

	// RootDepthZeroSeasonFallback defaults to true. RootDepthM does not
	// read it: a zero total season length always returns depth_min.
	RootDepthZeroSeasonFallback bool

	ChannelCount int
}

// DefaultConstants returns the documented default tunables.
func DefaultConstants() *Constants {
	return &Constants{
		CacheET0TempToleranceC:     0.5,
		CacheET0HumidTolerancePct:  5,
		CacheET0PressToleranceHPa:  2,
		CacheET0LatToleranceRad:    0.01,
		CacheET0MaxAgeSec:          3600,
		CacheKcMaxAgeSec:           3600,
		CacheWBRootDepthToleranceM: 0.01,
		CacheWBMaxAgeSec:           900,
		CacheHitRatioFloor:         0.5,
		CacheHitRatioMinSamples:    100,

		HeuristicETCoeff:      0.045,
		HeuristicETTempOffset: 20,
		HeuristicVPDFloorKPa:  0.05,
		HeuristicETMin:        0.5,
		HeuristicETMax:        6.0,

		AssumedWindMS:        2.0,
		AssumedSunshineRatio: 0.50,
		AssumedAlbedo:        0.23,
		StandardPressureKPa:  101.3,

		ET0HardCapMMPerDay: 15,

		KcClampMin:      0.1,
		KcClampMax:      2.0,
		KcSimplifiedMin: 0.3,
		KcSimplifiedMax: 1.5,

		RootDepthZeroSeasonFallback: true,

		ChannelCount: 8,
	}
}

// tomlConstants mirrors every Constants field except
// RootDepthZeroSeasonFallback for decoding; kept separate so Constants
// itself carries no struct tags.
type tomlConstants struct {
	CacheET0TempToleranceC      *float64 `toml:"cache_et0_temp_tolerance_c"`
	CacheET0HumidTolerancePct   *float64 `toml:"cache_et0_humid_tolerance_pct"`
	CacheET0PressToleranceHPa   *float64 `toml:"cache_et0_press_tolerance_hpa"`
	CacheET0LatToleranceRad     *float64 `toml:"cache_et0_lat_tolerance_rad"`
	CacheET0MaxAgeSec           *int64   `toml:"cache_et0_max_age_sec"`
	CacheKcMaxAgeSec            *int64   `toml:"cache_kc_max_age_sec"`
	CacheWBRootDepthToleranceM  *float64 `toml:"cache_wb_root_depth_tolerance_m"`
	CacheWBMaxAgeSec            *int64   `toml:"cache_wb_max_age_sec"`
	CacheHitRatioFloor          *float64 `toml:"cache_hit_ratio_floor"`
	CacheHitRatioMinSamples     *int64   `toml:"cache_hit_ratio_min_samples"`
	HeuristicETCoeff            *float64 `toml:"heuristic_et_coeff"`
	HeuristicETTempOffset       *float64 `toml:"heuristic_et_temp_offset"`
	HeuristicVPDFloorKPa        *float64 `toml:"heuristic_vpd_floor_kpa"`
	HeuristicETMin              *float64 `toml:"heuristic_et_min"`
	HeuristicETMax              *float64 `toml:"heuristic_et_max"`
	AssumedWindMS               *float64 `toml:"assumed_wind_ms"`
	AssumedSunshineRatio        *float64 `toml:"assumed_sunshine_ratio"`
	AssumedAlbedo               *float64 `toml:"assumed_albedo"`
	StandardPressureKPa         *float64 `toml:"standard_pressure_kpa"`
	ET0HardCapMMPerDay          *float64 `toml:"et0_hard_cap_mm_per_day"`
	KcClampMin                  *float64 `toml:"kc_clamp_min"`
	KcClampMax                  *float64 `toml:"kc_clamp_max"`
	KcSimplifiedMin             *float64 `toml:"kc_simplified_min"`
	KcSimplifiedMax             *float64 `toml:"kc_simplified_max"`
	ChannelCount                *int     `toml:"channel_count"`
}

// LoadConstants returns the default constants, optionally overridden
// by the TOML document at path (pass "" to skip the file), then by
// any IRRIGATE_* environment variables present. This is a layered
// file-then-env configuration, scaled down for a library package that
// doesn't need a full viper dependency.
func LoadConstants(path string) (*Constants, error) {
	c := DefaultConstants()
	if path != "" {
		var overlay tomlConstants
		if _, err := toml.DecodeFile(path, &overlay); err != nil {
			return nil, fmt.Errorf("irrigate.LoadConstants: %v", err)
		}
		applyOverlay(c, &overlay)
	}
	applyEnvOverrides(c)
	return c, nil
}

func applyOverlay(c *Constants, o *tomlConstants) {
	setF(&c.CacheET0TempToleranceC, o.CacheET0TempToleranceC)
	setF(&c.CacheET0HumidTolerancePct, o.CacheET0HumidTolerancePct)
	setF(&c.CacheET0PressToleranceHPa, o.CacheET0PressToleranceHPa)
	setF(&c.CacheET0LatToleranceRad, o.CacheET0LatToleranceRad)
	setI(&c.CacheET0MaxAgeSec, o.CacheET0MaxAgeSec)
	setI(&c.CacheKcMaxAgeSec, o.CacheKcMaxAgeSec)
	setF(&c.CacheWBRootDepthToleranceM, o.CacheWBRootDepthToleranceM)
	setI(&c.CacheWBMaxAgeSec, o.CacheWBMaxAgeSec)
	setF(&c.CacheHitRatioFloor, o.CacheHitRatioFloor)
	setI(&c.CacheHitRatioMinSamples, o.CacheHitRatioMinSamples)
	setF(&c.HeuristicETCoeff, o.HeuristicETCoeff)
	setF(&c.HeuristicETTempOffset, o.HeuristicETTempOffset)
	setF(&c.HeuristicVPDFloorKPa, o.HeuristicVPDFloorKPa)
	setF(&c.HeuristicETMin, o.HeuristicETMin)
	setF(&c.HeuristicETMax, o.HeuristicETMax)
	setF(&c.AssumedWindMS, o.AssumedWindMS)
	setF(&c.AssumedSunshineRatio, o.AssumedSunshineRatio)
	setF(&c.AssumedAlbedo, o.AssumedAlbedo)
	setF(&c.StandardPressureKPa, o.StandardPressureKPa)
	setF(&c.ET0HardCapMMPerDay, o.ET0HardCapMMPerDay)
	setF(&c.KcClampMin, o.KcClampMin)
	setF(&c.KcClampMax, o.KcClampMax)
	setF(&c.KcSimplifiedMin, o.KcSimplifiedMin)
	setF(&c.KcSimplifiedMax, o.KcSimplifiedMax)
	if o.ChannelCount != nil {
		c.ChannelCount = *o.ChannelCount
	}
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int64, src *int64) {
	if src != nil {
		*dst = *src
	}
}

// applyEnvOverrides lists the environment variable name for each
// overridable field, keeping the override table explicit rather than
// reflecting over struct tags.
func applyEnvOverrides(c *Constants) {
	if v, ok := os.LookupEnv("IRRIGATE_CHANNEL_COUNT"); ok {
		c.ChannelCount = cast.ToInt(v)
	}
	if v, ok := os.LookupEnv("IRRIGATE_ET0_HARD_CAP"); ok {
		c.ET0HardCapMMPerDay = cast.ToFloat64(v)
	}
	if v, ok := os.LookupEnv("IRRIGATE_ASSUMED_WIND_MS"); ok {
		c.AssumedWindMS = cast.ToFloat64(v)
	}
	if v, ok := os.LookupEnv("IRRIGATE_CACHE_HIT_RATIO_FLOOR"); ok {
		c.CacheHitRatioFloor = cast.ToFloat64(v)
	}
}
