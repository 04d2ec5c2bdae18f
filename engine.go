package irrigate

import (
	"errors"
	"sync/atomic"

	"github.com/fieldctl/irrigate/internal/precipitation"
)

// This file implements the decision engine: the state machine that
// orchestrates solar, atmosphere, ET0, phenology, precipitation,
// water-balance, volume, and cycle planning per channel, the recovery
// ladder, the AUTO daily update, the realtime fractional-ET
// accumulator, missed-days recovery, and the apply-irrigation hook.

// Engine is the single value through which every entry point is
// reached; it owns the cache and the process-wide resource-constrained
// flag, and holds narrow collaborator interfaces rather than reading
// ambient globals.
type Engine struct {
	Constants *Constants
	Cache     *Cache

	Plants  PlantTable
	Soils   SoilTable
	Methods MethodTable

	Channels ChannelRegistry
	Env      EnvSensor
	Clock    MonotonicClock
	Wall     WallClock
	Storage  Storage
	Log      Logger

	resourceConstrained atomic.Bool
}

// NewEngine wires an Engine from its collaborators. Log defaults to a
// no-op sink if nil.
func NewEngine(constants *Constants, plants PlantTable, soils SoilTable, methods MethodTable,
	channels ChannelRegistry, env EnvSensor, clock MonotonicClock, wall WallClock, storage Storage, log Logger) *Engine {
	if log == nil {
		log = NoopLogger{}
	}
	return &Engine{
		Constants: constants,
		Cache:     NewCache(constants),
		Plants:    plants,
		Soils:     soils,
		Methods:   methods,
		Channels:  channels,
		Env:       env,
		Clock:     clock,
		Wall:      wall,
		Storage:   storage,
		Log:       log,
	}
}

// InitCache implements init_cache.
func (e *Engine) InitCache() error {
	e.Cache = NewCache(e.Constants)
	return nil
}

// SetCacheEnabled implements set_cache_enabled.
func (e *Engine) SetCacheEnabled(enabled bool) { e.Cache.SetEnabled(enabled) }

// ClearCache implements clear_cache.
func (e *Engine) ClearCache() { e.Cache.Clear() }

// ClearChannelCache implements clear_channel_cache.
func (e *Engine) ClearChannelCache(channelID int) { e.Cache.ClearChannel(channelID) }

// GetCacheStats implements get_cache_stats.
func (e *Engine) GetCacheStats() Stats { return e.Cache.Stats() }

// SetResourceConstrained implements set_resource_constrained; entering
// constrained mode clears and disables the cache.
func (e *Engine) SetResourceConstrained(constrained bool) {
	e.resourceConstrained.Store(constrained)
	if constrained {
		e.Cache.SetEnabled(false)
	} else {
		e.Cache.SetEnabled(true)
	}
}

// IsResourceConstrained implements is_resource_constrained.
func (e *Engine) IsResourceConstrained() bool { return e.resourceConstrained.Load() }

// validatedEnv carries a sanitized, always-usable EnvReading plus flags
// recording which fields were trustworthy enough to use on the FULL
// recovery rung.
type validatedEnv struct {
	raw                           EnvReading
	tempOK, humidOK, pressOK, rainOK bool
	usedFallback                 bool
}

// ValidateEnv sanitizes an EnvReading. A reading whose temperatures
// are out of order is never silently swapped: it is treated as
// temperature-invalid, which escalates the decision past the FULL
// recovery rung rather than risking a mismatched temp_mean.
func ValidateEnv(env EnvReading) validatedEnv {
	ve := validatedEnv{raw: env}

	tempOK := env.TempValid &&
		env.TempMinC <= env.TempMeanC && env.TempMeanC <= env.TempMaxC
	if !tempOK {
		ve.raw.TempMinC, ve.raw.TempMeanC, ve.raw.TempMaxC = 15, 20, 25
		ve.usedFallback = true
	}
	ve.tempOK = tempOK

	humidOK := env.HumidValid && env.HumidityPct >= 0 && env.HumidityPct <= 100
	if !humidOK {
		ve.raw.HumidityPct = 50
		ve.usedFallback = true
	}
	ve.humidOK = humidOK

	pressOK := env.PressValid && env.PressureHPa >= 800 && env.PressureHPa <= 1200
	if !pressOK {
		ve.raw.PressureHPa = 1013
		ve.usedFallback = true
	}
	ve.pressOK = pressOK

	rainOK := env.RainValid && env.Rain24hMM >= 0
	if !rainOK {
		ve.raw.Rain24hMM = 0
		ve.usedFallback = true
	}
	ve.rainOK = rainOK

	if ve.raw.AntecedentMoisturePct <= 0 {
		ve.raw.AntecedentMoisturePct = 50
	}
	if ve.raw.DayOfYear <= 0 {
		ve.raw.DayOfYear = 182
	}

	ve.raw.SatVaporKPa = SaturationVaporPressureKPa(ve.raw.TempMeanC)
	ve.raw.ActVaporKPa = ActualVaporPressureKPa(ve.raw.TempMinC, ve.raw.TempMaxC, ve.raw.HumidityPct)
	return ve
}

// daysAfterPlanting derives DAP from the channel's planting timestamp
// and the current wall-clock time.
func daysAfterPlanting(ch *ChannelState, wall WallClock) int {
	now := wall.NowUnixUTC()
	if ch.PlantedAtUnix <= 0 || int64(now) < ch.PlantedAtUnix {
		return 0
	}
	return int((int64(now) - ch.PlantedAtUnix) / 86400)
}

// estimateET0 selects exactly one ET0 estimator: Penman-Monteith when
// humidity and pressure are both trustworthy, otherwise
// Hargreaves-Samani, and the heuristic estimator only when Ra is
// undefined (polar conditions); never more than one within the same
// decision. It does not check temperature validity itself: it reads
// whatever temperatures ValidateEnv left in place.
func estimateET0(ve validatedEnv, latDeg float64, c *Constants) float64 {
	if ve.humidOK && ve.pressOK {
		if et0, ok := PenmanMonteithET0(ve.raw, latDeg, ve.raw.DayOfYear, c); ok {
			return et0
		}
	}
	if et0, ok := HargreavesSamaniET0(ve.raw.TempMinC, ve.raw.TempMeanC, ve.raw.TempMaxC, latDeg, ve.raw.DayOfYear, c); ok {
		return et0
	}
	return HeuristicET0(ve.raw.TempMeanC, c)
}

// plantClassFor buckets a channel into a coarse plant class for the
// SIMPLIFIED/DEFAULTS rungs, which by design do not consult the
// reference tables. The channel's plant index is reused as a stable
// bucket key rather than a real lookup, since on these rungs the
// reference database itself may be the thing that's missing.
func plantClassFor(ch *ChannelState) PlantClass {
	if ch.PlantIndex < 0 {
		return PlantClassVegetable
	}
	return PlantClass(ch.PlantIndex % 4)
}

func defaultsLPerPlant(c PlantClass) float64 {
	switch c {
	case PlantClassVegetable:
		return 1.5
	case PlantClassShrub:
		return 2.5
	case PlantClassTree:
		return 5.0
	case PlantClassTurf:
		return 0.5
	default:
		return 1.0
	}
}

// simplifiedVolume derives a coarse volume from a one-day ETc estimate
// assuming a generic 75%-efficient method, for the SIMPLIFIED recovery
// rung.
func simplifiedVolume(ch *ChannelState, etc float64) (IrrigationResult, bool) {
	const genericEfficiency = 0.75
	net := etc
	gross := net / genericEfficiency

	var areaM2 float64
	switch ch.Coverage.Kind {
	case CoverageArea:
		areaM2 = ch.Coverage.AreaM2
	case CoveragePlantCount:
		areaM2 = float64(ch.Coverage.PlantCount) * 1.0
	}
	if areaM2 <= 0 {
		return IrrigationResult{}, false
	}

	volumeL := gross * areaM2
	if volumeL < 0.5 {
		volumeL = 0
	}
	return IrrigationResult{
		NetDepthMM:       net,
		GrossDepthMM:     gross,
		VolumeL:          volumeL,
		CycleCount:       1,
		CycleDurationMin: 10,
		Recovery:         RecoverySimplified,
	}, true
}

// defaultsVolume derives a volume from the plant-class-only table,
// used only once SIMPLIFIED itself cannot produce a usable area.
func defaultsVolume(class PlantClass, plantCount int) (IrrigationResult, bool) {
	perPlant := defaultsLPerPlant(class)
	if plantCount <= 0 {
		plantCount = 1
	}
	vol := perPlant * float64(plantCount)
	if vol <= 0 {
		return IrrigationResult{}, false
	}
	return IrrigationResult{
		VolumeL:          vol,
		CycleCount:       1,
		CycleDurationMin: 10,
		Recovery:         RecoveryDefaults,
	}, true
}

func (e *Engine) simplifiedPath(ch *ChannelState, ve validatedEnv) (*IrrigationResult, error) {
	et0 := HeuristicET0(ve.raw.TempMeanC, e.Constants)
	class := plantClassFor(ch)
	kc := SimplifiedKc(class, e.Constants)
	etc := et0 * kc

	if res, ok := simplifiedVolume(ch, etc); ok {
		return &res, nil
	}
	if res, ok := defaultsVolume(class, ch.Coverage.PlantCount); ok {
		return &res, nil
	}
	return nil, NewError("CalculateIrrigation", ErrHardware, RecoveryManual,
		errors.New("no recovery rung produced a usable volume"))
}

// totalAreaM2 returns the channel's total wetted-zone footprint for
// converting an applied volume back into a depth.
func totalAreaM2(cov Coverage, plant *PlantEntry) float64 {
	switch cov.Kind {
	case CoverageArea:
		return cov.AreaM2
	case CoveragePlantCount:
		return areaPerPlantM2(plant) * float64(cov.PlantCount)
	}
	return 0
}

// pipelineOutput carries the full-path result plus the intermediates
// DailyAutoUpdate needs to build a Decision.
type pipelineOutput struct {
	result       IrrigationResult
	dailyETc     float64
	effectiveRain float64
	stressFactor float64
	balance      WaterBalance
}

// fullPath runs the full solar/atmosphere/ET0/phenology/precipitation/
// water-balance/volume/cycle pipeline for one channel and mutates its
// WaterBalance. Returns (nil, err) only on a ConfigMissing condition or
// an InvalidData condition (temperature unusable), both of which the
// caller should treat as "fall through to SIMPLIFIED".
func (e *Engine) fullPath(ch *ChannelState, ve validatedEnv, nowMS uint64) (*pipelineOutput, error) {
	plant, okP := e.Plants.PlantByIndex(ch.PlantIndex)
	soil, okS := e.Soils.SoilByIndex(ch.SoilIndex)
	method, okM := e.Methods.MethodByIndex(ch.MethodIndex)
	if !okP || !okS || !okM {
		return nil, NewError("CalculateIrrigation", ErrConfigMissing, RecoveryFull, nil)
	}
	if !ve.tempOK {
		return nil, NewError("CalculateIrrigation", ErrInvalidData, RecoveryFull, nil)
	}

	dap := daysAfterPlanting(ch, e.Wall)
	totalDays := plant.TotalSeasonDays()

	et0Key := et0CacheKey{
		tempMinC: ve.raw.TempMinC, tempMaxC: ve.raw.TempMaxC,
		humidityPct: ve.raw.HumidityPct, pressureHPa: ve.raw.PressureHPa,
		latRad: ch.LatitudeDeg * 0.017453292519943295, dayOfYear: ve.raw.DayOfYear,
	}
	et0, hit := e.Cache.LookupET0(ch.ID, et0Key, nowMS)
	if !hit {
		et0 = estimateET0(ve, ch.LatitudeDeg, e.Constants)
		e.Cache.StoreET0(ch.ID, et0Key, et0, nowMS)
	}

	kcKey := kcCacheKey{plantIndex: ch.PlantIndex, dap: dap}
	kc, hit := e.Cache.LookupKc(ch.ID, kcKey, nowMS)
	if !hit {
		_, kc = StageAndKc(plant, dap, e.Constants)
		e.Cache.StoreKc(ch.ID, kcKey, kc, nowMS)
	}

	rootDepth := RootDepthM(plant, dap, totalDays)

	wbKey := wbCacheKey{channelID: ch.ID, plantIndex: ch.PlantIndex, soilIndex: ch.SoilIndex, methodIndex: ch.MethodIndex, rootDepthM: rootDepth}
	staticWB, hit := e.Cache.LookupWaterBalance(ch.ID, wbKey, nowMS)
	var stressFactor float64
	if !hit {
		staticWB, stressFactor = DeriveBalance(soil, plant, method, rootDepth, ve.raw.TempMaxC, ve.raw.HumidityPct)
		e.Cache.StoreWaterBalance(ch.ID, wbKey, staticWB, nowMS)
	} else {
		_, stressFactor = StressAdjustedP(plant.DepletionFractionP, ve.raw.TempMaxC, plant.OptimumTempMaxC, ve.raw.HumidityPct)
	}

	etc := et0 * kc

	precip := precipitationPartition(ve.raw.Rain24hMM, ve.raw.AntecedentMoisturePct, ve.raw.TempMeanC, soil)

	wb := ch.Balance
	wb.RootZoneAWCmm = staticWB.RootZoneAWCmm
	wb.WettedAWCmm = staticWB.WettedAWCmm
	wb.RAWmm = staticWB.RAWmm
	wb.Accumulate(etc, precip, 0)
	wb.EffectiveRainMM = precip
	wb.IrrigationNeeded = EvaluateTrigger(wb)
	wb.LastUpdateMonoMS = nowMS

	out := &pipelineOutput{dailyETc: etc, effectiveRain: precip, stressFactor: stressFactor, balance: wb}

	if !wb.IrrigationNeeded {
		out.result = IrrigationResult{Recovery: RecoveryFull}
		return out, nil
	}

	volIn := VolumeInputs{
		DeficitMM: wb.DeficitMM, Method: method, Plant: plant, Coverage: ch.Coverage,
		Eco: ch.Mode == ModeEco, HasMaxVol: ch.HasMaxVolume, MaxVolumeL: ch.MaxVolumeL,
	}
	result := SynthesizeVolume(volIn)
	cyclePlan := PlanCycles(result.GrossDepthMM, method, soil)
	result.CycleCount = cyclePlan.Count
	result.CycleDurationMin = cyclePlan.DurationMin
	result.SoakIntervalMin = cyclePlan.SoakMin
	result.Recovery = RecoveryFull

	out.result = result
	return out, nil
}

// CalculateIrrigation implements calculate_irrigation.
func (e *Engine) CalculateIrrigation(channelID int, env EnvReading) (*IrrigationResult, error) {
	ch, err := e.Channels.GetChannel(channelID)
	if err != nil {
		return nil, NewError("CalculateIrrigation", ErrInvalidParam, RecoveryFull, err)
	}
	ch.Lock()
	defer ch.Unlock()

	if ch.Mode == ModeOff {
		return &IrrigationResult{Recovery: RecoveryFull}, nil
	}
	if (ch.Mode == ModeQuality || ch.Mode == ModeEco) && !ch.RefsValid {
		return e.fallbackAfterConfigMissing(ch, ValidateEnv(env))
	}

	ve := ValidateEnv(env)
	if ve.usedFallback {
		e.Log.Warnf("channel %d: sensor fallback applied", channelID)
	}
	nowMS := e.Clock.NowMS()

	if e.IsResourceConstrained() {
		return e.simplifiedPath(ch, ve)
	}

	out, err := e.fullPath(ch, ve, nowMS)
	if err != nil {
		return e.fallbackAfterConfigMissing(ch, ve)
	}

	ch.Balance = out.balance
	ch.LastCalcMonoMS = nowMS
	ch.CachedDAP = daysAfterPlanting(ch, e.Wall)
	return &out.result, nil
}

func (e *Engine) fallbackAfterConfigMissing(ch *ChannelState, ve validatedEnv) (*IrrigationResult, error) {
	e.Log.Warnf("channel %d: falling back past FULL recovery", ch.ID)
	return e.simplifiedPath(ch, ve)
}

// precipitationPartition adapts a SoilEntry into the internal
// precipitation package's minimal Soil shape and returns the effective
// rainfall depth (mm).
func precipitationPartition(rainMM, thetaPct, tempC float64, soil *SoilEntry) float64 {
	result := precipitation.Partition(rainMM, thetaPct, tempC, precipitation.Soil{
		InfiltrationMMPH: soil.InfiltrationMMPH,
		IsClay:           soil.Texture == TextureClay,
		IsSand:           soil.Texture == TextureSand,
	})
	return result.EffectiveMM
}

// DailyAutoUpdate implements daily_auto_update.
func (e *Engine) DailyAutoUpdate(channelID int) (*Decision, error) {
	ch, err := e.Channels.GetChannel(channelID)
	if err != nil {
		return nil, NewError("DailyAutoUpdate", ErrInvalidParam, RecoveryFull, err)
	}
	ch.Lock()
	defer ch.Unlock()

	env, err := e.Env.ReadEnv()
	if err != nil {
		return nil, NewError("DailyAutoUpdate", ErrHardware, RecoveryManual, err)
	}
	ve := ValidateEnv(env)
	nowMS := e.Clock.NowMS()

	var recovery RecoveryLevel
	var shouldWater, ranFullPath bool
	var volumeL, dailyETc, effRain, stress float64

	if !e.IsResourceConstrained() {
		if out, ferr := e.fullPath(ch, ve, nowMS); ferr == nil {
			ch.Balance = out.balance
			ch.LastCalcMonoMS = nowMS
			ch.CachedDAP = daysAfterPlanting(ch, e.Wall)
			recovery = RecoveryFull
			shouldWater = out.balance.IrrigationNeeded
			volumeL = out.result.VolumeL
			dailyETc = out.dailyETc
			effRain = out.effectiveRain
			stress = out.stressFactor
			ranFullPath = true
		}
	}

	if !ranFullPath {
		// fullPath was skipped (constrained) or failed (ConfigMissing):
		// fall through the recovery ladder, still producing a Decision.
		res, serr := e.simplifiedPath(ch, ve)
		if serr != nil {
			return nil, serr
		}
		recovery = res.Recovery
		volumeL = res.VolumeL
		shouldWater = volumeL > 0
	}

	if e.Storage != nil {
		_ = e.Storage.SaveChannelWaterBalance(channelID, ch.Balance)
	}

	return &Decision{
		ShouldWater:     shouldWater,
		VolumeL:         volumeL,
		DeficitMM:       ch.Balance.DeficitMM,
		RAWmm:           ch.Balance.RAWmm,
		DailyETcMM:      dailyETc,
		EffectiveRainMM: effRain,
		StressFactor:    stress,
		Recovery:        recovery,
	}, nil
}

// RealtimeUpdateDeficit implements realtime_update_deficit: it
// accumulates a fraction of a day's ETc based on monotonic time
// elapsed since the channel's last update, sharing the same
// WaterBalance.Accumulate primitive as the daily loop so the two
// cadences can never double-count.
func (e *Engine) RealtimeUpdateDeficit(channelID int, env EnvReading) error {
	ch, err := e.Channels.GetChannel(channelID)
	if err != nil {
		return NewError("RealtimeUpdateDeficit", ErrInvalidParam, RecoveryFull, err)
	}
	ch.Lock()
	defer ch.Unlock()

	nowMS := e.Clock.NowMS()
	if ch.Balance.LastUpdateMonoMS == 0 {
		ch.Balance.LastUpdateMonoMS = nowMS
		return nil
	}
	deltaMS := nowMS - ch.Balance.LastUpdateMonoMS
	if deltaMS == 0 {
		return nil
	}

	plant, okP := e.Plants.PlantByIndex(ch.PlantIndex)
	if !okP {
		return NewError("RealtimeUpdateDeficit", ErrConfigMissing, RecoveryFull, nil)
	}

	ve := ValidateEnv(env)
	et0 := estimateET0(ve, ch.LatitudeDeg, e.Constants)
	_, kc := StageAndKc(plant, ch.CachedDAP, e.Constants)
	etc := et0 * kc

	fraction := float64(deltaMS) / (86400.0 * 1000.0)
	ch.Balance.Accumulate(etc*fraction, 0, 0)
	ch.Balance.IrrigationNeeded = EvaluateTrigger(ch.Balance)
	ch.Balance.LastUpdateMonoMS = nowMS
	return nil
}

// ApplyMissedDays implements apply_missed_days: it estimates the
// deficit accrued while the controller was offline as
// ETc_avg * days_missed, capped at 30 days, using the plant's mid-season
// Kc against a generic average ET0 of 4 mm/day as the best available
// estimate with no historical record.
func (e *Engine) ApplyMissedDays(channelID int, days int) error {
	ch, err := e.Channels.GetChannel(channelID)
	if err != nil {
		return NewError("ApplyMissedDays", ErrInvalidParam, RecoveryFull, err)
	}
	if days <= 0 {
		return nil
	}
	if days > 30 {
		days = 30
	}
	ch.Lock()
	defer ch.Unlock()

	const genericAvgET0 = 4.0
	kcAvg := 0.8
	if plant, ok := e.Plants.PlantByIndex(ch.PlantIndex); ok {
		kcAvg = plant.KcMid
	}
	etcAvg := genericAvgET0 * kcAvg

	ch.Balance.Accumulate(etcAvg*float64(days), 0, 0)
	ch.Balance.IrrigationNeeded = EvaluateTrigger(ch.Balance)
	return nil
}

// ReduceDeficitAfterIrrigation implements reduce_deficit_after_irrigation,
// the apply-irrigation hook mutating WaterBalance outside the decision
// pipeline (e.g. after the scheduler confirms a valve actually ran).
func (e *Engine) ReduceDeficitAfterIrrigation(channelID int, volumeL float64) error {
	ch, err := e.Channels.GetChannel(channelID)
	if err != nil {
		return NewError("ReduceDeficitAfterIrrigation", ErrInvalidParam, RecoveryFull, err)
	}
	ch.Lock()
	defer ch.Unlock()

	plant, _ := e.Plants.PlantByIndex(ch.PlantIndex)
	areaM2 := totalAreaM2(ch.Coverage, plant)
	mm := IrrigationVolumeToMM(volumeL, areaM2)
	ch.Balance.Accumulate(0, 0, mm)
	ch.Balance.IrrigationNeeded = EvaluateTrigger(ch.Balance)
	return nil
}

// SolarTimesFor implements solar_times.
func (e *Engine) SolarTimesFor(latDeg, lonDeg float64, doy int, tzHours float64) SolarTimes {
	return SolarTimesNOAA(latDeg, lonDeg, doy, tzHours)
}

// EffectiveStartTimeFor implements effective_start_time.
func (e *Engine) EffectiveStartTimeFor(event ScheduleEvent, latDeg, lonDeg float64, doy int, tzHours float64, offsetMin int) (hour, minute int, solarFallback bool) {
	st := SolarTimesNOAA(latDeg, lonDeg, doy, tzHours)
	return EffectiveStartTime(event, offsetMin, st)
}
