package irrigate

import "testing"

// fakeTables is a tiny in-memory PlantTable/SoilTable/MethodTable used by
// engine tests in place of a TOML-backed TableSet.
type fakeTables struct {
	plants  map[int]*PlantEntry
	soils   map[int]*SoilEntry
	methods map[int]*MethodEntry
}

func (f *fakeTables) PlantByIndex(i int) (*PlantEntry, bool)   { p, ok := f.plants[i]; return p, ok }
func (f *fakeTables) SoilByIndex(i int) (*SoilEntry, bool)     { s, ok := f.soils[i]; return s, ok }
func (f *fakeTables) MethodByIndex(i int) (*MethodEntry, bool) { m, ok := f.methods[i]; return m, ok }

// fakeRegistry is a ChannelRegistry over a fixed, in-memory channel set.
type fakeRegistry struct {
	channels map[int]*ChannelState
}

func (r *fakeRegistry) GetChannel(id int) (*ChannelState, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, NewError("GetChannel", ErrInvalidParam, RecoveryFull, nil)
	}
	return ch, nil
}

func (r *fakeRegistry) ChannelIDs() []int {
	ids := make([]int, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	return ids
}

// fakeEnv reports a fixed EnvReading.
type fakeEnv struct{ reading EnvReading }

func (f fakeEnv) ReadEnv() (EnvReading, error) { return f.reading, nil }

// fakeClock is a MonotonicClock the test advances explicitly.
type fakeClock struct{ ms uint64 }

func (c *fakeClock) NowMS() uint64 { return c.ms }

// fakeWall is a WallClock fixed at a constant day of year.
type fakeWall struct {
	unixUTC uint32
	doy     int
}

func (w fakeWall) NowUnixUTC() uint32       { return w.unixUTC }
func (w fakeWall) DayOfYear(uint32) int     { return w.doy }

// fakeStorage records every saved water balance.
type fakeStorage struct {
	saved map[int]WaterBalance
}

func (s *fakeStorage) SaveChannelWaterBalance(id int, wb WaterBalance) error {
	if s.saved == nil {
		s.saved = make(map[int]WaterBalance)
	}
	s.saved[id] = wb
	return nil
}

// tomatoTables builds the mid-season tomato / clay-loam / drip fixture
// from spec scenario 1.
func tomatoTables() *fakeTables {
	return &fakeTables{
		plants: map[int]*PlantEntry{
			0: {
				Name: "tomato",
				StageInitDays: 25, StageDevDays: 35, StageMidDays: 45, StageEndDays: 20,
				KcIni: 0.6, KcMid: 1.15, KcEnd: 0.8,
				RootDepthMinM: 0.2, RootDepthMaxM: 0.9,
				DepletionFractionP: 0.4, CanopyCoverMax: 0.8,
				RowSpacingM: 1.0, PlantSpacingM: 0.45,
				OptimumTempMinC: 15, OptimumTempMaxC: 29,
			},
		},
		soils: map[int]*SoilEntry{
			0: {Name: "clay-loam", AWCMMPerM: 150, InfiltrationMMPH: 8, Texture: TextureClay},
		},
		methods: map[int]*MethodEntry{
			0: {Name: "drip", EfficiencyPct: 0.9, DistributionUniformity: 0.9, WettingFraction: 0.35,
				AppRateMinMMPH: 1.5, AppRateMaxMMPH: 2.5, Class: MethodDrip},
		},
	}
}

func tomatoChannel(id int) *ChannelState {
	return &ChannelState{
		ID:          id,
		LatitudeDeg: 35,
		Mode:        ModeQuality,
		Coverage:    Coverage{Kind: CoverageArea, AreaM2: 10},
		PlantIndex:  0, SoilIndex: 0, MethodIndex: 0,
		RefsValid:     true,
		PlantedAtUnix: 0,
	}
}

func newTestEngine(reg *fakeRegistry, tables *fakeTables, env EnvReading, clock *fakeClock, wall fakeWall, storage Storage) *Engine {
	return NewEngine(DefaultConstants(), tables, tables, tables, reg, fakeEnv{reading: env}, clock, wall, storage, NoopLogger{})
}

// full-sensors sunny mid-season tomato,
// clay-loam, drip.
func TestCalculateIrrigationFullSensorsMidSeasonTomato(t *testing.T) {
	tables := tomatoTables()
	// Planted on day 1 and evaluated on day 101 (a zero PlantedAtUnix
	// means "not set" and yields DAP 0): DAP 100 is well past
	// init(25)+dev(35)=60, before mid end (105), landing in the mid stage
	// where Kc = KcMid.
	wall := fakeWall{unixUTC: 101 * 86400, doy: 182}
	ch := tomatoChannel(1)
	ch.PlantedAtUnix = 86400
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	clock := &fakeClock{ms: 1000}

	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true,
		PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true,
		AntecedentMoisturePct: 50,
		DayOfYear:             182,
	}

	engine := newTestEngine(reg, tables, env, clock, wall, nil)
	result, err := engine.CalculateIrrigation(1, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recovery != RecoveryFull {
		t.Errorf("recovery = %v, want FULL", result.Recovery)
	}
	if ch.Balance.DeficitMM <= 0 {
		t.Errorf("expected deficit to grow by ETc, got %v", ch.Balance.DeficitMM)
	}
	// A fresh channel with zero deficit has not yet crossed RAW, so no
	// irrigation should be triggered on the very first day.
	if result.VolumeL != 0 {
		t.Errorf("volume = %v, want 0 on the channel's first day (deficit not yet at RAW)", result.VolumeL)
	}
}

// Scenario 1 continued: once the deficit has accumulated past RAW,
// CalculateIrrigation should produce a single-cycle, non-zero volume.
func TestCalculateIrrigationTriggersAfterDeficitAccrues(t *testing.T) {
	tables := tomatoTables()
	wall := fakeWall{unixUTC: 100 * 86400, doy: 182}
	ch := tomatoChannel(1)
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	clock := &fakeClock{ms: 1000}

	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true,
		PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true,
		AntecedentMoisturePct: 50,
		DayOfYear:             182,
	}
	engine := newTestEngine(reg, tables, env, clock, wall, nil)

	// Each call adds one full day's ETc, so a few calls push the deficit
	// past RAW. The clock advances one hour per call: the ET0 and Kc
	// entries are served from cache on every other call (an age of
	// exactly 3600 s still counts as fresh), which leaves the result
	// unchanged because the reading is the same.
	var last *IrrigationResult
	for i := 0; i < 10; i++ {
		clock.ms += 3600 * 1000
		res, err := engine.CalculateIrrigation(1, env)
		if err != nil {
			t.Fatalf("day %d: unexpected error: %v", i, err)
		}
		last = res
		if res.VolumeL > 0 {
			break
		}
	}
	if last.VolumeL <= 0 {
		t.Fatalf("expected irrigation to eventually trigger, deficit=%v RAW=%v", ch.Balance.DeficitMM, ch.Balance.RAWmm)
	}
	if last.CycleCount != 1 {
		t.Errorf("cycle count = %d, want 1 (drip app rate is below 1.2x infiltration)", last.CycleCount)
	}
}

// heavy rain resets deficit near zero and
// irrigation is not needed afterwards.
func TestCalculateIrrigationHeavyRainSuppressesIrrigation(t *testing.T) {
	tables := tomatoTables()
	wall := fakeWall{unixUTC: 100 * 86400, doy: 182}
	ch := tomatoChannel(1)
	// Prime the channel with five dry days, which push the deficit past
	// RAW, so the test can show rain pulls it back down rather than
	// merely never having crossed the threshold in the first place.
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	clock := &fakeClock{ms: 1000}

	dryEnv := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true, PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true, AntecedentMoisturePct: 50, DayOfYear: 182,
	}
	engine := newTestEngine(reg, tables, dryEnv, clock, wall, nil)
	for i := 0; i < 5; i++ {
		clock.ms += 3600 * 1000
		if _, err := engine.CalculateIrrigation(1, dryEnv); err != nil {
			t.Fatalf("priming day %d: %v", i, err)
		}
	}
	deficitBefore := ch.Balance.DeficitMM
	if deficitBefore <= 0 {
		t.Fatal("expected priming to have accrued a positive deficit")
	}

	rainEnv := dryEnv
	rainEnv.Rain24hMM = 30
	rainEnv.AntecedentMoisturePct = 40
	clock.ms += 3600 * 1000
	result, err := engine.CalculateIrrigation(1, rainEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Balance.DeficitMM >= deficitBefore {
		t.Errorf("deficit after heavy rain (%v) should be lower than before (%v)", ch.Balance.DeficitMM, deficitBefore)
	}
	if result.VolumeL != 0 {
		t.Errorf("volume = %v, want 0 immediately after a heavy-rain reset", result.VolumeL)
	}
}

// sensor failure escalates to the SIMPLIFIED
// recovery rung and still produces a usable, non-zero volume.
func TestCalculateIrrigationSensorFailureLadder(t *testing.T) {
	tables := tomatoTables()
	wall := fakeWall{unixUTC: 100 * 86400, doy: 182}
	ch := tomatoChannel(1)
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	clock := &fakeClock{ms: 1000}

	badEnv := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: false,
		HumidityPct: 0, HumidValid: false,
		PressureHPa: 0, PressValid: false,
		Rain24hMM: 0, RainValid: false,
		DayOfYear: 182,
	}
	engine := newTestEngine(reg, tables, badEnv, clock, wall, nil)
	result, err := engine.CalculateIrrigation(1, badEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recovery != RecoverySimplified && result.Recovery != RecoveryDefaults {
		t.Errorf("recovery = %v, want SIMPLIFIED or DEFAULTS on a full sensor failure", result.Recovery)
	}
	if result.VolumeL <= 0 {
		t.Errorf("expected a non-zero recovered volume, got %v", result.VolumeL)
	}
}

// polar sunrise produces the 06:00/20:00
// fallback and a solar_fallback flag on effective_start_time.
func TestSolarTimesPolarNightFallback(t *testing.T) {
	tables := tomatoTables()
	reg := &fakeRegistry{channels: map[int]*ChannelState{}}
	clock := &fakeClock{}
	engine := newTestEngine(reg, tables, EnvReading{}, clock, fakeWall{}, nil)

	st := engine.SolarTimesFor(80, 0, 355, 1)
	if st.CalculationValid {
		t.Error("expected calculation_valid=false at lat=80 DOY=355")
	}
	if st.SunriseMin != 6*60 || st.SunsetMin != 20*60 {
		t.Errorf("fallback times = %02d:%02d/%02d:%02d, want 06:00/20:00",
			st.SunriseMin/60, st.SunriseMin%60, st.SunsetMin/60, st.SunsetMin%60)
	}

	hour, minute, fallback := engine.EffectiveStartTimeFor(EventSunrise, 80, 0, 355, 1, 0)
	if !fallback {
		t.Error("expected solar_fallback=true")
	}
	if hour != 6 || minute != 0 {
		t.Errorf("effective start = %02d:%02d, want 06:00", hour, minute)
	}
}

// a second call within cache tolerance must be
// a hit, produce the identical ET0, and leave the miss counter
// unchanged.
func TestCalculateIrrigationCacheHitWithinTolerance(t *testing.T) {
	tables := tomatoTables()
	wall := fakeWall{unixUTC: 100 * 86400, doy: 182}
	ch := tomatoChannel(1)
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	clock := &fakeClock{ms: 1000}

	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true, PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true, AntecedentMoisturePct: 50, DayOfYear: 182,
	}
	engine := newTestEngine(reg, tables, env, clock, wall, nil)

	if _, err := engine.CalculateIrrigation(1, env); err != nil {
		t.Fatalf("first call: %v", err)
	}
	missesAfterFirst := engine.GetCacheStats().Misses

	env2 := env
	env2.TempMinC += 0.3
	env2.TempMaxC += 0.3
	env2.HumidityPct += 3
	env2.PressureHPa += 1
	clock.ms += 30 * 1000

	if _, err := engine.CalculateIrrigation(1, env2); err != nil {
		t.Fatalf("second call: %v", err)
	}
	stats := engine.GetCacheStats()
	if stats.Misses != missesAfterFirst {
		t.Errorf("misses grew from %d to %d, want an ET0 cache hit", missesAfterFirst, stats.Misses)
	}
}

func TestCalculateIrrigationModeOffShortCircuits(t *testing.T) {
	tables := tomatoTables()
	ch := tomatoChannel(1)
	ch.Mode = ModeOff
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	engine := newTestEngine(reg, tables, EnvReading{}, &fakeClock{}, fakeWall{}, nil)

	result, err := engine.CalculateIrrigation(1, EnvReading{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VolumeL != 0 || result.Recovery != RecoveryFull {
		t.Errorf("expected a zero no-op result for an OFF channel, got %+v", result)
	}
}

func TestCalculateIrrigationUnknownChannelIsInvalidParam(t *testing.T) {
	tables := tomatoTables()
	reg := &fakeRegistry{channels: map[int]*ChannelState{}}
	engine := newTestEngine(reg, tables, EnvReading{}, &fakeClock{}, fakeWall{}, nil)

	_, err := engine.CalculateIrrigation(99, EnvReading{})
	if err == nil {
		t.Fatal("expected an error for an unknown channel id")
	}
	ee, ok := err.(*EngineError)
	if !ok {
		t.Fatalf("expected *EngineError, got %T", err)
	}
	if ee.Code != ErrInvalidParam {
		t.Errorf("code = %v, want InvalidParam", ee.Code)
	}
}

func TestCalculateIrrigationResourceConstrainedUsesSimplifiedPath(t *testing.T) {
	tables := tomatoTables()
	ch := tomatoChannel(1)
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	engine := newTestEngine(reg, tables, EnvReading{}, &fakeClock{}, fakeWall{unixUTC: 100 * 86400, doy: 182}, nil)
	engine.SetResourceConstrained(true)

	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true, PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true, AntecedentMoisturePct: 50, DayOfYear: 182,
	}
	result, err := engine.CalculateIrrigation(1, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recovery != RecoverySimplified {
		t.Errorf("recovery = %v, want SIMPLIFIED while resource-constrained", result.Recovery)
	}
	if engine.IsResourceConstrained() != true {
		t.Error("expected IsResourceConstrained() to report true")
	}
}

func TestDailyAutoUpdateSavesWaterBalance(t *testing.T) {
	tables := tomatoTables()
	wall := fakeWall{unixUTC: 100 * 86400, doy: 182}
	ch := tomatoChannel(1)
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	storage := &fakeStorage{}
	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true, PressureHPa: 1010, PressValid: true,
		Rain24hMM: 0, RainValid: true, AntecedentMoisturePct: 50, DayOfYear: 182,
	}
	engine := newTestEngine(reg, tables, env, &fakeClock{ms: 1000}, wall, storage)

	decision, err := engine.DailyAutoUpdate(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.DailyETcMM <= 0 {
		t.Errorf("expected a positive daily ETc, got %v", decision.DailyETcMM)
	}
	if _, saved := storage.saved[1]; !saved {
		t.Error("expected the water balance to have been persisted")
	}
}

func TestRealtimeUpdateDeficitAccumulatesFraction(t *testing.T) {
	tables := tomatoTables()
	ch := tomatoChannel(1)
	ch.Balance.WettedAWCmm = 100
	ch.Balance.RAWmm = 40
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	// Start the clock at a nonzero instant: LastUpdateMonoMS==0 is the
	// "never updated" sentinel the engine checks, and a zero clock
	// reading would be indistinguishable from it.
	clock := &fakeClock{ms: 1000}
	env := EnvReading{
		TempMinC: 18, TempMeanC: 24, TempMaxC: 32, TempValid: true,
		HumidityPct: 45, HumidValid: true, PressureHPa: 1010, PressValid: true,
		DayOfYear: 182,
	}
	engine := newTestEngine(reg, tables, env, clock, fakeWall{unixUTC: 100 * 86400, doy: 182}, nil)

	if err := engine.RealtimeUpdateDeficit(1, env); err != nil {
		t.Fatalf("first call (seeding LastUpdateMonoMS): %v", err)
	}
	if ch.Balance.DeficitMM != 0 {
		t.Errorf("expected no accumulation on the seeding call, got deficit=%v", ch.Balance.DeficitMM)
	}

	clock.ms = 1000 + 6*3600*1000 // 6 hours later
	if err := engine.RealtimeUpdateDeficit(1, env); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if ch.Balance.DeficitMM <= 0 {
		t.Errorf("expected a positive fractional deficit after 6h, got %v", ch.Balance.DeficitMM)
	}
}

func TestApplyMissedDaysCapsAt30(t *testing.T) {
	tables := tomatoTables()
	ch := tomatoChannel(1)
	ch.Balance.WettedAWCmm = 1000
	ch.Balance.RAWmm = 500
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	engine := newTestEngine(reg, tables, EnvReading{}, &fakeClock{}, fakeWall{}, nil)

	if err := engine.ApplyMissedDays(1, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	capped := tomatoChannel(2)
	capped.Balance.WettedAWCmm = 1000
	capped.Balance.RAWmm = 500
	reg2 := &fakeRegistry{channels: map[int]*ChannelState{2: capped}}
	engine2 := newTestEngine(reg2, tables, EnvReading{}, &fakeClock{}, fakeWall{}, nil)
	if err := engine2.ApplyMissedDays(2, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch.Balance.DeficitMM != capped.Balance.DeficitMM {
		t.Errorf("1000 missed days (%v) should accrue the same deficit as the 30-day cap (%v)",
			ch.Balance.DeficitMM, capped.Balance.DeficitMM)
	}
}

func TestReduceDeficitAfterIrrigationRoundTrip(t *testing.T) {
	tables := tomatoTables()
	ch := tomatoChannel(1)
	ch.Balance.WettedAWCmm = 100
	ch.Balance.DeficitMM = 20
	reg := &fakeRegistry{channels: map[int]*ChannelState{1: ch}}
	engine := newTestEngine(reg, tables, EnvReading{}, &fakeClock{}, fakeWall{}, nil)

	if err := engine.ReduceDeficitAfterIrrigation(1, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// area = 10 m^2, efficiency 0.8: 50L * 0.8 / 10m^2 = 4mm reduction.
	want := 20.0 - 4.0
	if !approxEqual(ch.Balance.DeficitMM, want, 1e-9) {
		t.Errorf("deficit = %v, want %v", ch.Balance.DeficitMM, want)
	}
	if ch.Balance.DeficitMM < 0 {
		t.Error("deficit must never go negative")
	}
}

func TestValidateEnvRejectsOutOfOrderTemperaturesWithoutSwapping(t *testing.T) {
	env := EnvReading{TempMinC: 30, TempMeanC: 20, TempMaxC: 10, TempValid: true,
		HumidityPct: 50, HumidValid: true, PressureHPa: 1013, PressValid: true, DayOfYear: 100}
	ve := ValidateEnv(env)
	if ve.tempOK {
		t.Error("expected tempOK=false for an out-of-order reading")
	}
	// The resolved Open Question requires rejecting, not swapping: the
	// substituted fallback values must be the conservative defaults,
	// not a reordering of the caller's min/max.
	if ve.raw.TempMinC != 15 || ve.raw.TempMeanC != 20 || ve.raw.TempMaxC != 25 {
		t.Errorf("expected fallback defaults (15/20/25), got (%v/%v/%v)",
			ve.raw.TempMinC, ve.raw.TempMeanC, ve.raw.TempMaxC)
	}
}

func TestValidateEnvSubstitutesConservativeDefaults(t *testing.T) {
	ve := ValidateEnv(EnvReading{})
	if !ve.usedFallback {
		t.Error("expected usedFallback=true for an entirely invalid reading")
	}
	if ve.raw.HumidityPct < 0 || ve.raw.HumidityPct > 100 {
		t.Errorf("humidity fallback %v out of [0,100]", ve.raw.HumidityPct)
	}
	if ve.raw.PressureHPa < 800 || ve.raw.PressureHPa > 1200 {
		t.Errorf("pressure fallback %v out of [800,1200]", ve.raw.PressureHPa)
	}
}
