package irrigate

import "testing"

func testTomato() *PlantEntry {
	return &PlantEntry{
		Name:               "tomato",
		StageInitDays:      25,
		StageDevDays:       35,
		StageMidDays:       45,
		StageEndDays:       20,
		KcIni:              0.6,
		KcMid:              1.15,
		KcEnd:              0.8,
		RootDepthMinM:      0.2,
		RootDepthMaxM:      0.9,
		DepletionFractionP: 0.4,
		CanopyCoverMax:     0.8,
		RowSpacingM:        1.0,
		PlantSpacingM:      0.45,
		OptimumTempMinC:    15,
		OptimumTempMaxC:    29,
	}
}

func TestStageAndKcAcrossSeason(t *testing.T) {
	p := testTomato()
	c := DefaultConstants()

	tests := []struct {
		dap       int
		wantStage GrowthStage
	}{
		{0, StageInitial},
		{25, StageInitial},
		{40, StageDevelopment},
		{70, StageMid},
		{110, StageEnd},
		{120, StageEnd},
		{125, StageEnd},
	}
	for _, tt := range tests {
		stage, kc := StageAndKc(p, tt.dap, c)
		if stage != tt.wantStage {
			t.Errorf("dap=%d: stage = %v, want %v", tt.dap, stage, tt.wantStage)
		}
		if kc < c.KcClampMin || kc > c.KcClampMax {
			t.Errorf("dap=%d: kc = %v out of clamp range", tt.dap, kc)
		}
	}
}

func TestStageAndKcInterpolatesThroughDevelopment(t *testing.T) {
	p := testTomato()
	c := DefaultConstants()
	_, kcStart := StageAndKc(p, 26, c)
	_, kcMid := StageAndKc(p, 42, c)
	_, kcEnd := StageAndKc(p, 60, c)
	if !(kcStart < kcMid && kcMid < kcEnd) {
		t.Errorf("expected Kc to rise monotonically through development: %v, %v, %v", kcStart, kcMid, kcEnd)
	}
}

func TestSimplifiedKcClamped(t *testing.T) {
	c := DefaultConstants()
	for _, class := range []PlantClass{PlantClassVegetable, PlantClassShrub, PlantClassTree, PlantClassTurf} {
		kc := SimplifiedKc(class, c)
		if kc < c.KcSimplifiedMin || kc > c.KcSimplifiedMax {
			t.Errorf("class %v: kc = %v out of [%v, %v]", class, kc, c.KcSimplifiedMin, c.KcSimplifiedMax)
		}
	}
}

func TestRootDepthMGrowsWithSeason(t *testing.T) {
	p := testTomato()
	total := p.TotalSeasonDays()
	early := RootDepthM(p, 0, total)
	mid := RootDepthM(p, total/2, total)
	late := RootDepthM(p, total, total)
	if !(early < mid && mid < late) {
		t.Errorf("expected monotonic root depth growth: %v, %v, %v", early, mid, late)
	}
	if early < p.RootDepthMinM-1e-9 || late > p.RootDepthMaxM+1e-9 {
		t.Errorf("root depth out of [%v, %v]: early=%v late=%v", p.RootDepthMinM, p.RootDepthMaxM, early, late)
	}
}

func TestRootDepthMZeroSeasonFallsBackToMin(t *testing.T) {
	p := testTomato()
	if got := RootDepthM(p, 5, 0); got != p.RootDepthMinM {
		t.Errorf("RootDepthM with zero season = %v, want %v", got, p.RootDepthMinM)
	}
}
