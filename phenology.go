package irrigate

import "math"

// This file implements phenological-stage classification,
// piecewise-linear crop-coefficient interpolation, and sigmoid root
// depth development.

// GrowthStage is the phenological stage a plant is in on a given day
// after planting.
type GrowthStage int

const (
	StageInitial GrowthStage = iota
	StageDevelopment
	StageMid
	StageEnd
)

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StageAndKc classifies the growth stage for days-after-planting dap
// against the plant's stage durations, and returns the interpolated Kc,
// clamped to [0.1, 2.0].
func StageAndKc(p *PlantEntry, dap int, c *Constants) (GrowthStage, float64) {
	initEnd := p.StageInitDays
	devEnd := initEnd + p.StageDevDays
	midEnd := devEnd + p.StageMidDays

	var stage GrowthStage
	var kc float64

	switch {
	case dap <= initEnd:
		stage = StageInitial
		kc = p.KcIni
	case dap <= devEnd:
		stage = StageDevelopment
		if p.StageDevDays <= 0 {
			kc = p.KcMid
		} else {
			progress := float64(dap-initEnd) / float64(p.StageDevDays)
			kc = p.KcIni + (p.KcMid-p.KcIni)*progress
		}
	case dap <= midEnd:
		stage = StageMid
		kc = p.KcMid
	default:
		stage = StageEnd
		var progress float64
		if p.StageEndDays <= 0 {
			progress = 1
		} else {
			progress = float64(dap-midEnd) / float64(p.StageEndDays)
		}
		progress = clampF(progress, 0, 1)
		kc = p.KcMid + (p.KcEnd-p.KcMid)*progress
	}

	return stage, clampF(kc, c.KcClampMin, c.KcClampMax)
}

// PlantClass is a coarse plant-type bucket used by the SIMPLIFIED and
// DEFAULTS recovery rungs, which lack a validated plant reference
// index lookup or a root-depth/season-length derivation.
type PlantClass int

const (
	PlantClassVegetable PlantClass = iota
	PlantClassShrub
	PlantClassTree
	PlantClassTurf
)

// SimplifiedKc returns a crude Kc for a coarse plant class, clamped to
// [0.3, 1.5], for use when the full phenology model is unavailable.
func SimplifiedKc(class PlantClass, c *Constants) float64 {
	var kc float64
	switch class {
	case PlantClassVegetable:
		kc = 0.9
	case PlantClassShrub:
		kc = 0.6
	case PlantClassTree:
		kc = 0.75
	case PlantClassTurf:
		kc = 0.8
	default:
		kc = 0.7
	}
	return clampF(kc, c.KcSimplifiedMin, c.KcSimplifiedMax)
}

// RootDepthM returns the root-zone depth (m) on day-after-planting dap
// for a total season length of totalDays, following a sigmoid on
// season progress. When totalDays is zero the depth_min fallback is
// returned.
func RootDepthM(p *PlantEntry, dap, totalDays int) float64 {
	if totalDays <= 0 {
		return p.RootDepthMinM
	}
	s := clampF(float64(dap)/float64(totalDays), 0, 1)
	sigmoid := 1 / (1 + math.Exp(-6*(s-0.5)))
	return p.RootDepthMinM + (p.RootDepthMaxM-p.RootDepthMinM)*sigmoid
}
