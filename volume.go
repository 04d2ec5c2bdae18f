package irrigate

import "math"

// This file implements the volume synthesiser: net-to-gross
// conversion with efficiency and distribution uniformity, wetting
// fraction and eco-factor adjustments, area-per-plant derivation, and
// max-volume clamping.

// VolumeInputs bundles the parameters SynthesizeVolume needs.
type VolumeInputs struct {
	DeficitMM   float64
	Method      *MethodEntry
	Plant       *PlantEntry // may be nil for area coverage
	Coverage    Coverage
	Eco         bool
	HasMaxVol   bool
	MaxVolumeL  float64
}

// areaPerPlantM2 derives the effective area one plant occupies, with
// the spacing -> density -> 1m^2 fallback ladder, clamped to
// [0.002, 100].
func areaPerPlantM2(p *PlantEntry) float64 {
	var area float64
	switch {
	case p != nil && p.RowSpacingM > 0 && p.PlantSpacingM > 0:
		area = p.RowSpacingM * p.PlantSpacingM
	case p != nil && p.DensityPerM2 > 0:
		area = 1 / p.DensityPerM2
	default:
		area = 1
	}
	return clampF(area, 0.002, 100)
}

// SynthesizeVolume computes net/gross depth and total volume for a
// channel.
func SynthesizeVolume(in VolumeInputs) IrrigationResult {
	net := in.DeficitMM
	if in.Eco {
		net *= 0.7
	}

	wf := in.Method.WettingFraction
	if wf < 0.9 && wf > 0 {
		switch in.Coverage.Kind {
		case CoverageArea:
			net /= math.Sqrt(wf)
		case CoveragePlantCount:
			canopy := 0.0
			if in.Plant != nil {
				canopy = in.Plant.CanopyCoverMax
			}
			net /= wf * (0.8 + 0.2*canopy)
		}
	}

	gross := net / in.Method.EfficiencyPct
	if in.Method.DistributionUniformity > 0 && in.Method.DistributionUniformity < 1 {
		gross /= in.Method.DistributionUniformity
	}

	var effectiveAreaM2 float64
	var perPlantVolL float64
	switch in.Coverage.Kind {
	case CoverageArea:
		effectiveAreaM2 = in.Coverage.AreaM2 * wf
	case CoveragePlantCount:
		canopy := 1.0
		if in.Plant != nil {
			canopy = 0.8 + 0.2*in.Plant.CanopyCoverMax
		}
		perPlantAreaEff := areaPerPlantM2(in.Plant) * canopy * wf
		effectiveAreaM2 = perPlantAreaEff * float64(in.Coverage.PlantCount)
	}

	volumeL := gross * effectiveAreaM2

	// Below-threshold zeroing.
	switch in.Coverage.Kind {
	case CoverageArea:
		if volumeL < 0.5 {
			volumeL = 0
		}
	case CoveragePlantCount:
		threshold := math.Max(0.1*effectiveAreaM2, 0.5)
		if volumeL < threshold {
			volumeL = 0
		}
	}

	limited := false
	if in.HasMaxVol && in.MaxVolumeL > 0 && volumeL > in.MaxVolumeL {
		ratio := in.MaxVolumeL / volumeL
		volumeL = in.MaxVolumeL
		gross *= ratio
		net *= ratio
		limited = true
	}

	if in.Coverage.Kind == CoveragePlantCount && in.Coverage.PlantCount > 0 {
		perPlantVolL = volumeL / float64(in.Coverage.PlantCount)
	}

	return IrrigationResult{
		NetDepthMM:     net,
		GrossDepthMM:   gross,
		VolumeL:        volumeL,
		PerPlantVolL:   perPlantVolL,
		VolumeLimited:  limited,
	}
}
