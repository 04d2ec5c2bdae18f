package irrigate

import "math"

// This file implements the cycle-and-soak planner: splitting a
// gross application depth into cycles that respect soil infiltration
// capacity, with soak intervals scaled by soil texture.

// CyclePlan is the cycle-and-soak result: count, per-cycle duration,
// and soak interval.
type CyclePlan struct {
	Count        int
	DurationMin  float64
	SoakMin      float64
}

func soakMultiplier(t TextureClass) float64 {
	switch t {
	case TextureSand:
		return 2
	case TextureClay:
		return 4
	default:
		return 3
	}
}

// PlanCycles splits grossMM of application depth into cycles given the
// method's application rate (the midpoint of its band, AppRateMid) and
// the soil's infiltration rate. If soil is nil (the soil
// collaborator is unavailable), a single continuous cycle is returned
// without error, supporting preview paths.
func PlanCycles(grossMM float64, method *MethodEntry, soil *SoilEntry) CyclePlan {
	appRate := method.AppRateMid()

	if soil == nil || appRate <= 0 {
		return CyclePlan{
			Count:       1,
			DurationMin: grossMM / math.Max(appRate, 0.001) * 60,
		}
	}

	if appRate <= 1.2*soil.InfiltrationMMPH {
		return CyclePlan{
			Count:       1,
			DurationMin: grossMM / appRate * 60,
		}
	}

	target := 0.8 * soil.InfiltrationMMPH
	n := int(math.Ceil(appRate / target))
	if n < 2 {
		n = 2
	}
	if n > 6 {
		n = 6
	}

	totalMin := (grossMM / target) * 60
	cycleMin := totalMin / float64(n)
	cycleMin = clampF(cycleMin, 5, 60)

	soak := cycleMin * soakMultiplier(soil.Texture)
	soak = clampF(soak, 10, 240)

	return CyclePlan{
		Count:       n,
		DurationMin: cycleMin,
		SoakMin:     soak,
	}
}
