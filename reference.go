package irrigate

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// This file implements the reference-table loader. Plant entries
// persist Kc/root-depth/fraction fields scaled (x1000) and density
// scaled (x100); TableSet decodes them once at load time and exposes
// plain floats. Soil/method free-text descriptors are classified once
// here into TextureClass/MethodClass rather than re-matched on every
// lookup.

type scaledPlant struct {
	Name string `toml:"name"`

	StageInitDays int `toml:"stage_init_days"`
	StageDevDays  int `toml:"stage_dev_days"`
	StageMidDays  int `toml:"stage_mid_days"`
	StageEndDays  int `toml:"stage_end_days"`

	KcIniX1000 int `toml:"kc_ini_x1000"`
	KcMidX1000 int `toml:"kc_mid_x1000"`
	KcEndX1000 int `toml:"kc_end_x1000"`

	RootDepthMinX1000 int `toml:"root_depth_min_x1000"`
	RootDepthMaxX1000 int `toml:"root_depth_max_x1000"`

	DepletionFractionX1000 int `toml:"depletion_fraction_x1000"`
	CanopyCoverMaxX1000    int `toml:"canopy_cover_max_x1000"`

	RowSpacingX1000   int `toml:"row_spacing_x1000"`
	PlantSpacingX1000 int `toml:"plant_spacing_x1000"`
	DensityX100       int `toml:"density_x100"`

	OptimumTempMinC float64 `toml:"optimum_temp_min_c"`
	OptimumTempMaxC float64 `toml:"optimum_temp_max_c"`
}

func (s scaledPlant) decode() *PlantEntry {
	return &PlantEntry{
		Name:                s.Name,
		StageInitDays:       s.StageInitDays,
		StageDevDays:        s.StageDevDays,
		StageMidDays:        s.StageMidDays,
		StageEndDays:        s.StageEndDays,
		KcIni:               float64(s.KcIniX1000) / 1000,
		KcMid:               float64(s.KcMidX1000) / 1000,
		KcEnd:               float64(s.KcEndX1000) / 1000,
		RootDepthMinM:       float64(s.RootDepthMinX1000) / 1000,
		RootDepthMaxM:       float64(s.RootDepthMaxX1000) / 1000,
		DepletionFractionP:  float64(s.DepletionFractionX1000) / 1000,
		CanopyCoverMax:      float64(s.CanopyCoverMaxX1000) / 1000,
		RowSpacingM:         float64(s.RowSpacingX1000) / 1000,
		PlantSpacingM:       float64(s.PlantSpacingX1000) / 1000,
		DensityPerM2:        float64(s.DensityX100) / 100,
		OptimumTempMinC:     s.OptimumTempMinC,
		OptimumTempMaxC:     s.OptimumTempMaxC,
	}
}

type rawSoil struct {
	Name             string  `toml:"name"`
	AWCMMPerM        float64 `toml:"awc_mm_per_m"`
	InfiltrationMMPH float64 `toml:"infiltration_mm_per_h"`
	Texture          string  `toml:"texture"`
}

func classifyTexture(descriptor string) TextureClass {
	d := strings.ToLower(descriptor)
	switch {
	case strings.Contains(d, "sand"):
		return TextureSand
	case strings.Contains(d, "clay"):
		return TextureClay
	default:
		return TextureLoam
	}
}

func (s rawSoil) decode() *SoilEntry {
	return &SoilEntry{
		Name:             s.Name,
		AWCMMPerM:        s.AWCMMPerM,
		InfiltrationMMPH: s.InfiltrationMMPH,
		Texture:          classifyTexture(s.Texture),
	}
}

type rawMethod struct {
	Name                   string  `toml:"name"`
	EfficiencyPct          float64 `toml:"efficiency"`
	DistributionUniformity float64 `toml:"distribution_uniformity"`
	WettingFractionX1000   int     `toml:"wetting_fraction_x1000"`
	AppRateMinMMPH         float64 `toml:"app_rate_min_mm_per_h"`
	AppRateMaxMMPH         float64 `toml:"app_rate_max_mm_per_h"`
	Method                 string  `toml:"method"`
}

func classifyMethod(descriptor string) MethodClass {
	d := strings.ToLower(descriptor)
	switch {
	case strings.Contains(d, "drip"):
		return MethodDrip
	case strings.Contains(d, "micro"):
		return MethodMicro
	case strings.Contains(d, "bubbler"):
		return MethodBubbler
	default:
		return MethodSprinkler
	}
}

func (m rawMethod) decode() *MethodEntry {
	return &MethodEntry{
		Name:                   m.Name,
		EfficiencyPct:          m.EfficiencyPct,
		DistributionUniformity: m.DistributionUniformity,
		WettingFraction:        float64(m.WettingFractionX1000) / 1000,
		AppRateMinMMPH:         m.AppRateMinMMPH,
		AppRateMaxMMPH:         m.AppRateMaxMMPH,
		Class:                  classifyMethod(m.Method),
	}
}

// referenceFile is the on-disk shape of a reference-table fixture.
type referenceFile struct {
	Plants  []scaledPlant `toml:"plant"`
	Soils   []rawSoil     `toml:"soil"`
	Methods []rawMethod   `toml:"method"`
}

// TableSet is an in-memory, read-only reference database satisfying
// PlantTable, SoilTable, and MethodTable. It is safe for concurrent
// lookup without locking because it is never mutated after LoadTables
// returns.
type TableSet struct {
	plants  []*PlantEntry
	soils   []*SoilEntry
	methods []*MethodEntry
}

// LoadTables decodes a TOML reference-table fixture into a TableSet.
func LoadTables(path string) (*TableSet, error) {
	var rf referenceFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("irrigate.LoadTables: %v", err)
	}
	ts := &TableSet{}
	for _, p := range rf.Plants {
		ts.plants = append(ts.plants, p.decode())
	}
	for _, s := range rf.Soils {
		ts.soils = append(ts.soils, s.decode())
	}
	for _, m := range rf.Methods {
		ts.methods = append(ts.methods, m.decode())
	}
	return ts, nil
}

func (t *TableSet) PlantByIndex(i int) (*PlantEntry, bool) {
	if i < 0 || i >= len(t.plants) {
		return nil, false
	}
	return t.plants[i], true
}

func (t *TableSet) SoilByIndex(i int) (*SoilEntry, bool) {
	if i < 0 || i >= len(t.soils) {
		return nil, false
	}
	return t.soils[i], true
}

func (t *TableSet) MethodByIndex(i int) (*MethodEntry, bool) {
	if i < 0 || i >= len(t.methods) {
		return nil, false
	}
	return t.methods[i], true
}
