// Copyright the irrigate authors.
// This file is part of irrigate.
//
// irrigate is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package irrigatecli

import (
	"github.com/fieldctl/irrigate"
	"github.com/spf13/cobra"
)

// NewRoot builds the irrigated command tree, fresh on each call so
// tests can construct independent instances.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "irrigated",
		Short: "A FAO-56 irrigation decision engine.",
		Long: `irrigated computes reference evapotranspiration, crop water demand,
and irrigation volume for one channel from reference tables and a
single environmental reading.

Refer to the subcommand documentation for flags and defaults.`,
		DisableAutoGenTag: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSolarCmd())
	root.AddCommand(newRunCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("irrigated v%s\n", irrigate.Version)
		},
	}
}

func newSolarCmd() *cobra.Command {
	var latDeg, lonDeg, tzHours float64
	var doy int

	cmd := &cobra.Command{
		Use:               "solar",
		Short:             "Compute sunrise/sunset for a latitude, longitude and day of year.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := irrigate.SolarTimesNOAA(latDeg, lonDeg, doy, tzHours)
			if !st.CalculationValid {
				cmd.Printf("solar calculation invalid (polar day=%v, polar night=%v); using fallback times\n",
					st.IsPolarDay, st.IsPolarNight)
			}
			cmd.Printf("sunrise %02d:%02d  sunset %02d:%02d\n",
				st.SunriseMin/60, st.SunriseMin%60, st.SunsetMin/60, st.SunsetMin%60)
			return nil
		},
	}
	cmd.Flags().Float64Var(&latDeg, "lat", 0, "latitude, degrees north")
	cmd.Flags().Float64Var(&lonDeg, "lon", 0, "longitude, degrees east")
	cmd.Flags().Float64Var(&tzHours, "tz", 0, "timezone offset from UTC, hours")
	cmd.Flags().IntVar(&doy, "doy", 182, "day of year, 1-366")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		configPath, tablesPath                   string
		latDeg                                   float64
		plantIndex, soilIndex, methodIndex       int
		areaM2                                   float64
		plantCount                                int
		tempMin, tempMean, tempMax, humidity, pressure, rain float64
	)

	cmd := &cobra.Command{
		Use:               "run",
		Short:             "Run one calculate_irrigation decision for a single channel.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			constants, err := irrigate.LoadConstants(configPath)
			if err != nil {
				return err
			}
			tables, err := irrigate.LoadTables(tablesPath)
			if err != nil {
				return err
			}

			cov := irrigate.Coverage{Kind: irrigate.CoverageArea, AreaM2: areaM2}
			if plantCount > 0 {
				cov = irrigate.Coverage{Kind: irrigate.CoveragePlantCount, PlantCount: plantCount}
			}

			ch := &irrigate.ChannelState{
				ID:          1,
				LatitudeDeg: latDeg,
				Mode:        irrigate.ModeQuality,
				Coverage:    cov,
				PlantIndex:  plantIndex,
				SoilIndex:   soilIndex,
				MethodIndex: methodIndex,
				RefsValid:   true,
			}

			log := irrigate.NewLogrusLogger()
			registry := &singleChannelRegistry{ch: ch}
			env := staticEnvSensor{reading: irrigate.EnvReading{
				TempMinC: tempMin, TempMeanC: tempMean, TempMaxC: tempMax, TempValid: true,
				HumidityPct: humidity, HumidValid: true,
				PressureHPa: pressure, PressValid: true,
				Rain24hMM: rain, RainValid: true,
				AntecedentMoisturePct: 50,
				DayOfYear:             systemWallClock{}.DayOfYear(systemWallClock{}.NowUnixUTC()),
			}}

			engine := irrigate.NewEngine(constants, tables, tables, tables, registry, env,
				newMillisClock(), systemWallClock{}, nil, log)

			result, err := engine.CalculateIrrigation(ch.ID, env.reading)
			if err != nil {
				return err
			}

			cmd.Printf("recovery=%s net_mm=%.2f gross_mm=%.2f volume_l=%.2f cycles=%d cycle_min=%.1f soak_min=%.1f\n",
				result.Recovery, result.NetDepthMM, result.GrossDepthMM, result.VolumeL,
				result.CycleCount, result.CycleDurationMin, result.SoakIntervalMin)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a constants TOML overlay (optional)")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "path to a plant/soil/method reference TOML file")
	cmd.Flags().Float64Var(&latDeg, "lat", 40.0, "channel latitude, degrees north")
	cmd.Flags().IntVar(&plantIndex, "plant", 0, "plant reference table index")
	cmd.Flags().IntVar(&soilIndex, "soil", 0, "soil reference table index")
	cmd.Flags().IntVar(&methodIndex, "method", 0, "irrigation method reference table index")
	cmd.Flags().Float64Var(&areaM2, "area-m2", 10, "channel wetted area, square metres")
	cmd.Flags().IntVar(&plantCount, "plant-count", 0, "channel plant count (overrides --area-m2 when > 0)")
	cmd.Flags().Float64Var(&tempMin, "temp-min-c", 12, "daily minimum temperature, C")
	cmd.Flags().Float64Var(&tempMean, "temp-mean-c", 20, "daily mean temperature, C")
	cmd.Flags().Float64Var(&tempMax, "temp-max-c", 28, "daily maximum temperature, C")
	cmd.Flags().Float64Var(&humidity, "humidity-pct", 45, "relative humidity, percent")
	cmd.Flags().Float64Var(&pressure, "pressure-hpa", 1013, "barometric pressure, hPa")
	cmd.Flags().Float64Var(&rain, "rain-mm", 0, "24h rainfall, mm")
	return cmd
}
