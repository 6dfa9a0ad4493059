/*
Copyright © 2017 the Parcel authors.
This file is part of Parcel.

Parcel is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Parcel is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Parcel.  If not, see <http://www.gnu.org/licenses/>.
*/

package parcelutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/parcel"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Trials holds the settings for a set of simulations that
// start from the same initial conditions.
type Trials struct {
	// N is the number of simulations.
	N int

	// Perturbation is the largest random change to the
	// initial temperature [°C].
	Perturbation float64

	// Seed is the random seed. Zero means a time-based seed.
	Seed uint64

	// MaxSteps is the trajectory capacity of each simulation.
	MaxSteps int

	WriteOutput bool
	OutputFile  string
	Console     bool
}

func getFloat(cfg *viper.Viper, name string) (float64, error) {
	v, err := cast.ToFloat64E(cfg.Get(name))
	if err != nil {
		return 0, fmt.Errorf("parcelutil: reading configuration variable '%s': %v", name, err)
	}
	return v, nil
}

func getInt(cfg *viper.Viper, name string) (int, error) {
	v, err := cast.ToIntE(cfg.Get(name))
	if err != nil {
		return 0, fmt.Errorf("parcelutil: reading configuration variable '%s': %v", name, err)
	}
	return v, nil
}

func getBool(cfg *viper.Viper, name string) (bool, error) {
	v, err := cast.ToBoolE(cfg.Get(name))
	if err != nil {
		return false, fmt.Errorf("parcelutil: reading configuration variable '%s': %v", name, err)
	}
	return v, nil
}

// InitialConditions reads the initial parcel state and the pressure
// levels from cfg. Pressures are given in PressureUnits and the
// temperature in TemperatureUnits.
func InitialConditions(cfg *viper.Viper) (parcel.InitialConditions, error) {
	var ic parcel.InitialConditions
	pUnits := cfg.GetString("PressureUnits")
	tUnits := cfg.GetString("TemperatureUnits")
	pressure := func(v float64) (*unit.Unit, error) { return parcel.NewPressure(v, pUnits) }
	temperature := func(v float64) (*unit.Unit, error) { return parcel.NewTemperature(v, tUnits) }
	ratio := func(v float64) (*unit.Unit, error) { return parcel.Ratio(v), nil }

	for _, v := range []struct {
		name, quantity string
		toSI           func(float64) (*unit.Unit, error)
	}{
		{"InitialPressure", "Pressure", pressure},
		{"Temperature", "Temperature", temperature},
		{"VaporMixingRatio", "VaporMixingRatio", ratio},
		{"LiquidMixingRatio", "LiquidMixingRatio", ratio},
		{"TotalWaterMixingRatio", "TotalWaterMixingRatio", ratio},
		{"SaturationMixingRatio", "SaturationMixingRatio", ratio},
		{"RelativeHumidity", "RelativeHumidity", ratio},
		{"PressureStep", "PressureStep", pressure},
		{"TopPressure", "TopPressure", pressure},
	} {
		f, err := getFloat(cfg, v.name)
		if err != nil {
			return ic, err
		}
		u, err := v.toSI(f)
		if err != nil {
			return ic, fmt.Errorf("parcelutil: reading configuration variable '%s': %v", v.name, err)
		}
		if err := ic.SetQuantity(v.quantity, u); err != nil {
			return ic, fmt.Errorf("parcelutil: reading configuration variable '%s': %v", v.name, err)
		}
	}
	return ic, nil
}

// TrialConfig reads the trial, perturbation, and output settings from cfg.
func TrialConfig(cfg *viper.Viper) (Trials, error) {
	var (
		t   Trials
		err error
	)
	if t.N, err = getInt(cfg, "Trials"); err != nil {
		return t, err
	}
	if t.N < 1 {
		return t, fmt.Errorf("parcelutil: Trials must be at least 1 but is %d", t.N)
	}
	if t.Perturbation, err = getFloat(cfg, "Perturbation"); err != nil {
		return t, err
	}
	if t.Perturbation < 0 {
		return t, fmt.Errorf("parcelutil: Perturbation must not be negative but is %g", t.Perturbation)
	}
	if t.Seed, err = cast.ToUint64E(cfg.Get("Seed")); err != nil {
		return t, fmt.Errorf("parcelutil: reading configuration variable 'Seed': %v", err)
	}
	if t.MaxSteps, err = getInt(cfg, "MaxSteps"); err != nil {
		return t, err
	}
	if t.Console, err = getBool(cfg, "Console"); err != nil {
		return t, err
	}
	if t.WriteOutput, err = getBool(cfg, "WriteOutput"); err != nil {
		return t, err
	}
	if t.WriteOutput {
		if t.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
			return t, err
		}
	}
	return t, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`parcelutil: you need to specify an output file configuration variable (for example: OutputFile="results.txt")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("parcelutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
