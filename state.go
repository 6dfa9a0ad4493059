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

package parcel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Phase is the direction the parcel is moving in.
type Phase int

// Phases of a simulation.
const (
	Initial Phase = iota
	Ascending
	Descending
)

func (p Phase) String() string {
	switch p {
	case Initial:
		return "initial"
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ParcelState holds the state of the parcel at one pressure level.
type ParcelState struct {
	Step  int
	Phase Phase

	Pressure              float64 `desc:"Pressure" units:"Pa"`
	Temperature           float64 `desc:"Temperature" units:"K"`
	PotentialTemperature  float64 `desc:"Potential temperature" units:"K"`
	VaporMixingRatio      float64 `desc:"Water vapor mixing ratio" units:"kg/kg"`
	LiquidMixingRatio     float64 `desc:"Liquid water mixing ratio" units:"kg/kg"`
	SaturationMixingRatio float64 `desc:"Saturation mixing ratio" units:"kg/kg"`
	Exner                 float64 `desc:"Exner function" units:"-"`

	// RelativeHumidity is the ratio of the vapor mixing ratio to the
	// saturation mixing ratio at the same level (1 = saturated).
	RelativeHumidity float64 `desc:"Relative humidity" units:"fraction"`

	Status     ConvergenceStatus // outcome of the saturation adjustment
	Iterations int               // adjustment iterations; 0 for the initial state
}

// PressureMb returns the pressure in millibars.
func (s ParcelState) PressureMb() float64 { return s.Pressure / paPerMb }

// VaporGPerKg returns the vapor mixing ratio in g/kg.
func (s ParcelState) VaporGPerKg() float64 { return s.VaporMixingRatio * gPerKg }

// LiquidGPerKg returns the liquid water mixing ratio in g/kg.
func (s ParcelState) LiquidGPerKg() float64 { return s.LiquidMixingRatio * gPerKg }

// TotalWater returns the total water mixing ratio [kg/kg].
func (s ParcelState) TotalWater() float64 {
	return s.VaporMixingRatio + s.LiquidMixingRatio
}

// Trajectory is the sequence of parcel states produced by a simulation,
// starting with the initial state.
type Trajectory []ParcelState

// Final returns the last state in the trajectory.
func (t Trajectory) Final() ParcelState {
	return t[len(t)-1]
}

// FailsafeCount returns the number of steps where the saturation
// adjustment reached its iteration limit.
func (t Trajectory) FailsafeCount() int {
	var n int
	for _, s := range t {
		if s.Status == FailsafeReached {
			n++
		}
	}
	return n
}

// column returns the value of f for every state.
func (t Trajectory) column(f func(ParcelState) float64) []float64 {
	o := make([]float64, len(t))
	for i, s := range t {
		o[i] = f(s)
	}
	return o
}

// Summary holds overall statistics of a trajectory.
type Summary struct {
	Steps int

	MinTemperature float64 // [K]
	MaxTemperature float64 // [K]

	// MaxLiquid is the largest liquid water mixing ratio [kg/kg] and
	// MaxLiquidPressure the pressure [Pa] where it occurs.
	MaxLiquid         float64
	MaxLiquidPressure float64

	FinalPotentialTemperature float64 // [K]
	FailsafeSteps             int
}

// Summary calculates summary statistics for the trajectory.
func (t Trajectory) Summary() Summary {
	if len(t) == 0 {
		return Summary{}
	}
	T := t.column(func(s ParcelState) float64 { return s.Temperature })
	qc := t.column(func(s ParcelState) float64 { return s.LiquidMixingRatio })
	iMax := floats.MaxIdx(qc)
	return Summary{
		Steps:                     len(t),
		MinTemperature:            floats.Min(T),
		MaxTemperature:            floats.Max(T),
		MaxLiquid:                 qc[iMax],
		MaxLiquidPressure:         t[iMax].Pressure,
		FinalPotentialTemperature: t.Final().PotentialTemperature,
		FailsafeSteps:             t.FailsafeCount(),
	}
}
