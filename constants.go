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

import "math"

// Unit conversions
const (
	paPerMb     = 100.0 // Pa per millibar
	gPerKg      = 1.e3  // g per kg
	kelvinAtZeC = 273.15
)

// Constants holds the physical constants used by the thermodynamic
// calculations. A Constants value is created once and passed to the
// functions that need it; it is never modified.
type Constants struct {
	LatentHeat float64 // latent heat of vaporization at 0 °C [J/kg]
	Rv         float64 // gas constant for water vapor [J/(kg K)]
	Rd         float64 // gas constant for dry air [J/(kg K)]
	Cp         float64 // specific heat of dry air at constant pressure [J/(kg K)]
	P0         float64 // reference pressure [Pa]

	// Epsilon is the ratio of the molar masses of water vapor and dry air.
	Epsilon float64

	FreezingPoint float64 // [K]
}

// DefaultConstants returns the constants used by the model.
func DefaultConstants() Constants {
	return Constants{
		LatentHeat:    2.5e6,
		Rv:            461.5,
		Rd:            287.0,
		Cp:            1004.0,
		P0:            100000.0,
		Epsilon:       0.622,
		FreezingPoint: kelvinAtZeC,
	}
}

// Kappa returns Rd/Cp, the exponent of the Exner function.
func (c Constants) Kappa() float64 {
	return c.Rd / c.Cp
}

// Exner returns the nondimensional pressure (p/p0)^(Rd/Cp) at pressure p [Pa].
func (c Constants) Exner(p float64) float64 {
	return math.Pow(p/c.P0, c.Kappa())
}
