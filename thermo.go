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

// SaturationVaporPressure returns the saturation vapor pressure over
// liquid water [Pa] at temperature T [K]. The empirical fit is only
// meaningful for T > 0; use it over roughly 200–320 K.
func SaturationVaporPressure(T float64) float64 {
	const (
		a   = 23.832241
		b   = 5.02808
		c   = 1.3816e-7
		d   = 11.344
		e   = 0.0303998
		f   = 8.1328e-3
		g   = 3.49149
		h   = 1302.8844
		k   = 2949.076
		hPa = 100. // Pa per hPa
	)
	x := a - b*math.Log10(T) -
		c*math.Pow(10, d-e*T) +
		f*math.Pow(10, g-h/T) -
		k/T
	return hPa * math.Pow(10, x)
}

// SaturationVaporPressureSlope returns des/dT [Pa/K] at temperature T [K]
// from the Clausius-Clapeyron relation.
func (c Constants) SaturationVaporPressureSlope(T float64) float64 {
	return (c.LatentHeat / c.Rv) * (SaturationVaporPressure(T) / (T * T))
}

// PotentialTemperature returns the potential temperature [K] of air at
// temperature T [K] and pressure p [Pa].
func (c Constants) PotentialTemperature(T, p float64) float64 {
	return T / c.Exner(p)
}

// SaturationMixingRatio returns the saturation mixing ratio [kg/kg] at
// temperature T [K] and pressure p [Pa].
func (c Constants) SaturationMixingRatio(T, p float64) float64 {
	es := SaturationVaporPressure(T)
	return c.Epsilon * es / (p - es)
}

// Alpha returns the sensitivity of the saturation mixing ratio to potential
// temperature at pressure pbar [Pa], Exner function pibar, and temperature
// tstar [K]. It blows up as pbar approaches the saturation vapor pressure,
// so callers need to make sure pbar is well above it.
func (c Constants) Alpha(pbar, pibar, tstar float64) float64 {
	dp := pbar - SaturationVaporPressure(tstar)
	return c.SaturationVaporPressureSlope(tstar) * c.Epsilon * pibar * pbar / (dp * dp)
}
