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

	"github.com/ctessum/unit"
)

// pressureUnits holds the number of pascals in each supported
// pressure unit.
var pressureUnits = map[string]float64{
	"Pa":  1,
	"hPa": 100,
	"mb":  paPerMb,
	"kPa": 1000,
	"bar": 1.e5,
}

// NewPressure returns the pressure v, given in the named units
// ("Pa", "hPa", "mb", "kPa", or "bar"), in SI units.
func NewPressure(v float64, units string) (*unit.Unit, error) {
	f, ok := pressureUnits[units]
	if !ok {
		return nil, fmt.Errorf("parcel: unsupported pressure units '%s'", units)
	}
	return unit.New(v*f, unit.Pascal), nil
}

// NewTemperature returns the temperature v, given in degrees Celsius
// ("C") or kelvin ("K"), in SI units.
func NewTemperature(v float64, units string) (*unit.Unit, error) {
	switch units {
	case "C":
		return Celsius(v), nil
	case "K":
		return unit.New(v, unit.Kelvin), nil
	default:
		return nil, fmt.Errorf("parcel: unsupported temperature units '%s'", units)
	}
}

// Millibars returns a pressure given in millibars in SI units.
func Millibars(v float64) *unit.Unit {
	return unit.New(v*paPerMb, unit.Pascal)
}

// Celsius returns a temperature given in degrees Celsius in SI units.
func Celsius(v float64) *unit.Unit {
	return unit.New(v+kelvinAtZeC, unit.Kelvin)
}

// Ratio returns a dimensionless quantity, such as a mixing ratio [kg/kg].
func Ratio(v float64) *unit.Unit {
	return unit.New(v, unit.Dimless)
}

// siValue returns the value of u after making sure it has
// dimensions d.
func siValue(name string, u *unit.Unit, d unit.Dimensions) (float64, error) {
	if u == nil {
		return 0, fmt.Errorf("parcel: %s: missing value", name)
	}
	if err := u.Check(d); err != nil {
		return 0, fmt.Errorf("parcel: %s: %v", name, err)
	}
	return u.Value(), nil
}

type quantity struct {
	dims unit.Dimensions
	set  func(ic *InitialConditions, si float64)
}

var quantities = map[string]quantity{
	"Pressure":              {unit.Pascal, func(ic *InitialConditions, v float64) { ic.Pressure = v / paPerMb }},
	"PressureStep":          {unit.Pascal, func(ic *InitialConditions, v float64) { ic.PressureStep = v / paPerMb }},
	"TopPressure":           {unit.Pascal, func(ic *InitialConditions, v float64) { ic.TopPressure = v / paPerMb }},
	"Temperature":           {unit.Kelvin, func(ic *InitialConditions, v float64) { ic.Temperature = v - kelvinAtZeC }},
	"VaporMixingRatio":      {unit.Dimless, func(ic *InitialConditions, v float64) { ic.VaporMixingRatio = v }},
	"LiquidMixingRatio":     {unit.Dimless, func(ic *InitialConditions, v float64) { ic.LiquidMixingRatio = v }},
	"TotalWaterMixingRatio": {unit.Dimless, func(ic *InitialConditions, v float64) { ic.TotalWaterMixingRatio = v }},
	"SaturationMixingRatio": {unit.Dimless, func(ic *InitialConditions, v float64) { ic.SaturationMixingRatio = v }},
	"RelativeHumidity":      {unit.Dimless, func(ic *InitialConditions, v float64) { ic.RelativeHumidity = v }},
}

// SetQuantity sets the field of ic called name from u. Pressures must have
// the dimensions of pressure, the temperature must be an absolute
// temperature, and mixing ratios and the relative humidity must be
// dimensionless.
func (ic *InitialConditions) SetQuantity(name string, u *unit.Unit) error {
	q, ok := quantities[name]
	if !ok {
		return fmt.Errorf("parcel: unknown initial condition '%s'", name)
	}
	v, err := siValue(name, u, q.dims)
	if err != nil {
		return err
	}
	q.set(ic, v)
	return nil
}
