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
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Perturber generates random perturbations to the initial temperature.
type Perturber struct {
	// Scale is the largest allowed perturbation.
	Scale float64

	u distuv.Uniform
}

// NewPerturber returns a Perturber with perturbations no larger than
// scale. If seed is zero, a seed based on the current time is used.
func NewPerturber(scale float64, seed uint64) *Perturber {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Perturber{
		Scale: scale,
		u:     distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)},
	}
}

// Perturb returns a perturbation with a magnitude uniformly distributed
// in [0, p.Scale) that is equally likely to be positive or negative.
func (p *Perturber) Perturb() float64 {
	sign := 1.
	if p.u.Rand() > 0.5 {
		sign = -1.
	}
	return p.u.Rand() * p.Scale * sign
}
