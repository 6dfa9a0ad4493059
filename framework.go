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

import "fmt"

// Parcel holds the current state of a simulation.
type Parcel struct {
	Constants

	// Current is the most recent state of the parcel.
	Current ParcelState

	// Trajectory holds every recorded state.
	Trajectory Trajectory

	// Step is the index of the current state.
	Step int

	// NCycles is the number of pressure steps between the initial
	// level and the top level. NSteps is the total number of states
	// in a complete simulation.
	NCycles, NSteps int

	// Dp is the pressure step [Pa].
	Dp float64

	// Done is set when the simulation is finished.
	Done bool

	// InitFuncs are functions to be called in the given order
	// at the beginning of the simulation.
	InitFuncs []Manipulator

	// RunFuncs are functions to be called in the given order
	// for each step of the simulation.
	RunFuncs []Manipulator

	// CleanupFuncs are functions to be called in the given order
	// after the simulation has completed.
	CleanupFuncs []Manipulator
}

// Manipulator is a function that operates on a parcel simulation.
type Manipulator func(p *Parcel) error

// Init initializes the simulation by running p.InitFuncs.
func (p *Parcel) Init() error {
	for _, f := range p.InitFuncs {
		if err := f(p); err != nil {
			return err
		}
	}
	return nil
}

// Run carries out the simulation by running p.RunFuncs until
// p.Done is true.
func (p *Parcel) Run() error {
	if len(p.RunFuncs) == 0 && !p.Done {
		return fmt.Errorf("parcel: no functions to run")
	}
	for !p.Done {
		for _, f := range p.RunFuncs {
			if err := f(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running p.CleanupFuncs.
func (p *Parcel) Cleanup() error {
	for _, f := range p.CleanupFuncs {
		if err := f(p); err != nil {
			return err
		}
	}
	return nil
}
