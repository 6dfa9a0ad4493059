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
	"errors"
	"fmt"
)

var (
	// ErrDomain is matched by every *DomainError.
	ErrDomain = errors.New("parcel: input outside of valid domain")

	// ErrCapacity is matched by every *CapacityError.
	ErrCapacity = errors.New("parcel: trajectory capacity exceeded")
)

// DomainError reports an input that violates a precondition of
// a calculation. It holds the offending value.
type DomainError struct {
	Op     string  // operation that rejected the input
	Param  string  // name of the offending parameter
	Value  float64 // offending value
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("parcel: %s: %s=%g %s", e.Op, e.Param, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrDomain) true for all DomainErrors.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// CapacityError reports a simulation that would need more steps
// than the trajectory is allowed to hold.
type CapacityError struct {
	// Steps is the number of steps requested, which may be
	// too large for an int.
	Steps    float64
	Capacity int // maximum number of steps
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("parcel: simulation needs %.0f steps but the trajectory capacity is %d", e.Steps, e.Capacity)
}

// Is makes errors.Is(err, ErrCapacity) true for all CapacityErrors.
func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

func domainErr(op, param string, value float64, reason string) error {
	return &DomainError{Op: op, Param: param, Value: value, Reason: reason}
}
