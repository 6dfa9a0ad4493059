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
	"math"
)

const (
	// DefaultMaxIterations is the maximum number of iterations the
	// saturation adjustment is allowed before it gives up.
	DefaultMaxIterations = 10

	// DefaultTolerance is the temperature change [K] below which the
	// saturation adjustment is considered converged.
	DefaultTolerance = 0.001

	// maxVaporPressureFraction is the largest allowed ratio of saturation
	// vapor pressure to ambient pressure.
	maxVaporPressureFraction = 0.5
)

// ConvergenceStatus tells how a saturation adjustment finished.
type ConvergenceStatus int

const (
	// Converged means the temperature change fell below the tolerance.
	Converged ConvergenceStatus = iota

	// FailsafeReached means the iteration limit was reached before
	// the tolerance was met. The result is the last estimate.
	FailsafeReached
)

func (s ConvergenceStatus) String() string {
	switch s {
	case Converged:
		return "converged"
	case FailsafeReached:
		return "failsafe reached"
	default:
		return fmt.Sprintf("ConvergenceStatus(%d)", int(s))
	}
}

// AdjustmentResult is the thermodynamically consistent parcel state
// at a single pressure level.
type AdjustmentResult struct {
	PotentialTemperature  float64 // [K]
	VaporMixingRatio      float64 // [kg/kg]
	LiquidMixingRatio     float64 // [kg/kg]
	SaturationMixingRatio float64 // [kg/kg]
	Exner                 float64 // Exner function at the adjustment pressure

	Status     ConvergenceStatus
	Iterations int // number of iterations performed
}

// Temperature returns the temperature [K] of the adjusted parcel.
func (r AdjustmentResult) Temperature() float64 {
	return r.PotentialTemperature * r.Exner
}

// Solver performs isobaric saturation adjustment.
type Solver struct {
	Constants

	// MaxIterations is the failsafe iteration limit.
	MaxIterations int

	// Tolerance is the convergence criterion [K].
	Tolerance float64
}

// NewSolver returns a solver using the given constants and the
// default iteration limit and tolerance.
func NewSolver(c Constants) *Solver {
	return &Solver{
		Constants:     c,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// Adjust partitions the total water of a parcel with potential temperature
// theta [K], vapor mixing ratio qv [kg/kg] and liquid water mixing ratio
// qc [kg/kg] between vapor and liquid at pressure pbar [Pa], so that the
// parcel is either exactly saturated with non-negative liquid water or
// subsaturated with none.
//
// The solution is a fixed-point iteration linearized around the current
// estimate. If the predicted liquid water is negative, all of the water is
// put in the vapor phase and the temperature is recomputed without the
// saturation feedback. A *DomainError is returned for inputs where the
// calculation is undefined. Reaching the iteration limit is not an error;
// it is reported in the Status field of the result.
func (s *Solver) Adjust(theta, qv, qc, pbar float64) (AdjustmentResult, error) {
	const op = "saturation adjustment"
	switch {
	case !(pbar > 0) || math.IsInf(pbar, 0):
		return AdjustmentResult{}, domainErr(op, "pbar", pbar, "must be a positive, finite pressure")
	case !(theta > 0) || math.IsInf(theta, 0):
		return AdjustmentResult{}, domainErr(op, "theta", theta, "must be a positive, finite temperature")
	case !(qv >= 0) || math.IsInf(qv, 0):
		return AdjustmentResult{}, domainErr(op, "qv", qv, "must be a non-negative mixing ratio")
	case !(qc >= 0) || math.IsInf(qc, 0):
		return AdjustmentResult{}, domainErr(op, "qc", qc, "must be a non-negative mixing ratio")
	}

	pibar := s.Exner(pbar)
	gamma := s.LatentHeat / (s.Cp * pibar)

	thetaStar := theta
	qvStar := qv
	qw := qv + qc

	var theta1, qv1, qc1, qvs1 float64
	status := Converged
	itt := 1
	for {
		tstar := thetaStar * pibar
		if !(tstar > 0) {
			return AdjustmentResult{}, domainErr(op, "temperature", tstar, "must be positive")
		}
		es1 := SaturationVaporPressure(tstar)
		if !(es1 < maxVaporPressureFraction*pbar) {
			return AdjustmentResult{}, domainErr(op, "pbar", pbar,
				fmt.Sprintf("is too close to the saturation vapor pressure (%g Pa at %g K)", es1, tstar))
		}
		alpha := s.Alpha(pbar, pibar, tstar)
		thetaFac := gamma / (1 + gamma*alpha)
		qvSat := s.Epsilon * es1 / (pbar - es1)

		theta1 = thetaStar + thetaFac*(qvStar-qvSat)
		qv1 = qvSat + alpha*(theta1-thetaStar)
		qc1 = qw - qv1
		qvs1 = qvSat + alpha*(theta1-thetaStar)

		if qc1 < 0 { // Not enough water to stay saturated.
			qc1 = 0
			qv1 = qw
			theta1 = thetaStar + gamma*(qvStar-qv1)
			qvs1 = qvSat + alpha*(theta1-thetaStar)
		}

		dT := (theta1 - thetaStar) * pibar
		if math.Abs(dT) < s.Tolerance {
			break
		}
		if itt >= s.MaxIterations {
			status = FailsafeReached
			break
		}
		thetaStar = theta1
		qvStar = qv1
		itt++
	}

	for _, v := range []float64{theta1, qv1, qc1, qvs1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return AdjustmentResult{}, domainErr(op, "pbar", pbar, "gives a non-finite solution")
		}
	}

	return AdjustmentResult{
		PotentialTemperature:  theta1,
		VaporMixingRatio:      qv1,
		LiquidMixingRatio:     qc1,
		SaturationMixingRatio: qvs1,
		Exner:                 pibar,
		Status:                status,
		Iterations:            itt,
	}, nil
}
