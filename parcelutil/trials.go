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
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/parcel"
	"github.com/spatialmodel/parcel/internal/hash"
	"gonum.org/v1/gonum/stat"
)

// Trial is the result of a single simulation.
type Trial struct {
	// Perturbation is the change [°C] that was added to the
	// initial temperature.
	Perturbation float64

	// Key identifies the initial conditions of the trial.
	Key string

	Trajectory parcel.Trajectory
	Summary    parcel.Summary
}

// Ensemble holds the results of a set of trials.
type Ensemble struct {
	Trials []Trial

	// Mean and standard deviation across trials of the final
	// potential temperature [K].
	FinalThetaMean, FinalThetaStd float64

	// Mean and standard deviation across trials of the largest
	// liquid water mixing ratio [kg/kg].
	MaxLiquidMean, MaxLiquidStd float64
}

// RunTrials runs tc.N simulations starting from ic, each with a new random
// perturbation of the initial temperature. Tables of the results are
// printed to out if tc.Console is true, and the results are written to
// tc.OutputFile if tc.WriteOutput is true. opts are passed to every
// simulation.
func RunTrials(out io.Writer, log logrus.FieldLogger, ic parcel.InitialConditions, tc Trials, opts ...parcel.Option) (*Ensemble, error) {
	if tc.N < 1 {
		return nil, fmt.Errorf("parcelutil: the number of trials must be at least 1 but is %d", tc.N)
	}
	maxSteps := tc.MaxSteps
	if maxSteps <= 0 {
		maxSteps = parcel.DefaultMaxSteps
	}
	pert := NewPerturber(tc.Perturbation, tc.Seed)
	e := &Ensemble{Trials: make([]Trial, 0, tc.N)}

	for i := 0; i < tc.N; i++ {
		tlog := log.WithField("trial", i)
		trialIC := ic
		dT := pert.Perturb()
		trialIC.Temperature += dT
		key := hash.Key(trialIC)
		tlog.WithFields(logrus.Fields{
			"inputs":        key,
			"temperature_C": trialIC.Temperature,
			"perturbation":  dT,
		}).Info("starting simulation")

		trialOpts := append([]parcel.Option{
			parcel.WithMaxSteps(maxSteps),
			parcel.WithLogger(tlog),
			parcel.WithDescentNotifier(func(p *parcel.Parcel) {
				tlog.WithField("step", p.Step).Info("parcel reached the top and is descending")
			}),
		}, opts...)

		traj, err := parcel.Integrate(trialIC, trialOpts...)
		if err != nil {
			return e, err
		}
		checkFailsafe(tlog, traj)

		if tc.Console {
			if err := WriteTable(out, trialIC, traj); err != nil {
				return e, fmt.Errorf("parcelutil: printing results: %w", err)
			}
		}
		if tc.WriteOutput {
			if err := writeOutputFile(tc.OutputFile, traj, i > 0); err != nil {
				return e, err
			}
		}
		e.Trials = append(e.Trials, Trial{
			Perturbation: dT,
			Key:          key,
			Trajectory:   traj,
			Summary:      traj.Summary(),
		})
	}

	e.summarize()
	log.WithFields(logrus.Fields{
		"trials":           len(e.Trials),
		"final_theta_mean": e.FinalThetaMean,
		"final_theta_std":  e.FinalThetaStd,
		"max_qc_gkg_mean":  e.MaxLiquidMean * 1.e3,
		"max_qc_gkg_std":   e.MaxLiquidStd * 1.e3,
	}).Info("complete")
	if tc.Console && tc.N > 1 {
		if _, err := fmt.Fprintf(out, "\nENSEMBLE OF %d TRIALS...\nTH final: %3.2f +/- %3.2f K\nqc max: %3.2f +/- %3.2f g/kg\n",
			len(e.Trials), e.FinalThetaMean, e.FinalThetaStd, e.MaxLiquidMean*1.e3, e.MaxLiquidStd*1.e3); err != nil {
			return e, fmt.Errorf("parcelutil: printing results: %w", err)
		}
	}
	return e, nil
}

// checkFailsafe logs the steps of traj where the saturation adjustment
// did not converge. More than one such step means the simulation is
// numerically stiff, which is logged as an error.
func checkFailsafe(log logrus.FieldLogger, traj parcel.Trajectory) {
	n := traj.FailsafeCount()
	switch {
	case n == 1:
		log.WithField("failsafe_steps", n).Warn("saturation adjustment did not converge at one step")
	case n > 1:
		log.WithField("failsafe_steps", n).Error("saturation adjustment did not converge at several steps; the simulation is numerically stiff, try a smaller PressureStep")
	}
}

func (e *Ensemble) summarize() {
	theta := make([]float64, len(e.Trials))
	qc := make([]float64, len(e.Trials))
	for i, t := range e.Trials {
		theta[i] = t.Summary.FinalPotentialTemperature
		qc[i] = t.Summary.MaxLiquid
	}
	e.FinalThetaMean = stat.Mean(theta, nil)
	e.MaxLiquidMean = stat.Mean(qc, nil)
	if len(e.Trials) > 1 {
		e.FinalThetaStd = stat.StdDev(theta, nil)
		e.MaxLiquidStd = stat.StdDev(qc, nil)
	}
}
