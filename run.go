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
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// DefaultMaxSteps is the default maximum number of states in a trajectory.
const DefaultMaxSteps = 1000

// stepRoundoff keeps floating point error in the pressure range
// from dropping a step when it divides evenly by the step size.
const stepRoundoff = 1e-9

// InitialConditions specify the starting state of the parcel and
// the pressure levels it moves through.
type InitialConditions struct {
	Pressure    float64 // initial pressure [mb]
	Temperature float64 // initial temperature [°C]

	VaporMixingRatio  float64 // [kg/kg]
	LiquidMixingRatio float64 // [kg/kg]

	// TotalWaterMixingRatio [kg/kg] is recorded for reference only;
	// the simulation conserves VaporMixingRatio + LiquidMixingRatio.
	TotalWaterMixingRatio float64

	// SaturationMixingRatio [kg/kg] of the initial state. If it is not
	// positive, it is calculated from the initial temperature and pressure.
	SaturationMixingRatio float64

	RelativeHumidity float64 // initial relative humidity [fraction]

	PressureStep float64 // [mb]
	TopPressure  float64 // [mb]
}

// maxCycles keeps Steps within the range of an int on every platform.
const maxCycles = (math.MaxInt32 - 1) / 2

// cycles returns the number of pressure steps between the initial
// pressure and the top pressure, without any limit.
func (ic InitialConditions) cycles() float64 {
	return math.Floor((ic.Pressure-ic.TopPressure)/ic.PressureStep + stepRoundoff)
}

// Cycles returns the number of pressure steps between the initial
// pressure and the top pressure. Counts that are too large to store
// are reported as (math.MaxInt32-1)/2.
func (ic InitialConditions) Cycles() int {
	n := ic.cycles()
	switch {
	case n < 0:
		return 0
	case !(n <= maxCycles):
		return maxCycles
	}
	return int(n)
}

// Steps returns the number of states in a complete simulation:
// the initial state plus one ascending and one descending state per cycle.
func (ic InitialConditions) Steps() int {
	return 2*ic.Cycles() + 1
}

func (ic InitialConditions) validate() error {
	const op = "initial conditions"
	notFinite := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	switch {
	case notFinite(ic.Pressure) || ic.Pressure <= 0:
		return domainErr(op, "Pressure", ic.Pressure, "must be a positive pressure [mb]")
	case notFinite(ic.TopPressure) || ic.TopPressure <= 0:
		return domainErr(op, "TopPressure", ic.TopPressure, "must be a positive pressure [mb]")
	case ic.TopPressure > ic.Pressure:
		return domainErr(op, "TopPressure", ic.TopPressure,
			fmt.Sprintf("must not be greater than the initial pressure (%g mb)", ic.Pressure))
	case notFinite(ic.PressureStep) || ic.PressureStep <= 0:
		return domainErr(op, "PressureStep", ic.PressureStep, "must be > 0 [mb]")
	case notFinite(ic.Temperature) || ic.Temperature+kelvinAtZeC <= 0:
		return domainErr(op, "Temperature", ic.Temperature, "must be above absolute zero [°C]")
	case !(ic.VaporMixingRatio >= 0) || notFinite(ic.VaporMixingRatio):
		return domainErr(op, "VaporMixingRatio", ic.VaporMixingRatio, "must be >= 0")
	case !(ic.LiquidMixingRatio >= 0) || notFinite(ic.LiquidMixingRatio):
		return domainErr(op, "LiquidMixingRatio", ic.LiquidMixingRatio, "must be >= 0")
	case !(ic.TotalWaterMixingRatio >= 0) || notFinite(ic.TotalWaterMixingRatio):
		return domainErr(op, "TotalWaterMixingRatio", ic.TotalWaterMixingRatio, "must be >= 0")
	case !(ic.RelativeHumidity >= 0) || notFinite(ic.RelativeHumidity):
		return domainErr(op, "RelativeHumidity", ic.RelativeHumidity, "must be >= 0")
	}
	return nil
}

// SetInitialState returns a function that checks the initial conditions
// and sets the initial (step 0) state of the parcel. The initial state is
// taken as given; it is not adjusted.
func SetInitialState(ic InitialConditions) Manipulator {
	return func(p *Parcel) error {
		if err := ic.validate(); err != nil {
			return err
		}
		pressure := ic.Pressure * paPerMb
		T := ic.Temperature + kelvinAtZeC
		p.Dp = ic.PressureStep * paPerMb

		qvs := ic.SaturationMixingRatio
		if !(qvs > 0) {
			qvs = p.SaturationMixingRatio(T, pressure)
		}

		p.Step = 0
		p.Done = false
		p.Current = ParcelState{
			Step:                  0,
			Phase:                 Initial,
			Pressure:              pressure,
			Temperature:           T,
			PotentialTemperature:  p.PotentialTemperature(T, pressure),
			VaporMixingRatio:      ic.VaporMixingRatio,
			LiquidMixingRatio:     ic.LiquidMixingRatio,
			SaturationMixingRatio: qvs,
			Exner:                 p.Exner(pressure),
			RelativeHumidity:      ic.RelativeHumidity,
			Status:                Converged,
		}
		return nil
	}
}

// CheckCapacity returns a function that makes sure the complete
// simulation starting from ic fits in a trajectory of at most maxSteps
// states, and never more than math.MaxInt32. It then sets the number of
// cycles and steps and allocates the trajectory. It must run after
// SetInitialState and before any state is recorded.
func CheckCapacity(ic InitialConditions, maxSteps int) Manipulator {
	if maxSteps > 2*maxCycles+1 {
		maxSteps = 2*maxCycles + 1
	}
	return func(p *Parcel) error {
		steps := 2*ic.cycles() + 1
		if !(steps <= float64(maxSteps)) {
			return &CapacityError{Steps: steps, Capacity: maxSteps}
		}
		p.NCycles = ic.Cycles()
		p.NSteps = ic.Steps()
		p.Trajectory = make(Trajectory, 0, p.NSteps)
		return nil
	}
}

// Lift returns a function that moves the parcel to the next pressure
// level: up by one pressure step for the first p.NCycles steps, and then
// back down. Each function in onDescent is called once, when the parcel
// starts descending.
func Lift(onDescent ...func(*Parcel)) Manipulator {
	return func(p *Parcel) error {
		p.Step++
		p.Current.Step = p.Step
		if p.Step <= p.NCycles {
			p.Current.Phase = Ascending
			p.Current.Pressure -= p.Dp
			return nil
		}
		if p.Current.Phase != Descending {
			p.Current.Phase = Descending
			for _, f := range onDescent {
				f(p)
			}
		}
		p.Current.Pressure += p.Dp
		return nil
	}
}

// SaturationAdjustment returns a function that adjusts the parcel to
// be consistent with its current pressure, starting from the potential
// temperature and water content of the previous step.
func SaturationAdjustment(s *Solver) Manipulator {
	return func(p *Parcel) error {
		c := &p.Current
		r, err := s.Adjust(c.PotentialTemperature, c.VaporMixingRatio, c.LiquidMixingRatio, c.Pressure)
		if err != nil {
			return fmt.Errorf("parcel: step %d at %g mb: %w", p.Step, c.PressureMb(), err)
		}
		c.PotentialTemperature = r.PotentialTemperature
		c.VaporMixingRatio = r.VaporMixingRatio
		c.LiquidMixingRatio = r.LiquidMixingRatio
		c.SaturationMixingRatio = r.SaturationMixingRatio
		c.Exner = r.Exner
		c.Temperature = r.Temperature()
		c.RelativeHumidity = r.VaporMixingRatio / r.SaturationMixingRatio
		c.Status = r.Status
		c.Iterations = r.Iterations
		return nil
	}
}

// Record returns a function that appends the current state to the
// trajectory and passes it to each observer.
func Record(observers ...func(ParcelState)) Manipulator {
	return func(p *Parcel) error {
		p.Trajectory = append(p.Trajectory, p.Current)
		for _, o := range observers {
			o(p.Current)
		}
		return nil
	}
}

// CheckDone returns a function that sets p.Done once the final
// state has been reached.
func CheckDone() Manipulator {
	return func(p *Parcel) error {
		if p.Step >= p.NSteps-1 {
			p.Done = true
		}
		return nil
	}
}

// Log returns a function that writes the state of each step to l.
// Steps where the saturation adjustment reached its iteration limit are
// logged as warnings.
func Log(l logrus.FieldLogger) Manipulator {
	return func(p *Parcel) error {
		c := p.Current
		entry := l.WithFields(logrus.Fields{
			"step":        c.Step,
			"phase":       c.Phase,
			"pressure_mb": c.PressureMb(),
		})
		if c.Status == FailsafeReached {
			entry.WithField("iterations", c.Iterations).
				Warn("saturation adjustment reached its iteration limit")
			return nil
		}
		entry.WithFields(logrus.Fields{
			"theta_K": c.PotentialTemperature,
			"T_K":     c.Temperature,
			"qv_gkg":  c.VaporGPerKg(),
			"qc_gkg":  c.LiquidGPerKg(),
			"rh":      c.RelativeHumidity,
		}).Debug("parcel state")
		return nil
	}
}

type options struct {
	solver    *Solver
	maxSteps  int
	logger    logrus.FieldLogger
	onDescent []func(*Parcel)
	observers []func(ParcelState)
}

// Option configures Integrate.
type Option func(*options)

// WithSolver sets the saturation adjustment solver. A nil solver
// leaves the default in place.
func WithSolver(s *Solver) Option {
	return func(o *options) {
		if s != nil {
			o.solver = s
		}
	}
}

// WithMaxSteps sets the maximum number of states in the trajectory.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithLogger sets where step information is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithDescentNotifier adds a function that is called once, when the
// parcel passes the top level and starts descending.
func WithDescentNotifier(f func(*Parcel)) Option {
	return func(o *options) { o.onDescent = append(o.onDescent, f) }
}

// WithStepObserver adds a function that is called with every recorded state.
func WithStepObserver(f func(ParcelState)) Option {
	return func(o *options) { o.observers = append(o.observers, f) }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// Integrate moves a parcel with the given initial conditions from its
// initial pressure up to the top pressure and back down in steps of
// ic.PressureStep, adjusting it to saturation at each level. The returned
// trajectory has ic.Steps() states.
func Integrate(ic InitialConditions, opts ...Option) (Trajectory, error) {
	o := options{
		solver:   NewSolver(DefaultConstants()),
		maxSteps: DefaultMaxSteps,
		logger:   discardLogger(),
	}
	for _, f := range opts {
		f(&o)
	}

	p := &Parcel{
		Constants: o.solver.Constants,
		InitFuncs: []Manipulator{
			SetInitialState(ic),
			CheckCapacity(ic, o.maxSteps),
			Record(o.observers...),
			Log(o.logger),
			CheckDone(),
		},
		RunFuncs: []Manipulator{
			Lift(o.onDescent...),
			SaturationAdjustment(o.solver),
			Record(o.observers...),
			Log(o.logger),
			CheckDone(),
		},
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	if err := p.Run(); err != nil {
		return nil, err
	}
	if err := p.Cleanup(); err != nil {
		return nil, err
	}
	return p.Trajectory, nil
}
