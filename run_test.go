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
	"math"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// defaultConditions returns the standard test case: a warm, moist
// surface parcel lifted to 500 mb in 10 mb steps.
func defaultConditions() InitialConditions {
	return InitialConditions{
		Pressure:              1000,
		Temperature:           20,
		VaporMixingRatio:      14.8e-3,
		TotalWaterMixingRatio: 14.8e-3,
		RelativeHumidity:      0.5,
		PressureStep:          10,
		TopPressure:           500,
	}
}

func TestCycles(t *testing.T) {
	tests := []struct {
		dp, top       float64
		cycles, steps int
	}{
		{dp: 10, top: 500, cycles: 50, steps: 101},
		{dp: 7, top: 500, cycles: 71, steps: 143},
		{dp: 0.1, top: 999, cycles: 10, steps: 21},
		{dp: 10, top: 1000, cycles: 0, steps: 1},
		{dp: 600, top: 500, cycles: 0, steps: 1},
	}
	for _, test := range tests {
		ic := defaultConditions()
		ic.PressureStep = test.dp
		ic.TopPressure = test.top
		if c := ic.Cycles(); c != test.cycles {
			t.Errorf("dp=%g, top=%g: cycles=%d; want %d", test.dp, test.top, c, test.cycles)
		}
		if s := ic.Steps(); s != test.steps {
			t.Errorf("dp=%g, top=%g: steps=%d; want %d", test.dp, test.top, s, test.steps)
		}
	}
}

func TestIntegrate(t *testing.T) {
	var descents int
	var descentStep int
	var observed int
	traj, err := Integrate(defaultConditions(),
		WithDescentNotifier(func(p *Parcel) {
			descents++
			descentStep = p.Step
		}),
		WithStepObserver(func(ParcelState) { observed++ }),
	)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("length", func(t *testing.T) {
		if len(traj) != 101 {
			t.Fatalf("length=%d; want 101", len(traj))
		}
		if observed != len(traj) {
			t.Errorf("observed %d states; want %d", observed, len(traj))
		}
	})

	t.Run("phases", func(t *testing.T) {
		for i, s := range traj {
			want := Ascending
			switch {
			case i == 0:
				want = Initial
			case i > 50:
				want = Descending
			}
			if s.Phase != want {
				t.Errorf("step %d: phase=%v; want %v", i, s.Phase, want)
			}
			if s.Step != i {
				t.Errorf("step index %d; want %d", s.Step, i)
			}
		}
		if descents != 1 || descentStep != 51 {
			t.Errorf("descent notified %d times at step %d; want once at step 51", descents, descentStep)
		}
	})

	t.Run("pressure", func(t *testing.T) {
		for i, s := range traj {
			want := 100000 - 1000*float64(i)
			if i > 50 {
				want = 50000 + 1000*float64(i-50)
			}
			if absDifferent(s.Pressure, want, 1e-6) {
				t.Errorf("step %d: p=%g; want %g", i, s.Pressure, want)
			}
		}
	})

	t.Run("initial state", func(t *testing.T) {
		s := traj[0]
		if absDifferent(s.PotentialTemperature, 293.15, 1e-9) {
			t.Errorf("theta=%.12g; want 293.15", s.PotentialTemperature)
		}
		if s.RelativeHumidity != 0.5 {
			t.Errorf("rh=%g; want the given value 0.5", s.RelativeHumidity)
		}
		if s.VaporMixingRatio != 14.8e-3 || s.LiquidMixingRatio != 0 {
			t.Errorf("qv=%g, qc=%g; want the given values", s.VaporMixingRatio, s.LiquidMixingRatio)
		}
		if different(s.SaturationMixingRatio, 0.014875, 1e-3) {
			t.Errorf("qvs=%g should be calculated", s.SaturationMixingRatio)
		}
		if s.Iterations != 0 {
			t.Errorf("the initial state should not be adjusted")
		}
	})

	t.Run("water conservation", func(t *testing.T) {
		for i, s := range traj {
			if absDifferent(s.TotalWater(), 14.8e-3, 1e-12) {
				t.Errorf("step %d: qv+qc=%.17g", i, s.TotalWater())
			}
			if s.LiquidMixingRatio < 0 || s.VaporMixingRatio < 0 {
				t.Errorf("step %d: negative water qv=%g, qc=%g", i, s.VaporMixingRatio, s.LiquidMixingRatio)
			}
		}
	})

	t.Run("top", func(t *testing.T) {
		s := traj[50]
		if s.Pressure != 50000 {
			t.Fatalf("p=%g", s.Pressure)
		}
		for _, c := range []struct {
			name       string
			have, want float64
		}{
			{"theta", s.PotentialTemperature, 322.63561079702276},
			{"T", s.Temperature, 264.64329650945643},
			{"qc", s.LiquidMixingRatio, 0.010773120128049318},
			{"qv", s.VaporMixingRatio, 0.004026879871950682},
		} {
			if different(c.have, c.want, 1e-6) {
				t.Errorf("%s=%.17g; want %.17g", c.name, c.have, c.want)
			}
		}
		if different(s.RelativeHumidity, 1, 1e-12) {
			t.Errorf("rh=%g; want 1", s.RelativeHumidity)
		}
	})

	t.Run("return to surface", func(t *testing.T) {
		s := traj.Final()
		if s.Pressure != 100000 {
			t.Fatalf("p=%g", s.Pressure)
		}
		if absDifferent(s.PotentialTemperature, 293.15, 0.5) {
			t.Errorf("theta=%g should be close to the initial value", s.PotentialTemperature)
		}
		if different(s.PotentialTemperature, 293.26174658317746, 1e-6) {
			t.Errorf("theta=%.17g", s.PotentialTemperature)
		}
		if s.LiquidMixingRatio != 0 {
			t.Errorf("qc=%g; the parcel should be subsaturated", s.LiquidMixingRatio)
		}
		if different(s.RelativeHumidity, 0.987872529445233, 1e-6) {
			t.Errorf("rh=%g", s.RelativeHumidity)
		}
	})

	t.Run("converged", func(t *testing.T) {
		if n := traj.FailsafeCount(); n != 0 {
			t.Errorf("%d steps reached the failsafe", n)
		}
		for i, s := range traj[1:] {
			if s.Iterations < 1 || s.Iterations > DefaultMaxIterations {
				t.Errorf("step %d: %d iterations", i+1, s.Iterations)
			}
		}
	})

	t.Run("summary", func(t *testing.T) {
		sum := traj.Summary()
		if sum.Steps != 101 {
			t.Errorf("steps=%d", sum.Steps)
		}
		if sum.MaxLiquidPressure != 50000 {
			t.Errorf("max liquid at %g Pa; want 50000", sum.MaxLiquidPressure)
		}
		if different(sum.MaxLiquid, 0.010773120128049318, 1e-6) {
			t.Errorf("max qc=%g", sum.MaxLiquid)
		}
		if different(sum.MinTemperature, 264.64329650945643, 1e-6) {
			t.Errorf("min T=%g", sum.MinTemperature)
		}
		if sum.FailsafeSteps != 0 {
			t.Errorf("failsafe steps=%d", sum.FailsafeSteps)
		}
	})
}

func TestIntegrateDeterministic(t *testing.T) {
	a, err := Integrate(defaultConditions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Integrate(defaultConditions())
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(a, b); len(diff) != 0 {
		t.Errorf("repeated runs differ: %v", diff)
	}
}

func TestIntegrateSingleState(t *testing.T) {
	ic := defaultConditions()
	ic.TopPressure = ic.Pressure
	called := false
	traj, err := Integrate(ic, WithDescentNotifier(func(*Parcel) { called = true }))
	if err != nil {
		t.Fatal(err)
	}
	if len(traj) != 1 {
		t.Fatalf("length=%d; want 1", len(traj))
	}
	if traj[0].Phase != Initial {
		t.Errorf("phase=%v", traj[0].Phase)
	}
	if called {
		t.Error("the parcel should never descend")
	}
}

func TestIntegrateCapacity(t *testing.T) {
	ic := defaultConditions()
	ic.PressureStep = 0.1
	observed := 0
	_, err := Integrate(ic, WithStepObserver(func(ParcelState) { observed++ }))
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("err=%v; want a capacity error", err)
	}
	var ce *CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("%v should be a *CapacityError", err)
	}
	if ce.Steps != 10001 || ce.Capacity != DefaultMaxSteps {
		t.Errorf("steps=%g, capacity=%d", ce.Steps, ce.Capacity)
	}
	if observed != 0 {
		t.Errorf("%d states were produced before the capacity check", observed)
	}

	_, err = Integrate(ic, WithMaxSteps(10001))
	if err != nil {
		t.Errorf("a larger capacity should be accepted: %v", err)
	}
}

func TestIntegrateCapacityOverflow(t *testing.T) {
	for _, dp := range []float64{1e-9, 1e-16, 1e-300} {
		ic := defaultConditions()
		ic.PressureStep = dp
		if _, err := Integrate(ic); !errors.Is(err, ErrCapacity) {
			t.Errorf("dp=%g: err=%v; want a capacity error", dp, err)
		}
		traj, err := Integrate(ic, WithMaxSteps(math.MaxInt))
		if !errors.Is(err, ErrCapacity) {
			t.Errorf("dp=%g: err=%v, len=%d; want a capacity error", dp, err, len(traj))
			continue
		}
		var ce *CapacityError
		if errors.As(err, &ce) && !(ce.Steps > math.MaxInt32) {
			t.Errorf("dp=%g: steps=%g", dp, ce.Steps)
		}
		if c := ic.Cycles(); c != maxCycles {
			t.Errorf("dp=%g: cycles=%d; want %d", dp, c, maxCycles)
		}
		if s := ic.Steps(); s != math.MaxInt32 {
			t.Errorf("dp=%g: steps=%d; want %d", dp, s, math.MaxInt32)
		}
	}
}

func TestIntegrateNilSolver(t *testing.T) {
	want, err := Integrate(defaultConditions())
	if err != nil {
		t.Fatal(err)
	}
	have, err := Integrate(defaultConditions(), WithSolver(nil))
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Errorf("a nil solver should use the default: %v", diff)
	}
}

func TestIntegrateDomainError(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*InitialConditions)
		param string
	}{
		{"zero step", func(ic *InitialConditions) { ic.PressureStep = 0 }, "PressureStep"},
		{"negative step", func(ic *InitialConditions) { ic.PressureStep = -10 }, "PressureStep"},
		{"top below surface", func(ic *InitialConditions) { ic.TopPressure = 1100 }, "TopPressure"},
		{"zero top", func(ic *InitialConditions) { ic.TopPressure = 0 }, "TopPressure"},
		{"zero pressure", func(ic *InitialConditions) { ic.Pressure = 0 }, "Pressure"},
		{"absolute zero", func(ic *InitialConditions) { ic.Temperature = -273.15 }, "Temperature"},
		{"NaN temperature", func(ic *InitialConditions) { ic.Temperature = math.NaN() }, "Temperature"},
		{"negative vapor", func(ic *InitialConditions) { ic.VaporMixingRatio = -1e-3 }, "VaporMixingRatio"},
		{"negative liquid", func(ic *InitialConditions) { ic.LiquidMixingRatio = -1e-3 }, "LiquidMixingRatio"},
		{"negative relative humidity", func(ic *InitialConditions) { ic.RelativeHumidity = -0.1 }, "RelativeHumidity"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ic := defaultConditions()
			test.mod(&ic)
			_, err := Integrate(ic)
			if !errors.Is(err, ErrDomain) {
				t.Fatalf("err=%v; want a domain error", err)
			}
			var de *DomainError
			if errors.As(err, &de) && de.Param != test.param {
				t.Errorf("param=%s; want %s", de.Param, test.param)
			}
		})
	}
}

// A domain error during the simulation should report the step where
// it happened.
func TestIntegrateDomainErrorDuringRun(t *testing.T) {
	ic := InitialConditions{
		Pressure:         10,
		Temperature:      30,
		VaporMixingRatio: 0.01,
		PressureStep:     1,
		TopPressure:      5,
	}
	_, err := Integrate(ic)
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("err=%v; want a domain error", err)
	}
	if !strings.Contains(err.Error(), "step 1 at 9 mb") {
		t.Errorf("error %q should give the step", err)
	}
}

func TestIntegrateFailsafe(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSolver(DefaultConstants())
	s.Tolerance = 0

	traj, err := Integrate(defaultConditions(), WithSolver(s), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if n := traj.FailsafeCount(); n != 100 {
		t.Errorf("failsafe steps=%d; want 100", n)
	}
	if traj[0].Status != Converged {
		t.Errorf("the initial state should not be flagged")
	}
	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings != 100 {
		t.Errorf("%d warnings; want 100", warnings)
	}
	if different(traj.Final().PotentialTemperature, 293.26174653029943, 1e-6) {
		t.Errorf("theta=%.17g", traj.Final().PotentialTemperature)
	}
}

func TestIntegrateDebugLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	traj, err := Integrate(defaultConditions(), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) != len(traj) {
		t.Fatalf("%d log entries; want %d", len(hook.AllEntries()), len(traj))
	}
	last := hook.LastEntry()
	if last.Data["step"] != 100 || last.Data["phase"] != Descending {
		t.Errorf("last entry fields: %v", last.Data)
	}
}

func TestRunNoFuncs(t *testing.T) {
	p := new(Parcel)
	if err := p.Run(); err == nil {
		t.Error("expected an error")
	}
}
