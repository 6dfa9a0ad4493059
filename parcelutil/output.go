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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spatialmodel/parcel"
)

// csvHeader is the first line of a new output file.
const csvHeader = "# P_MB, T, TH, QV, QC"

const tableLine = "------------------------------------------"

// rowGroup is the number of table rows between blank lines.
const rowGroup = 5

// WriteTable prints a table of the trajectory t, which was started from
// the initial conditions ic, to w.
func WriteTable(w io.Writer, ic parcel.InitialConditions, t parcel.Trajectory) error {
	ew := &errWriter{w: w}

	ew.printf("\n\nParameters & Units\n\n")
	ew.printf("Var\tDescription\t\tUnit\n")
	ew.printf("%s\n", tableLine)
	ew.printf("P\tPressure\t\t[mb]\n")
	ew.printf("TH\tTheta\t\t\t[K]\n")
	ew.printf("T\tTemperature\t\t[K]\n")
	ew.printf("qv\tWater Vap Mix Rat.\t[g/kg]\n")
	ew.printf("qc\tLiq Water Mix Rat.\t[g/kg]\n")
	ew.printf("RH\tRelative Humidity\t[-]\n")
	ew.printf("%s\n", tableLine)

	ew.printf("\nINITIAL CONDITIONS...\n")
	ew.printf("T: %3.2f C\n", ic.Temperature)
	ew.printf("qv: %3.2f g/kg\n", ic.VaporMixingRatio*1.e3)
	ew.printf("qc: %3.2f g/kg\n", ic.LiquidMixingRatio*1.e3)

	ew.printf("\nCOMPUTATIONS...\n\n")
	ew.printf("P\tTH\tT\tqv\tqc\tRH\n")
	ew.printf("%s\n", tableLine)

	for i, s := range t {
		if s.Phase == parcel.Descending && (i == 0 || t[i-1].Phase != parcel.Descending) {
			ew.printf("%s\n", tableLine)
			ew.printf("                DESCENDING                \n")
			ew.printf("%s\n", tableLine)
		}
		ew.printf("%4.0f\t%3.2f\t%3.2f\t%3.2f\t%3.2f\t%3.2f\n",
			s.PressureMb(), s.PotentialTemperature, s.Temperature,
			s.VaporGPerKg(), s.LiquidGPerKg(), s.RelativeHumidity)
		if s.Step%rowGroup == 0 {
			ew.printf("\n")
		}
	}
	ew.printf("%s\n", tableLine)
	return ew.err
}

// errWriter keeps the first error that occurs while writing.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

// WriteCSV writes t to w as comma separated values, one line per
// state: pressure [mb], temperature [K], potential temperature [K],
// water vapor mixing ratio [g/kg], and liquid water mixing ratio [g/kg].
// If header is true, a comment line naming the columns is written first.
func WriteCSV(w io.Writer, t parcel.Trajectory, header bool) error {
	if header {
		if _, err := fmt.Fprintln(w, csvHeader); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	for _, s := range t {
		err := cw.Write([]string{
			format(s.PressureMb()),
			format(s.Temperature),
			format(s.PotentialTemperature),
			format(s.VaporGPerKg()),
			format(s.LiquidGPerKg()),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeOutputFile writes t to the file at path. If appendFile is true the
// results are added to the end of the file; otherwise the file is
// replaced and starts with a header line.
func writeOutputFile(path string, t parcel.Trajectory, appendFile bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendFile {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return fmt.Errorf("parcelutil: opening output file: %w", err)
	}
	if err := WriteCSV(f, t, !appendFile); err != nil {
		f.Close()
		return fmt.Errorf("parcelutil: writing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("parcelutil: closing output file: %w", err)
	}
	return nil
}
