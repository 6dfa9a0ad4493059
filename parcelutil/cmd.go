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

// Package parcelutil contains the command-line interface and the
// input and output collaborators for the parcel model.
package parcelutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/parcel"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	// Root is the main command.
	Root *cobra.Command

	// Log receives the program's log messages.
	Log *logrus.Logger

	versionCmd, runCmd, configCmd *cobra.Command

	options []option
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig creates a new configuration holder with
// all of its commands and options.
func InitializeConfig() *Cfg {
	cfg := &Cfg{
		Viper: viper.New(),
		Log:   newLogger(os.Stderr),
	}

	cfg.Root = &cobra.Command{
		Use:   "parcel",
		Short: "A moist air parcel model.",
		Long: `parcel simulates an idealized moist air parcel that is lifted from an
initial pressure to a top pressure and brought back down again, adjusting
it to saturation at every pressure level. Use the subcommands specified
below to access the model functionality. Running parcel without a
subcommand is the same as running 'parcel run'.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PARCEL_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "version prints the version number of this version of parcel.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Parcel v%s\n", parcel.Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the model.",
		Long: `run lifts the parcel from InitialPressure to TopPressure in steps of
PressureStep and then brings it back down. If Trials is greater than one,
the simulation is repeated, each time with a new random perturbation of the
initial temperature. The results are printed to the console and written
to OutputFile as comma separated values: pressure [mb], temperature [K],
potential temperature [K], water vapor mixing ratio [g/kg], and liquid
water mixing ratio [g/kg].`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ic, err := InitialConditions(cfg.Viper)
			if err != nil {
				return err
			}
			tc, err := TrialConfig(cfg.Viper)
			if err != nil {
				return err
			}
			_, err = RunTrials(cmd.OutOrStdout(), cfg.Log, ic, tc)
			return err
		},
		DisableAutoGenTag: true,
	}

	cfg.configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the configuration.",
		Long: `config prints the configuration that the run command would use, in
TOML format. The output can be saved and used with the --config flag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.writeConfig(cmd.OutOrStdout())
		},
		DisableAutoGenTag: true,
	}

	cfg.options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum severity of the log messages
              to print: one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "InitialPressure",
			usage: `
              InitialPressure is the pressure where the parcel starts
              and ends its motion, in PressureUnits.`,
			shorthand:  "p",
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "PressureStep",
			usage: `
              PressureStep is the change in pressure between successive
              levels, in PressureUnits.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "TopPressure",
			usage: `
              TopPressure is the pressure where the parcel stops rising
              and starts to descend, in PressureUnits.`,
			defaultVal: 500.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "PressureUnits",
			usage: `
              PressureUnits are the units of InitialPressure, PressureStep,
              and TopPressure: one of Pa, hPa, mb, kPa, or bar.`,
			defaultVal: "mb",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "Temperature",
			usage: `
              Temperature is the initial temperature of the parcel, in
              TemperatureUnits, before any perturbation is added.`,
			shorthand:  "t",
			defaultVal: 20.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "TemperatureUnits",
			usage: `
              TemperatureUnits are the units of Temperature: C for degrees
              Celsius or K for kelvin.`,
			defaultVal: "C",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "VaporMixingRatio",
			usage: `
              VaporMixingRatio is the initial water vapor mixing ratio [kg/kg].`,
			defaultVal: 14.8e-3,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "LiquidMixingRatio",
			usage: `
              LiquidMixingRatio is the initial liquid water mixing ratio [kg/kg].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "TotalWaterMixingRatio",
			usage: `
              TotalWaterMixingRatio is the initial total water mixing ratio
              [kg/kg]. It is recorded for reference; the model uses the sum
              of VaporMixingRatio and LiquidMixingRatio.`,
			defaultVal: 14.8e-3,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "SaturationMixingRatio",
			usage: `
              SaturationMixingRatio is the initial saturation mixing ratio
              [kg/kg]. If it is zero, it is calculated from the initial
              temperature and pressure.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "RelativeHumidity",
			usage: `
              RelativeHumidity is the initial relative humidity [fraction].`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "Perturbation",
			usage: `
              Perturbation is the largest random change [°C] that is added to
              the initial temperature at the start of each trial. Set it to
              zero for an unperturbed simulation.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "Trials",
			usage: `
              Trials is the number of simulations to run.`,
			shorthand:  "n",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "Seed",
			usage: `
              Seed is the seed for the random perturbations. If it is zero,
              the current time is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "MaxSteps",
			usage: `
              MaxSteps is the largest number of pressure levels, including
              the initial level, that a single simulation may have.`,
			defaultVal: parcel.DefaultMaxSteps,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "WriteOutput",
			usage: `
              WriteOutput specifies whether to write the results to OutputFile.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the results are written. The first
              trial replaces any existing file and later trials are appended
              to it.`,
			shorthand:  "o",
			defaultVal: "results.txt",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
		{
			name: "Console",
			usage: `
              Console specifies whether to print a table of the results to
              the console.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.configCmd.Flags()},
		},
	}

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("PARCEL")
	cfg.AutomaticEnv()

	for _, option := range cfg.options {
		option.addTo(option.flagsets[0])
		flag := option.flagsets[0].Lookup(option.name)
		for _, set := range option.flagsets[1:] {
			set.AddFlag(flag) // Share the flag so it is only bound once.
		}
		cfg.BindPFlag(option.name, flag)
	}

	// Link the commands together.
	cfg.Root.AddCommand(cfg.versionCmd)
	cfg.Root.AddCommand(cfg.runCmd)
	cfg.Root.AddCommand(cfg.configCmd)

	return cfg
}

// addTo creates a flag for the option in set, with a type
// that matches the option's default value.
func (o option) addTo(set *pflag.FlagSet) {
	switch v := o.defaultVal.(type) {
	case string:
		set.StringP(o.name, o.shorthand, v, o.usage)
	case bool:
		set.BoolP(o.name, o.shorthand, v, o.usage)
	case int:
		set.IntP(o.name, o.shorthand, v, o.usage)
	case float64:
		set.Float64P(o.name, o.shorthand, v, o.usage)
	default:
		panic(fmt.Errorf("parcelutil: invalid type %T for option %s", v, o.name))
	}
}

// newLogger returns a logger that writes timestamped text to w.
func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.Out = w
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	return l
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func (cfg *Cfg) setConfig() error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("parcelutil: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("parcelutil: invalid LogLevel: %v", err)
	}
	cfg.Log.SetLevel(level)
	return nil
}

// writeConfig writes the current value of every option except
// the configuration file location to w in TOML format.
func (cfg *Cfg) writeConfig(w io.Writer) error {
	c := make(map[string]interface{})
	for _, option := range cfg.options {
		if option.name == "config" {
			continue
		}
		var v interface{}
		var err error
		switch option.defaultVal.(type) {
		case float64:
			v, err = cast.ToFloat64E(cfg.Get(option.name))
		case int:
			v, err = cast.ToIntE(cfg.Get(option.name))
		case bool:
			v, err = cast.ToBoolE(cfg.Get(option.name))
		default:
			v, err = cast.ToStringE(cfg.Get(option.name))
		}
		if err != nil {
			return fmt.Errorf("parcelutil: reading configuration variable '%s': %v", option.name, err)
		}
		c[option.name] = v
	}
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("parcelutil: writing configuration: %v", err)
	}
	return nil
}
