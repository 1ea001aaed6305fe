/*
 * main.go, part of govasp.
 *
 * Copyright 2024 The govasp authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Command vasptraj merges the vasprun.xml files found under a directory into
// a single extended XYZ trajectory.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	chem "github.com/rmera/govasp"
	"github.com/rmera/govasp/chemplot"
	"github.com/rmera/govasp/combine"
	"github.com/rmera/govasp/internal/cliconfig"
	"github.com/rmera/govasp/traj/extxyz"
)

const longHelp = `Merge the frames of every vasprun.xml under a directory into one
extended XYZ trajectory (traj.xyz), one file after the other.

With no flags, every vasprun.xml under the current directory, including the one
in the directory itself, is merged in natural order (2/ before 10/).

Configuration is read from --config (or ./vasptraj.toml, if present), then from
the VASPTRAJ_ROOT, VASPTRAJ_OUTPUT, VASPTRAJ_PATTERN, VASPTRAJ_SORT,
VASPTRAJ_NUMERIC_ONLY and VASPTRAJ_STRIDE environment variables. Flags
given explicitly override both.`

var exampleUsage = strings.TrimSpace(`
  vasptraj
  vasptraj --numeric-only --sort lexical --output relax.xyz.gz
  vasptraj --root runs --stride 10 --plot energy.png
  vasptraj frames traj.xyz
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// loadConfig applies the config file and the environment to cfg, without
// touching the values of the flags in changed.
func loadConfig(cfg *cliconfig.Config, cfgPath string, changed map[string]bool) error {
	cfgFile := cfgPath
	if cfgFile == "" && cliconfig.FileExists(cliconfig.DefaultConfigPath) {
		cfgFile = cliconfig.DefaultConfigPath
	}
	if cfgFile != "" {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cliconfig.ApplyFileConfig(cfg, fc, changed)
	}
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return cfg.Validate()
}

func framesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frames <file.xyz>...",
		Short: "Print the number of frames in extended XYZ files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total := 0
			for _, name := range args {
				n, err := extxyz.Count(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames\n", name, n)
				total += n
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "total: %d frames\n", total)
			}
			return nil
		},
	}
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger(false)

	root := &cobra.Command{
		Use:           "vasptraj",
		Short:         "Merge vasprun.xml files into a single extended XYZ trajectory",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := loadConfig(&cfg, cfgPath, changed); err != nil {
				return err
			}
			log = cliconfig.Logger(cfg.Verbose)
			log.Debug().Interface("config", cfg).Msg("configuration")

			opts, err := cfg.Options(log)
			if err != nil {
				return err
			}
			opts.Progress = cmd.OutOrStdout()
			rep, err := combine.Run(opts)
			if err != nil {
				return err
			}
			if stats, ok := rep.Stats(); ok {
				log.Info().Int("frames", rep.Frames).Float64("mean", stats.Mean).Float64("std", stats.StdDev).
					Float64("min", stats.Min).Float64("max", stats.Max).Msg("energies (eV)")
			}
			if cfg.Plot == "" {
				return nil
			}
			if len(rep.Energies) == 0 {
				log.Warn().Str("plot", cfg.Plot).Msg("no energies in the merged frames, not plotting")
				return nil
			}
			frames, energies := rep.PerFile()
			if err := chemplot.EnergyPlotParts(frames, energies, rep.Output, cfg.Plot); err != nil {
				return fmt.Errorf("plot: %w", err)
			}
			log.Info().Str("plot", cfg.Plot).Msg("energy plot saved")
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: ./"+cliconfig.DefaultConfigPath+" if present)")
	root.Flags().StringVar(&cfg.Root, "root", cfg.Root, "directory to search for input files")
	root.Flags().StringVar(&cfg.Pattern, "pattern", cfg.Pattern, "name (or glob) of the input files")
	root.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "output trajectory (.gz or .zst to compress)")
	root.Flags().BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "search every depth under root (false: only root/*/)")
	root.Flags().BoolVar(&cfg.IncludeRoot, "include-root", cfg.IncludeRoot, "include the input file in root itself")
	root.Flags().BoolVar(&cfg.NumericOnly, "numeric-only", cfg.NumericOnly, "only merge files in root or in directories with numeric names")
	root.Flags().StringVar(&cfg.Sort, "sort", cfg.Sort, "file order: natural or lexical")
	root.Flags().IntVar(&cfg.Stride, "stride", cfg.Stride, "keep every n-th frame of each file")
	root.Flags().BoolVar(&cfg.Compressed, "compressed", cfg.Compressed, "also read gzip/zstd compressed inputs (pattern.gz, pattern.zst)")
	root.Flags().StringVar(&cfg.Plot, "plot", cfg.Plot, "save a plot of the energy of each frame (png, svg, pdf)")
	root.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log debug messages")

	root.AddCommand(framesCmd())

	if err := root.Execute(); err != nil {
		var terr chem.TrajError
		if errors.As(err, &terr) {
			log.Error().Err(err).Str("file", terr.FileName()).Str("format", terr.Format()).Msg("vasptraj")
		} else {
			log.Error().Err(err).Msg("vasptraj")
		}
		os.Exit(1)
	}
}
