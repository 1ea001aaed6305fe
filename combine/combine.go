/*
 * combine.go, part of govasp.
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

//Package combine merges the frames of many vasprun.xml files, found under a root
//directory, into a single extended XYZ trajectory.
//
//The steps are available on their own (Discover, Filter, Order) and chained by Run,
//which also reads each file and appends its frames to the output.
package combine

import (
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	chem "github.com/rmera/govasp"
	"github.com/rmera/govasp/traj/extxyz"
	"github.com/rmera/govasp/vasprun"
)

//DefaultPattern and DefaultOutput are the input file name and the output file merged by default.
const (
	DefaultPattern = "vasprun.xml"
	DefaultOutput  = "traj.xyz"
)

//Options controls a merge.
type Options struct {
	Root        string
	Pattern     string
	Output      string
	Recursive   bool
	IncludeRoot bool
	//NumericOnly drops the files in directories that are neither numeric nor the root.
	NumericOnly bool
	Sort        SortOrder
	//Stride keeps every Stride-th frame of each file, starting with the first one.
	Stride     int
	Compressed bool
	//Progress gets the "Adding..." lines and the final "...Done!". Nil discards them.
	Progress io.Writer
	Logger   zerolog.Logger
}

//DefaultOptions returns the options that merge every vasprun.xml under the current
//directory, in natural order, into traj.xyz.
func DefaultOptions() Options {
	return Options{
		Root:        ".",
		Pattern:     DefaultPattern,
		Output:      DefaultOutput,
		Recursive:   true,
		IncludeRoot: true,
		Sort:        SortNatural,
		Stride:      1,
		Logger:      zerolog.Nop(),
	}
}

//Validate checks the options and fills the empty ones with their defaults.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Sort == "" {
		o.Sort = SortNatural
	}
	if _, err := ParseSortOrder(string(o.Sort)); err != nil {
		return err
	}
	if o.Stride == 0 {
		o.Stride = 1
	}
	if o.Stride < 0 {
		return fmt.Errorf("stride must be positive, got %d", o.Stride)
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	return nil
}

//FileCount is the number of frames merged from one file.
type FileCount struct {
	Path     string
	Frames   int
	Energies []float64
	//EnergyFrames has the index, in the output, of the frame of each energy.
	EnergyFrames []int
}

//EnergyStats summarizes the energies of the merged frames, in eV.
type EnergyStats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

//Report describes a finished merge.
type Report struct {
	Output string
	Files  []FileCount
	Frames int
	//Energies has the energy of each merged frame that has one, in output order.
	Energies []float64
}

//PerFile returns, for each merged file, the output index of the frames with an
//energy and those energies.
func (r *Report) PerFile() ([][]int, [][]float64) {
	frames := make([][]int, len(r.Files))
	energies := make([][]float64, len(r.Files))
	for i, f := range r.Files {
		frames[i] = f.EnergyFrames
		energies[i] = f.Energies
	}
	return frames, energies
}

//Stats returns the statistics of the energies in the report, and false if there are none.
func (r *Report) Stats() (EnergyStats, bool) {
	if len(r.Energies) == 0 {
		return EnergyStats{}, false
	}
	var s EnergyStats
	s.Mean, s.StdDev = stat.MeanStdDev(r.Energies, nil)
	if len(r.Energies) < 2 || math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	s.Min = floats.Min(r.Energies)
	s.Max = floats.Max(r.Energies)
	return s, true
}

//Files returns the entries to merge with the given options: discovered,
//filtered (if asked for) and ordered.
func Files(o Options) ([]Entry, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	entries, err := Discover(o.Root, o.Pattern, o.Recursive, o.IncludeRoot, o.Compressed)
	if err != nil {
		return nil, err
	}
	found := len(entries)
	if o.NumericOnly {
		entries = Filter(entries)
	}
	if err := Order(entries, o.Sort); err != nil {
		return nil, err
	}
	o.Logger.Debug().Str("root", o.Root).Int("found", found).Int("kept", len(entries)).Msg("discovered input files")
	return entries, nil
}

//Run merges the frames of all the files selected by o into o.Output. The output
//is created even if there is nothing to merge, in which case it is left empty.
//If the merge fails, the output may have only part of the frames.
func Run(o Options) (*Report, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	entries, err := Files(o)
	if err != nil {
		return nil, err
	}
	w, err := extxyz.NewWriter(o.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	defer w.Close()
	rep, err := Merge(w, entries, o)
	if err != nil {
		return rep, err
	}
	if err := w.Close(); err != nil {
		return rep, fmt.Errorf("closing output: %w", err)
	}
	rep.Output = o.Output
	fmt.Fprintln(o.Progress, "...Done!")
	o.Logger.Info().Str("output", o.Output).Int("files", len(rep.Files)).Int("frames", rep.Frames).Msg("trajectory written")
	return rep, nil
}

//Merge reads the entries, in order, and writes their frames to w. It does not close w.
func Merge(w chem.FrameWriter, entries []Entry, o Options) (*Report, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	rep := &Report{Files: make([]FileCount, 0, len(entries))}
	for _, e := range entries {
		fmt.Fprintf(o.Progress, "Adding %s: ", e.Path)
		top, frames, err := vasprun.ReadAll(e.Path, vasprun.WithLogger(o.Logger))
		if err != nil {
			fmt.Fprintln(o.Progress)
			return rep, fmt.Errorf("reading %s: %w", e.Path, err)
		}
		n := 0
		var fe []float64
		var ff []int
		for i, F := range frames {
			if i%o.Stride != 0 {
				continue
			}
			if err := w.WFrame(top, F); err != nil {
				fmt.Fprintln(o.Progress)
				return rep, fmt.Errorf("writing frame %d of %s: %w", i+1, e.Path, err)
			}
			if F.HasEnergy {
				fe = append(fe, F.Energy)
				ff = append(ff, rep.Frames+n)
			}
			n++
		}
		fmt.Fprintf(o.Progress, "%d frames...\n", n)
		o.Logger.Debug().Str("file", e.Path).Int("read", len(frames)).Int("written", n).Msg("merged file")
		rep.Files = append(rep.Files, FileCount{Path: e.Path, Frames: n, Energies: fe, EnergyFrames: ff})
		rep.Frames += n
		rep.Energies = append(rep.Energies, fe...)
	}
	return rep, nil
}
