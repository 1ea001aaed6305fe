/*
 * energy.go, part of govasp.
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

//Package chemplot produces plots of the data in a trajectory, using gonum/plot.
package chemplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Size of the saved plots.
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

func basicEnergyPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Energy (eV)"
	p.Add(plotter.NewGrid())
	return p
}

//EnergyPlot saves to filename a plot of the energies against the frame index.
//The format (png, svg, pdf, eps, jpg, tif) is taken from the extension of filename.
func EnergyPlot(energies []float64, title, filename string) error {
	frames := make([]int, len(energies))
	for i := range frames {
		frames[i] = i
	}
	return EnergyPlotParts([][]int{frames}, [][]float64{energies}, title, filename)
}

//EnergyPlotParts is like EnergyPlot, but the energies come in parts (one per input
//file, for instance), each plotted in a different color. frames[k][i] is the frame
//index of energies[k][i], so frames without an energy leave a gap in the x axis.
func EnergyPlotParts(frames [][]int, energies [][]float64, title, filename string) error {
	if len(frames) != len(energies) {
		return fmt.Errorf("EnergyPlotParts: %d frame parts for %d energy parts", len(frames), len(energies))
	}
	total := 0
	for k, v := range energies {
		if len(frames[k]) != len(v) {
			return fmt.Errorf("EnergyPlotParts: part %d has %d frames for %d energies", k, len(frames[k]), len(v))
		}
		total += len(v)
	}
	if total == 0 {
		return fmt.Errorf("EnergyPlotParts: no energies to plot")
	}
	p := basicEnergyPlot(title)
	for key, val := range energies {
		if len(val) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(val))
		for i, e := range val {
			pts[i].X = float64(frames[key][i])
			pts[i].Y = e
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("EnergyPlotParts: part %d: %w", key, err)
		}
		r, g, b := colors(key, len(energies))
		l.LineStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
	}
	if err := p.Save(Width, Height, filename); err != nil {
		return fmt.Errorf("EnergyPlotParts: %w", err)
	}
	return nil
}
