/*
 * chem_test.go, part of govasp.
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

package chem

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	v3 "github.com/rmera/govasp/v3"
)

func TestNormalizeSymbol(Te *testing.T) {
	for _, test := range []struct {
		label string
		want  string
		known bool
	}{
		{"Si", "Si", true},
		{" si ", "Si", true},
		{"O_h", "O", true},
		{"Fe_pv", "Fe", true},
		{"CA", "Ca", true},
		{"Xx", "Xx", false},
		{"", "", false},
	} {
		got, ok := NormalizeSymbol(test.label)
		if got != test.want || ok != test.known {
			Te.Errorf("NormalizeSymbol(%q) = %q, %t; want %q, %t", test.label, got, ok, test.want, test.known)
		}
	}
}

func TestTopology(Te *testing.T) {
	top := TopologyFromSymbols([]string{"O", "H", "H"})
	if diff := cmp.Diff([]string{"O", "H", "H"}, top.Symbols()); diff != "" {
		Te.Errorf("symbols (-want +got):\n%s", diff)
	}
	masses := make([]float64, top.Len())
	for i := range masses {
		masses[i] = top.Atom(i).Mass
	}
	if diff := cmp.Diff([]float64{15.999, 1.008, 1.008}, masses); diff != "" {
		Te.Errorf("masses (-want +got):\n%s", diff)
	}
	if top.Atom(2).ID != 3 {
		Te.Errorf("IDs should start at 1, got %d for the third atom", top.Atom(2).ID)
	}
	if m := TopologyFromSymbols([]string{"Qq"}).Atom(0).Mass; m != 0 {
		Te.Errorf("an unknown element has no mass, got %f", m)
	}
	if _, err := NewTopology([]*Atom{{Symbol: "H"}, nil}); err == nil {
		Te.Error("a nil atom should not be accepted")
	}
	if _, err := NewTopology(nil); err == nil {
		Te.Error("a nil atom slice should not be accepted")
	}
}

func TestFrame(Te *testing.T) {
	top := TopologyFromSymbols([]string{"H", "H"})
	F := NewFrame(2)
	if F.Len() != 2 || F.HasBox() {
		Te.Errorf("a new frame has 2 atoms and no cell: %d %v", F.Len(), F.Box)
	}
	if err := F.Corrupted(top); err != nil {
		Te.Error(err)
	}
	F.Box[8] = 10
	if !F.HasBox() {
		Te.Error("the frame has a cell now")
	}
	F.Forces = v3.Zeros(3)
	if err := F.Corrupted(top); err == nil {
		Te.Error("3 forces for 2 atoms should be reported")
	}
	F.Forces = nil
	F.Stress = []float64{1, 2, 3}
	if err := F.Corrupted(top); err == nil {
		Te.Error("a stress with 3 elements should be reported")
	}
	F.Stress = nil
	if err := F.Corrupted(TopologyFromSymbols([]string{"H"})); err == nil {
		Te.Error("a topology with a different number of atoms should be reported")
	}
}
