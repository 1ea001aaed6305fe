/*
 * chem.go, part of govasp.
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
	"fmt"

	v3 "github.com/rmera/govasp/v3"
)

//Atom contains the per-atom information that does not change along a trajectory.
//The coordinates are kept separately, in a v3.Matrix.
type Atom struct {
	Name   string
	ID     int
	Symbol string
	Type   int //the index of the atom type (species block) in the input file, 1-based.
	Mass   float64
}

/*****Topology type***/

//Topology contains the information about a system which is not expected to change in time,
//i.e. everything but coordinates, cell, forces and energies.
type Topology struct {
	Atoms []*Atom
}

//NewTopology returns a topology with the given atoms. It returns error if ats is nil
//or if any of its elements is nil.
func NewTopology(ats []*Atom) (*Topology, error) {
	if ats == nil {
		return nil, fmt.Errorf("NewTopology: supplied a nil atom slice")
	}
	for i, v := range ats {
		if v == nil {
			return nil, fmt.Errorf("NewTopology: atom %d is nil", i)
		}
	}
	return &Topology{Atoms: ats}, nil
}

//TopologyFromSymbols builds a topology from a list of element symbols, filling
//names, IDs and masses.
func TopologyFromSymbols(symbols []string) *Topology {
	ats := make([]*Atom, len(symbols))
	for i, s := range symbols {
		ats[i] = &Atom{Name: s, ID: i + 1, Symbol: s, Mass: symbolMass[s]}
	}
	return &Topology{Atoms: ats}
}

//Atom returns the i-th atom of the topology. Panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	return T.Atoms[i]
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Symbols returns a slice with the element symbol of each atom.
func (T *Topology) Symbols() []string {
	ret := make([]string, len(T.Atoms))
	for i, v := range T.Atoms {
		ret[i] = v.Symbol
	}
	return ret
}

/*****Frame type***/

//Frame is one configuration of a trajectory, with the data a VASP calculation
//produces for it. Coords, Forces and the cell are in Angstrom (and eV/A for the forces).
//Optional data is nil (Forces, Stress) or flagged as absent (HasEnergy, HasFreeEnergy).
type Frame struct {
	Coords *v3.Matrix
	//The cell vectors a, b and c, one after the other.
	Box    []float64
	PBC    [3]bool
	Forces *v3.Matrix
	//The stress tensor in eV/A^3, row-major, 9 elements.
	Stress        []float64
	Energy        float64
	FreeEnergy    float64
	HasEnergy     bool
	HasFreeEnergy bool
}

//NewFrame returns a frame for natoms atoms, with zeroed coordinates, a zeroed
//box and full periodicity.
func NewFrame(natoms int) *Frame {
	F := new(Frame)
	F.Coords = v3.Zeros(natoms)
	F.Box = make([]float64, 9)
	F.PBC = [3]bool{true, true, true}
	return F
}

//Len returns the number of atoms in the frame.
func (F *Frame) Len() int {
	if F.Coords == nil {
		return 0
	}
	return F.Coords.NVecs()
}

//HasBox returns true if at least one of the cell vectors is non-zero.
func (F *Frame) HasBox() bool {
	for _, v := range F.Box {
		if v != 0 {
			return true
		}
	}
	return false
}

//Corrupted returns an error if the frame data is not consistent with
//the given topology.
func (F *Frame) Corrupted(T Atomer) error {
	if F.Coords == nil {
		return fmt.Errorf("Corrupted: frame without coordinates")
	}
	if F.Len() != T.Len() {
		return fmt.Errorf("Corrupted: frame has %d atoms, topology has %d", F.Len(), T.Len())
	}
	if F.Forces != nil && F.Forces.NVecs() != F.Len() {
		return fmt.Errorf("Corrupted: frame has %d atoms but %d forces", F.Len(), F.Forces.NVecs())
	}
	if len(F.Box) != 0 && len(F.Box) != 9 {
		return fmt.Errorf("Corrupted: box with %d elements", len(F.Box))
	}
	if F.Stress != nil && len(F.Stress) != 9 {
		return fmt.Errorf("Corrupted: stress with %d elements", len(F.Stress))
	}
	return nil
}
