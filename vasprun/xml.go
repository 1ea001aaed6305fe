/*
 * xml.go, part of govasp.
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

package vasprun

import (
	"fmt"
	"strconv"
	"strings"

	chem "github.com/rmera/govasp"
	v3 "github.com/rmera/govasp/v3"
)

//GPa in eV/A^3
const gPa = 1 / 160.21766208

//The parts of vasprun.xml we care about. Everything else is skipped by the decoder.

//<i name="...">value</i>
type xmlI struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

//<varray name="..."><v>x y z</v>...</varray>
type xmlVarray struct {
	Name string   `xml:"name,attr"`
	V    []string `xml:"v"`
}

type xmlRC struct {
	C []string `xml:"c"`
}

//<array name="atoms">, with its fields and the rows in <set>.
type xmlArray struct {
	Name   string   `xml:"name,attr"`
	Fields []string `xml:"field"`
	Rows   []xmlRC  `xml:"set>rc"`
}

type xmlAtominfo struct {
	Atoms  string     `xml:"atoms"`
	Arrays []xmlArray `xml:"array"`
}

type xmlCrystal struct {
	Varrays []xmlVarray `xml:"varray"`
}

type xmlStructure struct {
	Name    string      `xml:"name,attr"`
	Crystal xmlCrystal  `xml:"crystal"`
	Varrays []xmlVarray `xml:"varray"`
}

type xmlEnergy struct {
	I []xmlI `xml:"i"`
}

type xmlScstep struct {
	Energy *xmlEnergy `xml:"energy"`
}

//Only the direct children are decoded, so the <energy> of each
//<scstep> stays with its step.
type xmlCalculation struct {
	Structure *xmlStructure `xml:"structure"`
	Varrays   []xmlVarray   `xml:"varray"`
	Energy    *xmlEnergy    `xml:"energy"`
	Scsteps   []xmlScstep   `xml:"scstep"`
}

//value returns the energy called name, and false if it is not in the block.
func (E *xmlEnergy) value(name string) (float64, bool, error) {
	if E == nil {
		return 0, false, nil
	}
	for _, v := range E.I {
		if v.Name != name {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return 0, false, fmt.Errorf("energy %s: %w", name, err)
		}
		return val, true, nil
	}
	return 0, false, nil
}

func varray(vs []xmlVarray, name string) (xmlVarray, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return xmlVarray{}, false
}

//floats parses the rows of a varray into a flat slice, checking that each row has
//exactly 3 elements.
func (V xmlVarray) floats() ([]float64, error) {
	ret := make([]float64, 0, 3*len(V.V))
	for i, row := range V.V {
		fields := strings.Fields(row)
		if len(fields) != 3 {
			return nil, fmt.Errorf("varray %s: row %d has %d elements, 3 expected", V.Name, i, len(fields))
		}
		for _, f := range fields {
			val, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("varray %s: row %d: %w", V.Name, i, err)
			}
			ret = append(ret, val)
		}
	}
	return ret, nil
}

//matrix parses the varray as a v3.Matrix with exactly n vectors.
func (V xmlVarray) matrix(n int) (*v3.Matrix, error) {
	if len(V.V) != n {
		return nil, fmt.Errorf("varray %s has %d rows, %d expected", V.Name, len(V.V), n)
	}
	f, err := V.floats()
	if err != nil {
		return nil, err
	}
	return v3.NewMatrix(f)
}

//topology builds the atoms from the "atoms" array of the <atominfo> block.
func (A *xmlAtominfo) topology() (*chem.Topology, []string, error) {
	var warnings []string
	var atoms *xmlArray
	for i := range A.Arrays {
		if A.Arrays[i].Name == "atoms" {
			atoms = &A.Arrays[i]
			break
		}
	}
	if atoms == nil {
		return nil, nil, fmt.Errorf("atominfo without an atoms array")
	}
	elem, typ := 0, 1
	for i, f := range atoms.Fields {
		switch strings.TrimSpace(f) {
		case "element":
			elem = i
		case "atomtype":
			typ = i
		}
	}
	ats := make([]*chem.Atom, 0, len(atoms.Rows))
	for i, rc := range atoms.Rows {
		if len(rc.C) <= elem {
			return nil, nil, fmt.Errorf("atominfo: row %d has no element", i)
		}
		symbol, ok := chem.NormalizeSymbol(rc.C[elem])
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown element %q for atom %d", rc.C[elem], i))
		}
		at := &chem.Atom{Name: strings.TrimSpace(rc.C[elem]), ID: i + 1, Symbol: symbol, Mass: chem.Mass(symbol)}
		if len(rc.C) > typ {
			at.Type, _ = strconv.Atoi(strings.TrimSpace(rc.C[typ]))
		}
		ats = append(ats, at)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(A.Atoms)); err == nil && n != len(ats) {
		return nil, nil, fmt.Errorf("atominfo declares %d atoms, but lists %d", n, len(ats))
	}
	top, err := chem.NewTopology(ats)
	return top, warnings, err
}

//frame builds a frame with the cartesian coordinates and the cell from the structure.
func (S *xmlStructure) frame(natoms int) (*chem.Frame, error) {
	basis, ok := varray(S.Crystal.Varrays, "basis")
	if !ok {
		return nil, fmt.Errorf("structure without a basis")
	}
	box, err := basis.floats()
	if err != nil {
		return nil, err
	}
	if len(box) != 9 {
		return nil, fmt.Errorf("basis with %d elements, 9 expected", len(box))
	}
	pos, ok := varray(S.Varrays, "positions")
	if !ok {
		return nil, fmt.Errorf("structure without positions")
	}
	frac, err := pos.matrix(natoms)
	if err != nil {
		return nil, err
	}
	F := chem.NewFrame(natoms)
	copy(F.Box, box)
	F.Coords.FracToCart(frac, F.Box)
	return F, nil
}

//frame builds the whole frame for a calculation: structure, forces, stress and energies.
func (C *xmlCalculation) frame(natoms int) (*chem.Frame, error) {
	if C.Structure == nil {
		return nil, fmt.Errorf("calculation without a structure")
	}
	F, err := C.Structure.frame(natoms)
	if err != nil {
		return nil, err
	}
	if forces, ok := varray(C.Varrays, "forces"); ok {
		F.Forces, err = forces.matrix(natoms)
		if err != nil {
			return nil, err
		}
	}
	if stress, ok := varray(C.Varrays, "stress"); ok {
		s, err := stress.floats()
		if err != nil {
			return nil, err
		}
		if len(s) != 9 {
			return nil, fmt.Errorf("stress with %d elements, 9 expected", len(s))
		}
		//kBar, with VASP's sign convention, to eV/A^3
		for i := range s {
			s[i] *= -0.1 * gPa
		}
		F.Stress = s
	}
	return F, C.energies(F)
}

//energies puts the energies of the calculation in F. VASP 5 writes a wrong e_0_energy
//in the <energy> block of the calculation, so the energy is taken as the free energy
//plus the e_0_energy - e_fr_energy difference of the last SCF step. Only when there
//are no steps is the e_0_energy of the calculation used.
func (C *xmlCalculation) energies(F *chem.Frame) error {
	efr, hasFree, err := C.Energy.value("e_fr_energy")
	if err != nil {
		return err
	}
	e0, has0, err := C.Energy.value("e_0_energy")
	if err != nil {
		return err
	}
	if hasFree {
		F.FreeEnergy = efr
		F.HasFreeEnergy = true
		F.Energy = efr
		F.HasEnergy = true
	}
	if has0 {
		F.Energy = e0
		F.HasEnergy = true
	}
	if !hasFree || len(C.Scsteps) == 0 {
		return nil
	}
	last := C.Scsteps[len(C.Scsteps)-1].Energy
	sfr, okfr, err := last.value("e_fr_energy")
	if err != nil {
		return err
	}
	s0, ok0, err := last.value("e_0_energy")
	if err != nil {
		return err
	}
	if okfr && ok0 {
		F.Energy = efr + (s0 - sfr)
	}
	return nil
}
