/*
 * reader.go, part of govasp.
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

package extxyz

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	chem "github.com/rmera/govasp"
	v3 "github.com/rmera/govasp/v3"
)

//Read!

//Reader reads the frames of an extended XYZ file. It implements chem.Traj and chem.FrameTraj.
//The number of atoms can change from frame to frame; Len and Topology refer to the last frame read.
type Reader struct {
	f        *os.File
	src      io.ReadCloser
	h        *bufio.Reader
	top      *chem.Topology
	info     map[string]string
	filename string
	line     int
	frames   int
	readable bool
}

//New opens an extxyz trajectory for reading. .gz and .zst files are decompressed.
func New(name string) (*Reader, error) {
	R := new(Reader)
	R.filename = name
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Open", "New"}, true}
	}
	buf := bufio.NewReader(R.f)
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".gz"):
		R.src, err = gzip.NewReader(buf)
	case strings.HasSuffix(strings.ToLower(name), ".zst"):
		var d *zstd.Decoder
		d, err = zstd.NewReader(buf)
		if err == nil {
			R.src = d.IOReadCloser()
		}
	default:
		R.src = io.NopCloser(buf)
	}
	if err != nil {
		R.f.Close()
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	R.h = bufio.NewReader(R.src)
	R.top = &chem.Topology{}
	R.readable = true
	return R, nil
}

//readLine returns the next line, without the line ending.
func (R *Reader) readLine() (string, error) {
	s, err := R.h.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	R.line++
	return strings.TrimRight(s, "\r\n"), nil
}

//ParseComment parses the key=value pairs of the comment line of an extxyz frame.
//Values can be quoted with double quotes, in which case they can contain spaces.
//Keys without a value are set to "T".
func ParseComment(line string) (map[string]string, error) {
	ret := make(map[string]string)
	i := 0
	n := len(line)
	for {
		for i < n && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= n {
			return ret, nil
		}
		start := i
		for i < n && line[i] != '=' && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		key := line[start:i]
		if i >= n || line[i] != '=' {
			ret[key] = "T"
			continue
		}
		i++ //the '='
		if i < n && line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				return ret, fmt.Errorf("unterminated quote for key %s", key)
			}
			ret[key] = line[i+1 : i+1+end]
			i += end + 2
			continue
		}
		start = i
		for i < n && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		ret[key] = line[start:i]
	}
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%d values expected, %d found", n, len(fields))
	}
	ret := make([]float64, n)
	for i, v := range fields {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		ret[i] = f
	}
	return ret, nil
}

type column struct {
	name  string
	start int
	n     int
}

//columns parses a Properties string such as species:S:1:pos:R:3:forces:R:3
func columns(props string) ([]column, error) {
	p := strings.Split(props, ":")
	if len(p)%3 != 0 {
		return nil, fmt.Errorf("malformed Properties: %s", props)
	}
	ret := make([]column, 0, len(p)/3)
	start := 0
	for i := 0; i < len(p); i += 3 {
		n, err := strconv.Atoi(p[i+2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("malformed Properties: %s", props)
		}
		ret = append(ret, column{strings.ToLower(p[i]), start, n})
		start += n
	}
	return ret, nil
}

func find(cols []column, name string, n int) (column, bool) {
	for _, c := range cols {
		if c.name == name && c.n == n {
			return c, true
		}
	}
	return column{}, false
}

//NextFrame returns the next frame of the trajectory. At the end of the trajectory, it returns a nil frame and
//an error implementing chem.LastFrameError.
func (R *Reader) NextFrame() (*chem.Frame, error) {
	if !R.readable {
		return nil, Error{TrajUnIniRead, R.filename, []string{"NextFrame"}, true}
	}
	var first string
	var err error
	//blank lines between frames are tolerated.
	for first == "" {
		first, err = R.readLine()
		if err == io.EOF {
			R.Close()
			return nil, newlastFrameError(R.filename, "NextFrame")
		}
		if err != nil {
			return nil, Error{err.Error(), R.filename, []string{"NextFrame"}, true}
		}
		first = strings.TrimSpace(first)
	}
	natoms, err := strconv.Atoi(first)
	if err != nil || natoms < 1 {
		return nil, Error{fmt.Sprintf("%s: line %d: bad atom number %q", WrongFormat, R.line, first), R.filename, []string{"NextFrame"}, true}
	}
	comment, err := R.readLine()
	if err != nil {
		return nil, Error{fmt.Sprintf("%s: frame %d has no comment line", WrongFormat, R.frames+1), R.filename, []string{"NextFrame"}, true}
	}
	info, err := ParseComment(comment)
	if err != nil {
		return nil, Error{fmt.Sprintf("%s: line %d: %s", WrongFormat, R.line, err.Error()), R.filename, []string{"NextFrame"}, true}
	}
	props, ok := info["Properties"]
	if !ok {
		props = "species:S:1:pos:R:3"
	}
	cols, err := columns(props)
	if err != nil {
		return nil, Error{fmt.Sprintf("%s: line %d: %s", WrongFormat, R.line, err.Error()), R.filename, []string{"NextFrame"}, true}
	}
	species, oks := find(cols, "species", 1)
	pos, okp := find(cols, "pos", 3)
	forces, okf := find(cols, "forces", 3)
	if !oks || !okp {
		return nil, Error{fmt.Sprintf("%s: line %d: no species or pos in Properties", WrongFormat, R.line), R.filename, []string{"NextFrame"}, true}
	}
	F := chem.NewFrame(natoms)
	F.PBC = [3]bool{}
	if okf {
		F.Forces = v3.Zeros(natoms)
	}
	symbols := make([]string, natoms)
	for i := 0; i < natoms; i++ {
		line, err := R.readLine()
		if err != nil {
			return nil, Error{fmt.Sprintf("%s: frame %d ends after %d atoms, %d expected", WrongFormat, R.frames+1, i, natoms), R.filename, []string{"NextFrame"}, true}
		}
		fields := strings.Fields(line)
		if len(fields) < pos.start+3 || (okf && len(fields) < forces.start+3) || len(fields) <= species.start {
			return nil, Error{fmt.Sprintf("%s: line %d: too few columns", WrongFormat, R.line), R.filename, []string{"NextFrame"}, true}
		}
		symbols[i] = fields[species.start]
		for j := 0; j < 3; j++ {
			c, err := strconv.ParseFloat(fields[pos.start+j], 64)
			if err != nil {
				return nil, Error{fmt.Sprintf("%s: line %d: %s", WrongFormat, R.line, err.Error()), R.filename, []string{"NextFrame"}, true}
			}
			F.Coords.Set(i, j, c)
			if okf {
				f, err := strconv.ParseFloat(fields[forces.start+j], 64)
				if err != nil {
					return nil, Error{fmt.Sprintf("%s: line %d: %s", WrongFormat, R.line, err.Error()), R.filename, []string{"NextFrame"}, true}
				}
				F.Forces.Set(i, j, f)
			}
		}
	}
	if err := fillFrameInfo(F, info); err != nil {
		return nil, Error{fmt.Sprintf("%s: frame %d: %s", WrongFormat, R.frames+1, err.Error()), R.filename, []string{"NextFrame"}, true}
	}
	R.top = chem.TopologyFromSymbols(symbols)
	R.info = info
	R.frames++
	return F, nil
}

//fillFrameInfo puts the cell, periodicity, energies and stress from the comment line in F.
func fillFrameInfo(F *chem.Frame, info map[string]string) error {
	var err error
	if l, ok := info["Lattice"]; ok {
		box, err := parseFloats(l, 9)
		if err != nil {
			return fmt.Errorf("Lattice: %w", err)
		}
		copy(F.Box, box)
		F.PBC = [3]bool{true, true, true}
	}
	if p, ok := info["pbc"]; ok {
		fields := strings.Fields(p)
		if len(fields) != 3 {
			return fmt.Errorf("pbc: 3 values expected, %d found", len(fields))
		}
		for i, v := range fields {
			F.PBC[i] = strings.HasPrefix(strings.ToUpper(v), "T")
		}
	}
	if e, ok := info["energy"]; ok {
		F.Energy, err = strconv.ParseFloat(e, 64)
		if err != nil {
			return fmt.Errorf("energy: %w", err)
		}
		F.HasEnergy = true
	}
	if e, ok := info["free_energy"]; ok {
		F.FreeEnergy, err = strconv.ParseFloat(e, 64)
		if err != nil {
			return fmt.Errorf("free_energy: %w", err)
		}
		F.HasFreeEnergy = true
	}
	if s, ok := info["stress"]; ok {
		F.Stress, err = parseFloats(s, 9)
		if err != nil {
			return fmt.Errorf("stress: %w", err)
		}
	}
	return nil
}

//Next puts in coords the coordinates of the next frame and, if given, the cell in box.
//If coords is nil, the frame is read and discarded.
func (R *Reader) Next(coords *v3.Matrix, box ...[]float64) error {
	F, err := R.NextFrame()
	if err != nil {
		return errDecorate(err, "Next")
	}
	if coords == nil {
		return nil
	}
	if coords.NVecs() != F.Len() {
		return Error{fmt.Sprintf("%s: %d atoms in the frame, %d in the given matrix", NotEnoughSpace, F.Len(), coords.NVecs()), R.filename, []string{"Next"}, true}
	}
	coords.Copy(F.Coords)
	if len(box) > 0 && len(box[0]) >= 9 {
		copy(box[0], F.Box)
	}
	return nil
}

//Info returns the key/value pairs of the comment line of the last frame read.
func (R *Reader) Info() map[string]string {
	return R.info
}

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of atoms in the last frame read.
func (R *Reader) Len() int {
	return R.top.Len()
}

//Topology returns the atoms of the last frame read.
func (R *Reader) Topology() *chem.Topology {
	return R.top
}

//Close closes the object, and marks it as unreadable
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	R.src.Close()
	R.f.Close()
	R.readable = false
}

//Count returns the number of frames in the extxyz file name.
func Count(name string) (int, error) {
	R, err := New(name)
	if err != nil {
		return 0, errDecorate(err, "Count")
	}
	defer R.Close()
	for {
		_, err := R.NextFrame()
		if err != nil {
			if _, ok := err.(chem.LastFrameError); ok {
				return R.frames, nil
			}
			return R.frames, errDecorate(err, "Count")
		}
	}
}
