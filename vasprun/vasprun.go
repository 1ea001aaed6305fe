/*
 * vasprun.go, part of govasp.
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

//Package vasprun reads the frames (structure, forces, stress and energies of each
//ionic step) from the vasprun.xml files written by VASP.
package vasprun

import (
	"bufio"
	"compress/bzip2"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	chem "github.com/rmera/govasp"
	v3 "github.com/rmera/govasp/v3"
)

//Reader reads the frames of a vasprun.xml file, one <calculation> at a time.
//It implements chem.Traj and chem.FrameTraj.
type Reader struct {
	f        *os.File
	src      io.ReadCloser //the decompressor, or f itself.
	x        *xml.Decoder
	top      *chem.Topology
	initial  *chem.Frame //the "initialpos" structure, returned if the file has no calculations.
	filename string
	frames   int
	readable bool
	log      zerolog.Logger
}

//Option configures a Reader.
type Option func(*Reader)

//WithLogger sets the logger for the reader. By default nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(R *Reader) {
		R.log = l
	}
}

//source opens name and returns a reader for its contents, decompressing if the
//extension asks for it: .gz (gzip), .zst (zstd) or .bz2 (bzip2). Anything else
//is read as plain text.
func source(f *os.File, name string) (io.ReadCloser, error) {
	buf := bufio.NewReader(f)
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".gz"):
		return gzip.NewReader(buf)
	case strings.HasSuffix(strings.ToLower(name), ".zst"):
		d, err := zstd.NewReader(buf)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case strings.HasSuffix(strings.ToLower(name), ".bz2"):
		return io.NopCloser(bzip2.NewReader(buf)), nil
	default:
		return io.NopCloser(buf), nil
	}
}

//New opens a vasprun.xml file for reading, and reads the atom information in it.
//It returns the reader, ready to give frames, or an error.
func New(name string, opts ...Option) (*Reader, error) {
	R := new(Reader)
	R.filename = name
	R.log = zerolog.Nop()
	for _, o := range opts {
		o(R)
	}
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Open", "New"}, true}
	}
	R.src, err = source(R.f, name)
	if err != nil {
		R.f.Close()
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"source", "New"}, true}
	}
	R.x = xml.NewDecoder(R.src)
	//VASP writes ISO-8859-1 headers now and then. The part we read is ASCII.
	R.x.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) { return input, nil }
	if err = R.readAtominfo(); err != nil {
		R.close()
		return nil, errDecorate(err, "New")
	}
	R.readable = true
	return R, nil
}

//readAtominfo advances the decoder up to the <atominfo> block, and
//builds the topology from it.
func (R *Reader) readAtominfo() error {
	for {
		tok, err := R.x.Token()
		if err != nil {
			return Error{NoAtominfo + ": " + err.Error(), R.filename, []string{"readAtominfo"}, true}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "atominfo" {
			continue
		}
		info := new(xmlAtominfo)
		if err := R.x.DecodeElement(info, &start); err != nil {
			return Error{WrongFormat + ": " + err.Error(), R.filename, []string{"readAtominfo"}, true}
		}
		var warnings []string
		R.top, warnings, err = info.topology()
		if err != nil {
			return Error{WrongFormat + ": " + err.Error(), R.filename, []string{"readAtominfo"}, true}
		}
		for _, w := range warnings {
			R.log.Warn().Str("file", R.filename).Msg(w)
		}
		if R.top.Len() == 0 {
			return Error{WrongFormat + ": no atoms", R.filename, []string{"readAtominfo"}, true}
		}
		R.log.Debug().Str("file", R.filename).Int("atoms", R.top.Len()).Msg("read atom information")
		return nil
	}
}

//truncated returns true if err means that the file ended before the XML was complete.
func truncated(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var serr *xml.SyntaxError
	if errors.As(err, &serr) && strings.Contains(serr.Msg, "unexpected EOF") {
		return true
	}
	return false
}

//end closes the reader and returns the error that marks the end of the trajectory.
//If there were no calculations in the file, the initial structure is returned
//as the only frame instead.
func (R *Reader) end() (*chem.Frame, error) {
	if R.frames == 0 && R.initial != nil {
		R.frames++
		F := R.initial
		R.initial = nil
		R.log.Debug().Str("file", R.filename).Msg("no calculations, using the initial structure")
		return F, nil
	}
	R.Close()
	return nil, newlastFrameError(R.filename, "NextFrame")
}

//NextFrame returns the next frame of the trajectory, i.e. the next <calculation>
//block of the file. At the end of the trajectory, it returns a nil frame and an error
//implementing chem.LastFrameError. A file cut in the middle of a calculation, as
//left by an interrupted run, just ends after the last complete calculation.
func (R *Reader) NextFrame() (*chem.Frame, error) {
	if !R.readable {
		return nil, Error{TrajUnIniRead, R.filename, []string{"NextFrame"}, true}
	}
	for {
		tok, err := R.x.Token()
		if err != nil {
			if err == io.EOF {
				return R.end()
			}
			if truncated(err) {
				R.log.Warn().Str("file", R.filename).Int("frames", R.frames).Msg("file ends before the XML is complete")
				return R.end()
			}
			return nil, Error{WrongFormat + ": " + err.Error(), R.filename, []string{"NextFrame"}, true}
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "modeling" {
				return R.end()
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "structure":
				if attr(t, "name") != "initialpos" {
					continue
				}
				st := new(xmlStructure)
				if err := R.x.DecodeElement(st, &t); err != nil {
					if truncated(err) {
						R.log.Warn().Str("file", R.filename).Msg("file ends in the initial structure")
						return R.end()
					}
					return nil, Error{WrongFormat + ": " + err.Error(), R.filename, []string{"NextFrame"}, true}
				}
				R.initial, err = st.frame(R.top.Len())
				if err != nil {
					return nil, Error{WrongFormat + ": initial structure: " + err.Error(), R.filename, []string{"NextFrame"}, true}
				}
			case "calculation":
				calc := new(xmlCalculation)
				if err := R.x.DecodeElement(calc, &t); err != nil {
					if truncated(err) {
						R.log.Warn().Str("file", R.filename).Int("frames", R.frames).Msg("dropping the incomplete last calculation")
						return R.end()
					}
					return nil, Error{WrongFormat + ": " + err.Error(), R.filename, []string{"NextFrame"}, true}
				}
				F, err := calc.frame(R.top.Len())
				if err != nil {
					return nil, Error{fmt.Sprintf("%s: calculation %d: %s", WrongFormat, R.frames+1, err.Error()), R.filename, []string{"NextFrame"}, true}
				}
				R.frames++
				return F, nil
			}
		}
	}
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

//Next puts in the given matrix (coords) the coordinates for the next frame of the trajectory
//and, if given, the cell vectors in box. If coords is nil, the frame is read but discarded.
//Returns error if the operation is not successful. If the error implements chem.LastFrameError,
//the end of the trajectory has been reached, not an actual error.
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

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of atoms in each frame of the trajectory.
func (R *Reader) Len() int {
	return R.top.Len()
}

//Topology returns the atoms of the system.
func (R *Reader) Topology() *chem.Topology {
	return R.top
}

//Frames returns the number of frames read so far.
func (R *Reader) Frames() int {
	return R.frames
}

//Close closes the object, and marks it as unreadable
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	R.close()
	R.readable = false
}

func (R *Reader) close() {
	R.src.Close()
	R.f.Close()
}

//ReadAll reads all the frames in the vasprun.xml file name. It returns the topology
//and the frames, in the order they are in the file.
func ReadAll(name string, opts ...Option) (*chem.Topology, []*chem.Frame, error) {
	R, err := New(name, opts...)
	if err != nil {
		return nil, nil, errDecorate(err, "ReadAll")
	}
	defer R.Close()
	frames := make([]*chem.Frame, 0)
	for {
		F, err := R.NextFrame()
		if err != nil {
			if _, ok := err.(chem.LastFrameError); ok {
				break
			}
			return nil, nil, errDecorate(err, "ReadAll")
		}
		frames = append(frames, F)
	}
	return R.top, frames, nil
}
