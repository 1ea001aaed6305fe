/*
 * writer.go, part of govasp.
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
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	chem "github.com/rmera/govasp"
)

//Write!

//Writer appends frames to an extended XYZ file. It implements chem.FrameWriter.
type Writer struct {
	f         *os.File //nil if writing to a stream we don't own.
	h         io.WriteCloser
	b         *bufio.Writer
	filename  string
	writeable bool
	frames    int
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

//target returns a writer that compresses to a, if the name of the file asks for it.
//.gz gives gzip (with the given level), .zst gives zstd. Anything else is written as plain text.
func target(a io.Writer, name string, level int) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".gz"):
		return gzip.NewWriterLevel(a, level)
	case strings.HasSuffix(strings.ToLower(name), ".zst"):
		if level == gzip.DefaultCompression {
			return zstd.NewWriter(a)
		}
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	default:
		return nopWriteCloser{a}, nil
	}
}

//NewWriter creates (or truncates) the file name and returns a Writer for it. If the name ends in
//.gz or .zst, the output is compressed. The optional compression level is the gzip/zstd one;
//by default gzip.DefaultCompression and the zstd default level are used.
func NewWriter(name string, compressionLevel ...int) (*Writer, error) {
	level := gzip.DefaultCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	W := new(Writer)
	W.filename = name
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	W.h, err = target(W.f, name, level)
	if err != nil {
		W.f.Close()
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"target", "NewWriter"}, true}
	}
	W.b = bufio.NewWriter(W.h)
	W.writeable = true
	return W, nil
}

//NewStreamWriter returns a Writer that writes plain extxyz to out. Closing the
//Writer flushes it, but doesn't close out.
func NewStreamWriter(out io.Writer) *Writer {
	W := new(Writer)
	W.h = nopWriteCloser{out}
	W.b = bufio.NewWriter(W.h)
	W.writeable = true
	return W
}

//Frames returns the number of frames written so far.
func (W *Writer) Frames() int {
	return W.frames
}

//fmtFloat formats a float for the comment line the way Python's repr does for usual magnitudes:
//shortest representation, always with a decimal point or an exponent.
func fmtFloat(v float64) string {
	a := math.Abs(v)
	if a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nI") {
		s += ".0"
	}
	return s
}

func fmtFloats(v []float64) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = fmtFloat(f)
	}
	return strings.Join(s, " ")
}

func tf(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

//commentLine builds the second line of a frame, with the cell, the per-atom
//properties and the frame properties.
func commentLine(F *chem.Frame) string {
	fields := make([]string, 0, 6)
	pbc := F.PBC
	if F.HasBox() {
		fields = append(fields, fmt.Sprintf("Lattice=\"%s\"", fmtFloats(F.Box)))
	} else {
		pbc = [3]bool{}
	}
	props := "species:S:1:pos:R:3"
	if F.Forces != nil {
		props += ":forces:R:3"
	}
	fields = append(fields, "Properties="+props)
	if F.HasEnergy {
		fields = append(fields, "energy="+fmtFloat(F.Energy))
	}
	if F.HasFreeEnergy {
		fields = append(fields, "free_energy="+fmtFloat(F.FreeEnergy))
	}
	if F.Stress != nil {
		fields = append(fields, fmt.Sprintf("stress=\"%s\"", fmtFloats(F.Stress)))
	}
	fields = append(fields, fmt.Sprintf("pbc=\"%s %s %s\"", tf(pbc[0]), tf(pbc[1]), tf(pbc[2])))
	return strings.Join(fields, " ")
}

//WFrame writes the frame F, with the atoms in top, to the trajectory.
func (W *Writer) WFrame(top chem.Atomer, F *chem.Frame) error {
	if !W.writeable {
		return Error{TrajUnIniWrite, W.filename, []string{"WFrame"}, true}
	}
	if F == nil || F.Coords == nil {
		return Error{NilCoordinates, W.filename, []string{"WFrame"}, true}
	}
	if err := F.Corrupted(top); err != nil {
		return Error{err.Error(), W.filename, []string{"WFrame"}, true}
	}
	n := F.Len()
	fmt.Fprintf(W.b, "%d\n%s\n", n, commentLine(F))
	for i := 0; i < n; i++ {
		c := F.Coords.RawRowView(i)
		fmt.Fprintf(W.b, "%-2s %15.8f %15.8f %15.8f", top.Atom(i).Symbol, c[0], c[1], c[2])
		if F.Forces != nil {
			f := F.Forces.RawRowView(i)
			fmt.Fprintf(W.b, " %15.8f %15.8f %15.8f", f[0], f[1], f[2])
		}
		if _, err := W.b.WriteString("\n"); err != nil {
			return Error{err.Error(), W.filename, []string{"WFrame"}, true}
		}
	}
	W.frames++
	return nil
}

//Close flushes and closes the trajectory. It can not be used after this call.
func (W *Writer) Close() error {
	if W == nil || !W.writeable {
		return nil
	}
	W.writeable = false
	err := W.b.Flush()
	if err2 := W.h.Close(); err == nil {
		err = err2
	}
	if W.f != nil {
		if err2 := W.f.Close(); err == nil {
			err = err2
		}
	}
	if err != nil {
		return Error{err.Error(), W.filename, []string{"Close"}, true}
	}
	return nil
}
