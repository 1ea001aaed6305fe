/*
 * combine_test.go, part of govasp.
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

package combine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	chem "github.com/rmera/govasp"
	"github.com/rmera/govasp/traj/extxyz"
	"github.com/rmera/govasp/vasprun"
)

const header = `<?xml version="1.0" encoding="ISO-8859-1"?>
<modeling>
 <atominfo>
  <atoms>       2 </atoms>
  <array name="atoms" >
   <field type="string">element</field>
   <field type="int">atomtype</field>
   <set>
    <rc><c>Si</c><c>   1</c></rc>
    <rc><c>Si</c><c>   1</c></rc>
   </set>
  </array>
 </atominfo>
`

const calculation = ` <calculation>
  <structure>
   <crystal>
    <varray name="basis" >
     <v>       5.43000000       0.00000000       0.00000000 </v>
     <v>       0.00000000       5.43000000       0.00000000 </v>
     <v>       0.00000000       0.00000000       5.43000000 </v>
    </varray>
   </crystal>
   <varray name="positions" >
    <v>       0.00000000       0.00000000       0.00000000 </v>
    <v>       0.25000000       0.25000000       0.25000000 </v>
   </varray>
  </structure>
  <energy>
   <i name="e_fr_energy">    %.8f </i>
   <i name="e_0_energy">    %.8f </i>
  </energy>
 </calculation>
`

//writeVasprun writes a vasprun.xml in dir with n calculations. The energy of the i-th
//one is -(10*tag+i+1), so the origin of each merged frame can be told from its energy.
func writeVasprun(Te *testing.T, dir string, tag, n int) {
	Te.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Te.Fatal(err)
	}
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < n; i++ {
		e := -float64(10*tag + i + 1)
		fmt.Fprintf(&b, calculation, e, e)
	}
	b.WriteString("</modeling>\n")
	if err := os.WriteFile(filepath.Join(dir, DefaultPattern), []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
}

//energies reads the energy of every frame in the extxyz file name.
func energies(Te *testing.T, name string) []float64 {
	Te.Helper()
	R, err := extxyz.New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	ret := make([]float64, 0)
	for {
		F, err := R.NextFrame()
		if err != nil {
			if _, ok := err.(chem.LastFrameError); ok {
				return ret
			}
			Te.Fatal(err)
		}
		ret = append(ret, F.Energy)
	}
}

func options(root string, progress *bytes.Buffer) Options {
	o := DefaultOptions()
	o.Root = root
	o.Output = filepath.Join(root, DefaultOutput)
	o.Progress = progress
	return o
}

func TestRun(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, filepath.Join(root, "1"), 1, 2)
	writeVasprun(Te, filepath.Join(root, "2"), 2, 3)
	var progress bytes.Buffer
	rep, err := Run(options(root, &progress))
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff([]float64{-11, -12, -21, -22, -23}, energies(Te, rep.Output)); diff != "" {
		Te.Errorf("merged frames (-want +got):\n%s", diff)
	}
	want := fmt.Sprintf("Adding %s: 2 frames...\nAdding %s: 3 frames...\n...Done!\n",
		filepath.Join(root, "1", DefaultPattern), filepath.Join(root, "2", DefaultPattern))
	if diff := cmp.Diff(want, progress.String()); diff != "" {
		Te.Errorf("progress (-want +got):\n%s", diff)
	}
	if rep.Frames != 5 || len(rep.Files) != 2 || rep.Files[1].Frames != 3 {
		Te.Errorf("wrong report: %+v", rep)
	}
	stats, ok := rep.Stats()
	if !ok {
		Te.Fatal("no energy statistics")
	}
	if diff := cmp.Diff(EnergyStats{Mean: -17.8, Min: -23, Max: -11}, stats, cmpopts.EquateApprox(0, 1e-9), cmpopts.IgnoreFields(EnergyStats{}, "StdDev")); diff != "" {
		Te.Errorf("energy statistics (-want +got):\n%s", diff)
	}
	if stats.StdDev <= 0 {
		Te.Errorf("the energies are not all equal, but the standard deviation is %f", stats.StdDev)
	}
}

func TestEmpty(Te *testing.T) {
	root := Te.TempDir()
	var progress bytes.Buffer
	o := options(root, &progress)
	rep, err := Run(o)
	if err != nil {
		Te.Fatal(err)
	}
	info, err := os.Stat(o.Output)
	if err != nil {
		Te.Fatal(err)
	}
	if info.Size() != 0 || rep.Frames != 0 {
		Te.Errorf("expected an empty output, got %d bytes and %d frames", info.Size(), rep.Frames)
	}
	if progress.String() != "...Done!\n" {
		Te.Errorf("expected only the completion message, got %q", progress.String())
	}
	if _, ok := rep.Stats(); ok {
		Te.Error("no frames should give no statistics")
	}
}

func TestOrder(Te *testing.T) {
	root := Te.TempDir()
	for _, d := range []string{"10", "2", "1"} {
		writeVasprun(Te, filepath.Join(root, d), 0, 1)
	}
	for _, test := range []struct {
		order SortOrder
		want  []string
	}{
		{SortNatural, []string{"1", "2", "10"}},
		{SortLexical, []string{"1", "10", "2"}},
	} {
		o := options(root, nil)
		o.Sort = test.order
		entries, err := Files(o)
		if err != nil {
			Te.Fatal(err)
		}
		got := make([]string, len(entries))
		for i, e := range entries {
			got[i] = e.Dir()
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			Te.Errorf("%s order (-want +got):\n%s", test.order, diff)
		}
	}
	if err := Order(nil, "random"); err == nil {
		Te.Error("an unknown order should fail")
	}
	if _, err := ParseSortOrder(" Natural "); err != nil {
		Te.Error(err)
	}
}

func TestFilter(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, root, 0, 1)
	writeVasprun(Te, filepath.Join(root, "3"), 3, 2)
	writeVasprun(Te, filepath.Join(root, "relax"), 4, 2)
	writeVasprun(Te, filepath.Join(root, "relax", "5"), 5, 1)
	writeVasprun(Te, filepath.Join(root, "3a"), 6, 1)
	var progress bytes.Buffer
	o := options(root, &progress)
	o.NumericOnly = true
	rep, err := Run(o)
	if err != nil {
		Te.Fatal(err)
	}
	got := make([]string, len(rep.Files))
	for i, f := range rep.Files {
		got[i], _ = filepath.Rel(root, f.Path)
	}
	want := []string{filepath.Join("3", DefaultPattern), filepath.Join("relax", "5", DefaultPattern), DefaultPattern}
	if diff := cmp.Diff(want, got); diff != "" {
		Te.Errorf("merged files (-want +got):\n%s", diff)
	}
	entries := []Entry{{Rel: "a/vasprun.xml"}, {Rel: "12/vasprun.xml"}}
	if kept := Filter(entries); len(kept) != 1 || entries[0].Valid || !entries[1].Valid {
		Te.Errorf("wrong validity flags: %+v", entries)
	}
}

func TestDiscover(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, root, 0, 1)
	writeVasprun(Te, filepath.Join(root, "1"), 1, 1)
	writeVasprun(Te, filepath.Join(root, "1", "2"), 2, 1)
	writeVasprun(Te, filepath.Join(root, ".hidden"), 3, 1)
	if err := os.Rename(filepath.Join(root, "1", "2", DefaultPattern), filepath.Join(root, "1", "2", DefaultPattern+".gz")); err != nil {
		Te.Fatal(err)
	}
	rels := func(entries []Entry) []string {
		ret := make([]string, len(entries))
		for i, e := range entries {
			ret[i] = e.Rel
		}
		return ret
	}
	sorted := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	for _, test := range []struct {
		name                               string
		recursive, includeRoot, compressed bool
		want                               []string
	}{
		{"default", true, true, false, []string{DefaultPattern, filepath.Join("1", DefaultPattern)}},
		{"no root", true, false, false, []string{filepath.Join("1", DefaultPattern)}},
		{"compressed", true, true, true, []string{DefaultPattern, filepath.Join("1", DefaultPattern), filepath.Join("1", "2", DefaultPattern+".gz")}},
		{"one level", false, true, true, []string{DefaultPattern, filepath.Join("1", DefaultPattern)}},
	} {
		entries, err := Discover(root, DefaultPattern, test.recursive, test.includeRoot, test.compressed)
		if err != nil {
			Te.Fatal(err)
		}
		if diff := cmp.Diff(test.want, rels(entries), sorted); diff != "" {
			Te.Errorf("%s: discovered files (-want +got):\n%s", test.name, diff)
		}
	}
	if _, err := Discover(root, "[", true, true, false); err == nil {
		Te.Error("a malformed pattern should fail")
	}
}

func TestStride(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, filepath.Join(root, "1"), 1, 3)
	var progress bytes.Buffer
	o := options(root, &progress)
	o.Stride = 2
	rep, err := Run(o)
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff([]float64{-11, -13}, energies(Te, rep.Output)); diff != "" {
		Te.Errorf("strided frames (-want +got):\n%s", diff)
	}
	o.Stride = -1
	if _, err := Run(o); err == nil {
		Te.Error("a negative stride should fail")
	}
}

func TestBadInput(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, filepath.Join(root, "1"), 1, 2)
	if err := os.MkdirAll(filepath.Join(root, "2"), 0o755); err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "2", DefaultPattern), []byte("not xml"), 0o644); err != nil {
		Te.Fatal(err)
	}
	var progress bytes.Buffer
	rep, err := Run(options(root, &progress))
	var verr vasprun.Error
	if !errors.As(err, &verr) {
		Te.Fatalf("expected a vasprun.Error, got %v", err)
	}
	if rep == nil || rep.Frames != 2 {
		Te.Errorf("the frames of the first file should have been merged: %+v", rep)
	}
	if strings.Contains(progress.String(), "Done") {
		Te.Error("a failed merge should not be reported as done")
	}
}

//Frames without an energy keep their place in the output numbering.
func TestPerFile(Te *testing.T) {
	root := Te.TempDir()
	writeVasprun(Te, filepath.Join(root, "1"), 1, 2)
	dir := filepath.Join(root, "2")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Te.Fatal(err)
	}
	noEnergy := calculation[:strings.Index(calculation, "  <energy>")] + " </calculation>\n"
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, calculation, -21.0, -21.0)
	b.WriteString(noEnergy)
	fmt.Fprintf(&b, calculation, -23.0, -23.0)
	b.WriteString("</modeling>\n")
	if err := os.WriteFile(filepath.Join(dir, DefaultPattern), []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
	var progress bytes.Buffer
	rep, err := Run(options(root, &progress))
	if err != nil {
		Te.Fatal(err)
	}
	if rep.Frames != 5 {
		Te.Errorf("expected 5 merged frames, got %d", rep.Frames)
	}
	frames, energies := rep.PerFile()
	if diff := cmp.Diff([][]int{{0, 1}, {2, 4}}, frames); diff != "" {
		Te.Errorf("frames with an energy (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{-11, -12}, {-21, -23}}, energies); diff != "" {
		Te.Errorf("energies per file (-want +got):\n%s", diff)
	}
}

func TestDiscoverSymlinks(Te *testing.T) {
	root := Te.TempDir()
	elsewhere := Te.TempDir()
	writeVasprun(Te, filepath.Join(root, "1"), 1, 1)
	writeVasprun(Te, filepath.Join(elsewhere, "run"), 2, 1)
	if err := os.Symlink(filepath.Join(elsewhere, "run"), filepath.Join(root, "2")); err != nil {
		Te.Skipf("can't create symbolic links here: %v", err)
	}
	//a loop back to the root must not be walked again.
	if err := os.Symlink(root, filepath.Join(root, "1", "loop")); err != nil {
		Te.Fatal(err)
	}
	rels := func(entries []Entry) []string {
		ret := make([]string, len(entries))
		for i, e := range entries {
			ret[i] = e.Rel
		}
		return ret
	}
	sorted := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	want := []string{filepath.Join("1", DefaultPattern), filepath.Join("2", DefaultPattern)}
	for _, recursive := range []bool{true, false} {
		entries, err := Discover(root, DefaultPattern, recursive, true, false)
		if err != nil {
			Te.Fatal(err)
		}
		if diff := cmp.Diff(want, rels(entries), sorted); diff != "" {
			Te.Errorf("recursive=%t: discovered files (-want +got):\n%s", recursive, diff)
		}
	}
	//the root itself can be a symbolic link.
	link := filepath.Join(elsewhere, "root")
	if err := os.Symlink(root, link); err != nil {
		Te.Fatal(err)
	}
	entries, err := Discover(link, DefaultPattern, true, true, false)
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff(want, rels(entries), sorted); diff != "" {
		Te.Errorf("symlinked root: discovered files (-want +got):\n%s", diff)
	}
	if entries[0].Path != filepath.Join(link, entries[0].Rel) {
		Te.Errorf("paths should start at the given root, got %s", entries[0].Path)
	}
}
