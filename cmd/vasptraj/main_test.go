/*
 * main_test.go, part of govasp.
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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/govasp"
	"github.com/rmera/govasp/internal/cliconfig"
	"github.com/rmera/govasp/traj/extxyz"
)

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vasptraj.toml")
	if err := os.WriteFile(path, []byte("stride = 3\noutput = \"file.xyz\"\nsort = \"lexical\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VASPTRAJ_OUTPUT", "env.xyz")
	t.Setenv("VASPTRAJ_STRIDE", "4")

	cfg := cliconfig.DefaultConfig()
	cfg.Stride = 7 //as if given with --stride
	if err := loadConfig(&cfg, path, map[string]bool{"stride": true}); err != nil {
		t.Fatal(err)
	}
	if cfg.Stride != 7 {
		t.Errorf("flag should win: stride = %d", cfg.Stride)
	}
	if cfg.Output != "env.xyz" {
		t.Errorf("environment should override the file: output = %s", cfg.Output)
	}
	if cfg.Sort != "lexical" {
		t.Errorf("file should override the defaults: sort = %s", cfg.Sort)
	}

	t.Setenv("VASPTRAJ_SORT", "random")
	if err := loadConfig(&cfg, "", map[string]bool{}); err == nil {
		t.Error("an invalid sort order should fail validation")
	}
}

func TestFramesCmd(t *testing.T) {
	name := filepath.Join(t.TempDir(), "traj.xyz")
	w, err := extxyz.NewWriter(name)
	if err != nil {
		t.Fatal(err)
	}
	top := chem.TopologyFromSymbols([]string{"O", "H", "H"})
	for i := 0; i < 4; i++ {
		if err := w.WFrame(top, chem.NewFrame(3)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd := framesCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{name})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := name + ": 4 frames\n"; out.String() != want {
		t.Errorf("frames output = %q, want %q", out.String(), want)
	}
}
