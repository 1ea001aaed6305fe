/*
 * config_file.go, part of govasp.
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

package cliconfig

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is the file read when --config is not given, if it exists.
const DefaultConfigPath = "vasptraj.toml"

// FileConfig mirrors Config, with pointers for the booleans so that an absent
// key can be told from false.
type FileConfig struct {
	Root        string `toml:"root"`
	Pattern     string `toml:"pattern"`
	Output      string `toml:"output"`
	Recursive   *bool  `toml:"recursive"`
	IncludeRoot *bool  `toml:"include_root"`
	NumericOnly *bool  `toml:"numeric_only"`
	Sort        string `toml:"sort"`
	Stride      int    `toml:"stride"`
	Compressed  *bool  `toml:"compressed"`
	Plot        string `toml:"plot"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
// Unknown keys are an error, so typos don't go unnoticed.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	f, err := os.Open(path)
	if err != nil {
		return fc, err
	}
	defer f.Close()
	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	if err := d.Decode(&fc); err != nil {
		return fc, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("root", fc.Root, &cfg.Root)
	s.setString("pattern", fc.Pattern, &cfg.Pattern)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("sort", fc.Sort, &cfg.Sort)
	s.setString("plot", fc.Plot, &cfg.Plot)

	s.setInt("stride", fc.Stride, &cfg.Stride)

	s.setBool("recursive", fc.Recursive, &cfg.Recursive)
	s.setBool("include-root", fc.IncludeRoot, &cfg.IncludeRoot)
	s.setBool("numeric-only", fc.NumericOnly, &cfg.NumericOnly)
	s.setBool("compressed", fc.Compressed, &cfg.Compressed)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
