/*
 * config.go, part of govasp.
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

// Package cliconfig holds the configuration of the vasptraj command: defaults,
// an optional TOML file, VASPTRAJ_* environment variables and flags, in
// increasing order of precedence.
package cliconfig

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rmera/govasp/combine"
)

// Config holds CLI configuration for vasptraj.
type Config struct {
	Root        string
	Pattern     string
	Output      string
	Recursive   bool
	IncludeRoot bool
	NumericOnly bool
	Sort        string
	Stride      int
	Compressed  bool
	Plot        string
	Verbose     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	o := combine.DefaultOptions()
	return Config{
		Root:        o.Root,
		Pattern:     o.Pattern,
		Output:      o.Output,
		Recursive:   o.Recursive,
		IncludeRoot: o.IncludeRoot,
		Sort:        string(o.Sort),
		Stride:      o.Stride,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if _, err := combine.ParseSortOrder(c.Sort); err != nil {
		return err
	}
	if c.Stride <= 0 {
		return fmt.Errorf("stride must be positive")
	}
	return nil
}

// Options converts the configuration into the options of a merge.
func (c Config) Options(log zerolog.Logger) (combine.Options, error) {
	order, err := combine.ParseSortOrder(c.Sort)
	if err != nil {
		return combine.Options{}, err
	}
	o := combine.DefaultOptions()
	o.Root = c.Root
	o.Pattern = c.Pattern
	o.Output = c.Output
	o.Recursive = c.Recursive
	o.IncludeRoot = c.IncludeRoot
	o.NumericOnly = c.NumericOnly
	o.Sort = order
	o.Stride = c.Stride
	o.Compressed = c.Compressed
	o.Logger = log
	return o, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if positive.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return fmt.Errorf("parse %s: %d is not positive", flag, i)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}
