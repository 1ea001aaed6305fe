/*
 * config_env.go, part of govasp.
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

import "os"

// ApplyEnvConfig applies configuration from environment variables (VASPTRAJ_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("root", os.Getenv("VASPTRAJ_ROOT"), &cfg.Root)
	s.setString("output", os.Getenv("VASPTRAJ_OUTPUT"), &cfg.Output)
	s.setString("pattern", os.Getenv("VASPTRAJ_PATTERN"), &cfg.Pattern)
	s.setString("sort", os.Getenv("VASPTRAJ_SORT"), &cfg.Sort)

	if err := s.setBoolFromString("numeric-only", os.Getenv("VASPTRAJ_NUMERIC_ONLY"), &cfg.NumericOnly); err != nil {
		return err
	}
	return s.setIntFromString("stride", os.Getenv("VASPTRAJ_STRIDE"), &cfg.Stride)
}
