/*
 * doc.go, part of govasp.
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

//Package extxyz reads and writes extended XYZ trajectories, as written by ASE:
//an atom count, a comment line with the cell (Lattice), the per-atom columns
//(Properties) and the frame properties (energy, free_energy, stress, pbc), and one line per atom.
//
//Files ending in .gz or .zst are compressed/decompressed on the fly.
package extxyz
