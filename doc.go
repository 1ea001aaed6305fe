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

/*
Package chem provides the atom, topology and frame structures shared by the
govasp packages, and the interfaces that trajectory readers and writers implement.

	**govasp Capabilities**

    Reads VASP vasprun.xml files (plain, gzip or zstd compressed) frame by frame,
	with cell, forces, stress and energies (package vasprun).

    Reads and writes extended XYZ (extxyz) trajectories, optionally compressed
	(package traj/extxyz).

    Concatenates the vasprun.xml files found under a directory tree into a single
	extxyz trajectory, in natural or lexical order (package combine, and the
	vasptraj program in cmd/vasptraj).

    Plots the energy profile of a trajectory (package chemplot).

Coordinates are stored in a v3.Matrix (package v3), based on gonum's mat.Dense,
where each row is the cartesian position of one atom.
*/
package chem
