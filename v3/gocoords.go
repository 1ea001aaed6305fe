/*
 * gocoords.go, part of govasp.
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

package v3

import (
	"gonum.org/v1/gonum/mat"
)

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Box2Matrix returns a 3x3 Matrix with the cell vectors in box (9 elements, a, b and c
//one after the other) as rows. The data is copied. Panics if box has less than 9 elements.
func Box2Matrix(box []float64) *Matrix {
	if len(box) < 9 {
		panic(ErrNotEnoughElements)
	}
	f := make([]float64, 9)
	copy(f, box)
	return &Matrix{mat.NewDense(3, 3, f)}
}

//FracToCart puts in the receiver the cartesian coordinates for the fractional
//coordinates frac in the cell given by box (cell vectors as rows, see Box2Matrix).
//The receiver must not be frac.
func (F *Matrix) FracToCart(frac *Matrix, box []float64) {
	if F == frac {
		panic(ErrShape)
	}
	F.Mul(frac, Box2Matrix(box))
}
