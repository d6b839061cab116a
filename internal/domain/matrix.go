package domain

import "slices"

// Matrix is a square matrix of non-negative pairwise counts indexed by
// candidate position. Both the defeat matrix and the path-strength matrix
// use this representation.
type Matrix [][]int

// NewMatrix returns an n×n zero matrix. Rows share a single backing array.
func NewMatrix(n int) Matrix {
	if n <= 0 {
		return Matrix{}
	}
	cells := make([]int, n*n)
	m := make(Matrix, n)
	for i := range m {
		m[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	return m
}

// Size returns the number of rows.
func (m Matrix) Size() int { return len(m) }

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	out := NewMatrix(len(m))
	for i, row := range m {
		copy(out[i], row)
	}
	return out
}

// Equal reports whether m and other hold the same values.
func (m Matrix) Equal(other Matrix) bool {
	return slices.EqualFunc(m, other, func(a, b []int) bool { return slices.Equal(a, b) })
}
