package mps

import (
	"fmt"
	"strings"

	"github.com/fumin/tensor"
)

// Pauli indexes the single site operator basis {I, X, Y, Z}.
type Pauli int

const (
	Identity Pauli = iota
	PauliX
	PauliY
	PauliZ

	// NumPauli is the number of operators in the basis.
	NumPauli = 4
)

var (
	pauliMatrices = [NumPauli][][]complex64{
		{
			{1, 0},
			{0, 1},
		},
		{
			{0, 1},
			{1, 0},
		},
		{
			{0, -1i},
			{1i, 0},
		},
		{
			{1, 0},
			{0, -1},
		},
	}
)

// Basis returns a new tensor of shape {4, 2, 2} holding I, X, Y, Z.
// The axes are {operator, physUp, physDown}.
func Basis() *tensor.Dense {
	b := tensor.Zeros(NumPauli, physDim, physDim)
	for p, m := range pauliMatrices {
		for i, row := range m {
			for j, v := range row {
				b.SetAt([]int{p, i, j}, v)
			}
		}
	}
	return b
}

// PauliMatrix returns a copy of the 2x2 matrix of p.
func PauliMatrix(p Pauli) [][]complex64 {
	src := pauliMatrices[p]
	m := make([][]complex64, len(src))
	for i, row := range src {
		m[i] = append([]complex64(nil), row...)
	}
	return m
}

func (p Pauli) String() string {
	switch p {
	case Identity:
		return "I"
	case PauliX:
		return "X"
	case PauliY:
		return "Y"
	case PauliZ:
		return "Z"
	default:
		return fmt.Sprintf("Pauli(%d)", int(p))
	}
}

// ParsePauli parses the name of a Pauli matrix, "x", "y", "z", or "sx", "sy", "sz", case insensitive.
func ParsePauli(s string) (Pauli, bool) {
	switch strings.TrimPrefix(strings.ToLower(s), "s") {
	case "x":
		return PauliX, true
	case "y":
		return PauliY, true
	case "z":
		return PauliZ, true
	}
	return Identity, false
}
