// Package exactdiag builds spin chain operators on the full Hilbert space, term by term from Kronecker products of Pauli matrices.
package exactdiag

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"

	"github.com/fumin/spinmpo/exactdiag/mat"
)

var (
	identity = mat.COOIdentity(2)
)

// Ising sets hamiltonian to
//
//	sum_{i=0}^{l-2} j[i] Z_i Z_{i+1} + sum_{i=0}^{l-1} (g[i] X_i + h[i] Z_i) + offset
//
// buf must be of the same type as hamiltonian.
func Ising(hamiltonian, buf mat.Matrix, l int, j, g, h []complex64, offset complex64) {
	hamiltonian.Zeros(1<<l, 1<<l)
	for i := range l - 1 {
		coupling(hamiltonian, l, i, mat.PauliZ, j[i], buf)
	}
	for i := range l {
		magnetic(hamiltonian, l, i, mat.PauliX, g[i], buf)
		magnetic(hamiltonian, l, i, mat.PauliZ, h[i], buf)
	}
	constant(hamiltonian, l, offset, buf)
}

// Heisenberg sets hamiltonian to
//
//	sum_{p=x,y,z} sum_{i=0}^{l-2} jp[i] p_i p_{i+1} + sum_{i=0}^{l-1} (g[i] X_i + h[i] Z_i) + offset
func Heisenberg(hamiltonian, buf mat.Matrix, l int, jx, jy, jz, g, h []complex64, offset complex64) {
	hamiltonian.Zeros(1<<l, 1<<l)
	for i := range l - 1 {
		coupling(hamiltonian, l, i, mat.PauliX, jx[i], buf)
		coupling(hamiltonian, l, i, mat.PauliY, jy[i], buf)
		coupling(hamiltonian, l, i, mat.PauliZ, jz[i], buf)
	}
	for i := range l {
		magnetic(hamiltonian, l, i, mat.PauliX, g[i], buf)
		magnetic(hamiltonian, l, i, mat.PauliZ, h[i], buf)
	}
	constant(hamiltonian, l, offset, buf)
}

// SumPauli sets s to sum_{i=0}^{l-1} op_i.
func SumPauli(s, buf mat.Matrix, l int, op [][]complex64) {
	s.Zeros(1<<l, 1<<l)
	for i := range l {
		magnetic(s, l, i, op, 1, buf)
	}
}

// SumPauli2 returns (sum_{i=0}^{l-1} op_i)^2 computed by an explicit matrix product.
func SumPauli2(l int, op [][]complex64) *mat.COO {
	s, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
	SumPauli(s, buf, l, op)
	return s.MatMul(s)
}

// pauliString sets system to the Kronecker product over all l sites, with ops at their sites and the identity elsewhere.
func pauliString(system mat.Matrix, l int, ops map[int][][]complex64) {
	system.Scalar(1)
	for i := range l {
		op, ok := ops[i]
		switch {
		case ok:
			system.Kron(mat.M(op))
		default:
			system.Kron(identity)
		}
	}
}

func coupling(hamiltonian mat.Matrix, l int, i int, op [][]complex64, c complex64, system mat.Matrix) {
	if c == 0 {
		return
	}
	pauliString(system, l, map[int][][]complex64{i: op, i + 1: op})
	hamiltonian.Add(c, system)
}

func magnetic(hamiltonian mat.Matrix, l int, i int, op [][]complex64, c complex64, system mat.Matrix) {
	if c == 0 {
		return
	}
	pauliString(system, l, map[int][][]complex64{i: op})
	hamiltonian.Add(c, system)
}

func constant(hamiltonian mat.Matrix, l int, c complex64, system mat.Matrix) {
	if c == 0 {
		return
	}
	pauliString(system, l, nil)
	hamiltonian.Add(c, system)
}

// IsingExplicit writes the Ising Hamiltonian in COO format to dir.
// Instead of Kronecker products, each row is computed directly from its basis state, so that memory stays constant in l.
// In a basis state, bit 0 is spin up with Z = +1, and the first site is the most significant bit.
func IsingExplicit(dir string, l int, j, g, h []complex64, offset complex64) error {
	w, err := mat.NewCOOWriter(dir, 1<<l, 1<<l)
	if err != nil {
		return errors.Wrap(err, "")
	}

	// flipped is a reusable buffer for the flipped state.
	flipped := make([]byte, l)
	row := make([]mat.Entry, 0, l+1)
Loop:
	for i, state := range bits(l) {
		row = row[:0]
		row = diagonalExplicit(row, i, state, j, h, offset)
		row = flipExplicit(row, i, state, g, flipped)

		slices.SortFunc(row, func(a, b mat.Entry) int { return cmp.Compare(a.Col, b.Col) })
		for _, e := range row {
			if err1 := w.Write(e); err1 != nil && err == nil {
				err = errors.Wrap(err1, "")
				break Loop
			}
		}
	}

	if err1 := w.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func spin(b byte) complex64 {
	if b == 1 {
		return -1
	}
	return 1
}

func diagonalExplicit(row []mat.Entry, i int, state []byte, j, h []complex64, offset complex64) []mat.Entry {
	diag := offset
	for k, b := range state {
		diag += h[k] * spin(b)
		if k+1 < len(state) {
			diag += j[k] * spin(b) * spin(state[k+1])
		}
	}
	if diag != 0 {
		row = append(row, mat.Entry{Row: i, Col: i, V: diag})
	}
	return row
}

func flipExplicit(row []mat.Entry, i int, state []byte, g []complex64, flipped []byte) []mat.Entry {
	for k := range state {
		if g[k] == 0 {
			continue
		}
		copy(flipped, state)
		switch flipped[k] {
		case 1:
			flipped[k] = 0
		default:
			flipped[k] = 1
		}

		row = append(row, mat.Entry{Row: i, Col: bitIndex(flipped), V: g[k]})
	}
	return row
}

func indexBit(state []byte, n, i int) {
	for k := range n {
		state[k] = byte((i >> (n - 1 - k)) & 1)
	}
}

func bits(n int) func(yield func(int, []byte) bool) {
	state := make([]byte, n)
	return func(yield func(int, []byte) bool) {
		numStates := 1 << n
		for i := range numStates {
			indexBit(state, n, i)
			if !yield(i, state) {
				return
			}
		}
	}
}

func bitIndex(state []byte) int {
	idx := 0
	for i := len(state) - 1; i >= 0; i-- {
		if state[i] == 1 {
			idx += 1 << (len(state) - 1 - i)
		}
	}
	return idx
}
