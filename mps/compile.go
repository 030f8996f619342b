package mps

import (
	"fmt"
	"strings"

	"github.com/fumin/tensor"
)

// Coeff holds the coefficients of c[0]*I + c[1]*X + c[2]*Y + c[3]*Z.
type Coeff [NumPauli]complex64

// Op returns the coefficients of c*p.
func Op(p Pauli, c complex64) Coeff {
	var coeff Coeff
	coeff[p] = c
	return coeff
}

// entry is a transition of the automaton from channel row to channel col.
type entry struct {
	row   int
	col   int
	coeff Coeff
}

// TransferMatrix is a table of operator valued entries, one per pair of bond channels.
// Row is the channel on the left bond, and col the channel on the right bond.
// Entries absent from the table are zero.
type TransferMatrix struct {
	rows    int
	cols    int
	entries []entry
}

// NewTransferMatrix returns an empty transfer matrix of shape {rows, cols}.
func NewTransferMatrix(rows, cols int) *TransferMatrix {
	return &TransferMatrix{rows: rows, cols: cols}
}

// Add adds coeff to the entry at (row, col).
func (m *TransferMatrix) Add(row, col int, coeff Coeff) *TransferMatrix {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("%d %d %d %d", row, col, m.rows, m.cols))
	}
	for i, e := range m.entries {
		if e.row == row && e.col == col {
			for p, c := range coeff {
				m.entries[i].coeff[p] += c
			}
			return m
		}
	}
	m.entries = append(m.entries, entry{row: row, col: col, coeff: coeff})
	return m
}

// At returns the coefficients at (row, col).
func (m *TransferMatrix) At(row, col int) Coeff {
	for _, e := range m.entries {
		if e.row == row && e.col == col {
			return e.coeff
		}
	}
	return Coeff{}
}

// Shape returns the number of rows and columns.
func (m *TransferMatrix) Shape() (int, int) { return m.rows, m.cols }

// Row returns the 1 x cols transfer matrix of row i.
func (m *TransferMatrix) Row(i int) *TransferMatrix {
	r := NewTransferMatrix(1, m.cols)
	for _, e := range m.entries {
		if e.row == i {
			r.entries = append(r.entries, entry{row: 0, col: e.col, coeff: e.coeff})
		}
	}
	return r
}

// Col returns the rows x 1 transfer matrix of column j.
func (m *TransferMatrix) Col(j int) *TransferMatrix {
	c := NewTransferMatrix(m.rows, 1)
	for _, e := range m.entries {
		if e.col == j {
			c.entries = append(c.entries, entry{row: e.row, col: 0, coeff: e.coeff})
		}
	}
	return c
}

// Coefficients returns the dense coefficients of shape {rows, cols, 4}.
func (m *TransferMatrix) Coefficients() *tensor.Dense {
	c := tensor.Zeros(m.rows, m.cols, NumPauli)
	for _, e := range m.entries {
		for p, v := range e.coeff {
			c.SetAt([]int{e.row, e.col, p}, v)
		}
	}
	return c
}

// Tensor contracts the coefficients with the operator basis.
// The result is of shape {rows, cols, physUp, physDown}, and
// W[a, b, s, t] = sum_p C[a, b, p] * sigma_p[s, t].
func (m *TransferMatrix) Tensor() *tensor.Dense {
	// Contract uses its operands as scratch space, so the basis is not shared between calls.
	w := tensor.Zeros(1)
	return tensor.Contract(w, m.Coefficients(), Basis(), [][2]int{{2, 0}})
}

func (m *TransferMatrix) String() string {
	lines := make([]string, 0, m.rows)
	for i := range m.rows {
		cs := make([]string, 0, m.cols)
		for j := range m.cols {
			cs = append(cs, m.At(i, j).String())
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

func (c Coeff) String() string {
	terms := make([]string, 0, NumPauli)
	for p, v := range c {
		if v == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("%v%s", v, Pauli(p)))
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, "+")
}

// siteFunc returns the bulk transfer matrix of site i, of shape {k, k}.
// Channel 0 is the state where nothing has been placed yet, and
// channel k-1 is the state where all terms are complete.
type siteFunc func(i int) *TransferMatrix

// compile builds the MPO of a chain of length l from its per site automaton.
// The leftmost site keeps only the starting channel 0 of its left bond, and
// the rightmost site keeps only the final channel k-1 of its right bond.
func compile(l, k int, site siteFunc) *MPO {
	mpo := NewMPO(l, k, physDim)
	if l == 1 {
		mpo.Set(0, site(0).Row(0).Col(k-1).Tensor())
		return mpo
	}

	mpo.Set(0, site(0).Row(0).Tensor())
	for i := 1; i <= l-2; i++ {
		mpo.Set(i, site(i).Tensor())
	}
	mpo.Set(l-1, site(l-1).Col(k-1).Tensor())
	return mpo
}

// at returns v[i], or 0 if i is out of range.
// Coupling arrays of length l-1 have no value at the last site.
func at(v []complex64, i int) complex64 {
	if i >= len(v) {
		return 0
	}
	return v[i]
}
