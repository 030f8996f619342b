// Package mps builds Matrix Product Operators of spin-1/2 chains, and evaluates them on Matrix Product States.
//
// Each MPO is compiled from a small transfer matrix per site, whose entries are operators expanded in the basis {I, X, Y, Z}.
// Read left to right, the bond channels form a finite automaton that places each local and nearest neighbor term exactly once.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
package mps

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fumin/tensor"
)

const (
	// mpsLeftAxis is the axis of a_{l-1} in Figure 6.
	mpsLeftAxis  = 0
	mpsUpAxis    = 1
	mpsRightAxis = 2
	// mpoLeftAxis is the axis of b_{l-1} in Figure 35.
	mpoLeftAxis  = 0
	mpoRightAxis = 1
	mpoUpAxis    = 2
	mpoDownAxis  = 3
)

// NewMPS create a matrix product representation from a general state.
func NewMPS(state *tensor.Dense, bufs [2]*tensor.Dense) []*tensor.Dense {
	shape := state.Shape()

	sites := make([]*tensor.Dense, 0, len(shape))
	var leftD int = 1
	for _, physD := range shape[:len(shape)-1] {
		q := tensor.Zeros(1)
		r := tensor.QR(q, state.Reshape(leftD*physD, -1), bufs)

		leftD = r.Shape()[0]
		state = r

		sites = append(sites, q.Reshape(-1, physD, leftD))
	}

	state = state.Reshape(leftD, shape[len(shape)-1], 1)
	sites = append(sites, resetCopy(tensor.Zeros(1), state))

	return sites
}

// InnerProduct computes the inner product between x and y.
// See Section 4.2.1 Efficient evaluation of contractions, Ulrich Schollwock.
func InnerProduct(x, y []*tensor.Dense, bufs [2]*tensor.Dense) complex64 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("%d %d", len(x), len(y)))
	}

	f := ones(bufs[0], 1, 1)
	const fTopAxis, fBottomAxis = 0, 1
	for i, xi := range x {
		yi := y[i]

		fyi := tensor.Contract(bufs[1], f, yi, [][2]int{{fBottomAxis, mpsLeftAxis}})
		tensor.Contract(f, xi.Conj(), fyi, [][2]int{{mpsLeftAxis, fTopAxis}, {mpsUpAxis, mpsUpAxis}})
	}

	if !slices.Equal(f.Shape(), []int{1, 1}) {
		panic(fmt.Sprintf("%#v", f.Shape()))
	}
	return f.At(0, 0)
}

// LExpressions returns the L expressions defined in Equation 192, Section 6.2 Applying a Hamiltonian MPO to a mixed canonical state, Ulrich Schollwock.
// See Figure 38, Ulrich Schollwock for a graphical explanation.
func LExpressions(fs, ws, ms []*tensor.Dense, bufs [2]*tensor.Dense) complex64 {
	if len(fs) != len(ws) {
		panic(fmt.Sprintf("%d %d", len(fs), len(ws)))
	}
	if len(ws) != len(ms) {
		panic(fmt.Sprintf("%d %d", len(ws), len(ms)))
	}

	fi1 := ones(fs[0], 1, 1, 1)
	for i, w := range ws {
		m := ms[i]
		fi1 = lExpression(fs[i], fi1, w, m, bufs[:])
	}

	if !slices.Equal(fi1.Shape(), []int{1, 1, 1}) {
		panic(fmt.Sprintf("%#v", fi1.Shape()))
	}
	return fi1.At(0, 0, 0)
}

func lExpression(fi, fi1, w, m *tensor.Dense, bufs []*tensor.Dense) *tensor.Dense {
	// fi1 is of shape {fTop, fMid, fBot}.
	// fm is of shape {fTop, fMid, mpsTop, mpsRight}.
	fm := tensor.Contract(bufs[0], fi1, m, [][2]int{{2, mpsLeftAxis}})

	// wfm is of shape {mpoRight, mpoUp, fTop, mpsRight}.
	wfm := tensor.Contract(bufs[1], w, fm, [][2]int{{mpoDownAxis, 2}, {mpoLeftAxis, 1}})

	// fi is of shape {mpsRight.conj, mpoRight, mpsRight}.
	tensor.Contract(fi, m.Conj(), wfm, [][2]int{{mpsLeftAxis, 2}, {mpsUpAxis, 1}})

	return fi
}

// Expectation returns <ms|mpo|ms> / <ms|ms>.
func Expectation(mpo *MPO, ms []*tensor.Dense) complex64 {
	fs := make([]*tensor.Dense, 0, mpo.Len())
	for range mpo.Len() {
		fs = append(fs, tensor.Zeros(1))
	}
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}

	norm2 := InnerProduct(ms, ms, bufs)
	return LExpressions(fs, mpo.Sites(), ms, bufs) / norm2
}

// Dense contracts all bonds of mpo, and returns the operator as a matrix of shape {physD^l, physD^l}.
// The first site is the most significant digit of the row and column indices.
func Dense(mpo *MPO) [][]complex64 {
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}

	// acc is of shape {rows, cols, mpoRight}.
	w0 := mpo.Site(0)
	s := w0.Shape()
	w0 = w0.Reshape(s[mpoRightAxis], s[mpoUpAxis], s[mpoDownAxis])
	acc := resetCopy(bufs[0], w0.Transpose(1, 2, 0))

	for _, w := range mpo.Sites()[1:] {
		as, ws := acc.Shape(), w.Shape()
		rows, cols := as[0]*ws[mpoUpAxis], as[1]*ws[mpoDownAxis]

		// p is of shape {rows, cols, mpoRight, mpoUp, mpoDown}.
		p := tensor.Contract(bufs[1], acc, w, [][2]int{{2, mpoLeftAxis}})

		// acc is of shape {rows, mpoUp, cols, mpoDown, mpoRight}.
		acc = resetCopy(bufs[0], p.Transpose(0, 3, 1, 4, 2)).Reshape(rows, cols, -1)
	}

	as := acc.Shape()
	if as[2] != 1 {
		panic(fmt.Sprintf("%#v", as))
	}
	dense := make([][]complex64, as[0])
	for i := range dense {
		dense[i] = make([]complex64, as[1])
		for j := range dense[i] {
			dense[i][j] = acc.At(i, j, 0)
		}
	}
	return dense
}

func format(a *tensor.Dense) string {
	shapeStrs := make([]string, 0, len(a.Shape()))
	for _, d := range a.Shape() {
		shapeStrs = append(shapeStrs, strconv.Itoa(d))
	}
	shapeS := strings.Join(shapeStrs, ",")

	ss := make([]string, 0)
	for _, v := range a.All() {
		s := fmt.Sprintf("%v", v)
		s = strings.ReplaceAll(s, "i", "j")
		ss = append(ss, s)
	}
	s := strings.Join(ss, ",")

	return fmt.Sprintf("[%s][%s]", shapeS, s)
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}

func ones(t *tensor.Dense, shape ...int) *tensor.Dense {
	t.Reset(shape...)
	for ijk := range t.All() {
		t.SetAt(ijk, 1)
	}
	return t
}
