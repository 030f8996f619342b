// Package mat implements sparse complex matrices for building operators on the full Hilbert space of a spin chain.
package mat

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"math/cmplx"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	PauliX = [][]complex64{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex64{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex64{
		{1, 0},
		{0, -1},
	}
)

// Matrix is a sparse matrix that chain operators are accumulated into, term by term.
type Matrix interface {
	Zeros(rows, cols int)
	Scalar(v complex64)
	Rows() int
	Cols() int

	// Add performs m = m + c*b.
	Add(c complex64, b Matrix)
	// Kron replaces m with the Kronecker product of m and b.
	Kron(b *COO)
	// All iterates over the nonzero entries in row major order.
	All() iter.Seq[Entry]
	COO() *COO

	WriteCOO(dir string) error
}

// Entry is a nonzero element of a sparse matrix.
type Entry struct {
	Row int
	Col int
	V   complex64
}

// COO is an in memory sparse matrix.
// Its entries are nonzero, unique, and sorted in row major order.
type COO struct {
	rows    int
	cols    int
	entries []Entry
}

// M returns the sparse form of dense.
func M(dense [][]complex64) *COO {
	m := COOZeros(len(dense), len(dense[0]))
	for i, row := range dense {
		for j, v := range row {
			if v != 0 {
				m.entries = append(m.entries, Entry{Row: i, Col: j, V: v})
			}
		}
	}
	return m
}

func COOZeros(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols, entries: make([]Entry, 0)}
}

func COOIdentity(n int) *COO {
	m := COOZeros(n, n)
	for i := range n {
		m.entries = append(m.entries, Entry{Row: i, Col: i, V: 1})
	}
	return m
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

// Len returns the number of nonzero entries.
func (m *COO) Len() int { return len(m.entries) }

func (m *COO) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.entries = m.entries[:0]
}

func (m *COO) Scalar(v complex64) {
	m.Zeros(1, 1)
	if v != 0 {
		m.entries = append(m.entries, Entry{V: v})
	}
}

func (m *COO) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range m.entries {
			if !yield(e) {
				return
			}
		}
	}
}

func (m *COO) COO() *COO { return m }

// Equal reports whether a and b have exactly the same elements.
func (a *COO) Equal(b *COO) bool {
	return a.rows == b.rows && a.cols == b.cols && slices.Equal(a.entries, b.entries)
}

// Add merges c*b into a.
func (a *COO) Add(c complex64, b Matrix) {
	if a.rows != b.Rows() || a.cols != b.Cols() {
		panic(fmt.Sprintf("%d %d %d %d", a.rows, a.cols, b.Rows(), b.Cols()))
	}

	sum := make([]Entry, 0, len(a.entries))
	var i int
	for be := range b.All() {
		for i < len(a.entries) && rowMajor(a.entries[i], be) < 0 {
			sum = append(sum, a.entries[i])
			i++
		}
		v := c * be.V
		if i < len(a.entries) && rowMajor(a.entries[i], be) == 0 {
			v += a.entries[i].V
			i++
		}
		if v != 0 {
			sum = append(sum, Entry{Row: be.Row, Col: be.Col, V: v})
		}
	}
	sum = append(sum, a.entries[i:]...)
	a.entries = sum
}

func (a *COO) Kron(b *COO) {
	k := make([]Entry, 0, len(a.entries)*len(b.entries))
	for _, ae := range a.entries {
		for _, be := range b.entries {
			k = append(k, Entry{Row: ae.Row*b.rows + be.Row, Col: ae.Col*b.cols + be.Col, V: ae.V * be.V})
		}
	}
	k = slices.DeleteFunc(k, func(e Entry) bool { return e.V == 0 })
	slices.SortFunc(k, rowMajor)

	a.rows, a.cols = a.rows*b.rows, a.cols*b.cols
	a.entries = k
}

// MatMul returns the matrix product a @ b.
func (a *COO) MatMul(b *COO) *COO {
	if a.cols != b.rows {
		panic(fmt.Sprintf("%d %d", a.cols, b.rows))
	}
	bRows := make([][]Entry, b.rows)
	for _, e := range b.entries {
		bRows[e.Row] = append(bRows[e.Row], e)
	}

	c := COOZeros(a.rows, b.cols)
	acc := make(map[int]complex64)
	for row := range a.rowBlocks() {
		clear(acc)
		for _, ae := range row {
			for _, be := range bRows[ae.Col] {
				acc[be.Col] += ae.V * be.V
			}
		}
		for _, col := range slices.Sorted(maps.Keys(acc)) {
			if v := acc[col]; v != 0 {
				c.entries = append(c.entries, Entry{Row: row[0].Row, Col: col, V: v})
			}
		}
	}
	return c
}

// rowBlocks iterates over the nonempty rows of m.
func (m *COO) rowBlocks() iter.Seq[[]Entry] {
	return func(yield func([]Entry) bool) {
		for start := 0; start < len(m.entries); {
			end := start + 1
			for end < len(m.entries) && m.entries[end].Row == m.entries[start].Row {
				end++
			}
			if !yield(m.entries[start:end]) {
				return
			}
			start = end
		}
	}
}

// H returns the conjugate transpose.
func (m *COO) H() *COO {
	h := COOZeros(m.cols, m.rows)
	for _, e := range m.entries {
		h.entries = append(h.entries, Entry{Row: e.Col, Col: e.Row, V: complex64(cmplx.Conj(complex128(e.V)))})
	}
	slices.SortFunc(h.entries, rowMajor)
	return h
}

// AllClose reports whether a and b have the same shape, and all their elements differ by at most tol.
func (a *COO) AllClose(b Matrix, tol float64) bool {
	return AllClose(a, b, tol)
}

// AllClose reports whether a and b have the same shape, and all their elements differ by at most tol.
// Both matrices are streamed, so that neither has to be held in memory.
func AllClose(a, b Matrix, tol float64) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	far := func(v complex64) bool { return cmplx.Abs(complex128(v)) > tol }

	nextB, stop := iter.Pull(b.All())
	defer stop()
	be, bOK := nextB()
	for ae := range a.All() {
		for bOK && rowMajor(be, ae) < 0 {
			if far(be.V) {
				return false
			}
			be, bOK = nextB()
		}
		d := ae.V
		if bOK && rowMajor(be, ae) == 0 {
			d -= be.V
			be, bOK = nextB()
		}
		if far(d) {
			return false
		}
	}
	for ; bOK; be, bOK = nextB() {
		if far(be.V) {
			return false
		}
	}
	return true
}

func (m *COO) Dense() [][]complex64 {
	dense := make([][]complex64, m.rows)
	for i := range dense {
		dense[i] = make([]complex64, m.cols)
	}
	for _, e := range m.entries {
		dense[e.Row][e.Col] = e.V
	}
	return dense
}

func (m *COO) WriteCOO(dir string) error {
	return writeCOO(dir, m.rows, m.cols, m.All())
}

func (m *COO) String() string {
	lines := make([]string, 0, m.rows)
	for _, row := range m.Dense() {
		cs := make([]string, 0, len(row))
		for _, v := range row {
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

type ValVec struct {
	Val complex128
	Vec []complex128
}

// Eigen returns the eigenpairs of a real matrix, sorted by the real part of the eigenvalues.
func (m *COO) Eigen() []ValVec {
	gnm := mat.NewDense(m.rows, m.cols, nil)
	for _, e := range m.entries {
		if imag(e.V) != 0 {
			panic(fmt.Sprintf("not real %#v", e))
		}
		gnm.Set(e.Row, e.Col, float64(real(e.V)))
	}

	var eig mat.Eigen
	if ok := eig.Factorize(gnm, mat.EigenRight); !ok {
		panic("eig.Factorize failed")
	}
	vals := eig.Values(nil)
	vecs := mat.NewCDense(m.rows, m.cols, nil)
	eig.VectorsTo(vecs)

	vvs := make([]ValVec, 0, len(vals))
	for i, v := range vals {
		vec := make([]complex128, 0, m.rows)
		for j := range m.rows {
			vec = append(vec, vecs.At(j, i))
		}
		vvs = append(vvs, ValVec{Val: v, Vec: vec})
	}
	slices.SortFunc(vvs, func(a, b ValVec) int { return cmp.Compare(real(a.Val), real(b.Val)) })
	return vvs
}

// Spectrum returns the eigenvalues of a Hermitian matrix in ascending order.
//
// The n x n matrix A = B + iC is embedded in the 2n x 2n real symmetric matrix
//
//	[[B, -C],
//	 [C,  B]]
//
// whose spectrum is that of A with every eigenvalue repeated twice.
func (m *COO) Spectrum(tol float64) ([]float64, error) {
	if m.rows != m.cols {
		return nil, errors.Errorf("not square %d %d", m.rows, m.cols)
	}
	if !m.AllClose(m.H(), tol) {
		return nil, errors.Errorf("not hermitian")
	}

	n := m.rows
	sym := mat.NewSymDense(2*n, nil)
	for _, e := range m.entries {
		if e.Row > e.Col {
			continue
		}
		re, im := float64(real(e.V)), float64(imag(e.V))
		sym.SetSym(e.Row, e.Col, re)
		sym.SetSym(n+e.Row, n+e.Col, re)
		sym.SetSym(e.Row, n+e.Col, -im)
		sym.SetSym(e.Col, n+e.Row, im)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return nil, errors.Errorf("eig.Factorize failed")
	}
	doubled := eig.Values(nil)
	sort.Float64s(doubled)
	vals := make([]float64, 0, n)
	for i := 0; i < len(doubled); i += 2 {
		vals = append(vals, doubled[i])
	}
	return vals, nil
}

func rowMajor(a, b Entry) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

func format(v float32) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}

// FormatNumpy formats v so that numpy.loadtxt can parse it.
func FormatNumpy(v complex64) string {
	if imag(v) == 0 {
		return strconv.FormatFloat(float64(real(v)), 'g', -1, 32)
	}
	return strings.ReplaceAll(fmt.Sprintf("%v", v), "i", "j")
}
