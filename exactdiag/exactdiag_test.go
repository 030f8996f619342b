package exactdiag

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fumin/spinmpo/exactdiag/mat"
)

func fill(n int, v complex64) []complex64 {
	s := make([]complex64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// transverseFieldIsing returns H = -sum Z_i Z_{i+1} - h sum X_i.
func transverseFieldIsing(l int, h complex64) *mat.COO {
	hamiltonian, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
	Ising(hamiltonian, buf, l, fill(l-1, -1), fill(l, -h), fill(l, 0), 0)
	return hamiltonian
}

// block returns m[y[0]:y[1], x[0]:x[1]], where negative bounds count from the end.
func block(m *mat.COO, y, x [2]int) *mat.COO {
	for i := range 2 {
		if y[i] < 0 {
			y[i] += m.Rows()
		}
		if x[i] < 0 {
			x[i] += m.Cols()
		}
	}
	rows := m.Dense()[y[0]:y[1]]
	b := make([][]complex64, 0, len(rows))
	for _, row := range rows {
		b = append(b, row[x[0]:x[1]])
	}
	return mat.M(b)
}

func TestIsing(t *testing.T) {
	t.Parallel()
	type matrixSlice struct {
		y [2]int
		x [2]int
		s *mat.COO
	}
	tests := []struct {
		l                int
		h                complex64
		hamiltonianShape [2]int
		hamiltonian      []matrixSlice
	}{
		{
			l:                4,
			h:                1,
			hamiltonianShape: [2]int{16, 16},
			hamiltonian: []matrixSlice{
				{
					y: [2]int{0, 16},
					x: [2]int{0, 16},
					s: mat.M([][]complex64{
						{-3, -1, -1, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0, 0, 0},
						{-1, -1, 0, -1, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0, 0},
						{-1, 0, 1, -1, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0, 0},
						{0, -1, -1, -1, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, 0},
						{-1, 0, 0, 0, 1, -1, -1, 0, 0, 0, 0, 0, -1, 0, 0, 0},
						{0, -1, 0, 0, -1, 3, 0, -1, 0, 0, 0, 0, 0, -1, 0, 0},
						{0, 0, -1, 0, -1, 0, 1, -1, 0, 0, 0, 0, 0, 0, -1, 0},
						{0, 0, 0, -1, 0, -1, -1, -1, 0, 0, 0, 0, 0, 0, 0, -1},
						{-1, 0, 0, 0, 0, 0, 0, 0, -1, -1, -1, 0, -1, 0, 0, 0},
						{0, -1, 0, 0, 0, 0, 0, 0, -1, 1, 0, -1, 0, -1, 0, 0},
						{0, 0, -1, 0, 0, 0, 0, 0, -1, 0, 3, -1, 0, 0, -1, 0},
						{0, 0, 0, -1, 0, 0, 0, 0, 0, -1, -1, 1, 0, 0, 0, -1},
						{0, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, 0, -1, -1, -1, 0},
						{0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, 0, -1, 1, 0, -1},
						{0, 0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, -1, 0, -1, -1},
						{0, 0, 0, 0, 0, 0, 0, -1, 0, 0, 0, -1, 0, -1, -1, -3},
					}),
				},
			},
		},
		{
			l:                8,
			h:                1,
			hamiltonianShape: [2]int{256, 256},
			hamiltonian: []matrixSlice{
				{
					y: [2]int{0, 10},
					x: [2]int{0, 9},
					s: mat.M([][]complex64{
						{-7, -1, -1, 0, -1, 0, 0, 0, -1},
						{-1, -5, 0, -1, 0, -1, 0, 0, 0},
						{-1, 0, -3, -1, 0, 0, -1, 0, 0},
						{0, -1, -1, -5, 0, 0, 0, -1, 0},
						{-1, 0, 0, 0, -3, -1, -1, 0, 0},
						{0, -1, 0, 0, -1, -1, 0, -1, 0},
						{0, 0, -1, 0, -1, 0, -3, -1, 0},
						{0, 0, 0, -1, 0, -1, -1, -5, 0},
						{-1, 0, 0, 0, 0, 0, 0, 0, -3},
						{0, -1, 0, 0, 0, 0, 0, 0, -1},
					}),
				},
				{
					y: [2]int{0, 10},
					x: [2]int{-9, 256},
					s: mat.COOZeros(10, 9),
				},
				{
					y: [2]int{-9, 256},
					x: [2]int{-9, 256},
					s: mat.M([][]complex64{
						{-3, 0, 0, 0, 0, 0, 0, 0, -1},
						{0, -5, -1, -1, 0, -1, 0, 0, 0},
						{0, -1, -3, 0, -1, 0, -1, 0, 0},
						{0, -1, 0, -1, -1, 0, 0, -1, 0},
						{0, 0, -1, -1, -3, 0, 0, 0, -1},
						{0, -1, 0, 0, 0, -5, -1, -1, 0},
						{0, 0, -1, 0, 0, -1, -3, 0, -1},
						{0, 0, 0, -1, 0, -1, 0, -5, -1},
						{-1, 0, 0, 0, -1, 0, -1, -1, -7},
					}),
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %#v", test.l, test.h), func(t *testing.T) {
			t.Parallel()
			hamiltonian := transverseFieldIsing(test.l, test.h)
			if !(hamiltonian.Rows() == test.hamiltonianShape[0] && hamiltonian.Cols() == test.hamiltonianShape[1]) {
				t.Fatalf("%d %d, expected %v", hamiltonian.Rows(), hamiltonian.Cols(), test.hamiltonianShape)
			}
			for _, th := range test.hamiltonian {
				s := block(hamiltonian, th.y, th.x)
				if !s.Equal(th.s) {
					t.Fatalf("%s, expected %s", s, th.s)
				}
			}
		})
	}
}

func TestIsingOffset(t *testing.T) {
	t.Parallel()
	const l = 3
	h, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
	Ising(h, buf, l, fill(l-1, 0), fill(l, 0), fill(l, 0), 2.5)

	expected := mat.COOIdentity(1 << l)
	expected.Add(1.5, mat.COOIdentity(1<<l))
	if !h.Equal(expected) {
		t.Fatalf("%s, expected %s", h, expected)
	}
}

func TestHeisenberg(t *testing.T) {
	t.Parallel()
	// Two sites of the isotropic model: the triplet has energy 1 and the singlet -3.
	h, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
	Heisenberg(h, buf, 2, []complex64{1}, []complex64{1}, []complex64{1}, fill(2, 0), fill(2, 0), 0)
	expected := mat.M([][]complex64{
		{1, 0, 0, 0},
		{0, -1, 2, 0},
		{0, 2, -1, 0},
		{0, 0, 0, 1},
	})
	if !h.Equal(expected) {
		t.Fatalf("%s, expected %s", h, expected)
	}

	vvs := h.Eigen()
	vals := []float64{-3, 1, 1, 1}
	for i, vv := range vvs {
		if math.Abs(real(vv.Val)-vals[i]) > 1e-6 {
			t.Fatalf("%d %v %f", i, vv.Val, vals[i])
		}
	}
}

func TestSumPauli2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		l  int
		op [][]complex64
		s2 *mat.COO
	}{
		{
			l:  1,
			op: mat.PauliX,
			s2: mat.COOIdentity(2),
		},
		{
			l:  2,
			op: mat.PauliX,
			s2: mat.M([][]complex64{
				{2, 0, 0, 2},
				{0, 2, 2, 0},
				{0, 2, 2, 0},
				{2, 0, 0, 2},
			}),
		},
		{
			l:  2,
			op: mat.PauliZ,
			s2: mat.M([][]complex64{
				{4, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 4},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %v", test.l, test.op), func(t *testing.T) {
			t.Parallel()
			s2 := SumPauli2(test.l, test.op)
			if !s2.Equal(test.s2) {
				t.Fatalf("%s, expected %s", s2, test.s2)
			}
		})
	}
}

func TestIsingExplicit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		l      int
		j      []complex64
		g      []complex64
		h      []complex64
		offset complex64
	}{
		{l: 8, j: fill(7, -1), g: fill(8, -1), h: fill(8, 0)},
		{l: 3, j: []complex64{1, -0.5}, g: []complex64{0.5, 0, 2}, h: []complex64{0.25, -1, 0}, offset: 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test), func(t *testing.T) {
			t.Parallel()
			dir, err := os.MkdirTemp("", "")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer os.RemoveAll(dir)

			m := mat.M([][]complex64{{0}})
			buf := mat.M([][]complex64{{0}})
			Ising(m, buf, test.l, test.j, test.g, test.h, test.offset)

			if err := IsingExplicit(dir, test.l, test.j, test.g, test.h, test.offset); err != nil {
				t.Fatalf("%+v", err)
			}
			mExplicit, err := mat.ReadCOO(dir)
			if err != nil {
				t.Fatalf("%+v", err)
			}

			if !mExplicit.AllClose(m, 1e-6) {
				t.Fatalf("\n%s, expected \n\n%s", mExplicit, m)
			}
		})
	}
}

func TestIsingDisk(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	const l = 3
	j, g, h := []complex64{1, 2}, []complex64{0.5, 0.5, 0.5}, []complex64{0, -1, 0}
	hDisk, err := mat.NewDiskMatrix(filepath.Join(dir, "h.db"), 1, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer hDisk.Close()
	bufDisk, err := mat.NewDiskMatrix(filepath.Join(dir, "buf.db"), 1, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer bufDisk.Close()
	Ising(hDisk, bufDisk, l, j, g, h, 1)

	hMem, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
	Ising(hMem, buf, l, j, g, h, 1)

	if !mat.AllClose(hDisk, hMem, 1e-6) {
		t.Fatalf("%s, expected %s", hDisk.COO(), hMem)
	}
}

func TestEigen(t *testing.T) {
	t.Parallel()
	h := transverseFieldIsing(8, 1)
	vvs := h.COO().Eigen()

	// Check eigenvalues.
	// Values are from https://juliaphysics.github.io/PhysicsTutorials.jl/tutorials/general/quantum_ising/quantum_ising.html
	vals := []float64{-9.837951447459426, -9.46887800960621, -8.7432994871710, -8.374226049317867, -8.054998024353266, -7.685924586500063, -7.427412901942416, -7.058339464089192, -6.960346064064927, -6.881915778576785}
	for i, v := range vvs[0:10] {
		if math.Abs(real(v.Val)-vals[i]) > 1e-6 {
			t.Fatalf("%d %v %f", i, v.Val, vals[i])
		}
	}
	vals = []float64{6.960346064064934, 7.0583394640891886, 7.427412901942393, 7.685924586500062, 8.054998024353269, 8.374226049317883, 8.74329948717109, 9.468878009606211, 9.83795144745942}
	for i, v := range vvs[len(vvs)-9:] {
		if math.Abs(real(v.Val)-vals[i]) > 1e-6 {
			t.Fatalf("%d %v %f", i, v.Val, vals[i])
		}
	}

	// Check eigenvectors.
	var probSum float64
	for _, v := range vvs[0].Vec {
		probSum += real(v)*real(v) + imag(v)*imag(v)
	}
	if math.Abs(probSum-1) > 1e-6 {
		t.Fatalf("%f", probSum)
	}
	vec := []float64{0.11623105759942885, 0.030073150814502212, 0.0119388989548912, 0.01836268922781065, 0.010306563749646199, 0.0036432311839576883, 0.005695810419718821, 0.014593393364127294, 0.009913022568277332, 0.002835013679521494}
	for i, v := range vvs[0].Vec[:10] {
		prob := real(v)*real(v) + imag(v)*imag(v)
		if math.Abs(prob-vec[i]) > 1e-6 {
			t.Fatalf("%d %v %f %f", i, v, prob, vec[i])
		}
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
