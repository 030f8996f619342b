package mps

import (
	"fmt"
	"testing"

	"github.com/fumin/spinmpo/exactdiag"
	"github.com/fumin/spinmpo/exactdiag/mat"
)

func TestSumPauli(t *testing.T) {
	t.Parallel()
	type testcase struct {
		l int
		p Pauli
	}
	tests := make([]testcase, 0)
	for l := 1; l <= 5; l++ {
		for _, p := range []Pauli{PauliX, PauliY, PauliZ} {
			tests = append(tests, testcase{l: l, p: p})
		}
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %v", test.l, test.p), func(t *testing.T) {
			t.Parallel()
			mpo, err := SumPauli(test.l, test.p)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			s := denseCOO(mpo)

			expected, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
			exactdiag.SumPauli(expected, buf, test.l, PauliMatrix(test.p))
			if !s.AllClose(expected, tol) {
				t.Fatalf("\n%s, expected \n\n%s", s, expected)
			}
			if !s.AllClose(s.H(), tol) {
				t.Fatalf("not hermitian %s", s)
			}

			mpo2, err := SumPauli2(test.l, test.p)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			s2 := denseCOO(mpo2)
			expected2 := exactdiag.SumPauli2(test.l, PauliMatrix(test.p))
			if !s2.AllClose(expected2, tol) {
				t.Fatalf("\n%s, expected \n\n%s", s2, expected2)
			}
			if !s2.AllClose(s2.H(), tol) {
				t.Fatalf("not hermitian %s", s2)
			}
		})
	}
}

func TestSumSingleSite(t *testing.T) {
	t.Parallel()
	sx, err := SumSx(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := denseCOO(sx); !s.Equal(mat.M(PauliMatrix(PauliX))) {
		t.Fatalf("%s", s)
	}

	sx2, err := SumSx2(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s := denseCOO(sx2); !s.Equal(mat.COOIdentity(2)) {
		t.Fatalf("%s", s)
	}
}

func TestSumSx2TwoSites(t *testing.T) {
	t.Parallel()
	sx2, err := SumSx2(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	s := denseCOO(sx2)

	// (X1 + X2)^2 = X1^2 + X2^2 + 2 X1 X2 = 2 I + 2 X1 X2.
	i, x := PauliMatrix(Identity), PauliMatrix(PauliX)
	expected := mat.COOZeros(4, 4)
	expected.Add(2, kron(i, i))
	expected.Add(2, kron(x, x))
	if !s.Equal(expected) {
		t.Fatalf("%s, expected %s", s, expected)
	}
}

func TestSumNamed(t *testing.T) {
	t.Parallel()
	const l = 3
	tests := []struct {
		build func(int) (*MPO, error)
		p     Pauli
		sq    bool
	}{
		{build: SumSx, p: PauliX},
		{build: SumSy, p: PauliY},
		{build: SumSz, p: PauliZ},
		{build: SumSx2, p: PauliX, sq: true},
		{build: SumSy2, p: PauliY, sq: true},
		{build: SumSz2, p: PauliZ, sq: true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %t", test.p, test.sq), func(t *testing.T) {
			t.Parallel()
			mpo, err := test.build(l)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			expected := SumPauli
			if test.sq {
				expected = SumPauli2
			}
			mpoE, err := expected(l, test.p)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if s, e := denseCOO(mpo), denseCOO(mpoE); !s.Equal(e) {
				t.Fatalf("%s, expected %s", s, e)
			}
		})
	}
}
