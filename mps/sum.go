package mps

import (
	"github.com/pkg/errors"
)

// SumPauli returns the MPO of sum_{i=0}^{l-1} p_i.
func SumPauli(l int, p Pauli, options ...BuildOptions) (*MPO, error) {
	if err := validate(l, getOptions(options)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := validatePauli(p); err != nil {
		return nil, errors.Wrap(err, "")
	}

	// Channels are {start, done}.
	const start, done = 0, 1
	site := func(int) *TransferMatrix {
		w := NewTransferMatrix(2, 2)
		w.Add(start, start, Op(Identity, 1))
		w.Add(start, done, Op(p, 1))
		w.Add(done, done, Op(Identity, 1))
		return w
	}
	return compile(l, 2, site), nil
}

// SumPauli2 returns the MPO of (sum_{i=0}^{l-1} p_i)^2.
//
// The square is sum_i p_i^2 + 2 sum_{i<j} p_i p_j.
// Since p_i^2 = I for Pauli matrices, the first sum places the identity at every site.
// The second sum opens a channel at site i and closes it with coefficient 2 at a later site j,
// so that each unordered pair is counted once.
func SumPauli2(l int, p Pauli, options ...BuildOptions) (*MPO, error) {
	if err := validate(l, getOptions(options)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := validatePauli(p); err != nil {
		return nil, errors.Wrap(err, "")
	}

	// Channels are {start, p open, done}.
	const start, open, done = 0, 1, 2
	site := func(int) *TransferMatrix {
		w := NewTransferMatrix(3, 3)
		w.Add(start, start, Op(Identity, 1))
		w.Add(start, open, Op(p, 1))
		w.Add(start, done, Op(Identity, 1))
		w.Add(open, open, Op(Identity, 1))
		w.Add(open, done, Op(p, 2))
		w.Add(done, done, Op(Identity, 1))
		return w
	}
	return compile(l, 3, site), nil
}

// SumSx returns the MPO of sum_i X_i.
func SumSx(l int) (*MPO, error) { return SumPauli(l, PauliX) }

// SumSy returns the MPO of sum_i Y_i.
func SumSy(l int) (*MPO, error) { return SumPauli(l, PauliY) }

// SumSz returns the MPO of sum_i Z_i.
func SumSz(l int) (*MPO, error) { return SumPauli(l, PauliZ) }

// SumSx2 returns the MPO of (sum_i X_i)^2.
func SumSx2(l int) (*MPO, error) { return SumPauli2(l, PauliX) }

// SumSy2 returns the MPO of (sum_i Y_i)^2.
func SumSy2(l int) (*MPO, error) { return SumPauli2(l, PauliY) }

// SumSz2 returns the MPO of (sum_i Z_i)^2.
func SumSz2(l int) (*MPO, error) { return SumPauli2(l, PauliZ) }

func validatePauli(p Pauli) error {
	switch p {
	case PauliX, PauliY, PauliZ:
		return nil
	}
	return errors.Wrapf(ErrConfig, "pauli %v", p)
}
