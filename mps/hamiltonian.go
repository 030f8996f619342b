package mps

import (
	"slices"

	"github.com/pkg/errors"
)

// Ising is the Hamiltonian
//
//	H = sum_{i=0}^{L-2} J[i] Z_i Z_{i+1} + sum_{i=0}^{L-1} (g[i] X_i + h[i] Z_i) + offset
type Ising struct {
	L      int
	J      []complex64
	G      []complex64
	H      []complex64
	Offset complex64

	mpo *MPO
}

// NewIsing builds the Ising Hamiltonian of a chain of length l.
// g and h have one value per site, and j has one value per bond.
func NewIsing(l int, j, g, h []complex64, offset complex64, options ...BuildOptions) (*Ising, error) {
	if err := validate(l, getOptions(options)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := ValidateBonds("J", l, len(j)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := ValidateSites("g", l, len(g)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := ValidateSites("h", l, len(h)); err != nil {
		return nil, errors.Wrap(err, "")
	}

	m := &Ising{L: l, J: slices.Clone(j), G: slices.Clone(g), H: slices.Clone(h), Offset: offset}
	m.mpo = compile(l, isingChannels, m.Transfer)
	return m, nil
}

const (
	// isingChannels are {start, Z open, done}.
	isingChannels = 3
)

// Transfer returns the bulk transfer matrix of site i.
func (m *Ising) Transfer(i int) *TransferMatrix {
	const start, z, done = 0, 1, 2
	w := NewTransferMatrix(isingChannels, isingChannels)
	w.Add(start, start, Op(Identity, 1))
	w.Add(start, z, Op(PauliZ, at(m.J, i)))
	w.Add(start, done, local(m.Offset, m.L, m.G[i], m.H[i]))
	w.Add(z, done, Op(PauliZ, 1))
	w.Add(done, done, Op(Identity, 1))
	return w
}

// MPO returns the matrix product operator of the Hamiltonian.
func (m *Ising) MPO() *MPO { return m.mpo }

// TimeEvolution returns the MPO of e^{-Ht}, or e^{-iHt} if imag is false, using trotterN Trotter steps.
// Exponentiation is left to the simulation engine.
func (m *Ising) TimeEvolution(t float64, trotterN int, imag bool) (*MPO, error) {
	return nil, errors.WithStack(ErrNotImplemented)
}

// Heisenberg is the Hamiltonian
//
//	H = sum_{p=x,y,z} sum_{i=0}^{L-2} Jp[i] p_i p_{i+1} + sum_{i=0}^{L-1} (g[i] X_i + h[i] Z_i) + offset
type Heisenberg struct {
	L      int
	Jx     []complex64
	Jy     []complex64
	Jz     []complex64
	G      []complex64
	H      []complex64
	Offset complex64

	mpo *MPO
}

// NewHeisenberg builds the anisotropic Heisenberg Hamiltonian of a chain of length l.
func NewHeisenberg(l int, jx, jy, jz, g, h []complex64, offset complex64, options ...BuildOptions) (*Heisenberg, error) {
	if err := validate(l, getOptions(options)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, c := range []struct {
		name string
		v    []complex64
	}{{"Jx", jx}, {"Jy", jy}, {"Jz", jz}} {
		if err := ValidateBonds(c.name, l, len(c.v)); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	if err := ValidateSites("g", l, len(g)); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := ValidateSites("h", l, len(h)); err != nil {
		return nil, errors.Wrap(err, "")
	}

	m := &Heisenberg{L: l, Jx: slices.Clone(jx), Jy: slices.Clone(jy), Jz: slices.Clone(jz), G: slices.Clone(g), H: slices.Clone(h), Offset: offset}
	m.mpo = compile(l, heisenbergChannels, m.Transfer)
	return m, nil
}

const (
	// heisenbergChannels are {start, X open, Y open, Z open, done}.
	heisenbergChannels = 5
)

// Transfer returns the bulk transfer matrix of site i.
// Each of the X, Y and Z couplings runs in its own channel so that cross terms such as X_i Y_{i+1} never appear.
func (m *Heisenberg) Transfer(i int) *TransferMatrix {
	const start, done = 0, heisenbergChannels - 1
	w := NewTransferMatrix(heisenbergChannels, heisenbergChannels)
	w.Add(start, start, Op(Identity, 1))
	for k, c := range []struct {
		p Pauli
		j []complex64
	}{{PauliX, m.Jx}, {PauliY, m.Jy}, {PauliZ, m.Jz}} {
		open := k + 1
		w.Add(start, open, Op(c.p, at(c.j, i)))
		w.Add(open, done, Op(c.p, 1))
	}
	w.Add(start, done, local(m.Offset, m.L, m.G[i], m.H[i]))
	w.Add(done, done, Op(Identity, 1))
	return w
}

// MPO returns the matrix product operator of the Hamiltonian.
func (m *Heisenberg) MPO() *MPO { return m.mpo }

// TimeEvolution returns the MPO of e^{-Ht}, or e^{-iHt} if imag is false, using trotterN Trotter steps.
// Exponentiation is left to the simulation engine.
func (m *Heisenberg) TimeEvolution(t float64, trotterN int, imag bool) (*MPO, error) {
	return nil, errors.WithStack(ErrNotImplemented)
}

// local returns the single site terms, with the offset split evenly among the l sites.
// Summed over the chain, the split offset equals offset only up to complex64 rounding.
func local(offset complex64, l int, g, h complex64) Coeff {
	return Coeff{offset / complex(float32(l), 0), g, 0, h}
}
