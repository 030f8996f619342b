package mps

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

const (
	// physDim is the local dimension of a spin-1/2 site.
	physDim = 2
)

var (
	// ErrConfig is returned when a model is requested with inconsistent parameters.
	ErrConfig = errors.New("invalid configuration")
	// ErrNotImplemented is returned by extension points left to the simulation engine.
	ErrNotImplemented = errors.New("not implemented")
)

// MPO is a matrix product operator.
// Each site is of shape {mpoLeft, mpoRight, mpoUp, mpoDown}, see Figure 35, Ulrich Schollwock.
type MPO struct {
	sites []*tensor.Dense
	bondD int
	physD int
}

// NewMPO allocates a chain of l zero sites with bond dimension bondD and physical dimension physD.
// The leftmost site has mpoLeft dimension 1, and the rightmost site has mpoRight dimension 1.
func NewMPO(l, bondD, physD int) *MPO {
	m := &MPO{sites: make([]*tensor.Dense, 0, l), bondD: bondD, physD: physD}
	for i := range l {
		m.sites = append(m.sites, tensor.Zeros(m.siteShape(i, l)...))
	}
	return m
}

func (m *MPO) siteShape(i, l int) []int {
	left, right := m.bondD, m.bondD
	if i == 0 {
		left = 1
	}
	if i == l-1 {
		right = 1
	}
	return []int{left, right, m.physD, m.physD}
}

// Set assigns the tensor of site i.
// It panics if w does not have the shape allocated for site i.
func (m *MPO) Set(i int, w *tensor.Dense) {
	if i < 0 || i >= len(m.sites) {
		panic(fmt.Sprintf("%d %d", i, len(m.sites)))
	}
	if expected := m.siteShape(i, len(m.sites)); !slices.Equal(w.Shape(), expected) {
		panic(fmt.Sprintf("%d %#v, expected %#v", i, w.Shape(), expected))
	}
	m.sites[i] = w
}

// Len returns the number of sites.
func (m *MPO) Len() int { return len(m.sites) }

// BondDim returns the bond dimension of the interior bonds.
func (m *MPO) BondDim() int { return m.bondD }

// PhysDim returns the physical dimension of each site.
func (m *MPO) PhysDim() int { return m.physD }

// Site returns the tensor of site i.
func (m *MPO) Site(i int) *tensor.Dense { return m.sites[i] }

// Sites returns the chain of site tensors.
func (m *MPO) Sites() []*tensor.Dense { return m.sites }

func (m *MPO) String() string {
	ss := make([]string, 0, len(m.sites))
	for _, w := range m.sites {
		ss = append(ss, format(w))
	}
	return strings.Join(ss, "\n")
}

// BuildOptions are options for constructing MPOs.
type BuildOptions struct {
	physD int
}

// NewBuildOptions returns the default build options.
func NewBuildOptions() BuildOptions {
	opt := BuildOptions{}
	opt.physD = physDim
	return opt
}

// PhysDim sets the requested local dimension.
// Only spin-1/2 chains, physical dimension 2, are supported.
func (opt BuildOptions) PhysDim(d int) BuildOptions {
	opt.physD = d
	return opt
}

func getOptions(options []BuildOptions) BuildOptions {
	opt := NewBuildOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	return opt
}

func validate(l int, opt BuildOptions) error {
	if l < 1 {
		return errors.Wrapf(ErrConfig, "chain length %d", l)
	}
	if opt.physD != physDim {
		return errors.Wrapf(ErrConfig, "physical dimension %d, only %d is supported", opt.physD, physDim)
	}
	return nil
}

// ValidateSites checks that a per site array of length n has exactly one value per site of a chain of length l.
func ValidateSites(name string, l, n int) error {
	if n != l {
		return errors.Wrapf(ErrConfig, "len(%s) %d, expected %d", name, n, l)
	}
	return nil
}

// ValidateBonds checks the length n of a nearest neighbor coupling array of a chain of length l.
// Both l-1 values, one per bond, and l values are accepted.
// Under open boundary conditions the value at l-1 is never referenced.
func ValidateBonds(name string, l, n int) error {
	if n != l && n != l-1 {
		return errors.Wrapf(ErrConfig, "len(%s) %d, expected %d or %d", name, n, l-1, l)
	}
	return nil
}
