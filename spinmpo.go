// Package spinmpo builds matrix product operators of spin-1/2 chains from declarative model configurations.
package spinmpo

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fumin/spinmpo/exactdiag"
	"github.com/fumin/spinmpo/exactdiag/mat"
	"github.com/fumin/spinmpo/mps"
)

const (
	ModelIsing      = "ising"
	ModelHeisenberg = "heisenberg"
	ModelSum        = "sum"
	ModelSum2       = "sum2"
)

// Config describes an operator on a chain of L spins.
// Missing site arrays (g, h) default to zeros of length L, and missing bond arrays (j, jx, jy, jz) to zeros of length L-1.
type Config struct {
	Model  string    `yaml:"model"`
	L      int       `yaml:"l"`
	J      []float64 `yaml:"j"`
	Jx     []float64 `yaml:"jx"`
	Jy     []float64 `yaml:"jy"`
	Jz     []float64 `yaml:"jz"`
	G      []float64 `yaml:"g"`
	H      []float64 `yaml:"h"`
	Offset float64   `yaml:"offset"`
	// Pauli is one of x, y, z, and selects the operator of the sum models.
	Pauli string `yaml:"pauli"`
}

// ParseConfig parses a YAML model configuration.
func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	return cfg, nil
}

// ReadConfig reads a YAML model configuration from a file.
func ReadConfig(fpath string) (Config, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return Config{}, errors.Wrap(err, fpath)
	}
	return cfg, nil
}

// Validate checks the model name, the chain length, the pauli operator, and the lengths of the coupling arrays.
func (cfg Config) Validate() error {
	if cfg.L < 1 {
		return errors.Wrapf(mps.ErrConfig, "l %d", cfg.L)
	}

	var sites, bonds map[string][]float64
	switch cfg.Model {
	case ModelIsing:
		sites = map[string][]float64{"g": cfg.G, "h": cfg.H}
		bonds = map[string][]float64{"j": cfg.J}
	case ModelHeisenberg:
		sites = map[string][]float64{"g": cfg.G, "h": cfg.H}
		bonds = map[string][]float64{"jx": cfg.Jx, "jy": cfg.Jy, "jz": cfg.Jz}
	case ModelSum, ModelSum2:
		if _, ok := mps.ParsePauli(cfg.Pauli); !ok {
			return errors.Wrapf(mps.ErrConfig, "pauli %q", cfg.Pauli)
		}
	default:
		return errors.Wrapf(mps.ErrConfig, "model %q", cfg.Model)
	}

	// Missing arrays default to zeros of the right length.
	for name, v := range sites {
		if v == nil {
			continue
		}
		if err := mps.ValidateSites(name, cfg.L, len(v)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	for name, v := range bonds {
		if v == nil {
			continue
		}
		if err := mps.ValidateBonds(name, cfg.L, len(v)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func (cfg Config) sites(v []float64) []complex64 {
	return toComplex(v, cfg.L)
}

func (cfg Config) bonds(v []float64) []complex64 {
	return toComplex(v, cfg.L-1)
}

func toComplex(v []float64, n int) []complex64 {
	if v == nil {
		return make([]complex64, n)
	}
	c := make([]complex64, 0, len(v))
	for _, x := range v {
		c = append(c, complex(float32(x), 0))
	}
	return c
}

// Build builds the MPO of the configured operator.
func Build(cfg Config) (*mps.MPO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	offset := complex(float32(cfg.Offset), 0)
	switch cfg.Model {
	case ModelIsing:
		m, err := mps.NewIsing(cfg.L, cfg.bonds(cfg.J), cfg.sites(cfg.G), cfg.sites(cfg.H), offset)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return m.MPO(), nil
	case ModelHeisenberg:
		m, err := mps.NewHeisenberg(cfg.L, cfg.bonds(cfg.Jx), cfg.bonds(cfg.Jy), cfg.bonds(cfg.Jz), cfg.sites(cfg.G), cfg.sites(cfg.H), offset)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return m.MPO(), nil
	case ModelSum:
		p, _ := mps.ParsePauli(cfg.Pauli)
		mpo, err := mps.SumPauli(cfg.L, p)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return mpo, nil
	default:
		p, _ := mps.ParsePauli(cfg.Pauli)
		mpo, err := mps.SumPauli2(cfg.L, p)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return mpo, nil
	}
}

// Exact builds the configured operator term by term into m, using buf as scratch space.
// m and buf must be of the same type.
// The squared sums are computed in memory before being added to m.
func Exact(cfg Config, m, buf mat.Matrix) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "")
	}
	offset := complex(float32(cfg.Offset), 0)
	p, _ := mps.ParsePauli(cfg.Pauli)
	switch cfg.Model {
	case ModelIsing:
		exactdiag.Ising(m, buf, cfg.L, cfg.bonds(cfg.J), cfg.sites(cfg.G), cfg.sites(cfg.H), offset)
	case ModelHeisenberg:
		exactdiag.Heisenberg(m, buf, cfg.L, cfg.bonds(cfg.Jx), cfg.bonds(cfg.Jy), cfg.bonds(cfg.Jz), cfg.sites(cfg.G), cfg.sites(cfg.H), offset)
	case ModelSum:
		exactdiag.SumPauli(m, buf, cfg.L, mps.PauliMatrix(p))
	default:
		m.Zeros(1<<cfg.L, 1<<cfg.L)
		m.Add(1, exactdiag.SumPauli2(cfg.L, mps.PauliMatrix(p)))
	}
	return nil
}

// ExactExplicit writes the configured Ising Hamiltonian row by row to dir, and reads it back.
func ExactExplicit(cfg Config, dir string) (*mat.COO, error) {
	if cfg.Model != ModelIsing {
		return nil, errors.Wrapf(mps.ErrConfig, "explicit construction of %q", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	offset := complex(float32(cfg.Offset), 0)
	if err := exactdiag.IsingExplicit(dir, cfg.L, cfg.bonds(cfg.J), cfg.sites(cfg.G), cfg.sites(cfg.H), offset); err != nil {
		return nil, errors.Wrap(err, "")
	}
	m, err := mat.ReadCOO(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return m, nil
}

// Verify checks that the contraction of mpo equals exact and is Hermitian, up to tol.
func Verify(mpo *mps.MPO, exact mat.Matrix, tol float64) error {
	dense := mat.M(mps.Dense(mpo))
	if !mat.AllClose(dense, exact, tol) {
		return errors.Errorf("contraction differs from exact operator\n%s\nexpected\n%s", dense, exact.COO())
	}
	if !dense.AllClose(dense.H(), tol) {
		return errors.Errorf("not hermitian\n%s", dense)
	}
	return nil
}

// Spectrum returns the eigenvalues of the contraction of mpo in ascending order.
func Spectrum(mpo *mps.MPO, tol float64) ([]float64, error) {
	vals, err := mat.M(mps.Dense(mpo)).Spectrum(tol)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return vals, nil
}

// WriteDense writes the contraction of mpo in COO format to dir.
func WriteDense(dir string, mpo *mps.MPO) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	if err := mat.M(mps.Dense(mpo)).WriteCOO(dir); err != nil {
		return errors.Wrap(err, filepath.Base(dir))
	}
	return nil
}
