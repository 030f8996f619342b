package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fumin/spinmpo"
	"github.com/fumin/spinmpo/exactdiag/mat"
	"github.com/fumin/spinmpo/mps"
)

const (
	dirnameDense    = "mpo"
	dirnameExact    = "exact"
	fnameDiskMatrix = "m.db"
	fnameDiskBuf    = "buf.db"

	// maxDenseL is the longest chain whose contraction is written out.
	maxDenseL = 12
)

var (
	configPath = flag.String("c", "", "model configuration in YAML")
	runDir     = flag.String("d", filepath.Join("runs", "spinmpo"), "run directory")
	verify     = flag.Bool("verify", true, "verify the MPO against the exact operator")
	useDisk    = flag.Bool("db", false, "build the exact operator in a sqlite database instead of memory")
	explicit   = flag.Bool("explicit", false, "build the exact Ising Hamiltonian row by row")
	spectrum   = flag.Int("spectrum", 4, "number of lowest eigenvalues to log, 0 to skip diagonalization")
	tol        = flag.Float64("tol", 1e-5, "verification tolerance")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if *configPath == "" {
		return errors.Errorf("missing -c")
	}
	cfg, err := spinmpo.ReadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	mpo, err := spinmpo.Build(cfg)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%#v", cfg))
	}
	for i, w := range mpo.Sites() {
		log.Printf("site %d %v", i, w.Shape())
	}

	if cfg.L > maxDenseL {
		log.Printf("skip dense output and verification, l %d > %d", cfg.L, maxDenseL)
		return nil
	}
	if err := spinmpo.WriteDense(filepath.Join(*runDir, dirnameDense), mpo); err != nil {
		return errors.Wrap(err, "")
	}

	if *spectrum > 0 {
		vals, err := spinmpo.Spectrum(mpo, *tol)
		if err != nil {
			return errors.Wrap(err, "")
		}
		log.Printf("lowest eigenvalues %v", vals[:min(*spectrum, len(vals))])
	}

	if !*verify {
		return nil
	}
	if err := verifyExact(cfg, mpo); err != nil {
		return errors.Wrap(err, "")
	}
	log.Printf("verified %s l %d", cfg.Model, cfg.L)
	return nil
}

func verifyExact(cfg spinmpo.Config, mpo *mps.MPO) error {
	switch {
	case *explicit:
		dir := filepath.Join(*runDir, dirnameExact)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrap(err, "")
		}
		exact, err := spinmpo.ExactExplicit(cfg, dir)
		if err != nil {
			return errors.Wrap(err, "")
		}
		return spinmpo.Verify(mpo, exact, *tol)
	case *useDisk:
		return verifyDisk(cfg, mpo)
	default:
		m, buf := mat.M([][]complex64{{0}}), mat.M([][]complex64{{0}})
		if err := spinmpo.Exact(cfg, m, buf); err != nil {
			return errors.Wrap(err, "")
		}
		return spinmpo.Verify(mpo, m, *tol)
	}
}

func verifyDisk(cfg spinmpo.Config, mpo *mps.MPO) error {
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer os.RemoveAll(dir)

	m, err := mat.NewDiskMatrix(filepath.Join(dir, fnameDiskMatrix), 1, 1)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer m.Close()
	buf, err := mat.NewDiskMatrix(filepath.Join(dir, fnameDiskBuf), 1, 1)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer buf.Close()

	if err := spinmpo.Exact(cfg, m, buf); err != nil {
		return errors.Wrap(err, "")
	}
	return spinmpo.Verify(mpo, m, *tol)
}
