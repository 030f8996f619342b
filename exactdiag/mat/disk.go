package mat

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableMatrix = "m"
	tableKron   = "kron"

	shortTimeout = 3 * time.Second
	longTimeout  = 48 * time.Hour
)

// DiskMatrix is a sparse matrix stored in a sqlite database.
// It trades speed for memory, and is used to build operators of chains too long for a COO held in memory.
// Add and Kron run in a single transaction each, so that an interrupted term leaves the previous sum intact.
type DiskMatrix struct {
	Path string
	rows int
	cols int

	db *sql.DB
}

// NewDiskMatrix creates an empty rows x cols matrix stored at dbPath.
func NewDiskMatrix(dbPath string, rows, cols int) (*DiskMatrix, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()
	if err := createTable(ctx, db, tableMatrix); err != nil {
		db.Close()
		return nil, errors.Wrap(err, dbPath)
	}
	return &DiskMatrix{Path: dbPath, rows: rows, cols: cols, db: db}, nil
}

// Close closes the database and removes its file.
func (m *DiskMatrix) Close() error {
	var err error
	if err1 := m.db.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := os.Remove(m.Path); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func (m *DiskMatrix) Rows() int { return m.rows }
func (m *DiskMatrix) Cols() int { return m.cols }

func (m *DiskMatrix) Zeros(rows, cols int) {
	if err := m.reset(rows, cols, 0); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

func (m *DiskMatrix) Scalar(v complex64) {
	if err := m.reset(1, 1, v); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

// reset empties m, and sets its element at (0, 0) to v.
func (m *DiskMatrix) reset(rows, cols int, v complex64) error {
	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, tableMatrix)); err != nil {
		return errors.Wrap(err, "")
	}
	if v != 0 {
		sqlStr := fmt.Sprintf(`INSERT INTO %s (i, j, re, im) VALUES (0, 0, ?, ?)`, tableMatrix)
		if _, err := tx.ExecContext(ctx, sqlStr, real(v), imag(v)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	m.rows, m.cols = rows, cols
	return nil
}

func (m *DiskMatrix) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if err := m.scan(yield); err != nil {
			panic(fmt.Sprintf("%+v", err))
		}
	}
}

// scan calls fn on each entry in row major order, until fn returns false.
func (m *DiskMatrix) scan(fn func(Entry) bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), longTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT i, j, re, im FROM %s ORDER BY i, j`, tableMatrix)
	rows, err := m.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var re, im float32
		if err := rows.Scan(&e.Row, &e.Col, &re, &im); err != nil {
			return errors.Wrap(err, "")
		}
		e.V = complex(re, im)
		if !fn(e) {
			return nil
		}
	}
	return errors.Wrap(rows.Err(), "")
}

func (m *DiskMatrix) COO() *COO {
	c := COOZeros(m.rows, m.cols)
	for e := range m.All() {
		c.entries = append(c.entries, e)
	}
	return c
}

// Add performs a = a + c*b.
// b must not be a.
func (a *DiskMatrix) Add(c complex64, b Matrix) {
	if err := a.add(c, b); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

func (a *DiskMatrix) add(c complex64, b Matrix) error {
	if a.rows != b.Rows() || a.cols != b.Cols() {
		return errors.Errorf("%d %d %d %d", a.rows, a.cols, b.Rows(), b.Cols())
	}
	ctx, cancel := context.WithTimeout(context.Background(), longTimeout)
	defer cancel()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	sqlStr := fmt.Sprintf(`INSERT INTO %s (i, j, re, im) VALUES (?, ?, ?, ?)
		ON CONFLICT (i, j) DO UPDATE SET re = re + excluded.re, im = im + excluded.im`, tableMatrix)
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer stmt.Close()
	for e := range b.All() {
		v := c * e.V
		if _, err := stmt.ExecContext(ctx, e.Row, e.Col, real(v), imag(v)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", e))
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE re = 0 AND im = 0`, tableMatrix)); err != nil {
		return errors.Wrap(err, "")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Kron replaces a with the Kronecker product of a and b.
// Each entry of b contributes one block, computed in SQL without reading a into memory.
func (a *DiskMatrix) Kron(b *COO) {
	if err := a.kron(b); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

func (a *DiskMatrix) kron(b *COO) error {
	ctx, cancel := context.WithTimeout(context.Background(), longTimeout)
	defer cancel()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	if err := createTable(ctx, tx, tableKron); err != nil {
		return errors.Wrap(err, "")
	}
	// (re + i im) * (bRe + i bIm)
	sqlStr := fmt.Sprintf(`INSERT INTO %s (i, j, re, im)
		SELECT i*? + ?, j*? + ?, re*? - im*?, re*? + im*? FROM %s`, tableKron, tableMatrix)
	for _, e := range b.entries {
		bRe, bIm := real(e.V), imag(e.V)
		if _, err := tx.ExecContext(ctx, sqlStr, b.rows, e.Row, b.cols, e.Col, bRe, bIm, bIm, bRe); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", e))
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE %s`, tableMatrix)); err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, tableKron, tableMatrix)); err != nil {
		return errors.Wrap(err, "")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	a.rows, a.cols = a.rows*b.rows, a.cols*b.cols
	return nil
}

func (m *DiskMatrix) WriteCOO(dir string) error {
	return writeCOO(dir, m.rows, m.cols, m.All())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createTable(ctx context.Context, db execer, name string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr := fmt.Sprintf(`CREATE TABLE %s (i INTEGER, j INTEGER, re REAL, im REAL, PRIMARY KEY (i, j)) STRICT`, name)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
