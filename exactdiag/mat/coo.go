package mat

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math/cmplx"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A matrix in COO format is a directory with two CSV files.
// FnameShape holds "rows,cols", and FnameCOO holds one "value,row,col" line per nonzero entry in row major order.
// A value or row equal to that of the previous line may be left empty.
const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

// COOWriter writes a matrix in COO format entry by entry, leaving repeated values and rows empty.
type COOWriter struct {
	f    *os.File
	w    *csv.Writer
	prev Entry
}

// NewCOOWriter writes the shape of a rows x cols matrix to dir, and opens its entries file.
func NewCOOWriter(dir string, rows, cols int) (*COOWriter, error) {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", rows, cols)), 0644); err != nil {
		return nil, errors.Wrap(err, "")
	}
	f, err := os.Create(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	w := &COOWriter{f: f, w: csv.NewWriter(f)}
	w.prev = Entry{Row: -1, Col: -1, V: complex64(cmplx.NaN())}
	return w, nil
}

// Write writes e, which must come after the previously written entry in row major order.
func (w *COOWriter) Write(e Entry) error {
	if rowMajor(w.prev, e) >= 0 && w.prev.Row >= 0 {
		return errors.Errorf("%#v after %#v", e, w.prev)
	}
	var vStr, rowStr string
	if e.V != w.prev.V {
		vStr = FormatNumpy(e.V)
	}
	if e.Row != w.prev.Row {
		rowStr = strconv.Itoa(e.Row)
	}
	if err := w.w.Write([]string{vStr, rowStr, strconv.Itoa(e.Col)}); err != nil {
		return errors.Wrap(err, "")
	}
	w.prev = e
	return nil
}

// Close flushes the entries and closes the file.
func (w *COOWriter) Close() error {
	var err error
	w.w.Flush()
	if err1 := w.w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := w.f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func writeCOO(dir string, rows, cols int, entries iter.Seq[Entry]) error {
	w, err := NewCOOWriter(dir, rows, cols)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for e := range entries {
		if err1 := w.Write(e); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	if err1 := w.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// ReadCOO reads a matrix in COO format from dir.
func ReadCOO(dir string) (*COO, error) {
	rows, cols, err := readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	f, err := os.Open(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()

	m := COOZeros(rows, cols)
	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		var prev Entry
		if n := len(m.entries); n > 0 {
			prev = m.entries[n-1]
		}
		e, err := parseEntry(record, prev)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("line %d", i))
		}
		if e.Row >= rows || e.Col >= cols || (len(m.entries) > 0 && rowMajor(prev, e) >= 0) {
			return nil, errors.Errorf("line %d %#v", i, e)
		}
		m.entries = append(m.entries, e)
	}
	return m, nil
}

func parseEntry(record []string, prev Entry) (Entry, error) {
	e := prev
	if record[0] != "" {
		v, err := strconv.ParseComplex(strings.ReplaceAll(record[0], "j", "i"), 64)
		if err != nil {
			return Entry{}, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		e.V = complex64(v)
	}
	if record[1] != "" {
		row, err := strconv.Atoi(record[1])
		if err != nil {
			return Entry{}, errors.Wrap(err, fmt.Sprintf("%#v", record))
		}
		e.Row = row
	}
	col, err := strconv.Atoi(record[2])
	if err != nil {
		return Entry{}, errors.Wrap(err, fmt.Sprintf("%#v", record))
	}
	e.Col = col
	return e, nil
}

func readShape(dir string) (int, int, error) {
	b, err := os.ReadFile(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	rowsStr, colsStr, ok := strings.Cut(strings.TrimSpace(string(b)), ",")
	if !ok {
		return -1, -1, errors.Errorf("%q", b)
	}
	rows, err := strconv.Atoi(rowsStr)
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	cols, err := strconv.Atoi(colsStr)
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	return rows, cols, nil
}
