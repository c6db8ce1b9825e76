package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// ErrFormat indicates a record that does not describe a valid object.
var ErrFormat = errors.New("dataset: malformed record")

// Separator is the field separator of every data file.
const Separator = ';'

// lintimReader reads ';'-separated records with '#' comment lines and no
// header. The column names are injected as a first record so gocsv can
// bind fields by their csv tags; trailing optional columns may be omitted.
type lintimReader struct {
	r      *csv.Reader
	header []string
	sent   bool
}

func newReader(in io.Reader, header []string) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = Separator
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	return &lintimReader{r: r, header: header}
}

func (l *lintimReader) Read() ([]string, error) {
	if !l.sent {
		l.sent = true
		return l.header, nil
	}
	rec, err := l.r.Read()
	if err != nil {
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.Trim(strings.TrimSpace(rec[i]), "\"")
	}

	return rec, nil
}

func (l *lintimReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := l.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// read decodes every record of in into rows.
func read[T any](in io.Reader, header []string, file string) ([]T, error) {
	var rows []T
	if err := gocsv.UnmarshalCSV(newReader(in, header), &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, file, err)
	}

	return rows, nil
}

// write emits a comment line with the column names followed by rows.
func write[T any](out io.Writer, header []string, rows []T) error {
	if _, err := fmt.Fprintf(out, "# %s\n", strings.Join(header, "; ")); err != nil {
		return err
	}
	cw := csv.NewWriter(out)
	cw.Comma = Separator
	if err := gocsv.MarshalCSVWithoutHeaders(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return err
	}
	cw.Flush()

	return cw.Error()
}
