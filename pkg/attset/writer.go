package attset

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Writer writes the instantiation of selected attributes as table
// records, optionally followed by extra columns.
type Writer struct {
	out     *bufio.Writer
	set     *AttSet
	cols    []int
	sep     string
	null    string
	weights bool
	align   bool
	rows    [][]string
}

// NewWriter creates a table writer for the attributes cols (in that
// order; negative ids are skipped). With align set, records are
// buffered until Flush so that every column can be padded to its
// widest entry.
func NewWriter(w io.Writer, set *AttSet, cols []int, f Format, align bool) *Writer {
	sep := " "
	if f.FieldSeps != "" && !strings.ContainsRune(f.FieldSeps, ' ') {
		sep = string([]rune(f.FieldSeps)[0])
	}
	null := "?"
	if f.NullChars != "" {
		null = string([]rune(f.NullChars)[0])
	}
	kept := make([]int, 0, len(cols))
	for _, id := range cols {
		if id >= 0 {
			kept = append(kept, id)
		}
	}
	return &Writer{out: bufio.NewWriter(w), set: set, cols: kept, sep: sep, null: null, weights: f.Weights, align: align}
}

// WriteHeader writes the attribute names followed by extra names
func (w *Writer) WriteHeader(extra ...string) error {
	row := make([]string, 0, len(w.cols)+len(extra)+1)
	for _, id := range w.cols {
		row = append(row, w.set.Attr(id).Name())
	}
	row = append(row, extra...)
	if w.weights {
		row = append(row, "#")
	}
	return w.emit(row)
}

// WriteRecord writes the current instantiation followed by extra fields
func (w *Writer) WriteRecord(extra ...string) error {
	row := make([]string, 0, len(w.cols)+len(extra)+1)
	for _, id := range w.cols {
		a := w.set.Attr(id)
		row = append(row, a.Format(a.Inst(), w.null))
	}
	row = append(row, extra...)
	if w.weights {
		row = append(row, strconv.FormatFloat(w.set.Weight(), 'g', -1, 64))
	}
	return w.emit(row)
}

func (w *Writer) emit(row []string) error {
	if w.align {
		w.rows = append(w.rows, row)
		return nil
	}
	return w.line(row, nil)
}

func (w *Writer) line(row []string, widths []int) error {
	for i, f := range row {
		if i > 0 {
			w.out.WriteString(w.sep)
		}
		w.out.WriteString(f)
		if widths != nil && i < len(row)-1 {
			for k := utf8.RuneCountInString(f); k < widths[i]; k++ {
				w.out.WriteByte(' ')
			}
		}
	}
	_, err := w.out.WriteString("\n")
	return err
}

// Flush writes buffered records and flushes the output
func (w *Writer) Flush() error {
	if w.align {
		var widths []int
		for _, row := range w.rows {
			for i, f := range row {
				if i >= len(widths) {
					widths = append(widths, 0)
				}
				if n := utf8.RuneCountInString(f); n > widths[i] {
					widths[i] = n
				}
			}
		}
		for _, row := range w.rows {
			if err := w.line(row, widths); err != nil {
				return err
			}
		}
		w.rows = nil
	}
	return w.out.Flush()
}
