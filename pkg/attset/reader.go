package attset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Errors reported by the table reader
var (
	ErrFieldCount   = errors.New("wrong number of fields")
	ErrEmptyField   = errors.New("empty field name")
	ErrDuplicateFld = errors.New("duplicate field name")
	ErrMissingField = errors.New("missing field")
)

// Format describes the lexical layout of a table file
type Format struct {
	Blanks        string // characters trimmed around fields
	FieldSeps     string // field separators
	NullChars     string // characters that denote a null value
	CommentChars  string // a record starting with one of these is skipped
	Weights       bool   // the last field holds the tuple weight
	DefaultHeader bool   // no header record, fields are named 1, 2, ...
}

// DefaultFormat returns the usual whitespace/comma separated layout
func DefaultFormat() Format {
	return Format{
		Blanks:       " \t\r",
		FieldSeps:    " \t,",
		NullChars:    "?",
		CommentChars: "#",
	}
}

func (f Format) isBlank(r rune) bool { return strings.ContainsRune(f.Blanks, r) }
func (f Format) isSep(r rune) bool   { return strings.ContainsRune(f.FieldSeps, r) }

// Split breaks a record into trimmed fields. Runs of blank separators
// count once. Other separators always end a field, so empty fields can
// only appear around them.
func (f Format) Split(line string) []string {
	rs := []rune(line)
	n := len(rs)
	var fields []string
	hard := false
	i := 0
	for {
		for i < n && f.isBlank(rs[i]) {
			i++
		}
		if i >= n {
			if hard {
				fields = append(fields, "")
			}
			return fields
		}
		start := i
		for i < n && !f.isSep(rs[i]) {
			i++
		}
		end := i
		for end > start && f.isBlank(rs[end-1]) {
			end--
		}
		fields = append(fields, string(rs[start:end]))
		for i < n && f.isBlank(rs[i]) {
			i++
		}
		hard = i < n && f.isSep(rs[i]) && !f.isBlank(rs[i])
		if hard {
			i++
		}
		if i >= n && !hard {
			return fields
		}
	}
}

// IsNull reports whether a field denotes a null value
func (f Format) IsNull(field string) bool {
	if field == "" {
		return true
	}
	for _, r := range field {
		if !strings.ContainsRune(f.NullChars, r) {
			return false
		}
	}
	return true
}

// ReadError locates a table read failure
type ReadError struct {
	File  string
	Line  int
	Field int
	Kind  error
	Value string
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("%s:%d", e.File, e.Line)
	if e.Field > 0 {
		msg += fmt.Sprintf(" (field %d)", e.Field)
	}
	msg += ": " + e.Kind.Error()
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	return msg
}

// Cause returns the error kind
func (e *ReadError) Cause() error { return e.Kind }

// Unwrap returns the error kind
func (e *ReadError) Unwrap() error { return e.Kind }

// ReadMode selects how records are mapped onto the attribute set
type ReadMode int

const (
	// ReadMarked reads only attributes with a non-negative mark. A mark
	// of 0 makes the attribute optional: if its column is missing the
	// mark is set to -1.
	ReadMarked ReadMode = 1 << iota
	// ReadNoExtend maps unknown nominal values to null instead of
	// adding them to the domain.
	ReadNoExtend
)

// Reader reads a table file record by record into the instantiation of
// an attribute set.
type Reader struct {
	set     *AttSet
	name    string
	in      *bufio.Reader
	format  Format
	mode    ReadMode
	fields  []int
	line    int
	pending []string
}

// NewReader creates a table reader. ReadHeader must be called before
// the first record is read.
func NewReader(r io.Reader, name string, set *AttSet, f Format, mode ReadMode) *Reader {
	return &Reader{set: set, name: name, in: bufio.NewReader(r), format: f, mode: mode}
}

// Fields returns the attribute id of every field in read order; -1
// marks a skipped field.
func (r *Reader) Fields() []int { return r.fields }

// Line returns the number of the last line read
func (r *Reader) Line() int { return r.line }

func (r *Reader) fail(kind error, field int, value string) error {
	return &ReadError{File: r.name, Line: r.line, Field: field, Kind: kind, Value: value}
}

func (r *Reader) record() ([]string, error) {
	for {
		text, err := r.in.ReadString('\n')
		if text == "" && err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, errors.Wrapf(err, "failed to read %s", r.name)
		}
		r.line++
		text = strings.TrimRight(text, "\n")
		if first := []rune(strings.TrimLeft(text, r.format.Blanks)); len(first) > 0 &&
			strings.ContainsRune(r.format.CommentChars, first[0]) {
			continue
		}
		if fields := r.format.Split(text); len(fields) > 0 {
			return fields, nil
		}
	}
}

// ReadHeader reads the field names and maps them onto attributes.
// Unknown field names are skipped.
func (r *Reader) ReadHeader() error {
	names, err := r.record()
	if err != nil {
		return err
	}
	if names == nil {
		return r.fail(io.ErrUnexpectedEOF, 0, "")
	}
	if r.format.DefaultHeader {
		// the first record holds data, keep it for Read
		r.pending = names
	}
	if r.format.Weights {
		names = names[:len(names)-1]
	}
	if r.format.DefaultHeader {
		defaults := make([]string, len(names))
		for i := range names {
			defaults[i] = strconv.Itoa(i + 1)
		}
		names = defaults
	}

	seen := make(map[int]bool)
	r.fields = make([]int, len(names))
	for i, name := range names {
		if name == "" {
			return r.fail(ErrEmptyField, i+1, "")
		}
		id := r.set.Index(name)
		if id >= 0 && seen[id] {
			return r.fail(ErrDuplicateFld, i+1, name)
		}
		if id >= 0 {
			seen[id] = true
			if r.mode&ReadMarked != 0 && r.set.Attr(id).mark < 0 {
				id = -1
			}
		}
		r.fields[i] = id
	}
	for i := 0; i < r.set.Count(); i++ {
		a := r.set.Attr(i)
		if seen[i] {
			continue
		}
		if r.mode&ReadMarked == 0 || a.mark > 0 {
			return r.fail(ErrMissingField, 0, a.name)
		}
		if a.mark == 0 {
			a.mark = -1
		}
	}
	return nil
}

// Read reads the next record into the attribute set's instantiation.
// It returns false at the end of the table.
func (r *Reader) Read() (bool, error) {
	fields := r.pending
	r.pending = nil
	if fields == nil {
		var err error
		if fields, err = r.record(); err != nil {
			return false, err
		}
		if fields == nil {
			return false, nil
		}
	}
	want := len(r.fields)
	if r.format.Weights {
		want++
	}
	if len(fields) != want {
		return false, r.fail(ErrFieldCount, len(fields), fmt.Sprintf("expected %d", want))
	}
	for i, id := range r.fields {
		if id < 0 {
			continue
		}
		a := r.set.Attr(id)
		if r.format.IsNull(fields[i]) {
			a.SetNull()
			continue
		}
		if err := a.SetValue(fields[i], r.mode&ReadNoExtend == 0); err != nil {
			return false, r.fail(ErrValue, i+1, fields[i])
		}
	}
	r.set.weight = 1
	if r.format.Weights {
		text := fields[len(fields)-1]
		w, err := strconv.ParseFloat(text, 64)
		if err != nil || w < 0 {
			return false, r.fail(ErrValue, len(fields), text)
		}
		r.set.weight = w
	}
	return true, nil
}

// ReadTable reads all remaining records into a table
func (r *Reader) ReadTable(name string) (*Table, error) {
	tab := NewTable(name, r.set)
	for {
		ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tab, nil
		}
		tab.Add(r.set.Snapshot())
	}
}
