package attset

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Type is the value type of an attribute
type Type int

const (
	Nominal Type = 1 << iota
	Integer
	Real
)

// Numeric reports whether values of the type are numbers
func (t Type) Numeric() bool { return t == Integer || t == Real }

func (t Type) String() string {
	switch t {
	case Nominal:
		return "nominal"
	case Integer:
		return "integer"
	case Real:
		return "real"
	}
	return "unknown"
}

// Direction is the role of an attribute in a classification problem
type Direction int

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirID
	DirWeight
)

var dirNames = []string{"none", "in", "out", "id", "wgt"}

func (d Direction) String() string {
	if d < DirNone || d > DirWeight {
		return "unknown"
	}
	return dirNames[d]
}

// Null sentinels of the three attribute types
const (
	NullNominal = -1
	NullInteger = math.MinInt32
	NullReal    = -math.MaxFloat32
)

// ErrValue is the cause of errors about field values that cannot be
// converted to the attribute's type.
var ErrValue = errors.New("invalid value")

// Value holds one attribute instantiation. Nominal and integer
// attributes use I (the value index for nominal ones), real attributes
// use F.
type Value struct {
	I int
	F float64
}

// NullValue returns the null instantiation for type t
func NullValue(t Type) Value {
	switch t {
	case Integer:
		return Value{I: NullInteger}
	case Real:
		return Value{F: NullReal}
	}
	return Value{I: NullNominal}
}

// IsNull reports whether v is the null value of type t
func IsNull(t Type, v Value) bool {
	switch t {
	case Integer:
		return v.I <= NullInteger
	case Real:
		return v.F <= NullReal
	}
	return v.I < 0
}

// Float returns the numeric value of v for a numeric type
func Float(t Type, v Value) float64 {
	if t == Integer {
		return float64(v.I)
	}
	return v.F
}

// Attribute describes one column of a table: its domain, its role and
// its current instantiation.
type Attribute struct {
	name   string
	typ    Type
	dir    Direction
	mark   int
	id     int
	vals   []string
	index  map[string]int
	min    float64
	max    float64
	inst   Value
	width  int
	weight float64
}

// NewAttribute creates an attribute with an empty domain
func NewAttribute(name string, t Type) *Attribute {
	a := &Attribute{
		name:   name,
		typ:    t,
		dir:    DirIn,
		id:     -1,
		index:  make(map[string]int),
		weight: 1,
	}
	a.resetRange()
	a.inst = NullValue(t)
	return a
}

func (a *Attribute) resetRange() {
	a.min = math.Inf(1)
	a.max = math.Inf(-1)
}

func (a *Attribute) Name() string           { return a.name }
func (a *Attribute) Type() Type             { return a.typ }
func (a *Attribute) ID() int                { return a.id }
func (a *Attribute) Dir() Direction         { return a.dir }
func (a *Attribute) SetDir(d Direction)     { a.dir = d }
func (a *Attribute) Mark() int              { return a.mark }
func (a *Attribute) SetMark(m int)          { a.mark = m }
func (a *Attribute) Weight() float64        { return a.weight }
func (a *Attribute) Inst() Value            { return a.inst }
func (a *Attribute) SetInst(v Value)        { a.inst = v }
func (a *Attribute) ValueCount() int        { return len(a.vals) }
func (a *Attribute) ValueName(i int) string { return a.vals[i] }

// Range returns the smallest and largest numeric value seen. ok is
// false when no value has been recorded yet.
func (a *Attribute) Range() (min, max float64, ok bool) {
	return a.min, a.max, a.min <= a.max
}

// ValueIndex returns the index of a nominal value or -1
func (a *Attribute) ValueIndex(name string) int {
	if i, ok := a.index[name]; ok {
		return i
	}
	return -1
}

// AddValue adds a nominal value and returns its index. Adding an
// existing value returns the existing index.
func (a *Attribute) AddValue(name string) int {
	if i, ok := a.index[name]; ok {
		return i
	}
	a.vals = append(a.vals, name)
	a.index[name] = len(a.vals) - 1
	if n := utf8.RuneCountInString(name); n > a.width {
		a.width = n
	}
	return len(a.vals) - 1
}

func (a *Attribute) extendRange(f float64) {
	if f < a.min {
		a.min = f
	}
	if f > a.max {
		a.max = f
	}
}

// Parse converts the text of a field into a value. New nominal values
// are added to the domain if extend is set and map to null otherwise.
func (a *Attribute) Parse(text string, extend bool) (Value, error) {
	switch a.typ {
	case Integer:
		i, err := strconv.Atoi(text)
		if err != nil || i <= NullInteger {
			return NullValue(Integer), errors.Wrapf(ErrValue, "%q is not an integer", text)
		}
		if extend {
			a.extendRange(float64(i))
		}
		return Value{I: i}, nil
	case Real:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || f <= NullReal || f > math.MaxFloat32 {
			return NullValue(Real), errors.Wrapf(ErrValue, "%q is not a real number", text)
		}
		if extend {
			a.extendRange(f)
		}
		return Value{F: f}, nil
	}
	if extend {
		return Value{I: a.AddValue(text)}, nil
	}
	return Value{I: a.ValueIndex(text)}, nil
}

// SetValue parses text into the current instantiation
func (a *Attribute) SetValue(text string, extend bool) error {
	v, err := a.Parse(text, extend)
	if err != nil {
		return err
	}
	a.inst = v
	return nil
}

// SetNull sets the current instantiation to null
func (a *Attribute) SetNull() { a.inst = NullValue(a.typ) }

// Format returns the text of a value, or null for a null value
func (a *Attribute) Format(v Value, null string) string {
	if IsNull(a.typ, v) {
		return null
	}
	switch a.typ {
	case Integer:
		return strconv.Itoa(v.I)
	case Real:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	}
	if v.I >= len(a.vals) {
		return null
	}
	return a.vals[v.I]
}

// Width returns the width of the widest nominal value name
func (a *Attribute) Width() int { return a.width }

// Clone returns a deep copy that does not belong to any set
func (a *Attribute) Clone() *Attribute {
	c := *a
	c.id = -1
	c.vals = append([]string(nil), a.vals...)
	c.index = make(map[string]int, len(a.index))
	for k, v := range a.index {
		c.index[k] = v
	}
	return &c
}
