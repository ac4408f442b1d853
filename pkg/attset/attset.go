package attset

import (
	"github.com/pkg/errors"
)

// ErrDuplicateAttribute is returned when a set already holds an
// attribute of the same name.
var ErrDuplicateAttribute = errors.New("duplicate attribute")

// Instance gives access to one instantiation of the attributes of a
// set together with its weight.
type Instance interface {
	Value(attID int) Value
	Weight() float64
}

// AttSet is an ordered set of attributes. Its attributes' current
// values form the set's own instantiation.
type AttSet struct {
	name   string
	atts   []*Attribute
	index  map[string]int
	weight float64
}

var _ Instance = (*AttSet)(nil)

// New creates an empty attribute set
func New(name string) *AttSet {
	return &AttSet{name: name, index: make(map[string]int), weight: 1}
}

func (s *AttSet) Name() string         { return s.name }
func (s *AttSet) Count() int           { return len(s.atts) }
func (s *AttSet) Attr(i int) *Attribute { return s.atts[i] }

// Weight returns the weight of the current instantiation
func (s *AttSet) Weight() float64 { return s.weight }

// SetWeight sets the weight of the current instantiation
func (s *AttSet) SetWeight(w float64) { s.weight = w }

// Value returns the current value of an attribute
func (s *AttSet) Value(attID int) Value { return s.atts[attID].inst }

// Index returns the id of the named attribute or -1
func (s *AttSet) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Lookup returns the named attribute or nil
func (s *AttSet) Lookup(name string) *Attribute {
	if i, ok := s.index[name]; ok {
		return s.atts[i]
	}
	return nil
}

// Add appends an attribute to the set
func (s *AttSet) Add(a *Attribute) error {
	if _, ok := s.index[a.name]; ok {
		return errors.Wrapf(ErrDuplicateAttribute, "attribute %s", a.name)
	}
	a.id = len(s.atts)
	s.atts = append(s.atts, a)
	s.index[a.name] = a.id
	return nil
}

// SetMarks sets the mark of every attribute
func (s *AttSet) SetMarks(m int) {
	for _, a := range s.atts {
		a.mark = m
	}
}

// CutUnmarked removes all attributes with a negative mark and
// renumbers the remaining ones.
func (s *AttSet) CutUnmarked() {
	kept := s.atts[:0]
	for _, a := range s.atts {
		if a.mark >= 0 {
			kept = append(kept, a)
		} else {
			a.id = -1
		}
	}
	for i := len(kept); i < len(s.atts); i++ {
		s.atts[i] = nil
	}
	s.atts = kept
	s.index = make(map[string]int, len(kept))
	for i, a := range kept {
		a.id = i
		s.index[a.name] = i
	}
}

// Clear removes all attributes
func (s *AttSet) Clear() {
	for _, a := range s.atts {
		a.id = -1
	}
	s.atts = nil
	s.index = make(map[string]int)
}

// Snapshot copies the current instantiation into a tuple
func (s *AttSet) Snapshot() *Tuple {
	vals := make([]Value, len(s.atts))
	for i, a := range s.atts {
		vals[i] = a.inst
	}
	return &Tuple{vals: vals, weight: s.weight}
}

// Load sets the current instantiation from an instance
func (s *AttSet) Load(inst Instance) {
	for i, a := range s.atts {
		a.inst = inst.Value(i)
	}
	s.weight = inst.Weight()
}

// Clone returns a deep copy of the set
func (s *AttSet) Clone() *AttSet {
	c := New(s.name)
	c.weight = s.weight
	for _, a := range s.atts {
		// names are unique in s, Add cannot fail
		_ = c.Add(a.Clone())
	}
	return c
}
