package attset

// Tuple is a stored instantiation of the attributes of a set
type Tuple struct {
	vals   []Value
	weight float64
}

var _ Instance = (*Tuple)(nil)

// NewTuple creates a tuple from explicit values
func NewTuple(vals []Value, weight float64) *Tuple {
	return &Tuple{vals: append([]Value(nil), vals...), weight: weight}
}

// Value returns the value of column attID
func (t *Tuple) Value(attID int) Value { return t.vals[attID] }

// Weight returns the tuple weight
func (t *Tuple) Weight() float64 { return t.weight }

// SetWeight sets the tuple weight
func (t *Tuple) SetWeight(w float64) { t.weight = w }

// Len returns the number of columns
func (t *Tuple) Len() int { return len(t.vals) }

// Table is a list of tuples over one attribute set
type Table struct {
	name   string
	set    *AttSet
	tuples []*Tuple
}

// NewTable creates an empty table over set
func NewTable(name string, set *AttSet) *Table {
	return &Table{name: name, set: set}
}

func (t *Table) Name() string       { return t.name }
func (t *Table) AttSet() *AttSet     { return t.set }
func (t *Table) Count() int         { return len(t.tuples) }
func (t *Table) Tuple(i int) *Tuple { return t.tuples[i] }

// Add appends a tuple
func (t *Table) Add(tpl *Tuple) { t.tuples = append(t.tuples, tpl) }

// Weight returns the sum of the tuple weights
func (t *Table) Weight() float64 {
	var w float64
	for _, tpl := range t.tuples {
		w += tpl.weight
	}
	return w
}
