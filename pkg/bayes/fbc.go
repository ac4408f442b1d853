package bayes

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/mvnorm"
)

// FBC is a full Bayes classifier: one multivariate normal distribution
// per class over all numeric attributes. Nominal attributes other than
// the class are ignored.
type FBC struct {
	set     *attset.AttSet
	own     Ownership
	clsID   int
	cls     *attset.Attribute
	classes classVec
	total   float64
	lcorr   float64
	mode    Mode
	numIDs  []int
	dists   []*mvnorm.Dist
	vec     []float64
	ready   bool
}

// NewFBC creates an empty full Bayes classifier over set with the
// class attribute clsID.
func NewFBC(set *attset.AttSet, clsID int, own Ownership) (*FBC, error) {
	if err := checkClass(set, clsID); err != nil {
		return nil, err
	}
	cls := set.Attr(clsID)
	classes, err := newClassVec(cls.ValueCount())
	if err != nil {
		return nil, err
	}
	c := &FBC{set: set, own: own, clsID: clsID, cls: cls, classes: classes}
	for id := 0; id < set.Count(); id++ {
		if id != clsID && set.Attr(id).Type().Numeric() {
			c.numIDs = append(c.numIDs, id)
		}
	}
	c.vec = make([]float64, len(c.numIDs))
	c.dists = make([]*mvnorm.Dist, classes.n)
	for k := range c.dists {
		c.dists[k] = mvnorm.New(len(c.numIDs))
	}
	return c, nil
}

// Clone copies the classifier. With Owned the copy gets its own clone
// of the attribute set, otherwise it shares the set.
func (c *FBC) Clone(own Ownership) *FBC {
	set := c.set
	if own == Owned {
		set = c.set.Clone()
	}
	cp := *c
	cp.set, cp.own, cp.cls = set, own, set.Attr(c.clsID)
	cp.classes = classVec{
		n:      c.classes.n,
		frqs:   append([]float64(nil), c.classes.frqs...),
		priors: append([]float64(nil), c.classes.priors...),
		posts:  append([]float64(nil), c.classes.posts...),
	}
	cp.numIDs = append([]int(nil), c.numIDs...)
	cp.vec = make([]float64, len(c.vec))
	cp.dists = make([]*mvnorm.Dist, len(c.dists))
	for k, d := range c.dists {
		cp.dists[k] = d.Clone()
	}
	return &cp
}

// Delete releases the classifier and, if it owns it, the attribute set
func (c *FBC) Delete() {
	if c.own == Owned && c.set != nil {
		c.set.Clear()
	}
	c.set, c.cls, c.dists, c.numIDs = nil, nil, nil, nil
	c.classes = classVec{}
	c.ready = false
}

// Clear removes all accumulated data
func (c *FBC) Clear() {
	c.total = 0
	for k := range c.classes.frqs {
		c.classes.frqs[k], c.classes.priors[k], c.classes.posts[k] = 0, 0, 0
	}
	for _, d := range c.dists {
		d.Clear()
	}
	c.ready = false
}

// gather copies the numeric values of inst into the scratch vector
func (c *FBC) gather(inst attset.Instance) []float64 {
	for i, id := range c.numIDs {
		typ := c.set.Attr(id).Type()
		v := inst.Value(id)
		if attset.IsNull(typ, v) {
			c.vec[i] = mvnorm.Null
		} else {
			c.vec[i] = attset.Float(typ, v)
		}
	}
	return c.vec
}

// Add accumulates an instance with its weight. The classifier has to
// be set up again before it can execute.
func (c *FBC) Add(inst attset.Instance) error {
	c.ready = false
	cv := inst.Value(c.clsID)
	if attset.IsNull(attset.Nominal, cv) {
		return nil
	}
	k := cv.I
	if k >= c.classes.n {
		if err := c.classes.ensure(k + 1); err != nil {
			return err
		}
		for len(c.dists) < c.classes.n {
			c.dists = append(c.dists, mvnorm.New(len(c.numIDs)))
		}
	}
	w := inst.Weight()
	c.classes.frqs[k] += w
	c.total += w
	c.dists[k].Add(c.gather(inst), w)
	return nil
}

// Setup estimates the priors and the class distributions. Only MaxLLH
// of mode is used.
func (c *FBC) Setup(mode Mode, lcorr float64) error {
	if lcorr < 0 {
		return errors.Wrapf(ErrInvalidArgument, "negative Laplace correction %g", lcorr)
	}
	c.mode = mode & MaxLLH
	c.lcorr = lcorr
	n := c.classes.n
	estimatePriors(c.classes.frqs[:n], c.total, lcorr, c.classes.priors)
	flags := mvnorm.ExpVar | mvnorm.Covar | mvnorm.Inverse | mvnorm.Decom
	if c.mode&MaxLLH != 0 {
		flags |= mvnorm.MaxLLH
	}
	for _, d := range c.dists[:n] {
		d.Calc(flags)
	}
	c.ready = true
	return nil
}

// Exec classifies inst
func (c *FBC) Exec(inst attset.Instance) (int, float64, error) {
	if !c.ready {
		return -1, 0, ErrNotReady
	}
	n := c.classes.n
	vec := c.gather(inst)
	posts := c.classes.posts[:n]
	for k := range posts {
		posts[k] = c.classes.priors[k] * c.dists[k].Eval(vec)
	}
	best := normalize(posts)
	return best, posts[best], nil
}

// Rand draws a class from the priors and a point from its distribution
// and stores both in the instantiation of the attribute set. Integer
// attributes receive rounded values. The point is returned.
func (c *FBC) Rand(rng *rand.Rand) []float64 {
	n := c.classes.n
	k := draw(rng, c.classes.priors[:n])
	c.cls.SetInst(attset.Value{I: k})
	x := c.dists[k].Rand(rng)
	for i, id := range c.numIDs {
		att := c.set.Attr(id)
		if att.Type() == attset.Integer {
			att.SetInst(attset.Value{I: int(math.Round(x[i]))})
		} else {
			att.SetInst(attset.Value{F: x[i]})
		}
	}
	c.set.SetWeight(1)
	return x
}

// Mark marks the numeric attributes with 1, the class with 0 and all
// others with -1. It returns the number of marked attributes.
func (c *FBC) Mark() int {
	c.set.SetMarks(-1)
	for _, id := range c.numIDs {
		c.set.Attr(id).SetMark(1)
	}
	c.cls.SetMark(0)
	return len(c.numIDs) + 1
}

func (c *FBC) Post(k int) float64     { return c.classes.posts[k] }
func (c *FBC) Posts() []float64       { return c.classes.posts[:c.classes.n] }
func (c *FBC) Prior(k int) float64    { return c.classes.priors[k] }
func (c *FBC) Total() float64         { return c.total }
func (c *FBC) Mode() Mode             { return c.mode }
func (c *FBC) LaplaceCorr() float64   { return c.lcorr }
func (c *FBC) ClassID() int           { return c.clsID }
func (c *FBC) ClassCount() int        { return c.classes.n }
func (c *FBC) AttSet() *attset.AttSet { return c.set }

// ClassFreq returns the weight of the instances of class k
func (c *FBC) ClassFreq(k int) float64 { return c.classes.frqs[k] }

// NumericIDs returns the ids of the modeled attributes in set order
func (c *FBC) NumericIDs() []int { return c.numIDs }

// Dist returns the distribution of class k
func (c *FBC) Dist(k int) *mvnorm.Dist { return c.dists[k] }

// InduceFBC builds a full Bayes classifier from a table. With Clone the
// classifier works on (and owns) a copy of the table's attribute set.
func InduceFBC(tab *attset.Table, clsID int, mode Mode, lcorr float64) (*FBC, error) {
	set, own := tab.AttSet(), Borrowed
	if mode&Clone != 0 {
		set, own = set.Clone(), Owned
	}
	c, err := NewFBC(set, clsID, own)
	if err != nil {
		return nil, err
	}
	for i := 0; i < tab.Count(); i++ {
		if err := c.Add(tab.Tuple(i)); err != nil {
			c.Delete()
			return nil, err
		}
	}
	if err := c.Setup(mode, lcorr); err != nil {
		c.Delete()
		return nil, err
	}
	return c, nil
}
