package bayes

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/tabmine/bayes-classifier/pkg/attset"
)

// nomDist is the distribution of a nominal attribute within one class
type nomDist struct {
	cnt   float64 // weight of the known values
	nulls float64 // weight of the null values
	frqs  []float64
	probs []float64
}

// numDist is the distribution of a numeric attribute within one class
type numDist struct {
	cnt   float64
	nulls float64
	sum   float64
	sqr   float64
	n     float64 // estimated case weight
	exp   float64
	v     float64
}

// attDist holds the per-class distributions of one attribute
type attDist struct {
	att *attset.Attribute
	sel bool
	nom []nomDist
	num []numDist
}

func (d *attDist) numeric() bool { return d.att.Type().Numeric() }

func (d *attDist) resize(n int) {
	if d.numeric() {
		d.num = append(d.num, make([]numDist, n-len(d.num))...)
	} else {
		d.nom = append(d.nom, make([]nomDist, n-len(d.nom))...)
	}
}

// distribution returns the scale factor applied to the known values
// and the weight added to each value when the null weight is
// distributed.
func (d *nomDist) distribution(dwnull bool, vals int) (scale, uniform float64) {
	if !dwnull || d.nulls <= 0 {
		return 1, 0
	}
	if d.cnt > 0 {
		return 1 + d.nulls/d.cnt, 0
	}
	if vals > 0 {
		return 1, d.nulls / float64(vals)
	}
	return 1, 0
}

// NBC is a naive Bayes classifier. Nominal attributes are modeled by
// frequency tables, numeric ones by normal distributions, both per
// class.
type NBC struct {
	set     *attset.AttSet
	own     Ownership
	clsID   int
	cls     *attset.Attribute
	classes classVec
	total   float64
	lcorr   float64
	mode    Mode
	dists   []attDist
	ready   bool
}

// NewNBC creates an empty naive Bayes classifier over set with the
// class attribute clsID. With own set to Owned, Delete clears the set.
func NewNBC(set *attset.AttSet, clsID int, own Ownership) (*NBC, error) {
	if err := checkClass(set, clsID); err != nil {
		return nil, err
	}
	cls := set.Attr(clsID)
	classes, err := newClassVec(cls.ValueCount())
	if err != nil {
		return nil, err
	}
	c := &NBC{set: set, own: own, clsID: clsID, cls: cls, classes: classes}
	c.dists = make([]attDist, set.Count())
	for id := range c.dists {
		if id == clsID {
			continue
		}
		d := &c.dists[id]
		d.att = set.Attr(id)
		d.sel = true
		d.resize(classes.capacity())
	}
	return c, nil
}

// Clone copies the classifier. With Owned the copy gets its own clone
// of the attribute set, otherwise it shares the set.
func (c *NBC) Clone(own Ownership) *NBC {
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
	cp.dists = make([]attDist, len(c.dists))
	for id, d := range c.dists {
		if id == c.clsID {
			continue
		}
		nd := attDist{att: set.Attr(id), sel: d.sel}
		nd.num = append([]numDist(nil), d.num...)
		nd.nom = make([]nomDist, len(d.nom))
		for k, x := range d.nom {
			nd.nom[k] = nomDist{
				cnt:   x.cnt,
				nulls: x.nulls,
				frqs:  append([]float64(nil), x.frqs...),
				probs: append([]float64(nil), x.probs...),
			}
		}
		cp.dists[id] = nd
	}
	return &cp
}

// Delete releases the classifier and, if it owns it, the attribute set
func (c *NBC) Delete() {
	if c.own == Owned && c.set != nil {
		c.set.Clear()
	}
	c.set, c.cls, c.dists = nil, nil, nil
	c.classes = classVec{}
	c.ready = false
}

// Clear removes all accumulated data
func (c *NBC) Clear() {
	c.total = 0
	for k := range c.classes.frqs {
		c.classes.frqs[k], c.classes.priors[k], c.classes.posts[k] = 0, 0, 0
	}
	for id := range c.dists {
		d := &c.dists[id]
		for k := range d.num {
			d.num[k] = numDist{}
		}
		for k := range d.nom {
			d.nom[k] = nomDist{}
		}
	}
	c.ready = false
}

func (c *NBC) grow(n int) error {
	old := c.classes.capacity()
	if err := c.classes.ensure(n); err != nil {
		return err
	}
	if size := c.classes.capacity(); size > old {
		for id := range c.dists {
			if id != c.clsID {
				c.dists[id].resize(size)
			}
		}
	}
	return nil
}

// Add accumulates an instance with its weight. The classifier has to
// be set up again before it can execute.
func (c *NBC) Add(inst attset.Instance) error {
	c.ready = false
	return c.accumulate(inst, inst.Weight())
}

// accumulate adds inst with weight w; a negative w takes it out again
func (c *NBC) accumulate(inst attset.Instance, w float64) error {
	cv := inst.Value(c.clsID)
	if attset.IsNull(attset.Nominal, cv) {
		return nil
	}
	k := cv.I
	if k >= c.classes.n {
		if err := c.grow(k + 1); err != nil {
			return err
		}
	}
	c.classes.frqs[k] += w
	c.total += w
	for id := range c.dists {
		if id == c.clsID {
			continue
		}
		d := &c.dists[id]
		v := inst.Value(id)
		typ := d.att.Type()
		if d.numeric() {
			nd := &d.num[k]
			if attset.IsNull(typ, v) {
				nd.nulls += w
				continue
			}
			x := attset.Float(typ, v)
			nd.cnt += w
			nd.sum += w * x
			nd.sqr += w * x * x
			continue
		}
		nd := &d.nom[k]
		if attset.IsNull(typ, v) {
			nd.nulls += w
			continue
		}
		if v.I >= len(nd.frqs) {
			n := max(v.I+1, d.att.ValueCount())
			nd.frqs = append(nd.frqs, make([]float64, n-len(nd.frqs))...)
		}
		nd.frqs[v.I] += w
		nd.cnt += w
	}
	return nil
}

// Setup estimates priors and conditional distributions. Unselected
// attributes are estimated only with All.
func (c *NBC) Setup(mode Mode, lcorr float64) error {
	if lcorr < 0 {
		return errors.Wrapf(ErrInvalidArgument, "negative Laplace correction %g", lcorr)
	}
	c.mode = mode & (All | DWNull | MaxLLH)
	c.lcorr = lcorr
	n := c.classes.n
	estimatePriors(c.classes.frqs[:n], c.total, lcorr, c.classes.priors)
	dwnull := mode&DWNull != 0
	maxllh := mode&MaxLLH != 0
	for id := range c.dists {
		d := &c.dists[id]
		if id == c.clsID || (!d.sel && mode&All == 0) {
			continue
		}
		for k := 0; k < n; k++ {
			if d.numeric() {
				d.num[k].estimate(dwnull, maxllh)
			} else {
				d.nom[k].estimate(dwnull, lcorr, d.att.ValueCount())
			}
		}
	}
	c.ready = true
	return nil
}

func (d *nomDist) estimate(dwnull bool, lcorr float64, vals int) {
	vals = max(vals, len(d.frqs))
	if len(d.frqs) < vals {
		d.frqs = append(d.frqs, make([]float64, vals-len(d.frqs))...)
	}
	if len(d.probs) != vals {
		d.probs = make([]float64, vals)
	}
	scale, uniform := d.distribution(dwnull, vals)
	den := d.cnt*scale + uniform*float64(vals) + lcorr*float64(vals)
	for v, f := range d.frqs {
		if den > 0 {
			d.probs[v] = (f*scale + uniform + lcorr) / den
		} else {
			d.probs[v] = 0
		}
	}
}

func (d *numDist) estimate(dwnull, maxllh bool) {
	if d.cnt <= 0 {
		d.n, d.exp, d.v = 0, 0, 0
		return
	}
	scale := 1.0
	if dwnull {
		scale = 1 + d.nulls/d.cnt
	}
	d.n = d.cnt * scale
	d.exp = d.sum / d.cnt
	v := scale * (d.sqr - d.sum*d.exp) / divisor(d.n, maxllh)
	d.v = math.Max(v, MinVariance)
}

func (d *numDist) density(x float64) float64 {
	z := x - d.exp
	return math.Exp(-0.5*z*z/d.v) / math.Sqrt(2*math.Pi*d.v)
}

// Exec classifies inst. Null values and values unknown to the
// classifier do not contribute.
func (c *NBC) Exec(inst attset.Instance) (int, float64, error) {
	if !c.ready {
		return -1, 0, ErrNotReady
	}
	n := c.classes.n
	posts := c.classes.posts[:n]
	copy(posts, c.classes.priors[:n])
	for id := range c.dists {
		d := &c.dists[id]
		if id == c.clsID || !d.sel {
			continue
		}
		typ := d.att.Type()
		v := inst.Value(id)
		if attset.IsNull(typ, v) {
			continue
		}
		if d.numeric() {
			x := attset.Float(typ, v)
			for k := range posts {
				if d.num[k].n > 0 {
					posts[k] *= d.num[k].density(x)
				}
			}
			continue
		}
		for k := range posts {
			if probs := d.nom[k].probs; v.I < len(probs) {
				posts[k] *= probs[v.I]
			}
		}
	}
	best := normalize(posts)
	return best, posts[best], nil
}

// Mark marks the selected attributes with 1, the class with 0 and all
// others with -1. It returns the number of marked attributes.
func (c *NBC) Mark() int {
	c.set.SetMarks(-1)
	cnt := 1
	for id := range c.dists {
		if id != c.clsID && c.dists[id].sel {
			c.set.Attr(id).SetMark(1)
			cnt++
		}
	}
	c.cls.SetMark(0)
	return cnt
}

// Rand draws a class from the priors and a value for every selected
// attribute from its class conditional distribution. The result is
// stored in the instantiation of the attribute set; unselected
// attributes are set to null. The drawn class is returned.
func (c *NBC) Rand(rng *rand.Rand) int {
	n := c.classes.n
	k := draw(rng, c.classes.priors[:n])
	c.cls.SetInst(attset.Value{I: k})
	for id := range c.dists {
		if id == c.clsID {
			continue
		}
		d := &c.dists[id]
		if !d.sel {
			d.att.SetNull()
			continue
		}
		if d.numeric() {
			nd := &d.num[k]
			if nd.n <= 0 {
				d.att.SetNull()
				continue
			}
			x := nd.exp + math.Sqrt(nd.v)*rng.NormFloat64()
			if d.att.Type() == attset.Integer {
				d.att.SetInst(attset.Value{I: int(math.Round(x))})
			} else {
				d.att.SetInst(attset.Value{F: x})
			}
			continue
		}
		probs := d.nom[k].probs
		if len(probs) == 0 {
			d.att.SetNull()
			continue
		}
		d.att.SetInst(attset.Value{I: draw(rng, probs)})
	}
	c.set.SetWeight(1)
	return k
}

// draw samples an index from a probability vector by inverse CDF
func draw(rng *rand.Rand, probs []float64) int {
	t := rng.Float64()
	sum := 0.0
	for i, p := range probs {
		sum += p
		if sum >= t {
			return i
		}
	}
	return len(probs) - 1
}

func (c *NBC) Post(k int) float64     { return c.classes.posts[k] }
func (c *NBC) Posts() []float64       { return c.classes.posts[:c.classes.n] }
func (c *NBC) Prior(k int) float64    { return c.classes.priors[k] }
func (c *NBC) Total() float64         { return c.total }
func (c *NBC) Mode() Mode             { return c.mode }
func (c *NBC) LaplaceCorr() float64   { return c.lcorr }
func (c *NBC) ClassID() int           { return c.clsID }
func (c *NBC) ClassCount() int        { return c.classes.n }
func (c *NBC) AttSet() *attset.AttSet { return c.set }

// ClassFreq returns the weight of the instances of class k
func (c *NBC) ClassFreq(k int) float64 { return c.classes.frqs[k] }

// Selected reports whether attribute id is used for classification
func (c *NBC) Selected(id int) bool {
	return id != c.clsID && c.dists[id].sel
}

// Select includes or excludes attribute id. The class attribute
// cannot be selected.
func (c *NBC) Select(id int, sel bool) {
	if id != c.clsID {
		c.dists[id].sel = sel
	}
}

// Prob returns the estimated probability of value v of the nominal
// attribute id in class k.
func (c *NBC) Prob(id, k, v int) float64 {
	probs := c.dists[id].nom[k].probs
	if v >= len(probs) {
		return 0
	}
	return probs[v]
}

// Freq returns the frequency of value v of the nominal attribute id in
// class k as used by the last Setup, that is including distributed
// null weight.
func (c *NBC) Freq(id, k, v int) float64 {
	d := &c.dists[id].nom[k]
	vals := max(len(d.frqs), c.dists[id].att.ValueCount())
	scale, uniform := d.distribution(c.mode&DWNull != 0, vals)
	f := uniform
	if v < len(d.frqs) {
		f += d.frqs[v] * scale
	}
	return f
}

// Exp returns the estimated mean of the numeric attribute id in class k
func (c *NBC) Exp(id, k int) float64 { return c.dists[id].num[k].exp }

// Var returns the estimated variance of the numeric attribute id in
// class k
func (c *NBC) Var(id, k int) float64 { return c.dists[id].num[k].v }

// Count returns the case weight behind the estimate of the numeric
// attribute id in class k
func (c *NBC) Count(id, k int) float64 { return c.dists[id].num[k].n }
