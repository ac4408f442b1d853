package bayes

import (
	"math"

	"github.com/tabmine/bayes-classifier/pkg/attset"
)

// Criterion scores the classification of a single held-out tuple
// whose true class is cls. best and conf are the result of Exec, the
// posteriors can be read from c. Higher is better.
type Criterion func(c Classifier, best int, conf float64, cls int) float64

// Accuracy is 1 for a correct classification and 0 otherwise, applying
// the two-class threshold 0.5.
func Accuracy(c Classifier, best int, conf float64, cls int) float64 {
	k, _ := Decide(best, conf, c.ClassCount(), 0.5)
	if k == cls {
		return 1
	}
	return 0
}

// LogLikelihood is the log posterior probability of the true class
func LogLikelihood(c Classifier, best int, conf float64, cls int) float64 {
	if cls >= c.ClassCount() {
		return math.Log(1e-300)
	}
	return math.Log(math.Max(c.Post(cls), 1e-300))
}

// InduceNBC builds a naive Bayes classifier from a table. With Clone
// the classifier works on (and owns) a copy of the table's attribute
// set. With Add or Remove the attribute selection is simplified
// greedily. Every selection is scored by crit (Accuracy if nil) in a
// leave-one-out run over the table, see HeldOut.
func InduceNBC(tab *attset.Table, clsID int, mode Mode, lcorr float64, crit Criterion) (*NBC, error) {
	set, own := tab.AttSet(), Borrowed
	if mode&Clone != 0 {
		set, own = set.Clone(), Owned
	}
	c, err := NewNBC(set, clsID, own)
	if err != nil {
		return nil, err
	}
	for i := 0; i < tab.Count(); i++ {
		if err := c.Add(tab.Tuple(i)); err != nil {
			c.Delete()
			return nil, err
		}
	}
	est := mode & (All | DWNull | MaxLLH)
	if mode&(Add|Remove) == 0 {
		if err := c.Setup(est, lcorr); err != nil {
			c.Delete()
			return nil, err
		}
		return c, nil
	}
	if err := c.Setup(est|All, lcorr); err != nil {
		c.Delete()
		return nil, err
	}
	if crit == nil {
		crit = Accuracy
	}
	if err := c.simplify(tab, mode&Add != 0, crit); err != nil {
		c.Delete()
		return nil, err
	}
	return c, nil
}

// HeldOut scores the current attribute selection of c by leave-one-out:
// each tuple of tab with a known class is taken out of the accumulated
// data, classified by the classifier estimated from the rest and put
// back. The result is the weighted sum of crit over these tuples. c
// must hold the data of tab; it is left unchanged.
func (c *NBC) HeldOut(tab *attset.Table, crit Criterion) (float64, error) {
	work := c.Clone(Borrowed)
	est := c.mode &^ All
	sum := 0.0
	for i := 0; i < tab.Count(); i++ {
		t := tab.Tuple(i)
		cv := t.Value(c.clsID)
		if attset.IsNull(attset.Nominal, cv) {
			continue
		}
		w := t.Weight()
		if err := work.accumulate(t, -w); err != nil {
			return 0, err
		}
		if err := work.Setup(est, c.lcorr); err != nil {
			return 0, err
		}
		best, conf, err := work.Exec(t)
		if err != nil {
			return 0, err
		}
		sum += w * crit(work, best, conf, cv.I)
		if err := work.accumulate(t, w); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// simplify runs a greedy search over attribute selections. Starting
// from no attribute (adding) or all attributes (removing) it toggles
// in each step the attribute that improves the held-out score most.
// When removing, a toggle that keeps the score is also accepted,
// preferring the smaller selection. The search stops when no toggle
// qualifies.
func (c *NBC) simplify(tab *attset.Table, adding bool, crit Criterion) error {
	for id := range c.dists {
		c.Select(id, !adding)
	}
	score, err := c.HeldOut(tab, crit)
	if err != nil {
		return err
	}
	for {
		best, bestScore := -1, score
		for id := range c.dists {
			if id == c.clsID || c.dists[id].sel != !adding {
				continue
			}
			c.Select(id, adding)
			s, err := c.HeldOut(tab, crit)
			c.Select(id, !adding)
			if err != nil {
				return err
			}
			if s > bestScore || (!adding && best < 0 && s >= score) {
				best, bestScore = id, s
			}
		}
		if best < 0 {
			return nil
		}
		c.Select(best, adding)
		score = bestScore
	}
}
