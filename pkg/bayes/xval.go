package bayes

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"

	"github.com/tabmine/bayes-classifier/pkg/attset"
)

// Folds assigns every tuple of tab to one of k folds and returns the
// fold index per tuple. The tuples are dealt to the folds in turn, in
// table order or, with rng, in a random order. Stratified dealing goes
// through the tuples class by class, so that every fold receives about
// the same share of each class.
func Folds(tab *attset.Table, clsID, k int, stratified bool, rng *rand.Rand) ([]int, error) {
	n := tab.Count()
	if k < 2 || k > n {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d folds for %d tuples", k, n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	if stratified {
		class := func(i int) int {
			v := tab.Tuple(i).Value(clsID)
			if attset.IsNull(attset.Nominal, v) {
				return math.MaxInt
			}
			return v.I
		}
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(class(a), class(b)) })
	}
	folds := make([]int, n)
	for pos, i := range order {
		folds[i] = pos % k
	}
	return folds, nil
}

// Inducer builds a classifier that is set up from a training table
type Inducer func(train *attset.Table) (Classifier, error)

// FoldResult is the outcome of one cross validation fold
type FoldResult struct {
	Tuples int     // test tuples
	Weight float64 // weight of the test tuples with a known class
	Errors float64 // weight of the misclassified test tuples
}

// ErrorRate returns the weighted fraction of misclassified tuples
func (r FoldResult) ErrorRate() float64 {
	if r.Weight <= 0 {
		return 0
	}
	return r.Errors / r.Weight
}

// XVal summarizes a cross validation
type XVal struct {
	Folds  []FoldResult
	Mean   float64 // error rate over all test tuples
	StdDev float64 // sample deviation of the fold error rates from Mean
}

// CrossValidate induces one classifier per fold from the tuples of
// all other folds and classifies the tuples of the fold with it. In
// two-class problems the result is decided with threshold.
func CrossValidate(tab *attset.Table, clsID int, folds []int, k int, induce Inducer, threshold float64) (*XVal, error) {
	if len(folds) != tab.Count() || k < 2 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d fold indices, %d folds for %d tuples", len(folds), k, tab.Count())
	}
	res := &XVal{Folds: make([]FoldResult, k)}
	var errs, wgt float64
	for f := 0; f < k; f++ {
		train := attset.NewTable(fmt.Sprintf("%s[%d]", tab.Name(), f+1), tab.AttSet())
		for i := 0; i < tab.Count(); i++ {
			if folds[i] != f {
				train.Add(tab.Tuple(i))
			}
		}
		c, err := induce(train)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", f+1)
		}
		r, err := testFold(c, tab, folds, f, threshold)
		c.Delete()
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", f+1)
		}
		res.Folds[f] = r
		errs += r.Errors
		wgt += r.Weight
	}
	if wgt > 0 {
		res.Mean = errs / wgt
	}
	sum := 0.0
	for _, r := range res.Folds {
		d := r.ErrorRate() - res.Mean
		sum += d * d
	}
	res.StdDev = math.Sqrt(sum / float64(k-1))
	return res, nil
}

func testFold(c Classifier, tab *attset.Table, folds []int, f int, threshold float64) (FoldResult, error) {
	var r FoldResult
	clsID := c.ClassID()
	for i := 0; i < tab.Count(); i++ {
		if folds[i] != f {
			continue
		}
		r.Tuples++
		t := tab.Tuple(i)
		cv := t.Value(clsID)
		if attset.IsNull(attset.Nominal, cv) {
			continue
		}
		best, conf, err := c.Exec(t)
		if err != nil {
			return r, err
		}
		best, _ = Decide(best, conf, c.ClassCount(), threshold)
		r.Weight += t.Weight()
		if best != cv.I {
			r.Errors += t.Weight()
		}
	}
	return r, nil
}
