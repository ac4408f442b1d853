package bayes

import (
	"github.com/pkg/errors"

	"github.com/tabmine/bayes-classifier/pkg/mvnorm"
)

// Mode holds induction and estimation flags
type Mode int

const (
	Clone  Mode = 0x01 // induce on a private copy of the attribute set
	Add    Mode = 0x02 // simplify by adding attributes
	Remove Mode = 0x04 // simplify by removing attributes
	All    Mode = 0x10 // estimate unselected attributes too
	Marked Mode = 0x20 // use only marked attributes
	DWNull Mode = 0x40 // distribute the weight of null values
	MaxLLH Mode = 0x80 // maximum likelihood estimate of the variance
)

// DescFlags control classifier descriptions
type DescFlags int

const (
	Title DescFlags = 1 << iota // comment header
	Rel                         // relative class frequencies
	DescMarked                  // skip attributes with a negative mark
)

// Ownership tells whether a classifier owns its attribute set
type Ownership int

const (
	Borrowed Ownership = iota // the caller keeps the set alive
	Owned                     // deleting the classifier clears the set
)

// MaxClasses bounds the number of classes a classifier can hold
const MaxClasses = 1 << 24

// MinVariance is the variance floor of numeric attributes with data
const MinVariance = mvnorm.MinVariance

// classVec holds the class-indexed vectors of a classifier. The
// vectors are allocated with spare capacity so that classes observed
// during induction can be added without copying on every new class.
type classVec struct {
	n      int
	frqs   []float64
	priors []float64
	posts  []float64
}

func newClassVec(n int) (classVec, error) {
	var v classVec
	err := v.ensure(n)
	return v, err
}

func (v *classVec) capacity() int { return len(v.frqs) }

// ensure makes room for n classes. New slots are zero.
func (v *classVec) ensure(n int) error {
	if n > MaxClasses {
		return errors.Wrapf(ErrOutOfMemory, "%d classes exceed the limit of %d", n, MaxClasses)
	}
	if n <= v.capacity() {
		if n > v.n {
			v.n = n
		}
		return nil
	}
	size := v.capacity()
	if size > 16 {
		size += size / 2
	} else {
		size += 16
	}
	if size < n {
		size = n
	}
	if size > MaxClasses {
		size = MaxClasses
	}
	grow := func(s []float64) []float64 {
		return append(s, make([]float64, size-len(s))...)
	}
	v.frqs, v.priors, v.posts = grow(v.frqs), grow(v.priors), grow(v.posts)
	v.n = n
	return nil
}

// estimatePriors sets priors[c] = (frqs[c]+lcorr) / (total+lcorr*n),
// or all zero if the denominator is not positive.
func estimatePriors(frqs []float64, total, lcorr float64, priors []float64) {
	d := total + lcorr*float64(len(frqs))
	for c, f := range frqs {
		if d > 0 {
			priors[c] = (f + lcorr) / d
		} else {
			priors[c] = 0
		}
	}
}

func divisor(n float64, maxllh bool) float64 {
	if maxllh || n <= 1 {
		return n
	}
	return n - 1
}

// normalize scales posts to sum to one and returns the index of the
// largest entry (the first one on ties).
func normalize(posts []float64) int {
	best, sum := 0, 0.0
	for c, p := range posts {
		sum += p
		if p > posts[best] {
			best = c
		}
	}
	if sum > 0 {
		sum = 1 / sum
	} else {
		sum = 1
	}
	for c := range posts {
		posts[c] *= sum
	}
	return best
}

// Decide applies the decision threshold of two-class problems to a
// classification result: class 0 is kept only if its probability is
// at least threshold, otherwise the other class is chosen and the
// confidence becomes 1-conf. With more than two classes the result is
// returned unchanged, and so it is with a single class, which has no
// other class to flip to.
func Decide(cls int, conf float64, clsCount int, threshold float64) (int, float64) {
	if clsCount != 2 || cls < 0 {
		return cls, conf
	}
	switch {
	case cls == 0 && conf < threshold:
		return 1, 1 - conf
	case cls == 1 && conf < 1-threshold:
		return 0, 1 - conf
	}
	return cls, conf
}
