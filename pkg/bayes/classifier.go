package bayes

import (
	"io"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// Classifier is implemented by the naive and the full Bayes classifier
type Classifier interface {
	// Add accumulates an instance. Instances with a null class are
	// ignored.
	Add(inst attset.Instance) error
	// Setup estimates the parameters from the accumulated data. It may
	// be called again with another mode or Laplace correction.
	Setup(mode Mode, lcorr float64) error
	// Exec classifies an instance and returns the most probable class
	// and its posterior probability.
	Exec(inst attset.Instance) (int, float64, error)
	Post(c int) float64
	Posts() []float64
	Prior(c int) float64
	// ClassFreq returns the (weighted) number of cases of class c
	ClassFreq(c int) float64
	Total() float64
	// Mark marks the attributes used (1) and the class (0) and returns
	// the number of marked attributes.
	Mark() int
	Mode() Mode
	LaplaceCorr() float64
	ClassID() int
	ClassCount() int
	AttSet() *attset.AttSet
	Describe(w io.Writer, flags DescFlags, maxLen int) error
	Delete()
}

var (
	_ Classifier = (*NBC)(nil)
	_ Classifier = (*FBC)(nil)
)

// Parse reads a classifier description over set. A description
// starting with "fbc" yields a full Bayes classifier, any other a naive
// one.
func Parse(set *attset.AttSet, sc *scan.Scanner) (Classifier, error) {
	if sc.IsWord("fbc") {
		c, err := ParseFBC(set, sc)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := ParseNBC(set, sc)
	if err != nil {
		return nil, err
	}
	return c, nil
}
