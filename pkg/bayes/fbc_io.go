package bayes

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

var fbcParams = map[string]Mode{"maxllh": MaxLLH}

// Describe writes the classifier in the form read by ParseFBC
func (c *FBC) Describe(w io.Writer, flags DescFlags, maxLen int) error {
	bw := bufio.NewWriter(w)
	if flags&Title != 0 {
		if err := attset.WriteTitle(bw, "full Bayes classifier", maxLen); err != nil {
			return err
		}
	}
	if maxLen <= 0 {
		maxLen = math.MaxInt32
	}
	clsName := scan.Format(c.cls.Name())
	fmt.Fprintf(bw, "fbc(%s) = {\n", clsName)
	writeParams(bw, c.lcorr, c.mode, []Mode{MaxLLH}, []string{"maxllh"})
	n := c.classes.n
	writeClassFreqs(bw, c.cls, c.classes.frqs[:n], c.classes.priors[:n], flags&Rel != 0)

	if len(c.numIDs) > 0 {
		bw.WriteString("  prob(")
		const ind = 7
		pos := ind
		for i, id := range c.numIDs {
			if i > 0 {
				bw.WriteByte(',')
				pos++
			}
			name := scan.Format(c.set.Attr(id).Name())
			n := utf8.RuneCountInString(name)
			if pos+n > maxLen-1 && pos > ind {
				bw.WriteString("\n       ")
				pos = ind
			}
			bw.WriteString(name)
			pos += n
		}
		fmt.Fprintf(bw, "|%s) = {\n    ", clsName)
		width := valueWidth(c.cls)
		for k := 0; k < n; k++ {
			if k > 0 {
				bw.WriteString(",\n    ")
			}
			bw.WriteString(padded(className(c.cls, k), width))
			bw.WriteString(": N(")
			if err := c.dists[k].Describe(bw, width+10, maxLen); err != nil {
				return err
			}
			bw.WriteByte(')')
		}
		bw.WriteString(" };\n")
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

// ParseFBC reads a full Bayes classifier description over set and sets
// the classifier up with the parsed parameters. The attribute list of
// the conditional distribution is either "*" or exactly the numeric
// attributes of set. On failure no classifier is returned.
func ParseFBC(set *attset.AttSet, sc *scan.Scanner) (*FBC, error) {
	p := &parser{sc: sc, set: set}
	c, err := p.fbc()
	if err != nil {
		if c != nil {
			c.Delete()
		}
		return nil, err
	}
	return c, nil
}

func (p *parser) fbc() (*FBC, error) {
	clsID, err := p.header("fbc")
	if err != nil {
		return nil, err
	}
	c, err := NewFBC(p.set, clsID, Borrowed)
	if err != nil {
		return nil, err
	}
	lcorr, mode, err := p.params(fbcParams)
	if err != nil {
		return c, err
	}
	n := c.classes.n
	frqs, err := p.classFreqs(c.cls, n)
	if err != nil {
		return c, err
	}
	copy(c.classes.frqs, frqs)
	for _, f := range frqs {
		c.total += f
	}
	if len(c.numIDs) > 0 {
		if err := p.fbcDist(c, frqs, mode&MaxLLH != 0); err != nil {
			return c, err
		}
	}
	if err := p.end(); err != nil {
		return c, err
	}
	return c, c.Setup(mode, lcorr)
}

// attList reads "*" or a list of attribute names that must be exactly
// the numeric attributes of c.
func (p *parser) attList(c *FBC) error {
	if p.sc.Token() == '*' {
		return p.next()
	}
	// 0: not numeric, 1: numeric and not yet listed, 2: listed
	pending := make([]int, p.set.Count())
	for _, id := range c.numIDs {
		pending[id] = 1
	}
	for {
		if !p.sc.IsName() {
			return p.fail(ErrParse, "attribute expected")
		}
		id := p.set.Index(p.sc.Value())
		if id < 0 {
			return p.fail(ErrUnknownAttribute, "%s", p.sc.Value())
		}
		switch pending[id] {
		case 0:
			return p.fail(ErrUnknownAttribute, "%s is not numeric", p.sc.Value())
		case 2:
			return p.fail(ErrDuplicateAttribute, "%s", p.sc.Value())
		}
		pending[id] = 2
		if err := p.next(); err != nil {
			return err
		}
		if p.sc.Token() != ',' {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	for id, left := range pending {
		if left == 1 {
			return p.fail(ErrMissingAttribute, "%s", p.set.Attr(id).Name())
		}
	}
	return nil
}

func (p *parser) fbcDist(c *FBC, frqs []float64, maxllh bool) error {
	if err := p.prob(); err != nil {
		return err
	}
	if err := p.expect('('); err != nil {
		return err
	}
	if err := p.attList(c); err != nil {
		return err
	}
	if err := p.expect('|'); err != nil {
		return err
	}
	if err := p.name(c.cls); err != nil {
		return err
	}
	for _, ch := range ")={" {
		if err := p.expect(ch); err != nil {
			return err
		}
	}
	n := c.classes.n
	seen := make([]bool, n)
	k := -1
	for {
		var err error
		if k, err = p.label(c.cls, k, n, ErrUnknownClass); err != nil {
			return err
		}
		if seen[k] {
			return p.fail(ErrDuplicateClass, "%s", className(c.cls, k))
		}
		seen[k] = true
		if !p.sc.IsWord("N") {
			return p.fail(ErrParse, "'N' expected")
		}
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expect('('); err != nil {
			return err
		}
		if err := c.dists[k].Parse(p.sc, frqs[k], maxllh); err != nil {
			return fromScan(err)
		}
		if err := p.expect(')'); err != nil {
			return err
		}
		if p.sc.Token() != ',' {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	for k := 0; k < n; k++ {
		if !seen[k] && frqs[k] > 0 {
			return p.fail(ErrMissingClass, "%s", className(c.cls, k))
		}
	}
	return p.end()
}
