package bayes

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

var nbcParams = map[string]Mode{"maxllh": MaxLLH, "dwnull": DWNull}

// Describe writes the classifier in the form read by ParseNBC. Only
// selected attributes get a conditional distribution block.
func (c *NBC) Describe(w io.Writer, flags DescFlags, maxLen int) error {
	bw := bufio.NewWriter(w)
	if flags&Title != 0 {
		if err := attset.WriteTitle(bw, "naive Bayes classifier", maxLen); err != nil {
			return err
		}
	}
	clsName := scan.Format(c.cls.Name())
	fmt.Fprintf(bw, "nbc(%s) = {\n", clsName)
	writeParams(bw, c.lcorr, c.mode, []Mode{MaxLLH, DWNull}, []string{"maxllh", "dwnull"})
	n := c.classes.n
	writeClassFreqs(bw, c.cls, c.classes.frqs[:n], c.classes.priors[:n], flags&Rel != 0)

	width := valueWidth(c.cls)
	for id := range c.dists {
		d := &c.dists[id]
		if id == c.clsID || !d.sel {
			continue
		}
		if flags&DescMarked != 0 && d.att.Mark() < 0 {
			continue
		}
		fmt.Fprintf(bw, "  prob(%s|%s) = {\n    ", scan.Format(d.att.Name()), clsName)
		for k := 0; k < n; k++ {
			if k > 0 {
				bw.WriteString(",\n    ")
			}
			bw.WriteString(padded(className(c.cls, k), width))
			bw.WriteString(":")
			if d.numeric() {
				nd := &d.num[k]
				fmt.Fprintf(bw, " N(%g, %g) [%g]", nd.exp, nd.v, nd.n)
				continue
			}
			c.describeValues(bw, id, k, flags&Rel != 0, width+6, maxLen)
		}
		bw.WriteString(" };\n")
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

func (c *NBC) describeValues(w *bufio.Writer, id, k int, rel bool, ind, maxLen int) {
	d := &c.dists[id]
	vals := max(len(d.nom[k].frqs), d.att.ValueCount())
	w.WriteString("{")
	pos := ind
	for v := 0; v < vals; v++ {
		s := fmt.Sprintf("%s: %g", scan.Format(className(d.att, v)), c.Freq(id, k, v))
		if rel {
			s += fmt.Sprintf(" (%.1f%%)", c.Prob(id, k, v)*100)
		}
		if v > 0 {
			w.WriteString(",")
			pos++
			if maxLen > 0 && pos+len(s)+1 > maxLen {
				w.WriteString("\n")
				for i := 0; i < ind; i++ {
					w.WriteByte(' ')
				}
				pos = ind
			}
		}
		w.WriteString(" " + s)
		pos += len(s) + 1
	}
	w.WriteString(" }")
}

// ParseNBC reads a naive Bayes classifier description over set and
// sets the classifier up with the parsed parameters. On failure no
// classifier is returned.
func ParseNBC(set *attset.AttSet, sc *scan.Scanner) (*NBC, error) {
	p := &parser{sc: sc, set: set}
	c, err := p.nbc()
	if err != nil {
		if c != nil {
			c.Delete()
		}
		return nil, err
	}
	return c, nil
}

func (p *parser) nbc() (*NBC, error) {
	clsID, err := p.header("nbc")
	if err != nil {
		return nil, err
	}
	c, err := NewNBC(p.set, clsID, Borrowed)
	if err != nil {
		return nil, err
	}
	for id := range c.dists {
		c.dists[id].sel = false
	}
	lcorr, mode, err := p.params(nbcParams)
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

	seen := make([]bool, p.set.Count())
	for p.sc.IsWord("prob") || p.sc.IsWord("P") {
		if err := p.next(); err != nil {
			return c, err
		}
		if err := p.expect('('); err != nil {
			return c, err
		}
		if !p.sc.IsName() {
			return c, p.fail(ErrParse, "attribute expected")
		}
		id := p.set.Index(p.sc.Value())
		switch {
		case id < 0:
			return c, p.fail(ErrUnknownAttribute, "%s", p.sc.Value())
		case id == clsID || seen[id]:
			return c, p.fail(ErrDuplicateAttribute, "%s", p.sc.Value())
		}
		seen[id] = true
		if err := p.next(); err != nil {
			return c, err
		}
		if err := p.expect('|'); err != nil {
			return c, err
		}
		if err := p.name(c.cls); err != nil {
			return c, err
		}
		for _, ch := range ")={" {
			if err := p.expect(ch); err != nil {
				return c, err
			}
		}
		if err := p.nbcDist(c, id, frqs, mode&MaxLLH != 0); err != nil {
			return c, err
		}
		c.dists[id].sel = true
	}
	if err := p.end(); err != nil {
		return c, err
	}
	return c, c.Setup(mode, lcorr)
}

// nbcDist reads the entries of one conditional distribution block up
// to and including its closing "};".
func (p *parser) nbcDist(c *NBC, id int, frqs []float64, maxllh bool) error {
	d := &c.dists[id]
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
		if d.numeric() {
			err = p.normal(&d.num[k], frqs[k], maxllh)
		} else {
			err = p.values(d.att, &d.nom[k])
		}
		if err != nil {
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

// values reads "{ [v:] f [(p%)], ... }"
func (p *parser) values(att *attset.Attribute, d *nomDist) error {
	if err := p.expect('{'); err != nil {
		return err
	}
	vals := att.ValueCount()
	d.frqs = make([]float64, vals)
	seen := make([]bool, vals)
	v := -1
	for p.sc.Token() != '}' {
		var err error
		if v, err = p.label(att, v, vals, ErrParse); err != nil {
			return err
		}
		if seen[v] {
			return p.fail(ErrParse, "duplicate value %s", att.ValueName(v))
		}
		seen[v] = true
		f, err := p.frequency()
		if err != nil {
			return err
		}
		d.frqs[v] = f
		d.cnt += f
		if err := p.percentage(); err != nil {
			return err
		}
		if p.sc.Token() != ',' {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	return p.expect('}')
}

// normal reads "N(mean, variance) [[cnt]]" and rebuilds the sums. The
// case weight defaults to the class frequency.
func (p *parser) normal(d *numDist, frq float64, maxllh bool) error {
	if !p.sc.IsWord("N") {
		return p.fail(ErrParse, "'N' expected")
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect('('); err != nil {
		return err
	}
	mean, err := p.number()
	if err != nil {
		return err
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(','); err != nil {
		return err
	}
	v, err := p.number()
	if err != nil {
		return err
	}
	if v < 0 {
		return p.fail(ErrParse, "negative variance")
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(')'); err != nil {
		return err
	}
	cnt := frq
	if p.sc.Token() == '[' {
		if err := p.next(); err != nil {
			return err
		}
		if cnt, err = p.frequency(); err != nil {
			return err
		}
		if err := p.expect(']'); err != nil {
			return err
		}
	}
	*d = numDist{}
	if cnt > 0 {
		d.cnt = cnt
		d.sum = mean * cnt
		d.sqr = v*divisor(cnt, maxllh) + mean*mean*cnt
	}
	return nil
}
