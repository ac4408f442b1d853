package bayes

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// parser holds the shared grammar of classifier descriptions
type parser struct {
	sc  *scan.Scanner
	set *attset.AttSet
}

func (p *parser) fail(k error, format string, args ...interface{}) error {
	tok := p.sc.Value()
	if p.sc.AtEOF() {
		tok = ""
	}
	return &ParseError{
		Kind:   k,
		File:   p.sc.Name(),
		Line:   p.sc.Line(),
		Token:  tok,
		Detail: fmt.Sprintf(format, args...),
	}
}

func (p *parser) next() error { return fromScan(p.sc.Next()) }

func (p *parser) expect(ch rune) error { return fromScan(p.sc.Expect(ch)) }

func (p *parser) number() (float64, error) {
	x, err := p.sc.Number()
	if err != nil {
		return 0, fromScan(err)
	}
	return x, nil
}

// frequency reads a non-negative number and consumes it
func (p *parser) frequency() (float64, error) {
	f, err := p.number()
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, p.fail(ErrParse, "negative frequency")
	}
	return f, p.next()
}

// percentage skips an optional "( num % )" annotation
func (p *parser) percentage() error {
	if p.sc.Token() != '(' {
		return nil
	}
	if err := p.next(); err != nil {
		return err
	}
	x, err := p.number()
	if err != nil {
		return err
	}
	if x < 0 {
		return p.fail(ErrParse, "negative percentage")
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect('%'); err != nil {
		return err
	}
	return p.expect(')')
}

// prob consumes "prob" or its short form "P"
func (p *parser) prob() error {
	if !p.sc.IsWord("prob") && !p.sc.IsWord("P") {
		return p.fail(ErrParse, "'prob' expected")
	}
	return p.next()
}

// name checks that the current token is the name of att and consumes it
func (p *parser) name(att *attset.Attribute) error {
	if !p.sc.IsName() || p.sc.Value() != att.Name() {
		return p.fail(ErrParse, "%s expected", scan.Format(att.Name()))
	}
	return p.next()
}

// header reads "kw ( cls ) = {" and returns the class attribute id
func (p *parser) header(kw string) (int, error) {
	if !p.sc.IsWord(kw) {
		return -1, p.fail(ErrParse, "'%s' expected", kw)
	}
	if err := p.next(); err != nil {
		return -1, err
	}
	if err := p.expect('('); err != nil {
		return -1, err
	}
	if !p.sc.IsName() {
		return -1, p.fail(ErrParse, "class attribute expected")
	}
	id := p.set.Index(p.sc.Value())
	if id < 0 {
		return -1, p.fail(ErrUnknownAttribute, "%s", p.sc.Value())
	}
	if err := checkClass(p.set, id); err != nil {
		return -1, p.fail(errors.Cause(err), "%v", err)
	}
	if err := p.next(); err != nil {
		return -1, err
	}
	if err := p.expect(')'); err != nil {
		return -1, err
	}
	if err := p.expect('='); err != nil {
		return -1, err
	}
	return id, p.expect('{')
}

// params reads an optional "params = lcorr {, flag};". Flags are mapped
// to modes through allowed.
func (p *parser) params(allowed map[string]Mode) (float64, Mode, error) {
	if !p.sc.IsWord("params") {
		return 0, 0, nil
	}
	if err := p.next(); err != nil {
		return 0, 0, err
	}
	if err := p.expect('='); err != nil {
		return 0, 0, err
	}
	lcorr, err := p.number()
	if err != nil {
		return 0, 0, err
	}
	if lcorr < 0 {
		return 0, 0, p.fail(ErrParse, "negative Laplace correction")
	}
	if err := p.next(); err != nil {
		return 0, 0, err
	}
	var mode Mode
	for p.sc.Token() == ',' {
		if err := p.next(); err != nil {
			return 0, 0, err
		}
		m, ok := allowed[p.sc.Value()]
		if p.sc.Token() != scan.ID || !ok {
			return 0, 0, p.fail(ErrParse, "parameter expected")
		}
		mode |= m
		if err := p.next(); err != nil {
			return 0, 0, err
		}
	}
	return lcorr, mode, p.expect(';')
}

// label reads an optional "value :" prefix naming an index of att. If
// the current token is not followed by ':' the cyclic successor of
// prev is used.
func (p *parser) label(att *attset.Attribute, prev, n int, unknown error) (int, error) {
	if p.sc.IsName() {
		k, _, err := p.sc.Peek()
		if err != nil {
			return -1, fromScan(err)
		}
		if k == ':' {
			i := att.ValueIndex(p.sc.Value())
			if i < 0 || i >= n {
				return -1, p.fail(unknown, "%s", p.sc.Value())
			}
			if err := p.next(); err != nil {
				return -1, err
			}
			return i, p.expect(':')
		}
	}
	if n <= 0 {
		return -1, p.fail(unknown, "no values to label")
	}
	return (prev + 1) % n, nil
}

// classFreqs reads "prob(cls) = { [c:] f [(p%)], ... };". Classes
// that are not listed get frequency 0.
func (p *parser) classFreqs(cls *attset.Attribute, n int) ([]float64, error) {
	if err := p.prob(); err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if err := p.name(cls); err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	frqs := make([]float64, n)
	seen := make([]bool, n)
	i := -1
	for {
		var err error
		if i, err = p.label(cls, i, n, ErrUnknownClass); err != nil {
			return nil, err
		}
		if seen[i] {
			return nil, p.fail(ErrDuplicateClass, "%s", cls.ValueName(i))
		}
		seen[i] = true
		if frqs[i], err = p.frequency(); err != nil {
			return nil, err
		}
		if err := p.percentage(); err != nil {
			return nil, err
		}
		if p.sc.Token() != ',' {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expect('}'); err != nil {
		return nil, err
	}
	return frqs, p.expect(';')
}

// end reads the closing "} ;" of a block
func (p *parser) end() error {
	if err := p.expect('}'); err != nil {
		return err
	}
	return p.expect(';')
}

func checkClass(set *attset.AttSet, clsID int) error {
	if clsID < 0 || clsID >= set.Count() {
		return errors.Wrapf(ErrInvalidArgument, "class attribute %d out of range", clsID)
	}
	att := set.Attr(clsID)
	if att.Type() != attset.Nominal {
		return errors.Wrapf(ErrInvalidArgument, "class attribute %s is not nominal", att.Name())
	}
	if att.ValueCount() < 1 {
		return errors.Wrapf(ErrInvalidArgument, "class attribute %s has no values", att.Name())
	}
	return nil
}
