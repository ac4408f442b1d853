package attset

import (
	"strings"

	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// ParseErrors collects the syntax errors of a domain description
type ParseErrors []*scan.Error

func (e ParseErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

var typeWords = map[string]Type{
	"ZZ": Integer, "Z": Integer, "int": Integer, "integer": Integer,
	"IR": Real, "R": Real, "real": Real, "float": Real,
}

var dirWords = map[string]Direction{
	"none": DirNone, "in": DirIn, "out": DirOut, "id": DirID, "wgt": DirWeight,
}

// Parse reads domain definitions ("dom(name) = ...;") until the next
// token does not start one. A faulty definition is skipped up to its
// terminating ';' so that all errors of a description are reported.
func (s *AttSet) Parse(sc *scan.Scanner) error {
	var errs ParseErrors
	for sc.IsWord("dom") || sc.IsWord("domain") {
		if err := s.parseDomain(sc); err != nil {
			serr, ok := err.(*scan.Error)
			if !ok {
				return err
			}
			errs = append(errs, serr)
			sc.Recover(';')
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if len(s.atts) == 0 {
		return ParseErrors{sc.Errorf("'dom' expected")}
	}
	return nil
}

func (s *AttSet) parseDomain(sc *scan.Scanner) error {
	if err := sc.Next(); err != nil {
		return err
	}
	if err := sc.Expect('('); err != nil {
		return err
	}
	if !sc.IsName() {
		return sc.Errorf("attribute name expected")
	}
	name := sc.Value()
	if s.Lookup(name) != nil {
		return sc.Errorf("duplicate attribute %s", name)
	}
	if err := sc.Next(); err != nil {
		return err
	}
	if err := sc.Expect(')'); err != nil {
		return err
	}
	if err := sc.Expect('='); err != nil {
		return err
	}

	var att *Attribute
	switch {
	case sc.Token() == '{':
		att = NewAttribute(name, Nominal)
		if err := parseValues(sc, att); err != nil {
			return err
		}
	case sc.Token() == scan.ID && typeWords[sc.Value()] != 0:
		att = NewAttribute(name, typeWords[sc.Value()])
		if err := sc.Next(); err != nil {
			return err
		}
		if sc.Token() == '[' {
			if err := parseRange(sc, att); err != nil {
				return err
			}
		}
	default:
		return sc.Errorf("domain expected")
	}

	if sc.Token() == ':' {
		if err := sc.Next(); err != nil {
			return err
		}
		d, ok := dirWords[sc.Value()]
		if sc.Token() != scan.ID || !ok {
			return sc.Errorf("direction expected")
		}
		att.dir = d
		if err := sc.Next(); err != nil {
			return err
		}
	}
	if sc.Token() == ',' {
		if err := sc.Next(); err != nil {
			return err
		}
		w, err := sc.Number()
		if err != nil {
			return err
		}
		if w <= NullReal {
			return sc.Errorf("invalid attribute weight")
		}
		att.weight = w
		if err := sc.Next(); err != nil {
			return err
		}
	}
	if err := sc.Expect(';'); err != nil {
		return err
	}
	return s.Add(att)
}

func parseValues(sc *scan.Scanner, att *Attribute) error {
	if err := sc.Expect('{'); err != nil {
		return err
	}
	if sc.Token() != '}' {
		for {
			if !sc.IsName() {
				return sc.Errorf("attribute value expected")
			}
			if att.ValueIndex(sc.Value()) >= 0 {
				return sc.Errorf("duplicate value %s", sc.Value())
			}
			att.AddValue(sc.Value())
			if err := sc.Next(); err != nil {
				return err
			}
			if sc.Token() != ',' {
				break
			}
			if err := sc.Next(); err != nil {
				return err
			}
		}
	}
	return sc.Expect('}')
}

func parseRange(sc *scan.Scanner, att *Attribute) error {
	if err := sc.Expect('['); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if sc.Token() != scan.NUM {
			return sc.Errorf("number expected")
		}
		if _, err := att.Parse(sc.Value(), true); err != nil {
			return sc.Errorf("invalid bound")
		}
		if err := sc.Next(); err != nil {
			return err
		}
		if i == 0 {
			if err := sc.Expect(','); err != nil {
				return err
			}
		}
	}
	return sc.Expect(']')
}
