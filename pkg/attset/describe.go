package attset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// DescOptions controls the output of Describe
type DescOptions struct {
	Title      bool // comment header with the set name
	Intervals  bool // value ranges of numeric attributes
	Directions bool // ": in", ": out", ...
	Marked     bool // only attributes with a non-negative mark
	MaxLen     int  // maximal output line length, 0 for none
}

// WriteTitle writes a comment block holding title. It is shared by all
// textual descriptions.
func WriteTitle(w io.Writer, title string, maxLen int) error {
	n := 70
	if maxLen > 0 {
		n = maxLen - 2
	}
	dashes := strings.Repeat("-", n)
	_, err := fmt.Fprintf(w, "/*%s\n  %s\n%s*/\n", dashes, title, dashes)
	return err
}

// Describe writes the domain definitions of the set in a form that
// Parse reads back.
func (s *AttSet) Describe(w io.Writer, opts DescOptions) error {
	bw := bufio.NewWriter(w)
	if opts.Title {
		if err := WriteTitle(bw, s.name, opts.MaxLen); err != nil {
			return err
		}
	}
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = math.MaxInt32
	}
	for _, a := range s.atts {
		if opts.Marked && a.mark < 0 {
			continue
		}
		head := fmt.Sprintf("dom(%s) = ", scan.Format(a.name))
		bw.WriteString(head)
		switch a.typ {
		case Integer:
			bw.WriteString("ZZ")
			if lo, hi, ok := a.Range(); opts.Intervals && ok {
				fmt.Fprintf(bw, " [%d, %d]", int(lo), int(hi))
			}
		case Real:
			bw.WriteString("IR")
			if lo, hi, ok := a.Range(); opts.Intervals && ok {
				fmt.Fprintf(bw, " [%g, %g]", lo, hi)
			}
		default:
			bw.WriteString("{")
			pos := utf8.RuneCountInString(head) + 1
			for k, v := range a.vals {
				if k > 0 {
					bw.WriteByte(',')
					pos++
				}
				name := scan.Format(v)
				n := utf8.RuneCountInString(name)
				if pos+n > maxLen-4 && pos > 2 {
					bw.WriteString("\n ")
					pos = 1
				}
				bw.WriteByte(' ')
				bw.WriteString(name)
				pos += n + 1
			}
			bw.WriteString(" }")
		}
		if opts.Directions {
			fmt.Fprintf(bw, " : %s", a.dir)
		}
		bw.WriteString(";\n")
	}
	return bw.Flush()
}
