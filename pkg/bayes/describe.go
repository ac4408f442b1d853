package bayes

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

// className returns the name of class c. Classes beyond the domain of
// the class attribute can only come from instances built by hand.
func className(cls *attset.Attribute, c int) string {
	if c < cls.ValueCount() {
		return cls.ValueName(c)
	}
	return strconv.Itoa(c)
}

func valueWidth(att *attset.Attribute) int {
	w := 0
	for i := 0; i < att.ValueCount(); i++ {
		if n := utf8.RuneCountInString(scan.Format(att.ValueName(i))); n > w {
			w = n
		}
	}
	return w
}

// padded returns the quoted value name followed by blanks up to width
func padded(name string, width int) string {
	s := scan.Format(name)
	if n := utf8.RuneCountInString(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

// writeParams writes the params line if the estimation parameters
// differ from the defaults.
func writeParams(w *bufio.Writer, lcorr float64, mode Mode, flags []Mode, names []string) {
	used := false
	for _, f := range flags {
		used = used || mode&f != 0
	}
	if lcorr <= 0 && !used {
		return
	}
	fmt.Fprintf(w, "  params = %g", lcorr)
	for i, f := range flags {
		if mode&f != 0 {
			w.WriteString(", " + names[i])
		}
	}
	w.WriteString(";\n")
}

// writeClassFreqs writes the class distribution block
func writeClassFreqs(w *bufio.Writer, cls *attset.Attribute, frqs, priors []float64, rel bool) {
	name := scan.Format(cls.Name())
	fmt.Fprintf(w, "  prob(%s) = {\n    ", name)
	width := valueWidth(cls)
	for c := range frqs {
		if c > 0 {
			w.WriteString(",\n    ")
		}
		fmt.Fprintf(w, "%s: %g", padded(className(cls, c), width), frqs[c])
		if rel {
			fmt.Fprintf(w, " (%.1f%%)", priors[c]*100)
		}
	}
	w.WriteString(" };\n")
}
