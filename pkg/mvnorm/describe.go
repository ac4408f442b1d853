package mvnorm

import (
	"io"
	"strconv"
	"strings"

	"github.com/tabmine/bayes-classifier/pkg/scan"
)

func num(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// Describe writes the parameters as "e1, e2, ..., [v1], [c21, v2], ...":
// the expected values followed by the rows of the lower triangle of the
// covariance matrix. Every row starts on a new line indented by indent
// blanks; rows longer than maxLen (if positive) are wrapped.
func (d *Dist) Describe(w io.Writer, indent, maxLen int) error {
	var b strings.Builder
	pad := strings.Repeat(" ", indent)
	for i := 0; i < d.dim; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(num(d.exp[i]))
	}
	for i := 0; i < d.dim; i++ {
		b.WriteString(",\n")
		b.WriteString(pad)
		pos := indent + 1
		b.WriteByte('[')
		for j := 0; j <= i; j++ {
			s := num(d.Cov(i, j))
			if j > 0 {
				b.WriteByte(',')
				pos++
				if maxLen > 0 && pos+len(s)+2 > maxLen {
					b.WriteString("\n")
					b.WriteString(pad)
					b.WriteByte(' ')
					pos = indent + 1
				} else {
					b.WriteByte(' ')
					pos++
				}
			}
			b.WriteString(s)
			pos += len(s)
		}
		b.WriteByte(']')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Parse reads a body written by Describe, starting at the current
// token, and rebuilds sums that reproduce the parsed parameters for
// weight cases when Calc is run with the same estimator. A weight that
// is not positive leaves the distribution without data. Parsing stops
// after the last covariance row.
func (d *Dist) Parse(sc *scan.Scanner, weight float64, maxllh bool) error {
	exp := make([]float64, d.dim)
	for i := range exp {
		if i > 0 {
			if err := sc.Expect(','); err != nil {
				return err
			}
		}
		x, err := sc.Number()
		if err != nil {
			return err
		}
		exp[i] = x
		if err := sc.Next(); err != nil {
			return err
		}
	}
	cov := make([]float64, d.dim*d.dim)
	for i := 0; i < d.dim; i++ {
		if err := sc.Expect(','); err != nil {
			return err
		}
		if err := sc.Expect('['); err != nil {
			return err
		}
		for j := 0; j <= i; j++ {
			if j > 0 {
				if err := sc.Expect(','); err != nil {
					return err
				}
			}
			x, err := sc.Number()
			if err != nil {
				return err
			}
			if j == i && x < 0 {
				return sc.Errorf("invalid variance")
			}
			cov[i*d.dim+j], cov[j*d.dim+i] = x, x
			if err := sc.Next(); err != nil {
				return err
			}
		}
		if err := sc.Expect(']'); err != nil {
			return err
		}
	}

	d.Clear()
	n := weight
	if n <= 0 {
		return nil
	}
	div := divisor(n, maxllh)
	d.wgt = n
	for i := 0; i < d.dim; i++ {
		for j := 0; j < d.dim; j++ {
			k := i*d.dim + j
			d.cnt[k] = n
			d.sx[k] = n * exp[i]
			d.sxy[k] = cov[k]*div + n*exp[i]*exp[j]
		}
	}
	return nil
}
