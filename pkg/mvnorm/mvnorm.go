package mvnorm

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Flags select what Calc computes
const (
	ExpVar  = 0x01 // expected values and variances
	Covar   = 0x02 // covariances
	Inverse = 0x04 // inverse covariance matrix
	Decom   = 0x08 // Cholesky decomposition and log-determinant
	MaxLLH  = 0x80 // maximum likelihood estimators (divide by n)
)

// Null marks a coordinate whose value is unknown
const Null = -math.MaxFloat64

// MinVariance is the smallest variance of a coordinate with data
const MinVariance = 1e-12

// IsNull reports whether x is the null coordinate
func IsNull(x float64) bool { return x <= Null }

var log2Pi = math.Log(2 * math.Pi)

// Dist is a multivariate normal distribution estimated from weighted
// vectors. A null coordinate is left out of every sum it takes part in,
// so each covariance is estimated from the cases in which both of its
// coordinates are known.
type Dist struct {
	dim int
	wgt float64
	cnt []float64 // cnt[i*dim+j]: weight of cases with x_i and x_j known
	sx  []float64 // sx[i*dim+j]: sum of x_i over those cases
	sxy []float64 // sum of x_i*x_j over those cases

	flags  int
	exp    []float64
	cov    *mat.SymDense
	eff    *mat.SymDense // decomposed covariance, ridge included
	chol   *mat.Cholesky
	inv    *mat.SymDense
	logDet float64
}

// New creates an empty distribution over dim coordinates
func New(dim int) *Dist {
	n := dim * dim
	return &Dist{
		dim: dim,
		cnt: make([]float64, n),
		sx:  make([]float64, n),
		sxy: make([]float64, n),
		exp: make([]float64, dim),
	}
}

// Dim returns the number of coordinates
func (d *Dist) Dim() int { return d.dim }

// Weight returns the total weight of the added vectors
func (d *Dist) Weight() float64 { return d.wgt }

// Clear removes all accumulated data and computed parameters
func (d *Dist) Clear() {
	d.wgt = 0
	for i := range d.cnt {
		d.cnt[i], d.sx[i], d.sxy[i] = 0, 0, 0
	}
	for i := range d.exp {
		d.exp[i] = 0
	}
	d.flags = 0
	d.cov, d.eff, d.chol, d.inv = nil, nil, nil, nil
	d.logDet = 0
}

// Clone returns an independent copy, recomputing parameters if the
// source had any.
func (d *Dist) Clone() *Dist {
	c := New(d.dim)
	c.wgt = d.wgt
	copy(c.cnt, d.cnt)
	copy(c.sx, d.sx)
	copy(c.sxy, d.sxy)
	if d.flags != 0 {
		c.Calc(d.flags)
	}
	return c
}

// Add accumulates vec with weight wgt. vec must have Dim entries.
func (d *Dist) Add(vec []float64, wgt float64) {
	d.wgt += wgt
	for i := 0; i < d.dim; i++ {
		xi := vec[i]
		if IsNull(xi) {
			continue
		}
		for j := 0; j < d.dim; j++ {
			xj := vec[j]
			if IsNull(xj) {
				continue
			}
			k := i*d.dim + j
			d.cnt[k] += wgt
			d.sx[k] += wgt * xi
			d.sxy[k] += wgt * xi * xj
		}
	}
}

func divisor(n float64, maxllh bool) float64 {
	if maxllh || n <= 1 {
		return n
	}
	return n - 1
}

// Calc turns the accumulated sums into parameters. Variances are
// floored at MinVariance for coordinates with data. If the covariance
// matrix is not positive definite a growing ridge is added to its
// diagonal before decomposition.
func (d *Dist) Calc(flags int) {
	d.flags = flags
	maxllh := flags&MaxLLH != 0
	cov := mat.NewSymDense(max(d.dim, 1), nil)
	for i := 0; i < d.dim; i++ {
		k := i*d.dim + i
		n := d.cnt[k]
		if n <= 0 {
			d.exp[i] = 0
			continue
		}
		d.exp[i] = d.sx[k] / n
		v := (d.sxy[k] - d.sx[k]*d.sx[k]/n) / divisor(n, maxllh)
		cov.SetSym(i, i, math.Max(v, MinVariance))
	}
	if flags&Covar != 0 {
		for i := 0; i < d.dim; i++ {
			for j := 0; j < i; j++ {
				k := i*d.dim + j
				n := d.cnt[k]
				if n <= 0 {
					continue
				}
				c := (d.sxy[k] - d.sx[k]*d.sx[j*d.dim+i]/n) / divisor(n, maxllh)
				cov.SetSym(i, j, c)
			}
		}
	}
	d.cov = cov
	d.eff, d.chol, d.inv, d.logDet = nil, nil, nil, 0
	if d.dim == 0 || flags&(Decom|Inverse) == 0 {
		return
	}
	d.decompose()
	if flags&Inverse != 0 {
		var inv mat.SymDense
		if err := d.chol.InverseTo(&inv); err == nil {
			d.inv = &inv
		}
	}
}

func (d *Dist) decompose() {
	trace := 0.0
	for i := 0; i < d.dim; i++ {
		trace += d.cov.At(i, i)
	}
	ridge := 1e-10 * math.Max(trace/float64(d.dim), MinVariance)
	eff := d.covCopy()
	for try := 0; try < 12; try++ {
		var chol mat.Cholesky
		if chol.Factorize(eff) {
			d.eff, d.chol, d.logDet = eff, &chol, chol.LogDet()
			return
		}
		eff = d.covCopy()
		for i := 0; i < d.dim; i++ {
			eff.SetSym(i, i, eff.At(i, i)+ridge)
		}
		ridge *= 10
	}
	// drop the correlations
	eff = mat.NewSymDense(d.dim, nil)
	for i := 0; i < d.dim; i++ {
		eff.SetSym(i, i, math.Max(d.cov.At(i, i), MinVariance))
	}
	var chol mat.Cholesky
	chol.Factorize(eff)
	d.eff, d.chol, d.logDet = eff, &chol, chol.LogDet()
}

// covCopy returns a copy of the covariance matrix
func (d *Dist) covCopy() *mat.SymDense {
	c := mat.NewSymDense(d.dim, nil)
	c.CopySym(d.cov)
	return c
}

// Exp returns the expected value of coordinate i
func (d *Dist) Exp(i int) float64 { return d.exp[i] }

// Var returns the variance of coordinate i
func (d *Dist) Var(i int) float64 {
	if d.cov == nil {
		return 0
	}
	return d.cov.At(i, i)
}

// Cov returns the covariance of coordinates i and j
func (d *Dist) Cov(i, j int) float64 {
	if d.cov == nil {
		return 0
	}
	return d.cov.At(i, j)
}

// Count returns the weight of the cases in which coordinate i is known
func (d *Dist) Count(i int) float64 { return d.cnt[i*d.dim+i] }

// Eval returns the density at vec. Null coordinates are integrated
// out, so a vector without known coordinates has density 1. A
// distribution without data has density 0 everywhere else.
func (d *Dist) Eval(vec []float64) float64 {
	idx := make([]int, 0, d.dim)
	for i := 0; i < d.dim; i++ {
		if !IsNull(vec[i]) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 1
	}
	if d.wgt <= 0 || d.cov == nil {
		return 0
	}
	if d.chol == nil {
		p := 1.0
		for _, i := range idx {
			v := d.cov.At(i, i)
			z := vec[i] - d.exp[i]
			p *= math.Exp(-0.5*(z*z/v+math.Log(v)+log2Pi))
		}
		return p
	}
	k := len(idx)
	diff := mat.NewVecDense(k, nil)
	for n, i := range idx {
		diff.SetVec(n, vec[i]-d.exp[i])
	}
	var q, logDet float64
	switch {
	case k == d.dim && d.inv != nil:
		q = mat.Inner(diff, d.inv, diff)
		logDet = d.logDet
	case k == d.dim:
		q = solveInner(d.chol, diff)
		logDet = d.logDet
	default:
		sub := mat.NewSymDense(k, nil)
		for a, i := range idx {
			for b := 0; b <= a; b++ {
				sub.SetSym(a, b, d.eff.At(i, idx[b]))
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(sub) {
			return 0
		}
		q = solveInner(&chol, diff)
		logDet = chol.LogDet()
	}
	return math.Exp(-0.5 * (q + logDet + float64(k)*log2Pi))
}

func solveInner(chol *mat.Cholesky, x *mat.VecDense) float64 {
	var y mat.VecDense
	if err := chol.SolveVecTo(&y, x); err != nil {
		return math.Inf(1)
	}
	return mat.Dot(x, &y)
}

// Rand draws a vector from the distribution
func (d *Dist) Rand(rng *rand.Rand) []float64 {
	x := make([]float64, d.dim)
	copy(x, d.exp)
	if d.cov == nil {
		return x
	}
	if d.chol == nil {
		for i := range x {
			x[i] += math.Sqrt(d.cov.At(i, i)) * rng.NormFloat64()
		}
		return x
	}
	z := make([]float64, d.dim)
	for i := range z {
		z[i] = rng.NormFloat64()
	}
	// cov = U'U, so x = mu + U'z
	u := d.chol.RawU()
	for i := 0; i < d.dim; i++ {
		for k := 0; k <= i; k++ {
			x[i] += u.At(k, i) * z[k]
		}
	}
	return x
}
