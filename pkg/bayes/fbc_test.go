package bayes

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterDomains = `
dom(x)     = IR;
dom(y)     = IR;
dom(color) = { red, blue };
dom(cls)   = { A, B };
`

func clusterFBC(t *testing.T) *FBC {
	t.Helper()
	set := domains(t, clusterDomains)
	c, err := NewFBC(set, 3, Borrowed)
	require.NoError(t, err)
	rows := [][]string{
		{"0", "0", "red", "A"},
		{"1", "1", "blue", "A"},
		{"2", "1.5", "red", "A"},
		{"1", "0.5", "?", "A"},
		{"10", "10", "red", "B"},
		{"11", "12", "blue", "B"},
		{"12", "11", "blue", "B"},
		{"10.5", "10", "red", "B"},
	}
	for _, r := range rows {
		require.NoError(t, c.Add(inst(t, set, 1, r...)))
	}
	return c
}

func TestFBCEstimatesClassDistributions(t *testing.T) {
	c := clusterFBC(t)
	require.NoError(t, c.Setup(0, 0))

	assert.Equal(t, []int{0, 1}, c.NumericIDs())
	assert.InDelta(t, 0.5, c.Prior(0), 1e-12)
	d := c.Dist(0)
	assert.InDelta(t, 1.0, d.Exp(0), 1e-12)
	assert.InDelta(t, 0.75, d.Exp(1), 1e-12)
	assert.InDelta(t, 2.0/3, d.Var(0), 1e-12)
	assert.InDelta(t, 1.25/3, d.Var(1), 1e-12)
	assert.InDelta(t, 0.5, d.Cov(1, 0), 1e-12)

	require.NoError(t, c.Setup(MaxLLH|DWNull, 0))
	assert.Equal(t, MaxLLH, c.Mode(), "only the estimator flag is kept")
	assert.InDelta(t, 0.5, c.Dist(0).Var(0), 1e-12)
}

func TestFBCSeparatesClusters(t *testing.T) {
	c := clusterFBC(t)
	require.NoError(t, c.Setup(0, 0))
	set := c.AttSet()

	tests := []struct {
		name string
		x, y string
		cls  int
	}{
		{"near A", "1", "0.8", 0},
		{"near B", "11", "11", 1},
		{"only x known", "10.8", "?", 1},
		{"only y known", "?", "0.4", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, conf, err := c.Exec(inst(t, set, 1, tt.x, tt.y, "red", "?"))
			require.NoError(t, err)
			assert.Equal(t, tt.cls, cls)
			assert.Greater(t, conf, 0.99)
			sum := 0.0
			for _, p := range c.Posts() {
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-12)
		})
	}

	cls, conf, err := c.Exec(inst(t, set, 1, "?", "?", "?", "?"))
	require.NoError(t, err)
	assert.Equal(t, 0, cls, "without evidence the priors decide")
	assert.InDelta(t, 0.5, conf, 1e-12)
}

func TestFBCPriors(t *testing.T) {
	set := domains(t, "dom(x) = IR; dom(cls) = { A, B, C };")
	c, err := NewFBC(set, 1, Borrowed)
	require.NoError(t, err)

	require.NoError(t, c.Setup(0, 0))
	for k := 0; k < 3; k++ {
		assert.Equal(t, 0.0, c.Prior(k), "no data and no correction")
	}
	cls, conf, err := c.Exec(inst(t, set, 1, "1", "?"))
	require.NoError(t, err)
	assert.Equal(t, 0, cls)
	assert.Equal(t, 0.0, conf)

	for _, r := range [][]string{{"1", "A"}, {"2", "A"}, {"3", "B"}} {
		require.NoError(t, c.Add(inst(t, set, 1, r...)))
	}
	require.NoError(t, c.Setup(0, 0))
	assert.Equal(t, 0.0, c.Prior(2))
	require.NoError(t, c.Setup(0, 1))
	assert.InDelta(t, 1.0/6, c.Prior(2), 1e-12)
	assert.InDelta(t, 3.0/6, c.Prior(0), 1e-12)
}

func TestFBCAddRequiresNewSetup(t *testing.T) {
	c := clusterFBC(t)
	set := c.AttSet()
	require.NoError(t, c.Setup(0, 0))
	_, _, err := c.Exec(inst(t, set, 1, "1", "1", "?", "?"))
	require.NoError(t, err)

	require.NoError(t, c.Add(inst(t, set, 1, "1", "1", "red", "A")))
	_, _, err = c.Exec(inst(t, set, 1, "1", "1", "?", "?"))
	assert.Equal(t, ErrNotReady, errors.Cause(err))

	require.NoError(t, c.Setup(0, 0))
	assert.InDelta(t, 5.0/9, c.Prior(0), 1e-12)
}

func TestFBCPreconditions(t *testing.T) {
	c := clusterFBC(t)
	_, _, err := c.Exec(c.AttSet())
	assert.Equal(t, ErrNotReady, errors.Cause(err))
	assert.Equal(t, ErrInvalidArgument, errors.Cause(c.Setup(0, -0.5)))

	_, err = NewFBC(c.AttSet(), 0, Borrowed)
	assert.Equal(t, ErrInvalidArgument, errors.Cause(err), "numeric class")
}

func TestFBCDescribeParseRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		lcorr    float64
		flags    DescFlags
		wildcard bool
	}{
		{"attribute list", 0, 0, Title | Rel, false},
		{"wildcard", MaxLLH, 0.5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clusterFBC(t)
			require.NoError(t, c.Setup(tt.mode, tt.lcorr))
			text := describe(t, c, tt.flags)
			require.Contains(t, text, "prob(x,y|cls) = {")
			if tt.wildcard {
				text = strings.Replace(text, "prob(x,y|cls)", "prob(*|cls)", 1)
			}

			parsed, err := parse(t, c.AttSet(), text)
			require.NoError(t, err, text)
			p, ok := parsed.(*FBC)
			require.True(t, ok)
			assert.Equal(t, c.Mode(), p.Mode())
			assert.Equal(t, tt.lcorr, p.LaplaceCorr())
			for k := 0; k < 2; k++ {
				assert.InDelta(t, c.Prior(k), p.Prior(k), 1e-9)
				for i := 0; i < 2; i++ {
					assert.InDelta(t, c.Dist(k).Exp(i), p.Dist(k).Exp(i), 1e-9)
					for j := 0; j <= i; j++ {
						assert.InDelta(t, c.Dist(k).Cov(i, j), p.Dist(k).Cov(i, j), 1e-9)
					}
				}
			}

			set := c.AttSet()
			want, wantConf, err := c.Exec(inst(t, set, 1, "3", "2", "?", "?"))
			require.NoError(t, err)
			got, gotConf, err := p.Exec(set)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.InDelta(t, wantConf, gotConf, 1e-9)
		})
	}
}

func TestFBCDescribeFormat(t *testing.T) {
	set := domains(t, "dom(x) = IR; dom(cls) = { A, B };")
	c, err := NewFBC(set, 1, Borrowed)
	require.NoError(t, err)
	for _, r := range [][]string{{"1", "A"}, {"3", "A"}, {"5", "B"}} {
		require.NoError(t, c.Add(inst(t, set, 1, r...)))
	}
	require.NoError(t, c.Setup(0, 0))

	assert.Equal(t, "fbc(cls) = {\n"+
		"  prob(cls) = {\n    A: 2,\n    B: 1 };\n"+
		"  prob(x|cls) = {\n"+
		"    A: N(2,\n           [2]),\n"+
		"    B: N(5,\n           [1e-12]) };\n"+
		"};\n", describe(t, c, 0))
}

func TestFBCParseErrors(t *testing.T) {
	const head = "fbc(cls) = { prob(cls) = { A: 1, B: 1 }; "
	const a = "A: N(0, 0, [1], [0, 1])"
	const b = "B: N(5, 5, [1], [0.5, 1])"
	tests := []struct {
		name string
		text string
		kind error
	}{
		{"unknown attribute", head + "prob(x,z|cls) = { " + a + ", " + b + " }; };", ErrUnknownAttribute},
		{"duplicate attribute", head + "prob(x,x|cls) = { " + a + ", " + b + " }; };", ErrDuplicateAttribute},
		{"nominal attribute listed", head + "prob(x,color|cls) = { " + a + ", " + b + " }; };", ErrUnknownAttribute},
		{"class attribute listed", head + "prob(cls,x|cls) = { " + a + ", " + b + " }; };", ErrUnknownAttribute},
		{"missing attribute", head + "prob(x|cls) = { " + a + ", " + b + " }; };", ErrMissingAttribute},
		{"duplicate class", head + "prob(*|cls) = { " + a + ", " + a + " }; };", ErrDuplicateClass},
		{"missing class", head + "prob(*|cls) = { " + a + " }; };", ErrMissingClass},
		{"unknown class", head + "prob(*|cls) = { C: N(0, 0, [1], [0, 1]) }; };", ErrUnknownClass},
		{"negative variance", head + "prob(*|cls) = { A: N(0, 0, [-1], [0, 1]), " + b + " }; };", ErrParse},
		{"short body", head + "prob(*|cls) = { A: N(0, [1]), " + b + " }; };", ErrParse},
		{"nbc parameter", "fbc(cls) = { params = 0, dwnull; };", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := domains(t, clusterDomains)
			c, err := parse(t, set, tt.text)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, tt.kind, errors.Cause(err), err.Error())
			assert.True(t, errors.Is(err, ErrParse))
		})
	}
}

func TestFBCParseNamesNonNumericAttribute(t *testing.T) {
	set := domains(t, clusterDomains)
	_, err := parse(t, set, "fbc(cls) = { prob(cls) = { A: 1, B: 1 }; prob(x,y,color|cls) = { }; };")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color is not numeric")
	assert.NotEqual(t, ErrDuplicateAttribute, errors.Cause(err))
}

func TestFBCParseSkipsEmptyClasses(t *testing.T) {
	set := domains(t, clusterDomains)
	c, err := parse(t, set, `fbc(cls) = {
		prob(cls) = { A: 2, B: 0 };
		prob(x,y|cls) = { A: N(1, 2, [1], [0.5, 2]) };
	};`)
	require.NoError(t, err)
	f := c.(*FBC)
	assert.Equal(t, 0.0, f.Dist(1).Weight())
	cls, conf, err := f.Exec(inst(t, set, 1, "1", "2", "?", "?"))
	require.NoError(t, err)
	assert.Equal(t, 0, cls)
	assert.InDelta(t, 1.0, conf, 1e-12)
}

func TestFBCMark(t *testing.T) {
	c := clusterFBC(t)
	set := c.AttSet()
	assert.Equal(t, 3, c.Mark())
	assert.Equal(t, 1, set.Attr(0).Mark())
	assert.Equal(t, 1, set.Attr(1).Mark())
	assert.Equal(t, -1, set.Attr(2).Mark(), "nominal attributes are not used")
	assert.Equal(t, 0, set.Attr(3).Mark())
}

func TestFBCRand(t *testing.T) {
	set := domains(t, "dom(x) = IR; dom(n) = ZZ; dom(cls) = { A, B };")
	tab := table(t, set, "0 0 A", "1 2 A", "2 1 A", "10 20 B", "11 22 B", "12 21 B")
	c, err := InduceFBC(tab, 2, 0, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 5))
	counts := make([]int, 2)
	for i := 0; i < 1000; i++ {
		x := c.Rand(rng)
		require.Len(t, x, 2)
		k := set.Value(2).I
		counts[k]++
		assert.Equal(t, x[0], set.Value(0).F)
		assert.Equal(t, int(math.Round(x[1])), set.Value(1).I, "integer attributes are rounded")
		if k == 1 {
			assert.Greater(t, x[0], 5.0)
		} else {
			assert.Less(t, x[0], 6.0)
		}
	}
	assert.InDelta(t, 0.5, float64(counts[0])/1000, 0.06)
}

func TestFBCGrowsClassStorage(t *testing.T) {
	set := domains(t, "dom(x) = IR; dom(cls) = { c0 };")
	c, err := NewFBC(set, 1, Borrowed)
	require.NoError(t, err)
	for _, v := range []string{"c1", "c2", "c3"} {
		set.Attr(1).AddValue(v)
	}
	require.NoError(t, c.Add(inst(t, set, 1, "1", "c0")))
	require.NoError(t, c.Add(inst(t, set, 2, "7", "c3")))
	require.Equal(t, 4, c.ClassCount())
	assert.Equal(t, 2.0, c.ClassFreq(3))
	assert.Equal(t, 0.0, c.Dist(1).Weight())

	require.NoError(t, c.Setup(0, 0))
	cls, _, err := c.Exec(inst(t, set, 1, "7", "?"))
	require.NoError(t, err)
	assert.Equal(t, 3, cls)
	assert.Equal(t, 0.0, c.Post(1))
}

func TestFBCWithoutNumericAttributes(t *testing.T) {
	set := domains(t, "dom(color) = { red, blue }; dom(cls) = { A, B };")
	c, err := NewFBC(set, 1, Borrowed)
	require.NoError(t, err)
	for _, r := range [][]string{{"red", "A"}, {"blue", "A"}, {"red", "A"}, {"red", "B"}} {
		require.NoError(t, c.Add(inst(t, set, 1, r...)))
	}
	require.NoError(t, c.Setup(0, 0))
	assert.Equal(t, 1, c.Mark())

	cls, conf, err := c.Exec(inst(t, set, 1, "blue", "?"))
	require.NoError(t, err)
	assert.Equal(t, 0, cls)
	assert.InDelta(t, 0.75, conf, 1e-12)

	text := describe(t, c, 0)
	assert.NotContains(t, text, "|cls")
	p, err := parse(t, set, text)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p.Prior(0), 1e-12)
}

func TestFBCCloneAndInduce(t *testing.T) {
	c := clusterFBC(t)
	require.NoError(t, c.Setup(0, 0))
	private := c.Clone(Owned)
	assert.NotSame(t, c.AttSet(), private.AttSet())
	assert.InDelta(t, c.Dist(1).Cov(1, 0), private.Dist(1).Cov(1, 0), 1e-12)

	require.NoError(t, c.Add(inst(t, c.AttSet(), 8, "50", "50", "red", "B")))
	require.NoError(t, c.Setup(0, 0))
	assert.NotEqual(t, c.Dist(1).Exp(0), private.Dist(1).Exp(0))

	own := private.AttSet()
	private.Delete()
	assert.Equal(t, 0, own.Count())
	assert.Equal(t, 4, c.AttSet().Count())

	set := domains(t, "dom(x) = IR; dom(cls) = { A, B };")
	tab := table(t, set, "1 A", "2 A", "9 B")
	f, err := InduceFBC(tab, 1, Clone|MaxLLH, 0)
	require.NoError(t, err)
	assert.NotSame(t, set, f.AttSet())
	assert.Equal(t, MaxLLH, f.Mode())
	assert.InDelta(t, 0.25, f.Dist(0).Var(0), 1e-12)
}
