package bayes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassVecGrowth(t *testing.T) {
	var v classVec
	steps := []struct {
		ensure   int
		capacity int
	}{
		{1, 16},
		{16, 16},
		{17, 32},
		{33, 48},
		{100, 100},
	}
	for _, s := range steps {
		require.NoError(t, v.ensure(s.ensure))
		assert.Equal(t, s.capacity, v.capacity(), "ensure(%d)", s.ensure)
		assert.Equal(t, s.ensure, v.n)
		assert.Len(t, v.priors, v.capacity())
		assert.Len(t, v.posts, v.capacity())
	}
	for _, f := range v.frqs {
		assert.Equal(t, 0.0, f)
	}

	err := v.ensure(MaxClasses + 1)
	require.Error(t, err)
	assert.Equal(t, ErrOutOfMemory, errors.Cause(err))
	assert.Equal(t, 100, v.n, "failed growth keeps the old state")
}

func TestEstimatePriors(t *testing.T) {
	tests := []struct {
		name  string
		frqs  []float64
		lcorr float64
		want  []float64
	}{
		{"plain", []float64{1, 3}, 0, []float64{0.25, 0.75}},
		{"laplace", []float64{1, 3}, 1, []float64{2.0 / 6, 4.0 / 6}},
		{"empty class", []float64{0, 4, 0}, 0.5, []float64{0.5 / 5.5, 4.5 / 5.5, 0.5 / 5.5}},
		{"no evidence", []float64{0, 0}, 0, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := 0.0
			for _, f := range tt.frqs {
				total += f
			}
			priors := make([]float64, len(tt.frqs))
			estimatePriors(tt.frqs, total, tt.lcorr, priors)
			assert.InDeltaSlice(t, tt.want, priors, 1e-12)
		})
	}
}

func TestNormalize(t *testing.T) {
	posts := []float64{1, 3, 3}
	assert.Equal(t, 1, normalize(posts), "first maximum wins")
	assert.InDeltaSlice(t, []float64{1.0 / 7, 3.0 / 7, 3.0 / 7}, posts, 1e-12)

	zero := []float64{0, 0}
	assert.Equal(t, 0, normalize(zero))
	assert.Equal(t, []float64{0, 0}, zero)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		cls       int
		conf      float64
		count     int
		threshold float64
		wantCls   int
		wantConf  float64
	}{
		{"class 0 kept at 0.5", 0, 0.6, 2, 0.5, 0, 0.6},
		{"class 1 kept at 0.5", 1, 0.7, 2, 0.5, 1, 0.7},
		{"tie kept at 0.5", 0, 0.5, 2, 0.5, 0, 0.5},
		{"class 0 below threshold", 0, 0.8, 2, 0.9, 1, 0.2},
		// class 0 would need 0.9 and has only 0.2, so class 1 stays;
		// the mirrored case is "class 0 below threshold" above
		{"class 1 kept at high threshold", 1, 0.8, 2, 0.9, 1, 0.8},
		{"class 1 below complement", 1, 0.8, 2, 0.1, 0, 0.2},
		{"single class", 0, 0.3, 1, 0.9, 0, 0.3},
		{"three classes", 0, 0.4, 3, 0.9, 0, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, conf := Decide(tt.cls, tt.conf, tt.count, tt.threshold)
			assert.Equal(t, tt.wantCls, cls)
			assert.InDelta(t, tt.wantConf, conf, 1e-12)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrNotReady, ErrInvalidArgument))
	assert.True(t, errors.Is(ErrDuplicateClass, ErrParse))
	assert.True(t, errors.Is(ErrMissingAttribute, ErrParse))
	assert.False(t, errors.Is(ErrParse, ErrDuplicateClass))
	assert.False(t, errors.Is(ErrOutOfMemory, ErrParse))

	err := &ParseError{Kind: ErrUnknownClass, File: "m.bc", Line: 3, Token: "Z", Detail: "Z"}
	assert.Equal(t, `m.bc:3: unknown class: Z (at "Z")`, err.Error())
	assert.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, ErrUnknownClass, errors.Cause(err))
}
