package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, text string) ([]Kind, []string) {
	s, err := NewString(text, "test")
	require.NoError(t, err)
	var kinds []Kind
	var values []string
	for !s.AtEOF() {
		kinds = append(kinds, s.Token())
		values = append(values, s.Value())
		require.NoError(t, s.Next())
	}
	return kinds, values
}

func TestScannerTokens(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		kinds  []Kind
		values []string
	}{
		{
			name:   "domain statement",
			text:   "dom(color) = { red, 'dark blue' };",
			kinds:  []Kind{ID, '(', ID, ')', '=', '{', ID, ',', ID, '}', ';'},
			values: []string{"dom", "(", "color", ")", "=", "{", "red", ",", "dark blue", "}", ";"},
		},
		{
			name:   "numbers and percentages",
			text:   "A: 2 (50.0%), -1.5e-3",
			kinds:  []Kind{ID, ':', NUM, '(', NUM, '%', ')', ',', NUM},
			values: []string{"A", ":", "2", "(", "50.0", "%", ")", ",", "-1.5e-3"},
		},
		{
			name:   "comments are skipped",
			text:   "/* title\n block */ fbc // trailing\n(",
			kinds:  []Kind{ID, '('},
			values: []string{"fbc", "("},
		},
		{
			name:   "hyphenated names are identifiers",
			text:   "iris-setosa inf",
			kinds:  []Kind{ID, ID},
			values: []string{"iris-setosa", "inf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kinds, values := collect(t, tt.text)
			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestScannerPeek(t *testing.T) {
	s, err := NewString("A : 3 4", "peek")
	require.NoError(t, err)

	k, v, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, Kind(':'), k)
	assert.Equal(t, ":", v)
	assert.Equal(t, "A", s.Value(), "peek must not consume")

	require.NoError(t, s.Next())
	require.NoError(t, s.Expect(':'))
	f, err := s.Number()
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
}

func TestScannerLines(t *testing.T) {
	s, err := NewString("a\n\n/* x\n y */ b", "lines")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Line())
	require.NoError(t, s.Next())
	assert.Equal(t, 4, s.Line())
}

func TestScannerErrors(t *testing.T) {
	_, err := NewString("/* never closed", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated comment")

	s, err := NewString("x", "expect")
	require.NoError(t, err)
	err = s.Expect('(')
	require.Error(t, err)
	serr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "x", serr.Token)
	assert.Equal(t, 1, serr.Line)
}

func TestScannerRecover(t *testing.T) {
	s, err := NewString("garbage tokens here ; next", "recover")
	require.NoError(t, err)
	s.Recover(';')
	assert.True(t, s.IsWord("next"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"red", "red"},
		{"1.5", "1.5"},
		{"dark blue", `"dark blue"`},
		{`say "hi"`, `"say \"hi\""`},
		{"", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Format(tt.in)
			assert.Equal(t, tt.want, got)
			s, err := NewString(got, "format")
			require.NoError(t, err)
			assert.Equal(t, tt.in, s.Value())
		})
	}
}
