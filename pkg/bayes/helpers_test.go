package bayes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/scan"
)

func domains(t *testing.T, text string) *attset.AttSet {
	t.Helper()
	sc, err := scan.NewString(text, "domains")
	require.NoError(t, err)
	set := attset.New("test")
	require.NoError(t, set.Parse(sc))
	return set
}

// inst sets the instantiation of set from fields in attribute order;
// "?" is null.
func inst(t *testing.T, set *attset.AttSet, w float64, fields ...string) *attset.AttSet {
	t.Helper()
	require.Len(t, fields, set.Count())
	for i, f := range fields {
		if f == "?" {
			set.Attr(i).SetNull()
			continue
		}
		require.NoError(t, set.Attr(i).SetValue(f, true))
	}
	set.SetWeight(w)
	return set
}

func table(t *testing.T, set *attset.AttSet, rows ...string) *attset.Table {
	t.Helper()
	tab := attset.NewTable("test", set)
	for _, r := range rows {
		inst(t, set, 1, strings.Fields(r)...)
		tab.Add(set.Snapshot())
	}
	return tab
}

func describe(t *testing.T, c Classifier, flags DescFlags) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Describe(&buf, flags, 0))
	return buf.String()
}

func parse(t *testing.T, set *attset.AttSet, text string) (Classifier, error) {
	t.Helper()
	sc, err := scan.NewString(text, "model")
	require.NoError(t, err)
	return Parse(set, sc)
}
