package cmd

import (
	"github.com/spf13/pflag"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/config"
)

// tableFlags are the table layout flags shared by the commands that
// read or write table files. Flags that are not given keep the value
// from the configuration.
type tableFlags struct {
	blanks        string
	fieldSeps     string
	nullChars     string
	commentChars  string
	weights       bool
	defaultHeader bool
}

func (t *tableFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&t.blanks, "blanks", "b", "", "Blank characters (default from config)")
	fs.StringVarP(&t.fieldSeps, "field-seps", "f", "", "Field separators (default from config)")
	fs.StringVarP(&t.nullChars, "null-chars", "u", "", "Null value characters (default from config)")
	fs.StringVarP(&t.commentChars, "comment-chars", "C", "", "Comment characters (default from config)")
	fs.BoolVarP(&t.weights, "weights", "n", false, "The last field holds the tuple weight")
	fs.BoolVarP(&t.defaultHeader, "default-header", "d", false, "No header record, fields are named 1, 2, ...")
}

func (t *tableFlags) format(fs *pflag.FlagSet, cfg *config.Config) attset.Format {
	f := cfg.TableFormat()
	if fs.Changed("blanks") {
		f.Blanks = t.blanks
	}
	if fs.Changed("field-seps") {
		f.FieldSeps = t.fieldSeps
	}
	if fs.Changed("null-chars") {
		f.NullChars = t.nullChars
	}
	if fs.Changed("comment-chars") {
		f.CommentChars = t.commentChars
	}
	if fs.Changed("weights") {
		f.Weights = t.weights
	}
	f.DefaultHeader = t.defaultHeader
	return f
}
