package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/bayes"
	"github.com/tabmine/bayes-classifier/pkg/profiler"
)

var (
	xvalFolds      int
	xvalStratified bool
	xvalSeed       uint64
	xvalThreshold  float64
)

var xvalCmd = &cobra.Command{
	Use:   "xval [flags] domfile tabfile",
	Short: "Cross validate the induction of a Bayes classifier",
	Long: `Split the records of tabfile into folds, induce a classifier from all
but one fold and classify the records of the remaining fold with it, in
turn for every fold. The error rate of every fold, the mean error rate
and the deviation of the fold error rates are printed. Class selection
and estimation flags are those of induce.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := induceParams(cmd, s.cfg)
		if err != nil {
			return err
		}
		threshold := s.cfg.Execution.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold = xvalThreshold
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold must be between 0 and 1")
		}

		set, err := s.readDomains(args[0])
		if err != nil {
			return err
		}
		clsID, err := selectClass(set, induceClass)
		if err != nil {
			return err
		}
		in, err := s.open(args[1])
		if err != nil {
			return err
		}
		r := attset.NewReader(in, args[1], set, induceTable.format(cmd.Flags(), s.cfg), 0)
		if err := r.ReadHeader(); err != nil {
			return err
		}
		t := s.prof.Start(profiler.PhaseTable)
		tab, err := r.ReadTable(args[1])
		t.Stop()
		if err != nil {
			return err
		}

		var rng *rand.Rand
		if cmd.Flags().Changed("seed") {
			rng = rand.New(rand.NewPCG(xvalSeed, xvalSeed^0x9e3779b97f4a7c15))
		}
		folds, err := bayes.Folds(tab, clsID, xvalFolds, xvalStratified, rng)
		if err != nil {
			return errors.Wrapf(err, "%s", args[1])
		}

		induce := func(train *attset.Table) (bayes.Classifier, error) {
			if p.full {
				c, err := bayes.InduceFBC(train, clsID, p.mode, p.lcorr)
				if err != nil {
					return nil, err
				}
				return c, nil
			}
			c, err := bayes.InduceNBC(train, clsID, p.mode|p.simplify, p.lcorr, p.crit)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
		t = s.prof.Start(profiler.PhaseXVal)
		res, err := bayes.CrossValidate(tab, clsID, folds, xvalFolds, induce, threshold)
		t.Stop()
		if err != nil {
			return err
		}

		table, err := prettytable.NewTable(
			prettytable.Column{Header: "Fold", AlignRight: true},
			prettytable.Column{Header: "Tuples", AlignRight: true},
			prettytable.Column{Header: "Errors", AlignRight: true},
			prettytable.Column{Header: "Error rate", AlignRight: true},
		)
		if err != nil {
			return err
		}
		table.Separator = "  "
		for i, f := range res.Folds {
			table.AddRow(i+1, f.Tuples, fmt.Sprintf("%g", f.Errors), fmt.Sprintf("%.2f%%", 100*f.ErrorRate()))
		}
		if _, err := table.WriteTo(s.out); err != nil {
			return errors.Wrap(err, "cannot write fold table")
		}

		report := color.New(color.FgGreen)
		if res.Mean > 0 {
			report = color.New(color.FgYellow)
		}
		report.Fprintf(s.out, "\nmean error rate: %.2f%% (deviation %.2f%%)\n", 100*res.Mean, 100*res.StdDev)

		kind := "nbc"
		if p.full {
			kind = "fbc"
		}
		s.slog.Infow("cross validated",
			"type", kind,
			"class", set.Attr(clsID).Name(),
			"folds", xvalFolds,
			"stratified", xvalStratified,
			"tuples", tab.Count(),
			"mean", res.Mean,
			"deviation", res.StdDev)
		return nil
	},
}

func init() {
	registerInduceFlags(xvalCmd.Flags())
	xvalCmd.Flags().IntVarP(&xvalFolds, "folds", "k", 10, "Number of folds")
	xvalCmd.Flags().BoolVar(&xvalStratified, "stratified", true, "Keep the class distribution in every fold")
	xvalCmd.Flags().Uint64Var(&xvalSeed, "seed", 0, "Shuffle the records with this seed before they are dealt to the folds")
	xvalCmd.Flags().Float64Var(&xvalThreshold, "threshold", 0.5, "Decision threshold of two-class problems (default from config)")
}
