package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/bayes"
	"github.com/tabmine/bayes-classifier/pkg/profiler"
)

var (
	execClassColumn string
	execProbColumn  string
	execProbFormat  string
	execAll         bool
	execLaplace     float64
	execThreshold   float64
	execNoDWNull    bool
	execDWNull      bool
	execNoMaxLLH    bool
	execMaxLLH      bool
	execAlign       bool
	execNoHeader    bool
	execFromStore   string
	execTable       tableFlags
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] bcfile tabfile [outfile]",
	Short: "Execute a Bayes classifier on a table",
	Long: `Classify the records of tabfile with the classifier in bcfile (or the
model named by --from-store, in which case bcfile is omitted).

If tabfile has a column for the class attribute, the number of
misclassified records is reported. The records can be written to
outfile together with the predicted class, its probability and the
posterior probabilities of all classes; outfile is required if the
class column is missing.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bcfile := ""
		if execFromStore == "" {
			if len(args) < 2 {
				return fmt.Errorf("a classifier file and a table file are required")
			}
			bcfile, args = args[0], args[1:]
		} else if len(args) > 2 {
			return fmt.Errorf("too many arguments for --from-store")
		}
		tabfile, outfile := args[0], ""
		if len(args) > 1 {
			outfile = args[1]
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fl := cmd.Flags()
		ec := s.cfg.Execution
		if fl.Changed("class-column") {
			ec.ClassColumn = execClassColumn
		}
		if fl.Changed("prob-column") {
			ec.ProbColumn = execProbColumn
		}
		if fl.Changed("format") {
			ec.ProbFormat = execProbFormat
		}
		if fl.Changed("threshold") {
			ec.Threshold = execThreshold
		}
		if ec.Threshold < 0 || ec.Threshold > 1 {
			return fmt.Errorf("threshold must be between 0 and 1")
		}
		ec.AllPosteriors = ec.AllPosteriors || execAll
		ec.Align = ec.Align || execAlign
		ec.Header = ec.Header && !execNoHeader

		set, c, err := s.loadModel(bcfile, execFromStore)
		if err != nil {
			return err
		}
		if err := resetup(cmd, c); err != nil {
			return err
		}

		clsID := c.ClassID()
		cls := set.Attr(clsID)
		set.SetMarks(1)
		cls.SetMark(0)

		in, err := s.open(tabfile)
		if err != nil {
			return err
		}
		format := execTable.format(fl, s.cfg)
		r := attset.NewReader(in, tabfile, set, format, attset.ReadMarked|attset.ReadNoExtend)
		if err := r.ReadHeader(); err != nil {
			return err
		}
		hasClass := cls.Mark() >= 0
		if !hasClass && outfile == "" {
			return fmt.Errorf("%s has no column %s, an output file is required", tabfile, cls.Name())
		}

		var w *attset.Writer
		if outfile != "" {
			out, err := s.create(outfile)
			if err != nil {
				return err
			}
			w = attset.NewWriter(out, set, r.Fields(), format, ec.Align)
			if ec.Header {
				names := []string{ec.ClassColumn}
				if ec.ProbColumn != "" {
					names = append(names, ec.ProbColumn)
				}
				if ec.AllPosteriors {
					for k := 0; k < c.ClassCount(); k++ {
						names = append(names, cls.ValueName(k))
					}
				}
				if err := w.WriteHeader(names...); err != nil {
					return errors.Wrapf(err, "cannot write %s", outfile)
				}
			}
		}

		t := s.prof.Start(profiler.PhaseClassify)
		var records int
		var total, errs float64
		for {
			ok, err := r.Read()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			k, conf, err := c.Exec(set)
			if err != nil {
				return err
			}
			if n := c.ClassCount(); n <= 2 {
				k, conf = bayes.Decide(k, conf, n, ec.Threshold)
			}
			records++
			wgt := set.Weight()
			total += wgt
			if hasClass {
				if v := set.Value(clsID); !attset.IsNull(attset.Nominal, v) && v.I != k {
					errs += wgt
				}
			}
			if w == nil {
				continue
			}
			extra := []string{className(cls, k, format)}
			if ec.ProbColumn != "" {
				extra = append(extra, fmt.Sprintf(ec.ProbFormat, conf))
			}
			if ec.AllPosteriors {
				for _, p := range c.Posts() {
					extra = append(extra, fmt.Sprintf(ec.ProbFormat, p))
				}
			}
			if err := w.WriteRecord(extra...); err != nil {
				return errors.Wrapf(err, "cannot write %s", outfile)
			}
		}
		t.Stop()
		if w != nil {
			t := s.prof.Start(profiler.PhaseWrite)
			err := w.Flush()
			t.Stop()
			if err != nil {
				return errors.Wrapf(err, "cannot write %s", outfile)
			}
		}

		s.slog.Infow("classified table",
			"table", tabfile,
			"records", records,
			"weight", total,
			"errors", errs)

		if hasClass {
			rate := 0.0
			if total > 0 {
				rate = 100 * errs / total
			}
			report := color.New(color.FgGreen)
			if errs > 0 {
				report = color.New(color.FgYellow)
			}
			report.Fprintf(s.errw, "%g error(s) (%.2f%%)\n", errs, rate)
		}
		return nil
	},
}

// resetup estimates the parameters again if any estimation flag is
// given, starting from the mode and correction of the description
func resetup(cmd *cobra.Command, c bayes.Classifier) error {
	fl := cmd.Flags()
	changed := false
	for _, name := range []string{"laplace", "no-dwnull", "dwnull", "no-maxllh", "maxllh"} {
		changed = changed || fl.Changed(name)
	}
	if !changed {
		return nil
	}
	mode, lcorr := c.Mode(), c.LaplaceCorr()
	if execNoDWNull {
		mode &^= bayes.DWNull
	}
	if execDWNull {
		mode |= bayes.DWNull
	}
	if execNoMaxLLH {
		mode &^= bayes.MaxLLH
	}
	if execMaxLLH {
		mode |= bayes.MaxLLH
	}
	if fl.Changed("laplace") {
		if execLaplace < 0 {
			return fmt.Errorf("laplace correction must be >= 0")
		}
		lcorr = execLaplace
	}
	return c.Setup(mode, lcorr)
}

func className(cls *attset.Attribute, k int, f attset.Format) string {
	if k < 0 || k >= cls.ValueCount() {
		return cls.Format(attset.NullValue(attset.Nominal), nullText(f))
	}
	return cls.ValueName(k)
}

func nullText(f attset.Format) string {
	if f.NullChars == "" {
		return "?"
	}
	return string([]rune(f.NullChars)[0])
}

func init() {
	execCmd.Flags().StringVarP(&execClassColumn, "class-column", "c", "bc", "Name of the predicted class column")
	execCmd.Flags().StringVarP(&execProbColumn, "prob-column", "p", "", "Name of the class probability column")
	execCmd.Flags().StringVarP(&execProbFormat, "format", "o", "%.3f", "Format of the probabilities")
	execCmd.Flags().BoolVarP(&execAll, "all", "x", false, "Write the posterior probabilities of all classes")
	execCmd.Flags().Float64VarP(&execLaplace, "laplace", "L", 0, "Laplace correction (overrides the classifier)")
	execCmd.Flags().Float64VarP(&execThreshold, "threshold", "t", 0.5, "Decision threshold for two-class problems")
	execCmd.Flags().BoolVarP(&execNoDWNull, "no-dwnull", "v", false, "Do not distribute the weight of null values")
	execCmd.Flags().BoolVarP(&execDWNull, "dwnull", "V", false, "Distribute the weight of null values")
	execCmd.Flags().BoolVarP(&execNoMaxLLH, "no-maxllh", "m", false, "Unbiased estimate of the variances")
	execCmd.Flags().BoolVarP(&execMaxLLH, "maxllh", "M", false, "Maximum likelihood estimate of the variances")
	execCmd.Flags().BoolVarP(&execAlign, "align", "a", false, "Align the columns of the output table")
	execCmd.Flags().BoolVarP(&execNoHeader, "no-header", "w", false, "Do not write a header record")
	execCmd.Flags().StringVar(&execFromStore, "from-store", "", "Load the classifier from the model store")
	execTable.register(execCmd.Flags())
}
