package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/bayes"
	"github.com/tabmine/bayes-classifier/pkg/config"
	"github.com/tabmine/bayes-classifier/pkg/profiler"
	"github.com/tabmine/bayes-classifier/pkg/store"
)

var (
	induceFull      bool
	induceClass     string
	induceSimplify  string
	induceLaplace   float64
	induceDWNull    bool
	induceMaxLLH    bool
	induceRelative  bool
	induceMaxLen    int
	induceCriterion string
	induceStoreName string
	induceTable     tableFlags
)

var induceCmd = &cobra.Command{
	Use:   "induce [flags] domfile tabfile [bcfile]",
	Short: "Induce a naive or full Bayes classifier",
	Long: `Induce a naive (default) or full Bayes classifier from the records of
tabfile. The attributes are declared in domfile; attributes with the
direction none, id or wgt are ignored. The domains and the classifier
are written to bcfile, or to the standard output if it is not given.`,
	Args: cobra.RangeArgs(2, 3),
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

		var c bayes.Classifier
		attCount := set.Count()
		if p.simplify != 0 {
			t := s.prof.Start(profiler.PhaseTable)
			tab, err := r.ReadTable(args[1])
			t.Stop()
			if err != nil {
				return err
			}
			t = s.prof.Start(profiler.PhaseInduce)
			nbc, err := bayes.InduceNBC(tab, clsID, p.mode|p.simplify, p.lcorr, p.crit)
			t.Stop()
			if err != nil {
				return err
			}
			c = nbc
			s.cls = c
			attCount = c.Mark()
		} else {
			if c, err = newClassifier(set, clsID, p.full); err != nil {
				return err
			}
			s.cls = c
			if err := addRecords(s, r, c); err != nil {
				return err
			}
			mode := p.mode
			if !p.full {
				mode |= bayes.All
			}
			t := s.prof.Start(profiler.PhaseInduce)
			err = c.Setup(mode, p.lcorr)
			t.Stop()
			if err != nil {
				return err
			}
			if p.full {
				attCount = c.Mark()
			}
		}

		marked := p.full || p.simplify != 0
		flags := bayes.Title
		if p.relative {
			flags |= bayes.Rel
		}
		if marked {
			flags |= bayes.DescMarked
		}
		domOpts := attset.DescOptions{Title: true, Intervals: true, Marked: marked, MaxLen: p.maxLen}

		t := s.prof.Start(profiler.PhaseWrite)
		text, err := modelText(c, domOpts, flags, p.maxLen, attCount)
		if err != nil {
			return err
		}
		bcfile := ""
		if len(args) > 2 {
			bcfile = args[2]
		}
		out, err := s.create(bcfile)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, text); err != nil {
			return errors.Wrap(err, "cannot write classifier")
		}
		t.Stop()

		s.slog.Infow("induced classifier",
			"type", classifierType(c),
			"class", set.Attr(clsID).Name(),
			"classes", c.ClassCount(),
			"attributes", attCount,
			"tuples", c.Total())

		if induceStoreName != "" {
			st, err := s.openStore()
			if err != nil {
				return err
			}
			err = st.Put(s.ctx, &store.Model{
				Name:           induceStoreName,
				ClassifierType: classifierType(c),
				ClassAttribute: set.Attr(clsID).Name(),
				Attributes:     attCount,
				Tuples:         c.Total(),
				GenerationDate: time.Now().UTC(),
				Description:    text,
			})
			if err != nil {
				return err
			}
			s.slog.Infow("stored model", "name", induceStoreName, "backend", s.cfg.Store.Backend)
		}
		return nil
	},
}

// induction holds the merged configuration and flag values
type induction struct {
	full     bool
	simplify bayes.Mode
	mode     bayes.Mode
	lcorr    float64
	relative bool
	maxLen   int
	crit     bayes.Criterion
}

func induceParams(cmd *cobra.Command, cfg *config.Config) (*induction, error) {
	fl := cmd.Flags()
	cc := cfg.Classifier
	p := &induction{
		full:     cc.Type == "full" || induceFull,
		lcorr:    cc.Laplace,
		relative: cc.Relative || induceRelative,
		maxLen:   cc.MaxLineLength,
	}
	if fl.Changed("laplace") {
		p.lcorr = induceLaplace
	}
	if p.lcorr < 0 {
		return nil, fmt.Errorf("laplace correction must be >= 0")
	}
	if fl.Changed("max-len") {
		p.maxLen = induceMaxLen
	}
	if cc.DWNull || induceDWNull {
		p.mode |= bayes.DWNull
	}
	if cc.MaxLLH || induceMaxLLH {
		p.mode |= bayes.MaxLLH
	}

	simplify := cc.Simplify
	if fl.Changed("simplify") {
		simplify = induceSimplify
	}
	switch simplify {
	case "":
	case "a", "add":
		p.simplify = bayes.Add
	case "r", "remove":
		p.simplify = bayes.Remove
	default:
		return nil, fmt.Errorf("simplify must be 'a' (add) or 'r' (remove), got %q", simplify)
	}
	if p.simplify != 0 && p.full {
		return nil, fmt.Errorf("simplification is only supported for naive Bayes classifiers")
	}

	criterion := cc.Criterion
	if fl.Changed("criterion") {
		criterion = induceCriterion
	}
	switch criterion {
	case "", "accuracy":
		p.crit = bayes.Accuracy
	case "loglik":
		p.crit = bayes.LogLikelihood
	default:
		return nil, fmt.Errorf("criterion must be 'accuracy' or 'loglik', got %q", criterion)
	}
	return p, nil
}

// selectClass keeps the in and out attributes of set and returns the
// id of the class attribute: the one named by name, else the only out
// attribute, else the last attribute.
func selectClass(set *attset.AttSet, name string) (int, error) {
	if name != "" {
		if set.Index(name) < 0 {
			return -1, errors.Errorf("unknown class attribute %s", name)
		}
		for i := 0; i < set.Count(); i++ {
			set.Attr(i).SetDir(attset.DirIn)
		}
		set.Lookup(name).SetDir(attset.DirOut)
	}
	for i := 0; i < set.Count(); i++ {
		a := set.Attr(i)
		if a.Dir() == attset.DirIn || a.Dir() == attset.DirOut {
			a.SetMark(1)
		} else {
			a.SetMark(-1)
		}
	}
	set.CutUnmarked()
	if set.Count() == 0 {
		return -1, errors.Errorf("%s: no input or output attributes", set.Name())
	}

	clsID := -1
	for i := 0; i < set.Count(); i++ {
		if set.Attr(i).Dir() != attset.DirOut {
			continue
		}
		if clsID >= 0 {
			return -1, errors.Errorf("multiple output attributes (%s, %s), select the class with -c",
				set.Attr(clsID).Name(), set.Attr(i).Name())
		}
		clsID = i
	}
	if clsID < 0 {
		clsID = set.Count() - 1
	}
	if set.Attr(clsID).Type().Numeric() {
		return -1, errors.Errorf("class attribute %s must be nominal", set.Attr(clsID).Name())
	}
	return clsID, nil
}

func newClassifier(set *attset.AttSet, clsID int, full bool) (bayes.Classifier, error) {
	if full {
		c, err := bayes.NewFBC(set, clsID, bayes.Borrowed)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := bayes.NewNBC(set, clsID, bayes.Borrowed)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// addRecords streams the remaining records of r into c
func addRecords(s *session, r *attset.Reader, c bayes.Classifier) error {
	defer s.prof.Start(profiler.PhaseTable).Stop()
	set := c.AttSet()
	n := 0
	for {
		ok, err := r.Read()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := c.Add(set); err != nil {
			return errors.Wrapf(err, "line %d", r.Line())
		}
		n++
	}
	s.slog.Debugw("read table", "records", n)
	return nil
}

// registerInduceFlags registers the class selection and estimation
// flags that induce and xval share
func registerInduceFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&induceFull, "full", "F", false, "Induce a full Bayes classifier")
	fs.StringVarP(&induceClass, "class", "c", "", "Name of the class attribute (default: the out attribute or the last one)")
	fs.StringVarP(&induceSimplify, "simplify", "s", "", "Simplify the naive classifier by adding (a) or removing (r) attributes")
	fs.Float64VarP(&induceLaplace, "laplace", "L", 0, "Laplace correction")
	fs.BoolVarP(&induceDWNull, "dwnull", "t", false, "Distribute the weight of null values")
	fs.BoolVarP(&induceMaxLLH, "maxllh", "m", false, "Maximum likelihood estimate of the variances")
	fs.StringVar(&induceCriterion, "criterion", "", "Simplification criterion: accuracy or loglik")
	induceTable.register(fs)
}

func init() {
	registerInduceFlags(induceCmd.Flags())
	induceCmd.Flags().BoolVarP(&induceRelative, "relative", "p", false, "Print relative class frequencies")
	induceCmd.Flags().IntVarP(&induceMaxLen, "max-len", "l", 72, "Maximal output line length")
	induceCmd.Flags().StringVar(&induceStoreName, "store-name", "", "Also push the classifier to the model store under this name")
}
