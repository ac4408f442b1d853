package cmd

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/bayes"
	"github.com/tabmine/bayes-classifier/pkg/profiler"
)

var (
	randSeed      uint64
	randNoHeader  bool
	randAlign     bool
	randFromStore string
	randOutput    string
	randTable     tableFlags
)

var randCmd = &cobra.Command{
	Use:   "rand [flags] bcfile [count]",
	Short: "Sample tuples from a Bayes classifier",
	Long: `Draw count tuples (default 10) from the distribution described by a
naive or full Bayes classifier: a class from the priors, then the
attribute values from the class conditional distributions.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bcfile := ""
		if randFromStore == "" {
			if len(args) == 0 {
				return fmt.Errorf("a classifier file is required")
			}
			bcfile, args = args[0], args[1:]
		}
		if len(args) > 1 {
			return fmt.Errorf("too many arguments")
		}
		count := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid tuple count %q", args[0])
			}
			count = n
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		set, c, err := s.loadModel(bcfile, randFromStore)
		if err != nil {
			return err
		}
		if c.ClassCount() == 0 {
			return fmt.Errorf("the classifier has no classes to sample from")
		}
		c.Mark()
		var cols []int
		for i := 0; i < set.Count(); i++ {
			if set.Attr(i).Mark() >= 0 {
				cols = append(cols, i)
			}
		}

		seed := randSeed
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

		out, err := s.create(randOutput)
		if err != nil {
			return err
		}
		format := randTable.format(cmd.Flags(), s.cfg)
		// sampled tuples all have weight 1
		format.Weights = false
		w := attset.NewWriter(out, set, cols, format, randAlign)
		if !randNoHeader {
			if err := w.WriteHeader(); err != nil {
				return errors.Wrap(err, "cannot write header")
			}
		}

		t := s.prof.Start(profiler.PhaseSample)
		for i := 0; i < count; i++ {
			sample(c, rng)
			if err := w.WriteRecord(); err != nil {
				return errors.Wrap(err, "cannot write tuple")
			}
		}
		t.Stop()
		if err := w.Flush(); err != nil {
			return errors.Wrap(err, "cannot write tuples")
		}
		s.slog.Debugw("sampled tuples", "count", count, "seed", seed)
		return nil
	},
}

// sample instantiates the attribute set of c with a random tuple
func sample(c bayes.Classifier, rng *rand.Rand) {
	switch m := c.(type) {
	case *bayes.NBC:
		m.Rand(rng)
	case *bayes.FBC:
		m.Rand(rng)
	}
}

func init() {
	randCmd.Flags().Uint64Var(&randSeed, "seed", 0, "Seed of the random number generator (default: current time)")
	randCmd.Flags().BoolVarP(&randNoHeader, "no-header", "w", false, "Do not write a header record")
	randCmd.Flags().BoolVarP(&randAlign, "align", "a", false, "Align the columns")
	randCmd.Flags().StringVar(&randFromStore, "from-store", "", "Load the classifier from the model store")
	randCmd.Flags().StringVarP(&randOutput, "output", "O", "", "Output file (default: standard output)")
	randTable.register(randCmd.Flags())
}
