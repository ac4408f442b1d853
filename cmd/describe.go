package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"

	"github.com/tabmine/bayes-classifier/pkg/bayes"
)

var describeFromStore string

var describeCmd = &cobra.Command{
	Use:   "describe [flags] bcfile",
	Short: "Summarize a Bayes classifier",
	Long: `Print the class distribution, the attributes and the estimation
parameters of a classifier as tables.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bcfile := ""
		if describeFromStore == "" {
			if len(args) != 1 {
				return fmt.Errorf("a classifier file is required")
			}
			bcfile = args[0]
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		set, c, err := s.loadModel(bcfile, describeFromStore)
		if err != nil {
			return err
		}
		cls := set.Attr(c.ClassID())

		fmt.Fprintf(s.out, "Classifier: %s\n", classifierType(c))
		fmt.Fprintf(s.out, "Class:      %s\n", cls.Name())
		fmt.Fprintf(s.out, "Tuples:     %g\n", c.Total())
		fmt.Fprintf(s.out, "Laplace:    %g\n", c.LaplaceCorr())
		fmt.Fprintf(s.out, "Mode:       %s\n\n", modeString(c.Mode()))

		classes, err := prettytable.NewTable(
			prettytable.Column{Header: "Class"},
			prettytable.Column{Header: "Frequency", AlignRight: true},
			prettytable.Column{Header: "Prior", AlignRight: true},
		)
		if err != nil {
			return err
		}
		classes.Separator = "  "
		for k := 0; k < c.ClassCount(); k++ {
			classes.AddRow(cls.ValueName(k), fmt.Sprintf("%g", c.ClassFreq(k)), fmt.Sprintf("%.4f", c.Prior(k)))
		}
		if _, err := classes.WriteTo(s.out); err != nil {
			return errors.Wrap(err, "cannot write class table")
		}
		fmt.Fprintln(s.out)

		atts, err := prettytable.NewTable(
			prettytable.Column{Header: "Attribute"},
			prettytable.Column{Header: "Type"},
			prettytable.Column{Header: "Role"},
		)
		if err != nil {
			return err
		}
		atts.Separator = "  "
		c.Mark()
		for i := 0; i < set.Count(); i++ {
			a := set.Attr(i)
			role := "unused"
			switch {
			case i == c.ClassID():
				role = "class"
			case a.Mark() > 0:
				role = "used"
			}
			atts.AddRow(a.Name(), a.Type().String(), role)
		}
		if _, err := atts.WriteTo(s.out); err != nil {
			return errors.Wrap(err, "cannot write attribute table")
		}
		return nil
	},
}

// modeString lists the estimation flags of mode
func modeString(mode bayes.Mode) string {
	var flags []string
	if mode&bayes.DWNull != 0 {
		flags = append(flags, "dwnull")
	}
	if mode&bayes.MaxLLH != 0 {
		flags = append(flags, "maxllh")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ", ")
}

func init() {
	describeCmd.Flags().StringVar(&describeFromStore, "from-store", "", "Load the classifier from the model store")
}
