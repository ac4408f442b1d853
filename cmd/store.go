package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"

	"github.com/tabmine/bayes-classifier/pkg/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Model store management",
	Long: `Push, pull, list and delete classifiers in the model store. The
backend (file, sqlite or redis) is selected in the configuration.`,
}

var storePushCmd = &cobra.Command{
	Use:   "push name bcfile",
	Short: "Store a classifier file under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, bcfile := args[0], args[1]
		if err := store.CheckName(name); err != nil {
			return err
		}
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		in, err := s.open(bcfile)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return errors.Wrapf(err, "cannot read %s", bcfile)
		}
		set, c, err := parseModel(strings.NewReader(string(data)), bcfile)
		if err != nil {
			return err
		}
		s.cls = c

		st, err := s.openStore()
		if err != nil {
			return err
		}
		m := &store.Model{
			Name:           name,
			ClassifierType: classifierType(c),
			ClassAttribute: set.Attr(c.ClassID()).Name(),
			Attributes:     c.Mark(),
			Tuples:         c.Total(),
			GenerationDate: time.Now().UTC(),
			Description:    string(data),
		}
		if err := st.Put(s.ctx, m); err != nil {
			return err
		}
		s.slog.Infow("stored model", "name", name, "backend", s.cfg.Store.Backend)
		color.New(color.FgGreen).Fprintf(s.out, "Stored %s as %s\n", bcfile, name)
		return nil
	},
}

var storePullCmd = &cobra.Command{
	Use:   "pull name [bcfile]",
	Short: "Write a stored classifier to a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.openStore()
		if err != nil {
			return err
		}
		m, err := st.Get(s.ctx, args[0])
		if err != nil {
			return err
		}
		bcfile := ""
		if len(args) > 1 {
			bcfile = args[1]
		}
		out, err := s.create(bcfile)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, m.Description); err != nil {
			return errors.Wrap(err, "cannot write classifier")
		}
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored classifiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.openStore()
		if err != nil {
			return err
		}
		models, err := st.List(s.ctx)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Fprintln(s.out, "No models stored")
			return nil
		}
		table, err := prettytable.NewTable(
			prettytable.Column{Header: "Name"},
			prettytable.Column{Header: "Type"},
			prettytable.Column{Header: "Class"},
			prettytable.Column{Header: "Attributes", AlignRight: true},
			prettytable.Column{Header: "Tuples", AlignRight: true},
			prettytable.Column{Header: "Generated"},
		)
		if err != nil {
			return err
		}
		table.Separator = "  "
		for _, m := range models {
			table.AddRow(m.Name, m.ClassifierType, m.ClassAttribute, m.Attributes,
				fmt.Sprintf("%g", m.Tuples), m.GenerationDate.Format(time.RFC3339))
		}
		_, err = table.WriteTo(s.out)
		return err
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete name",
	Short: "Remove a classifier from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.openStore()
		if err != nil {
			return err
		}
		if err := st.Delete(s.ctx, args[0]); err != nil {
			return err
		}
		s.slog.Infow("deleted model", "name", args[0])
		return nil
	},
}

func init() {
	storeCmd.AddCommand(storePushCmd)
	storeCmd.AddCommand(storePullCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDeleteCmd)
}
