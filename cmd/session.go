package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tabmine/bayes-classifier/pkg/attset"
	"github.com/tabmine/bayes-classifier/pkg/bayes"
	"github.com/tabmine/bayes-classifier/pkg/config"
	"github.com/tabmine/bayes-classifier/pkg/logging"
	"github.com/tabmine/bayes-classifier/pkg/profiler"
	"github.com/tabmine/bayes-classifier/pkg/scan"
	"github.com/tabmine/bayes-classifier/pkg/store"
)

// session holds everything a single command run needs. Close releases
// it and prints the timing report if profiling was requested.
type session struct {
	ctx  context.Context
	cfg  *config.Config
	fs   afero.Fs
	log  *zap.Logger
	slog *zap.SugaredLogger
	prof *profiler.Profiler
	out  io.Writer
	errw io.Writer

	closers []io.Closer
	store   store.Store
	cls     bayes.Classifier
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(AppFs, cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	log, slog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s := &session{
		ctx:  ctx,
		cfg:  cfg,
		fs:   AppFs,
		log:  log,
		slog: slog,
		out:  cmd.OutOrStdout(),
		errw: cmd.ErrOrStderr(),
	}
	if profile {
		s.prof = profiler.NewProfiler()
	}
	return s, nil
}

// Close releases the files, the store and the classifier
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.slog.Warnw("close failed", "error", err)
		}
	}
	s.closers = nil
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
	if s.cls != nil {
		s.cls.Delete()
		s.cls = nil
	}
	if s.prof != nil {
		s.prof.PrintReport(s.errw)
	}
	_ = s.log.Sync()
}

// open opens a file for reading; "-" is the standard input
func (s *session) open(name string) (io.Reader, error) {
	if name == "-" {
		return os.Stdin, nil
	}
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", name)
	}
	s.closers = append(s.closers, f)
	return f, nil
}

// create creates a file for writing; "" and "-" are the session output
func (s *session) create(name string) (io.Writer, error) {
	if name == "" || name == "-" {
		return s.out, nil
	}
	f, err := s.fs.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", name)
	}
	s.closers = append(s.closers, f)
	return f, nil
}

// openStore opens the configured model store once per session
func (s *session) openStore() (store.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	st, err := store.Open(s.cfg.Store, s.fs)
	if err != nil {
		return nil, err
	}
	s.store = st
	return st, nil
}

// readDomains parses the domain statements of a domain file
func (s *session) readDomains(name string) (*attset.AttSet, error) {
	defer s.prof.Start(profiler.PhaseDomains).Stop()
	r, err := s.open(name)
	if err != nil {
		return nil, err
	}
	sc, err := scan.New(r, name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", name)
	}
	set := attset.New(name)
	if err := set.Parse(sc); err != nil {
		return nil, err
	}
	if set.Count() == 0 {
		return nil, errors.Errorf("%s: no attributes", name)
	}
	s.slog.Debugw("read domains", "file", name, "attributes", set.Count())
	return set, nil
}

// loadModel reads domains and a classifier from a model file or, with
// a non-empty storeName, from the model store. The classifier is
// deleted when the session closes.
func (s *session) loadModel(name, storeName string) (*attset.AttSet, bayes.Classifier, error) {
	defer s.prof.Start(profiler.PhaseModel).Stop()
	var r io.Reader
	if storeName != "" {
		st, err := s.openStore()
		if err != nil {
			return nil, nil, err
		}
		m, err := st.Get(s.ctx, storeName)
		if err != nil {
			return nil, nil, err
		}
		r, name = strings.NewReader(m.Description), "store:"+storeName
	} else {
		f, err := s.open(name)
		if err != nil {
			return nil, nil, err
		}
		r = f
	}
	set, c, err := parseModel(r, name)
	if err != nil {
		return nil, nil, err
	}
	s.cls = c
	s.slog.Debugw("read classifier", "source", name, "classes", c.ClassCount(), "tuples", c.Total())
	return set, c, nil
}

func parseModel(r io.Reader, name string) (*attset.AttSet, bayes.Classifier, error) {
	sc, err := scan.New(r, name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot read %s", name)
	}
	set := attset.New(name)
	if err := set.Parse(sc); err != nil {
		return nil, nil, err
	}
	c, err := bayes.Parse(set, sc)
	if err != nil {
		return nil, nil, err
	}
	return set, c, nil
}

// classifierType names the kind of c as in its description
func classifierType(c bayes.Classifier) string {
	if _, ok := c.(*bayes.FBC); ok {
		return "fbc"
	}
	return "nbc"
}

// modelText renders domains and classifier the way induce writes them
func modelText(c bayes.Classifier, domOpts attset.DescOptions, flags bayes.DescFlags, maxLen int, attCount int) (string, error) {
	var buf bytes.Buffer
	if err := c.AttSet().Describe(&buf, domOpts); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	if err := c.Describe(&buf, flags, maxLen); err != nil {
		return "", err
	}
	fmt.Fprintf(&buf, "\n/*\n  number of attributes: %d\n  number of tuples    : %g\n*/\n", attCount, c.Total())
	return buf.String(), nil
}
