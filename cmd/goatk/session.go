package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"goatk/internal/annotations"
	"goatk/internal/closure"
	"goatk/internal/config"
	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/obo"
	"goatk/internal/slogutil"
	"goatk/internal/termscore"
)

var errNoTerms = errors.NewMissingInput("term ids")

// sessionOptions are the persistent flag values a session is opened with.
type sessionOptions struct {
	Workspace   string
	ConfigFile  string
	OBOPath     string
	Annotations string
	Relations   []string
	Verbosity   int
	Quiet       bool

	// LevelFromFlags makes Verbosity and Quiet win over logging.level.
	LevelFromFlags bool
	// LogOutput receives console logs; stderr when nil.
	LogOutput io.Writer
}

// session is one loaded ontology with its engines.
type session struct {
	Workspace string
	Config    *config.Config
	Logger    *slog.Logger
	Relations graph.RelationSet

	Graph    *graph.Graph
	Engine   *closure.Engine
	Scorer   *termscore.Scorer
	Counts   *termscore.TermCounts
	OBOStats obo.Stats

	closers []io.Closer
}

// loadConfig reads the explicit config file or the workspace config, then
// applies flag overrides and validates the result.
func loadConfig(opts sessionOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadConfigFile(opts.ConfigFile)
	} else {
		cfg, err = config.LoadConfig(opts.Workspace)
	}
	if err != nil {
		return nil, err
	}

	if len(opts.Relations) > 0 {
		cfg.Closure.Relations = opts.Relations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads configuration, ontology and optional annotations.
// Close releases the log file when one was opened.
func openSession(opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	rels, err := cfg.Relations()
	if err != nil {
		return nil, err
	}

	s := &session{Workspace: opts.Workspace, Config: cfg, Relations: rels}
	if err := s.openLogger(opts); err != nil {
		return nil, err
	}

	oboPath := opts.OBOPath
	if oboPath == "" {
		oboPath = config.Resolve(opts.Workspace, cfg.Ontology.OBOPath)
	}
	src, stats, err := obo.Load(oboPath, obo.Options{
		LoadRelations: cfg.Ontology.LoadRelations,
		LoadObsolete:  cfg.Ontology.LoadObsolete,
		Logger:        s.Logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.OBOStats = stats

	s.Graph, err = graph.Build(src, graph.BuildOptions{Relations: rels, Logger: s.Logger})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = closure.New(s.Graph, closure.Options{Logger: s.Logger})

	var source termscore.AnnotationSource
	annPath := opts.Annotations
	if annPath == "" {
		annPath = config.Resolve(opts.Workspace, cfg.Ontology.AnnotationsPath)
	}
	if annPath != "" {
		assoc, err := annotations.Load(annPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		kept, unknown := assoc.Filter(s.Graph)
		if len(unknown) > 0 {
			s.Logger.Warn("Annotations reference unknown terms",
				"path", annPath,
				"count", len(unknown),
				"first", unknown[0],
			)
		}
		s.Counts, err = termscore.NewTermCounts(s.Engine, kept, rels)
		if err != nil {
			s.Close()
			return nil, err
		}
		source = s.Counts
	}
	s.Scorer = termscore.New(s.Engine, source, rels)

	s.Logger.Info("Ontology loaded",
		"path", oboPath,
		"version", s.Graph.Version(),
		"terms", s.Graph.Len(),
		"aliases", s.Graph.NumAliases(),
		"relations", rels.String(),
	)
	return s, nil
}

// openLogger builds the console logger, and the rotating file logger when
// logging.file is set. With a file, console output is kept for warnings.
func (s *session) openLogger(opts sessionOptions) error {
	lc := s.Config.Logging
	level := slogutil.LevelFromString(lc.Level)
	if opts.LevelFromFlags {
		level = slogutil.LevelFromVerbosity(opts.Verbosity, opts.Quiet)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	console := slogutil.NewFormatLogger(out, lc.Format, level)
	if lc.File == "" {
		s.Logger = console
		return nil
	}

	fileLogger, closer, err := slogutil.NewRotatingLogger(slogutil.FileOptions{
		Path:       config.Resolve(opts.Workspace, lc.File),
		Format:     lc.Format,
		Level:      level,
		MaxSize:    lc.MaxSize,
		MaxBackups: lc.MaxBackups,
	})
	if err != nil {
		return errors.New(errors.InvalidConfig, fmt.Sprintf("cannot open log file %s", lc.File), err)
	}
	s.closers = append(s.closers, closer)

	warnLevel := slog.LevelWarn
	if level > warnLevel {
		warnLevel = level
	}
	s.Logger = slog.New(slogutil.NewTeeHandler(
		fileLogger.Handler(),
		slogutil.NewFormatLogger(out, lc.Format, warnLevel).Handler(),
	))
	return nil
}

// Close releases resources held by the session.
func (s *session) Close() {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
}

// relationsOrDefault returns the session relations, or names parsed when a
// command overrides them.
func (s *session) relationsOrDefault(names []string) (graph.RelationSet, error) {
	if len(names) == 0 {
		return s.Relations, nil
	}
	rels, err := graph.ParseRelationSet(names)
	if err != nil {
		return 0, err
	}
	if err := s.Graph.CheckRelations(rels); err != nil {
		return 0, err
	}
	return rels, nil
}

// mustOpenSession opens a session from the persistent flags or exits.
func mustOpenSession(opts sessionOptions) *session {
	s, err := openSession(opts)
	if err != nil {
		exitWithError("loading ontology", err)
	}
	return s
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// exitWithError prints err with its code and suggested fixes, then exits 1.
func exitWithError(action string, err error) {
	fmt.Fprint(os.Stderr, describeError(action, err))
	os.Exit(1)
}

// describeError renders err for the terminal.
func describeError(action string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error %s: %v\n", action, err)

	gerr, ok := errors.As(err)
	if !ok {
		return b.String()
	}
	fixes := gerr.SuggestedFixes
	if len(fixes) == 0 {
		fixes = errors.GetSuggestedFixes(gerr.Code)
	}
	for _, fix := range fixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(&b, "  hint: %s (run: %s)\n", fix.Description, fix.Command)
		case fix.Field != "":
			fmt.Fprintf(&b, "  hint: %s (config: %s)\n", fix.Description, fix.Field)
		default:
			fmt.Fprintf(&b, "  hint: %s\n", fix.Description)
		}
	}
	return b.String()
}
