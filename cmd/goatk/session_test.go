package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goatk/internal/config"
	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/testutil"
)

// newToySession opens the toy fixture in a fresh workspace. mutate may
// adjust the options first.
func newToySession(t *testing.T, mutate func(*sessionOptions)) *session {
	t.Helper()
	fixture := testutil.LoadFixture(t, "toy")
	opts := sessionOptions{
		Workspace:   t.TempDir(),
		OBOPath:     fixture.OBOPath,
		Annotations: fixture.AnnotationsPath,
		LogOutput:   io.Discard,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := openSession(opts)
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func writeWorkspaceConfig(t *testing.T, workspace, body string) {
	t.Helper()
	dir := filepath.Join(workspace, config.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenSession(t *testing.T) {
	s := newToySession(t, nil)

	if s.Graph.Len() != 10 {
		t.Errorf("Graph.Len() = %d, want 10 (obsolete term dropped)", s.Graph.Len())
	}
	if s.Graph.Version() != "toy/2024-01-01" {
		t.Errorf("Version() = %q", s.Graph.Version())
	}
	if !s.Graph.RelationsLoaded() {
		t.Error("relations should be loaded by default")
	}
	if s.Relations != 0 {
		t.Errorf("Relations = %s, want is_a only", s.Relations)
	}
	if s.Counts == nil || s.Counts.Genes() != 3 {
		t.Fatalf("expected 3 annotated genes, got %+v", s.Counts)
	}
	if s.OBOStats.Obsolete != 1 {
		t.Errorf("OBOStats.Obsolete = %d, want 1", s.OBOStats.Obsolete)
	}
}

func TestOpenSession_NoAnnotations(t *testing.T) {
	s := newToySession(t, func(o *sessionOptions) { o.Annotations = "" })

	if s.Counts != nil {
		t.Error("Counts should be nil without annotations")
	}
	ic, err := s.Scorer.InformationContent("GO:0000008")
	if err != nil {
		t.Fatal(err)
	}
	if ic != 0 {
		t.Errorf("InformationContent = %v, want 0", ic)
	}
}

func TestOpenSession_RelationsFlag(t *testing.T) {
	s := newToySession(t, func(o *sessionOptions) { o.Relations = []string{"part_of", "regulates"} })

	if !s.Relations.Has(graph.PartOf) || !s.Relations.Has(graph.Regulates) {
		t.Errorf("Relations = %s, want part_of and regulates", s.Relations)
	}
	if s.Relations.Has(graph.NegativelyRegulates) {
		t.Errorf("Relations = %s should not include negatively_regulates", s.Relations)
	}
}

func TestOpenSession_Errors(t *testing.T) {
	fixture := testutil.LoadFixture(t, "toy")

	tests := []struct {
		name   string
		config string
		opts   sessionOptions
		want   errors.ErrorCode
	}{
		{
			name: "unknown relation",
			opts: sessionOptions{OBOPath: fixture.OBOPath, Relations: []string{"has_part"}},
			want: errors.InvalidConfig,
		},
		{
			name: "missing ontology",
			opts: sessionOptions{OBOPath: filepath.Join(t.TempDir(), "missing.obo")},
			want: errors.LoadFailed,
		},
		{
			name:   "relations without relationships",
			config: "[ontology]\nloadRelations = false\n",
			opts:   sessionOptions{OBOPath: fixture.OBOPath, Relations: []string{"part_of"}},
			want:   errors.InvalidConfig,
		},
		{
			name:   "bad tie break",
			config: "[grouping]\ntieBreak = \"widest\"\n",
			opts:   sessionOptions{OBOPath: fixture.OBOPath},
			want:   errors.InvalidConfig,
		},
		{
			name: "missing annotations",
			opts: sessionOptions{OBOPath: fixture.OBOPath, Annotations: filepath.Join(t.TempDir(), "none.txt")},
			want: errors.LoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Workspace = t.TempDir()
			opts.LogOutput = io.Discard
			if tt.config != "" {
				writeWorkspaceConfig(t, opts.Workspace, tt.config)
			}

			s, err := openSession(opts)
			if err == nil {
				s.Close()
				t.Fatal("expected an error")
			}
			if code := errors.CodeOf(err); code != tt.want {
				t.Errorf("CodeOf(%v) = %s, want %s", err, code, tt.want)
			}
		})
	}
}

func TestOpenSession_WorkspaceConfig(t *testing.T) {
	fixture := testutil.LoadFixture(t, "toy")
	workspace := t.TempDir()

	data, err := os.ReadFile(fixture.OBOPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "go.obo"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	writeWorkspaceConfig(t, workspace, `
[ontology]
oboPath = "go.obo"

[closure]
relations = ["part_of"]
`)

	s, err := openSession(sessionOptions{Workspace: workspace, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	defer s.Close()

	if !s.Relations.Has(graph.PartOf) {
		t.Errorf("Relations = %s, want part_of from config", s.Relations)
	}
	if s.Counts != nil {
		t.Error("no annotations path is configured")
	}
}

func TestOpenSession_FileLogging(t *testing.T) {
	var console strings.Builder
	workspace := t.TempDir()
	writeWorkspaceConfig(t, workspace, `
[logging]
level = "info"
file = "logs/goatk.log"
maxSize = "1MB"
`)

	fixture := testutil.LoadFixture(t, "toy")
	s, err := openSession(sessionOptions{
		Workspace: workspace,
		OBOPath:   fixture.OBOPath,
		LogOutput: &console,
	})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	s.Close()

	data, err := os.ReadFile(filepath.Join(workspace, "logs", "goatk.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "Ontology loaded") {
		t.Errorf("log file missing info record:\n%s", data)
	}
	if strings.Contains(console.String(), "Ontology loaded") {
		t.Errorf("console should only receive warnings, got:\n%s", console.String())
	}
}

func TestOpenSession_VerbosityOverridesConfig(t *testing.T) {
	var console strings.Builder
	newToySession(t, func(o *sessionOptions) {
		o.LogOutput = &console
		o.Verbosity = 1
		o.LevelFromFlags = true
	})

	if !strings.Contains(console.String(), "Ontology loaded") {
		t.Errorf("-v should log at info, got:\n%s", console.String())
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "coded error with config fix",
			err:  errors.NewIncompleteGraph("is_a+part_of"),
			want: []string{"Error grouping: [INCOMPLETE_GRAPH]", "hint:", "(config: ontology.loadRelations)"},
		},
		{
			name: "coded error with command fix",
			err:  errors.Newf(errors.InvalidConfig, "bad"),
			want: []string{"(run: goatk config show)"},
		},
		{
			name: "no term ids",
			err:  errNoTerms,
			want: []string{"Error grouping: [MISSING_INPUT] no term ids given", "(run: goatk help)"},
		},
		{
			name: "plain error",
			err:  fmt.Errorf("disk full"),
			want: []string{"Error grouping: disk full\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError("grouping", tt.err)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("describeError() missing %q:\n%s", want, got)
				}
			}
		})
	}
}
