package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// update rewrites golden files instead of comparing against them.
// Use: go test ./cmd/goatk -run TestGolden -update
var update = flag.Bool("update", false, "rewrite golden files under testdata/fixtures/*/expected")

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Name is the fixture directory name (e.g., "toy")
	Name string

	// Root is the absolute path to the fixture directory
	Root string

	// OBOPath is the path to the fixture ontology
	OBOPath string

	// AnnotationsPath is the path to the gene associations, empty when the
	// fixture has none
	AnnotationsPath string

	// SectionsPath is the path to the sections file, empty when the
	// fixture has none
	SectionsPath string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture loads a fixture from testdata/fixtures/<name>, failing the
// test when its ontology is missing.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	root := filepath.Join(getFixturesRoot(t), name)
	oboPath := filepath.Join(root, name+".obo")
	if _, err := os.Stat(oboPath); err != nil {
		t.Fatalf("Fixture %s has no ontology: %v", name, err)
	}

	return &FixtureContext{
		Name:            name,
		Root:            root,
		OBOPath:         oboPath,
		AnnotationsPath: optionalFile(filepath.Join(root, "id2gos.txt")),
		SectionsPath:    optionalFile(filepath.Join(root, "sections.txt")),
		ExpectedDir:     filepath.Join(root, "expected"),
	}
}

// ExpectedPath returns the path of the JSON golden file name.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".json")
}

// ExpectedTextPath returns the path of the rendered-text golden file name.
func (f *FixtureContext) ExpectedTextPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".txt")
}

// CompareGolden checks a command response against expected/<name>.json
// after normalizing it with MarshalNormalized.
func CompareGolden(t *testing.T, fixture *FixtureContext, name string, got any) {
	t.Helper()
	checkGolden(t, fixture.ExpectedPath(name), MarshalNormalized(t, fixture, got))
}

// CompareGoldenText checks rendered output, such as a human formatted
// response, against expected/<name>.txt. Fixture paths become <fixture>.
func CompareGoldenText(t *testing.T, fixture *FixtureContext, name, got string) {
	t.Helper()
	text := strings.ReplaceAll(got, fixture.Root, "<fixture>")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	checkGolden(t, fixture.ExpectedTextPath(name), []byte(text))
}

func checkGolden(t *testing.T, path string, got []byte) {
	t.Helper()

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create expected directory: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("Golden file missing: %s\n\nGot:\n%s\nRun with -update to create it", path, got)
	}
	if err != nil {
		t.Fatalf("Failed to read golden file: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update if the change is intended", path, lineDiff(string(want), string(got)))
	}
}

// lineDiff reports the first line where want and got disagree, with two
// lines of shared context and up to three differing lines of each.
func lineDiff(want, got string) string {
	w := strings.Split(want, "\n")
	g := strings.Split(got, "\n")
	i := 0
	for i < len(w) && i < len(g) && w[i] == g[i] {
		i++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "first difference at line %d (want %d lines, got %d)\n", i+1, len(w), len(g))
	for j := max(0, i-2); j < i; j++ {
		fmt.Fprintf(&b, "  %s\n", w[j])
	}
	for j := i; j < min(len(w), i+3); j++ {
		fmt.Fprintf(&b, "- %s\n", w[j])
	}
	for j := i; j < min(len(g), i+3); j++ {
		fmt.Fprintf(&b, "+ %s\n", g[j])
	}
	return b.String()
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

func optionalFile(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
