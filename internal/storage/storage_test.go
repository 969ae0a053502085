package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"goatk/internal/closure"
	"goatk/internal/grouper"
	"goatk/internal/termscore"
	"goatk/internal/testutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), ".goatk", "goatk.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); err != nil {
		t.Fatalf("Database file was not created at %s: %v", db.Path(), err)
	}
	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goatk.db")
	db, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	run, err := db.SaveRun(Run{Kind: KindSnapshot, OntologyVersion: "v1", Relations: "is_a"})
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	if _, err := db.GetRun(run.ID); err != nil {
		t.Errorf("run lost across reopen: %v", err)
	}
}

func TestNewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goatk.db")
	db, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.WithTx(func(tx *sql.Tx) error { return setSchemaVersion(tx, currentSchemaVersion+1) }); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := Open(path, nil); err == nil {
		t.Error("opening a newer schema should fail")
	}
}

func TestSaveAndListRuns(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := db.SaveRun(Run{Kind: KindSnapshot, OntologyVersion: "go/2024-05-01", Relations: "is_a", CreatedAt: base})
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.SaveRun(Run{Kind: KindGroup, OntologyVersion: "go/2024-05-01", Relations: "part_of", TieBreak: "dcnt", CreatedAt: base.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("run ids should be unique and non-empty: %q %q", first.ID, second.ID)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("ListRuns should return newest first, got %+v", runs)
	}
	if !runs[1].CreatedAt.Equal(base) || runs[0].TieBreak != "dcnt" {
		t.Errorf("run fields not round tripped: %+v", runs)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("ListRuns(1) returned %d runs", len(limited))
	}

	if _, err := db.SaveRun(Run{ID: first.ID, Kind: KindSnapshot}); err == nil {
		t.Error("saving a duplicate run id should fail")
	}
	if _, err := db.GetRun("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetRun(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestDescendantCounts(t *testing.T) {
	db := setupTestDB(t)
	e := closure.New(testutil.ToyGraph(t), closure.Options{})
	counts, err := e.DescendantCounts(0)
	if err != nil {
		t.Fatal(err)
	}

	run, err := db.SaveRun(Run{Kind: KindSnapshot, Relations: "is_a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveDescendantCounts(run.ID, counts); err != nil {
		t.Fatalf("SaveDescendantCounts: %v", err)
	}
	loaded, err := db.LoadDescendantCounts(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != len(counts) {
		t.Fatalf("loaded %d counts, want %d", len(loaded), len(counts))
	}
	for id, n := range counts {
		if loaded[id] != n {
			t.Errorf("dcnt[%s] = %d, want %d", id, loaded[id], n)
		}
	}

	if err := db.SaveDescendantCounts("no-such-run", counts); err == nil {
		t.Error("counts for an unknown run should violate the foreign key")
	}
}

func TestBranchLetters(t *testing.T) {
	db := setupTestDB(t)
	e := closure.New(testutil.ToyGraph(t), closure.Options{})
	letters, err := termscore.New(e, nil, 0).BranchLetters()
	if err != nil {
		t.Fatal(err)
	}
	run, err := db.SaveRun(Run{Kind: KindSnapshot, Relations: "is_a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveBranchLetters(run.ID, letters); err != nil {
		t.Fatal(err)
	}
	loaded, err := db.LoadBranchLetters(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, bl := range letters {
		if loaded[bl.ID] != bl.Letter {
			t.Errorf("letter[%s] = %q, want %q", bl.ID, loaded[bl.ID], bl.Letter)
		}
	}
}

func TestAssignment(t *testing.T) {
	db := setupTestDB(t)
	g := testutil.ToyGraph(t)
	scorer := termscore.New(closure.New(g, closure.Options{}), nil, 0)
	defaults, err := grouper.DefaultHeaders(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	headers, err := grouper.NewHeaderSet(g, grouper.HeaderOptions{Defaults: defaults})
	if err != nil {
		t.Fatal(err)
	}
	asg, err := grouper.NewAssigner(scorer, grouper.Options{}).Assign(
		[]string{"GO:0000009", "GO:0000008", "GO:0000003"}, headers, 0, grouper.MinDescendants)
	if err != nil {
		t.Fatal(err)
	}

	run, err := db.SaveRun(Run{Kind: KindGroup, Relations: "is_a", TieBreak: "dcnt"})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveAssignment(run.ID, asg); err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}
	rows, err := db.LoadAssignment(run.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []AssignmentRow{
		{Member: "GO:0000003", Header: "GO:0000003", Self: true, Section: grouper.DefaultSection},
		{Member: "GO:0000008", Header: "GO:0000003", Section: grouper.DefaultSection},
		{Member: "GO:0000009", Header: "GO:0000002", Section: grouper.DefaultSection},
	}
	if len(rows) != len(want) {
		t.Fatalf("loaded %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}

	if err := db.DeleteRun(run.ID); err != nil {
		t.Fatal(err)
	}
	rows, err = db.LoadAssignment(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("DeleteRun should cascade, %d rows left", len(rows))
	}
}
