package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goatk/internal/grouper"
	"goatk/internal/termscore"
)

// Run kinds.
const (
	KindSnapshot = "snapshot"
	KindGroup    = "group"
)

// Run is one persisted computation.
type Run struct {
	ID              string    `json:"id" yaml:"id"`
	Kind            string    `json:"kind" yaml:"kind"`
	OntologyVersion string    `json:"ontologyVersion" yaml:"ontologyVersion"`
	Relations       string    `json:"relations" yaml:"relations"`
	TieBreak        string    `json:"tieBreak,omitempty" yaml:"tieBreak,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
}

// AssignmentRow is one persisted member placement.
type AssignmentRow struct {
	Member  string `json:"member" yaml:"member"`
	Header  string `json:"header" yaml:"header"`
	Self    bool   `json:"self" yaml:"self"`
	Section string `json:"section" yaml:"section"`
}

// SaveRun inserts run, assigning a new id and timestamp when unset.
func (db *DB) SaveRun(run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, kind, ontology_version, relations, tie_break, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.OntologyVersion, run.Relations, run.TieBreak, run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, fmt.Errorf("failed to save run: %w", err)
	}
	db.logger.Debug("Run saved", "id", run.ID, "kind", run.Kind)
	return run, nil
}

// GetRun returns the run with id, or sql.ErrNoRows.
func (db *DB) GetRun(id string) (Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, kind, ontology_version, relations, tie_break, created_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT id, kind, ontology_version, relations, tie_break, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything saved under it.
func (db *DB) DeleteRun(id string) error {
	_, err := db.conn.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var created string
	if err := s.Scan(&run.ID, &run.Kind, &run.OntologyVersion, &run.Relations, &run.TieBreak, &created); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	return run, nil
}

// SaveDescendantCounts stores counts under runID.
func (db *DB) SaveDescendantCounts(runID string, counts map[string]int) error {
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT INTO descendant_counts (run_id, term_id, dcnt) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for id, n := range counts {
			if _, err := stmt.Exec(runID, id, n); err != nil {
				return fmt.Errorf("failed to save descendant count for %s: %w", id, err)
			}
		}
		return nil
	})
}

// LoadDescendantCounts returns the counts saved under runID.
func (db *DB) LoadDescendantCounts(runID string) (map[string]int, error) {
	rows, err := db.conn.Query("SELECT term_id, dcnt FROM descendant_counts WHERE run_id = ?", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// SaveBranchLetters stores the letter table under runID.
func (db *DB) SaveBranchLetters(runID string, letters []termscore.BranchLetter) error {
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO branch_letters (run_id, term_id, namespace, letter, dcnt)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, bl := range letters {
			if _, err := stmt.Exec(runID, bl.ID, string(bl.Namespace), bl.Letter, bl.Descendants); err != nil {
				return fmt.Errorf("failed to save branch letter for %s: %w", bl.ID, err)
			}
		}
		return nil
	})
}

// LoadBranchLetters returns term id to letter for runID.
func (db *DB) LoadBranchLetters(runID string) (map[string]string, error) {
	rows, err := db.conn.Query("SELECT term_id, letter FROM branch_letters WHERE run_id = ?", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, letter string
		if err := rows.Scan(&id, &letter); err != nil {
			return nil, err
		}
		out[id] = letter
	}
	return out, rows.Err()
}

// SaveAssignment stores every placement of asg under runID. Each row
// records the section its header is shown in.
func (db *DB) SaveAssignment(runID string, asg *grouper.Assignment) error {
	sectionOf := make(map[string]string)
	for _, sec := range asg.Sections() {
		for _, h := range sec.Headers {
			if _, ok := sectionOf[h]; !ok {
				sectionOf[h] = sec.Name
			}
		}
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO assignments (run_id, member_id, header_id, self_header, section)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range asg.Placements() {
			if _, err := stmt.Exec(runID, p.Member, p.Header, p.Self, sectionOf[p.Header]); err != nil {
				return fmt.Errorf("failed to save placement of %s: %w", p.Member, err)
			}
		}
		return nil
	})
}

// LoadAssignment returns the placements saved under runID ordered by
// member.
func (db *DB) LoadAssignment(runID string) ([]AssignmentRow, error) {
	rows, err := db.conn.Query(`
		SELECT member_id, header_id, self_header, section
		FROM assignments WHERE run_id = ? ORDER BY member_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentRow
	for rows.Next() {
		var r AssignmentRow
		if err := rows.Scan(&r.Member, &r.Header, &r.Self, &r.Section); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
