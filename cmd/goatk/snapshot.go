package main

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"goatk/internal/errors"
	"goatk/internal/storage"

	"github.com/spf13/cobra"
)

var (
	snapshotFormat string
	runsLimit      int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Persist descendant counts and branch letters",
	Long: `Compute the descendant count of every term and the branch letter table
under the selected relations, and store them as a new run in the snapshot
database (storage.path).

Examples:
  goatk snapshot
  goatk snapshot -r part_of --format=human
  goatk snapshot list
  goatk snapshot show <run-id>`,
	Args: cobra.NoArgs,
	Run:  runSnapshot,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	Args:  cobra.NoArgs,
	Run:   runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one saved run",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotShow,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run and its data",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotDelete,
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotFormat, "format", "json", "Output format (json, human, yaml)")
	snapshotListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs (0 for all)")
	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// SnapshotResponseCLI is the output of snapshot.
type SnapshotResponseCLI struct {
	Run     storage.Run `json:"run" yaml:"run"`
	Terms   int         `json:"terms" yaml:"terms"`
	Letters int         `json:"letters" yaml:"letters"`
}

// RunsResponseCLI is the output of snapshot list.
type RunsResponseCLI struct {
	Runs []storage.Run `json:"runs" yaml:"runs"`
}

// RunDetailResponseCLI is the output of snapshot show.
type RunDetailResponseCLI struct {
	Run              storage.Run             `json:"run" yaml:"run"`
	DescendantCounts map[string]int          `json:"descendantCounts,omitempty" yaml:"descendantCounts,omitempty"`
	Letters          map[string]string       `json:"letters,omitempty" yaml:"letters,omitempty"`
	Assignments      []storage.AssignmentRow `json:"assignments,omitempty" yaml:"assignments,omitempty"`
}

func runSnapshot(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	db, err := openStorage(s)
	if err != nil {
		exitWithError("opening snapshot database", err)
	}
	defer db.Close()

	resp, err := takeSnapshot(s, db)
	if err != nil {
		exitWithError("taking snapshot", err)
	}
	printResponse(resp, snapshotFormat)
}

// takeSnapshot stores descendant counts and branch letters under a new run.
func takeSnapshot(s *session, db *storage.DB) (*SnapshotResponseCLI, error) {
	counts, err := s.Engine.DescendantCounts(s.Relations)
	if err != nil {
		return nil, err
	}
	letters, err := s.Scorer.BranchLetters()
	if err != nil {
		return nil, err
	}

	run, err := db.SaveRun(storage.Run{
		Kind:            storage.KindSnapshot,
		OntologyVersion: s.Graph.Version(),
		Relations:       s.Relations.String(),
	})
	if err != nil {
		return nil, err
	}
	if err := db.SaveDescendantCounts(run.ID, counts); err != nil {
		return nil, err
	}
	if err := db.SaveBranchLetters(run.ID, letters); err != nil {
		return nil, err
	}

	s.Logger.Info("Snapshot saved", "run", run.ID, "terms", len(counts), "letters", len(letters))
	return &SnapshotResponseCLI{Run: run, Terms: len(counts), Letters: len(letters)}, nil
}

// openWorkspaceStorage opens the snapshot database without loading the
// ontology.
func openWorkspaceStorage(cmd *cobra.Command) (*storage.DB, error) {
	opts := flagOptions(cmd)
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	s := &session{Workspace: opts.Workspace, Config: cfg}
	if err := s.openLogger(opts); err != nil {
		return nil, err
	}
	return openStorage(s)
}

func runSnapshotList(cmd *cobra.Command, args []string) {
	db, err := openWorkspaceStorage(cmd)
	if err != nil {
		exitWithError("opening snapshot database", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(runsLimit)
	if err != nil {
		exitWithError("listing runs", err)
	}
	printResponse(&RunsResponseCLI{Runs: runs}, snapshotFormat)
}

func runSnapshotShow(cmd *cobra.Command, args []string) {
	db, err := openWorkspaceStorage(cmd)
	if err != nil {
		exitWithError("opening snapshot database", err)
	}
	defer db.Close()

	resp, err := runDetail(db, args[0])
	if err != nil {
		exitWithError("loading run", err)
	}
	printResponse(resp, snapshotFormat)
}

// runDetail loads everything stored under one run.
func runDetail(db *storage.DB, id string) (*RunDetailResponseCLI, error) {
	run, err := db.GetRun(id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.LoadFailed, fmt.Sprintf("no run with id %s", id), err)
	}
	if err != nil {
		return nil, err
	}
	resp := &RunDetailResponseCLI{Run: run}
	switch run.Kind {
	case storage.KindSnapshot:
		if resp.DescendantCounts, err = db.LoadDescendantCounts(id); err != nil {
			return nil, err
		}
		if resp.Letters, err = db.LoadBranchLetters(id); err != nil {
			return nil, err
		}
	case storage.KindGroup:
		if resp.Assignments, err = db.LoadAssignment(id); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func runSnapshotDelete(cmd *cobra.Command, args []string) {
	db, err := openWorkspaceStorage(cmd)
	if err != nil {
		exitWithError("opening snapshot database", err)
	}
	defer db.Close()

	if err := db.DeleteRun(args[0]); err != nil {
		exitWithError("deleting run", err)
	}
	fmt.Printf("Deleted run %s\n", args[0])
}
