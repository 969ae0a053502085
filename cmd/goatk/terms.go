package main

import (
	"sort"

	"goatk/internal/closure"
	"goatk/internal/graph"

	"github.com/spf13/cobra"
)

var (
	closureFormat string
	pathsFormat   string
	dcntFormat    string
	dcntAll       bool
)

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <id>...",
	Short: "List the ancestors of terms",
	Long: `List every ancestor of each term under is_a plus the relations selected
with --relations. The term itself is not included.

Examples:
  goatk ancestors GO:0008150
  goatk ancestors GO:0006915 -r part_of --format=human`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runClosure(cmd, args, closure.Up)
	},
}

var descendantsCmd = &cobra.Command{
	Use:   "descendants <id>...",
	Short: "List the descendants of terms",
	Long: `List every descendant of each term under is_a plus the relations selected
with --relations. The term itself is not included.

Examples:
  goatk descendants GO:0008219 --format=human`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runClosure(cmd, args, closure.Down)
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths <id>...",
	Short: "List every is_a path from a root to a term",
	Args:  cobra.MinimumNArgs(1),
	Run:   runPaths,
}

var dcntCmd = &cobra.Command{
	Use:   "dcnt [id]...",
	Short: "Show descendant counts",
	Long: `Show the number of descendants of each term under the selected relations.
With --all, every term of the ontology is listed, largest count first.

Examples:
  goatk dcnt GO:0008150 GO:0003674
  goatk dcnt --all -r part_of --format=human`,
	Run: runDescendantCounts,
}

func init() {
	for _, c := range []*cobra.Command{ancestorsCmd, descendantsCmd} {
		c.Flags().StringVar(&closureFormat, "format", "json", "Output format (json, human, yaml)")
		rootCmd.AddCommand(c)
	}
	pathsCmd.Flags().StringVar(&pathsFormat, "format", "json", "Output format (json, human, yaml)")
	dcntCmd.Flags().StringVar(&dcntFormat, "format", "json", "Output format (json, human, yaml)")
	dcntCmd.Flags().BoolVar(&dcntAll, "all", false, "List every term")
	rootCmd.AddCommand(pathsCmd, dcntCmd)
}

// TermRefCLI is a term summary used in command output.
type TermRefCLI struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Level     int    `json:"level" yaml:"level"`
	Depth     int    `json:"depth" yaml:"depth"`
}

// ClosureResponseCLI is the output of ancestors and descendants.
type ClosureResponseCLI struct {
	Direction string            `json:"direction" yaml:"direction"`
	Relations string            `json:"relations" yaml:"relations"`
	Results   []ClosureEntryCLI `json:"results" yaml:"results"`
}

// ClosureEntryCLI is the closure of one queried term.
type ClosureEntryCLI struct {
	ID    string       `json:"id" yaml:"id"`
	Terms []TermRefCLI `json:"terms" yaml:"terms"`
}

// PathsResponseCLI is the output of paths.
type PathsResponseCLI struct {
	Results []PathsEntryCLI `json:"results" yaml:"results"`
}

// PathsEntryCLI lists the root paths of one term.
type PathsEntryCLI struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Paths [][]string `json:"paths" yaml:"paths"`
}

// DescendantCountsResponseCLI is the output of dcnt.
type DescendantCountsResponseCLI struct {
	Relations string               `json:"relations" yaml:"relations"`
	Counts    []DescendantCountCLI `json:"counts" yaml:"counts"`
}

// DescendantCountCLI is one term with its descendant count.
type DescendantCountCLI struct {
	Term        TermRefCLI `json:"term" yaml:"term"`
	Descendants int        `json:"descendants" yaml:"descendants"`
}

func termRef(t *graph.Term) TermRefCLI {
	return TermRefCLI{
		ID:        t.ID,
		Name:      t.Name,
		Namespace: t.Namespace.Short(),
		Level:     t.Level,
		Depth:     t.Depth,
	}
}

func termRefs(g *graph.Graph, nodes []graph.NodeID) []TermRefCLI {
	out := make([]TermRefCLI, len(nodes))
	for i, n := range nodes {
		out[i] = termRef(g.Node(n))
	}
	return out
}

func runClosure(cmd *cobra.Command, args []string, dir closure.Direction) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	resp, err := closureResponse(s, args, dir)
	if err != nil {
		exitWithError("computing "+dir.String(), err)
	}
	printResponse(resp, closureFormat)
}

// closureResponse resolves ids and collects their closures in argument
// order. Alias ids are reported under the canonical id.
func closureResponse(s *session, ids []string, dir closure.Direction) (*ClosureResponseCLI, error) {
	resp := &ClosureResponseCLI{Direction: dir.String(), Relations: s.Relations.String()}
	for _, id := range ids {
		n, err := s.Graph.Lookup(id)
		if err != nil {
			return nil, err
		}
		set, err := s.Engine.Closure(n, s.Relations, dir)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, ClosureEntryCLI{
			ID:    s.Graph.ID(n),
			Terms: termRefs(s.Graph, set.Nodes()),
		})
	}
	return resp, nil
}

func runPaths(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	resp, err := pathsResponse(s, args)
	if err != nil {
		exitWithError("computing paths", err)
	}
	printResponse(resp, pathsFormat)
}

func pathsResponse(s *session, ids []string) (*PathsResponseCLI, error) {
	resp := &PathsResponseCLI{}
	for _, id := range ids {
		t, err := s.Graph.Term(id)
		if err != nil {
			return nil, err
		}
		paths, err := s.Engine.PathsToTop(t.ID)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, PathsEntryCLI{ID: t.ID, Name: t.Name, Paths: paths})
	}
	return resp, nil
}

func runDescendantCounts(cmd *cobra.Command, args []string) {
	if len(args) == 0 && !dcntAll {
		exitWithError("computing descendant counts", errNoTerms)
	}
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	var (
		resp *DescendantCountsResponseCLI
		err  error
	)
	if dcntAll {
		resp, err = allDescendantCountsResponse(s)
	} else {
		resp, err = descendantCountsResponse(s, args)
	}
	if err != nil {
		exitWithError("computing descendant counts", err)
	}
	printResponse(resp, dcntFormat)
}

func descendantCountsResponse(s *session, ids []string) (*DescendantCountsResponseCLI, error) {
	resp := &DescendantCountsResponseCLI{Relations: s.Relations.String()}
	for _, id := range ids {
		t, err := s.Graph.Term(id)
		if err != nil {
			return nil, err
		}
		n, err := s.Scorer.DescendantCountOf(t.Node(), s.Relations)
		if err != nil {
			return nil, err
		}
		resp.Counts = append(resp.Counts, DescendantCountCLI{Term: termRef(t), Descendants: n})
	}
	return resp, nil
}

// allDescendantCountsResponse lists every term, largest count first, ties
// by id.
func allDescendantCountsResponse(s *session) (*DescendantCountsResponseCLI, error) {
	counts, err := s.Engine.DescendantCounts(s.Relations)
	if err != nil {
		return nil, err
	}
	resp := &DescendantCountsResponseCLI{Relations: s.Relations.String()}
	for _, t := range s.Graph.Terms() {
		resp.Counts = append(resp.Counts, DescendantCountCLI{Term: termRef(t), Descendants: counts[t.ID]})
	}
	sort.SliceStable(resp.Counts, func(i, j int) bool {
		a, b := resp.Counts[i], resp.Counts[j]
		if a.Descendants != b.Descendants {
			return a.Descendants > b.Descendants
		}
		return a.Term.ID < b.Term.ID
	})
	return resp, nil
}
