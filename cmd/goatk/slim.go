package main

import (
	"goatk/internal/config"
	"goatk/internal/errors"
	"goatk/internal/sections"

	"github.com/spf13/cobra"
)

var (
	slimFormat string
	slimFile   string
	slimIDs    []string
)

var slimCmd = &cobra.Command{
	Use:   "slim <id>...",
	Short: "Map terms onto a GO slim",
	Long: `Map each term onto a slim subset of the ontology, following is_a paths up
to the roots. "all" lists every slim term on any path, the term included;
"direct" keeps the slim terms no other slim term on its paths lies below.

Slim terms come from --slim and --slims, or from grouping.slims when neither
is given. --slims reads any sections-file format.

Examples:
  goatk slim GO:0006915 --slims=goslim_generic.txt
  goatk slim GO:0006915 GO:0007165 --slim=GO:0008219,GO:0009987 --format=human`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSlim,
}

func init() {
	f := slimCmd.Flags()
	f.StringVar(&slimFormat, "format", "json", "Output format (json, human, yaml)")
	f.StringVar(&slimFile, "slims", "", "File listing the slim terms")
	f.StringSliceVar(&slimIDs, "slim", nil, "Slim term ids (overrides grouping.slims)")
	rootCmd.AddCommand(slimCmd)
}

// SlimResponseCLI is the output of slim.
type SlimResponseCLI struct {
	Slims   int            `json:"slims" yaml:"slims"`
	Results []SlimEntryCLI `json:"results" yaml:"results"`
}

// SlimEntryCLI holds the slim terms of one term.
type SlimEntryCLI struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Direct []string `json:"direct" yaml:"direct"`
	All    []string `json:"all" yaml:"all"`
}

func runSlim(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	slims := append([]string(nil), slimIDs...)
	if slimFile != "" {
		f, err := sections.ReadFile(config.Resolve(s.Workspace, slimFile), sections.ReadOptions{})
		if err != nil {
			exitWithError("reading slim terms", err)
		}
		slims = append(slims, fileIDs(f)...)
	}
	if len(slims) == 0 {
		slims = s.Config.Grouping.Slims
	}

	resp, err := slimResponse(s, args, slims)
	if err != nil {
		exitWithError("mapping to slim", err)
	}
	printResponse(resp, slimFormat)
}

func slimResponse(s *session, ids, slims []string) (*SlimResponseCLI, error) {
	if len(slims) == 0 {
		return nil, errors.Newf(errors.MissingInput, "no slim terms given (use --slim, --slims or grouping.slims)")
	}
	resp := &SlimResponseCLI{Slims: len(slims)}
	for _, id := range ids {
		t, err := s.Graph.Term(id)
		if err != nil {
			return nil, err
		}
		direct, all, err := s.Engine.MapSlim(t.ID, slims)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, SlimEntryCLI{ID: t.ID, Name: t.Name, Direct: direct, All: all})
	}
	return resp, nil
}
