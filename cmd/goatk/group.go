package main

import (
	"goatk/internal/config"
	"goatk/internal/grouper"
	"goatk/internal/sections"
	"goatk/internal/storage"

	"github.com/spf13/cobra"
)

var (
	groupFormat         string
	groupMembersFile    string
	groupHeaders        []string
	groupSectionsFile   string
	groupExcludeDefault bool
	groupTieBreak       string
	groupOmitDefaults   bool
	groupSave           bool
	groupWriteSections  string
)

var groupCmd = &cobra.Command{
	Use:   "group [id]...",
	Short: "Group terms under their most specific header",
	Long: `Place every member term under the single most specific header among the
member and its ancestors. Headers default to the depth-00 and depth-01 terms
plus grouping.slims; --headers and --sections-file add more. The tie break
picks the most specific candidate: dcnt (fewest descendants), tinfo (highest
information content) or tinfo_dcnt.

Members come from the arguments and from --members-file, a file with one GO
id per line.

Examples:
  goatk group GO:0006915 GO:0007165 GO:0008283
  goatk group --members-file=study.txt --sections-file=sections.toml --format=human
  goatk group --members-file=study.txt --tiebreak=tinfo --annotations=id2gos.txt --save`,
	Run: runGroup,
}

func init() {
	f := groupCmd.Flags()
	f.StringVar(&groupFormat, "format", "json", "Output format (json, human, yaml)")
	f.StringVar(&groupMembersFile, "members-file", "", "File listing member GO ids")
	f.StringSliceVar(&groupHeaders, "headers", nil, "Extra header ids")
	f.StringVar(&groupSectionsFile, "sections-file", "", "Sections file (text, toml or yaml; overrides grouping.sectionsFile)")
	f.BoolVar(&groupExcludeDefault, "exclude-default-section", false, "Ignore a declared "+grouper.DefaultSection+" section")
	f.StringVar(&groupTieBreak, "tiebreak", "", "Tie break: dcnt, tinfo or tinfo_dcnt (overrides grouping.tieBreak)")
	f.BoolVar(&groupOmitDefaults, "omit-defaults", false, "Drop the default headers when others are given (overrides grouping.omitDefaults)")
	f.BoolVar(&groupSave, "save", false, "Persist the assignment to the snapshot database")
	f.StringVar(&groupWriteSections, "write-sections", "", "Write the used headers as a sections file")
	rootCmd.AddCommand(groupCmd)
}

// GroupResponseCLI is the output of group.
type GroupResponseCLI struct {
	RunID       string            `json:"runId,omitempty" yaml:"runId,omitempty"`
	Relations   string            `json:"relations" yaml:"relations"`
	TieBreak    string            `json:"tieBreak" yaml:"tieBreak"`
	Members     int               `json:"members" yaml:"members"`
	Headers     int               `json:"headers" yaml:"headers"`
	HeadersUsed int               `json:"headersUsed" yaml:"headersUsed"`
	Sections    []GroupSectionCLI `json:"sections" yaml:"sections"`
}

// GroupSectionCLI is one output section with its groups in header order.
type GroupSectionCLI struct {
	Name   string     `json:"name" yaml:"name"`
	Groups []GroupCLI `json:"groups" yaml:"groups"`
}

// GroupCLI is one header and the members placed under it.
type GroupCLI struct {
	Header         TermRefCLI `json:"header" yaml:"header"`
	D1             string     `json:"d1" yaml:"d1"`
	HeaderIsMember bool       `json:"headerIsMember" yaml:"headerIsMember"`
	Members        []string   `json:"members" yaml:"members"`
}

// groupOptions are the resolved inputs of one grouping.
type groupOptions struct {
	Headers        []string
	SectionsFile   string
	ExcludeDefault bool
	TieBreak       string
	OmitDefaults   bool
}

func runGroup(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	members := append([]string(nil), args...)
	if groupMembersFile != "" {
		f, err := sections.ReadFile(groupMembersFile, sections.ReadOptions{})
		if err != nil {
			exitWithError("reading members", err)
		}
		members = append(members, fileIDs(f)...)
	}
	if len(members) == 0 {
		exitWithError("grouping", errNoTerms)
	}

	opts := groupOptions{
		Headers:        groupHeaders,
		SectionsFile:   s.Config.Grouping.SectionsFile,
		ExcludeDefault: groupExcludeDefault,
		TieBreak:       s.Config.Grouping.TieBreak,
		OmitDefaults:   s.Config.Grouping.OmitDefaults,
	}
	if opts.SectionsFile != "" {
		opts.SectionsFile = config.Resolve(s.Workspace, opts.SectionsFile)
	}
	if groupSectionsFile != "" {
		opts.SectionsFile = groupSectionsFile
	}
	if groupTieBreak != "" {
		opts.TieBreak = groupTieBreak
	}
	if cmd.Flags().Changed("omit-defaults") {
		opts.OmitDefaults = groupOmitDefaults
	}

	resp, asg, err := groupResponse(s, members, opts)
	if err != nil {
		exitWithError("grouping", err)
	}

	if groupSave {
		run, err := saveAssignment(s, asg)
		if err != nil {
			exitWithError("saving assignment", err)
		}
		resp.RunID = run.ID
	}
	if groupWriteSections != "" {
		f := &sections.File{Sections: sections.FromViews(asg.Sections())}
		if err := sections.WriteFile(groupWriteSections, s.Graph, f); err != nil {
			exitWithError("writing sections", err)
		}
	}
	printResponse(resp, groupFormat)
}

// fileIDs returns every id of a sections file, loose headers first.
func fileIDs(f *sections.File) []string {
	ids := append([]string(nil), f.Headers...)
	for _, sec := range f.Sections {
		ids = append(ids, sec.Headers...)
	}
	return ids
}

// buildHeaderSet combines default headers, extra headers and the sections
// file into one header set.
func buildHeaderSet(s *session, opts groupOptions) (*grouper.HeaderSet, error) {
	defaults, err := grouper.DefaultHeaders(s.Graph, s.Config.Grouping.Slims)
	if err != nil {
		return nil, err
	}
	hopts := grouper.HeaderOptions{
		Defaults:     defaults,
		OmitDefaults: opts.OmitDefaults,
	}
	if opts.SectionsFile != "" {
		f, err := sections.ReadFile(opts.SectionsFile, sections.ReadOptions{ExcludeDefault: opts.ExcludeDefault})
		if err != nil {
			return nil, err
		}
		hopts = f.HeaderOptions(defaults, opts.OmitDefaults)
	}
	hopts.User = append(hopts.User, opts.Headers...)
	return grouper.NewHeaderSet(s.Graph, hopts)
}

func groupResponse(s *session, members []string, opts groupOptions) (*GroupResponseCLI, *grouper.Assignment, error) {
	tb, err := grouper.ParseTieBreak(opts.TieBreak)
	if err != nil {
		return nil, nil, err
	}
	headers, err := buildHeaderSet(s, opts)
	if err != nil {
		return nil, nil, err
	}

	assigner := grouper.NewAssigner(s.Scorer, grouper.Options{Logger: s.Logger})
	asg, err := assigner.Assign(members, headers, s.Relations, tb)
	if err != nil {
		return nil, nil, err
	}

	groups := make(map[string]grouper.Group)
	for _, g := range asg.Groups() {
		groups[g.Header] = g
	}
	resp := &GroupResponseCLI{
		Relations:   s.Relations.String(),
		TieBreak:    tb.String(),
		Members:     len(asg.Members()),
		Headers:     headers.Len(),
		HeadersUsed: len(asg.HeadersUsed()),
	}
	for _, view := range asg.Sections() {
		sec := GroupSectionCLI{Name: view.Name}
		for _, h := range view.Headers {
			t, err := s.Graph.Term(h)
			if err != nil {
				return nil, nil, err
			}
			d1, err := s.Scorer.D1String(h)
			if err != nil {
				return nil, nil, err
			}
			g := groups[h]
			sec.Groups = append(sec.Groups, GroupCLI{
				Header:         termRef(t),
				D1:             d1,
				HeaderIsMember: g.HeaderIsMember,
				Members:        g.Members,
			})
		}
		resp.Sections = append(resp.Sections, sec)
	}
	return resp, asg, nil
}

func openStorage(s *session) (*storage.DB, error) {
	return storage.Open(config.Resolve(s.Workspace, s.Config.Storage.Path), s.Logger)
}

// saveAssignment records asg as a group run.
func saveAssignment(s *session, asg *grouper.Assignment) (storage.Run, error) {
	db, err := openStorage(s)
	if err != nil {
		return storage.Run{}, err
	}
	defer db.Close()

	run, err := db.SaveRun(storage.Run{
		Kind:            storage.KindGroup,
		OntologyVersion: s.Graph.Version(),
		Relations:       asg.Relations().String(),
		TieBreak:        asg.TieBreak().String(),
	})
	if err != nil {
		return storage.Run{}, err
	}
	if err := db.SaveAssignment(run.ID, asg); err != nil {
		return storage.Run{}, err
	}
	return run, nil
}
