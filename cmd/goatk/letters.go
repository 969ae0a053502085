package main

import (
	"goatk/internal/termscore"

	"github.com/spf13/cobra"
)

var (
	lettersFormat string
	icFormat      string
)

var lettersCmd = &cobra.Command{
	Use:   "letters [id]...",
	Short: "Show branch letters",
	Long: `Show the letter of every depth-01 term, assigned per namespace from the
largest descendant count down. With ids, print each term's D1 string: the
letters of the depth-01 terms among the term and its ancestors.

Examples:
  goatk letters --format=human
  goatk letters GO:0006915 GO:0007165 -r part_of`,
	Run: runLetters,
}

var icCmd = &cobra.Command{
	Use:   "ic <id>...",
	Short: "Show annotation counts and information content",
	Long: `Show the propagated annotation count, frequency and information content
(-ln frequency) of each term. Requires an associations file, set with
--annotations or ontology.annotationsPath; without one every value is zero.

Examples:
  goatk ic GO:0006915 --annotations=id2gos.txt`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIC,
}

func init() {
	lettersCmd.Flags().StringVar(&lettersFormat, "format", "json", "Output format (json, human, yaml)")
	icCmd.Flags().StringVar(&icFormat, "format", "json", "Output format (json, human, yaml)")
	rootCmd.AddCommand(lettersCmd, icCmd)
}

// LettersResponseCLI is the output of letters.
type LettersResponseCLI struct {
	Relations string                   `json:"relations" yaml:"relations"`
	Letters   []termscore.BranchLetter `json:"letters,omitempty" yaml:"letters,omitempty"`
	D1        []D1EntryCLI             `json:"d1,omitempty" yaml:"d1,omitempty"`
}

// D1EntryCLI is the D1 string of one term.
type D1EntryCLI struct {
	ID string `json:"id" yaml:"id"`
	D1 string `json:"d1" yaml:"d1"`
}

// ICResponseCLI is the output of ic.
type ICResponseCLI struct {
	Genes int          `json:"genes" yaml:"genes"`
	Terms []ICEntryCLI `json:"terms" yaml:"terms"`
}

// ICEntryCLI holds the annotation scores of one term.
type ICEntryCLI struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Count     int     `json:"count" yaml:"count"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
	IC        float64 `json:"ic" yaml:"ic"`
}

func runLetters(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	resp, err := lettersResponse(s, args)
	if err != nil {
		exitWithError("computing branch letters", err)
	}
	printResponse(resp, lettersFormat)
}

// lettersResponse lists the letter table, or the D1 strings of ids when any
// are given.
func lettersResponse(s *session, ids []string) (*LettersResponseCLI, error) {
	resp := &LettersResponseCLI{Relations: s.Relations.String()}
	if len(ids) == 0 {
		letters, err := s.Scorer.BranchLetters()
		if err != nil {
			return nil, err
		}
		resp.Letters = letters
		return resp, nil
	}
	for _, id := range ids {
		canonical, err := s.Graph.Resolve(id)
		if err != nil {
			return nil, err
		}
		d1, err := s.Scorer.D1String(canonical)
		if err != nil {
			return nil, err
		}
		resp.D1 = append(resp.D1, D1EntryCLI{ID: canonical, D1: d1})
	}
	return resp, nil
}

func runIC(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	if s.Counts == nil {
		s.Logger.Warn("No annotations loaded, information content is zero")
	}
	resp, err := icResponse(s, args)
	if err != nil {
		exitWithError("computing information content", err)
	}
	printResponse(resp, icFormat)
}

func icResponse(s *session, ids []string) (*ICResponseCLI, error) {
	resp := &ICResponseCLI{}
	if s.Counts != nil {
		resp.Genes = s.Counts.Genes()
	}
	for _, id := range ids {
		t, err := s.Graph.Term(id)
		if err != nil {
			return nil, err
		}
		freq, err := s.Scorer.AnnotationFrequency(t.ID)
		if err != nil {
			return nil, err
		}
		e := ICEntryCLI{
			ID:        t.ID,
			Name:      t.Name,
			Frequency: freq,
			IC:        s.Scorer.InformationContentOf(t.Node()),
		}
		if s.Counts != nil {
			e.Count = s.Counts.AnnotationCount(t.ID)
		}
		resp.Terms = append(resp.Terms, e)
	}
	return resp, nil
}
