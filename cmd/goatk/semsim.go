package main

import (
	"fmt"
	"strings"

	"goatk/internal/errors"
	"goatk/internal/semsim"

	"github.com/spf13/cobra"
)

var (
	semsimFormat  string
	semsimMethod  string
	semsimMatrix  bool
	semsimWorkers int
	semsimBranch  int
)

var semsimCmd = &cobra.Command{
	Use:   "semsim <id> <id>...",
	Short: "Compute semantic similarity between terms",
	Long: `Compute the semantic similarity of term pairs. With two ids the pair is
scored; with more, each id is scored against the first. --matrix scores
every pair.

Methods:
  wang    edge-weighted ancestor overlap, using semsim.weights (default)
  resnik  information content of the deepest common is_a ancestor
  lin     Resnik normalised by the information content of both terms
  distance  inverse of the is_a branch count through the deepest common
            ancestor; --branch-dist joins terms of different namespaces

resnik and lin need annotations (--annotations or ontology.annotationsPath).

Examples:
  goatk semsim GO:0006915 GO:0008219
  goatk semsim GO:0006915 GO:0008219 GO:0012501 --matrix -r part_of --format=human
  goatk semsim GO:0006915 GO:0008219 --method=lin --annotations=id2gos.txt
  goatk semsim GO:0006915 GO:0003674 --method=distance --branch-dist=2`,
	Args: cobra.MinimumNArgs(2),
	Run:  runSemsim,
}

func init() {
	f := semsimCmd.Flags()
	f.StringVar(&semsimFormat, "format", "json", "Output format (json, human, yaml)")
	f.StringVar(&semsimMethod, "method", "wang", "Similarity method: wang, resnik, lin or distance")
	f.BoolVar(&semsimMatrix, "matrix", false, "Score every pair")
	f.IntVar(&semsimWorkers, "workers", 0, "Parallel workers for --matrix (overrides semsim.workers; 0 uses every CPU)")
	f.IntVar(&semsimBranch, "branch-dist", -1, "Branches between namespace roots for --method=distance (overrides semsim.branchDistance; -1 scores such pairs 0)")
	rootCmd.AddCommand(semsimCmd)
}

// SimilarityResponseCLI is the output of semsim for pairs.
type SimilarityResponseCLI struct {
	Method    string    `json:"method" yaml:"method"`
	Relations string    `json:"relations" yaml:"relations"`
	Pairs     []PairCLI `json:"pairs" yaml:"pairs"`
}

// PairCLI is one scored pair.
type PairCLI struct {
	A          string  `json:"a" yaml:"a"`
	B          string  `json:"b" yaml:"b"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// MatrixResponseCLI is the output of semsim --matrix.
type MatrixResponseCLI struct {
	Method    string      `json:"method" yaml:"method"`
	Relations string      `json:"relations" yaml:"relations"`
	IDs       []string    `json:"ids" yaml:"ids"`
	Matrix    [][]float64 `json:"matrix" yaml:"matrix"`
}

func runSemsim(cmd *cobra.Command, args []string) {
	s := mustOpenSession(flagOptions(cmd))
	defer s.Close()

	workers := s.Config.Semsim.Workers
	if cmd.Flags().Changed("workers") {
		workers = semsimWorkers
	}
	if cmd.Flags().Changed("branch-dist") {
		s.Config.Semsim.BranchDistance = semsimBranch
	}

	var (
		resp interface{}
		err  error
	)
	if semsimMatrix {
		resp, err = matrixResponse(s, semsimMethod, args, workers)
	} else {
		resp, err = similarityResponse(s, semsimMethod, args)
	}
	if err != nil {
		exitWithError("computing similarity", err)
	}
	printResponse(resp, semsimFormat)
}

// pairScorer returns a function scoring one pair with method.
func pairScorer(s *session, method string) (string, func(a, b string) (float64, error), error) {
	method = strings.ToLower(strings.TrimSpace(method))
	switch method {
	case "wang":
		w, err := semsim.NewWang(s.Engine, s.Relations, semsim.Options{
			Weights: s.Config.Semsim.Weights,
			Logger:  s.Logger,
		})
		if err != nil {
			return "", nil, err
		}
		return method, w.Similarity, nil
	case "resnik", "lin":
		if s.Counts == nil {
			s.Logger.Warn("No annotations loaded, information content is zero", "method", method)
		}
		if method == "resnik" {
			return method, func(a, b string) (float64, error) { return semsim.Resnik(s.Scorer, a, b) }, nil
		}
		return method, func(a, b string) (float64, error) { return semsim.Lin(s.Scorer, a, b) }, nil
	case "distance":
		branch := s.Config.Semsim.BranchDistance
		return method, func(a, b string) (float64, error) {
			return semsim.SemanticSimilarity(s.Engine, a, b, branch)
		}, nil
	default:
		return "", nil, errors.Newf(errors.InvalidConfig, "unknown similarity method %q (valid: wang, resnik, lin, distance)", method)
	}
}

// similarityResponse scores each id after the first against the first.
func similarityResponse(s *session, method string, ids []string) (*SimilarityResponseCLI, error) {
	name, score, err := pairScorer(s, method)
	if err != nil {
		return nil, err
	}
	resp := &SimilarityResponseCLI{Method: name, Relations: s.Relations.String()}
	for _, b := range ids[1:] {
		v, err := score(ids[0], b)
		if err != nil {
			return nil, err
		}
		resp.Pairs = append(resp.Pairs, PairCLI{A: ids[0], B: b, Similarity: v})
	}
	return resp, nil
}

// matrixResponse scores every pair of ids. Wang pairs run in parallel on
// workers goroutines; the IC methods are cheap enough to run inline.
func matrixResponse(s *session, method string, ids []string, workers int) (*MatrixResponseCLI, error) {
	name := strings.ToLower(strings.TrimSpace(method))
	resp := &MatrixResponseCLI{Method: name, Relations: s.Relations.String(), IDs: ids}

	if name == "wang" {
		w, err := semsim.NewWang(s.Engine, s.Relations, semsim.Options{
			Weights: s.Config.Semsim.Weights,
			Logger:  s.Logger,
		})
		if err != nil {
			return nil, err
		}
		m, err := w.Matrix(newContext(), ids, workers)
		if err != nil {
			return nil, err
		}
		resp.Matrix = m
		return resp, nil
	}

	name, score, err := pairScorer(s, method)
	if err != nil {
		return nil, err
	}
	resp.Method = name
	resp.Matrix = make([][]float64, len(ids))
	for i := range ids {
		resp.Matrix[i] = make([]float64, len(ids))
	}
	for i := range ids {
		for j := i; j < len(ids); j++ {
			v, err := score(ids[i], ids[j])
			if err != nil {
				return nil, fmt.Errorf("scoring %s and %s: %w", ids[i], ids[j], err)
			}
			resp.Matrix[i][j] = v
			resp.Matrix[j][i] = v
		}
	}
	return resp, nil
}
