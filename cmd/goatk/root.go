package main

import (
	"goatk/internal/version"

	"github.com/spf13/cobra"
)

var (
	workspaceFlag   string
	configFlag      string
	oboFlag         string
	annotationsFlag string
	relationsFlag   []string
	verboseFlag     int
	quietFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "goatk",
	Short: "goatk - Gene Ontology term toolkit",
	Long: `goatk loads a Gene Ontology OBO file and answers structural questions about it:
ancestor and descendant closures, paths to the root, descendant counts, branch
letters, information content, header grouping and semantic similarity.

Settings come from .goatk/config.toml in the workspace, GOATK_* environment
variables and the flags below, in increasing order of precedence.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("goatk version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&workspaceFlag, "workspace", "w", ".", "Workspace directory holding .goatk/")
	pf.StringVar(&configFlag, "config", "", "Explicit config file (toml, json or yaml)")
	pf.StringVar(&oboFlag, "obo", "", "Ontology file, optionally gzipped (overrides ontology.oboPath)")
	pf.StringVar(&annotationsFlag, "annotations", "", "Gene to GO id associations (overrides ontology.annotationsPath)")
	pf.StringSliceVarP(&relationsFlag, "relations", "r", nil, "Relation types besides is_a: part_of, regulates, positively_regulates, negatively_regulates or all")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Silence all logging")
}

// flagOptions collects the persistent flags into session options.
func flagOptions(cmd *cobra.Command) sessionOptions {
	return sessionOptions{
		Workspace:   workspaceFlag,
		ConfigFile:  configFlag,
		OBOPath:     oboFlag,
		Annotations: annotationsFlag,
		Relations:   relationsFlag,
		Verbosity:   verboseFlag,
		Quiet:       quietFlag,
		// Only an explicit flag overrides the configured level.
		LevelFromFlags: cmd.Flags().Changed("verbose") || cmd.Flags().Changed("quiet"),
	}
}
