package main

import (
	"fmt"

	"goatk/internal/version"

	"github.com/spf13/cobra"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFormat == "human" {
			fmt.Println(version.Full())
			return
		}
		printResponse(&VersionResponseCLI{
			Version:   version.Version,
			Commit:    version.Commit,
			BuildDate: version.BuildDate,
		}, versionFormat)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(versionCmd)
}

// VersionResponseCLI is the output of version.
type VersionResponseCLI struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}
