package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	case FormatYAML:
		return formatYAML(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ClosureResponseCLI:
		return formatClosureHuman(v)
	case *PathsResponseCLI:
		return formatPathsHuman(v)
	case *DescendantCountsResponseCLI:
		return formatDescendantCountsHuman(v)
	case *LettersResponseCLI:
		return formatLettersHuman(v)
	case *ICResponseCLI:
		return formatICHuman(v)
	case *GroupResponseCLI:
		return formatGroupHuman(v)
	case *SimilarityResponseCLI:
		return formatSimilarityHuman(v)
	case *MatrixResponseCLI:
		return formatMatrixHuman(v)
	case *SnapshotResponseCLI:
		return formatSnapshotHuman(v)
	case *RunsResponseCLI:
		return formatRunsHuman(v)
	case *SlimResponseCLI:
		return formatSlimHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatTermRef(t TermRefCLI) string {
	return fmt.Sprintf("%s %s L%02d D%02d %s", t.ID, t.Namespace, t.Level, t.Depth, t.Name)
}

func formatClosureHuman(resp *ClosureResponseCLI) (string, error) {
	var b strings.Builder
	for i, e := range resp.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s of %s (%s): %d\n", capitalize(resp.Direction), e.ID, resp.Relations, len(e.Terms)))
		for _, t := range e.Terms {
			b.WriteString("  " + formatTermRef(t) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatPathsHuman(resp *PathsResponseCLI) (string, error) {
	var b strings.Builder
	for i, e := range resp.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s %s: %d path(s)\n", e.ID, e.Name, len(e.Paths)))
		for _, p := range e.Paths {
			b.WriteString("  " + strings.Join(p, " -> ") + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatDescendantCountsHuman(resp *DescendantCountsResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Descendant counts (%s)\n", resp.Relations))
	for _, c := range resp.Counts {
		b.WriteString(fmt.Sprintf("  %8d  %s\n", c.Descendants, formatTermRef(c.Term)))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatLettersHuman(resp *LettersResponseCLI) (string, error) {
	var b strings.Builder
	if len(resp.Letters) > 0 {
		b.WriteString(fmt.Sprintf("Branch letters (%s)\n", resp.Relations))
		for _, l := range resp.Letters {
			letter := l.Letter
			if letter == "" {
				letter = "-"
			}
			b.WriteString(fmt.Sprintf("  %s  %s %s %8d  %s\n", letter, l.ID, l.Namespace.Short(), l.Descendants, l.Name))
		}
	}
	for _, d := range resp.D1 {
		b.WriteString(fmt.Sprintf("%s %s\n", d.ID, d.D1))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatICHuman(resp *ICResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Information content (%d annotated genes)\n", resp.Genes))
	for _, e := range resp.Terms {
		b.WriteString(fmt.Sprintf("  %s  count=%d freq=%.6f ic=%.4f  %s\n", e.ID, e.Count, e.Frequency, e.IC, e.Name))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatGroupHuman(resp *GroupResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d members under %d of %d headers (%s, tie break %s)\n",
		resp.Members, resp.HeadersUsed, resp.Headers, resp.Relations, resp.TieBreak))
	if resp.RunID != "" {
		b.WriteString(fmt.Sprintf("Saved as run %s\n", resp.RunID))
	}
	for _, sec := range resp.Sections {
		b.WriteString(fmt.Sprintf("\n# SECTION: %s\n", sec.Name))
		for _, g := range sec.Groups {
			marker := " "
			if g.HeaderIsMember {
				marker = "*"
			}
			b.WriteString(fmt.Sprintf("%s %s  %s\n", marker, formatTermRef(g.Header), g.D1))
			for _, m := range g.Members {
				b.WriteString("    " + m + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatSimilarityHuman(resp *SimilarityResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s similarity (%s)\n", resp.Method, resp.Relations))
	for _, p := range resp.Pairs {
		b.WriteString(fmt.Sprintf("  %s  %s  %.4f\n", p.A, p.B, p.Similarity))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatMatrixHuman(resp *MatrixResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s similarity matrix (%s)\n", resp.Method, resp.Relations))
	b.WriteString(strings.Repeat(" ", 10))
	for _, id := range resp.IDs {
		b.WriteString(fmt.Sprintf(" %10s", id[max(0, len(id)-10):]))
	}
	b.WriteString("\n")
	for i, row := range resp.Matrix {
		id := resp.IDs[i]
		b.WriteString(fmt.Sprintf("%10s", id[max(0, len(id)-10):]))
		for _, v := range row {
			b.WriteString(fmt.Sprintf(" %10.4f", v))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatSnapshotHuman(resp *SnapshotResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Snapshot %s\n", resp.Run.ID))
	b.WriteString(fmt.Sprintf("  Ontology:  %s\n", resp.Run.OntologyVersion))
	b.WriteString(fmt.Sprintf("  Relations: %s\n", resp.Run.Relations))
	b.WriteString(fmt.Sprintf("  Terms:     %d\n", resp.Terms))
	b.WriteString(fmt.Sprintf("  Letters:   %d\n", resp.Letters))
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatRunsHuman(resp *RunsResponseCLI) (string, error) {
	if len(resp.Runs) == 0 {
		return "No runs saved.", nil
	}
	var b strings.Builder
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %-8s  %s  %s  %s\n",
			r.ID, r.Kind, r.CreatedAt.Format("2006-01-02 15:04:05"), r.OntologyVersion, r.Relations))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// printResponse writes resp in format to stdout or exits.
func printResponse(resp interface{}, format string) {
	output, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		exitWithError("formatting output", err)
	}
	fmt.Println(output)
}

func formatSlimHuman(resp *SlimResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Slim mapping (%d slim terms)\n", resp.Slims))
	for _, e := range resp.Results {
		b.WriteString(fmt.Sprintf("%s %s\n", e.ID, e.Name))
		b.WriteString(fmt.Sprintf("  direct: %s\n", strings.Join(e.Direct, " ")))
		b.WriteString(fmt.Sprintf("  all:    %s\n", strings.Join(e.All, " ")))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
