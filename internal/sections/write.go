package sections

import (
	"bufio"
	"fmt"
	"io"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"goatk/internal/graph"
	"goatk/internal/grouper"
)

// FromViews converts the sections of an assignment into declarable
// sections, e.g. to save the headers a run actually used.
func FromViews(views []grouper.SectionView) []grouper.Section {
	out := make([]grouper.Section, len(views))
	for i, v := range views {
		out[i] = grouper.Section{Name: v.Name, Headers: append([]string(nil), v.Headers...)}
	}
	return out
}

// WriteText renders sections in the text format. Each header line carries
// the namespace, level, depth and name of the term when g knows it.
func WriteText(w io.Writer, g *graph.Graph, secs []grouper.Section) error {
	bw := bufio.NewWriter(w)
	if g != nil && g.Version() != "" {
		fmt.Fprintf(bw, "# ontology: %s\n", g.Version())
	}
	for i, sec := range secs {
		if i > 0 {
			bw.WriteByte('\n')
		}
		fmt.Fprintf(bw, "# SECTION: %s\n", sec.Name)
		for _, id := range sec.Headers {
			if g == nil {
				fmt.Fprintln(bw, id)
				continue
			}
			t, err := g.Term(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(bw, "%s # %s L%02d D%02d %s\n", t.ID, t.Namespace.Short(), t.Level, t.Depth, t.Name)
		}
	}
	return bw.Flush()
}

// Encode writes f in format.
func Encode(w io.Writer, format Format, g *graph.Graph, f *File) error {
	switch format {
	case TOML:
		data, err := toml.Marshal(f)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(f.Headers) > 0 {
			for _, id := range f.Headers {
				if _, err := fmt.Fprintln(w, id); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return WriteText(w, g, f.Sections)
	}
}

// WriteFile writes f to path in the format its extension names.
func WriteFile(path string, g *graph.Graph, f *File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, FormatOf(path), g, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
