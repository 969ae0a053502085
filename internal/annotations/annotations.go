// Package annotations reads gene to GO term associations in the two
// column id2gos format:
//
//	AAR1	GO:0005575;GO:0003674;GO:0006970
//	AAR2	GO:0005575
//
// A gene may repeat on several lines; its terms are merged.
package annotations

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"goatk/internal/errors"
	"goatk/internal/graph"
)

// Associations maps a gene id to its sorted, unique term ids.
type Associations map[string][]string

// Load reads path, decompressing it when it is gzip.
func Load(path string) (Associations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.LoadFailed, fmt.Sprintf("cannot open associations %s", path), err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses associations from r. Blank lines, '#' and '!' comments and
// lines without exactly one gene column and one term column are skipped.
func Read(r io.Reader) (Associations, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.New(errors.LoadFailed, "cannot read gzip stream", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	sets := make(map[string]map[string]bool)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		gene, terms, ok := splitRow(line)
		if !ok {
			continue
		}
		set := sets[gene]
		if set == nil {
			set = make(map[string]bool)
			sets[gene] = set
		}
		for _, id := range strings.Split(terms, ";") {
			if id = strings.TrimSpace(id); id != "" {
				set[id] = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.LoadFailed, "cannot read associations", err)
	}

	out := make(Associations, len(sets))
	for gene, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[gene] = ids
	}
	return out, nil
}

func splitRow(line string) (gene, terms string, ok bool) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 2:
		return fields[0], fields[1], true
	case len(fields) > 2 && strings.Count(line, "\t") == 1:
		gene, terms, _ = strings.Cut(line, "\t")
		return strings.TrimSpace(gene), strings.ReplaceAll(terms, " ", ""), true
	}
	return "", "", false
}

// Genes returns the gene ids, sorted.
func (a Associations) Genes() []string {
	genes := make([]string, 0, len(a))
	for g := range a {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

// Filter splits a into the annotations g knows and the sorted unknown term
// ids. Genes left without a known term are dropped.
func (a Associations) Filter(g *graph.Graph) (Associations, []string) {
	kept := make(Associations, len(a))
	unknown := make(map[string]bool)
	for gene, ids := range a {
		var known []string
		for _, id := range ids {
			if g.Contains(id) {
				known = append(known, id)
			} else {
				unknown[id] = true
			}
		}
		if len(known) > 0 {
			kept[gene] = known
		}
	}
	missing := make([]string, 0, len(unknown))
	for id := range unknown {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	return kept, missing
}
