// Package obo reads OBO 1.2 ontology files into a graph.Source. Files
// ending in .gz, or starting with the gzip magic, are decompressed on the
// fly.
package obo

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/slogutil"
)

// Options controls what is loaded.
type Options struct {
	// LoadRelations keeps relationship lines and marks the source as
	// relation-complete.
	LoadRelations bool
	// LoadObsolete keeps terms flagged is_obsolete.
	LoadObsolete bool
	Logger       *slog.Logger
}

// Stats summarises one parse.
type Stats struct {
	Terms            int
	Obsolete         int
	Typedefs         int
	SkippedRelations int
	DroppedRefs      int
}

// Load opens path and parses it.
func Load(path string, opts Options) (graph.Source, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Source{}, Stats{}, errors.New(errors.LoadFailed, fmt.Sprintf("cannot open ontology %s", path), err)
	}
	defer f.Close()

	src, stats, err := Parse(f, opts)
	if err != nil {
		return graph.Source{}, stats, err
	}
	opts.logger().Debug("Ontology file loaded",
		"path", path,
		"version", src.Version,
		"terms", stats.Terms,
		"obsolete", stats.Obsolete,
		"relations", opts.LoadRelations,
	)
	return src, stats, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slogutil.NewDiscardLogger()
	}
	return o.Logger
}

// Parse reads OBO text, or gzip-compressed OBO text, from r.
func Parse(r io.Reader, opts Options) (graph.Source, Stats, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return graph.Source{}, Stats{}, errors.New(errors.LoadFailed, "cannot read gzip stream", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	p := &parser{opts: opts, src: graph.Source{RelationsLoaded: opts.LoadRelations}}
	if err := p.run(br); err != nil {
		return graph.Source{}, p.stats, err
	}
	p.finish()
	return p.src, p.stats, nil
}

type stanza uint8

const (
	inHeader stanza = iota
	inTerm
	inTypedef
	inOther
)

type parser struct {
	opts  Options
	src   graph.Source
	stats Stats

	state   stanza
	cur     *graph.TermRecord
	curLine int
	dropped map[string]bool
}

func (p *parser) run(br *bufio.Reader) error {
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '!' {
			continue
		}
		if text[0] == '[' {
			if err := p.flush(); err != nil {
				return err
			}
			p.open(text, line)
			continue
		}
		tag, value, ok := strings.Cut(text, ":")
		if !ok {
			return errors.Newf(errors.LoadFailed, "line %d: expected tag: value, got %q", line, text)
		}
		if err := p.tag(strings.TrimSpace(tag), strings.TrimSpace(value), line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.New(errors.LoadFailed, fmt.Sprintf("read failed after line %d", line), err)
	}
	return p.flush()
}

func (p *parser) open(header string, line int) {
	switch header {
	case "[Term]":
		p.state = inTerm
		p.cur = &graph.TermRecord{}
		p.curLine = line
	case "[Typedef]":
		p.state = inTypedef
		p.stats.Typedefs++
	default:
		p.state = inOther
	}
}

func (p *parser) tag(tag, value string, line int) error {
	switch p.state {
	case inHeader:
		if tag == "data-version" {
			p.src.Version = value
		}
		return nil
	case inTerm:
	default:
		return nil
	}

	t := p.cur
	switch tag {
	case "id":
		t.ID = firstField(value)
	case "name":
		t.Name = value
	case "namespace":
		t.Namespace = graph.ParseNamespace(value)
	case "alt_id":
		t.AltIDs = append(t.AltIDs, firstField(value))
	case "is_a":
		t.IsA = append(t.IsA, firstField(value))
	case "is_obsolete":
		t.Obsolete = value == "true"
	case "relationship":
		if !p.opts.LoadRelations {
			return nil
		}
		fields := strings.Fields(stripComment(value))
		if len(fields) < 2 {
			return errors.Newf(errors.LoadFailed, "line %d: malformed relationship %q", line, value)
		}
		r, err := graph.ParseRelType(fields[0])
		if err != nil {
			p.stats.SkippedRelations++
			return nil
		}
		if t.Relationships == nil {
			t.Relationships = make(map[graph.RelType][]string)
		}
		t.Relationships[r] = append(t.Relationships[r], fields[1])
	}
	return nil
}

func (p *parser) flush() error {
	if p.state != inTerm || p.cur == nil {
		return nil
	}
	t := p.cur
	p.cur = nil
	if t.ID == "" {
		return errors.Newf(errors.LoadFailed, "line %d: [Term] stanza without id", p.curLine)
	}
	if t.Obsolete && !p.opts.LoadObsolete {
		p.stats.Obsolete++
		if p.dropped == nil {
			p.dropped = make(map[string]bool)
		}
		p.dropped[t.ID] = true
		for _, alt := range t.AltIDs {
			p.dropped[alt] = true
		}
		return nil
	}
	if p.opts.LoadRelations && t.Relationships == nil {
		t.Relationships = map[graph.RelType][]string{}
	}
	p.src.Terms = append(p.src.Terms, *t)
	p.stats.Terms++
	return nil
}

// finish removes references to obsolete terms that were not loaded.
func (p *parser) finish() {
	if len(p.dropped) == 0 {
		return
	}
	keep := func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if p.dropped[id] {
				p.stats.DroppedRefs++
				continue
			}
			out = append(out, id)
		}
		return out
	}
	for i := range p.src.Terms {
		t := &p.src.Terms[i]
		t.IsA = keep(t.IsA)
		for r, targets := range t.Relationships {
			t.Relationships[r] = keep(targets)
		}
	}
}

func stripComment(v string) string {
	if i := strings.Index(v, "!"); i >= 0 {
		v = v[:i]
	}
	if i := strings.Index(v, "{"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func firstField(v string) string {
	fields := strings.Fields(stripComment(v))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
