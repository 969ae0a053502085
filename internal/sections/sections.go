// Package sections reads and writes header section files. Three formats
// are understood, chosen by extension: the plain text format (".txt" and
// anything unrecognised), TOML (".toml") and YAML (".yaml", ".yml").
package sections

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"goatk/internal/errors"
	"goatk/internal/grouper"
)

// Format is a sections file encoding.
type Format string

const (
	Text Format = "text"
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML
	case ".yaml", ".yml":
		return YAML
	default:
		return Text
	}
}

// File is the content of a sections file: declared sections in order,
// plus header ids listed outside any section.
type File struct {
	Version  int               `toml:"version,omitempty" yaml:"version,omitempty"`
	Headers  []string          `toml:"headers,omitempty" yaml:"headers,omitempty"`
	Sections []grouper.Section `toml:"section" yaml:"sections"`
}

// HeaderOptions returns grouper options using the file's headers.
func (f *File) HeaderOptions(defaults []string, omitDefaults bool) grouper.HeaderOptions {
	return grouper.HeaderOptions{
		Defaults:     defaults,
		User:         f.Headers,
		Sections:     f.Sections,
		OmitDefaults: omitDefaults,
	}
}

// ReadOptions tunes reading.
type ReadOptions struct {
	// ExcludeDefault drops a declared DefaultSection and its headers.
	ExcludeDefault bool
}

// ReadFile reads path in the format its extension names.
func ReadFile(path string, opts ReadOptions) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.LoadFailed, fmt.Sprintf("cannot read sections file %s", path), err)
	}
	f, err := Decode(bytes.NewReader(data), FormatOf(path), opts)
	if err != nil {
		return nil, errors.New(errors.LoadFailed, fmt.Sprintf("cannot parse sections file %s", path), err)
	}
	return f, nil
}

// Decode reads a sections file in format.
func Decode(r io.Reader, format Format, opts ReadOptions) (*File, error) {
	var f *File
	switch format {
	case TOML, YAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		f = &File{}
		if format == TOML {
			err = toml.Unmarshal(data, f)
		} else {
			err = yaml.Unmarshal(data, f)
		}
		if err != nil {
			return nil, err
		}
		for i, sec := range f.Sections {
			if strings.TrimSpace(sec.Name) == "" {
				return nil, fmt.Errorf("section %d has no name", i+1)
			}
		}
	default:
		var err error
		if f, err = readText(r); err != nil {
			return nil, err
		}
	}
	if opts.ExcludeDefault {
		kept := f.Sections[:0]
		for _, sec := range f.Sections {
			if sec.Name != grouper.DefaultSection {
				kept = append(kept, sec)
			}
		}
		f.Sections = kept
	}
	return f, nil
}

var sectionLine = regexp.MustCompile(`(?i)^#?\s*SECTION:\s*(\S.*\S|\S)\s*$`)

// readText parses the text format. A "# SECTION: name" line opens a
// section; every line starting with a GO id adds that id to the open
// section, or to Headers before the first section. Other lines are
// ignored. Sections without ids are dropped.
func readText(r io.Reader) (*File, error) {
	f := &File{}
	var cur *grouper.Section
	closeSection := func() {
		if cur != nil && len(cur.Headers) > 0 {
			f.Sections = append(f.Sections, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "GO:") {
			id := strings.Fields(line)[0]
			if cur != nil {
				cur.Headers = append(cur.Headers, id)
			} else {
				f.Headers = append(f.Headers, id)
			}
			continue
		}
		if m := sectionLine.FindStringSubmatch(line); m != nil {
			closeSection()
			cur = &grouper.Section{Name: m[1]}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	closeSection()
	return f, nil
}
