package grouper

import (
	"strings"

	"goatk/internal/errors"
)

// TieBreak chooses the most specific header among a member's candidates.
type TieBreak uint8

const (
	// MinDescendants prefers the header with the fewest descendants.
	MinDescendants TieBreak = iota
	// MaxInformation prefers the header with the highest information content.
	MaxInformation
	// MaxInformationThenDescendants prefers the highest information content,
	// then the larger descendant count.
	MaxInformationThenDescendants
)

var tieBreakNames = map[TieBreak]string{
	MinDescendants:                "dcnt",
	MaxInformation:                "tinfo",
	MaxInformationThenDescendants: "tinfo_dcnt",
}

func (tb TieBreak) String() string {
	if s, ok := tieBreakNames[tb]; ok {
		return s
	}
	return "unknown"
}

// ParseTieBreak accepts dcnt, tinfo or tinfo_dcnt. The empty string is dcnt.
func ParseTieBreak(s string) (TieBreak, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return MinDescendants, nil
	}
	for tb, name := range tieBreakNames {
		if name == s {
			return tb, nil
		}
	}
	return 0, errors.Newf(errors.InvalidConfig, "unknown tie break %q (valid: dcnt, tinfo, tinfo_dcnt)", s)
}

type score struct {
	dcnt int
	ic   float64
}

// compare returns a positive value when a is strictly more specific than b
// under tb, negative when b is, and zero on a tie.
func (tb TieBreak) compare(a, b score) int {
	switch tb {
	case MaxInformation:
		return cmpFloat(a.ic, b.ic)
	case MaxInformationThenDescendants:
		if c := cmpFloat(a.ic, b.ic); c != 0 {
			return c
		}
		return cmpInt(a.dcnt, b.dcnt)
	default:
		return cmpInt(b.dcnt, a.dcnt)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
