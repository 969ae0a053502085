package testutil

import (
	"strings"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	f := LoadFixture(t, "toy")
	if f.AnnotationsPath == "" || f.SectionsPath == "" {
		t.Errorf("toy fixture should carry annotations and sections: %+v", f)
	}
	if !strings.HasSuffix(f.ExpectedPath("paths_alias"), "expected/paths_alias.json") {
		t.Errorf("ExpectedPath() = %s", f.ExpectedPath("paths_alias"))
	}
	if !strings.HasSuffix(f.ExpectedTextPath("group"), "expected/group.txt") {
		t.Errorf("ExpectedTextPath() = %s", f.ExpectedTextPath("group"))
	}
}

func TestLineDiff(t *testing.T) {
	tests := []struct {
		name      string
		want, got string
		contains  []string
	}{
		{
			name:     "changed line",
			want:     "a\nb\nc\nd\n",
			got:      "a\nb\nX\nd\n",
			contains: []string{"first difference at line 3", "  a\n  b\n", "- c\n", "+ X\n"},
		},
		{
			name:     "missing tail",
			want:     "a\nb\nc\n",
			got:      "a\n",
			contains: []string{"first difference at line 2 (want 4 lines, got 2)", "- b\n", "- c\n", "+ \n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineDiff(tt.want, tt.got)
			for _, c := range tt.contains {
				if !strings.Contains(got, c) {
					t.Errorf("lineDiff() missing %q:\n%s", c, got)
				}
			}
		})
	}
}

func TestMarshalNormalized(t *testing.T) {
	f := LoadFixture(t, "toy")
	data := map[string]any{
		"runId":     "6f1c",
		"createdAt": "2024-01-01T00:00:00Z",
		"path":      f.OBOPath,
		"ids":       []string{"GO:0000002", "GO:0000001"},
	}
	got := string(MarshalNormalized(t, f, data))
	want := "{\n  \"ids\": [\n    \"GO:0000002\",\n    \"GO:0000001\"\n  ],\n  \"path\": \"<fixture>/toy.obo\"\n}\n"
	if got != want {
		t.Errorf("MarshalNormalized() =\n%s\nwant\n%s", got, want)
	}
}
