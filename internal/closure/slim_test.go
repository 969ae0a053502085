package closure

import (
	"errors"
	"reflect"
	"testing"

	goerr "goatk/internal/errors"
)

func TestMapSlim(t *testing.T) {
	e := newToyEngine(t)

	tests := []struct {
		name       string
		id         string
		slims      []string
		wantDirect []string
		wantAll    []string
	}{
		{
			name:       "ancestor on a shorter path is covered",
			id:         "GO:0000010",
			slims:      []string{"GO:0000003", "GO:0000007", "GO:0000002"},
			wantDirect: []string{"GO:0000007"},
			wantAll:    []string{"GO:0000002", "GO:0000003", "GO:0000007"},
		},
		{
			name:       "unrelated slims stay direct",
			id:         "GO:0000010",
			slims:      []string{"GO:0000003", "GO:0000004"},
			wantDirect: []string{"GO:0000003", "GO:0000004"},
			wantAll:    []string{"GO:0000003", "GO:0000004"},
		},
		{
			name:       "term in the slim",
			id:         "GO:0000011",
			slims:      []string{"GO:0000001", "GO:0000010"},
			wantDirect: []string{"GO:0000010"},
			wantAll:    []string{"GO:0000001", "GO:0000010"},
		},
		{
			name:       "no slim ancestor",
			id:         "GO:0000010",
			slims:      []string{"GO:0000008", "GO:0000009"},
			wantDirect: []string{},
			wantAll:    []string{},
		},
		{
			name:       "part_of is not followed",
			id:         "GO:0000009",
			slims:      []string{"GO:0000008", "GO:0000006"},
			wantDirect: []string{"GO:0000006"},
			wantAll:    []string{"GO:0000006"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct, all, err := e.MapSlim(tt.id, tt.slims)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(direct, tt.wantDirect) {
				t.Errorf("direct = %v, want %v", direct, tt.wantDirect)
			}
			if len(all) == 0 && len(tt.wantAll) == 0 {
				return
			}
			if !reflect.DeepEqual(all, tt.wantAll) {
				t.Errorf("all = %v, want %v", all, tt.wantAll)
			}
		})
	}
}

// Walking every path bottom up gives the same answer as the closure form.
func TestMapSlim_MatchesPathWalk(t *testing.T) {
	e := newToyEngine(t)
	slims := []string{"GO:0000002", "GO:0000003", "GO:0000005", "GO:0000007"}

	for _, id := range []string{"GO:0000005", "GO:0000007", "GO:0000008", "GO:0000009", "GO:0000010"} {
		paths, err := e.PathsToTop(id)
		if err != nil {
			t.Fatal(err)
		}
		inSlim := make(map[string]bool)
		for _, s := range slims {
			inSlim[s] = true
		}
		all := make(map[string]bool)
		covered := make(map[string]bool)
		for _, p := range paths {
			seen := false
			for i := len(p) - 1; i >= 0; i-- {
				if !inSlim[p[i]] {
					continue
				}
				all[p[i]] = true
				if seen {
					covered[p[i]] = true
				}
				seen = true
			}
		}
		var want []string
		for _, s := range slims {
			if all[s] && !covered[s] {
				want = append(want, s)
			}
		}

		direct, _, err := e.MapSlim(id, slims)
		if err != nil {
			t.Fatal(err)
		}
		if len(direct) != len(want) || (len(want) > 0 && !reflect.DeepEqual(direct, want)) {
			t.Errorf("MapSlim(%s) direct = %v, path walk gives %v", id, direct, want)
		}
	}
}

func TestMapSlim_UnknownTerm(t *testing.T) {
	e := newToyEngine(t)
	if _, _, err := e.MapSlim("GO:9999999", nil); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("unknown term error = %v", err)
	}
	if _, _, err := e.MapSlim("GO:0000010", []string{"GO:9999999"}); !errors.Is(err, goerr.ErrUnknownTerm) {
		t.Errorf("unknown slim error = %v", err)
	}
}
