package skysync

import (
	"reflect"
	"testing"
)

// TestSplitIDs covers the feed's comma-separated identifier lists,
// which arrive with leading/trailing commas and stray whitespace.
func TestSplitIDs(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain", "us001,ak002", []string{"us001", "ak002"}},
		{"surrounding commas", ",us7000abcd,usauto7000abcd,", []string{"us7000abcd", "usauto7000abcd"}},
		{"whitespace", " us001 , ak002 ", []string{"us001", "ak002"}},
		{"single", "us001", []string{"us001"}},
		{"empty", "", []string{}},
		{"only commas", ",,,", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitIDs(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitIDs(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

// TestEarthquake_MergeKnownIDs verifies the identifier set only grows
// and never duplicates.
func TestEarthquake_MergeKnownIDs(t *testing.T) {
	q := &Earthquake{KnownIDs: []string{"us001"}}

	q.MergeKnownIDs([]string{"us002", "us001", ""})
	if !reflect.DeepEqual(q.KnownIDs, []string{"us001", "us002"}) {
		t.Errorf("KnownIDs = %v", q.KnownIDs)
	}

	// Merging an already-known set is a no-op.
	q.MergeKnownIDs([]string{"us001", "us002"})
	if len(q.KnownIDs) != 2 {
		t.Errorf("KnownIDs grew on re-merge: %v", q.KnownIDs)
	}

	if !q.HasKnownID("us002") || q.HasKnownID("us003") {
		t.Error("HasKnownID misreports membership")
	}
}

func TestOutcomeKind_String(t *testing.T) {
	cases := map[OutcomeKind]string{
		OutcomeNoOp:     "noop",
		OutcomeUpdated:  "updated",
		OutcomeInserted: "inserted",
		OutcomeKind(42): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
