package diff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/selenology/internal/models"
)

var granularities = []models.Granularity{models.GranularityLine, models.GranularityChar}

func TestDiffEqualInputs(t *testing.T) {
	inputs := []string{
		"",
		"no issues found\n",
		"warning[unused_variable]: x is assigned a value, but never used\n  ┌─ src/init.lua:1:7\n",
	}

	for _, g := range granularities {
		for _, in := range inputs {
			segments := NewDiffer(g).Diff(in, in)
			for _, s := range segments {
				if s.Kind != models.SegmentEqual {
					t.Errorf("%s: expected only equal segments for %q, got %+v", g, in, segments)
				}
			}
			if models.Changed(segments) {
				t.Errorf("%s: expected unchanged diff for %q", g, in)
			}
		}
	}
}

func TestDiffChangedLine(t *testing.T) {
	segments := NewDiffer(models.GranularityLine).Diff("line1\nline2\n", "line1\nline3\n")

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %+v", segments)
	}
	if diff := cmp.Diff(models.Segment{Kind: models.SegmentEqual, Text: "line1\n"}, segments[0]); diff != "" {
		t.Errorf("first segment mismatch (-want +got):\n%s", diff)
	}

	// Deletion and insertion may come in either order
	got := map[models.SegmentKind]string{
		segments[1].Kind: segments[1].Text,
		segments[2].Kind: segments[2].Text,
	}
	want := map[models.SegmentKind]string{
		models.SegmentDelete: "line2\n",
		models.SegmentInsert: "line3\n",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changed segments mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffRoundTrip(t *testing.T) {
	cases := []struct {
		old string
		new string
	}{
		{"", "added\n"},
		{"removed\n", ""},
		{"a\nb\nc\n", "a\nc\nd\n"},
		{"no trailing newline", "no trailing newline\n"},
		{"héllo wörld\n", "hello world\n"},
		{"src/a.lua:1:1 warning\nsrc/b.lua:2:2 error\n", "src/b.lua:2:2 error\nsrc/a.lua:1:1 warning\n"},
		{strings.Repeat("x\n", 100), strings.Repeat("x\n", 50) + "y\n" + strings.Repeat("x\n", 49)},
		{"<a & b>\n", "<a && b>\n"},
	}

	for _, g := range granularities {
		for _, c := range cases {
			segments := NewDiffer(g).Diff(c.old, c.new)
			if got := models.Old(segments); got != c.old {
				t.Errorf("%s: old reconstruction = %q, want %q", g, got, c.old)
			}
			if got := models.New(segments); got != c.new {
				t.Errorf("%s: new reconstruction = %q, want %q", g, got, c.new)
			}
			for i, s := range segments {
				if s.Text == "" {
					t.Errorf("%s: segment %d is empty", g, i)
				}
				if i > 0 && segments[i-1].Kind == s.Kind {
					t.Errorf("%s: segments %d and %d have the same kind %s", g, i-1, i, s.Kind)
				}
			}
		}
	}
}

func TestDiffCharGranularity(t *testing.T) {
	segments := NewDiffer(models.GranularityChar).Diff("line1\nline2\n", "line1\nline3\n")
	if !models.Changed(segments) {
		t.Fatal("expected a change")
	}
	for _, s := range segments {
		if s.Kind != models.SegmentEqual && strings.Contains(s.Text, "line1") {
			t.Errorf("unchanged text marked as changed: %+v", s)
		}
	}
}
