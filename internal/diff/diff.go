// Package diff computes the difference between two tool outputs using the
// sergi/go-diff implementation of Myers' algorithm.
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/spachava753/selenology/internal/models"
)

// Engine computes an ordered segment sequence covering both inputs.
type Engine interface {
	Diff(old, new string) []models.Segment
}

// Differ is the default Engine.
type Differ struct {
	dmp         *diffmatchpatch.DiffMatchPatch
	granularity models.Granularity
}

// NewDiffer creates a Differ. Line granularity diffs whole lines; char
// granularity diffs characters and then cleans up for readability.
func NewDiffer(granularity models.Granularity) *Differ {
	dmp := diffmatchpatch.New()
	// No timeout: a timed-out diff is valid but not minimal, and the
	// report must be reproducible across runs.
	dmp.DiffTimeout = 0
	return &Differ{
		dmp:         dmp,
		granularity: granularity,
	}
}

// Diff returns the segments turning old into new.
func (d *Differ) Diff(old, new string) []models.Segment {
	if old == new {
		if old == "" {
			return nil
		}
		return []models.Segment{{Kind: models.SegmentEqual, Text: old}}
	}

	var diffs []diffmatchpatch.Diff
	switch d.granularity {
	case models.GranularityChar:
		diffs = d.dmp.DiffMain(old, new, false)
		diffs = d.dmp.DiffCleanupSemantic(diffs)
	default:
		a, b, lines := d.dmp.DiffLinesToChars(old, new)
		diffs = d.dmp.DiffMain(a, b, false)
		diffs = d.dmp.DiffCharsToLines(diffs, lines)
	}

	return toSegments(diffs)
}

// toSegments converts library diffs, dropping empty ones and merging
// neighbours of the same kind.
func toSegments(diffs []diffmatchpatch.Diff) []models.Segment {
	segments := make([]models.Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}

		var kind models.SegmentKind
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = models.SegmentInsert
		case diffmatchpatch.DiffDelete:
			kind = models.SegmentDelete
		default:
			kind = models.SegmentEqual
		}

		if n := len(segments); n > 0 && segments[n-1].Kind == kind {
			segments[n-1].Text += d.Text
			continue
		}
		segments = append(segments, models.Segment{Kind: kind, Text: d.Text})
	}
	return segments
}
