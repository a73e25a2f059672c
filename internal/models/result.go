package models

import (
	"strings"
	"time"
)

// SegmentKind tags a diff segment.
type SegmentKind int

const (
	SegmentEqual SegmentKind = iota
	SegmentInsert
	SegmentDelete
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentEqual:
		return "equal"
	case SegmentInsert:
		return "insert"
	case SegmentDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Segment is one unit of a computed textual difference.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Old reconstructs the old input from the equal and deleted segments.
func Old(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind != SegmentInsert {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// New reconstructs the new input from the equal and inserted segments.
func New(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind != SegmentDelete {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Changed reports whether any segment is an insertion or deletion.
func Changed(segments []Segment) bool {
	for _, s := range segments {
		if s.Kind != SegmentEqual {
			return true
		}
	}
	return false
}

// EntryResult contains the outcome of running one corpus entry.
type EntryResult struct {
	ID        string
	Commit    string // resolved snapshot HEAD, empty if unknown
	Directory string
	Segments  []Segment
	Error     *EntryError
	Durations Durations
}

// Changed reports whether the old and new outputs differ.
func (r *EntryResult) Changed() bool {
	return Changed(r.Segments)
}

type Durations struct {
	TotalSec float64
	FetchSec float64
	OldSec   float64
	NewSec   float64
}

// RunResult contains aggregate counts across all entries.
type RunResult struct {
	TotalEntries     int
	UnchangedEntries int
	ChangedEntries   int
	FailedEntries    int
	SkippedEntries   int
	Cancelled        bool
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationSec float64
	Failures         []*EntryError
}
