package report

import (
	"fmt"
	"io"

	"github.com/spachava753/selenology/internal/models"
	"github.com/spachava753/selenology/internal/render"
)

// Head opens the document: charset, stylesheet, body.
const Head = "<!DOCTYPE html>" +
	"<html>" +
	"<head>" +
	"<meta charset='utf-8'>" +
	"<title>selenology</title>" +
	"<style>" +
	"body { font-family: Consolas, monospace; } " +
	".insert { " + render.InsertStyle + "; } " +
	".delete { " + render.DeleteStyle + "; } " +
	".error { " + render.ErrorStyle + "; padding: 0.5em; } " +
	".snapshot { color: #888; }" +
	"</style>" +
	"</head>" +
	"<body>"

// Tail closes the document.
const Tail = "</body></html>"

// Writer streams a report document, one fragment per corpus entry, in the
// order entries are written.
type Writer struct {
	w         io.Writer
	fragments int
	begun     bool
	ended     bool
}

// NewWriter creates a report writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Begin writes the document head.
func (r *Writer) Begin() error {
	if r.begun {
		return fmt.Errorf("report already begun")
	}
	r.begun = true
	if _, err := io.WriteString(r.w, Head); err != nil {
		return fmt.Errorf("writing report head: %w", err)
	}
	return nil
}

// WriteFragment appends a rendered fragment to the body.
func (r *Writer) WriteFragment(fragment string) error {
	if !r.begun || r.ended {
		return fmt.Errorf("writing fragment outside of report body")
	}
	if _, err := io.WriteString(r.w, fragment); err != nil {
		return fmt.Errorf("writing report fragment: %w", err)
	}
	r.fragments++
	return nil
}

// WriteResult renders one entry's result and appends it.
func (r *Writer) WriteResult(repo models.Repository, result *models.EntryResult) error {
	h := render.Heading{
		ID:     repo.ID,
		Ref:    repo.Ref,
		Commit: result.Commit,
	}
	if result.Error != nil {
		return r.WriteFragment(render.Failure(h, result.Error))
	}
	return r.WriteFragment(render.Fragment(h, result.Segments))
}

// End writes the closing tags.
func (r *Writer) End() error {
	if !r.begun || r.ended {
		return fmt.Errorf("report not open")
	}
	r.ended = true
	if _, err := io.WriteString(r.w, Tail); err != nil {
		return fmt.Errorf("writing report tail: %w", err)
	}
	return nil
}

// Fragments returns how many fragments have been written.
func (r *Writer) Fragments() int {
	return r.fragments
}
