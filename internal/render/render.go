package render

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/spachava753/selenology/internal/models"
)

// Inline styles, so a fragment renders correctly outside the report too.
const (
	DeleteStyle = "background-color: #67060c; color: #ffdcd7"
	InsertStyle = "background-color: #033a16; color: #aff5b4"
	ErrorStyle  = "background-color: #4d2d00; color: #ffdf9e"
)

const lineBreak = "<br />"

// Heading identifies the entry a fragment belongs to.
type Heading struct {
	ID     string
	Ref    string // optional
	Commit string // optional, resolved snapshot commit
}

// Text escapes raw tool output for HTML and turns newlines into line breaks.
func Text(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", lineBreak)
}

// Diff renders segments under a heading equal to id.
func Diff(id string, segments []models.Segment) string {
	return Fragment(Heading{ID: id}, segments)
}

// Fragment renders segments as one report block: heading, optional
// snapshot line, colored diff, separator.
func Fragment(h Heading, segments []models.Segment) string {
	var b strings.Builder
	writeHeading(&b, h)

	for _, s := range segments {
		switch s.Kind {
		case models.SegmentDelete:
			writeSpan(&b, "delete", DeleteStyle, s.Text)
		case models.SegmentInsert:
			writeSpan(&b, "insert", InsertStyle, s.Text)
		default:
			b.WriteString(Text(s.Text))
		}
	}

	b.WriteString("</div><hr />")
	return b.String()
}

// Failure renders an entry that could not be compared.
func Failure(h Heading, err *models.EntryError) string {
	var b strings.Builder
	writeHeading(&b, h)

	b.WriteString("<div class='error' style='")
	b.WriteString(ErrorStyle)
	b.WriteString("'><b>")
	b.WriteString(Text(string(err.Type)))
	b.WriteString("</b> while ")
	b.WriteString(Text(string(err.Phase)))
	if err.Err != nil {
		b.WriteString(lineBreak)
		b.WriteString(Text(err.Err.Error()))
	}
	b.WriteString("</div></div><hr />")
	return b.String()
}

func writeHeading(b *strings.Builder, h Heading) {
	b.WriteString("<div><h2>")
	b.WriteString(html.EscapeString(h.ID))
	b.WriteString("</h2>")

	if h.Ref == "" && h.Commit == "" {
		return
	}
	b.WriteString("<p class='snapshot'>")
	b.WriteString(html.EscapeString(h.Ref))
	if h.Commit != "" {
		commit := h.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if h.Ref != "" {
			b.WriteString(" @ ")
		}
		b.WriteString(html.EscapeString(commit))
	}
	b.WriteString("</p>")
}

func writeSpan(b *strings.Builder, class, style, text string) {
	b.WriteString("<span class='")
	b.WriteString(class)
	b.WriteString("' style='")
	b.WriteString(style)
	b.WriteString("'>")
	b.WriteString(Text(text))
	b.WriteString("</span>")
}
