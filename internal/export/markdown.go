// Package export renders a biography tree into shareable output shapes:
// a Markdown blob and a flat sequence of styled text blocks for PDF
// rendering. Both are pure projections; file saving and PDF layout belong
// to the caller.
package export

import (
	"regexp"
	"strings"

	"storysage/internal/biography"
)

// Content bodies can embed [MEM_...] reference markers that link passages
// back to interview memories. They are preserved through every edit and
// stripped only here, at display time.
var memMarkerPattern = regexp.MustCompile(`\[MEM_[^\]\s]*\]`)

// ToMarkdown renders the biography as a Markdown document: the title as a
// level-1 heading, the introduction, then every section depth-first with
// a heading per nesting level.
func ToMarkdown(doc *biography.Document) string {
	var sb strings.Builder
	sb.WriteString("# " + doc.Title + "\n\n")
	if strings.TrimSpace(doc.Content) != "" {
		sb.WriteString(FormatContent(doc.Content) + "\n\n")
	}
	for _, sec := range doc.Children("") {
		writeSection(&sb, doc, sec, 2)
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, doc *biography.Document, sec *biography.Section, level int) {
	sb.WriteString(strings.Repeat("#", headingLevel(level)) + " " + sec.Title + "\n\n")
	if strings.TrimSpace(sec.Content) != "" {
		sb.WriteString(FormatContent(sec.Content) + "\n\n")
	}
	for _, child := range doc.Children(sec.ID) {
		writeSection(sb, doc, child, level+1)
	}
}

// FormatContent strips reference markers from a content body for display.
// The engine otherwise treats content as an opaque string.
func FormatContent(content string) string {
	return memMarkerPattern.ReplaceAllString(content, "")
}

// SlugFilename builds an export file name from the biography title:
// lowercased, whitespace runs collapsed to underscores.
func SlugFilename(title, ext string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(title)))
	if len(fields) == 0 {
		return "biography" + ext
	}
	return strings.Join(fields, "_") + ext
}

// Markdown heading levels stop at 6; deeper nesting reuses the last level.
func headingLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}
