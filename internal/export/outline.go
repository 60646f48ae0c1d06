package export

import (
	"bufio"
	"strings"
)

// OutlineEntry is one heading recovered from a rendered Markdown document.
type OutlineEntry struct {
	Title string
	Level int
}

// ParseOutline scans Markdown text and returns its headings in order.
// It recognizes ATX headings only ("## Title"), which is all ToMarkdown
// emits; it exists so tests can check that an exported document preserves
// the tree's nesting structure.
func ParseOutline(md string) []OutlineEntry {
	var entries []OutlineEntry
	scanner := bufio.NewScanner(strings.NewReader(md))

	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := 0
		for _, char := range trimmed {
			if char == '#' {
				level++
			} else {
				break
			}
		}
		if level < 1 || level > 6 || len(trimmed) <= level || trimmed[level] != ' ' {
			continue
		}
		entries = append(entries, OutlineEntry{
			Title: strings.TrimSpace(trimmed[level:]),
			Level: level,
		})
	}
	return entries
}
