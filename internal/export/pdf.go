package export

import (
	"strings"

	"storysage/internal/biography"
)

// Block is one run of text for the PDF renderer: either a heading or a
// content paragraph, with the font size already resolved. Line wrapping
// and pagination are the rendering library's job.
type Block struct {
	Text     string
	Heading  bool
	Level    int
	FontSize int
}

const (
	titleFontSize   = 20
	contentFontSize = 12
)

// CollectPDFBlocks flattens the biography into the ordered block sequence
// the PDF renderer consumes: title, introduction, then every section
// depth-first in sibling order. Empty content bodies produce no block.
func CollectPDFBlocks(doc *biography.Document) []Block {
	blocks := []Block{
		{Text: doc.Title, Heading: true, Level: 1, FontSize: titleFontSize},
	}
	if strings.TrimSpace(doc.Content) != "" {
		blocks = append(blocks, Block{
			Text:     FormatContent(doc.Content),
			Level:    1,
			FontSize: contentFontSize,
		})
	}
	var collect func(sec *biography.Section, level int)
	collect = func(sec *biography.Section, level int) {
		blocks = append(blocks, Block{
			Text:     sec.Title,
			Heading:  true,
			Level:    level,
			FontSize: sectionFontSize(level),
		})
		if strings.TrimSpace(sec.Content) != "" {
			blocks = append(blocks, Block{
				Text:     FormatContent(sec.Content),
				Level:    level,
				FontSize: contentFontSize,
			})
		}
		for _, child := range doc.Children(sec.ID) {
			collect(child, level+1)
		}
	}
	for _, sec := range doc.Children("") {
		collect(sec, 2)
	}
	return blocks
}

// Heading sizes shrink with depth but never below the body size.
func sectionFontSize(level int) int {
	size := 16 - level*2
	if size < contentFontSize {
		return contentFontSize
	}
	return size
}
