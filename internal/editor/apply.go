package editor

import (
	"fmt"
	"time"

	"storysage/internal/biography"
)

// Apply replays an edit log onto a document the way the backend reconciles
// a submitted session, returning a new tree. The input document is not
// mutated. Comments are structural no-ops here; storing them is the
// backend's concern.
func Apply(doc *biography.Document, edits []Edit) (*biography.Document, error) {
	out := doc.Clone()
	for _, e := range edits {
		if err := applyOne(out, e); err != nil {
			return nil, fmt.Errorf("apply %s to %s: %w", e.Type, e.SectionID, err)
		}
	}
	return out, nil
}

func applyOne(doc *biography.Document, e Edit) error {
	switch e.Type {
	case EditRename:
		data, ok := e.Data.(RenameData)
		if !ok {
			return fmt.Errorf("rename payload missing")
		}
		if e.SectionID == doc.ID {
			doc.Title = data.NewTitle
			return nil
		}
		if doc.SectionByID(e.SectionID) == nil {
			return ErrSectionNotFound
		}
		return doc.Rename(e.SectionID, data.NewTitle)

	case EditAdd:
		data, ok := e.Data.(AddData)
		if !ok {
			return fmt.Errorf("add payload missing")
		}
		now := time.Now().UTC().Format(time.RFC3339)
		sec := &biography.Section{
			ID:        e.SectionID,
			Title:     e.Title,
			Content:   "AI Writing Suggestions:" + data.SectionPrompt,
			CreatedAt: now,
			LastEdit:  now,
		}
		var parentID string
		if parent := doc.FindParentByNumber(biography.Number(e.Title)); parent != nil {
			parentID = parent.ID
		}
		return doc.Insert(parentID, sec)

	case EditDelete:
		if doc.SectionByID(e.SectionID) == nil {
			return ErrSectionNotFound
		}
		return doc.Delete(e.SectionID)

	case EditContentChange:
		data, ok := e.Data.(ContentData)
		if !ok {
			return fmt.Errorf("content payload missing")
		}
		if doc.SectionByID(e.SectionID) == nil {
			return ErrSectionNotFound
		}
		return doc.SetContent(e.SectionID, data.NewContent)

	case EditComment:
		return nil

	default:
		return fmt.Errorf("unknown edit type %q", e.Type)
	}
}
