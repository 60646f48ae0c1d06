package editor

import (
	"encoding/json"
	"fmt"
)

// EditType discriminates the edit-log record variants.
type EditType string

const (
	EditRename        EditType = "RENAME"
	EditAdd           EditType = "ADD"
	EditDelete        EditType = "DELETE"
	EditContentChange EditType = "CONTENT_CHANGE"
	EditComment       EditType = "COMMENT"
)

// Edit is one record of the session edit log. Title is the target's title
// at the time of the edit (the pre-image, kept for audit and display);
// Timestamp is a per-session monotonic ordering key. Data holds the
// variant payload for the edit type and is nil for DELETE.
type Edit struct {
	Type      EditType
	SectionID string
	Title     string
	Data      EditData
	Timestamp int64
}

// EditData is the tagged payload carried by an Edit. Exactly one concrete
// type exists per edit type that needs one.
type EditData interface {
	editData()
}

// RenameData is the RENAME payload.
type RenameData struct {
	NewTitle string `json:"newTitle"`
}

// AddData is the ADD payload. ParentTitle is empty for root-level inserts;
// SectionPrompt is the writing prompt forwarded to the backend's generator.
type AddData struct {
	ParentTitle   string `json:"parentTitle,omitempty"`
	SectionPrompt string `json:"sectionPrompt"`
}

// ContentData is the CONTENT_CHANGE payload.
type ContentData struct {
	NewContent string `json:"newContent"`
}

// CommentData is the COMMENT payload: a remark anchored to a quoted
// excerpt of the section's content.
type CommentData struct {
	Comment Comment `json:"comment"`
}

// Comment pairs the selected excerpt with the annotation text.
type Comment struct {
	Text    string `json:"text"`
	Comment string `json:"comment"`
}

func (RenameData) editData()  {}
func (AddData) editData()     {}
func (ContentData) editData() {}
func (CommentData) editData() {}

type wireEdit struct {
	Type      EditType        `json:"type"`
	SectionID string          `json:"sectionId"`
	Title     string          `json:"title"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// MarshalJSON emits the backend wire shape: a flat record with a
// type-dependent "data" object, omitted for DELETE.
func (e Edit) MarshalJSON() ([]byte, error) {
	w := wireEdit{
		Type:      e.Type,
		SectionID: e.SectionID,
		Title:     e.Title,
		Timestamp: e.Timestamp,
	}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		w.Data = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape back into the typed variant for the
// record's edit type.
func (e *Edit) UnmarshalJSON(data []byte) error {
	var w wireEdit
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Type = w.Type
	e.SectionID = w.SectionID
	e.Title = w.Title
	e.Timestamp = w.Timestamp
	e.Data = nil
	if len(w.Data) == 0 {
		if w.Type == EditDelete {
			return nil
		}
		if w.Type == EditRename || w.Type == EditAdd || w.Type == EditContentChange || w.Type == EditComment {
			return fmt.Errorf("edit %s on %s: missing data payload", w.Type, w.SectionID)
		}
		return nil
	}
	switch w.Type {
	case EditRename:
		var d RenameData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		e.Data = d
	case EditAdd:
		var d AddData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		e.Data = d
	case EditContentChange:
		var d ContentData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		e.Data = d
	case EditComment:
		var d CommentData
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return err
		}
		e.Data = d
	case EditDelete:
		// DELETE carries no payload; tolerate and drop one if present.
	default:
		return fmt.Errorf("unknown edit type %q", w.Type)
	}
	return nil
}
