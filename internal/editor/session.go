package editor

import (
	"context"
	"fmt"
	"strings"

	"storysage/internal/biography"
)

// Submitter is the external write boundary: it ships an edit log to the
// backend, which reconciles it against server-held state and returns the
// new authoritative biography. Transport, auth, and retries live behind
// this interface, outside the engine.
type Submitter interface {
	Submit(ctx context.Context, biographyID string, edits []Edit) (*biography.Document, error)
}

// Session is one edit session over a private clone of the biography tree.
// It applies mutations locally, accumulates the compacted edit log, and
// either submits the log or discards everything. A session is owned by a
// single caller; it is not safe for concurrent use.
type Session struct {
	working  *biography.Document
	snapshot *biography.Document
	edits    []Edit
	seq      int64
}

// Begin opens an edit session on a clone of doc. The original document is
// never touched.
func Begin(doc *biography.Document) *Session {
	return &Session{
		working:  doc.Clone(),
		snapshot: doc.Clone(),
	}
}

// Resume rebuilds a session from a persisted draft: the mutated working
// tree, the pre-session snapshot, and the edit log accumulated so far.
func Resume(working, snapshot *biography.Document, edits []Edit) *Session {
	s := &Session{
		working:  working,
		snapshot: snapshot,
		edits:    append([]Edit(nil), edits...),
	}
	for _, e := range s.edits {
		if e.Timestamp > s.seq {
			s.seq = e.Timestamp
		}
	}
	return s
}

// Document exposes the session's working tree for display and export.
func (s *Session) Document() *biography.Document {
	return s.working
}

// Edits returns a copy of the compacted edit log in submission order.
func (s *Session) Edits() []Edit {
	return append([]Edit(nil), s.edits...)
}

// Dirty reports whether the session holds unsubmitted edits.
func (s *Session) Dirty() bool {
	return len(s.edits) > 0
}

// Rename retitles a section, or the biography itself when sectionID is the
// document id. Section titles must carry a well-formed dotted number; the
// biography title is free-form. The sibling order follows the new number.
func (s *Session) Rename(sectionID, newTitle string) error {
	if sectionID == s.working.ID {
		oldTitle := s.working.Title
		s.working.Title = newTitle
		s.record(Edit{
			Type:      EditRename,
			SectionID: sectionID,
			Title:     oldTitle,
			Data:      RenameData{NewTitle: newTitle},
		})
		return nil
	}

	number := biography.Number(newTitle)
	if !biography.IsValidPathFormat(number) || number == "" {
		return &ValidationError{
			Value:  number,
			Reason: fmt.Sprintf("invalid section number %q", number),
		}
	}
	sec := s.working.SectionByID(sectionID)
	if sec == nil {
		return fmt.Errorf("rename %s: %w", sectionID, ErrSectionNotFound)
	}
	oldTitle := sec.Title
	if err := s.working.Rename(sectionID, newTitle); err != nil {
		return err
	}
	s.record(Edit{
		Type:      EditRename,
		SectionID: sectionID,
		Title:     oldTitle,
		Data:      RenameData{NewTitle: newTitle},
	})
	return nil
}

// AddSection creates a new section numbered pathNumber with the given
// label. Its content is seeded with the AI writing prompt so the backend
// can generate real text on save. The section attaches under the section
// whose number is the path's parent prefix, or at root level when no such
// section exists.
func (s *Session) AddSection(pathNumber, label, aiPrompt string) (*biography.Section, error) {
	if !biography.IsValidPathFormat(pathNumber) || pathNumber == "" {
		return nil, &ValidationError{
			Value:  pathNumber,
			Reason: fmt.Sprintf("invalid section number %q", pathNumber),
		}
	}

	fullTitle := pathNumber + " " + label
	sec := biography.NewSection(fullTitle, "AI Writing Suggestions:"+aiPrompt)
	sec.IsNew = true

	var parentID, parentTitle string
	if parent := s.working.FindParentByNumber(pathNumber); parent != nil {
		parentID = parent.ID
		parentTitle = parent.Title
	}
	if err := s.working.Insert(parentID, sec); err != nil {
		return nil, err
	}

	s.record(Edit{
		Type:      EditAdd,
		SectionID: sec.ID,
		Title:     fullTitle,
		Data:      AddData{ParentTitle: parentTitle, SectionPrompt: aiPrompt},
	})
	return sec, nil
}

// DeleteSection removes a section and all of its descendants from the
// working tree.
func (s *Session) DeleteSection(sectionID string) error {
	sec := s.working.SectionByID(sectionID)
	if sec == nil {
		return fmt.Errorf("delete %s: %w", sectionID, ErrSectionNotFound)
	}
	title := sec.Title
	if err := s.working.Delete(sectionID); err != nil {
		return err
	}
	s.record(Edit{
		Type:      EditDelete,
		SectionID: sectionID,
		Title:     title,
	})
	return nil
}

// ChangeContent replaces a section's content body. The content is opaque:
// reference markers inside it pass through untouched.
func (s *Session) ChangeContent(sectionID, newContent string) error {
	sec := s.working.SectionByID(sectionID)
	if sec == nil {
		return fmt.Errorf("content change %s: %w", sectionID, ErrSectionNotFound)
	}
	title := sec.Title
	if err := s.working.SetContent(sectionID, newContent); err != nil {
		return err
	}
	s.record(Edit{
		Type:      EditContentChange,
		SectionID: sectionID,
		Title:     title,
		Data:      ContentData{NewContent: newContent},
	})
	return nil
}

// AddComment attaches an annotation to a quoted excerpt of a section. The
// tree itself is not modified, and comments accumulate rather than
// superseding each other.
func (s *Session) AddComment(sectionID, selectedText, commentText string) error {
	sec := s.working.SectionByID(sectionID)
	if sec == nil {
		return fmt.Errorf("comment %s: %w", sectionID, ErrSectionNotFound)
	}
	s.record(Edit{
		Type:      EditComment,
		SectionID: sectionID,
		Title:     sec.Title,
		Data: CommentData{Comment: Comment{
			Text:    selectedText,
			Comment: commentText,
		}},
	})
	return nil
}

// Save validates the pending additions, submits the edit log, and on
// success adopts the backend's authoritative tree. On any failure the
// session keeps its working tree and edit log so the user can retry
// without losing work.
func (s *Session) Save(ctx context.Context, sub Submitter) (*biography.Document, error) {
	if err := s.validateNewSections(); err != nil {
		return nil, err
	}
	result, err := sub.Submit(ctx, s.working.ID, s.Edits())
	if err != nil {
		return nil, err
	}
	s.working = result.Clone()
	s.snapshot = result.Clone()
	s.edits = nil
	s.seq = 0
	return result, nil
}

// Cancel discards all pending edits and restores the pre-session tree.
func (s *Session) Cancel() {
	s.working = s.snapshot.Clone()
	s.edits = nil
	s.seq = 0
}

// validateNewSections rejects additions whose number collides with a
// section that existed before the session started. The comparison runs
// against the pre-session snapshot, so two sections added with the same
// number inside one session are left for the backend to arbitrate.
func (s *Session) validateNewSections() error {
	existing := make(map[string]bool)
	s.snapshot.Walk(func(sec *biography.Section, depth int) {
		existing[biography.Number(sec.Title)] = true
	})

	var duplicates []string
	seen := make(map[string]bool)
	for _, e := range s.edits {
		if e.Type != EditAdd {
			continue
		}
		number := biography.Number(e.Title)
		if existing[number] && !seen[number] {
			duplicates = append(duplicates, number)
			seen[number] = true
		}
	}
	if len(duplicates) > 0 {
		joined := strings.Join(duplicates, ", ")
		return &ValidationError{
			Value:  joined,
			Reason: fmt.Sprintf("sections with numbers %s already exist", joined),
		}
	}
	return nil
}

func (s *Session) record(e Edit) {
	s.seq++
	e.Timestamp = s.seq
	s.edits = AddOrUpdateEdit(s.edits, e)
}
