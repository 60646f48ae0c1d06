package editor

import (
	"context"
	"testing"

	"storysage/internal/biography"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	result   *biography.Document
	err      error
	calls    int
	gotID    string
	gotEdits []Edit
}

func (f *fakeSubmitter) Submit(ctx context.Context, biographyID string, edits []Edit) (*biography.Document, error) {
	f.calls++
	f.gotID = biographyID
	f.gotEdits = edits
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func lifeStory(t *testing.T) *biography.Document {
	t.Helper()
	doc := biography.NewDocument("bio-1", "My Life Story")
	require.NoError(t, doc.Insert("", biography.NewSection("1 Childhood", "Small town [MEM_x1] memories.")))
	require.NoError(t, doc.Insert("", biography.NewSection("2 Education", "University days.")))
	return doc
}

func topTitles(doc *biography.Document) []string {
	var titles []string
	for _, sec := range doc.Children("") {
		titles = append(titles, sec.Title)
	}
	return titles
}

func TestAddSection_AtRootLevel(t *testing.T) {
	session := Begin(lifeStory(t))

	sec, err := session.AddSection("3", "Career", "talk about jobs")
	require.NoError(t, err)

	assert.Equal(t, []string{"1 Childhood", "2 Education", "3 Career"}, topTitles(session.Document()))
	assert.Contains(t, sec.Content, "talk about jobs")
	assert.True(t, sec.IsNew)

	edits := session.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, EditAdd, edits[0].Type)
	assert.Equal(t, "3 Career", edits[0].Title)
	assert.Equal(t, AddData{SectionPrompt: "talk about jobs"}, edits[0].Data)
}

func TestAddSection_AttachesUnderParentPrefix(t *testing.T) {
	session := Begin(lifeStory(t))
	doc := session.Document()
	childhoodID := doc.Children("")[0].ID

	_, err := session.AddSection("1.2", "Friends", "childhood friends")
	require.NoError(t, err)
	_, err = session.AddSection("1.1", "School", "school days")
	require.NoError(t, err)

	kids := doc.Children(childhoodID)
	require.Len(t, kids, 2)
	assert.Equal(t, "1.1 School", kids[0].Title)
	assert.Equal(t, "1.2 Friends", kids[1].Title)

	edits := session.Edits()
	require.Len(t, edits, 2)
	assert.Equal(t, AddData{ParentTitle: "1 Childhood", SectionPrompt: "childhood friends"}, edits[0].Data)
}

func TestAddSection_OrphanNumberFallsBackToRoot(t *testing.T) {
	session := Begin(lifeStory(t))

	_, err := session.AddSection("7.1", "Stray", "")
	require.NoError(t, err)

	assert.Len(t, session.Document().Children(""), 3)
}

func TestAddSection_RejectsMalformedNumber(t *testing.T) {
	session := Begin(lifeStory(t))

	_, err := session.AddSection("1.2.3.4", "Too Deep", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "1.2.3.4", verr.Value)

	assert.Equal(t, 2, session.Document().Len(), "failed add must not touch the tree")
	assert.Empty(t, session.Edits())
}

func TestRename_SectionAndCompaction(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[1].ID

	require.NoError(t, session.Rename(id, "4 Studies"))
	require.NoError(t, session.Rename(id, "5 Higher Studies"))

	sec := session.Document().SectionByID(id)
	require.NotNil(t, sec, "id lookup survives renames")
	assert.Equal(t, "5 Higher Studies", sec.Title)

	edits := session.Edits()
	require.Len(t, edits, 1, "repeated renames compact to the latest")
	assert.Equal(t, RenameData{NewTitle: "5 Higher Studies"}, edits[0].Data)
	assert.Equal(t, "2 Education", edits[0].Title, "pre-image keeps the original title")
}

func TestRename_RejectsBadNumber(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[0].ID

	err := session.Rename(id, "x.y Broken")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "1 Childhood", session.Document().SectionByID(id).Title)
}

func TestRename_BiographyTitle(t *testing.T) {
	session := Begin(lifeStory(t))

	require.NoError(t, session.Rename("bio-1", "The Long Road"))
	assert.Equal(t, "The Long Road", session.Document().Title)

	edits := session.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "bio-1", edits[0].SectionID)
	assert.Equal(t, "My Life Story", edits[0].Title)
}

func TestRename_UnknownSection(t *testing.T) {
	session := Begin(lifeStory(t))
	err := session.Rename("section-missing", "3 Nowhere")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestChangeContent_OpaqueMarkersPreserved(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[0].ID

	newContent := "Rewritten [MEM_x1] childhood [MEM_y2] story."
	require.NoError(t, session.ChangeContent(id, newContent))

	assert.Equal(t, newContent, session.Document().SectionByID(id).Content)
	edits := session.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, ContentData{NewContent: newContent}, edits[0].Data)
}

func TestAddComment_DoesNotTouchTree(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[0].ID
	before := session.Document().SectionByID(id).Content

	require.NoError(t, session.AddComment(id, "Small town", "name the town?"))
	require.NoError(t, session.AddComment(id, "memories", "expand on this"))

	assert.Equal(t, before, session.Document().SectionByID(id).Content)
	assert.Len(t, session.Edits(), 2, "comments accumulate instead of superseding")
}

func TestDeleteSection_SubtreeGone(t *testing.T) {
	session := Begin(lifeStory(t))
	doc := session.Document()
	childhoodID := doc.Children("")[0].ID
	sub, err := session.AddSection("1.1", "School", "")
	require.NoError(t, err)

	require.NoError(t, session.DeleteSection(childhoodID))

	assert.Nil(t, doc.SectionByID(childhoodID))
	assert.Nil(t, doc.SectionByID(sub.ID))
}

func TestSave_DuplicateNumbersAgainstSnapshotRejected(t *testing.T) {
	session := Begin(lifeStory(t))
	_, err := session.AddSection("2", "Also Education", "")
	require.NoError(t, err)
	_, err = session.AddSection("1", "Also Childhood", "")
	require.NoError(t, err)

	sub := &fakeSubmitter{}
	_, err = session.Save(context.Background(), sub)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "2, 1", verr.Value)
	assert.Contains(t, verr.Error(), "sections with numbers 2, 1 already exist")
	assert.Equal(t, 0, sub.calls, "rejected locally, nothing submitted")
	assert.True(t, session.Dirty(), "edits survive the failed save")
}

func TestSave_SameSessionDuplicatesNotCaughtLocally(t *testing.T) {
	// Two sections added with the same number inside one session only
	// collide with each other, not with the pre-session snapshot, so the
	// local check passes and the backend arbitrates.
	session := Begin(lifeStory(t))
	_, err := session.AddSection("7", "Travel", "")
	require.NoError(t, err)
	_, err = session.AddSection("7", "More Travel", "")
	require.NoError(t, err)

	sub := &fakeSubmitter{result: lifeStory(t)}
	_, err = session.Save(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.calls)
}

func TestSave_AdoptsAuthoritativeTree(t *testing.T) {
	session := Begin(lifeStory(t))
	_, err := session.AddSection("3", "Career", "talk about jobs")
	require.NoError(t, err)

	authoritative := lifeStory(t)
	require.NoError(t, authoritative.Insert("", biography.NewSection("3 Career", "I worked on ships.")))

	sub := &fakeSubmitter{result: authoritative}
	result, err := session.Save(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "bio-1", sub.gotID)
	require.Len(t, sub.gotEdits, 1)
	assert.Equal(t, EditAdd, sub.gotEdits[0].Type)

	assert.Equal(t, 3, result.Len())
	assert.False(t, session.Dirty())
	assert.Equal(t, []string{"1 Childhood", "2 Education", "3 Career"}, topTitles(session.Document()))
}

func TestSave_RejectionPreservesWork(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[0].ID
	require.NoError(t, session.Rename(id, "4 Childhood"))

	sub := &fakeSubmitter{err: &RejectedError{Status: 400, Detail: "number 4 clashes"}}
	_, err := session.Save(context.Background(), sub)

	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 400, rej.Status)
	assert.True(t, session.Dirty())
	assert.Equal(t, "4 Childhood", session.Document().SectionByID(id).Title)
}

func TestCancel_RestoresPreSessionTree(t *testing.T) {
	original := lifeStory(t)
	session := Begin(original)
	id := session.Document().Children("")[0].ID
	require.NoError(t, session.Rename(id, "9 Childhood"))
	_, err := session.AddSection("3", "Career", "")
	require.NoError(t, err)

	session.Cancel()

	assert.False(t, session.Dirty())
	assert.Equal(t, []string{"1 Childhood", "2 Education"}, topTitles(session.Document()))
	assert.Equal(t, "1 Childhood", session.Document().SectionByID(id).Title)
}

func TestResume_TimestampsStayMonotonic(t *testing.T) {
	session := Begin(lifeStory(t))
	id := session.Document().Children("")[0].ID
	require.NoError(t, session.AddComment(id, "a", "b"))
	require.NoError(t, session.AddComment(id, "c", "d"))

	resumed := Resume(session.Document().Clone(), lifeStory(t), session.Edits())
	require.NoError(t, resumed.AddComment(id, "e", "f"))

	edits := resumed.Edits()
	require.Len(t, edits, 3)
	assert.Greater(t, edits[2].Timestamp, edits[1].Timestamp)
	assert.Greater(t, edits[1].Timestamp, edits[0].Timestamp)
}
