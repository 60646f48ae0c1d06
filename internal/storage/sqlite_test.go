package storage

import (
	"context"
	"path/filepath"
	"testing"

	"storysage/internal/biography"
	"storysage/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func storedBiography(t *testing.T, id string) *biography.Document {
	t.Helper()
	doc := biography.NewDocument(id, "My Life Story")
	sec := biography.NewSection("1 Childhood", "Small town [MEM_a1] memories.")
	require.NoError(t, doc.Insert("", sec))
	require.NoError(t, doc.Insert(sec.ID, biography.NewSection("1.1 School", "First day.")))
	return doc
}

func TestSaveAndLoadBiography(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := storedBiography(t, "bio-1")

	require.NoError(t, store.SaveBiography(ctx, doc))

	loaded, err := store.LoadBiography(ctx, "bio-1")
	require.NoError(t, err)
	assert.Equal(t, "My Life Story", loaded.Title)
	assert.Equal(t, 2, loaded.Len())

	top := loaded.Children("")
	require.Len(t, top, 1)
	assert.Equal(t, "1 Childhood", top[0].Title)
	assert.Contains(t, top[0].Content, "[MEM_a1]", "markers survive persistence")
	require.Len(t, loaded.Children(top[0].ID), 1)
}

func TestSaveBiography_ReplacesPreviousCopy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBiography(ctx, storedBiography(t, "bio-1")))

	updated := storedBiography(t, "bio-1")
	updated.Title = "The Long Road"
	require.NoError(t, store.SaveBiography(ctx, updated))

	loaded, err := store.LoadBiography(ctx, "bio-1")
	require.NoError(t, err)
	assert.Equal(t, "The Long Road", loaded.Title)
}

func TestLoadBiography_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadBiography(context.Background(), "bio-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestBiography(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestBiography(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveBiography(ctx, storedBiography(t, "bio-1")))
	latest, err := store.LatestBiography(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bio-1", latest.ID)
}

func TestDraftRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := storedBiography(t, "bio-1")

	edits := []editor.Edit{
		{
			Type:      editor.EditRename,
			SectionID: "section-r1",
			Title:     "1 Childhood",
			Data:      editor.RenameData{NewTitle: "2 Childhood"},
			Timestamp: 1,
		},
		{
			Type:      editor.EditComment,
			SectionID: "section-r1",
			Title:     "1 Childhood",
			Data: editor.CommentData{Comment: editor.Comment{
				Text:    "Small town",
				Comment: "which town?",
			}},
			Timestamp: 2,
		},
		{
			Type:      editor.EditDelete,
			SectionID: "section-d1",
			Title:     "3 Dropped",
			Timestamp: 3,
		},
	}

	require.NoError(t, store.SaveDraft(ctx, "bio-1", doc, edits))

	gotDoc, gotEdits, err := store.LoadDraft(ctx, "bio-1")
	require.NoError(t, err)
	assert.Equal(t, "My Life Story", gotDoc.Title)
	assert.Equal(t, 2, gotDoc.Len())

	require.Len(t, gotEdits, 3)
	assert.Equal(t, editor.RenameData{NewTitle: "2 Childhood"}, gotEdits[0].Data)
	assert.Equal(t, editor.CommentData{Comment: editor.Comment{Text: "Small town", Comment: "which town?"}}, gotEdits[1].Data)
	assert.Nil(t, gotEdits[2].Data, "delete edits carry no payload")
	assert.Equal(t, int64(3), gotEdits[2].Timestamp)
}

func TestDraftOverwriteAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := storedBiography(t, "bio-1")

	require.NoError(t, store.SaveDraft(ctx, "bio-1", doc, nil))
	require.NoError(t, store.SaveDraft(ctx, "bio-1", doc, []editor.Edit{{
		Type:      editor.EditContentChange,
		SectionID: "section-c1",
		Title:     "1 Childhood",
		Data:      editor.ContentData{NewContent: "Rewritten."},
		Timestamp: 1,
	}}))

	_, gotEdits, err := store.LoadDraft(ctx, "bio-1")
	require.NoError(t, err)
	require.Len(t, gotEdits, 1, "a second save replaces the draft")

	require.NoError(t, store.DeleteDraft(ctx, "bio-1"))
	_, _, err = store.LoadDraft(ctx, "bio-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteDraft(ctx, "bio-1"), "deleting a missing draft is a no-op")
}
