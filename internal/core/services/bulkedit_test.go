package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

func newBulkEnv(t *testing.T) (*testEnv, *BulkEditService, []int64) {
	t.Helper()
	env := newTestEnv(t, "")
	service := NewBulkEditService(env.docs, env.meta, env.index, env.files)

	var ids []int64
	for _, title := range []string{"Water Bill", "Gas Bill", "Receipt"} {
		doc := env.placeDocument(t, title, "content of "+title)
		ids = append(ids, doc.ID)

		entry, err := indexEntryFor(context.Background(), env.meta, doc)
		require.NoError(t, err)
		require.NoError(t, env.index.Upsert(context.Background(), entry))
	}
	return env, service, ids
}

func TestBulkSetCorrespondent(t *testing.T) {
	ctx := context.Background()
	env, service, ids := newBulkEnv(t)

	correspondent, err := env.meta.GetOrCreateCorrespondent(ctx, "City Utilities")
	require.NoError(t, err)

	require.NoError(t, service.SetCorrespondent(ctx, ids[:2], &correspondent.ID))

	for _, id := range ids[:2] {
		doc, err := env.docs.GetDocument(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, doc.CorrespondentID)
		assert.Equal(t, correspondent.ID, *doc.CorrespondentID)

		entry, ok := env.index.Entry(id)
		require.True(t, ok)
		assert.Equal(t, "City Utilities", entry.Correspondent)
	}

	untouched, err := env.docs.GetDocument(ctx, ids[2])
	require.NoError(t, err)
	assert.Nil(t, untouched.CorrespondentID)

	t.Run("nil clears the assignment", func(t *testing.T) {
		require.NoError(t, service.SetCorrespondent(ctx, ids[:1], nil))
		doc, err := env.docs.GetDocument(ctx, ids[0])
		require.NoError(t, err)
		assert.Nil(t, doc.CorrespondentID)
	})

	t.Run("unknown correspondent rejects the call", func(t *testing.T) {
		missing := int64(99)
		err := service.SetCorrespondent(ctx, ids, &missing)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBulkTagOperations(t *testing.T) {
	ctx := context.Background()
	env, service, ids := newBulkEnv(t)

	tag, err := env.meta.GetOrCreateTag(ctx, "reviewed")
	require.NoError(t, err)

	require.NoError(t, service.AddTag(ctx, ids, tag.ID))
	for _, id := range ids {
		doc, err := env.docs.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, doc.TagIDs, tag.ID)
	}

	// Adding again does not duplicate the association.
	require.NoError(t, service.AddTag(ctx, ids[:1], tag.ID))
	doc, err := env.docs.GetDocument(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{tag.ID}, doc.TagIDs)

	require.NoError(t, service.RemoveTag(ctx, ids[:2], tag.ID))
	doc, err = env.docs.GetDocument(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, doc.TagIDs)
	doc, err = env.docs.GetDocument(ctx, ids[2])
	require.NoError(t, err)
	assert.Contains(t, doc.TagIDs, tag.ID)
}

func TestBulkSelectionValidatedUpFront(t *testing.T) {
	ctx := context.Background()
	env, service, ids := newBulkEnv(t)

	tag, err := env.meta.GetOrCreateTag(ctx, "reviewed")
	require.NoError(t, err)

	// One bad id anywhere rejects the whole batch before any mutation.
	selection := append(append([]int64(nil), ids...), 999)
	err = service.AddTag(ctx, selection, tag.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, id := range ids {
		doc, err := env.docs.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, doc.TagIDs)
	}
}

func TestBulkDelete(t *testing.T) {
	ctx := context.Background()
	env, service, ids := newBulkEnv(t)

	victim, err := env.docs.GetDocument(ctx, ids[0])
	require.NoError(t, err)
	original := env.files.OriginalPath(victim)
	require.FileExists(t, original)

	require.NoError(t, service.Delete(ctx, ids[:1]))

	_, err = env.docs.GetDocument(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoFileExists(t, original)
	_, ok := env.index.Entry(ids[0])
	assert.False(t, ok)

	// The others survive.
	remaining, err := env.docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
