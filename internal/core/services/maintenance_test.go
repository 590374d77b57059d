package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
)

func newMaintenance(t *testing.T, env *testEnv, registry driven.ParserRegistry) *MaintenanceService {
	t.Helper()
	if registry == nil {
		registry = newStubRegistry()
	}
	classifier := NewClassifier(filepath.Join(t.TempDir(), "model.gob"), env.docs, env.meta)
	return NewMaintenanceService(
		env.docs, env.meta, env.index, registry, env.files,
		classifier, NewMatcher(env.meta, classifier),
	)
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	service := newMaintenance(t, env, nil)

	for _, title := range []string{"Water Bill", "Gas Bill"} {
		doc := &domain.Document{Title: title, Content: "content"}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))
	}
	// A stale entry for a deleted document must not survive the rebuild.
	require.NoError(t, env.index.Upsert(ctx, &domain.IndexEntry{ID: 42, Title: "ghost"}))

	require.NoError(t, service.Reindex(ctx))

	assert.Equal(t, 2, env.index.Len())
	_, ok := env.index.Entry(42)
	assert.False(t, ok)
	entry, ok := env.index.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "Water Bill", entry.Title)
}

func TestRetag(t *testing.T) {
	ctx := context.Background()

	newRetagEnv := func(t *testing.T) (*testEnv, *MaintenanceService) {
		env := newTestEnv(t, "")
		return env, newMaintenance(t, env, nil)
	}

	t.Run("single matching correspondent is assigned", func(t *testing.T) {
		env, service := newRetagEnv(t)
		c := &domain.Correspondent{Name: "ACME"}
		c.Algorithm = domain.MatchAny
		c.Expression = "acme"
		require.NoError(t, env.meta.SaveCorrespondent(ctx, c))

		doc := &domain.Document{Title: "doc", Content: "acme invoice"}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Correspondent: true}))

		stored, err := env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CorrespondentID)
		assert.Equal(t, c.ID, *stored.CorrespondentID)

		// The index reflects the new assignment.
		entry, ok := env.index.Entry(doc.ID)
		require.True(t, ok)
		assert.Equal(t, "ACME", entry.Correspondent)
	})

	t.Run("ambiguous matches assign nothing without use-first", func(t *testing.T) {
		env, service := newRetagEnv(t)
		for _, spec := range []struct{ name, expr string }{
			{"ACME", "acme"}, {"ACME Billing", "invoice"},
		} {
			c := &domain.Correspondent{Name: spec.name}
			c.Algorithm = domain.MatchAny
			c.Expression = spec.expr
			require.NoError(t, env.meta.SaveCorrespondent(ctx, c))
		}
		doc := &domain.Document{Title: "doc", Content: "acme invoice"}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Correspondent: true}))
		stored, err := env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CorrespondentID)

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Correspondent: true, UseFirst: true}))
		stored, err = env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CorrespondentID)
		assert.Equal(t, int64(1), *stored.CorrespondentID)
	})

	t.Run("existing assignment kept without overwrite", func(t *testing.T) {
		env, service := newRetagEnv(t)
		old, err := env.meta.GetOrCreateCorrespondent(ctx, "Old Co")
		require.NoError(t, err)
		c := &domain.Correspondent{Name: "ACME"}
		c.Algorithm = domain.MatchAny
		c.Expression = "acme"
		require.NoError(t, env.meta.SaveCorrespondent(ctx, c))

		doc := &domain.Document{Title: "doc", Content: "acme invoice", CorrespondentID: &old.ID}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Correspondent: true}))
		stored, err := env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, old.ID, *stored.CorrespondentID)

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Correspondent: true, Overwrite: true}))
		stored, err = env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, *stored.CorrespondentID)
	})

	t.Run("tag overwrite keeps inbox tags", func(t *testing.T) {
		env, service := newRetagEnv(t)

		inbox, err := env.meta.GetOrCreateTag(ctx, "inbox")
		require.NoError(t, err)
		inbox.IsInboxTag = true
		require.NoError(t, env.meta.SaveTag(ctx, inbox))

		stale, err := env.meta.GetOrCreateTag(ctx, "stale")
		require.NoError(t, err)

		billing := &domain.Tag{Name: "billing"}
		billing.Algorithm = domain.MatchAny
		billing.Expression = "invoice"
		require.NoError(t, env.meta.SaveTag(ctx, billing))

		doc := &domain.Document{Title: "doc", Content: "acme invoice", TagIDs: []int64{inbox.ID, stale.ID}}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Tags: true, Overwrite: true}))

		stored, err := env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{inbox.ID, billing.ID}, stored.TagIDs)
	})

	t.Run("without overwrite tags are only added", func(t *testing.T) {
		env, service := newRetagEnv(t)
		stale, err := env.meta.GetOrCreateTag(ctx, "stale")
		require.NoError(t, err)
		billing := &domain.Tag{Name: "billing"}
		billing.Algorithm = domain.MatchAny
		billing.Expression = "invoice"
		require.NoError(t, env.meta.SaveTag(ctx, billing))

		doc := &domain.Document{Title: "doc", Content: "acme invoice", TagIDs: []int64{stale.ID}}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Tags: true}))
		stored, err := env.docs.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{stale.ID, billing.ID}, stored.TagIDs)
	})

	t.Run("inbox only restricts the selection", func(t *testing.T) {
		env, service := newRetagEnv(t)
		inbox, err := env.meta.GetOrCreateTag(ctx, "inbox")
		require.NoError(t, err)
		inbox.IsInboxTag = true
		require.NoError(t, env.meta.SaveTag(ctx, inbox))

		billing := &domain.Tag{Name: "billing"}
		billing.Algorithm = domain.MatchAny
		billing.Expression = "invoice"
		require.NoError(t, env.meta.SaveTag(ctx, billing))

		triaged := &domain.Document{Title: "triaged", Content: "old invoice"}
		require.NoError(t, env.docs.CreateDocument(ctx, triaged))
		pending := &domain.Document{Title: "pending", Content: "new invoice", TagIDs: []int64{inbox.ID}}
		require.NoError(t, env.docs.CreateDocument(ctx, pending))

		require.NoError(t, service.Retag(ctx, driving.RetagOptions{Tags: true, InboxOnly: true}))

		stored, err := env.docs.GetDocument(ctx, triaged.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.TagIDs)
		stored, err = env.docs.GetDocument(ctx, pending.ID)
		require.NoError(t, err)
		assert.Contains(t, stored.TagIDs, billing.ID)
	})
}

func TestRenameAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "{correspondent}/{title}")
	service := newMaintenance(t, env, nil)

	doc := env.placeDocument(t, "Gas Bill", "gas usage")
	oldPath := env.files.OriginalPath(doc)

	// A later edit changed the metadata without a rename observer.
	correspondent, err := env.meta.GetOrCreateCorrespondent(ctx, "Gas Co")
	require.NoError(t, err)
	doc.CorrespondentID = &correspondent.ID
	require.NoError(t, env.docs.SaveDocument(ctx, doc))
	require.FileExists(t, oldPath)

	require.NoError(t, service.RenameAll(ctx))

	stored, err := env.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Filename)
	assert.Equal(t, filepath.Join("gas-co", "gas-bill-0000001.txt"), *stored.Filename)
	assert.FileExists(t, env.files.OriginalPath(stored))
	assert.NoFileExists(t, oldPath)
}

func TestRegenerateThumbnails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	freshThumb := filepath.Join(t.TempDir(), "fresh.png")
	require.NoError(t, os.WriteFile(freshThumb, []byte("fresh thumbnail"), 0600))
	parser := &stubParser{
		mimes:  []string{"text/plain"},
		result: driven.ParseResult{Text: "ignored", ThumbnailPath: freshThumb},
	}
	service := newMaintenance(t, env, newStubRegistry(parser))

	doc := env.placeDocument(t, "Water Bill", "water usage")
	require.NoError(t, os.Remove(env.files.ThumbnailPath(doc)))

	require.NoError(t, service.RegenerateThumbnails(ctx))

	data, err := os.ReadFile(env.files.ThumbnailPath(doc))
	require.NoError(t, err)
	assert.Equal(t, "fresh thumbnail", string(data))
}
