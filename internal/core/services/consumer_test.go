package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
)

func newTestConsumer(t *testing.T, env *testEnv, hooks driven.HookRunner, deleteDuplicates bool) *ConsumerService {
	t.Helper()

	thumb := filepath.Join(t.TempDir(), "thumb.png")
	require.NoError(t, os.WriteFile(thumb, []byte("png bytes"), 0600))

	parser := &stubParser{
		mimes:  []string{"text/plain"},
		result: driven.ParseResult{Text: "extracted text", ThumbnailPath: thumb},
	}
	return NewConsumerService(ConsumerConfig{
		Docs:             env.docs,
		Meta:             env.meta,
		Registry:         newStubRegistry(parser),
		Index:            env.index,
		Files:            env.files,
		Matcher:          NewMatcher(env.meta, nil),
		Hooks:            hooks,
		InboxTags:        []string{"inbox"},
		DeleteDuplicates: deleteDuplicates,
	})
}

func writeIntakeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline from filename metadata", func(t *testing.T) {
		env := newTestEnv(t, "")
		hooks := &recordingHooks{}
		consumer := newTestConsumer(t, env, hooks, false)

		source := writeIntakeFile(t, "2023-01-05 - ACME - Water Bill - utility.txt", "quarterly water bill")
		doc, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{})
		require.NoError(t, err)

		assert.Equal(t, "Water Bill", doc.Title)
		assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), doc.Created)
		assert.Equal(t, "extracted text", doc.Content)
		assert.Equal(t, "text/plain", doc.MIMEType)

		require.NotNil(t, doc.CorrespondentID)
		c, err := env.meta.GetCorrespondent(ctx, *doc.CorrespondentID)
		require.NoError(t, err)
		assert.Equal(t, "ACME", c.Name)

		assert.ElementsMatch(t, []string{"utility", "inbox"}, tagNames(t, env.meta, doc.TagIDs))
		inbox, err := env.meta.ListInboxTags(ctx)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		assert.Equal(t, "inbox", inbox[0].Name)

		// Files placed, source consumed, index updated.
		assert.FileExists(t, env.files.OriginalPath(doc))
		assert.FileExists(t, env.files.ThumbnailPath(doc))
		assert.NoFileExists(t, source)
		entry, ok := env.index.Entry(doc.ID)
		require.True(t, ok)
		assert.Equal(t, "Water Bill", entry.Title)
		assert.Equal(t, "ACME", entry.Correspondent)

		// Both hooks ran, the post hook with resolved names.
		require.Len(t, hooks.pre, 1)
		assert.Equal(t, source, hooks.pre[0])
		require.Len(t, hooks.post, 1)
		assert.Equal(t, doc.ID, hooks.post[0].DocumentID)
		assert.Equal(t, "ACME", hooks.post[0].Correspondent)
		got := append([]string(nil), hooks.post[0].TagNames...)
		sort.Strings(got)
		assert.Equal(t, []string{"inbox", "utility"}, got)
	})

	t.Run("overrides take precedence over filename metadata", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, false)

		tag, err := env.meta.GetOrCreateTag(ctx, "archived")
		require.NoError(t, err)
		correspondent, err := env.meta.GetOrCreateCorrespondent(ctx, "Globex")
		require.NoError(t, err)

		title := "Override Title"
		created := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
		source := writeIntakeFile(t, "2023-01-05 - ACME - Water Bill.txt", "some content")
		doc, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{
			Title:           &title,
			Created:         &created,
			CorrespondentID: &correspondent.ID,
			TagIDs:          []int64{tag.ID},
		})
		require.NoError(t, err)

		assert.Equal(t, "Override Title", doc.Title)
		assert.Equal(t, created, doc.Created)
		assert.Equal(t, correspondent.ID, *doc.CorrespondentID)
		// A tag override replaces everything, inbox tags included.
		assert.Equal(t, []int64{tag.ID}, doc.TagIDs)
	})

	t.Run("unknown override ids are rejected", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, false)

		missing := int64(99)
		source := writeIntakeFile(t, "note.txt", "text")
		_, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{CorrespondentID: &missing})
		require.Error(t, err)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidation, kind)
		// Rejected before the source was touched.
		assert.FileExists(t, source)
	})

	t.Run("duplicate content is rejected", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, false)

		first := writeIntakeFile(t, "first.txt", "identical content")
		_, err := consumer.Consume(ctx, first, driving.ConsumeOverrides{})
		require.NoError(t, err)

		second := writeIntakeFile(t, "second.txt", "identical content")
		_, err = consumer.Consume(ctx, second, driving.ConsumeOverrides{})
		require.Error(t, err)
		assert.True(t, domain.IsDuplicate(err))
		assert.FileExists(t, second)

		docs, err := env.docs.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("duplicate source is removed when configured", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, true)

		first := writeIntakeFile(t, "first.txt", "identical content")
		_, err := consumer.Consume(ctx, first, driving.ConsumeOverrides{})
		require.NoError(t, err)

		second := writeIntakeFile(t, "second.txt", "identical content")
		_, err = consumer.Consume(ctx, second, driving.ConsumeOverrides{})
		require.True(t, domain.IsDuplicate(err))
		assert.NoFileExists(t, second)
	})

	t.Run("unsupported mime type", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := NewConsumerService(ConsumerConfig{
			Docs:     env.docs,
			Meta:     env.meta,
			Registry: newStubRegistry(),
			Index:    env.index,
			Files:    env.files,
			Matcher:  NewMatcher(env.meta, nil),
		})

		source := writeIntakeFile(t, "note.txt", "plain text nobody parses")
		_, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{})
		require.Error(t, err)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindUnsupported, kind)
	})

	t.Run("parser failure surfaces with its kind", func(t *testing.T) {
		env := newTestEnv(t, "")
		parser := &stubParser{
			mimes:    []string{"text/plain"},
			parseErr: errors.New("broken input"),
		}
		consumer := NewConsumerService(ConsumerConfig{
			Docs:     env.docs,
			Meta:     env.meta,
			Registry: newStubRegistry(parser),
			Index:    env.index,
			Files:    env.files,
			Matcher:  NewMatcher(env.meta, nil),
		})

		source := writeIntakeFile(t, "note.txt", "text")
		_, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{})
		require.Error(t, err)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindParseFailure, kind)
		assert.True(t, parser.cleaned)
	})

	t.Run("pre-consume hook failure aborts consumption", func(t *testing.T) {
		env := newTestEnv(t, "")
		hooks := &recordingHooks{preErr: errors.New("exit status 1")}
		consumer := newTestConsumer(t, env, hooks, false)

		source := writeIntakeFile(t, "note.txt", "text")
		_, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{})
		require.Error(t, err)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindHook, kind)

		docs, err := env.docs.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("directories are rejected", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, false)

		_, err := consumer.Consume(ctx, t.TempDir(), driving.ConsumeOverrides{})
		require.Error(t, err)
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindInput, kind)
	})

	t.Run("rule-matched metadata is applied", func(t *testing.T) {
		env := newTestEnv(t, "")
		consumer := newTestConsumer(t, env, nil, false)

		// The stub parser extracts "extracted text"; rules match on it.
		correspondent := &domain.Correspondent{Name: "Power Co"}
		correspondent.Algorithm = domain.MatchAny
		correspondent.Expression = "extracted"
		require.NoError(t, env.meta.SaveCorrespondent(ctx, correspondent))

		tag := &domain.Tag{Name: "scanned"}
		tag.Algorithm = domain.MatchLiteral
		tag.Expression = "extracted text"
		require.NoError(t, env.meta.SaveTag(ctx, tag))

		source := writeIntakeFile(t, "untitled scan.txt", "raw bytes")
		doc, err := consumer.Consume(ctx, source, driving.ConsumeOverrides{})
		require.NoError(t, err)

		require.NotNil(t, doc.CorrespondentID)
		assert.Equal(t, correspondent.ID, *doc.CorrespondentID)
		assert.Contains(t, tagNames(t, env.meta, doc.TagIDs), "scanned")
	})
}
