package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

func severities(messages []domain.SanityMessage) (errors, warnings int) {
	for _, m := range messages {
		if m.Severity == domain.SanityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

func TestSanityCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy archive has no findings", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.placeDocument(t, "Water Bill", "water usage")
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("missing original is an error", func(t *testing.T) {
		env := newTestEnv(t, "")
		doc := env.placeDocument(t, "Water Bill", "water usage")
		require.NoError(t, os.Remove(env.files.OriginalPath(doc)))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, _ := severities(messages)
		assert.Equal(t, 1, errs)
		assert.Contains(t, messages[0].Message, "missing or unreadable")
	})

	t.Run("altered original is an error", func(t *testing.T) {
		env := newTestEnv(t, "")
		doc := env.placeDocument(t, "Water Bill", "water usage")
		require.NoError(t, os.WriteFile(env.files.OriginalPath(doc), []byte("tampered"), 0600))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, _ := severities(messages)
		assert.Equal(t, 1, errs)
		assert.Contains(t, messages[0].Message, "checksum mismatch")
	})

	t.Run("never placed document is an error", func(t *testing.T) {
		env := newTestEnv(t, "")
		doc := &domain.Document{Title: "Lost", Content: "text", Checksum: "abc"}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, _ := severities(messages)
		// No original recorded, plus the missing thumbnail.
		assert.Equal(t, 2, errs)
	})

	t.Run("archive checksum without filename is an error", func(t *testing.T) {
		env := newTestEnv(t, "")
		doc := env.placeDocument(t, "Water Bill", "water usage")
		doc.ArchiveChecksum = "deadbeef"
		require.NoError(t, env.docs.SaveDocument(ctx, doc))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, _ := severities(messages)
		assert.Equal(t, 1, errs)
		assert.Contains(t, messages[0].Message, "no archive filename")
	})

	t.Run("missing thumbnail is an error", func(t *testing.T) {
		env := newTestEnv(t, "")
		doc := env.placeDocument(t, "Water Bill", "water usage")
		require.NoError(t, os.Remove(env.files.ThumbnailPath(doc)))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, _ := severities(messages)
		assert.Equal(t, 1, errs)
		assert.Contains(t, messages[0].Message, "thumbnail is missing")
	})

	t.Run("empty content is a warning", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.placeDocument(t, "Scan", "")
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, warnings := severities(messages)
		assert.Zero(t, errs)
		assert.Equal(t, 1, warnings)
	})

	t.Run("unreferenced file is a warning", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.placeDocument(t, "Water Bill", "water usage")
		orphan := filepath.Join(env.root, "originals", "leftover.pdf")
		require.NoError(t, os.WriteFile(orphan, []byte("stray"), 0600))
		checker := NewSanityChecker(env.docs, env.files)

		messages, err := checker.Check(ctx)
		require.NoError(t, err)
		errs, warnings := severities(messages)
		assert.Zero(t, errs)
		require.Equal(t, 1, warnings)
		assert.Contains(t, messages[0].Message, "orphaned file")
	})
}
