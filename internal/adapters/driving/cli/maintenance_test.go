package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
)

func TestRetagCmd_DefaultsToAllLabelSpaces(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("retag")

	require.NoError(t, err)
	assert.Equal(t, driving.RetagOptions{
		Correspondent: true,
		DocumentType:  true,
		Tags:          true,
	}, services.maintenance.retagOpts)
}

func TestRetagCmd_SelectedLabelSpacesOnly(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()
	defer func() { retagOpts = driving.RetagOptions{} }()

	_, err := execute("retag", "-t", "--inbox-only", "--overwrite")

	require.NoError(t, err)
	assert.Equal(t, driving.RetagOptions{
		Tags:      true,
		InboxOnly: true,
		Overwrite: true,
	}, services.maintenance.retagOpts)
}

func TestTrainCmd_ReportsModelChange(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()
	services.maintenance.trainChanged = true

	out, err := execute("train")

	require.NoError(t, err)
	assert.Contains(t, out, "model updated")

	services.maintenance.trainChanged = false
	out, err = execute("train")

	require.NoError(t, err)
	assert.Contains(t, out, "unchanged")
}

func TestMaintenanceCmds_DriveTheService(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()

	for _, name := range []string{"reindex", "optimize", "rename", "thumbnails"} {
		_, err := execute(name)
		require.NoError(t, err, name)
	}

	assert.Equal(t, []string{"reindex", "optimize", "rename", "thumbnails"}, services.maintenance.calls)
}

func TestSanityCmd_CleanArchive(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("sanity")

	require.NoError(t, err)
	assert.Contains(t, out, "No issues found.")
}

func TestSanityCmd_PrintsFindings(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()
	services.maintenance.sanity = []domain.SanityMessage{
		{Severity: domain.SanityError, DocumentID: 3, Message: "original file missing"},
		{Severity: domain.SanityWarning, DocumentID: 5, Message: "document has no content"},
	}

	out, err := execute("sanity")

	require.NoError(t, err)
	assert.Contains(t, out, "ERROR: original file missing")
	assert.Contains(t, out, "Warning: document has no content")
	assert.Contains(t, out, "2 findings, 1 errors")
}

func TestExportCmd_RequiresTarget(t *testing.T) {
	_, err := execute("export")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestExportAndImportCmds(t *testing.T) {
	services, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("export", "/tmp/backup")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/backup", services.maintenance.target)
	assert.Contains(t, out, "Exported archive to /tmp/backup")

	out, err = execute("import", "/tmp/backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported archive from /tmp/backup")
	assert.Equal(t, []string{"export", "import"}, services.maintenance.calls)
}
