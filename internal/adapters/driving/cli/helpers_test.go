package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
)

// mockConsumer records consumption calls and returns canned results.
type mockConsumer struct {
	consumed  []string
	overrides []driving.ConsumeOverrides
	err       error
}

func (m *mockConsumer) Consume(_ context.Context, path string, overrides driving.ConsumeOverrides) (*domain.Document, error) {
	m.consumed = append(m.consumed, path)
	m.overrides = append(m.overrides, overrides)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{ID: int64(len(m.consumed))}, nil
}

// mockSearch serves one canned page regardless of the query.
type mockSearch struct {
	page     *domain.SearchPage
	terms    []string
	err      error
	query    string
	pageArg  string
	moreLike int64
	prefix   string
	limit    int
}

func (m *mockSearch) Search(_ context.Context, query, page string) (*domain.SearchPage, error) {
	m.query, m.pageArg = query, page
	return m.page, m.err
}

func (m *mockSearch) MoreLike(_ context.Context, documentID int64, query, page string) (*domain.SearchPage, error) {
	m.moreLike, m.query, m.pageArg = documentID, query, page
	return m.page, m.err
}

func (m *mockSearch) Autocomplete(_ context.Context, prefix string, limit int) ([]string, error) {
	m.prefix, m.limit = prefix, limit
	return m.terms, m.err
}

// mockMaintenance records which operations ran.
type mockMaintenance struct {
	calls        []string
	retagOpts    driving.RetagOptions
	trainChanged bool
	sanity       []domain.SanityMessage
	target       string
	err          error
}

func (m *mockMaintenance) record(name string) error {
	m.calls = append(m.calls, name)
	return m.err
}

func (m *mockMaintenance) Reindex(context.Context) error       { return m.record("reindex") }
func (m *mockMaintenance) OptimizeIndex(context.Context) error { return m.record("optimize") }

func (m *mockMaintenance) Train(context.Context) (bool, error) {
	return m.trainChanged, m.record("train")
}

func (m *mockMaintenance) Retag(_ context.Context, opts driving.RetagOptions) error {
	m.retagOpts = opts
	return m.record("retag")
}

func (m *mockMaintenance) RenameAll(context.Context) error            { return m.record("rename") }
func (m *mockMaintenance) RegenerateThumbnails(context.Context) error { return m.record("thumbnails") }

func (m *mockMaintenance) CheckSanity(context.Context) ([]domain.SanityMessage, error) {
	return m.sanity, m.record("sanity")
}

func (m *mockMaintenance) Export(_ context.Context, target string) error {
	m.target = target
	return m.record("export")
}

func (m *mockMaintenance) Import(_ context.Context, source string) error {
	m.target = source
	return m.record("import")
}

// mockBulk records the last batch mutation.
type mockBulk struct {
	method string
	ids    []int64
	label  *int64
	tagID  int64
	err    error
}

func (m *mockBulk) SetCorrespondent(_ context.Context, ids []int64, correspondentID *int64) error {
	m.method, m.ids, m.label = "set-correspondent", ids, correspondentID
	return m.err
}

func (m *mockBulk) SetDocumentType(_ context.Context, ids []int64, documentTypeID *int64) error {
	m.method, m.ids, m.label = "set-type", ids, documentTypeID
	return m.err
}

func (m *mockBulk) AddTag(_ context.Context, ids []int64, tagID int64) error {
	m.method, m.ids, m.tagID = "add-tag", ids, tagID
	return m.err
}

func (m *mockBulk) RemoveTag(_ context.Context, ids []int64, tagID int64) error {
	m.method, m.ids, m.tagID = "remove-tag", ids, tagID
	return m.err
}

func (m *mockBulk) Delete(_ context.Context, ids []int64) error {
	m.method, m.ids = "delete", ids
	return m.err
}

// testServices bundles the mocks one Execute run talks to.
type testServices struct {
	consumer    *mockConsumer
	search      *mockSearch
	maintenance *mockMaintenance
	bulk        *mockBulk
}

// setupTestServices swaps the package services for mocks so commands run
// without the real adapter stack. The returned cleanup restores them.
func setupTestServices() (*testServices, func()) {
	services := &testServices{
		consumer:    &mockConsumer{},
		search:      &mockSearch{page: &domain.SearchPage{Page: 1, PageCount: 1}},
		maintenance: &mockMaintenance{},
		bulk:        &mockBulk{},
	}

	oldConsumer := consumerService
	oldSearch := searchService
	oldMaintenance := maintenanceService
	oldBulk := bulkService

	consumerService = services.consumer
	searchService = services.search
	maintenanceService = services.maintenance
	bulkService = services.bulk

	return services, func() {
		consumerService = oldConsumer
		searchService = oldSearch
		maintenanceService = oldMaintenance
		bulkService = oldBulk
	}
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func resultAt(id int64, title string) domain.SearchResult {
	return domain.SearchResult{
		ID:      id,
		Title:   title,
		Created: time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC),
	}
}
