package parsers

import (
	"sort"
	"sync"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps MIME types to parser factories ordered by priority.
type Registry struct {
	mu      sync.RWMutex
	byMIME  map[string][]registration
	allMIME map[string]bool
}

type registration struct {
	factory  driven.ParserFactory
	priority int
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME:  make(map[string][]registration),
		allMIME: make(map[string]bool),
	}
}

// Register adds a parser factory. A probe instance provides the
// supported MIME types and priority.
func (r *Registry) Register(factory driven.ParserFactory) {
	probe := factory()
	defer probe.Cleanup() //nolint:errcheck

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mime := range probe.SupportedMIMETypes() {
		r.byMIME[mime] = append(r.byMIME[mime], registration{factory, probe.Priority()})
		sort.SliceStable(r.byMIME[mime], func(i, j int) bool {
			return r.byMIME[mime][i].priority > r.byMIME[mime][j].priority
		})
		r.allMIME[mime] = true
	}
}

// ParserFor returns a new parser instance for the MIME type.
func (r *Registry) ParserFor(mimeType string) (driven.DocumentParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regs := r.byMIME[mimeType]
	if len(regs) == 0 {
		return nil, false
	}
	return regs[0].factory(), true
}

// SupportedMIMETypes returns all MIME types with a registered parser.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.allMIME))
	for mime := range r.allMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}
