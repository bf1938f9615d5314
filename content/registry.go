// Package content implements the content-type registry and loader table
// (spec §4.B): a generator issuing fresh tags starting at 10, and a
// constant-time lookup from tag to loader. Missing registration is fatal,
// matching the teacher's registry packages (e.g. xaction/xreg), which
// panic on unknown-kind lookups rather than silently no-op.
package content

import (
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/tileflow/streamcore/cmn"
)

// Loader is the upstream format-loader contract (spec §6 "Format loader
// interface"). Concrete decoders (glTF, B3DM, tileset, terrain) implement
// this; streamcore's package `format` provides the reference set.
type Loader interface {
	SupportedFileTypes() []string
	LoadAsync(node cmn.NodeId, content interface{ DataSourceID() string }, transform [16]float64) (instanceID uint64, err error)
	UnloadNode(node cmn.NodeId) error
}

// Registry owns the ContentType generator and the tag -> Loader table.
type Registry struct {
	gen *cmn.ContentTypeGenerator

	mu      sync.RWMutex
	loaders map[cmn.ContentType]Loader
	labels  map[cmn.ContentType]string
}

func NewRegistry() *Registry {
	return &Registry{
		gen:     cmn.NewContentTypeGenerator(),
		loaders: make(map[cmn.ContentType]Loader),
		labels:  make(map[cmn.ContentType]string),
	}
}

// NewContentType issues a fresh tag and labels it for debug output (label
// is cosmetic only; identity is the integer per spec §3).
func (r *Registry) NewContentType(label string) cmn.ContentType {
	ct := r.gen.Next()
	r.mu.Lock()
	r.labels[ct] = label
	r.mu.Unlock()
	return ct
}

// Register binds a loader to a content type. Loaders must register before
// any content of that tag appears (spec §4.B).
func (r *Registry) Register(ct cmn.ContentType, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[ct] = loader
}

// Lookup returns the loader for ct. Missing registration is fatal
// (spec §4.B): callers are expected to have registered every content type
// that can appear in the dataset before streaming begins.
func (r *Registry) Lookup(ct cmn.ContentType) Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[ct]
	cmn.Assertf(ok, "no loader registered for content type %d (%s)", ct, r.labels[ct])
	return l
}

// Label returns the debug label for ct, or "" if none was set.
func (r *Registry) Label(ct cmn.ContentType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.labels[ct]
}

// RequestKey hashes a (data-source id, uri) pair into a stable dedupe key,
// used by the expansion scheduler to avoid dispatching the same fetch twice
// in one tick.
func RequestKey(dataSourceID, uri string) uint64 {
	h := xxhash.New64()
	_, _ = h.WriteString(dataSourceID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(uri)
	return h.Sum64()
}
