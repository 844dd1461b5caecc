package dubbing

import (
	"context"
	"sort"
	"sync"

	"github.com/eduvoice/dubsession/internal/backend"
	"golang.org/x/sync/singleflight"
)

// Registry tracks which target languages already have a durable dubbed
// artifact for the current content item. It is rebuilt by full refresh only
// (on content load, after a request reaches Ready, and on the maintenance
// re-sync) and never patched incrementally, so a partial or failed job can
// never leave a phantom entry.
type Registry struct {
	api API

	mu        sync.RWMutex
	contentID string
	entries   map[string]backend.LanguageAvailability

	group singleflight.Group
}

func NewRegistry(api API) *Registry {
	return &Registry{
		api:     api,
		entries: make(map[string]backend.LanguageAvailability),
	}
}

// Reset clears all entries and pins the registry to a new content item.
// Called on navigation, before the first refresh, so lookups never serve
// the previous lecture's languages.
func (r *Registry) Reset(contentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contentID = contentID
	r.entries = make(map[string]backend.LanguageAvailability)
}

// Refresh rebuilds the registry from the backend. Concurrent refreshes for
// the same content item share one fetch. A refresh for a content item the
// registry has since navigated away from is discarded.
func (r *Registry) Refresh(ctx context.Context, contentID string) error {
	_, err, _ := r.group.Do(contentID, func() (any, error) {
		langs, err := r.api.ContentLanguages(ctx, contentID)
		if err != nil {
			return nil, err
		}

		entries := make(map[string]backend.LanguageAvailability, len(langs))
		for _, lang := range langs {
			entries[lang.Code] = lang
		}

		r.mu.Lock()
		if r.contentID == contentID {
			r.entries = entries
		}
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// Lookup returns the availability entry for a language code.
func (r *Registry) Lookup(lang string) (backend.LanguageAvailability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[lang]
	return entry, ok
}

// Languages returns all known entries for the current content item.
func (r *Registry) Languages() []backend.LanguageAvailability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]backend.LanguageAvailability, 0, len(r.entries))
	for _, entry := range r.entries {
		ret = append(ret, entry)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Code < ret[j].Code })
	return ret
}

// ContentID returns the content item the registry is pinned to.
func (r *Registry) ContentID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contentID
}
