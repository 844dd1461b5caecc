package dubbing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduvoice/dubsession/internal/backend"
)

func TestRegistry_RefreshAndLookup(t *testing.T) {
	api := newFakeAPI()
	api.languages = []backend.LanguageAvailability{
		{Code: "en", Available: true, Status: backend.AvailabilityOriginal},
		{Code: "hi", Available: true, Status: backend.AvailabilityCompleted},
		{Code: "ta", Available: false, Status: backend.AvailabilityNotGenerated},
	}
	registry := NewRegistry(api)
	registry.Reset("v1")

	require.NoError(t, registry.Refresh(context.Background(), "v1"))

	entry, ok := registry.Lookup("hi")
	require.True(t, ok)
	assert.True(t, entry.Available)
	assert.Equal(t, backend.AvailabilityCompleted, entry.Status)

	langs := registry.Languages()
	require.Len(t, langs, 3)
	assert.Equal(t, []string{"en", "hi", "ta"}, []string{langs[0].Code, langs[1].Code, langs[2].Code})
}

func TestRegistry_ResetClearsEntries(t *testing.T) {
	api := newFakeAPI()
	api.languages = []backend.LanguageAvailability{
		{Code: "hi", Available: true, Status: backend.AvailabilityCompleted},
	}
	registry := NewRegistry(api)
	registry.Reset("v1")
	require.NoError(t, registry.Refresh(context.Background(), "v1"))

	registry.Reset("v2")

	_, ok := registry.Lookup("hi")
	assert.False(t, ok, "navigation must not serve the previous lecture's languages")
	assert.Empty(t, registry.Languages())
	assert.Equal(t, "v2", registry.ContentID())
}

func TestRegistry_StaleRefreshDiscarded(t *testing.T) {
	api := newFakeAPI()
	api.languages = []backend.LanguageAvailability{
		{Code: "hi", Available: true, Status: backend.AvailabilityCompleted},
	}
	registry := NewRegistry(api)
	registry.Reset("v2")

	// A refresh for content the registry already navigated away from must
	// not repopulate it.
	require.NoError(t, registry.Refresh(context.Background(), "v1"))
	assert.Empty(t, registry.Languages())
}

func TestRegistry_RefreshErrorKeepsOldEntries(t *testing.T) {
	api := newFakeAPI()
	api.languages = []backend.LanguageAvailability{
		{Code: "hi", Available: true, Status: backend.AvailabilityCompleted},
	}
	registry := NewRegistry(api)
	registry.Reset("v1")
	require.NoError(t, registry.Refresh(context.Background(), "v1"))

	api.mu.Lock()
	api.langErr = assert.AnError
	api.mu.Unlock()

	require.Error(t, registry.Refresh(context.Background(), "v1"))
	_, ok := registry.Lookup("hi")
	assert.True(t, ok, "a failed refresh must not wipe known availability")
}
