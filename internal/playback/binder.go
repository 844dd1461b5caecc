// Package playback owns the one mutable shared resource of a player
// session: the media element's source. Only the SourceBinder writes to it.
package playback

import (
	"sync"

	"github.com/eduvoice/dubsession/pkg/log"
)

// Player abstracts the media element. SetSource must tear down any decoder
// state attached to the previous source; implementations are expected to be
// cheap and non-blocking.
type Player interface {
	SetSource(url string)
	Pause()
	Play()
	CurrentSource() string
}

// SourceBinder rebinds the player's source, guaranteeing the element never
// plays a stale source after a language or content change. Every bind
// carries the session generation it was issued under; a late-arriving bind
// whose generation no longer matches is discarded.
type SourceBinder struct {
	mu         sync.Mutex
	player     Player
	generation uint64
	currentURL string
}

func NewSourceBinder(player Player) *SourceBinder {
	return &SourceBinder{player: player}
}

// Advance starts a new session generation (content switch or explicit
// cancel) and synchronously binds the given original source, so no slow
// localization result issued under an earlier generation can land on top of
// the new content. A cancel while the original is still the active source
// only bumps the generation: the player keeps playing uninterrupted.
// Returns the new generation.
func (b *SourceBinder) Advance(originalURL string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	if originalURL != b.currentURL {
		b.rebindLocked(originalURL)
	}
	return b.generation
}

// Bind sets the player source for the given generation. Stale generations
// are discarded. Binding the URL that is already active is a no-op, so a
// repeated resolution causes no second teardown. Reports whether the bind
// was applied (a no-op rebind of the same URL counts as applied).
func (b *SourceBinder) Bind(generation uint64, url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		log.Debug("Discarding stale bind for generation %d (current %d)", generation, b.generation)
		return false
	}
	if url == b.currentURL {
		return true
	}
	b.rebindLocked(url)
	return true
}

func (b *SourceBinder) rebindLocked(url string) {
	b.player.Pause()
	b.player.SetSource(url)
	b.currentURL = url
}

// Generation returns the current session generation.
func (b *SourceBinder) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// CurrentURL returns the source the binder last applied.
func (b *SourceBinder) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentURL
}
