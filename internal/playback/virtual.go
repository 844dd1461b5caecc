package playback

import "sync"

// VirtualPlayer is the server-side stand-in for the browser's media
// element. The UI mirrors its source from session snapshots; tests inspect
// it directly.
type VirtualPlayer struct {
	mu       sync.Mutex
	source   string
	playing  bool
	setCalls int
}

func NewVirtualPlayer() *VirtualPlayer {
	return &VirtualPlayer{}
}

func (p *VirtualPlayer) SetSource(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = url
	p.setCalls++
}

func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *VirtualPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

func (p *VirtualPlayer) CurrentSource() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *VirtualPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetSourceCalls counts teardown/rebind cycles, used to assert bind
// idempotence.
func (p *VirtualPlayer) SetSourceCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setCalls
}
