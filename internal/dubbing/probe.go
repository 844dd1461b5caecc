package dubbing

import (
	"context"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/pkg/log"
	"golang.org/x/sync/singleflight"
)

// ProbeResult is the answer to "does a dubbed artifact already exist".
type ProbeResult struct {
	Hit bool
	URL string
}

// Probe performs the single fast existence check that runs before any job
// submission. A transient failure is treated as a miss: falling through to
// submission is the safe default, the backend deduplicates jobs itself.
type Probe struct {
	api   API
	group singleflight.Group
}

func NewProbe(api API) *Probe {
	return &Probe{api: api}
}

// Probe checks for an existing artifact. Concurrent probes for the same
// (content, language) pair share one round trip.
func (p *Probe) Probe(ctx context.Context, contentID, lang string) ProbeResult {
	key := contentID + "|" + lang
	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.api.CheckDubbedArtifact(ctx, contentID, lang)
	})
	if err != nil {
		log.Warn("Cache probe for %s/%s failed, treating as miss: %v", contentID, lang, err)
		return ProbeResult{}
	}
	result := v.(*backend.ProbeResult)
	if result == nil || !result.Exists {
		return ProbeResult{}
	}
	return ProbeResult{Hit: true, URL: result.URL}
}
