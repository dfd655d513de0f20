package workflowengine

import "sync"

// PreviewCache is the out-of-band "last result" side channel used by the
// builder UI to show per-block previews. It is advisory only: the engine
// writes it after each successful block, nothing inside the engine reads it,
// and it never mutates the workflow definition itself.
type PreviewCache struct {
	mu      sync.RWMutex
	results map[string]BlockOutput
}

func NewPreviewCache() *PreviewCache {
	return &PreviewCache{results: map[string]BlockOutput{}}
}

func (p *PreviewCache) Set(blockID string, out BlockOutput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[blockID] = out
}

func (p *PreviewCache) Get(blockID string) (BlockOutput, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out, ok := p.results[blockID]
	return out, ok
}

func (p *PreviewCache) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = map[string]BlockOutput{}
}
