package vad

import "sync"

// Registry holds one detector per active session. Detectors share no
// state; the registry only guards the lookup map.
type Registry struct {
	mu        sync.Mutex
	cfg       Config
	detectors map[string]*Detector
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, detectors: make(map[string]*Detector)}
}

// Attach creates the detector for sessionID with the given classifier
// and events, replacing any existing one.
func (r *Registry) Attach(sessionID string, cls Classifier, ev Events) *Detector {
	d := NewDetector(r.cfg, cls, ev)
	r.mu.Lock()
	r.detectors[sessionID] = d
	r.mu.Unlock()
	return d
}

// Get returns the detector for sessionID, or nil.
func (r *Registry) Get(sessionID string) *Detector {
	r.mu.Lock()
	d := r.detectors[sessionID]
	r.mu.Unlock()
	return d
}

// Remove drops the detector for a disconnected session.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	d := r.detectors[sessionID]
	delete(r.detectors, sessionID)
	r.mu.Unlock()
	if d != nil {
		d.Reset()
	}
}
