package playback

import "sync"

// DefaultResumeThreshold is the tail window, in seconds, inside which a saved
// position counts as finished and is not resumed.
const DefaultResumeThreshold = 10

// Resume arms a single resume-to-saved-position jump per episode load.
//
// The target is applied at most once: a late history arrival after the user
// already sought manually must not yank the playhead, so Apply clears the
// pending target whether or not it fired, and Cancel drops it on any manual
// seek.
type Resume struct {
	mu        sync.Mutex
	target    float64
	pending   bool
	threshold float64
}

// NewResume creates a resume manager. threshold <= 0 uses the default.
func NewResume(threshold float64) *Resume {
	if threshold <= 0 {
		threshold = DefaultResumeThreshold
	}
	return &Resume{threshold: threshold}
}

// SetFromHistory arms the resume target from a saved history position. A
// position inside the tail window of a known duration means the episode was
// effectively finished and playback restarts from the top instead.
func (r *Resume) SetFromHistory(progressSeconds, durationSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if progressSeconds <= 0 {
		return
	}
	if durationSeconds > 0 && progressSeconds >= durationSeconds-r.threshold {
		return
	}
	r.target = progressSeconds
	r.pending = true
}

// Apply consumes the pending target. mediaDuration is the duration reported
// by the loaded media (0 when unknown); a target inside its tail window is
// discarded. The target is cleared either way.
func (r *Resume) Apply(mediaDuration float64) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return 0, false
	}
	r.pending = false
	if mediaDuration > 0 && r.target >= mediaDuration-r.threshold {
		return 0, false
	}
	return r.target, true
}

// Cancel drops any pending target.
func (r *Resume) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = false
}
