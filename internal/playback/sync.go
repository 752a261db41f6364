// Package playback keeps a playing episode and its transcript in lockstep:
// locating the current segment and word for a playhead position, driving an
// A/B practice loop, resuming from saved history, and recording progress.
package playback

import (
	"sync"

	"github.com/lingopod/engine/internal/domain"
)

// Cursor is the transcript position for one playhead time. Indexes are -1
// when the time falls outside every segment (or word).
type Cursor struct {
	Time         float64 `json:"time"`
	SegmentIndex int     `json:"segmentIndex"`
	WordIndex    int     `json:"wordIndex"`
}

// Locate returns the indexes of the segment and word containing t.
//
// Intervals are half-open [start, end), so a time sitting exactly on a
// boundary belongs to the following segment. Source data may overlap or leave
// gaps; the first match wins and a gap yields -1.
func Locate(segments []domain.Segment, t float64) (segIdx, wordIdx int) {
	segIdx, wordIdx = -1, -1
	for i, seg := range segments {
		if !seg.Contains(t) {
			continue
		}
		segIdx = i
		for j, w := range seg.Words {
			if w.Start <= t && t < w.End {
				wordIdx = j
				break
			}
		}
		return segIdx, wordIdx
	}
	return segIdx, wordIdx
}

// LoopState is the phase of the A/B loop cycle.
type LoopState string

const (
	LoopUnset    LoopState = "unset"
	LoopStartSet LoopState = "start_set"
	LoopActive   LoopState = "active"
)

// Loop is an A/B repeat range over the playhead timeline.
//
// One control cycles it through three states: unset, A marked, A+B marked
// (looping). B can only land strictly after A; toggling at or before A moves
// A instead of arming a zero-width loop.
type Loop struct {
	mu    sync.Mutex
	a, b  float64
	state LoopState
}

// NewLoop returns an unset loop.
func NewLoop() *Loop {
	return &Loop{state: LoopUnset}
}

// Toggle advances the cycle at the current playhead time and returns the new
// state.
func (l *Loop) Toggle(now float64) LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case LoopUnset:
		l.a = now
		l.state = LoopStartSet
	case LoopStartSet:
		if now > l.a {
			l.b = now
			l.state = LoopActive
		} else {
			// Can't close the loop behind its start; re-mark A here.
			l.a = now
		}
	case LoopActive:
		l.state = LoopUnset
	}
	return l.state
}

// Clear resets the loop to unset.
func (l *Loop) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = LoopUnset
}

// State returns the current phase.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Bounds returns the loop range. Valid only while the loop is active.
func (l *Loop) Bounds() (a, b float64, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a, l.b, l.state == LoopActive
}

// Seek returns the position to jump to when the playhead has reached or
// passed the loop end.
func (l *Loop) Seek(now float64) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == LoopActive && now >= l.b {
		return l.a, true
	}
	return 0, false
}

// Synchronizer tracks the transcript cursor for a playing episode and fires
// the seek callback when the A/B loop wraps.
type Synchronizer struct {
	mu       sync.Mutex
	segments []domain.Segment
	loop     *Loop
	onSeek   func(target float64)
}

// NewSynchronizer creates a synchronizer. onSeek may be nil when the caller
// polls the returned cursor instead of reacting to loop wraps.
func NewSynchronizer(onSeek func(target float64)) *Synchronizer {
	return &Synchronizer{loop: NewLoop(), onSeek: onSeek}
}

// SetSegments replaces the transcript being followed and clears the loop.
func (s *Synchronizer) SetSegments(segments []domain.Segment) {
	s.mu.Lock()
	s.segments = segments
	s.mu.Unlock()
	s.loop.Clear()
}

// Loop exposes the A/B loop for toggling.
func (s *Synchronizer) Loop() *Loop {
	return s.loop
}

// Tick advances the synchronizer to playhead time t and returns the cursor.
// When the loop fires, the cursor reflects the post-seek position.
func (s *Synchronizer) Tick(t float64) Cursor {
	if target, ok := s.loop.Seek(t); ok {
		if s.onSeek != nil {
			s.onSeek(target)
		}
		t = target
	}

	s.mu.Lock()
	segments := s.segments
	s.mu.Unlock()

	segIdx, wordIdx := Locate(segments, t)
	return Cursor{Time: t, SegmentIndex: segIdx, WordIndex: wordIdx}
}
