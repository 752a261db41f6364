// Package domain contains the core types of the transcript engine.
package domain

import (
	"time"

	"github.com/lingopod/engine/internal/lang"
)

// Word is a single word with its time alignment inside a segment.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one time-bounded unit of transcript text.
//
// Source data is not guaranteed non-overlapping; consumers must tolerate
// overlap and gaps between segments.
type Segment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
	Words       []Word  `json:"words,omitempty"`
}

// Contains reports whether t falls inside the segment's half-open interval
// [Start, End).
func (s Segment) Contains(t float64) bool {
	return s.Start <= t && t < s.End
}

// HasTranslation reports whether any segment in the list carries a non-empty
// translation.
func HasTranslation(segments []Segment) bool {
	for _, s := range segments {
		if s.Translation != "" {
			return true
		}
	}
	return false
}

// CacheEntry is a cached transcript resolution for one (episode, language).
// Entries are replaced whole, never partially mutated.
type CacheEntry struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	CachedAt time.Time `json:"cachedAt"`
}

// Usable reports whether the entry satisfies a lookup for the given language.
// An entry stored for a different language is a miss. When a translation
// language was requested, an entry whose segments carry no translation at all
// is stale and also a miss.
func (e CacheEntry) Usable(language string) bool {
	if len(e.Segments) == 0 {
		return false
	}
	if !lang.Match(e.Language, language) {
		return false
	}
	if language != "" && !HasTranslation(e.Segments) {
		return false
	}
	return true
}
