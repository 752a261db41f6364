package engine

import "github.com/lingopod/engine/internal/domain"

// placeholderSegments is the built-in transcript used outside production when
// generation fails for a generic reason, so the player UI stays exercisable
// against a broken backend.
func placeholderSegments() []domain.Segment {
	return []domain.Segment{
		{Start: 0, End: 4, Text: "Transcript generation is unavailable right now.", Translation: "Transcript generation is unavailable right now."},
		{Start: 4, End: 8, Text: "This is a development placeholder transcript.", Translation: "This is a development placeholder transcript."},
		{Start: 8, End: 12, Text: "Playback highlighting still works against these segments.", Translation: "Playback highlighting still works against these segments."},
	}
}
