package domain

import "time"

// HistoryRecord is one user's playback history entry for an episode.
// One logical record exists per (user, episode key); it is created on first
// playback and updated on the progress save interval.
type HistoryRecord struct {
	EpisodeKey      string    `json:"episodeKey"`
	Title           string    `json:"title"`
	URL             string    `json:"url,omitempty"`
	ChannelName     string    `json:"channelName,omitempty"`
	ChannelImage    string    `json:"channelImage,omitempty"`
	ProgressSeconds float64   `json:"progressSeconds"`
	DurationSeconds float64   `json:"durationSeconds"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
