package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Episode identifies one logical podcast episode as seen by the player.
type Episode struct {
	GUID         string  `json:"guid,omitempty"`
	Title        string  `json:"title"`
	AudioURL     string  `json:"audioUrl"`
	ChannelName  string  `json:"channelName,omitempty"`
	ChannelImage string  `json:"channelImage,omitempty"`
	Duration     float64 `json:"duration,omitempty"` // seconds, 0 when unknown
}

// Identity derives the stable cache/job key for the episode: the feed GUID
// when present, else a hash of title and audio URL. The same logical episode
// must map to the same identity across reloads.
func (e Episode) Identity() string {
	if e.GUID != "" {
		return hashKey(e.GUID)
	}
	return hashKey(e.Title + "|" + e.AudioURL)
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "ep_" + hex.EncodeToString(sum[:12])
}
