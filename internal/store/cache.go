package store

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"time"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/lang"
)

// Device-local cache key layout.
const (
	transcriptKeyPrefix = "transcript_"
	audioURLKeyPrefix   = "transcript_audio_url_"
)

// TranscriptCache is the per-device transcript cache.
//
// Every method is fail-silent: a broken or full device store must never fail
// a transcript load, so storage errors are logged at debug level and reported
// as a miss (or swallowed on write). Entries have no TTL; they are replaced
// whole or deleted explicitly on regeneration.
type TranscriptCache struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
}

// NewTranscriptCache creates a cache over the given key/value store.
func NewTranscriptCache(kv KV, logger *slog.Logger) *TranscriptCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TranscriptCache{kv: kv, logger: logger, now: time.Now}
}

func transcriptKey(episodeID, language string) string {
	return transcriptKeyPrefix + episodeID + "_" + lang.Normalize(language)
}

func audioURLKey(episodeID string) string {
	return audioURLKeyPrefix + episodeID
}

// GetTranscript returns the cached entry for (episodeID, language) when it is
// present and usable for that language.
func (c *TranscriptCache) GetTranscript(episodeID, language string) (domain.CacheEntry, bool) {
	data, err := c.kv.Get(transcriptKey(episodeID, language))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Debug("transcript cache read failed", "episode", episodeID, "error", err)
		}
		return domain.CacheEntry{}, false
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Debug("transcript cache entry corrupt", "episode", episodeID, "error", err)
		return domain.CacheEntry{}, false
	}

	if !entry.Usable(language) {
		return domain.CacheEntry{}, false
	}
	return entry, true
}

// PutTranscript stores segments for (episodeID, language), replacing any
// previous entry whole.
func (c *TranscriptCache) PutTranscript(episodeID, language string, segments []domain.Segment) {
	entry := domain.CacheEntry{
		Segments: segments,
		Language: lang.Normalize(language),
		CachedAt: c.now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Debug("transcript cache marshal failed", "episode", episodeID, "error", err)
		return
	}
	if err := c.kv.Set(transcriptKey(episodeID, language), data); err != nil {
		c.logger.Debug("transcript cache write failed", "episode", episodeID, "error", err)
	}
}

// DeleteTranscript removes the entry for one language.
func (c *TranscriptCache) DeleteTranscript(episodeID, language string) {
	if err := c.kv.Delete(transcriptKey(episodeID, language)); err != nil {
		c.logger.Debug("transcript cache delete failed", "episode", episodeID, "error", err)
	}
}

// DeleteAllLanguages removes cached entries for every language of the episode.
// Used when the caller forces regeneration.
func (c *TranscriptCache) DeleteAllLanguages(episodeID string) {
	if err := c.kv.DeletePrefix(transcriptKeyPrefix + episodeID + "_"); err != nil {
		c.logger.Debug("transcript cache prefix delete failed", "episode", episodeID, "error", err)
	}
}

// GetAudioURL returns the previously resolved audio URL for the episode.
func (c *TranscriptCache) GetAudioURL(episodeID string) (string, bool) {
	data, err := c.kv.Get(audioURLKey(episodeID))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Debug("audio url cache read failed", "episode", episodeID, "error", err)
		}
		return "", false
	}
	return string(data), true
}

// PutAudioURL stores the resolved audio URL so repeated resolutions are free.
func (c *TranscriptCache) PutAudioURL(episodeID, url string) {
	if err := c.kv.Set(audioURLKey(episodeID), []byte(url)); err != nil {
		c.logger.Debug("audio url cache write failed", "episode", episodeID, "error", err)
	}
}
