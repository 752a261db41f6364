package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lingopod/engine/internal/domain"
)

// DefaultProgressInterval is how often playback position is persisted.
const DefaultProgressInterval = 10 * time.Second

// HistoryWriter persists playback progress.
type HistoryWriter interface {
	RecordHistory(ctx context.Context, rec domain.HistoryRecord) error
}

// Recorder periodically persists the playback position of the current
// episode. Writes are skipped while paused; a dirty position is flushed once
// when the recorder stops so the last listened moment survives shutdown.
type Recorder struct {
	writer   HistoryWriter
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	rec     domain.HistoryRecord
	playing bool
	dirty   bool
}

// NewRecorder creates a recorder. interval <= 0 uses the default.
func NewRecorder(writer HistoryWriter, interval time.Duration, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{writer: writer, interval: interval, logger: logger}
}

// Update records the latest playhead position and marks playback active.
func (r *Recorder) Update(rec domain.HistoryRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.UpdatedAt = time.Now()
	r.rec = rec
	r.playing = true
	r.dirty = true
}

// Pause suspends persistence until the next Update.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

// Run persists the position on the save interval until ctx is cancelled,
// then flushes any unsaved position. Write failures are logged and retried
// on the next tick; progress persistence must never interrupt playback.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			r.mu.Lock()
			active := r.playing && r.dirty
			r.mu.Unlock()
			if active {
				r.flush(ctx)
			}
		}
	}
}

func (r *Recorder) flush(ctx context.Context) {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return
	}
	rec := r.rec
	r.mu.Unlock()

	if err := r.writer.RecordHistory(ctx, rec); err != nil {
		r.logger.Debug("progress save failed", "episode", rec.EpisodeKey, "error", err)
		return
	}

	r.mu.Lock()
	if r.rec.UpdatedAt.Equal(rec.UpdatedAt) {
		r.dirty = false
	}
	r.mu.Unlock()
}
