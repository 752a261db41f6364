// Package engine contains the transcript generation orchestrator: the state
// machine that resolves a transcript for an episode through the tiered
// fallback (device cache, archive, store, generation) and coordinates slow
// asynchronous generation jobs without duplicating work.
package engine

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lingopod/engine/internal/asset"
	"github.com/lingopod/engine/internal/backend"
	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/errors"
	"github.com/lingopod/engine/internal/lang"
	"github.com/lingopod/engine/internal/store"
)

// State is one phase of a transcript load.
type State string

// Load states, in the order a cold load traverses them.
const (
	StateIdle          State = "idle"
	StateCheckingCache State = "checking_cache"
	StateResolving     State = "resolving"
	StateRequesting    State = "requesting"
	StatePolling       State = "polling"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// Result sources.
const (
	SourceCache       = "cache"
	SourceArchive     = "archive"
	SourceStore       = "store"
	SourceSession     = "session"
	SourcePlaceholder = "placeholder"
)

// ErrSuperseded reports that a load was abandoned because a newer load took
// over the engine. Callers drop it without surfacing anything to the user.
var ErrSuperseded = stderrors.New("load superseded by a newer load")

// Archive is the best-effort CDN transcript tier.
type Archive interface {
	Read(ctx context.Context, episodeID string) ([]domain.Segment, bool, error)
}

// Backend is the authoritative transcript tier plus the generation job API.
type Backend interface {
	RequestTranscript(ctx context.Context, audioURL, episodeID, language string) (backend.SubmitResult, error)
	GetTranscript(ctx context.Context, episodeID, language string) ([]domain.Segment, bool, error)
	DeleteTranscript(ctx context.Context, episodeID string) error
}

// AssetResolver normalizes audio references for generation jobs.
type AssetResolver interface {
	Resolve(ctx context.Context, episodeID, ref string) (string, error)
}

// Result is a resolved transcript.
type Result struct {
	Segments []domain.Segment `json:"segments"`
	Source   string           `json:"source"`
	// Placeholder marks the built-in development transcript substituted for
	// a failed generation outside production.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Engine orchestrates transcript loads.
//
// Concurrency model: every accepted load takes a monotonically increasing
// generation token and records itself as the engine's active load. All
// suspension points (cache reads, network calls, scheduled waits) re-check
// the token on resumption; a superseded attempt discards its work and exits
// with ErrSuperseded instead of overwriting state owned by the newer load.
// Identical concurrent loads share one flight via singleflight, so at most
// one generation attempt per (episode, language) is ever observable.
type Engine struct {
	cache    *store.TranscriptCache
	archive  Archive
	backend  Backend
	resolver AssetResolver
	logger   *slog.Logger

	production bool
	maxURLLen  int
	onState    func(key string, s State)

	// sleep is swappable so tests can run the schedules instantly.
	sleep func(ctx context.Context, d time.Duration) error

	group singleflight.Group

	mu         sync.Mutex
	generation uint64
	activeKey  string
	activeGen  uint64
	ready      map[string][]domain.Segment
}

// Option configures an Engine.
type Option func(*Engine)

// WithProduction toggles production behavior: failed generations surface
// errors instead of degrading to a placeholder transcript.
func WithProduction(production bool) Option {
	return func(e *Engine) { e.production = production }
}

// WithMaxURLLength overrides the maximum safe audio URL length.
func WithMaxURLLength(n int) Option {
	return func(e *Engine) { e.maxURLLen = n }
}

// WithStateObserver installs a callback invoked on every state transition of
// a live (non-superseded) load.
func WithStateObserver(fn func(key string, s State)) Option {
	return func(e *Engine) { e.onState = fn }
}

// New creates an engine.
func New(cache *store.TranscriptCache, archive Archive, be Backend, resolver AssetResolver, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		cache:     cache,
		archive:   archive,
		backend:   be,
		resolver:  resolver,
		logger:    logger,
		maxURLLen: asset.MaxSafeURLLength,
		sleep:     sleepContext,
		ready:     make(map[string][]domain.Segment),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadKey is the idempotency key of one logical resolution attempt.
func LoadKey(episodeID, language string) string {
	return episodeID + ":" + lang.Normalize(language)
}

// Load resolves a transcript for the episode in the requested language.
//
// A load for a key that already reached Ready in this session returns the
// memoized result; a load for a key currently in flight joins that flight.
// force bypasses both and supersedes any in-flight attempt.
func (e *Engine) Load(ctx context.Context, episode domain.Episode, language string, force bool) (Result, error) {
	episodeID := episode.Identity()
	key := LoadKey(episodeID, language)

	if !force {
		e.mu.Lock()
		if segments, ok := e.ready[key]; ok {
			e.mu.Unlock()
			return Result{Segments: segments, Source: SourceSession}, nil
		}
		e.mu.Unlock()
	} else {
		// A forced load must not join the running flight.
		e.group.Forget(key)
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.run(ctx, key, episodeID, episode, language, force)
	})
	if err != nil {
		return Result{}, err
	}
	result, _ := v.(Result)
	return result, nil
}

// Refresh polls the archive on the short schedule, for call sites that
// suspect a generation job kicked off elsewhere is about to land. It never
// starts a generation job.
func (e *Engine) Refresh(ctx context.Context, episode domain.Episode, language string) (Result, bool, error) {
	episodeID := episode.Identity()
	key := LoadKey(episodeID, language)
	gen := e.begin(key)

	for _, delay := range ShortSchedule {
		segments, found, err := e.archive.Read(ctx, episodeID)
		if err != nil {
			return Result{}, false, err
		}
		if found {
			return e.commit(key, episodeID, language, gen, segments, SourceArchive)
		}
		if err := e.sleep(ctx, delay); err != nil {
			return Result{}, false, err
		}
		if !e.owns(gen) {
			return Result{}, false, ErrSuperseded
		}
	}
	return Result{}, false, nil
}

// Regenerate discards every cached language of the episode plus the
// authoritative record, then re-runs the full load.
func (e *Engine) Regenerate(ctx context.Context, episode domain.Episode, language string) (Result, error) {
	episodeID := episode.Identity()

	e.cache.DeleteAllLanguages(episodeID)
	e.forgetEpisode(episodeID)

	if err := e.backend.DeleteTranscript(ctx, episodeID); err != nil {
		return Result{}, err
	}

	return e.Load(ctx, episode, language, true)
}

// run executes one full load attempt. It owns a fresh generation token.
func (e *Engine) run(ctx context.Context, key, episodeID string, episode domain.Episode, language string, force bool) (Result, error) {
	gen := e.begin(key)

	log := e.logger.With("key", key)

	// CheckingCache: device cache, then archive, then store.
	e.emit(gen, key, StateCheckingCache)

	if !force {
		if entry, ok := e.cache.GetTranscript(episodeID, language); ok {
			log.Debug("transcript served from device cache")
			result, _, err := e.finish(key, gen, entry.Segments, SourceCache)
			return result, err
		}
	}

	segments, found, err := e.archive.Read(ctx, episodeID)
	if err != nil {
		// Only surfaces when outage escalation is configured.
		return e.fail(gen, key, err)
	}
	if found {
		log.Debug("transcript served from archive tier")
		result, _, err := e.commit(key, episodeID, language, gen, segments, SourceArchive)
		return result, err
	}

	segments, found, err = e.backend.GetTranscript(ctx, episodeID, language)
	if err != nil {
		// The store tier is authoritative but a read failure here only
		// blocks the shortcut; generation can still produce the transcript.
		log.Warn("transcript store read failed, continuing to generation", "error", err)
	} else if found {
		log.Debug("transcript served from store tier")
		result, _, err := e.commit(key, episodeID, language, gen, segments, SourceStore)
		return result, err
	}

	if !e.owns(gen) {
		return Result{}, ErrSuperseded
	}

	// Resolving: normalize the audio reference.
	e.emit(gen, key, StateResolving)
	audioURL, err := e.resolver.Resolve(ctx, episodeID, episode.AudioURL)
	if err != nil {
		return e.fail(gen, key, err)
	}
	if !e.owns(gen) {
		return Result{}, ErrSuperseded
	}

	// Requesting: guard the resolved URL, then submit the job.
	e.emit(gen, key, StateRequesting)
	if len(audioURL) > e.maxURLLen {
		return e.fail(gen, key, errors.URLTooLongf("resolved audio URL is %d characters, maximum is %d", len(audioURL), e.maxURLLen))
	}

	submit, err := e.backend.RequestTranscript(ctx, audioURL, episodeID, language)
	if err != nil {
		if errors.Is(err, errors.ErrPayloadTooLarge) {
			// Terminal: polling would wait on a job that never started.
			return e.fail(gen, key, err)
		}
		if errors.Is(err, errors.ErrConnectionDropped) {
			// The submission may have gone through before the drop; one
			// bounded archive check before surfacing.
			if segments, found, readErr := e.archive.Read(ctx, episodeID); readErr == nil && found {
				log.Debug("transcript recovered from archive after dropped connection")
				result, _, err := e.commit(key, episodeID, language, gen, segments, SourceArchive)
				return result, err
			}
			return e.fail(gen, key, err)
		}
		return e.failGeneric(gen, key, err)
	}
	log.Info("generation job submitted", "request_id", submit.RequestID)

	// Polling: wait out the long schedule against the archive tier.
	e.emit(gen, key, StatePolling)
	for _, delay := range LongSchedule {
		if err := e.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
		if !e.owns(gen) {
			return Result{}, ErrSuperseded
		}

		segments, found, err := e.archive.Read(ctx, episodeID)
		if err != nil {
			return e.fail(gen, key, err)
		}
		if found {
			result, _, err := e.commit(key, episodeID, language, gen, segments, SourceArchive)
			return result, err
		}
	}

	// Schedule exhausted: one direct read against the authoritative store.
	segments, found, err = e.backend.GetTranscript(ctx, episodeID, language)
	if err == nil && found {
		result, _, err := e.commit(key, episodeID, language, gen, segments, SourceStore)
		return result, err
	}

	return e.fail(gen, key, errors.TranscriptTimeout("generation did not produce a transcript within the polling window"))
}

// begin registers a new load attempt and returns its generation token.
// Registering supersedes whatever load was active before.
func (e *Engine) begin(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.activeKey = key
	e.activeGen = e.generation
	return e.generation
}

// owns reports whether gen is still the engine's active load.
func (e *Engine) owns(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeGen == gen
}

// emit notifies the state observer if the load still owns the engine.
func (e *Engine) emit(gen uint64, key string, s State) {
	if e.onState == nil || !e.owns(gen) {
		return
	}
	e.onState(key, s)
}

// commit backfills the device cache and memoizes the result.
func (e *Engine) commit(key, episodeID, language string, gen uint64, segments []domain.Segment, source string) (Result, bool, error) {
	if !e.owns(gen) {
		return Result{}, false, ErrSuperseded
	}
	e.cache.PutTranscript(episodeID, language, segments)
	result, _, err := e.finish(key, gen, segments, source)
	return result, err == nil, err
}

// finish memoizes a ready result without touching the device cache.
func (e *Engine) finish(key string, gen uint64, segments []domain.Segment, source string) (Result, bool, error) {
	e.mu.Lock()
	if e.activeGen != gen {
		e.mu.Unlock()
		return Result{}, false, ErrSuperseded
	}
	e.ready[key] = segments
	e.mu.Unlock()

	e.emit(gen, key, StateReady)
	return Result{Segments: segments, Source: source}, true, nil
}

// fail reports a classified failure.
func (e *Engine) fail(gen uint64, key string, err error) (Result, error) {
	if !e.owns(gen) {
		return Result{}, ErrSuperseded
	}
	e.emit(gen, key, StateFailed)
	e.logger.Warn("transcript load failed", "key", key, "error", err)
	return Result{}, err
}

// failGeneric reports a generic generation failure. Outside production it
// degrades to the placeholder transcript so the UI stays exercisable.
func (e *Engine) failGeneric(gen uint64, key string, err error) (Result, error) {
	if !e.owns(gen) {
		return Result{}, ErrSuperseded
	}
	if !e.production {
		e.logger.Warn("generation failed, serving placeholder transcript", "key", key, "error", err)
		e.emit(gen, key, StateReady)
		return Result{Segments: placeholderSegments(), Source: SourcePlaceholder, Placeholder: true}, nil
	}
	return e.fail(gen, key, err)
}

// forgetEpisode drops session memoization for every language of an episode.
func (e *Engine) forgetEpisode(episodeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prefix := episodeID + ":"
	for key := range e.ready {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(e.ready, key)
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
