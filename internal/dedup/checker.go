package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// minTitleLength is the minimum draft title length (in runes) worth a store
// round trip. Shorter titles cannot clear the title gate meaningfully.
const minTitleLength = 3

// CandidateSource fetches recent event records from a named partition of the
// event store. Implementations decide ordering; the checker only requests a
// record-count cap and does all matching client-side.
type CandidateSource interface {
	ListRecent(ctx context.Context, partition domain.Partition, limit int) ([]domain.Event, error)
}

// CheckerConfig holds the configuration for a duplicate Checker. The Enabled
// flag is passed explicitly here rather than read from global state, so
// independent checker instances cannot interfere with each other.
type CheckerConfig struct {
	// Options are the scoring parameters passed through to FindSimilar.
	Options Options

	// DebounceDelay is how long a draft must stay unchanged before a check
	// runs. Defaults to 500ms when zero.
	DebounceDelay time.Duration

	// FetchLimit is the per-partition candidate record cap. Defaults to 100
	// when zero.
	FetchLimit int

	// Partitions is the list of store partitions to search. Defaults to the
	// three pipeline stages when empty.
	Partitions []domain.Partition

	// Enabled turns duplicate checking on. A disabled checker clears its
	// state on every update and never touches the store.
	Enabled bool
}

// Snapshot is the externally visible state of a Checker. An empty Duplicates
// slice is indistinguishable from "not yet checked" unless the caller also
// consults Checking.
type Snapshot struct {
	// Checking is true while a fetch-and-score cycle is in flight.
	Checking bool
	// Duplicates is the latest ranked result set.
	Duplicates []Match
	// Err is a non-fatal advisory error string; empty when the last check
	// succeeded. Duplicate warnings never block submission.
	Err string
}

// Checker bridges a live-editing event draft to FindSimilar without hammering
// the event store on every keystroke. Each Update cancels any pending check
// and schedules a new one after the debounce delay; completed checks publish
// their results only if no newer update superseded them ("last request wins",
// enforced with a monotonically increasing request token captured at schedule
// time and compared at completion time).
//
// One Checker serves one active form. Its only mutable state is the current
// snapshot and token, both guarded by the mutex.
type Checker struct {
	source CandidateSource
	cfg    CheckerConfig
	logger zerolog.Logger

	// baseCtx bounds the lifetime of in-flight store fetches.
	baseCtx context.Context

	mu     sync.Mutex
	token  uint64
	timer  *time.Timer
	state  Snapshot
	closed bool
}

// NewChecker creates a Checker backed by the given candidate source. The
// context bounds all store fetches the checker issues; cancelling it aborts
// in-flight work.
func NewChecker(ctx context.Context, source CandidateSource, cfg CheckerConfig, logger zerolog.Logger) *Checker {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 100
	}
	if len(cfg.Partitions) == 0 {
		cfg.Partitions = domain.DefaultPartitions
	}
	if cfg.Options == (Options{}) {
		cfg.Options = DefaultOptions()
	}

	return &Checker{
		source:  source,
		cfg:     cfg,
		logger:  logger.With().Str("component", "dedup_checker").Logger(),
		baseCtx: ctx,
	}
}

// Update notifies the checker that the draft changed. Any pending check is
// cancelled and a new one is scheduled after the debounce delay. Drafts with
// a missing or too-short title clear the current results without touching
// the store.
func (c *Checker) Update(draft domain.EventDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	// Superseding edits invalidate any scheduled or in-flight check.
	c.token++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	title := strings.TrimSpace(draft.Title)
	if !c.cfg.Enabled || utf8.RuneCountInString(title) < minTitleLength {
		c.state = Snapshot{}
		return
	}

	token := c.token
	c.timer = time.AfterFunc(c.cfg.DebounceDelay, func() {
		c.run(token, draft)
	})
}

// Snapshot returns the checker's current state. The returned value is a copy;
// callers must not rely on the Duplicates slice staying stable across checks.
func (c *Checker) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears the result state and cancels any pending check, as when the
// form is cleared after submission.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = Snapshot{}
}

// Close stops the checker. Pending and in-flight checks are discarded and
// further updates are ignored.
func (c *Checker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.token++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// run executes one fetch-and-score cycle for the given request token.
func (c *Checker) run(token uint64, draft domain.EventDraft) {
	c.mu.Lock()
	if c.closed || token != c.token {
		c.mu.Unlock()
		return
	}
	c.state.Checking = true
	c.mu.Unlock()

	snap := c.check(draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	// Drop stale completions: a newer update owns the state now.
	if c.closed || token != c.token {
		return
	}
	c.state = snap
}

// check fetches candidates from every configured partition and scores them.
// A single partition failure is logged and that partition's candidates are
// omitted; only a total inability to query, or an unexpected panic in
// scoring, surfaces as a snapshot error.
func (c *Checker) check(draft domain.EventDraft) (snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("duplicate check panicked")
			snap = Snapshot{Err: fmt.Sprintf("duplicate check failed: %v", r)}
		}
	}()

	var (
		candidates []domain.Event
		failed     int
		lastErr    error
	)

	for _, partition := range c.cfg.Partitions {
		records, err := c.source.ListRecent(c.baseCtx, partition, c.cfg.FetchLimit)
		if err != nil {
			failed++
			lastErr = err
			c.logger.Warn().
				Err(err).
				Str("partition", string(partition)).
				Msg("partition fetch failed, omitting its candidates")
			continue
		}
		candidates = append(candidates, records...)
	}

	if failed == len(c.cfg.Partitions) && failed > 0 {
		return Snapshot{Err: fmt.Sprintf("duplicate check unavailable: %v", lastErr)}
	}

	return Snapshot{Duplicates: FindSimilar(draft, candidates, c.cfg.Options)}
}
