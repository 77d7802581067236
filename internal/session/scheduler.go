package session

import (
	"context"
	"sync"
	"time"

	"github.com/AnyUserName/pixedit/internal/edits"
	"github.com/AnyUserName/pixedit/internal/executor"
)

// Runner is the pipeline surface the scheduler drives. *executor.Executor
// satisfies it; tests substitute slow or failing runners.
type Runner interface {
	Execute(ctx context.Context, src []byte, e edits.ImageEdits) (*executor.Result, error)
}

// Scheduler debounces pipeline execution for a session and suppresses
// stale results. Every Schedule call bumps a monotonic generation; a
// completion handler applies its result only if its generation is still
// the current one, so a slow earlier invocation can never overwrite a
// faster later one.
type Scheduler struct {
	sess    *Session
	run     Runner
	timeout time.Duration

	// Debounce intervals; zero values fall back to the classifier's
	// defaults.
	liveDelay time.Duration
	slowDelay time.Duration

	// onDone, if set, observes every applied (non-stale) completion.
	onDone func(State, error)

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewScheduler binds a scheduler to a session and runner. timeout bounds
// each pipeline invocation.
func NewScheduler(sess *Session, run Runner, timeout time.Duration) *Scheduler {
	return &Scheduler{
		sess:      sess,
		run:       run,
		timeout:   timeout,
		liveDelay: edits.LiveDebounce,
		slowDelay: edits.SlowDebounce,
	}
}

// SetDebounce overrides the live/slow debounce intervals.
func (s *Scheduler) SetDebounce(live, slow time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveDelay, s.slowDelay = live, slow
}

// OnDone registers a completion observer.
func (s *Scheduler) OnDone(fn func(State, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = fn
}

// Schedule queues pipeline execution for the given descriptor after its
// debounce interval. A newer Schedule before the interval elapses cancels
// the pending one and restarts the clock.
func (s *Scheduler) Schedule(e edits.ImageEdits) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen

	if s.timer != nil {
		s.timer.Stop()
	}

	delay := s.slowDelay
	if edits.IsLiveOnly(e) {
		delay = s.liveDelay
	}

	snapshot := e.Clone()
	s.timer = time.AfterFunc(delay, func() {
		s.execute(gen, snapshot)
	})
}

// Flush runs the given descriptor immediately at a fresh generation,
// bypassing the debounce. Used by save/download paths that need an
// authoritative result now.
func (s *Scheduler) Flush(e edits.ImageEdits) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.execute(gen, e.Clone())
}

func (s *Scheduler) execute(gen uint64, e edits.ImageEdits) {
	base := s.sess.State().Base

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.run.Execute(ctx, base.Bytes, e)

	s.mu.Lock()
	stale := gen != s.gen
	done := s.onDone
	s.mu.Unlock()
	if stale {
		// A newer descriptor superseded this invocation; discard.
		return
	}

	if err != nil {
		// Failure must never lose the ability to keep editing: fall
		// back to the unmodified base rather than a blank state.
		s.sess.SetProcessed(base)
	} else {
		s.sess.SetProcessed(NewRef(res.Bytes, res.MIME))
	}

	if done != nil {
		done(s.sess.State(), err)
	}
}

// Stop cancels any pending scheduled execution and invalidates in-flight
// results.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
