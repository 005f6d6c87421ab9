// Package syncer is the reconciliation layer keeping the in-memory stores
// convergent with the shared durable storage, across this context and every
// other context on the machine.
//
// Two distinct channels funnel into one reconcile entry point: the local
// change bus (mutations made in this context) and the filesystem watcher
// (writes observed in the shared storage, made by other contexts). Because
// event delivery is not reliable on every platform, three safety nets
// re-read as well: visibility regain, focus regain, and a periodic backstop
// while visible.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/benyxel/shopsync/internal/events"
	"github.com/benyxel/shopsync/internal/logfields"
	"github.com/benyxel/shopsync/internal/metrics"
	"github.com/benyxel/shopsync/internal/storage"
)

// Reconcile trigger labels.
const (
	TriggerLocal      = "local"
	TriggerWatch      = "watch"
	TriggerVisibility = "visibility"
	TriggerFocus      = "focus"
	TriggerBackstop   = "backstop"
)

// Target is a store the syncer keeps convergent with its durable entry.
type Target interface {
	// Key names the durable entry the target reconciles against.
	Key() string
	// ApplyDurable re-applies a freshly read entry, replacing in-memory
	// state only when it structurally differs. Reports whether it changed.
	ApplyDurable(data []byte, found bool) bool
}

// Options tunes the syncer.
type Options struct {
	// Interval is the periodic reconcile backstop; zero disables it.
	Interval time.Duration
	// Debounce coalesces bursts of filesystem notifications.
	Debounce time.Duration
	// WatchDir is the shared state directory to watch for writes made by
	// other contexts; empty disables the watcher (in-memory storage).
	WatchDir string
	// Recorder receives reconcile metrics; nil means none.
	Recorder metrics.Recorder
}

// Syncer re-reads the shared storage on any change signal and reconciles
// the registered targets. Consistency is last-write-wins at the granularity
// of a full-state overwrite; there is no merge.
type Syncer struct {
	kv       storage.KV
	bus      *events.Bus
	targets  map[string]Target
	rec      metrics.Recorder
	interval time.Duration
	debounce time.Duration
	watchDir string

	visible atomic.Bool

	scheduler   gocron.Scheduler
	watcher     *watcher
	unsubscribe func()
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	started     bool
}

// New wires a syncer over the shared storage. The bus carries local change
// notifications; targets are reconciled per entry key.
func New(kv storage.KV, bus *events.Bus, targets []Target, opts Options) *Syncer {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	byKey := make(map[string]Target, len(targets))
	for _, t := range targets {
		byKey[t.Key()] = t
	}

	s := &Syncer{
		kv:       kv,
		bus:      bus,
		targets:  byKey,
		rec:      rec,
		interval: opts.Interval,
		debounce: opts.Debounce,
		watchDir: opts.WatchDir,
		stopCh:   make(chan struct{}),
	}
	s.visible.Store(true)
	return s
}

// Start begins listening on all channels. Stop releases everything. When
// Start fails partway it releases what it already took, so the caller owes
// no Stop after an error.
func (s *Syncer) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	s.started = true

	if s.bus != nil {
		ch, unsubscribe := s.bus.Subscribe(16)
		s.unsubscribe = unsubscribe
		s.wg.Add(1)
		go s.busLoop(ctx, ch)
	}

	if s.watchDir != "" {
		w, err := newWatcher(s, s.watchDir)
		if err != nil {
			s.Stop()
			return err
		}
		s.watcher = w
		s.wg.Add(1)
		go w.run(ctx)
	}

	if s.interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			s.Stop()
			return err
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(s.backstopTick),
			gocron.WithName("reconcile-backstop"),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			s.Stop()
			return err
		}
		s.scheduler = scheduler
		scheduler.Start()
	}

	slog.Info("Cross-context synchronizer started",
		slog.String("watch_dir", s.watchDir),
		slog.Duration("interval", s.interval))
	return nil
}

// Stop shuts down the watcher, scheduler and bus subscription.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if s.watcher != nil {
			s.watcher.close()
		}
		if s.scheduler != nil {
			if err := s.scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}
		s.wg.Wait()
	})
}

// NotifyVisible records the client's visibility. Regaining visibility
// triggers an immediate reconcile; the periodic backstop runs only while
// visible.
func (s *Syncer) NotifyVisible(visible bool) {
	was := s.visible.Swap(visible)
	if visible && !was {
		s.Reconcile(TriggerVisibility)
	}
}

// NotifyFocused triggers a reconcile when the window regains input focus.
func (s *Syncer) NotifyFocused() {
	s.Reconcile(TriggerFocus)
}

// Reconcile re-reads the named entries (all registered entries when none
// are given) and re-applies them to their targets.
func (s *Syncer) Reconcile(trigger string, keys ...string) {
	if len(keys) == 0 {
		keys = make([]string, 0, len(s.targets))
		for key := range s.targets {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		target, ok := s.targets[key]
		if !ok {
			continue
		}
		data, found, err := s.kv.Get(key)
		if err != nil {
			slog.Warn("Reconcile read failed",
				logfields.EntryKey(key), logfields.Trigger(trigger), logfields.Error(err))
			s.rec.IncReconcile(trigger, metrics.ReconcileReadError)
			continue
		}

		outcome := metrics.ReconcileUnchanged
		if target.ApplyDurable(data, found) {
			outcome = metrics.ReconcileApplied
			slog.Debug("Reconciled state from storage",
				logfields.EntryKey(key), logfields.Trigger(trigger))
		}
		s.rec.IncReconcile(trigger, outcome)
	}
}

func (s *Syncer) busLoop(ctx context.Context, ch <-chan events.Change) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			s.Reconcile(TriggerLocal, c.Key)
		}
	}
}

func (s *Syncer) backstopTick() {
	if !s.visible.Load() {
		return
	}
	s.Reconcile(TriggerBackstop)
}
