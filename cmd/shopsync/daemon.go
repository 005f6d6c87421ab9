package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benyxel/shopsync/internal/cart"
	"github.com/benyxel/shopsync/internal/catalog"
	"github.com/benyxel/shopsync/internal/config"
	"github.com/benyxel/shopsync/internal/events"
	"github.com/benyxel/shopsync/internal/favorites"
	"github.com/benyxel/shopsync/internal/journal"
	"github.com/benyxel/shopsync/internal/metrics"
	"github.com/benyxel/shopsync/internal/retry"
	"github.com/benyxel/shopsync/internal/storage"
	"github.com/benyxel/shopsync/internal/syncer"
	"github.com/benyxel/shopsync/internal/telemetry"
)

// runDaemon wires the full engine: shared storage, catalog snapshot, stores,
// cross-context synchronizer, and the optional journal, telemetry and
// metrics endpoints. It runs until SIGINT or SIGTERM.
func runDaemon(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := storage.NewFileKV(cfg.StateDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	bus := events.NewBus()
	defer bus.Close()

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var promRec *metrics.PrometheusRecorder
	if cfg.Metrics.Listen != "" {
		promRec = metrics.NewPrometheusRecorder(nil)
		rec = promRec
	}

	holder := catalog.NewHolder()
	if cfg.Catalog.URL != "" {
		client, err := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout)
		if err != nil {
			return err
		}
		policy := retry.NewPolicy(retry.BackoffLinear, 500*time.Millisecond, 5*time.Second, 2)
		var snap *catalog.Snapshot
		err = policy.Do(ctx, func(ctx context.Context) error {
			var loadErr error
			snap, loadErr = client.Load(ctx)
			return loadErr
		})
		if err != nil {
			slog.Warn("Catalog unavailable, starting with an empty catalog", "error", err)
			snap = catalog.EmptySnapshot()
		}
		holder.Set(snap)
	} else {
		slog.Warn("No catalog URL configured, cart additions will be rejected")
	}
	rec.SetCatalogProducts(holder.Current().Len())

	var sink cart.MutationSink
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			slog.Warn("Mutation journal unavailable", "error", err)
		} else {
			defer j.Close()
			sink = j
		}
	}

	persister := storage.NewPersister(kv, bus, rec)
	cartStore := cart.NewStore(holder, persister,
		cart.WithRecorder(rec), cart.WithMutationSink(sink))
	favStore := favorites.NewStore(persister,
		favorites.WithRecorder(rec), favorites.WithMutationSink(sink))
	cartStore.Rehydrate(kv)
	favStore.Rehydrate(kv)

	sync := syncer.New(kv, bus, []syncer.Target{cartStore, favStore}, syncer.Options{
		Interval: cfg.Sync.Interval,
		Debounce: cfg.Sync.Debounce,
		WatchDir: kv.Dir(),
		Recorder: rec,
	})
	if err := sync.Start(ctx); err != nil {
		return err
	}
	defer sync.Stop()

	if cfg.Telemetry.Enabled {
		pub, err := telemetry.NewPublisher(cfg.Telemetry)
		if err != nil {
			slog.Warn("Telemetry unavailable", "error", err)
		} else {
			defer pub.Close()
			ch, unsubscribe := bus.Subscribe(16)
			defer unsubscribe()
			go func() {
				for change := range ch {
					count := cartStore.Count()
					if change.Key == storage.KeyFavorites {
						count = favStore.Count()
					}
					pub.PublishChange(change.Key, count)
				}
			}()
		}
	}

	if promRec != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promRec.HTTPHandler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("Metrics endpoint listening", "addr", cfg.Metrics.Listen)
	}

	slog.Info("shopsync daemon running",
		"state_dir", cfg.StateDir,
		"catalog_products", holder.Current().Len(),
		"cart_items", cartStore.Count())

	<-ctx.Done()
	slog.Info("Shutting down")
	return nil
}
