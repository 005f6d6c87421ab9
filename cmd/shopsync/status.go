package main

import (
	"context"
	"log/slog"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/benyxel/shopsync/internal/cart"
	"github.com/benyxel/shopsync/internal/catalog"
	"github.com/benyxel/shopsync/internal/config"
	"github.com/benyxel/shopsync/internal/favorites"
	"github.com/benyxel/shopsync/internal/storage"
)

// runStatus reads the shared entries and prints the derived totals. The
// catalog is fetched so the monetary amount can be joined; when it is
// unavailable the amount degrades to zero with unresolved lines skipped.
func runStatus(cfg *config.Config) error {
	kv, err := storage.NewFileKV(cfg.StateDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	snap := catalog.EmptySnapshot()
	if cfg.Catalog.URL != "" {
		client, err := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout)
		if err != nil {
			return err
		}
		loaded, err := client.Load(context.Background())
		if err != nil {
			slog.Warn("Catalog unavailable, amounts will exclude all lines", "error", err)
		}
		snap = loaded
	}

	persister := storage.NewPersister(kv, nil, nil)
	cartStore := cart.NewStore(snap, persister)
	favStore := favorites.NewStore(persister)
	cartStore.Rehydrate(kv)
	favStore.Rehydrate(kv)

	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		unit = currency.USD
	}

	p := message.NewPrinter(language.English)
	p.Printf("cart: %d item(s) across %d line(s), total %v\n",
		cartStore.Count(), cartStore.Snapshot().Lines(), currency.Symbol(unit.Amount(cartStore.Amount())))
	p.Printf("favorites: %d product(s)\n", favStore.Count())
	return nil
}
