package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benyxel/shopsync/internal/cart"
	"github.com/benyxel/shopsync/internal/catalog"
	"github.com/benyxel/shopsync/internal/checkout"
	"github.com/benyxel/shopsync/internal/config"
	"github.com/benyxel/shopsync/internal/storage"
)

// runCheckout rehydrates the cart from shared storage and posts it to the
// checkout API. Acceptance clears the durable cart entry, so every other
// context converges to empty on its next reconcile.
func runCheckout(cfg *config.Config) error {
	if cfg.Checkout.URL == "" {
		return fmt.Errorf("no checkout URL configured")
	}
	if cfg.Catalog.URL == "" {
		return fmt.Errorf("no catalog URL configured; orders need catalog prices")
	}

	kv, err := storage.NewFileKV(cfg.StateDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	client, err := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.Timeout)
	if err != nil {
		return err
	}
	snap, err := client.Load(context.Background())
	if err != nil {
		return err
	}

	persister := storage.NewPersister(kv, nil, nil)
	cartStore := cart.NewStore(snap, persister)
	cartStore.Rehydrate(kv)

	submitter := checkout.NewSubmitter(cfg.Checkout.URL, cfg.Currency, cartStore, snap, cfg.Checkout.Timeout)
	order, err := submitter.Submit(context.Background())
	if err != nil {
		return err
	}

	slog.Info("Order accepted", "order_id", order.ID, "lines", len(order.Lines), "total", order.Total)
	fmt.Printf("order %s accepted: %d line(s), total %.2f %s\n", order.ID, len(order.Lines), order.Total, order.Currency)
	return nil
}
