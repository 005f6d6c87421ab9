package main

import (
	"fmt"

	"github.com/benyxel/shopsync/internal/cart"
	"github.com/benyxel/shopsync/internal/catalog"
	"github.com/benyxel/shopsync/internal/config"
	"github.com/benyxel/shopsync/internal/favorites"
	"github.com/benyxel/shopsync/internal/storage"
)

// runClear removes the durable cart entry (and optionally favorites) so
// every context converges to empty on its next reconcile.
func runClear(cfg *config.Config, clearFavorites bool) error {
	kv, err := storage.NewFileKV(cfg.StateDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	persister := storage.NewPersister(kv, nil, nil)

	if err := cart.NewStore(catalog.EmptySnapshot(), persister).Clear(); err != nil {
		return err
	}
	fmt.Println("cart entry cleared")

	if clearFavorites {
		if err := favorites.NewStore(persister).Clear(); err != nil {
			return err
		}
		fmt.Println("favorites entry cleared")
	}
	return nil
}
