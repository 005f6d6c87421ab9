package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/benyxel/shopsync/internal/config"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Daemon struct{} `cmd:"" help:"Run the cart/favorites synchronization daemon"`

	Status struct{} `cmd:"" help:"Print cart and favorites totals from the shared storage"`

	Clear struct {
		Favorites bool `help:"Also clear the favorites entry"`
	} `cmd:"" help:"Clear the durable cart entry"`

	Checkout struct{} `cmd:"" help:"Submit the current cart as an order"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "daemon":
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "status":
		if err := runStatus(cfg); err != nil {
			slog.Error("Status failed", "error", err)
			os.Exit(1)
		}
	case "clear":
		if err := runClear(cfg, CLI.Clear.Favorites); err != nil {
			slog.Error("Clear failed", "error", err)
			os.Exit(1)
		}
	case "checkout":
		if err := runCheckout(cfg); err != nil {
			slog.Error("Checkout failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}
