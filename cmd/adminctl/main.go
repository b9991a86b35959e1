package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	apiclient "atelier/internal/client/api"
	"atelier/internal/client/cli"
	"atelier/internal/client/session"
	"atelier/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "adminctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.New()

	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	persisted, err := session.NewFileStore(filepath.Join(configDir, "atelier"))
	if err != nil {
		return err
	}

	store := session.NewStore(persisted, log)

	baseURL := os.Getenv("ATELIER_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	api := apiclient.New(baseURL, func() string {
		if sess := store.Read(); sess != nil {
			return sess.AccessToken
		}
		return ""
	})

	restorer := session.NewRestorer(store, api, log)
	app := cli.NewApp(api, store, os.Stdin, os.Stdout)

	cli.Run(ctx, app, restorer, os.Stdin)
	return nil
}
