// Command medterm looks up medical terminology across public sources.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/medterm/internal/adapters/driving/cli"
	"github.com/custodia-labs/medterm/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)

	// cobra has already reported the error
	if err := cli.Execute(ctx, bootstrap); err != nil {
		stop()
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func() error, error) {
	a, err := app.New(ctx, app.Options{
		ConfigDir: opts.ConfigDir,
		DataDir:   opts.DataDir,
	})
	if err != nil {
		return nil, nil, err
	}

	return &cli.Services{
		Lookup:   a.Lookup,
		Keywords: a.Keywords,
		Seed:     a.Seed,
		Settings: a.SettingsService,
		Metrics:  a.Metrics,
		Server:   a.Settings.Server,
	}, a.Close, nil
}
