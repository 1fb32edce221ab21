package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/orvull/omnisia-admin-console/internal/console"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/notify"
)

func setupCmd(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		return errors.New("setup: expected status or init")
	}
	switch args[0] {
	case "status":
		needs, err := app.Setup.NeedsSetup(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("needsSetup: %t\n", needs)
		return nil
	case "init":
		return initSetup(ctx, app, args[1:])
	}
	return fmt.Errorf("setup: unknown subcommand %q", args[0])
}

// initSetup reads the wizard payload as JSON from -file ("-" is stdin).
func initSetup(ctx context.Context, app *console.App, args []string) error {
	fs := flag.NewFlagSet("setup init", flag.ExitOnError)
	file := fs.String("file", "-", "JSON payload with company, role and admin fields")
	fs.Parse(args)

	if !app.Setup.CanEnter(ctx) {
		app.Toasts.Show("Setup is already completed", notify.Info, notify.DefaultDuration)
		return nil
	}

	var r io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	var p models.SetupInitializePayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("setup: decode payload: %w", err)
	}
	res, err := app.Setup.Initialize(ctx, p)
	if err != nil {
		return err
	}
	msg := res.Message
	if msg == "" {
		msg = "Setup completed"
	}
	app.Toasts.Show(msg, notify.Success, notify.DefaultDuration)
	return nil
}
