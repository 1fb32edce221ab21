package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
	"github.com/orvull/omnisia-admin-console/internal/config"
	"github.com/orvull/omnisia-admin-console/internal/console"
	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/notify"
	"github.com/orvull/omnisia-admin-console/internal/session"
)

const usage = `usage: console <command> [flags]

commands:
  open                      print the route the console opens on
  login -u USER [-p PASS]   sign in (PASS defaults to $CONSOLE_PASSWORD)
  logout                    drop the stored session
  whoami                    show the signed-in user from the access token
  token                     print a valid access token, refreshing if needed
  roles list|create|browse  manage roles
  setup status|init         first-run wizard
  lang [es|en]              show or change the console language
`

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.Production())
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := console.Open(cfg, os.Stdout, logger, nil)
	if err != nil {
		slog.Error("failed to start console", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, app, os.Args[1], os.Args[2:]); err != nil {
		report(app, err)
		app.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, app *console.App, cmd string, args []string) error {
	switch cmd {
	case "open":
		fmt.Println(app.Setup.Landing(ctx, app.Session))
		return nil
	case "login":
		return loginCmd(ctx, app, args)
	case "logout":
		if err := app.Login.Logout(); err != nil {
			return err
		}
		fmt.Println(app.Route())
		return nil
	case "whoami":
		return whoami(app)
	case "token":
		tok, err := app.Tokens.Token()
		if err != nil {
			return err
		}
		fmt.Println(tok.AccessToken)
		return nil
	case "roles":
		return rolesCmd(ctx, app, args)
	case "setup":
		return setupCmd(ctx, app, args)
	case "lang":
		if len(args) > 0 {
			if err := app.Locale.Set(args[0]); err != nil {
				return err
			}
		}
		fmt.Println(app.Locale.Current())
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func loginCmd(ctx context.Context, app *console.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("u", "", "user name")
	pass := fs.String("p", os.Getenv("CONSOLE_PASSWORD"), "password")
	fs.Parse(args)

	u, err := app.Login.Login(ctx, models.LoginRequest{UserName: *user, Password: *pass})
	if err != nil {
		return err
	}
	app.Toasts.Show(fmt.Sprintf("Welcome, %s %s", u.FirstName, u.LastName), notify.Success, notify.DefaultDuration)
	return nil
}

func whoami(app *console.App) error {
	tok := app.Session.Access()
	if tok == "" {
		return errors.New("not signed in")
	}
	claims, err := session.Claims(tok)
	if err != nil {
		return err
	}
	exp, _ := claims.GetExpirationTime()
	fmt.Printf("user:    %v\nrole:    %v\n", claims["userName"], claims["role"])
	if exp != nil {
		state := "valid"
		if app.Session.IsExpired(tok) {
			state = "expired"
		}
		fmt.Printf("expires: %s (%s)\n", exp.Time.Format(time.RFC3339), state)
	}
	return nil
}

// report prints the error as a toast: validation failures field by
// field, everything else through the normalized message.
func report(app *console.App, err error) {
	if ve, ok := apierr.Validation(err); ok {
		for _, field := range slices.Sorted(maps.Keys(ve.Fields)) {
			for _, m := range ve.Fields[field] {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, m)
			}
		}
		app.Toasts.Show(ve.Fields.First(), notify.Error, notify.DefaultDuration)
		return
	}
	if errors.Is(err, session.ErrSessionExpired) {
		// the coordinator already told the user
		return
	}
	slog.Debug("command failed", "error", err)
	app.Toasts.Show(apierr.Message(err), notify.Error, notify.DefaultDuration)
}
