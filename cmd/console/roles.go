package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
	"github.com/orvull/omnisia-admin-console/internal/console"
	"github.com/orvull/omnisia-admin-console/internal/i18n"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/notify"
	"github.com/orvull/omnisia-admin-console/internal/query"
	"github.com/orvull/omnisia-admin-console/internal/roles"
	"github.com/orvull/omnisia-admin-console/internal/table"
)

func rolesCmd(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		return errors.New("roles: expected list, create or browse")
	}
	switch args[0] {
	case "list":
		return listRoles(ctx, app, args[1:])
	case "create":
		return createRole(ctx, app, args[1:])
	case "browse":
		return browseRoles(ctx, app, args[1:], os.Stdin, os.Stdout)
	}
	return fmt.Errorf("roles: unknown subcommand %q", args[0])
}

type listFlags struct {
	page   int
	limit  int
	search string
	sort   string
	order  string
	static bool
}

func parseListFlags(name string, args []string, def int) listFlags {
	var lf listFlags
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.IntVar(&lf.page, "page", 1, "page number")
	fs.IntVar(&lf.limit, "limit", def, "rows per page")
	fs.StringVar(&lf.search, "search", "", "search term")
	fs.StringVar(&lf.sort, "sort", "", "sort column")
	fs.StringVar(&lf.order, "order", "asc", "asc or desc")
	fs.BoolVar(&lf.static, "static", false, "use the fixed column set")
	fs.Parse(args)
	return lf
}

func newRolesView(app *console.App, lf listFlags) (*query.Controller[models.Role], *table.Grid[models.Role]) {
	ctrl := app.Roles.Controller(app.Locale, roles.ListOptions{Limit: lf.limit, Static: lf.static})
	ctrl.SetPage(lf.page)
	ctrl.SetSearch(lf.search)
	s := table.Sort{Key: lf.sort, Dir: table.SortDir(lf.order)}
	if s.Active() {
		ctrl.SetSort(s)
	}

	actions := table.NewActions[models.Role](app.Log).
		On(table.Details, func(r models.Role) error {
			for _, k := range r.Keys() {
				v, _ := r.Field(k)
				fmt.Printf("%-14s %s\n", k, table.FormatCell(k, v, app.Locale.Current()))
			}
			return nil
		}).
		WithItems(func(r models.Role) []table.ActionItem {
			if r.IsSystemRole {
				return []table.ActionItem{{Key: table.Details, Label: "Details"}}
			}
			return table.DefaultActions()
		})
	grid := table.NewGrid(true, i18n.Tag(app.Locale.Current()), actions)
	grid.SetSort(ctrl.Key().Sort())
	return ctrl, grid
}

func show(w io.Writer, app *console.App, grid *table.Grid[models.Role], snap query.Snapshot[models.Role]) error {
	grid.SetColumns(snap.Columns)
	grid.SetData(snap.Rows, snap.Meta)
	grid.SetLocale(i18n.Tag(app.Locale.Current()))
	return table.Render(w, grid, app.Locale.Current())
}

func listRoles(ctx context.Context, app *console.App, args []string) error {
	lf := parseListFlags("roles list", args, int(app.Config.PageSize))
	ctrl, grid := newRolesView(app, lf)
	snap, err := ctrl.Load(ctx)
	if err != nil {
		return err
	}
	ctrl.WaitPrefetch()
	return show(os.Stdout, app, grid, snap)
}

func createRole(ctx context.Context, app *console.App, args []string) error {
	fs := flag.NewFlagSet("roles create", flag.ExitOnError)
	name := fs.String("name", "", "role name, stored UPPER_SNAKE")
	desc := fs.String("description", "", "description")
	system := fs.Bool("system", false, "mark as system role")
	fs.Parse(args)

	role, err := app.Roles.Create(ctx, models.CreateRolePayload{Name: *name, Description: *desc, IsSystemRole: *system})
	if err != nil {
		return err
	}
	app.Toasts.Show(fmt.Sprintf("Role %s created", role.Name), notify.Success, notify.DefaultDuration)
	return nil
}

const browseHelp = `  /TEXT   search (applied after a pause)    !      search now
  n / p   next / previous page              g N    go to page N
  s KEY   sort by column                    c KEY  toggle column (c* shows all)
  x ID    toggle row selection (xa: all)    d ID   row details
  q       quit
`

// browseRoles is the interactive listing. Search input goes through the
// debouncer; its emissions arrive on terms and are handled by this loop
// so the grid is only touched from one goroutine.
func browseRoles(ctx context.Context, app *console.App, args []string, in io.Reader, out io.Writer) error {
	lf := parseListFlags("roles browse", args, int(app.Config.PageSize))
	ctrl, grid := newRolesView(app, lf)

	terms := make(chan string, 1)
	deb := query.NewDebouncer(app.Config.SearchDebounce, func(term string) {
		offerLatest(terms, term)
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()

	reload := func() error {
		snap, err := ctrl.Load(ctx)
		if err != nil {
			app.Toasts.Show(apierr.Message(err), notify.Error, notify.DefaultDuration)
			return nil
		}
		return show(out, app, grid, snap)
	}

	fmt.Fprint(out, browseHelp)
	if err := reload(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case term := <-terms:
			ctrl.SetSearch(term)
			if err := reload(); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok || line == "q" {
				return nil
			}
			changed, err := browseCommand(app, ctrl, grid, deb, line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if changed {
				if err := reload(); err != nil {
					return err
				}
			}
		}
	}
}

// offerLatest puts v on ch without blocking, dropping a term still
// waiting there. The browse loop flushes the debouncer itself, so a
// blocking send would wait on its own reader.
func offerLatest(ch chan string, v string) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// browseCommand applies one input line and reports whether the listing
// must be reloaded.
func browseCommand(app *console.App, ctrl *query.Controller[models.Role], grid *table.Grid[models.Role], deb *query.Debouncer, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch {
	case strings.HasPrefix(line, "/"):
		deb.Input(strings.TrimPrefix(line, "/"))
		return false, nil
	case line == "!":
		deb.Flush()
		return false, nil
	case cmd == "n":
		ctrl.Next()
		return true, nil
	case cmd == "p":
		ctrl.Prev()
		return true, nil
	case cmd == "g":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("g: %w", err)
		}
		page, moved := grid.GoTo(n)
		ctrl.SetPage(page)
		return moved, nil
	case cmd == "s":
		s, ok := grid.ToggleSort(arg)
		if !ok {
			return false, fmt.Errorf("column %q is not sortable", arg)
		}
		ctrl.SetSort(s)
		return true, nil
	case cmd == "c*":
		grid.ShowAll()
		return true, nil
	case cmd == "c":
		grid.ToggleColumn(arg)
		return true, nil
	case cmd == "xa":
		grid.ToggleAll()
		return true, nil
	case cmd == "x":
		grid.ToggleRow(arg)
		return true, nil
	case cmd == "d":
		return false, grid.Invoke(table.Details, arg)
	}
	return false, fmt.Errorf("unknown command %q", line)
}
