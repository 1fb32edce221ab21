// Package roles lists and creates admin roles.
package roles

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/orvull/omnisia-admin-console/internal/forms"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/query"
	"github.com/orvull/omnisia-admin-console/internal/table"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

const (
	Resource     = "roles"
	DefaultLimit = 25
)

type Service struct {
	api   *transport.Client
	cache *query.Cache[models.Role]
	log   *slog.Logger
}

func New(api *transport.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		api:   api,
		cache: query.NewCache[models.Role](query.DefaultFreshFor, query.DefaultEvictAt),
		log:   log,
	}
}

// Fetch loads one page of roles for key.
func (s *Service) Fetch(ctx context.Context, key query.Key) (models.Page[models.Role], error) {
	var page models.Page[models.Role]
	if err := s.api.Get(ctx, Resource, key.Params(), &page); err != nil {
		return models.Page[models.Role]{}, fmt.Errorf("list roles: %w", err)
	}
	return page, nil
}

type ListOptions struct {
	Limit int
	// Static renders the fixed role columns instead of asking the
	// backend for its column list.
	Static bool
}

// Controller returns a listing controller sharing the service cache.
// Search terms are sent upper-snake, as role names are stored.
func (s *Service) Controller(locale query.LocaleSource, opts ListOptions) *query.Controller[models.Role] {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	qo := query.Options{
		Resource:       Resource,
		Limit:          opts.Limit,
		IncludeColumns: !opts.Static,
		Normalize:      query.UpperSnake,
	}
	if opts.Static {
		qo.Columns = Columns()
	}
	return query.NewController(s.Fetch, s.cache, locale, s.log, qo)
}

// Create formats and validates the payload before posting it. Every
// cached roles page is invalidated on success.
func (s *Service) Create(ctx context.Context, p models.CreateRolePayload) (models.Role, error) {
	p.Name = FormatName(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if err := forms.Validate(p); err != nil {
		return models.Role{}, err
	}
	var role models.Role
	if err := s.api.Post(ctx, Resource, p, &role); err != nil {
		return models.Role{}, fmt.Errorf("create role: %w", err)
	}
	s.Invalidate()
	s.log.Info("role created", "id", role.ID, "name", role.Name)
	return role, nil
}

func (s *Service) Invalidate() {
	s.cache.Invalidate(Resource)
}

// WatchLocale invalidates cached roles whenever the locale changes, so
// localized column labels are fetched again.
func (s *Service) WatchLocale(l interface{ OnChange(func(string)) }) {
	l.OnChange(func(lang string) {
		s.log.Debug("locale changed, invalidating roles", "lang", lang)
		s.Invalidate()
	})
}

var spaces = regexp.MustCompile(`\s+`)

// FormatName applies the role naming convention while the name is typed:
// leading blanks dropped, upper-cased, blank runs turned into "_".
func FormatName(v string) string {
	v = strings.TrimLeftFunc(v, unicode.IsSpace)
	return spaces.ReplaceAllString(strings.ToUpper(v), "_")
}

// Columns is the fixed role column set.
func Columns() table.ColumnSet {
	return table.StaticColumns(
		table.Column{Key: "name", Label: "Name", Sortable: true},
		table.Column{Key: "description", Label: "Description", Sortable: true},
		table.Column{Key: "isSystemRole", Label: "System", Sortable: true, Type: models.ColumnBool},
		table.Column{Key: "createdAt", Label: "Created", Sortable: true, Type: models.ColumnDate},
	)
}
