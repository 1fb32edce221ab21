// Package i18n tracks the console locale, persisted under the "lang" key.
package i18n

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"github.com/orvull/omnisia-admin-console/internal/kv"
)

const (
	StorageKey = "lang"
	Default    = "es"
)

var (
	supported = []language.Tag{language.Spanish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Match maps any BCP 47 tag or Accept-Language value onto a supported
// base language ("es" or "en").
func Match(lang string) string {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Tag returns the language.Tag of a matched locale.
func Tag(lang string) language.Tag {
	return language.Make(Match(lang))
}

type Locale struct {
	mu        sync.RWMutex
	store     kv.Store
	current   string
	listeners []func(lang string)
}

// New reads the persisted locale, falling back to def.
func New(store kv.Store, def string) *Locale {
	l := &Locale{store: store, current: Match(def)}
	if v, err := store.Get(StorageKey); err == nil && v != "" {
		l.current = Match(v)
	}
	return l
}

func (l *Locale) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Set persists lang and notifies listeners when the locale changed.
func (l *Locale) Set(lang string) error {
	next := Match(lang)
	l.mu.Lock()
	if next == l.current {
		l.mu.Unlock()
		return nil
	}
	l.current = next
	listeners := append([]func(string){}, l.listeners...)
	l.mu.Unlock()

	var err error
	if serr := l.store.Set(StorageKey, next, 0); serr != nil && !errors.Is(serr, kv.ErrNotFound) {
		err = fmt.Errorf("i18n: persist locale: %w", serr)
	}
	for _, fn := range listeners {
		fn(next)
	}
	return err
}

// OnChange registers fn to run after every locale change.
func (l *Locale) OnChange(fn func(lang string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}
