package table

import (
	"errors"
	"fmt"
	"log/slog"
)

type Action string

const (
	Edit    Action = "edit"
	Details Action = "details"
	Delete  Action = "delete"
)

var ErrUnknownAction = errors.New("table: unknown row action")

type ActionItem struct {
	Key   Action
	Label string
}

func DefaultActions() []ActionItem {
	return []ActionItem{
		{Key: Edit, Label: "Edit"},
		{Key: Details, Label: "Details"},
		{Key: Delete, Label: "Delete"},
	}
}

type Handler[T Entity] func(row T) error

// Actions routes row action invocations to screen handlers.
type Actions[T Entity] struct {
	handlers map[Action]Handler[T]
	items    func(row T) []ActionItem
	log      *slog.Logger
}

func NewActions[T Entity](log *slog.Logger) *Actions[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Actions[T]{handlers: make(map[Action]Handler[T]), log: log}
}

// On registers h for action, replacing any previous handler.
func (a *Actions[T]) On(action Action, h Handler[T]) *Actions[T] {
	a.handlers[action] = h
	return a
}

// WithItems overrides the per-row menu.
func (a *Actions[T]) WithItems(fn func(row T) []ActionItem) *Actions[T] {
	a.items = fn
	return a
}

func (a *Actions[T]) Items(row T) []ActionItem {
	if a.items != nil {
		return a.items(row)
	}
	return DefaultActions()
}

func (a *Actions[T]) Invoke(action Action, row T) error {
	h, ok := a.handlers[action]
	if !ok {
		a.log.Warn("unknown row action", "action", action, "row", row.RowID())
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return h(row)
}
