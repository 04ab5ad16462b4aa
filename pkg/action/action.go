// Package action dispatches the row and bulk actions a widget declares.
// Actions run before the widget fetches rows so their side effects are
// visible in the same response.
package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/predicate"
)

var (
	// ErrUnknownAction is returned when the requested action key is not declared.
	ErrUnknownAction = errors.New("action: unknown action")
	// ErrNotAllowed is returned when the action predicate rejects the active filters.
	ErrNotAllowed = errors.New("action: not allowed for active filters")
	// ErrDuplicateAction is returned when two actions share a key.
	ErrDuplicateAction = errors.New("action: duplicate key")
)

// Handler performs an action on the resolved records. A map result is merged
// into the outcome; any other result is discarded.
type Handler func(ctx context.Context, records []model.Record) (any, error)

// Mode selects how a bulk handler is invoked.
type Mode string

const (
	// ModeSingle invokes the handler once per selected id.
	ModeSingle Mode = "single"
	// ModeBatch invokes the handler once with every selected record.
	ModeBatch Mode = "batch"
)

// Action is a row-level action.
//
// Link is a pongo2 template rendered against the raw record without HTML
// escaping. Values that need URL encoding use the urlencode filter, as in
// "/search?q={{ name|urlencode }}".
type Action struct {
	Key     string
	Label   string
	Link    string
	Handler Handler
	Visible predicate.Predicate
	Confirm string

	link *pongo2.Template
}

// BulkAction applies to a selection of rows.
type BulkAction struct {
	Action
	Mode        Mode
	UpdateTable *bool
}

// Refetch reports whether the widget should re-read rows after the action.
func (b BulkAction) Refetch() bool {
	return b.UpdateTable == nil || *b.UpdateTable
}

// RecordError ties a handler failure to the record that caused it.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.ID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func (a *Action) compile() error {
	a.Key = strings.TrimSpace(a.Key)
	if a.Key == "" {
		return errors.New("action: key is required")
	}
	if a.Label == "" {
		a.Label = model.DefaultLabeler(a.Key)
	}
	if a.Link == "" && a.Handler == nil {
		return fmt.Errorf("action: %s needs a link or a handler", a.Key)
	}
	if a.Link != "" {
		tpl, err := pongo2.FromString("{% autoescape off %}" + a.Link + "{% endautoescape %}")
		if err != nil {
			return fmt.Errorf("action: %s: parse link template: %w", a.Key, err)
		}
		a.link = tpl
	}
	return nil
}

// RenderLink renders the link template against record.
func (a Action) RenderLink(record model.Record) (string, error) {
	if a.link == nil {
		if a.Link == "" {
			return "", fmt.Errorf("action: %s has no link", a.Key)
		}
		if err := a.compile(); err != nil {
			return "", err
		}
	}
	out, err := a.link.Execute(pongo2.Context(record))
	if err != nil {
		return "", fmt.Errorf("action: %s: render link: %w", a.Key, err)
	}
	return out, nil
}

// Summary describes an action to renderers.
type Summary struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Confirm string `json:"confirm,omitempty"`
	Bulk    bool   `json:"bulk"`
	Link    bool   `json:"link"`
	Mode    Mode   `json:"mode,omitempty"`
}

func (a Action) summary() Summary {
	return Summary{Key: a.Key, Label: a.Label, Confirm: a.Confirm, Link: a.Link != ""}
}
