// Package config loads declarative widget definitions from JSON or YAML files
// and applies them to widget builders.
//
//	id: appointments
//	kind: schedule
//	table: appointments
//	defaults: {order: starts_at, dir: asc, limit: 50}
//	schedule: {date: starts_at, resource: room, start: starts_at, end: ends_at}
//	fields:
//	  - {key: starts_at, type: datetime, format: "15:04", sortable: true}
//	  - {key: doctor.name, label: Doctor}
//	filters:
//	  - {name: room, field: room}
//	actions:
//	  - {key: edit, link: "/appointments/{{ id }}/edit"}
//	deleteAction: true
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-admingrid/pkg/action"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/predicate"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/rules/openapi"
	"github.com/goliatone/go-admingrid/pkg/schedule"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

// Definition declares one widget.
type Definition struct {
	ID           string       `json:"id" yaml:"id"`
	Kind         string       `json:"kind" yaml:"kind"`
	Table        string       `json:"table" yaml:"table"`
	Columns      []string     `json:"columns" yaml:"columns"`
	Search       []string     `json:"search" yaml:"search"`
	DateField    string       `json:"dateField" yaml:"dateField"`
	Defaults     Defaults     `json:"defaults" yaml:"defaults"`
	Fields       []Field      `json:"fields" yaml:"fields"`
	Filters      []Filter     `json:"filters" yaml:"filters"`
	Actions      []Action     `json:"actions" yaml:"actions"`
	DeleteAction bool         `json:"deleteAction" yaml:"deleteAction"`
	Schedule     *Schedule    `json:"schedule" yaml:"schedule"`
	Rules        *RulesSource `json:"rules" yaml:"rules"`

	// Source is the file the definition was read from.
	Source string `json:"-" yaml:"-"`
}

// Defaults mirrors request.Defaults.
type Defaults struct {
	Order    string `json:"order" yaml:"order"`
	Dir      string `json:"dir" yaml:"dir"`
	Limit    int    `json:"limit" yaml:"limit"`
	MaxLimit int    `json:"maxLimit" yaml:"maxLimit"`
}

// Field declares a catalog entry.
type Field struct {
	Key       string         `json:"key" yaml:"key"`
	Label     string         `json:"label" yaml:"label"`
	Type      string         `json:"type" yaml:"type"`
	Format    string         `json:"format" yaml:"format"`
	Options   []model.Option `json:"options" yaml:"options"`
	Sortable  bool           `json:"sortable" yaml:"sortable"`
	SortField string         `json:"sortField" yaml:"sortField"`
	Hidden    bool           `json:"hidden" yaml:"hidden"`
	Truncate  int            `json:"truncate" yaml:"truncate"`
	Suffix    string         `json:"suffix" yaml:"suffix"`
}

// Filter declares a named filter.
type Filter struct {
	Name     string         `json:"name" yaml:"name"`
	Label    string         `json:"label" yaml:"label"`
	Field    string         `json:"field" yaml:"field"`
	Operator string         `json:"operator" yaml:"operator"`
	Default  *string        `json:"default" yaml:"default"`
	Options  []model.Option `json:"options" yaml:"options"`
}

// Action declares a link action. Handler actions are registered in code.
type Action struct {
	Key     string `json:"key" yaml:"key"`
	Label   string `json:"label" yaml:"label"`
	Link    string `json:"link" yaml:"link"`
	Confirm string `json:"confirm" yaml:"confirm"`
	Visible string `json:"visible" yaml:"visible"`
}

// Schedule names the fields schedule widgets lay out.
type Schedule struct {
	Date     string `json:"date" yaml:"date"`
	Resource string `json:"resource" yaml:"resource"`
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end" yaml:"end"`
}

// RulesSource points at an OpenAPI document used to seed fields.
type RulesSource struct {
	OpenAPI string `json:"openapi" yaml:"openapi"`
	Scope   string `json:"scope" yaml:"scope"`
}

// Load reads and validates the definition at name.
func Load(fsys fs.FS, name string) (Definition, error) {
	if fsys == nil {
		return Definition{}, errors.New("config: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Definition{}, fmt.Errorf("config: read %s: %w", name, err)
	}
	def, err := Parse(data, name)
	if err != nil {
		return Definition{}, err
	}
	def.Source = name
	return def, nil
}

// LoadDir reads every definition file in fsys, sorted by id. Definition
// files are named *.widget.json, *.widget.yaml or *.widget.yml so API
// documents can live next to them.
func LoadDir(fsys fs.FS) ([]Definition, error) {
	if fsys == nil {
		return nil, errors.New("config: filesystem is required")
	}
	var defs []Definition
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(p) {
			return nil
		}
		def, err := Load(fsys, p)
		if err != nil {
			return err
		}
		if prev, dup := seen[def.ID]; dup {
			return fmt.Errorf("config: duplicate widget %q in %s and %s", def.ID, prev, p)
		}
		seen[def.ID] = p
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// Parse decodes a definition, trying JSON first and YAML second.
func Parse(data []byte, source string) (Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("config: %s is empty", source)
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		def = Definition{}
		if err := yaml.Unmarshal(data, &def); err != nil {
			return Definition{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return def, nil
}

// Validate checks the parts of a definition that do not need a builder.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("id is required")
	}
	if _, err := widget.ParseKind(d.Kind); err != nil {
		return err
	}
	for _, f := range d.Fields {
		if strings.TrimSpace(f.Key) == "" {
			return errors.New("field key is required")
		}
		if f.Type != "" {
			if _, err := model.ParseFieldType(f.Type); err != nil {
				return fmt.Errorf("field %s: %w", f.Key, err)
			}
		}
	}
	for _, f := range d.Filters {
		if f.Operator != "" {
			if _, err := query.ParseOperator(f.Operator); err != nil {
				return fmt.Errorf("filter %s: %w", f.Name, err)
			}
		}
	}
	if d.Schedule != nil && (d.Schedule.Resource == "" || d.Schedule.Start == "" || d.Schedule.End == "") {
		return errors.New("schedule needs resource, start and end fields")
	}
	return nil
}

// TableName returns the source table, defaulting to the widget id.
func (d Definition) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return d.ID
}

// Apply configures b from the definition.
func (d Definition) Apply(b *widget.Builder) error {
	if b == nil {
		return errors.New("config: builder is nil")
	}
	kind, err := widget.ParseKind(d.Kind)
	if err != nil {
		return err
	}
	b.SetKind(kind)
	if d.Defaults.Order != "" {
		b.Order(d.Defaults.Order, d.Defaults.Dir)
	}
	if d.Defaults.Limit > 0 {
		b.Limit(d.Defaults.Limit)
	}
	if d.Defaults.MaxLimit > 0 {
		b.MaxLimit(d.Defaults.MaxLimit)
	}
	if len(d.Search) > 0 {
		b.Search(d.Search...)
	}
	if d.DateField != "" {
		b.DateField(d.DateField)
	}

	for _, f := range d.Fields {
		if err := applyField(b, f); err != nil {
			return fmt.Errorf("config: %s: %w", d.ID, err)
		}
	}
	for _, f := range d.Filters {
		filter := query.Filter{Name: f.Name, Label: f.Label, Field: f.Field, Options: f.Options, Default: f.Default}
		if f.Operator != "" {
			op, err := query.ParseOperator(f.Operator)
			if err != nil {
				return fmt.Errorf("config: %s: filter %s: %w", d.ID, f.Name, err)
			}
			filter.Operator = op
		}
		b.Filter(filter)
	}
	for _, a := range d.Actions {
		act := action.Action{Key: a.Key, Label: a.Label, Link: a.Link, Confirm: a.Confirm}
		if a.Visible != "" {
			expr, err := predicate.Compile(a.Visible)
			if err != nil {
				return fmt.Errorf("config: %s: action %s: %w", d.ID, a.Key, err)
			}
			act.Visible = expr
		}
		b.Action(act)
	}
	if d.DeleteAction {
		b.BulkAction(action.DeleteAction())
	}
	if s := d.Schedule; s != nil {
		date := s.Date
		if date == "" {
			date = s.Start
		}
		b.Schedule(date, schedule.FieldKey(s.Resource), schedule.FieldInterval(s.Start, s.End))
	}
	return nil
}

func applyField(b *widget.Builder, f Field) error {
	fb := b.Field(f.Key)
	if f.Label != "" {
		fb.Label(f.Label)
	}
	if f.Type != "" {
		t, err := model.ParseFieldType(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Key, err)
		}
		fb.Type(t)
	}
	if f.Format != "" {
		fb.Format(f.Format)
	}
	if len(f.Options) > 0 {
		fb.Options(f.Options...)
	}
	if f.SortField != "" {
		fb.SortBy(f.SortField)
	} else if f.Sortable {
		fb.Sortable()
	}
	if f.Hidden {
		fb.Hide()
	}
	if f.Truncate > 0 {
		suffix := f.Suffix
		if suffix == "" {
			suffix = "..."
		}
		fb.Truncate(f.Truncate, suffix)
	}
	return fb.Done()
}

// Seed loads the referenced OpenAPI document from fsys and seeds b. It is a
// no-op when the definition declares no rules.
func (d Definition) Seed(ctx context.Context, fsys fs.FS, b *widget.Builder) error {
	if d.Rules == nil || d.Rules.OpenAPI == "" {
		return nil
	}
	name := d.Rules.OpenAPI
	if d.Source != "" && !path.IsAbs(name) {
		name = path.Join(path.Dir(d.Source), name)
	}
	src, err := openapi.LoadFS(ctx, fsys, name)
	if err != nil {
		return fmt.Errorf("config: %s: %w", d.ID, err)
	}
	scope := d.Rules.Scope
	if scope == "" {
		scope = d.ID
	}
	b.Seed(ctx, src, scope)
	return nil
}

func isDefinitionFile(p string) bool {
	base := strings.ToLower(path.Base(p))
	for _, ext := range []string{".widget.json", ".widget.yaml", ".widget.yml"} {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}
