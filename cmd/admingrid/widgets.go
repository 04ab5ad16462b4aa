package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-admingrid/pkg/config"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/source/sqlsource"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

// openDB opens the SQLite database named by dsn.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dsn, err)
	}
	return db, nil
}

// buildWidgets binds every definition in fsys to its table in db.
func buildWidgets(ctx context.Context, fsys fs.FS, db *sql.DB, log *zap.Logger) ([]*widget.Widget, error) {
	defs, err := config.LoadDir(fsys)
	if err != nil {
		return nil, err
	}
	widgets := make([]*widget.Widget, 0, len(defs))
	for _, def := range defs {
		w, err := buildWidget(ctx, fsys, def, db, log)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}
	return widgets, nil
}

func buildWidget(ctx context.Context, fsys fs.FS, def config.Definition, db *sql.DB, log *zap.Logger) (*widget.Widget, error) {
	log = log.With(zap.String("widget", def.ID))
	options := []sqlsource.Option{sqlsource.WithLogger(log)}
	if len(def.Columns) > 0 {
		options = append(options, sqlsource.WithColumns(def.Columns...))
	}
	src, err := sqlsource.New(ctx, db, def.TableName(), options...)
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", def.ID, err)
	}
	b := widget.New(def.ID, src, widget.WithLogger(log), widget.WithDebug(verbose))
	if err := def.Apply(b); err != nil {
		return nil, err
	}
	if err := def.Seed(ctx, fsys, b); err != nil {
		return nil, err
	}
	w, err := b.Build()
	if err != nil {
		return nil, err
	}
	log.Debug("widget ready", zap.String("kind", string(w.Kind())), zap.Int("fields", len(w.Fields())))
	return w, nil
}

func findWidget(widgets []*widget.Widget, id string) (*widget.Widget, error) {
	for _, w := range widgets {
		if w.ID() == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("unknown widget %q", id)
}

// parseParams turns name=value pairs into request params namespaced for
// widgetID. Names already carrying the prefix are kept as is.
func parseParams(widgetID string, pairs []string) (request.Params, error) {
	params := request.Params{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q, expected name=value", pair)
		}
		if !strings.HasPrefix(name, widgetID+"_") {
			name = request.Key(widgetID, name)
		}
		params.Add(name, value)
	}
	return params, nil
}
