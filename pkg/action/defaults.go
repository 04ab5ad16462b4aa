package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
)

type sourceKey struct{}

// WithSource stores the widget source on ctx for handlers that need it.
func WithSource(ctx context.Context, source query.Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source stored by WithSource.
func SourceFrom(ctx context.Context) (query.Source, bool) {
	source, ok := ctx.Value(sourceKey{}).(query.Source)
	return source, ok && source != nil
}

// EditAction links every selected record to link, a template such as
// "/patients/{{ id }}/edit".
func EditAction(link string) Action {
	return Action{Key: "edit", Label: "Edit", Link: link}
}

// DeleteAction deletes the selected records one by one and stops at the
// first failure. Deleted records stay deleted and Processed counts them.
func DeleteAction() BulkAction {
	return BulkAction{
		Action: Action{
			Key:     "delete",
			Label:   "Delete",
			Confirm: "Delete the selected records?",
			Handler: deleteRecords,
		},
		Mode: ModeSingle,
	}
}

func deleteRecords(ctx context.Context, records []model.Record) (any, error) {
	source, ok := SourceFrom(ctx)
	if !ok {
		return nil, errors.New("action: delete: no source in context")
	}
	deleted := 0
	for _, record := range records {
		id := fmt.Sprint(record[query.IDKey])
		if err := source.Delete(ctx, id); err != nil {
			return map[string]any{
				"deleted":   deleted,
				"failed_id": id,
				"error":     err.Error(),
			}, &RecordError{ID: id, Err: err}
		}
		deleted++
	}
	return map[string]any{"deleted": deleted}, nil
}
