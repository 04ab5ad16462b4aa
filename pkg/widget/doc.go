// Package widget assembles the catalog, query adapter, action dispatcher,
// transformation pipeline and track assignment into a servable unit.
//
// A Builder collects configuration and is validated once by Build. The
// resulting Widget is immutable and safe for concurrent use: every call to
// Serve derives its own request context.
//
//	b := widget.New("appointments", source, widget.WithKind(widget.KindSchedule))
//	b.Field("starts_at").Type(model.FieldTypeDateTime).Sortable()
//	b.Schedule("starts_at", schedule.FieldKey("room"), schedule.FieldInterval("starts_at", "ends_at"))
//	w, err := b.Build()
//	resp, err := w.Serve(ctx, r.URL.Query())
package widget
