// Package request derives the per-request widget state (ordering, paging,
// selection, filters, pending action, period) from an opaque parameter map.
// Every key is namespaced by the widget id so several widgets can share one
// page without stepping on each other's parameters.
package request
