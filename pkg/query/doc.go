// Package query holds the mutable query value handed to record sources and
// the Executor that fills it from declared filters, request ordering and
// pagination before running it.
package query
