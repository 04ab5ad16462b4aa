package model

import "errors"

var (
	// ErrCatalogFrozen is returned when a catalog is mutated after Freeze.
	ErrCatalogFrozen = errors.New("model: catalog is frozen")
	// ErrNoFieldSelected is returned by field-scoped configuration calls that
	// have no field to operate on.
	ErrNoFieldSelected = errors.New("model: no field selected")
	// ErrFieldNotFound is returned when a key is not part of the catalog.
	ErrFieldNotFound = errors.New("model: field not found")
)
