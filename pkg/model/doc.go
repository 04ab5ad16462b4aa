// Package model defines the field catalog shared by every widget. A Catalog
// holds FieldDescriptors in declaration order; it is seeded from a rule source
// at construction, adjusted through FieldBuilder chains during configuration,
// and frozen before the first fetch so a response cycle always sees the same
// set of fields. Keys containing a dot (for example `doctor.name`) denote a
// structural path that the transform pipeline resolves against nested data.
package model
