// Package types defines the value types shared by the table state engines:
// filter values and server filter expressions, sort state, page queries,
// the closed set of hub filter operators, storage configuration, and the
// sentinel errors returned by constructors across the module.
package types
