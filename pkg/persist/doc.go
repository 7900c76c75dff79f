// Package persist provides Value, a single get/set cell of table state whose
// storage location is chosen once at construction:
//
//	state           in-memory cell, reset whenever the owner is rebuilt
//	urlParams       named query parameters on a Location (see History)
//	localStorage    one JSON blob in a durable Storage
//	sessionStorage  one JSON blob in a Storage scoped to the current session
//	provider        caller-owned state reached through serialize/deserialize
//
// Only the selected backend does any work. Read failures (missing key,
// corrupt JSON, absent parameters) fall back to the declared default and are
// never returned to the caller.
//
// A URL parameter, storage key, or provider must not be shared by two live
// values. The package does not detect collisions; keep prefixes unique per
// table.
package persist
