// Package sqlitec provides a lightweight wrapper for the SQLite C library.
// It allows direct interaction with SQLite's low-level API.
//
// Every wrapper type owns exactly one native handle: a Conn owns a sqlite3*
// and a Stmt owns a sqlite3_stmt*. Releasing a wrapper (Close, Finalize)
// frees the handle once and clears it, so releasing twice is a no-op and
// using a released wrapper returns ErrClosed.
//
// A Conn and all objects created from it (statements, queries, batches,
// transactions) must not be used concurrently from multiple goroutines,
// with the exception of Conn.Interrupt. Separate connections may be used
// concurrently.
//
// Callbacks (busy handler, hooks, authorizer, SQL functions) run while
// SQLite is in the middle of a C call. They must not use the connection that
// invoked them.
//
// The package links against the system SQLite library (libsqlite3).
//
//   - https://www.sqlite.org/cintro.html
//   - https://www.sqlite.org/c3ref/intro.html
package sqlitec
