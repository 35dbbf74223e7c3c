// Package history records completed episode downloads in a SQLite database
// under the data directory.
//
// The download command consults it to skip episodes already fetched, and the
// "history" command family lists or clears it. The schema is created from
// embedded, versioned migrations applied inside a single transaction.
package history
