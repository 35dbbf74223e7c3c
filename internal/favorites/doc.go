// Package favorites persists the user's saved podcast feeds.
//
// The list lives in a single JSON document (favorites.json) that is read and
// rewritten whole on every mutation. Writes are serialized across processes
// with a sibling lock file created exclusively, and land via write-to-temp
// plus rename so readers never observe a partial file. Loads never lock.
//
// A corrupt document is copied to a timestamped backup before the load fails
// with a recoverable StoreError; `pullapod favorite clear --force` resets the
// file through Service.Reset.
//
// Store owns the file protocol. Service layers the favorites operations (add
// with dedupe, fuzzy matching, remove, clear, list, rename) on top of it and
// re-loads the document on every call.
package favorites
