// Package download fetches episode audio into a local directory.
//
// A batch first runs preflight checks on the target directory, then holds an
// advisory lock on <dir>/.pullapod.lock so two runs never write the same
// directory at once. Each file streams to a uniquely named .part file and is
// renamed into place only when complete. MP3 files are then tagged with ID3v2
// frames, and every finished download is recorded in the history store.
package download
