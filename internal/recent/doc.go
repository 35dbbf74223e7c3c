// Package recent gathers the latest episodes across the saved favorites.
//
// Feeds are processed in sequential batches of at most MaxConcurrent
// requests, with a short pause between batches to stay under the index's
// rate limits. Each feed's outcome lands in its own slot, so results keep the
// input order and one failing feed never hides another's episodes.
package recent
