// Package rssfeed reads podcast RSS feeds for direct downloads.
//
// Parsing goes through gofeed, which handles RSS, Atom, and JSON Feed along
// with the iTunes extensions podcasts rely on. Only items carrying an
// enclosure become episodes; Select narrows them for the download command.
package rssfeed
