// Package podcastindex is a small client for the Podcast Index REST API
// (https://podcastindex-org.github.io/docs-api/).
//
// Every request is signed with the account key and secret: the Authorization
// header carries hex(SHA-1(key + secret + unix time)) and X-Auth-Date the same
// unix time. Non-2xx responses surface as *APIError; lookups the index
// answers with an empty result return ErrNotFound. Classify maps errors to the
// coarse failure kinds the recent-episodes fan-out reports per feed.
package podcastindex
