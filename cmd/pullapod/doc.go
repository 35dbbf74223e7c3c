// Package main hosts the pullapod CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, then
// hands work to the internal packages: favorites for the saved feed list,
// podcastindex for discovery, recent for the batched episode fan-out, and
// download plus history for fetching audio. Commands stay thin and render
// either tables or JSON (--json).
package main
