// Package driving defines the interfaces through which the outside
// world calls INTO the core: ingestion, change detection and search.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI and the corpus watcher depend on these interfaces; core
// services implement them.
package driving
