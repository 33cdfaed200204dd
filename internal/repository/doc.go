// Package repository defines snapshot persistence for netcanvas.
//
// A snapshot is a named copy of the full node and edge collections. Stores
// append on Save and never deduplicate by name; Replace is the explicit
// overwrite path. Listing is in insertion order.
//
// # Payload Format
//
// Both backends store the graph as a single blob: the JSON encoding of the
// nodes and edges, compressed with snappy. Name, timestamp and counts live in
// indexed columns so listings never decode the blob.
//
// # Implementations
//
// The sqlite subpackage is the default store, using modernc.org/sqlite in WAL
// mode. The postgres subpackage provides the same contract over a pgx pool.
//
// # Errors
//
// Missing snapshots yield domain.ErrSnapshotNotFound. Every failure of the
// storage medium is wrapped in *domain.StorageError and matches
// domain.ErrStorageIO, so callers can tell "try again" apart from "gone".
package repository
