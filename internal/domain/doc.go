// Package domain defines the core domain types for the netcanvas topology editor.
//
// This package contains the entities and value objects the editor works with:
// nodes placed on the canvas, the typed edges drawn between their handles, the
// fixed connection-type catalog, device inventory records, and named snapshots.
//
// # Core Types
//
// Node represents a device box on the canvas (PC, switch, router, firewall, ...)
// with a position, a status, and an optional DeviceInfo payload for nodes that
// came from the device inventory.
//
// Edge represents a connection between two node handles with an immutable
// connection type and a free-form label.
//
// Snapshot is a named, persisted copy of the full node/edge set.
//
// # Connection Types
//
// ResolveConnectionType maps a ConnectionType to its rendering profile. The
// catalog is fixed; an unknown type is a data-integrity error.
//
// # Errors
//
// Operations report failures with the sentinel errors in errors.go, wrapped in
// OpError or StorageError so callers can match them with errors.Is.
//
// # Design Principles
//
// - Value types, copied in and out of the graph model
// - No database or external dependencies
// - Typed enumerations instead of open property bags
package domain
