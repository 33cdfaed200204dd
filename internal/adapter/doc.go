// Package adapter pulls device records from the external inventory API and
// turns them into candidate nodes for the topology canvas.
//
// # Inventory Client
//
// InventoryClient performs an authenticated GET against the inventory
// endpoint. The response may be a bare JSON array or an object wrapping the
// array under "value". Timestamps are accepted as RFC 3339 strings or epoch
// milliseconds. Any transport, auth or decode failure is reported as
// domain.ErrSyncFailure.
//
// # Syncer
//
// Syncer owns the current candidate list. Refreshes run on demand, in the
// background, or on a polling interval. Every refresh is numbered and a result
// is applied only when no newer refresh has already been applied, so a slow
// response never overwrites fresher data. A failed refresh empties the list
// and records the error; the canvas stays editable either way.
//
// Syncer never touches the graph. Candidates are placed on the canvas by the
// editor when the operator picks one.
package adapter
