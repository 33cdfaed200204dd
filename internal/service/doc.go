// Package service implements the interaction controller for the topology editor.
//
// Editor turns pointer gestures and toolbar commands into graph mutations. It
// owns one graph.Model per session and coordinates the collision settle pass,
// the layout commands, the device candidate list and the snapshot store.
//
// # Gesture states
//
// An editing session is always in exactly one of Idle, Dragging, Connecting or
// EdgeSelected. Gestures issued in the wrong state fail with
// domain.ErrInvalidState and leave the canvas unchanged.
//
// # Event System
//
// Every accepted mutation is published on an EventBus. The HTTP layer forwards
// the bus to connected clients over Server-Sent Events.
package service
