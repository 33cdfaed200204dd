// Package handler implements the HTTP API of the topology editor.
//
// EditorHandler maps REST routes onto service.Editor gestures and commands.
// Request bodies are validated with go-playground/validator before they reach
// the editor. Errors are returned as JSON with an {error, details} structure;
// domain sentinels map to status codes in statusFor.
//
// # Server-Sent Events
//
// The /events endpoint streams editor events so every open canvas follows
// changes made by other clients.
package handler
