// Package http exposes the terminal registry and the workspace store as a
// JSON API for the desktop UI.
//
// Every error response has the shape {"error": "<message>"}. Status codes
// follow the error kind: unknown ids map to 404, duplicates to 409, invalid
// input to 400 and a registry without an event sink to 503. Messages keep
// the "not found" and "already exists" wording so callers can match on it.
package http
