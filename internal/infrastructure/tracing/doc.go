// Package tracing gives every HTTP request and WebSocket message a trace id.
//
// A span is opened per request by HTTPMiddleware, carried in the request
// context, and submitted to the Tracer when the handler returns. The Tracer
// logs completed spans from a single collector goroutine so request handling
// never blocks on logging; when the buffer is full the span is dropped.
//
// Propagation uses the X-Trace-ID and X-Span-ID headers. A caller that sends
// X-Trace-ID sees the same id echoed back, which lets the desktop UI
// correlate its own logs with ours.
package tracing
