/*
Package monitoring provides metrics collection for the backend.

# Overview

Metrics are Prometheus collectors registered on a registry owned by each
Metrics value, so tests can build as many collectors as they like without
tripping duplicate registration.

# Features

- HTTP request metrics (latency, throughput, status)
- PTY session metrics (live sessions, spawns, bytes in/out, exits)
- Workspace store metrics (operation latency and errors)
- WebSocket metrics (connections, delivered and dropped events)
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "add_project")
	// ... perform operation ...
	timer.Stop("success")

All recording methods are safe to call on a nil *Metrics.
*/
package monitoring
