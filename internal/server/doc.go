// Package server hosts the HTTP bus transport for pkgbrokerd:
// internal/httpapi's control-surface and transaction routes, reachable
// under /api/v1.
//
// The server supports two modes of operation, following the teacher's
// own server package: development (plain HTTP) and production (HTTPS
// with a self-signed certificate generated at startup).
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│  Production Mode (TLS)          Development Mode              │
//	│  ┌─────────────────────┐       ┌─────────────────────┐        │
//	│  │ HTTPS :port         │       │ HTTP :port          │        │
//	│  │ Self-signed cert    │       │ No TLS              │        │
//	│  └─────────────────────┘       └─────────────────────┘        │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ginzap.Ginzap (request logging) + ginzap.RecoveryWithZap      │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Router (/api/v1)                        │
//	│  internal/httpapi.Register                                    │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Lifecycle
//
//	srv, err := server.New(cfg.Server, func(group *gin.RouterGroup) {
//	    httpapi.Register(group, h)
//	})
//	go srv.Start(ctx)
//	...
//	srv.Stop(ctx)
//
// Start blocks until Stop is called or the listener errors; Stop
// performs a graceful shutdown, waiting for in-flight requests.
//
// Unlike the teacher's server, this one serves no static assets or SPA
// fallback: the control and transaction surfaces are the entire
// product (§2 Non-goals rule out any bundled UI).
package server
