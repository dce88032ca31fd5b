// Package httpapi renders the control surface and the transaction
// object (§4.7, §4.8) as JSON-over-HTTP handlers for internal/server to
// mount under /api/v1. It is the direct descendant of the teacher's
// internal/handlers: a thin Handler wrapping the services it fronts,
// one gin.Context-taking method per bus operation, following the same
// "parse params, call the service, c.JSON the result" shape as
// handlers.GetVMs.
//
// Every client-visible role method completes by event stream rather
// than return value (§2 Non-goals), so the transaction routes split in
// two: Start (POST, returns immediately once the transaction leaves
// NEW or fails validation/authorization) and Signals (GET, a
// server-sent-events stream of every backend.Event the transaction
// forwards, terminated by a Finished event). There is exactly one
// Start route, parameterized by :role in the path, mirroring
// transaction.Transaction.Start's own role-agnostic signature instead
// of one hand-written method per role.
package httpapi
