// Package server implements "reqcheck serve", an HTTP front end to one
// [checker.Engine].
//
// Routes:
//
//	POST /v1/check          {"filename": "pkg/mod.py", "source": "..."} -> findings
//	GET  /v1/requirements   declaration source, first-party modules, requirements
//	POST /v1/reset          forget the project's declarations
//	GET  /healthz           liveness and build version
//	GET  /metrics           Prometheus exposition
//
// Parsed imports are kept in an LRU keyed by the content hash of the
// source, so re-checking an unchanged file skips the tokenizer. A
// [Watcher] resets the engine when a declaration file changes on disk.
package server
