// Package watcher provides the filesystem side of dama's value observers.
//
// A Watcher fans fsnotify events out to per-path subscriptions. It can follow
// directory trees, hold events back until a path goes quiet, and replace its
// backend after errors. After a replacement every subscription receives a
// Resync event. Observe binds a Watcher to a control: each content
// modification under the watched path re-derives the control's value and
// publishes it to a sink.
//
// Delivery is best-effort. Treat a callback as "something changed, re-query"
// rather than rely on exact event ordering.
package watcher
