// Package queue implements the offline mutation queue.
//
// Writes attempted while the device is offline are captured as named
// mutations and persisted durably. When connectivity returns, the queue
// drains: each mutation's handler is looked up by name in the registry and
// invoked with the original arguments. A mutation leaves the queue when its
// handler succeeds, when its attempt count reaches the ceiling, or when no
// handler is registered under its name.
//
// # Drain exclusion
//
// At most one drain pass runs per queue instance at a time. A drain
// triggered while another is in flight returns immediately as a no-op
// rather than queuing or blocking; the connectivity-change trigger firing
// during the app-start drain is the expected case.
//
// # Unregistered handlers
//
// A queued mutation whose handler name has no registration is dropped with
// a distinct log outcome and without touching its attempt counter. The
// alternatives are worse: retaining it forever leaks storage across
// releases that rename handlers, and counting it as a failed attempt spends
// the ceiling on a deploy-ordering problem.
//
// # Durability
//
// The queue persists as a single JSON array under one key in the kv store.
// The array layout (id, handler, args, attempts, created_at) matches the
// blob written by earlier app versions, so an existing persisted queue
// survives upgrades. Every persist is a full replacement write; a drain
// pass that fails in the persistence layer leaves the previously persisted
// list unchanged.
package queue
