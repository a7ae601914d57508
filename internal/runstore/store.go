// Package runstore holds the mutable execution state of one dispatch
// session: per-node status, error and build artifact handle. It is created
// at the start of a session, written only by the dispatcher's workers,
// read-only afterward, and discarded with the session; it is never a
// persistent global.
//
// sync.Map fits the access pattern: the key space (all plan node IDs) is
// known up front while values change frequently from many workers.
package runstore

import "sync"

// Status is the lifecycle state of one plan node during dispatch.
type Status int

const (
	// StatusPending means the node has not started yet.
	StatusPending Status = iota
	// StatusRunning means a worker is executing the node.
	StatusRunning
	// StatusDone means the node finished successfully.
	StatusDone
	// StatusFailed means the node itself failed (build error, test
	// assertion failure).
	StatusFailed
	// StatusBlocked means the node never ran because its build unit
	// failed.
	StatusBlocked
	// StatusSkipped means the node never ran because the session was
	// canceled.
	StatusSkipped
)

// String returns the reporting name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusBlocked:
		return "blocked"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Store is the in-memory state store for one dispatch session.
type Store struct {
	statuses  sync.Map // node ID -> Status
	errors    sync.Map // node ID -> error
	artifacts sync.Map // build ID -> artifact handle (string)
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetStatus records the node's current status.
func (s *Store) SetStatus(id string, status Status) {
	s.statuses.Store(id, status)
}

// Status returns the node's current status, StatusPending when unset.
func (s *Store) Status(id string) Status {
	if v, ok := s.statuses.Load(id); ok {
		return v.(Status)
	}
	return StatusPending
}

// SetError records why the node failed or was blocked.
func (s *Store) SetError(id string, err error) {
	s.errors.Store(id, err)
}

// Error returns the node's recorded error, nil when it has none.
func (s *Store) Error(id string) error {
	if v, ok := s.errors.Load(id); ok {
		return v.(error)
	}
	return nil
}

// SetArtifact records the artifact handle of a completed build. It is
// written exactly once per build; the handle is immutable afterward.
func (s *Store) SetArtifact(buildID, handle string) {
	s.artifacts.Store(buildID, handle)
}

// Artifact returns the build's artifact handle, empty when the build has
// not completed.
func (s *Store) Artifact(buildID string) string {
	if v, ok := s.artifacts.Load(buildID); ok {
		return v.(string)
	}
	return ""
}
