// Package asset defines the shared vocabulary of the streaming engine:
// asset identities, entries, statuses, priorities, and the loader and
// disposer capability interfaces supplied by the embedding application.
//
// The engine never inspects asset payloads. A payload is an opaque handle
// (a decoded mesh, a GPU texture id, anything) produced by a Loader and
// released by a Disposer. The engine manages only identity, size
// accounting, priority, and lifecycle.
package asset

import (
	"context"
	"time"
)

// Type is a coarse asset type tag. It is informational: the engine treats
// all types identically, but logs and metrics are partitioned by it.
type Type string

const (
	TypeModel   Type = "model"
	TypeTexture Type = "texture"
	TypeHDRI    Type = "hdri"
	TypeAudio   Type = "audio"
)

// Status is the lifecycle state of an asset key.
//
// The transitions form a small state machine:
//
//	pending → loading → {ready | error}
//	ready → pooled (soft removal) → ready (pool retrieval)
//
// error is terminal until a fresh preload request restarts the key at
// pending. An unknown key reports pending.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
	StatusPooled  Status = "pooled"
)

// Priority orders preload requests. Lower values sort first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityIdle
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Result is what a Loader produces: the opaque payload handle and its
// actual size in bytes. The size feeds the memory ledger; it replaces the
// estimate carried by the preload request.
type Result struct {
	Payload any
	Size    uint64
}

// Loader fetches and materializes one asset. Implementations are supplied
// by the embedding application and are opaque to the engine.
//
// Load must honor ctx cancellation: the engine cancels in-flight loads on
// shutdown. A Loader must not touch engine state; it only produces a
// Result or an error.
type Loader interface {
	Load(ctx context.Context) (Result, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context) (Result, error)

func (f LoaderFunc) Load(ctx context.Context) (Result, error) {
	return f(ctx)
}

// Disposer releases the resources behind a payload handle (GPU buffers,
// pinned memory). Called exactly once per entry, on hard disposal.
type Disposer interface {
	Dispose(payload any)
}

// DisposerFunc adapts a plain function to the Disposer interface.
type DisposerFunc func(payload any)

func (f DisposerFunc) Dispose(payload any) {
	f(payload)
}

// Entry is one resident asset. An entry lives in exactly one of the active
// cache or the pool at any time, never both, never neither once created.
// Its payload is owned by whichever container holds it and is released
// only through the Disposer.
type Entry struct {
	Key      string
	Type     Type
	Size     uint64
	LastUsed time.Time
	Payload  any
	Disposer Disposer
	Chapter  string // optional group id, "" if ungrouped
	Pooled   bool
}

// Touch refreshes the last-used timestamp.
func (e *Entry) Touch(now time.Time) {
	e.LastUsed = now
}

// Dispose invokes the entry's disposer, if any. The caller is responsible
// for panic recovery: disposal callbacks come from the embedding
// application and must not take the engine down.
func (e *Entry) Dispose() {
	if e.Disposer != nil {
		e.Disposer.Dispose(e.Payload)
	}
	e.Payload = nil
}
