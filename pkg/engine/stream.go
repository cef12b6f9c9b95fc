package engine

import (
	"github.com/google/uuid"

	"github.com/lattice3d/assetstream/internal/logger"
	"github.com/lattice3d/assetstream/pkg/asset"
)

// ============================================================================
// Streaming Subscriptions
// ============================================================================

// Stream subscribes to a key's status transitions and returns the
// best-known state right now plus a subscription id for Unsubscribe.
// If the key is already resident the returned state carries the payload
// and no further callbacks fire until the status changes again.
//
// Callbacks run synchronously on the goroutine that caused the
// transition, under the engine lock: they must be fast and must not call
// back into the engine.
func (e *Engine) Stream(key string, cb StreamCallback) (StreamState, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.currentStateLocked(key)
	if cb == nil {
		return state, ""
	}

	id := uuid.NewString()
	if e.subs[key] == nil {
		e.subs[key] = make(map[string]StreamCallback)
	}
	e.subs[key][id] = cb
	return state, id
}

// Unsubscribe removes a Stream subscription. Unknown ids are a no-op.
func (e *Engine) Unsubscribe(key, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if subs, ok := e.subs[key]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(e.subs, key)
		}
	}
}

// currentStateLocked assembles the immediate StreamState for a key.
// Caller must hold e.mu.
func (e *Engine) currentStateLocked(key string) StreamState {
	status := e.statusLocked(key)
	state := StreamState{Status: status, Progress: e.progressLocked(key)}
	if entry, ok := e.cache[key]; ok {
		state.Data = entry.Payload
	}
	return state
}

// notifyLocked pushes the key's current state to its subscribers. A
// panicking callback is dropped from the subscription set; one broken
// observer must not mute the rest. Caller must hold e.mu.
func (e *Engine) notifyLocked(key string) {
	subs, ok := e.subs[key]
	if !ok || len(subs) == 0 {
		return
	}

	status := e.statusLocked(key)
	update := StreamUpdate{
		Key:      key,
		Status:   status,
		Progress: e.progressLocked(key),
	}
	if entry, ok := e.cache[key]; ok {
		update.Data = entry.Payload
	}
	if status == asset.StatusError {
		update.Err = e.lastErr[key]
	}

	for id, cb := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					delete(subs, id)
					logger.Error("stream callback panicked",
						logger.KeyAsset, key,
						logger.KeyError, r,
					)
				}
			}()
			cb(update)
		}()
	}
}
