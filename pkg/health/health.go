// Package health tracks portal readiness and serves HTTP health checks.
// The portal is not ready until the remembered-session restore has
// resolved; until then routing decisions would flap between loading and
// login views.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// State constants for the readiness state machine.
const (
	stateRestoring int32 = iota
	stateReady
	stateDraining
)

// Checker tracks the readiness state of the portal.
// It is safe for concurrent use.
type Checker struct {
	state atomic.Int32
}

// NewChecker creates a Checker in the Restoring state.
func NewChecker() *Checker {
	return &Checker{}
}

// SetReady transitions to the Ready state. Called once the session
// restore has resolved.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetDraining transitions to the Draining state during shutdown.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady returns true when the state is Ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state as a human-readable string.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "restoring"
	}
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status string `json:"status"`
}

// LivenessHandler returns an http.HandlerFunc that always responds 200 OK.
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler returns an http.HandlerFunc that responds 200 when
// ready and 503 while restoring or draining.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if c.IsReady() {
			writeJSON(w, http.StatusOK, healthResponse{Status: c.State()})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: c.State()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
