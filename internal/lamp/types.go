package lamp

import (
	"fmt"
	"time"
)

// State is the on/off state of a lamp.
type State string

// Valid lamp states.
const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// IsValid returns true if the state is one of the two recognised values.
func (s State) IsValid() bool {
	return s == StateOn || s == StateOff
}

// Dim level bounds.
const (
	MinDimLevel = 0
	MaxDimLevel = 100
)

// Lamp represents one physical lighting device.
//
// JSON field names follow the device wire protocol (gw_id, node_id,
// lamp_state, ...) so that API responses and MQTT payloads agree with
// what the gateways speak.
type Lamp struct {
	// GatewayID identifies the owning gateway. Required, not unique alone.
	GatewayID string `json:"gw_id"`

	// NodeID identifies the device within its gateway. Required and
	// globally unique: at most one lamp record per node id.
	NodeID string `json:"node_id"`

	// State is ON or OFF. Defaults to OFF on creation.
	State State `json:"lamp_state"`

	// DimLevel is the brightness in [0,100]. Defaults to 0.
	DimLevel float64 `json:"lamp_dim"`

	// Lux is the latest illuminance sensor reading. Defaults to 0.
	Lux float64 `json:"lux"`

	// CurrentA is the latest current draw reading in amperes. Defaults to 0.
	CurrentA float64 `json:"current_a"`

	// Latitude/Longitude optionally place the lamp geographically.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Timestamps. UpdatedAt is refreshed on every mutating save and is
	// never earlier than CreatedAt.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ControlRequest is a state-change request for one lamp.
//
// All mutable attributes are pointers so that "omitted" is distinct
// from a supplied zero value: lamp_dim:0 or lamp_state:"OFF" must still
// overwrite the stored value, while an absent field leaves it alone.
type ControlRequest struct {
	GatewayID string   `json:"gw_id"`
	NodeID    string   `json:"node_id"`
	State     *State   `json:"lamp_state,omitempty"`
	DimLevel  *float64 `json:"lamp_dim,omitempty"`
	Lux       *float64 `json:"lux,omitempty"`
	CurrentA  *float64 `json:"current_a,omitempty"`
}

// Validate checks identifiers and value ranges.
// An empty request body (no state, dim, lux, or current) is valid: the
// service treats it as an idempotent ping that republishes current state.
func (r *ControlRequest) Validate() error {
	if r.GatewayID == "" || r.NodeID == "" {
		return fmt.Errorf("%w: gw_id and node_id are required", ErrInvalidRequest)
	}
	if r.State != nil && !r.State.IsValid() {
		return fmt.Errorf("%w: lamp_state must be %q or %q", ErrInvalidRequest, StateOn, StateOff)
	}
	if r.DimLevel != nil && (*r.DimLevel < MinDimLevel || *r.DimLevel > MaxDimLevel) {
		return fmt.Errorf("%w: lamp_dim must be between %d and %d", ErrInvalidRequest, MinDimLevel, MaxDimLevel)
	}
	return nil
}

// Caller identifies the authenticated originator of a request, for the
// activity trail.
type Caller struct {
	// ActorID is the stable identity of the authenticated caller.
	ActorID string

	// Origin is the caller's network address.
	Origin string
}
