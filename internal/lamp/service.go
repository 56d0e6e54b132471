package lamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/luxgrid/luxgrid-core/internal/activity"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/logging"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/mqtt"
)

// commandQoS is the QoS level for lamp command publishes. Commands are
// fire-and-forget: the gateway reports actual state back out of band.
const commandQoS = 0

// Publisher sends lamp commands to the message broker.
// *mqtt.Client satisfies this.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ActivityRecorder appends entries to the activity trail.
// activity.Repository satisfies this.
type ActivityRecorder interface {
	Create(ctx context.Context, entry *activity.Entry) error
}

// Broadcaster pushes lamp events to connected live clients.
// The API websocket hub satisfies this. Optional.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// TelemetryWriter records lamp readings to the time-series store.
// *influxdb.Client satisfies this. Optional.
type TelemetryWriter interface {
	WriteLampTelemetry(gwID, nodeID, state string, dim, lux, currentA float64)
}

// Broadcast event names.
const (
	EventLampStateChanged = "lamp.state_changed"
	EventLampDeleted      = "lamp.deleted"
)

// commandPayload is the wire format published to lamp/control/<node_id>.
// Only state and dim travel to the device; sensor readings flow the
// other way.
type commandPayload struct {
	State    State   `json:"lamp_state"`
	DimLevel float64 `json:"lamp_dim"`
}

// Deps bundles the service dependencies.
type Deps struct {
	Repo      Repository
	Activity  ActivityRecorder
	Publisher Publisher
	Logger    *logging.Logger

	// Broadcaster and Telemetry are optional; nil disables them.
	Broadcaster Broadcaster
	Telemetry   TelemetryWriter
}

// Service orchestrates lamp operations: persistence, command publishing
// and activity recording.
type Service struct {
	repo        Repository
	activity    ActivityRecorder
	publisher   Publisher
	broadcaster Broadcaster
	telemetry   TelemetryWriter
	topics      mqtt.Topics
	logger      *logging.Logger
}

// NewService creates a lamp service from its dependencies.
func NewService(deps Deps) *Service {
	return &Service{
		repo:        deps.Repo,
		activity:    deps.Activity,
		publisher:   deps.Publisher,
		broadcaster: deps.Broadcaster,
		telemetry:   deps.Telemetry,
		logger:      deps.Logger.With("component", "lamp"),
	}
}

// Control applies a state-change request to one lamp.
//
// An unknown (gw_id, node_id) is created with defaults (OFF, dim 0)
// before the request fields are applied; a known lamp receives only the
// fields the request supplies, where a supplied zero value still
// overwrites. The persisted state is then published to the device's
// command topic and the action is recorded in the activity log.
//
// A publish failure is returned as an error, but the store write it
// follows is never rolled back: the returned lamp reflects what was
// persisted, and the activity entry is written either way.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - req: Identifiers plus optional state/dim/lux/current fields
//   - caller: Authenticated originator, for the activity trail
//
// Returns:
//   - *Lamp: The persisted lamp; non-nil even when the publish failed
//   - error: ErrInvalidRequest, ErrNodeIDConflict, or a store/publish/log failure
func (s *Service) Control(ctx context.Context, req ControlRequest, caller Caller) (*Lamp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lmp, err := s.repo.FindByKey(ctx, req.GatewayID, req.NodeID)
	switch {
	case errors.Is(err, ErrLampNotFound):
		lmp = &Lamp{
			GatewayID: req.GatewayID,
			NodeID:    req.NodeID,
			State:     StateOff,
		}
	case err != nil:
		return nil, fmt.Errorf("looking up lamp: %w", err)
	}

	applyRequest(lmp, req)

	if err := s.repo.Upsert(ctx, lmp); err != nil {
		return nil, fmt.Errorf("saving lamp: %w", err)
	}

	// Publish what was persisted, not what was requested: on a partial
	// update the device must receive the surviving values too.
	publishErr := s.publishCommand(lmp)
	if publishErr != nil {
		s.logger.Error("lamp command publish failed",
			"node_id", lmp.NodeID,
			"gw_id", lmp.GatewayID,
			"error", publishErr)
	}

	s.emitSideEffects(lmp)

	entry := &activity.Entry{
		ActorID:       caller.ActorID,
		Action:        controlAction(req),
		Details:       lampDetails(lmp),
		Source:        activity.SourceManual,
		OriginAddress: caller.Origin,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		return lmp, fmt.Errorf("recording activity: %w", err)
	}

	if publishErr != nil {
		return lmp, fmt.Errorf("publishing lamp command: %w", publishErr)
	}

	s.logger.Info("lamp controlled",
		"node_id", lmp.NodeID,
		"gw_id", lmp.GatewayID,
		"lamp_state", lmp.State,
		"lamp_dim", lmp.DimLevel,
		"actor_id", caller.ActorID)

	return lmp, nil
}

// Delete removes a lamp record and logs the deletion.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - gwID: Gateway identifier
//   - nodeID: Node identifier
//   - caller: Authenticated originator, for the activity trail
//
// Returns:
//   - *Lamp: The removed record
//   - error: ErrInvalidRequest, ErrLampNotFound, or a store/log failure
func (s *Service) Delete(ctx context.Context, gwID, nodeID string, caller Caller) (*Lamp, error) {
	if gwID == "" || nodeID == "" {
		return nil, fmt.Errorf("%w: gw_id and node_id are required", ErrInvalidRequest)
	}

	lmp, err := s.repo.DeleteByKey(ctx, gwID, nodeID)
	if err != nil {
		if errors.Is(err, ErrLampNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("deleting lamp: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(EventLampDeleted, lmp)
	}

	entry := &activity.Entry{
		ActorID: caller.ActorID,
		Action:  "delete_lamp",
		Details: map[string]any{
			"nodeId": lmp.NodeID,
			"gwId":   lmp.GatewayID,
		},
		Source:        activity.SourceManual,
		OriginAddress: caller.Origin,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		return lmp, fmt.Errorf("recording activity: %w", err)
	}

	s.logger.Info("lamp deleted",
		"node_id", lmp.NodeID,
		"gw_id", lmp.GatewayID,
		"actor_id", caller.ActorID)

	return lmp, nil
}

// List returns every known lamp.
func (s *Service) List(ctx context.Context) ([]Lamp, error) {
	return s.repo.List(ctx)
}

// publishCommand sends the lamp's persisted state to its command topic.
func (s *Service) publishCommand(lmp *Lamp) error {
	payload, err := json.Marshal(commandPayload{
		State:    lmp.State,
		DimLevel: lmp.DimLevel,
	})
	if err != nil {
		return fmt.Errorf("encoding command payload: %w", err)
	}

	topic := s.topics.LampControl(lmp.NodeID)
	return s.publisher.Publish(topic, payload, commandQoS, false)
}

// emitSideEffects fans the persisted state out to the optional sinks.
// Both are best effort and never fail the request.
func (s *Service) emitSideEffects(lmp *Lamp) {
	if s.telemetry != nil {
		s.telemetry.WriteLampTelemetry(
			lmp.GatewayID, lmp.NodeID, string(lmp.State),
			lmp.DimLevel, lmp.Lux, lmp.CurrentA)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(EventLampStateChanged, lmp)
	}
}

// applyRequest copies the supplied fields onto the lamp. Nil pointers
// leave the stored value untouched; supplied zero values overwrite.
func applyRequest(lmp *Lamp, req ControlRequest) {
	if req.State != nil {
		lmp.State = *req.State
	}
	if req.DimLevel != nil {
		lmp.DimLevel = *req.DimLevel
	}
	if req.Lux != nil {
		lmp.Lux = *req.Lux
	}
	if req.CurrentA != nil {
		lmp.CurrentA = *req.CurrentA
	}
}

// controlAction derives the activity action tag from what the request
// asked for. State changes take precedence over dim changes; a request
// touching neither is a generic state update.
func controlAction(req ControlRequest) string {
	switch {
	case req.State != nil && *req.State == StateOn:
		return "set_lamp_on"
	case req.State != nil:
		return "set_lamp_off"
	case req.DimLevel != nil:
		return "set_lamp_brightness_to_" + formatDim(*req.DimLevel) + "%"
	default:
		return "update_lamp_state"
	}
}

// formatDim renders a dim level without a trailing ".0" for whole values.
func formatDim(dim float64) string {
	return strconv.FormatFloat(dim, 'f', -1, 64)
}

// lampDetails builds the activity details map for a control action.
func lampDetails(lmp *Lamp) map[string]any {
	return map[string]any{
		"lampDim":  lmp.DimLevel,
		"lux":      lmp.Lux,
		"currentA": lmp.CurrentA,
		"nodeId":   lmp.NodeID,
		"gwId":     lmp.GatewayID,
	}
}
