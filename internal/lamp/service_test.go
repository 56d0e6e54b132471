package lamp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/luxgrid/luxgrid-core/internal/activity"
	"github.com/luxgrid/luxgrid-core/internal/infrastructure/logging"
)

// fakePublisher records publishes and optionally fails them.
type fakePublisher struct {
	published []publishedMsg
	err       error
}

type publishedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.published = append(p.published, publishedMsg{topic, payload, qos, retained})
	return p.err
}

// fakeRecorder collects activity entries in memory.
type fakeRecorder struct {
	entries []*activity.Entry
	err     error
}

func (r *fakeRecorder) Create(_ context.Context, entry *activity.Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

// setupService wires a service against a real SQLite repository and
// fake publisher/recorder, returning all three for assertions.
func setupService(t *testing.T) (*Service, *fakePublisher, *fakeRecorder) {
	t.Helper()

	repo := NewSQLiteRepository(setupTestDB(t))
	pub := &fakePublisher{}
	rec := &fakeRecorder{}

	svc := NewService(Deps{
		Repo:      repo,
		Activity:  rec,
		Publisher: pub,
		Logger:    logging.Default(),
	})
	return svc, pub, rec
}

func ptr[T any](v T) *T { return &v }

func TestService_Control_CreatesOnFirstContact(t *testing.T) {
	svc, pub, rec := setupService(t)
	ctx := context.Background()
	caller := Caller{ActorID: "user-1", Origin: "10.0.0.5"}

	lmp, err := svc.Control(ctx, ControlRequest{
		GatewayID: "gw1",
		NodeID:    "n1",
		State:     ptr(StateOn),
		DimLevel:  ptr(80.0),
	}, caller)
	if err != nil {
		t.Fatalf("Control() error = %v", err)
	}

	if lmp.State != StateOn || lmp.DimLevel != 80 {
		t.Errorf("lamp = %q/%v, want ON/80", lmp.State, lmp.DimLevel)
	}
	if lmp.Lux != 0 || lmp.CurrentA != 0 {
		t.Errorf("sensor defaults = %v/%v, want 0/0", lmp.Lux, lmp.CurrentA)
	}
	if lmp.CreatedAt.IsZero() || lmp.UpdatedAt.Before(lmp.CreatedAt) {
		t.Errorf("timestamps wrong: created=%v updated=%v", lmp.CreatedAt, lmp.UpdatedAt)
	}

	// Command published to the device topic with the persisted values.
	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}
	msg := pub.published[0]
	if msg.topic != "lamp/control/n1" {
		t.Errorf("topic = %q, want lamp/control/n1", msg.topic)
	}
	if msg.qos != 0 || msg.retained {
		t.Errorf("qos=%d retained=%v, want 0/false", msg.qos, msg.retained)
	}
	var payload map[string]any
	if err := json.Unmarshal(msg.payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["lamp_state"] != "ON" || payload["lamp_dim"] != 80.0 {
		t.Errorf("payload = %v, want lamp_state=ON lamp_dim=80", payload)
	}

	// Activity recorded with actor, origin and detail fields.
	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.Action != "set_lamp_on" {
		t.Errorf("Action = %q, want set_lamp_on", entry.Action)
	}
	if entry.ActorID != "user-1" || entry.OriginAddress != "10.0.0.5" {
		t.Errorf("actor/origin = %q/%q", entry.ActorID, entry.OriginAddress)
	}
	if entry.Source != activity.SourceManual {
		t.Errorf("Source = %q, want manual", entry.Source)
	}
	if entry.Details["nodeId"] != "n1" || entry.Details["gwId"] != "gw1" {
		t.Errorf("Details = %v", entry.Details)
	}
	if entry.Details["lampDim"] != 80.0 {
		t.Errorf("Details lampDim = %v, want 80", entry.Details["lampDim"])
	}
}

func TestService_Control_CreatesWithDefaultsWhenNoFieldsSupplied(t *testing.T) {
	svc, pub, rec := setupService(t)

	lmp, err := svc.Control(context.Background(), ControlRequest{
		GatewayID: "gw1",
		NodeID:    "n1",
	}, Caller{ActorID: "user-1"})
	if err != nil {
		t.Fatalf("Control() error = %v", err)
	}

	if lmp.State != StateOff || lmp.DimLevel != 0 {
		t.Errorf("defaults = %q/%v, want OFF/0", lmp.State, lmp.DimLevel)
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d messages, want 1 (current state republished)", len(pub.published))
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != "update_lamp_state" {
		t.Errorf("entries = %+v, want one update_lamp_state", rec.entries)
	}
}

func TestService_Control_PartialUpdate(t *testing.T) {
	svc, _, rec := setupService(t)
	ctx := context.Background()
	caller := Caller{ActorID: "user-1"}

	if _, err := svc.Control(ctx, ControlRequest{
		GatewayID: "gw1",
		NodeID:    "n1",
		State:     ptr(StateOn),
		DimLevel:  ptr(75.0),
		Lux:       ptr(420.0),
	}, caller); err != nil {
		t.Fatalf("initial Control() error = %v", err)
	}

	t.Run("omitted fields survive", func(t *testing.T) {
		lmp, err := svc.Control(ctx, ControlRequest{
			GatewayID: "gw1",
			NodeID:    "n1",
			DimLevel:  ptr(30.0),
		}, caller)
		if err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		if lmp.State != StateOn {
			t.Errorf("State = %q, want ON (omitted field must survive)", lmp.State)
		}
		if lmp.DimLevel != 30 {
			t.Errorf("DimLevel = %v, want 30", lmp.DimLevel)
		}
		if lmp.Lux != 420 {
			t.Errorf("Lux = %v, want 420", lmp.Lux)
		}
	})

	t.Run("supplied zero values overwrite", func(t *testing.T) {
		lmp, err := svc.Control(ctx, ControlRequest{
			GatewayID: "gw1",
			NodeID:    "n1",
			State:     ptr(StateOff),
			DimLevel:  ptr(0.0),
		}, caller)
		if err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		if lmp.State != StateOff || lmp.DimLevel != 0 {
			t.Errorf("lamp = %q/%v, want OFF/0 (zero values must overwrite)", lmp.State, lmp.DimLevel)
		}
	})

	t.Run("dim-only change gets brightness action tag", func(t *testing.T) {
		if _, err := svc.Control(ctx, ControlRequest{
			GatewayID: "gw1",
			NodeID:    "n1",
			DimLevel:  ptr(55.0),
		}, caller); err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		last := rec.entries[len(rec.entries)-1]
		if last.Action != "set_lamp_brightness_to_55%" {
			t.Errorf("Action = %q, want set_lamp_brightness_to_55%%", last.Action)
		}
	})

	t.Run("off change gets off action tag", func(t *testing.T) {
		if _, err := svc.Control(ctx, ControlRequest{
			GatewayID: "gw1",
			NodeID:    "n1",
			State:     ptr(StateOff),
		}, caller); err != nil {
			t.Fatalf("Control() error = %v", err)
		}
		last := rec.entries[len(rec.entries)-1]
		if last.Action != "set_lamp_off" {
			t.Errorf("Action = %q, want set_lamp_off", last.Action)
		}
	})
}

func TestService_Control_Idempotent(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	req := ControlRequest{
		GatewayID: "gw1",
		NodeID:    "n1",
		State:     ptr(StateOn),
		DimLevel:  ptr(60.0),
	}

	first, err := svc.Control(ctx, req, Caller{ActorID: "user-1"})
	if err != nil {
		t.Fatalf("first Control() error = %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := svc.Control(ctx, req, Caller{ActorID: "user-1"})
	if err != nil {
		t.Fatalf("second Control() error = %v", err)
	}

	if second.State != first.State || second.DimLevel != first.DimLevel {
		t.Errorf("state changed on identical request: %+v -> %+v", first, second)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestService_Control_PublishFailureKeepsStoreWrite(t *testing.T) {
	svc, pub, rec := setupService(t)
	pub.err = errors.New("broker unreachable")
	ctx := context.Background()

	lmp, err := svc.Control(ctx, ControlRequest{
		GatewayID: "gw1",
		NodeID:    "n1",
		State:     ptr(StateOn),
	}, Caller{ActorID: "user-1"})

	if err == nil {
		t.Fatal("Control() error = nil, want publish failure")
	}
	if lmp == nil {
		t.Fatal("Control() lamp = nil, want the persisted record")
	}

	// The store write is not rolled back.
	stored, getErr := svc.List(ctx)
	if getErr != nil {
		t.Fatalf("List() error = %v", getErr)
	}
	if len(stored) != 1 || stored[0].State != StateOn {
		t.Errorf("stored = %+v, want the ON lamp persisted despite publish failure", stored)
	}

	// The activity entry is written regardless of the publish outcome.
	if len(rec.entries) != 1 {
		t.Errorf("recorded %d entries, want 1", len(rec.entries))
	}
}

func TestService_Control_Validation(t *testing.T) {
	svc, pub, rec := setupService(t)
	ctx := context.Background()
	caller := Caller{ActorID: "user-1"}

	tests := []struct {
		name string
		req  ControlRequest
	}{
		{"missing gw_id", ControlRequest{NodeID: "n1"}},
		{"missing node_id", ControlRequest{GatewayID: "gw1"}},
		{"bad state", ControlRequest{GatewayID: "gw1", NodeID: "n1", State: ptr(State("DIMMED"))}},
		{"dim below range", ControlRequest{GatewayID: "gw1", NodeID: "n1", DimLevel: ptr(-1.0)}},
		{"dim above range", ControlRequest{GatewayID: "gw1", NodeID: "n1", DimLevel: ptr(100.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Control(ctx, tt.req, caller)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Control() error = %v, want ErrInvalidRequest", err)
			}
		})
	}

	// Rejected requests leave no trace.
	if len(pub.published) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.published))
	}
	if len(rec.entries) != 0 {
		t.Errorf("recorded %d entries, want 0", len(rec.entries))
	}
}

func TestService_Delete(t *testing.T) {
	svc, _, rec := setupService(t)
	ctx := context.Background()
	caller := Caller{ActorID: "user-1", Origin: "10.0.0.5"}

	t.Run("removes lamp and logs it", func(t *testing.T) {
		if _, err := svc.Control(ctx, ControlRequest{
			GatewayID: "gw1", NodeID: "n1", State: ptr(StateOn),
		}, caller); err != nil {
			t.Fatalf("Control() error = %v", err)
		}

		deleted, err := svc.Delete(ctx, "gw1", "n1", caller)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted.NodeID != "n1" {
			t.Errorf("deleted.NodeID = %q, want n1", deleted.NodeID)
		}

		last := rec.entries[len(rec.entries)-1]
		if last.Action != "delete_lamp" {
			t.Errorf("Action = %q, want delete_lamp", last.Action)
		}
		if last.Details["nodeId"] != "n1" {
			t.Errorf("Details = %v", last.Details)
		}
	})

	t.Run("unknown lamp returns ErrLampNotFound", func(t *testing.T) {
		_, err := svc.Delete(ctx, "gw1", "missing", caller)
		if !errors.Is(err, ErrLampNotFound) {
			t.Errorf("Delete() error = %v, want ErrLampNotFound", err)
		}
	})

	t.Run("missing identifiers return ErrInvalidRequest", func(t *testing.T) {
		_, err := svc.Delete(ctx, "", "n1", caller)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Delete() error = %v, want ErrInvalidRequest", err)
		}
	})
}
