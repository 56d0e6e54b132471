package lamp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxgrid/luxgrid-core/internal/infrastructure/database"
)

// setupTestDB creates a temporary SQLite database with the lamps table.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE lamps (
			gw_id TEXT NOT NULL,
			node_id TEXT NOT NULL UNIQUE,
			lamp_state TEXT NOT NULL DEFAULT 'OFF' CHECK (lamp_state IN ('ON', 'OFF')),
			lamp_dim REAL NOT NULL DEFAULT 0 CHECK (lamp_dim >= 0 AND lamp_dim <= 100),
			lux REAL NOT NULL DEFAULT 0,
			current_a REAL NOT NULL DEFAULT 0,
			latitude REAL,
			longitude REAL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (gw_id, node_id)
		);
		CREATE INDEX idx_lamps_gw_id ON lamps(gw_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testLamp creates a lamp for testing.
func testLamp(gwID, nodeID string) *Lamp {
	return &Lamp{
		GatewayID: gwID,
		NodeID:    nodeID,
		State:     StateOff,
	}
}

func TestSQLiteRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("inserts new lamp with timestamps", func(t *testing.T) {
		lmp := testLamp("gw1", "n1")

		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if lmp.CreatedAt.IsZero() || lmp.UpdatedAt.IsZero() {
			t.Error("timestamps not set on insert")
		}

		got, err := repo.FindByKey(ctx, "gw1", "n1")
		if err != nil {
			t.Fatalf("FindByKey() error = %v", err)
		}
		if got.State != StateOff {
			t.Errorf("State = %q, want %q", got.State, StateOff)
		}
		if got.DimLevel != 0 {
			t.Errorf("DimLevel = %v, want 0", got.DimLevel)
		}
	})

	t.Run("updates existing lamp in place", func(t *testing.T) {
		lmp := testLamp("gw1", "n2")
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("insert Upsert() error = %v", err)
		}
		created := lmp.CreatedAt

		lmp.State = StateOn
		lmp.DimLevel = 80
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("update Upsert() error = %v", err)
		}

		got, err := repo.FindByKey(ctx, "gw1", "n2")
		if err != nil {
			t.Fatalf("FindByKey() error = %v", err)
		}
		if got.State != StateOn || got.DimLevel != 80 {
			t.Errorf("got state=%q dim=%v, want ON/80", got.State, got.DimLevel)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt changed on update: %v -> %v", created, got.CreatedAt)
		}
		if got.UpdatedAt.Before(got.CreatedAt) {
			t.Error("UpdatedAt is before CreatedAt")
		}
	})

	t.Run("refreshes updated_at on every save", func(t *testing.T) {
		lmp := testLamp("gw1", "n3")
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		first := lmp.UpdatedAt

		time.Sleep(2 * time.Millisecond)
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("second Upsert() error = %v", err)
		}

		if !lmp.UpdatedAt.After(first) {
			t.Errorf("UpdatedAt not refreshed: %v -> %v", first, lmp.UpdatedAt)
		}
	})

	t.Run("rejects duplicate node_id under another gateway", func(t *testing.T) {
		if err := repo.Upsert(ctx, testLamp("gw1", "shared-node")); err != nil {
			t.Fatalf("first Upsert() error = %v", err)
		}

		err := repo.Upsert(ctx, testLamp("gw2", "shared-node"))
		if !errors.Is(err, ErrNodeIDConflict) {
			t.Errorf("Upsert() error = %v, want ErrNodeIDConflict", err)
		}
	})

	t.Run("same key insert race falls back to the update", func(t *testing.T) {
		lmp := testLamp("gw1", "raced-node")
		lmp.State = StateOn
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		// Simulate losing a first-contact race: the row already exists
		// by the time the insert runs.
		clone := testLamp("gw1", "raced-node")
		clone.DimLevel = 55
		now := time.Now().UTC()
		clone.CreatedAt, clone.UpdatedAt = now, now

		insertErr := repo.insert(ctx, clone)
		if insertErr == nil {
			t.Fatal("insert() on an existing key succeeded, want constraint error")
		}

		if err := repo.recoverInsertConflict(ctx, clone, insertErr); err != nil {
			t.Fatalf("recoverInsertConflict() error = %v, want the update applied", err)
		}

		got, err := repo.FindByKey(ctx, "gw1", "raced-node")
		if err != nil {
			t.Fatalf("FindByKey() error = %v", err)
		}
		if got.DimLevel != 55 {
			t.Errorf("DimLevel = %v, want 55 (update applied after the race)", got.DimLevel)
		}
	})

	t.Run("persists optional coordinates", func(t *testing.T) {
		lat, lon := 51.5074, -0.1278
		lmp := testLamp("gw1", "n4")
		lmp.Latitude = &lat
		lmp.Longitude = &lon

		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		got, err := repo.FindByKey(ctx, "gw1", "n4")
		if err != nil {
			t.Fatalf("FindByKey() error = %v", err)
		}
		if got.Latitude == nil || *got.Latitude != lat {
			t.Errorf("Latitude = %v, want %v", got.Latitude, lat)
		}
		if got.Longitude == nil || *got.Longitude != lon {
			t.Errorf("Longitude = %v, want %v", got.Longitude, lon)
		}
	})
}

func TestSQLiteRepository_FindByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("returns ErrLampNotFound for unknown key", func(t *testing.T) {
		_, err := repo.FindByKey(ctx, "gw1", "missing")
		if !errors.Is(err, ErrLampNotFound) {
			t.Errorf("FindByKey() error = %v, want ErrLampNotFound", err)
		}
	})

	t.Run("key is the full (gw_id, node_id) pair", func(t *testing.T) {
		if err := repo.Upsert(ctx, testLamp("gw1", "n1")); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		_, err := repo.FindByKey(ctx, "gw2", "n1")
		if !errors.Is(err, ErrLampNotFound) {
			t.Errorf("FindByKey() with wrong gateway error = %v, want ErrLampNotFound", err)
		}
	})
}

func TestSQLiteRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("empty registry returns empty slice", func(t *testing.T) {
		lamps, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if lamps == nil || len(lamps) != 0 {
			t.Errorf("List() = %v, want empty non-nil slice", lamps)
		}
	})

	t.Run("returns lamps ordered by gateway then node", func(t *testing.T) {
		for _, key := range [][2]string{{"gw2", "n3"}, {"gw1", "n2"}, {"gw1", "n1"}} {
			if err := repo.Upsert(ctx, testLamp(key[0], key[1])); err != nil {
				t.Fatalf("Upsert(%v) error = %v", key, err)
			}
		}

		lamps, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(lamps) != 3 {
			t.Fatalf("List() returned %d lamps, want 3", len(lamps))
		}
		want := []string{"n1", "n2", "n3"}
		for i, nodeID := range want {
			if lamps[i].NodeID != nodeID {
				t.Errorf("lamps[%d].NodeID = %q, want %q", i, lamps[i].NodeID, nodeID)
			}
		}
	})
}

func TestSQLiteRepository_DeleteByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	t.Run("returns the removed record", func(t *testing.T) {
		lmp := testLamp("gw1", "n1")
		lmp.State = StateOn
		if err := repo.Upsert(ctx, lmp); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		deleted, err := repo.DeleteByKey(ctx, "gw1", "n1")
		if err != nil {
			t.Fatalf("DeleteByKey() error = %v", err)
		}
		if deleted.State != StateOn {
			t.Errorf("deleted.State = %q, want ON", deleted.State)
		}

		if _, err := repo.FindByKey(ctx, "gw1", "n1"); !errors.Is(err, ErrLampNotFound) {
			t.Errorf("FindByKey() after delete error = %v, want ErrLampNotFound", err)
		}
	})

	t.Run("returns ErrLampNotFound for unknown key", func(t *testing.T) {
		_, err := repo.DeleteByKey(ctx, "gw1", "missing")
		if !errors.Is(err, ErrLampNotFound) {
			t.Errorf("DeleteByKey() error = %v, want ErrLampNotFound", err)
		}
	})
}
