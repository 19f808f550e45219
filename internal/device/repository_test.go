package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the profile schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE profiles (
			serial TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			profile_id TEXT NOT NULL DEFAULT '',
			current_mode INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		) STRICT;
		CREATE TABLE modes (
			serial TEXT NOT NULL,
			idx INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (serial, idx)
		) STRICT;
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

// testProfile creates a profile with some distinguishable content.
func testProfile() *Profile {
	p := NewProfile()
	p.Name = "gaming"
	p.ID = "{12345678-1234-1234-1234-123456789012}"
	p.Modes[1].Name = "fps"
	p.Modes[1].Light.Colors = map[string]string{"w": "ff0000", "a": "ff0000"}
	p.Modes[1].Bind.Macros = []Macro{
		{Keys: "g1", Value: "+a,-a", Triggered: true},
	}
	p.Current = p.Modes[1]
	return p
}

func TestProfileRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProfileRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, "serial-01", testProfile()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "serial-01")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Name != "gaming" {
		t.Errorf("Name = %q, want %q", got.Name, "gaming")
	}
	if len(got.Modes) != ModeCount {
		t.Fatalf("loaded %d modes, want %d", len(got.Modes), ModeCount)
	}
	if got.Current != got.Modes[1] {
		t.Error("current mode reference not restored to mode 1")
	}
	if got.Modes[1].Name != "fps" {
		t.Errorf("Modes[1].Name = %q, want %q", got.Modes[1].Name, "fps")
	}
	if got.Modes[1].Light.Colors["w"] != "ff0000" {
		t.Errorf("Modes[1].Light.Colors[w] = %q, want ff0000", got.Modes[1].Light.Colors["w"])
	}
	if len(got.Modes[1].Bind.Macros) != 1 {
		t.Fatalf("loaded %d macros, want 1", len(got.Modes[1].Bind.Macros))
	}
	if got.Modes[1].Bind.Macros[0].Triggered {
		t.Error("macro Triggered flag was persisted; it is runtime state")
	}
}

func TestProfileRepository_SaveReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProfileRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, "serial-01", testProfile()); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	second := NewProfile()
	second.Name = "plain"
	if err := repo.Save(ctx, "serial-01", second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "serial-01")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "plain" {
		t.Errorf("Name = %q, want %q", got.Name, "plain")
	}
	if got.Current != got.Modes[0] {
		t.Error("current mode not reset by replacement save")
	}
	if got.Modes[1].Name != "" {
		t.Errorf("Modes[1].Name = %q, want empty after replacement", got.Modes[1].Name)
	}
}

func TestProfileRepository_LoadMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProfileRepository(db)

	_, err := repo.Load(context.Background(), "no-such-serial")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Load() error = %v, want ErrProfileNotFound", err)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProfileRepository(db)
	ctx := context.Background()

	if err := repo.Save(ctx, "serial-01", testProfile()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Delete(ctx, "serial-01"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Load(ctx, "serial-01"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrProfileNotFound", err)
	}

	// Deleting again is not an error.
	if err := repo.Delete(ctx, "serial-01"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}
