package postgres

import (
	"os"
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "PGPASSWORD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	want := "host=127.0.0.1 port=5432 user=scenario dbname=scenario sslmode=disable"
	if got := s.ConnString(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGUSER", "player")
	t.Setenv("PGDATABASE", "replays")
	t.Setenv("PGPASSWORD", "hunter2")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	want := "host=db.internal port=6543 user=player password=hunter2 dbname=replays sslmode=disable"
	if got := s.ConnString(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
