package credstore

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// Keep the env override out of file-based tests.
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvUsername, "")
	return New(filepath.Join(t.TempDir(), "todoq"))
}

func TestGetAbsent(t *testing.T) {
	s := newTestStore(t)

	creds, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds != nil {
		t.Errorf("got %+v, want nil for empty slot", creds)
	}
}

func TestGetCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, credFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(); err == nil {
		t.Fatal("want error for corrupt credentials file")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("alice", "  key-123  "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	creds, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if creds == nil {
		t.Fatal("slot empty after Set")
	}
	if creds.Username != "alice" {
		t.Errorf("username: %q", creds.Username)
	}
	if creds.APIKey != "key-123" {
		t.Errorf("api key not trimmed: %q", creds.APIKey)
	}
	if creds.Source != "file" {
		t.Errorf("source: %q", creds.Source)
	}
}

func TestSetEmptyKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("alice", "   "); err == nil {
		t.Fatal("want error for empty key")
	}
}

func TestSetOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("alice", "old"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("bob", "new"); err != nil {
		t.Fatal(err)
	}
	creds, _ := s.Get()
	if creds.Username != "bob" || creds.APIKey != "new" {
		t.Errorf("got %+v", creds)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("alice", "key"); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	creds, err := s.Get()
	if err != nil || creds != nil {
		t.Errorf("after clear: %+v, %v", creds, err)
	}
	// Clearing an empty slot is fine.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Set("filed", "file-key"); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIKey, " env-key ")
	t.Setenv(EnvUsername, "envy")

	creds, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIKey != "env-key" || creds.Username != "envy" {
		t.Errorf("got %+v, want env values", creds)
	}
	if creds.Source != "env" {
		t.Errorf("source: %q", creds.Source)
	}
}

func TestFilePermissions(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("alice", "key"); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(filepath.Join(s.dir, credFileName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode: got %o, want 600", perm)
	}
}
