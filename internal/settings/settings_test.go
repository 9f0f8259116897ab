package settings

import (
	"path/filepath"
	"testing"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	s := Open(path, nil)

	want := map[string]string{"accent": "blue", "theme": "dark"}
	s.Persist(want)

	got := s.Load()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "missing.json"), nil)
	got := s.Load()
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}
