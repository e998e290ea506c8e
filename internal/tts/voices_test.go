package tts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := DefaultCatalog()
	v, ok := c.Get("Vivian")
	if !ok || v.ID != "Vivian" {
		t.Fatalf("Get(Vivian) = %+v, %v", v, ok)
	}
	if _, ok := c.Get("  serena "); !ok {
		t.Fatalf("lookup should trim and ignore case")
	}
	if _, ok := c.Get("unknown"); ok {
		t.Fatalf("unknown voice should not resolve")
	}
	if len(c.Voices()) == 0 || len(c.IDs()) != len(c.Voices()) {
		t.Fatalf("catalog listing is inconsistent")
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yaml")
	content := `voices:
  - id: Nova
    name: Nova
    language: en
    gender: female
  - id: Kai
    name: Kai
    language: en
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(c.Voices()) != 2 {
		t.Fatalf("voice count = %d, want 2", len(c.Voices()))
	}
	if _, ok := c.Get("nova"); !ok {
		t.Fatalf("loaded voice not found")
	}
	// Replacement, not overlay: built-ins are gone.
	if _, ok := c.Get("Vivian"); ok {
		t.Fatalf("built-in voice should not survive a custom catalog")
	}
}

func TestLoadCatalogRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("voices: []\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadCatalog(empty); err == nil {
		t.Fatalf("empty catalog should error")
	}

	noID := filepath.Join(dir, "noid.yaml")
	if err := os.WriteFile(noID, []byte("voices:\n  - name: Anon\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadCatalog(noID); err == nil {
		t.Fatalf("catalog entry without id should error")
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file should error")
	}
}
