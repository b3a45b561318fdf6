package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbellec/scriptforge/internal/classify"
)

func writeScript(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("; test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAbsentFileYieldsEmptyCatalog(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	c.Load()
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d entries", c.Len())
	}
}

func TestLoadCorruptFileYieldsEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(path, nil)
	c.Load()
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d entries", c.Len())
	}
}

func TestRegisterSaveReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	script := writeScript(t, dir, "term_20240101120000.ahk")

	c := New(path, nil)
	c.Load()
	c.Register(Entry{
		Name:        "term_20240101120000",
		Path:        script,
		Kind:        classify.KindHotkey,
		Description: "lance le terminal",
		Created:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Params:      map[string]string{"hotkey": "^!t"},
	})
	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"type": "hotkey"`) {
		t.Fatalf("missing type field:\n%s", raw)
	}
	if !strings.Contains(string(raw), "2024-01-01T12:00:00Z") {
		t.Fatalf("created not ISO-8601:\n%s", raw)
	}

	c2 := New(path, nil)
	c2.Load()
	e, ok := c2.Get("term_20240101120000")
	if !ok {
		t.Fatal("entry lost after reload")
	}
	if e.Description != "lance le terminal" || e.Kind != classify.KindHotkey {
		t.Fatalf("entry mangled: %+v", e)
	}
	if e.Params["hotkey"] != "^!t" {
		t.Fatalf("params mangled: %+v", e.Params)
	}
}

func TestSaveIsNoopWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := New(path, nil)
	c.Load()
	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("clean save should not create the file")
	}
}

func TestFindSubstringCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "catalog.json"), nil)
	c.Register(Entry{Name: "term_1", Description: "lance le terminal", Created: time.Now()})
	c.Register(Entry{Name: "notes_2", Description: "ouvre le bloc-notes", Created: time.Now()})

	e, ok := c.Find("TERMINAL")
	if !ok || e.Name != "term_1" {
		t.Fatalf("find by description: %+v ok=%v", e, ok)
	}
	e, ok = c.Find("notes_2")
	if !ok || e.Name != "notes_2" {
		t.Fatalf("find by name: %+v ok=%v", e, ok)
	}
	if _, ok := c.Find("absent"); ok {
		t.Fatal("unexpected match")
	}
	if _, ok := c.Find(""); ok {
		t.Fatal("empty query must not match")
	}
}

func TestFindReturnsFirstInRegistrationOrder(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "catalog.json"), nil)
	c.Register(Entry{Name: "a_1", Description: "ouvre le navigateur", Created: time.Now()})
	c.Register(Entry{Name: "b_2", Description: "ouvre le navigateur privé", Created: time.Now()})
	e, ok := c.Find("navigateur")
	if !ok || e.Name != "a_1" {
		t.Fatalf("want first entry, got %+v", e)
	}
}

func TestListHidesStaleEntries(t *testing.T) {
	dir := t.TempDir()
	alive := writeScript(t, dir, "alive.ahk")
	gone := writeScript(t, dir, "gone.ahk")

	c := New(filepath.Join(dir, "catalog.json"), nil)
	c.Register(Entry{Name: "alive", Path: alive, Created: time.Now()})
	c.Register(Entry{Name: "gone", Path: gone, Created: time.Now()})

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	entries := c.List()
	if len(entries) != 1 || entries[0].Name != "alive" {
		t.Fatalf("list: %+v", entries)
	}
	// Hidden, not removed.
	if c.Len() != 2 {
		t.Fatalf("stale entry was deleted, len=%d", c.Len())
	}
}

func TestPruneRemovesStaleEntriesAndPersists(t *testing.T) {
	dir := t.TempDir()
	alive := writeScript(t, dir, "alive.ahk")
	gone := writeScript(t, dir, "gone.ahk")
	path := filepath.Join(dir, "catalog.json")

	c := New(path, nil)
	c.Register(Entry{Name: "alive", Path: alive, Created: time.Now()})
	c.Register(Entry{Name: "gone", Path: gone, Created: time.Now()})
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(removed) != 1 || removed[0] != "gone" {
		t.Fatalf("removed: %v", removed)
	}

	c2 := New(path, nil)
	c2.Load()
	if c2.Len() != 1 {
		t.Fatalf("prune not persisted, len=%d", c2.Len())
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	blob := map[string]any{
		"scripts": map[string]any{
			"x_1": map[string]any{
				"path":        filepath.Join(dir, "x.ahk"),
				"type":        "custom",
				"description": "test",
				"created":     "2024-01-01T00:00:00Z",
				"params":      map[string]string{},
				"extra_field": "future",
			},
		},
	}
	data, err := json.Marshal(blob)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(path, nil)
	c.Load()
	if _, ok := c.Get("x_1"); !ok {
		t.Fatal("entry with unknown extra field was not loaded")
	}
}
