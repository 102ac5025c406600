package exporter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExport_WritesMarkdownFile(t *testing.T) {
	e := New(t.TempDir())
	a := sampleRun()

	path, err := e.Export(a, false, false)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "2025-11-29-morning-run-12345678901.md" {
		t.Errorf("unexpected filename %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if !strings.Contains(string(data), "# 🏃 Morning Run") {
		t.Error("exported content incomplete")
	}
}

func TestExport_SkipsExisting(t *testing.T) {
	e := New(t.TempDir())
	a := sampleRun()

	first, err := e.Export(a, false, false)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	path, err := e.Export(a, false, false)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for skipped export, got %q", path)
	}

	// Force re-exports over the existing file.
	a.Name = "Morning Run" // same filename
	path, err = e.Export(a, true, false)
	if err != nil {
		t.Fatalf("forced Export failed: %v", err)
	}
	if path != first {
		t.Errorf("forced export path = %q, want %q", path, first)
	}
}

func TestExport_DownloadsPhoto(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	e := New(dir, WithHTTPClient(srv.Client()))
	a := sampleRun()
	a.PhotoURL = srv.URL + "/photo.jpg"

	if _, err := e.Export(a, false, true); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	photoPath := filepath.Join(dir, "media", fmt.Sprintf("%d_photo.jpg", a.ID))
	data, err := os.ReadFile(photoPath)
	if err != nil {
		t.Fatalf("photo not written: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("unexpected photo content %q", data)
	}

	// Second export with force does not re-download.
	if _, err := e.Export(a, true, true); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 download, got %d", hits)
	}
}

func TestExport_PhotoFailureDoesNotFailExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	e := New(dir, WithHTTPClient(srv.Client()))
	a := sampleRun()
	a.PhotoURL = srv.URL + "/gone.jpg"

	path, err := e.Export(a, false, true)
	if err != nil {
		t.Fatalf("Export should succeed despite photo failure: %v", err)
	}
	if path == "" {
		t.Error("expected markdown written")
	}
	if _, err := os.Stat(filepath.Join(dir, "media", "12345678901_photo.jpg")); err == nil {
		t.Error("photo file should not exist after failed download")
	}
}

func TestExporter_ExistsAndPath(t *testing.T) {
	e := New(t.TempDir())
	a := sampleRun()

	if e.Exists(a) {
		t.Error("activity should not exist before export")
	}
	if _, err := e.Export(a, false, false); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !e.Exists(a) {
		t.Error("activity should exist after export")
	}
}

func TestSyncState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.json")

	when := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := SaveSyncState(path, SyncState{LastSync: when}); err != nil {
		t.Fatalf("SaveSyncState failed: %v", err)
	}

	state := LoadSyncState(path)
	if !state.LastSync.Equal(when) {
		t.Errorf("LastSync = %v, want %v", state.LastSync, when)
	}
}

func TestSyncState_MissingOrCorrupt(t *testing.T) {
	dir := t.TempDir()

	if state := LoadSyncState(filepath.Join(dir, "nope.json")); !state.LastSync.IsZero() {
		t.Errorf("missing file should read as zero state, got %v", state)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if state := LoadSyncState(bad); !state.LastSync.IsZero() {
		t.Errorf("corrupt file should read as zero state, got %v", state)
	}
}
