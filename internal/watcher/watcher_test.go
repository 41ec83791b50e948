package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var accepted = []string{".pdf", ".mp3", ".wav", ".m4a"}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, accepted, true, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebouncesBurstIntoOneChange(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	var changes atomic.Int32
	w := NewWatcher([]string{dir}, accepted, true, func() { changes.Add(1) },
		WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for _, name := range []string{"a.pdf", "b.pdf", "c.mp3"} {
		if err := writeFile(filepath.Join(sub, name), "data"); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return changes.Load() >= 1 }) {
		t.Fatal("expected a change callback")
	}
	time.Sleep(400 * time.Millisecond)
	if n := changes.Load(); n != 1 {
		t.Errorf("expected exactly one debounced change, got %d", n)
	}
}

func TestWatcher_IgnoresUnacceptedExtensions(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int32
	w := NewWatcher([]string{dir}, accepted, true, func() { changes.Add(1) },
		WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := changes.Load(); n != 0 {
		t.Errorf("expected no change for .txt, got %d", n)
	}
}

func TestWatcher_Files(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.wav", "skip.txt", filepath.Join("nested", "c.m4a")} {
		if err := writeFile(filepath.Join(dir, name), "x"); err != nil {
			t.Fatal(err)
		}
	}

	w := NewWatcher([]string{dir}, accepted, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	files := w.Files()
	if len(files) != 3 {
		t.Fatalf("Files() = %v, want 3 accepted files", files)
	}
	if !strings.HasSuffix(files[0], "a.wav") || !strings.HasSuffix(files[1], "b.pdf") {
		t.Errorf("Files() not sorted: %v", files)
	}

	flat := NewWatcher([]string{dir}, accepted, false, nil)
	if err := flat.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer flat.Stop()
	if n := len(flat.Files()); n != 2 {
		t.Errorf("non-recursive Files() = %d, want 2", n)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/b.PDF", []string{".pdf"}, true},
		{"/a/b.md", []string{".pdf"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.pdf", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")

	w := NewWatcher([]string{root}, accepted, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewDirectoryWithFiles(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int32
	w := NewWatcher([]string{dir}, accepted, true, func() { changes.Add(1) },
		WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Build the folder elsewhere, then move it in.
	staging := filepath.Join(t.TempDir(), "incoming")
	if err := writeFile(filepath.Join(staging, "q3.pdf"), "x"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staging, filepath.Join(dir, "incoming")); err != nil {
		t.Skipf("cross-directory rename unsupported here: %v", err)
	}
	if !waitFor(t, func() bool { return changes.Load() >= 1 }) {
		t.Error("expected a change after moving in a folder with files")
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
