package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func startTestWatcher(t *testing.T, dir string) chan struct{} {
	t.Helper()

	reloads := make(chan struct{}, 10)
	w, err := newWatcher([]string{dir}, 50*time.Millisecond, func(ctx context.Context) error {
		reloads <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("newWatcher failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return reloads
}

func TestWatcher_ReloadsOnceForBurst(t *testing.T) {
	dir := t.TempDir()
	reloads := startTestWatcher(t, dir)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "all_0.js"), []byte("var searchData=[];"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("No reload after search data changed")
	}

	select {
	case <-reloads:
		t.Error("A burst of writes should trigger a single reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func waitReload(t *testing.T, reloads chan struct{}, msg string) {
	t.Helper()
	select {
	case <-reloads:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

func TestWatcher_FollowsReplacedDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "local")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	reloads := startTestWatcher(t, dir)

	// Swap in a new copy the way a download does
	tempDir := dir + ".tmp"
	if err := os.Mkdir(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "all_0.js"), []byte("var searchData=[];"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tempDir, dir); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloads, "No reload after the directory was replaced")

	// Drain any trailing reload from the swap
	select {
	case <-reloads:
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(filepath.Join(dir, "all_1.js"), []byte("var searchData=[];"), 0644); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloads, "Edit inside the replaced directory triggered no reload")

	// A second swap keeps working
	if err := os.Mkdir(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tempDir, dir); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloads, "No reload after the second swap")
	select {
	case <-reloads:
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(filepath.Join(dir, "all_2.js"), []byte("var searchData=[];"), 0644); err != nil {
		t.Fatal(err)
	}
	waitReload(t, reloads, "Edit after the second swap triggered no reload")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	reloads := startTestWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
		t.Error("Non-search files should not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_NoDirectories(t *testing.T) {
	_, err := newWatcher([]string{filepath.Join(t.TempDir(), "missing", "dir")}, time.Second, nil)
	if err == nil {
		t.Error("Expected error when nothing can be watched")
	}
}

func TestIsSearchDataEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write js", fsnotify.Event{Name: "/d/all_0.js", Op: fsnotify.Write}, true},
		{"remove js", fsnotify.Event{Name: "/d/all_0.js", Op: fsnotify.Remove}, true},
		{"chmod js", fsnotify.Event{Name: "/d/all_0.js", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/d/index.html", Op: fsnotify.Write}, false},
		{"source directory swap", fsnotify.Event{Name: "/d/searchdata/remote", Op: fsnotify.Create}, true},
		{"temp directory", fsnotify.Event{Name: "/d/searchdata/remote.tmp", Op: fsnotify.Create}, false},
		{"hidden file", fsnotify.Event{Name: "/d/.index_stamp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSearchDataEvent(tt.event); got != tt.want {
				t.Errorf("isSearchDataEvent(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
