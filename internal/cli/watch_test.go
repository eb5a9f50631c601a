package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatchFilesDebounces(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "g.dot")
	other := filepath.Join(dir, "other.dot")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("digraph {}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 10)
	errc := make(chan error, 1)
	go func() {
		errc <- watchFiles(ctx, log.New(io.Discard), []string{watched}, 150*time.Millisecond, func(p string) {
			calls <- p
		})
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(watched, []byte("digraph { a }"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(other, []byte("digraph { b }"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-calls:
		if got != watched {
			t.Errorf("callback path = %q, want %q", got, watched)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no callback after writes")
	}

	select {
	case got := <-calls:
		t.Errorf("unexpected second callback for %q", got)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("watchFiles() = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watchFiles did not return after cancel")
	}
}

func TestWatchFilesMissingDir(t *testing.T) {
	err := watchFiles(context.Background(), log.New(io.Discard), []string{filepath.Join(t.TempDir(), "nope", "g.dot")}, time.Millisecond, func(string) {})
	if err == nil {
		t.Error("watching a file in a missing directory should fail")
	}
}
