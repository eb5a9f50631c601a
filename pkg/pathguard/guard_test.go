package pathguard

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphcp/pkg/errors"
)

func newTestGuard(buf *bytes.Buffer) *Guard {
	return New(log.NewWithOptions(buf, log.Options{Level: log.DebugLevel}))
}

func TestConfine(t *testing.T) {
	root, err := Canonicalize(t.TempDir())
	if err != nil {
		t.Fatalf("Canonicalize() error: %v", err)
	}

	tests := []struct {
		name      string
		candidate string
		wantErr   bool
		want      string
	}{
		{"root itself", root, false, root},
		{"descendant", filepath.Join(root, "sub", "file"), false, filepath.Join(root, "sub", "file")},
		{"dot segments inside", filepath.Join(root, "a", ".", "b", "..", "c.dot"), false, filepath.Join(root, "a", "c.dot")},
		{"escape with dotdot", root + "/../../etc/passwd", true, ""},
		{"absolute redirect", "/etc/passwd", true, ""},
		{"sibling prefix", root + "-other/file", true, ""},
		{"forbidden pipe", filepath.Join(root, "a|b"), true, ""},
		{"forbidden star", filepath.Join(root, "*.dot"), true, ""},
		{"forbidden angle", filepath.Join(root, "<x>"), true, ""},
		{"empty", "", true, ""},
		{"null byte", root + "/a\x00b", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got, err := newTestGuard(&buf).Confine(tt.candidate, root)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Confine(%q) error = %v, wantErr %v", tt.candidate, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeSecurity) {
					t.Errorf("Confine(%q) code = %v, want %v", tt.candidate, errors.GetCode(err), errors.ErrCodeSecurity)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Confine(%q) = %q, want %q", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestConfineErrorNamesBothPaths(t *testing.T) {
	root, _ := Canonicalize(t.TempDir())
	var buf bytes.Buffer

	_, err := newTestGuard(&buf).Confine("/etc/passwd", root)
	if err == nil {
		t.Fatal("Confine() should reject a path outside the root")
	}
	msg := err.Error()
	if !strings.Contains(msg, "/etc/passwd") || !strings.Contains(msg, root) {
		t.Errorf("error %q should name both the path and the root", msg)
	}

	var e *errors.Error
	if !asError(err, &e) || e.Path == "" || e.Root != root {
		t.Errorf("structured fields = %+v, want Path set and Root %q", e, root)
	}
}

func asError(err error, target **errors.Error) bool {
	return stderrors.As(err, target)
}

func TestConfineNoRoot(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()

	got, err := newTestGuard(&buf).Confine(filepath.Join(dir, "x", "..", "y"), "")
	if err != nil {
		t.Fatalf("Confine() error: %v", err)
	}
	want, _ := Canonicalize(filepath.Join(dir, "y"))
	if got != want {
		t.Errorf("Confine() = %q, want %q", got, want)
	}
}

func TestConfineRelative(t *testing.T) {
	root, _ := Canonicalize(t.TempDir())
	t.Chdir(root)

	var buf bytes.Buffer
	got, err := newTestGuard(&buf).Confine("graphs/a.dot", root)
	if err != nil {
		t.Fatalf("Confine() error: %v", err)
	}
	if got != filepath.Join(root, "graphs", "a.dot") {
		t.Errorf("Confine() = %q, want it resolved against the working directory", got)
	}

	if _, err := newTestGuard(&buf).Confine("../outside", root); err == nil {
		t.Error("Confine() should reject a relative escape")
	}
}

func TestConfineWarnsOnHiddenSegments(t *testing.T) {
	root, _ := Canonicalize(t.TempDir())

	var buf bytes.Buffer
	if _, err := newTestGuard(&buf).Confine(filepath.Join(root, ".hidden", "a.dot"), root); err != nil {
		t.Fatalf("Confine() error: %v", err)
	}
	if !strings.Contains(buf.String(), "suspicious path component") {
		t.Errorf("expected a warning for .hidden, got %q", buf.String())
	}

	buf.Reset()
	if _, err := newTestGuard(&buf).Confine(filepath.Join(root, "plain.dot"), root); err != nil {
		t.Fatalf("Confine() error: %v", err)
	}
	if strings.Contains(buf.String(), "suspicious") {
		t.Errorf("unexpected warning for plain path: %q", buf.String())
	}
}

func TestConfineSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root, _ := Canonicalize(t.TempDir())
	outside, _ := Canonicalize(t.TempDir())

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("Symlink() error: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "missing"), filepath.Join(root, "dangling")); err != nil {
		t.Fatalf("Symlink() error: %v", err)
	}

	var buf bytes.Buffer
	g := newTestGuard(&buf)

	if _, err := g.Confine(filepath.Join(root, "link", "file.dot"), root); err == nil {
		t.Error("Confine() should reject a path through a symlink that leaves the root")
	}
	if _, err := g.Confine(filepath.Join(root, "dangling"), root); err == nil {
		t.Error("Confine() should reject a dangling symlink pointing outside the root")
	}
}

func TestWithin(t *testing.T) {
	base := filepath.FromSlash("/srv/out")
	tests := []struct {
		path string
		want bool
	}{
		{"/srv/out", true},
		{"/srv/out/a", true},
		{"/srv/out/a/b", true},
		{"/srv/outside", false},
		{"/srv", false},
		{"/etc/passwd", false},
		{"/srv/out/..a", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Within(filepath.FromSlash(tt.path), base); got != tt.want {
				t.Errorf("Within(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
