// Package store owns the output root every graphcp artifact is written to.
//
// The root is a single piece of state shared by all tool calls. It is
// created lazily on first use and can be replaced by [OutputStore.SetRoot];
// replacement is one atomic pointer store performed after every check has
// passed, so concurrent callers observe the old root or the new one, never
// a mix.
package store

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphcp/pkg/errors"
	"github.com/matzehuels/graphcp/pkg/pathguard"
)

// DefaultDirName is the directory created under os.TempDir() when no root
// has been configured.
const DefaultDirName = "mcp_graphviz_output"

// DefaultRoot returns <os.TempDir()>/mcp_graphviz_output.
func DefaultRoot() string {
	return filepath.Join(os.TempDir(), DefaultDirName)
}

// OutputStore holds the output root.
type OutputStore struct {
	guard    *pathguard.Guard
	fallback string
	sandbox  string
	logger   *log.Logger

	root atomic.Pointer[string]
	mu   sync.Mutex // serializes directory creation
}

// Options configures an OutputStore.
type Options struct {
	// Fallback is used by Ensure when no root was set. Empty selects DefaultRoot.
	Fallback string

	// Sandbox, when set, confines every SetRoot call to this directory.
	Sandbox string

	Logger *log.Logger
}

// New creates an OutputStore. Nothing is created on disk until Ensure or
// SetRoot is called.
func New(guard *pathguard.Guard, opts Options) *OutputStore {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if guard == nil {
		guard = pathguard.New(opts.Logger)
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultRoot()
	}
	return &OutputStore{
		guard:    guard,
		fallback: opts.Fallback,
		sandbox:  opts.Sandbox,
		logger:   opts.Logger,
	}
}

// Root returns the current root, or "" if none has been established yet.
func (s *OutputStore) Root() string {
	if p := s.root.Load(); p != nil {
		return *p
	}
	return ""
}

// Ensure returns the output root, creating it and its parents if needed.
func (s *OutputStore) Ensure() (string, error) {
	if p := s.root.Load(); p != nil {
		if err := os.MkdirAll(*p, 0o755); err != nil {
			return "", errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to create output directory").WithPaths(*p, "")
		}
		return *p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// SetRoot may have won while we waited.
	if p := s.root.Load(); p != nil {
		return *p, nil
	}

	dir, err := s.guard.Confine(s.fallback, "")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to create output directory").WithPaths(dir, "")
	}
	s.root.CompareAndSwap(nil, &dir)
	s.logger.Debug("output directory ready", "dir", dir)
	return *s.root.Load(), nil
}

// SetRoot validates path, creates it if needed, checks it is writable and
// makes it the output root. On any failure the previous root stays in place.
func (s *OutputStore) SetRoot(path string) (string, error) {
	dir, err := s.guard.Confine(path, s.sandbox)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		if os.IsPermission(err) {
			return "", errors.Wrap(errors.ErrCodeSecurity, err, "No write permission for directory: %s", dir).WithPaths(dir, s.sandbox)
		}
		return "", errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to set output directory").WithPaths(dir, s.sandbox)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to set output directory").WithPaths(dir, s.sandbox)
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrCodeFileOperation, "Output path is not a directory: %s", dir).WithPaths(dir, s.sandbox)
	}

	if err := probeWritable(dir); err != nil {
		if os.IsPermission(err) {
			return "", errors.Wrap(errors.ErrCodeSecurity, err, "No write permission for directory: %s", dir).WithPaths(dir, s.sandbox)
		}
		return "", errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to set output directory").WithPaths(dir, s.sandbox)
	}

	s.root.Store(&dir)
	s.logger.Info("output directory set", "dir", dir)
	return dir, nil
}

// Resolve returns the confined path of name inside the current root,
// appending ext when name does not already end with it.
// Ensure must have been called first.
func (s *OutputStore) Resolve(name, ext string, accepted ...string) (string, error) {
	root := s.Root()
	if root == "" {
		return "", errors.New(errors.ErrCodeFileOperation, "output directory not initialized")
	}
	name = pathguard.EnsureExtension(name, ext, accepted...)
	return s.guard.Confine(filepath.Join(root, name), root)
}

// tempPrefix marks in-flight writes in the output root.
const tempPrefix = ".graphcp-"

// TempPath returns a hidden, unique sibling of target for writing before
// an atomic rename. The name does not embed target's base, so any name
// that is legal for target is also writable through its temp file.
func TempPath(target string) string {
	return filepath.Join(filepath.Dir(target), fmt.Sprintf("%s%s.tmp", tempPrefix, uuid.NewString()))
}

// WriteFileAtomic writes data to a temp sibling of path and renames it over
// path. A failed write leaves any existing file untouched.
func WriteFileAtomic(path string, data []byte) error {
	tmp := TempPath(path)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// probeWritable creates and removes a scratch file in dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".graphcp_write_test_*")
	if err != nil {
		return err
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := os.Remove(name)
	return stderrors.Join(closeErr, removeErr)
}
