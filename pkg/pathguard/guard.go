package pathguard

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphcp/pkg/errors"
)

// forbiddenChars are rejected anywhere in a canonical path.
const forbiddenChars = "<>|*?"

// Guard canonicalizes candidate paths and confines them to a root.
// A Guard holds no mutable state and is safe for concurrent use.
type Guard struct {
	Logger *log.Logger
}

// New creates a Guard that reports suspicious path segments to logger.
// If logger is nil, log.Default() is used.
func New(logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{Logger: logger}
}

// Confine returns the canonical form of candidate.
//
// If root is non-empty, the canonical candidate must be the canonical root
// or a descendant of it. Segments that start with a dot (hidden files,
// "..." tricks) are logged as suspicious but accepted.
//
// Confine never creates, reads or removes the path.
func (g *Guard) Confine(candidate, root string) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", errors.New(errors.ErrCodeSecurity, "path cannot be empty")
	}
	if strings.ContainsRune(candidate, 0) {
		return "", errors.New(errors.ErrCodeSecurity, "path contains a null byte").WithPaths(candidate, root)
	}

	path, err := Canonicalize(candidate)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeSecurity, err, "path validation failed").WithPaths(candidate, root)
	}

	if strings.ContainsAny(path, forbiddenChars) {
		return "", errors.New(errors.ErrCodeSecurity, "path contains invalid characters: %q", path).WithPaths(path, root)
	}

	if root != "" {
		base, err := Canonicalize(root)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeSecurity, err, "root validation failed").WithPaths(path, root)
		}
		if !Within(path, base) {
			return "", errors.New(errors.ErrCodeSecurity, "path '%s' is outside allowed directory '%s'", path, base).WithPaths(path, base)
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") {
			g.Logger.Warn("suspicious path component detected", "component", part, "path", path)
		}
	}

	return path, nil
}

// Within reports whether path equals base or lies below it.
// Both arguments must already be canonical.
func Within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// maxLinkHops bounds symlink chains followed by Canonicalize.
const maxLinkHops = 40

// Canonicalize returns the absolute, cleaned form of p with symlinks
// resolved on its longest existing prefix. The non-existing remainder is
// appended lexically, so paths that are about to be created canonicalize
// the same way before and after creation. Dangling symlinks are followed to
// their target so a write through them cannot land outside a checked root.
func Canonicalize(p string) (string, error) {
	return canonicalize(p, 0)
}

func canonicalize(p string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", stderrors.New("too many levels of symbolic links")
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	existing := abs
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !isMissing(err) {
			return "", err
		}

		if target, ok := danglingLink(existing); ok {
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(existing), target)
			}
			return canonicalize(filepath.Join(append([]string{target}, rest...)...), hops+1)
		}

		parent := filepath.Dir(existing)
		if parent == existing {
			// Nothing on the path exists, not even the volume root.
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

// danglingLink returns the target of p if p is a symlink whose target
// does not exist.
func danglingLink(p string) (string, bool) {
	info, err := os.Lstat(p)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return "", false
	}
	target, err := os.Readlink(p)
	if err != nil {
		return "", false
	}
	return target, true
}

// isMissing reports whether err means a path component does not exist.
// ENOTDIR counts as missing: a later MkdirAll or write reports it properly.
func isMissing(err error) bool {
	return os.IsNotExist(err) || stderrors.Is(err, syscall.ENOTDIR)
}
