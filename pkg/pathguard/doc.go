// Package pathguard confines untrusted filesystem paths and filenames.
//
// Every path graphcp writes to passes through [Guard.Confine], which
// canonicalizes the candidate (absolute form, no "." or ".." segments,
// symlinks resolved on the part of the path that exists) and then checks it
// against an optional root. A candidate is accepted only if its canonical
// form is the root itself or lies below it.
//
// Caller-supplied labels never become path segments directly: they go
// through [SanitizeName] first, which replaces separators and reserved
// characters and never returns an empty name.
//
//	guard := pathguard.New(logger)
//	name := pathguard.EnsureExtension(pathguard.SanitizeName(label), ".dot", ".gv")
//	path, err := guard.Confine(filepath.Join(root, name), root)
//
// Errors returned by this package carry [errors.ErrCodeSecurity].
//
// [errors.ErrCodeSecurity]: github.com/matzehuels/graphcp/pkg/errors
package pathguard
