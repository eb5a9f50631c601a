// Package dot pre-checks Graphviz DOT description text.
//
// The checks are deliberately shallow: they reject empty input, text that
// does not have the outer "[strict] (graph|digraph) [id] { ... }" shape, and
// unbalanced braces before any renderer is started. Whatever survives is
// handed to a [Checker], normally the Graphviz engine, which is the
// authoritative judge.
package dot

import (
	"context"
	"regexp"
	"strings"

	"github.com/matzehuels/graphcp/pkg/errors"
)

// DefaultMaxBytes is the default upper bound on description size.
const DefaultMaxBytes = 1 << 20

// graphShape matches the outer structure of a DOT graph on trimmed input.
var graphShape = regexp.MustCompile(`(?is)^(strict\s+)?(graph|digraph)(\s+[\p{L}\p{N}_.]+|\s*"(?:[^"\\]|\\.)*")?\s*\{.*\}$`)

// Checker compiles a description without producing output.
type Checker interface {
	CheckOnly(ctx context.Context, description string) error
}

// Validator runs the structural checks and then the Checker.
type Validator struct {
	Checker  Checker
	MaxBytes int
}

// NewValidator creates a Validator. A nil checker skips the compile step;
// maxBytes <= 0 selects DefaultMaxBytes.
func NewValidator(checker Checker, maxBytes int) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{Checker: checker, MaxBytes: maxBytes}
}

// Validate returns nil if description looks like a DOT graph the checker
// accepts. Rejections carry errors.ErrCodeDOTSyntax, except oversized input
// which carries errors.ErrCodeInvalidParameter.
func (v *Validator) Validate(ctx context.Context, description string) error {
	if v.MaxBytes > 0 && len(description) > v.MaxBytes {
		return errors.New(errors.ErrCodeInvalidParameter, "DOT content too large (%d bytes, max %d)", len(description), v.MaxBytes)
	}
	if err := CheckStructure(description); err != nil {
		return err
	}
	if v.Checker == nil {
		return nil
	}
	if err := v.Checker.CheckOnly(ctx, description); err != nil {
		return errors.Wrap(errors.ErrCodeDOTSyntax, err, "Invalid DOT syntax")
	}
	return nil
}

// CheckStructure performs the cheap checks only.
func CheckStructure(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return errors.New(errors.ErrCodeDOTSyntax, "DOT content is empty")
	}
	if !graphShape.MatchString(trimmed) {
		return errors.New(errors.ErrCodeDOTSyntax, "DOT content does not match basic graph syntax")
	}
	if !bracesBalanced(trimmed) {
		return errors.New(errors.ErrCodeDOTSyntax, "Unbalanced braces in DOT content")
	}
	return nil
}

// bracesBalanced counts braces outside double-quoted strings. The depth
// may never go negative and must end at zero.
func bracesBalanced(s string) bool {
	depth := 0
	inQuote := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
