package dot

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/matzehuels/graphcp/pkg/errors"
)

// fakeChecker records calls and returns err.
type fakeChecker struct {
	calls int
	err   error
}

func (f *fakeChecker) CheckOnly(ctx context.Context, description string) error {
	f.calls++
	return f.err
}

func TestCheckStructure(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"simple digraph", "digraph G { a -> b; }", ""},
		{"no id no space", "digraph{a->b}", ""},
		{"undirected", "graph { a -- b }", ""},
		{"strict", "strict digraph deps { a -> b }", ""},
		{"case insensitive", "DiGraph G { a -> b }", ""},
		{"quoted id", `digraph "my graph" { a -> b }`, ""},
		{"unicode id", "digraph Straße { a -> b }", ""},
		{"unicode id with underscore", "digraph grafo_ñ { a -> b }", ""},
		{"numeric id", "graph 42 { a }", ""},
		{"multiline", "digraph G {\n  a -> b;\n  b -> c;\n}\n", ""},
		{"surrounding whitespace", "  \n digraph { a }  \n", ""},
		{"quoted braces", `digraph { a [label="{"]; }`, ""},
		{"escaped quote", `digraph { a [label="say \"}\""]; }`, ""},

		{"empty", "", "empty"},
		{"whitespace", "   \n\t ", "empty"},
		{"not a graph", "not a graph", "basic graph syntax"},
		{"unterminated", "digraph { ", "basic graph syntax"},
		{"keyword glued to id", "digraphG { a }", "basic graph syntax"},
		{"trailing garbage", "digraph { a } extra", "basic graph syntax"},
		{"extra close", "digraph { a } }", "Unbalanced braces"},
		{"extra open", "digraph { { a }", "Unbalanced braces"},
		{"two bodies left to the renderer", "digraph { a } { }", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStructure(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("CheckStructure(%q) error: %v", tt.input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CheckStructure(%q) = nil, want error containing %q", tt.input, tt.wantErr)
			}
			if !errors.Is(err, errors.ErrCodeDOTSyntax) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeDOTSyntax)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateSkipsCheckerOnCheapRejection(t *testing.T) {
	checker := &fakeChecker{}
	v := NewValidator(checker, 0)

	for _, input := range []string{"", "not a graph", "digraph { "} {
		if err := v.Validate(context.Background(), input); err == nil {
			t.Errorf("Validate(%q) = nil, want error", input)
		}
	}
	if checker.calls != 0 {
		t.Errorf("checker called %d times, want 0", checker.calls)
	}
}

func TestValidateDelegatesToChecker(t *testing.T) {
	checker := &fakeChecker{}
	v := NewValidator(checker, 0)

	if err := v.Validate(context.Background(), "digraph G { a -> b; }"); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if checker.calls != 1 {
		t.Errorf("checker called %d times, want 1", checker.calls)
	}

	cause := stderrors.New("syntax error in line 1 near '->'")
	checker.err = cause
	err := v.Validate(context.Background(), "digraph G { -> }")
	if !errors.Is(err, errors.ErrCodeDOTSyntax) {
		t.Fatalf("Validate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeDOTSyntax)
	}
	if !stderrors.Is(err, cause) {
		t.Error("Validate() should keep the checker error as cause")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error %q should carry the checker message", err.Error())
	}
}

func TestValidateMaxBytes(t *testing.T) {
	v := NewValidator(nil, 32)
	big := "digraph { " + strings.Repeat("a; ", 20) + "}"

	err := v.Validate(context.Background(), big)
	if !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("Validate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidParameter)
	}
	if err := v.Validate(context.Background(), "digraph { a }"); err != nil {
		t.Errorf("Validate() small input error: %v", err)
	}
}

func TestNewValidatorDefaults(t *testing.T) {
	v := NewValidator(nil, 0)
	if v.MaxBytes != DefaultMaxBytes {
		t.Errorf("MaxBytes = %d, want %d", v.MaxBytes, DefaultMaxBytes)
	}
}
