package pkg

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

func TestIdentity(t *testing.T) {
	if Name != "datalit" {
		t.Errorf("Name = %q", Name)
	}

	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(Version) {
		t.Errorf("Version = %q", Version)
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] is empty", i)
		}
	}
}

func TestError_Chain(t *testing.T) {
	cause := fs.ErrNotExist
	err := ErrReadInput.Wrap(cause).Wrapf("file %s", "in.txt")

	if got := err.Error(); got != "failed to read input: file does not exist: file in.txt" {
		t.Errorf("Error() = %q", got)
	}

	tests := []struct {
		name   string
		target error
		want   bool
	}{
		{"sentinel", ErrReadInput, true},
		{"cause", fs.ErrNotExist, true},
		{"other sentinel", ErrNoSchema, false},
		{"other cause", fs.ErrPermission, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(err, tt.target); got != tt.want {
				t.Errorf("errors.Is = %v, want %v", got, tt.want)
			}
		})
	}

	if len(ErrReadInput) != 1 {
		t.Error("Wrap modified the sentinel")
	}
}

func TestMakeError_Flattens(t *testing.T) {
	inner := fmt.Errorf("outer: %w", errors.New("inner"))
	e := MakeError(nil, inner, ErrQuery)

	if len(e) != 3 {
		t.Fatalf("MakeError = %d errors: %v", len(e), e)
	}

	if !strings.HasPrefix(e.Error(), "inner: outer: inner: query error") {
		t.Errorf("Error() = %q", e.Error())
	}

	if MakeError() != nil {
		t.Error("MakeError() is not nil")
	}
}
