package patch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateOf(t *testing.T) {
	tests := []struct {
		name     string
		patch    Patch
		contents string
		expected State
	}{
		{
			name: "needle present",
			patch: Patch{
				Edits: []Edit{{Find: "old-url", Replace: "new-url"}},
			},
			contents: "base = old-url\n",
			expected: StatePending,
		},
		{
			name: "replacement present",
			patch: Patch{
				Edits: []Edit{{Find: "old-url", Replace: "new-url"}},
			},
			contents: "base = new-url\n",
			expected: StateApplied,
		},
		{
			name: "neither present",
			patch: Patch{
				Edits: []Edit{{Find: "old-url", Replace: "new-url"}},
			},
			contents: "base = something-else\n",
			expected: StateUnknown,
		},
		{
			name: "marker wins over needle",
			patch: Patch{
				Edits:  []Edit{{Find: "old-url", Replace: "new-url"}},
				Marker: "PATCHED v2",
			},
			contents: "base = old-url # PATCHED v2\n",
			expected: StateApplied,
		},
		{
			name: "multi edit needs every needle",
			patch: Patch{
				Edits: []Edit{
					{Find: "aaa", Replace: "AAA"},
					{Find: "bbb", Replace: "BBB"},
				},
			},
			contents: "aaa only\n",
			expected: StateUnknown,
		},
		{
			name: "body patch with guard",
			patch: Patch{
				Body:       "whole new file\nNWS_MARK\n",
				Marker:     "NWS_MARK",
				BodyGuards: []string{"open-meteo"},
			},
			contents: "uses open-meteo here\n",
			expected: StatePending,
		},
		{
			name: "body patch already swapped",
			patch: Patch{
				Body:       "whole new file\nNWS_MARK\n",
				Marker:     "NWS_MARK",
				BodyGuards: []string{"open-meteo"},
			},
			contents: "whole new file\nNWS_MARK\n",
			expected: StateApplied,
		},
		{
			name: "crlf target with multiline needle",
			patch: Patch{
				Edits: []Edit{{Find: "if bad:\n  return 0", Replace: "if bad:\n  raise Boom"}},
			},
			contents: "def f():\r\n  if bad:\r\n  return 0\r\n",
			expected: StatePending,
		},
		{
			name: "crlf target with multiline replacement applied",
			patch: Patch{
				Edits: []Edit{{Find: "if bad:\n  return 0", Replace: "if bad:\n  raise Boom"}},
			},
			contents: "def f():\r\n  if bad:\r\n  raise Boom\r\n",
			expected: StateApplied,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.patch.StateOf([]byte(test.contents))
			if got != test.expected {
				t.Errorf("expected state %v, got %v", test.expected, got)
			}
		})
	}
}

func TestApply(t *testing.T) {
	p := Patch{
		Edits: []Edit{
			{Find: "kPageSize = 20", Replace: "kPageSize = 15"},
			{Find: "â†’", Replace: "→"},
		},
	}
	in := "const int kPageSize = 20;\nlabel = 'a â†’ b â†’ c';\n"
	out, err := p.Apply([]byte(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "const int kPageSize = 15;\nlabel = 'a → b → c';\n"
	if diff := cmp.Diff(expected, string(out)); diff != "" {
		t.Errorf("apply mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyAdaptsLineEndings(t *testing.T) {
	p := Patch{
		Edits: []Edit{{Find: "old:\n  a", Replace: "new:\n  b"}},
	}
	out, err := p.Apply([]byte("x\r\nold:\r\n  a\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("x\r\nnew:\r\n  b\r\n", string(out)); diff != "" {
		t.Errorf("apply mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyBodyAdaptsLineEndings(t *testing.T) {
	p := Patch{
		Body:       "# new\nbody\n",
		Marker:     "# new",
		BodyGuards: []string{"OM_BASE"},
	}
	out, err := p.Apply([]byte("OM_BASE = 'x'\r\nrest\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "# new\r\nbody\r\n" {
		t.Errorf("body swap should take the target's line endings, got %q", string(out))
	}
}

func TestApplyAllOrNothing(t *testing.T) {
	p := Patch{
		Edits: []Edit{
			{Find: "present", Replace: "PRESENT"},
			{Find: "missing", Replace: "MISSING"},
		},
	}
	_, err := p.Apply([]byte("only present here\n"))
	if !errors.Is(err, ErrNeedleNotFound) {
		t.Fatalf("expected ErrNeedleNotFound, got %v", err)
	}
}

func TestApplyBody(t *testing.T) {
	p := Patch{
		Body:       "# new body\n",
		Marker:     "# new body",
		BodyGuards: []string{"OM_BASE"},
	}
	out, err := p.Apply([]byte("OM_BASE = 'x'\nrest of old file\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "# new body\n" {
		t.Errorf("body swap produced %q", string(out))
	}

	_, err = p.Apply([]byte("unrecognized file\n"))
	if !errors.Is(err, ErrNeedleNotFound) {
		t.Fatalf("expected ErrNeedleNotFound on failed guard, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{
			name:    "ok edits",
			patch:   Patch{Name: "p", Root: "app", Target: "a.dart", Edits: []Edit{{Find: "x", Replace: "y"}}},
			wantErr: false,
		},
		{
			name:    "ok body",
			patch:   Patch{Name: "p", Root: "backend", Target: "main.py", Body: "b", Marker: "m"},
			wantErr: false,
		},
		{
			name:    "no name",
			patch:   Patch{Root: "app", Target: "a", Edits: []Edit{{Find: "x"}}},
			wantErr: true,
		},
		{
			name:    "bad root",
			patch:   Patch{Name: "p", Root: "frontend", Target: "a", Edits: []Edit{{Find: "x"}}},
			wantErr: true,
		},
		{
			name:    "empty find",
			patch:   Patch{Name: "p", Root: "app", Target: "a", Edits: []Edit{{Find: ""}}},
			wantErr: true,
		},
		{
			name:    "body without marker",
			patch:   Patch{Name: "p", Root: "backend", Target: "a", Body: "b"},
			wantErr: true,
		},
		{
			name:    "edits and body",
			patch:   Patch{Name: "p", Root: "backend", Target: "a", Body: "b", Marker: "m", Edits: []Edit{{Find: "x"}}},
			wantErr: true,
		},
		{
			name:    "guards without body",
			patch:   Patch{Name: "p", Root: "app", Target: "a", Edits: []Edit{{Find: "x"}}, BodyGuards: []string{"g"}},
			wantErr: true,
		},
		{
			name:    "deletion without marker",
			patch:   Patch{Name: "p", Root: "app", Target: "a", Edits: []Edit{{Find: "x", Replace: ""}}},
			wantErr: true,
		},
		{
			name:    "deletion with marker",
			patch:   Patch{Name: "p", Root: "app", Target: "a", Marker: "m", Edits: []Edit{{Find: "x", Replace: ""}}},
			wantErr: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.patch.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("expected error: %v, got: %v", test.wantErr, err)
			}
		})
	}
}
