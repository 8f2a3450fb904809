package patch // import "divergent/wxpatch/pkg/patch"

import (
	"errors"
	"fmt"
	"strings"
)

// State of a patch with respect to the current contents of its target file.
type State int

const (
	// StateUnknown means neither the needles nor the applied marker were
	// found: the target drifted from anything we recognize.
	StateUnknown State = iota
	StatePending
	StateApplied
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Edit is a single literal substitution. Find is matched as exact bytes,
// no regex, no whitespace normalization.
type Edit struct {
	Find    string `yaml:"find" json:"find"`
	Replace string `yaml:"replace" json:"replace"`
}

// Patch describes one hand-edit against one target file. Either Edits or
// Body is set: Edits rewrites substrings in place, Body swaps in a whole
// new file. Marker is the literal text whose presence means the patch was
// already applied; when empty, the edits' replacement strings stand in
// for it.
type Patch struct {
	Name   string `yaml:"name" json:"name"`
	Root   string `yaml:"root" json:"root"` // "backend" or "app"
	Target string `yaml:"target" json:"target"`
	Note   string `yaml:"note,omitempty" json:"note,omitempty"`
	Edits  []Edit `yaml:"edits,omitempty" json:"edits,omitempty"`
	Body   string `yaml:"body,omitempty" json:"body,omitempty"`
	Marker string `yaml:"marker,omitempty" json:"marker,omitempty"`
	// BodyGuards are needles that must be present before a body swap is
	// allowed; they keep a full-file rewrite from clobbering a target we
	// don't recognize.
	BodyGuards []string `yaml:"guards,omitempty" json:"guards,omitempty"`
}

var ErrNeedleNotFound = errors.New("expected text not found")

// Validate rejects patches that could never match or never be detected as
// applied. Patchset files go through here too, so messages name fields the
// way the YAML spells them.
func (p Patch) Validate() error {
	if p.Name == "" {
		return errors.New("patch has no name")
	}
	if p.Target == "" {
		return fmt.Errorf("patch %s has no target", p.Name)
	}
	if p.Root != "backend" && p.Root != "app" {
		return fmt.Errorf("patch %s: root must be backend or app, got %q", p.Name, p.Root)
	}
	if len(p.Edits) == 0 && p.Body == "" {
		return fmt.Errorf("patch %s has neither edits nor body", p.Name)
	}
	if len(p.Edits) > 0 && p.Body != "" {
		return fmt.Errorf("patch %s has both edits and a body", p.Name)
	}
	if p.Body != "" && p.Marker == "" {
		return fmt.Errorf("patch %s: body patches need a marker", p.Name)
	}
	if len(p.BodyGuards) > 0 && p.Body == "" {
		return fmt.Errorf("patch %s: guards only make sense with a body", p.Name)
	}
	for i, e := range p.Edits {
		if e.Find == "" {
			return fmt.Errorf("patch %s: edit %d has an empty find", p.Name, i)
		}
		// without a marker, the replacement text is how we detect an
		// applied patch, and a deletion leaves nothing to detect
		if e.Replace == "" && p.Marker == "" {
			return fmt.Errorf("patch %s: edit %d deletes text, set a marker so the patch can read as applied", p.Name, i)
		}
	}
	return nil
}

// StateOf classifies the target contents. Applied wins over pending so a
// replacement that happens to contain its own needle still reads as done.
func (p Patch) StateOf(contents []byte) State {
	s := string(contents)
	if p.appliedIn(s) {
		return StateApplied
	}
	if p.pendingIn(s) {
		return StatePending
	}
	return StateUnknown
}

func (p Patch) appliedIn(s string) bool {
	if p.Marker != "" {
		return strings.Contains(s, adaptEOL(p.Marker, s))
	}
	for _, e := range p.Edits {
		if e.Replace == "" || !strings.Contains(s, adaptEOL(e.Replace, s)) {
			return false
		}
	}
	return len(p.Edits) > 0
}

func (p Patch) pendingIn(s string) bool {
	if p.Body != "" {
		for _, g := range p.BodyGuards {
			if !strings.Contains(s, adaptEOL(g, s)) {
				return false
			}
		}
		return true
	}
	for _, e := range p.Edits {
		if !strings.Contains(s, adaptEOL(e.Find, s)) {
			return false
		}
	}
	return true
}

// Apply rewrites contents. All edits must match or nothing is changed:
// a patch with several edits applies all or none.
func (p Patch) Apply(contents []byte) ([]byte, error) {
	s := string(contents)
	if p.Body != "" {
		for _, g := range p.BodyGuards {
			if !strings.Contains(s, adaptEOL(g, s)) {
				return nil, fmt.Errorf("%w: %q", ErrNeedleNotFound, truncate(g, 60))
			}
		}
		return []byte(adaptEOL(p.Body, s)), nil
	}
	for _, e := range p.Edits {
		if !strings.Contains(s, adaptEOL(e.Find, s)) {
			return nil, fmt.Errorf("%w: %q", ErrNeedleNotFound, truncate(e.Find, 60))
		}
	}
	for _, e := range p.Edits {
		s = strings.ReplaceAll(s, adaptEOL(e.Find, s), adaptEOL(e.Replace, s))
	}
	return []byte(s), nil
}

// Needles, replacements and bodies are authored with bare \n. The backend
// checkout uses CRLF, so snippets are rewritten to the target's line
// endings before any byte comparison.
func adaptEOL(snippet, contents string) string {
	if strings.Contains(contents, "\r\n") && !strings.Contains(snippet, "\r") {
		return strings.ReplaceAll(snippet, "\n", "\r\n")
	}
	return snippet
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
