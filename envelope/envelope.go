// Package envelope inserts generated fragments into a shared,
// structurally-delimited configuration file: a fixed header, body lines, and
// a terminator token that is always the last line. Patching preserves that
// invariant or fails without touching the file.
//
// The patcher is append-only and does not deduplicate: patching twice with
// the same fragment inserts it twice. Callers needing idempotence check for
// the fragment's presence first (ContainsLine), because what counts as
// "already present" is caller-specific.
package envelope

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"appforge"
)

// Patcher inserts fragments above a known terminator line.
type Patcher struct {
	// Terminator is the exact line expected at the end of every well-formed
	// envelope, e.g. "end".
	Terminator string
}

// NewPatcher returns a Patcher for the given terminator token.
func NewPatcher(terminator string) *Patcher {
	return &Patcher{Terminator: terminator}
}

// Patch reads the envelope at path, verifies its last line equals the
// expected terminator, and rewrites it as body + fragment + terminator via
// an atomic same-directory temp file and rename. On any failure the file on
// disk is left byte-for-byte unmodified.
func (p *Patcher) Patch(path, fragment string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return appforge.NewEnvelopeNotFoundError(path)
		}
		return err
	}
	if len(buf) == 0 {
		return appforge.NewMalformedEnvelopeError(path, "file is empty")
	}

	text := strings.TrimSuffix(string(buf), "\n")
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	if last != p.Terminator {
		// Never guess where the real terminator is.
		return appforge.NewMalformedEnvelopeError(path,
			"last line "+strconv.Quote(last)+" is not the expected terminator "+strconv.Quote(p.Terminator))
	}

	var b strings.Builder
	for _, line := range lines[:len(lines)-1] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSuffix(fragment, "\n"))
	b.WriteString("\n")
	b.WriteString(p.Terminator)
	b.WriteString("\n")

	return writeAtomic(path, []byte(b.String()))
}

// ContainsLine reports whether any line of the envelope satisfies match.
// Typical matchers compare a route's first token only, ignoring whitespace.
func ContainsLine(path string, match func(line string) bool) (bool, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, appforge.NewEnvelopeNotFoundError(path)
		}
		return false, err
	}
	for _, line := range strings.Split(string(buf), "\n") {
		if match(line) {
			return true, nil
		}
	}
	return false, nil
}

// HasFirstToken returns a matcher that compares the first whitespace-
// delimited token of each line against token.
func HasFirstToken(token string) func(string) bool {
	return func(line string) bool {
		fields := strings.Fields(line)
		return len(fields) > 0 && fields[0] == token
	}
}

// writeAtomic writes data to path via a temp file in the same directory and
// a rename, so an interruption can never leave a half-written envelope.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".appforge-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Keep the original file mode when known.
	if info, err := os.Stat(path); err == nil {
		if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
			return err
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	ok = true
	return nil
}
