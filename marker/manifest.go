package marker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Status classifies an artifact path against the manifest.
type Status uint8

const (
	// StatusAbsent means the artifact was never recorded.
	StatusAbsent Status = iota
	// StatusFresh means the artifact is recorded with the same content hash.
	StatusFresh
	// StatusStale means the artifact is recorded but the newly rendered
	// content differs: the template changed since the file was generated.
	StatusStale
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	default:
		return "absent"
	}
}

// manifestDir and manifestFile locate the persisted state under the target.
const (
	manifestDir  = ".appforge"
	manifestFile = "manifest"
)

// Manifest records the content hash of every artifact written into a target
// directory. Keys are target-relative paths.
type Manifest struct {
	path    string
	Entries map[string]string
}

// persisted is the on-disk msgpack shape of a Manifest.
type persisted struct {
	Version int               `msgpack:"version"`
	Entries map[string]string `msgpack:"entries"`
}

// LoadManifest reads the manifest stored under target, returning an empty
// manifest when none exists yet.
func LoadManifest(target string) (*Manifest, error) {
	m := &Manifest{
		path:    filepath.Join(target, manifestDir, manifestFile),
		Entries: make(map[string]string),
	}
	buf, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}
	var p persisted
	if err := msgpack.Unmarshal(buf, &p); err != nil {
		return nil, err
	}
	if p.Entries != nil {
		m.Entries = p.Entries
	}
	return m, nil
}

// Status compares the newly rendered body against the recorded hash for the
// given target-relative path.
func (m *Manifest) Status(relPath string, body []byte) Status {
	recorded, ok := m.Entries[relPath]
	if !ok {
		return StatusAbsent
	}
	if recorded == Hash(body) {
		return StatusFresh
	}
	return StatusStale
}

// Record stores the content hash for a just-written artifact.
func (m *Manifest) Record(relPath string, body []byte) {
	m.Entries[relPath] = Hash(body)
}

// Save persists the manifest, creating the state directory if needed.
func (m *Manifest) Save() error {
	buf, err := msgpack.Marshal(persisted{Version: 1, Entries: m.Entries})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".manifest-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), m.path)
}

// Hash returns the hex sha256 digest of body.
func Hash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
