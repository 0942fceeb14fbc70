// Package manifest builds and serialises the ordered badge manifest.
//
// The manifest is the only artifact that carries print order from the
// scaling stage to the composer. It is produced by [Build] from a directory
// of scaled assets and persisted with [WriteFile]:
//
//	m, report, err := manifest.Build("scaled", manifest.BuildOptions{
//	    Roster: records,
//	})
//	if err != nil {
//	    return err // DUPLICATE_ROLE / ORPHAN_COMPANION, joined
//	}
//	report.Log(logger)
//	err = manifest.WriteFile("manifest.json", m)
//
// # Ordering
//
// Pairs are sorted ascending by ordering key when built, and [Read] rejects
// any file whose keys are not strictly ascending. Consumers iterate
// [Manifest.Pairs] in order and never sort.
//
// # Determinism
//
// [Marshal] output depends only on the pairs, so rebuilding an unchanged
// directory yields a byte-identical file. [Manifest.ID] is a name-based
// UUID of the serialised pairs and changes whenever the print order or any
// path changes.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/fsutil"
)

// Version is the interchange format version written by this package.
const Version = 1

// idNamespace scopes manifest IDs so they never collide with other
// name-based UUIDs derived from the same bytes.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/gafetes/manifest"))

// Pair is one print position: a director asset and, optionally, the
// companion asset sharing its ordering key.
type Pair struct {
	Key           asset.Key `json:"ordering_key"`
	DirectorPath  string    `json:"director_path"`
	CompanionPath string    `json:"companion_path,omitempty"`
}

// HasCompanion reports whether the pair carries a companion asset.
func (p Pair) HasCompanion() bool { return p.CompanionPath != "" }

// Assets returns the pair's paths with their roles, director first.
func (p Pair) Assets() []Entry {
	out := []Entry{{Role: asset.Director, Path: p.DirectorPath}}
	if p.HasCompanion() {
		out = append(out, Entry{Role: asset.Companion, Path: p.CompanionPath})
	}
	return out
}

// Entry is a single asset path tagged with its role.
type Entry struct {
	Role asset.Role
	Path string
}

// Manifest is the ordered, paired list of assets to print.
type Manifest struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Pairs   []Pair `json:"pairs"`
}

// New returns a manifest over pairs, which must already be sorted.
func New(pairs []Pair) *Manifest {
	return &Manifest{Version: Version, ID: computeID(pairs), Pairs: pairs}
}

// Len returns the number of pairs.
func (m *Manifest) Len() int { return len(m.Pairs) }

// AssetCount returns the number of asset paths referenced.
func (m *Manifest) AssetCount() int {
	n := 0
	for _, p := range m.Pairs {
		n += len(p.Assets())
	}
	return n
}

// CompanionCount returns the number of pairs with a companion.
func (m *Manifest) CompanionCount() int {
	n := 0
	for _, p := range m.Pairs {
		if p.HasCompanion() {
			n++
		}
	}
	return n
}

func computeID(pairs []Pair) string {
	data, err := json.Marshal(pairs)
	if err != nil {
		return ""
	}
	return uuid.NewSHA1(idNamespace, data).String()
}

// Marshal serialises m as indented JSON with a trailing newline.
func Marshal(m *Manifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	return append(data, '\n'), nil
}

// WriteFile writes m to path atomically: readers see either the previous
// file or the complete new one.
func WriteFile(path string, m *Manifest) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadFile reads and validates the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s not found", path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Read(bytes.NewReader(data))
}

// Read decodes and validates a manifest.
func Read(r io.Reader) (*Manifest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural invariants the composer relies on: a known
// version, at least one pair, strictly ascending positive keys and a
// director path on every pair. A non-empty ID must match the pairs.
func (m *Manifest) Validate() error {
	if m == nil {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest is nil")
	}
	if m.Version != Version {
		return errors.New(errors.ErrCodeInvalidManifest, "unsupported manifest version %d (want %d)", m.Version, Version)
	}
	if len(m.Pairs) == 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest has no pairs")
	}

	var prev asset.Key
	for i, p := range m.Pairs {
		if !p.Key.Valid() {
			return errors.New(errors.ErrCodeInvalidManifest, "pair %d: ordering key must be positive, got %d", i, p.Key)
		}
		if p.Key <= prev {
			return errors.New(errors.ErrCodeInvalidManifest,
				"pair %d: ordering key %d does not follow %d", i, p.Key, prev).WithAsset(int(p.Key), "")
		}
		if p.DirectorPath == "" {
			return errors.New(errors.ErrCodeInvalidManifest,
				"pair %d has no director path", i).WithAsset(int(p.Key), asset.Director.String())
		}
		prev = p.Key
	}

	if m.ID != "" && m.ID != computeID(m.Pairs) {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest id %s does not match its pairs", m.ID)
	}
	return nil
}
