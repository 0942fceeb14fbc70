// Package asset defines the ordering key and role shared by every pipeline
// stage, and the namer that embeds them in filenames.
//
// # Overview
//
// Every file the pipeline produces (generated badge PDFs, scaled images)
// carries its print position in its name: a zero-padded ordering key and a
// role tag.
//
//	001_director.pdf          written by the generator
//	001_director_scaled.png   written by the scaler (suffix appended)
//
// Downstream stages never trust directory listing order. They decode the
// name and sort by [Key].
//
// # Encoding
//
//	n := asset.NamerFor(len(records))
//	name, err := n.Encode(7, asset.Director) // "007_director"
//
// # Decoding
//
// [Decode] accepts any extension and any suffix appended after the encoded
// segment, as long as a separator (".", "_" or "-") follows the role:
//
//	a, err := asset.Decode("scaled/007_director_300dpi.png")
//	// a.Key == 7, a.Role == asset.Director
package asset

import (
	"fmt"

	"github.com/matzehuels/gafetes/pkg/errors"
)

// Key is the roster-derived ordering key. It is positive and unique per
// print run; lower keys print earlier.
type Key int

// Valid reports whether k is a usable ordering key.
func (k Key) Valid() bool { return k > 0 }

// Role identifies whose badge an asset is.
type Role int

const (
	// Director is the badge of the roster row's primary attendee.
	Director Role = iota + 1
	// Companion is the badge of the director's companion.
	Companion
)

var roleNames = map[Role]string{
	Director:  "director",
	Companion: "companion",
}

// String returns the role tag used in filenames.
func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is Director or Companion.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole converts a role tag back into a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown role %q (must be director or companion)", s)
}

// Name is a decoded asset filename.
type Name struct {
	Key  Key
	Role Role
}

func (n Name) String() string {
	return fmt.Sprintf("%d/%s", n.Key, n.Role)
}
