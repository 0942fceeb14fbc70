package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/gafetes/pkg/errors"
)

// DefaultWidth is the zero-padded key width used when no roster size is
// known. Three digits cover the common case of up to 999 directors.
const DefaultWidth = 3

// maxKeyDigits keeps decoded keys well inside int range on every platform.
const maxKeyDigits = 9

// Namer encodes (Key, Role) pairs into filesystem-safe names.
// The zero value uses DefaultWidth.
type Namer struct {
	Width int
}

// NamerFor returns a namer wide enough that every key up to maxKey is
// rendered with the same number of digits.
func NamerFor(maxKey int) Namer {
	w := len(strconv.Itoa(maxKey))
	if w < DefaultWidth {
		w = DefaultWidth
	}
	return Namer{Width: w}
}

func (n Namer) width() int {
	if n.Width <= 0 {
		return DefaultWidth
	}
	return n.Width
}

// Encode renders key and role as "<zero-padded key>_<role>".
// The same (key, role) always yields the same name for a given namer.
func (n Namer) Encode(key Key, role Role) (string, error) {
	if !key.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "ordering key must be positive, got %d", key)
	}
	if !role.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid role %s", role)
	}
	if len(strconv.Itoa(int(key))) > maxKeyDigits {
		return "", errors.New(errors.ErrCodeInvalidInput, "ordering key %d exceeds %d digits", key, maxKeyDigits)
	}
	return fmt.Sprintf("%0*d_%s", n.width(), int(key), role), nil
}

// Filename is Encode followed by ext, which may be given with or without
// its leading dot.
func (n Namer) Filename(key Key, role Role, ext string) (string, error) {
	name, err := n.Encode(key, role)
	if err != nil {
		return "", err
	}
	if ext == "" {
		return name, nil
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return name + ext, nil
}

// namePattern matches the encoded segment at the start of a base name.
// Anything after the role must begin with a separator, so "001_directors"
// is rejected while "001_director.pdf" and "001_director_scaled.png" pass.
var namePattern = regexp.MustCompile(`^([0-9]+)_([a-z]+)(?:[._\-].*)?$`)

// Decode extracts the ordering key and role from a filename or path.
// Only the base name is inspected. Names the pipeline did not produce fail
// with MALFORMED_NAME.
func Decode(name string) (Name, error) {
	base := filepath.Base(name)
	m := namePattern.FindStringSubmatch(base)
	if m == nil {
		return Name{}, errors.New(errors.ErrCodeMalformedName, "%q does not match <key>_<role>", base)
	}

	digits := m[1]
	if len(strings.TrimLeft(digits, "0")) > maxKeyDigits {
		return Name{}, errors.New(errors.ErrCodeMalformedName, "%q: ordering key too long", base)
	}
	k, err := strconv.Atoi(digits)
	if err != nil {
		return Name{}, errors.Wrap(errors.ErrCodeMalformedName, err, "%q: invalid ordering key", base)
	}
	if !Key(k).Valid() {
		return Name{}, errors.New(errors.ErrCodeMalformedName, "%q: ordering key must be positive", base)
	}

	role, err := ParseRole(m[2])
	if err != nil {
		return Name{}, errors.Wrap(errors.ErrCodeMalformedName, err, "%q: unknown role", base)
	}

	return Name{Key: Key(k), Role: role}, nil
}

// Stem returns the base name of path without its final extension.
// The scaler uses it to append a suffix while keeping the encoded segment.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
