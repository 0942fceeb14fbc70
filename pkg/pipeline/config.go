package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gafetes/pkg/errors"
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/gafetes/config.toml, or the
// platform equivalent, or "" if no config directory is known.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gafetes", "config.toml")
}

// LoadConfig reads options from a TOML file. With an empty path the
// default location is tried and a missing file yields zero options; an
// explicit path must exist. Unknown keys are rejected.
//
//	dpi = 300
//	sheet = "tabloid"
//	badge_width_cm = 9
//	badge_height_cm = 14.5
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "720h"
func LoadConfig(path string) (Options, error) {
	var opts Options
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
		if path == "" {
			return opts, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return opts, nil
		}
		if os.IsNotExist(err) {
			return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return opts, errors.New(errors.ErrCodeInvalidConfig,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}
