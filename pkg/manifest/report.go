package manifest

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gafetes/pkg/errors"
)

// UnrecognizedAsset is a directory entry whose name could not be decoded.
type UnrecognizedAsset struct {
	Name string
	Err  error
}

// Report collects the non-fatal findings of a build. It is returned even
// when Build fails so the operator sees every problem at once.
type Report struct {
	Dir          string
	Recognized   int
	Expected     int // 0 when unknown
	Unrecognized []UnrecognizedAsset
	Warnings     []*errors.Error
}

// HasWarnings reports whether anything beyond a clean build was found.
func (r *Report) HasWarnings() bool {
	return len(r.Unrecognized) > 0 || len(r.Warnings) > 0
}

func (r *Report) warn(err *errors.Error) {
	r.Warnings = append(r.Warnings, err)
}

// Log writes the report to logger, one line per finding.
func (r *Report) Log(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	for _, u := range r.Unrecognized {
		logger.Warn("unrecognized asset", "file", u.Name, "reason", errors.UserMessage(u.Err))
	}
	for _, w := range r.Warnings {
		logger.Warn(errors.UserMessage(w), "code", w.Code)
	}
	logger.Debug("scan summary",
		"dir", r.Dir,
		"recognized", r.Recognized,
		"unrecognized", len(r.Unrecognized),
		"warnings", len(r.Warnings))
}
