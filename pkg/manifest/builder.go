package manifest

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
	"github.com/matzehuels/gafetes/pkg/roster"
)

// BuildOptions tune the diagnostics of [Build]. The zero value is valid.
type BuildOptions struct {
	// ExpectedAssets is the number of assets a complete run produces.
	// When zero it is derived from Roster, if set.
	ExpectedAssets int

	// Roster enables per-key checks: directors with no asset and
	// companions the roster promises but the directory lacks.
	Roster []roster.Record

	Logger *log.Logger
}

// group holds every path decoded for one ordering key.
type group struct {
	directors  []string
	companions []string
}

// Build scans dir and returns the ordered manifest of its assets.
//
// Directory listing order is ignored. Files whose names do not decode are
// recorded in the report and left out. Pairing conflicts (two assets for one
// key and role, or a companion with no director) are all collected and
// returned joined, in which case no manifest is returned.
func Build(dir string, opts BuildOptions) (*Manifest, *Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	report := &Report{Dir: dir}

	if err := errors.ValidatePath(dir); err != nil {
		return nil, report, err
	}
	// Paths are recorded absolute so the manifest can be composed from any
	// working directory.
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, report, fmt.Errorf("resolve asset directory: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, report, errors.Wrap(errors.ErrCodeFileNotFound, err, "asset directory %s not found", dir)
		}
		return nil, report, fmt.Errorf("read asset directory: %w", err)
	}

	groups := make(map[asset.Key]*group)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, ".") {
			logger.Debug("skipping hidden file", "file", name)
			continue
		}
		a, err := asset.Decode(name)
		if err != nil {
			report.Unrecognized = append(report.Unrecognized, UnrecognizedAsset{Name: name, Err: err})
			continue
		}
		report.Recognized++

		g := groups[a.Key]
		if g == nil {
			g = &group{}
			groups[a.Key] = g
		}
		path := filepath.Join(root, name)
		if a.Role == asset.Director {
			g.directors = append(g.directors, path)
		} else {
			g.companions = append(g.companions, path)
		}
	}

	keys := make([]asset.Key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var (
		pairs    []Pair
		conflict []error
	)
	for _, k := range keys {
		g := groups[k]
		if err := g.check(k); err != nil {
			conflict = append(conflict, err...)
			continue
		}
		p := Pair{Key: k, DirectorPath: g.directors[0]}
		if len(g.companions) == 1 {
			p.CompanionPath = g.companions[0]
		}
		pairs = append(pairs, p)
	}

	checkExpectations(report, groups, opts)

	if len(conflict) > 0 {
		return nil, report, stderrors.Join(conflict...)
	}
	if len(pairs) == 0 {
		return nil, report, errors.New(errors.ErrCodeInvalidInput, "no badge assets found in %s", dir)
	}

	m := New(pairs)
	logger.Debug("built manifest", "pairs", len(pairs), "companions", m.CompanionCount(), "id", m.ID)
	return m, report, nil
}

// check returns every pairing conflict in g. Listed paths are sorted so
// the messages are stable across runs.
func (g *group) check(k asset.Key) []error {
	var errs []error
	if len(g.directors) > 1 {
		sort.Strings(g.directors)
		errs = append(errs, errors.New(errors.ErrCodeDuplicateRole,
			"%d assets claim the same slot: %s", len(g.directors), baseNames(g.directors)).
			WithAsset(int(k), asset.Director.String()))
	}
	if len(g.companions) > 1 {
		sort.Strings(g.companions)
		errs = append(errs, errors.New(errors.ErrCodeDuplicateRole,
			"%d assets claim the same slot: %s", len(g.companions), baseNames(g.companions)).
			WithAsset(int(k), asset.Companion.String()))
	}
	if len(g.directors) == 0 {
		errs = append(errs, errors.New(errors.ErrCodeOrphanCompanion,
			"companion %s has no director", filepath.Base(g.companions[0])).
			WithAsset(int(k), asset.Companion.String()))
	}
	return errs
}

func checkExpectations(report *Report, groups map[asset.Key]*group, opts BuildOptions) {
	expected := opts.ExpectedAssets
	if expected == 0 && len(opts.Roster) > 0 {
		expected = roster.ExpectedAssets(opts.Roster)
	}
	report.Expected = expected
	if expected > 0 && report.Recognized != expected {
		report.warn(errors.New(errors.ErrCodeCountMismatch,
			"found %d assets, expected %d", report.Recognized, expected))
	}

	for _, rec := range opts.Roster {
		g := groups[rec.Key]
		if g == nil || len(g.directors) == 0 {
			report.warn(errors.New(errors.ErrCodeMissingAsset, "%s has no badge asset", rec.FullName).
				WithAsset(int(rec.Key), asset.Director.String()))
			continue
		}
		if rec.HasCompanion() && len(g.companions) == 0 {
			report.warn(errors.New(errors.ErrCodeIncompletePair, "companion of %s has no badge asset", rec.FullName).
				WithAsset(int(rec.Key), asset.Companion.String()))
		}
	}
}

func baseNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}
