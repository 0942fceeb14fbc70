// Package roster reads the attendee spreadsheet that seeds a print run.
//
// A roster is a header row followed by one row per director. Columns are
// matched by header name (case- and accent-insensitive) so both the event
// team's Spanish spreadsheets and plain English CSV exports work:
//
//	Orden,PrimerNombre,PrimerApellido,LLevaConyugue,PrimerNombreConyugue,PrimerApellidoConyugue,QR
//	1,Ana,García,SI,Luis,Pérez,ANA-001
//
// When no ordering column exists the 1-based data row index becomes the
// ordering key, so row order in the sheet is print order.
package roster

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
)

// MaxAttendees caps the number of roster rows accepted in one run.
const MaxAttendees = 10000

// Record is one roster row. Records are immutable once read.
type Record struct {
	Key           asset.Key
	FullName      string
	Role          asset.Role // always asset.Director; companions hang off the record
	CompanionName string     // empty when the director attends alone
	QRPayload     string
	CompanionQR   string // only set alongside CompanionName
}

// HasCompanion reports whether a companion badge is expected for r.
func (r Record) HasCompanion() bool {
	return r.CompanionName != ""
}

// ExpectedAssets returns how many badge files a complete run produces for
// records: one per director plus one per companion.
func ExpectedAssets(records []Record) int {
	n := 0
	for _, r := range records {
		n++
		if r.HasCompanion() {
			n++
		}
	}
	return n
}

// MaxKey returns the largest ordering key in records, or 0 if empty.
func MaxKey(records []Record) asset.Key {
	var m asset.Key
	for _, r := range records {
		if r.Key > m {
			m = r.Key
		}
	}
	return m
}

// ReadFile reads a roster from an .xlsx or .csv file.
func ReadFile(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported roster format %q (use .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows parses a header row plus data rows into sorted, validated records.
func FromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRoster, "roster is empty")
	}
	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []Record
	seen := make(map[asset.Key]int)
	dataRow := 0
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, counting the header
		if blank(row) {
			continue
		}
		dataRow++
		if dataRow > MaxAttendees {
			return nil, errors.New(errors.ErrCodeInvalidRoster, "roster exceeds %d attendees", MaxAttendees)
		}

		rec, err := cols.record(row, dataRow)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRoster, err, "row %d", line)
		}
		if prev, ok := seen[rec.Key]; ok {
			return nil, errors.New(errors.ErrCodeInvalidRoster,
				"row %d: ordering key %d already used on row %d", line, rec.Key, prev).WithAsset(int(rec.Key), "")
		}
		seen[rec.Key] = line
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRoster, "roster has a header but no attendees")
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// String renders a one-line summary used in logs.
func (r Record) String() string {
	if r.HasCompanion() {
		return fmt.Sprintf("#%d %s + %s", r.Key, r.FullName, r.CompanionName)
	}
	return fmt.Sprintf("#%d %s", r.Key, r.FullName)
}
