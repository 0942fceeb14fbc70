package roster

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
)

// Header aliases, in normalized form (see normalizeHeader).
var (
	keyAliases           = []string{"orden", "orderingkey", "key", "#", "numero", "no"}
	nameAliases          = []string{"nombre", "nombrecompleto", "fullname", "name"}
	firstNameAliases     = []string{"primernombre", "firstname"}
	lastNameAliases      = []string{"primerapellido", "lastname"}
	flagAliases          = []string{"llevaconyugue", "hascompanion", "acompanante"}
	companionAliases     = []string{"companionname", "nombreconyugue", "nombreacompanante"}
	companionFirstAlias  = []string{"primernombreconyugue", "companionfirstname"}
	companionLastAliases = []string{"primerapellidoconyugue", "companionlastname"}
	qrAliases            = []string{"qr", "qrpayload", "codigo"}
	companionQRAliases   = []string{"qrconyugue", "companionqr", "qracompanante"}
)

// truthy lists the spellings the event spreadsheets use for "yes".
var truthy = map[string]bool{
	"SI": true, "SÍ": true, "S": true, "YES": true, "Y": true,
	"1": true, "TRUE": true, "VERDADERO": true, "X": true,
}

// columns holds the index of each recognised header, or -1.
type columns struct {
	key            int
	name           int
	first          int
	last           int
	flag           int
	companion      int
	companionFirst int
	companionLast  int
	qr             int
	companionQR    int
}

func mapColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := idx[n]; !dup && n != "" {
			idx[n] = i
		}
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := idx[a]; ok {
				return i
			}
		}
		return -1
	}

	c := columns{
		key:            find(keyAliases),
		name:           find(nameAliases),
		first:          find(firstNameAliases),
		last:           find(lastNameAliases),
		flag:           find(flagAliases),
		companion:      find(companionAliases),
		companionFirst: find(companionFirstAlias),
		companionLast:  find(companionLastAliases),
		qr:             find(qrAliases),
		companionQR:    find(companionQRAliases),
	}
	if c.name < 0 && c.first < 0 {
		return c, errors.New(errors.ErrCodeInvalidRoster,
			"roster header has no name column (expected one of Nombre, full_name, PrimerNombre)")
	}
	return c, nil
}

func (c columns) record(row []string, dataRow int) (Record, error) {
	rec := Record{Role: asset.Director}

	if c.key >= 0 {
		k, err := parseKey(cell(row, c.key))
		if err != nil {
			return rec, err
		}
		rec.Key = k
	} else {
		rec.Key = asset.Key(dataRow)
	}

	rec.FullName = joinName(row, c.name, c.first, c.last)
	if rec.FullName == "" {
		return rec, fmt.Errorf("missing attendee name")
	}

	companion := joinName(row, c.companion, c.companionFirst, c.companionLast)
	if c.flag >= 0 {
		flagged := truthy[strings.ToUpper(strings.TrimSpace(cell(row, c.flag)))]
		if flagged && companion == "" {
			return rec, fmt.Errorf("companion flagged but no companion name given")
		}
		if !flagged {
			companion = ""
		}
	}
	rec.CompanionName = companion
	rec.QRPayload = cell(row, c.qr)
	if companion != "" {
		rec.CompanionQR = cell(row, c.companionQR)
	}
	return rec, nil
}

func parseKey(s string) (asset.Key, error) {
	if s == "" {
		return 0, fmt.Errorf("missing ordering key")
	}
	// Spreadsheet exports sometimes render integers as "12.0".
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("ordering key %q is not an integer", s)
	}
	k := asset.Key(n)
	if !k.Valid() {
		return 0, fmt.Errorf("ordering key %d must be positive", n)
	}
	return k, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func joinName(row []string, full, first, last int) string {
	if s := cell(row, full); s != "" {
		return collapseSpaces(s)
	}
	return collapseSpaces(cell(row, first) + " " + cell(row, last))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeHeader lowercases h, drops accents and keeps only letters,
// digits and '#', so "Primer Nombre", "primer_nombre" and "PrimerNombre"
// all compare equal.
func normalizeHeader(h string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripMarks, h)
	if err != nil {
		s = h
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
