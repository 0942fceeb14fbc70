package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/gafetes/pkg/asset"
	"github.com/matzehuels/gafetes/pkg/errors"
)

const spanishCSV = `Orden,PrimerNombre,PrimerApellido,LLevaConyugue,PrimerNombreConyugue,PrimerApellidoConyugue,QR,QR_Conyugue
3,Carlos,Ruiz,NO,,,CR-3,CR-3C
1,Ana,García,SÍ,Luis,Pérez,AG-1,AG-1C
2,Beatriz,López,,,,BL-2,
`

func TestFromRowsSpanishHeaders(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(spanishCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	got, err := FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}

	want := []Record{
		{Key: 1, FullName: "Ana García", Role: asset.Director, CompanionName: "Luis Pérez", QRPayload: "AG-1", CompanionQR: "AG-1C"},
		{Key: 2, FullName: "Beatriz López", Role: asset.Director, QRPayload: "BL-2"},
		{Key: 3, FullName: "Carlos Ruiz", Role: asset.Director, QRPayload: "CR-3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if n := ExpectedAssets(got); n != 4 {
		t.Errorf("ExpectedAssets = %d, want 4", n)
	}
	if m := MaxKey(got); m != 3 {
		t.Errorf("MaxKey = %d, want 3", m)
	}
}

func TestFromRowsEnglishHeadersNoKeyColumn(t *testing.T) {
	rows := [][]string{
		{"\ufeffFull Name", "Companion Name"},
		{"Dana Scully", ""},
		{"", ""},
		{"Fox Mulder", "Samantha Mulder"},
	}
	got, err := FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Blank rows do not consume a key.
	if got[0].Key != 1 || got[1].Key != 2 {
		t.Errorf("keys = %d, %d, want 1, 2", got[0].Key, got[1].Key)
	}
	if got[0].HasCompanion() || !got[1].HasCompanion() {
		t.Errorf("companions = %v, %v", got[0].HasCompanion(), got[1].HasCompanion())
	}
}

func TestFromRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"empty", nil},
		{"header only", [][]string{{"Nombre"}}},
		{"no name column", [][]string{{"Orden", "QR"}, {"1", "x"}}},
		{"duplicate key", [][]string{{"Orden", "Nombre"}, {"7", "A"}, {"7", "B"}}},
		{"zero key", [][]string{{"Orden", "Nombre"}, {"0", "A"}}},
		{"negative key", [][]string{{"Orden", "Nombre"}, {"-2", "A"}}},
		{"non numeric key", [][]string{{"Orden", "Nombre"}, {"uno", "A"}}},
		{"missing key", [][]string{{"Orden", "Nombre"}, {"", "A"}}},
		{"missing name", [][]string{{"Orden", "Nombre"}, {"1", ""}}},
		{"flag without companion", [][]string{{"Nombre", "LLevaConyugue", "NombreConyugue"}, {"A", "SI", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows(tt.rows)
			if !errors.Is(err, errors.ErrCodeInvalidRoster) {
				t.Errorf("FromRows error = %v, want INVALID_ROSTER", err)
			}
		})
	}
}

func TestDuplicateKeyNamesKey(t *testing.T) {
	_, err := FromRows([][]string{{"Orden", "Nombre"}, {"7", "A"}, {"7", "B"}})
	all := errors.All(err)
	if len(all) == 0 || all[0].Key != 7 {
		t.Errorf("duplicate key error should carry key 7, got %v", err)
	}
}

func TestFlagWinsOverCompanionName(t *testing.T) {
	rows := [][]string{
		{"Nombre", "LLevaConyugue", "NombreConyugue"},
		{"Ana", "no", "Luis"},
	}
	got, err := FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].HasCompanion() {
		t.Error("companion should be dropped when the flag is false")
	}
}

func TestParseKeyFloatRendering(t *testing.T) {
	k, err := parseKey("12.0")
	if err != nil || k != 12 {
		t.Errorf("parseKey(12.0) = %d, %v", k, err)
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"PrimerNombre":   "primernombre",
		"Primer Nombre":  "primernombre",
		"primer_nombre":  "primernombre",
		"Acompañante":    "acompanante",
		"Número":         "numero",
		"#":              "#",
		" ordering-key ": "orderingkey",
		"LLevaConyugue":  "llevaconyugue",
	}
	for in, want := range tests {
		if got := normalizeHeader(in); got != want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(path, []byte(spanishCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]any{
		{"Orden", "Nombre", "NombreConyugue"},
		{2, "Beatriz López", ""},
		{1, "Ana García", "Luis Pérez"},
	}
	for r, row := range data {
		for c, v := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, ref, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Key != 1 || got[0].CompanionName != "Luis Pérez" {
		t.Errorf("first record = %+v", got[0])
	}
}

func TestReadFileUnsupported(t *testing.T) {
	_, err := ReadFile("roster.ods")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ReadFile(.ods) error = %v, want UNSUPPORTED", err)
	}
}
