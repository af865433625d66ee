package catalog_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"bitrix_material_bot/internal/catalog"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook creates an in-memory .xlsx with the two target sheets. Data
// rows start on the 5th row, below the header block.
func buildWorkbook(t *testing.T, numbersRows, changesRows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	writeSheet := func(name string, rows [][]interface{}) {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("Failed to create sheet %s: %v", name, err)
		}
		if err := f.SetCellValue(name, "A4", "header"); err != nil {
			t.Fatalf("Failed to write header: %v", err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, 5+i)
			if err != nil {
				t.Fatalf("Failed to build cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("Failed to write row: %v", err)
			}
		}
	}

	writeSheet("Номера", numbersRows)
	writeSheet("Изменение материалов", changesRows)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("Failed to delete default sheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseWorkbookFlattensSheetsInOrder(t *testing.T) {
	data := buildWorkbook(t,
		[][]interface{}{
			{"101", "Bolt M6", "hex bolt", "", "ORD-55"},
			{"102", "Nut M6", "hex nut", "", "ORD-56"},
		},
		[][]interface{}{
			{"x", "y", "z", "w", "CHANGED-42"},
		},
	)

	rows, err := catalog.ParseWorkbook(data)
	if err != nil {
		t.Fatalf("Failed to parse workbook: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Sheet != "Номера" || rows[1].Sheet != "Номера" {
		t.Errorf("Expected first two rows from sheet Номера, got %s, %s", rows[0].Sheet, rows[1].Sheet)
	}
	if rows[2].Sheet != "Изменение материалов" {
		t.Errorf("Expected last row from sheet Изменение материалов, got %s", rows[2].Sheet)
	}
	if rows[0].Cells[1] != "Bolt M6" {
		t.Errorf("Expected cell 'Bolt M6', got '%s'", rows[0].Cells[1])
	}
	if rows[2].Cells[4] != "CHANGED-42" {
		t.Errorf("Expected cell 'CHANGED-42', got '%s'", rows[2].Cells[4])
	}
}

func TestParseWorkbookIdempotent(t *testing.T) {
	data := buildWorkbook(t,
		[][]interface{}{{"101", "Bolt M6", "hex bolt", "", "ORD-55"}},
		[][]interface{}{{"x", "y", "z", "w", "CHANGED-42"}},
	)

	first, err := catalog.ParseWorkbook(data)
	if err != nil {
		t.Fatalf("Failed to parse workbook: %v", err)
	}
	second, err := catalog.ParseWorkbook(data)
	if err != nil {
		t.Fatalf("Failed to re-parse workbook: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Re-parsing the same workbook produced a different table")
	}
}

func TestParseWorkbookMissingSheetsTolerated(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}

	rows, err := catalog.ParseWorkbook(buf.Bytes())
	if err != nil {
		t.Fatalf("Expected missing sheets to be skipped, got error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected empty table, got %d rows", len(rows))
	}
}

func TestParseWorkbookNotXLSX(t *testing.T) {
	if _, err := catalog.ParseWorkbook([]byte("not an xlsx")); err == nil {
		t.Error("Expected error for malformed workbook bytes")
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	rows := []catalog.Row{
		{Sheet: "Номера", Cells: []string{"101", "Bolt M6", "", "", "ORD-55"}},
		{Sheet: "Номера", Cells: []string{"102", "Bolt M6 duplicate", "", "", "ORD-55"}},
	}

	row, ok := catalog.Lookup(rows, "ord-55")
	if !ok {
		t.Fatal("Expected a match")
	}
	if row.Cells[1] != "Bolt M6" {
		t.Errorf("Expected first row in table order, got '%s'", row.Cells[1])
	}
}

func TestLookupTrimsAndLowercasesCells(t *testing.T) {
	rows := []catalog.Row{
		{Sheet: "Номера", Cells: []string{"  ORD-55  "}},
	}

	if _, ok := catalog.Lookup(rows, "ord-55"); !ok {
		t.Error("Expected match against trimmed lower-cased cell")
	}
}

func TestLookupMiss(t *testing.T) {
	rows := []catalog.Row{
		{Sheet: "Номера", Cells: []string{"101", "Bolt M6"}},
	}

	if _, ok := catalog.Lookup(rows, "nothing"); ok {
		t.Error("Expected no match")
	}
	if _, ok := catalog.Lookup(nil, "ord-55"); ok {
		t.Error("Expected no match on empty table")
	}
}

type stubFetcher struct {
	data []byte
	err  error
}

func (s stubFetcher) FetchDocument(ctx context.Context, folderID, fileName string) ([]byte, error) {
	return s.data, s.err
}

func TestLoadReturnsRows(t *testing.T) {
	data := buildWorkbook(t,
		[][]interface{}{{"101", "Bolt M6", "hex bolt", "", "ORD-55"}},
		[][]interface{}{{"x", "y", "z", "w", "CHANGED-42"}},
	)

	rows := catalog.Load(context.Background(), stubFetcher{data: data}, "42", "materials.xlsx")
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}
}

func TestLoadFetchFailureYieldsEmptyTable(t *testing.T) {
	rows := catalog.Load(context.Background(), stubFetcher{err: errors.New("network down")}, "42", "materials.xlsx")
	if rows != nil {
		t.Errorf("Expected empty table on fetch failure, got %d rows", len(rows))
	}
}

func TestLoadParseFailureYieldsEmptyTable(t *testing.T) {
	rows := catalog.Load(context.Background(), stubFetcher{data: []byte("not an xlsx")}, "42", "materials.xlsx")
	if rows != nil {
		t.Errorf("Expected empty table on parse failure, got %d rows", len(rows))
	}
}
