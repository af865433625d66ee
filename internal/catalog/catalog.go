// Package catalog holds the in-memory material reference table loaded once
// at startup from the Ф-ТД-008 workbook.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// TargetSheets are the workbook tabs that feed the lookup table, in the
// order their rows appear in the table.
var TargetSheets = []string{"Номера", "Изменение материалов"}

// headerRows is the number of leading rows to skip on each sheet; the column
// header sits on the 4th row, data starts on the 5th.
const headerRows = 4

// Row is one material record tagged with its originating sheet.
type Row struct {
	Sheet string
	Cells []string
}

// Fetcher retrieves a document by folder and file name from the remote store.
type Fetcher interface {
	FetchDocument(ctx context.Context, folderID, fileName string) ([]byte, error)
}

// ParseWorkbook flattens the target sheets of an .xlsx document into one
// ordered slice of rows. Blank cells stay empty strings.
func ParseWorkbook(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var result []Row
	for _, sheetName := range TargetSheets {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			// A workbook missing one of the target sheets still yields the
			// rows of the sheets it does have.
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Sheet not readable, skipping")
			continue
		}

		log.Info().Str("sheet", sheetName).Int("rows", len(rows)).Msg("Loading sheet data")

		if len(rows) <= headerRows {
			continue
		}
		for _, cells := range rows[headerRows:] {
			result = append(result, Row{Sheet: sheetName, Cells: cells})
		}
	}

	return result, nil
}

// Load fetches the workbook and parses it into the lookup table. Any failure
// is logged and yields an empty table; every lookup then misses.
func Load(ctx context.Context, fetcher Fetcher, folderID, fileName string) []Row {
	data, err := fetcher.FetchDocument(ctx, folderID, fileName)
	if err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("Failed to fetch workbook")
		return nil
	}

	rows, err := ParseWorkbook(data)
	if err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("Failed to parse workbook")
		return nil
	}

	log.Info().Int("rows", len(rows)).Msg("Loaded material table")
	return rows
}

// Lookup scans the table for the first row containing a cell whose trimmed,
// lower-cased value equals query. Table order decides ties.
func Lookup(rows []Row, query string) (Row, bool) {
	for _, row := range rows {
		for _, cell := range row.Cells {
			if strings.ToLower(strings.TrimSpace(cell)) == query {
				return row, true
			}
		}
	}
	return Row{}, false
}
