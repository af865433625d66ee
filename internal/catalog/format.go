package catalog

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const materialChangesSheet = "Изменение материалов"

// Fixed column positions in the workbook.
const (
	colID          = 0
	colName        = 1
	colDescription = 2
	colOrders      = 4
	colNote        = 7
	colUnits       = 13
)

// FormatRow renders a matched row for delivery. Rows from the material
// changes sheet reduce to a single cell; everything else gets the
// multi-section material template. Rows missing required columns fall back
// to a comma-joined rendering of all cells.
func FormatRow(row Row) string {
	if row.Sheet == materialChangesSheet {
		if len(row.Cells) <= colOrders {
			return fallbackRow(row)
		}
		return row.Cells[colOrders]
	}

	formatted, ok := formatMaterialRow(row.Cells)
	if !ok {
		return fallbackRow(row)
	}
	return formatted
}

// formatMaterialRow builds the templated material message. It reports false
// when the row is too short for the required columns.
func formatMaterialRow(cells []string) (string, bool) {
	if len(cells) <= colOrders {
		return "", false
	}

	id := cells[colID]
	name := cells[colName]
	description := cells[colDescription]
	orders := cells[colOrders]
	note := cellAt(cells, colNote)
	units := cellAt(cells, colUnits)

	unitsPart := ""
	if units != "" {
		unitsPart = fmt.Sprintf(", _ %s", units)
	}

	formatted := fmt.Sprintf(
		"Информация по материалу:\n\n%s\n%s\n\n"+
			"Заказные номера:\n%s\n\n"+
			"Ласточка / Финист:\n[%s] (%s%s)\n\n"+
			"Сапсан:\n[%s] (%s, %s%s)\n\n",
		name, description,
		orders,
		id, name, unitsPart,
		id, orders, name, unitsPart,
	)
	if note != "" {
		formatted += fmt.Sprintf("\n\nПримечание:\n%s", note)
	}
	return formatted, true
}

// cellAt returns the cell at index or "" when the row is shorter.
func cellAt(cells []string, index int) string {
	if index < len(cells) {
		return cells[index]
	}
	return ""
}

func fallbackRow(row Row) string {
	log.Warn().
		Str("sheet", row.Sheet).
		Int("cells", len(row.Cells)).
		Msg("Row too short for template, using fallback rendering")
	return strings.Join(row.Cells, ", ")
}
