package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSX sheet names of the valuation workbook.
const (
	ValuationSheet = "Valuation"
	LocationsSheet = "Locations"
)

// XLSXContentType is the media type of WriteValuationXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	valuationHeadings = []any{"Code", "Item", "Unit", "Quantity", "Average cost", "Value"}
	locationHeadings  = []any{"Item code", "Location code", "Location", "Quantity", "Value"}
)

// WriteValuationXLSX writes v as a workbook with an item sheet ending in a
// totals row and a per-location sheet.
func WriteValuationXLSX(w io.Writer, v *Valuation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ValuationSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LocationsSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	if err := setRow(f, ValuationSheet, 1, valuationHeadings); err != nil {
		return err
	}
	if err := setRow(f, LocationsSheet, 1, locationHeadings); err != nil {
		return err
	}

	row, locRow := 2, 2
	for _, item := range v.Items {
		err := setRow(f, ValuationSheet, row, []any{
			item.ItemCode,
			item.ItemName,
			item.Unit,
			item.Quantity.Float64(),
			item.AverageCost.InexactFloat64(),
			item.Value.InexactFloat64(),
		})
		if err != nil {
			return err
		}
		row++

		for _, loc := range item.Locations {
			err := setRow(f, LocationsSheet, locRow, []any{
				item.ItemCode,
				loc.LocationCode,
				loc.LocationName,
				loc.Quantity.Float64(),
				loc.Value.InexactFloat64(),
			})
			if err != nil {
				return err
			}
			locRow++
		}
	}

	err := setRow(f, ValuationSheet, row, []any{
		"Total", nil, nil, v.TotalQuantity.Float64(), nil, v.TotalValue.InexactFloat64(),
	})
	if err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
