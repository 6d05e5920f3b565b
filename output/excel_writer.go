package output

import (
	"fmt"

	"runlog/activity"

	"github.com/xuri/excelize/v2"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, activities []activity.Activity) error {
	rows := make([][]string, 0, len(activities))
	for _, item := range activities {
		rows = append(rows, activityRow(item))
	}
	return writeExcel(path, "Activities", activityHeaders, rows)
}

func writeExcel(path, sheetName string, headers []string, rows [][]string) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheetName != "" && sheetName != sheet {
		if err := file.SetSheetName(sheet, sheetName); err != nil {
			return fmt.Errorf("rename excel sheet: %w", err)
		}
		sheet = sheetName
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range rows {
		row := i + 2
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
