package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edumeal/edumeal-api/internal/pkg/clock"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	usedAtLayout = "2006-01-02T15:04:05.000Z"
)

var exportHeader = []string{"Student ID", "Name", "Grade", "Class", "Plan", "Meals Remaining", "Status", "Used Today", "Used At"}

func exportRecord(row EligibilityRow) []string {
	used, usedAt := "No", ""
	if row.UsedToday {
		used = "Yes"
	}
	if row.UsedAt != nil {
		usedAt = row.UsedAt.UTC().Format(usedAtLayout)
	}
	return []string{
		row.StudentID,
		row.Name,
		row.Grade,
		row.Class,
		row.PlanType,
		strconv.Itoa(row.MealsRemaining),
		row.Status,
		used,
		usedAt,
	}
}

// WriteCSV renders rows with a header line. Fields containing commas,
// quotes or newlines are quoted.
func WriteCSV(w io.Writer, rows []EligibilityRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(exportRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders rows as a single-sheet workbook.
func WriteXLSX(w io.Writer, date clock.Date, rows []EligibilityRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Eligibility " + date.String()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	for i, row := range rows {
		var usedAt interface{} = ""
		if row.UsedAt != nil {
			usedAt = row.UsedAt.UTC().Format(time.RFC3339)
		}
		used := "No"
		if row.UsedToday {
			used = "Yes"
		}
		values := []interface{}{
			row.StudentID, row.Name, row.Grade, row.Class, row.PlanType,
			row.MealsRemaining, row.Status, used, usedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
