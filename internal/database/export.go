package database

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportLeads writes all captured leads to w as an xlsx workbook.
func (db *DB) ExportLeads(ctx context.Context, w io.Writer) error {
	leads, err := db.ListLeads(ctx)
	if err != nil {
		return fmt.Errorf("error getting leads: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leads"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Restaurant", "Owner", "Email", "Phone", "Interests",
		"Current Solution", "Locations", "Biggest Challenge",
		"Event ID", "Zoom Meeting ID", "Captured At",
	}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, style)

	for row, lead := range leads {
		values := []interface{}{
			lead.RestaurantName,
			lead.OwnerName,
			lead.Email,
			lead.Phone,
			strings.Join(lead.Interests, ", "),
			lead.CurrentSolution,
			lead.Locations,
			lead.BiggestChallenge,
			lead.EventID,
			lead.ZoomMeetingID,
			lead.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, val)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "K", 20)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing file: %v", err)
	}
	return nil
}
