// Package export формирует выгружаемые документы.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/projection"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

const (
	rplSheet         = "RPL"
	diagnosisPrefix  = "Diagnosis: "
	noDiagnosisNotes = "No diagnosis notes were provided with this request."
)

// DiagnosisNotes извлекает текст диагноза из первой записи о запросе запчастей.
func DiagnosisNotes(logs []model.RepairLog) string {
	for _, l := range logs {
		if l.Action != workflow.LogPartRequest {
			continue
		}
		if !strings.HasPrefix(l.Notes, diagnosisPrefix) {
			return noDiagnosisNotes
		}
		note, _, _ := strings.Cut(l.Notes, ".")
		note = strings.TrimSpace(strings.TrimPrefix(note, diagnosisPrefix))
		if note == "" {
			return noDiagnosisNotes
		}
		return note
	}
	return noDiagnosisNotes
}

// RPLFileName возвращает имя файла выгрузки для заказа.
func RPLFileName(serviceID string) string {
	return fmt.Sprintf("RPL-%s.xlsx", serviceID)
}

// RPL строит Recommended Part List по группе запросов запчастей заказа.
func RPL(group projection.PartRequestGroup, logs []model.RepairLog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rplSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("bold style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#3B82F6"}},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	cells := []struct {
		cell  string
		value any
	}{
		{"A1", "Service Report"},
		{"A3", "Order ID"}, {"B3", group.ServiceID},
		{"A4", "Customer Name"}, {"B4", group.CustomerName},
		{"A5", "Mechanic Name"}, {"B5", group.RequestorName},
		{"A6", "Job Type"}, {"B6", string(group.JobType)},
		{"A8", "Diagnosis Notes"}, {"A9", DiagnosisNotes(logs)},
		{"A11", "Recommended Part List (RPL)"},
	}
	for _, c := range cells {
		if err := f.SetCellValue(rplSheet, c.cell, c.value); err != nil {
			return nil, fmt.Errorf("set %s: %w", c.cell, err)
		}
	}

	const tableRow = 12
	headers := []string{"No.", "Part ID", "Part Name", "Quantity", "Status", "Notes"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, tableRow)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(rplSheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), tableRow)
	if err != nil {
		return nil, fmt.Errorf("header cell: %w", err)
	}

	styles := []struct {
		from, to string
		style    int
	}{
		{"A1", "A1", titleStyle},
		{"A3", "A8", boldStyle},
		{"A11", "A11", boldStyle},
		{"A12", last, headerStyle},
	}
	for _, s := range styles {
		if err := f.SetCellStyle(rplSheet, s.from, s.to, s.style); err != nil {
			return nil, fmt.Errorf("style %s:%s: %w", s.from, s.to, err)
		}
	}

	for i, p := range group.Parts {
		row := tableRow + 1 + i
		values := []any{i + 1, p.PartID, p.PartName, p.QuantityRequested, string(p.Status), ""}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("part cell: %w", err)
			}
			if err := f.SetCellValue(rplSheet, cell, v); err != nil {
				return nil, fmt.Errorf("set part row: %w", err)
			}
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 18},
		{"B", "C", 28},
		{"D", "F", 14},
	}
	for _, w := range widths {
		if err := f.SetColWidth(rplSheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("column width %s:%s: %w", w.from, w.to, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
