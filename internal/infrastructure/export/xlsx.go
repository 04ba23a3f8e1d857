package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/domain/entity"
)

const (
	historySheet  = "History"
	documentSheet = "Document"
	timeLayout    = "2006-01-02 15:04:05"
)

var historyHeader = []interface{}{
	"#", "Timestamp", "Actor", "Action", "Previous State", "New State", "Changed", "Data",
}

// XLSXHistoryExporter writes the audit trail of a document as an Excel workbook
type XLSXHistoryExporter struct{}

// NewXLSXHistoryExporter creates a new workbook exporter
func NewXLSXHistoryExporter() *XLSXHistoryExporter {
	return &XLSXHistoryExporter{}
}

// ContentType returns the MIME type of the workbook
func (e *XLSXHistoryExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension returns the file extension including the dot
func (e *XLSXHistoryExporter) Extension() string {
	return ".xlsx"
}

// Export writes one row per history record under a bold header row.
// A second sheet carries the document summary.
func (e *XLSXHistoryExporter) Export(w io.Writer, doc *entity.Document, history []*entity.DocumentHistory) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := e.fillHistorySheet(file, history, bold); err != nil {
		return err
	}
	if err := e.fillDocumentSheet(file, doc, bold); err != nil {
		return err
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *XLSXHistoryExporter) fillHistorySheet(file *excelize.File, history []*entity.DocumentHistory, headerStyle int) error {
	if err := file.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(historyHeader))
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(historySheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, record := range history {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}

		values := []interface{}{
			i + 1,
			record.Timestamp.Format(timeLayout),
			record.Actor,
			record.ActionType,
			record.PreviousState,
			record.NewState,
			strconv.FormatBool(record.Changed),
			record.ActionData,
		}
		if err := file.SetSheetRow(historySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write history row %d: %w", row, err)
		}
	}

	if err := file.SetColWidth(historySheet, "B", lastCol, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func (e *XLSXHistoryExporter) fillDocumentSheet(file *excelize.File, doc *entity.Document, labelStyle int) error {
	if _, err := file.NewSheet(documentSheet); err != nil {
		return fmt.Errorf("failed to create document sheet: %w", err)
	}

	rows := [][]interface{}{
		{"ID", doc.ID},
		{"Title", doc.Title},
		{"State", doc.State().String()},
		{"Created", doc.CreatedAt.Format(timeLayout)},
		{"Updated", doc.UpdatedAt.Format(timeLayout)},
		// Only what a reader of the document may see.
		{"Content", doc.Content()},
	}
	for i, values := range rows {
		cell := "A" + strconv.Itoa(i+1)
		if err := file.SetSheetRow(documentSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write document row %d: %w", i+1, err)
		}
	}

	if err := file.SetCellStyle(documentSheet, "A1", "A"+strconv.Itoa(len(rows)), labelStyle); err != nil {
		return fmt.Errorf("failed to style labels: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.HistoryExporter = (*XLSXHistoryExporter)(nil)
