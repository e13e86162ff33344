package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

// maxExportRange keeps a single download to a quarter of ledger history.
const maxExportRange = 92 * 24 * time.Hour

var exportColumns = []string{
	"RECIPIENT ID",
	"RECIPIENT KIND",
	"NOTIFICATION TYPE",
	"CHANNEL",
	"WINDOW START",
	"SENT AT",
	"JOBS",
	"JOB IDS",
}

type exportUsecase struct {
	ledger domain.NotificationLedgerReader
	now    func() time.Time
}

func NewExportUsecase(ledger domain.NotificationLedgerReader) domain.ExportUsecase {
	return &exportUsecase{ledger: ledger, now: time.Now}
}

// ExportNotifications renders the ledger rows sent inside [From, To] as xlsx
// (the default) or csv.
func (u *exportUsecase) ExportNotifications(ctx context.Context, req domain.ExportRequest) ([]byte, string, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return nil, "", apperror.BadRequest("from and to are required")
	}
	if req.From.After(req.To) {
		return nil, "", apperror.BadRequest("from must not be after to")
	}
	if req.To.Sub(req.From) > maxExportRange {
		return nil, "", apperror.BadRequest("export range must not exceed 92 days")
	}

	format := strings.ToLower(req.Format)
	if format != "" && format != "xlsx" && format != "csv" {
		return nil, "", apperror.BadRequest(fmt.Sprintf("unsupported export format: %s", req.Format))
	}

	records, err := u.ledger.ListSent(ctx, req.From, req.To)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch notifications for export: %w", err)
	}

	if format == "csv" {
		return u.exportCSV(records)
	}
	return u.exportExcel(records)
}

func (u *exportUsecase) exportExcel(records []domain.NotificationRecord) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Notifications"
	f.SetSheetName("Sheet1", sheetName)

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, rec := range records {
		for colIdx, value := range rowValues(rec) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("notifications_%s.xlsx", u.now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func (u *exportUsecase) exportCSV(records []domain.NotificationRecord) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		values := rowValues(rec)
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprintf("%v", v)
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	filename := fmt.Sprintf("notifications_%s.csv", u.now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func rowValues(rec domain.NotificationRecord) []interface{} {
	ids := make([]string, len(rec.JobIDs))
	for i, id := range rec.JobIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return []interface{}{
		rec.Key.RecipientID,
		string(rec.Key.RecipientKind),
		string(rec.Key.Type),
		string(rec.Key.Channel),
		rec.Key.WindowStart.UTC().Format(time.RFC3339),
		rec.SentAt.UTC().Format(time.RFC3339),
		len(rec.JobIDs),
		strings.Join(ids, " "),
	}
}
