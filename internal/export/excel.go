// Package export writes reservation request ledgers to Excel files for
// operators who review decisions outside the chat.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"parkbot/internal/domain"
	"parkbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const requestSheet = "Requests"

// Exporter produces .xlsx snapshots of the request ledger.
type Exporter struct {
	store  domain.RequestStore
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(store domain.RequestStore, dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// ExportRequests writes every request with the given status ("" = all)
// to a timestamped file and returns its path.
func (e *Exporter) ExportRequests(ctx context.Context, status string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	requests, err := e.store.ListRequests(ctx, status)
	if err != nil {
		return "", fmt.Errorf("error listing requests: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(requestSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Request ID", "Name", "Surname", "Vehicle", "Period",
		"Status", "Admin note", "Created", "Decided",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(requestSheet, cell, header)
		_ = f.SetCellStyle(requestSheet, cell, cell, headerStyle)
	}

	for i, req := range requests {
		row := i + 2
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("A%d", row), req.ID)
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("B%d", row), req.Name)
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("C%d", row), req.Surname)
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("D%d", row), req.VehicleID)
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("E%d", row), req.Period())
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("F%d", row), statusLabel(req.Status))
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("G%d", row), req.AdminNote)
		_ = f.SetCellValue(requestSheet, fmt.Sprintf("H%d", row), req.CreatedAt.Format("02.01.2006 15:04"))
		if !req.DecidedAt.IsZero() {
			_ = f.SetCellValue(requestSheet, fmt.Sprintf("I%d", row), req.DecidedAt.Format("02.01.2006 15:04"))
		}
	}

	_ = f.SetColWidth(requestSheet, "A", "A", 24)
	_ = f.SetColWidth(requestSheet, "B", "D", 14)
	_ = f.SetColWidth(requestSheet, "E", "E", 36)
	_ = f.SetColWidth(requestSheet, "F", "F", 12)
	_ = f.SetColWidth(requestSheet, "G", "G", 28)
	_ = f.SetColWidth(requestSheet, "H", "I", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("requests_export_%s.xlsx", e.now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(requests)).Msg("Requests Excel file created")
	return filePath, nil
}

func statusLabel(status string) string {
	switch status {
	case models.StatusApproved:
		return "✅ approved"
	case models.StatusRejected:
		return "❌ rejected"
	case models.StatusPending:
		return "⏳ pending"
	default:
		return status
	}
}
