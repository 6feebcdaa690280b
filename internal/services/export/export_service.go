// Package export writes admin usage reports as xlsx workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/taitanx/media-delivery-backend/internal/models"
)

// KeySource lists issued keys. Implemented by quota.Service.
type KeySource interface {
	ListKeys() ([]models.APIKey, error)
}

// StatsSource aggregates the request ledger. Implemented by
// repository.RequestRecordRepository.
type StatsSource interface {
	DailyStats(since time.Time) (*models.DailyStats, error)
}

// Service builds usage workbooks into an exports directory.
type Service struct {
	keys       KeySource
	stats      StatsSource
	exportsDir string
}

// NewService creates the export service, ensuring the exports directory
// exists.
func NewService(keys KeySource, stats StatsSource, exportsDir string) *Service {
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}
	return &Service{
		keys:       keys,
		stats:      stats,
		exportsDir: exportsDir,
	}
}

// ExportResult points at a finished workbook.
type ExportResult struct {
	Filename string
	Path     string
}

// ExportUsage writes every key plus today's ledger aggregates into one
// workbook and returns its location.
func (s *Service) ExportUsage() (*ExportResult, error) {
	keys, err := s.keys.ListKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats, err := s.stats.DailyStats(startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily stats: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	keySheet := "API Keys"
	f.SetSheetName("Sheet1", keySheet)

	headers := []string{"Key", "User ID", "Tier", "Active", "Daily Requests", "Total Requests", "Expires At", "Last Used"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(keySheet, cell, h)
	}

	for row, key := range keys {
		values := []interface{}{
			key.Key,
			key.UserID,
			string(key.Tier),
			key.IsActive,
			key.DailyRequests,
			key.TotalRequests,
			formatTimePtr(key.ExpiresAt),
			formatTimePtr(key.LastUsedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(keySheet, cell, v)
		}
	}

	statsSheet := "Daily Stats"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, fmt.Errorf("failed to create stats sheet: %w", err)
	}
	f.SetCellValue(statsSheet, "A1", "Date")
	f.SetCellValue(statsSheet, "B1", "Total Requests")
	f.SetCellValue(statsSheet, "C1", "Successful Requests")
	f.SetCellValue(statsSheet, "D1", "Unique Users")
	f.SetCellValue(statsSheet, "A2", startOfDay.Format("2006-01-02"))
	f.SetCellValue(statsSheet, "B2", stats.TotalRequests)
	f.SetCellValue(statsSheet, "C2", stats.SuccessfulRequests)
	f.SetCellValue(statsSheet, "D2", stats.UniqueUsers)

	filename := fmt.Sprintf("usage_%d.xlsx", now.Unix())
	path := filepath.Join(s.exportsDir, filename)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}

	return &ExportResult{Filename: filename, Path: path}, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
