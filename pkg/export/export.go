// Package export renders a user's leads as CSV or Excel.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/metrics"
)

// Supported formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet holding leads in XLSX exports
const SheetName = "Leads"

var headers = []string{
	"ID", "Name", "Email", "Phone", "Source", "Campaign", "Property",
	"Status", "Stage", "Priority", "Sentiment", "Next Task", "Task Due",
	"Task Completed", "Created At", "Last Contacted", "Aging",
	"Duplicate", "Invalid Email", "Needs Standardization",
}

// ContentType returns the MIME type of a format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename names an export file taken at now
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("levrix-leads-%s.%s", now.Format("2006-01-02"), format)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func row(v leads.LeadView) []string {
	priority := ""
	if v.PriorityScore != nil {
		priority = strconv.Itoa(*v.PriorityScore)
	}
	return []string{
		v.ID,
		v.Name,
		v.Email,
		v.Phone,
		string(v.Source),
		v.CampaignSource,
		v.PropertyAddress,
		string(v.Status),
		string(v.Stage),
		priority,
		string(v.Sentiment),
		v.NextFollowUpTask,
		formatTime(v.TaskDueDate),
		strconv.FormatBool(v.TaskCompleted),
		formatTime(&v.CreatedAt),
		formatTime(v.LastContacted),
		string(v.AgingStatus),
		strconv.FormatBool(v.Health.IsDuplicate),
		strconv.FormatBool(v.Health.IsInvalidEmail),
		strconv.FormatBool(v.Health.NeedsStandardization),
	}
}

// WriteCSV writes views as CSV with a header row
func WriteCSV(w io.Writer, views []leads.LeadView) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, v := range views {
		if err := writer.Write(row(v)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes views as a single-sheet workbook
func WriteXLSX(w io.Writer, views []leads.LeadView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#10B981"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(SheetName, "A1", last, headerStyle)

	for r, v := range views {
		cells := row(v)
		for c, val := range cells {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(SheetName, cell, val)
		}
		if v.PriorityScore != nil {
			cell, _ := excelize.CoordinatesToCellName(10, r+2)
			f.SetCellInt(SheetName, cell, int64(*v.PriorityScore))
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(SheetName, "A", lastCol, 18)
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// LeadSource loads lead views with health and aging
type LeadSource interface {
	All(ctx context.Context, userID string) ([]leads.LeadView, error)
}

// Service exports a user's leads
type Service struct {
	leads LeadSource
}

// NewService creates an export service
func NewService(source LeadSource) *Service {
	return &Service{leads: source}
}

// Export writes every lead of userID to w in format
func (s *Service) Export(ctx context.Context, userID, format string, w io.Writer) error {
	if format != FormatCSV && format != FormatXLSX {
		return domain.NewValidationError("format must be csv or xlsx")
	}
	views, err := s.leads.All(ctx, userID)
	if err != nil {
		return err
	}

	if format == FormatXLSX {
		err = WriteXLSX(w, views)
	} else {
		err = WriteCSV(w, views)
	}
	if err != nil {
		return err
	}
	metrics.RecordExport(format)
	return nil
}
