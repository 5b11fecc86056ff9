package reports

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

const exportSheet = "Reports"

var exportHeader = []string{"Date", "Cash", "Cashless", "Revenue", "Tips", "Attachments", "Updated"}

// Export renders the month's reports as an xlsx workbook with a totals row.
func (s *service) Export(ctx context.Context, grant *access.Grant, month calendar.Month) ([]byte, error) {
	if err := access.Require(grant.RevenueViewer(), "revenue viewer required"); err != nil {
		return nil, err
	}
	reports, err := s.repo.ListRange(ctx, grant.VenueID, month.First(), month.Last())
	if err != nil {
		return nil, db.MapError(err, "daily report")
	}
	ids := make([]uuid.UUID, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	counts, err := s.repo.AttachmentCounts(ctx, ids)
	if err != nil {
		return nil, db.MapError(err, "attachment")
	}

	data, err := buildWorkbook(reports, counts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build export")
	}
	return data, nil
}

func buildWorkbook(reports []models.DailyReport, counts map[uuid.UUID]int64) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(exportSheet, cell, v)
	}

	var cash, cashless, revenue, tips int64
	for i, r := range reports {
		updated := ""
		if r.UpdatedAt != nil {
			updated = r.UpdatedAt.UTC().Format("2006-01-02 15:04")
		}
		values := []any{r.Date.String(), r.Cash, r.Cashless, r.RevenueTotal, r.TipsTotal, counts[r.ID], updated}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		cash += r.Cash
		cashless += r.Cashless
		revenue += r.RevenueTotal
		tips += r.TipsTotal
	}

	totalRow := len(reports) + 2
	for c, v := range []any{"Total", cash, cashless, revenue, tips} {
		cell, _ := excelize.CoordinatesToCellName(c+1, totalRow)
		_ = f.SetCellValue(exportSheet, cell, v)
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 12)
	_ = f.SetColWidth(exportSheet, "B", "E", 14)
	_ = f.SetColWidth(exportSheet, "F", "F", 12)
	_ = f.SetColWidth(exportSheet, "G", "G", 18)

	bold, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})
	_ = f.SetCellStyle(exportSheet, "A1", "G1", bold)
	last, _ := excelize.CoordinatesToCellName(5, totalRow)
	first, _ := excelize.CoordinatesToCellName(1, totalRow)
	_ = f.SetCellStyle(exportSheet, first, last, bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
