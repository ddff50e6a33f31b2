package export

import (
	"fmt"
	"os"
	"path/filepath"

	"stayhub/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes the occupancy schedule to an .xlsx workbook: one row
// per room type, one column per night, occupied/total in each cell.
type ExcelExporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExcelExporter(dir string, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{dir: dir, logger: logger}
}

// WriteOccupancy сохраняет отчет по загрузке в Excel файл
func (e *ExcelExporter) WriteOccupancy(report *service.OccupancyReport) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Occupancy"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		report.From.Format("02.01.2006"), report.To.AddDate(0, 0, -1).Format("02.01.2006")))

	// Заголовки - даты
	dateCols := make(map[string]int)
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	col := 2
	for d := report.From; d.Before(report.To); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, d.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[d.Format("2006-01-02")] = col
		col++
	}

	// Названия типов номеров по строкам
	rowStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	roomTypeRows := make(map[int64]int)
	row := 3
	for _, r := range report.Rows {
		if _, seen := roomTypeRows[r.RoomTypeID]; seen {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s / %s (%d)", r.HotelName, r.RoomTypeName, r.TotalRooms))
		_ = f.SetCellStyle(sheetName, cell, cell, rowStyle)
		roomTypeRows[r.RoomTypeID] = row
		row++
	}

	for _, r := range report.Rows {
		dcol, ok := dateCols[r.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(dcol, roomTypeRows[r.RoomTypeID])
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%d/%d", r.OccupiedRooms, r.TotalRooms))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 35)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("occupancy_%s_to_%s.xlsx",
		report.From.Format("2006-01-02"),
		report.To.AddDate(0, 0, -1).Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}
