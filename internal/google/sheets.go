package google

import (
	"context"
	"fmt"
	"os"

	"stayhub/internal/service"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const occupancySheetName = "Occupancy"

// OccupancySheetsService mirrors the occupancy schedule into one Google
// Sheets tab. The whole tab is rewritten on each export, so partial updates
// can never leave mixed state behind.
type OccupancySheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewOccupancySheetsService(credentialsFile, spreadsheetID string) (*OccupancySheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	return &OccupancySheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *OccupancySheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, occupancySheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// WriteOccupancy перезаписывает лист загрузки целиком
func (s *OccupancySheetsService) WriteOccupancy(ctx context.Context, report *service.OccupancyReport) error {
	values := [][]interface{}{
		{"Date", "Hotel", "Room Type", "Total Rooms", "Available", "Occupied"},
	}
	for _, row := range report.Rows {
		values = append(values, []interface{}{
			row.Date.Format("2006-01-02"),
			row.HotelName,
			row.RoomTypeName,
			row.TotalRooms,
			row.AvailableRooms,
			row.OccupiedRooms,
		})
	}

	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, occupancySheetName+"!A:F", &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("failed to clear occupancy sheet: %v", err)
	}

	rangeData := fmt.Sprintf("%s!A1:F%d", occupancySheetName, len(values))
	valueRange := &sheets.ValueRange{Values: values}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
