package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"belleza/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Directory is the read surface the report builder needs.
type Directory interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	ListStylists(ctx context.Context, tenantID int64) ([]*models.Stylist, error)
	ListActiveServices(ctx context.Context, tenantID int64) ([]*models.Service, error)
	ListTenantAppointments(ctx context.Context, tenantID int64, from, to time.Time) ([]*models.Appointment, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
}

// Reporter writes weekly agenda workbooks: one row per stylist, one column per
// day, each cell listing that day's appointments.
type Reporter struct {
	store  Directory
	dir    string
	logger zerolog.Logger
}

func NewReporter(store Directory, dir string, logger zerolog.Logger) *Reporter {
	if dir == "" {
		dir = "exports"
	}
	return &Reporter{store: store, dir: dir, logger: logger}
}

const sheetName = "Agenda"

// WeekReport renders the seven days starting at weekStart (a tenant-local
// YYYY-MM-DD date) into an xlsx file and returns its path.
func (r *Reporter) WeekReport(ctx context.Context, tenantID int64, weekStart string) (string, error) {
	tenant, err := r.store.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return "", fmt.Errorf("tenant timezone %q: %w", tenant.Timezone, err)
	}
	start, err := time.ParseInLocation("2006-01-02", weekStart, loc)
	if err != nil {
		return "", fmt.Errorf("week start %q is not YYYY-MM-DD: %w", weekStart, err)
	}
	end := start.AddDate(0, 0, 7)

	stylists, err := r.store.ListStylists(ctx, tenantID)
	if err != nil {
		return "", err
	}
	serviceNames, err := r.serviceNames(ctx, tenantID)
	if err != nil {
		return "", err
	}
	appointments, err := r.store.ListTenantAppointments(ctx, tenantID, start, end)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		tenant.Name, start.Format("02.01.2006"), end.AddDate(0, 0, -1).Format("02.01.2006")))

	dayColumns := r.writeDayHeaders(f, start)
	r.writeStylistRows(f, stylists)
	r.writeCells(ctx, f, appointments, stylists, serviceNames, dayColumns, loc)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "H", 28)
	_ = f.MergeCell(sheetName, "A1", "H1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("agenda_%s.xlsx", start.Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	r.logger.Info().Str("path", path).Int("appointments", len(appointments)).Msg("week report written")
	return path, nil
}

func (r *Reporter) serviceNames(ctx context.Context, tenantID int64) (map[int64]string, error) {
	services, err := r.store.ListActiveServices(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(services))
	for _, svc := range services {
		names[svc.ID] = svc.Name
	}
	return names, nil
}

// writeDayHeaders fills row 2 with the seven dates and returns date -> column.
func (r *Reporter) writeDayHeaders(f *excelize.File, start time.Time) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	columns := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		col := 2 + i
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("Mon 02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		columns[day.Format("2006-01-02")] = col
	}
	return columns
}

func (r *Reporter) writeStylistRows(f *excelize.File, stylists []*models.Stylist) {
	nameStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, stylist := range stylists {
		cell, _ := excelize.CoordinatesToCellName(1, 3+i)
		_ = f.SetCellValue(sheetName, cell, stylist.Name)
		_ = f.SetCellStyle(sheetName, cell, cell, nameStyle)
	}
}

func (r *Reporter) writeCells(
	ctx context.Context, f *excelize.File,
	appointments []*models.Appointment,
	stylists []*models.Stylist,
	serviceNames map[int64]string,
	dayColumns map[string]int,
	loc *time.Location,
) {
	stylistRows := make(map[int64]int, len(stylists))
	for i, stylist := range stylists {
		stylistRows[stylist.ID] = 3 + i
	}

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	type cellKey struct{ row, col int }
	lines := make(map[cellKey][]string)

	for _, appt := range appointments {
		if appt.Status == models.StatusCancelled {
			continue
		}
		row, ok := stylistRows[appt.StylistID]
		if !ok {
			continue
		}
		local := appt.StartTime.In(loc)
		col, ok := dayColumns[local.Format("2006-01-02")]
		if !ok {
			continue
		}

		service := serviceNames[appt.ServiceID]
		if service == "" {
			service = fmt.Sprintf("#%d", appt.ServiceID)
		}
		line := fmt.Sprintf("%s %s-%s %s (%s)",
			statusIcon(appt.Status),
			local.Format("15:04"), appt.EndTime.In(loc).Format("15:04"),
			service, clientLabel(ctx, r.store, appt.ClientID))
		lines[cellKey{row, col}] = append(lines[cellKey{row, col}], line)
	}

	for key, content := range lines {
		cell, _ := excelize.CoordinatesToCellName(key.col, key.row)
		_ = f.SetCellValue(sheetName, cell, strings.Join(content, "\n"))
		_ = f.SetCellStyle(sheetName, cell, cell, cellStyle)
	}
}

func clientLabel(ctx context.Context, store Directory, clientID int64) string {
	client, err := store.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Sprintf("#%d", clientID)
	}
	name := strings.TrimSpace(client.FirstName + " " + client.LastName)
	if name == "" {
		return client.Phone
	}
	return name
}

func statusIcon(status models.Status) string {
	switch status {
	case models.StatusCheckedOut, models.StatusCompleted:
		return "✅"
	case models.StatusCheckedIn:
		return "💈"
	case models.StatusRescheduled:
		return "🔁"
	default:
		return "🕐"
	}
}
