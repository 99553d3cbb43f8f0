// File: database/repository/schedule/schedule.go
package scheduleRepo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"autoshop/models"
)

// ScheduleRepository reads the shop's offered time slots. It never writes.
type ScheduleRepository interface {
	List(ctx context.Context) ([]models.Slot, error)
	Available(ctx context.Context) ([]models.Slot, error)
}

type fileScheduleRepo struct {
	path string
}

// NewFileScheduleRepo reads slots from an .xlsx workbook (first sheet) or a .csv file.
func NewFileScheduleRepo(path string) ScheduleRepository {
	return &fileScheduleRepo{path: path}
}

func (r *fileScheduleRepo) List(ctx context.Context) ([]models.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".csv":
		rows, err = readCSV(r.path)
	default:
		rows, err = readWorkbook(r.path)
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}
	return parseRows(rows)
}

func (r *fileScheduleRepo) Available(ctx context.Context) ([]models.Slot, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Slot, 0, len(all))
	for _, s := range all {
		if s.IsAvailable() {
			out = append(out, s)
		}
	}
	return out, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// parseRows maps the header row by name; extra columns are ignored and blank rows skipped.
func parseRows(rows [][]string) ([]models.Slot, error) {
	if len(rows) == 0 {
		return []models.Slot{}, nil
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "time slot", "status"} {
		if _, ok := cols[required]; !ok {
			return nil, &models.StorageError{Op: "parse", Path: "schedule", Err: fmt.Errorf("missing column %q", required)}
		}
	}
	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	slots := make([]models.Slot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		s := models.Slot{
			Date:     get(row, "date"),
			Day:      get(row, "day"),
			TimeSlot: get(row, "time slot"),
			Status:   strings.ToLower(get(row, "status")),
		}
		if s.Date == "" && s.TimeSlot == "" {
			continue
		}
		slots = append(slots, s)
	}
	return slots, nil
}
