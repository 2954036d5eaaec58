package export

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
)

const (
	setsSheet     = "Sets"
	workoutsSheet = "Workouts"
)

var setsHeader = []any{"Date", "Workout", "Exercise", "Set", "Weight (kg)", "Reps", "Volume (kg)", "Bodyweight", "Notes"}
var workoutsHeader = []any{"Date", "Workout", "Exercises", "Sets", "Duration", "Volume (kg)"}

// XLSX builds a workbook with one row per set on the Sets sheet and one row
// per workout on the Workouts sheet, newest first.
func XLSX(workouts []models.Workout) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillWorkbook(f, workouts); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// colWidths sets the wider columns of both sheets.
var colWidths = []struct {
	sheet, start, end string
	width             float64
}{
	{setsSheet, "A", "A", 12},
	{setsSheet, "C", "C", 24},
	{setsSheet, "I", "I", 32},
	{workoutsSheet, "A", "A", 12},
}

func fillWorkbook(f *excelize.File, workouts []models.Workout) error {
	sorted := slices.Clone(workouts)
	slices.SortStableFunc(sorted, func(a, b models.Workout) int {
		return b.Date.Compare(a.Date)
	})

	if err := f.SetSheetName("Sheet1", setsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(workoutsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeRow(f, setsSheet, 1, setsHeader); err != nil {
		return err
	}
	if err := writeRow(f, workoutsSheet, 1, workoutsHeader); err != nil {
		return err
	}
	for _, sheet := range []struct {
		name string
		cols int
	}{{setsSheet, len(setsHeader)}, {workoutsSheet, len(workoutsHeader)}} {
		last, err := excelize.CoordinatesToCellName(sheet.cols, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
		if err := f.SetPanes(sheet.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("freezing header: %w", err)
		}
	}
	for _, cw := range colWidths {
		if err := f.SetColWidth(cw.sheet, cw.start, cw.end, cw.width); err != nil {
			return fmt.Errorf("setting %s column width: %w", cw.sheet, err)
		}
	}

	setRow := 2
	for i, w := range sorted {
		date := w.Date.Format("2006-01-02")
		for _, ex := range w.Exercises {
			for n, set := range ex.Sets {
				var volume any
				if !ex.Bodyweight {
					volume = metrics.SetVolume(set.Weight, set.Reps)
				}
				row := []any{date, w.ID, ex.Name, n + 1, set.Weight, set.Reps, volume, ex.Bodyweight, ex.Notes}
				if err := writeRow(f, setsSheet, setRow, row); err != nil {
					return err
				}
				setRow++
			}
		}
		row := []any{date, w.ID, len(w.Exercises), w.SetCount(), metrics.FormatDuration(w.DurationMs), metrics.WorkoutVolume(w)}
		if err := writeRow(f, workoutsSheet, i+2, row); err != nil {
			return err
		}
	}

	idx, err := f.GetSheetIndex(setsSheet)
	if err != nil {
		return fmt.Errorf("finding %s sheet: %w", setsSheet, err)
	}
	f.SetActiveSheet(idx)
	return nil
}

// XLSXBytes renders XLSX into memory.
func XLSXBytes(workouts []models.Workout) ([]byte, error) {
	f, err := XLSX(workouts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
