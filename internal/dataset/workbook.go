package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads the worksheet sheet of the workbook at path. An empty sheet name
// selects the first worksheet. Row 1 is the header; every later row becomes a
// record, blank rows included, so row numbers stay aligned with the workbook.
func Load(path, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("dataset file not found: %s", path), Cause: err}
		}
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("failed to open workbook %s", path), Cause: err}
	}
	defer func() { _ = f.Close() }()

	sheet, err = resolveSheet(f, sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("failed to read sheet %q", sheet), Cause: err}
	}

	d := &Dataset{Path: path, Sheet: sheet}
	if len(rows) == 0 {
		return d, nil
	}

	d.columns = headerNames(rows[0])
	for i, row := range rows[1:] {
		values := make(map[string]string, len(d.columns))
		for j, col := range d.columns {
			if j < len(row) {
				values[col] = row[j]
			} else {
				values[col] = ""
			}
		}
		d.records = append(d.records, Record{Row: i + 2, Values: values})
	}

	return d, nil
}

// Save writes d back to d.Path. The original workbook is edited in place: only
// header cells and values that differ from what is on disk are written, so new
// columns and filled-in cells land in the file while every other cell keeps its
// type and formatting. The result goes to a temporary file that then replaces
// the workbook.
func Save(d *Dataset) error {
	if d.Path == "" {
		return &SaveError{Message: "dataset has no path"}
	}

	f, err := excelize.OpenFile(d.Path)
	if err != nil {
		return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to open workbook %s", d.Path), Cause: err}
	}
	defer func() { _ = f.Close() }()

	sheet, err := resolveSheet(f, d.Sheet)
	if err != nil {
		return &SaveError{Path: d.Path, Message: err.Error()}
	}

	current, err := f.GetRows(sheet)
	if err != nil {
		return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to read sheet %q", sheet), Cause: err}
	}

	set := func(row, col int, value string) error {
		if cellAt(current, row, col) == value {
			return nil
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	for j, col := range d.columns {
		if err := set(0, j, col); err != nil {
			return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to write header %q", col), Cause: err}
		}
	}
	for _, rec := range d.records {
		for j, col := range d.columns {
			if err := set(rec.Row-1, j, rec.Values[col]); err != nil {
				return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to write row %d column %q", rec.Row, col), Cause: err}
			}
		}
	}

	if err := replaceFile(f, d.Path); err != nil {
		return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to save workbook %s (is it open in another program?)", d.Path), Cause: err}
	}
	return nil
}

// Create writes d as a brand-new workbook at d.Path, replacing any file there.
func Create(d *Dataset) error {
	if d.Path == "" {
		return &SaveError{Message: "dataset has no path"}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := d.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return &SaveError{Path: d.Path, Message: "failed to name worksheet", Cause: err}
		}
	}

	header := make([]any, len(d.columns))
	for j, col := range d.columns {
		header[j] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return &SaveError{Path: d.Path, Message: "failed to write header", Cause: err}
	}
	for _, rec := range d.records {
		row := make([]any, len(d.columns))
		for j, col := range d.columns {
			row[j] = rec.Values[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, rec.Row)
		if err != nil {
			return &SaveError{Path: d.Path, Message: fmt.Sprintf("invalid row %d", rec.Row), Cause: err}
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to write row %d", rec.Row), Cause: err}
		}
	}

	if dir := filepath.Dir(d.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &SaveError{Path: d.Path, Message: "failed to create dataset directory", Cause: err}
		}
	}
	if err := f.SaveAs(d.Path); err != nil {
		return &SaveError{Path: d.Path, Message: fmt.Sprintf("failed to save workbook %s", d.Path), Cause: err}
	}
	return nil
}

func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	if sheet == "" {
		return sheets[0], nil
	}
	if !slices.Contains(sheets, sheet) {
		return "", fmt.Errorf("worksheet %q not found (available: %s)", sheet, strings.Join(sheets, ", "))
	}
	return sheet, nil
}

// headerNames turns the header row into unique column names. Blank headers
// become "Unnamed: <index>" and repeats get ".<n>" appended.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		names[i] = name
	}
	return names
}

func cellAt(rows [][]string, row, col int) string {
	if row < 0 || row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}

func replaceFile(f *excelize.File, path string) error {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+stem+"-*"+ext)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := f.SaveAs(tmpName); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
