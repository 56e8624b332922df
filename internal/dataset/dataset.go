package dataset

import (
	"fmt"
	"slices"
)

// Record is one spreadsheet row keyed by column name.
type Record struct {
	Row    int // 1-based worksheet row, header is row 1
	Values map[string]string
}

// Get returns the value stored under column, or "" if the record lacks it.
func (r Record) Get(column string) string {
	return r.Values[column]
}

// Context returns a copy of the record's values suitable as a render context.
func (r Record) Context() map[string]string {
	ctx := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		ctx[k] = v
	}
	return ctx
}

// Dataset is an ordered set of records sharing one column list.
type Dataset struct {
	Path  string // workbook the dataset was loaded from and is saved to
	Sheet string

	columns []string
	records []Record
}

// New builds an in-memory dataset. Records missing a column get "" for it.
func New(columns []string, records []Record) *Dataset {
	d := &Dataset{columns: slices.Clone(columns)}
	for i, rec := range records {
		values := make(map[string]string, len(columns))
		for _, col := range columns {
			values[col] = rec.Values[col]
		}
		row := rec.Row
		if row == 0 {
			row = i + 2
		}
		d.records = append(d.records, Record{Row: row, Values: values})
	}
	return d
}

// Columns returns the column names in worksheet order.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.columns, name)
}

// Records returns the records in worksheet order.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// AddColumn appends a column and sets it to value on every record.
func (d *Dataset) AddColumn(name, value string) error {
	if name == "" {
		return fmt.Errorf("column name is empty")
	}
	if d.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	d.columns = append(d.columns, name)
	for i := range d.records {
		d.records[i].Values[name] = value
	}
	return nil
}

// FillEmpty replaces every empty cell with value and returns how many were filled.
// Cells holding only whitespace are kept; they were typed by someone.
func (d *Dataset) FillEmpty(value string) int {
	filled := 0
	for i := range d.records {
		for _, col := range d.columns {
			if d.records[i].Values[col] == "" {
				d.records[i].Values[col] = value
				filled++
			}
		}
	}
	return filled
}

// Filter returns a new dataset holding the records for which keep returns true.
// Path and Sheet are carried over; record maps are shared, not copied.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{
		Path:    d.Path,
		Sheet:   d.Sheet,
		columns: slices.Clone(d.columns),
	}
	for _, rec := range d.records {
		if keep(rec) {
			out.records = append(out.records, rec)
		}
	}
	return out
}
