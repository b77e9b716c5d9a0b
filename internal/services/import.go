package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"employee-directory/internal/models"

	"github.com/xuri/excelize/v2"
)

// Upload column layout: name, email, department, phone, password, role.
const (
	colName = iota
	colEmail
	colDepartment
	colPhone
	colPassword
	colRole
	uploadColumns
)

type importRow struct {
	models.EmployeeFields
	Password string
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

// parseRow maps a record to an employee. Rows with fewer than six columns
// are rejected; extra columns are ignored.
func parseRow(rec []string) (importRow, bool) {
	if len(rec) < uploadColumns {
		return importRow{}, false
	}
	cell := func(i int) string { return strings.TrimSpace(rec[i]) }

	return importRow{
		EmployeeFields: models.EmployeeFields{
			Name:       cell(colName),
			Email:      cell(colEmail),
			Department: optional(cell(colDepartment)),
			Phone:      optional(cell(colPhone)),
			Role:       cell(colRole),
		},
		Password: cell(colPassword),
	}, true
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
