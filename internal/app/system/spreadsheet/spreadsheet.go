// Package spreadsheet writes tabular exports as xlsx workbooks or CSV files.
package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

// ParseFormat maps a query or config value to a Format. The empty string
// yields def; anything else unknown is an error.
func ParseFormat(s string, def Format) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case string(XLSX):
		return XLSX, nil
	case string(CSV):
		return CSV, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Sheet is a titled table.
type Sheet struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Write encodes s to w in format f.
func Write(w io.Writer, f Format, s Sheet) error {
	switch f {
	case CSV:
		return writeCSV(w, s)
	case XLSX:
		return writeXLSX(w, s)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// Serve sets download headers for filename (without extension) and writes
// the sheet to the response.
func Serve(w http.ResponseWriter, f Format, filename string, s Sheet) error {
	name := filename + "." + string(f)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(name)))
	return Write(w, f, s)
}

func writeCSV(w io.Writer, s Sheet) error {
	// UTF-8 BOM so Excel treats it as Unicode
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(s.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(w io.Writer, s Sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	name := sheetName(s.Title)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(s.Columns) > 0 {
		if err := sw.SetColWidth(1, len(s.Columns), 18); err != nil {
			return err
		}
	}

	if err := sw.SetRow("A1", cells(s.Columns), excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}
	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// sheetName makes title usable as a worksheet name: at most 31 characters
// and none of : \ / ? * [ ].
func sheetName(title string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if clean == "" {
		clean = "Sheet1"
	}
	if r := []rune(clean); len(r) > 31 {
		clean = string(r[:31])
	}
	return clean
}
