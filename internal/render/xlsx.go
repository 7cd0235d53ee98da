package render

import (
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

const xlsxSheet = "Report"

// xlsxWriter appends document blocks to a single worksheet, one row at a time.
type xlsxWriter struct {
	f       *excelize.File
	row     int
	bold    int
	header  int
	title   int
	maxCols int
}

// XLSX renders doc onto a single worksheet: title, then each section's heading,
// details as label/value pairs and its table.
func (r *Renderer) XLSX(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			r.log.Warn("close workbook", zap.Error(err))
		}
	}()

	w, err := newXLSXWriter(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindReportGenerationFailed, err, "failed to prepare workbook")
	}
	if err := w.write(doc); err != nil {
		return nil, apperr.Wrap(apperr.KindReportGenerationFailed, err, "failed to write workbook")
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindReportGenerationFailed, err, "failed to serialize workbook")
	}
	return buf.Bytes(), nil
}

func newXLSXWriter(f *excelize.File) (*xlsxWriter, error) {
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"B4C424"}},
	})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	return &xlsxWriter{f: f, row: 1, bold: bold, header: header, title: title}, nil
}

func (w *xlsxWriter) write(doc *Document) error {
	if err := w.f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Creator: "OpenAgri Reporting Service",
		Created: doc.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	if err := w.line(w.title, doc.Title); err != nil {
		return err
	}
	if doc.Subtitle != "" {
		if err := w.line(0, doc.Subtitle); err != nil {
			return err
		}
	}
	if err := w.line(0, "Generated: "+doc.GeneratedAt.UTC().Format("02/01/2006 15:04")+" UTC"); err != nil {
		return err
	}
	w.row++

	for _, s := range doc.Sections {
		if err := w.section(s); err != nil {
			return err
		}
	}
	if w.maxCols > 0 {
		last, err := excelize.ColumnNumberToName(w.maxCols)
		if err != nil {
			return err
		}
		return w.f.SetColWidth(xlsxSheet, "A", last, 22)
	}
	return nil
}

func (w *xlsxWriter) section(s Section) error {
	if err := w.line(w.bold, s.Heading); err != nil {
		return err
	}
	for _, p := range s.Text {
		if err := w.line(0, p); err != nil {
			return err
		}
	}
	for _, f := range s.Details {
		if err := w.cells(0, f.Label, f.Value); err != nil {
			return err
		}
		if err := w.style(w.row-1, 1, 1, w.bold); err != nil {
			return err
		}
	}
	if t := s.Table; t != nil && len(t.Columns) > 0 {
		if err := w.cells(w.header, t.Columns...); err != nil {
			return err
		}
		for _, r := range t.Rows {
			if err := w.cells(0, r...); err != nil {
				return err
			}
		}
	}
	w.row++
	return nil
}

func (w *xlsxWriter) line(style int, value string) error {
	return w.cells(style, value)
}

// cells writes values into the current row starting at column A and advances the row.
func (w *xlsxWriter) cells(style int, values ...string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(xlsxSheet, cell, v); err != nil {
			return err
		}
	}
	w.maxCols = max(w.maxCols, len(values))
	if style != 0 && len(values) > 0 {
		if err := w.style(w.row, 1, len(values), style); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

func (w *xlsxWriter) style(row, fromCol, toCol, style int) error {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(xlsxSheet, from, to, style)
}
