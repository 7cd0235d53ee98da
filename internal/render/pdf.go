package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

const (
	pageMarginLeft   = 10.0
	pageMarginTop    = 15.0
	pageMarginRight  = 10.0
	pageMarginBottom = 15.0
	lineHeight       = 5.0
	cellPadding      = 1.0
)

var (
	headerFill = [3]int{180, 196, 36}
	rowFill    = [3]int{255, 255, 240}
)

// pdfWriter draws a Document onto an fpdf page stream.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	family string
	utf8   bool
	tr     func(string) string
	width  float64
}

// PDF renders doc as an A4 portrait PDF. The output is byte-identical for equal
// documents with the same GeneratedAt.
func (r *Renderer) PDF(doc *Document) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("pdf layout panicked", zap.String("document", doc.Name), zap.Any("panic", p))
			out, err = nil, apperr.New(apperr.KindReportGenerationFailed, "failed to lay out %s report: %v", doc.Name, p)
		}
	}()

	w := r.newPDFWriter(doc)
	pdf := w.pdf
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(w.family, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	w.title(doc)
	for _, s := range doc.Sections {
		w.section(s)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindReportGenerationFailed, err, "failed to write pdf")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newPDFWriter(doc *Document) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", r.fontDir)
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetMargins(pageMarginLeft, pageMarginTop, pageMarginRight)
	pdf.SetAutoPageBreak(true, pageMarginBottom)

	w := &pdfWriter{pdf: pdf, family: "Helvetica", tr: cp1252}
	if r.utf8FontAvailable() {
		pdf.AddUTF8Font("FreeSerif", "", "FreeSerif.ttf")
		pdf.AddUTF8Font("FreeSerif", "B", "FreeSerifBold.ttf")
		w.family = "FreeSerif"
		w.utf8 = true
		w.tr = bmp
	}
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("OpenAgri Reporting Service", true)

	pageW, _ := pdf.GetPageSize()
	w.width = pageW - pageMarginLeft - pageMarginRight
	return w
}

func (r *Renderer) utf8FontAvailable() bool {
	if r.fontDir == "" {
		return false
	}
	for _, name := range []string{"FreeSerif.ttf", "FreeSerifBold.ttf"} {
		if _, err := os.Stat(filepath.Join(r.fontDir, name)); err != nil {
			r.log.Warn("utf-8 font missing, falling back to core font", zap.String("font", name), zap.Error(err))
			return false
		}
	}
	return true
}

func (w *pdfWriter) title(doc *Document) {
	w.pdf.SetFont(w.family, "B", 16)
	w.pdf.CellFormat(0, 10, w.tr(doc.Title), "", 1, "C", false, 0, "")
	w.pdf.SetFont(w.family, "", 9)
	if doc.Subtitle != "" {
		w.pdf.CellFormat(0, 6, w.tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	w.pdf.CellFormat(0, 6, "Generated: "+doc.GeneratedAt.UTC().Format("02/01/2006 15:04")+" UTC", "", 1, "C", false, 0, "")
	w.pdf.Ln(4)
}

func (w *pdfWriter) section(s Section) {
	w.ensureSpace(3 * lineHeight)
	w.pdf.SetFont(w.family, "B", 12)
	w.pdf.CellFormat(0, 8, w.tr(s.Heading), "B", 1, "L", false, 0, "")
	w.pdf.Ln(2)

	w.pdf.SetFont(w.family, "", 10)
	for _, p := range s.Text {
		w.pdf.MultiCell(0, lineHeight, w.tr(p), "", "L", false)
		w.pdf.Ln(1)
	}

	if len(s.Details) > 0 {
		w.pdf.SetFont(w.family, "", 9)
		labelW := w.width * 0.35
		for _, f := range s.Details {
			w.row([]string{f.Label, f.Value}, []float64{labelW, w.width - labelW}, []*[3]int{&rowFill, nil}, nil)
		}
		w.pdf.Ln(3)
	}

	if s.Table != nil && len(s.Table.Columns) > 0 {
		w.table(s.Table)
		w.pdf.Ln(3)
	}
}

func (w *pdfWriter) table(t *Table) {
	size := 8.0
	if len(t.Columns) > 8 {
		size = 7
	}
	widths := make([]float64, len(t.Columns))
	for i := range widths {
		widths[i] = w.width / float64(len(t.Columns))
	}
	header := func() {
		w.pdf.SetFont(w.family, "B", size)
		w.row(t.Columns, widths, fills(len(widths), &headerFill), nil)
		w.pdf.SetFont(w.family, "", size)
	}
	header()
	for i, r := range t.Rows {
		cells := make([]string, len(widths))
		copy(cells, r)
		var fill *[3]int
		if i%2 == 1 {
			fill = &rowFill
		}
		w.row(cells, widths, fills(len(widths), fill), header)
	}
}

// row draws one line of bordered cells sharing the tallest cell's height. When the
// row does not fit the page a new page is started and onBreak redraws any header.
func (w *pdfWriter) row(cells []string, widths []float64, fill []*[3]int, onBreak func()) {
	_, fontSize := w.pdf.GetFontSize()
	lines := make([][]string, len(cells))
	maxLines := 1
	for i, c := range cells {
		lines[i] = w.split(c, widths[i])
		maxLines = max(maxLines, len(lines[i]))
	}
	lh := fontSize * 1.3
	h := float64(maxLines)*lh + 2*cellPadding

	if !w.fits(h) {
		w.pdf.AddPage()
		if onBreak != nil {
			onBreak()
		}
	}

	x, y := pageMarginLeft, w.pdf.GetY()
	for i := range cells {
		style := "D"
		if c := fill[i]; c != nil {
			w.pdf.SetFillColor(c[0], c[1], c[2])
			style = "FD"
		}
		w.pdf.Rect(x, y, widths[i], h, style)
		for j, l := range lines[i] {
			w.pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lh)
			w.pdf.CellFormat(widths[i]-2*cellPadding, lh, l, "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	w.pdf.SetXY(pageMarginLeft, y+h)
}

// split wraps s to fit a cell of the given width in the current font. UTF-8 fonts
// are measured per rune; the core fonts per cp1252 byte.
func (w *pdfWriter) split(s string, width float64) []string {
	if w.utf8 {
		// SplitText subtracts the cell margin itself, which equals cellPadding.
		return w.pdf.SplitText(w.tr(s), width)
	}
	var out []string
	for _, l := range w.pdf.SplitLines([]byte(w.tr(s)), width-2*cellPadding) {
		out = append(out, string(l))
	}
	return out
}

func (w *pdfWriter) fits(h float64) bool {
	_, pageH := w.pdf.GetPageSize()
	return w.pdf.GetY()+h <= pageH-pageMarginBottom
}

func (w *pdfWriter) ensureSpace(h float64) {
	if !w.fits(h) {
		w.pdf.AddPage()
	}
}

func fills(n int, c *[3]int) []*[3]int {
	out := make([]*[3]int, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// cp1252 maps s onto the core fonts' encoding, replacing unmappable runes with '?'.
func cp1252(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// bmp replaces runes outside the Basic Multilingual Plane, which fpdf's UTF-8 width
// table does not cover, with '?'.
func bmp(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}
