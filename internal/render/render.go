package render

import (
	"strings"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

// Format is an output file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "pdf" and "xlsx" case-insensitively; empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", apperr.New(apperr.KindBadRequest, "unsupported output format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

func (f Format) Ext() string { return string(f) }

// Renderer writes documents to bytes.
type Renderer struct {
	fontDir string
	log     *zap.Logger
}

// NewRenderer returns a renderer. With an empty fontDir the PDF writer uses the core
// Helvetica font and transliterates text to cp1252.
func NewRenderer(fontDir string, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{fontDir: fontDir, log: log.Named("render")}
}

// Render writes doc in the requested format.
func (r *Renderer) Render(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return r.XLSX(doc)
	case FormatPDF, "":
		return r.PDF(doc)
	default:
		return nil, apperr.New(apperr.KindBadRequest, "unsupported output format %q", format)
	}
}
