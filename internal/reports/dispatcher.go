package reports

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/calendar"
	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/internal/metrics"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Upstream provides report inputs from the farm calendar.
type Upstream interface {
	Calendar(ctx context.Context, q calendar.Query) (models.CalendarData, error)
	Irrigations(ctx context.Context, q calendar.Query) ([]models.IrrigationOperation, error)
	Animals(ctx context.Context, q calendar.Query) ([]models.Animal, error)
}

// Enricher resolves display context for a single parcel-bound record.
type Enricher interface {
	Enrich(ctx context.Context, token string, machinery []models.Ref, parcel *models.Ref) models.Enrichment
}

// Request describes one report generation.
type Request struct {
	Type   Type
	Format render.Format
	// Data is the uploaded or stored JSON-LD dataset; empty means "use upstream".
	Data        []byte
	Query       calendar.Query
	GeneratedAt time.Time
}

// Dispatcher turns requests into rendered documents. It is stateless; every
// collaborator is read-only and may be nil except extractor and renderer.
type Dispatcher struct {
	extractor *extract.Extractor
	renderer  *render.Renderer
	upstream  Upstream
	enricher  Enricher
	geocoder  calendar.Geocoder
	log       *zap.Logger
}

type Option func(*Dispatcher)

// WithUpstream enables the farm calendar as a data source.
func WithUpstream(u Upstream) Option { return func(d *Dispatcher) { d.upstream = u } }

// WithEnricher enables farm/parcel/address lookups for single-record reports.
func WithEnricher(e Enricher) Option { return func(d *Dispatcher) { d.enricher = e } }

// WithGeocoder fills parcel addresses in farm reports.
func WithGeocoder(g calendar.Geocoder) Option { return func(d *Dispatcher) { d.geocoder = g } }

func NewDispatcher(extractor *extract.Extractor, renderer *render.Renderer, log *zap.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{extractor: extractor, renderer: renderer, log: log.Named("reports")}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Generate extracts, lays out and renders one report.
func (d *Dispatcher) Generate(ctx context.Context, req Request) (*models.ReportDocument, error) {
	start := time.Now()
	format := req.Format
	if format == "" {
		format = render.FormatPDF
	}

	out, err := d.generate(ctx, req, format)
	metrics.ReportDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = string(apperr.KindOf(err))
		d.log.Warn("report generation failed",
			zap.String("report_type", string(req.Type)),
			zap.String("format", string(format)),
			zap.Error(err))
	}
	metrics.ReportsGenerated.WithLabelValues(string(req.Type), string(format), status).Inc()
	return out, err
}

func (d *Dispatcher) generate(ctx context.Context, req Request, format render.Format) (out *models.ReportDocument, err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error("report generation panicked", zap.String("report_type", string(req.Type)), zap.Any("panic", p))
			out, err = nil, apperr.New(apperr.KindReportGenerationFailed, "failed to generate %s report: %v", req.Type, p)
		}
	}()

	if _, err := ParseType(string(req.Type)); err != nil {
		return nil, err
	}
	doc, err := d.layout(ctx, req)
	if err != nil {
		return nil, err
	}
	b, err := d.renderer.Render(doc, format)
	if err != nil {
		return nil, err
	}
	return &models.ReportDocument{
		Bytes:       b,
		Filename:    doc.Name + "." + format.Ext(),
		ContentType: format.ContentType(),
	}, nil
}

func (d *Dispatcher) layout(ctx context.Context, req Request) (*render.Document, error) {
	opts := render.Options{GeneratedAt: req.GeneratedAt}
	if !req.Type.NeedsInput() {
		return render.Harvests(opts), nil
	}
	if len(req.Data) == 0 {
		if d.upstream == nil || !req.Type.Upstream() {
			return nil, apperr.New(apperr.KindBadRequest, "data file must be provided")
		}
		return d.fromUpstream(ctx, req, opts)
	}

	if req.Type == Compost {
		data, err := d.extractor.Calendar(req.Data, req.Query.ActivityType)
		if err != nil {
			return nil, err
		}
		return render.Calendar(string(Compost), "Farm Calendar Report", data, opts), nil
	}

	doc, err := extract.Parse(req.Data)
	if err != nil {
		return nil, err
	}
	ex := d.extractor
	switch req.Type {
	case Irrigations:
		ops := ex.Irrigations(doc)
		if len(ops) == 1 {
			opts.Enrichment = d.enrich(ctx, req, ops[0].Machinery, ops[0].OperatedOn)
		}
		return render.Irrigations(ops, opts), nil
	case Fertilisations:
		return render.Fertilisations(ex.Fertilizations(doc), opts), nil
	case PlantProtection:
		return render.PlantProtection(ex.PestManagement(doc), opts), nil
	case Animal:
		animals := ex.Animals(doc)
		if len(animals) == 1 {
			opts.Enrichment = d.enrich(ctx, req, nil, animals[0].Parcel)
		}
		return render.Animals(animals, opts), nil
	case Livestock:
		return render.Livestock(ex.Animals(doc), opts), nil
	case IrrigationReport:
		return render.SoilMoisture(ex.SoilMoisture(doc), opts), nil
	case Forecast:
		return render.Forecast(ex.Forecasts(doc), opts), nil
	case WorkBook:
		return render.WorkBook(d.farmData(ctx, doc), opts), nil
	case GlobalGAP:
		return render.GlobalGAP(d.farmData(ctx, doc), opts), nil
	}
	return nil, apperr.New(apperr.KindUnsupportedReportType, "Report type %q is not supported.", req.Type)
}

func (d *Dispatcher) fromUpstream(ctx context.Context, req Request, opts render.Options) (*render.Document, error) {
	opts.Period = req.Query.Period()
	switch req.Type {
	case Irrigations:
		ops, err := d.upstream.Irrigations(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		if len(ops) == 1 {
			opts.Enrichment = d.enrich(ctx, req, ops[0].Machinery, ops[0].OperatedOn)
		}
		return render.Irrigations(ops, opts), nil
	case Animal, Livestock:
		animals, err := d.upstream.Animals(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		if req.Type == Livestock {
			return render.Livestock(animals, opts), nil
		}
		if len(animals) == 1 {
			opts.Enrichment = d.enrich(ctx, req, nil, animals[0].Parcel)
		}
		return render.Animals(animals, opts), nil
	case Compost:
		data, err := d.upstream.Calendar(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return render.Calendar(string(Compost), "Farm Calendar Report", data, opts), nil
	}
	return nil, apperr.New(apperr.KindBadRequest, "data file must be provided")
}

func (d *Dispatcher) enrich(ctx context.Context, req Request, machinery []models.Ref, parcel *models.Ref) *models.Enrichment {
	if d.enricher == nil {
		return nil
	}
	e := d.enricher.Enrich(ctx, req.Query.Token, machinery, parcel)
	return &e
}

func (d *Dispatcher) farmData(ctx context.Context, doc *extract.Document) render.FarmData {
	data := render.FarmData{
		Farms:          d.extractor.Farms(doc),
		Irrigations:    d.extractor.Irrigations(doc),
		Fertilizations: d.extractor.Fertilizations(doc),
		PestManagement: d.extractor.PestManagement(doc),
	}
	if d.geocoder == nil {
		return data
	}
	for i := range data.Farms {
		for j := range data.Farms[i].Parcels {
			p := &data.Farms[i].Parcels[j]
			if p.Location == nil {
				continue
			}
			addr, err := d.geocoder.Reverse(ctx, p.Location.Lat, p.Location.Long)
			if err != nil {
				d.log.Debug("parcel address lookup failed", zap.String("parcel", p.ID), zap.Error(err))
				continue
			}
			p.Address = addr
		}
	}
	return data
}
