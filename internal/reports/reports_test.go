package reports

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/calendar"
	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

var fixedTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

const irrigationDoc = `{
  "@context": "https://w3id.org/ocsm/main-context.jsonld",
  "@graph": [{
    "@id": "urn:farmcalendar:IrrigationOperation:i1",
    "@type": "IrrigationOperation",
    "title": "North block",
    "hasStartDatetime": "2024-05-03T08:00:00",
    "hasAppliedAmount": {"numericValue": 12.5, "unit": "http://qudt.org/vocab/unit/M3"},
    "usesAgriculturalMachinery": [{"@id": "urn:farmcalendar:AgriculturalMachine:xyz"}],
    "usesIrrigationSystem": {"name": "drip"}
  }]
}`

func newDispatcher(opts ...Option) *Dispatcher {
	return NewDispatcher(extract.New(nil), render.NewRenderer("", nil), nil, opts...)
}

type stubUpstream struct {
	calendar models.CalendarData
	animals  []models.Animal
	err      error
	calls    int
}

func (s *stubUpstream) Calendar(context.Context, calendar.Query) (models.CalendarData, error) {
	s.calls++
	return s.calendar, s.err
}

func (s *stubUpstream) Irrigations(context.Context, calendar.Query) ([]models.IrrigationOperation, error) {
	s.calls++
	return nil, s.err
}

func (s *stubUpstream) Animals(context.Context, calendar.Query) ([]models.Animal, error) {
	s.calls++
	return s.animals, s.err
}

type stubEnricher struct{ got []models.Ref }

func (s *stubEnricher) Enrich(_ context.Context, _ string, machinery []models.Ref, _ *models.Ref) models.Enrichment {
	s.got = machinery
	return models.Enrichment{FarmName: "Green Valley", ParcelID: "p1", Address: "Marathon"}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	for _, bad := range []string{"not-a-type", "globalgap", "Irrigations", ""} {
		_, err := ParseType(bad)
		assert.ErrorIs(t, err, apperr.ErrUnsupportedReportType, bad)
	}
}

func TestGenerateIrrigationScenario(t *testing.T) {
	enricher := &stubEnricher{}
	d := newDispatcher(WithEnricher(enricher))
	out, err := d.Generate(context.Background(), Request{Type: Irrigations, Data: []byte(irrigationDoc), GeneratedAt: fixedTime})
	require.NoError(t, err)

	assert.Equal(t, "irrigations.pdf", out.Filename)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Bytes, []byte("%PDF")))
	for _, want := range []string{"drip", "M3", "xyz", "12.5", "Green Valley"} {
		assert.Contains(t, string(out.Bytes), want)
	}
	require.Len(t, enricher.got, 1)
	assert.Equal(t, "xyz", enricher.got[0].ShortID())
}

func TestGenerateUnsupportedType(t *testing.T) {
	_, err := newDispatcher().Generate(context.Background(), Request{Type: "not-a-type", Data: []byte(irrigationDoc)})
	assert.ErrorIs(t, err, apperr.ErrUnsupportedReportType)
}

func TestGenerateMalformedDocument(t *testing.T) {
	_, err := newDispatcher().Generate(context.Background(), Request{Type: Fertilisations, Data: []byte(`{"items": []}`)})
	assert.ErrorIs(t, err, apperr.ErrMalformedDocument)
}

func TestGenerateHarvestsNeedsNoInput(t *testing.T) {
	out, err := newDispatcher().Generate(context.Background(), Request{Type: Harvests})
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), "Production Amount")
}

func TestGenerateWithoutDataOrUpstream(t *testing.T) {
	_, err := newDispatcher().Generate(context.Background(), Request{Type: Irrigations})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	up := &stubUpstream{}
	_, err = newDispatcher(WithUpstream(up)).Generate(context.Background(), Request{Type: Fertilisations})
	assert.ErrorIs(t, err, apperr.ErrBadRequest, "fertilisations cannot come from upstream")
	assert.Zero(t, up.calls)
}

func TestGenerateFromUpstream(t *testing.T) {
	up := &stubUpstream{calendar: models.CalendarData{ActivityType: "Composting"}}
	out, err := newDispatcher(WithUpstream(up)).Generate(context.Background(), Request{
		Type:        Compost,
		Query:       calendar.Query{ActivityType: "Composting"},
		GeneratedAt: fixedTime,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls)
	assert.Contains(t, string(out.Bytes), "Composting")

	up = &stubUpstream{animals: []models.Animal{{Name: "Daisy", Species: "Cow", Sex: new(int)}}}
	out, err = newDispatcher(WithUpstream(up)).Generate(context.Background(), Request{Type: Livestock})
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), "Herd Summary")
}

func TestGenerateFromUpstreamShowsPeriod(t *testing.T) {
	up := &stubUpstream{calendar: models.CalendarData{ActivityType: "Composting"}}
	out, err := newDispatcher(WithUpstream(up)).Generate(context.Background(), Request{
		Type:        Compost,
		Query:       calendar.Query{ActivityType: "Composting", FromDate: "2024-01-01", ToDate: "31/12/2024"},
		GeneratedAt: fixedTime,
	})
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), "Period: from 01/01/2024")
}

type panickingUpstream struct{ *stubUpstream }

func (panickingUpstream) Irrigations(context.Context, calendar.Query) ([]models.IrrigationOperation, error) {
	var ops []models.IrrigationOperation
	_ = ops[3]
	return ops, nil
}

func TestGeneratePanicIsReportGenerationFailed(t *testing.T) {
	_, err := newDispatcher(WithUpstream(panickingUpstream{&stubUpstream{}})).Generate(context.Background(), Request{Type: Irrigations})
	assert.ErrorIs(t, err, apperr.ErrReportGenerationFailed)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	up := &stubUpstream{err: apperr.Upstream(503, nil, "Gatekeeper API returned an error.")}
	_, err := newDispatcher(WithUpstream(up)).Generate(context.Background(), Request{Type: Animal})
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestGenerateLegacyCompostUpload(t *testing.T) {
	data := `{"operations": [{"title": "turn pile"}], "observations": []}`
	out, err := newDispatcher().Generate(context.Background(), Request{
		Type: Compost, Data: []byte(data), Query: calendar.Query{ActivityType: "Compost Turning"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), "turn pile")
}

func TestGenerateXLSX(t *testing.T) {
	out, err := newDispatcher().Generate(context.Background(), Request{Type: Irrigations, Format: render.FormatXLSX, Data: []byte(irrigationDoc)})
	require.NoError(t, err)
	assert.Equal(t, "irrigations.xlsx", out.Filename)
	assert.True(t, bytes.HasPrefix(out.Bytes, []byte("PK")))
}

func TestQueueWritesFile(t *testing.T) {
	root := t.TempDir()
	q := NewQueue(newDispatcher(), root, 2, 4, nil)

	id, err := q.Submit("user-1", Request{Type: Irrigations, Data: []byte(irrigationDoc)})
	require.NoError(t, err)
	q.Close()

	b, err := os.ReadFile(filepath.Join(root, "user-1", id+".pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
	assert.Equal(t, filepath.Join(root, "user-1", id+".pdf"), q.Path("user-1", id, ""))
}

func TestQueueFailedJobWritesNothing(t *testing.T) {
	root := t.TempDir()
	q := NewQueue(newDispatcher(), root, 1, 1, nil)

	id, err := q.Submit("user-1", Request{Type: "not-a-type", Data: []byte(irrigationDoc)})
	require.NoError(t, err)
	q.Close()

	_, err = os.Stat(q.Path("user-1", id, render.FormatPDF))
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type explodingGenerator struct{ next Generator }

func (g explodingGenerator) Generate(ctx context.Context, req Request) (*models.ReportDocument, error) {
	if req.Type == "explode" {
		panic("renderer exploded")
	}
	return g.next.Generate(ctx, req)
}

func TestQueueSurvivesPanickingJob(t *testing.T) {
	root := t.TempDir()
	q := NewQueue(explodingGenerator{next: newDispatcher()}, root, 1, 2, nil)

	bad, err := q.Submit("user-1", Request{Type: "explode"})
	require.NoError(t, err)
	good, err := q.Submit("user-1", Request{Type: Harvests})
	require.NoError(t, err)
	q.Close()

	_, err = os.Stat(q.Path("user-1", bad, ""))
	assert.True(t, os.IsNotExist(err))
	b, err := os.ReadFile(q.Path("user-1", good, ""))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(newDispatcher(), t.TempDir(), 1, 1, nil)
	q.Close()
	_, err := q.Submit("u", Request{Type: Harvests})
	assert.Error(t, err)
	q.Close()
}
