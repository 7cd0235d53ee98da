package calendar

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

const base = "http://gatekeeper.test/api/proxy/farmcalendar/api/v1/"

func mockedClient(t *testing.T, log *zap.Logger) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(base, hc, log)
}

func newAggregator(t *testing.T) *Aggregator {
	return NewAggregator(mockedClient(t, nil), DefaultEndpoints(), extract.New(nil), nil)
}

func TestClientForwardsBearerToken(t *testing.T) {
	c := mockedClient(t, nil)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmAnimals/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			assert.Equal(t, "json", req.URL.Query().Get("format"))
			return httpmock.NewStringResponse(200, `[]`), nil
		})

	body, err := c.Get(context.Background(), "FarmAnimals/", baseParams(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestClientNon2xxIsUpstreamError(t *testing.T) {
	c := mockedClient(t, nil)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmAnimals/", httpmock.NewStringResponder(502, "bad gateway"))

	_, err := c.Get(context.Background(), "FarmAnimals/", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 502, ae.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "single attempt")
}

func TestCalendarUnknownActivityTypeIsEmpty(t *testing.T) {
	a := newAggregator(t)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivityTypes/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Composting", req.URL.Query().Get("name"))
			return httpmock.NewStringResponse(200, `[]`), nil
		})

	data, err := a.Calendar(context.Background(), Query{ActivityType: "Composting"})
	require.NoError(t, err)
	assert.Equal(t, "Composting", data.ActivityType)
	assert.True(t, data.Empty())
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCalendarByActivityTypeFiltersByShortID(t *testing.T) {
	a := newAggregator(t)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivityTypes/",
		httpmock.NewStringResponder(200, `[{"@id":"urn:farmcalendar:FarmCalendarActivityType:t42","name":"Composting"}]`))
	httpmock.RegisterResponder(http.MethodGet, base+"Observations/",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "t42", q.Get("activity_type"))
			assert.Equal(t, "2024-01-01", q.Get("fromDate"))
			assert.Empty(t, q.Get("toDate"), "invalid toDate is dropped")
			return httpmock.NewStringResponse(200, `{"@graph":[{"@id":"urn:farmcalendar:Observation:o1","@type":"Observation","hasResult":{"hasValue":"55","unit":"DEG_C"}}]}`), nil
		})
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivities/",
		httpmock.NewStringResponder(200, `[{"@id":"urn:farmcalendar:Operation:a","title":"turn"},{"@id":"urn:farmcalendar:Operation:b","title":"water"}]`))

	data, err := a.Calendar(context.Background(), Query{ActivityType: "Composting", FromDate: "2024-01-01", ToDate: "31/12/2024"})
	require.NoError(t, err)
	require.Len(t, data.Observations, 1)
	assert.Equal(t, "55", data.Observations[0].Result.Value)
	require.Len(t, data.Operations, 2)
	assert.Equal(t, "water", data.Operations[1].Title)
}

func TestCalendarByOperationFansOut(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	a := NewAggregator(mockedClient(t, nil), DefaultEndpoints(), extract.New(nil), zap.New(core))

	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivities/op1/",
		httpmock.NewStringResponder(200, `{
			"@id":"urn:farmcalendar:CompostOperation:op1",
			"@type":"CompostOperation",
			"title":"Pile A",
			"activityType":{"@id":"urn:farmcalendar:FarmCalendarActivityType:t42"},
			"hasMeasurement":[{"@id":"urn:farmcalendar:Observation:m1"},{"@id":"urn:farmcalendar:Observation:m2"}],
			"hasNestedOperation":[{"@id":"urn:farmcalendar:AddRawMaterialOperation:n1"}]
		}`))
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivityTypes/t42/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:FarmCalendarActivityType:t42","name":"Compost Turning"}`))
	httpmock.RegisterResponder(http.MethodGet, base+"Observations/m1/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:Observation:m1","hasValue":"61","isMeasuredIn":"DEG_C"}`))
	httpmock.RegisterResponder(http.MethodGet, base+"Observations/m2/", httpmock.NewStringResponder(500, "boom"))
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivities/op1/AddRawMaterialOperations/",
		httpmock.NewStringResponder(200, `[{"@id":"urn:farmcalendar:AddRawMaterialOperation:n1","title":"add straw",
			"hasCompostMaterial":[{"typeName":"straw","quantityValue":{"numericValue":3,"unit":"KiloGM"}}]}]`))

	data, err := a.Calendar(context.Background(), Query{OperationID: "op1"})
	require.NoError(t, err)
	assert.Equal(t, "Compost Turning", data.ActivityType)
	require.Len(t, data.Operations, 1)
	require.Len(t, data.Observations, 1, "failed measurement is skipped")
	assert.Equal(t, "61", data.Observations[0].Result.Value)
	require.Len(t, data.Materials, 1)
	assert.Equal(t, "straw", data.Materials[0].Materials[0].Name)
	assert.Equal(t, 1, logs.FilterMessage("observation lookup failed").Len())
}

func TestCalendarOperationFailureIsReturned(t *testing.T) {
	a := newAggregator(t)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmCalendarActivities/op1/", httpmock.NewStringResponder(404, "{}"))

	_, err := a.Calendar(context.Background(), Query{OperationID: "op1"})
	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func TestIrrigationsAndAnimals(t *testing.T) {
	a := newAggregator(t)
	httpmock.RegisterResponder(http.MethodGet, base+"IrrigationOperations/",
		httpmock.NewStringResponder(200, `{"@context":"x","@graph":[{"@id":"urn:farmcalendar:IrrigationOperation:i1","@type":"IrrigationOperation",
			"hasAppliedAmount":{"numericValue":12.5,"unit":"http://qudt.org/vocab/unit/M3"},"usesIrrigationSystem":"drip"}]}`))
	httpmock.RegisterResponder(http.MethodGet, base+"FarmAnimals/",
		httpmock.NewStringResponder(200, `[{"@id":"urn:farmcalendar:FarmAnimal:a1","name":"Daisy","sex":1},{"@id":"urn:farmcalendar:FarmAnimal:a2","name":"Bruno","sex":0}]`))

	irr, err := a.Irrigations(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, irr, 1)
	assert.Equal(t, "M3", irr[0].AppliedAmount.Unit)
	assert.Equal(t, "drip", irr[0].IrrigationSystem.String())

	animals, err := a.Animals(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, animals, 2)
	assert.Equal(t, "Male", animals[1].SexLabel())
}

type stubGeocoder struct {
	addr string
	err  error
}

func (s stubGeocoder) Reverse(context.Context, float64, float64) (string, error) { return s.addr, s.err }

func TestEnrichFollowsMachineToFarm(t *testing.T) {
	e := NewEnricher(mockedClient(t, nil), DefaultEndpoints(), stubGeocoder{addr: "Marathon, Greece"}, nil)
	httpmock.RegisterResponder(http.MethodGet, base+"AgriculturalMachines/xyz/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:AgriculturalMachine:xyz","hasAgriParcel":{"@id":"urn:farmcalendar:Parcel:p1"}}`))
	httpmock.RegisterResponder(http.MethodGet, base+"FarmParcels/p1/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:Parcel:p1","hasFarm":{"@id":"urn:farmcalendar:Farm:f1"},"location":{"lat":38.1,"long":23.9}}`))
	httpmock.RegisterResponder(http.MethodGet, base+"Farm/f1/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:Farm:f1","name":"Green Valley"}`))

	got := e.Enrich(context.Background(), "tok", []models.Ref{{ID: "urn:farmcalendar:AgriculturalMachine:xyz"}}, nil)
	assert.Equal(t, models.Enrichment{FarmName: "Green Valley", ParcelID: "p1", Address: "Marathon, Greece"}, got)
}

func TestEnrichDegradesToEmptyFields(t *testing.T) {
	e := NewEnricher(mockedClient(t, nil), DefaultEndpoints(), stubGeocoder{err: errors.New("timeout")}, nil)
	httpmock.RegisterResponder(http.MethodGet, base+"FarmParcels/p1/",
		httpmock.NewStringResponder(200, `{"@id":"urn:farmcalendar:Parcel:p1","hasFarm":{"@id":"urn:farmcalendar:Farm:f1"},"location":{"lat":38.1,"long":23.9}}`))
	httpmock.RegisterResponder(http.MethodGet, base+"Farm/f1/", httpmock.NewStringResponder(500, ""))

	got := e.Enrich(context.Background(), "", nil, &models.Ref{ID: "urn:farmcalendar:Parcel:p1"})
	assert.Equal(t, models.Enrichment{ParcelID: "p1"}, got)

	assert.Equal(t, models.Enrichment{}, e.Enrich(context.Background(), "", nil, nil))
}

func TestQueryPeriod(t *testing.T) {
	assert.Nil(t, Query{}.Period())
	assert.Nil(t, Query{FromDate: "01/01/2024"}.Period())

	p := Query{FromDate: "2024-01-01", ToDate: "31/12/2024"}.Period()
	require.NotNil(t, p)
	require.NotNil(t, p.Begin)
	assert.Equal(t, "2024-01-01", p.Begin.Format("2006-01-02"))
	assert.Nil(t, p.End)
}
