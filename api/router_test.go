package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/reports"
	"github.com/agstack/OpenAgri-ReportingService/internal/store"
)

const irrigationDoc = `{"@graph":[{"@id":"urn:farmcalendar:IrrigationOperation:i1","@type":"IrrigationOperation",
	"hasStartDatetime":"2024-05-03T08:00:00","hasAppliedAmount":{"numericValue":12.5,"unit":"http://qudt.org/vocab/unit/M3"},
	"usesIrrigationSystem":"drip"}]}`

func newTestApp(t *testing.T) *App {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)

	cfg := Config{PDFDirectory: t.TempDir(), CORSOrigins: []string{"*"}, Workers: 1, QueueSize: 4}
	gen := newDispatcher(cfg, zap.NewNop())
	a := &App{
		cfg:   cfg,
		log:   zap.NewNop(),
		store: st,
		gen:   gen,
		queue: reports.NewQueue(gen, cfg.PDFDirectory, cfg.Workers, cfg.QueueSize, nil),
		now:   func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) },
	}
	t.Cleanup(func() { a.close(context.Background()) })
	return a
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("gatekeeper"))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, sub string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, sub))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("data", "ops.jsonld")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPublicEndpoints(t *testing.T) {
	h := newTestApp(t).routes()

	rec := do(t, h, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/openapi.yaml", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")

	rec = do(t, h, http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newTestApp(t).routes()
	rec := do(t, h, http.MethodGet, "/api/v1/openagri-dataset/1", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDatasetEndpoints(t *testing.T) {
	h := newTestApp(t).routes()

	body, ct := upload(t, []byte(irrigationDoc))
	rec := do(t, h, http.MethodPost, "/api/v1/openagri-dataset/", "alice", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[idResp](t, rec).ID
	require.NotZero(t, id)

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-dataset/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, irrigationDoc, decode[datasetResp](t, rec).Data)

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-dataset/download/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="ops.jsonld"`)

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-dataset/1", "bob", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown dataset is a bad request")

	rec = do(t, h, http.MethodDelete, "/api/v1/openagri-dataset/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully removed dataset with ID:1.", decode[messageResp](t, rec).Message)

	rec = do(t, h, http.MethodDelete, "/api/v1/openagri-dataset/1", "alice", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasetUploadValidation(t *testing.T) {
	h := newTestApp(t).routes()

	body, ct := upload(t, []byte{0xff, 0xfe, 0x00})
	rec := do(t, h, http.MethodPost, "/api/v1/openagri-dataset/", "alice", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-dataset/", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportFromDataset(t *testing.T) {
	h := newTestApp(t).routes()

	body, ct := upload(t, []byte(irrigationDoc))
	rec := do(t, h, http.MethodPost, "/api/v1/openagri-dataset/", "alice", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/irrigations/dataset/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reportID := decode[idResp](t, rec).ID

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-report/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	assert.Contains(t, rec.Body.String(), "drip")

	rec = do(t, h, http.MethodDelete, "/api/v1/openagri-report/1", "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully deleted report with ID:1.", decode[messageResp](t, rec).Message)
	assert.EqualValues(t, 1, reportID)
}

func TestReportFromDatasetErrors(t *testing.T) {
	h := newTestApp(t).routes()

	body, ct := upload(t, []byte(`{"items": []}`))
	rec := do(t, h, http.MethodPost, "/api/v1/openagri-dataset/", "alice", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/not-a-type/dataset/1", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/fertilisations/dataset/1", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing @graph")

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/fertilisations/dataset/9", "alice", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-report/7", "alice", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackgroundReport(t *testing.T) {
	a := newTestApp(t)
	h := a.routes()

	body, ct := upload(t, []byte(irrigationDoc))
	rec := do(t, h, http.MethodPost, "/api/v1/openagri-report/irrigations/?format=xlsx", "alice", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[uuidResp](t, rec).UUID
	require.NotEmpty(t, id)

	a.queue.Close()

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-report/file/"+id, "alice", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-report/file/"+id, "bob", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackgroundReportValidation(t *testing.T) {
	h := newTestApp(t).routes()

	rec := do(t, h, http.MethodPost, "/api/v1/openagri-report/not-a-type/", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/irrigations/", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no data and no gatekeeper")

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/irrigations/?format=docx", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/openagri-report/harvests/", "alice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "harvests is a fixed template")

	rec = do(t, h, http.MethodGet, "/api/v1/openagri-report/file/not-a-uuid", "alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
