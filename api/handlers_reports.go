package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agstack/OpenAgri-ReportingService/internal/calendar"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/internal/reports"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// reportRequest collects the type, format and calendar filters shared by both create endpoints.
func (a *App) reportRequest(r *http.Request) (reports.Request, error) {
	typ, err := reports.ParseType(chi.URLParam(r, "report_type"))
	if err != nil {
		return reports.Request{}, err
	}
	q := r.URL.Query()
	format, err := render.ParseFormat(q.Get("format"))
	if err != nil {
		return reports.Request{}, err
	}
	return reports.Request{
		Type:   typ,
		Format: format,
		Query: calendar.Query{
			Token:        bearerToken(r),
			ActivityType: q.Get("activity_type"),
			OperationID:  q.Get("operation_id"),
			FromDate:     q.Get("from_date"),
			ToDate:       q.Get("to_date"),
		},
		GeneratedAt: a.now(),
	}, nil
}

// handleReportFromDataset renders a stored dataset synchronously and persists the result.
func (a *App) handleReportFromDataset(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	req, err := a.reportRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	datasetID, err := parseID(r, "dataset_id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	d, err := a.store.GetDataset(ctx, uid, datasetID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Data = d.Data

	doc, err := a.gen.Generate(ctx, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rep := models.Report{
		OwnerID:     uid,
		Type:        string(req.Type),
		DatasetID:   &d.ID,
		Status:      models.ReportStatusReady,
		ContentType: doc.ContentType,
		Data:        doc.Bytes,
		CreatedAt:   req.GeneratedAt,
	}
	if err := a.store.CreateReport(ctx, &rep); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, idResp{ID: rep.ID})
}

// handleCreateReport queues generation from an optional upload, or from the farm
// calendar when the gatekeeper is enabled. The output is fetched by uuid.
func (a *App) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	req, err := a.reportRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Data, _, err = readUpload(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(req.Data) == 0 && req.Type.NeedsInput() && !(a.cfg.UsingGatekeeper && req.Type.Upstream()) {
		http.Error(w, "data file must be provided", http.StatusBadRequest)
		return
	}

	id, err := a.queue.Submit(mustUserID(r), req)
	if err != nil {
		http.Error(w, "report queue unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, uuidResp{UUID: id})
}

// handleReportFile serves background output once the worker has written it.
func (a *App) handleReportFile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		http.Error(w, "bad uuid", http.StatusBadRequest)
		return
	}
	for _, f := range []render.Format{render.FormatPDF, render.FormatXLSX} {
		data, err := os.ReadFile(a.queue.Path(mustUserID(r), id.String(), f))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			a.writeError(w, r, fmt.Errorf("read report file: %w", err))
			return
		}
		writeFile(w, data, f.ContentType(), "inline", id.String()+"."+f.Ext())
		return
	}
	http.Error(w, "Report is not available yet.", http.StatusNotFound)
}

func (a *App) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rep, err := a.store.GetReport(ctx, mustUserID(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	contentType := rep.ContentType
	if contentType == "" {
		contentType = render.FormatPDF.ContentType()
	}
	writeFile(w, rep.Data, contentType, "inline", fmt.Sprintf("%s-%d.%s", rep.Type, rep.ID, extFor(contentType)))
}

func extFor(contentType string) string {
	if contentType == render.FormatXLSX.ContentType() {
		return render.FormatXLSX.Ext()
	}
	return render.FormatPDF.Ext()
}

func (a *App) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.store.DeleteReport(ctx, mustUserID(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, messageResp{Message: fmt.Sprintf("Successfully deleted report with ID:%d.", id)})
}
