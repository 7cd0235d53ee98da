package main

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// handleUploadDataset stores a raw JSON-LD upload as-is.
func (a *App) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	data, filename, err := readUpload(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		http.Error(w, "data file must be provided", http.StatusBadRequest)
		return
	}
	if !utf8.Valid(data) {
		http.Error(w, "Dataset must be UTF-8 encoded.", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	d := models.Dataset{OwnerID: uid, Filename: filename, Data: data, CreatedAt: a.now()}
	if err := a.store.CreateDataset(ctx, &d); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, idResp{ID: d.ID})
}

func (a *App) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, datasetResp{Data: string(d.Data)})
}

func (a *App) handleDownloadDataset(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDataset(w, r)
	if !ok {
		return
	}
	name := d.Filename
	if name == "" {
		name = fmt.Sprintf("dataset-%d.jsonld", d.ID)
	}
	writeFile(w, d.Data, "application/ld+json", "attachment", name)
}

// loadDataset answers an unknown id with 400, like the dataset endpoints always have.
func (a *App) loadDataset(w http.ResponseWriter, r *http.Request) (*models.Dataset, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	d, err := a.store.GetDataset(ctx, mustUserID(r), id)
	if apperr.KindOf(err) == apperr.KindNotFound {
		http.Error(w, apperr.Message(err), http.StatusBadRequest)
		return nil, false
	}
	if err != nil {
		a.writeError(w, r, err)
		return nil, false
	}
	return d, true
}

func (a *App) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.store.DeleteDataset(ctx, mustUserID(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, messageResp{Message: fmt.Sprintf("Successfully removed dataset with ID:%d.", id)})
}
