package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

const maxUpload = 32 << 20

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status via its kind. Server faults are logged and hidden.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Error(w, apperr.Message(err), status)
}

func writeFile(w http.ResponseWriter, data []byte, contentType, disposition, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.New(apperr.KindBadRequest, "bad id")
	}
	return id, nil
}

// readUpload returns the multipart "data" file, or nil when none was sent.
func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", apperr.Wrap(apperr.KindBadRequest, err, "invalid multipart form")
	}
	f, hdr, err := r.FormFile("data")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindBadRequest, err, "invalid data file")
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindBadRequest, err, "read data file")
	}
	return b, hdr.Filename, nil
}
