// Package store persists uploaded datasets and generated reports. Two backends
// share one interface: SQL (gorm over sqlite) and Mongo.
package store

import (
	"context"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Store is owner-scoped: a record owned by someone else is reported as not found.
type Store interface {
	CreateDataset(ctx context.Context, d *models.Dataset) error
	GetDataset(ctx context.Context, owner string, id int64) (*models.Dataset, error)
	DeleteDataset(ctx context.Context, owner string, id int64) error

	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, owner string, id int64) (*models.Report, error)
	DeleteReport(ctx context.Context, owner string, id int64) error

	Close(ctx context.Context) error
}

func datasetNotFound(id int64) error {
	return apperr.New(apperr.KindNotFound, "Dataset with ID:%d not found.", id)
}

func reportNotFound(id int64) error {
	return apperr.New(apperr.KindNotFound, "Report with ID:%d not found.", id)
}
