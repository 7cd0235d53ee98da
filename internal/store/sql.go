package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

type datasetRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID   string `gorm:"not null;index"`
	Filename  string
	Data      []byte
	CreatedAt time.Time
}

func (datasetRow) TableName() string { return "datasets" }

type reportRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OwnerID     string `gorm:"not null;index"`
	Type        string
	DatasetID   *int64
	Status      string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (reportRow) TableName() string { return "reports" }

// SQL is the gorm backed store.
type SQL struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the sqlite file at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	if err := Migrate(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	// sqlite allows one writer
	sqlDB.SetMaxOpenConns(1)
	return &SQL{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *SQL) CreateDataset(ctx context.Context, d *models.Dataset) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	row := datasetRow{OwnerID: d.OwnerID, Filename: d.Filename, Data: d.Data, CreatedAt: d.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	d.ID = row.ID
	return nil
}

func (s *SQL) GetDataset(ctx context.Context, owner string, id int64) (*models.Dataset, error) {
	var row datasetRow
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, datasetNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %d: %w", id, err)
	}
	return &models.Dataset{
		ID: row.ID, OwnerID: row.OwnerID, Filename: row.Filename, Data: row.Data, CreatedAt: row.CreatedAt,
	}, nil
}

func (s *SQL) DeleteDataset(ctx context.Context, owner string, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).Delete(&datasetRow{})
	if res.Error != nil {
		return fmt.Errorf("delete dataset %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return datasetNotFound(id)
	}
	return nil
}

func (s *SQL) CreateReport(ctx context.Context, r *models.Report) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = models.ReportStatusReady
	}
	row := reportRow{
		OwnerID:     r.OwnerID,
		Type:        r.Type,
		DatasetID:   r.DatasetID,
		Status:      string(r.Status),
		ContentType: r.ContentType,
		Data:        r.Data,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	r.ID = row.ID
	return nil
}

func (s *SQL) GetReport(ctx context.Context, owner string, id int64) (*models.Report, error) {
	var row reportRow
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reportNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return &models.Report{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Type:        row.Type,
		DatasetID:   row.DatasetID,
		Status:      models.ReportStatus(row.Status),
		ContentType: row.ContentType,
		Data:        row.Data,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (s *SQL) DeleteReport(ctx context.Context, owner string, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).Delete(&reportRow{})
	if res.Error != nil {
		return fmt.Errorf("delete report %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return reportNotFound(id)
	}
	return nil
}

func (s *SQL) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
