package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Mongo keeps datasets and reports in collections of the same name. Integer ids
// come from a "counters" collection so both backends expose the same API.
type Mongo struct {
	client   *mongo.Client
	datasets *mongo.Collection
	reports  *mongo.Collection
	counters *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(database)
	m := &Mongo{
		client:   client,
		datasets: db.Collection("datasets"),
		reports:  db.Collection("reports"),
		counters: db.Collection("counters"),
	}
	for _, c := range []*mongo.Collection{m.datasets, m.reports} {
		if _, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		}); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("create index on %s: %w", c.Name(), err)
		}
	}
	return m, nil
}

func (m *Mongo) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return doc.Seq, nil
}

func (m *Mongo) CreateDataset(ctx context.Context, d *models.Dataset) error {
	id, err := m.nextID(ctx, "datasets")
	if err != nil {
		return err
	}
	d.ID = id
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if _, err := m.datasets.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (m *Mongo) GetDataset(ctx context.Context, owner string, id int64) (*models.Dataset, error) {
	var d models.Dataset
	err := m.datasets.FindOne(ctx, bson.M{"_id": id, "ownerId": owner}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, datasetNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %d: %w", id, err)
	}
	return &d, nil
}

func (m *Mongo) DeleteDataset(ctx context.Context, owner string, id int64) error {
	res, err := m.datasets.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return fmt.Errorf("delete dataset %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return datasetNotFound(id)
	}
	return nil
}

func (m *Mongo) CreateReport(ctx context.Context, r *models.Report) error {
	id, err := m.nextID(ctx, "reports")
	if err != nil {
		return err
	}
	r.ID = id
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Status == "" {
		r.Status = models.ReportStatusReady
	}
	if _, err := m.reports.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (m *Mongo) GetReport(ctx context.Context, owner string, id int64) (*models.Report, error) {
	var r models.Report
	err := m.reports.FindOne(ctx, bson.M{"_id": id, "ownerId": owner}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, reportNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return &r, nil
}

func (m *Mongo) DeleteReport(ctx context.Context, owner string, id int64) error {
	res, err := m.reports.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return reportNotFound(id)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }
