package calendar

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Query selects upstream records. Dates are YYYY-MM-DD; unparseable ones are dropped.
type Query struct {
	Token        string
	ActivityType string
	OperationID  string
	FromDate     string
	ToDate       string
}

// Period returns the date filters that parse as YYYY-MM-DD, or nil when neither does.
func (q Query) Period() *models.Period {
	var p models.Period
	if t, err := time.Parse(time.DateOnly, q.FromDate); err == nil {
		p.Begin = &t
	}
	if t, err := time.Parse(time.DateOnly, q.ToDate); err == nil {
		p.End = &t
	}
	if p.Begin == nil && p.End == nil {
		return nil
	}
	return &p
}

// Aggregator fetches and decodes calendar records. It keeps no per-call state.
type Aggregator struct {
	client    *Client
	endpoints Endpoints
	extractor *extract.Extractor
	log       *zap.Logger
}

func NewAggregator(client *Client, endpoints Endpoints, extractor *extract.Extractor, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{client: client, endpoints: endpoints, extractor: extractor, log: log.Named("aggregator")}
}

func baseParams() url.Values {
	return url.Values{"format": {"json"}}
}

// withDates adds fromDate/toDate to params.
func (a *Aggregator) withDates(params url.Values, q Query) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	for _, f := range []struct{ name, value string }{{"fromDate", q.FromDate}, {"toDate", q.ToDate}} {
		if f.value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, f.value); err != nil {
			a.log.Warn("dropping unparseable date filter", zap.String("filter", f.name), zap.String("value", f.value))
			continue
		}
		out.Set(f.name, f.value)
	}
	return out
}

// Calendar assembles farm calendar data for an activity type name, a single operation,
// or both. An activity type name that matches nothing yields empty data.
func (a *Aggregator) Calendar(ctx context.Context, q Query) (models.CalendarData, error) {
	data := models.CalendarData{
		ActivityType: q.ActivityType,
		Operations:   []models.Operation{},
		Observations: []models.CropObservation{},
		Materials:    []models.AddRawMaterialOperation{},
	}

	var typeID string
	if q.ActivityType != "" && q.OperationID == "" {
		params := baseParams()
		params.Set("name", q.ActivityType)
		doc, err := a.client.Nodes(ctx, a.endpoints.ActivityTypes, params, q.Token)
		if err != nil {
			return data, err
		}
		node, ok := firstObject(doc)
		if !ok {
			a.log.Info("activity type not found", zap.String("activity_type", q.ActivityType))
			return data, nil
		}
		typeID = models.ShortID(node.ID)
	}

	switch {
	case q.OperationID != "":
		if err := a.operation(ctx, q, &data); err != nil {
			return data, err
		}
	case typeID != "":
		params := a.withDates(baseParams(), q)
		params.Set("activity_type", typeID)

		obs, err := a.client.Nodes(ctx, a.endpoints.Observations, params, q.Token)
		if err != nil {
			return data, err
		}
		data.Observations = a.extractor.DecodeObservations(obs)

		ops, err := a.client.Nodes(ctx, a.endpoints.Operations, params, q.Token)
		if err != nil {
			return data, err
		}
		data.Operations = a.extractor.DecodeOperations(ops)
	}
	return data, nil
}

// operation fetches one operation and fans out to its measurements and materials.
// Fan-out failures are logged and leave the corresponding list short.
func (a *Aggregator) operation(ctx context.Context, q Query, data *models.CalendarData) error {
	opPath := a.endpoints.Operations + url.PathEscape(q.OperationID) + "/"
	doc, err := a.client.Nodes(ctx, opPath, a.withDates(baseParams(), q), q.Token)
	if err != nil {
		return err
	}
	data.Operations = a.extractor.DecodeOperations(doc)
	if len(data.Operations) == 0 {
		return nil
	}
	op := data.Operations[0]

	if data.ActivityType == "" && op.ActivityType != "" {
		typeID := models.ShortID(op.ActivityType)
		data.ActivityType = typeID
		if t, err := a.client.Nodes(ctx, a.endpoints.ActivityTypes+url.PathEscape(typeID)+"/", baseParams(), q.Token); err != nil {
			a.log.Warn("activity type lookup failed", zap.String("activity_type", typeID), zap.Error(err))
		} else if l, ok := extract.LinksOf(t); ok && l.Name != "" {
			data.ActivityType = l.Name
		}
	}

	for _, m := range op.Measurements {
		id := m.ShortID()
		obs, err := a.client.Nodes(ctx, a.endpoints.Observations+url.PathEscape(id)+"/", baseParams(), q.Token)
		if err != nil {
			a.log.Warn("observation lookup failed", zap.String("observation", id), zap.Error(err))
			continue
		}
		data.Observations = append(data.Observations, a.extractor.DecodeObservations(obs)...)
	}

	if len(op.NestedOperations) > 0 {
		mats, err := a.client.Nodes(ctx, opPath+a.endpoints.Materials, baseParams(), q.Token)
		if err != nil {
			a.log.Warn("materials lookup failed", zap.String("operation", q.OperationID), zap.Error(err))
			return nil
		}
		data.Materials = a.extractor.DecodeMaterials(mats)
	}
	return nil
}

// Graph fetches a resource as a document, applying the query's date filters.
func (a *Aggregator) Graph(ctx context.Context, path string, q Query) (*extract.Document, error) {
	return a.client.Nodes(ctx, path, a.withDates(baseParams(), q), q.Token)
}

func (a *Aggregator) Irrigations(ctx context.Context, q Query) ([]models.IrrigationOperation, error) {
	doc, err := a.Graph(ctx, a.endpoints.Irrigations, q)
	if err != nil {
		return nil, err
	}
	return a.extractor.DecodeIrrigations(doc), nil
}

func (a *Aggregator) Animals(ctx context.Context, q Query) ([]models.Animal, error) {
	doc, err := a.Graph(ctx, a.endpoints.Animals, q)
	if err != nil {
		return nil, err
	}
	return a.extractor.DecodeAnimals(doc), nil
}

func firstObject(doc *extract.Document) (extract.Node, bool) {
	for _, n := range doc.Nodes {
		if !n.Invalid {
			return n, true
		}
	}
	return extract.Node{}, false
}
