package calendar

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Geocoder resolves coordinates to a display address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, long float64) (string, error)
}

// Enricher resolves the farm, parcel and address behind a parcel-bound record.
type Enricher struct {
	client    *Client
	endpoints Endpoints
	geocoder  Geocoder
	log       *zap.Logger
}

// NewEnricher returns an enricher. geocoder may be nil, leaving addresses empty.
func NewEnricher(client *Client, endpoints Endpoints, geocoder Geocoder, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{client: client, endpoints: endpoints, geocoder: geocoder, log: log.Named("enrich")}
}

// Enrich follows parcel (or, without one, the first machine that names a parcel) to
// its farm and reverse geocodes the parcel location. Every failed step leaves its
// field empty.
func (e *Enricher) Enrich(ctx context.Context, token string, machinery []models.Ref, parcel *models.Ref) models.Enrichment {
	var out models.Enrichment

	if parcel == nil {
		for _, m := range machinery {
			l, ok := e.links(ctx, e.endpoints.Machines, m.ShortID(), token)
			if ok && l.Parcel != nil {
				parcel = l.Parcel
				break
			}
		}
	}
	if parcel == nil {
		return out
	}
	out.ParcelID = parcel.ShortID()

	p, ok := e.links(ctx, e.endpoints.Parcels, out.ParcelID, token)
	if !ok {
		return out
	}
	if p.Farm != nil {
		if f, ok := e.links(ctx, e.endpoints.Farms, p.Farm.ShortID(), token); ok {
			out.FarmName = f.Name
		}
	}
	if p.Location != nil && e.geocoder != nil {
		addr, err := e.geocoder.Reverse(ctx, p.Location.Lat, p.Location.Long)
		if err != nil {
			e.log.Debug("reverse geocoding failed", zap.String("parcel", out.ParcelID), zap.Error(err))
		} else {
			out.Address = addr
		}
	}
	return out
}

func (e *Enricher) links(ctx context.Context, resource, id, token string) (extract.Links, bool) {
	if id == "" {
		return extract.Links{}, false
	}
	doc, err := e.client.Nodes(ctx, resource+url.PathEscape(id)+"/", baseParams(), token)
	if err != nil {
		e.log.Debug("enrichment lookup failed", zap.String("resource", resource), zap.String("id", id), zap.Error(err))
		return extract.Links{}, false
	}
	return extract.LinksOf(doc)
}
