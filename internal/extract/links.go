package extract

import "github.com/agstack/OpenAgri-ReportingService/models"

// Links are the lookup keys a machine, parcel or farm node carries for enrichment.
type Links struct {
	Name     string
	Parcel   *models.Ref
	Farm     *models.Ref
	Location *models.GeoPoint
}

// LinksOf reads the links of the first object node in doc. Undecodable fields are
// left empty; enrichment never fails a report.
func LinksOf(doc *Document) (Links, bool) {
	for _, n := range doc.Nodes {
		if n.Invalid {
			continue
		}
		var errs []FieldError
		r := n.reader(&errs)
		l := Links{
			Name:   r.String("name", "hasName"),
			Parcel: r.Ref("hasAgriParcel", "isOperatedOn", "operatedOn", "parcel"),
			Farm:   r.Ref("hasFarm", "belongsToFarm", "farm"),
		}
		if r.has("location") {
			loc := r.Object("location")
			lat, long := loc.Float("lat", "latitude"), loc.Float("long", "longitude")
			if lat != nil && long != nil {
				l.Location = &models.GeoPoint{Lat: *lat, Long: *long}
			}
		}
		return l, true
	}
	return Links{}, false
}
