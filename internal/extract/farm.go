package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Farms decodes every Farm node together with its parcels. Parcels listed under
// hasAgriParcel may be inline objects or @id references to other @graph nodes;
// each one yields one PlotParcelDetail and one cultivation record.
func (e *Extractor) Farms(doc *Document) []models.FarmParcels {
	return extractAll(e, doc, KindFarm, func(n Node, r *reader) models.FarmParcels {
		return decodeFarm(doc, n, r)
	})
}

func decodeFarm(doc *Document, n Node, r *reader) models.FarmParcels {
	contact := r.Object("contactPerson")
	addr := r.Object("address")
	out := models.FarmParcels{
		Profile: models.FarmProfile{
			ID:           n.ID,
			Name:         joinNonEmpty(contact.String("firstname", "firstName", "givenName"), contact.String("lastname", "lastName", "familyName")),
			FatherName:   contact.String("fatherName"),
			VAT:          r.String("vatID"),
			HeadOffice:   r.String("headOffice"),
			Phone:        r.String("telephone"),
			District:     addr.String("addressArea"),
			County:       addr.String("adminUnitL2"),
			Municipality: addr.String("municipality"),
			Community:    addr.String("community"),
			PlaceName:    addr.String("locatorName"),
			FarmArea:     areaText(r, "area"),
			PlotIDs:      []string{},
		},
		Parcels:      []models.PlotParcelDetail{},
		Cultivations: []models.GenericCultivationInformationForParcel{},
	}
	if out.Profile.Name == "" {
		out.Profile.Name = r.String("name")
	}

	for _, p := range parcelReaders(doc, r) {
		detail := decodeParcel(p)
		detail.FarmID = n.ID
		out.Parcels = append(out.Parcels, detail)
		out.Cultivations = append(out.Cultivations, decodeCultivation(p, detail.ID))
		if detail.PlotID != "" {
			out.Profile.PlotIDs = append(out.Profile.PlotIDs, detail.PlotID)
		}
	}
	return out
}

// parcelReaders resolves the hasAgriParcel list of a farm into readers over parcel objects.
// References that match no @graph node still yield a reader carrying only the @id.
func parcelReaders(doc *Document, farm *reader) []*reader {
	out := []*reader{}
	k, raw, ok := farm.raw("hasAgriParcel")
	if !ok {
		return out
	}
	for i, el := range list(raw) {
		if isNull(el) {
			continue
		}
		prefix := fmt.Sprintf("%s%s[%d].", farm.prefix, k, i)
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(el, &fields); err == nil && !onlyID(fields) {
			out = append(out, &reader{nodeID: farm.nodeID, prefix: prefix, fields: fields, errs: farm.errs})
			continue
		}
		ref, err := decodeRef(el)
		if err != nil || ref.ID == "" {
			farm.fail(fmt.Sprintf("%s[%d]", k, i), errNotRef)
			continue
		}
		if node, found := doc.Lookup(ref.ID); found && !node.Invalid {
			out = append(out, &reader{nodeID: farm.nodeID, prefix: prefix, fields: node.fields, errs: farm.errs})
			continue
		}
		idOnly, _ := json.Marshal(ref.ID)
		out = append(out, &reader{nodeID: farm.nodeID, prefix: prefix, fields: map[string]json.RawMessage{"@id": idOnly}, errs: farm.errs})
	}
	return out
}

func onlyID(fields map[string]json.RawMessage) bool {
	if len(fields) == 0 {
		return true
	}
	for k := range fields {
		if k != "@id" && k != "@type" {
			return false
		}
	}
	return true
}

func decodeParcel(p *reader) models.PlotParcelDetail {
	id := p.String("@id")
	d := models.PlotParcelDetail{
		ID:                  id,
		PlotID:              p.String("identifier"),
		Cartographic:        p.String("cartographicReference"),
		Region:              p.Label("inRegion"),
		Toponym:             p.String("hasToponym"),
		Area:                areaText(p, "area"),
		NitroArea:           p.Bool("isNitroArea", "isNitroAarea"),
		NaturaArea:          p.Bool("isNatura2000Area"),
		PDOPGIArea:          p.Bool("isPDOPGIArea"),
		Irrigated:           p.Bool("isIrrigated"),
		CultivationInLevels: p.Bool("isCultivatedInLevels"),
		GroundSlope:         p.Bool("isGroundSlope"),
		IrrigationSystem:    p.Label("usesIrrigationSystem"),
	}
	if d.PlotID == "" {
		d.PlotID = models.ShortID(id)
	}
	if from := p.String("validFrom"); from != "" {
		year, err := strconv.Atoi(strings.SplitN(from, "-", 2)[0])
		if err != nil {
			p.fail("validFrom", errBadDate)
		} else {
			d.ReportingYear = &year
		}
	}
	if p.has("location") {
		loc := p.Object("location")
		lat, long := loc.Float("lat", "latitude"), loc.Float("long", "longitude")
		if lat != nil && long != nil {
			d.Location = &models.GeoPoint{Lat: *lat, Long: *long}
		}
	}
	return d
}

func decodeCultivation(p *reader, parcelID string) models.GenericCultivationInformationForParcel {
	crop := p.Object("hasAgriCrop")
	return models.GenericCultivationInformationForParcel{
		ParcelID:                     parcelID,
		CultivationType:              crop.String("name"),
		Variety:                      crop.Label("cropSpecies"),
		Irrigated:                    p.Bool("isIrrigated"),
		Greenhouse:                   p.Bool("isGreenhouse"),
		ProductionDirection:          crop.Label("isMeantFor"),
		PlantingSystem:               crop.String("plantingSystem"),
		PlantingDistanceOfLines:      crop.Float("plantingDistanceOfLines"),
		PlantingDistanceBetweenLines: crop.Float("plantingDistanceBetweenLines"),
		ProductiveTrees:              crop.Int("numberOfProductiveTrees"),
	}
}

// areaText renders an area given as a number, a string or a quantity object.
func areaText(r *reader, key string) string {
	_, raw, ok := r.raw(key)
	if !ok {
		return ""
	}
	if raw[0] == '{' {
		q := r.Quantity(key)
		if q == nil || q.Value == nil {
			return ""
		}
		return strings.TrimSpace(strconv.FormatFloat(*q.Value, 'f', -1, 64) + " " + q.Unit)
	}
	return r.String(key)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
