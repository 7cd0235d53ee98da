package extract

import (
	"encoding/json"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Calendar decodes an uploaded farm calendar file. Two shapes are accepted: a JSON-LD
// document, where nodes are selected by @type, and the export format
// {"operations": [...], "observations": [...], "materials": [...]}, where list
// membership decides the kind.
func (e *Extractor) Calendar(data []byte, activityType string) (models.CalendarData, error) {
	out := models.CalendarData{
		ActivityType: activityType,
		Operations:   []models.Operation{},
		Observations: []models.CropObservation{},
		Materials:    []models.AddRawMaterialOperation{},
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return out, apperr.Wrap(apperr.KindMalformedDocument, err, "Reporting service failed during data validation. File is not correct JSON.")
	}

	if _, ok := top["@graph"]; ok {
		doc, err := Parse(data)
		if err != nil {
			return out, err
		}
		out.Operations = e.Operations(doc)
		out.Observations = e.Observations(doc)
		out.Materials = e.Materials(doc)
		return out, nil
	}

	_, hasOps := top["operations"]
	_, hasObs := top["observations"]
	if !hasOps && !hasObs {
		return out, apperr.New(apperr.KindMalformedDocument, "Reporting service failed during data validation. Expected @graph or operations/observations lists.")
	}

	ops, err := section(top, "operations")
	if err != nil {
		return out, err
	}
	obs, err := section(top, "observations")
	if err != nil {
		return out, err
	}
	mats, err := section(top, "materials")
	if err != nil {
		return out, err
	}
	out.Operations = e.DecodeOperations(ops)
	out.Observations = e.DecodeObservations(obs)
	out.Materials = e.DecodeMaterials(mats)
	return out, nil
}

func section(top map[string]json.RawMessage, key string) (*Document, error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return newDocument(nil, nil), nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedDocument, err, "Reporting service failed during data validation: "+key+" is not a list.")
	}
	return newDocument(nil, elems), nil
}
