// Package reports selects the extraction and layout for a report type and runs
// generation, inline or on a background queue.
package reports

import (
	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
)

// Type is a report type as it appears in the API path.
type Type string

const (
	WorkBook         Type = "work-book"
	PlantProtection  Type = "plant-protection"
	Irrigations      Type = "irrigations"
	Fertilisations   Type = "fertilisations"
	Harvests         Type = "harvests"
	GlobalGAP        Type = "GlobalGAP"
	Livestock        Type = "livestock"
	Compost          Type = "compost"
	Animal           Type = "animal"
	IrrigationReport Type = "irrigation-report"
	Forecast         Type = "forecast"
)

// Types lists every supported report type.
var Types = []Type{
	WorkBook, PlantProtection, Irrigations, Fertilisations, Harvests, GlobalGAP,
	Livestock, Compost, Animal, IrrigationReport, Forecast,
}

// ParseType matches s exactly against the supported types.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", apperr.New(apperr.KindUnsupportedReportType, "Report type %q is not supported.", s)
}

// Upstream reports whether the type can be built from the farm calendar when no
// dataset is supplied.
func (t Type) Upstream() bool {
	switch t {
	case Irrigations, Animal, Livestock, Compost:
		return true
	}
	return false
}

// NeedsInput is false for fixed templates.
func (t Type) NeedsInput() bool { return t != Harvests }
