package models

import "time"

// DepthQuantity is a soil moisture reading taken at a given depth.
type DepthQuantity struct {
	Value     *float64 `json:"value,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
	DepthUnit string   `json:"depthUnit,omitempty"`
}

type SaturationAnalysis struct {
	Days            *int            `json:"days,omitempty"`
	Dates           []time.Time     `json:"dates"`
	FieldCapacities []DepthQuantity `json:"fieldCapacities"`
}

type StressAnalysis struct {
	Days   *int            `json:"days,omitempty"`
	Dates  []time.Time     `json:"dates"`
	Levels []DepthQuantity `json:"levels"`
}

type IrrigationAnalysis struct {
	Operations         *int        `json:"operations,omitempty"`
	HighDoseOperations *int        `json:"highDoseOperations,omitempty"`
	HighDoseDates      []time.Time `json:"highDoseDates"`
}

// SoilMoistureAggregation summarises soil moisture over a period for the irrigation report.
type SoilMoistureAggregation struct {
	ID                  string             `json:"id"`
	Description         string             `json:"description,omitempty"`
	Period              Period             `json:"period"`
	PrecipitationEvents *int               `json:"precipitationEvents,omitempty"`
	Saturation          SaturationAnalysis `json:"saturation"`
	Stress              StressAnalysis     `json:"stress"`
	Irrigation          IrrigationAnalysis `json:"irrigation"`
}
