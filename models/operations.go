package models

import "time"

// IrrigationSystemKind tells how usesIrrigationSystem was written in the source node.
type IrrigationSystemKind int

const (
	IrrigationSystemNone      IrrigationSystemKind = iota
	IrrigationSystemPlainName                      // "usesIrrigationSystem": "drip"
	IrrigationSystemNamedRef                       // "usesIrrigationSystem": {"name": "drip", ...}
)

// IrrigationSystem is either a plain name or a nested object carrying a name.
type IrrigationSystem struct {
	Kind IrrigationSystemKind `json:"kind"`
	Name string               `json:"name,omitempty"`
	ID   string               `json:"id,omitempty"` // @id of the nested object, when present
	Type string               `json:"type,omitempty"`
}

// String returns the display name regardless of the source shape.
func (s IrrigationSystem) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}

type IrrigationOperation struct {
	ID               string           `json:"id"`
	Title            string           `json:"title,omitempty"`
	Details          string           `json:"details,omitempty"`
	ActivityType     string           `json:"activityType,omitempty"`
	Start            *time.Time       `json:"start,omitempty"`
	End              *time.Time       `json:"end,omitempty"`
	ResponsibleAgent string           `json:"responsibleAgent,omitempty"`
	Machinery        []Ref            `json:"machinery"`
	AppliedAmount    *QuantityValue   `json:"appliedAmount,omitempty"`
	IrrigationSystem IrrigationSystem `json:"irrigationSystem"`
	OperatedOn       *Ref             `json:"operatedOn,omitempty"`
}

type FertilizationOperation struct {
	ID                   string     `json:"id"`
	Date                 *time.Time `json:"date,omitempty"`
	Product              string     `json:"product,omitempty"`
	Quantity             *float64   `json:"quantity,omitempty"`
	Unit                 string     `json:"unit,omitempty"`
	TreatmentPlan        string     `json:"treatmentPlan,omitempty"`
	FormOfTreatment      string     `json:"formOfTreatment,omitempty"`
	OperationType        string     `json:"operationType,omitempty"`
	TreatmentDescription string     `json:"treatmentDescription,omitempty"`
	OperatedOn           *Ref       `json:"operatedOn,omitempty"`
}

type PestManagementOperation struct {
	ID                   string         `json:"id"`
	Date                 *time.Time     `json:"date,omitempty"`
	EnemyTarget          string         `json:"enemyTarget,omitempty"`
	ActiveSubstance      string         `json:"activeSubstance,omitempty"`
	Product              string         `json:"product,omitempty"`
	Dose                 *float64       `json:"dose,omitempty"`
	Unit                 string         `json:"unit,omitempty"`
	Area                 *QuantityValue `json:"area,omitempty"`
	TreatmentDescription string         `json:"treatmentDescription,omitempty"`
	OperatedOn           *Ref           `json:"operatedOn,omitempty"`
}

// Operation is a generic farm calendar activity (compost turning, livestock work, ...).
type Operation struct {
	ID               string     `json:"id"`
	Type             string     `json:"type,omitempty"`
	ActivityType     string     `json:"activityType,omitempty"`
	Title            string     `json:"title,omitempty"`
	Details          string     `json:"details,omitempty"`
	Start            *time.Time `json:"start,omitempty"`
	End              *time.Time `json:"end,omitempty"`
	ResponsibleAgent string     `json:"responsibleAgent,omitempty"`
	Machinery        []Ref      `json:"machinery"`
	OperatedOn       *Ref       `json:"operatedOn,omitempty"`
	CompostPile      *Ref       `json:"compostPile,omitempty"`
	Measurements     []Ref      `json:"measurements"`
	NestedOperations []Ref      `json:"nestedOperations"`
}

// CropObservation is a measured value attached to a farm calendar activity.
// Start falls back to phenomenonTime when the start datetime is absent.
type CropObservation struct {
	ID                string     `json:"id"`
	Type              string     `json:"type,omitempty"`
	ActivityType      string     `json:"activityType,omitempty"`
	Title             string     `json:"title,omitempty"`
	Details           string     `json:"details,omitempty"`
	Start             *time.Time `json:"start,omitempty"`
	End               *time.Time `json:"end,omitempty"`
	ResponsibleAgent  string     `json:"responsibleAgent,omitempty"`
	Machinery         []Ref      `json:"machinery"`
	Result            *Result    `json:"result,omitempty"`
	ObservedProperty  string     `json:"observedProperty,omitempty"`
	RelatesToProperty string     `json:"relatesToProperty,omitempty"`
	OperatedOn        *Ref       `json:"operatedOn,omitempty"`
}

// Result is an observation value. Value keeps the source text so non-numeric results survive.
type Result struct {
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// MaterialQuantity is one material added by a raw-material operation.
type MaterialQuantity struct {
	Name     string         `json:"name,omitempty"`
	Quantity *QuantityValue `json:"quantity,omitempty"`
}

type AddRawMaterialOperation struct {
	ID        string             `json:"id"`
	Title     string             `json:"title,omitempty"`
	Start     *time.Time         `json:"start,omitempty"`
	End       *time.Time         `json:"end,omitempty"`
	Materials []MaterialQuantity `json:"materials"`
}

// CalendarData is everything a farm calendar report shows for one activity type.
type CalendarData struct {
	ActivityType string                    `json:"activityType"`
	Operations   []Operation               `json:"operations"`
	Observations []CropObservation         `json:"observations"`
	Materials    []AddRawMaterialOperation `json:"materials"`
}

// Empty reports whether nothing was found for the activity type.
func (c CalendarData) Empty() bool {
	return len(c.Operations) == 0 && len(c.Observations) == 0 && len(c.Materials) == 0
}
