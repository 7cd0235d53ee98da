package models

import "time"

// ReportStatus is the state of a stored report. Reports are persisted once rendered,
// so every stored report is ready.
type ReportStatus string

const ReportStatusReady ReportStatus = "ready"

// Report is a generated document persisted in the "reports" collection/table.
type Report struct {
	ID          int64        `bson:"_id"                 json:"id"`
	OwnerID     string       `bson:"ownerId"             json:"ownerId"`
	Type        string       `bson:"type"                json:"type"`
	DatasetID   *int64       `bson:"datasetId,omitempty" json:"datasetId,omitempty"`
	Status      ReportStatus `bson:"status"              json:"status"`
	ContentType string       `bson:"contentType"         json:"contentType"`
	Data        []byte       `bson:"data,omitempty"      json:"-"`
	CreatedAt   time.Time    `bson:"createdAt"           json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt"           json:"updatedAt"`
}

// Dataset is an uploaded raw JSON-LD document, stored as-is.
type Dataset struct {
	ID        int64     `bson:"_id"      json:"id"`
	OwnerID   string    `bson:"ownerId"  json:"ownerId"`
	Filename  string    `bson:"filename" json:"filename"`
	Data      []byte    `bson:"data"     json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// YieldForecast is one yield prediction node of the forecast report.
type YieldForecast struct {
	ID             string         `json:"id"`
	Year           int            `json:"year"`
	PredictedYield *QuantityValue `json:"predictedYield,omitempty"`
	NDVIPeak       *float64       `json:"ndviPeak,omitempty"`
	NDVIPeakAt     *time.Time     `json:"ndviPeakAt,omitempty"`
	Model          string         `json:"model,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"` // 0..1
	Crop           string         `json:"crop,omitempty"`
	Parcel         *Ref           `json:"parcel,omitempty"`
}

// ReportDocument is one rendered output, never mutated after creation.
type ReportDocument struct {
	Bytes       []byte
	Filename    string
	ContentType string
}
