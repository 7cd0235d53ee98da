package models

import "time"

// FarmProfile is the owner section of the work book, one per Farm node.
type FarmProfile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	FatherName   string   `json:"fatherName,omitempty"`
	VAT          string   `json:"vat,omitempty"`
	HeadOffice   string   `json:"headOffice,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	District     string   `json:"district,omitempty"`
	County       string   `json:"county,omitempty"`
	Municipality string   `json:"municipality,omitempty"`
	Community    string   `json:"community,omitempty"`
	PlaceName    string   `json:"placeName,omitempty"`
	FarmArea     string   `json:"farmArea,omitempty"`
	PlotIDs      []string `json:"plotIds"`
}

// PlotParcelDetail describes one parcel of a farm. Nil booleans mean "not stated".
type PlotParcelDetail struct {
	ID                  string    `json:"id"`
	FarmID              string    `json:"farmId,omitempty"`
	PlotID              string    `json:"plotId,omitempty"`
	ReportingYear       *int      `json:"reportingYear,omitempty"`
	Cartographic        string    `json:"cartographic,omitempty"`
	Region              string    `json:"region,omitempty"`
	Toponym             string    `json:"toponym,omitempty"`
	Area                string    `json:"area,omitempty"`
	NitroArea           *bool     `json:"nitroArea,omitempty"`
	NaturaArea          *bool     `json:"naturaArea,omitempty"`
	PDOPGIArea          *bool     `json:"pdoPgiArea,omitempty"`
	Irrigated           *bool     `json:"irrigated,omitempty"`
	CultivationInLevels *bool     `json:"cultivationInLevels,omitempty"`
	GroundSlope         *bool     `json:"groundSlope,omitempty"`
	Location            *GeoPoint `json:"location,omitempty"`
	IrrigationSystem    string    `json:"irrigationSystem,omitempty"`
	// Address is filled by reverse geocoding and stays empty when the lookup fails.
	Address string `json:"address,omitempty"`
}

type GenericCultivationInformationForParcel struct {
	ParcelID                     string   `json:"parcelId,omitempty"`
	CultivationType              string   `json:"cultivationType,omitempty"`
	Variety                      string   `json:"variety,omitempty"`
	Irrigated                    *bool    `json:"irrigated,omitempty"`
	Greenhouse                   *bool    `json:"greenhouse,omitempty"`
	ProductionDirection          string   `json:"productionDirection,omitempty"`
	PlantingSystem               string   `json:"plantingSystem,omitempty"`
	PlantingDistanceOfLines      *float64 `json:"plantingDistanceOfLines,omitempty"`
	PlantingDistanceBetweenLines *float64 `json:"plantingDistanceBetweenLines,omitempty"`
	ProductiveTrees              *int     `json:"productiveTrees,omitempty"`
}

// FarmParcels is the two-level Farm -> parcels extraction result for a single farm.
type FarmParcels struct {
	Profile      FarmProfile                              `json:"profile"`
	Parcels      []PlotParcelDetail                       `json:"parcels"`
	Cultivations []GenericCultivationInformationForParcel `json:"cultivations"`
}

// Harvest is a placeholder row type; harvest data is not published by the platform yet.
type Harvest struct {
	Date   *time.Time `json:"date,omitempty"`
	Amount *float64   `json:"amount,omitempty"`
	Unit   string     `json:"unit,omitempty"`
}

// Enrichment holds best-effort lookups for a parcel-bound record. Empty strings mean unknown.
type Enrichment struct {
	FarmName string `json:"farmName"`
	ParcelID string `json:"parcelId"`
	Address  string `json:"address"`
}
