package models

import (
	"strings"
	"time"
)

// Ref points at another graph node by URN. The referenced node is a lookup key, not owned data.
type Ref struct {
	ID string `json:"@id" bson:"id"`
}

// ShortID returns the human-relevant part of the referenced URN.
func (r Ref) ShortID() string { return ShortID(r.ID) }

// ShortID returns the 4th colon-separated segment of urn
// ("urn:openagri:parcel:xyz" -> "xyz"). Identifiers with fewer segments are returned unchanged.
func ShortID(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) < 4 {
		return urn
	}
	return parts[3]
}

// UnitSuffix reduces a unit IRI to the component after its last '/'.
func UnitSuffix(unit string) string {
	unit = strings.TrimRight(strings.TrimSpace(unit), "/")
	if i := strings.LastIndex(unit, "/"); i >= 0 {
		return unit[i+1:]
	}
	return unit
}

// QuantityValue is a numeric value with its unit suffix.
type QuantityValue struct {
	Value *float64 `json:"numericValue,omitempty" bson:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"         bson:"unit,omitempty"`
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat  float64 `json:"lat"  bson:"lat"`
	Long float64 `json:"long" bson:"long"`
}

// Period is an optional begin/end interval.
type Period struct {
	Begin *time.Time `json:"begin,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// ShortIDs maps refs to their short ids, in order.
func ShortIDs(refs []Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if s := r.ShortID(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
