package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const farmDoc = `{
  "@context": "https://w3id.org/ocsm/main-context.jsonld",
  "@graph": [
    {
      "@id": "urn:farmcalendar:Farm:f1",
      "@type": "Farm",
      "name": "Green Valley",
      "contactPerson": {"firstname": "Eleni", "lastname": "Papadopoulou"},
      "vatID": "EL123456789",
      "telephone": "+30 210 0000000",
      "address": {"addressArea": "Attica", "adminUnitL2": "East Attica", "municipality": "Marathon", "community": "Varnavas", "locatorName": "Kato Souli"},
      "area": {"numericValue": 12.5, "unit": "http://qudt.org/vocab/unit/HA"},
      "hasAgriParcel": [
        {
          "@id": "urn:farmcalendar:Parcel:p1",
          "@type": "Vineyard",
          "identifier": "PLOT-01",
          "validFrom": "2023-02-01",
          "inRegion": "Attica",
          "hasToponym": "Lofos",
          "area": 3.2,
          "isNitroArea": true,
          "isNatura2000Area": false,
          "isPDOPGIArea": "true",
          "isIrrigated": true,
          "isCultivatedInLevels": false,
          "isGroundSlope": 0,
          "location": {"lat": 38.1, "long": 23.9},
          "usesIrrigationSystem": {"name": "drip"},
          "hasAgriCrop": {"name": "Grapes", "cropSpecies": {"name": "Savatiano"}, "isMeantFor": "Wine"}
        },
        {"@id": "urn:farmcalendar:Parcel:p2"},
        {"@id": "urn:farmcalendar:Parcel:p3"}
      ]
    },
    {
      "@id": "urn:farmcalendar:Parcel:p2",
      "@type": "Parcel",
      "identifier": "PLOT-02",
      "validFrom": "not-a-year",
      "hasAgriCrop": {"name": "Olives"}
    },
    {"@id": "urn:farmcalendar:Farm:f2", "@type": "Farm", "contactPerson": {"lastname": "Nikolaou"}}
  ]
}`

func TestFarmsTwoLevelExtraction(t *testing.T) {
	e := New(nil)
	farms := e.Farms(mustParse(t, farmDoc))
	require.Len(t, farms, 2)

	f := farms[0]
	assert.Equal(t, "Eleni Papadopoulou", f.Profile.Name)
	assert.Equal(t, "EL123456789", f.Profile.VAT)
	assert.Equal(t, "East Attica", f.Profile.County)
	assert.Equal(t, "Kato Souli", f.Profile.PlaceName)
	assert.Equal(t, "12.5 HA", f.Profile.FarmArea)
	assert.Equal(t, []string{"PLOT-01", "PLOT-02", "p3"}, f.Profile.PlotIDs)

	require.Len(t, f.Parcels, 3)
	require.Len(t, f.Cultivations, 3)

	inline := f.Parcels[0]
	assert.Equal(t, "urn:farmcalendar:Farm:f1", inline.FarmID)
	assert.Equal(t, 2023, *inline.ReportingYear)
	assert.Equal(t, "3.2", inline.Area)
	assert.True(t, *inline.NitroArea)
	assert.False(t, *inline.NaturaArea)
	assert.True(t, *inline.PDOPGIArea)
	assert.False(t, *inline.GroundSlope)
	assert.Equal(t, "drip", inline.IrrigationSystem)
	require.NotNil(t, inline.Location)
	assert.Equal(t, 38.1, inline.Location.Lat)

	assert.Equal(t, "Grapes", f.Cultivations[0].CultivationType)
	assert.Equal(t, "Savatiano", f.Cultivations[0].Variety)
	assert.Equal(t, "Wine", f.Cultivations[0].ProductionDirection)
	assert.True(t, *f.Cultivations[0].Irrigated)

	resolved := f.Parcels[1]
	assert.Equal(t, "PLOT-02", resolved.PlotID)
	assert.Nil(t, resolved.ReportingYear, "bad validFrom defaults to nil")
	assert.Equal(t, "Olives", f.Cultivations[1].CultivationType)

	dangling := f.Parcels[2]
	assert.Equal(t, "p3", dangling.PlotID)
	assert.Nil(t, dangling.Irrigated)
	assert.Empty(t, f.Cultivations[2].CultivationType)

	assert.Equal(t, "Nikolaou", farms[1].Profile.Name)
	assert.Empty(t, farms[1].Parcels)
}
