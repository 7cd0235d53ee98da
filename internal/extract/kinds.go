package extract

// Kind is a record kind and the @type discriminators its nodes may carry.
type Kind struct {
	Name  string
	Types []string
	// untypedKey lets nodes without any @type match when they carry this field.
	untypedKey string
}

func (k Kind) matches(n Node) bool {
	if n.Invalid {
		return false
	}
	if len(n.Types) == 0 && k.untypedKey != "" {
		return n.Has(k.untypedKey)
	}
	return n.Is(k.Types...)
}

var (
	KindIrrigation     = Kind{Name: "IrrigationOperation", Types: []string{"IrrigationOperation"}}
	KindFertilization  = Kind{Name: "FertilizationOperation", Types: []string{"FertilizationOperation"}}
	KindPestManagement = Kind{Name: "PestManagementOperation", Types: []string{"ChemicalControlOperation", "PestManagementOperation", "CropProtectionOperation"}}
	KindOperation      = Kind{Name: "Operation", Types: []string{"Operation", "FarmCalendarActivity", "FarmActivity", "CompostOperation", "CompostTurningOperation"}}
	KindObservation    = Kind{Name: "CropObservation", Types: []string{"Observation", "CropObservation", "CompostObservation"}}
	KindMaterial       = Kind{Name: "AddRawMaterialOperation", Types: []string{"AddRawMaterialOperation"}}
	KindAnimal         = Kind{Name: "Animal", Types: []string{"Animal", "FarmAnimal"}}
	KindFarm           = Kind{Name: "Farm", Types: []string{"Farm"}}
	KindSoilMoisture   = Kind{Name: "SoilMoistureAggregation", Types: []string{"SoilMoistureAggregation"}, untypedKey: "saturationAnalysis"}
	KindForecast       = Kind{Name: "YieldForecast", Types: []string{"YieldForecast", "YieldPrediction", "CropYieldPrediction"}}
)
