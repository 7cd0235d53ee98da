package extract

import (
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/metrics"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Extractor decodes typed records from parsed documents. It holds no per-call state.
type Extractor struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log.Named("extract")}
}

// extractAll decodes every node matching kind, in @graph order.
func extractAll[T any](e *Extractor, doc *Document, kind Kind, decode func(Node, *reader) T) []T {
	out := make([]T, 0)
	for _, n := range doc.Nodes {
		if !kind.matches(n) {
			continue
		}
		out = append(out, decodeOne(e, n, kind, decode))
	}
	return out
}

// decodeEach decodes nodes already selected by their source (an upstream endpoint or
// a legacy list), so @type is not checked. Elements that are not objects are skipped.
func decodeEach[T any](e *Extractor, nodes []Node, kind Kind, decode func(Node, *reader) T) []T {
	out := make([]T, 0, len(nodes))
	for _, n := range nodes {
		if n.Invalid {
			e.log.Warn("skipping element that is not an object", zap.String("kind", kind.Name), zap.Int("node_index", n.Index))
			continue
		}
		out = append(out, decodeOne(e, n, kind, decode))
	}
	return out
}

func decodeOne[T any](e *Extractor, n Node, kind Kind, decode func(Node, *reader) T) T {
	var errs []FieldError
	rec := decode(n, n.reader(&errs))
	if len(errs) > 0 {
		metrics.SkippedFields.WithLabelValues(kind.Name).Add(float64(len(errs)))
		fields := make([]string, len(errs))
		causes := make([]error, len(errs))
		for i, fe := range errs {
			fields[i] = fe.Field
			causes[i] = fe.Err
		}
		e.log.Warn("defaulted undecodable fields",
			zap.String("kind", kind.Name),
			zap.String("node_id", n.ID),
			zap.Int("node_index", n.Index),
			zap.Strings("fields", fields),
			zap.Errors("causes", causes),
		)
	}
	return rec
}

func (e *Extractor) Irrigations(doc *Document) []models.IrrigationOperation {
	return extractAll(e, doc, KindIrrigation, decodeIrrigation)
}

func (e *Extractor) Fertilizations(doc *Document) []models.FertilizationOperation {
	return extractAll(e, doc, KindFertilization, decodeFertilization)
}

func (e *Extractor) PestManagement(doc *Document) []models.PestManagementOperation {
	return extractAll(e, doc, KindPestManagement, decodePestManagement)
}

func (e *Extractor) Operations(doc *Document) []models.Operation {
	return extractAll(e, doc, KindOperation, decodeOperation)
}

func (e *Extractor) Observations(doc *Document) []models.CropObservation {
	return extractAll(e, doc, KindObservation, decodeObservation)
}

func (e *Extractor) Materials(doc *Document) []models.AddRawMaterialOperation {
	return extractAll(e, doc, KindMaterial, decodeMaterial)
}

func (e *Extractor) Animals(doc *Document) []models.Animal {
	return extractAll(e, doc, KindAnimal, decodeAnimal)
}

func (e *Extractor) SoilMoisture(doc *Document) []models.SoilMoistureAggregation {
	return extractAll(e, doc, KindSoilMoisture, decodeSoilMoisture)
}

func (e *Extractor) Forecasts(doc *Document) []models.YieldForecast {
	return extractAll(e, doc, KindForecast, decodeForecast)
}

// DecodeIrrigations decodes upstream irrigation nodes without checking @type.
func (e *Extractor) DecodeIrrigations(doc *Document) []models.IrrigationOperation {
	return decodeEach(e, doc.Nodes, KindIrrigation, decodeIrrigation)
}

func (e *Extractor) DecodeOperations(doc *Document) []models.Operation {
	return decodeEach(e, doc.Nodes, KindOperation, decodeOperation)
}

func (e *Extractor) DecodeObservations(doc *Document) []models.CropObservation {
	return decodeEach(e, doc.Nodes, KindObservation, decodeObservation)
}

func (e *Extractor) DecodeMaterials(doc *Document) []models.AddRawMaterialOperation {
	return decodeEach(e, doc.Nodes, KindMaterial, decodeMaterial)
}

func (e *Extractor) DecodeAnimals(doc *Document) []models.Animal {
	return decodeEach(e, doc.Nodes, KindAnimal, decodeAnimal)
}

func firstType(n Node) string {
	if len(n.Types) == 0 {
		return ""
	}
	return localName(n.Types[0])
}

func decodeIrrigation(n Node, r *reader) models.IrrigationOperation {
	return models.IrrigationOperation{
		ID:               n.ID,
		Title:            r.String("title"),
		Details:          r.String("details", "description"),
		ActivityType:     r.Label("activityType"),
		Start:            r.Time("hasStartDatetime", "startedAt"),
		End:              r.Time("hasEndDatetime", "endedAt"),
		ResponsibleAgent: r.Label("responsibleAgent"),
		Machinery:        r.Refs("usesAgriculturalMachinery"),
		AppliedAmount:    r.Quantity("hasAppliedAmount"),
		IrrigationSystem: irrigationSystem(r),
		OperatedOn:       r.Ref("operatedOn", "isOperatedOn"),
	}
}

// irrigationSystem normalises usesIrrigationSystem written as a name or a nested object.
func irrigationSystem(r *reader) models.IrrigationSystem {
	k, raw, ok := r.raw("usesIrrigationSystem")
	if !ok {
		return models.IrrigationSystem{}
	}
	if raw[0] == '{' || raw[0] == '[' {
		o := r.Object(k)
		sys := models.IrrigationSystem{
			Kind: models.IrrigationSystemNamedRef,
			Name: o.String("name", "hasName"),
			ID:   o.String("@id"),
			Type: o.Label("hasIrrigationType"),
		}
		if sys.Name == "" && sys.Type == "" {
			sys.Name = models.ShortID(sys.ID)
		}
		return sys
	}
	name := r.String(k)
	if name == "" {
		return models.IrrigationSystem{}
	}
	return models.IrrigationSystem{Kind: models.IrrigationSystemPlainName, Name: name}
}

func decodeFertilization(n Node, r *reader) models.FertilizationOperation {
	op := models.FertilizationOperation{
		ID:                   n.ID,
		Date:                 r.Time("hasTimestamp", "hasStartDatetime"),
		Product:              r.Object("usesFertilizer").String("hasCommercialName", "name"),
		OperationType:        r.Label("operationType"),
		TreatmentDescription: r.String("hasApplicationMethod", "description"),
		OperatedOn:           r.Ref("operatedOn", "isOperatedOn"),
	}
	if q := r.Quantity("hasAppliedAmount"); q != nil {
		op.Quantity, op.Unit = q.Value, q.Unit
	}
	if k, raw, ok := r.raw("plan"); ok {
		if raw[0] == '{' {
			plan := r.Object(k)
			op.TreatmentPlan = plan.String("name", "title")
			op.FormOfTreatment = plan.String("description")
		} else {
			op.TreatmentPlan = r.String(k)
		}
	}
	return op
}

func decodePestManagement(n Node, r *reader) models.PestManagementOperation {
	pesticide := r.Object("usesPesticide")
	op := models.PestManagementOperation{
		ID:                   n.ID,
		Date:                 r.Time("hasTimestamp", "hasStartDatetime"),
		EnemyTarget:          r.Label("isTargetedTowards"),
		ActiveSubstance:      pesticide.Label("hasActiveSubstance"),
		Product:              pesticide.String("hasCommercialName", "name"),
		Area:                 r.Quantity("hasTreatedArea"),
		TreatmentDescription: r.String("description", "details"),
		OperatedOn:           r.Ref("operatedOn", "isOperatedOn"),
	}
	if q := r.Quantity("hasAppliedAmount"); q != nil {
		op.Dose, op.Unit = q.Value, q.Unit
	}
	return op
}

func decodeOperation(n Node, r *reader) models.Operation {
	return models.Operation{
		ID:               n.ID,
		Type:             firstType(n),
		ActivityType:     r.Label("activityType"),
		Title:            r.String("title"),
		Details:          r.String("details", "description"),
		Start:            r.Time("hasStartDatetime", "startedAt"),
		End:              r.Time("hasEndDatetime", "endedAt"),
		ResponsibleAgent: r.Label("responsibleAgent"),
		Machinery:        r.Refs("usesAgriculturalMachinery"),
		OperatedOn:       r.Ref("isOperatedOn", "operatedOn"),
		CompostPile:      r.Ref("hasCompostPile", "compostPile"),
		Measurements:     r.Refs("hasMeasurement"),
		NestedOperations: r.Refs("hasNestedOperation"),
	}
}

func decodeObservation(n Node, r *reader) models.CropObservation {
	obs := models.CropObservation{
		ID:                n.ID,
		Type:              firstType(n),
		ActivityType:      r.Label("activityType"),
		Title:             r.String("title"),
		Details:           r.String("details", "description"),
		Start:             r.Time("hasStartDatetime", "startedAt"),
		End:               r.Time("hasEndDatetime", "endedAt"),
		ResponsibleAgent:  r.Label("responsibleAgent"),
		Machinery:         r.Refs("usesAgriculturalMachinery"),
		Result:            observationResult(r),
		ObservedProperty:  r.Label("observedProperty"),
		RelatesToProperty: r.Label("relatesToProperty"),
		OperatedOn:        r.Ref("hasFeatureOfInterest", "isOperatedOn", "operatedOn"),
	}
	if obs.Start == nil {
		obs.Start = r.Time("phenomenonTime")
	}
	return obs
}

// observationResult reads hasResult {hasValue|numericValue, unit}, or the older flat
// hasValue / isMeasuredIn pair on the node itself.
func observationResult(r *reader) *models.Result {
	src := r
	if k, raw, ok := r.raw("hasResult"); ok {
		if raw[0] != '{' {
			return &models.Result{Value: r.String(k)}
		}
		src = r.Object(k)
	} else if !r.has("hasValue") {
		return nil
	}
	return &models.Result{
		Value: src.String("hasValue", "numericValue"),
		Unit:  models.UnitSuffix(src.String("unit", "hasUnit", "isMeasuredIn")),
	}
}

func decodeMaterial(n Node, r *reader) models.AddRawMaterialOperation {
	op := models.AddRawMaterialOperation{
		ID:        n.ID,
		Title:     r.String("title"),
		Start:     r.Time("hasStartDatetime", "startedAt"),
		End:       r.Time("hasEndDatetime", "endedAt"),
		Materials: []models.MaterialQuantity{},
	}
	for _, m := range r.Objects("hasCompostMaterial", "hasMaterial", "materials") {
		op.Materials = append(op.Materials, models.MaterialQuantity{
			Name:     m.Label("typeName", "name", "hasName"),
			Quantity: m.Quantity("quantityValue", "hasAppliedAmount", "hasQuantity"),
		})
	}
	return op
}

func decodeAnimal(n Node, r *reader) models.Animal {
	return models.Animal{
		ID:            n.ID,
		NationalID:    r.String("nationalID"),
		Name:          r.String("name"),
		Description:   r.String("description"),
		Parcel:        r.Ref("hasAgriParcel"),
		Sex:           r.Int("sex"),
		Castrated:     r.Bool("isCastrated"),
		Species:       r.Label("species"),
		Breed:         r.Label("breed"),
		Birthdate:     r.Time("birthdate"),
		Group:         r.Label("isMemberOfAnimalGroup"),
		Status:        r.Int("status"),
		InvalidatedAt: r.Time("invalidatedAtTime"),
		Created:       r.Time("dateCreated"),
		Modified:      r.Time("dateModified"),
	}
}

func decodeSoilMoisture(n Node, r *reader) models.SoilMoistureAggregation {
	period := r.Object("duringPeriod")
	sat := r.Object("saturationAnalysis")
	stress := r.Object("stressAnalysis")
	irr := r.Object("irrigationAnalysis")
	return models.SoilMoistureAggregation{
		ID:          n.ID,
		Description: r.String("description"),
		Period: models.Period{
			Begin: period.Time("hasBeginning"),
			End:   period.Time("hasEnd"),
		},
		PrecipitationEvents: r.Int("numberOfPrecipitationEvents"),
		Saturation: models.SaturationAnalysis{
			Days:            sat.Int("numberOfSaturationDays"),
			Dates:           sat.Times("hasSaturationDates"),
			FieldCapacities: depthQuantities(sat.Objects("hasFieldCapacities")),
		},
		Stress: models.StressAnalysis{
			Days:   stress.Int("numberOfStressDays"),
			Dates:  stress.Times("hasStressDates"),
			Levels: depthQuantities(stress.Objects("hasStressLevels")),
		},
		Irrigation: models.IrrigationAnalysis{
			Operations:         irr.Int("numberOfIrrigationOperations"),
			HighDoseOperations: irr.Int("numberOfHighDoseIrrigationOperations"),
			HighDoseDates:      irr.Times("hasHighDoseIrrigationOperationDates"),
		},
	}
}

func depthQuantities(objs []*reader) []models.DepthQuantity {
	out := make([]models.DepthQuantity, 0, len(objs))
	for _, o := range objs {
		depth := o.Object("atDepth")
		out = append(out, models.DepthQuantity{
			Value:     o.Float("numericValue"),
			Unit:      models.UnitSuffix(o.String("unit")),
			Depth:     depth.Float("hasNumericValue", "numericValue"),
			DepthUnit: models.UnitSuffix(depth.String("hasUnit", "unit")),
		})
	}
	return out
}

func decodeForecast(n Node, r *reader) models.YieldForecast {
	fc := models.YieldForecast{
		ID:             n.ID,
		PredictedYield: r.Quantity("hasPredictedYield", "predictedYield", "hasYield"),
		NDVIPeak:       r.Float("ndviPeak", "hasNDVIPeak"),
		NDVIPeakAt:     r.Time("ndviPeakAt", "hasNDVIPeakDate"),
		Model:          r.Label("model", "usesModel"),
		Confidence:     r.Float("confidence", "hasConfidence"),
		Crop:           r.Label("hasAgriCrop", "crop"),
		Parcel:         r.Ref("isPredictedFor", "hasAgriParcel", "operatedOn"),
	}
	if y := r.Int("year", "forYear"); y != nil {
		fc.Year = *y
	} else if ts := r.Time("hasTimestamp", "validFrom"); ts != nil {
		fc.Year = ts.Year()
	}
	return fc
}
