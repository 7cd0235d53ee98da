package render

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

func newDocument(name, title string, opts Options) *Document {
	return &Document{Name: name, Title: title, Subtitle: opts.subtitle(), GeneratedAt: opts.generatedAt()}
}

var irrigationLayout = recordLayout[models.IrrigationOperation]{
	heading: "Irrigations",
	columns: []string{"Title", "Started Date", "Ended Date", "Dose", "Unit", "Watering System", "Machinery IDs", "Operated On"},
	row: func(o models.IrrigationOperation) []string {
		return []string{
			text(o.Title), date(o.Start), date(o.End),
			quantityValue(o.AppliedAmount), quantityUnit(o.AppliedAmount),
			text(o.IrrigationSystem.String()), refs(o.Machinery), ref(o.OperatedOn),
		}
	},
	detail: func(o models.IrrigationOperation) []Field {
		return []Field{
			{"Title", text(o.Title)},
			{"Details", text(o.Details)},
			{"Activity Type", text(o.ActivityType)},
			{"Started Date", date(o.Start)},
			{"Ended Date", date(o.End)},
			{"Responsible Agent", text(o.ResponsibleAgent)},
			{"Dose", quantityValue(o.AppliedAmount)},
			{"Unit", quantityUnit(o.AppliedAmount)},
			{"Watering System", text(o.IrrigationSystem.String())},
			{"Machinery IDs", refs(o.Machinery)},
			{"Operated On", ref(o.OperatedOn)},
		}
	},
	sortKey: func(o models.IrrigationOperation) *time.Time { return o.Start },
}

var fertilizationLayout = recordLayout[models.FertilizationOperation]{
	heading: "Fertilisation",
	columns: []string{"Date", "Product", "Quantity", "Unit", "Treatment Plan", "Form of Treatment", "Operation Type", "Treatment Description"},
	row: func(o models.FertilizationOperation) []string {
		return []string{
			date(o.Date), text(o.Product), number(o.Quantity), text(o.Unit),
			text(o.TreatmentPlan), text(o.FormOfTreatment), text(o.OperationType), text(o.TreatmentDescription),
		}
	},
	sortKey: func(o models.FertilizationOperation) *time.Time { return o.Date },
}

var pestManagementLayout = recordLayout[models.PestManagementOperation]{
	heading: "Pest Management",
	columns: []string{"Date", "Enemy/Target", "Active Substance", "Product", "Dose", "Unit", "Area", "Treatment Description"},
	row: func(o models.PestManagementOperation) []string {
		return []string{
			date(o.Date), text(o.EnemyTarget), text(o.ActiveSubstance), text(o.Product),
			number(o.Dose), text(o.Unit), quantity(o.Area), text(o.TreatmentDescription),
		}
	},
	sortKey: func(o models.PestManagementOperation) *time.Time { return o.Date },
}

var harvestLayout = recordLayout[models.Harvest]{
	heading: "Harvests",
	columns: []string{"Date", "Production Amount", "Unit"},
	row: func(h models.Harvest) []string {
		return []string{date(h.Date), number(h.Amount), text(h.Unit)}
	},
	sortKey: func(h models.Harvest) *time.Time { return h.Date },
}

var animalLayout = recordLayout[models.Animal]{
	heading: "Animals",
	columns: []string{"ID", "National ID", "Name", "Species", "Breed", "Sex", "Castrated", "Birthdate", "Group", "Status"},
	row: func(a models.Animal) []string {
		return []string{
			text(models.ShortID(a.ID)), text(a.NationalID), text(a.Name), text(a.Species), text(a.Breed),
			text(a.SexLabel()), yesNo(a.Castrated), date(a.Birthdate), text(a.Group), integer(a.Status),
		}
	},
	detail: func(a models.Animal) []Field {
		return []Field{
			{"ID", text(models.ShortID(a.ID))},
			{"National ID", text(a.NationalID)},
			{"Name", text(a.Name)},
			{"Description", text(a.Description)},
			{"Agricultural Parcel", ref(a.Parcel)},
			{"Species", text(a.Species)},
			{"Breed", text(a.Breed)},
			{"Sex", text(a.SexLabel())},
			{"Castrated", yesNo(a.Castrated)},
			{"Birthdate", date(a.Birthdate)},
			{"Animal Group", text(a.Group)},
			{"Status", integer(a.Status)},
			{"Invalidated At", date(a.InvalidatedAt)},
			{"Created", date(a.Created)},
			{"Modified", date(a.Modified)},
		}
	},
	sortKey: func(a models.Animal) *time.Time { return a.Birthdate },
}

func operationLayout(activityType string) recordLayout[models.Operation] {
	return recordLayout[models.Operation]{
		heading: "Operations",
		columns: []string{"Title", "Details", "Start", "End", "Responsible Agent", "Type", "Machinery IDs", "Operated On"},
		row: func(o models.Operation) []string {
			kind := activityType
			if kind == "" {
				kind = o.ActivityType
			}
			operatedOn := o.OperatedOn
			if operatedOn == nil {
				operatedOn = o.CompostPile
			}
			return []string{
				text(o.Title), text(o.Details), date(o.Start), date(o.End),
				text(o.ResponsibleAgent), text(kind), refs(o.Machinery), ref(operatedOn),
			}
		},
		sortKey: func(o models.Operation) *time.Time { return o.Start },
	}
}

var observationLayout = recordLayout[models.CropObservation]{
	heading: "Observations",
	columns: []string{"Value", "Value unit", "Property", "Observed Property", "Details", "Start", "End", "Responsible Agent", "Machinery IDs"},
	row: func(o models.CropObservation) []string {
		value, unit := NA, NA
		if o.Result != nil {
			value, unit = text(o.Result.Value), text(o.Result.Unit)
		}
		return []string{
			value, unit, text(o.RelatesToProperty), text(o.ObservedProperty), text(o.Details),
			date(o.Start), date(o.End), text(o.ResponsibleAgent), refs(o.Machinery),
		}
	},
	sortKey: func(o models.CropObservation) *time.Time { return o.Start },
}

var forecastLayout = recordLayout[models.YieldForecast]{
	heading: "Yield Forecasts",
	columns: []string{"Year", "Crop", "Parcel", "Predicted Yield", "Unit", "NDVI Peak", "NDVI Peak Date", "Model", "Confidence"},
	row: func(f models.YieldForecast) []string {
		year := NA
		if f.Year != 0 {
			year = fmt.Sprint(f.Year)
		}
		return []string{
			year, text(f.Crop), ref(f.Parcel), quantityValue(f.PredictedYield), quantityUnit(f.PredictedYield),
			number(f.NDVIPeak), date(f.NDVIPeakAt), text(f.Model), number(f.Confidence),
		}
	},
	sortKey: func(f models.YieldForecast) *time.Time {
		if f.Year == 0 {
			return nil
		}
		t := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	},
}

var parcelLayout = recordLayout[models.PlotParcelDetail]{
	heading: "Plot / Parcel Details",
	columns: []string{"Plot ID", "Reporting Year", "Cartographic", "Region", "Toponym", "Area", "Nitro Area", "Natura 2000", "PDO/PGI", "Irrigated", "Irrigation System", "Cultivation In Levels", "Ground Slope", "Location"},
	row: func(p models.PlotParcelDetail) []string {
		return []string{
			text(p.PlotID), integer(p.ReportingYear), text(p.Cartographic), text(p.Region), text(p.Toponym), text(p.Area),
			yesNo(p.NitroArea), yesNo(p.NaturaArea), yesNo(p.PDOPGIArea), yesNo(p.Irrigated), text(p.IrrigationSystem),
			yesNo(p.CultivationInLevels), yesNo(p.GroundSlope), text(p.Address),
		}
	},
}

var cultivationLayout = recordLayout[models.GenericCultivationInformationForParcel]{
	heading: "Generic Cultivation Information",
	columns: []string{"Parcel", "Cultivation Type", "Variety", "Irrigated", "Greenhouse", "Production Direction", "Planting System", "Distance Of Lines", "Distance Between Lines", "Productive Trees"},
	row: func(c models.GenericCultivationInformationForParcel) []string {
		return []string{
			text(models.ShortID(c.ParcelID)), text(c.CultivationType), text(c.Variety), yesNo(c.Irrigated), yesNo(c.Greenhouse),
			text(c.ProductionDirection), text(c.PlantingSystem), number(c.PlantingDistanceOfLines),
			number(c.PlantingDistanceBetweenLines), integer(c.ProductiveTrees),
		}
	},
}

// Irrigations renders irrigation operations.
func Irrigations(ops []models.IrrigationOperation, opts Options) *Document {
	doc := newDocument("irrigations", "Irrigations Report", opts)
	doc.Sections = append(doc.Sections, irrigationLayout.section(ops, opts))
	return doc
}

func Fertilisations(ops []models.FertilizationOperation, opts Options) *Document {
	doc := newDocument("fertilisations", "Fertilisation Report", opts)
	doc.Sections = append(doc.Sections, fertilizationLayout.section(ops, opts))
	return doc
}

func PlantProtection(ops []models.PestManagementOperation, opts Options) *Document {
	doc := newDocument("plant-protection", "Plant Protection Report", opts)
	doc.Sections = append(doc.Sections, pestManagementLayout.section(ops, opts))
	return doc
}

// Harvests renders the fixed harvest template; the platform publishes no harvest data yet.
func Harvests(opts Options) *Document {
	doc := newDocument("harvests", "Harvests Report", opts)
	doc.Sections = append(doc.Sections, harvestLayout.section(nil, opts))
	return doc
}

func Animals(animals []models.Animal, opts Options) *Document {
	doc := newDocument("animal", "Animal Report", opts)
	doc.Sections = append(doc.Sections, animalLayout.section(animals, opts))
	return doc
}

// Livestock renders a herd summary by species and group followed by the animal register.
func Livestock(animals []models.Animal, opts Options) *Document {
	doc := newDocument("livestock", "Livestock Report", opts)

	type herdKey struct{ species, group string }
	type herd struct{ male, female, unknown int }
	herds := map[herdKey]*herd{}
	for _, a := range animals {
		k := herdKey{text(a.Species), text(a.Group)}
		h, ok := herds[k]
		if !ok {
			h = &herd{}
			herds[k] = h
		}
		switch a.SexLabel() {
		case "Male":
			h.male++
		case "Female":
			h.female++
		default:
			h.unknown++
		}
	}
	keys := make([]herdKey, 0, len(herds))
	for k := range herds {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b herdKey) int {
		if c := strings.Compare(a.species, b.species); c != 0 {
			return c
		}
		return strings.Compare(a.group, b.group)
	})
	summary := &Table{Columns: []string{"Species", "Group", "Male", "Female", "Unknown", "Total"}}
	for _, k := range keys {
		h := herds[k]
		summary.Rows = append(summary.Rows, []string{
			k.species, k.group, fmt.Sprint(h.male), fmt.Sprint(h.female), fmt.Sprint(h.unknown),
			fmt.Sprint(h.male + h.female + h.unknown),
		})
	}
	doc.Sections = append(doc.Sections,
		Section{Heading: "Herd Summary", Table: summary},
		animalLayout.section(animals, Options{}),
	)
	return doc
}

// Calendar renders a farm calendar report for one activity type. Observation and
// material sections only appear when they have records.
func Calendar(name, title string, data models.CalendarData, opts Options) *Document {
	doc := newDocument(name, title, opts)
	doc.Sections = append(doc.Sections,
		Section{Heading: "Activity Type Information", Details: []Field{{"Type", text(data.ActivityType)}}},
		operationLayout(data.ActivityType).section(data.Operations, opts),
	)
	if len(data.Observations) > 0 {
		doc.Sections = append(doc.Sections, observationLayout.section(data.Observations, opts))
	}
	if len(data.Materials) > 0 {
		doc.Sections = append(doc.Sections, materialsSection(data.Materials))
	}
	return doc
}

func materialsSection(ops []models.AddRawMaterialOperation) Section {
	t := &Table{Columns: []string{"Operation", "Start", "Material", "Quantity"}}
	for _, op := range SortByTime(ops, func(o models.AddRawMaterialOperation) *time.Time { return o.Start }) {
		if len(op.Materials) == 0 {
			t.Rows = append(t.Rows, []string{text(op.Title), date(op.Start), NA, NA})
			continue
		}
		for _, m := range op.Materials {
			t.Rows = append(t.Rows, []string{text(op.Title), date(op.Start), text(m.Name), quantity(m.Quantity)})
		}
	}
	return Section{Heading: "Materials", Table: t}
}

// SoilMoisture renders soil moisture aggregations ordered by period start.
func SoilMoisture(aggs []models.SoilMoistureAggregation, opts Options) *Document {
	doc := newDocument("irrigation-report", "Soil Moisture Aggregation Report", opts)
	sorted := SortByTime(aggs, func(a models.SoilMoistureAggregation) *time.Time { return a.Period.Begin })
	for i, a := range sorted {
		levels := func(qs []models.DepthQuantity) string {
			if len(qs) == 0 {
				return NA
			}
			out := make([]string, len(qs))
			for j, q := range qs {
				out[j] = depthQuantity(q)
			}
			return strings.Join(out, "; ")
		}
		doc.Sections = append(doc.Sections, Section{
			Heading: fmt.Sprintf("Aggregation %d", i+1),
			Text:    []string{text(a.Description)},
			Details: []Field{
				{"Start", date(a.Period.Begin)},
				{"End", date(a.Period.End)},
				{"Precipitation Events", integer(a.PrecipitationEvents)},
				{"Number of Saturation Days", integer(a.Saturation.Days)},
				{"Saturation Dates", dates(a.Saturation.Dates)},
				{"Field Capacities", levels(a.Saturation.FieldCapacities)},
				{"Number of Stress Days", integer(a.Stress.Days)},
				{"Stress Dates", dates(a.Stress.Dates)},
				{"Stress Levels", levels(a.Stress.Levels)},
				{"Number of Irrigation Operations", integer(a.Irrigation.Operations)},
				{"High Dose Operations", integer(a.Irrigation.HighDoseOperations)},
				{"High Dose Dates", dates(a.Irrigation.HighDoseDates)},
			},
		})
	}
	return doc
}

func Forecast(fcs []models.YieldForecast, opts Options) *Document {
	doc := newDocument("forecast", "Yield Forecast Report", opts)
	doc.Sections = append(doc.Sections, forecastLayout.section(fcs, opts))
	return doc
}

// FarmData is the input of the farm-level reports (work book, GlobalGAP).
type FarmData struct {
	Farms          []models.FarmParcels
	Irrigations    []models.IrrigationOperation
	Fertilizations []models.FertilizationOperation
	PestManagement []models.PestManagementOperation
}

func (d FarmData) parcels() ([]models.PlotParcelDetail, []models.GenericCultivationInformationForParcel) {
	var details []models.PlotParcelDetail
	var cultivations []models.GenericCultivationInformationForParcel
	for _, f := range d.Farms {
		details = append(details, f.Parcels...)
		cultivations = append(cultivations, f.Cultivations...)
	}
	return details, cultivations
}

func farmProfileSections(farms []models.FarmParcels) []Section {
	if len(farms) == 0 {
		return []Section{{Heading: "Farm Profile"}}
	}
	out := make([]Section, 0, len(farms))
	for _, f := range farms {
		p := f.Profile
		plots := NA
		if len(p.PlotIDs) > 0 {
			plots = strings.Join(p.PlotIDs, ", ")
		}
		out = append(out, Section{
			Heading: "Farm Profile",
			Details: []Field{
				{"Name", text(p.Name)},
				{"Father Name", text(p.FatherName)},
				{"VAT", text(p.VAT)},
				{"Head Office Details", text(p.HeadOffice)},
				{"Phone", text(p.Phone)},
				{"District", text(p.District)},
				{"County", text(p.County)},
				{"Municipality", text(p.Municipality)},
				{"Community", text(p.Community)},
				{"Place Name", text(p.PlaceName)},
				{"Farm Area", text(p.FarmArea)},
				{"Plot IDs", plots},
			},
		})
	}
	return out
}

func machinerySection() Section {
	t := &Table{Columns: []string{"Index", "Description", "Serial Number", "Date Of Manufacturing"}}
	for i := 1; i <= 5; i++ {
		t.Rows = append(t.Rows, []string{fmt.Sprint(i), "", "", ""})
	}
	return Section{Heading: "Machinery Assets Of Farm", Table: t}
}

func numbered(sections []Section) []Section {
	for i := range sections {
		sections[i].Heading = fmt.Sprintf("%d. %s", i+1, sections[i].Heading)
	}
	return sections
}

// WorkBook renders the farm work book: profile, machinery, parcels, cultivation and
// the operation registers.
func WorkBook(data FarmData, opts Options) *Document {
	doc := newDocument("work-book", "Farm Work Book", opts)
	details, cultivations := data.parcels()
	sections := farmProfileSections(data.Farms)
	sections = append(sections,
		machinerySection(),
		parcelLayout.section(details, Options{}),
		cultivationLayout.section(cultivations, Options{}),
		harvestLayout.section(nil, Options{}),
		irrigationLayout.section(data.Irrigations, Options{}),
		pestManagementLayout.section(data.PestManagement, Options{}),
		fertilizationLayout.section(data.Fertilizations, Options{}),
	)
	doc.Sections = numbered(sections)
	return doc
}

// GlobalGAP renders the record set a GlobalG.A.P. audit asks for.
func GlobalGAP(data FarmData, opts Options) *Document {
	doc := newDocument("GlobalGAP", "GlobalGAP Report", opts)
	details, cultivations := data.parcels()
	sections := farmProfileSections(data.Farms)
	sections = append(sections,
		parcelLayout.section(details, Options{}),
		cultivationLayout.section(cultivations, Options{}),
		irrigationLayout.section(data.Irrigations, Options{}),
		fertilizationLayout.section(data.Fertilizations, Options{}),
		pestManagementLayout.section(data.PestManagement, Options{}),
	)
	doc.Sections = numbered(sections)
	return doc
}
