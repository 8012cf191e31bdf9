package construction

import (
	"slices"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
)

const (
	ghg2024         = "UK Government GHG Conversion Factors 2024"
	benchmarkSource = "Industry benchmark (3-7% typical for solar PV construction)"
)

const (
	Diesel          = "diesel"
	Petrol          = "petrol"
	GridElectricity = "grid_electricity"
)

// Fuels are the combustion and on-site electricity factors.
var Fuels = pvcarbon.FactorTable{
	Name: "GHG conversion factors 2024 (fuels)",
	Factors: map[string]pvcarbon.EmissionFactor{
		Diesel: {
			Value: 2.69, Unit: pvcarbon.KgCO2ePerLitre, Source: ghg2024, Year: 2024, Region: pvcarbon.GenericRegion,
			Notes: "Average diesel (100% mineral diesel)",
		},
		Petrol: {
			Value: 2.32, Unit: pvcarbon.KgCO2ePerLitre, Source: ghg2024, Year: 2024, Region: pvcarbon.GenericRegion,
			Notes: "Average petrol (100% mineral petrol)",
		},
		GridElectricity: {
			Value: 0.234, Unit: pvcarbon.KgCO2ePerKWh, Source: ghg2024, Year: 2024, Region: pvcarbon.GenericRegion,
			Notes: "UK electricity grid average, use a country specific factor when available",
		},
	},
}

// WorkerCar is the average passenger car used to commute to site.
var WorkerCar = pvcarbon.EmissionFactor{
	Value:  0.17058,
	Unit:   pvcarbon.KgCO2ePerKm,
	Source: ghg2024,
	Year:   2024,
	Region: pvcarbon.GenericRegion,
	Notes:  "Average car (medium, unknown fuel type)",
}

// Equipment describes the fuel consumption of a construction machine.
type Equipment struct {
	Type              string
	Fuel              string
	ConsumptionLPerH  float64
	Description       string
	ConsumptionSource string
}

const (
	equipmentGuide = "Construction Equipment Guide"
	generatorSpecs = "Generator manufacturer specifications"
)

var equipment = map[string]Equipment{
	"mobile_crane_medium": {Fuel: Diesel, ConsumptionLPerH: 15.0, Description: "Medium mobile crane (20-50 tonne capacity)",
		ConsumptionSource: equipmentGuide + " - typical medium crane consumption"},
	"mobile_crane_large": {Fuel: Diesel, ConsumptionLPerH: 25.0, Description: "Large mobile crane (50+ tonne capacity)",
		ConsumptionSource: equipmentGuide + " - typical large crane consumption"},
	"excavator_medium": {Fuel: Diesel, ConsumptionLPerH: 12.0, Description: "Medium excavator (10-20 tonne)",
		ConsumptionSource: equipmentGuide + " - typical excavator consumption"},
	"forklift_diesel": {Fuel: Diesel, ConsumptionLPerH: 3.5, Description: "Diesel forklift (2-5 tonne capacity)",
		ConsumptionSource: equipmentGuide + " - typical forklift consumption"},
	"telehandler": {Fuel: Diesel, ConsumptionLPerH: 8.0, Description: "Telescopic handler",
		ConsumptionSource: equipmentGuide + " - typical telehandler consumption"},
	"generator_small": {Fuel: Diesel, ConsumptionLPerH: 2.5, Description: "Small diesel generator (20-50 kVA)",
		ConsumptionSource: generatorSpecs + " - typical small unit"},
	"generator_medium": {Fuel: Diesel, ConsumptionLPerH: 5.0, Description: "Medium diesel generator (50-150 kVA)",
		ConsumptionSource: generatorSpecs + " - typical medium unit"},
}

// LookupEquipment returns the consumption profile of an equipment type.
func LookupEquipment(equipmentType string) (Equipment, bool) {
	e, found := equipment[equipmentType]
	e.Type = equipmentType
	return e, found
}

// EquipmentCatalogue lists every known equipment, sorted by type.
func EquipmentCatalogue() []Equipment {
	catalogue := make([]Equipment, 0, len(equipment))
	for equipmentType := range equipment {
		e, _ := LookupEquipment(equipmentType)
		catalogue = append(catalogue, e)
	}
	slices.SortFunc(catalogue, func(a, b Equipment) int {
		return strings.Compare(a.Type, b.Type)
	})
	return catalogue
}
