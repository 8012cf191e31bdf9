package construction

import (
	"fmt"

	pvcarbon "github.com/superdango/pv-carbon"
)

const (
	MethodSimple   = "simple_percentage"
	MethodDetailed = "detailed_itemized"

	DefaultPercentage = 5.0
)

// Request selects how A5 emissions are estimated. It is implemented by Simple
// and Detailed only.
type Request interface {
	method() string
}

// Simple estimates A5 as a percentage of A1-A3 embodied emissions.
type Simple struct {
	// Percentage defaults to DefaultPercentage when nil.
	Percentage *float64
}

func (Simple) method() string { return MethodSimple }

type EquipmentUsage struct {
	EquipmentType string
	Hours         float64
}

// Detailed itemizes construction activities. Each activity is only computed
// when all of its inputs are set and non zero.
type Detailed struct {
	EquipmentUsage     []EquipmentUsage
	WorkerTransportKm  *float64
	NumWorkers         *int
	NumDays            *int
	GridElectricityKWh *float64
	// GridCarbonFactor overrides the on-site grid factor, in kgCO2e/kWh. It is
	// independent from the factor used for operational emissions.
	GridCarbonFactor *float64
}

func (Detailed) method() string { return MethodDetailed }

// Compute returns the A5 result of req. A nil request, typed nil pointers
// included, is computed as Simple with the default percentage.
func Compute(req Request, embodiedKgCO2e float64) (pvcarbon.StageResult, error) {
	switch r := req.(type) {
	case nil:
		req = Simple{}
	case *Simple:
		if r == nil {
			req = Simple{}
		}
	case *Detailed:
		if r == nil {
			req = Simple{}
		}
	}

	switch req := req.(type) {
	case Simple:
		return computeSimple(req, embodiedKgCO2e)
	case *Simple:
		return computeSimple(*req, embodiedKgCO2e)
	case Detailed:
		return computeDetailed(req)
	case *Detailed:
		return computeDetailed(*req)
	default:
		return pvcarbon.StageResult{}, fmt.Errorf("%w: unsupported construction method %q", pvcarbon.ErrInvalidInput, req.method())
	}
}

func computeSimple(req Simple, embodiedKgCO2e float64) (pvcarbon.StageResult, error) {
	percentage := DefaultPercentage
	if req.Percentage != nil {
		percentage = *req.Percentage
	}
	if percentage < 0 {
		return pvcarbon.StageResult{}, fmt.Errorf("%w: construction percentage must be positive: %g", pvcarbon.ErrInvalidInput, percentage)
	}
	if embodiedKgCO2e < 0 {
		return pvcarbon.StageResult{}, fmt.Errorf("%w: embodied emissions must be positive: %g", pvcarbon.ErrInvalidInput, embodiedKgCO2e)
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageConstruction, MethodSimple)
	result.Total = pvcarbon.Emissions(pvcarbon.Percent(embodiedKgCO2e, percentage))
	result.Assumptions["embodied_carbon_kgCO2e"] = embodiedKgCO2e
	result.Assumptions["percentage_used"] = percentage
	result.Assumptions["note"] = fmt.Sprintf("A5 estimated as %g%% of A1-A3 embodied carbon", percentage)
	result.Assumptions["source"] = benchmarkSource

	return result, nil
}

func computeDetailed(req Detailed) (pvcarbon.StageResult, error) {
	result := pvcarbon.NewStageResult(pvcarbon.StageConstruction, MethodDetailed)

	for i, usage := range req.EquipmentUsage {
		if usage.Hours < 0 {
			return pvcarbon.StageResult{}, fmt.Errorf("%w: equipment usage %d has negative hours: %g", pvcarbon.ErrInvalidInput, i+1, usage.Hours)
		}

		equipment, found := LookupEquipment(usage.EquipmentType)
		if !found {
			continue
		}

		fuelFactor, err := pvcarbon.ResolveFactor(equipment.Fuel, pvcarbon.KgCO2ePerLitre, Fuels.Lookup, nil)
		if err != nil {
			return pvcarbon.StageResult{}, err
		}

		litres := equipment.ConsumptionLPerH * usage.Hours
		result.Add(pvcarbon.LineItem{
			Index:        i + 1,
			Key:          equipment.Type,
			Label:        fmt.Sprintf("%s (%gh)", equipment.Description, usage.Hours),
			Quantity:     litres,
			QuantityUnit: "L",
			Factor:       fuelFactor,
			Emissions:    pvcarbon.Emissions(litres * fuelFactor.Value),
			Description:  fmt.Sprintf("%.1fL %s consumed", litres, equipment.Fuel),
			Source:       fmt.Sprintf("%s (fuel) + %s (consumption rate)", fuelFactor.Source, equipment.ConsumptionSource),
			Inputs:       map[string]float64{"hours": usage.Hours, "consumption_l_per_hour": equipment.ConsumptionLPerH},
		})
	}

	if req.WorkerTransportKm != nil && req.NumWorkers != nil && req.NumDays != nil {
		km, workers, days := *req.WorkerTransportKm, *req.NumWorkers, *req.NumDays
		if km < 0 || workers < 0 || days < 0 {
			return pvcarbon.StageResult{}, fmt.Errorf("%w: worker transport inputs must be positive", pvcarbon.ErrInvalidInput)
		}

		if km != 0 && workers != 0 && days != 0 {
			totalKm := km * float64(workers) * float64(days)
			result.Add(pvcarbon.LineItem{
				Key:          "worker_transport",
				Label:        fmt.Sprintf("Worker transport (%d workers, %d days)", workers, days),
				Quantity:     totalKm,
				QuantityUnit: "km",
				Factor:       WorkerCar,
				Emissions:    pvcarbon.Emissions(totalKm * WorkerCar.Value),
				Description:  fmt.Sprintf("%.0f km total travel @ %g kgCO2e/km", totalKm, WorkerCar.Value),
				Source:       WorkerCar.Source,
				Inputs:       map[string]float64{"worker_transport_km": km, "num_workers": float64(workers), "num_days": float64(days)},
			})
		}
	}

	if req.GridElectricityKWh != nil && *req.GridElectricityKWh != 0 {
		kwh := *req.GridElectricityKWh
		if kwh < 0 {
			return pvcarbon.StageResult{}, fmt.Errorf("%w: grid electricity must be positive: %g", pvcarbon.ErrInvalidInput, kwh)
		}

		var override *pvcarbon.Override
		if req.GridCarbonFactor != nil {
			override = &pvcarbon.Override{Value: *req.GridCarbonFactor}
		}
		gridFactor, err := pvcarbon.ResolveFactor(GridElectricity, pvcarbon.KgCO2ePerKWh, Fuels.Lookup, override)
		if err != nil {
			return pvcarbon.StageResult{}, err
		}
		if gridFactor.Value < 0 {
			return pvcarbon.StageResult{}, fmt.Errorf("%w: grid carbon factor must be positive: %g", pvcarbon.ErrInvalidInput, gridFactor.Value)
		}

		result.Add(pvcarbon.LineItem{
			Key:          GridElectricity,
			Label:        "Grid electricity on site",
			Quantity:     kwh,
			QuantityUnit: "kWh",
			Factor:       gridFactor,
			Emissions:    pvcarbon.Emissions(kwh * gridFactor.Value),
			Description:  fmt.Sprintf("%.1f kWh @ %g kgCO2e/kWh", kwh, gridFactor.Value),
			Source:       gridFactor.Source,
		})
	}

	result.Assumptions["data_sources"] = map[string]string{
		"fuel_factors":          ghg2024,
		"equipment_consumption": equipmentGuide + ", industry standards",
		"worker_transport":      ghg2024 + " (average car)",
	}

	return result, nil
}
