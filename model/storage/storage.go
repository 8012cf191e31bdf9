package storage

import (
	"fmt"

	pvcarbon "github.com/superdango/pv-carbon"
)

const (
	Method = "capacity_embodied"

	DefaultEmbodiedKgCO2ePerKWh = 75.0
	DefaultRoundtripEfficiency  = 0.9

	factorSource = "Battery pack embodied carbon per kWh of capacity"
)

// Request describes a battery energy storage system installed with the array.
type Request struct {
	Included             bool
	CapacityKWh          float64
	EmbodiedKgCO2ePerKWh *float64
	RoundtripEfficiency  *float64
}

// Compute returns the embodied emissions of the battery. Negative capacity or
// factor are clamped to zero.
func Compute(req *Request) pvcarbon.StageResult {
	if req == nil || !req.Included {
		return pvcarbon.ZeroResult(pvcarbon.StageStorage, "No BESS included")
	}

	factorValue := DefaultEmbodiedKgCO2ePerKWh
	if req.EmbodiedKgCO2ePerKWh != nil {
		factorValue = *req.EmbodiedKgCO2ePerKWh
	}
	efficiency := DefaultRoundtripEfficiency
	if req.RoundtripEfficiency != nil {
		efficiency = *req.RoundtripEfficiency
	}

	capacity := max(0, req.CapacityKWh)
	factor := pvcarbon.EmissionFactor{
		Value:  max(0, factorValue),
		Unit:   pvcarbon.KgCO2ePerKWhCapacity,
		Source: factorSource,
		Region: pvcarbon.GenericRegion,
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageStorage, Method)
	result.Add(pvcarbon.LineItem{
		Key:          "battery",
		Label:        fmt.Sprintf("Battery storage (%g kWh)", capacity),
		Quantity:     capacity,
		QuantityUnit: "kWh",
		Factor:       factor,
		Emissions:    pvcarbon.Emissions(capacity * factor.Value),
		Source:       factor.Source,
	})
	result.Details["capacity_kwh"] = capacity
	result.Details["embodied_kgCO2e_per_kwh"] = factor.Value
	result.Assumptions["roundtrip_efficiency"] = efficiency

	return result
}
