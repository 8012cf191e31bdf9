package embodied

import (
	"fmt"
	"math"

	pvcarbon "github.com/superdango/pv-carbon"
)

const Method = "material_quantities"

// Calculator computes A1-A3 embodied emissions from material masses.
type Calculator struct {
	Database  pvcarbon.FactorTable
	Overrides map[Material]pvcarbon.Override
}

// NewCalculator returns a calculator using the default material database.
func NewCalculator() *Calculator {
	return &Calculator{
		Database:  iceSimplified,
		Overrides: make(map[Material]pvcarbon.Override),
	}
}

// Compute fails as a whole on a negative mass. Otherwise a material whose
// factor cannot be resolved is reported as a failed breakdown item and the
// others are still summed.
func (c *Calculator) Compute(quantities Quantities) pvcarbon.StageResult {
	if len(quantities) == 0 {
		return pvcarbon.ZeroResult(pvcarbon.StageEmbodied, "No materials provided")
	}
	for _, material := range Materials {
		if kg := quantities[material]; kg < 0 || math.IsNaN(kg) {
			return pvcarbon.FailedResult(pvcarbon.StageEmbodied,
				fmt.Errorf("%w: negative quantity for %s: %g kg", pvcarbon.ErrInvalidInput, material, kg))
		}
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageEmbodied, Method)
	result.Assumptions["material_database"] = c.Database.Name

	for _, material := range Materials {
		kg, found := quantities[material]
		if !found || kg == 0 {
			continue
		}

		item := pvcarbon.LineItem{
			Key:          string(material),
			Label:        c.Database.Label(string(material)),
			Quantity:     kg,
			QuantityUnit: "kg",
		}

		var override *pvcarbon.Override
		if o, found := c.Overrides[material]; found {
			override = &o
		}

		factor, err := pvcarbon.ResolveFactor(string(material), pvcarbon.KgCO2ePerKg, c.Database.Lookup, override)
		if err != nil {
			item.Err = err
			result.Add(item)
			continue
		}
		if factor.Value < 0 {
			item.Err = fmt.Errorf("%w: negative emission factor for %s: %g", pvcarbon.ErrInvalidInput, material, factor.Value)
			result.Add(item)
			continue
		}

		item.Factor = factor
		item.Source = factor.Source
		item.Emissions = pvcarbon.Emissions(kg * factor.Value)
		result.Add(item)
	}

	if len(result.Breakdown) == 0 {
		result.Note = "No materials provided"
	}

	return result
}
