package replacement

import (
	"fmt"
	"math"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/operational"
	"gonum.org/v1/gonum/floats"
)

const (
	Method = "degradation_and_replacement"

	inverterSource   = "Inverter embodied carbon per kWp"
	additionalSource = "Percentage of A1-A3 embodied carbon"
)

// Request describes the operating life of the system.
type Request struct {
	SystemLifetimeYears      int
	ModuleDegradationRatePct float64
	// InverterLifetimeYears disables inverter replacements when nil or zero.
	InverterLifetimeYears                  *int
	InverterEmbodiedKgCO2ePerKWp           *float64
	AdditionalReplacementPercentOfEmbodied *float64
}

// Defaults returns a typical crystalline silicon installation: 25 years with
// 0.5%/year degradation and an inverter replaced every 12 years.
func Defaults() Request {
	inverterLifetime := 12
	inverterFactor := 30.0
	additional := 0.0
	return Request{
		SystemLifetimeYears:                    25,
		ModuleDegradationRatePct:               0.5,
		InverterLifetimeYears:                  &inverterLifetime,
		InverterEmbodiedKgCO2ePerKWp:           &inverterFactor,
		AdditionalReplacementPercentOfEmbodied: &additional,
	}
}

func (req Request) validate() error {
	if req.SystemLifetimeYears < 1 {
		return fmt.Errorf("%w: system lifetime must be at least 1 year: %d", pvcarbon.ErrInvalidInput, req.SystemLifetimeYears)
	}
	if req.ModuleDegradationRatePct < 0 || req.ModuleDegradationRatePct > 100 || math.IsNaN(req.ModuleDegradationRatePct) {
		return fmt.Errorf("%w: module degradation rate must be between 0 and 100%%: %g", pvcarbon.ErrInvalidInput, req.ModuleDegradationRatePct)
	}
	if req.InverterLifetimeYears != nil && *req.InverterLifetimeYears < 0 {
		return fmt.Errorf("%w: inverter lifetime must be positive: %d", pvcarbon.ErrInvalidInput, *req.InverterLifetimeYears)
	}
	if req.InverterEmbodiedKgCO2ePerKWp != nil && *req.InverterEmbodiedKgCO2ePerKWp < 0 {
		return fmt.Errorf("%w: inverter embodied carbon must be positive: %g", pvcarbon.ErrInvalidInput, *req.InverterEmbodiedKgCO2ePerKWp)
	}
	if req.AdditionalReplacementPercentOfEmbodied != nil && *req.AdditionalReplacementPercentOfEmbodied < 0 {
		return fmt.Errorf("%w: additional replacement percentage must be positive: %g", pvcarbon.ErrInvalidInput, *req.AdditionalReplacementPercentOfEmbodied)
	}
	return nil
}

// LifetimeGeneration sums the yearly output of the system, each year losing
// ratePct of the previous one, starting from the first year output.
func LifetimeGeneration(annualKWh, ratePct float64, years int) float64 {
	yearly := make([]float64, years)
	for i := range yearly {
		yearly[i] = annualKWh * math.Pow(1-ratePct/100, float64(i))
	}
	return floats.SumCompensated(yearly)
}

// InverterReplacements counts inverters installed after commissioning before
// the end of life of the system.
func InverterReplacements(lifetimeYears, inverterLifetimeYears int) int {
	if inverterLifetimeYears <= 0 {
		return 0
	}
	return (lifetimeYears - 1) / inverterLifetimeYears
}

// Compute returns the B2-B5 emissions. generation is the first year output of
// the system; when nil, the lifetime generation figures are omitted and only
// replacement emissions are computed.
func Compute(req *Request, capacityKWp, embodiedKgCO2e float64, generation *operational.Generation) (pvcarbon.StageResult, error) {
	if req == nil {
		return pvcarbon.ZeroResult(pvcarbon.StageReplacement, "No replacement inputs provided"), nil
	}
	if err := req.validate(); err != nil {
		return pvcarbon.StageResult{}, err
	}
	if capacityKWp < 0 || math.IsNaN(capacityKWp) || math.IsInf(capacityKWp, 0) {
		return pvcarbon.StageResult{}, fmt.Errorf("%w: system capacity must be positive: %g kWp", pvcarbon.ErrInvalidInput, capacityKWp)
	}
	if embodiedKgCO2e < 0 || math.IsNaN(embodiedKgCO2e) {
		return pvcarbon.StageResult{}, fmt.Errorf("%w: embodied emissions must be positive: %g kgCO2e", pvcarbon.ErrInvalidInput, embodiedKgCO2e)
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageReplacement, Method)
	lifetime := req.SystemLifetimeYears

	result.Details["system_lifetime_years"] = float64(lifetime)
	result.Details["module_degradation_rate_pct_per_year"] = req.ModuleDegradationRatePct

	if generation != nil {
		lifetimeKWh := LifetimeGeneration(generation.AnnualKWh.KWh(), req.ModuleDegradationRatePct, lifetime)
		lifetimeAvoided := pvcarbon.Emissions(lifetimeKWh * generation.CarbonFactor.Value)

		result.Details["lifetime_generation_kwh"] = lifetimeKWh
		result.Details["lifetime_avoided_kgCO2e"] = lifetimeAvoided.KgCO2e()
		result.Details["lifetime_avoided_tonnesCO2e"] = lifetimeAvoided.TCO2e()
		result.Details["average_annual_generation_kwh"] = lifetimeKWh / float64(lifetime)
	}

	inverterLifetime := 0
	if req.InverterLifetimeYears != nil {
		inverterLifetime = *req.InverterLifetimeYears
	}
	inverterFactor := 0.0
	if req.InverterEmbodiedKgCO2ePerKWp != nil {
		inverterFactor = *req.InverterEmbodiedKgCO2ePerKWp
	}
	replacements := InverterReplacements(lifetime, inverterLifetime)
	inverterEmissions := float64(replacements) * inverterFactor * capacityKWp

	result.Details["inverter_lifetime_years"] = float64(inverterLifetime)
	result.Details["inverter_replacements"] = float64(replacements)
	result.Details["inverter_emissions_kgCO2e"] = inverterEmissions

	if inverterEmissions != 0 {
		result.Add(pvcarbon.LineItem{
			Key:          "inverter_replacement",
			Label:        fmt.Sprintf("Inverter replacement (%d over %d years)", replacements, lifetime),
			Quantity:     float64(replacements) * capacityKWp,
			QuantityUnit: "kWp",
			Factor: pvcarbon.EmissionFactor{
				Value:  inverterFactor,
				Unit:   pvcarbon.KgCO2ePerKWp,
				Source: inverterSource,
				Region: pvcarbon.GenericRegion,
			},
			Emissions: pvcarbon.Emissions(inverterEmissions),
			Source:    inverterSource,
			Inputs:    map[string]float64{"capacity_kwp": capacityKWp, "replacements": float64(replacements)},
		})
	}

	additionalPct := 0.0
	if req.AdditionalReplacementPercentOfEmbodied != nil {
		additionalPct = *req.AdditionalReplacementPercentOfEmbodied
	}
	additionalEmissions := pvcarbon.Percent(embodiedKgCO2e, additionalPct)

	result.Details["additional_replacement_percent_of_embodied"] = additionalPct
	result.Details["additional_replacement_emissions_kgCO2e"] = additionalEmissions

	if additionalEmissions != 0 {
		result.Add(pvcarbon.LineItem{
			Key:          "additional_replacement",
			Label:        fmt.Sprintf("Minor component replacement (%g%% of embodied)", additionalPct),
			Quantity:     embodiedKgCO2e,
			QuantityUnit: "kgCO2e",
			Emissions:    pvcarbon.Emissions(additionalEmissions),
			Source:       additionalSource,
		})
	}

	return result, nil
}
