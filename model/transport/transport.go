package transport

import (
	"fmt"
	"math"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
)

const Method = "tonne_km"

// Leg is one step of the delivery itinerary.
type Leg struct {
	Mode       string
	DistanceKm float64
	MassTonnes float64
}

func (leg Leg) TonneKm() float64 {
	return leg.DistanceKm * leg.MassTonnes
}

// NormalizeMode lower cases mode and replaces spaces and dashes by underscores.
func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(mode)
}

// Calculator computes A4 emissions of transport legs.
type Calculator struct {
	Modes pvcarbon.FactorTable
	// Overrides are indexed by normalized mode.
	Overrides map[string]pvcarbon.Override
}

func NewCalculator() *Calculator {
	return &Calculator{
		Modes:     Modes,
		Overrides: make(map[string]pvcarbon.Override),
	}
}

// Compute keeps the breakdown in leg order. A negative distance or mass fails
// the stage; a leg whose factor cannot be resolved is reported with its
// 1-based index and does not stop the others.
func (c *Calculator) Compute(legs []Leg) pvcarbon.StageResult {
	if len(legs) == 0 {
		return pvcarbon.ZeroResult(pvcarbon.StageTransport, "No transport legs provided")
	}

	for i, leg := range legs {
		if leg.DistanceKm < 0 || leg.MassTonnes < 0 || math.IsNaN(leg.DistanceKm) || math.IsNaN(leg.MassTonnes) {
			return pvcarbon.FailedResult(pvcarbon.StageTransport,
				fmt.Errorf("%w: leg %d has a negative distance or mass", pvcarbon.ErrInvalidInput, i+1))
		}
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageTransport, Method)
	tonneKm := 0.0

	for i, leg := range legs {
		mode := NormalizeMode(leg.Mode)
		item := pvcarbon.LineItem{
			Index:        i + 1,
			Key:          mode,
			Label:        c.Modes.Label(mode),
			Quantity:     leg.TonneKm(),
			QuantityUnit: "tkm",
			Inputs: map[string]float64{
				"distance_km": leg.DistanceKm,
				"mass_tonnes": leg.MassTonnes,
			},
		}

		var override *pvcarbon.Override
		if o, found := c.Overrides[mode]; found {
			override = &o
		}

		factor, err := pvcarbon.ResolveFactor(mode, pvcarbon.KgCO2ePerTkm, c.Modes.Lookup, override)
		if err != nil {
			item.Err = fmt.Errorf("leg %d: %w", i+1, err)
			result.Add(item)
			continue
		}
		if factor.Value < 0 {
			item.Err = fmt.Errorf("%w: leg %d has a negative emission factor: %g", pvcarbon.ErrInvalidInput, i+1, factor.Value)
			result.Add(item)
			continue
		}

		item.Factor = factor
		item.Source = factor.Source
		item.Emissions = pvcarbon.Emissions(leg.TonneKm() * factor.Value)
		tonneKm += leg.TonneKm()
		result.Add(item)
	}

	result.Details["total_tonne_km"] = tonneKm
	return result
}
