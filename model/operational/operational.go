package operational

import (
	"fmt"
	"math"
	"time"

	pvcarbon "github.com/superdango/pv-carbon"
	"gonum.org/v1/gonum/floats"
)

const Method = "irradiance_yield"

// SystemParams describes the PV array.
type SystemParams struct {
	AreaM2           float64
	ModuleEfficiency float64
}

// CapacityKWp is the equivalent nameplate capacity under 1 kW/m² irradiance.
func (params SystemParams) CapacityKWp() float64 {
	return params.AreaM2 * params.ModuleEfficiency
}

func (params SystemParams) validate() error {
	if params.AreaM2 <= 0 || math.IsNaN(params.AreaM2) {
		return fmt.Errorf("%w: area must be strictly positive: %g m²", pvcarbon.ErrInvalidInput, params.AreaM2)
	}
	if params.ModuleEfficiency <= 0 || params.ModuleEfficiency > 1 || math.IsNaN(params.ModuleEfficiency) {
		return fmt.Errorf("%w: module efficiency must be in (0, 1]: %g", pvcarbon.ErrInvalidInput, params.ModuleEfficiency)
	}
	return nil
}

// Generation is the first year output of the array and the emissions it avoids.
type Generation struct {
	Result           pvcarbon.StageResult
	AnnualKWh        pvcarbon.Energy
	Avoided          pvcarbon.Emissions
	MonthlyKWh       map[time.Month]float64
	CapacityKWp      float64
	IrradianceColumn string
	CarbonFactor     pvcarbon.EmissionFactor
}

// SelectIrradiance returns the irradiance of every time step in Wh/m², and the
// name of the column it comes from. Aggregate columns are preferred over the
// sum of the three plane of array components.
func SelectIrradiance(series pvcarbon.IrradianceSeries) ([]float64, string, error) {
	for _, name := range []string{pvcarbon.ColumnGlobalHorizontal, pvcarbon.ColumnPOAGlobal} {
		if column, found := series.Column(name); found {
			if len(column) != series.Len() {
				return nil, "", fmt.Errorf("%w: column %s has %d values for %d timestamps", pvcarbon.ErrMissingData, name, len(column), series.Len())
			}
			return column, name, nil
		}
	}

	direct, hasDirect := series.Column(pvcarbon.ColumnPOADirect)
	sky, hasSky := series.Column(pvcarbon.ColumnPOASkyDiffuse)
	ground, hasGround := series.Column(pvcarbon.ColumnPOAGroundDiffuse)
	if !hasDirect || !hasSky || !hasGround {
		return nil, "", fmt.Errorf("%w: expected %s, %s or the three plane of array components",
			pvcarbon.ErrMissingData, pvcarbon.ColumnGlobalHorizontal, pvcarbon.ColumnPOAGlobal)
	}
	if len(direct) != series.Len() || len(sky) != series.Len() || len(ground) != series.Len() {
		return nil, "", fmt.Errorf("%w: plane of array components do not match the series length", pvcarbon.ErrMissingData)
	}

	total := make([]float64, series.Len())
	floats.AddTo(total, direct, sky)
	floats.Add(total, ground)

	return total, pvcarbon.ColumnPOADirect + "+" + pvcarbon.ColumnPOASkyDiffuse + "+" + pvcarbon.ColumnPOAGroundDiffuse, nil
}

// Estimate computes the generation of the array over series and the emissions
// avoided at the given grid factor. Negative irradiance never produces negative
// generation.
func Estimate(series pvcarbon.IrradianceSeries, params SystemParams, factor pvcarbon.EmissionFactor) (Generation, error) {
	if err := params.validate(); err != nil {
		return Generation{}, err
	}
	if factor.Value < 0 {
		return Generation{}, fmt.Errorf("%w: carbon factor must be positive: %g", pvcarbon.ErrInvalidInput, factor.Value)
	}

	irradiance, column, err := SelectIrradiance(series)
	if err != nil {
		return Generation{}, err
	}

	hourly := make([]float64, len(irradiance))
	monthly := make(map[time.Month][]float64, 12)
	for i, whPerM2 := range irradiance {
		kwh := max(0, params.AreaM2*(whPerM2/1000)*params.ModuleEfficiency)
		hourly[i] = kwh

		month := series.Index[i].Month()
		monthly[month] = append(monthly[month], kwh)
	}

	annual := pvcarbon.Energy(floats.SumCompensated(hourly))
	avoided := pvcarbon.Emissions(annual.KWh() * factor.Value)

	generation := Generation{
		AnnualKWh:        annual,
		Avoided:          avoided,
		MonthlyKWh:       make(map[time.Month]float64, len(monthly)),
		CapacityKWp:      params.CapacityKWp(),
		IrradianceColumn: column,
		CarbonFactor:     factor,
	}
	for month, values := range monthly {
		generation.MonthlyKWh[month] = floats.SumCompensated(values)
	}

	result := pvcarbon.NewStageResult(pvcarbon.StageOperational, Method)
	result.Add(pvcarbon.LineItem{
		Key:          "avoided_grid_electricity",
		Label:        "Grid electricity displaced by PV generation",
		Quantity:     annual.KWh(),
		QuantityUnit: "kWh",
		Factor:       factor,
		Emissions:    avoided,
		Source:       factor.Source,
	})
	result.Details["annual_generation_kwh"] = annual.KWh()
	result.Details["equivalent_capacity_kwp"] = params.CapacityKWp()
	result.Details["timesteps"] = float64(len(irradiance))
	if params.CapacityKWp() > 0 {
		result.Details["specific_yield_kwh_per_kwp"] = annual.KWh() / params.CapacityKWp()
	}
	result.Assumptions["irradiance_column"] = column
	result.Note = "Avoided emissions of the first operating year"
	generation.Result = result

	return generation, nil
}
