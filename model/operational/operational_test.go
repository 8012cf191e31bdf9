package operational

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pvcarbon "github.com/superdango/pv-carbon"
)

var gridFactor = pvcarbon.EmissionFactor{
	Value:  0.2,
	Unit:   pvcarbon.KgCO2ePerKWh,
	Source: "test grid",
	Year:   2023,
	Region: "GBR",
}

func hourlyIndex(start time.Time, n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return index
}

func TestEstimateGlobalColumn(t *testing.T) {
	// two hours in January, one in February
	series := pvcarbon.IrradianceSeries{
		Index: []time.Time{
			time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2023, time.January, 1, 13, 0, 0, 0, time.UTC),
			time.Date(2023, time.February, 1, 12, 0, 0, 0, time.UTC),
		},
		Columns: map[string][]float64{
			pvcarbon.ColumnGlobalHorizontal: {500, 1000, 250},
			pvcarbon.ColumnPOADirect:        {1, 1, 1},
		},
	}

	generation, err := Estimate(series, SystemParams{AreaM2: 10, ModuleEfficiency: 0.2}, gridFactor)
	require.NoError(t, err)

	// 10 m² × kWh/m² × 0.2
	assert.InDelta(t, 1.0+2.0+0.5, generation.AnnualKWh.KWh(), 1e-12)
	assert.InDelta(t, 3.5*0.2, generation.Avoided.KgCO2e(), 1e-12)
	assert.InDelta(t, 3.0, generation.MonthlyKWh[time.January], 1e-12)
	assert.InDelta(t, 0.5, generation.MonthlyKWh[time.February], 1e-12)
	assert.Equal(t, 2.0, generation.CapacityKWp)
	assert.Equal(t, pvcarbon.ColumnGlobalHorizontal, generation.IrradianceColumn)

	assert.Equal(t, pvcarbon.StageOperational, generation.Result.Stage)
	assert.InDelta(t, generation.Avoided.KgCO2e(), generation.Result.TotalKgCO2e(), 1e-12)
	assert.Equal(t, generation.Result.TotalKgCO2e()/1000, generation.Result.TotalTonnesCO2e())
}

func TestEstimatePlaneOfArrayComponents(t *testing.T) {
	series := pvcarbon.IrradianceSeries{
		Index: hourlyIndex(time.Date(2023, time.June, 1, 10, 0, 0, 0, time.UTC), 2),
		Columns: map[string][]float64{
			pvcarbon.ColumnPOADirect:        {600, 300},
			pvcarbon.ColumnPOASkyDiffuse:    {200, 100},
			pvcarbon.ColumnPOAGroundDiffuse: {200, 100},
		},
	}

	generation, err := Estimate(series, SystemParams{AreaM2: 1, ModuleEfficiency: 1}, gridFactor)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, generation.AnnualKWh.KWh(), 1e-12)
	assert.Equal(t, "poa_direct+poa_sky_diffuse+poa_ground_diffuse", generation.IrradianceColumn)

	// poa_global is preferred over the components
	series.Columns[pvcarbon.ColumnPOAGlobal] = []float64{100, 100}
	generation, err = Estimate(series, SystemParams{AreaM2: 1, ModuleEfficiency: 1}, gridFactor)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, generation.AnnualKWh.KWh(), 1e-12)
	assert.Equal(t, pvcarbon.ColumnPOAGlobal, generation.IrradianceColumn)
}

func TestEstimateNonNegative(t *testing.T) {
	series := pvcarbon.IrradianceSeries{
		Index: hourlyIndex(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), 4),
		Columns: map[string][]float64{
			pvcarbon.ColumnGlobalHorizontal: {0, 0, 0, 0},
		},
	}

	generation, err := Estimate(series, SystemParams{AreaM2: 100, ModuleEfficiency: 0.2}, gridFactor)
	require.NoError(t, err)
	assert.Equal(t, 0.0, generation.AnnualKWh.KWh())
	assert.Equal(t, 0.0, generation.Avoided.KgCO2e())

	series.Columns[pvcarbon.ColumnGlobalHorizontal] = []float64{-5, -0.1, 0, 100}
	generation, err = Estimate(series, SystemParams{AreaM2: 100, ModuleEfficiency: 0.2}, gridFactor)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, generation.AnnualKWh.KWh(), 1e-12)
	for _, kwh := range generation.MonthlyKWh {
		assert.GreaterOrEqual(t, kwh, 0.0)
	}
}

func TestEstimateMissingData(t *testing.T) {
	series := pvcarbon.IrradianceSeries{
		Index: hourlyIndex(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), 1),
		Columns: map[string][]float64{
			pvcarbon.ColumnPOADirect:     {1},
			pvcarbon.ColumnPOASkyDiffuse: {1},
		},
	}

	_, err := Estimate(series, SystemParams{AreaM2: 1, ModuleEfficiency: 0.2}, gridFactor)
	assert.ErrorIs(t, err, pvcarbon.ErrMissingData)

	series.Columns = map[string][]float64{pvcarbon.ColumnGlobalHorizontal: {1, 2}}
	_, err = Estimate(series, SystemParams{AreaM2: 1, ModuleEfficiency: 0.2}, gridFactor)
	assert.ErrorIs(t, err, pvcarbon.ErrMissingData)
}

func TestEstimateInvalidInput(t *testing.T) {
	series := pvcarbon.IrradianceSeries{
		Index:   hourlyIndex(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), 1),
		Columns: map[string][]float64{pvcarbon.ColumnGlobalHorizontal: {1}},
	}

	for _, params := range []SystemParams{
		{AreaM2: 0, ModuleEfficiency: 0.2},
		{AreaM2: -1, ModuleEfficiency: 0.2},
		{AreaM2: 1, ModuleEfficiency: 0},
		{AreaM2: 1, ModuleEfficiency: 1.2},
	} {
		_, err := Estimate(series, params, gridFactor)
		assert.ErrorIs(t, err, pvcarbon.ErrInvalidInput, "%+v", params)
	}

	_, err := Estimate(series, SystemParams{AreaM2: 1, ModuleEfficiency: 0.2}, pvcarbon.EmissionFactor{Value: -0.1})
	assert.ErrorIs(t, err, pvcarbon.ErrInvalidInput)
}
