package model

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/construction"
	"github.com/superdango/pv-carbon/model/embodied"
	"github.com/superdango/pv-carbon/model/operational"
	"github.com/superdango/pv-carbon/model/replacement"
	"github.com/superdango/pv-carbon/model/storage"
	"github.com/superdango/pv-carbon/model/transport"
)

var testFactor = pvcarbon.EmissionFactor{
	Value:  0.2,
	Unit:   pvcarbon.KgCO2ePerKWh,
	Source: "test grid",
	Year:   2023,
	Region: "GBR",
}

// flatYear returns a series where every hour of 2023 receives whPerM2.
func flatYear(whPerM2 float64) pvcarbon.IrradianceSeries {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	hours := 365 * 24
	series := pvcarbon.IrradianceSeries{
		Index:   make([]time.Time, hours),
		Columns: map[string][]float64{pvcarbon.ColumnGlobalHorizontal: make([]float64, hours)},
	}
	for i := range hours {
		series.Index[i] = start.Add(time.Duration(i) * time.Hour)
		series.Columns[pvcarbon.ColumnGlobalHorizontal][i] = whPerM2
	}
	return series
}

func testInput() Input {
	defaults := replacement.Defaults()
	return Input{
		Location:     pvcarbon.Location{Latitude: 55.9533, Longitude: -3.1883},
		System:       operational.SystemParams{AreaM2: 10, ModuleEfficiency: 0.2},
		Irradiance:   flatYear(100),
		CarbonFactor: testFactor,
		Materials: embodied.Quantities{
			embodied.Aluminium: 100,
			embodied.Steel:     1000,
			embodied.Glass:     50,
		},
		Transport: []transport.Leg{
			{Mode: "ship_container", DistanceKm: 8000, MassTonnes: 50},
		},
		Replacement: &defaults,
	}
}

func TestAggregate(t *testing.T) {
	report := Aggregate(testInput())

	embodiedKg := 100*13.1 + 1000*1.64
	assert.InDelta(t, embodiedKg, report.Embodied.TotalKgCO2e(), 1e-9)
	assert.Len(t, report.Embodied.Failures(), 1)

	assert.InDelta(t, 2524.0, report.Transport.TotalKgCO2e(), 1e-9)

	// construction defaults to 5% of the embodied total
	assert.Equal(t, construction.MethodSimple, report.Construction.Method)
	assert.InDelta(t, embodiedKg*0.05, report.Construction.TotalKgCO2e(), 1e-9)

	// 10 m² × 0.1 kWh/m² × 0.2 per hour
	require.NotNil(t, report.Generation)
	assert.InDelta(t, 0.2*8760, report.Generation.AnnualKWh.KWh(), 1e-6)
	assert.InDelta(t, 0.2*8760*0.2, report.Operational.TotalKgCO2e(), 1e-6)

	// replacement uses the operational generation and the installed capacity
	assert.InDelta(t, replacement.LifetimeGeneration(0.2*8760, 0.5, 25), report.Replacement.Details["lifetime_generation_kwh"], 1e-6)
	assert.InDelta(t, 2*30*2.0, report.Replacement.TotalKgCO2e(), 1e-9)

	assert.Equal(t, "No BESS included", report.Storage.Note)

	assert.Equal(t, 2.0, report.Assumptions.CapacityKWp)
	assert.Equal(t, testFactor, report.Assumptions.CarbonFactor)
	assert.Equal(t, pvcarbon.ColumnGlobalHorizontal, report.Assumptions.IrradianceColumn)
	assert.Equal(t, embodied.ICESimplified, report.Assumptions.MaterialDatabase)

	emitted := embodiedKg + 2524.0 + embodiedKg*0.05 + 120
	assert.InDelta(t, emitted, report.EmittedKgCO2e(), 1e-6)

	years, ok := report.PaybackYears()
	assert.True(t, ok)
	assert.InDelta(t, emitted/(0.2*8760*0.2), years, 1e-6)
}

func TestAggregateOperationalFailureKeepsOtherStages(t *testing.T) {
	in := testInput()
	in.CarbonFactorErr = errors.Join(pvcarbon.ErrNotFound, errors.New("no electricity emission factor found for ATL"))
	report := Aggregate(in)

	assert.True(t, report.Operational.Failed())
	assert.ErrorIs(t, report.Operational.Err, pvcarbon.ErrNotFound)
	assert.Nil(t, report.Generation)

	assert.False(t, report.Embodied.Failed())
	assert.False(t, report.Transport.Failed())
	assert.False(t, report.Construction.Failed())
	assert.False(t, report.Replacement.Failed())
	assert.NotContains(t, report.Replacement.Details, "lifetime_generation_kwh")
	assert.InDelta(t, 120.0, report.Replacement.TotalKgCO2e(), 1e-9)

	_, ok := report.PaybackYears()
	assert.False(t, ok)

	in = testInput()
	in.IrradianceErr = pvcarbon.ErrUpstreamUnavailable
	report = Aggregate(in)
	assert.ErrorIs(t, report.Operational.Err, pvcarbon.ErrUpstreamUnavailable)

	in = testInput()
	in.Irradiance.Columns = map[string][]float64{}
	report = Aggregate(in)
	assert.ErrorIs(t, report.Operational.Err, pvcarbon.ErrMissingData)
}

func TestAggregateStageFailures(t *testing.T) {
	in := testInput()
	negative := -5.0
	in.Construction = construction.Simple{Percentage: &negative}
	in.Replacement = &replacement.Request{SystemLifetimeYears: 0}
	in.Storage = &storage.Request{Included: true, CapacityKWh: 10}

	report := Aggregate(in)
	assert.ErrorIs(t, report.Construction.Err, pvcarbon.ErrInvalidInput)
	assert.ErrorIs(t, report.Replacement.Err, pvcarbon.ErrInvalidInput)
	assert.Equal(t, 750.0, report.Storage.TotalKgCO2e())
	assert.False(t, report.Operational.Failed())
}

func TestAggregateNegativeAreaFailsCapacityStages(t *testing.T) {
	in := testInput()
	in.System.AreaM2 = -10
	report := Aggregate(in)

	assert.ErrorIs(t, report.Operational.Err, pvcarbon.ErrInvalidInput)
	assert.ErrorIs(t, report.Replacement.Err, pvcarbon.ErrInvalidInput)
	assert.Equal(t, 0.0, report.Replacement.TotalKgCO2e())

	expected := report.Embodied.TotalKgCO2e() + report.Transport.TotalKgCO2e() + report.Construction.TotalKgCO2e()
	assert.InDelta(t, expected, report.EmittedKgCO2e(), 1e-9)
	assert.Greater(t, report.EmittedKgCO2e(), 0.0)
}

func TestAggregateEmptyInput(t *testing.T) {
	report := Aggregate(Input{
		System:       operational.SystemParams{AreaM2: 1, ModuleEfficiency: 0.2},
		Irradiance:   flatYear(0),
		CarbonFactor: testFactor,
	})

	assert.Equal(t, "No materials provided", report.Embodied.Note)
	assert.Equal(t, "No transport legs provided", report.Transport.Note)
	assert.Equal(t, "No replacement inputs provided", report.Replacement.Note)
	assert.Equal(t, 0.0, report.Construction.TotalKgCO2e())
	assert.Equal(t, 0.0, report.Generation.AnnualKWh.KWh())
	assert.Equal(t, 0.0, report.EmittedKgCO2e())
}

func TestReportJSON(t *testing.T) {
	report := Aggregate(testInput())

	b, err := json.Marshal(report)
	require.NoError(t, err)

	decoded := make(map[string]any)
	require.NoError(t, json.Unmarshal(b, &decoded))

	for _, key := range []string{"id", "location", "operational", "embodied", "transport", "construction", "replacement", "storage", "summary", "assumptions"} {
		assert.Contains(t, decoded, key)
	}

	operationalJSON := decoded["operational"].(map[string]any)
	assert.Equal(t, 350.4, operationalJSON["annual_avoided_kgCO2e"])
	assert.Equal(t, 0.35, operationalJSON["annual_avoided_tonnesCO2e"])
	assert.Len(t, operationalJSON["monthly_kwh"], 12)

	embodiedJSON := decoded["embodied"].(map[string]any)
	assert.Equal(t, 2950.0, embodiedJSON["total_kgCO2e"])
	assert.Equal(t, 2.95, embodiedJSON["total_tonnesCO2e"])

	breakdown := embodiedJSON["breakdown"].([]any)
	require.Len(t, breakdown, 3)
	glass := breakdown[2].(map[string]any)
	assert.Equal(t, "glass", glass["key"])
	assert.Contains(t, glass["error"], "not yet been populated")

	assumptions := decoded["assumptions"].(map[string]any)
	assert.Equal(t, "test grid", assumptions["carbon_factor_source"])
	assert.Equal(t, 2023.0, assumptions["carbon_factor_year"])
	assert.Equal(t, "GBR", assumptions["carbon_factor_region"])
}

func TestReportJSONFailedOperational(t *testing.T) {
	in := testInput()
	in.IrradianceErr = pvcarbon.ErrUpstreamUnavailable
	b, err := json.Marshal(Aggregate(in))
	require.NoError(t, err)

	decoded := make(map[string]any)
	require.NoError(t, json.Unmarshal(b, &decoded))
	operationalJSON := decoded["operational"].(map[string]any)
	assert.Contains(t, operationalJSON["error"], "stage: B6")
	assert.Contains(t, operationalJSON["error"], "upstream unavailable")
}

func TestReportMetrics(t *testing.T) {
	report := Aggregate(testInput())
	buf := new(bytes.Buffer)
	require.NoError(t, pvcarbon.WriteOpenMetrics(buf, report.Metrics()))

	output := buf.String()
	assert.Contains(t, output, `lifecycle_emissions_kgCO2e{method="tonne_km",report_id="`+report.ID.String()+`",stage="A4",status="ok"} 2524.000000`)
	assert.Contains(t, output, `lifecycle_failed_items{report_id="`+report.ID.String()+`",stage="A1-A3"} 1.000000`)
	assert.Contains(t, output, "operational_generation_kwh{")
	assert.Contains(t, output, `month="6"`)
	assert.Contains(t, output, "operational_avoided_kgCO2e{")
	assert.NotContains(t, output, `stage="B6",status=`)
}

func TestWriteSummary(t *testing.T) {
	report := Aggregate(testInput())
	buf := new(bytes.Buffer)
	require.NoError(t, WriteSummary(buf, report))

	output := buf.String()
	assert.Contains(t, output, "2,950.00")
	assert.Contains(t, output, "2,524.00")
	assert.Contains(t, output, "! glass")
	assert.Contains(t, output, "Carbon payback")
}
