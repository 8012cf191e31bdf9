package demo

import (
	"context"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/carbon"
)

// GridIntensity implements pvcarbon.GridIntensitySource from a small embedded
// table of approximate annual values.
type GridIntensity struct {
	intensity *carbon.IntensityMap
}

func NewGridIntensity() *GridIntensity {
	return &GridIntensity{
		intensity: carbon.NewIntensityMap("Demo dataset (approximate annual averages)", "Demonstration values, not for reporting", gridRecords),
	}
}

func (grid *GridIntensity) GridFactor(ctx context.Context, country string, year int) (pvcarbon.EmissionFactor, error) {
	return grid.intensity.LookupFunc(year)(country)
}

var gridRecords = []carbon.Record{
	{Country: "United Kingdom", ISOCode: "GBR", Year: 2019, KgCO2ePerKWh: 0.268},
	{Country: "United Kingdom", ISOCode: "GBR", Year: 2020, KgCO2ePerKWh: 0.230},
	{Country: "United Kingdom", ISOCode: "GBR", Year: 2021, KgCO2ePerKWh: 0.263},
	{Country: "United Kingdom", ISOCode: "GBR", Year: 2022, KgCO2ePerKWh: 0.258},
	{Country: "United Kingdom", ISOCode: "GBR", Year: 2023, KgCO2ePerKWh: 0.217},
	{Country: "France", ISOCode: "FRA", Year: 2022, KgCO2ePerKWh: 0.085},
	{Country: "France", ISOCode: "FRA", Year: 2023, KgCO2ePerKWh: 0.056},
	{Country: "Germany", ISOCode: "DEU", Year: 2022, KgCO2ePerKWh: 0.434},
	{Country: "Germany", ISOCode: "DEU", Year: 2023, KgCO2ePerKWh: 0.381},
	{Country: "Spain", ISOCode: "ESP", Year: 2022, KgCO2ePerKWh: 0.191},
	{Country: "Spain", ISOCode: "ESP", Year: 2023, KgCO2ePerKWh: 0.174},
	{Country: "Ireland", ISOCode: "IRL", Year: 2023, KgCO2ePerKWh: 0.282},
}
