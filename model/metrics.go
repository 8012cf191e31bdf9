package model

import (
	"strconv"

	pvcarbon "github.com/superdango/pv-carbon"
)

// Metrics renders the report as OpenMetrics samples.
func (report *Report) Metrics() []*pvcarbon.Metric {
	reportID := report.ID.String()
	metrics := make([]*pvcarbon.Metric, 0)

	for _, stage := range report.Stages() {
		status := "ok"
		if stage.Failed() {
			status = "failed"
		}

		// B6 is avoided, not emitted: it is exported as operational_avoided_kgCO2e.
		if stage.Stage != pvcarbon.StageOperational {
			metrics = append(metrics, &pvcarbon.Metric{
				Name: "lifecycle_emissions_kgCO2e",
				Labels: map[string]string{
					"report_id": reportID,
					"stage":     string(stage.Stage),
					"method":    stage.Method,
					"status":    status,
				},
				Value: stage.TotalKgCO2e(),
			})
		}

		if failures := len(stage.Failures()); failures > 0 {
			metrics = append(metrics, &pvcarbon.Metric{
				Name:   "lifecycle_failed_items",
				Labels: map[string]string{"report_id": reportID, "stage": string(stage.Stage)},
				Value:  float64(failures),
			})
		}
	}

	metrics = append(metrics, &pvcarbon.Metric{
		Name:   "lifecycle_emitted_kgCO2e",
		Labels: map[string]string{"report_id": reportID},
		Value:  report.EmittedKgCO2e(),
	})

	if generation := report.Generation; generation != nil {
		base := pvcarbon.Metric{
			Labels: map[string]string{
				"report_id":     reportID,
				"factor_source": generation.CarbonFactor.Source,
				"factor_region": generation.CarbonFactor.Region,
				"factor_year":   strconv.Itoa(generation.CarbonFactor.Year),
			},
		}

		annual := base.Clone()
		annual.Name = "operational_generation_kwh"
		annual.SetValue(generation.AnnualKWh.KWh())

		avoided := base.Clone()
		avoided.Name = "operational_avoided_kgCO2e"
		avoided.SetValue(generation.Avoided.KgCO2e())

		metrics = append(metrics, &annual, &avoided)

		for month, kwh := range generation.MonthlyKWh {
			monthly := base.Clone()
			monthly.Name = "operational_monthly_generation_kwh"
			monthly.AddLabel("month", strconv.Itoa(int(month))).SetValue(kwh)
			metrics = append(metrics, &monthly)
		}
	}

	return metrics
}
