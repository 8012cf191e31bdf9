package model

import (
	"io"

	pvcarbon "github.com/superdango/pv-carbon"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var stageNames = map[pvcarbon.Stage]string{
	pvcarbon.StageEmbodied:     "Materials",
	pvcarbon.StageTransport:    "Transport",
	pvcarbon.StageConstruction: "Construction",
	pvcarbon.StageReplacement:  "Replacement",
	pvcarbon.StageStorage:      "Battery storage",
	pvcarbon.StageOperational:  "Avoided (year 1)",
}

// WriteSummary writes a human readable table of the report.
func WriteSummary(w io.Writer, report *Report) error {
	if _, err := printer.Fprintf(w, "Report %s (%.4f, %.4f)\n\n", report.ID, report.Location.Latitude, report.Location.Longitude); err != nil {
		return err
	}

	for _, stage := range report.Stages() {
		var err error
		switch {
		case stage.Failed():
			_, err = printer.Fprintf(w, "%-6s %-18s %16s  %s\n", stage.Stage, stageNames[stage.Stage], "failed", stage.Err)
		case stage.Note != "" && len(stage.Breakdown) == 0:
			_, err = printer.Fprintf(w, "%-6s %-18s %16.2f  kgCO2e (%s)\n", stage.Stage, stageNames[stage.Stage], stage.TotalKgCO2e(), stage.Note)
		default:
			_, err = printer.Fprintf(w, "%-6s %-18s %16.2f  kgCO2e\n", stage.Stage, stageNames[stage.Stage], stage.TotalKgCO2e())
		}
		if err != nil {
			return err
		}

		for _, item := range stage.Failures() {
			if _, err := printer.Fprintf(w, "         ! %s: %s\n", item.Key, item.Err); err != nil {
				return err
			}
		}
	}

	if _, err := printer.Fprintf(w, "\n%-25s %16.2f  kgCO2e\n", "Total emitted", report.EmittedKgCO2e()); err != nil {
		return err
	}

	if generation := report.Generation; generation != nil {
		if _, err := printer.Fprintf(w, "%-25s %16.1f  kWh (%s)\n", "Annual generation", generation.AnnualKWh.KWh(), generation.IrradianceColumn); err != nil {
			return err
		}
	}

	if years, ok := report.PaybackYears(); ok {
		if _, err := printer.Fprintf(w, "%-25s %16.1f  years\n", "Carbon payback", years); err != nil {
			return err
		}
	}

	return nil
}
