package model

import (
	"time"

	"github.com/google/uuid"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/construction"
	"github.com/superdango/pv-carbon/model/embodied"
	"github.com/superdango/pv-carbon/model/operational"
	"github.com/superdango/pv-carbon/model/replacement"
	"github.com/superdango/pv-carbon/model/storage"
	"github.com/superdango/pv-carbon/model/transport"
)

// Input gathers everything a lifecycle computation needs. External data is
// passed already fetched: a fetch failure is carried by IrradianceErr or
// CarbonFactorErr and only fails the operational stage.
type Input struct {
	Location pvcarbon.Location
	System   operational.SystemParams

	Irradiance      pvcarbon.IrradianceSeries
	IrradianceErr   error
	CarbonFactor    pvcarbon.EmissionFactor
	CarbonFactorErr error

	Materials embodied.Quantities
	Embodied  *embodied.Calculator

	Transport           []transport.Leg
	TransportCalculator *transport.Calculator

	Construction construction.Request
	Replacement  *replacement.Request
	Storage      *storage.Request
}

// Aggregate runs every stage calculator and assembles the report. The embodied
// total feeds construction and replacement, the operational generation feeds
// the replacement lifetime figures. A stage that fails is reported with its
// error and never hides the others.
func Aggregate(in Input) *Report {
	embodiedCalculator := in.Embodied
	if embodiedCalculator == nil {
		embodiedCalculator = embodied.NewCalculator()
	}
	transportCalculator := in.TransportCalculator
	if transportCalculator == nil {
		transportCalculator = transport.NewCalculator()
	}

	report := &Report{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Location:  in.Location,
	}

	report.Embodied = embodiedCalculator.Compute(in.Materials)
	embodiedKg := report.Embodied.TotalKgCO2e()

	report.Transport = transportCalculator.Compute(in.Transport)

	constructionResult, err := construction.Compute(in.Construction, embodiedKg)
	if err != nil {
		constructionResult = pvcarbon.FailedResult(pvcarbon.StageConstruction, err)
	}
	report.Construction = constructionResult

	generation, err := estimate(in)
	if err != nil {
		report.Operational = pvcarbon.FailedResult(pvcarbon.StageOperational, err)
	} else {
		report.Operational = generation.Result
		report.Generation = &generation
	}

	replacementResult, err := replacement.Compute(in.Replacement, in.System.CapacityKWp(), embodiedKg, report.Generation)
	if err != nil {
		replacementResult = pvcarbon.FailedResult(pvcarbon.StageReplacement, err)
	}
	report.Replacement = replacementResult

	report.Storage = storage.Compute(in.Storage)

	report.Assumptions = Assumptions{
		AreaM2:           in.System.AreaM2,
		ModuleEfficiency: in.System.ModuleEfficiency,
		CapacityKWp:      in.System.CapacityKWp(),
		CarbonFactor:     in.CarbonFactor,
		MaterialDatabase: embodiedCalculator.Database.Name,
	}
	if report.Generation != nil {
		report.Assumptions.IrradianceColumn = report.Generation.IrradianceColumn
	}

	return report
}

func estimate(in Input) (operational.Generation, error) {
	if in.CarbonFactorErr != nil {
		return operational.Generation{}, in.CarbonFactorErr
	}
	if in.IrradianceErr != nil {
		return operational.Generation{}, in.IrradianceErr
	}
	return operational.Estimate(in.Irradiance, in.System, in.CarbonFactor)
}
