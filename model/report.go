package model

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/operational"
)

// Assumptions shared by every stage of a report.
type Assumptions struct {
	AreaM2           float64
	ModuleEfficiency float64
	CapacityKWp      float64
	CarbonFactor     pvcarbon.EmissionFactor
	IrradianceColumn string
	MaterialDatabase string
}

// Report is the lifecycle footprint of one installation. Values are kept
// unrounded, rounding only happens when the report is rendered.
type Report struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Location  pvcarbon.Location

	Operational  pvcarbon.StageResult
	Generation   *operational.Generation
	Embodied     pvcarbon.StageResult
	Transport    pvcarbon.StageResult
	Construction pvcarbon.StageResult
	Replacement  pvcarbon.StageResult
	Storage      pvcarbon.StageResult

	Assumptions Assumptions
}

// Stages returns the stage results in lifecycle order.
func (report *Report) Stages() []pvcarbon.StageResult {
	return []pvcarbon.StageResult{
		report.Embodied,
		report.Transport,
		report.Construction,
		report.Replacement,
		report.Storage,
		report.Operational,
	}
}

// EmittedKgCO2e sums the emissions of every stage except the operational one,
// which holds avoided emissions.
func (report *Report) EmittedKgCO2e() float64 {
	total := 0.0
	for _, stage := range report.Stages() {
		if stage.Stage == pvcarbon.StageOperational {
			continue
		}
		total += stage.TotalKgCO2e()
	}
	return total
}

// PaybackYears is the number of operating years needed for avoided emissions
// to compensate emitted ones. ok is false when the operational stage failed or
// avoids nothing.
func (report *Report) PaybackYears() (years float64, ok bool) {
	if report.Generation == nil || report.Generation.Avoided <= 0 {
		return 0, false
	}
	return report.EmittedKgCO2e() / report.Generation.Avoided.KgCO2e(), true
}

type locationJSON struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Postcode string  `json:"postcode,omitempty"`
}

type factorJSON struct {
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Source     string  `json:"source"`
	Year       int     `json:"year,omitempty"`
	Region     string  `json:"region,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	Overridden bool    `json:"overridden,omitempty"`
}

func newFactorJSON(factor pvcarbon.EmissionFactor) *factorJSON {
	if factor.Unit == "" {
		return nil
	}
	return &factorJSON{
		Value:      factor.Value,
		Unit:       string(factor.Unit),
		Source:     factor.Source,
		Year:       factor.Year,
		Region:     factor.Region,
		Notes:      factor.Notes,
		Overridden: factor.Overridden,
	}
}

type itemJSON struct {
	Index           int                `json:"index,omitempty"`
	Key             string             `json:"key"`
	Label           string             `json:"label,omitempty"`
	Quantity        float64            `json:"quantity"`
	QuantityUnit    string             `json:"quantity_unit,omitempty"`
	Factor          *factorJSON        `json:"factor,omitempty"`
	EmissionsKgCO2e float64            `json:"emissions_kgCO2e"`
	EmissionsTonnes float64            `json:"emissions_tonnesCO2e"`
	Description     string             `json:"description,omitempty"`
	Source          string             `json:"source,omitempty"`
	Inputs          map[string]float64 `json:"inputs,omitempty"`
	Error           string             `json:"error,omitempty"`
}

type stageJSON struct {
	Stage           string             `json:"stage"`
	Method          string             `json:"method,omitempty"`
	TotalKgCO2e     float64            `json:"total_kgCO2e"`
	TotalTonnesCO2e float64            `json:"total_tonnesCO2e"`
	Breakdown       []itemJSON         `json:"breakdown"`
	Details         map[string]float64 `json:"details,omitempty"`
	Assumptions     map[string]any     `json:"assumptions,omitempty"`
	Note            string             `json:"note,omitempty"`
	Error           string             `json:"error,omitempty"`
}

func newStageJSON(result pvcarbon.StageResult) stageJSON {
	stage := stageJSON{
		Stage:           string(result.Stage),
		Method:          result.Method,
		TotalKgCO2e:     pvcarbon.Round(result.TotalKgCO2e(), 2),
		TotalTonnesCO2e: pvcarbon.Round(result.TotalTonnesCO2e(), 3),
		Breakdown:       make([]itemJSON, 0, len(result.Breakdown)),
		Assumptions:     result.Assumptions,
		Note:            result.Note,
	}
	if result.Err != nil {
		stage.Error = result.Err.Error()
	}
	if len(result.Details) > 0 {
		stage.Details = make(map[string]float64, len(result.Details))
		for k, v := range result.Details {
			stage.Details[k] = roundDetail(k, v)
		}
	}

	for _, item := range result.Breakdown {
		i := itemJSON{
			Index:        item.Index,
			Key:          item.Key,
			Label:        item.Label,
			Quantity:     pvcarbon.Round(item.Quantity, 3),
			QuantityUnit: item.QuantityUnit,
			Description:  item.Description,
			Source:       item.Source,
			Inputs:       item.Inputs,
		}
		if item.OK() {
			i.Factor = newFactorJSON(item.Factor)
			i.EmissionsKgCO2e = pvcarbon.Round(item.Emissions.KgCO2e(), 2)
			i.EmissionsTonnes = pvcarbon.Round(item.Emissions.TCO2e(), 3)
		} else {
			i.Error = item.Err.Error()
		}
		stage.Breakdown = append(stage.Breakdown, i)
	}

	return stage
}

// roundDetail rounds a figure according to the unit suffix of its key.
func roundDetail(key string, v float64) float64 {
	switch {
	case strings.HasSuffix(key, "_kwh"):
		return pvcarbon.Round(v, 1)
	case strings.HasSuffix(key, "_kgCO2e"):
		return pvcarbon.Round(v, 2)
	case strings.HasSuffix(key, "_tonnesCO2e"), strings.HasSuffix(key, "_kwp"):
		return pvcarbon.Round(v, 3)
	default:
		return v
	}
}

type operationalJSON struct {
	AnnualGenerationKWh    float64         `json:"annual_generation_kwh"`
	AnnualAvoidedKgCO2e    float64         `json:"annual_avoided_kgCO2e"`
	AnnualAvoidedTonnes    float64         `json:"annual_avoided_tonnesCO2e"`
	MonthlyKWh             map[int]float64 `json:"monthly_kwh"`
	EquivalentCapacityKWp  float64         `json:"equivalent_capacity_kwp"`
	SpecificYieldKWhPerKWp float64         `json:"specific_yield_kwh_per_kwp,omitempty"`
	Error                  string          `json:"error,omitempty"`
}

type assumptionsJSON struct {
	AreaM2                   float64 `json:"area_m2"`
	ModuleEfficiency         float64 `json:"module_efficiency"`
	EquivalentCapacityKWp    float64 `json:"equivalent_capacity_kwp"`
	CarbonFactorKgCO2ePerKWh float64 `json:"carbon_factor_kgCO2e_per_kwh"`
	CarbonFactorSource       string  `json:"carbon_factor_source"`
	CarbonFactorYear         int     `json:"carbon_factor_year"`
	CarbonFactorRegion       string  `json:"carbon_factor_region"`
	CarbonFactorNotes        string  `json:"carbon_factor_notes,omitempty"`
	IrradianceColumnUsed     string  `json:"irradiance_column_used,omitempty"`
	MaterialDatabase         string  `json:"material_database,omitempty"`
}

type summaryJSON struct {
	EmittedKgCO2e     float64  `json:"emitted_kgCO2e"`
	EmittedTonnesCO2e float64  `json:"emitted_tonnesCO2e"`
	PaybackYears      *float64 `json:"carbon_payback_years,omitempty"`
}

type reportJSON struct {
	ID           uuid.UUID       `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Location     locationJSON    `json:"location"`
	Operational  operationalJSON `json:"operational"`
	Embodied     stageJSON       `json:"embodied"`
	Transport    stageJSON       `json:"transport"`
	Construction stageJSON       `json:"construction"`
	Replacement  stageJSON       `json:"replacement"`
	Storage      stageJSON       `json:"storage"`
	Summary      summaryJSON     `json:"summary"`
	Assumptions  assumptionsJSON `json:"assumptions"`
}

func (report *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		ID:        report.ID,
		CreatedAt: report.CreatedAt,
		Location: locationJSON{
			Lat:      report.Location.Latitude,
			Lon:      report.Location.Longitude,
			Postcode: report.Location.Postcode,
		},
		Operational: operationalJSON{
			MonthlyKWh:            make(map[int]float64),
			EquivalentCapacityKWp: pvcarbon.Round(report.Assumptions.CapacityKWp, 3),
		},
		Embodied:     newStageJSON(report.Embodied),
		Transport:    newStageJSON(report.Transport),
		Construction: newStageJSON(report.Construction),
		Replacement:  newStageJSON(report.Replacement),
		Storage:      newStageJSON(report.Storage),
		Summary: summaryJSON{
			EmittedKgCO2e:     pvcarbon.Round(report.EmittedKgCO2e(), 2),
			EmittedTonnesCO2e: pvcarbon.Round(report.EmittedKgCO2e()/1000, 3),
		},
		Assumptions: assumptionsJSON{
			AreaM2:                   report.Assumptions.AreaM2,
			ModuleEfficiency:         report.Assumptions.ModuleEfficiency,
			EquivalentCapacityKWp:    pvcarbon.Round(report.Assumptions.CapacityKWp, 3),
			CarbonFactorKgCO2ePerKWh: report.Assumptions.CarbonFactor.Value,
			CarbonFactorSource:       report.Assumptions.CarbonFactor.Source,
			CarbonFactorYear:         report.Assumptions.CarbonFactor.Year,
			CarbonFactorRegion:       report.Assumptions.CarbonFactor.Region,
			CarbonFactorNotes:        report.Assumptions.CarbonFactor.Notes,
			IrradianceColumnUsed:     report.Assumptions.IrradianceColumn,
			MaterialDatabase:         report.Assumptions.MaterialDatabase,
		},
	}

	if report.Operational.Err != nil {
		out.Operational.Error = report.Operational.Err.Error()
	}
	if generation := report.Generation; generation != nil {
		out.Operational.AnnualGenerationKWh = pvcarbon.Round(generation.AnnualKWh.KWh(), 1)
		out.Operational.AnnualAvoidedKgCO2e = pvcarbon.Round(generation.Avoided.KgCO2e(), 1)
		out.Operational.AnnualAvoidedTonnes = pvcarbon.Round(generation.Avoided.TCO2e(), 3)
		out.Operational.SpecificYieldKWhPerKWp = pvcarbon.Round(report.Operational.Details["specific_yield_kwh_per_kwp"], 1)
		for month, kwh := range generation.MonthlyKWh {
			out.Operational.MonthlyKWh[int(month)] = pvcarbon.Round(kwh, 1)
		}
	}
	if years, ok := report.PaybackYears(); ok {
		years = pvcarbon.Round(years, 2)
		out.Summary.PaybackYears = &years
	}

	return json.Marshal(out)
}
