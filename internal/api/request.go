package api

import (
	"fmt"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/construction"
	"github.com/superdango/pv-carbon/model/embodied"
	"github.com/superdango/pv-carbon/model/replacement"
	"github.com/superdango/pv-carbon/model/storage"
	"github.com/superdango/pv-carbon/model/transport"
)

// Request is the JSON body of a lifecycle calculation.
type Request struct {
	Postcode  string   `json:"postcode,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Year             int     `json:"year"`
	AreaM2           float64 `json:"area_m2"`
	ModuleEfficiency float64 `json:"module_efficiency"`
	SurfaceTilt      float64 `json:"surface_tilt"`
	SurfaceAzimuth   float64 `json:"surface_azimuth"`

	Materials         *Materials                `json:"materials,omitempty"`
	MaterialDatabase  string                    `json:"material_database,omitempty"`
	MaterialOverrides map[string]FactorOverride `json:"material_overrides,omitempty"`

	Transport          []TransportLeg            `json:"transport,omitempty"`
	TransportOverrides map[string]FactorOverride `json:"transport_overrides,omitempty"`

	Construction *Construction `json:"construction,omitempty"`
	Replacement  *Replacement  `json:"replacement,omitempty"`
	Storage      *Storage      `json:"storage,omitempty"`

	CarbonFactorOverride *float64 `json:"carbon_factor_override,omitempty"`
	CountryCode          string   `json:"country_code,omitempty"`
}

// Materials are masses in kilograms.
type Materials struct {
	AluminiumKg float64 `json:"aluminium_kg"`
	SteelKg     float64 `json:"steel_kg"`
	ConcreteKg  float64 `json:"concrete_kg"`
	GlassKg     float64 `json:"glass_kg"`
	SiliconPVKg float64 `json:"silicon_pv_kg"`
	CopperKg    float64 `json:"copper_kg"`
}

func (m *Materials) quantities() embodied.Quantities {
	if m == nil {
		return nil
	}
	q := make(embodied.Quantities)
	for material, kg := range map[embodied.Material]float64{
		embodied.Aluminium: m.AluminiumKg,
		embodied.Steel:     m.SteelKg,
		embodied.Concrete:  m.ConcreteKg,
		embodied.Glass:     m.GlassKg,
		embodied.SiliconPV: m.SiliconPVKg,
		embodied.Copper:    m.CopperKg,
	} {
		if kg != 0 {
			q[material] = kg
		}
	}
	return q
}

type FactorOverride struct {
	Value  float64 `json:"value"`
	Source string  `json:"source,omitempty"`
	Year   int     `json:"year,omitempty"`
	Region string  `json:"region,omitempty"`
}

func (o FactorOverride) override() pvcarbon.Override {
	return pvcarbon.Override{Value: o.Value, Source: o.Source, Year: o.Year, Region: o.Region}
}

type TransportLeg struct {
	Mode       string  `json:"mode"`
	DistanceKm float64 `json:"distance_km"`
	MassTonnes float64 `json:"mass_tonnes"`
}

type EquipmentUsage struct {
	EquipmentType string  `json:"equipment_type"`
	Hours         float64 `json:"hours"`
}

type Construction struct {
	// Method is simple or detailed, simple when empty.
	Method     string   `json:"method,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`

	EquipmentUsage     []EquipmentUsage `json:"equipment_usage,omitempty"`
	WorkerTransportKm  *float64         `json:"worker_transport_km,omitempty"`
	NumWorkers         *int             `json:"num_workers,omitempty"`
	NumDays            *int             `json:"num_days,omitempty"`
	GridElectricityKWh *float64         `json:"grid_electricity_kwh,omitempty"`
	GridCarbonFactor   *float64         `json:"grid_carbon_factor,omitempty"`
}

func (c *Construction) request() (construction.Request, error) {
	if c == nil {
		return nil, nil
	}

	switch strings.ToLower(c.Method) {
	case "", "simple":
		return construction.Simple{Percentage: c.Percentage}, nil
	case "detailed":
		usage := make([]construction.EquipmentUsage, len(c.EquipmentUsage))
		for i, u := range c.EquipmentUsage {
			usage[i] = construction.EquipmentUsage{EquipmentType: u.EquipmentType, Hours: u.Hours}
		}
		return construction.Detailed{
			EquipmentUsage:     usage,
			WorkerTransportKm:  c.WorkerTransportKm,
			NumWorkers:         c.NumWorkers,
			NumDays:            c.NumDays,
			GridElectricityKWh: c.GridElectricityKWh,
			GridCarbonFactor:   c.GridCarbonFactor,
		}, nil
	default:
		return nil, fmt.Errorf("%w: invalid construction method %q (expected simple or detailed)", pvcarbon.ErrInvalidInput, c.Method)
	}
}

// Replacement fields left unset take the values of replacement.Defaults.
type Replacement struct {
	SystemLifetimeYears                    *int     `json:"system_lifetime_years,omitempty"`
	ModuleDegradationRatePctPerYear        *float64 `json:"module_degradation_rate_pct_per_year,omitempty"`
	InverterLifetimeYears                  *int     `json:"inverter_lifetime_years,omitempty"`
	InverterEmbodiedKgCO2ePerKWp           *float64 `json:"inverter_embodied_kgCO2e_per_kwp,omitempty"`
	AdditionalReplacementPercentOfEmbodied *float64 `json:"additional_replacement_percent_of_embodied,omitempty"`
}

func (r *Replacement) request() *replacement.Request {
	if r == nil {
		return nil
	}

	req := replacement.Defaults()
	if r.SystemLifetimeYears != nil {
		req.SystemLifetimeYears = *r.SystemLifetimeYears
	}
	if r.ModuleDegradationRatePctPerYear != nil {
		req.ModuleDegradationRatePct = *r.ModuleDegradationRatePctPerYear
	}
	if r.InverterLifetimeYears != nil {
		req.InverterLifetimeYears = r.InverterLifetimeYears
	}
	if r.InverterEmbodiedKgCO2ePerKWp != nil {
		req.InverterEmbodiedKgCO2ePerKWp = r.InverterEmbodiedKgCO2ePerKWp
	}
	if r.AdditionalReplacementPercentOfEmbodied != nil {
		req.AdditionalReplacementPercentOfEmbodied = r.AdditionalReplacementPercentOfEmbodied
	}
	return &req
}

type Storage struct {
	Included             bool     `json:"included"`
	CapacityKWh          float64  `json:"capacity_kwh"`
	EmbodiedKgCO2ePerKWh *float64 `json:"embodied_kgCO2e_per_kwh,omitempty"`
	RoundtripEfficiency  *float64 `json:"roundtrip_efficiency,omitempty"`
}

func (s *Storage) request() *storage.Request {
	if s == nil {
		return nil
	}
	return &storage.Request{
		Included:             s.Included,
		CapacityKWh:          s.CapacityKWh,
		EmbodiedKgCO2ePerKWh: s.EmbodiedKgCO2ePerKWh,
		RoundtripEfficiency:  s.RoundtripEfficiency,
	}
}

func (req Request) legs() []transport.Leg {
	legs := make([]transport.Leg, len(req.Transport))
	for i, leg := range req.Transport {
		legs[i] = transport.Leg{Mode: leg.Mode, DistanceKm: leg.DistanceKm, MassTonnes: leg.MassTonnes}
	}
	return legs
}

func (req Request) validate() error {
	if req.Year < 1 {
		return fmt.Errorf("%w: year is required", pvcarbon.ErrInvalidInput)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be provided together", pvcarbon.ErrInvalidInput)
	}
	return nil
}
