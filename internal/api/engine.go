package api

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/must"
	"github.com/superdango/pv-carbon/model"
	"github.com/superdango/pv-carbon/model/embodied"
	"github.com/superdango/pv-carbon/model/operational"
	"github.com/superdango/pv-carbon/model/transport"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCountry = "GBR"

	overrideSource = "User override (API request)"
)

type EngineOption func(e *Engine)

func WithIrradianceProvider(provider pvcarbon.IrradianceProvider) EngineOption {
	return func(e *Engine) {
		e.irradiance = provider
	}
}

func WithGridIntensity(source pvcarbon.GridIntensitySource) EngineOption {
	return func(e *Engine) {
		e.grid = source
	}
}

func WithCoordinateResolver(resolver pvcarbon.CoordinateResolver) EngineOption {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// WithMaterialDatabase registers an additional material database, selectable
// by its name in requests. It becomes the default database when asDefault is set.
func WithMaterialDatabase(table pvcarbon.FactorTable, asDefault bool) EngineOption {
	return func(e *Engine) {
		e.databases[table.Name] = table
		if asDefault {
			e.defaultDatabase = table.Name
		}
	}
}

func WithTransportModes(modes pvcarbon.FactorTable) EngineOption {
	return func(e *Engine) {
		e.modes = modes
	}
}

func WithDefaultCountry(country string) EngineOption {
	return func(e *Engine) {
		e.defaultCountry = country
	}
}

// Engine resolves the external data of a request and computes its lifecycle
// report.
type Engine struct {
	irradiance pvcarbon.IrradianceProvider
	grid       pvcarbon.GridIntensitySource
	resolver   pvcarbon.CoordinateResolver

	databases       map[string]pvcarbon.FactorTable
	defaultDatabase string
	modes           pvcarbon.FactorTable
	defaultCountry  string
}

func NewEngine(opts ...EngineOption) *Engine {
	engine := &Engine{
		databases:      make(map[string]pvcarbon.FactorTable),
		modes:          transport.Modes,
		defaultCountry: DefaultCountry,
	}

	for _, name := range embodied.DatabaseNames() {
		table, err := embodied.Database(name)
		must.NoError(err)
		engine.databases[name] = table
	}
	defaultTable, err := embodied.Database("")
	must.NoError(err)
	engine.defaultDatabase = defaultTable.Name

	for _, option := range opts {
		option(engine)
	}

	must.Assert(engine.irradiance != nil, "engine requires an irradiance provider")
	must.Assert(engine.grid != nil, "engine requires a grid intensity source")
	must.Assert(engine.resolver != nil, "engine requires a coordinate resolver")

	return engine
}

// MaterialDatabase returns the material database registered under name, the
// default one when name is empty.
func (e *Engine) MaterialDatabase(name string) (pvcarbon.FactorTable, error) {
	if name == "" {
		name = e.defaultDatabase
	}
	table, found := e.databases[name]
	if !found {
		return pvcarbon.FactorTable{}, fmt.Errorf("%w: unknown material database %q (available: %s)",
			pvcarbon.ErrInvalidInput, name, strings.Join(e.MaterialDatabaseNames(), ", "))
	}
	return table, nil
}

func (e *Engine) MaterialDatabaseNames() []string {
	return slices.Sorted(maps.Keys(e.databases))
}

func (e *Engine) TransportModes() pvcarbon.FactorTable {
	return e.modes
}

// Location resolves the request coordinates. Explicit coordinates take
// precedence over the postcode.
func (e *Engine) Location(ctx context.Context, req Request) (pvcarbon.Location, error) {
	if req.Latitude != nil && req.Longitude != nil {
		location := pvcarbon.Location{Latitude: *req.Latitude, Longitude: *req.Longitude, Postcode: req.Postcode}
		if location.Latitude < -90 || location.Latitude > 90 || location.Longitude < -180 || location.Longitude > 180 {
			return pvcarbon.Location{}, fmt.Errorf("%w: coordinates out of range (lat: %f, lon: %f)",
				pvcarbon.ErrInvalidLocation, location.Latitude, location.Longitude)
		}
		return location, nil
	}

	if strings.TrimSpace(req.Postcode) == "" {
		return pvcarbon.Location{}, fmt.Errorf("%w: must provide either postcode or latitude/longitude", pvcarbon.ErrInvalidLocation)
	}

	location, err := e.resolver.Resolve(ctx, req.Postcode)
	if err != nil {
		return pvcarbon.Location{}, fmt.Errorf("failed to resolve postcode %q: %w", req.Postcode, err)
	}
	return location, nil
}

func (e *Engine) embodiedCalculator(req Request) (*embodied.Calculator, error) {
	table, err := e.MaterialDatabase(req.MaterialDatabase)
	if err != nil {
		return nil, err
	}

	calculator := embodied.NewCalculator()
	calculator.Database = table
	for key, override := range req.MaterialOverrides {
		material, err := embodied.ParseMaterial(key)
		if err != nil {
			return nil, fmt.Errorf("material override: %w", err)
		}
		calculator.Overrides[material] = override.override()
	}
	return calculator, nil
}

func (e *Engine) transportCalculator(req Request) *transport.Calculator {
	calculator := transport.NewCalculator()
	calculator.Modes = e.modes
	for mode, override := range req.TransportOverrides {
		calculator.Overrides[transport.NormalizeMode(mode)] = override.override()
	}
	return calculator
}

func (e *Engine) gridFactor(ctx context.Context, req Request) (pvcarbon.EmissionFactor, error) {
	country := req.CountryCode
	if country == "" {
		country = e.defaultCountry
	}

	var override *pvcarbon.Override
	if req.CarbonFactorOverride != nil {
		override = &pvcarbon.Override{
			Value:  *req.CarbonFactorOverride,
			Source: overrideSource,
			Year:   req.Year,
			Region: country,
		}
	}

	return pvcarbon.ResolveFactor(country, pvcarbon.KgCO2ePerKWh, func(country string) (pvcarbon.EmissionFactor, error) {
		return e.grid.GridFactor(ctx, country, req.Year)
	}, override)
}

// Calculate computes the lifecycle report of req. Only an invalid request or
// an unresolvable location fail the whole calculation: the irradiance and the
// grid factor are fetched concurrently and their failure is confined to the
// operational stage.
func (e *Engine) Calculate(ctx context.Context, req Request) (*model.Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	constructionReq, err := req.Construction.request()
	if err != nil {
		return nil, err
	}

	embodiedCalculator, err := e.embodiedCalculator(req)
	if err != nil {
		return nil, err
	}

	location, err := e.Location(ctx, req)
	if err != nil {
		return nil, err
	}

	in := model.Input{
		Location: location,
		System: operational.SystemParams{
			AreaM2:           req.AreaM2,
			ModuleEfficiency: req.ModuleEfficiency,
		},
		Materials:           req.Materials.quantities(),
		Embodied:            embodiedCalculator,
		Transport:           req.legs(),
		TransportCalculator: e.transportCalculator(req),
		Construction:        constructionReq,
		Replacement:         req.Replacement.request(),
		Storage:             req.Storage.request(),
	}

	errg := new(errgroup.Group)

	errg.Go(func() error {
		in.Irradiance, in.IrradianceErr = e.irradiance.Irradiance(ctx, pvcarbon.IrradianceQuery{
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			Year:      req.Year,
			Tilt:      req.SurfaceTilt,
			Azimuth:   req.SurfaceAzimuth,
		})
		return nil
	})

	errg.Go(func() error {
		in.CarbonFactor, in.CarbonFactorErr = e.gridFactor(ctx, req)
		return nil
	})

	must.NoError(errg.Wait())

	report := model.Aggregate(in)

	attrs := []any{"report_id", report.ID.String(), "emitted_kgCO2e", report.EmittedKgCO2e()}
	for _, stage := range report.Stages() {
		if stage.Failed() {
			attrs = append(attrs, slog.String(string(stage.Stage), stage.Err.Error()))
		}
	}
	slog.Info("lifecycle report computed", attrs...)

	return report, nil
}
