package pvcarbon

import (
	"context"
	"time"
)

// Irradiance column names, in Wh/m² per hour.
const (
	ColumnGlobalHorizontal = "G(h)"
	ColumnPOAGlobal        = "poa_global"
	ColumnPOADirect        = "poa_direct"
	ColumnPOASkyDiffuse    = "poa_sky_diffuse"
	ColumnPOAGroundDiffuse = "poa_ground_diffuse"
)

// IrradianceSeries is an hourly time indexed table of irradiance columns. Every
// column has the same length as Index.
type IrradianceSeries struct {
	Index   []time.Time
	Columns map[string][]float64
}

func (series IrradianceSeries) Len() int {
	return len(series.Index)
}

func (series IrradianceSeries) Column(name string) ([]float64, bool) {
	column, found := series.Columns[name]
	return column, found
}

// IrradianceQuery describes the plane and the year of an irradiance request.
// Azimuth follows the compass convention: 180 is south facing.
type IrradianceQuery struct {
	Latitude  float64
	Longitude float64
	Year      int
	Tilt      float64
	Azimuth   float64
}

// Location of an installation.
type Location struct {
	Latitude  float64
	Longitude float64
	Postcode  string
}

// IrradianceProvider retrieves an hourly irradiance series for one year.
type IrradianceProvider interface {
	Irradiance(ctx context.Context, query IrradianceQuery) (IrradianceSeries, error)
}

// GridIntensitySource resolves the grid electricity carbon intensity of a
// country (name or ISO3 code) for a given year, in kgCO2e/kWh.
type GridIntensitySource interface {
	GridFactor(ctx context.Context, country string, year int) (EmissionFactor, error)
}

// CoordinateResolver resolves a postcode to coordinates.
type CoordinateResolver interface {
	Resolve(ctx context.Context, postcode string) (Location, error)
}
