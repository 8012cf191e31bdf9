package demo

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	pvcarbon "github.com/superdango/pv-carbon"
)

// IrradianceProvider implements pvcarbon.IrradianceProvider.
// It generates a plausible hourly year for demonstration purpose, without any
// network access. The same query always returns the same series.
type IrradianceProvider struct{}

func NewIrradianceProvider() *IrradianceProvider {
	return &IrradianceProvider{}
}

func (provider *IrradianceProvider) Irradiance(ctx context.Context, query pvcarbon.IrradianceQuery) (pvcarbon.IrradianceSeries, error) {
	if query.Latitude < -90 || query.Latitude > 90 || query.Longitude < -180 || query.Longitude > 180 {
		return pvcarbon.IrradianceSeries{}, fmt.Errorf("%w: coordinates out of range: %g, %g", pvcarbon.ErrInvalidLocation, query.Latitude, query.Longitude)
	}

	start := time.Date(query.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	hours := int(end.Sub(start) / time.Hour)

	series := pvcarbon.IrradianceSeries{
		Index: make([]time.Time, hours),
		Columns: map[string][]float64{
			pvcarbon.ColumnPOADirect:        make([]float64, hours),
			pvcarbon.ColumnPOASkyDiffuse:    make([]float64, hours),
			pvcarbon.ColumnPOAGroundDiffuse: make([]float64, hours),
		},
	}

	seed := uint64(math.Float64bits(query.Latitude)) ^ uint64(math.Float64bits(query.Longitude)) ^ uint64(query.Year)
	random := rand.New(rand.NewPCG(seed, uint64(query.Year)))

	clearness := 1.0
	for i := range hours {
		// one cloud cover draw per day
		if i%24 == 0 {
			if err := ctx.Err(); err != nil {
				return pvcarbon.IrradianceSeries{}, err
			}
			clearness = 0.35 + 0.65*random.Float64()
		}

		instant := start.Add(time.Duration(i) * time.Hour)
		series.Index[i] = instant

		global := naturalIrradianceInstant(instant, query.Latitude, query.Tilt) * clearness

		series.Columns[pvcarbon.ColumnPOADirect][i] = global * 0.7
		series.Columns[pvcarbon.ColumnPOASkyDiffuse][i] = global * 0.27
		series.Columns[pvcarbon.ColumnPOAGroundDiffuse][i] = global * 0.03
	}

	return series, nil
}

// naturalIrradianceInstant generates a clear sky irradiance value in Wh/m² with
// hourly and seasonal variation.
func naturalIrradianceInstant(instant time.Time, latitude, tilt float64) float64 {
	hourlyIrradianceCoefficient := map[int]float64{
		0: 0, 1: 0, 2: 0, 3: 0, 4: 0,
		5:  0.02,
		6:  0.08,
		7:  0.2,
		8:  0.38,
		9:  0.56,
		10: 0.72,
		11: 0.84,
		12: 0.9,
		13: 0.84,
		14: 0.72,
		15: 0.56,
		16: 0.38,
		17: 0.2,
		18: 0.08,
		19: 0.02,
		20: 0, 21: 0, 22: 0, 23: 0,
	}

	// day 172 is the northern summer solstice
	season := math.Cos(2 * math.Pi * float64(instant.YearDay()-172) / 365)
	if latitude < 0 {
		season = -season
	}

	// peak irradiance drops with latitude and its seasonal swing grows with it
	lat := math.Abs(latitude) * math.Pi / 180
	peak := 1000 * math.Cos(lat*0.7) * (1 + 0.45*math.Sin(lat)*season)

	// tilting toward the equator recovers part of the low sun
	tiltGain := 1 + 0.12*math.Sin(math.Min(tilt, 90)*math.Pi/180)

	return max(0, peak*hourlyIrradianceCoefficient[instant.Hour()]*tiltGain)
}
