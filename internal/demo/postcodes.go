package demo

import (
	"context"
	"fmt"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
)

// CoordinateResolver implements pvcarbon.CoordinateResolver for a handful of
// well known UK postcodes.
type CoordinateResolver struct{}

func NewCoordinateResolver() *CoordinateResolver {
	return &CoordinateResolver{}
}

var postcodes = map[string][2]float64{
	"EH11YZ":  {55.9533, -3.1883},
	"SW1A1AA": {51.5010, -0.1416},
	"M11AE":   {53.4794, -2.2453},
	"CF101EP": {51.4816, -3.1791},
}

func (resolver *CoordinateResolver) Resolve(ctx context.Context, postcode string) (pvcarbon.Location, error) {
	coordinates, found := postcodes[strings.ToUpper(strings.ReplaceAll(postcode, " ", ""))]
	if !found {
		return pvcarbon.Location{}, fmt.Errorf("%w: unknown demo postcode %q", pvcarbon.ErrInvalidLocation, postcode)
	}
	return pvcarbon.Location{Latitude: coordinates[0], Longitude: coordinates[1], Postcode: postcode}, nil
}
