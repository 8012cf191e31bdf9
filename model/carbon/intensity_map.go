package carbon

import (
	"fmt"
	"slices"
	"strings"

	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/must"
)

// Record is the grid carbon intensity of a country for one year.
type Record struct {
	Country      string
	ISOCode      string
	Year         int
	KgCO2ePerKWh float64
}

// IntensityMap regroups grid carbon intensity by country and year. Countries can
// be looked up by name or ISO3 code, case insensitively.
type IntensityMap struct {
	source    string
	notes     string
	intensity map[string]map[int]float64
	names     map[string]string
}

func NewIntensityMap(source, notes string, records []Record) *IntensityMap {
	intensityMap := &IntensityMap{
		source:    source,
		notes:     notes,
		intensity: make(map[string]map[int]float64),
		names:     make(map[string]string),
	}

	for _, record := range records {
		must.Assert(record.Country != "" || record.ISOCode != "", "intensity record without country nor iso code")
		for _, key := range []string{record.Country, record.ISOCode} {
			if key == "" {
				continue
			}
			normalized := normalize(key)
			if _, found := intensityMap.intensity[normalized]; !found {
				intensityMap.intensity[normalized] = make(map[int]float64)
			}
			intensityMap.intensity[normalized][record.Year] = record.KgCO2ePerKWh
			intensityMap.names[normalized] = key
		}
	}

	return intensityMap
}

func normalize(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

// Len returns the number of distinct country keys (names and codes).
func (intensityMap *IntensityMap) Len() int {
	return len(intensityMap.intensity)
}

// Years returns the years available for a country, in ascending order.
func (intensityMap *IntensityMap) Years(country string) []int {
	years := make([]int, 0)
	for year := range intensityMap.intensity[normalize(country)] {
		years = append(years, year)
	}
	slices.Sort(years)
	return years
}

// Get returns the grid emission factor of country for year. The error wraps
// pvcarbon.ErrNotFound when the pair is missing.
func (intensityMap *IntensityMap) Get(country string, year int) (pvcarbon.EmissionFactor, error) {
	years, found := intensityMap.intensity[normalize(country)]
	if !found {
		return pvcarbon.EmissionFactor{}, fmt.Errorf("%w: no electricity emission factor found for %s%s, provide an override to proceed",
			pvcarbon.ErrNotFound, country, intensityMap.suggest(country))
	}

	value, found := years[year]
	if !found {
		return pvcarbon.EmissionFactor{}, fmt.Errorf("%w: no electricity emission factor found for %s in %d (available years: %s), provide an override to proceed",
			pvcarbon.ErrNotFound, country, year, yearRange(intensityMap.Years(country)))
	}

	return pvcarbon.EmissionFactor{
		Value:  value,
		Unit:   pvcarbon.KgCO2ePerKWh,
		Source: intensityMap.source,
		Year:   year,
		Region: country,
		Notes:  intensityMap.notes,
	}, nil
}

// LookupFunc binds year so that the map can be used with pvcarbon.ResolveFactor.
func (intensityMap *IntensityMap) LookupFunc(year int) pvcarbon.LookupFunc {
	return func(country string) (pvcarbon.EmissionFactor, error) {
		return intensityMap.Get(country, year)
	}
}

func (intensityMap *IntensityMap) suggest(country string) string {
	candidates := make([]string, 0, len(intensityMap.names))
	for _, name := range intensityMap.names {
		candidates = append(candidates, name)
	}
	slices.Sort(candidates)

	if matches := pvcarbon.Suggest(country, candidates); len(matches) > 0 {
		return fmt.Sprintf(" (did you mean %s?)", strings.Join(matches, ", "))
	}
	return ""
}

func yearRange(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d-%d", years[0], years[len(years)-1])
}
