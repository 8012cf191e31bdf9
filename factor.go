package pvcarbon

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Unit of an emission factor
type Unit string

const (
	KgCO2ePerKg          Unit = "kgCO2e/kg"
	KgCO2ePerKWh         Unit = "kgCO2e/kWh"
	KgCO2ePerTkm         Unit = "kgCO2e/tkm"
	KgCO2ePerLitre       Unit = "kgCO2e/L"
	KgCO2ePerKm          Unit = "kgCO2e/km"
	KgCO2ePerKWp         Unit = "kgCO2e/kWp"
	KgCO2ePerKWhCapacity Unit = "kgCO2e/kWh_capacity"
)

// GenericRegion is the region of factors coming from static tables.
const GenericRegion = "generic"

const (
	defaultOverrideSource = "User override"
	overrideNotes         = "User-supplied value overrides default database"
)

// EmissionFactor is a scalar factor with its provenance. It is passed by value
// and never modified once built.
type EmissionFactor struct {
	Value      float64
	Unit       Unit
	Source     string
	Year       int
	Region     string
	Notes      string
	Overridden bool
}

func (f EmissionFactor) String() string {
	return fmt.Sprintf("%g %s (%s, %d, %s)", f.Value, f.Unit, f.Source, f.Year, f.Region)
}

// Override is a caller supplied factor value. A nil *Override means the default
// database is used.
type Override struct {
	Value  float64
	Source string
	Year   int
	Region string
}

// LookupFunc resolves a factor from a default database. It must return an error
// wrapping ErrNotFound when the key has no entry.
type LookupFunc func(key string) (EmissionFactor, error)

// ResolveFactor returns the override when one is set, and otherwise delegates
// to lookup. An override always wins and is never validated here: calculators
// reject negative values themselves.
func ResolveFactor(key string, unit Unit, lookup LookupFunc, override *Override) (EmissionFactor, error) {
	if override != nil {
		factor := EmissionFactor{
			Value:      override.Value,
			Unit:       unit,
			Source:     override.Source,
			Year:       override.Year,
			Region:     override.Region,
			Notes:      overrideNotes,
			Overridden: true,
		}
		if factor.Source == "" {
			factor.Source = defaultOverrideSource
		}
		if factor.Region == "" {
			factor.Region = GenericRegion
		}
		return factor, nil
	}

	if lookup == nil {
		return EmissionFactor{}, fmt.Errorf("%w: no database configured for %q, provide an override to proceed", ErrNotFound, key)
	}

	factor, err := lookup(key)
	if err != nil {
		return EmissionFactor{}, fmt.Errorf("failed to resolve factor %q: %w", key, err)
	}

	if factor.Unit != unit {
		return EmissionFactor{}, fmt.Errorf("%w: factor %q is expressed in %s, expected %s", ErrInvalidInput, key, factor.Unit, unit)
	}

	return factor, nil
}

// FactorTable is a static emission factor database.
type FactorTable struct {
	Name    string
	Factors map[string]EmissionFactor
	Labels  map[string]string
}

// Lookup implements LookupFunc. Zero valued entries are placeholders that have
// not been populated yet and are reported as not found.
func (table FactorTable) Lookup(key string) (EmissionFactor, error) {
	factor, found := table.Factors[key]
	if !found {
		return EmissionFactor{}, fmt.Errorf("%w: %q is not defined in %s%s", ErrNotFound, key, table.Name, table.suggest(key))
	}

	if factor.Value == 0 {
		return EmissionFactor{}, fmt.Errorf("%w: %q has not yet been populated with a value in %s, provide an override to proceed", ErrNotFound, key, table.Name)
	}

	return factor, nil
}

// Label returns the human readable description of key.
func (table FactorTable) Label(key string) string {
	if label, found := table.Labels[key]; found {
		return label
	}
	return key
}

// Keys returns the table keys sorted lexicographically.
func (table FactorTable) Keys() []string {
	keys := make([]string, 0, len(table.Factors))
	for k := range table.Factors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// With returns a copy of the table where entries are added or replaced.
func (table FactorTable) With(name string, factors map[string]EmissionFactor, labels map[string]string) FactorTable {
	merged := FactorTable{
		Name:    name,
		Factors: make(map[string]EmissionFactor, len(table.Factors)+len(factors)),
		Labels:  make(map[string]string, len(table.Labels)+len(labels)),
	}
	for k, v := range table.Factors {
		merged.Factors[k] = v
	}
	for k, v := range table.Labels {
		merged.Labels[k] = v
	}
	for k, v := range factors {
		merged.Factors[k] = v
	}
	for k, v := range labels {
		merged.Labels[k] = v
	}
	return merged
}

func (table FactorTable) suggest(key string) string {
	keys := table.Keys()
	if len(keys) == 0 {
		return ""
	}
	if matches := Suggest(key, keys); len(matches) > 0 {
		return fmt.Sprintf(" (did you mean %s?)", strings.Join(matches, ", "))
	}
	return fmt.Sprintf(" (available: %s)", strings.Join(keys, ", "))
}

// Suggest returns up to three candidates close to key, best match first.
func Suggest(key string, candidates []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(key, candidates)
	if len(ranks) == 0 {
		// fall back to matching each word of the key
		for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == ' ' || r == '-' }) {
			ranks = append(ranks, fuzzy.RankFindNormalizedFold(part, candidates)...)
		}
	}
	sort.Sort(ranks)

	suggestions := make([]string, 0, 3)
	for _, rank := range ranks {
		if slices.Contains(suggestions, rank.Target) {
			continue
		}
		suggestions = append(suggestions, rank.Target)
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}
